package nlp

import (
	"strings"
	"unicode"
)

// SplitSentences splits free text into sentences. Comments are short
// and informally punctuated, so the heuristic is permissive: terminator
// followed by whitespace or end of text, with very short fragments
// dropped.
func SplitSentences(text string) []string {
	text = strings.ReplaceAll(text, "\n", " ")

	var sentences []string
	var current strings.Builder

	runes := []rune(text)
	for i, r := range runes {
		current.WriteRune(r)

		if r == '.' || r == '!' || r == '?' {
			atEnd := i+1 >= len(runes)
			if atEnd || unicode.IsSpace(runes[i+1]) {
				sentence := strings.TrimSpace(current.String())
				if len(sentence) >= 10 {
					sentences = append(sentences, sentence)
				}
				current.Reset()
			}
		}
	}

	// Unterminated trailing text still counts as a sentence
	if current.Len() > 0 {
		sentence := strings.TrimSpace(current.String())
		if len(sentence) >= 10 {
			sentences = append(sentences, sentence)
		}
	}

	return sentences
}

// Normalize produces the dedup key for a claim: lowercased, punctuation
// stripped, whitespace collapsed.
func Normalize(text string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(text) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// Tokens returns the normalized word tokens of a text
func Tokens(text string) []string {
	return strings.Fields(Normalize(text))
}

// TokenSet returns the distinct normalized tokens of a text
func TokenSet(text string) map[string]bool {
	set := make(map[string]bool)
	for _, tok := range Tokens(text) {
		set[tok] = true
	}
	return set
}

// Jaccard computes set overlap: |a n b| / |a u b|. Empty sets yield 0.
func Jaccard(a, b map[string]bool) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	intersection := 0
	for tok := range a {
		if b[tok] {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

package nlp

import (
	"regexp"
	"strings"

	"github.com/Ngulliinsights/Chanuka-sub014/internal/model"
)

// EvidenceMention is an evidentiary span detected inside a sentence,
// typed but not yet verified or scored.
type EvidenceMention struct {
	Source string             // As cited, e.g. "2023 study"
	Type   model.EvidenceType // Pattern-matched evidence type
	Span   string             // The sentence fragment that matched
}

// EntityExtractor detects evidentiary entities (citations, statistics,
// legal references, expert attributions) in sentences.
type EntityExtractor struct {
	statistical []*regexp.Regexp
	legal       []*regexp.Regexp
	expert      []*regexp.Regexp
	anecdotal   []*regexp.Regexp
}

// NewEntityExtractor creates an entity extractor with the built-in
// pattern set
func NewEntityExtractor() *EntityExtractor {
	return &EntityExtractor{
		statistical: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b((?:19|20)\d{2})\s+(study|report|survey|analysis)\b`),
			regexp.MustCompile(`(?i)\b(study|survey|report|research)\s+(?:by|from)\s+([A-Z][\w&. ]{2,40})`),
			regexp.MustCompile(`(?i)\b(\d+(?:\.\d+)?)\s*(?:percent\b|%)`),
			regexp.MustCompile(`(?i)\baccording to\s+(?:a|the)?\s*(data|statistics|census|figures)\b`),
		},
		legal: []*regexp.Regexp{
			regexp.MustCompile(`\b([A-Z][\w']+)\s+v\.?\s+([A-Z][\w']+)\b`),
			regexp.MustCompile(`(?i)\b(section|article|title)\s+(\d+[\w.]*)\b`),
			regexp.MustCompile(`(?i)\b([A-Z][\w ]{2,40}\bact(?:\s+of\s+\d{4})?)\b`),
			regexp.MustCompile(`(?i)\b(supreme court|court of appeals|circuit court)\b.{0,40}\b(ruled|held|decided|ruling|decision)\b`),
		},
		expert: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(?:professor|dr\.|economist|researcher)\s+([A-Z][\w'-]+)`),
			regexp.MustCompile(`(?i)\baccording to\s+(?:the\s+)?([A-Z][\w&. ]{2,50})`),
			regexp.MustCompile(`(?i)\b(experts?|scientists?|economists?)\s+(?:say|agree|warn|estimate|argue)\b`),
		},
		anecdotal: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(in my experience|happened to me|i witnessed|my family|my neighborhood|at my job|my business)\b`),
		},
	}
}

// Extract returns the evidentiary mentions found in a sentence.
// Pattern precedence mirrors base type weight: legal and statistical
// patterns are checked before expert and anecdotal ones, so a sentence
// matching both "2023 study" and "according to" is typed statistical.
func (e *EntityExtractor) Extract(sentence string) []EvidenceMention {
	var mentions []EvidenceMention
	seen := make(map[string]bool)

	add := func(source string, t model.EvidenceType, span string) {
		source = strings.TrimSpace(source)
		if source == "" {
			return
		}
		key := strings.ToLower(source)
		if seen[key] {
			return
		}
		seen[key] = true
		mentions = append(mentions, EvidenceMention{Source: source, Type: t, Span: span})
	}

	for _, re := range e.legal {
		if m := re.FindStringSubmatch(sentence); m != nil {
			add(m[0], model.EvidenceLegalPrecedent, m[0])
		}
	}
	for _, re := range e.statistical {
		if m := re.FindStringSubmatch(sentence); m != nil {
			add(m[0], model.EvidenceStatistical, m[0])
		}
	}
	for _, re := range e.expert {
		if m := re.FindStringSubmatch(sentence); m != nil {
			// Skip spans already typed as statistical/legal
			if !covered(mentions, m[0]) {
				add(m[0], model.EvidenceExpertOpinion, m[0])
			}
		}
	}
	for _, re := range e.anecdotal {
		if m := re.FindStringSubmatch(sentence); m != nil {
			add(m[0], model.EvidenceAnecdotal, m[0])
		}
	}

	return mentions
}

// covered reports whether a span overlaps an already-detected mention
func covered(mentions []EvidenceMention, span string) bool {
	lower := strings.ToLower(span)
	for _, m := range mentions {
		existing := strings.ToLower(m.Span)
		if strings.Contains(existing, lower) || strings.Contains(lower, existing) {
			return true
		}
	}
	return false
}

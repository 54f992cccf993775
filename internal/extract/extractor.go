package extract

import (
	"context"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/net/html"

	"github.com/Ngulliinsights/Chanuka-sub014/internal/evidence"
	"github.com/Ngulliinsights/Chanuka-sub014/internal/model"
	"github.com/Ngulliinsights/Chanuka-sub014/internal/nlp"
)

// Namespace for deterministic argument/claim ids, keyed by source
// comment. Re-extracting the same comment upserts the same records.
var extractNamespace = uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")

// Extraction is the full output of structuring one comment
type Extraction struct {
	Arguments []model.ExtractedArgument
	Claims    []model.Claim
	Evidence  []model.Evidence
}

// Extractor turns one comment into zero or more structured arguments
// with claims and scored evidence. Extraction is stateless and safely
// parallel across comments.
type Extractor struct {
	classifier nlp.SentenceClassifier
	validator  *evidence.Validator
	cfg        model.ExtractionConfig
}

// NewExtractor creates a structure extractor
func NewExtractor(classifier nlp.SentenceClassifier, validator *evidence.Validator, cfg model.ExtractionConfig) *Extractor {
	if cfg.MaxCommentLength <= 0 {
		cfg.MaxCommentLength = 10000
	}
	if cfg.PositionThreshold <= 0 {
		cfg.PositionThreshold = 0.55
	}
	return &Extractor{
		classifier: classifier,
		validator:  validator,
		cfg:        cfg,
	}
}

// sentenceSpan pairs a sentence with its classification
type sentenceSpan struct {
	text  string
	class nlp.Classification
}

// Extract structures a comment. Empty or whitespace-only text yields
// an empty extraction, not an error: nothing was said, nothing is
// lost. Malformed input (invalid encoding, oversized) fails with
// ExtractionError. Merely ambiguous text never errors; it yields one
// low-confidence neutral argument so every valid comment stays
// traceable.
func (e *Extractor) Extract(ctx context.Context, comment model.Comment) (*Extraction, error) {
	text := comment.Text
	if strings.TrimSpace(text) == "" {
		return &Extraction{}, nil
	}
	if !utf8.ValidString(text) {
		return nil, &model.ExtractionError{Reason: "text is not valid UTF-8"}
	}
	if strings.ContainsRune(text, 0) {
		return nil, &model.ExtractionError{Reason: "text contains NUL bytes"}
	}
	if utf8.RuneCountInString(text) > e.cfg.MaxCommentLength {
		return nil, &model.ExtractionError{Reason: "text exceeds maximum comment length"}
	}

	// Citizens paste rich text; strip markup before sentence analysis
	if strings.Contains(text, "<") && strings.Contains(text, ">") {
		stripped, err := stripMarkup(text)
		if err != nil {
			return nil, &model.ExtractionError{Reason: "undecodable markup"}
		}
		text = stripped
	}

	sentences := nlp.SplitSentences(text)

	var spans []sentenceSpan
	for _, s := range sentences {
		class := e.classifier.Classify(s)
		if class.Category == nlp.CategoryIrrelevant {
			continue
		}
		spans = append(spans, sentenceSpan{text: s, class: class})
	}

	groups := groupByPositionShift(spans)

	out := &Extraction{}
	for i, group := range groups {
		arg, claims, evs := e.buildArgument(ctx, comment, i, group)
		out.Arguments = append(out.Arguments, arg)
		out.Claims = append(out.Claims, claims...)
		out.Evidence = append(out.Evidence, evs...)
	}

	// Ambiguous but valid input: emit a traceable neutral record
	if len(out.Arguments) == 0 {
		out.Arguments = append(out.Arguments, model.ExtractedArgument{
			ID:              argumentID(comment.ID, 0),
			SourceCommentID: comment.ID,
			BillID:          comment.BillID,
			UserID:          comment.UserID,
			Position:        model.PositionNeutral,
			Strength:        0,
			Confidence:      0.2,
			Text:            strings.TrimSpace(text),
			CreatedAt:       comment.Timestamp,
		})
	}

	return out, nil
}

// groupByPositionShift groups contiguous spans into one argument per
// detected position shift: a new non-neutral polarity that contradicts
// the group's established polarity closes the group.
func groupByPositionShift(spans []sentenceSpan) [][]sentenceSpan {
	var groups [][]sentenceSpan
	var current []sentenceSpan
	currentPolarity := model.PositionNeutral

	for _, span := range spans {
		polarity := span.class.Polarity
		shift := polarity != model.PositionNeutral &&
			currentPolarity != model.PositionNeutral &&
			polarity != currentPolarity

		if shift && len(current) > 0 {
			groups = append(groups, current)
			current = nil
			currentPolarity = model.PositionNeutral
		}

		current = append(current, span)
		if polarity != model.PositionNeutral {
			currentPolarity = polarity
		}
	}
	if len(current) > 0 {
		groups = append(groups, current)
	}
	return groups
}

// buildArgument assembles one argument from a span group: claims from
// claim sentences, evidence assessed per claim with trailing evidence
// sentences attached to the nearest preceding claim.
func (e *Extractor) buildArgument(ctx context.Context, comment model.Comment, index int, group []sentenceSpan) (model.ExtractedArgument, []model.Claim, []model.Evidence) {
	argID := argumentID(comment.ID, index)

	// Partition sentences into per-claim assessment texts. Evidence
	// sentences before the first claim attach to that first claim.
	type claimSpan struct {
		sentence string
		class    nlp.Classification
		support  []string // Evidence sentences attached to this claim
	}
	var claimSpans []claimSpan
	var orphaned []string

	for _, span := range group {
		switch span.class.Category {
		case nlp.CategoryClaim:
			claimSpans = append(claimSpans, claimSpan{sentence: span.text, class: span.class})
		case nlp.CategoryEvidence:
			if len(claimSpans) == 0 {
				orphaned = append(orphaned, span.text)
			} else {
				last := &claimSpans[len(claimSpans)-1]
				last.support = append(last.support, span.text)
			}
		}
	}
	if len(claimSpans) > 0 && len(orphaned) > 0 {
		first := &claimSpans[0]
		first.support = append(append([]string{}, orphaned...), first.support...)
	}

	var claims []model.Claim
	var toAssess []model.Claim // Assessment input: claim id + claim with attached support
	seenClaims := make(map[string]bool)

	for _, cs := range claimSpans {
		normalized := nlp.Normalize(cs.sentence)
		if seenClaims[normalized] {
			continue
		}
		seenClaims[normalized] = true

		claimID := uuid.NewSHA1(extractNamespace, []byte(argID+"|claim|"+normalized)).String()
		claims = append(claims, model.Claim{
			ID:             claimID,
			ArgumentID:     argID,
			Text:           cs.sentence,
			NormalizedText: normalized,
		})
		toAssess = append(toAssess, model.Claim{
			ID:   claimID,
			Text: strings.Join(append([]string{cs.sentence}, cs.support...), " "),
		})
	}

	// Assess the claim batch with bounded lookup concurrency
	assessments := e.validator.AssessAll(ctx, toAssess)

	var evs []model.Evidence
	for i, assessment := range assessments {
		for _, ev := range assessment.Evidence {
			claims[i].EvidenceIDs = append(claims[i].EvidenceIDs, ev.ID)
		}
		evs = append(evs, assessment.Evidence...)
	}

	position, confidence := e.votePosition(group, claims)

	arg := model.ExtractedArgument{
		ID:              argID,
		SourceCommentID: comment.ID,
		BillID:          comment.BillID,
		UserID:          comment.UserID,
		Position:        position,
		Strength:        strength(len(claims), evidence.MeanCredibility(assessments)),
		Confidence:      confidence,
		Text:            joinSpans(group),
		CreatedAt:       comment.Timestamp,
	}
	for _, c := range claims {
		arg.ClaimIDs = append(arg.ClaimIDs, c.ID)
	}

	return arg, claims, evs
}

// votePosition takes the majority vote of per-claim polarity. Ties or
// mean confidence below the threshold default to neutral.
func (e *Extractor) votePosition(group []sentenceSpan, claims []model.Claim) (model.Position, float64) {
	votes := make(map[model.Position]int)
	confSum := make(map[model.Position]float64)

	for _, span := range group {
		if span.class.Category != nlp.CategoryClaim && span.class.Category != nlp.CategoryOpinion {
			continue
		}
		votes[span.class.Polarity]++
		confSum[span.class.Polarity] += span.class.Confidence
	}

	support, oppose := votes[model.PositionSupport], votes[model.PositionOppose]
	switch {
	case support > oppose:
		conf := confSum[model.PositionSupport] / float64(support)
		if conf < e.cfg.PositionThreshold {
			return model.PositionNeutral, conf
		}
		return model.PositionSupport, conf
	case oppose > support:
		conf := confSum[model.PositionOppose] / float64(oppose)
		if conf < e.cfg.PositionThreshold {
			return model.PositionNeutral, conf
		}
		return model.PositionOppose, conf
	default:
		return model.PositionNeutral, 0.5
	}
}

// strength computes normalized(claim_count x mean evidence
// credibility) scaled to 0-100. Five substantiated claims saturate the
// scale.
func strength(claimCount int, meanCredibility float64) float64 {
	if claimCount == 0 {
		return 0
	}
	n := float64(claimCount)
	if n > 5 {
		n = 5
	}
	return (n / 5) * meanCredibility * 100
}

func joinSpans(group []sentenceSpan) string {
	parts := make([]string, len(group))
	for i, span := range group {
		parts[i] = span.text
	}
	return strings.Join(parts, " ")
}

func argumentID(commentID string, index int) string {
	return uuid.NewSHA1(extractNamespace, []byte(commentID+"|arg|"+strconv.Itoa(index))).String()
}

// stripMarkup extracts visible text from pasted HTML, skipping script
// and style subtrees
func stripMarkup(raw string) (string, error) {
	doc, err := html.Parse(strings.NewReader(raw))
	if err != nil {
		return "", err
	}

	var buf strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "iframe":
				return
			}
		}
		if n.Type == html.TextNode {
			if text := strings.TrimSpace(n.Data); text != "" {
				buf.WriteString(text)
				buf.WriteString(" ")
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return buf.String(), nil
}

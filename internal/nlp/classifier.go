package nlp

import (
	"fmt"
	"strings"

	"github.com/Ngulliinsights/Chanuka-sub014/internal/model"
)

// SentenceCategory is the role a sentence plays in a comment
type SentenceCategory string

const (
	CategoryClaim      SentenceCategory = "claim"      // Assertive factual statement
	CategoryEvidence   SentenceCategory = "evidence"   // Cites support for a claim
	CategoryOpinion    SentenceCategory = "opinion"    // First-person sentiment without assertion
	CategoryIrrelevant SentenceCategory = "irrelevant" // Greetings, signatures, noise
)

// Classification is the classifier's verdict for one sentence
type Classification struct {
	Category   SentenceCategory // Sentence role
	Polarity   model.Position   // Stance toward the bill
	Confidence float64          // 0-1
	Heuristic  string           // Which rule matched, e.g. "keyword:oppose"
}

// SentenceClassifier classifies one sentence. Implementations are
// selected by configuration, not type dispatch, so rule-based and
// model-based variants stay interchangeable.
type SentenceClassifier interface {
	Classify(text string) Classification
}

// NewClassifier selects a classifier variant by configured name. The
// embedder is consulted only by the embedding-assisted variant.
func NewClassifier(cfg model.ExtractionConfig, embedder Embedder) (SentenceClassifier, error) {
	switch cfg.Classifier {
	case "", "rules":
		return NewRuleClassifier(), nil
	case "embedding":
		if embedder == nil {
			return nil, fmt.Errorf("embedding classifier requires an embedder")
		}
		return NewEmbeddingClassifier(NewRuleClassifier(), embedder), nil
	default:
		return nil, fmt.Errorf("unknown classifier: %s", cfg.Classifier)
	}
}

// RuleClassifier classifies sentences by keyword heuristics
type RuleClassifier struct {
	supportKeywords  []string
	opposeKeywords   []string
	claimKeywords    []string
	evidenceKeywords []string
	opinionKeywords  []string
}

// NewRuleClassifier creates the default rule-based classifier
func NewRuleClassifier() *RuleClassifier {
	return &RuleClassifier{
		supportKeywords: []string{
			"support", "in favor", "should pass", "must pass", "urge passage",
			"vote yes", "will help", "will improve", "benefit", "good for",
			"should require", "is necessary", "long overdue", "prevent",
			"protect",
		},
		opposeKeywords: []string{
			"oppose", "against", "should not", "must not", "reject",
			"vote no", "veto", "will hurt", "will harm", "bad for",
			"too expensive", "unconstitutional", "overreach", "kill this bill",
			"strike down",
		},
		claimKeywords: []string{
			"should", "must", "will", "would", "requires", "prevents",
			"causes", "leads to", "results in", "is required", "shall",
			"needs to", "has to", "increases", "reduces",
		},
		evidenceKeywords: []string{
			"study", "studies", "according to", "research", "survey",
			"statistics", "data", "report", "percent", "%", "court",
			"ruling", "precedent", "statute", "in my experience",
			"i witnessed", "happened to me", "expert", "economist",
			"professor",
		},
		opinionKeywords: []string{
			"i think", "i feel", "i believe", "in my opinion", "personally",
			"i hope", "i wish",
		},
	}
}

// Classify classifies a single sentence
func (c *RuleClassifier) Classify(text string) Classification {
	lower := strings.ToLower(text)

	polarity, polarityConf, polarityHit := c.polarity(lower)

	// Category precedence: claim beats evidence beats opinion. A
	// sentence asserting something and citing a study in one breath is
	// a claim; its citation is picked up by the entity extractor and
	// attached as evidence.
	if hit := firstMatch(lower, c.claimKeywords); hit != "" {
		return Classification{
			Category:   CategoryClaim,
			Polarity:   polarity,
			Confidence: polarityConf,
			Heuristic:  "keyword:" + hit,
		}
	}
	if hit := firstMatch(lower, c.evidenceKeywords); hit != "" {
		return Classification{
			Category:   CategoryEvidence,
			Polarity:   polarity,
			Confidence: polarityConf,
			Heuristic:  "keyword:" + hit,
		}
	}
	if hit := firstMatch(lower, c.opinionKeywords); hit != "" {
		return Classification{
			Category:   CategoryOpinion,
			Polarity:   polarity,
			Confidence: polarityConf * 0.8,
			Heuristic:  "keyword:" + hit,
		}
	}

	// Polarity keywords without claim structure still read as opinion
	if polarityHit != "" {
		return Classification{
			Category:   CategoryOpinion,
			Polarity:   polarity,
			Confidence: polarityConf * 0.8,
			Heuristic:  "keyword:" + polarityHit,
		}
	}

	return Classification{
		Category:   CategoryIrrelevant,
		Polarity:   model.PositionNeutral,
		Confidence: 0.3,
		Heuristic:  "no-match",
	}
}

// polarity scores stance keywords and derives a confidence from the
// margin between support and oppose hits
func (c *RuleClassifier) polarity(lower string) (model.Position, float64, string) {
	supportHits, supportFirst := countMatches(lower, c.supportKeywords)
	opposeHits, opposeFirst := countMatches(lower, c.opposeKeywords)

	switch {
	case supportHits > opposeHits:
		return model.PositionSupport, marginConfidence(supportHits, opposeHits), supportFirst
	case opposeHits > supportHits:
		return model.PositionOppose, marginConfidence(opposeHits, supportHits), opposeFirst
	default:
		return model.PositionNeutral, 0.4, ""
	}
}

// marginConfidence maps a keyword-hit margin onto [0.6, 0.95]
func marginConfidence(winner, loser int) float64 {
	conf := 0.6 + 0.15*float64(winner-loser)
	if winner > 0 && loser > 0 {
		conf -= 0.1 // Mixed signals lower confidence
	}
	if conf > 0.95 {
		conf = 0.95
	}
	if conf < 0.6 {
		conf = 0.6
	}
	return conf
}

func firstMatch(lower string, keywords []string) string {
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return kw
		}
	}
	return ""
}

func countMatches(lower string, keywords []string) (int, string) {
	count := 0
	first := ""
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			count++
			if first == "" {
				first = kw
			}
		}
	}
	return count, first
}

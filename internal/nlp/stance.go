package nlp

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Ngulliinsights/Chanuka-sub014/internal/model"
)

// Stance exemplars the embedding classifier compares against. Polarity
// is decided by which side's exemplars the sentence sits closer to.
var (
	supportExemplars = []string{
		"i support this bill and urge passage",
		"this bill will help our community and should pass",
		"the committee should vote yes on this bill",
	}
	opposeExemplars = []string{
		"i oppose this bill and urge the committee to reject it",
		"this bill will harm our community and should not pass",
		"the committee should vote no on this bill",
	}
)

// Minimum cosine margin between the two sides before the embedding
// verdict overrides a neutral keyword reading
const stanceMargin = 0.05

// EmbeddingClassifier layers stance-exemplar similarity over the rule
// classifier. Categories stay rule-based; embeddings arbitrate polarity
// only when keyword signals cancel out or are absent.
type EmbeddingClassifier struct {
	rules    *RuleClassifier
	embedder Embedder

	once    sync.Once
	seedErr error
	support [][]float64
	oppose  [][]float64
}

// NewEmbeddingClassifier creates an embedding-assisted classifier on
// top of the given rule classifier
func NewEmbeddingClassifier(rules *RuleClassifier, embedder Embedder) *EmbeddingClassifier {
	return &EmbeddingClassifier{rules: rules, embedder: embedder}
}

// Classify delegates to the rules and refines neutral polarity with
// the stance exemplars. Embedding failures keep the rule verdict.
func (c *EmbeddingClassifier) Classify(text string) Classification {
	base := c.rules.Classify(text)
	if base.Category == CategoryIrrelevant || base.Polarity != model.PositionNeutral {
		return base
	}

	polarity, conf, ok := c.stance(text)
	if !ok {
		return base
	}
	base.Polarity = polarity
	base.Confidence = conf
	base.Heuristic = "embedding:" + string(polarity)
	return base
}

func (c *EmbeddingClassifier) stance(text string) (model.Position, float64, bool) {
	c.once.Do(c.embedExemplars)
	if c.seedErr != nil {
		return model.PositionNeutral, 0, false
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	vecs, err := c.embedder.Embed(ctx, []string{text})
	if err != nil || len(vecs) != 1 {
		return model.PositionNeutral, 0, false
	}

	margin := maxCosine(vecs[0], c.support) - maxCosine(vecs[0], c.oppose)
	switch {
	case margin > stanceMargin:
		return model.PositionSupport, stanceConfidence(margin), true
	case -margin > stanceMargin:
		return model.PositionOppose, stanceConfidence(-margin), true
	default:
		return model.PositionNeutral, 0, false
	}
}

func (c *EmbeddingClassifier) embedExemplars() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	all := append(append([]string{}, supportExemplars...), opposeExemplars...)
	vecs, err := c.embedder.Embed(ctx, all)
	if err != nil {
		c.seedErr = err
		return
	}
	if len(vecs) != len(all) {
		c.seedErr = fmt.Errorf("exemplar embedding count mismatch: want %d, got %d", len(all), len(vecs))
		return
	}
	c.support = vecs[:len(supportExemplars)]
	c.oppose = vecs[len(supportExemplars):]
}

func maxCosine(v []float64, seeds [][]float64) float64 {
	best := -1.0
	for _, s := range seeds {
		if sim := Cosine(v, s); sim > best {
			best = sim
		}
	}
	return best
}

// stanceConfidence maps the similarity margin onto the same band the
// keyword margin uses, capped below a strong keyword verdict
func stanceConfidence(margin float64) float64 {
	conf := 0.6 + margin
	if conf > 0.8 {
		conf = 0.8
	}
	return conf
}

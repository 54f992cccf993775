package nlp

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/Ngulliinsights/Chanuka-sub014/internal/model"
)

func TestRuleClassifier_ClaimWithOpposePolarity(t *testing.T) {
	c := NewRuleClassifier()

	class := c.Classify("This bill will hurt small businesses.")
	if class.Category != CategoryClaim {
		t.Errorf("Expected claim, got %s (heuristic %s)", class.Category, class.Heuristic)
	}
	if class.Polarity != model.PositionOppose {
		t.Errorf("Expected oppose polarity, got %s", class.Polarity)
	}
	if class.Confidence < 0.6 {
		t.Errorf("Expected confidence >= 0.6, got %v", class.Confidence)
	}
}

func TestRuleClassifier_ClaimBeatsEvidence(t *testing.T) {
	c := NewRuleClassifier()

	// Asserts and cites in one sentence: the assertion wins the
	// category, the citation is the entity extractor's job
	class := c.Classify("The bill will raise costs according to a 2023 study.")
	if class.Category != CategoryClaim {
		t.Errorf("Expected claim to take precedence over evidence, got %s", class.Category)
	}
}

func TestRuleClassifier_EvidenceSentence(t *testing.T) {
	c := NewRuleClassifier()

	class := c.Classify("A 2023 study showed a 40% rise in compliance costs.")
	if class.Category != CategoryEvidence {
		t.Errorf("Expected evidence, got %s (heuristic %s)", class.Category, class.Heuristic)
	}
}

func TestRuleClassifier_Opinion(t *testing.T) {
	c := NewRuleClassifier()

	class := c.Classify("I think this is a terrible idea, personally.")
	if class.Category != CategoryOpinion {
		t.Errorf("Expected opinion, got %s", class.Category)
	}
}

func TestRuleClassifier_PolarityOnlyIsOpinion(t *testing.T) {
	c := NewRuleClassifier()

	class := c.Classify("I strongly oppose this terrible bill.")
	if class.Category != CategoryOpinion {
		t.Errorf("Expected opinion for stance without claim structure, got %s", class.Category)
	}
	if class.Polarity != model.PositionOppose {
		t.Errorf("Expected oppose, got %s", class.Polarity)
	}
}

func TestRuleClassifier_Irrelevant(t *testing.T) {
	c := NewRuleClassifier()

	class := c.Classify("Dear committee members, greetings from Springfield.")
	if class.Category != CategoryIrrelevant {
		t.Errorf("Expected irrelevant, got %s (heuristic %s)", class.Category, class.Heuristic)
	}
	if class.Polarity != model.PositionNeutral {
		t.Errorf("Expected neutral polarity, got %s", class.Polarity)
	}
}

func TestRuleClassifier_MixedSignalsLowerConfidence(t *testing.T) {
	c := NewRuleClassifier()

	clean := c.Classify("This bill will hurt small businesses.")
	// "protect" (support) and "will hurt" x "bad for" (oppose) both hit
	mixed := c.Classify("This bill claims to protect workers but will hurt them and is bad for wages.")

	if mixed.Polarity != model.PositionOppose {
		t.Fatalf("Expected oppose to win on hit count, got %s", mixed.Polarity)
	}
	if mixed.Confidence >= clean.Confidence {
		t.Errorf("Expected mixed signals below clean signal confidence %v, got %v", clean.Confidence, mixed.Confidence)
	}
}

func TestMarginConfidence_Bounds(t *testing.T) {
	for winner := 1; winner <= 6; winner++ {
		for loser := 0; loser < winner; loser++ {
			conf := marginConfidence(winner, loser)
			if conf < 0.6 || conf > 0.95 {
				t.Errorf("marginConfidence(%d,%d) = %v out of [0.6,0.95]", winner, loser, conf)
			}
		}
	}
}

func TestNewClassifier_VariantSelection(t *testing.T) {
	rules, err := NewClassifier(model.ExtractionConfig{}, nil)
	if err != nil {
		t.Fatalf("Expected default variant, got %v", err)
	}
	if _, ok := rules.(*RuleClassifier); !ok {
		t.Errorf("Expected rule classifier by default, got %T", rules)
	}

	assisted, err := NewClassifier(model.ExtractionConfig{Classifier: "embedding"}, NewLocalEmbedder(64))
	if err != nil {
		t.Fatalf("Expected embedding variant, got %v", err)
	}
	if _, ok := assisted.(*EmbeddingClassifier); !ok {
		t.Errorf("Expected embedding classifier, got %T", assisted)
	}

	if _, err := NewClassifier(model.ExtractionConfig{Classifier: "embedding"}, nil); err == nil {
		t.Error("Expected error for embedding variant without an embedder")
	}
	if _, err := NewClassifier(model.ExtractionConfig{Classifier: "neural"}, nil); err == nil {
		t.Error("Expected error for unknown classifier")
	}
}

// stanceEmbedder maps texts onto a two-dimensional stance axis by
// marker words, so exemplar similarity is fully controlled
type stanceEmbedder struct {
	calls int
}

func (s *stanceEmbedder) Name() string { return "stance-stub" }

func (s *stanceEmbedder) Embed(_ context.Context, texts []string) ([][]float64, error) {
	s.calls++
	out := make([][]float64, len(texts))
	for i, t := range texts {
		lower := strings.ToLower(t)
		switch {
		case strings.Contains(lower, "urge passage") || strings.Contains(lower, "expand"):
			out[i] = []float64{1, 0}
		case strings.Contains(lower, "reject") || strings.Contains(lower, "shrink"):
			out[i] = []float64{0, 1}
		default:
			out[i] = []float64{0.7071, 0.7071}
		}
	}
	return out, nil
}

func TestEmbeddingClassifier_ResolvesNeutralPolarity(t *testing.T) {
	c := NewEmbeddingClassifier(NewRuleClassifier(), &stanceEmbedder{})

	// "will" gives claim structure but no stance keyword fires
	class := c.Classify("This bill will expand the housing supply.")
	if class.Category != CategoryClaim {
		t.Fatalf("Expected claim category from the rules, got %s", class.Category)
	}
	if class.Polarity != model.PositionSupport {
		t.Errorf("Expected exemplar similarity to resolve support, got %s", class.Polarity)
	}
	if class.Confidence < 0.6 || class.Confidence > 0.8 {
		t.Errorf("Expected confidence in [0.6, 0.8], got %v", class.Confidence)
	}
	if class.Heuristic != "embedding:support" {
		t.Errorf("Expected embedding heuristic recorded, got %s", class.Heuristic)
	}

	class = c.Classify("This bill will shrink the housing supply.")
	if class.Polarity != model.PositionOppose {
		t.Errorf("Expected oppose from exemplar similarity, got %s", class.Polarity)
	}
}

func TestEmbeddingClassifier_KeywordStanceWins(t *testing.T) {
	stub := &stanceEmbedder{}
	c := NewEmbeddingClassifier(NewRuleClassifier(), stub)

	class := c.Classify("This bill will hurt small businesses.")
	if class.Polarity != model.PositionOppose {
		t.Fatalf("Expected keyword oppose untouched, got %s", class.Polarity)
	}
	if stub.calls != 0 {
		t.Errorf("Expected no embedding calls for a keyword verdict, got %d", stub.calls)
	}
}

// failingEmbedder always errors
type failingEmbedder struct{}

func (failingEmbedder) Name() string { return "failing" }

func (failingEmbedder) Embed(_ context.Context, _ []string) ([][]float64, error) {
	return nil, errors.New("embedding backend down")
}

func TestEmbeddingClassifier_FallsBackOnEmbedderError(t *testing.T) {
	c := NewEmbeddingClassifier(NewRuleClassifier(), failingEmbedder{})

	class := c.Classify("This bill will expand the housing supply.")
	if class.Category != CategoryClaim {
		t.Errorf("Expected the rule category preserved, got %s", class.Category)
	}
	if class.Polarity != model.PositionNeutral {
		t.Errorf("Expected the rule polarity preserved on failure, got %s", class.Polarity)
	}
}

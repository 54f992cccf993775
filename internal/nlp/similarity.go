package nlp

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/Ngulliinsights/Chanuka-sub014/internal/cache"
)

// SimilarityCalculator computes cosine similarity between texts using
// an embedding provider. Vectors are memoized in an explicit cache
// owned by the caller, so similarity state never outlives the synthesis
// job it belongs to.
type SimilarityCalculator struct {
	embedder Embedder
	cache    cache.Cache
	ttl      time.Duration
}

// NewSimilarityCalculator creates a calculator over the given embedder
// and cache. A nil cache disables memoization.
func NewSimilarityCalculator(embedder Embedder, c cache.Cache) *SimilarityCalculator {
	return &SimilarityCalculator{
		embedder: embedder,
		cache:    c,
		ttl:      time.Hour,
	}
}

// Vectors returns embedding vectors for the given texts, consulting
// the cache first and embedding only the misses in one batch.
func (s *SimilarityCalculator) Vectors(ctx context.Context, texts []string) ([][]float64, error) {
	vectors := make([][]float64, len(texts))
	var missTexts []string
	var missIdx []int

	for i, text := range texts {
		if vec, ok := s.cached(text); ok {
			vectors[i] = vec
			continue
		}
		missTexts = append(missTexts, text)
		missIdx = append(missIdx, i)
	}

	if len(missTexts) > 0 {
		embedded, err := s.embedder.Embed(ctx, missTexts)
		if err != nil {
			return nil, fmt.Errorf("embed: %w", err)
		}
		for j, vec := range embedded {
			vectors[missIdx[j]] = vec
			s.store(missTexts[j], vec)
		}
	}

	return vectors, nil
}

// Cosine computes cosine similarity between two vectors. Mismatched or
// zero vectors yield 0.
func Cosine(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

func (s *SimilarityCalculator) cached(text string) ([]float64, bool) {
	if s.cache == nil {
		return nil, false
	}
	data, ok := s.cache.Get(cache.Key("embed", text))
	if !ok {
		return nil, false
	}
	var vec []float64
	if err := json.Unmarshal(data, &vec); err != nil {
		return nil, false
	}
	return vec, true
}

func (s *SimilarityCalculator) store(text string, vec []float64) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(vec)
	if err != nil {
		return
	}
	_ = s.cache.Set(cache.Key("embed", text), data, s.ttl)
}

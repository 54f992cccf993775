package nlp

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/Ngulliinsights/Chanuka-sub014/internal/model"
)

// Embedder turns text into a vector for similarity comparison
type Embedder interface {
	// Name returns the provider name
	Name() string

	// Embed returns one vector per input text, all the same dimension
	Embed(ctx context.Context, texts []string) ([][]float64, error)
}

// NewEmbedder selects an embedding provider by configured name.
// The local provider is deterministic and needs no network, so the
// full pipeline runs without an API key.
func NewEmbedder(cfg model.EmbeddingConfig) (Embedder, error) {
	switch cfg.Provider {
	case "", "local":
		return NewLocalEmbedder(cfg.Dimensions), nil
	case "openai":
		return NewOpenAIEmbedder(cfg)
	default:
		return nil, fmt.Errorf("unknown embedding provider: %s", cfg.Provider)
	}
}

// OpenAIEmbedder produces embeddings via the OpenAI embeddings API
// (or any BaseURL-compatible endpoint)
type OpenAIEmbedder struct {
	client  *openai.Client
	model   openai.EmbeddingModel
	timeout time.Duration
}

// NewOpenAIEmbedder creates an OpenAI-backed embedder
func NewOpenAIEmbedder(cfg model.EmbeddingConfig) (*OpenAIEmbedder, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	embModel := openai.SmallEmbedding3
	if cfg.Model != "" {
		embModel = openai.EmbeddingModel(cfg.Model)
	}

	timeout := time.Duration(cfg.TimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &OpenAIEmbedder{
		client:  openai.NewClientWithConfig(clientConfig),
		model:   embModel,
		timeout: timeout,
	}, nil
}

// Name returns the provider name
func (e *OpenAIEmbedder) Name() string {
	return "openai"
}

// Embed calls the embeddings API for a batch of texts
func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: texts,
		Model: e.model,
	})
	if err != nil {
		return nil, fmt.Errorf("create embeddings: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("embedding count mismatch: want %d, got %d", len(texts), len(resp.Data))
	}

	vectors := make([][]float64, len(resp.Data))
	for i, d := range resp.Data {
		vec := make([]float64, len(d.Embedding))
		for j, v := range d.Embedding {
			vec[j] = float64(v)
		}
		vectors[i] = vec
	}
	return vectors, nil
}

// LocalEmbedder is a deterministic token-hash vectorizer. It captures
// lexical overlap only, which is enough for near-duplicate and shared-
// vocabulary grouping when no embedding API is configured.
type LocalEmbedder struct {
	dims int
}

// NewLocalEmbedder creates a local embedder with the given dimension
func NewLocalEmbedder(dims int) *LocalEmbedder {
	if dims <= 0 {
		dims = 256
	}
	return &LocalEmbedder{dims: dims}
}

// Name returns the provider name
func (e *LocalEmbedder) Name() string {
	return "local"
}

// Embed hashes unigrams and bigrams into a fixed-size vector and
// L2-normalizes it
func (e *LocalEmbedder) Embed(_ context.Context, texts []string) ([][]float64, error) {
	vectors := make([][]float64, len(texts))
	for i, text := range texts {
		vectors[i] = e.vectorize(text)
	}
	return vectors, nil
}

func (e *LocalEmbedder) vectorize(text string) []float64 {
	vec := make([]float64, e.dims)
	tokens := Tokens(text)

	for _, tok := range tokens {
		vec[e.bucket(tok)]++
	}
	// Bigrams preserve some word order
	for i := 0; i+1 < len(tokens); i++ {
		vec[e.bucket(tokens[i]+" "+tokens[i+1])] += 0.5
	}

	var norm float64
	for _, v := range vec {
		norm += v * v
	}
	if norm > 0 {
		norm = math.Sqrt(norm)
		for i := range vec {
			vec[i] /= norm
		}
	}
	return vec
}

func (e *LocalEmbedder) bucket(token string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(token))
	return int(h.Sum32() % uint32(e.dims))
}

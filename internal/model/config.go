package model

// Config holds the complete pipeline configuration.
// Hierarchy (highest to lowest priority): CLI flags, CHANUKA_* env
// vars, config file (~/.chanuka/config.yaml), these defaults.
type Config struct {
	Extraction  ExtractionConfig  `yaml:"extraction" mapstructure:"extraction"`
	Embedding   EmbeddingConfig   `yaml:"embedding" mapstructure:"embedding"`
	Knowledge   KnowledgeConfig   `yaml:"knowledge" mapstructure:"knowledge"`
	Clustering  ClusteringConfig  `yaml:"clustering" mapstructure:"clustering"`
	Astroturf   AstroturfConfig   `yaml:"astroturf" mapstructure:"astroturf"`
	Coalition   CoalitionConfig   `yaml:"coalition" mapstructure:"coalition"`
	Balance     BalanceConfig     `yaml:"balance" mapstructure:"balance"`
	Brief       BriefConfig       `yaml:"brief" mapstructure:"brief"`
	Concurrency ConcurrencyConfig `yaml:"concurrency" mapstructure:"concurrency"`
	Store       StoreConfig       `yaml:"store" mapstructure:"store"`
}

// ExtractionConfig tunes the structure extractor
type ExtractionConfig struct {
	Classifier        string  `yaml:"classifier" mapstructure:"classifier"`                 // "rules" (default) or "embedding"
	MaxCommentLength  int     `yaml:"max_comment_length" mapstructure:"max_comment_length"` // Longer input is rejected as malformed
	PositionThreshold float64 `yaml:"position_threshold" mapstructure:"position_threshold"` // Below this confidence, default to neutral
}

// EmbeddingConfig selects and tunes the embedding provider
type EmbeddingConfig struct {
	Provider   string `yaml:"provider" mapstructure:"provider"`       // "local" (default) or "openai"
	Model      string `yaml:"model" mapstructure:"model"`             // Provider-specific model name
	APIKey     string `yaml:"api_key" mapstructure:"api_key"`         // Prefer OPENAI_API_KEY env
	BaseURL    string `yaml:"base_url" mapstructure:"base_url"`       // Custom endpoint (e.g. local server)
	Dimensions int    `yaml:"dimensions" mapstructure:"dimensions"`   // Vector size for the local provider
	TimeoutSec int    `yaml:"timeout_sec" mapstructure:"timeout_sec"` // Per-request timeout
}

// KnowledgeConfig configures evidence verification registries
type KnowledgeConfig struct {
	VerifiedSources []string          `yaml:"verified_sources" mapstructure:"verified_sources"` // Whitelist of recognized sources
	Contested       []string          `yaml:"contested" mapstructure:"contested"`               // Contested-claims registry entries
	GroundTruth     map[string]string `yaml:"ground_truth" mapstructure:"ground_truth"`         // Claim pattern -> contradicting fact
	LookupURL       string            `yaml:"lookup_url" mapstructure:"lookup_url"`             // Optional HTTP knowledge base
	LookupTimeoutMS int               `yaml:"lookup_timeout_ms" mapstructure:"lookup_timeout_ms"`
	RatePerSecond   float64           `yaml:"rate_per_second" mapstructure:"rate_per_second"` // Per-host outbound rate limit
	UserAgent       string            `yaml:"user_agent" mapstructure:"user_agent"`
}

// ClusteringConfig holds the similarity clustering knobs. The
// threshold and cutoff are heuristic defaults meant to be tuned
// against real comment corpora.
type ClusteringConfig struct {
	SimilarityThreshold float64 `yaml:"similarity_threshold" mapstructure:"similarity_threshold"` // Join threshold, default 0.82
	BucketThreshold     int     `yaml:"bucket_threshold" mapstructure:"bucket_threshold"`         // Partition size that triggers approximate bucketing
	BatchSize           int     `yaml:"batch_size" mapstructure:"batch_size"`                     // Cancellation is checked between batches
}

// AstroturfConfig tunes the coordinated-behavior heuristics
type AstroturfConfig struct {
	PhrasingThreshold float64 `yaml:"phrasing_threshold" mapstructure:"phrasing_threshold"` // Near-identical phrasing ratio considered suspicious
	BurstWindowSec    int     `yaml:"burst_window_sec" mapstructure:"burst_window_sec"`     // Narrow submission window
	BurstRatio        float64 `yaml:"burst_ratio" mapstructure:"burst_ratio"`               // Share of submissions inside the window
	ReviewThreshold   float64 `yaml:"review_threshold" mapstructure:"review_threshold"`     // Confidence above which moderation is notified
}

// CoalitionConfig tunes cross-cluster relationship detection
type CoalitionConfig struct {
	JaccardThreshold float64 `yaml:"jaccard_threshold" mapstructure:"jaccard_threshold"` // Vocabulary/commenter overlap floor
}

// BalanceConfig tunes fairness re-weighting
type BalanceConfig struct {
	AstroturfCutoff float64 `yaml:"astroturf_cutoff" mapstructure:"astroturf_cutoff"` // Above this, weight is forced to the floor
	WeightFloor     float64 `yaml:"weight_floor" mapstructure:"weight_floor"`         // Near-zero, never exactly zero
	VisibilityFloor float64 `yaml:"visibility_floor" mapstructure:"visibility_floor"` // Minority clusters below this get the boost
}

// BriefConfig tunes brief generation
type BriefConfig struct {
	TopN int `yaml:"top_n" mapstructure:"top_n"` // Clusters per position selected by weight
}

// ConcurrencyConfig sizes the worker pools
type ConcurrencyConfig struct {
	ExtractionWorkers int `yaml:"extraction_workers" mapstructure:"extraction_workers"`
	LookupWorkers     int `yaml:"lookup_workers" mapstructure:"lookup_workers"`
}

// StoreConfig selects the persistence backend
type StoreConfig struct {
	Driver string `yaml:"driver" mapstructure:"driver"` // "memory" (default) or "sqlite"
	Path   string `yaml:"path" mapstructure:"path"`     // SQLite database path
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		Extraction: ExtractionConfig{
			Classifier:        "rules",
			MaxCommentLength:  10000,
			PositionThreshold: 0.55,
		},
		Embedding: EmbeddingConfig{
			Provider:   "local",
			Dimensions: 256,
			TimeoutSec: 30,
		},
		Knowledge: KnowledgeConfig{
			VerifiedSources: []string{
				"congressional budget office",
				"government accountability office",
				"census bureau",
				"bureau of labor statistics",
				"supreme court",
				"federal register",
			},
			Contested:       []string{},
			GroundTruth:     map[string]string{},
			LookupTimeoutMS: 2000,
			RatePerSecond:   5,
			UserAgent:       "Chanuka/0.1 (+https://github.com/Ngulliinsights/Chanuka-sub014)",
		},
		Clustering: ClusteringConfig{
			SimilarityThreshold: 0.82,
			BucketThreshold:     500,
			BatchSize:           100,
		},
		Astroturf: AstroturfConfig{
			PhrasingThreshold: 0.9,
			BurstWindowSec:    600,
			BurstRatio:        0.5,
			ReviewThreshold:   0.7,
		},
		Coalition: CoalitionConfig{
			JaccardThreshold: 0.35,
		},
		Balance: BalanceConfig{
			AstroturfCutoff: 0.7,
			WeightFloor:     0.01,
			VisibilityFloor: 0.1,
		},
		Brief: BriefConfig{
			TopN: 5,
		},
		Concurrency: ConcurrencyConfig{
			ExtractionWorkers: 8,
			LookupWorkers:     20,
		},
		Store: StoreConfig{
			Driver: "memory",
		},
	}
}

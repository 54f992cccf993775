package model

import "time"

// PositionCount reports raw argument counts for one position.
// Raw counts are always published next to weights so the fairness
// re-weighting stays auditable.
type PositionCount struct {
	Position Position `json:"position" yaml:"position"`
	Count    int      `json:"count" yaml:"count"`
}

// BriefCluster is one selected cluster inside a brief, carrying both
// the raw size and the adjusted weight it was ranked by.
type BriefCluster struct {
	ClusterID        string   `json:"cluster_id" yaml:"cluster_id"`
	Position         Position `json:"position" yaml:"position"`
	Summary          string   `json:"summary" yaml:"summary"`
	RawSize          int      `json:"raw_size" yaml:"raw_size"`
	Weight           float64  `json:"weight" yaml:"weight"`
	AstroturfWarning bool     `json:"astroturf_warning" yaml:"astroturf_warning"` // Flagged but still surfaced
	MinorityBoosted  bool     `json:"minority_boosted" yaml:"minority_boosted"`
}

// LegislativeBrief is the synthesized, fairness-weighted public summary
// of citizen input for one bill.
type LegislativeBrief struct {
	ID                string          `json:"id" yaml:"id"`
	BillID            string          `json:"bill_id" yaml:"bill_id"`
	PositionBreakdown []PositionCount `json:"position_breakdown" yaml:"position_breakdown"`
	SelectedClusters  []BriefCluster  `json:"selected_clusters" yaml:"selected_clusters"` // Weighted ranking
	CoalitionIDs      []string        `json:"coalition_ids,omitempty" yaml:"coalition_ids,omitempty"`
	Narrative         string          `json:"narrative" yaml:"narrative"` // Template-composed summary text
	GeneratedAt       time.Time       `json:"generated_at" yaml:"generated_at"`
	SynthesisJobID    string          `json:"synthesis_job_id" yaml:"synthesis_job_id"`
}

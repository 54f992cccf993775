package model

// ArgumentCluster groups semantically similar arguments sharing one
// position. Membership is disjoint within a (bill, position) partition:
// every argument belongs to exactly one cluster.
type ArgumentCluster struct {
	ID                 string   `json:"id"`
	BillID             string   `json:"bill_id"`
	Position           Position `json:"position"`
	MemberArgumentIDs  []string `json:"member_argument_ids"` // Sorted for stable comparison
	RepresentativeText string   `json:"representative_text"` // Text of the medoid argument
	Size               int      `json:"size"`
	Weight             float64  `json:"weight"`                 // Populated by the balancer; 0 until then
	AstroturfingConf   float64  `json:"astroturfing_confidence"` // 0-1, populated by the detector
}

// Coalition annotates a cross-cluster stakeholder relationship. It is
// metadata only and never restructures cluster membership.
type Coalition struct {
	ID                   string   `json:"id"`
	BillID               string   `json:"bill_id"`
	ClusterIDs           []string `json:"cluster_ids"` // Sorted
	StakeholderSignature string   `json:"stakeholder_signature"`
	Size                 int      `json:"size"` // Total arguments across member clusters
}

// AstroturfingSignal is the detector's verdict for one cluster. It
// feeds the balancer (weight discount) and the moderation collaborator;
// it never deletes or hides data.
type AstroturfingSignal struct {
	ClusterID  string                 `json:"cluster_id"`
	BillID     string                 `json:"bill_id"`
	Confidence float64                `json:"confidence"` // 0-1
	Reasons    []string               `json:"reasons"`    // Human-readable heuristic hits
	Data       map[string]interface{} `json:"data,omitempty"` // Transparent heuristic inputs
}

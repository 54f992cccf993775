package coalition

import (
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/Ngulliinsights/Chanuka-sub014/internal/model"
	"github.com/Ngulliinsights/Chanuka-sub014/internal/nlp"
)

// Namespace for deterministic coalition ids
var coalitionNamespace = uuid.MustParse("7c9e6679-7425-40de-944b-e07fc1f90ae7")

// Finder annotates cross-cluster stakeholder relationships. Coalitions
// are metadata only: cluster membership is never merged or mutated, so
// per-cluster provenance survives.
type Finder struct {
	cfg model.CoalitionConfig
}

// NewFinder creates a coalition finder
func NewFinder(cfg model.CoalitionConfig) *Finder {
	if cfg.JaccardThreshold <= 0 {
		cfg.JaccardThreshold = 0.35
	}
	return &Finder{cfg: cfg}
}

// clusterProfile is the overlap fingerprint of one cluster
type clusterProfile struct {
	cluster    model.ArgumentCluster
	vocabulary map[string]bool // Claim-vocabulary tokens
	commenters map[string]bool // Distinct submitting users
}

// Find groups clusters of compatible positions that share claim
// vocabulary or commenter identity above the Jaccard threshold.
// Support and oppose clusters never coalesce; neutral is compatible
// with either side.
func (f *Finder) Find(billID string, clusters []model.ArgumentCluster, argumentsByID map[string]model.ExtractedArgument, claimsByArgument map[string][]model.Claim) []model.Coalition {
	profiles := make([]clusterProfile, len(clusters))
	for i, c := range clusters {
		profiles[i] = f.profile(c, argumentsByID, claimsByArgument)
	}

	// Union-find over pairwise overlap edges
	parent := make([]int, len(clusters))
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(x int) int {
		for parent[x] != x {
			parent[x] = parent[parent[x]]
			x = parent[x]
		}
		return x
	}
	union := func(a, b int) {
		ra, rb := find(a), find(b)
		if ra != rb {
			parent[rb] = ra
		}
	}

	for i := 0; i < len(profiles); i++ {
		for j := i + 1; j < len(profiles); j++ {
			if !compatible(profiles[i].cluster.Position, profiles[j].cluster.Position) {
				continue
			}
			vocab := nlp.Jaccard(profiles[i].vocabulary, profiles[j].vocabulary)
			commenters := nlp.Jaccard(profiles[i].commenters, profiles[j].commenters)
			if vocab >= f.cfg.JaccardThreshold || commenters >= f.cfg.JaccardThreshold {
				union(i, j)
			}
		}
	}

	components := make(map[int][]int)
	for i := range profiles {
		root := find(i)
		components[root] = append(components[root], i)
	}

	var coalitions []model.Coalition
	for _, memberIdx := range components {
		if len(memberIdx) < 2 {
			continue
		}
		coalitions = append(coalitions, f.buildCoalition(billID, profiles, memberIdx))
	}

	sort.Slice(coalitions, func(i, j int) bool { return coalitions[i].ID < coalitions[j].ID })
	return coalitions
}

func (f *Finder) profile(c model.ArgumentCluster, argumentsByID map[string]model.ExtractedArgument, claimsByArgument map[string][]model.Claim) clusterProfile {
	p := clusterProfile{
		cluster:    c,
		vocabulary: make(map[string]bool),
		commenters: make(map[string]bool),
	}
	for _, argID := range c.MemberArgumentIDs {
		if arg, ok := argumentsByID[argID]; ok && arg.UserID != "" {
			p.commenters[arg.UserID] = true
		}
		for _, claim := range claimsByArgument[argID] {
			for tok := range nlp.TokenSet(claim.NormalizedText) {
				if len(tok) > 3 { // Skip function words
					p.vocabulary[tok] = true
				}
			}
		}
	}
	return p
}

func (f *Finder) buildCoalition(billID string, profiles []clusterProfile, memberIdx []int) model.Coalition {
	clusterIDs := make([]string, len(memberIdx))
	size := 0
	shared := make(map[string]int)
	for i, idx := range memberIdx {
		clusterIDs[i] = profiles[idx].cluster.ID
		size += profiles[idx].cluster.Size
		for tok := range profiles[idx].vocabulary {
			shared[tok]++
		}
	}
	sort.Strings(clusterIDs)

	return model.Coalition{
		ID:                   uuid.NewSHA1(coalitionNamespace, []byte(billID+"|"+strings.Join(clusterIDs, ","))).String(),
		BillID:               billID,
		ClusterIDs:           clusterIDs,
		StakeholderSignature: signature(shared, len(memberIdx)),
		Size:                 size,
	}
}

// signature names the coalition by the vocabulary shared across all
// member clusters
func signature(shared map[string]int, clusterCount int) string {
	var common []string
	for tok, n := range shared {
		if n == clusterCount {
			common = append(common, tok)
		}
	}
	sort.Strings(common)
	if len(common) > 5 {
		common = common[:5]
	}
	if len(common) == 0 {
		return "shared-commenters"
	}
	return strings.Join(common, "+")
}

// compatible reports whether two positions may share a coalition
func compatible(a, b model.Position) bool {
	if a == b {
		return true
	}
	return a == model.PositionNeutral || b == model.PositionNeutral
}

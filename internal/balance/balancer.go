package balance

import (
	"math"
	"sort"

	"github.com/Ngulliinsights/Chanuka-sub014/internal/model"
)

// Credibility factor assumed for clusters whose arguments carry no
// scored evidence at all
const defaultCredibility = 0.5

// Balancer computes fairness-adjusted weights for clusters:
//
//	weight = log(1 + size) x credibility_factor x (1 - astroturfing_confidence)
//
// High astroturfing confidence forces the weight to a floor near zero
// but never suppresses the cluster: flagged clusters still surface in
// the brief with a warning. Minority positions get an additive boost
// so at least one cluster per observed position reaches the brief
// regardless of raw size.
type Balancer struct {
	cfg model.BalanceConfig
}

// NewBalancer creates a power balancer
func NewBalancer(cfg model.BalanceConfig) *Balancer {
	if cfg.AstroturfCutoff <= 0 {
		cfg.AstroturfCutoff = 0.7
	}
	if cfg.WeightFloor <= 0 {
		cfg.WeightFloor = 0.01
	}
	if cfg.VisibilityFloor <= 0 {
		cfg.VisibilityFloor = 0.1
	}
	return &Balancer{cfg: cfg}
}

// Reweight populates the weight field of every cluster and returns the
// ids of clusters that received the minority visibility boost.
// Credibility is the mean evidence credibility per cluster id; clusters
// missing from the map use a neutral default.
func (b *Balancer) Reweight(clusters []model.ArgumentCluster, credibility map[string]float64) ([]model.ArgumentCluster, map[string]bool) {
	out := make([]model.ArgumentCluster, len(clusters))
	copy(out, clusters)

	for i := range out {
		out[i].Weight = b.weight(out[i], credibility)
	}

	boosted := b.boostMinorities(out)
	return out, boosted
}

func (b *Balancer) weight(c model.ArgumentCluster, credibility map[string]float64) float64 {
	cred, ok := credibility[c.ID]
	if !ok || cred <= 0 {
		cred = defaultCredibility
	}

	w := math.Log(1+float64(c.Size)) * cred * (1 - c.AstroturfingConf)

	// Confident astroturfing forces the floor; visibility is preserved,
	// dominance is not.
	if c.AstroturfingConf > b.cfg.AstroturfCutoff {
		w = b.cfg.WeightFloor
	}
	if w < b.cfg.WeightFloor {
		w = b.cfg.WeightFloor
	}
	return w
}

// boostMinorities raises the best cluster of any position whose entire
// partition sits below the visibility floor, guaranteeing every
// observed position one brief-worthy cluster. Clusters held at the
// weight floor for confident astroturfing are ineligible: the boost
// must never undo the coordination discount.
func (b *Balancer) boostMinorities(clusters []model.ArgumentCluster) map[string]bool {
	boosted := make(map[string]bool)

	byPosition := make(map[model.Position][]int)
	for i, c := range clusters {
		if c.AstroturfingConf > b.cfg.AstroturfCutoff {
			continue
		}
		byPosition[c.Position] = append(byPosition[c.Position], i)
	}

	for _, idxs := range byPosition {
		best := -1
		for _, i := range idxs {
			if best == -1 || clusters[i].Weight > clusters[best].Weight ||
				(clusters[i].Weight == clusters[best].Weight && clusters[i].ID < clusters[best].ID) {
				best = i
			}
		}
		if best >= 0 && clusters[best].Weight < b.cfg.VisibilityFloor {
			clusters[best].Weight += b.cfg.VisibilityFloor
			boosted[clusters[best].ID] = true
		}
	}

	return boosted
}

// SortByWeight orders clusters by descending weight with a
// deterministic id tie-break
func SortByWeight(clusters []model.ArgumentCluster) {
	sort.Slice(clusters, func(i, j int) bool {
		if clusters[i].Weight != clusters[j].Weight {
			return clusters[i].Weight > clusters[j].Weight
		}
		return clusters[i].ID < clusters[j].ID
	})
}

package balance

import (
	"math"
	"testing"

	"github.com/Ngulliinsights/Chanuka-sub014/internal/model"
)

func TestReweight_Formula(t *testing.T) {
	b := NewBalancer(model.BalanceConfig{})

	clusters := []model.ArgumentCluster{
		{ID: "c1", Position: model.PositionSupport, Size: 10, AstroturfingConf: 0.2},
	}
	out, _ := b.Reweight(clusters, map[string]float64{"c1": 0.5})

	want := math.Log(11) * 0.5 * 0.8
	if diff := out[0].Weight - want; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("Expected weight %v, got %v", want, out[0].Weight)
	}
}

func TestReweight_AstroturfedMajorityLosesDominance(t *testing.T) {
	b := NewBalancer(model.BalanceConfig{})

	// 900 near-identical flagged submissions vs 10 organic arguments
	clusters := []model.ArgumentCluster{
		{ID: "campaign", Position: model.PositionSupport, Size: 900, AstroturfingConf: 0.95},
		{ID: "organic", Position: model.PositionOppose, Size: 10, AstroturfingConf: 0.0},
	}
	out, _ := b.Reweight(clusters, map[string]float64{"campaign": 0.7, "organic": 0.7})

	var campaign, organic model.ArgumentCluster
	for _, c := range out {
		switch c.ID {
		case "campaign":
			campaign = c
		case "organic":
			organic = c
		}
	}

	if campaign.Weight != 0.01 {
		t.Errorf("Expected confident astroturfing forced to the weight floor, got %v", campaign.Weight)
	}
	if organic.Weight <= campaign.Weight {
		t.Errorf("Expected organic cluster to outweigh the campaign, got %v vs %v", organic.Weight, campaign.Weight)
	}
	// Visible, not suppressed
	if campaign.Weight <= 0 {
		t.Error("Expected flagged cluster to keep a nonzero weight")
	}
}

func TestReweight_DefaultCredibilityWithoutEvidence(t *testing.T) {
	b := NewBalancer(model.BalanceConfig{})

	clusters := []model.ArgumentCluster{
		{ID: "c1", Position: model.PositionSupport, Size: 4},
	}
	out, _ := b.Reweight(clusters, nil)

	want := math.Log(5) * 0.5
	if diff := out[0].Weight - want; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("Expected neutral default credibility, weight %v, got %v", want, out[0].Weight)
	}
}

func TestReweight_MinorityBoost(t *testing.T) {
	b := NewBalancer(model.BalanceConfig{})

	clusters := []model.ArgumentCluster{
		{ID: "big", Position: model.PositionSupport, Size: 200},
		// Tiny neutral cluster with weak credibility sits below the
		// visibility floor on its own
		{ID: "tiny", Position: model.PositionNeutral, Size: 1},
	}
	out, boosted := b.Reweight(clusters, map[string]float64{"big": 0.8, "tiny": 0.1})

	if !boosted["tiny"] {
		t.Fatalf("Expected the minority cluster boosted, got %v", boosted)
	}
	for _, c := range out {
		if c.ID == "tiny" && c.Weight < 0.1 {
			t.Errorf("Expected boosted weight >= visibility floor, got %v", c.Weight)
		}
		if c.ID == "big" && boosted["big"] {
			t.Error("Expected the dominant cluster unboosted")
		}
	}
}

func TestReweight_FlaggedClusterNeverBoosted(t *testing.T) {
	b := NewBalancer(model.BalanceConfig{})

	// Only cluster of its position, floored for astroturfing; the
	// visibility boost must not rescue it
	clusters := []model.ArgumentCluster{
		{ID: "flagged", Position: model.PositionSupport, Size: 400, AstroturfingConf: 0.9},
	}
	out, boosted := b.Reweight(clusters, map[string]float64{"flagged": 0.8})

	if boosted["flagged"] {
		t.Fatal("Expected flagged cluster ineligible for the minority boost")
	}
	if out[0].Weight != 0.01 {
		t.Errorf("Expected weight held at the floor, got %v", out[0].Weight)
	}
}

func TestReweight_BoostFallsToOrganicSibling(t *testing.T) {
	b := NewBalancer(model.BalanceConfig{})

	clusters := []model.ArgumentCluster{
		{ID: "flagged", Position: model.PositionOppose, Size: 500, AstroturfingConf: 0.95},
		{ID: "organic", Position: model.PositionOppose, Size: 1},
	}
	out, boosted := b.Reweight(clusters, map[string]float64{"flagged": 0.9, "organic": 0.1})

	if boosted["flagged"] {
		t.Error("Expected the flagged cluster skipped")
	}
	if !boosted["organic"] {
		t.Fatal("Expected the organic sibling to receive the boost instead")
	}
	for _, c := range out {
		if c.ID == "flagged" && c.Weight != 0.01 {
			t.Errorf("Expected flagged weight at the floor, got %v", c.Weight)
		}
		if c.ID == "organic" && c.Weight < 0.1 {
			t.Errorf("Expected boosted organic weight >= visibility floor, got %v", c.Weight)
		}
	}
}

func TestReweight_InputUntouched(t *testing.T) {
	b := NewBalancer(model.BalanceConfig{})

	clusters := []model.ArgumentCluster{{ID: "c1", Position: model.PositionSupport, Size: 5}}
	_, _ = b.Reweight(clusters, nil)

	if clusters[0].Weight != 0 {
		t.Errorf("Expected caller's slice untouched, weight = %v", clusters[0].Weight)
	}
}

func TestSortByWeight(t *testing.T) {
	clusters := []model.ArgumentCluster{
		{ID: "b", Weight: 0.5},
		{ID: "a", Weight: 0.5},
		{ID: "c", Weight: 0.9},
	}
	SortByWeight(clusters)

	if clusters[0].ID != "c" {
		t.Errorf("Expected heaviest first, got %s", clusters[0].ID)
	}
	if clusters[1].ID != "a" || clusters[2].ID != "b" {
		t.Errorf("Expected id tie-break, got %s then %s", clusters[1].ID, clusters[2].ID)
	}
}

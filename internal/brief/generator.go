package brief

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Ngulliinsights/Chanuka-sub014/internal/balance"
	"github.com/Ngulliinsights/Chanuka-sub014/internal/model"
)

// Namespace for deterministic brief ids
var briefNamespace = uuid.MustParse("886313e1-3b8a-5372-9b90-0c9aee199e5d")

// Generator synthesizes the legislative brief from weighted clusters
// and coalitions. Selection ranks by weight; the position breakdown
// reports raw counts next to it so the fairness adjustment stays
// auditable. Generation is deterministic for fixed input.
type Generator struct {
	cfg   model.BriefConfig
	Clock func() time.Time // Injectable for tests
}

// Inputs is everything a brief is generated from. All references are
// by id; the generator never follows object graphs.
type Inputs struct {
	BillID     string
	JobID      string
	Clusters   []model.ArgumentCluster // Weights already populated
	Coalitions []model.Coalition
	Boosted    map[string]bool // Cluster ids boosted by the balancer
}

// NewGenerator creates a brief generator
func NewGenerator(cfg model.BriefConfig) *Generator {
	if cfg.TopN <= 0 {
		cfg.TopN = 5
	}
	return &Generator{cfg: cfg, Clock: time.Now}
}

// Generate builds the brief: top-N clusters per position by weight,
// raw counts for every observed position, and a template-composed
// narrative. Every observed position contributes at least one cluster.
func (g *Generator) Generate(in Inputs) model.LegislativeBrief {
	breakdown := positionBreakdown(in.Clusters)

	var selected []model.BriefCluster
	for _, position := range model.Positions() {
		var partition []model.ArgumentCluster
		for _, c := range in.Clusters {
			if c.Position == position {
				partition = append(partition, c)
			}
		}
		if len(partition) == 0 {
			continue
		}

		balance.SortByWeight(partition)
		n := g.cfg.TopN
		if len(partition) < n {
			n = len(partition)
		}
		for _, c := range partition[:n] {
			selected = append(selected, model.BriefCluster{
				ClusterID:        c.ID,
				Position:         c.Position,
				Summary:          clusterSummary(c),
				RawSize:          c.Size,
				Weight:           c.Weight,
				AstroturfWarning: c.AstroturfingConf > 0.5,
				MinorityBoosted:  in.Boosted[c.ID],
			})
		}
	}

	// Weight-ranked overall ordering, positions interleaved
	sort.Slice(selected, func(i, j int) bool {
		if selected[i].Weight != selected[j].Weight {
			return selected[i].Weight > selected[j].Weight
		}
		return selected[i].ClusterID < selected[j].ClusterID
	})

	coalitionIDs := make([]string, len(in.Coalitions))
	for i, c := range in.Coalitions {
		coalitionIDs[i] = c.ID
	}
	sort.Strings(coalitionIDs)

	return model.LegislativeBrief{
		ID:                uuid.NewSHA1(briefNamespace, []byte(in.BillID+"|"+in.JobID)).String(),
		BillID:            in.BillID,
		PositionBreakdown: breakdown,
		SelectedClusters:  selected,
		CoalitionIDs:      coalitionIDs,
		Narrative:         g.narrative(in.BillID, breakdown, selected, in.Coalitions),
		GeneratedAt:       g.Clock().UTC(),
		SynthesisJobID:    in.JobID,
	}
}

// positionBreakdown reports raw argument counts for every position,
// including zeroes, in stable order
func positionBreakdown(clusters []model.ArgumentCluster) []model.PositionCount {
	counts := make(map[model.Position]int)
	for _, c := range clusters {
		counts[c.Position] += c.Size
	}

	breakdown := make([]model.PositionCount, 0, 3)
	for _, p := range model.Positions() {
		breakdown = append(breakdown, model.PositionCount{Position: p, Count: counts[p]})
	}
	return breakdown
}

// clusterSummary composes the per-cluster template line
func clusterSummary(c model.ArgumentCluster) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d commenter(s) %s this bill. Representative view: %q",
		c.Size, positionVerb(c.Position), truncate(c.RepresentativeText, 280))
	if c.AstroturfingConf > 0.5 {
		fmt.Fprintf(&b, " [flagged: possible coordinated submissions, confidence %.2f]", c.AstroturfingConf)
	}
	return b.String()
}

// narrative composes the full brief text from templates
func (g *Generator) narrative(billID string, breakdown []model.PositionCount, selected []model.BriefCluster, coalitions []model.Coalition) string {
	var b strings.Builder

	total := 0
	for _, pc := range breakdown {
		total += pc.Count
	}
	fmt.Fprintf(&b, "Citizen input summary for bill %s (%d argument(s)).\n\n", billID, total)

	b.WriteString("Position breakdown (raw counts): ")
	parts := make([]string, 0, len(breakdown))
	for _, pc := range breakdown {
		parts = append(parts, fmt.Sprintf("%s %d", pc.Position, pc.Count))
	}
	b.WriteString(strings.Join(parts, ", "))
	b.WriteString(".\n\n")

	for _, position := range model.Positions() {
		var lines []string
		for _, sc := range selected {
			if sc.Position != position {
				continue
			}
			line := fmt.Sprintf("- %s (raw size %d, weight %.3f)", sc.Summary, sc.RawSize, sc.Weight)
			if sc.MinorityBoosted {
				line += " [minority visibility boost applied]"
			}
			lines = append(lines, line)
		}
		if len(lines) == 0 {
			continue
		}
		fmt.Fprintf(&b, "%s:\n%s\n\n", strings.ToUpper(string(position)), strings.Join(lines, "\n"))
	}

	if len(coalitions) > 0 {
		b.WriteString("Cross-cluster coalitions:\n")
		for _, c := range coalitions {
			fmt.Fprintf(&b, "- %s: %d cluster(s), %d argument(s)\n", c.StakeholderSignature, len(c.ClusterIDs), c.Size)
		}
	}

	return strings.TrimRight(b.String(), "\n")
}

func positionVerb(p model.Position) string {
	switch p {
	case model.PositionSupport:
		return "support"
	case model.PositionOppose:
		return "oppose"
	default:
		return "take no clear stance on"
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

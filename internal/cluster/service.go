package cluster

import (
	"context"
	"fmt"
	"log"
	"sort"

	"github.com/google/uuid"

	"github.com/Ngulliinsights/Chanuka-sub014/internal/model"
	"github.com/Ngulliinsights/Chanuka-sub014/internal/nlp"
)

// Namespace for deterministic cluster ids: a cluster is identified by
// its bill, position, and lowest member argument id, so re-clustering
// identical input upserts the same rows.
var clusterNamespace = uuid.MustParse("f47ac10b-58cc-4372-a567-0e02b2c3d479")

// Service groups semantically similar arguments within a bill into
// clusters. Output is a complete disjoint partition per position: every
// argument lands in exactly one cluster. Re-clustering identical input
// is idempotent up to cluster-id relabeling.
type Service struct {
	sim    *nlp.SimilarityCalculator
	cfg    model.ClusteringConfig
	logger *log.Logger
}

// NewService creates a clustering service
func NewService(sim *nlp.SimilarityCalculator, cfg model.ClusteringConfig, logger *log.Logger) *Service {
	if cfg.SimilarityThreshold <= 0 {
		cfg.SimilarityThreshold = 0.82
	}
	if cfg.BucketThreshold <= 0 {
		cfg.BucketThreshold = 500
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if logger == nil {
		logger = log.New(log.Writer(), "cluster: ", log.LstdFlags)
	}
	return &Service{sim: sim, cfg: cfg, logger: logger}
}

// Cluster partitions the bill's arguments by position and groups each
// partition by similarity. Cancellation is cooperative, checked
// between batches.
func (s *Service) Cluster(ctx context.Context, billID string, arguments []model.ExtractedArgument) ([]model.ArgumentCluster, error) {
	partitions := make(map[model.Position][]model.ExtractedArgument)
	for _, arg := range arguments {
		partitions[arg.Position] = append(partitions[arg.Position], arg)
	}

	var clusters []model.ArgumentCluster
	for _, position := range model.Positions() {
		partition := partitions[position]
		if len(partition) == 0 {
			continue
		}

		// Deterministic processing order: lowest argument id first
		sort.Slice(partition, func(i, j int) bool { return partition[i].ID < partition[j].ID })

		vectors, err := s.vectors(ctx, partition)
		if err != nil {
			return nil, fmt.Errorf("embed partition %s: %w", position, err)
		}

		var groups [][]int
		if len(partition) > s.cfg.BucketThreshold {
			// Partition exceeds the safe size for exact pairwise
			// comparison; recover with approximate bucketing.
			s.logger.Printf("bill %s position %s: %d arguments, %v", billID, position, len(partition), model.ErrClusteringOverflow)
			groups, err = s.bucketed(ctx, partition, vectors)
		} else {
			groups, err = s.greedy(ctx, indices(len(partition)), vectors)
		}
		if err != nil {
			return nil, err
		}

		for _, group := range groups {
			clusters = append(clusters, s.buildCluster(billID, position, partition, vectors, group))
		}
	}

	sort.Slice(clusters, func(i, j int) bool { return clusters[i].ID < clusters[j].ID })
	return clusters, nil
}

func (s *Service) vectors(ctx context.Context, partition []model.ExtractedArgument) ([][]float64, error) {
	texts := make([]string, len(partition))
	for i, arg := range partition {
		texts[i] = arg.Text
	}
	return s.sim.Vectors(ctx, texts)
}

// greedy runs agglomerative assignment over the given member indices:
// an argument joins the nearest existing cluster when similarity meets
// the threshold, else it seeds a new cluster. Ties break toward the
// earliest-created cluster, which holds the lowest seed argument id.
func (s *Service) greedy(ctx context.Context, members []int, vectors [][]float64) ([][]int, error) {
	type protoCluster struct {
		members  []int
		centroid []float64
	}
	var protos []*protoCluster

	for processed, idx := range members {
		if processed%s.cfg.BatchSize == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		vec := vectors[idx]
		best := -1
		bestSim := 0.0
		for c, proto := range protos {
			sim := nlp.Cosine(vec, proto.centroid)
			if sim >= s.cfg.SimilarityThreshold && sim > bestSim {
				best = c
				bestSim = sim
			}
		}

		if best >= 0 {
			proto := protos[best]
			proto.centroid = updateCentroid(proto.centroid, len(proto.members), vec)
			proto.members = append(proto.members, idx)
		} else {
			protos = append(protos, &protoCluster{
				members:  []int{idx},
				centroid: append([]float64{}, vec...),
			})
		}
	}

	groups := make([][]int, len(protos))
	for i, proto := range protos {
		groups[i] = proto.members
	}
	return groups, nil
}

// bucketed approximates nearest-neighbor grouping for oversized
// partitions: arguments are bucketed by their dominant vector
// components and the greedy pass runs within each bucket, avoiding the
// quadratic all-pairs comparison.
func (s *Service) bucketed(ctx context.Context, partition []model.ExtractedArgument, vectors [][]float64) ([][]int, error) {
	buckets := make(map[string][]int)
	var bucketKeys []string

	for i := range partition {
		key := bucketKey(vectors[i])
		if _, seen := buckets[key]; !seen {
			bucketKeys = append(bucketKeys, key)
		}
		buckets[key] = append(buckets[key], i)
	}
	sort.Strings(bucketKeys)

	var groups [][]int
	for _, key := range bucketKeys {
		bucketGroups, err := s.greedy(ctx, buckets[key], vectors)
		if err != nil {
			return nil, err
		}
		groups = append(groups, bucketGroups...)
	}
	return groups, nil
}

// bucketKey derives a coarse locality key from the three strongest
// vector components
func bucketKey(vec []float64) string {
	type component struct {
		idx int
		val float64
	}
	comps := make([]component, 0, len(vec))
	for i, v := range vec {
		if v != 0 {
			comps = append(comps, component{i, abs(v)})
		}
	}
	sort.Slice(comps, func(i, j int) bool {
		if comps[i].val != comps[j].val {
			return comps[i].val > comps[j].val
		}
		return comps[i].idx < comps[j].idx
	})

	n := 3
	if len(comps) < n {
		n = len(comps)
	}
	top := make([]int, n)
	for i := 0; i < n; i++ {
		top[i] = comps[i].idx
	}
	sort.Ints(top)

	key := ""
	for _, idx := range top {
		key += fmt.Sprintf("%d:", idx)
	}
	return key
}

// buildCluster assembles the cluster record for one member group. The
// representative text is the member closest to the group centroid.
func (s *Service) buildCluster(billID string, position model.Position, partition []model.ExtractedArgument, vectors [][]float64, group []int) model.ArgumentCluster {
	memberIDs := make([]string, len(group))
	for i, idx := range group {
		memberIDs[i] = partition[idx].ID
	}
	sort.Strings(memberIDs)

	centroid := make([]float64, len(vectors[group[0]]))
	for _, idx := range group {
		for d, v := range vectors[idx] {
			centroid[d] += v
		}
	}
	for d := range centroid {
		centroid[d] /= float64(len(group))
	}

	repIdx := group[0]
	repSim := -1.0
	for _, idx := range group {
		if sim := nlp.Cosine(vectors[idx], centroid); sim > repSim {
			repSim = sim
			repIdx = idx
		}
	}

	return model.ArgumentCluster{
		ID:                 uuid.NewSHA1(clusterNamespace, []byte(billID+"|"+string(position)+"|"+memberIDs[0])).String(),
		BillID:             billID,
		Position:           position,
		MemberArgumentIDs:  memberIDs,
		RepresentativeText: partition[repIdx].Text,
		Size:               len(group),
	}
}

func updateCentroid(centroid []float64, size int, vec []float64) []float64 {
	if len(centroid) != len(vec) {
		return centroid
	}
	n := float64(size)
	out := make([]float64, len(centroid))
	for i := range centroid {
		out[i] = (centroid[i]*n + vec[i]) / (n + 1)
	}
	return out
}

func indices(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

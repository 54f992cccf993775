package store

import (
	"context"
	"sort"
	"sync"

	"github.com/Ngulliinsights/Chanuka-sub014/internal/model"
)

// MemoryStore keeps everything in mutex-guarded maps. It backs the
// unit tests and single-run CLI invocations; durability comes from the
// SQLite backend.
type MemoryStore struct {
	mu sync.RWMutex

	arguments map[string]model.ExtractedArgument
	claims    map[string]model.Claim
	evidence  map[string]model.Evidence

	clusters   map[string][]model.ArgumentCluster // By bill id
	coalitions map[string][]model.Coalition       // By bill id
	briefs     map[string]model.LegislativeBrief  // By bill id, latest wins
	jobs       map[string]model.SynthesisJob      // By job id
}

// NewMemory creates an empty in-memory store
func NewMemory() *MemoryStore {
	return &MemoryStore{
		arguments:  make(map[string]model.ExtractedArgument),
		claims:     make(map[string]model.Claim),
		evidence:   make(map[string]model.Evidence),
		clusters:   make(map[string][]model.ArgumentCluster),
		coalitions: make(map[string][]model.Coalition),
		briefs:     make(map[string]model.LegislativeBrief),
		jobs:       make(map[string]model.SynthesisJob),
	}
}

// PutArguments upserts arguments by id
func (s *MemoryStore) PutArguments(_ context.Context, arguments []model.ExtractedArgument) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range arguments {
		s.arguments[a.ID] = a
	}
	return nil
}

// PutClaims upserts claims by id
func (s *MemoryStore) PutClaims(_ context.Context, claims []model.Claim) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range claims {
		s.claims[c.ID] = c
	}
	return nil
}

// PutEvidence upserts evidence by id
func (s *MemoryStore) PutEvidence(_ context.Context, evidence []model.Evidence) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range evidence {
		s.evidence[e.ID] = e
	}
	return nil
}

// ArgumentsByBill returns the bill's arguments, optionally filtered by
// position, ordered by id
func (s *MemoryStore) ArgumentsByBill(_ context.Context, billID string, position *model.Position) ([]model.ExtractedArgument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.ExtractedArgument
	for _, a := range s.arguments {
		if a.BillID != billID {
			continue
		}
		if position != nil && a.Position != *position {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ClaimsByArguments returns claims belonging to the given arguments,
// ordered by id
func (s *MemoryStore) ClaimsByArguments(_ context.Context, argumentIDs []string) ([]model.Claim, error) {
	wanted := make(map[string]bool, len(argumentIDs))
	for _, id := range argumentIDs {
		wanted[id] = true
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.Claim
	for _, c := range s.claims {
		if wanted[c.ArgumentID] {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// EvidenceByClaims returns evidence belonging to the given claims,
// ordered by id
func (s *MemoryStore) EvidenceByClaims(_ context.Context, claimIDs []string) ([]model.Evidence, error) {
	wanted := make(map[string]bool, len(claimIDs))
	for _, id := range claimIDs {
		wanted[id] = true
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.Evidence
	for _, e := range s.evidence {
		if wanted[e.ClaimID] {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ReplaceClusters swaps the bill's cluster set atomically
func (s *MemoryStore) ReplaceClusters(_ context.Context, billID string, clusters []model.ArgumentCluster) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clusters[billID] = append([]model.ArgumentCluster{}, clusters...)
	return nil
}

// ClustersByBill returns the bill's current cluster set
func (s *MemoryStore) ClustersByBill(_ context.Context, billID string) ([]model.ArgumentCluster, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.ArgumentCluster{}, s.clusters[billID]...), nil
}

// ReplaceCoalitions swaps the bill's coalition set atomically
func (s *MemoryStore) ReplaceCoalitions(_ context.Context, billID string, coalitions []model.Coalition) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.coalitions[billID] = append([]model.Coalition{}, coalitions...)
	return nil
}

// CoalitionsByBill returns the bill's current coalition set
func (s *MemoryStore) CoalitionsByBill(_ context.Context, billID string) ([]model.Coalition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.Coalition{}, s.coalitions[billID]...), nil
}

// PutBrief stores the bill's latest brief
func (s *MemoryStore) PutBrief(_ context.Context, brief model.LegislativeBrief) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.briefs[brief.BillID] = brief
	return nil
}

// BriefByBill returns the bill's latest brief, or nil if none exists
func (s *MemoryStore) BriefByBill(_ context.Context, billID string) (*model.LegislativeBrief, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if brief, ok := s.briefs[billID]; ok {
		return &brief, nil
	}
	return nil, nil
}

// PutJob upserts a job by id
func (s *MemoryStore) PutJob(_ context.Context, job model.SynthesisJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
	return nil
}

// JobByID returns a job by id, or nil if unknown
func (s *MemoryStore) JobByID(_ context.Context, jobID string) (*model.SynthesisJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if job, ok := s.jobs[jobID]; ok {
		return &job, nil
	}
	return nil, nil
}

// ActiveJobByBill returns the bill's pending or running job, or nil
func (s *MemoryStore) ActiveJobByBill(_ context.Context, billID string) (*model.SynthesisJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, job := range s.jobs {
		if job.BillID == billID && job.Status.Active() {
			j := job
			return &j, nil
		}
	}
	return nil, nil
}

// Close is a no-op for the memory store
func (s *MemoryStore) Close() error {
	return nil
}

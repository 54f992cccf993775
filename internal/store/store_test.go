package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/Ngulliinsights/Chanuka-sub014/internal/model"
)

// backends lists the store implementations under test. Both must
// satisfy the same contract.
func backends(t *testing.T) map[string]Store {
	t.Helper()

	sqlite, err := NewSQLite(filepath.Join(t.TempDir(), "chanuka.db"))
	if err != nil {
		t.Fatalf("Expected sqlite store, got %v", err)
	}
	t.Cleanup(func() { _ = sqlite.Close() })

	return map[string]Store{
		"memory": NewMemory(),
		"sqlite": sqlite,
	}
}

func TestStore_ArgumentRoundTrip(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			args := []model.ExtractedArgument{
				{ID: "a2", BillID: "hb-1", Position: model.PositionOppose, Text: "second"},
				{ID: "a1", BillID: "hb-1", Position: model.PositionSupport, Text: "first"},
				{ID: "a3", BillID: "hb-2", Position: model.PositionSupport, Text: "other bill"},
			}
			if err := s.PutArguments(ctx, args); err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}

			got, err := s.ArgumentsByBill(ctx, "hb-1", nil)
			if err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			if len(got) != 2 {
				t.Fatalf("Expected 2 arguments for hb-1, got %d", len(got))
			}
			if got[0].ID != "a1" || got[1].ID != "a2" {
				t.Errorf("Expected id order a1,a2, got %s,%s", got[0].ID, got[1].ID)
			}

			oppose := model.PositionOppose
			filtered, err := s.ArgumentsByBill(ctx, "hb-1", &oppose)
			if err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			if len(filtered) != 1 || filtered[0].ID != "a2" {
				t.Errorf("Expected position filter to keep a2, got %+v", filtered)
			}
		})
	}
}

func TestStore_UpsertIsIdempotent(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			arg := model.ExtractedArgument{ID: "a1", BillID: "hb-1", Position: model.PositionSupport, Strength: 10}
			if err := s.PutArguments(ctx, []model.ExtractedArgument{arg}); err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}

			arg.Strength = 25
			if err := s.PutArguments(ctx, []model.ExtractedArgument{arg}); err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}

			got, err := s.ArgumentsByBill(ctx, "hb-1", nil)
			if err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			if len(got) != 1 {
				t.Fatalf("Expected upsert, not duplicate, got %d rows", len(got))
			}
			if got[0].Strength != 25 {
				t.Errorf("Expected latest write to win, got strength %v", got[0].Strength)
			}
		})
	}
}

func TestStore_ClaimsAndEvidence(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			claims := []model.Claim{
				{ID: "cl1", ArgumentID: "a1", Text: "claim one"},
				{ID: "cl2", ArgumentID: "a2", Text: "claim two"},
			}
			if err := s.PutClaims(ctx, claims); err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			evidence := []model.Evidence{
				{ID: "e1", ClaimID: "cl1", Type: model.EvidenceStatistical, CredibilityScore: 0.48},
			}
			if err := s.PutEvidence(ctx, evidence); err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}

			gotClaims, err := s.ClaimsByArguments(ctx, []string{"a1"})
			if err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			if len(gotClaims) != 1 || gotClaims[0].ID != "cl1" {
				t.Errorf("Expected cl1 only, got %+v", gotClaims)
			}

			gotEv, err := s.EvidenceByClaims(ctx, []string{"cl1", "cl2"})
			if err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			if len(gotEv) != 1 || gotEv[0].CredibilityScore != 0.48 {
				t.Errorf("Expected e1 round trip, got %+v", gotEv)
			}

			empty, err := s.ClaimsByArguments(ctx, nil)
			if err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			if len(empty) != 0 {
				t.Errorf("Expected no claims for empty id list, got %d", len(empty))
			}
		})
	}
}

func TestStore_ReplaceClusters(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			first := []model.ArgumentCluster{
				{ID: "c1", BillID: "hb-1", Position: model.PositionSupport, MemberArgumentIDs: []string{"a1"}, Size: 1},
				{ID: "c2", BillID: "hb-1", Position: model.PositionOppose, MemberArgumentIDs: []string{"a2"}, Size: 1},
			}
			if err := s.ReplaceClusters(ctx, "hb-1", first); err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}

			second := []model.ArgumentCluster{
				{ID: "c3", BillID: "hb-1", Position: model.PositionSupport, MemberArgumentIDs: []string{"a1", "a2"}, Size: 2},
			}
			if err := s.ReplaceClusters(ctx, "hb-1", second); err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}

			got, err := s.ClustersByBill(ctx, "hb-1")
			if err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			if len(got) != 1 || got[0].ID != "c3" {
				t.Errorf("Expected replacement to swap the set, got %+v", got)
			}
		})
	}
}

func TestStore_BriefLatestWins(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			missing, err := s.BriefByBill(ctx, "hb-1")
			if err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			if missing != nil {
				t.Fatalf("Expected nil before any brief, got %+v", missing)
			}

			old := model.LegislativeBrief{ID: "b1", BillID: "hb-1", Narrative: "old", GeneratedAt: time.Now().UTC()}
			if err := s.PutBrief(ctx, old); err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			fresh := model.LegislativeBrief{ID: "b2", BillID: "hb-1", Narrative: "fresh", GeneratedAt: time.Now().UTC()}
			if err := s.PutBrief(ctx, fresh); err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}

			got, err := s.BriefByBill(ctx, "hb-1")
			if err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			if got == nil || got.ID != "b2" {
				t.Errorf("Expected latest brief, got %+v", got)
			}
		})
	}
}

func TestStore_Jobs(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			job := model.SynthesisJob{ID: "j1", BillID: "hb-1", Status: model.JobPending}
			if err := s.PutJob(ctx, job); err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}

			active, err := s.ActiveJobByBill(ctx, "hb-1")
			if err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			if active == nil || active.ID != "j1" {
				t.Fatalf("Expected pending job active, got %+v", active)
			}

			job.Status = model.JobCompleted
			if err := s.PutJob(ctx, job); err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}

			active, err = s.ActiveJobByBill(ctx, "hb-1")
			if err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			if active != nil {
				t.Errorf("Expected no active job after completion, got %+v", active)
			}

			byID, err := s.JobByID(ctx, "j1")
			if err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			if byID == nil || byID.Status != model.JobCompleted {
				t.Errorf("Expected completed job by id, got %+v", byID)
			}

			unknown, err := s.JobByID(ctx, "nope")
			if err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			if unknown != nil {
				t.Errorf("Expected nil for unknown job, got %+v", unknown)
			}
		})
	}
}

func TestNew_DriverSelection(t *testing.T) {
	s, err := New(model.StoreConfig{})
	if err != nil {
		t.Fatalf("Expected memory default, got %v", err)
	}
	if _, ok := s.(*MemoryStore); !ok {
		t.Errorf("Expected MemoryStore, got %T", s)
	}

	if _, err := New(model.StoreConfig{Driver: "sqlite"}); err == nil {
		t.Error("Expected error for sqlite without a path")
	}
	if _, err := New(model.StoreConfig{Driver: "bolt"}); err == nil {
		t.Error("Expected error for unknown driver")
	}
}

package processor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/Ngulliinsights/Chanuka-sub014/internal/model"
	"github.com/Ngulliinsights/Chanuka-sub014/internal/store"
)

func testProcessor(t *testing.T, st store.Store) *Processor {
	t.Helper()
	p, err := New(model.DefaultConfig(), st, log.New(io.Discard, "", 0))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	t.Cleanup(p.Close)
	return p
}

func testComment(id, billID, userID, text string, offset time.Duration) model.Comment {
	return model.Comment{
		ID:        id,
		BillID:    billID,
		UserID:    userID,
		Text:      text,
		Timestamp: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC).Add(offset),
	}
}

func seedComments(t *testing.T, p *Processor, billID string) {
	t.Helper()
	comments := []model.Comment{
		testComment("c1", billID, "u1", "A 2023 study showed a 40% increase in costs. This bill will hurt small businesses.", 0),
		testComment("c2", billID, "u2", "This bill will hurt small businesses downtown.", time.Minute),
		testComment("c3", billID, "u3", "I support this bill because it will improve road safety.", 2*time.Minute),
	}
	for _, c := range comments {
		if _, err := p.ProcessComment(context.Background(), c); err != nil {
			t.Fatalf("Expected comment %s processed, got %v", c.ID, err)
		}
	}
}

func TestProcessComment_PersistsExtraction(t *testing.T) {
	st := store.NewMemory()
	p := testProcessor(t, st)

	out, err := p.ProcessComment(context.Background(),
		testComment("c1", "hb-1", "u1", "This bill will hurt small businesses.", 0))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(out.Arguments) != 1 {
		t.Fatalf("Expected 1 argument, got %d", len(out.Arguments))
	}

	stored, err := st.ArgumentsByBill(context.Background(), "hb-1", nil)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(stored) != 1 || stored[0].ID != out.Arguments[0].ID {
		t.Errorf("Expected extraction persisted, got %+v", stored)
	}
}

func TestProcessComments_SkipsMalformed(t *testing.T) {
	p := testProcessor(t, store.NewMemory())

	comments := []model.Comment{
		testComment("good", "hb-1", "u1", "This bill will hurt small businesses.", 0),
		testComment("bad", "hb-1", "u2", "broken\x00comment", 0),
	}
	processed := p.ProcessComments(context.Background(), comments)
	if processed != 1 {
		t.Errorf("Expected 1 processed with the malformed comment skipped, got %d", processed)
	}
}

func TestTriggerSynthesis_HappyPath(t *testing.T) {
	st := store.NewMemory()
	p := testProcessor(t, st)
	seedComments(t, p, "hb-1")

	job, err := p.TriggerSynthesis(context.Background(), SynthesisRequest{BillID: "hb-1"})
	if err != nil {
		t.Fatalf("Expected job started, got %v", err)
	}

	final, err := p.AwaitJob(context.Background(), job.ID)
	if err != nil {
		t.Fatalf("Expected job awaited, got %v", err)
	}
	if final.Status != model.JobCompleted {
		t.Fatalf("Expected completed, got %s (%s)", final.Status, final.Error)
	}
	if final.StartedAt == nil || final.CompletedAt == nil {
		t.Error("Expected start and completion timestamps")
	}

	clusters, err := p.Clusters(context.Background(), "hb-1")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(clusters) == 0 {
		t.Fatal("Expected clusters stored")
	}
	positions := make(map[model.Position]bool)
	total := 0
	for _, c := range clusters {
		positions[c.Position] = true
		total += c.Size
		if c.Weight <= 0 {
			t.Errorf("Expected cluster %s weighted, got %v", c.ID, c.Weight)
		}
	}
	if !positions[model.PositionOppose] || !positions[model.PositionSupport] {
		t.Errorf("Expected both sides clustered, got %v", positions)
	}

	brief, err := p.Brief(context.Background(), "hb-1")
	if err != nil {
		t.Fatalf("Expected brief ready, got %v", err)
	}
	if brief.SynthesisJobID != job.ID {
		t.Errorf("Expected brief tied to job %s, got %s", job.ID, brief.SynthesisJobID)
	}
	if len(brief.PositionBreakdown) != 3 {
		t.Errorf("Expected full position breakdown, got %v", brief.PositionBreakdown)
	}
}

func TestBrief_NotReadyBeforeSynthesis(t *testing.T) {
	p := testProcessor(t, store.NewMemory())

	_, err := p.Brief(context.Background(), "hb-1")
	if !errors.Is(err, model.ErrNotReady) {
		t.Errorf("Expected ErrNotReady, got %v", err)
	}
}

// gatedStore blocks the first argument load until released, keeping a
// job deterministically in flight
type gatedStore struct {
	store.Store
	release chan struct{}

	mu    sync.Mutex
	gated bool
}

func (g *gatedStore) ArgumentsByBill(ctx context.Context, billID string, position *model.Position) ([]model.ExtractedArgument, error) {
	g.mu.Lock()
	first := !g.gated
	g.gated = true
	g.mu.Unlock()

	if first {
		select {
		case <-g.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return g.Store.ArgumentsByBill(ctx, billID, position)
}

func TestTriggerSynthesis_AtMostOneActiveJob(t *testing.T) {
	gated := &gatedStore{Store: store.NewMemory(), release: make(chan struct{})}
	p := testProcessor(t, gated)
	seedComments(t, p, "hb-1")

	first, err := p.TriggerSynthesis(context.Background(), SynthesisRequest{BillID: "hb-1"})
	if err != nil {
		t.Fatalf("Expected first job started, got %v", err)
	}

	second, err := p.TriggerSynthesis(context.Background(), SynthesisRequest{BillID: "hb-1"})
	var conflict *model.JobConflict
	if !errors.As(err, &conflict) {
		t.Fatalf("Expected JobConflict, got %v", err)
	}
	if second == nil || second.ID != first.ID {
		t.Errorf("Expected the existing job returned, got %+v", second)
	}

	// A different bill is unaffected
	if _, err := p.TriggerSynthesis(context.Background(), SynthesisRequest{BillID: "hb-other"}); err != nil {
		t.Errorf("Expected independent bill to start, got %v", err)
	}

	close(gated.release)
	if _, err := p.AwaitJob(context.Background(), first.ID); err != nil {
		t.Fatalf("Expected first job to finish, got %v", err)
	}

	// Terminal job releases the lease
	third, err := p.TriggerSynthesis(context.Background(), SynthesisRequest{BillID: "hb-1"})
	if err != nil {
		t.Fatalf("Expected new job after completion, got %v", err)
	}
	if third.ID == first.ID {
		t.Error("Expected a fresh job id")
	}
}

func TestTriggerSynthesis_ForceSupersedes(t *testing.T) {
	gated := &gatedStore{Store: store.NewMemory(), release: make(chan struct{})}
	p := testProcessor(t, gated)
	seedComments(t, p, "hb-1")

	first, err := p.TriggerSynthesis(context.Background(), SynthesisRequest{BillID: "hb-1"})
	if err != nil {
		t.Fatalf("Expected first job started, got %v", err)
	}

	second, err := p.TriggerSynthesis(context.Background(), SynthesisRequest{BillID: "hb-1", Force: true})
	if err != nil {
		t.Fatalf("Expected forced job started, got %v", err)
	}
	if second.ID == first.ID {
		t.Fatal("Expected a new job, not the superseded one")
	}

	superseded, err := p.Job(context.Background(), first.ID)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if superseded.Status != model.JobFailed || superseded.Error != model.JobErrorSuperseded {
		t.Errorf("Expected failed/superseded, got %s (%s)", superseded.Status, superseded.Error)
	}

	final, err := p.AwaitJob(context.Background(), second.ID)
	if err != nil {
		t.Fatalf("Expected forced job to finish, got %v", err)
	}
	if final.Status != model.JobCompleted {
		t.Errorf("Expected forced job completed, got %s (%s)", final.Status, final.Error)
	}
}

// raceStore keeps the first two jobs blocked in their argument load
// and exposes the moment a superseded status is persisted, so another
// trigger can be slotted into the forced trigger's drain window
type raceStore struct {
	store.Store

	mu    sync.Mutex
	loads int

	wroteSuperseded chan struct{}
	resume          chan struct{}
	once            sync.Once
}

func (s *raceStore) ArgumentsByBill(ctx context.Context, billID string, position *model.Position) ([]model.ExtractedArgument, error) {
	s.mu.Lock()
	s.loads++
	blocked := s.loads <= 2
	s.mu.Unlock()

	if blocked {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return s.Store.ArgumentsByBill(ctx, billID, position)
}

func (s *raceStore) PutJob(ctx context.Context, job model.SynthesisJob) error {
	err := s.Store.PutJob(ctx, job)
	if job.Error == model.JobErrorSuperseded {
		s.once.Do(func() {
			close(s.wroteSuperseded)
			<-s.resume
		})
	}
	return err
}

func TestTriggerSynthesis_ForceRevalidatesAfterDrain(t *testing.T) {
	rs := &raceStore{
		Store:           store.NewMemory(),
		wroteSuperseded: make(chan struct{}),
		resume:          make(chan struct{}),
	}
	p := testProcessor(t, rs)

	first, err := p.TriggerSynthesis(context.Background(), SynthesisRequest{BillID: "hb-1"})
	if err != nil {
		t.Fatalf("Expected first job started, got %v", err)
	}

	type result struct {
		job *model.SynthesisJob
		err error
	}
	forced := make(chan result, 1)
	go func() {
		job, err := p.TriggerSynthesis(context.Background(), SynthesisRequest{BillID: "hb-1", Force: true})
		forced <- result{job, err}
	}()

	// The forced trigger is now draining the first job; start a plain
	// trigger inside that window
	<-rs.wroteSuperseded
	interloper, err := p.TriggerSynthesis(context.Background(), SynthesisRequest{BillID: "hb-1"})
	if err != nil {
		t.Fatalf("Expected interloping trigger to start, got %v", err)
	}
	close(rs.resume)

	res := <-forced
	if res.err != nil {
		t.Fatalf("Expected forced trigger to succeed, got %v", res.err)
	}
	if res.job.ID == first.ID || res.job.ID == interloper.ID {
		t.Fatalf("Expected a fresh job from the forced trigger, got %s", res.job.ID)
	}

	// The forced trigger must supersede the interloper before starting
	// its own job, keeping a single job active for the bill
	mid, err := p.Job(context.Background(), interloper.ID)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if mid.Status != model.JobFailed || mid.Error != model.JobErrorSuperseded {
		t.Fatalf("Expected interloping job superseded, got %s (%s)", mid.Status, mid.Error)
	}

	final, err := p.AwaitJob(context.Background(), res.job.ID)
	if err != nil {
		t.Fatalf("Expected forced job awaited, got %v", err)
	}
	if final.Status != model.JobCompleted {
		t.Errorf("Expected forced job completed, got %s (%s)", final.Status, final.Error)
	}
}

// failingStore fails one stage's persistence call
type failingStore struct {
	store.Store
}

func (f *failingStore) ReplaceCoalitions(ctx context.Context, billID string, coalitions []model.Coalition) error {
	return fmt.Errorf("relationship store unavailable")
}

func TestSynthesis_PartialFailureKeepsEarlierStages(t *testing.T) {
	failing := &failingStore{Store: store.NewMemory()}
	p := testProcessor(t, failing)
	seedComments(t, p, "hb-1")

	job, err := p.TriggerSynthesis(context.Background(), SynthesisRequest{BillID: "hb-1"})
	if err != nil {
		t.Fatalf("Expected job started, got %v", err)
	}

	final, err := p.AwaitJob(context.Background(), job.ID)
	if err != nil {
		t.Fatalf("Expected job awaited, got %v", err)
	}
	if final.Status != model.JobFailed {
		t.Fatalf("Expected failed job, got %s", final.Status)
	}
	if final.Error == "" || final.Error == model.JobErrorSuperseded {
		t.Errorf("Expected a stage failure message, got %q", final.Error)
	}

	// Clustering completed before the failure; its output stays
	clusters, err := p.Clusters(context.Background(), "hb-1")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(clusters) == 0 {
		t.Error("Expected clusters from the completed stage to remain queryable")
	}

	// The brief stage never ran
	if _, err := p.Brief(context.Background(), "hb-1"); !errors.Is(err, model.ErrNotReady) {
		t.Errorf("Expected ErrNotReady, got %v", err)
	}

	// The failed job does not hold the lease
	if _, err := p.TriggerSynthesis(context.Background(), SynthesisRequest{BillID: "hb-1"}); err != nil {
		t.Errorf("Expected retrigger after failure, got %v", err)
	}
}

func TestSynthesis_Reclustering_Idempotent(t *testing.T) {
	st := store.NewMemory()
	p := testProcessor(t, st)
	seedComments(t, p, "hb-1")

	first, err := p.TriggerSynthesis(context.Background(), SynthesisRequest{BillID: "hb-1"})
	if err != nil {
		t.Fatalf("Expected job, got %v", err)
	}
	if _, err := p.AwaitJob(context.Background(), first.ID); err != nil {
		t.Fatalf("Expected job to finish, got %v", err)
	}
	firstClusters, _ := p.Clusters(context.Background(), "hb-1")

	second, err := p.TriggerSynthesis(context.Background(), SynthesisRequest{BillID: "hb-1"})
	if err != nil {
		t.Fatalf("Expected second job, got %v", err)
	}
	if _, err := p.AwaitJob(context.Background(), second.ID); err != nil {
		t.Fatalf("Expected job to finish, got %v", err)
	}
	secondClusters, _ := p.Clusters(context.Background(), "hb-1")

	if len(firstClusters) != len(secondClusters) {
		t.Fatalf("Expected identical cluster sets, got %d vs %d", len(firstClusters), len(secondClusters))
	}
	for i := range firstClusters {
		if firstClusters[i].ID != secondClusters[i].ID {
			t.Errorf("Cluster %d id changed across runs: %s vs %s", i, firstClusters[i].ID, secondClusters[i].ID)
		}
	}
}

func TestAwaitJob_UnknownJob(t *testing.T) {
	p := testProcessor(t, store.NewMemory())

	if _, err := p.AwaitJob(context.Background(), "missing"); err == nil {
		t.Error("Expected error for unknown job")
	}
}

package processor

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Ngulliinsights/Chanuka-sub014/internal/balance"
	"github.com/Ngulliinsights/Chanuka-sub014/internal/brief"
	"github.com/Ngulliinsights/Chanuka-sub014/internal/cache"
	"github.com/Ngulliinsights/Chanuka-sub014/internal/cluster"
	"github.com/Ngulliinsights/Chanuka-sub014/internal/coalition"
	"github.com/Ngulliinsights/Chanuka-sub014/internal/detect"
	"github.com/Ngulliinsights/Chanuka-sub014/internal/evidence"
	"github.com/Ngulliinsights/Chanuka-sub014/internal/extract"
	"github.com/Ngulliinsights/Chanuka-sub014/internal/model"
	"github.com/Ngulliinsights/Chanuka-sub014/internal/nlp"
	"github.com/Ngulliinsights/Chanuka-sub014/internal/store"
	"github.com/Ngulliinsights/Chanuka-sub014/internal/worker"
)

// Processor is the pipeline entry point: it structures incoming
// comments, runs synthesis jobs, and serves queries over the stored
// results. At most one synthesis job is active per bill; triggering
// while one is active returns the existing job unless forced, in which
// case the running job is superseded.
type Processor struct {
	cfg       *model.Config
	store     store.Store
	extractor *extract.Extractor
	embedder  nlp.Embedder
	detector  *detect.Detector
	finder    *coalition.Finder
	balancer  *balance.Balancer
	briefs    *brief.Generator
	logger    *log.Logger

	Clock func() time.Time // Injectable for tests

	mu     sync.Mutex
	leases map[string]*lease // Bill id -> in-process active job
}

// lease is the in-process handle on a bill's active job
type lease struct {
	jobID  string
	cancel context.CancelFunc
	done   chan struct{}
}

// SynthesisRequest triggers clustering, coalition detection, balancing,
// and brief generation for one bill.
type SynthesisRequest struct {
	BillID string
	// Force supersedes an already-active job instead of returning it
	Force bool
	// Accounts carries account-creation times for astroturf recency
	// scoring; nil disables the recency heuristic
	Accounts detect.AccountSignals
}

// New builds a processor from configuration. The store is owned by the
// caller.
func New(cfg *model.Config, st store.Store, logger *log.Logger) (*Processor, error) {
	if cfg == nil {
		cfg = model.DefaultConfig()
	}
	if logger == nil {
		logger = log.New(log.Writer(), "processor: ", log.LstdFlags)
	}

	embedder, err := nlp.NewEmbedder(cfg.Embedding)
	if err != nil {
		return nil, fmt.Errorf("embedder: %w", err)
	}
	classifier, err := nlp.NewClassifier(cfg.Extraction, embedder)
	if err != nil {
		return nil, fmt.Errorf("classifier: %w", err)
	}

	// Remote source verification is opt-in; the static registries alone
	// never touch the network.
	var kb evidence.KnowledgeBase
	if cfg.Knowledge.LookupURL != "" {
		kb = evidence.NewHTTPKnowledgeBase(cfg.Knowledge)
	} else {
		kb = evidence.NewStaticKnowledgeBase(cfg.Knowledge)
	}
	validator := evidence.NewValidator(kb, cache.NewJobScoped(), cfg.Concurrency.LookupWorkers, logger)

	return &Processor{
		cfg:       cfg,
		store:     st,
		extractor: extract.NewExtractor(classifier, validator, cfg.Extraction),
		embedder:  embedder,
		detector:  detect.NewDetector(cfg.Astroturf, nil, logger),
		finder:    coalition.NewFinder(cfg.Coalition),
		balancer:  balance.NewBalancer(cfg.Balance),
		briefs:    brief.NewGenerator(cfg.Brief),
		logger:    logger,
		Clock:     time.Now,
		leases:    make(map[string]*lease),
	}, nil
}

// ProcessComment extracts and persists one comment's structure.
// Malformed input returns ExtractionError; ambiguous input yields a
// low-confidence neutral argument and succeeds.
func (p *Processor) ProcessComment(ctx context.Context, comment model.Comment) (*extract.Extraction, error) {
	extraction, err := p.extractor.Extract(ctx, comment)
	if err != nil {
		return nil, err
	}

	if err := p.store.PutArguments(ctx, extraction.Arguments); err != nil {
		return nil, fmt.Errorf("persist arguments: %w", err)
	}
	if err := p.store.PutClaims(ctx, extraction.Claims); err != nil {
		return nil, fmt.Errorf("persist claims: %w", err)
	}
	if err := p.store.PutEvidence(ctx, extraction.Evidence); err != nil {
		return nil, fmt.Errorf("persist evidence: %w", err)
	}

	return extraction, nil
}

// ProcessComments runs extraction over a batch on the worker pool. A
// comment that fails is logged and skipped; one bad submission never
// blocks the rest of the batch.
func (p *Processor) ProcessComments(ctx context.Context, comments []model.Comment) int {
	pool := worker.NewPool(p.cfg.Concurrency.ExtractionWorkers)
	pool.Start()

	var mu sync.Mutex
	processed := 0

	for _, comment := range comments {
		c := comment
		pool.Submit(func(taskCtx context.Context) {
			if ctx.Err() != nil {
				return
			}
			if _, err := p.ProcessComment(taskCtx, c); err != nil {
				p.logger.Printf("comment %s skipped: %v", c.ID, err)
				return
			}
			mu.Lock()
			processed++
			mu.Unlock()
		})
	}

	pool.Wait()
	return processed
}

// TriggerSynthesis starts a synthesis job for the bill, or returns the
// already-active job with a JobConflict when one exists and the request
// is not forced. A forced request supersedes the active job: the old
// job terminates failed with the superseded marker, and the new job
// starts clean.
func (p *Processor) TriggerSynthesis(ctx context.Context, req SynthesisRequest) (*model.SynthesisJob, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	// Superseding drops the lock to drain the old job, so another
	// trigger may start a job in that window. Re-validate until the bill
	// is quiet under the lock we still hold.
	for {
		active, err := p.store.ActiveJobByBill(ctx, req.BillID)
		if err != nil {
			return nil, fmt.Errorf("check active job: %w", err)
		}
		if active == nil {
			break
		}
		if !req.Force {
			return active, &model.JobConflict{BillID: req.BillID, JobID: active.ID}
		}
		if err := p.supersedeLocked(ctx, active); err != nil {
			return nil, err
		}
	}

	job := model.SynthesisJob{
		ID:     uuid.New().String(),
		BillID: req.BillID,
		Status: model.JobPending,
	}
	if err := p.store.PutJob(ctx, job); err != nil {
		return nil, fmt.Errorf("persist job: %w", err)
	}

	// The job outlives the triggering request
	jobCtx, cancel := context.WithCancel(context.Background())
	l := &lease{jobID: job.ID, cancel: cancel, done: make(chan struct{})}
	p.leases[req.BillID] = l

	go p.runJob(jobCtx, l, job, req.Accounts)

	return &job, nil
}

// supersedeLocked terminates the bill's active job. A job running in
// this process is cancelled and drained; a stale record without a lease
// (crashed process) is marked directly.
func (p *Processor) supersedeLocked(ctx context.Context, active *model.SynthesisJob) error {
	if l, ok := p.leases[active.BillID]; ok && l.jobID == active.ID {
		l.cancel()
		p.mu.Unlock()
		<-l.done
		p.mu.Lock()
		// A trigger that ran while the lock was dropped may have
		// installed its own lease; only remove the one we drained
		if cur, ok := p.leases[active.BillID]; ok && cur == l {
			delete(p.leases, active.BillID)
		}
		return nil
	}

	now := p.Clock().UTC()
	active.Status = model.JobFailed
	active.Error = model.JobErrorSuperseded
	active.CompletedAt = &now
	if err := p.store.PutJob(ctx, *active); err != nil {
		return fmt.Errorf("supersede job %s: %w", active.ID, err)
	}
	return nil
}

// runJob drives one synthesis job through its stages. Each completed
// stage persists before the next starts, so a failure leaves earlier
// output valid and queryable.
func (p *Processor) runJob(ctx context.Context, l *lease, job model.SynthesisJob, accounts detect.AccountSignals) {
	defer close(l.done)
	defer func() {
		p.mu.Lock()
		if cur, ok := p.leases[job.BillID]; ok && cur == l {
			delete(p.leases, job.BillID)
		}
		p.mu.Unlock()
	}()

	started := p.Clock().UTC()
	job.Status = model.JobRunning
	job.StartedAt = &started
	if err := p.putJob(job); err != nil {
		return
	}

	err := p.synthesize(ctx, job, accounts)

	completed := p.Clock().UTC()
	job.CompletedAt = &completed
	switch {
	case err == nil:
		job.Status = model.JobCompleted
	case errors.Is(err, context.Canceled):
		job.Status = model.JobFailed
		job.Error = model.JobErrorSuperseded
	default:
		job.Status = model.JobFailed
		job.Error = err.Error()
		p.logger.Printf("job %s failed: %v", job.ID, err)
	}
	_ = p.putJob(job)
}

// synthesize runs the job stages in order: cluster, detect, coalition,
// balance, brief. Cancellation is checked between stages.
func (p *Processor) synthesize(ctx context.Context, job model.SynthesisJob, accounts detect.AccountSignals) error {
	jobCache := cache.NewJobScoped()
	defer func() { _ = jobCache.Clear() }()
	sim := nlp.NewSimilarityCalculator(p.embedder, jobCache)
	clusterer := cluster.NewService(sim, p.cfg.Clustering, p.logger)

	arguments, err := p.store.ArgumentsByBill(ctx, job.BillID, nil)
	if err != nil {
		return &model.JobFailure{Stage: "load", Err: err}
	}

	clusters, err := clusterer.Cluster(ctx, job.BillID, arguments)
	if err != nil {
		return &model.JobFailure{Stage: "cluster", Err: err}
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	// Annotate coordination signals, then persist the cluster set so it
	// is queryable even if a later stage fails
	argumentsByID := make(map[string]model.ExtractedArgument, len(arguments))
	for _, a := range arguments {
		argumentsByID[a.ID] = a
	}
	now := p.Clock().UTC()
	for i := range clusters {
		members := membersOf(clusters[i], argumentsByID)
		if signal := p.detector.Flag(clusters[i], members, accounts, now); signal != nil {
			clusters[i].AstroturfingConf = signal.Confidence
		}
	}
	if err := p.store.ReplaceClusters(ctx, job.BillID, clusters); err != nil {
		return &model.JobFailure{Stage: "detect", Err: err}
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	claimsByArgument, err := p.claimsByArgument(ctx, arguments)
	if err != nil {
		return &model.JobFailure{Stage: "coalition", Err: err}
	}
	coalitions := p.finder.Find(job.BillID, clusters, argumentsByID, claimsByArgument)
	if err := p.store.ReplaceCoalitions(ctx, job.BillID, coalitions); err != nil {
		return &model.JobFailure{Stage: "coalition", Err: err}
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	credibility, err := p.clusterCredibility(ctx, clusters, claimsByArgument)
	if err != nil {
		return &model.JobFailure{Stage: "balance", Err: err}
	}
	weighted, boosted := p.balancer.Reweight(clusters, credibility)
	if err := p.store.ReplaceClusters(ctx, job.BillID, weighted); err != nil {
		return &model.JobFailure{Stage: "balance", Err: err}
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	result := p.briefs.Generate(brief.Inputs{
		BillID:     job.BillID,
		JobID:      job.ID,
		Clusters:   weighted,
		Coalitions: coalitions,
		Boosted:    boosted,
	})
	if err := p.store.PutBrief(ctx, result); err != nil {
		return &model.JobFailure{Stage: "brief", Err: err}
	}

	return nil
}

// claimsByArgument loads all claims for the given arguments, grouped
// by argument id
func (p *Processor) claimsByArgument(ctx context.Context, arguments []model.ExtractedArgument) (map[string][]model.Claim, error) {
	ids := make([]string, len(arguments))
	for i, a := range arguments {
		ids[i] = a.ID
	}
	claims, err := p.store.ClaimsByArguments(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make(map[string][]model.Claim)
	for _, c := range claims {
		out[c.ArgumentID] = append(out[c.ArgumentID], c)
	}
	return out, nil
}

// clusterCredibility computes the mean evidence credibility per
// cluster. Clusters whose arguments carry no evidence are absent from
// the map; the balancer applies its neutral default.
func (p *Processor) clusterCredibility(ctx context.Context, clusters []model.ArgumentCluster, claimsByArgument map[string][]model.Claim) (map[string]float64, error) {
	out := make(map[string]float64, len(clusters))

	for _, c := range clusters {
		var claimIDs []string
		for _, argID := range c.MemberArgumentIDs {
			for _, claim := range claimsByArgument[argID] {
				claimIDs = append(claimIDs, claim.ID)
			}
		}
		if len(claimIDs) == 0 {
			continue
		}

		evs, err := p.store.EvidenceByClaims(ctx, claimIDs)
		if err != nil {
			return nil, err
		}
		if len(evs) == 0 {
			continue
		}

		total := 0.0
		for _, e := range evs {
			total += e.CredibilityScore
		}
		out[c.ID] = total / float64(len(evs))
	}

	return out, nil
}

func membersOf(c model.ArgumentCluster, argumentsByID map[string]model.ExtractedArgument) []model.ExtractedArgument {
	members := make([]model.ExtractedArgument, 0, len(c.MemberArgumentIDs))
	for _, id := range c.MemberArgumentIDs {
		if a, ok := argumentsByID[id]; ok {
			members = append(members, a)
		}
	}
	return members
}

func (p *Processor) putJob(job model.SynthesisJob) error {
	if err := p.store.PutJob(context.Background(), job); err != nil {
		p.logger.Printf("persist job %s: %v", job.ID, err)
		return err
	}
	return nil
}

// AwaitJob blocks until the job reaches a terminal state or the context
// expires, then returns the stored job record.
func (p *Processor) AwaitJob(ctx context.Context, jobID string) (*model.SynthesisJob, error) {
	p.mu.Lock()
	var done chan struct{}
	for _, l := range p.leases {
		if l.jobID == jobID {
			done = l.done
			break
		}
	}
	p.mu.Unlock()

	if done != nil {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-done:
		}
	}

	job, err := p.store.JobByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, fmt.Errorf("unknown job %s", jobID)
	}
	return job, nil
}

// Job returns a job record by id, or nil if unknown
func (p *Processor) Job(ctx context.Context, jobID string) (*model.SynthesisJob, error) {
	return p.store.JobByID(ctx, jobID)
}

// Arguments returns the bill's extracted arguments, optionally filtered
// by position
func (p *Processor) Arguments(ctx context.Context, billID string, position *model.Position) ([]model.ExtractedArgument, error) {
	return p.store.ArgumentsByBill(ctx, billID, position)
}

// Clusters returns the bill's current cluster set
func (p *Processor) Clusters(ctx context.Context, billID string) ([]model.ArgumentCluster, error) {
	return p.store.ClustersByBill(ctx, billID)
}

// Coalitions returns the bill's current coalition annotations
func (p *Processor) Coalitions(ctx context.Context, billID string) ([]model.Coalition, error) {
	return p.store.CoalitionsByBill(ctx, billID)
}

// Brief returns the bill's latest brief, or ErrNotReady when no
// synthesis has completed yet
func (p *Processor) Brief(ctx context.Context, billID string) (*model.LegislativeBrief, error) {
	b, err := p.store.BriefByBill(ctx, billID)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, model.ErrNotReady
	}
	return b, nil
}

// Close cancels running jobs and waits for them to drain
func (p *Processor) Close() {
	p.mu.Lock()
	var pending []*lease
	for _, l := range p.leases {
		l.cancel()
		pending = append(pending, l)
	}
	p.mu.Unlock()

	for _, l := range pending {
		<-l.done
	}
}

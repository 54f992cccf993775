package store

import (
	"context"
	"fmt"

	"github.com/Ngulliinsights/Chanuka-sub014/internal/model"
)

// Store is the durable keyed persistence behind the pipeline: six
// logical stores (arguments, claims, evidence, argument relationships,
// briefs, synthesis jobs). All writes are idempotent upserts keyed by
// natural ids, so a partial pipeline failure leaves earlier stages'
// output valid and queryable. Argument, claim, and evidence records
// are append-only: corrections create new records.
type Store interface {
	// Extraction outputs, written per comment, independently of any job
	PutArguments(ctx context.Context, arguments []model.ExtractedArgument) error
	PutClaims(ctx context.Context, claims []model.Claim) error
	PutEvidence(ctx context.Context, evidence []model.Evidence) error

	// Read queries. A nil position returns all positions.
	ArgumentsByBill(ctx context.Context, billID string, position *model.Position) ([]model.ExtractedArgument, error)
	ClaimsByArguments(ctx context.Context, argumentIDs []string) ([]model.Claim, error)
	EvidenceByClaims(ctx context.Context, claimIDs []string) ([]model.Evidence, error)

	// Argument relationships: clusters and coalitions. A completed
	// stage replaces the bill's previous relationship set atomically;
	// the replaced set stays queryable until then.
	ReplaceClusters(ctx context.Context, billID string, clusters []model.ArgumentCluster) error
	ClustersByBill(ctx context.Context, billID string) ([]model.ArgumentCluster, error)
	ReplaceCoalitions(ctx context.Context, billID string, coalitions []model.Coalition) error
	CoalitionsByBill(ctx context.Context, billID string) ([]model.Coalition, error)

	// Briefs: the latest brief per bill wins
	PutBrief(ctx context.Context, brief model.LegislativeBrief) error
	BriefByBill(ctx context.Context, billID string) (*model.LegislativeBrief, error)

	// Synthesis jobs
	PutJob(ctx context.Context, job model.SynthesisJob) error
	JobByID(ctx context.Context, jobID string) (*model.SynthesisJob, error)
	ActiveJobByBill(ctx context.Context, billID string) (*model.SynthesisJob, error)

	// Close releases underlying resources
	Close() error
}

// New selects a store backend by configured driver
func New(cfg model.StoreConfig) (Store, error) {
	switch cfg.Driver {
	case "", "memory":
		return NewMemory(), nil
	case "sqlite":
		if cfg.Path == "" {
			return nil, fmt.Errorf("sqlite store requires a path")
		}
		return NewSQLite(cfg.Path)
	default:
		return nil, fmt.Errorf("unknown store driver: %s", cfg.Driver)
	}
}

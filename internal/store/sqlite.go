package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/Ngulliinsights/Chanuka-sub014/internal/model"
)

// SQLiteStore persists the six logical stores in SQLite. Entities are
// stored as JSON documents next to their natural keys; every write is
// an idempotent upsert keyed by id, so retried pipeline stages
// converge instead of duplicating.
type SQLiteStore struct {
	db *sqlx.DB
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS arguments (
	id       TEXT PRIMARY KEY,
	bill_id  TEXT NOT NULL,
	position TEXT NOT NULL,
	payload  TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_arguments_bill ON arguments(bill_id);

CREATE TABLE IF NOT EXISTS claims (
	id          TEXT PRIMARY KEY,
	argument_id TEXT NOT NULL,
	payload     TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_claims_argument ON claims(argument_id);

CREATE TABLE IF NOT EXISTS evidence (
	id       TEXT PRIMARY KEY,
	claim_id TEXT NOT NULL,
	payload  TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_evidence_claim ON evidence(claim_id);

CREATE TABLE IF NOT EXISTS argument_relationships (
	id      TEXT PRIMARY KEY,
	bill_id TEXT NOT NULL,
	kind    TEXT NOT NULL,
	payload TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_relationships_bill ON argument_relationships(bill_id, kind);

CREATE TABLE IF NOT EXISTS legislative_briefs (
	bill_id      TEXT PRIMARY KEY,
	brief_id     TEXT NOT NULL,
	generated_at TEXT NOT NULL,
	payload      TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS synthesis_jobs (
	id      TEXT PRIMARY KEY,
	bill_id TEXT NOT NULL,
	status  TEXT NOT NULL,
	payload TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_jobs_bill ON synthesis_jobs(bill_id, status);
`

// NewSQLite opens (and if needed initializes) a SQLite-backed store
func NewSQLite(path string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// PutArguments upserts arguments by id
func (s *SQLiteStore) PutArguments(ctx context.Context, arguments []model.ExtractedArgument) error {
	for _, a := range arguments {
		payload, err := json.Marshal(a)
		if err != nil {
			return fmt.Errorf("marshal argument %s: %w", a.ID, err)
		}
		_, err = s.db.ExecContext(ctx, `
			INSERT INTO arguments (id, bill_id, position, payload) VALUES (?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET bill_id=excluded.bill_id, position=excluded.position, payload=excluded.payload`,
			a.ID, a.BillID, string(a.Position), string(payload))
		if err != nil {
			return fmt.Errorf("upsert argument %s: %w", a.ID, err)
		}
	}
	return nil
}

// PutClaims upserts claims by id
func (s *SQLiteStore) PutClaims(ctx context.Context, claims []model.Claim) error {
	for _, c := range claims {
		payload, err := json.Marshal(c)
		if err != nil {
			return fmt.Errorf("marshal claim %s: %w", c.ID, err)
		}
		_, err = s.db.ExecContext(ctx, `
			INSERT INTO claims (id, argument_id, payload) VALUES (?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET argument_id=excluded.argument_id, payload=excluded.payload`,
			c.ID, c.ArgumentID, string(payload))
		if err != nil {
			return fmt.Errorf("upsert claim %s: %w", c.ID, err)
		}
	}
	return nil
}

// PutEvidence upserts evidence by id
func (s *SQLiteStore) PutEvidence(ctx context.Context, evidence []model.Evidence) error {
	for _, e := range evidence {
		payload, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("marshal evidence %s: %w", e.ID, err)
		}
		_, err = s.db.ExecContext(ctx, `
			INSERT INTO evidence (id, claim_id, payload) VALUES (?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET claim_id=excluded.claim_id, payload=excluded.payload`,
			e.ID, e.ClaimID, string(payload))
		if err != nil {
			return fmt.Errorf("upsert evidence %s: %w", e.ID, err)
		}
	}
	return nil
}

// ArgumentsByBill returns the bill's arguments ordered by id
func (s *SQLiteStore) ArgumentsByBill(ctx context.Context, billID string, position *model.Position) ([]model.ExtractedArgument, error) {
	query := `SELECT payload FROM arguments WHERE bill_id = ? ORDER BY id`
	args := []interface{}{billID}
	if position != nil {
		query = `SELECT payload FROM arguments WHERE bill_id = ? AND position = ? ORDER BY id`
		args = append(args, string(*position))
	}

	var payloads []string
	if err := s.db.SelectContext(ctx, &payloads, query, args...); err != nil {
		return nil, fmt.Errorf("select arguments: %w", err)
	}
	return decodeAll[model.ExtractedArgument](payloads)
}

// ClaimsByArguments returns claims for the given arguments ordered by id
func (s *SQLiteStore) ClaimsByArguments(ctx context.Context, argumentIDs []string) ([]model.Claim, error) {
	if len(argumentIDs) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(`SELECT payload FROM claims WHERE argument_id IN (?) ORDER BY id`, argumentIDs)
	if err != nil {
		return nil, fmt.Errorf("build claims query: %w", err)
	}

	var payloads []string
	if err := s.db.SelectContext(ctx, &payloads, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("select claims: %w", err)
	}
	return decodeAll[model.Claim](payloads)
}

// EvidenceByClaims returns evidence for the given claims ordered by id
func (s *SQLiteStore) EvidenceByClaims(ctx context.Context, claimIDs []string) ([]model.Evidence, error) {
	if len(claimIDs) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(`SELECT payload FROM evidence WHERE claim_id IN (?) ORDER BY id`, claimIDs)
	if err != nil {
		return nil, fmt.Errorf("build evidence query: %w", err)
	}

	var payloads []string
	if err := s.db.SelectContext(ctx, &payloads, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("select evidence: %w", err)
	}
	return decodeAll[model.Evidence](payloads)
}

// ReplaceClusters swaps the bill's cluster set in one transaction
func (s *SQLiteStore) ReplaceClusters(ctx context.Context, billID string, clusters []model.ArgumentCluster) error {
	return s.replaceRelationships(ctx, billID, "cluster", len(clusters), func(i int) (string, []byte, error) {
		payload, err := json.Marshal(clusters[i])
		return clusters[i].ID, payload, err
	})
}

// ClustersByBill returns the bill's current cluster set
func (s *SQLiteStore) ClustersByBill(ctx context.Context, billID string) ([]model.ArgumentCluster, error) {
	payloads, err := s.relationships(ctx, billID, "cluster")
	if err != nil {
		return nil, err
	}
	return decodeAll[model.ArgumentCluster](payloads)
}

// ReplaceCoalitions swaps the bill's coalition set in one transaction
func (s *SQLiteStore) ReplaceCoalitions(ctx context.Context, billID string, coalitions []model.Coalition) error {
	return s.replaceRelationships(ctx, billID, "coalition", len(coalitions), func(i int) (string, []byte, error) {
		payload, err := json.Marshal(coalitions[i])
		return coalitions[i].ID, payload, err
	})
}

// CoalitionsByBill returns the bill's current coalition set
func (s *SQLiteStore) CoalitionsByBill(ctx context.Context, billID string) ([]model.Coalition, error) {
	payloads, err := s.relationships(ctx, billID, "coalition")
	if err != nil {
		return nil, err
	}
	return decodeAll[model.Coalition](payloads)
}

func (s *SQLiteStore) replaceRelationships(ctx context.Context, billID, kind string, n int, row func(int) (string, []byte, error)) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM argument_relationships WHERE bill_id = ? AND kind = ?`, billID, kind); err != nil {
		return fmt.Errorf("clear %s rows: %w", kind, err)
	}
	for i := 0; i < n; i++ {
		id, payload, err := row(i)
		if err != nil {
			return fmt.Errorf("marshal %s: %w", kind, err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO argument_relationships (id, bill_id, kind, payload) VALUES (?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET bill_id=excluded.bill_id, kind=excluded.kind, payload=excluded.payload`,
			id, billID, kind, string(payload)); err != nil {
			return fmt.Errorf("upsert %s %s: %w", kind, id, err)
		}
	}

	return tx.Commit()
}

func (s *SQLiteStore) relationships(ctx context.Context, billID, kind string) ([]string, error) {
	var payloads []string
	err := s.db.SelectContext(ctx, &payloads, `SELECT payload FROM argument_relationships WHERE bill_id = ? AND kind = ? ORDER BY id`, billID, kind)
	if err != nil {
		return nil, fmt.Errorf("select %s rows: %w", kind, err)
	}
	return payloads, nil
}

// PutBrief stores the bill's latest brief
func (s *SQLiteStore) PutBrief(ctx context.Context, brief model.LegislativeBrief) error {
	payload, err := json.Marshal(brief)
	if err != nil {
		return fmt.Errorf("marshal brief: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO legislative_briefs (bill_id, brief_id, generated_at, payload) VALUES (?, ?, ?, ?)
		ON CONFLICT(bill_id) DO UPDATE SET brief_id=excluded.brief_id, generated_at=excluded.generated_at, payload=excluded.payload`,
		brief.BillID, brief.ID, brief.GeneratedAt.Format("2006-01-02T15:04:05.999999999Z07:00"), string(payload))
	if err != nil {
		return fmt.Errorf("upsert brief: %w", err)
	}
	return nil
}

// BriefByBill returns the bill's latest brief, or nil if none exists
func (s *SQLiteStore) BriefByBill(ctx context.Context, billID string) (*model.LegislativeBrief, error) {
	var payload string
	err := s.db.GetContext(ctx, &payload, `SELECT payload FROM legislative_briefs WHERE bill_id = ?`, billID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select brief: %w", err)
	}

	var brief model.LegislativeBrief
	if err := json.Unmarshal([]byte(payload), &brief); err != nil {
		return nil, fmt.Errorf("decode brief: %w", err)
	}
	return &brief, nil
}

// PutJob upserts a job by id
func (s *SQLiteStore) PutJob(ctx context.Context, job model.SynthesisJob) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO synthesis_jobs (id, bill_id, status, payload) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET bill_id=excluded.bill_id, status=excluded.status, payload=excluded.payload`,
		job.ID, job.BillID, string(job.Status), string(payload))
	if err != nil {
		return fmt.Errorf("upsert job: %w", err)
	}
	return nil
}

// JobByID returns a job by id, or nil if unknown
func (s *SQLiteStore) JobByID(ctx context.Context, jobID string) (*model.SynthesisJob, error) {
	var payload string
	err := s.db.GetContext(ctx, &payload, `SELECT payload FROM synthesis_jobs WHERE id = ?`, jobID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select job: %w", err)
	}

	var job model.SynthesisJob
	if err := json.Unmarshal([]byte(payload), &job); err != nil {
		return nil, fmt.Errorf("decode job: %w", err)
	}
	return &job, nil
}

// ActiveJobByBill returns the bill's pending or running job, or nil
func (s *SQLiteStore) ActiveJobByBill(ctx context.Context, billID string) (*model.SynthesisJob, error) {
	var payload string
	err := s.db.GetContext(ctx, &payload, `
		SELECT payload FROM synthesis_jobs WHERE bill_id = ? AND status IN ('pending', 'running') LIMIT 1`, billID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select active job: %w", err)
	}

	var job model.SynthesisJob
	if err := json.Unmarshal([]byte(payload), &job); err != nil {
		return nil, fmt.Errorf("decode job: %w", err)
	}
	return &job, nil
}

// Close closes the database
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// decodeAll unmarshals a column of JSON payloads
func decodeAll[T any](payloads []string) ([]T, error) {
	out := make([]T, 0, len(payloads))
	for _, p := range payloads {
		var v T
		if err := json.Unmarshal([]byte(p), &v); err != nil {
			return nil, fmt.Errorf("decode row: %w", err)
		}
		out = append(out, v)
	}
	return out, nil
}

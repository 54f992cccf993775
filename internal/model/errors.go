package model

import (
	"errors"
	"fmt"
)

// Sentinel errors for the pipeline. Stage-local failures are absorbed
// with safe defaults wherever one exists; only whole-job failures reach
// job status.
var (
	// ErrNotReady is returned by brief queries before any synthesis job
	// has completed for the bill. Informational, not a failure.
	ErrNotReady = errors.New("brief not ready")

	// ErrLookupTimeout marks a knowledge-base lookup that exceeded its
	// bounded timeout. Recovered locally: the evidence degrades to
	// unverified instead of failing the assessment.
	ErrLookupTimeout = errors.New("knowledge base lookup timed out")

	// ErrClusteringOverflow marks a position partition that exceeded the
	// safe size for exact pairwise clustering. Recovered by switching to
	// the approximate bucketed strategy.
	ErrClusteringOverflow = errors.New("partition exceeds exact clustering size")
)

// ExtractionError indicates malformed or undecodable comment input.
// Merely ambiguous text never raises it; ambiguity yields a
// low-confidence neutral argument instead, so no comment is lost.
type ExtractionError struct {
	Reason string
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extraction failed: %s", e.Reason)
}

// JobConflict reports that a synthesis job is already pending or
// running for the bill. It is informational: callers receive the
// existing job reference, not a failure.
type JobConflict struct {
	BillID string
	JobID  string
}

func (e *JobConflict) Error() string {
	return fmt.Sprintf("synthesis already in progress for bill %s (job %s)", e.BillID, e.JobID)
}

// JobFailure is an unrecoverable stage error that terminates a
// synthesis job. Outputs of stages completed before the failure remain
// persisted and queryable.
type JobFailure struct {
	Stage string
	Err   error
}

func (e *JobFailure) Error() string {
	return fmt.Sprintf("synthesis stage %s: %v", e.Stage, e.Err)
}

func (e *JobFailure) Unwrap() error {
	return e.Err
}

package model

import "time"

// JobStatus is the state of a synthesis job
type JobStatus string

const (
	JobPending   JobStatus = "pending"
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
)

// Active reports whether the status counts against the
// at-most-one-job-per-bill invariant.
func (s JobStatus) Active() bool {
	return s == JobPending || s == JobRunning
}

// Terminal reports whether the job can no longer change state
func (s JobStatus) Terminal() bool {
	return s == JobCompleted || s == JobFailed
}

// JobErrorSuperseded marks a job cancelled because a newer trigger for
// the same bill took over. The job is terminal failed; the error field
// distinguishes supersession from genuine stage failures.
const JobErrorSuperseded = "superseded"

// SynthesisJob is the unit of batch work that (re)computes clusters,
// coalitions, and the brief for one bill.
type SynthesisJob struct {
	ID          string     `json:"id"`
	BillID      string     `json:"bill_id"`
	Status      JobStatus  `json:"status"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Error       string     `json:"error,omitempty"`
}

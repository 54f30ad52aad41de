package outbox

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// DefaultMaxAttempts bounds retries for jobs enqueued without an explicit
// budget.
const DefaultMaxAttempts = 5

// JobStatus represents the lifecycle state of a job.
type JobStatus string

const (
	// JobStatusPending marks a job eligible for claiming once scheduled_at
	// has passed. A retryable failure returns the job to this state.
	JobStatusPending JobStatus = "pending"
	// JobStatusClaimed marks a job held exclusively by one dispatcher.
	JobStatusClaimed JobStatus = "claimed"
	// JobStatusCompleted marks a successfully executed job.
	JobStatusCompleted JobStatus = "completed"
	// JobStatusFailed marks a permanently failed job; a dead-letter copy
	// exists for inspection and manual requeue.
	JobStatusFailed JobStatus = "failed"
)

// Job is one durable side-effect record. The enqueuing caller owns creation
// and payload shape; the dispatcher owns every status transition thereafter.
type Job struct {
	ID          uuid.UUID       `json:"id"`
	JobType     string          `json:"job_type"`
	Payload     json.RawMessage `json:"payload,omitempty"`
	Status      JobStatus       `json:"status"`
	Attempts    int             `json:"attempts"`
	MaxAttempts int             `json:"max_attempts"`
	ScheduledAt time.Time       `json:"scheduled_at"`
	LockedUntil *time.Time      `json:"locked_until,omitempty"`
	LockedBy    *uuid.UUID      `json:"locked_by,omitempty"`
	LastError   *string         `json:"last_error,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
}

// IdempotencyKey returns a deterministic key for external calls made on
// behalf of this job. Re-executions after a crash produce the same key, so
// downstream services can detect and no-op duplicates.
func (j *Job) IdempotencyKey() string {
	return "outbox-" + j.ID.String()
}

// DeadLetter is a parked copy of a permanently failed job, kept for manual
// inspection and requeue rather than silently dropped.
type DeadLetter struct {
	ID          uuid.UUID       `json:"id"`
	JobID       uuid.UUID       `json:"job_id"`
	JobType     string          `json:"job_type"`
	Payload     json.RawMessage `json:"payload,omitempty"`
	Attempts    int             `json:"attempts"`
	MaxAttempts int             `json:"max_attempts"`
	Error       string          `json:"error"`
	FailedAt    time.Time       `json:"failed_at"`
	CreatedAt   time.Time       `json:"created_at"`
}

package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EnqueuerRepository is the storage contract for job creation.
//
// When the triggering business write and the enqueue share a database, run
// CreateJob inside the same transaction so the job rolls back with the
// trigger. When they don't, enqueue only after the triggering write has
// committed: at-least-once delivery is the safer failure direction than
// losing the job.
type EnqueuerRepository interface {
	CreateJob(ctx context.Context, job *Job) error
}

// Enqueuer writes pending jobs. The returned job ID is the only thing a
// caller may rely on; execution happens asynchronously.
type Enqueuer struct {
	repo               EnqueuerRepository
	defaultMaxAttempts int
}

// EnqueuerOption configures an Enqueuer.
type EnqueuerOption func(*Enqueuer)

// WithDefaultMaxAttempts overrides the retry budget applied to jobs enqueued
// without an explicit one.
func WithDefaultMaxAttempts(n int) EnqueuerOption {
	return func(e *Enqueuer) {
		if n > 0 {
			e.defaultMaxAttempts = n
		}
	}
}

// NewEnqueuer creates an Enqueuer.
func NewEnqueuer(repo EnqueuerRepository, opts ...EnqueuerOption) (*Enqueuer, error) {
	if repo == nil {
		return nil, ErrRepositoryNil
	}

	e := &Enqueuer{
		repo:               repo,
		defaultMaxAttempts: DefaultMaxAttempts,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// EnqueueOption configures one Enqueue call.
type EnqueueOption func(*enqueueOptions)

type enqueueOptions struct {
	maxAttempts int
	delay       time.Duration
	scheduledAt *time.Time
}

// WithMaxAttempts sets the job's retry budget.
func WithMaxAttempts(n int) EnqueueOption {
	return func(o *enqueueOptions) {
		if n > 0 {
			o.maxAttempts = n
		}
	}
}

// WithDelay defers the job's earliest execution by the given duration.
func WithDelay(d time.Duration) EnqueueOption {
	return func(o *enqueueOptions) {
		if d > 0 {
			o.delay = d
		}
	}
}

// WithScheduledAt defers the job's earliest execution to an absolute time.
// Takes precedence over WithDelay.
func WithScheduledAt(t time.Time) EnqueueOption {
	return func(o *enqueueOptions) {
		o.scheduledAt = &t
	}
}

// Enqueue durably records a pending job and returns its ID. The payload is
// marshaled to JSON; its shape is an agreement between the enqueuing caller
// and the handler registered for jobType, opaque to this package.
func (e *Enqueuer) Enqueue(ctx context.Context, jobType string, payload any, opts ...EnqueueOption) (uuid.UUID, error) {
	if jobType == "" {
		return uuid.Nil, ErrEmptyJobType
	}
	if payload == nil {
		return uuid.Nil, ErrPayloadNil
	}

	options := &enqueueOptions{maxAttempts: e.defaultMaxAttempts}
	for _, opt := range opts {
		opt(options)
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to marshal payload of type %T: %w", payload, err)
	}

	now := time.Now()
	scheduledAt := now
	if options.scheduledAt != nil {
		scheduledAt = *options.scheduledAt
	} else if options.delay > 0 {
		scheduledAt = now.Add(options.delay)
	}

	job := &Job{
		ID:          uuid.New(),
		JobType:     jobType,
		Payload:     data,
		Status:      JobStatusPending,
		Attempts:    0,
		MaxAttempts: options.maxAttempts,
		ScheduledAt: scheduledAt,
		CreatedAt:   now,
	}

	if err := e.repo.CreateJob(ctx, job); err != nil {
		return uuid.Nil, fmt.Errorf("failed to create job %q: %w", jobType, err)
	}

	return job.ID, nil
}

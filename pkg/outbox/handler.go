package outbox

import (
	"context"
	"encoding/json"
	"fmt"
)

type (
	// Handler executes jobs of one type. Handle receives the raw payload the
	// enqueuer stored; the job itself is available via JobFromContext.
	Handler interface {
		JobType() string
		Handle(ctx context.Context, payload json.RawMessage) error
	}

	// HandlerFunc is the typed function NewHandler adapts into a Handler.
	HandlerFunc[T any] func(ctx context.Context, payload T) error
)

// NewHandler adapts a typed function into a Handler for the given job type.
// A payload that does not unmarshal into T is a permanent failure: the bytes
// are immutable, retrying cannot fix them.
func NewHandler[T any](jobType string, fn HandlerFunc[T]) Handler {
	return &typedHandler[T]{jobType: jobType, fn: fn}
}

type typedHandler[T any] struct {
	jobType string
	fn      HandlerFunc[T]
}

func (h *typedHandler[T]) JobType() string { return h.jobType }

func (h *typedHandler[T]) Handle(ctx context.Context, payload json.RawMessage) error {
	var t T
	if err := json.Unmarshal(payload, &t); err != nil {
		return Permanent(fmt.Errorf("unmarshal %s payload: %w", h.jobType, err))
	}
	return h.fn(ctx, t)
}

type jobCtxKey struct{}

// withJob attaches the claimed job to the handler's context.
func withJob(ctx context.Context, job *Job) context.Context {
	return context.WithValue(ctx, jobCtxKey{}, job)
}

// JobFromContext returns the job being executed. Handlers use it to derive
// idempotency keys and to inspect the attempt count.
func JobFromContext(ctx context.Context) (*Job, bool) {
	job, ok := ctx.Value(jobCtxKey{}).(*Job)
	return job, ok
}

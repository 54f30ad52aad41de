package outbox_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magnetarhq/portalcore/pkg/outbox"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestDispatcher(t *testing.T, ms *outbox.MemoryStorage, handlers ...outbox.Handler) *outbox.Dispatcher {
	t.Helper()

	d, err := outbox.NewDispatcher(ms,
		outbox.WithPollInterval(5*time.Millisecond),
		outbox.WithBackoff(func(int) time.Duration { return time.Millisecond }),
		outbox.WithLogger(quietLogger()),
	)
	require.NoError(t, err)
	require.NoError(t, d.RegisterHandlers(handlers...))

	require.NoError(t, d.Start(context.Background()))
	t.Cleanup(func() { _ = d.Stop() })

	return d
}

func enqueue(t *testing.T, ms *outbox.MemoryStorage, jobType string, opts ...outbox.EnqueueOption) uuid.UUID {
	t.Helper()

	enq, err := outbox.NewEnqueuer(ms)
	require.NoError(t, err)

	id, err := enq.Enqueue(context.Background(), jobType, trialEmailPayload{ContactID: "C1"}, opts...)
	require.NoError(t, err)
	return id
}

func TestNewDispatcher(t *testing.T) {
	t.Parallel()

	t.Run("nil repository", func(t *testing.T) {
		t.Parallel()
		_, err := outbox.NewDispatcher(nil)
		assert.ErrorIs(t, err, outbox.ErrRepositoryNil)
	})

	t.Run("start without handlers", func(t *testing.T) {
		t.Parallel()
		d, err := outbox.NewDispatcher(outbox.NewMemoryStorage())
		require.NoError(t, err)
		assert.ErrorIs(t, d.Start(context.Background()), outbox.ErrNoHandlers)
	})
}

func TestDispatcher_CompletesJob(t *testing.T) {
	t.Parallel()

	ms := outbox.NewMemoryStorage()

	var executions atomic.Int64
	handler := outbox.NewHandler("send_trial_email", func(ctx context.Context, p trialEmailPayload) error {
		executions.Add(1)

		job, ok := outbox.JobFromContext(ctx)
		if !ok {
			return errors.New("job missing from handler context")
		}
		assert.Equal(t, "send_trial_email", job.JobType)
		assert.NotEmpty(t, job.IdempotencyKey())
		return nil
	})

	jobID := enqueue(t, ms, "send_trial_email")
	newTestDispatcher(t, ms, handler)

	require.Eventually(t, func() bool {
		job, ok := ms.GetJob(jobID)
		return ok && job.Status == outbox.JobStatusCompleted
	}, 2*time.Second, 5*time.Millisecond)

	// A completed job must never be claimed again.
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int64(1), executions.Load())

	job, _ := ms.GetJob(jobID)
	require.NotNil(t, job.CompletedAt)
}

func TestDispatcher_RetryProgression(t *testing.T) {
	t.Parallel()

	ms := outbox.NewMemoryStorage()

	var (
		mu        sync.Mutex
		schedules []time.Time
	)
	handler := outbox.NewHandler("send_trial_email", func(ctx context.Context, _ trialEmailPayload) error {
		job, _ := outbox.JobFromContext(ctx)
		mu.Lock()
		schedules = append(schedules, job.ScheduledAt)
		mu.Unlock()
		return errors.New("email provider unavailable")
	})

	const maxAttempts = 3
	jobID := enqueue(t, ms, "send_trial_email", outbox.WithMaxAttempts(maxAttempts))
	newTestDispatcher(t, ms, handler)

	require.Eventually(t, func() bool {
		job, ok := ms.GetJob(jobID)
		return ok && job.Status == outbox.JobStatusFailed
	}, 5*time.Second, 5*time.Millisecond)

	// Exactly max_attempts executions, each claim carrying a strictly later
	// schedule than the one before.
	mu.Lock()
	defer mu.Unlock()
	require.Len(t, schedules, maxAttempts)
	for i := 1; i < len(schedules); i++ {
		assert.True(t, schedules[i].After(schedules[i-1]),
			"schedule %d (%v) not after schedule %d (%v)", i, schedules[i], i-1, schedules[i-1])
	}

	job, _ := ms.GetJob(jobID)
	assert.Equal(t, maxAttempts, job.Attempts)

	letters, err := ms.ListDeadLetters(context.Background(), 10, 0)
	require.NoError(t, err)
	require.Len(t, letters, 1)
	assert.Equal(t, jobID, letters[0].JobID)
	assert.Contains(t, letters[0].Error, "email provider unavailable")
}

func TestDispatcher_PermanentErrorShortCircuits(t *testing.T) {
	t.Parallel()

	ms := outbox.NewMemoryStorage()

	var executions atomic.Int64
	handler := outbox.NewHandler("send_trial_email", func(_ context.Context, _ trialEmailPayload) error {
		executions.Add(1)
		return outbox.Permanent(errors.New("contact was deleted"))
	})

	jobID := enqueue(t, ms, "send_trial_email", outbox.WithMaxAttempts(5))
	newTestDispatcher(t, ms, handler)

	require.Eventually(t, func() bool {
		job, ok := ms.GetJob(jobID)
		return ok && job.Status == outbox.JobStatusFailed
	}, 2*time.Second, 5*time.Millisecond)

	assert.Equal(t, int64(1), executions.Load(), "permanent errors must not be retried")

	letters, err := ms.ListDeadLetters(context.Background(), 10, 0)
	require.NoError(t, err)
	require.Len(t, letters, 1)
	assert.Contains(t, letters[0].Error, "contact was deleted")
}

func TestDispatcher_MissingHandlerDeadLetters(t *testing.T) {
	t.Parallel()

	ms := outbox.NewMemoryStorage()

	// Register a handler for a different type so Start succeeds.
	other := outbox.NewHandler("other_job", func(_ context.Context, _ trialEmailPayload) error {
		return nil
	})

	jobID := enqueue(t, ms, "create_accounting_quote")
	newTestDispatcher(t, ms, other)

	require.Eventually(t, func() bool {
		job, ok := ms.GetJob(jobID)
		return ok && job.Status == outbox.JobStatusFailed
	}, 2*time.Second, 5*time.Millisecond)

	letters, err := ms.ListDeadLetters(context.Background(), 10, 0)
	require.NoError(t, err)
	require.Len(t, letters, 1)
	assert.Contains(t, letters[0].Error, "no handler registered for job type")
	assert.Contains(t, letters[0].Error, "create_accounting_quote")
}

func TestDispatcher_PanicIsRetryableFailure(t *testing.T) {
	t.Parallel()

	ms := outbox.NewMemoryStorage()

	handler := outbox.NewHandler("send_trial_email", func(_ context.Context, _ trialEmailPayload) error {
		panic("nil dereference in template rendering")
	})

	jobID := enqueue(t, ms, "send_trial_email", outbox.WithMaxAttempts(2))
	newTestDispatcher(t, ms, handler)

	require.Eventually(t, func() bool {
		job, ok := ms.GetJob(jobID)
		return ok && job.Status == outbox.JobStatusFailed
	}, 2*time.Second, 5*time.Millisecond)

	job, _ := ms.GetJob(jobID)
	assert.Equal(t, 2, job.Attempts)
	require.NotNil(t, job.LastError)
	assert.Contains(t, *job.LastError, "panic in handler")
}

func TestDispatcher_StopDrainsInFlightJobs(t *testing.T) {
	t.Parallel()

	ms := outbox.NewMemoryStorage()

	release := make(chan struct{})
	started := make(chan struct{})
	handler := outbox.NewHandler("send_trial_email", func(_ context.Context, _ trialEmailPayload) error {
		close(started)
		<-release
		return nil
	})

	jobID := enqueue(t, ms, "send_trial_email")

	d, err := outbox.NewDispatcher(ms,
		outbox.WithPollInterval(5*time.Millisecond),
		outbox.WithLogger(quietLogger()),
	)
	require.NoError(t, err)
	require.NoError(t, d.RegisterHandler(handler))
	require.NoError(t, d.Start(context.Background()))

	<-started

	stopDone := make(chan struct{})
	go func() {
		_ = d.Stop()
		close(stopDone)
	}()

	select {
	case <-stopDone:
		t.Fatal("Stop returned while a job was still executing")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	<-stopDone

	job, ok := ms.GetJob(jobID)
	require.True(t, ok)
	assert.Equal(t, outbox.JobStatusCompleted, job.Status, "in-flight job outcome must be recorded during shutdown")
}

func TestDispatcher_DoubleStartAndStop(t *testing.T) {
	t.Parallel()

	d, err := outbox.NewDispatcher(outbox.NewMemoryStorage(), outbox.WithLogger(quietLogger()))
	require.NoError(t, err)
	require.NoError(t, d.RegisterHandler(outbox.NewHandler("noop", func(_ context.Context, _ struct{}) error {
		return nil
	})))

	require.NoError(t, d.Start(context.Background()))
	assert.Error(t, d.Start(context.Background()))

	require.NoError(t, d.Stop())
	assert.Error(t, d.Stop())
}

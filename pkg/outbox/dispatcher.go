package outbox

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// DispatcherRepository is the storage contract for job execution. Claiming
// must be atomic per row: concurrent dispatchers against the same store must
// never receive the same job.
type DispatcherRepository interface {
	// ClaimJobs atomically selects up to limit eligible jobs (pending with
	// scheduled_at due, or claimed with an elapsed lock) and transitions
	// them to claimed. An empty slice means nothing is due.
	ClaimJobs(ctx context.Context, workerID uuid.UUID, limit int, lockFor time.Duration) ([]Job, error)

	// CompleteJob marks a claimed job completed.
	CompleteJob(ctx context.Context, jobID uuid.UUID) error

	// RetryJob returns a claimed job to pending with an incremented attempt
	// count, the recorded error, and the given next execution time.
	RetryJob(ctx context.Context, jobID uuid.UUID, errMsg string, retryAt time.Time) error

	// FailJob terminally fails a claimed job and parks a dead-letter copy.
	FailJob(ctx context.Context, jobID uuid.UUID, errMsg string) error
}

// outcomeWriteTimeout bounds the status write recording a job's outcome.
const outcomeWriteTimeout = 30 * time.Second

// Dispatcher drains the outbox: it polls the store, claims batches of due
// jobs, and runs the handler registered for each job's type. Run as many
// dispatcher processes as needed; the atomic claim keeps them from stepping
// on each other.
type Dispatcher struct {
	repo     DispatcherRepository
	handlers map[string]Handler
	workerID uuid.UUID
	sem      chan struct{}
	wg       sync.WaitGroup
	mu       sync.RWMutex
	stopMu   sync.Mutex

	pollInterval   time.Duration
	claimBatchSize int
	lockTimeout    time.Duration
	handlerTimeout time.Duration
	backoff        BackoffFunc
	logger         *slog.Logger

	ctx      context.Context
	cancel   context.CancelFunc
	stopping atomic.Bool
}

// NewDispatcher creates a dispatcher with the given storage backend.
func NewDispatcher(repo DispatcherRepository, opts ...DispatcherOption) (*Dispatcher, error) {
	if repo == nil {
		return nil, ErrRepositoryNil
	}

	options := &dispatcherOptions{
		pollInterval:   5 * time.Second,
		claimBatchSize: 10,
		lockTimeout:    5 * time.Minute,
		handlerTimeout: time.Minute,
		maxConcurrent:  10,
		backoff:        ExponentialBackoff(30*time.Second, time.Hour),
		logger:         slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}

	return &Dispatcher{
		repo:           repo,
		handlers:       make(map[string]Handler),
		workerID:       uuid.New(),
		sem:            make(chan struct{}, options.maxConcurrent),
		pollInterval:   options.pollInterval,
		claimBatchSize: options.claimBatchSize,
		lockTimeout:    options.lockTimeout,
		handlerTimeout: options.handlerTimeout,
		backoff:        options.backoff,
		logger:         options.logger,
	}, nil
}

// RegisterHandler registers a handler for its job type. Registering the same
// type twice replaces the previous handler.
func (d *Dispatcher) RegisterHandler(handler Handler) error {
	if handler == nil {
		return nil
	}
	if handler.JobType() == "" {
		return ErrEmptyJobType
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[handler.JobType()] = handler
	return nil
}

// RegisterHandlers registers multiple handlers.
func (d *Dispatcher) RegisterHandlers(handlers ...Handler) error {
	for _, h := range handlers {
		if err := d.RegisterHandler(h); err != nil {
			return err
		}
	}
	return nil
}

// Start begins polling in the background.
func (d *Dispatcher) Start(ctx context.Context) error {
	d.mu.Lock()
	if d.cancel != nil {
		d.mu.Unlock()
		return fmt.Errorf("dispatcher already started")
	}
	if len(d.handlers) == 0 {
		d.mu.Unlock()
		return ErrNoHandlers
	}
	d.ctx, d.cancel = context.WithCancel(ctx)
	d.mu.Unlock()

	d.stopping.Store(false)

	go d.run()

	d.logger.Info("outbox dispatcher started",
		slog.String("worker_id", d.workerID.String()),
		slog.Int("max_concurrent", cap(d.sem)),
		slog.Duration("poll_interval", d.pollInterval))

	return nil
}

// Stop shuts the dispatcher down gracefully, waiting for in-flight jobs.
func (d *Dispatcher) Stop() error {
	d.mu.Lock()
	if d.cancel == nil {
		d.mu.Unlock()
		return fmt.Errorf("dispatcher not started")
	}

	d.stopMu.Lock()
	d.stopping.Store(true)
	d.stopMu.Unlock()

	cancel := d.cancel
	d.cancel = nil
	d.mu.Unlock()

	cancel()

	d.logger.Info("dispatcher stopping, draining in-flight jobs",
		slog.String("worker_id", d.workerID.String()))

	d.wg.Wait()

	d.logger.Info("dispatcher stopped",
		slog.String("worker_id", d.workerID.String()))

	return nil
}

// Run returns a function suitable for errgroup: start, block on ctx, stop.
func (d *Dispatcher) Run(ctx context.Context) func() error {
	return func() error {
		if err := d.Start(ctx); err != nil {
			return err
		}
		<-ctx.Done()
		return d.Stop()
	}
}

func (d *Dispatcher) run() {
	ticker := time.NewTicker(d.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-d.ctx.Done():
			return
		case <-ticker.C:
			if !d.poll() {
				return
			}
		}
	}
}

// poll claims one batch and fans it out. Returns false when the dispatcher
// is stopping.
func (d *Dispatcher) poll() bool {
	free := cap(d.sem) - len(d.sem)
	if free == 0 {
		d.logger.Debug("all dispatcher slots busy, skipping tick",
			slog.String("worker_id", d.workerID.String()))
		return true
	}

	limit := min(free, d.claimBatchSize)
	jobs, err := d.repo.ClaimJobs(d.ctx, d.workerID, limit, d.lockTimeout)
	if err != nil {
		if d.ctx.Err() == nil {
			d.logger.Error("failed to claim jobs",
				slog.String("worker_id", d.workerID.String()),
				slog.String("error", err.Error()))
		}
		return true
	}

	for i := range jobs {
		job := jobs[i]

		select {
		case d.sem <- struct{}{}:
		case <-d.ctx.Done():
			// Unstarted jobs stay claimed until the lock elapses, then
			// another dispatcher picks them up.
			return false
		}

		d.stopMu.Lock()
		if d.stopping.Load() {
			d.stopMu.Unlock()
			<-d.sem
			return false
		}
		d.wg.Add(1)
		d.stopMu.Unlock()

		go func() {
			defer d.wg.Done()
			defer func() { <-d.sem }()
			d.process(&job)
		}()
	}

	return true
}

// process runs one claimed job through its handler and records the outcome.
func (d *Dispatcher) process(job *Job) {
	start := time.Now()

	d.mu.RLock()
	handler, ok := d.handlers[job.JobType]
	d.mu.RUnlock()

	if !ok {
		d.logger.Error("no handler registered for job type",
			slog.String("worker_id", d.workerID.String()),
			slog.String("job_id", job.ID.String()),
			slog.String("job_type", job.JobType))
		ctx, cancel := context.WithTimeout(context.Background(), outcomeWriteTimeout)
		defer cancel()
		d.fail(ctx, job, fmt.Sprintf("%s: %s", ErrHandlerNotFound, job.JobType))
		return
	}

	err := d.execute(handler, job)
	duration := time.Since(start)

	// Outcome writes use a fresh context: a job that already executed must
	// have its status recorded even while the dispatcher is shutting down.
	ctx, cancel := context.WithTimeout(context.Background(), outcomeWriteTimeout)
	defer cancel()

	switch {
	case err == nil:
		if cerr := d.repo.CompleteJob(ctx, job.ID); cerr != nil {
			d.logger.Error("failed to mark job completed",
				slog.String("job_id", job.ID.String()),
				slog.String("error", cerr.Error()))
			return
		}
		d.logger.Info("job completed",
			slog.String("worker_id", d.workerID.String()),
			slog.String("job_id", job.ID.String()),
			slog.String("job_type", job.JobType),
			slog.Duration("duration", duration))

	case IsPermanent(err):
		d.logger.Error("job failed permanently",
			slog.String("worker_id", d.workerID.String()),
			slog.String("job_id", job.ID.String()),
			slog.String("job_type", job.JobType),
			slog.Duration("duration", duration),
			slog.String("error", err.Error()))
		d.fail(ctx, job, err.Error())

	default:
		d.retryOrFail(ctx, job, err, duration)
	}
}

// execute runs the handler with a timeout and panic recovery. The context is
// detached from the dispatcher's lifecycle so graceful shutdown lets
// in-flight jobs finish.
func (d *Dispatcher) execute(handler Handler, job *Job) (retErr error) {
	defer func() {
		if r := recover(); r != nil {
			retErr = fmt.Errorf("panic in handler: %v", r)
			d.logger.Error("handler panicked",
				slog.String("job_id", job.ID.String()),
				slog.String("job_type", job.JobType),
				slog.Any("panic", r))
		}
	}()

	ctx, cancel := context.WithTimeout(withJob(context.Background(), job), d.handlerTimeout)
	defer cancel()

	return handler.Handle(ctx, job.Payload)
}

// retryOrFail handles a retryable error: back to pending with backoff while
// budget remains, dead letter once it is spent.
func (d *Dispatcher) retryOrFail(ctx context.Context, job *Job, execErr error, duration time.Duration) {
	attempts := job.Attempts + 1

	d.logger.Error("job failed",
		slog.String("worker_id", d.workerID.String()),
		slog.String("job_id", job.ID.String()),
		slog.String("job_type", job.JobType),
		slog.Int("attempts", attempts),
		slog.Int("max_attempts", job.MaxAttempts),
		slog.Duration("duration", duration),
		slog.String("error", execErr.Error()))

	if attempts >= job.MaxAttempts {
		d.fail(ctx, job, execErr.Error())
		return
	}

	retryAt := time.Now().Add(d.backoff(attempts))
	if err := d.repo.RetryJob(ctx, job.ID, execErr.Error(), retryAt); err != nil {
		d.logger.Error("failed to schedule job retry",
			slog.String("job_id", job.ID.String()),
			slog.String("error", err.Error()))
	}
}

func (d *Dispatcher) fail(ctx context.Context, job *Job, errMsg string) {
	if err := d.repo.FailJob(ctx, job.ID, errMsg); err != nil {
		d.logger.Error("failed to dead-letter job",
			slog.String("job_id", job.ID.String()),
			slog.String("error", err.Error()))
		return
	}
	d.logger.Warn("job moved to dead letters",
		slog.String("worker_id", d.workerID.String()),
		slog.String("job_id", job.ID.String()),
		slog.String("job_type", job.JobType))
}

package outbox

import (
	"log/slog"
	"time"
)

// DispatcherOption is a functional option for configuring a Dispatcher.
type DispatcherOption func(*dispatcherOptions)

type dispatcherOptions struct {
	pollInterval   time.Duration
	claimBatchSize int
	lockTimeout    time.Duration
	handlerTimeout time.Duration
	maxConcurrent  int
	backoff        BackoffFunc
	logger         *slog.Logger
}

// WithPollInterval sets how often the store is polled for due jobs.
func WithPollInterval(interval time.Duration) DispatcherOption {
	return func(o *dispatcherOptions) {
		if interval > 0 {
			o.pollInterval = interval
		}
	}
}

// WithClaimBatchSize sets the maximum number of jobs claimed per poll.
func WithClaimBatchSize(size int) DispatcherOption {
	return func(o *dispatcherOptions) {
		if size > 0 {
			o.claimBatchSize = size
		}
	}
}

// WithLockTimeout sets how long a claim is held before another dispatcher
// may reclaim the job. Must comfortably exceed the handler timeout.
func WithLockTimeout(timeout time.Duration) DispatcherOption {
	return func(o *dispatcherOptions) {
		if timeout > 0 {
			o.lockTimeout = timeout
		}
	}
}

// WithHandlerTimeout bounds a single handler execution; once exceeded, the
// handler's context is cancelled and the attempt counts as a retryable
// failure.
func WithHandlerTimeout(timeout time.Duration) DispatcherOption {
	return func(o *dispatcherOptions) {
		if timeout > 0 {
			o.handlerTimeout = timeout
		}
	}
}

// WithMaxConcurrentJobs bounds the number of jobs executing at once.
func WithMaxConcurrentJobs(n int) DispatcherOption {
	return func(o *dispatcherOptions) {
		if n > 0 {
			o.maxConcurrent = n
		}
	}
}

// WithBackoff replaces the default exponential backoff.
func WithBackoff(backoff BackoffFunc) DispatcherOption {
	return func(o *dispatcherOptions) {
		if backoff != nil {
			o.backoff = backoff
		}
	}
}

// WithLogger sets the dispatcher's logger.
func WithLogger(logger *slog.Logger) DispatcherOption {
	return func(o *dispatcherOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

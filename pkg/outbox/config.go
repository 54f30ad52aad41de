package outbox

import "time"

// Config surfaces dispatcher tuning through environment variables.
type Config struct {
	PollInterval   time.Duration `env:"OUTBOX_POLL_INTERVAL" envDefault:"5s"`    // PollInterval is how often the store is polled for due jobs.
	ClaimBatchSize int           `env:"OUTBOX_CLAIM_BATCH_SIZE" envDefault:"10"` // ClaimBatchSize is the maximum number of jobs claimed per poll.
	LockTimeout    time.Duration `env:"OUTBOX_LOCK_TIMEOUT" envDefault:"5m"`     // LockTimeout is how long a claim is held before the job may be reclaimed.
	HandlerTimeout time.Duration `env:"OUTBOX_HANDLER_TIMEOUT" envDefault:"1m"`  // HandlerTimeout bounds a single handler execution.
	MaxConcurrent  int           `env:"OUTBOX_MAX_CONCURRENT" envDefault:"10"`   // MaxConcurrent bounds jobs executing at once per dispatcher.
	MaxAttempts    int           `env:"OUTBOX_MAX_ATTEMPTS" envDefault:"5"`      // MaxAttempts is the default retry budget for enqueued jobs.
}

// DispatcherOptions converts the loaded config into dispatcher options.
func (c Config) DispatcherOptions() []DispatcherOption {
	return []DispatcherOption{
		WithPollInterval(c.PollInterval),
		WithClaimBatchSize(c.ClaimBatchSize),
		WithLockTimeout(c.LockTimeout),
		WithHandlerTimeout(c.HandlerTimeout),
		WithMaxConcurrentJobs(c.MaxConcurrent),
	}
}

// EnqueuerOptions converts the loaded config into enqueuer options.
func (c Config) EnqueuerOptions() []EnqueuerOption {
	return []EnqueuerOption{
		WithDefaultMaxAttempts(c.MaxAttempts),
	}
}

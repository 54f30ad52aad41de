// Package outbox implements durable, retryable side-effect jobs: every
// external effect a request triggers (sending an email, creating an
// accounting quote) is written to storage as a job and executed
// asynchronously, so a crashed request never silently loses the effect.
//
// The package is organised around two components talking to storage through
// small repository interfaces:
//
//   - Enqueuer   — writes pending jobs; returns the job ID and nothing else,
//     callers must never assume synchronous completion
//   - Dispatcher — claims eligible jobs exclusively, runs the handler
//     registered for the job's type, and records the outcome
//
// Storage implementations live in this package too: PGStorage (pgx, claim via
// FOR UPDATE SKIP LOCKED) for production and MemoryStorage for tests and
// local development. Multiple dispatcher processes may run against the same
// store; the atomic claim guarantees no job is ever executed by two of them
// concurrently.
//
// # Job lifecycle
//
//	pending -> claimed -> completed
//	                   -> pending (retryable failure, scheduled_at pushed
//	                      forward by exponential backoff with jitter)
//	                   -> failed  (permanent error, missing handler, or retry
//	                      budget exhausted; a dead-letter copy is kept)
//
// Handlers must be idempotent: a crash between execution and the completion
// write causes the job to be claimed and executed again later. Handlers
// calling external services should key the call by an idempotency key
// derived from the job ID (see Job.IdempotencyKey).
//
// A handler error wrapped with Permanent short-circuits retries; any other
// error is treated as retryable.
//
// # Usage
//
//	enq, _ := outbox.NewEnqueuer(store)
//	jobID, err := enq.Enqueue(ctx, "send_transactional_email", payload)
//
//	d, _ := outbox.NewDispatcher(store)
//	_ = d.RegisterHandler(outbox.NewHandler("send_transactional_email",
//	    func(ctx context.Context, p EmailPayload) error { ... }))
//	_ = d.Start(ctx)
//
// Dead-lettered jobs are an operational concern, never a caller-visible
// failure: inspect them with ListDeadLetters and put them back with
// RequeueDeadLetter.
package outbox

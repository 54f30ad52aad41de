package outbox

import "errors"

var (
	// ErrRepositoryNil is returned when a nil repository is provided.
	ErrRepositoryNil = errors.New("repository cannot be nil")

	// ErrEmptyJobType is returned when enqueueing without a job type.
	ErrEmptyJobType = errors.New("job type cannot be empty")

	// ErrPayloadNil is returned when attempting to enqueue a nil payload.
	ErrPayloadNil = errors.New("payload cannot be nil")

	// ErrInvalidMaxAttempts is returned for a non-positive retry budget.
	ErrInvalidMaxAttempts = errors.New("max attempts must be positive")

	// ErrNoHandlers is returned when a dispatcher is started with no
	// registered handlers.
	ErrNoHandlers = errors.New("no job handlers registered")

	// ErrHandlerNotFound is recorded when a claimed job names a type with no
	// registered handler. A configuration error: the job dead-letters
	// immediately, retries cannot help.
	ErrHandlerNotFound = errors.New("no handler registered for job type")

	// ErrJobNotFound is returned by storage when a status transition targets
	// a job that does not exist or is not in the expected state.
	ErrJobNotFound = errors.New("job not found")

	// ErrDeadLetterNotFound is returned when requeueing an unknown dead
	// letter.
	ErrDeadLetterNotFound = errors.New("dead letter not found")
)

// permanentError marks a handler failure that will never succeed on retry.
type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent wraps a handler error to signal that the payload can never
// succeed (e.g. it references a deleted entity) and retries must be
// short-circuited. A nil error stays nil.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err carries the Permanent marker anywhere in
// its chain. Unclassified errors are retryable by default.
func IsPermanent(err error) bool {
	var pe *permanentError
	return errors.As(err, &pe)
}

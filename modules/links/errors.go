package links

import "errors"

var (
	// ErrPurposeMismatch is returned when a verified token carries a purpose
	// other than the one the caller expected.
	ErrPurposeMismatch = errors.New("token purpose mismatch")

	// ErrNoAction is returned when a token redeems successfully but no action
	// is registered for its purpose. This is a deployment configuration
	// error, not a client error.
	ErrNoAction = errors.New("no action registered for purpose")

	// ErrInvalidBaseURL is returned when the configured base URL cannot be
	// parsed.
	ErrInvalidBaseURL = errors.New("invalid base URL")
)

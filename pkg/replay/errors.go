package replay

import "errors"

var (
	// ErrAlreadyUsed is returned when the (purpose, nonce) pair has been
	// consumed before.
	ErrAlreadyUsed = errors.New("token already used")

	// ErrEmptyNonce is returned for a blank nonce; callers should have
	// rejected such tokens during payload validation.
	ErrEmptyNonce = errors.New("nonce cannot be empty")

	// ErrInvalidTTL is returned for a zero or negative TTL, which means the
	// token is already expired and should never have reached the guard.
	ErrInvalidTTL = errors.New("ttl must be positive")

	// ErrGuardUnavailable wraps storage failures. Callers must treat it as a
	// denial: a token cannot be proven fresh while the guard is down.
	ErrGuardUnavailable = errors.New("replay guard unavailable")
)

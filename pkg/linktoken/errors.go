package linktoken

import "errors"

var (
	// ErrMalformedToken is returned for strings that cannot be parsed into a
	// token: wrong segment count, broken base64, or a payload that does not
	// unmarshal into the expected shape.
	ErrMalformedToken = errors.New("malformed token")

	// ErrInvalidSignature is returned when the recomputed MAC does not match
	// the one carried in the token. Covers tampering and wrong signing key.
	ErrInvalidSignature = errors.New("token signature mismatch")

	// ErrExpired is returned for a well-formed, correctly signed token whose
	// expiry has passed.
	ErrExpired = errors.New("token expired")

	// ErrUnknownPurpose is returned when a payload names a purpose this
	// package does not know about.
	ErrUnknownPurpose = errors.New("unknown token purpose")

	// ErrMissingSubject is returned when a payload lacks a subject reference
	// its purpose requires.
	ErrMissingSubject = errors.New("missing subject reference")

	// ErrUnexpectedSubject is returned when a payload carries a subject
	// reference its purpose does not declare.
	ErrUnexpectedSubject = errors.New("unexpected subject reference")

	// ErrEmptySecret is returned when constructing a signer without a secret.
	ErrEmptySecret = errors.New("signing secret cannot be empty")
)

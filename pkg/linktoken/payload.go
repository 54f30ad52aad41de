package linktoken

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"
)

// nonceSize is the number of random bytes in a single-use token nonce.
const nonceSize = 16

// SubjectRefs carries the opaque identifiers a token grants access to.
// Fields not declared by the token's purpose must be empty.
type SubjectRefs struct {
	CompanyID string `json:"co,omitempty"`
	ContactID string `json:"ct,omitempty"`
	QuoteID   string `json:"q,omitempty"`
	UserID    string `json:"u,omitempty"`
}

func (s SubjectRefs) get(name subject) string {
	switch name {
	case subjectCompany:
		return s.CompanyID
	case subjectContact:
		return s.ContactID
	case subjectQuote:
		return s.QuoteID
	case subjectUser:
		return s.UserID
	}
	return ""
}

// Payload is the typed, bounded content of a token. JSON keys are kept short
// because the encoded payload travels inside URLs.
type Payload struct {
	Purpose   Purpose     `json:"p"`
	Subjects  SubjectRefs `json:"s"`
	IssuedAt  int64       `json:"iat"`
	ExpiresAt int64       `json:"exp"`
	Nonce     string      `json:"n,omitempty"`
}

// PayloadOption overrides payload defaults at mint time.
type PayloadOption func(*payloadOptions)

type payloadOptions struct {
	ttl       time.Duration
	expiresAt *time.Time
}

// WithTTL overrides the purpose's default lifetime.
func WithTTL(ttl time.Duration) PayloadOption {
	return func(o *payloadOptions) {
		if ttl > 0 {
			o.ttl = ttl
		}
	}
}

// WithExpiresAt pins the expiry to an absolute time. Takes precedence over
// WithTTL.
func WithExpiresAt(t time.Time) PayloadOption {
	return func(o *payloadOptions) {
		o.expiresAt = &t
	}
}

// NewPayload builds a payload for the given purpose, validating the subject
// references against the purpose's declared field set, stamping issue and
// expiry times, and generating a random nonce for single-use purposes.
func NewPayload(purpose Purpose, subjects SubjectRefs, opts ...PayloadOption) (Payload, error) {
	spec, ok := purposes[purpose]
	if !ok {
		return Payload{}, fmt.Errorf("%w: %q", ErrUnknownPurpose, purpose)
	}

	if err := validateSubjects(spec, subjects); err != nil {
		return Payload{}, err
	}

	options := &payloadOptions{ttl: spec.defaultTTL}
	for _, opt := range opts {
		opt(options)
	}

	now := time.Now()
	expiresAt := now.Add(options.ttl)
	if options.expiresAt != nil {
		expiresAt = *options.expiresAt
	}

	p := Payload{
		Purpose:   purpose,
		Subjects:  subjects,
		IssuedAt:  now.Unix(),
		ExpiresAt: expiresAt.Unix(),
	}

	if spec.singleUse {
		nonce, err := newNonce()
		if err != nil {
			return Payload{}, err
		}
		p.Nonce = nonce
	}

	return p, nil
}

// Expiry returns the payload's expiry as a time.Time.
func (p Payload) Expiry() time.Time {
	return time.Unix(p.ExpiresAt, 0)
}

// validate checks a decoded payload against its purpose's contract. Anything
// that fails here is a structural defect, not an expiry or signature issue.
func (p Payload) validate() error {
	spec, ok := purposes[p.Purpose]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownPurpose, p.Purpose)
	}
	if p.ExpiresAt <= 0 {
		return fmt.Errorf("%w: missing expiry", ErrMalformedToken)
	}
	if spec.singleUse && p.Nonce == "" {
		return fmt.Errorf("%w: missing nonce for single-use purpose %q", ErrMalformedToken, p.Purpose)
	}
	return validateSubjects(spec, p.Subjects)
}

func validateSubjects(spec purposeSpec, subjects SubjectRefs) error {
	declared := make(map[subject]bool, len(spec.subjects))
	for _, name := range spec.subjects {
		declared[name] = true
		if subjects.get(name) == "" {
			return fmt.Errorf("%w: %s", ErrMissingSubject, name)
		}
	}
	for _, name := range []subject{subjectCompany, subjectContact, subjectQuote, subjectUser} {
		if !declared[name] && subjects.get(name) != "" {
			return fmt.Errorf("%w: %s", ErrUnexpectedSubject, name)
		}
	}
	return nil
}

func newNonce() (string, error) {
	buf := make([]byte, nonceSize)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

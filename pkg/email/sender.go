package email

import (
	"context"
	"fmt"
	"regexp"
)

// Sender sends a single transactional email.
type Sender interface {
	SendEmail(ctx context.Context, params SendEmailParams) error
}

// SendEmailParams carries one outbound message.
type SendEmailParams struct {
	SendTo         string `json:"send_to"`
	Subject        string `json:"subject"`
	BodyHTML       string `json:"body_html"`
	Tag            string `json:"tag,omitempty"`             // Optional grouping tag for provider analytics
	IdempotencyKey string `json:"idempotency_key,omitempty"` // Deterministic key for duplicate detection downstream
}

var emailRegex = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// Validate checks the parameters before any provider call; failures are
// permanent from an outbox handler's point of view.
func (p SendEmailParams) Validate() error {
	if p.SendTo == "" || !emailRegex.MatchString(p.SendTo) {
		return fmt.Errorf("%w: invalid recipient %q", ErrInvalidParams, p.SendTo)
	}
	if p.Subject == "" {
		return fmt.Errorf("%w: empty subject", ErrInvalidParams)
	}
	if p.BodyHTML == "" {
		return fmt.Errorf("%w: empty body", ErrInvalidParams)
	}
	return nil
}

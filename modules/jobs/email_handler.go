package jobs

import (
	"context"
	"errors"

	"github.com/magnetarhq/portalcore/pkg/email"
	"github.com/magnetarhq/portalcore/pkg/outbox"
)

// NewSendEmailHandler adapts an email.Sender into the outbox handler for
// send_transactional_email jobs. The provider-side idempotency key comes
// from the job ID, so a crash-then-reclaim resends with the same key and the
// provider deduplicates.
func NewSendEmailHandler(sender email.Sender) outbox.Handler {
	return outbox.NewHandler(JobTypeSendEmail, func(ctx context.Context, p SendEmailPayload) error {
		params := email.SendEmailParams{
			SendTo:   p.SendTo,
			Subject:  p.Subject,
			BodyHTML: p.BodyHTML,
			Tag:      p.Tag,
		}
		if job, ok := outbox.JobFromContext(ctx); ok {
			params.IdempotencyKey = job.IdempotencyKey()
		}

		if err := params.Validate(); err != nil {
			// The stored payload is immutable; a validation failure will
			// never succeed on retry.
			return outbox.Permanent(err)
		}

		if err := sender.SendEmail(ctx, params); err != nil {
			if errors.Is(err, email.ErrInvalidParams) {
				return outbox.Permanent(err)
			}
			return err
		}
		return nil
	})
}

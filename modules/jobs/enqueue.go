package jobs

import (
	"context"

	"github.com/google/uuid"

	"github.com/magnetarhq/portalcore/pkg/email"
	"github.com/magnetarhq/portalcore/pkg/outbox"
)

// Handlers returns the full handler set for dispatcher registration.
func Handlers(sender email.Sender, accounting AccountingClient) []outbox.Handler {
	return []outbox.Handler{
		NewSendEmailHandler(sender),
		NewCreateQuoteHandler(accounting),
	}
}

// EnqueueSendEmail records an email job; the message goes out asynchronously.
func EnqueueSendEmail(ctx context.Context, enq *outbox.Enqueuer, p SendEmailPayload, opts ...outbox.EnqueueOption) (uuid.UUID, error) {
	return enq.Enqueue(ctx, JobTypeSendEmail, p, opts...)
}

// EnqueueCreateQuote records a quote creation job for the accounting system.
func EnqueueCreateQuote(ctx context.Context, enq *outbox.Enqueuer, p CreateQuotePayload, opts ...outbox.EnqueueOption) (uuid.UUID, error) {
	return enq.Enqueue(ctx, JobTypeCreateQuote, p, opts...)
}

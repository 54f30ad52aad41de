package jobs

import (
	"context"

	"github.com/magnetarhq/portalcore/pkg/outbox"
)

// AccountingClient is the contract the quote handler expects from the
// external accounting system. CreateQuote must treat a repeated call with
// the same idempotency key as a no-op.
type AccountingClient interface {
	CreateQuote(ctx context.Context, idempotencyKey string, draft QuoteDraft) error
}

// QuoteDraft is the quote as the accounting system receives it.
type QuoteDraft struct {
	ExternalRef string
	CompanyID   string
	ContactID   string
	Currency    string
	Lines       []QuoteLine
}

// NewCreateQuoteHandler adapts an AccountingClient into the outbox handler
// for create_accounting_quote jobs. Payloads that fail validation are
// permanent failures; accounting errors are retryable by default.
func NewCreateQuoteHandler(client AccountingClient) outbox.Handler {
	return outbox.NewHandler(JobTypeCreateQuote, func(ctx context.Context, p CreateQuotePayload) error {
		if err := p.validate(); err != nil {
			return outbox.Permanent(err)
		}

		draft := QuoteDraft{
			ExternalRef: p.QuoteID,
			CompanyID:   p.CompanyID,
			ContactID:   p.ContactID,
			Currency:    p.Currency,
			Lines:       p.Lines,
		}

		key := "quote-" + p.QuoteID
		if job, ok := outbox.JobFromContext(ctx); ok {
			key = job.IdempotencyKey()
		}

		return client.CreateQuote(ctx, key, draft)
	})
}

package jobs

import "fmt"

// Job type keys. The key is the contract between enqueuing callers and the
// dispatcher's handler registry; changing one orphans in-flight rows.
const (
	JobTypeSendEmail   = "send_transactional_email"
	JobTypeCreateQuote = "create_accounting_quote"
)

// SendEmailPayload is the stored payload of a send_transactional_email job.
type SendEmailPayload struct {
	SendTo   string `json:"send_to"`
	Subject  string `json:"subject"`
	BodyHTML string `json:"body_html"`
	Tag      string `json:"tag,omitempty"`
}

// CreateQuotePayload is the stored payload of a create_accounting_quote job.
type CreateQuotePayload struct {
	CompanyID string      `json:"company_id"`
	ContactID string      `json:"contact_id,omitempty"`
	QuoteID   string      `json:"quote_id"`
	Currency  string      `json:"currency"`
	Lines     []QuoteLine `json:"lines"`
}

// QuoteLine is one line item carried to the accounting system.
type QuoteLine struct {
	Description string `json:"description"`
	Quantity    int    `json:"quantity"`
	UnitCents   int64  `json:"unit_cents"`
}

func (p CreateQuotePayload) validate() error {
	if p.CompanyID == "" {
		return fmt.Errorf("quote payload missing company_id")
	}
	if p.QuoteID == "" {
		return fmt.Errorf("quote payload missing quote_id")
	}
	if len(p.Lines) == 0 {
		return fmt.Errorf("quote payload has no line items")
	}
	return nil
}

package email

import (
	"context"
	"log/slog"
)

// DevSender implements Sender for local development: it logs the message
// instead of calling a provider.
type DevSender struct {
	log *slog.Logger
}

// NewDevSender creates a log-only sender. A nil logger falls back to
// slog.Default.
func NewDevSender(log *slog.Logger) *DevSender {
	if log == nil {
		log = slog.Default()
	}
	return &DevSender{log: log}
}

// SendEmail implements Sender.
func (d *DevSender) SendEmail(ctx context.Context, params SendEmailParams) error {
	if err := params.Validate(); err != nil {
		return err
	}

	d.log.InfoContext(ctx, "dev email sender: message not sent",
		slog.String("send_to", params.SendTo),
		slog.String("subject", params.Subject),
		slog.String("tag", params.Tag),
		slog.String("idempotency_key", params.IdempotencyKey),
		slog.Int("body_bytes", len(params.BodyHTML)))

	return nil
}

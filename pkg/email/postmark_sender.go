package email

import (
	"context"
	"errors"
	"fmt"

	"github.com/mrz1836/postmark"
)

type postmarkSender struct {
	client *postmark.Client
	config Config
}

// NewPostmarkSender creates the Postmark-backed production sender. Missing
// configuration fails construction: a portal that silently drops its
// transactional email is worse than one that refuses to start.
func NewPostmarkSender(cfg Config) (Sender, error) {
	switch {
	case cfg.PostmarkServerToken == "":
		return nil, fmt.Errorf("%w: PostmarkServerToken is required", ErrInvalidConfig)
	case cfg.PostmarkAccountToken == "":
		return nil, fmt.Errorf("%w: PostmarkAccountToken is required", ErrInvalidConfig)
	case !emailRegex.MatchString(cfg.SenderEmail):
		return nil, fmt.Errorf("%w: SenderEmail must be a valid email address", ErrInvalidConfig)
	case !emailRegex.MatchString(cfg.SupportEmail):
		return nil, fmt.Errorf("%w: SupportEmail must be a valid email address", ErrInvalidConfig)
	}

	return &postmarkSender{
		client: postmark.NewClient(cfg.PostmarkServerToken, cfg.PostmarkAccountToken),
		config: cfg,
	}, nil
}

// SendEmail implements Sender. The idempotency key rides along as message
// metadata so provider-side tooling and webhooks can correlate duplicates
// from re-executed jobs.
func (s *postmarkSender) SendEmail(ctx context.Context, params SendEmailParams) error {
	if err := params.Validate(); err != nil {
		return err
	}

	msg := postmark.Email{
		From:       s.config.SenderEmail,
		ReplyTo:    s.config.SupportEmail,
		To:         params.SendTo,
		Subject:    params.Subject,
		Tag:        params.Tag,
		HTMLBody:   params.BodyHTML,
		TrackOpens: true,
		TrackLinks: "HtmlOnly",
	}
	if params.IdempotencyKey != "" {
		msg.Metadata = map[string]string{"idempotency_key": params.IdempotencyKey}
	}

	resp, err := s.client.SendEmail(ctx, msg)
	if err != nil {
		return errors.Join(ErrFailedToSendEmail, err)
	}
	if resp.ErrorCode > 0 {
		return errors.Join(
			ErrFailedToSendEmail,
			fmt.Errorf("postmark error %d: %s", resp.ErrorCode, resp.Message),
		)
	}
	return nil
}

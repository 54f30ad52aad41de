package links

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"time"

	"github.com/magnetarhq/portalcore/pkg/linktoken"
	"github.com/magnetarhq/portalcore/pkg/logger"
	"github.com/magnetarhq/portalcore/pkg/replay"
)

// Service mints and redeems signed link tokens. Minting is pure computation;
// redemption additionally consults the replay guard for single-use purposes.
type Service struct {
	signer *linktoken.Signer
	guard  replay.Guard
	base   *url.URL
	log    *slog.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithLogger sets the logger used for security and configuration events.
func WithLogger(log *slog.Logger) ServiceOption {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// NewService builds the link service from config. The guard may not be nil:
// single-use purposes cannot be redeemed safely without it.
func NewService(cfg Config, guard replay.Guard, opts ...ServiceOption) (*Service, error) {
	signer, err := linktoken.NewSigner(cfg.SigningSecret)
	if err != nil {
		return nil, err
	}

	base, err := url.Parse(cfg.BaseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, ErrInvalidBaseURL
	}

	s := &Service{
		signer: signer,
		guard:  guard,
		base:   base,
		log:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Mint creates a signed token for the given purpose and subjects.
func (s *Service) Mint(purpose linktoken.Purpose, subjects linktoken.SubjectRefs, opts ...linktoken.PayloadOption) (string, error) {
	p, err := linktoken.NewPayload(purpose, subjects, opts...)
	if err != nil {
		return "", err
	}
	return s.signer.Mint(p)
}

// MintURL mints a token and embeds it in a redemption URL under the
// configured base, as a single opaque path segment.
func (s *Service) MintURL(purpose linktoken.Purpose, subjects linktoken.SubjectRefs, opts ...linktoken.PayloadOption) (string, error) {
	token, err := s.Mint(purpose, subjects, opts...)
	if err != nil {
		return "", err
	}
	return s.base.JoinPath("l", token).String(), nil
}

// Redeem verifies a presented token and, for single-use purposes, consumes
// its nonce. A signature mismatch is logged as a security event.
func (s *Service) Redeem(ctx context.Context, token string) (linktoken.Payload, error) {
	return s.redeem(ctx, token, "")
}

// RedeemAs is Redeem for callers that expect a specific purpose. The purpose
// is checked before the nonce is consumed, so a mismatched token stays
// redeemable at its own endpoint.
func (s *Service) RedeemAs(ctx context.Context, token string, purpose linktoken.Purpose) (linktoken.Payload, error) {
	return s.redeem(ctx, token, purpose)
}

func (s *Service) redeem(ctx context.Context, token string, expected linktoken.Purpose) (linktoken.Payload, error) {
	p, err := s.signer.Verify(token)
	if err != nil {
		if errors.Is(err, linktoken.ErrInvalidSignature) {
			s.log.WarnContext(ctx, "link token signature mismatch",
				logger.Event("token_signature_mismatch"),
				logger.Component("links"),
			)
		}
		return linktoken.Payload{}, err
	}

	if expected != "" && p.Purpose != expected {
		return linktoken.Payload{}, ErrPurposeMismatch
	}

	if p.Purpose.SingleUse() {
		ttl := time.Until(p.Expiry())
		if err := s.guard.CheckAndConsume(ctx, string(p.Purpose), p.Nonce, ttl); err != nil {
			return linktoken.Payload{}, err
		}
	}

	return p, nil
}

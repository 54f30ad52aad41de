package linktoken_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magnetarhq/portalcore/pkg/linktoken"
)

const testSecret = "portal-signing-secret"

func TestNewSigner(t *testing.T) {
	t.Parallel()

	t.Run("valid secret", func(t *testing.T) {
		t.Parallel()
		signer, err := linktoken.NewSigner(testSecret)
		require.NoError(t, err)
		require.NotNil(t, signer)
	})

	t.Run("empty secret", func(t *testing.T) {
		t.Parallel()
		_, err := linktoken.NewSigner("")
		assert.ErrorIs(t, err, linktoken.ErrEmptySecret)
	})
}

func TestMintVerifyRoundTrip(t *testing.T) {
	t.Parallel()

	signer, err := linktoken.NewSigner(testSecret)
	require.NoError(t, err)

	tests := []struct {
		name     string
		purpose  linktoken.Purpose
		subjects linktoken.SubjectRefs
	}{
		{
			name:     "marketing click",
			purpose:  linktoken.PurposeMarketingClick,
			subjects: linktoken.SubjectRefs{CompanyID: "CO1", ContactID: "CT1"},
		},
		{
			name:     "trial request",
			purpose:  linktoken.PurposeTrialRequest,
			subjects: linktoken.SubjectRefs{CompanyID: "CO1", ContactID: "CT1"},
		},
		{
			name:     "quote action",
			purpose:  linktoken.PurposeQuoteAction,
			subjects: linktoken.SubjectRefs{CompanyID: "CO1", ContactID: "CT1", QuoteID: "Q1"},
		},
		{
			name:     "portal access",
			purpose:  linktoken.PurposePortalAccess,
			subjects: linktoken.SubjectRefs{CompanyID: "CO1", ContactID: "CT1"},
		},
		{
			name:     "unsubscribe",
			purpose:  linktoken.PurposeUnsubscribe,
			subjects: linktoken.SubjectRefs{ContactID: "CT1"},
		},
		{
			name:     "password reset",
			purpose:  linktoken.PurposePasswordReset,
			subjects: linktoken.SubjectRefs{UserID: "U1"},
		},
		{
			name:     "invitation accept",
			purpose:  linktoken.PurposeInvitationAccept,
			subjects: linktoken.SubjectRefs{UserID: "U1"},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			payload, err := linktoken.NewPayload(tt.purpose, tt.subjects)
			require.NoError(t, err)

			tok, err := signer.Mint(payload)
			require.NoError(t, err)
			assert.NotContains(t, tok, " ")
			assert.Len(t, strings.Split(tok, "."), 2)

			got, err := signer.Verify(tok)
			require.NoError(t, err)
			assert.Equal(t, payload, got)

			if tt.purpose.SingleUse() {
				assert.NotEmpty(t, got.Nonce)
			} else {
				assert.Empty(t, got.Nonce)
			}
		})
	}
}

func TestNewPayloadValidation(t *testing.T) {
	t.Parallel()

	t.Run("unknown purpose", func(t *testing.T) {
		t.Parallel()
		_, err := linktoken.NewPayload("password-reset-v2", linktoken.SubjectRefs{UserID: "U1"})
		assert.ErrorIs(t, err, linktoken.ErrUnknownPurpose)
	})

	t.Run("missing required subject", func(t *testing.T) {
		t.Parallel()
		_, err := linktoken.NewPayload(linktoken.PurposeQuoteAction, linktoken.SubjectRefs{CompanyID: "CO1", ContactID: "CT1"})
		assert.ErrorIs(t, err, linktoken.ErrMissingSubject)
	})

	t.Run("undeclared subject rejected", func(t *testing.T) {
		t.Parallel()
		_, err := linktoken.NewPayload(linktoken.PurposeUnsubscribe, linktoken.SubjectRefs{ContactID: "CT1", QuoteID: "Q1"})
		assert.ErrorIs(t, err, linktoken.ErrUnexpectedSubject)
	})

	t.Run("custom ttl", func(t *testing.T) {
		t.Parallel()
		p, err := linktoken.NewPayload(linktoken.PurposeTrialRequest,
			linktoken.SubjectRefs{CompanyID: "CO1", ContactID: "CT1"},
			linktoken.WithTTL(time.Minute),
		)
		require.NoError(t, err)
		assert.InDelta(t, time.Now().Add(time.Minute).Unix(), p.ExpiresAt, 2)
	})
}

func TestVerifyTamperDetection(t *testing.T) {
	t.Parallel()

	signer, err := linktoken.NewSigner(testSecret)
	require.NoError(t, err)

	payload, err := linktoken.NewPayload(linktoken.PurposeQuoteAction,
		linktoken.SubjectRefs{CompanyID: "CO1", ContactID: "CT1", QuoteID: "Q1"})
	require.NoError(t, err)

	tok, err := signer.Mint(payload)
	require.NoError(t, err)

	// Flipping any single character must never yield a valid token. A flip
	// in the payload segment can also break the base64 framing, so either
	// ErrInvalidSignature or ErrMalformedToken is acceptable; success is not.
	for i := range tok {
		if tok[i] == '.' {
			continue
		}
		flipped := tok[:i] + string(tok[i]^1) + tok[i+1:]
		if flipped == tok {
			continue
		}
		_, err := signer.Verify(flipped)
		require.Error(t, err, "flipped char at %d verified successfully", i)
		assert.NotErrorIs(t, err, linktoken.ErrExpired)
	}
}

func TestVerifyWrongSecret(t *testing.T) {
	t.Parallel()

	signer, err := linktoken.NewSigner(testSecret)
	require.NoError(t, err)
	other, err := linktoken.NewSigner("rotated-secret")
	require.NoError(t, err)

	payload, err := linktoken.NewPayload(linktoken.PurposeUnsubscribe, linktoken.SubjectRefs{ContactID: "CT1"})
	require.NoError(t, err)

	tok, err := signer.Mint(payload)
	require.NoError(t, err)

	_, err = other.Verify(tok)
	assert.ErrorIs(t, err, linktoken.ErrInvalidSignature)
}

func TestVerifyExpired(t *testing.T) {
	t.Parallel()

	signer, err := linktoken.NewSigner(testSecret)
	require.NoError(t, err)

	payload, err := linktoken.NewPayload(linktoken.PurposeQuoteAction,
		linktoken.SubjectRefs{CompanyID: "CO1", ContactID: "CT1", QuoteID: "Q1"},
		linktoken.WithExpiresAt(time.Now().Add(-time.Second)),
	)
	require.NoError(t, err)

	tok, err := signer.Mint(payload)
	require.NoError(t, err)

	// Valid signature, past expiry: must be ErrExpired, not ErrInvalidSignature.
	_, err = signer.Verify(tok)
	assert.ErrorIs(t, err, linktoken.ErrExpired)
}

func TestVerifyMalformed(t *testing.T) {
	t.Parallel()

	signer, err := linktoken.NewSigner(testSecret)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{name: "no separator", token: "justonesegment"},
		{name: "too many segments", token: "a.b.c"},
		{name: "invalid base64 payload", token: "!!!.c2ln"},
		{name: "invalid base64 signature", token: "c2ln.!!!"},
		{name: "empty string", token: ""},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := signer.Verify(tt.token)
			assert.ErrorIs(t, err, linktoken.ErrMalformedToken)
		})
	}
}

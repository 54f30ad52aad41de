package links_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magnetarhq/portalcore/modules/links"
	"github.com/magnetarhq/portalcore/pkg/linktoken"
	"github.com/magnetarhq/portalcore/pkg/replay"
)

func newTestService(t *testing.T) *links.Service {
	t.Helper()
	svc, err := links.NewService(links.Config{
		SigningSecret: "test-signing-secret",
		BaseURL:       "https://portal.example.com",
	}, replay.NewMemoryGuard())
	require.NoError(t, err)
	return svc
}

func TestNewService_Validation(t *testing.T) {
	t.Parallel()

	t.Run("empty secret", func(t *testing.T) {
		t.Parallel()
		_, err := links.NewService(links.Config{BaseURL: "https://x.example.com"}, replay.NewMemoryGuard())
		assert.ErrorIs(t, err, linktoken.ErrEmptySecret)
	})

	t.Run("bad base URL", func(t *testing.T) {
		t.Parallel()
		_, err := links.NewService(links.Config{
			SigningSecret: "secret",
			BaseURL:       "not a url",
		}, replay.NewMemoryGuard())
		assert.ErrorIs(t, err, links.ErrInvalidBaseURL)
	})
}

func TestService_MintAndRedeem(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	subjects := linktoken.SubjectRefs{CompanyID: "co-1", ContactID: "ct-1"}

	token, err := svc.Mint(linktoken.PurposeTrialRequest, subjects)
	require.NoError(t, err)

	p, err := svc.Redeem(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, linktoken.PurposeTrialRequest, p.Purpose)
	assert.Equal(t, subjects, p.Subjects)
}

func TestService_MintURL(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)

	u, err := svc.MintURL(linktoken.PurposeUnsubscribe, linktoken.SubjectRefs{ContactID: "ct-9"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(u, "https://portal.example.com/l/"), u)

	// The embedded token must redeem back to the same subjects.
	token := strings.TrimPrefix(u, "https://portal.example.com/l/")
	p, err := svc.Redeem(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "ct-9", p.Subjects.ContactID)
}

func TestService_Redeem_SingleUse(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)

	token, err := svc.Mint(linktoken.PurposePasswordReset, linktoken.SubjectRefs{UserID: "u-1"})
	require.NoError(t, err)

	_, err = svc.Redeem(context.Background(), token)
	require.NoError(t, err)

	_, err = svc.Redeem(context.Background(), token)
	assert.ErrorIs(t, err, replay.ErrAlreadyUsed)
}

func TestService_Redeem_ReusablePurposeAllowsReplay(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)

	token, err := svc.Mint(linktoken.PurposePortalAccess, linktoken.SubjectRefs{CompanyID: "co-1", ContactID: "ct-1"})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := svc.Redeem(context.Background(), token)
		require.NoError(t, err)
	}
}

func TestService_Redeem_Expired(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)

	token, err := svc.Mint(linktoken.PurposeQuoteAction,
		linktoken.SubjectRefs{CompanyID: "co-1", ContactID: "ct-1", QuoteID: "q-1"},
		linktoken.WithExpiresAt(time.Now().Add(-time.Second)),
	)
	require.NoError(t, err)

	_, err = svc.Redeem(context.Background(), token)
	assert.ErrorIs(t, err, linktoken.ErrExpired)
}

func TestService_RedeemAs(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)

	token, err := svc.Mint(linktoken.PurposeInvitationAccept, linktoken.SubjectRefs{UserID: "u-2"})
	require.NoError(t, err)

	// Wrong expected purpose is rejected without consuming the nonce.
	_, err = svc.RedeemAs(context.Background(), token, linktoken.PurposePasswordReset)
	require.ErrorIs(t, err, links.ErrPurposeMismatch)

	p, err := svc.RedeemAs(context.Background(), token, linktoken.PurposeInvitationAccept)
	require.NoError(t, err)
	assert.Equal(t, "u-2", p.Subjects.UserID)
}

package linktoken

import "time"

// Purpose identifies the token family a link belongs to. All link types in
// the portal share this one codec and signer, parameterized by purpose,
// instead of carrying their own bespoke signing schemes.
type Purpose string

const (
	PurposeMarketingClick   Purpose = "marketing-click"
	PurposeTrialRequest     Purpose = "trial-request"
	PurposeQuoteAction      Purpose = "quote-action"
	PurposePortalAccess     Purpose = "portal-access"
	PurposeUnsubscribe      Purpose = "unsubscribe"
	PurposePasswordReset    Purpose = "password-reset"
	PurposeInvitationAccept Purpose = "invitation-accept"
)

// subject names the reference fields a purpose may carry.
type subject string

const (
	subjectCompany subject = "company"
	subjectContact subject = "contact"
	subjectQuote   subject = "quote"
	subjectUser    subject = "user"
)

// purposeSpec declares the contract of one token family: which subject
// references it carries, how long it lives by default, and whether the
// replay guard must be consulted on redemption.
type purposeSpec struct {
	subjects   []subject
	defaultTTL time.Duration
	singleUse  bool
}

var purposes = map[Purpose]purposeSpec{
	PurposeMarketingClick: {
		subjects:   []subject{subjectCompany, subjectContact},
		defaultTTL: 28 * 24 * time.Hour,
	},
	PurposeTrialRequest: {
		subjects:   []subject{subjectCompany, subjectContact},
		defaultTTL: 7 * 24 * time.Hour,
	},
	PurposeQuoteAction: {
		subjects:   []subject{subjectCompany, subjectContact, subjectQuote},
		defaultTTL: 72 * time.Hour,
	},
	PurposePortalAccess: {
		// Portal links live until revoked; five years is the practical ceiling.
		subjects:   []subject{subjectCompany, subjectContact},
		defaultTTL: 5 * 365 * 24 * time.Hour,
	},
	PurposeUnsubscribe: {
		subjects:   []subject{subjectContact},
		defaultTTL: 365 * 24 * time.Hour,
	},
	PurposePasswordReset: {
		subjects:   []subject{subjectUser},
		defaultTTL: time.Hour,
		singleUse:  true,
	},
	PurposeInvitationAccept: {
		subjects:   []subject{subjectUser},
		defaultTTL: 7 * 24 * time.Hour,
		singleUse:  true,
	},
}

// Valid reports whether the purpose is one of the known token families.
func (p Purpose) Valid() bool {
	_, ok := purposes[p]
	return ok
}

// SingleUse reports whether redeeming a token of this purpose must consume
// its nonce through the replay guard.
func (p Purpose) SingleUse() bool {
	return purposes[p].singleUse
}

// DefaultTTL returns the purpose's default token lifetime.
func (p Purpose) DefaultTTL() time.Duration {
	return purposes[p].defaultTTL
}

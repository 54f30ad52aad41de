// Package linktoken issues and verifies the signed capability tokens embedded
// in every actionable link the portal sends out: marketing click-throughs,
// trial requests, quote actions, portal access, unsubscribe, password resets,
// and invitations.
//
// A token is a self-contained, signed string. Verification recomputes an
// HMAC-SHA256 over the canonical JSON payload and compares in constant time,
// so most forged or expired tokens are rejected without any storage lookup.
// That matters because some purposes (marketing click tracking) sit on a hot
// path with no authenticated session.
//
// Token format: base64url(payload) + "." + base64url(mac)
//
// Each purpose declares which subject references it carries, a default
// lifetime, and whether the token is single-use. Single-use purposes get a
// random nonce; callers must pair verification with a replay guard (see
// package replay) to enforce the single-use property.
//
// # Usage
//
//	signer, err := linktoken.NewSigner(secret)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	p, err := linktoken.NewPayload(linktoken.PurposePasswordReset, linktoken.SubjectRefs{UserID: "U42"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	tok, err := signer.Mint(p)
//
//	// later, on an inbound request:
//	p, err = signer.Verify(tok)
//
// Verify returns ErrMalformedToken for structurally invalid strings,
// ErrInvalidSignature for tampering or a wrong key, and ErrExpired for a
// valid signature past its expiry. The three are distinct so callers can
// render distinct user-facing messages and log signature failures as
// security events.
package linktoken

package linktoken

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"time"
)

// Signer mints and verifies signed tokens with a server-held secret. It is
// stateless and safe for concurrent use.
type Signer struct {
	secret []byte
}

// NewSigner creates a signer. Password-reset and invitation tokens ride on
// the same signer as everything else, so the full 32-byte HMAC-SHA256 output
// is kept rather than truncated.
func NewSigner(secret string) (*Signer, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	return &Signer{secret: []byte(secret)}, nil
}

// Mint serializes the payload to canonical JSON (struct field order is
// fixed, so the encoding is deterministic) and appends the MAC:
// base64url(payload) + "." + base64url(mac).
func (s *Signer) Mint(p Payload) (string, error) {
	if err := p.validate(); err != nil {
		return "", err
	}

	data, err := json.Marshal(p)
	if err != nil {
		return "", err
	}

	return base64.RawURLEncoding.EncodeToString(data) + "." + base64.RawURLEncoding.EncodeToString(s.mac(data)), nil
}

// Verify checks the token's signature and expiry and returns the decoded
// payload. It performs no I/O; callers redeeming single-use purposes must
// additionally consume the nonce through a replay guard.
//
// The signature is checked before expiry so that a tampered-and-expired
// string reports ErrInvalidSignature, not ErrExpired.
func (s *Signer) Verify(token string) (Payload, error) {
	var p Payload

	parts := strings.Split(token, ".")
	if len(parts) != 2 {
		return p, ErrMalformedToken
	}

	// Strict decoding rejects non-zero trailing padding bits, so two distinct
	// strings can never decode to the same bytes and slip past the MAC check.
	data, err := base64.RawURLEncoding.Strict().DecodeString(parts[0])
	if err != nil {
		return p, errors.Join(ErrMalformedToken, err)
	}

	sig, err := base64.RawURLEncoding.Strict().DecodeString(parts[1])
	if err != nil {
		return p, errors.Join(ErrMalformedToken, err)
	}

	if subtle.ConstantTimeCompare(sig, s.mac(data)) != 1 {
		return p, ErrInvalidSignature
	}

	if err := json.Unmarshal(data, &p); err != nil {
		return Payload{}, errors.Join(ErrMalformedToken, err)
	}
	if err := p.validate(); err != nil {
		return Payload{}, err
	}

	if time.Now().After(p.Expiry()) {
		return Payload{}, ErrExpired
	}

	return p, nil
}

func (s *Signer) mac(data []byte) []byte {
	h := hmac.New(sha256.New, s.secret)
	h.Write(data)
	return h.Sum(nil)
}

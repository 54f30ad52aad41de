package replay

import (
	"context"
	"time"
)

// Guard is the atomic check-and-consume contract for single-use nonces.
// Implementations must guarantee that for any (purpose, nonce) pair, at most
// one concurrent CheckAndConsume call returns nil.
type Guard interface {
	// CheckAndConsume records the nonce as used for the given purpose. It
	// returns nil exactly once per (purpose, nonce) pair within the TTL
	// window and ErrAlreadyUsed on every subsequent call.
	CheckAndConsume(ctx context.Context, purpose, nonce string, ttl time.Duration) error
}

// Package replay enforces single-use semantics for tokens whose purpose
// demands it (password reset, invitation accept).
//
// A Guard records consumed (purpose, nonce) pairs with a TTL matching the
// token's remaining lifetime. Check and insert happen in one atomic
// operation, so two requests racing to redeem the same link resolve to
// exactly one winner; the loser gets ErrAlreadyUsed. Consumed pairs expire
// with the token, after which replaying the token fails on expiry anyway.
//
// RedisGuard is the production implementation (one SETNX per redemption).
// MemoryGuard backs tests and local development.
//
// # Usage
//
//	guard := replay.NewRedisGuard(client)
//
//	ttl := time.Until(payload.Expiry())
//	if err := guard.CheckAndConsume(ctx, string(payload.Purpose), payload.Nonce, ttl); err != nil {
//	    // errors.Is(err, replay.ErrAlreadyUsed) -> "link already used"
//	}
package replay

// Package ops exposes the operational JSON API over the outbox dead-letter
// queue: listing permanently failed jobs and requeueing them for another
// run. It is meant to sit behind internal/admin authentication, off the
// dispatch hot path.
package ops

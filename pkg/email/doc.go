// Package email defines the transactional email contract used by outbox job
// handlers, with a Postmark-backed production implementation and a
// log-only sender for development.
//
// The Sender interface is deliberately tiny: outbox handlers are the only
// callers, and they pass a deterministic idempotency key derived from the
// job ID so a re-executed job (crash between send and status write) can be
// detected downstream.
package email

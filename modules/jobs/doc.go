// Package jobs defines the portal's outbox job types and their handlers:
// sending transactional email and creating quotes in the external accounting
// system. Handlers are idempotent; repeated execution after a crash reuses
// the same deterministic idempotency key derived from the job ID.
package jobs

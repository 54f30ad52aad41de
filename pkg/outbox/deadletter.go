package outbox

import (
	"context"

	"github.com/google/uuid"
)

// DeadLetterRepository is the narrow operational surface over permanently
// failed jobs. It is read/requeue only and stays off the dispatch hot path;
// job errors never propagate to the caller that enqueued them.
type DeadLetterRepository interface {
	// ListDeadLetters returns parked jobs, most recently failed first.
	ListDeadLetters(ctx context.Context, limit, offset int) ([]DeadLetter, error)

	// RequeueDeadLetter turns a dead letter back into a fresh pending job
	// with a reset attempt count and returns the new job's ID. The dead
	// letter is removed so it cannot be requeued twice.
	RequeueDeadLetter(ctx context.Context, id uuid.UUID) (uuid.UUID, error)
}

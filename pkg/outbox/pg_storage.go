package outbox

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGStorage implements all outbox repository interfaces on PostgreSQL via
// pgx. Claiming uses FOR UPDATE SKIP LOCKED inside a single conditional
// update, so horizontally scaled dispatchers never receive the same row.
//
// Schema lives in migrations/ (tables outbox_jobs and outbox_dead_letters);
// apply it with pg.Migrate before first use.
type PGStorage struct {
	db *pgxpool.Pool
}

// NewPGStorage creates a PostgreSQL-backed store.
func NewPGStorage(db *pgxpool.Pool) (*PGStorage, error) {
	if db == nil {
		return nil, ErrRepositoryNil
	}
	return &PGStorage{db: db}, nil
}

const jobColumns = `id, job_type, payload, status, attempts, max_attempts,
	scheduled_at, locked_until, locked_by, last_error, created_at, completed_at`

// CreateJob implements EnqueuerRepository. Use TxEnqueuer when the enqueue
// must commit atomically with the triggering business write.
func (s *PGStorage) CreateJob(ctx context.Context, job *Job) error {
	return createJob(ctx, s.db, job)
}

// TxEnqueuer returns an EnqueuerRepository bound to an open transaction, so
// "trial requested" and "trial email job enqueued" commit or roll back as
// one unit of work.
func (s *PGStorage) TxEnqueuer(tx pgx.Tx) EnqueuerRepository {
	return &txEnqueuer{tx: tx}
}

type txEnqueuer struct {
	tx pgx.Tx
}

func (t *txEnqueuer) CreateJob(ctx context.Context, job *Job) error {
	return createJob(ctx, t.tx, job)
}

// execer is the subset of pgx shared by pools and transactions.
type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func createJob(ctx context.Context, db execer, job *Job) error {
	_, err := db.Exec(ctx, `
		INSERT INTO outbox_jobs (id, job_type, payload, status, attempts, max_attempts, scheduled_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		job.ID, job.JobType, job.Payload, job.Status, job.Attempts, job.MaxAttempts, job.ScheduledAt, job.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert outbox job: %w", err)
	}
	return nil
}

// ClaimJobs implements DispatcherRepository. The subquery locks candidate
// rows with SKIP LOCKED; rows another dispatcher holds are skipped rather
// than waited on, and the surrounding UPDATE transitions and returns the
// claimed set in one statement.
func (s *PGStorage) ClaimJobs(ctx context.Context, workerID uuid.UUID, limit int, lockFor time.Duration) ([]Job, error) {
	lockUntil := time.Now().Add(lockFor)
	rows, err := s.db.Query(ctx, `
		UPDATE outbox_jobs
		SET status = $1, locked_until = $2, locked_by = $3
		WHERE id IN (
			SELECT id FROM outbox_jobs
			WHERE (status = $4 AND scheduled_at <= now())
			   OR (status = $1 AND locked_until < now())
			ORDER BY scheduled_at
			LIMIT $5
			FOR UPDATE SKIP LOCKED
		)
		RETURNING `+jobColumns,
		JobStatusClaimed, lockUntil, workerID, JobStatusPending, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to claim outbox jobs: %w", err)
	}
	defer rows.Close()

	return scanJobs(rows)
}

// CompleteJob implements DispatcherRepository.
func (s *PGStorage) CompleteJob(ctx context.Context, jobID uuid.UUID) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE outbox_jobs
		SET status = $1, completed_at = now(), locked_until = NULL, locked_by = NULL
		WHERE id = $2 AND status = $3`,
		JobStatusCompleted, jobID, JobStatusClaimed,
	)
	if err != nil {
		return fmt.Errorf("failed to complete job %s: %w", jobID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrJobNotFound
	}
	return nil
}

// RetryJob implements DispatcherRepository.
func (s *PGStorage) RetryJob(ctx context.Context, jobID uuid.UUID, errMsg string, retryAt time.Time) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE outbox_jobs
		SET status = $1, attempts = attempts + 1, scheduled_at = $2, last_error = $3,
		    locked_until = NULL, locked_by = NULL
		WHERE id = $4 AND status = $5`,
		JobStatusPending, retryAt, errMsg, jobID, JobStatusClaimed,
	)
	if err != nil {
		return fmt.Errorf("failed to schedule retry for job %s: %w", jobID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrJobNotFound
	}
	return nil
}

// FailJob implements DispatcherRepository. The terminal status write and the
// dead-letter copy commit together.
func (s *PGStorage) FailJob(ctx context.Context, jobID uuid.UUID, errMsg string) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin fail transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `
		UPDATE outbox_jobs
		SET status = $1, attempts = attempts + 1, last_error = $2,
		    locked_until = NULL, locked_by = NULL
		WHERE id = $3 AND status = $4`,
		JobStatusFailed, errMsg, jobID, JobStatusClaimed,
	)
	if err != nil {
		return fmt.Errorf("failed to fail job %s: %w", jobID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrJobNotFound
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO outbox_dead_letters (id, job_id, job_type, payload, attempts, max_attempts, error, failed_at, created_at)
		SELECT $1, id, job_type, payload, attempts, max_attempts, $2, now(), created_at
		FROM outbox_jobs WHERE id = $3`,
		uuid.New(), errMsg, jobID,
	)
	if err != nil {
		return fmt.Errorf("failed to dead-letter job %s: %w", jobID, err)
	}

	return tx.Commit(ctx)
}

// ListDeadLetters implements DeadLetterRepository.
func (s *PGStorage) ListDeadLetters(ctx context.Context, limit, offset int) ([]DeadLetter, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, job_id, job_type, payload, attempts, max_attempts, error, failed_at, created_at
		FROM outbox_dead_letters
		ORDER BY failed_at DESC
		LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list dead letters: %w", err)
	}
	defer rows.Close()

	var out []DeadLetter
	for rows.Next() {
		var dl DeadLetter
		if err := rows.Scan(&dl.ID, &dl.JobID, &dl.JobType, &dl.Payload, &dl.Attempts,
			&dl.MaxAttempts, &dl.Error, &dl.FailedAt, &dl.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan dead letter: %w", err)
		}
		out = append(out, dl)
	}
	return out, rows.Err()
}

// RequeueDeadLetter implements DeadLetterRepository. Insert and delete share
// a transaction so a dead letter can be requeued at most once.
func (s *PGStorage) RequeueDeadLetter(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to begin requeue transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var (
		jobType     string
		payload     []byte
		maxAttempts int
	)
	err = tx.QueryRow(ctx, `
		DELETE FROM outbox_dead_letters WHERE id = $1
		RETURNING job_type, payload, max_attempts`,
		id,
	).Scan(&jobType, &payload, &maxAttempts)
	if errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, ErrDeadLetterNotFound
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to remove dead letter %s: %w", id, err)
	}

	jobID := uuid.New()
	_, err = tx.Exec(ctx, `
		INSERT INTO outbox_jobs (id, job_type, payload, status, attempts, max_attempts, scheduled_at, created_at)
		VALUES ($1, $2, $3, $4, 0, $5, now(), now())`,
		jobID, jobType, payload, JobStatusPending, maxAttempts,
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to requeue dead letter %s: %w", id, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return uuid.Nil, err
	}
	return jobID, nil
}

func scanJobs(rows pgx.Rows) ([]Job, error) {
	var out []Job
	for rows.Next() {
		var job Job
		if err := rows.Scan(&job.ID, &job.JobType, &job.Payload, &job.Status, &job.Attempts,
			&job.MaxAttempts, &job.ScheduledAt, &job.LockedUntil, &job.LockedBy,
			&job.LastError, &job.CreatedAt, &job.CompletedAt); err != nil {
			return nil, fmt.Errorf("failed to scan outbox job: %w", err)
		}
		out = append(out, job)
	}
	return out, rows.Err()
}

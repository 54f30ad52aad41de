package outbox

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStorage implements every outbox repository interface in process, for
// tests and local development. Claim atomicity comes from the single mutex:
// concurrent ClaimJobs calls serialize, so a job is handed out exactly once.
type MemoryStorage struct {
	mu          sync.Mutex
	jobs        map[uuid.UUID]*Job
	deadLetters map[uuid.UUID]*DeadLetter
}

// NewMemoryStorage creates an empty in-memory store.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		jobs:        make(map[uuid.UUID]*Job),
		deadLetters: make(map[uuid.UUID]*DeadLetter),
	}
}

// CreateJob implements EnqueuerRepository.
func (ms *MemoryStorage) CreateJob(_ context.Context, job *Job) error {
	if job == nil {
		return ErrPayloadNil
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()

	if _, exists := ms.jobs[job.ID]; exists {
		return fmt.Errorf("job %s already exists", job.ID)
	}

	cp := *job
	ms.jobs[job.ID] = &cp
	return nil
}

// ClaimJobs implements DispatcherRepository. Eligible jobs are pending rows
// whose schedule is due, plus claimed rows whose lock elapsed (crash
// recovery). Oldest schedule first.
func (ms *MemoryStorage) ClaimJobs(_ context.Context, workerID uuid.UUID, limit int, lockFor time.Duration) ([]Job, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	now := time.Now()

	var eligible []*Job
	for _, job := range ms.jobs {
		switch {
		case job.Status == JobStatusPending && !job.ScheduledAt.After(now):
			eligible = append(eligible, job)
		case job.Status == JobStatusClaimed && job.LockedUntil != nil && job.LockedUntil.Before(now):
			eligible = append(eligible, job)
		}
	}

	sort.Slice(eligible, func(i, j int) bool {
		return eligible[i].ScheduledAt.Before(eligible[j].ScheduledAt)
	})
	if len(eligible) > limit {
		eligible = eligible[:limit]
	}

	claimed := make([]Job, 0, len(eligible))
	lockUntil := now.Add(lockFor)
	for _, job := range eligible {
		job.Status = JobStatusClaimed
		job.LockedUntil = &lockUntil
		job.LockedBy = &workerID
		claimed = append(claimed, *job)
	}

	return claimed, nil
}

// CompleteJob implements DispatcherRepository.
func (ms *MemoryStorage) CompleteJob(_ context.Context, jobID uuid.UUID) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	job, err := ms.claimedJob(jobID)
	if err != nil {
		return err
	}

	now := time.Now()
	job.Status = JobStatusCompleted
	job.CompletedAt = &now
	job.LockedUntil = nil
	job.LockedBy = nil
	return nil
}

// RetryJob implements DispatcherRepository.
func (ms *MemoryStorage) RetryJob(_ context.Context, jobID uuid.UUID, errMsg string, retryAt time.Time) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	job, err := ms.claimedJob(jobID)
	if err != nil {
		return err
	}

	job.Status = JobStatusPending
	job.Attempts++
	job.ScheduledAt = retryAt
	job.LastError = &errMsg
	job.LockedUntil = nil
	job.LockedBy = nil
	return nil
}

// FailJob implements DispatcherRepository.
func (ms *MemoryStorage) FailJob(_ context.Context, jobID uuid.UUID, errMsg string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	job, err := ms.claimedJob(jobID)
	if err != nil {
		return err
	}

	now := time.Now()
	job.Status = JobStatusFailed
	job.Attempts++
	job.LastError = &errMsg
	job.LockedUntil = nil
	job.LockedBy = nil

	dl := &DeadLetter{
		ID:          uuid.New(),
		JobID:       job.ID,
		JobType:     job.JobType,
		Payload:     job.Payload,
		Attempts:    job.Attempts,
		MaxAttempts: job.MaxAttempts,
		Error:       errMsg,
		FailedAt:    now,
		CreatedAt:   job.CreatedAt,
	}
	ms.deadLetters[dl.ID] = dl
	return nil
}

// ListDeadLetters implements DeadLetterRepository.
func (ms *MemoryStorage) ListDeadLetters(_ context.Context, limit, offset int) ([]DeadLetter, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	all := make([]DeadLetter, 0, len(ms.deadLetters))
	for _, dl := range ms.deadLetters {
		all = append(all, *dl)
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].FailedAt.After(all[j].FailedAt)
	})

	if offset >= len(all) {
		return []DeadLetter{}, nil
	}
	all = all[offset:]
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

// RequeueDeadLetter implements DeadLetterRepository.
func (ms *MemoryStorage) RequeueDeadLetter(_ context.Context, id uuid.UUID) (uuid.UUID, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	dl, ok := ms.deadLetters[id]
	if !ok {
		return uuid.Nil, ErrDeadLetterNotFound
	}

	now := time.Now()
	job := &Job{
		ID:          uuid.New(),
		JobType:     dl.JobType,
		Payload:     dl.Payload,
		Status:      JobStatusPending,
		Attempts:    0,
		MaxAttempts: dl.MaxAttempts,
		ScheduledAt: now,
		CreatedAt:   now,
	}
	ms.jobs[job.ID] = job
	delete(ms.deadLetters, id)

	return job.ID, nil
}

// GetJob returns a copy of a job. Test helper.
func (ms *MemoryStorage) GetJob(id uuid.UUID) (Job, bool) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	job, ok := ms.jobs[id]
	if !ok {
		return Job{}, false
	}
	return *job, true
}

func (ms *MemoryStorage) claimedJob(jobID uuid.UUID) (*Job, error) {
	job, ok := ms.jobs[jobID]
	if !ok || job.Status != JobStatusClaimed {
		return nil, ErrJobNotFound
	}
	return job, nil
}

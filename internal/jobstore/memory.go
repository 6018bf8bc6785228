// Package jobstore provides the process-lifetime job record store. Jobs are
// held in memory only; a restart forgets all history, which is an accepted
// limitation of the deployment model rather than something this package
// papers over.
package jobstore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"infinitetalk/internal/domain"
)

// Memory is an in-memory domain.JobStore backed by a mutex-guarded map.
// Records are stored and returned by value so concurrent readers always see
// a fully published snapshot.
type Memory struct {
	mu   sync.RWMutex
	jobs map[string]domain.Job
	now  func() time.Time
}

// NewMemory constructs an empty store.
func NewMemory() *Memory {
	return &Memory{
		jobs: make(map[string]domain.Job),
		now:  time.Now,
	}
}

// Create issues a fresh unique job ID and an in_progress record.
func (m *Memory) Create(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	id := uuid.NewString()
	m.mu.Lock()
	m.jobs[id] = domain.Job{
		ID:        id,
		Status:    domain.JobStatusInProgress,
		Progress:  0,
		StartedAt: m.now(),
	}
	m.mu.Unlock()
	return id, nil
}

// Complete transitions the job to completed.
func (m *Memory) Complete(ctx context.Context, jobID, outputPath, downloadURL string) error {
	return m.finalize(ctx, jobID, func(j *domain.Job) {
		j.Status = domain.JobStatusCompleted
		j.OutputPath = outputPath
		j.DownloadURL = downloadURL
		j.CompletedAt = m.now()
	})
}

// Fail transitions the job to failed.
func (m *Memory) Fail(ctx context.Context, jobID, errMsg string) error {
	return m.finalize(ctx, jobID, func(j *domain.Job) {
		j.Status = domain.JobStatusFailed
		j.Error = errMsg
		j.FailedAt = m.now()
	})
}

func (m *Memory) finalize(ctx context.Context, jobID string, apply func(*domain.Job)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[jobID]
	if !ok {
		return fmt.Errorf("jobstore: %s: %w", jobID, domain.ErrNotFound)
	}
	if job.Status.Terminal() {
		return fmt.Errorf("jobstore: %s is %s: %w", jobID, job.Status, domain.ErrJobFinalized)
	}
	apply(&job)
	m.jobs[jobID] = job
	return nil
}

// Get returns a snapshot of the job.
func (m *Memory) Get(ctx context.Context, jobID string) (domain.Job, error) {
	if err := ctx.Err(); err != nil {
		return domain.Job{}, err
	}
	m.mu.RLock()
	job, ok := m.jobs[jobID]
	m.mu.RUnlock()
	if !ok {
		return domain.Job{}, fmt.Errorf("jobstore: %s: %w", jobID, domain.ErrNotFound)
	}
	return job, nil
}

var _ domain.JobStore = (*Memory)(nil)

package mock

import (
	"context"
	"sync"
	"time"

	"audiopress/internal/domain"
	"audiopress/internal/repository"
)

var _ repository.JobRepository = (*JobRepository)(nil)

// JobRepository is an in-memory job repository, used in tests and as the
// "memory" store backend. Hook functions allow injecting errors per call.
type JobRepository struct {
	mu   sync.RWMutex
	jobs map[string]*domain.Job

	CreateFunc         func(ctx context.Context, job *domain.Job) error
	GetByIDFunc        func(ctx context.Context, id string) (*domain.Job, error)
	MarkProcessingFunc func(ctx context.Context, id string, title string, durationSeconds int64) error
	MarkDoneFunc       func(ctx context.Context, id string, resultPath string) error
	MarkFailedFunc     func(ctx context.Context, id string, reason string) error
}

// NewJobRepository creates an empty in-memory repository.
func NewJobRepository() *JobRepository {
	return &JobRepository{jobs: make(map[string]*domain.Job)}
}

func (m *JobRepository) Create(ctx context.Context, job *domain.Job) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, job)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *job
	m.jobs[job.ID] = &cp
	return nil
}

func (m *JobRepository) GetByID(ctx context.Context, id string) (*domain.Job, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	job, ok := m.jobs[id]
	if !ok {
		return nil, domain.ErrJobNotFound
	}
	cp := *job
	return &cp, nil
}

func (m *JobRepository) MarkProcessing(ctx context.Context, id string, title string, durationSeconds int64) error {
	if m.MarkProcessingFunc != nil {
		return m.MarkProcessingFunc(ctx, id, title, durationSeconds)
	}
	return m.update(id, func(job *domain.Job) {
		job.State = domain.StateProcessing
		job.Title = title
		job.DurationSeconds = durationSeconds
	})
}

func (m *JobRepository) MarkDone(ctx context.Context, id string, resultPath string) error {
	if m.MarkDoneFunc != nil {
		return m.MarkDoneFunc(ctx, id, resultPath)
	}
	return m.update(id, func(job *domain.Job) {
		job.State = domain.StateDone
		job.ResultPath = resultPath
	})
}

func (m *JobRepository) MarkFailed(ctx context.Context, id string, reason string) error {
	if m.MarkFailedFunc != nil {
		return m.MarkFailedFunc(ctx, id, reason)
	}
	return m.update(id, func(job *domain.Job) {
		job.State = domain.StateFailed
		job.FailureReason = reason
	})
}

func (m *JobRepository) update(id string, apply func(job *domain.Job)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok {
		return domain.ErrJobNotFound
	}
	if job.State.IsTerminal() {
		return domain.ErrTerminalState
	}
	apply(job)
	job.UpdatedAt = time.Now().UTC()
	return nil
}

// GetAll returns all stored jobs (for test assertions).
func (m *JobRepository) GetAll() []*domain.Job {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Job, 0, len(m.jobs))
	for _, j := range m.jobs {
		cp := *j
		result = append(result, &cp)
	}
	return result
}

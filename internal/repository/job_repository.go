package repository

import (
	"context"

	"audiopress/internal/domain"
)

// JobRepository defines the interface for job state persistence.
// Implementations must be safe for concurrent use and must reject
// transitions out of a terminal state with domain.ErrTerminalState.
type JobRepository interface {
	// Create inserts a new job into the store. The job is visible to
	// readers from the moment Create returns.
	Create(ctx context.Context, job *domain.Job) error

	// GetByID retrieves a job by its ID, or domain.ErrJobNotFound.
	GetByID(ctx context.Context, id string) (*domain.Job, error)

	// MarkProcessing transitions a job to PROCESSING and records the
	// metadata learned from the probe.
	MarkProcessing(ctx context.Context, id string, title string, durationSeconds int64) error

	// MarkDone atomically transitions a job to DONE and sets its result path.
	MarkDone(ctx context.Context, id string, resultPath string) error

	// MarkFailed atomically transitions a job to FAILED and sets the reason.
	MarkFailed(ctx context.Context, id string, reason string) error
}

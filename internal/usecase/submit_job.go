package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"audiopress/internal/domain"
	"audiopress/internal/metrics"
	"audiopress/internal/repository"
)

// Dispatcher hands a created job off to background processing.
type Dispatcher interface {
	Dispatch(job *domain.Job) error
}

// SubmitJobUsecase handles the business logic for submitting conversion jobs.
type SubmitJobUsecase struct {
	repo       repository.JobRepository
	dispatcher Dispatcher
	logger     *zap.Logger
}

// NewSubmitJobUsecase creates a new SubmitJobUsecase.
func NewSubmitJobUsecase(repo repository.JobRepository, dispatcher Dispatcher, logger *zap.Logger) *SubmitJobUsecase {
	return &SubmitJobUsecase{
		repo:       repo,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// Execute validates the submission, persists a PENDING job, dispatches its
// pipeline, and returns immediately. The pipeline never runs on this path.
func (uc *SubmitJobUsecase) Execute(ctx context.Context, req *domain.SubmitRequest) (*domain.SubmitResponse, error) {
	if err := domain.ValidateSourceURL(req.URL); err != nil {
		return nil, err
	}

	// UUIDv7 (time-ordered)
	jobID, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generate UUIDv7: %w", err)
	}

	now := time.Now().UTC()
	job := &domain.Job{
		ID:        jobID.String(),
		SourceURL: req.URL,
		State:     domain.StatePending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	// The job must be readable the instant submit returns, before the
	// pipeline has had any chance to run.
	if err := uc.repo.Create(ctx, job); err != nil {
		uc.logger.Error("failed to create job in store",
			zap.Error(err), zap.String("job_id", job.ID))
		return nil, fmt.Errorf("create job: %w", err)
	}

	if err := uc.dispatcher.Dispatch(job); err != nil {
		uc.logger.Warn("dispatch rejected, failing job",
			zap.Error(err), zap.String("job_id", job.ID))
		// The record already exists; fail it so it does not sit PENDING forever.
		_ = uc.repo.MarkFailed(ctx, job.ID, "server is overloaded, processing queue is full")
		return nil, domain.ErrQueueFull
	}

	metrics.JobsSubmitted.Inc()
	uc.logger.Info("job submitted",
		zap.String("job_id", job.ID),
		zap.String("source_url", job.SourceURL),
	)

	return &domain.SubmitResponse{
		JobID:  job.ID,
		Status: string(domain.StatePending),
	}, nil
}

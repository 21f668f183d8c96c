package usecase

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"audiopress/internal/domain"
	"audiopress/internal/repository"
)

// GetJobUsecase handles fetching job status and results.
type GetJobUsecase struct {
	repo   repository.JobRepository
	logger *zap.Logger
}

// NewGetJobUsecase creates a new GetJobUsecase.
func NewGetJobUsecase(repo repository.JobRepository, logger *zap.Logger) *GetJobUsecase {
	return &GetJobUsecase{
		repo:   repo,
		logger: logger,
	}
}

// Execute retrieves a job by its ID. Unknown IDs surface as
// domain.ErrJobNotFound, never as a default job.
func (uc *GetJobUsecase) Execute(ctx context.Context, id string) (*domain.Job, error) {
	job, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrJobNotFound) {
			return nil, domain.ErrJobNotFound
		}
		uc.logger.Error("failed to read job from store",
			zap.String("job_id", id), zap.Error(err))
		return nil, err
	}
	return job, nil
}

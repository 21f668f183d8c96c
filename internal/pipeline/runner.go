package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"audiopress/internal/domain"
	"audiopress/internal/extractor"
	"audiopress/internal/metrics"
	"audiopress/internal/repository"
)

// Runner executes the conversion pipeline for one job:
// probe → validate → download/transcode → finalize.
// Every failure inside Run converts into a FAILED transition; nothing
// escapes to the caller, so one bad job can never take a worker down.
type Runner struct {
	repo        repository.JobRepository
	extractor   extractor.Extractor
	outputDir   string
	maxDuration int64
	logger      *zap.Logger
}

// NewRunner creates a pipeline runner. maxDurationSeconds is the validation
// ceiling for source media length; artifacts are written to outputDir,
// named by job ID.
func NewRunner(repo repository.JobRepository, ext extractor.Extractor, outputDir string, maxDurationSeconds int64, logger *zap.Logger) *Runner {
	return &Runner{
		repo:        repo,
		extractor:   ext,
		outputDir:   outputDir,
		maxDuration: maxDurationSeconds,
		logger:      logger,
	}
}

// ArtifactPath returns the deterministic artifact location for a job ID.
func (r *Runner) ArtifactPath(jobID string) string {
	return filepath.Join(r.outputDir, jobID+".mp3")
}

// Run executes the pipeline for a single job. It only ever writes the state
// of the job it owns, so concurrent runs cannot interfere.
func (r *Runner) Run(ctx context.Context, job *domain.Job) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("pipeline panic recovered",
				zap.String("job_id", job.ID),
				zap.Any("panic", rec),
			)
			r.fail(ctx, job.ID, fmt.Sprintf("internal error: %v", rec))
		}
	}()

	info, err := r.extractor.Probe(ctx, job.SourceURL)
	if err != nil {
		r.fail(ctx, job.ID, err.Error())
		return
	}

	if info.IsLive {
		r.fail(ctx, job.ID, "live streams are not supported")
		return
	}
	if info.DurationSeconds > r.maxDuration {
		r.fail(ctx, job.ID, fmt.Sprintf(
			"media duration %ds exceeds the maximum of %ds", info.DurationSeconds, r.maxDuration))
		return
	}

	if err := r.repo.MarkProcessing(ctx, job.ID, info.Title, info.DurationSeconds); err != nil {
		// No safe terminal state to write when the store itself failed;
		// leave the job in its last known state and escalate via logs.
		r.logger.Error("failed to mark job processing",
			zap.String("job_id", job.ID), zap.Error(err))
		return
	}

	outputPath := r.ArtifactPath(job.ID)
	if err := r.extractor.Materialize(ctx, job.SourceURL, outputPath); err != nil {
		r.fail(ctx, job.ID, err.Error())
		return
	}

	if _, err := os.Stat(outputPath); err != nil {
		r.fail(ctx, job.ID, "audio artifact missing after download")
		return
	}

	if err := r.repo.MarkDone(ctx, job.ID, outputPath); err != nil {
		r.logger.Error("failed to mark job done",
			zap.String("job_id", job.ID), zap.Error(err))
		return
	}

	metrics.JobsCompleted.WithLabelValues("done").Inc()
	r.logger.Info("job completed",
		zap.String("job_id", job.ID),
		zap.String("result_path", outputPath),
		zap.Int64("duration_seconds", info.DurationSeconds),
	)
}

func (r *Runner) fail(ctx context.Context, jobID, reason string) {
	if err := r.repo.MarkFailed(ctx, jobID, reason); err != nil {
		r.logger.Error("failed to mark job failed",
			zap.String("job_id", jobID),
			zap.String("reason", reason),
			zap.Error(err),
		)
		return
	}
	metrics.JobsCompleted.WithLabelValues("failed").Inc()
	r.logger.Info("job failed",
		zap.String("job_id", jobID),
		zap.String("reason", reason),
	)
}

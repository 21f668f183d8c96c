package pipeline_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"audiopress/internal/domain"
	"audiopress/internal/extractor"
	extmock "audiopress/internal/extractor/mock"
	"audiopress/internal/pipeline"
	mockrepo "audiopress/internal/repository/mock"
)

const maxDurationSeconds = 7200

func newTestJob(repo *mockrepo.JobRepository, id, url string) *domain.Job {
	job := &domain.Job{
		ID:        id,
		SourceURL: url,
		State:     domain.StatePending,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	repo.Create(context.Background(), job)
	return job
}

// writeArtifact is a MaterializeFunc that produces a file at outputPath.
func writeArtifact(ctx context.Context, url, outputPath string) error {
	return os.WriteFile(outputPath, []byte("mp3 bytes"), 0o644)
}

func TestRunner_SuccessPath(t *testing.T) {
	repo := mockrepo.NewJobRepository()
	ext := &extmock.Extractor{
		ProbeFunc: func(ctx context.Context, url string) (*extractor.MediaInfo, error) {
			return &extractor.MediaInfo{Title: "short clip", DurationSeconds: 90}, nil
		},
		MaterializeFunc: writeArtifact,
	}
	runner := pipeline.NewRunner(repo, ext, t.TempDir(), maxDurationSeconds, zap.NewNop())

	job := newTestJob(repo, "job-ok", "https://media.example.com/v/1")
	runner.Run(context.Background(), job)

	got, err := repo.GetByID(context.Background(), job.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.State != domain.StateDone {
		t.Fatalf("expected DONE, got %s (reason %q)", got.State, got.FailureReason)
	}
	if got.ResultPath == "" {
		t.Fatal("DONE job must have a result path")
	}
	if _, err := os.Stat(got.ResultPath); err != nil {
		t.Errorf("artifact missing at %s: %v", got.ResultPath, err)
	}
	if got.Title != "short clip" || got.DurationSeconds != 90 {
		t.Errorf("probe metadata not recorded: %+v", got)
	}
}

func TestRunner_RejectsTooLongMedia(t *testing.T) {
	repo := mockrepo.NewJobRepository()
	materialized := false
	ext := &extmock.Extractor{
		ProbeFunc: func(ctx context.Context, url string) (*extractor.MediaInfo, error) {
			return &extractor.MediaInfo{DurationSeconds: 10000}, nil
		},
		MaterializeFunc: func(ctx context.Context, url, outputPath string) error {
			materialized = true
			return nil
		},
	}
	outputDir := t.TempDir()
	runner := pipeline.NewRunner(repo, ext, outputDir, maxDurationSeconds, zap.NewNop())

	job := newTestJob(repo, "job-long", "https://media.example.com/v/2")
	runner.Run(context.Background(), job)

	got, _ := repo.GetByID(context.Background(), job.ID)
	if got.State != domain.StateFailed {
		t.Fatalf("expected FAILED, got %s", got.State)
	}
	if !strings.Contains(got.FailureReason, "maximum") {
		t.Errorf("failure reason should mention the duration ceiling, got %q", got.FailureReason)
	}
	if materialized {
		t.Error("no download should happen for an over-length source")
	}
	if entries, _ := os.ReadDir(outputDir); len(entries) != 0 {
		t.Error("no artifact should be produced for a rejected job")
	}
}

func TestRunner_RejectsLiveStream(t *testing.T) {
	repo := mockrepo.NewJobRepository()
	ext := &extmock.Extractor{
		ProbeFunc: func(ctx context.Context, url string) (*extractor.MediaInfo, error) {
			return &extractor.MediaInfo{DurationSeconds: 0, IsLive: true}, nil
		},
	}
	runner := pipeline.NewRunner(repo, ext, t.TempDir(), maxDurationSeconds, zap.NewNop())

	job := newTestJob(repo, "job-live", "https://media.example.com/live")
	runner.Run(context.Background(), job)

	got, _ := repo.GetByID(context.Background(), job.ID)
	if got.State != domain.StateFailed {
		t.Fatalf("expected FAILED, got %s", got.State)
	}
	if !strings.Contains(got.FailureReason, "live") {
		t.Errorf("failure reason should mention live streams, got %q", got.FailureReason)
	}
}

func TestRunner_ProbeErrorFailsBeforeProcessing(t *testing.T) {
	repo := mockrepo.NewJobRepository()
	var states []domain.JobState
	repo.MarkProcessingFunc = func(ctx context.Context, id, title string, d int64) error {
		states = append(states, domain.StateProcessing)
		return nil
	}
	ext := &extmock.Extractor{
		ProbeFunc: func(ctx context.Context, url string) (*extractor.MediaInfo, error) {
			return nil, &extractor.ExtractionError{Op: "probe", Detail: "ERROR: unsupported URL"}
		},
	}
	runner := pipeline.NewRunner(repo, ext, t.TempDir(), maxDurationSeconds, zap.NewNop())

	job := newTestJob(repo, "job-badurl", "https://media.example.com/v/3")
	runner.Run(context.Background(), job)

	got, _ := repo.GetByID(context.Background(), job.ID)
	if got.State != domain.StateFailed {
		t.Fatalf("expected FAILED, got %s", got.State)
	}
	if !strings.Contains(got.FailureReason, "unsupported URL") {
		t.Errorf("failure reason should carry the adapter's error text, got %q", got.FailureReason)
	}
	if len(states) != 0 {
		t.Error("PROCESSING must never be entered when validation fails")
	}
}

func TestRunner_MaterializeErrorFailsJob(t *testing.T) {
	repo := mockrepo.NewJobRepository()
	ext := &extmock.Extractor{
		MaterializeFunc: func(ctx context.Context, url, outputPath string) error {
			return &extractor.ExtractionError{Op: "materialize", Detail: "network unreachable"}
		},
	}
	runner := pipeline.NewRunner(repo, ext, t.TempDir(), maxDurationSeconds, zap.NewNop())

	job := newTestJob(repo, "job-neterr", "https://media.example.com/v/4")
	runner.Run(context.Background(), job)

	got, _ := repo.GetByID(context.Background(), job.ID)
	if got.State != domain.StateFailed {
		t.Fatalf("expected FAILED, got %s", got.State)
	}
	if got.FailureReason == "" {
		t.Error("FAILED job must have a failure reason")
	}
	if got.ResultPath != "" {
		t.Error("FAILED job must not have a result path")
	}
}

func TestRunner_MissingArtifactFailsJob(t *testing.T) {
	repo := mockrepo.NewJobRepository()
	// Materialize reports success but writes nothing.
	ext := &extmock.Extractor{}
	runner := pipeline.NewRunner(repo, ext, t.TempDir(), maxDurationSeconds, zap.NewNop())

	job := newTestJob(repo, "job-noout", "https://media.example.com/v/5")
	runner.Run(context.Background(), job)

	got, _ := repo.GetByID(context.Background(), job.ID)
	if got.State != domain.StateFailed {
		t.Fatalf("expected FAILED, got %s", got.State)
	}
	if !strings.Contains(got.FailureReason, "artifact") {
		t.Errorf("unexpected failure reason %q", got.FailureReason)
	}
}

func TestRunner_RecoversPanic(t *testing.T) {
	repo := mockrepo.NewJobRepository()
	ext := &extmock.Extractor{
		ProbeFunc: func(ctx context.Context, url string) (*extractor.MediaInfo, error) {
			panic("adapter blew up")
		},
	}
	runner := pipeline.NewRunner(repo, ext, t.TempDir(), maxDurationSeconds, zap.NewNop())

	job := newTestJob(repo, "job-panic", "https://media.example.com/v/6")
	runner.Run(context.Background(), job) // must not propagate the panic

	got, _ := repo.GetByID(context.Background(), job.ID)
	if got.State != domain.StateFailed {
		t.Fatalf("expected FAILED after panic, got %s", got.State)
	}
	if !strings.Contains(got.FailureReason, "adapter blew up") {
		t.Errorf("unexpected failure reason %q", got.FailureReason)
	}
}

func TestRunner_TerminalStateIsNeverOverwritten(t *testing.T) {
	repo := mockrepo.NewJobRepository()
	ext := &extmock.Extractor{MaterializeFunc: writeArtifact}
	runner := pipeline.NewRunner(repo, ext, t.TempDir(), maxDurationSeconds, zap.NewNop())

	job := newTestJob(repo, "job-term", "https://media.example.com/v/7")
	runner.Run(context.Background(), job)

	first, _ := repo.GetByID(context.Background(), job.ID)
	if first.State != domain.StateDone {
		t.Fatalf("setup: expected DONE, got %s", first.State)
	}

	// A stray second run against the same id must not move the job.
	runner.Run(context.Background(), job)

	second, _ := repo.GetByID(context.Background(), job.ID)
	if second.State != domain.StateDone {
		t.Errorf("terminal job transitioned again: %s", second.State)
	}
	if second.ResultPath != first.ResultPath {
		t.Errorf("result path changed from %q to %q", first.ResultPath, second.ResultPath)
	}
}

func TestRunner_StoreFailureLeavesJobUntouched(t *testing.T) {
	repo := mockrepo.NewJobRepository()
	repo.MarkProcessingFunc = func(ctx context.Context, id, title string, d int64) error {
		return errors.New("store unreachable")
	}
	materialized := false
	ext := &extmock.Extractor{
		MaterializeFunc: func(ctx context.Context, url, outputPath string) error {
			materialized = true
			return nil
		},
	}
	runner := pipeline.NewRunner(repo, ext, t.TempDir(), maxDurationSeconds, zap.NewNop())

	job := newTestJob(repo, "job-storedown", "https://media.example.com/v/8")
	runner.Run(context.Background(), job)

	// Store failures have no safe terminal state to write: the job stays in
	// its last known state and the pipeline stops.
	got, _ := repo.GetByID(context.Background(), job.ID)
	if got.State != domain.StatePending {
		t.Errorf("expected job left PENDING, got %s", got.State)
	}
	if materialized {
		t.Error("pipeline must stop when the store transition fails")
	}
}

// One slow, failing job must not delay or corrupt other jobs running
// concurrently.
func TestRunner_ConcurrentJobsAreIsolated(t *testing.T) {
	repo := mockrepo.NewJobRepository()
	ext := &extmock.Extractor{
		ProbeFunc: func(ctx context.Context, url string) (*extractor.MediaInfo, error) {
			if strings.Contains(url, "slow") {
				time.Sleep(300 * time.Millisecond)
				return nil, &extractor.ExtractionError{Op: "probe", Detail: "source timed out"}
			}
			return &extractor.MediaInfo{DurationSeconds: 30}, nil
		},
		MaterializeFunc: writeArtifact,
	}
	runner := pipeline.NewRunner(repo, ext, t.TempDir(), maxDurationSeconds, zap.NewNop())

	const fastJobs = 8
	jobs := make([]*domain.Job, 0, fastJobs+1)
	jobs = append(jobs, newTestJob(repo, "job-slow", "https://media.example.com/slow"))
	for i := 0; i < fastJobs; i++ {
		id := fmt.Sprintf("job-fast-%d", i)
		jobs = append(jobs, newTestJob(repo, id, fmt.Sprintf("https://media.example.com/fast/%d", i)))
	}

	var wg sync.WaitGroup
	for _, job := range jobs {
		wg.Add(1)
		go func(j *domain.Job) {
			defer wg.Done()
			runner.Run(context.Background(), j)
		}(job)
	}
	wg.Wait()

	slow, _ := repo.GetByID(context.Background(), "job-slow")
	if slow.State != domain.StateFailed {
		t.Errorf("slow job: expected FAILED, got %s", slow.State)
	}
	for i := 0; i < fastJobs; i++ {
		id := fmt.Sprintf("job-fast-%d", i)
		got, err := repo.GetByID(context.Background(), id)
		if err != nil {
			t.Fatalf("%s: %v", id, err)
		}
		if got.State != domain.StateDone {
			t.Errorf("%s: expected DONE, got %s (reason %q)", id, got.State, got.FailureReason)
		}
		if got.ResultPath == "" {
			t.Errorf("%s: missing result path", id)
		}
	}
}

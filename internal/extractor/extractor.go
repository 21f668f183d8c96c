package extractor

import (
	"context"
	"fmt"
)

// MediaInfo is the metadata returned by a probe, the only facts about the
// source the pipeline ever inspects.
type MediaInfo struct {
	Title           string
	DurationSeconds int64
	IsLive          bool
}

// Extractor defines the boundary to the external media engine. The core
// never depends on anything behind these two methods, so the engine is
// swappable.
type Extractor interface {
	// Probe fetches metadata for url without downloading anything.
	Probe(ctx context.Context, url string) (*MediaInfo, error)

	// Materialize downloads and transcodes url into exactly one audio file
	// at outputPath, or writes nothing on failure.
	Materialize(ctx context.Context, url, outputPath string) error
}

// ExtractionError wraps a failure reported by the extraction engine,
// keeping the engine's own diagnostic text for the job's failure reason.
type ExtractionError struct {
	Op     string // "probe" or "materialize"
	Detail string
	Err    error
}

func (e *ExtractionError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("extraction %s failed: %s", e.Op, e.Detail)
	}
	return fmt.Sprintf("extraction %s failed: %v", e.Op, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

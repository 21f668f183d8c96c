package mock

import (
	"context"

	"audiopress/internal/extractor"
)

var _ extractor.Extractor = (*Extractor)(nil)

// Extractor is a test double with injectable behavior. The zero value
// reports a short, non-live source and materializes nothing.
type Extractor struct {
	ProbeFunc       func(ctx context.Context, url string) (*extractor.MediaInfo, error)
	MaterializeFunc func(ctx context.Context, url, outputPath string) error
}

func (m *Extractor) Probe(ctx context.Context, url string) (*extractor.MediaInfo, error) {
	if m.ProbeFunc != nil {
		return m.ProbeFunc(ctx, url)
	}
	return &extractor.MediaInfo{Title: "test media", DurationSeconds: 60}, nil
}

func (m *Extractor) Materialize(ctx context.Context, url, outputPath string) error {
	if m.MaterializeFunc != nil {
		return m.MaterializeFunc(ctx, url, outputPath)
	}
	return nil
}

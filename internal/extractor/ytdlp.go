package extractor

import (
	"bytes"
	"context"
	"encoding/json"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	// maxStderrBytes caps captured tool output so a chatty download cannot
	// exhaust memory.
	maxStderrBytes = 16 * 1024

	audioFormat  = "mp3"
	audioQuality = "192K"
	maxFilesize  = "1G"
)

// YtdlpExtractor shells out to yt-dlp for probing and downloading.
type YtdlpExtractor struct {
	binPath         string
	probeTimeout    time.Duration
	downloadTimeout time.Duration
	logger          *zap.Logger
}

var _ Extractor = (*YtdlpExtractor)(nil)

// NewYtdlpExtractor creates an extractor backed by the yt-dlp binary at
// binPath. Both operations are bounded by their own wall-clock timeout.
func NewYtdlpExtractor(binPath string, probeTimeout, downloadTimeout time.Duration, logger *zap.Logger) *YtdlpExtractor {
	return &YtdlpExtractor{
		binPath:         binPath,
		probeTimeout:    probeTimeout,
		downloadTimeout: downloadTimeout,
		logger:          logger,
	}
}

// probeOutput is the subset of yt-dlp's -J output the pipeline cares about.
type probeOutput struct {
	Title    string  `json:"title"`
	Duration float64 `json:"duration"`
	IsLive   bool    `json:"is_live"`
}

func (e *YtdlpExtractor) Probe(ctx context.Context, url string) (*MediaInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, e.probeTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, e.binPath,
		"-J", "--no-download", "--no-playlist", url)

	var stdout bytes.Buffer
	var stderr limitedBuffer
	stderr.limit = maxStderrBytes
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	if err := cmd.Run(); err != nil {
		return nil, &ExtractionError{Op: "probe", Detail: stderrDetail(&stderr), Err: err}
	}
	e.logger.Debug("probe completed",
		zap.String("url", url),
		zap.Duration("elapsed", time.Since(start)),
	)

	info, err := ParseProbeOutput(stdout.Bytes())
	if err != nil {
		return nil, &ExtractionError{Op: "probe", Detail: "unparseable metadata output", Err: err}
	}
	return info, nil
}

// ParseProbeOutput decodes yt-dlp's JSON metadata dump.
func ParseProbeOutput(data []byte) (*MediaInfo, error) {
	var out probeOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return &MediaInfo{
		Title:           out.Title,
		DurationSeconds: int64(out.Duration),
		IsLive:          out.IsLive,
	}, nil
}

func (e *YtdlpExtractor) Materialize(ctx context.Context, url, outputPath string) error {
	ctx, cancel := context.WithTimeout(ctx, e.downloadTimeout)
	defer cancel()

	// yt-dlp decides the intermediate extension itself; give it a template
	// that collapses onto outputPath once the audio postprocessor runs.
	tmpl := strings.TrimSuffix(outputPath, "."+audioFormat) + ".%(ext)s"

	cmd := exec.CommandContext(ctx, e.binPath,
		"-x",
		"--audio-format", audioFormat,
		"--audio-quality", audioQuality,
		"--max-filesize", maxFilesize,
		"--no-playlist",
		"-o", tmpl,
		url)

	var stderr limitedBuffer
	stderr.limit = maxStderrBytes
	cmd.Stderr = &stderr

	start := time.Now()
	if err := cmd.Run(); err != nil {
		return &ExtractionError{Op: "materialize", Detail: stderrDetail(&stderr), Err: err}
	}
	e.logger.Debug("materialize completed",
		zap.String("url", url),
		zap.String("output", outputPath),
		zap.Duration("elapsed", time.Since(start)),
	)
	return nil
}

// stderrDetail returns the last stderr line, which is where yt-dlp puts
// its actual error message.
func stderrDetail(buf *limitedBuffer) string {
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if l := strings.TrimSpace(lines[i]); l != "" {
			return l
		}
	}
	return ""
}

// limitedBuffer is an io.Writer that silently discards everything past its
// byte limit.
type limitedBuffer struct {
	buf   bytes.Buffer
	limit int
}

func (b *limitedBuffer) Write(p []byte) (int, error) {
	remaining := b.limit - b.buf.Len()
	if remaining <= 0 {
		return len(p), nil
	}
	if len(p) > remaining {
		b.buf.Write(p[:remaining])
		return len(p), nil
	}
	return b.buf.Write(p)
}

func (b *limitedBuffer) String() string { return b.buf.String() }

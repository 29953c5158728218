package frames

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"reelharvest/internal/fileutil"
	"reelharvest/internal/logging"
	"reelharvest/internal/services"
)

// StagingPrefix names the per-call staging directories. Stale ones are
// removed by the staging cleanup that runs before each batch.
const StagingPrefix = "frames-"

// Sampler extracts evenly spaced frames from videos.
type Sampler struct {
	prober     Prober
	grabber    Grabber
	stagingDir string
	logger     *slog.Logger
}

// NewSampler builds a sampler. An empty stagingDir uses the system temp dir.
func NewSampler(prober Prober, grabber Grabber, stagingDir string, logger *slog.Logger) *Sampler {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Sampler{prober: prober, grabber: grabber, stagingDir: stagingDir, logger: logger}
}

// FrameName returns the file name used for the frame at second.
func FrameName(second int) string {
	return fmt.Sprintf("frame_%d.jpg", second)
}

// Offsets returns the sample positions for a video of duration whole seconds.
func Offsets(duration, interval int) []int {
	if interval <= 0 || duration <= 0 {
		return nil
	}
	offsets := make([]int, 0, (duration+interval-1)/interval)
	for second := 0; second < duration; second += interval {
		offsets = append(offsets, second)
	}
	return offsets
}

// Sample writes frames of video into dest every interval seconds and returns
// their paths in ascending time order. A grab failure stops sampling without
// an error; the frames committed so far are returned.
func (s *Sampler) Sample(ctx context.Context, video, dest string, interval int) ([]string, error) {
	if interval <= 0 {
		return nil, services.Wrap(services.ErrValidation, "frames", "sample", fmt.Sprintf("interval must be positive, got %d", interval), nil)
	}
	meta, err := s.prober.Probe(ctx, video)
	if err != nil {
		return nil, err
	}
	duration := meta.DurationSeconds()
	if duration <= 0 {
		return nil, services.Wrap(services.ErrValidation, "frames", "sample",
			fmt.Sprintf("unusable metadata frames=%d fps=%d", meta.FrameCount, meta.FPS), nil)
	}

	if err := os.MkdirAll(dest, 0o755); err != nil {
		return nil, fmt.Errorf("frames: ensure destination: %w", err)
	}
	if s.stagingDir != "" {
		if err := os.MkdirAll(s.stagingDir, 0o755); err != nil {
			return nil, fmt.Errorf("frames: ensure staging dir: %w", err)
		}
	}
	staging, err := os.MkdirTemp(s.stagingDir, StagingPrefix+"*")
	if err != nil {
		return nil, fmt.Errorf("frames: create staging: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(staging); err != nil {
			s.logger.Warn("failed to remove frame staging directory",
				logging.String("path", staging),
				logging.Error(err),
				logging.String(logging.FieldEventType, "frame_staging_cleanup_failed"),
				logging.String(logging.FieldErrorHint, "check staging_dir permissions"),
				logging.String(logging.FieldImpact, "disk space not reclaimed"),
			)
		}
	}()

	var paths []string
	for _, second := range Offsets(duration, interval) {
		if err := ctx.Err(); err != nil {
			return paths, err
		}
		name := FrameName(second)
		staged := filepath.Join(staging, name)
		if err := s.grabber.Grab(ctx, video, second, staged); err != nil {
			if ctx.Err() != nil {
				return paths, ctx.Err()
			}
			logging.WarnWithContext(s.logger, "frame read failed; stopping sampling", "frame_read_failed",
				logging.String("video", video),
				logging.Int("second", second),
				logging.Int("frames_kept", len(paths)),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "the video stream may be truncated or damaged"),
				logging.String(logging.FieldImpact, "later frames skipped"),
			)
			break
		}
		final := filepath.Join(dest, name)
		if err := fileutil.CommitFile(staged, final); err != nil {
			return paths, fmt.Errorf("frames: %w", err)
		}
		paths = append(paths, final)
	}
	s.logger.Debug("frames sampled",
		logging.String("video", video),
		logging.Int("duration_seconds", duration),
		logging.Int("frames", len(paths)),
	)
	return paths, nil
}

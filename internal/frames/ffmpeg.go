package frames

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"reelharvest/internal/media/ffprobe"
	"reelharvest/internal/services"
)

// Metadata is the integer-truncated video metadata sampling relies on.
type Metadata struct {
	FrameCount int64
	FPS        int
}

// DurationSeconds returns FrameCount / FPS using integer division.
func (m Metadata) DurationSeconds() int {
	if m.FPS <= 0 || m.FrameCount <= 0 {
		return 0
	}
	return int(m.FrameCount / int64(m.FPS))
}

// Prober reads video metadata.
type Prober interface {
	Probe(ctx context.Context, video string) (Metadata, error)
}

// Grabber decodes the frame at second into dest.
type Grabber interface {
	Grab(ctx context.Context, video string, second int, dest string) error
}

// FFprobe implements Prober with the ffprobe binary.
type FFprobe struct {
	Binary string
}

// Probe inspects the first video stream of video.
func (p FFprobe) Probe(ctx context.Context, video string) (Metadata, error) {
	result, err := ffprobe.Inspect(ctx, p.Binary, video)
	if err != nil {
		return Metadata{}, services.Wrap(services.ErrExternalTool, "frames", "ffprobe", video, err)
	}
	stream, ok := result.VideoStream()
	if !ok {
		return Metadata{}, services.Wrap(services.ErrValidation, "frames", "ffprobe", "no video stream", nil)
	}
	return Metadata{
		FrameCount: stream.FrameCount(result.DurationSeconds()),
		FPS:        int(stream.FrameRate()),
	}, nil
}

// FFmpeg implements Grabber with the ffmpeg binary.
type FFmpeg struct {
	Binary string
}

// Grab seeks to second and writes one JPEG frame to dest. Seeking past the
// last decodable frame makes ffmpeg exit cleanly without output, which is
// reported as an error.
func (g FFmpeg) Grab(ctx context.Context, video string, second int, dest string) error {
	binary := strings.TrimSpace(g.Binary)
	if binary == "" {
		binary = "ffmpeg"
	}
	args := []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-ss", strconv.Itoa(second),
		"-i", video,
		"-frames:v", "1",
		"-q:v", "2",
		dest,
	}
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("ffmpeg grab at %ds: %w: %s", second, err, strings.TrimSpace(string(output)))
	}
	info, err := os.Stat(dest)
	if err != nil {
		return fmt.Errorf("ffmpeg grab at %ds: no frame written: %w", second, err)
	}
	if info.Size() == 0 {
		return fmt.Errorf("ffmpeg grab at %ds: empty frame", second)
	}
	return nil
}

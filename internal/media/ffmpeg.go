package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"math"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"pixel-basket/internal/logging"
	"pixel-basket/internal/metrics"
)

// DefaultToolTimeout bounds one ffmpeg or ffprobe run.
const DefaultToolTimeout = 2 * time.Minute

// ErrToolMissing is returned when ffmpeg or ffprobe is not on PATH.
var ErrToolMissing = errors.New("external tool not found")

// FFmpeg runs ffmpeg and ffprobe with a per-run timeout.
type FFmpeg struct {
	FFmpegPath  string
	FFprobePath string
	Timeout     time.Duration
}

// NewFFmpeg uses the binaries found on PATH.
func NewFFmpeg(timeout time.Duration) *FFmpeg {
	if timeout <= 0 {
		timeout = DefaultToolTimeout
	}
	return &FFmpeg{FFmpegPath: "ffmpeg", FFprobePath: "ffprobe", Timeout: timeout}
}

// Available reports whether both binaries resolve.
func (f *FFmpeg) Available() bool {
	_, errMpeg := exec.LookPath(f.FFmpegPath)
	_, errProbe := exec.LookPath(f.FFprobePath)
	return errMpeg == nil && errProbe == nil
}

func (f *FFmpeg) run(ctx context.Context, tool, bin string, args ...string) ([]byte, error) {
	if _, err := exec.LookPath(bin); err != nil {
		metrics.ExternalToolRuns.WithLabelValues(tool, "missing").Inc()
		return nil, fmt.Errorf("%s: %w", tool, ErrToolMissing)
	}

	ctx, cancel := context.WithTimeout(ctx, f.Timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			metrics.ExternalToolRuns.WithLabelValues(tool, "timeout").Inc()
			return nil, fmt.Errorf("%s timed out after %s", tool, f.Timeout)
		}
		metrics.ExternalToolRuns.WithLabelValues(tool, "error").Inc()
		return nil, fmt.Errorf("%s failed: %w, stderr: %s", tool, err, strings.TrimSpace(stderr.String()))
	}
	metrics.ExternalToolRuns.WithLabelValues(tool, "success").Inc()
	return stdout.Bytes(), nil
}

// ExtractFrame grabs one frame of a video as an image. It tries one second
// in and falls back to the first frame for very short clips.
func (f *FFmpeg) ExtractFrame(ctx context.Context, path string) (image.Image, error) {
	out, err := f.run(ctx, "ffmpeg", f.FFmpegPath,
		"-ss", "00:00:01", "-i", path, "-vframes", "1", "-f", "image2pipe", "-vcodec", "png", "-")
	if err != nil || len(out) == 0 {
		logging.Debug("FFmpeg seek attempt failed for %s: %v", path, err)
		out, err = f.run(ctx, "ffmpeg", f.FFmpegPath,
			"-i", path, "-vframes", "1", "-f", "image2pipe", "-vcodec", "png", "-")
		if err != nil {
			return nil, err
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("ffmpeg produced no output for %s", path)
	}

	img, _, err := image.Decode(bytes.NewReader(out))
	if err != nil {
		return nil, fmt.Errorf("failed to decode ffmpeg output: %w", err)
	}
	return img, nil
}

// DecodeImage converts a still image in a format Go cannot read.
func (f *FFmpeg) DecodeImage(path string) (image.Image, error) {
	out, err := f.run(context.Background(), "ffmpeg", f.FFmpegPath,
		"-i", path, "-vframes", "1", "-f", "image2pipe", "-vcodec", "png", "-pix_fmt", "rgb24", "-")
	if err != nil {
		return nil, err
	}
	img, _, err := image.Decode(bytes.NewReader(out))
	if err != nil {
		return nil, fmt.Errorf("failed to decode ffmpeg output for %s: %w", path, err)
	}
	return img, nil
}

// ProbeDuration returns the container duration in milliseconds.
func (f *FFmpeg) ProbeDuration(ctx context.Context, path string) (int64, error) {
	out, err := f.run(ctx, "ffprobe", f.FFprobePath,
		"-v", "error", "-show_entries", "format=duration", "-of", "default=noprint_wrappers=1:nokey=1", path)
	if err != nil {
		return 0, err
	}
	return ParseDurationMillis(string(out))
}

// ParseDurationMillis converts ffprobe's seconds output into milliseconds.
func ParseDurationMillis(out string) (int64, error) {
	s := strings.TrimSpace(out)
	secs, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("unparsable duration %q: %w", s, err)
	}
	if secs < 0 || math.IsNaN(secs) || math.IsInf(secs, 0) {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	return int64(math.Round(secs * 1000)), nil
}

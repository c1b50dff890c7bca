package thumbnail

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/mvelasco/clipvault/pkg/config"
)

// Extractor captures a single still frame from a video file by shelling out
// to ffmpeg and returns it as a self-contained data URL.
type Extractor struct {
	ffmpegPath  string
	seekSeconds float64
	timeout     time.Duration
	jpegQuality int
}

func NewExtractor(cfg config.ThumbnailConfig) *Extractor {
	path := strings.TrimSpace(cfg.FFmpegPath)
	if path == "" {
		path = "ffmpeg"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	quality := cfg.JPEGQuality
	if quality < 2 || quality > 31 {
		quality = 4
	}
	return &Extractor{
		ffmpegPath:  path,
		seekSeconds: cfg.SeekSeconds,
		timeout:     timeout,
		jpegQuality: quality,
	}
}

// Extract seeks to the configured offset, decodes one frame and returns it
// JPEG-encoded as a data URL. Videos shorter than the offset fall back to the
// first decodable frame. The whole invocation is bounded by the configured
// timeout so a pathological file cannot stall the upload pipeline.
func (e *Extractor) Extract(ctx context.Context, videoPath string) (string, error) {
	frame, err := e.captureFrame(ctx, videoPath, e.seekSeconds)
	if err == nil && len(frame) > 0 {
		return DataURL(frame), nil
	}

	// Seeking past the end of a short clip yields no frames; retry from zero.
	if e.seekSeconds > 0 {
		frame, retryErr := e.captureFrame(ctx, videoPath, 0)
		if retryErr == nil && len(frame) > 0 {
			return DataURL(frame), nil
		}
	}

	if err == nil {
		err = fmt.Errorf("ffmpeg produced no frame")
	}
	return "", fmt.Errorf("extracting thumbnail from %s: %w", videoPath, err)
}

func (e *Extractor) captureFrame(ctx context.Context, videoPath string, seek float64) ([]byte, error) {
	runCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, e.ffmpegPath, e.buildArgs(videoPath, seek)...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if runCtx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("ffmpeg timed out after %s", e.timeout)
		}
		return nil, fmt.Errorf("ffmpeg: %w: %s", err, stderrTail(stderr.String()))
	}
	return stdout.Bytes(), nil
}

func (e *Extractor) buildArgs(videoPath string, seek float64) []string {
	args := []string{"-hide_banner", "-loglevel", "error"}
	if seek > 0 {
		args = append(args, "-ss", strconv.FormatFloat(seek, 'f', -1, 64))
	}
	return append(args,
		"-i", videoPath,
		"-frames:v", "1",
		"-f", "image2pipe",
		"-vcodec", "mjpeg",
		"-q:v", strconv.Itoa(e.jpegQuality),
		"-",
	)
}

// DataURL wraps JPEG bytes into an inline, embeddable representation.
func DataURL(jpeg []byte) string {
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(jpeg)
}

func stderrTail(output string) string {
	lines := strings.Split(strings.TrimSpace(output), "\n")
	if len(lines) == 0 {
		return ""
	}
	const keep = 3
	if len(lines) > keep {
		lines = lines[len(lines)-keep:]
	}
	return strings.Join(lines, " | ")
}

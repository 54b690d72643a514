// Package media provides audio metadata inspection.
package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// ErrFFprobeExecution is returned when the ffprobe command fails.
var ErrFFprobeExecution = errors.New("media: ffprobe execution failed")

// Prober reports the total duration of an audio file. The pipeline uses it
// to bound the final subtitle cue independently of the mark timepoints.
type Prober interface {
	Duration(ctx context.Context, path string) (time.Duration, error)
}

// FFprobeProber implements Prober using the ffprobe CLI.
type FFprobeProber struct {
	// ffprobePath is the path to the ffprobe binary. Defaults to "ffprobe".
	ffprobePath string
}

// Compile-time interface implementation check.
var _ Prober = (*FFprobeProber)(nil)

// NewFFprobeProber creates a new FFprobeProber.
// If ffprobePath is empty, it defaults to "ffprobe" (found via PATH).
func NewFFprobeProber(ffprobePath string) *FFprobeProber {
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &FFprobeProber{ffprobePath: ffprobePath}
}

// Duration returns the container-reported duration of the media file.
func (p *FFprobeProber) Duration(ctx context.Context, path string) (time.Duration, error) {
	// #nosec G204 - ffprobePath is set by the application, not user input
	cmd := exec.CommandContext(ctx, p.ffprobePath,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return 0, fmt.Errorf("media: ffprobe cancelled: %w", ctx.Err())
		}
		return 0, fmt.Errorf("%w: %w, stderr: %s", ErrFFprobeExecution, err, stderr.String())
	}

	return ParseDuration(stdout.String())
}

// ParseDuration converts ffprobe's fractional-seconds output into a Duration.
func ParseDuration(s string) (time.Duration, error) {
	seconds, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("media: parse duration %q: %w", strings.TrimSpace(s), err)
	}
	if seconds < 0 {
		return 0, fmt.Errorf("media: negative duration %f", seconds)
	}
	return time.Duration(seconds * float64(time.Second)), nil
}

// Package ffmpeg adapts the transcoding engine. Every operation runs a single
// ffmpeg invocation that resolves exactly once: output written, or an error
// carrying the engine's stderr.
package ffmpeg

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/avolkov/tunegrab/internal/ports"
	"github.com/avolkov/tunegrab/internal/types"
)

// progressInterval bounds how often fractional progress reaches the caller,
// so the delivery collaborator is never overwhelmed by edits.
const progressInterval = 3 * time.Second

type Adapter struct {
	ffmpeg  string
	ffprobe string
}

func New(ffmpegPath, ffprobePath string) *Adapter {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &Adapter{ffmpeg: ffmpegPath, ffprobe: ffprobePath}
}

// Trim cuts [start, end) out of input. The range is validated before the
// engine is ever invoked.
func (a *Adapter) Trim(ctx context.Context, input, output string, start, end time.Duration, progress ports.ProgressFunc) error {
	if end-start <= 0 {
		return fmt.Errorf("%w: start %s, end %s", types.ErrInvalidRange, fmtSeconds(start), fmtSeconds(end))
	}
	args := []string{
		"-y",
		"-ss", fmtSeconds(start),
		"-to", fmtSeconds(end),
		"-i", input,
		"-vn",
	}
	return a.run(ctx, end-start, progress, args, output)
}

// Compress re-encodes input to the fixed bitrate/channel/sample-rate target.
func (a *Adapter) Compress(ctx context.Context, input, output string, spec types.CompressSpec, progress ports.ProgressFunc) error {
	total, err := a.ProbeDuration(ctx, input)
	if err != nil {
		total = 0 // progress degrades, the transcode itself still runs
	}
	args := []string{
		"-y",
		"-i", input,
		"-vn",
	}
	if spec.BitrateKbps > 0 {
		args = append(args, "-b:a", fmt.Sprintf("%dk", spec.BitrateKbps))
	}
	if spec.Channels > 0 {
		args = append(args, "-ac", strconv.Itoa(spec.Channels))
	}
	if spec.SampleRate > 0 {
		args = append(args, "-ar", strconv.Itoa(spec.SampleRate))
	}
	return a.run(ctx, total, progress, args, output)
}

// Merge concatenates the ordered inputs into a single audio output.
func (a *Adapter) Merge(ctx context.Context, inputs []string, output string, progress ports.ProgressFunc) error {
	if len(inputs) < 2 {
		return fmt.Errorf("%w: %d inputs", types.ErrInsufficientInputs, len(inputs))
	}

	var total time.Duration
	for _, in := range inputs {
		d, err := a.ProbeDuration(ctx, in)
		if err != nil {
			total = 0
			break
		}
		total += d
	}

	args := []string{"-y"}
	var filter strings.Builder
	for i, in := range inputs {
		args = append(args, "-i", in)
		fmt.Fprintf(&filter, "[%d:a]", i)
	}
	fmt.Fprintf(&filter, "concat=n=%d:v=0:a=1[out]", len(inputs))
	args = append(args,
		"-filter_complex", filter.String(),
		"-map", "[out]",
	)
	return a.run(ctx, total, progress, args, output)
}

func (a *Adapter) ProbeDuration(ctx context.Context, path string) (time.Duration, error) {
	cmd := exec.CommandContext(ctx, a.ffprobe,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return 0, fmt.Errorf("%w: ffprobe: %v: %s", types.ErrUpstreamFailure, err, strings.TrimSpace(string(b)))
	}
	s := strings.TrimSpace(string(b))
	sec, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", s, err)
	}
	return time.Duration(sec * float64(time.Second)), nil
}

// run executes one engine invocation, streaming machine-readable progress
// from stdout and throttling callbacks to progressInterval.
func (a *Adapter) run(ctx context.Context, total time.Duration, progress ports.ProgressFunc, args []string, output string) error {
	args = append(args[:len(args):len(args)],
		"-progress", "pipe:1",
		"-nostats",
		"-loglevel", "error",
		output,
	)

	cmd := exec.CommandContext(ctx, a.ffmpeg, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("pipe ffmpeg stdout: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start ffmpeg: %w", err)
	}

	throttle := newThrottle(total, progressInterval)
	scanProgress(stdout, func(elapsed time.Duration) {
		if progress == nil {
			return
		}
		if f, ok := throttle.tick(elapsed, time.Now()); ok {
			progress(f)
		}
	})

	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("%w: ffmpeg: %v: %s", types.ErrUpstreamFailure, err, strings.TrimSpace(stderr.String()))
	}
	if progress != nil {
		progress(1)
	}
	return nil
}

func fmtSeconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', 3, 64)
}

// Package ytdlp adapts the yt-dlp extraction engine: best-quality audio at a
// fixed bitrate, bounded run time, sanitized artifact names.
package ytdlp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/avolkov/tunegrab/internal/types"
)

// DownloadDeadline bounds one extraction run. On expiry the invocation is
// abandoned: the process is signalled through its context, but yt-dlp cannot
// always be forcibly killed, so a late-appearing artifact is simply ignored
// (the pre-run stale sweep removes it before the next request).
const DownloadDeadline = 10 * time.Minute

const targetBitrate = "192K"

type Adapter struct {
	bin     string
	ffmpeg  string
	workDir string
	timeout time.Duration
	logger  *slog.Logger
}

func New(binPath, ffmpegPath, workDir string, logger *slog.Logger) *Adapter {
	if binPath == "" {
		binPath = "yt-dlp"
	}
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{
		bin:     binPath,
		ffmpeg:  ffmpegPath,
		workDir: workDir,
		timeout: DownloadDeadline,
		logger:  logger,
	}
}

type probeJSON struct {
	WebpageURL string      `json:"webpage_url"`
	Title      string      `json:"title"`
	Uploader   string      `json:"uploader"`
	Duration   float64     `json:"duration"`
	Entries    []probeJSON `json:"entries"`
}

func (p probeJSON) toInfo() types.MediaInfo {
	return types.MediaInfo{
		URL:      p.WebpageURL,
		Title:    p.Title,
		Uploader: p.Uploader,
		Duration: int(p.Duration),
	}
}

// Probe returns source metadata without downloading any media.
func (a *Adapter) Probe(ctx context.Context, url string) (types.MediaInfo, error) {
	cmd := exec.CommandContext(ctx, a.bin,
		"--dump-single-json",
		"--no-playlist",
		"--skip-download",
		url,
	)
	out, err := cmd.Output()
	if err != nil {
		return types.MediaInfo{}, fmt.Errorf("%w: probe: %s", types.ErrUpstreamFailure, engineError(err))
	}
	var p probeJSON
	if err := json.Unmarshal(out, &p); err != nil {
		return types.MediaInfo{}, fmt.Errorf("parse probe output: %w", err)
	}
	// A search probe wraps its single result in an entries list.
	if len(p.Entries) > 0 {
		p = p.Entries[0]
	}
	return p.toInfo(), nil
}

// Search resolves a free-text query to the best-matching source.
func (a *Adapter) Search(ctx context.Context, query string) (types.MediaInfo, error) {
	info, err := a.Probe(ctx, "ytsearch1:"+query)
	if err != nil {
		return types.MediaInfo{}, err
	}
	if info.URL == "" {
		return types.MediaInfo{}, fmt.Errorf("%w: no search results for %q", types.ErrUpstreamFailure, query)
	}
	return info, nil
}

// Download runs one extraction. Stale artifacts from a prior failed run are
// swept before the engine starts so they cannot contaminate this request.
func (a *Adapter) Download(ctx context.Context, req types.AcquisitionRequest) (types.AcquisitionResult, error) {
	if err := a.sweepStale(); err != nil {
		return types.AcquisitionResult{}, err
	}

	tmpl := req.OutputTmpl
	if tmpl == "" {
		tmpl = "%(title)s.%(ext)s"
	}
	args := []string{
		"--extract-audio",
		"--audio-format", "mp3",
		"--audio-quality", targetBitrate,
		"--format", "bestaudio/best",
		"--no-playlist",
		"--ffmpeg-location", a.ffmpeg,
		"--output", filepath.Join(a.workDir, tmpl),
	}

	if req.CookiePath != "" {
		staged, err := a.stageCookies(req.CookiePath)
		if err != nil {
			return types.AcquisitionResult{}, err
		}
		defer func() {
			if err := os.Remove(staged); err != nil {
				a.logger.Warn("failed to remove staged cookies", "path", staged, "error", err)
			}
		}()
		args = append(args, "--cookies", staged)
	}
	args = append(args, req.URL)

	runCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, a.bin, args...)
	done := make(chan error, 1)
	go func() { // buffered: a late result is discarded, never leaked
		out, err := cmd.CombinedOutput()
		if err != nil {
			err = fmt.Errorf("%v: %s", err, tail(out))
		}
		done <- err
	}()

	select {
	case err := <-done:
		if err != nil {
			return types.AcquisitionResult{}, fmt.Errorf("%w: %v", types.ErrUpstreamFailure, err)
		}
	case <-runCtx.Done():
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			return types.AcquisitionResult{}, fmt.Errorf("%w: engine still running after %s", types.ErrAcquisitionTimeout, a.timeout)
		}
		return types.AcquisitionResult{}, runCtx.Err()
	}

	return a.collectArtifacts()
}

// sweepStale removes leftover artifacts sharing the output extension so a
// prior failed run cannot bleed into this one. Must run before the engine.
func (a *Adapter) sweepStale() error {
	stale, err := filepath.Glob(filepath.Join(a.workDir, "*.mp3"))
	if err != nil {
		return fmt.Errorf("scan working dir: %w", err)
	}
	for _, f := range stale {
		a.logger.Debug("removing stale artifact", "path", f)
		if err := os.Remove(f); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove stale artifact %s: %w", f, err)
		}
	}
	return nil
}

// stageCookies copies the credential handle to an ephemeral process-local
// file used for a single invocation.
func (a *Adapter) stageCookies(src string) (string, error) {
	in, err := os.Open(src)
	if err != nil {
		return "", fmt.Errorf("open cookies: %w", err)
	}
	defer in.Close()

	out, err := os.CreateTemp("", "cookies-*.txt")
	if err != nil {
		return "", fmt.Errorf("stage cookies: %w", err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(out.Name())
		return "", fmt.Errorf("stage cookies: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(out.Name())
		return "", fmt.Errorf("stage cookies: %w", err)
	}
	return out.Name(), nil
}

// collectArtifacts scans the working directory for produced files and
// sanitizes their names, renaming in place when the name changes.
func (a *Adapter) collectArtifacts() (types.AcquisitionResult, error) {
	files, err := filepath.Glob(filepath.Join(a.workDir, "*.mp3"))
	if err != nil {
		return types.AcquisitionResult{}, fmt.Errorf("scan working dir: %w", err)
	}
	if len(files) == 0 {
		return types.AcquisitionResult{}, types.ErrNoArtifactProduced
	}

	res := types.AcquisitionResult{Artifacts: make([]types.Artifact, 0, len(files))}
	for _, f := range files {
		name := filepath.Base(f)
		safe := SanitizeName(name)
		if safe != name {
			dst := filepath.Join(a.workDir, safe)
			if err := os.Rename(f, dst); err != nil {
				return types.AcquisitionResult{}, fmt.Errorf("rename artifact: %w", err)
			}
			f = dst
		}
		res.Artifacts = append(res.Artifacts, types.Artifact{Path: f, Name: safe})
	}
	return res, nil
}

// SanitizeName strips characters illegal in filesystem paths.
func SanitizeName(name string) string {
	return strings.Map(func(r rune) rune {
		if strings.ContainsRune(`<>:"/\|?*`, r) {
			return -1
		}
		return r
	}, name)
}

func engineError(err error) string {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && len(exitErr.Stderr) > 0 {
		return fmt.Sprintf("%v: %s", err, tail(exitErr.Stderr))
	}
	return err.Error()
}

// tail keeps error output readable: the last few hundred bytes carry the
// actual failure reason.
func tail(b []byte) string {
	const limit = 400
	s := strings.TrimSpace(string(b))
	if len(s) > limit {
		s = "..." + s[len(s)-limit:]
	}
	return s
}

// Package usecase orchestrates the per-request pipelines: acquire, transform,
// guard, deliver, clean up. Every request path registers its temp files with
// a tracker and defers its release, so no exit path leaks artifacts.
package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/avolkov/tunegrab/internal/domain/timecode"
	"github.com/avolkov/tunegrab/internal/guard"
	"github.com/avolkov/tunegrab/internal/mergequeue"
	"github.com/avolkov/tunegrab/internal/ports"
	"github.com/avolkov/tunegrab/internal/session"
	"github.com/avolkov/tunegrab/internal/tempfiles"
	"github.com/avolkov/tunegrab/internal/types"
)

// defaultCompress is the fixed target used when an artifact needs shrinking
// or a video container needs its audio extracted.
var defaultCompress = types.CompressSpec{BitrateKbps: 192, Channels: 2, SampleRate: 44100}

type Deps struct {
	Extractor   ports.Extractor
	Transcoder  ports.Transcoder
	Messenger   ports.Messenger
	Transcriber ports.Transcriber
	ShortVideo  ports.ShortVideoAPI
	Fetcher     ports.Fetcher
	Queue       *mergequeue.Queue

	WorkDir     string
	CookiesPath string
	Logger      *slog.Logger
}

type Usecase struct {
	d Deps
}

func New(d Deps) *Usecase {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	return &Usecase{d: d}
}

// FetchAudio acquires a remote source as mp3 and delivers it. The duration
// ceiling is enforced on probe metadata before any download work is spent.
func (u *Usecase) FetchAudio(ctx context.Context, chatID int64, url string) error {
	info, err := u.d.Extractor.Probe(ctx, url)
	if err != nil {
		return err
	}
	return u.fetchInfo(ctx, chatID, info)
}

// SearchAndFetch resolves a free-text query, announces the match and then
// runs the acquisition pipeline on it.
func (u *Usecase) SearchAndFetch(ctx context.Context, chatID int64, query string) error {
	info, err := u.d.Extractor.Search(ctx, query)
	if err != nil {
		return err
	}
	summary := fmt.Sprintf("%s (%s)", info.Title, timecode.Format(info.Duration))
	if info.Uploader != "" {
		summary += " by " + info.Uploader
	}
	if _, err := u.d.Messenger.SendText(ctx, chatID, summary); err != nil {
		return err
	}
	return u.fetchInfo(ctx, chatID, info)
}

func (u *Usecase) fetchInfo(ctx context.Context, chatID int64, info types.MediaInfo) error {
	if err := guard.CheckDuration(info.Duration); err != nil {
		return err
	}

	statusID, err := u.d.Messenger.SendText(ctx, chatID, "Downloading and converting...")
	if err != nil {
		return err
	}

	tr := tempfiles.New(u.d.WorkDir, u.d.Logger)
	defer tr.Release()

	res, err := u.d.Extractor.Download(ctx, types.AcquisitionRequest{
		URL:        info.URL,
		CookiePath: u.d.CookiesPath,
	})
	if err != nil {
		return err
	}

	for _, art := range res.Artifacts {
		tr.Track(art.Path)
		deliverable, err := u.fitToCeiling(ctx, tr, chatID, statusID, art.Path)
		if err != nil {
			return err
		}
		if err := u.d.Messenger.SendAudio(ctx, chatID, deliverable, art.Name); err != nil {
			return err
		}
	}
	return u.d.Messenger.DeleteMessage(ctx, chatID, statusID)
}

// fitToCeiling returns a deliverable path for the artifact: as-is when it
// already fits, otherwise a compressed copy. When even the compressed copy
// exceeds the ceiling both files stay tracked, so the deferred release
// deletes original and compressed alike before the error returns.
func (u *Usecase) fitToCeiling(ctx context.Context, tr *tempfiles.Tracker, chatID int64, statusID int, path string) (string, error) {
	err := guard.CheckSize(path)
	if err == nil {
		return path, nil
	}
	if !errors.Is(err, types.ErrRequestTooLarge) {
		return "", err
	}

	u.d.Logger.Info("artifact over ceiling, compressing", "path", path)
	compressed := tr.NewPath(".mp3")
	if err := u.d.Transcoder.Compress(ctx, path, compressed, defaultCompress, u.progressEditor(chatID, statusID, "Compressing")); err != nil {
		return "", err
	}
	if err := guard.CheckSize(compressed); err != nil {
		return "", err
	}
	return compressed, nil
}

// ConvertVideo fetches a platform video reference and delivers its audio
// track as mp3.
func (u *Usecase) ConvertVideo(ctx context.Context, chatID int64, fileRef string) error {
	statusID, err := u.d.Messenger.SendText(ctx, chatID, "Processing your video...")
	if err != nil {
		return err
	}

	tr := tempfiles.New(u.d.WorkDir, u.d.Logger)
	defer tr.Release()

	link, err := u.d.Messenger.FileLink(ctx, fileRef)
	if err != nil {
		return err
	}
	video := tr.NewPath(".mp4")
	if err := u.d.Fetcher.Fetch(ctx, link, video); err != nil {
		return err
	}

	audio := tr.NewPath(".mp3")
	if err := u.d.Transcoder.Compress(ctx, video, audio, defaultCompress, u.progressEditor(chatID, statusID, "Converting")); err != nil {
		return err
	}
	if err := guard.CheckSize(audio); err != nil {
		return err
	}
	if err := u.d.Messenger.SendAudio(ctx, chatID, audio, ""); err != nil {
		return err
	}
	return u.d.Messenger.EditText(ctx, chatID, statusID, "Conversion complete.")
}

// ExecuteCut runs a confirmed trim session: fetch source, trim, guard,
// deliver. Implements session.Executor.
func (u *Usecase) ExecuteCut(ctx context.Context, snap session.Snapshot) error {
	statusID, err := u.d.Messenger.SendText(ctx, snap.User, "Processing audio cut...")
	if err != nil {
		return err
	}

	tr := tempfiles.New(u.d.WorkDir, u.d.Logger)
	defer tr.Release()

	link, err := u.d.Messenger.FileLink(ctx, snap.SourceRef)
	if err != nil {
		return err
	}
	src := tr.NewPath(".mp3")
	if err := u.d.Fetcher.Fetch(ctx, link, src); err != nil {
		return err
	}

	out := tr.NewPath(".mp3")
	start := time.Duration(snap.Start) * time.Second
	end := time.Duration(snap.End) * time.Second
	if err := u.d.Transcoder.Trim(ctx, src, out, start, end, u.progressEditor(snap.User, statusID, "Cutting")); err != nil {
		return err
	}
	if err := guard.CheckSize(out); err != nil {
		return err
	}

	caption := fmt.Sprintf("Cut %s – %s", timecode.Format(snap.Start), timecode.Format(snap.End))
	if err := u.d.Messenger.SendAudio(ctx, snap.User, out, caption); err != nil {
		return err
	}
	return u.d.Messenger.EditText(ctx, snap.User, statusID, "Audio cut complete.")
}

// EnqueueAudio adds a reference to the user's merge queue and returns the
// running count.
func (u *Usecase) EnqueueAudio(user int64, ref string) int {
	return u.d.Queue.Add(user, ref)
}

// Merge concatenates every queued reference for the user into one artifact.
// The queue is cleared by Take before the attempt, so a failed merge never
// leaves a stuck queue behind.
func (u *Usecase) Merge(ctx context.Context, chatID, user int64) error {
	refs, err := u.d.Queue.Take(user)
	if err != nil {
		return err
	}

	statusID, err := u.d.Messenger.SendText(ctx, chatID, fmt.Sprintf("Merging %d audios...", len(refs)))
	if err != nil {
		return err
	}

	tr := tempfiles.New(u.d.WorkDir, u.d.Logger)
	defer tr.Release()

	// Fetch inputs concurrently, keeping submission order in the result.
	paths := make([]string, len(refs))
	g, gctx := errgroup.WithContext(ctx)
	for i, ref := range refs {
		i, ref := i, ref
		g.Go(func() error {
			link, err := u.d.Messenger.FileLink(gctx, ref)
			if err != nil {
				return err
			}
			p := tr.NewPath(".mp3")
			if err := u.d.Fetcher.Fetch(gctx, link, p); err != nil {
				return err
			}
			paths[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	out := tr.NewPath(".mp3")
	if err := u.d.Transcoder.Merge(ctx, paths, out, u.progressEditor(chatID, statusID, "Merging")); err != nil {
		return err
	}
	if err := guard.CheckSize(out); err != nil {
		return err
	}
	if err := u.d.Messenger.SendAudio(ctx, chatID, out, fmt.Sprintf("Merged %d tracks.", len(refs))); err != nil {
		return err
	}
	return u.d.Messenger.EditText(ctx, chatID, statusID, "Merge complete.")
}

// Transcribe fetches a voice or audio reference and returns its text via the
// speech-to-text collaborator.
func (u *Usecase) Transcribe(ctx context.Context, chatID int64, fileRef string) error {
	tr := tempfiles.New(u.d.WorkDir, u.d.Logger)
	defer tr.Release()

	link, err := u.d.Messenger.FileLink(ctx, fileRef)
	if err != nil {
		return err
	}
	audio := tr.NewPath(".mp3")
	if err := u.d.Fetcher.Fetch(ctx, link, audio); err != nil {
		return err
	}

	text, err := u.d.Transcriber.Transcribe(ctx, audio)
	if err != nil {
		return err
	}
	_, err = u.d.Messenger.SendText(ctx, chatID, "Transcription:\n"+text)
	return err
}

// FetchShortVideo resolves a short-form post and delivers its video or
// photos.
func (u *Usecase) FetchShortVideo(ctx context.Context, chatID int64, url string) error {
	post, err := u.d.ShortVideo.Lookup(ctx, url)
	if err != nil {
		return err
	}

	tr := tempfiles.New(u.d.WorkDir, u.d.Logger)
	defer tr.Release()

	if post.VideoURL != "" {
		video := tr.NewPath(".mp4")
		if err := u.d.Fetcher.Fetch(ctx, post.VideoURL, video); err != nil {
			return err
		}
		if err := guard.CheckSize(video); err != nil {
			return err
		}
		caption := fmt.Sprintf("Video by @%s", post.Author)
		if post.Caption != "" {
			caption += "\n" + post.Caption
		}
		return u.d.Messenger.SendVideo(ctx, chatID, video, caption)
	}

	for _, photoURL := range post.PhotoURLs {
		photo := tr.NewPath(".jpg")
		if err := u.d.Fetcher.Fetch(ctx, photoURL, photo); err != nil {
			return err
		}
		if err := u.d.Messenger.SendPhoto(ctx, chatID, photo, fmt.Sprintf("Photo by @%s", post.Author)); err != nil {
			return err
		}
	}
	return nil
}

// progressEditor turns throttled transcode progress into status edits. Edit
// failures are logged, never propagated: progress is best-effort.
func (u *Usecase) progressEditor(chatID int64, statusID int, verb string) ports.ProgressFunc {
	return func(fraction float64) {
		text := fmt.Sprintf("%s... %d%%", verb, int(fraction*100))
		if err := u.d.Messenger.EditText(context.Background(), chatID, statusID, text); err != nil {
			u.d.Logger.Debug("progress edit failed", "error", err)
		}
	}
}

// StatusMessage renders a pipeline failure as the user-facing status text
// shown at the request boundary.
func StatusMessage(err error) string {
	switch {
	case errors.Is(err, types.ErrAcquisitionTimeout):
		return "Download timed out. Try again later."
	case errors.Is(err, types.ErrNoArtifactProduced):
		return "Nothing was downloaded. Check the link and try again."
	case errors.Is(err, types.ErrRequestTooLarge):
		return "This one is too large to deliver: " + err.Error()
	case errors.Is(err, types.ErrInvalidRange):
		return "End time must be after start time."
	case errors.Is(err, types.ErrInsufficientInputs):
		return "Send at least two audio files before merging."
	case errors.Is(err, types.ErrSessionNotFound):
		return "No active cut session. Start a new one with /cut."
	case errors.Is(err, types.ErrRateLimitExhausted):
		return "The lookup service is rate limited right now. Try again later."
	default:
		return "Something went wrong: " + err.Error()
	}
}

package ports

import (
	"context"
	"time"

	"github.com/avolkov/tunegrab/internal/types"
)

// ProgressFunc receives fractional transcode progress in [0, 1]. Adapters
// call it at a bounded rate so downstream delivery is never overwhelmed.
type ProgressFunc func(fraction float64)

// Extractor acquires media from remote URLs through the extraction engine.
type Extractor interface {
	// Probe returns source metadata without downloading anything.
	Probe(ctx context.Context, url string) (types.MediaInfo, error)
	// Download runs one bounded-time extraction and returns the produced
	// artifacts, already sanitized. Zero artifacts is a failure.
	Download(ctx context.Context, req types.AcquisitionRequest) (types.AcquisitionResult, error)
	// Search resolves a free-text query to the best-matching source.
	Search(ctx context.Context, query string) (types.MediaInfo, error)
}

// Transcoder wraps single transcoding engine invocations. Each call resolves
// exactly once with the output written to the given path, or fails exactly
// once carrying the engine's error text.
type Transcoder interface {
	Trim(ctx context.Context, input, output string, start, end time.Duration, progress ProgressFunc) error
	Compress(ctx context.Context, input, output string, spec types.CompressSpec, progress ProgressFunc) error
	Merge(ctx context.Context, inputs []string, output string, progress ProgressFunc) error
	ProbeDuration(ctx context.Context, path string) (time.Duration, error)
}

// Messenger is the chat delivery collaborator boundary. Calls are
// fire-and-forget except where the caller awaits a message id to later edit.
type Messenger interface {
	SendText(ctx context.Context, chatID int64, text string) (int, error)
	EditText(ctx context.Context, chatID int64, messageID int, text string) error
	DeleteMessage(ctx context.Context, chatID int64, messageID int) error
	SendAudio(ctx context.Context, chatID int64, path, caption string) error
	SendPhoto(ctx context.Context, chatID int64, path, caption string) error
	SendVideo(ctx context.Context, chatID int64, path, caption string) error
	// FileLink resolves a platform file reference to a fetchable URL.
	FileLink(ctx context.Context, fileID string) (string, error)
}

// Transcriber converts speech audio to text.
type Transcriber interface {
	Transcribe(ctx context.Context, path string) (string, error)
}

// ShortVideoAPI resolves short-form-video posts.
type ShortVideoAPI interface {
	Lookup(ctx context.Context, url string) (types.ShortVideoPost, error)
}

// Fetcher transfers a remote file to a local path.
type Fetcher interface {
	Fetch(ctx context.Context, url, dest string) error
}

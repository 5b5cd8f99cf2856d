// Package pipeline assembles the adapters and use cases into a runnable
// application from a validated config.
package pipeline

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/avolkov/tunegrab/internal/config"
	"github.com/avolkov/tunegrab/internal/mergequeue"
	"github.com/avolkov/tunegrab/internal/ports"
	"github.com/avolkov/tunegrab/internal/ports/adapters/console"
	"github.com/avolkov/tunegrab/internal/ports/adapters/ffmpeg"
	"github.com/avolkov/tunegrab/internal/ports/adapters/httpfetch"
	"github.com/avolkov/tunegrab/internal/ports/adapters/shortvideo"
	"github.com/avolkov/tunegrab/internal/ports/adapters/whisperapi"
	"github.com/avolkov/tunegrab/internal/ports/adapters/ytdlp"
	"github.com/avolkov/tunegrab/internal/session"
	"github.com/avolkov/tunegrab/internal/usecase"
)

// Compile-time port checks for every adapter the pipeline wires.
var (
	_ ports.Extractor     = (*ytdlp.Adapter)(nil)
	_ ports.Transcoder    = (*ffmpeg.Adapter)(nil)
	_ ports.Messenger     = (*console.Messenger)(nil)
	_ ports.Transcriber   = (*whisperapi.Adapter)(nil)
	_ ports.ShortVideoAPI = (*shortvideo.Adapter)(nil)
	_ ports.Fetcher       = (*httpfetch.Client)(nil)
	_ session.Executor    = (*usecase.Usecase)(nil)
)

type App struct {
	Usecase    *usecase.Usecase
	Sessions   *session.Manager
	Transcoder ports.Transcoder
	Logger     *slog.Logger
}

func Validate(cfg config.Config) error {
	if cfg.WorkDir == "" {
		return fmt.Errorf("work dir is empty")
	}
	if cfg.OutDir == "" {
		return fmt.Errorf("out dir is empty")
	}
	if cfg.CookiesPath != "" {
		if _, err := os.Stat(cfg.CookiesPath); err != nil {
			return fmt.Errorf("stat cookies file: %w", err)
		}
	}
	if _, err := parseLevel(cfg.LogLevel); err != nil {
		return err
	}
	return nil
}

// New builds the application. Status text and delivered artifacts go to out
// and cfg.OutDir through the console messenger.
func New(cfg config.Config, out io.Writer) (*App, error) {
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(cfg.WorkDir, 0o755); err != nil {
		return nil, fmt.Errorf("prepare work dir: %w", err)
	}

	level, _ := parseLevel(cfg.LogLevel)
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	transcoder := ffmpeg.New(cfg.FFmpegPath, cfg.FFprobePath)
	uc := usecase.New(usecase.Deps{
		Extractor:   ytdlp.New(cfg.YtDlpPath, cfg.FFmpegPath, cfg.WorkDir, logger),
		Transcoder:  transcoder,
		Messenger:   console.New(out, cfg.OutDir),
		Transcriber: whisperapi.New(cfg.WhisperEndpoint, cfg.WhisperAPIKey, cfg.WhisperModel),
		ShortVideo:  shortvideo.New(cfg.ShortVideoEndpoint, cfg.ShortPhotoEndpoint, cfg.ShortVideoKeys),
		Fetcher:     httpfetch.New(),
		Queue:       mergequeue.New(),
		WorkDir:     cfg.WorkDir,
		CookiesPath: cfg.CookiesPath,
		Logger:      logger,
	})

	return &App{
		Usecase:    uc,
		Sessions:   session.NewManager(uc, logger),
		Transcoder: transcoder,
		Logger:     logger,
	}, nil
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level %q", s)
	}
}

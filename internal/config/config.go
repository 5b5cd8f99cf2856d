// Package config loads process configuration from the environment. Every
// knob has a sensible default so a bare `tunegrab fetch <url>` works with
// only the engine binaries on PATH.
package config

import (
	"os"
	"strings"
)

type Config struct {
	// WorkDir holds per-request temporary artifacts.
	WorkDir string
	// OutDir receives delivered files in CLI runs.
	OutDir string

	YtDlpPath   string
	FFmpegPath  string
	FFprobePath string
	CookiesPath string

	WhisperEndpoint string
	WhisperAPIKey   string
	WhisperModel    string

	ShortVideoEndpoint string
	ShortPhotoEndpoint string
	ShortVideoKeys     []string

	LogLevel string
}

func FromEnv() Config {
	return Config{
		WorkDir: envStr("TUNEGRAB_WORKDIR", os.TempDir()),
		OutDir:  envStr("TUNEGRAB_OUTDIR", "out"),

		YtDlpPath:   envStr("YTDLP_PATH", "yt-dlp"),
		FFmpegPath:  envStr("FFMPEG_PATH", "ffmpeg"),
		FFprobePath: envStr("FFPROBE_PATH", "ffprobe"),
		CookiesPath: os.Getenv("COOKIES_PATH"),

		WhisperEndpoint: envStr("WHISPER_API_URL", "https://api.openai.com/v1/audio/transcriptions"),
		WhisperAPIKey:   os.Getenv("WHISPER_API_KEY"),
		WhisperModel:    envStr("WHISPER_MODEL", "whisper-1"),

		ShortVideoEndpoint: os.Getenv("SHORT_VIDEO_API_URL"),
		ShortPhotoEndpoint: os.Getenv("SHORT_PHOTO_API_URL"),
		ShortVideoKeys:     envList("SHORT_VIDEO_API_KEYS"),

		LogLevel: envStr("LOG_LEVEL", "info"),
	}
}

func envStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// envList splits a comma-separated variable, dropping empty entries.
func envList(key string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

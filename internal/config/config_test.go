package config

import (
	"reflect"
	"testing"
)

func TestFromEnv_Defaults(t *testing.T) {
	cfg := FromEnv()
	if cfg.YtDlpPath != "yt-dlp" || cfg.FFmpegPath != "ffmpeg" {
		t.Fatalf("unexpected engine defaults: %+v", cfg)
	}
	if cfg.WhisperModel != "whisper-1" {
		t.Fatalf("whisper model = %q", cfg.WhisperModel)
	}
}

func TestFromEnv_KeyListSplitsAndTrims(t *testing.T) {
	t.Setenv("SHORT_VIDEO_API_KEYS", "k1, k2,,k3 ")
	cfg := FromEnv()
	want := []string{"k1", "k2", "k3"}
	if !reflect.DeepEqual(cfg.ShortVideoKeys, want) {
		t.Fatalf("keys = %v, want %v", cfg.ShortVideoKeys, want)
	}
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("FFMPEG_PATH", "/opt/ffmpeg/bin/ffmpeg")
	t.Setenv("LOG_LEVEL", "debug")
	cfg := FromEnv()
	if cfg.FFmpegPath != "/opt/ffmpeg/bin/ffmpeg" || cfg.LogLevel != "debug" {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
}

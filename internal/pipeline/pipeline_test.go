package pipeline

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/avolkov/tunegrab/internal/config"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	return config.Config{
		WorkDir:  t.TempDir(),
		OutDir:   t.TempDir(),
		LogLevel: "info",
	}
}

func TestValidate_RejectsMissingCookiesFile(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	cfg.CookiesPath = filepath.Join(t.TempDir(), "no-such-cookies.txt")
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for missing cookies file")
	}
}

func TestValidate_RejectsUnknownLogLevel(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	cfg.LogLevel = "loud"
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for unknown log level")
	}
}

func TestNew_WiresApplication(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	app, err := New(testConfig(t), &out)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if app.Usecase == nil || app.Sessions == nil || app.Transcoder == nil {
		t.Fatalf("incomplete app: %+v", app)
	}
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	for _, lvl := range []string{"", "info", "debug", "warn", "error", "DEBUG"} {
		if _, err := parseLevel(lvl); err != nil {
			t.Errorf("parseLevel(%q) = %v", lvl, err)
		}
	}
	if _, err := parseLevel("trace"); err == nil {
		t.Error("expected error for unsupported level")
	}
}

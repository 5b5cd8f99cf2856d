package whisperapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/avolkov/tunegrab/internal/types"
)

func audioFixture(t *testing.T) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "voice.mp3")
	if err := os.WriteFile(p, []byte("not really audio"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return p
}

func TestTranscribe(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
		}
		if got := r.FormValue("model"); got != "whisper-1" {
			t.Errorf("model = %q", got)
		}
		if _, _, err := r.FormFile("file"); err != nil {
			t.Errorf("file part: %v", err)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer k" {
			t.Errorf("auth header = %q", got)
		}
		json.NewEncoder(w).Encode(map[string]string{"text": "hello there"})
	}))
	defer srv.Close()

	a := New(srv.URL, "k", "")
	got, err := a.Transcribe(context.Background(), audioFixture(t))
	if err != nil {
		t.Fatalf("transcribe: %v", err)
	}
	if got != "hello there" {
		t.Fatalf("text = %q", got)
	}
}

func TestTranscribe_Non2xxIsHardFailure(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	a := New(srv.URL, "k", "")
	_, err := a.Transcribe(context.Background(), audioFixture(t))
	if !errors.Is(err, types.ErrUpstreamFailure) {
		t.Fatalf("expected ErrUpstreamFailure, got %v", err)
	}
}

package shortvideo

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/avolkov/tunegrab/internal/types"
)

func TestLookupVideo_HappyPath(t *testing.T) {
	t.Parallel()

	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("X-PrimeAPI-Key"); got != "k1" {
			t.Errorf("key = %q", got)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"play":   "https://cdn.example.com/v.mp4",
			"title":  "a caption",
			"author": map[string]string{"nickname": "someone"},
		})
	}))
	defer api.Close()

	post := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Location", "https://www.example.com/@someone/video/12345")
		w.WriteHeader(http.StatusMovedPermanently)
	}))
	defer post.Close()

	a := New(api.URL, api.URL, []string{"k1", "k2"})
	got, err := a.Lookup(context.Background(), post.URL+"/t/short?utm=x")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if got.ID != "12345" || got.VideoURL != "https://cdn.example.com/v.mp4" || got.Author != "someone" {
		t.Fatalf("unexpected post: %+v", got)
	}
}

func TestLookupPhoto_ResolvedByRedirect(t *testing.T) {
	t.Parallel()

	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("postId"); got != "777" {
			t.Errorf("postId = %q", got)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"itemInfo": map[string]any{
				"itemStruct": map[string]any{
					"author": map[string]string{"nickname": "pic_person"},
					"desc":   "slides",
					"imagePost": map[string]any{
						"images": []map[string]any{
							{"imageURL": map[string]any{"urlList": []string{"https://cdn.example.com/1.jpg"}}},
							{"imageURL": map[string]any{"urlList": []string{"https://cdn.example.com/2.jpg"}}},
						},
					},
				},
			},
		})
	}))
	defer api.Close()

	post := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Location", "https://www.example.com/@pic_person/photo/777")
		w.WriteHeader(http.StatusFound)
	}))
	defer post.Close()

	a := New(api.URL, api.URL, []string{"k1"})
	got, err := a.Lookup(context.Background(), post.URL)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if len(got.PhotoURLs) != 2 || got.Author != "pic_person" {
		t.Fatalf("unexpected post: %+v", got)
	}
}

func TestKeyPool_ExhaustedAfterExactlyPoolSizeAttempts(t *testing.T) {
	t.Parallel()

	var attempts atomic.Int64
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer api.Close()

	post := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Location", "https://www.example.com/@x/video/1")
		w.WriteHeader(http.StatusFound)
	}))
	defer post.Close()

	a := New(api.URL, api.URL, []string{"k1", "k2", "k3"})
	_, err := a.Lookup(context.Background(), post.URL)
	if !errors.Is(err, types.ErrRateLimitExhausted) {
		t.Fatalf("expected ErrRateLimitExhausted, got %v", err)
	}
	if got := attempts.Load(); got != 3 {
		t.Fatalf("expected exactly 3 attempts, got %d", got)
	}
}

func TestKeyPool_AdvancesOnRateLimit(t *testing.T) {
	t.Parallel()

	var keysSeen []string
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get("X-PrimeAPI-Key")
		keysSeen = append(keysSeen, key)
		if key == "k1" {
			// Quota exhaustion reported in a 200 body.
			json.NewEncoder(w).Encode(map[string]string{"error": "monthly limit reached"})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"play": "https://cdn.example.com/v.mp4"})
	}))
	defer api.Close()

	post := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Location", "https://www.example.com/@x/video/1")
		w.WriteHeader(http.StatusFound)
	}))
	defer post.Close()

	a := New(api.URL, api.URL, []string{"k1", "k2"})
	got, err := a.Lookup(context.Background(), post.URL)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if got.VideoURL == "" {
		t.Fatal("expected playable url from the second key")
	}
	if len(keysSeen) != 2 || keysSeen[0] != "k1" || keysSeen[1] != "k2" {
		t.Fatalf("unexpected key order: %v", keysSeen)
	}
}

func TestUpstreamErrorIsNotRetried(t *testing.T) {
	t.Parallel()

	var attempts atomic.Int64
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		attempts.Add(1)
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer api.Close()

	post := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Location", "https://www.example.com/@x/video/1")
		w.WriteHeader(http.StatusFound)
	}))
	defer post.Close()

	a := New(api.URL, api.URL, []string{"k1", "k2", "k3"})
	_, err := a.Lookup(context.Background(), post.URL)
	if !errors.Is(err, types.ErrUpstreamFailure) {
		t.Fatalf("expected ErrUpstreamFailure, got %v", err)
	}
	if got := attempts.Load(); got != 1 {
		t.Fatalf("non-rate-limit failures must not rotate keys, got %d attempts", got)
	}
}

// Package tempfiles tracks the temporary artifacts created while serving a
// single request and guarantees their removal on every exit path.
package tempfiles

import (
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
)

// Tracker owns the temp-file set of one request. Register paths as they are
// created and defer Release at the top of the request: removal then happens
// on normal return, early return and panic alike.
//
// A path registered after Release has run belongs to a late-arriving result
// (for example an engine that outlived its deadline) and is removed
// immediately instead of being kept.
type Tracker struct {
	dir    string
	logger *slog.Logger

	mu       sync.Mutex
	paths    []string
	released bool
}

func New(dir string, logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{dir: dir, logger: logger}
}

// NewPath mints a unique path with the given extension inside the tracker's
// directory and registers it. The file itself is not created.
func (t *Tracker) NewPath(ext string) string {
	p := filepath.Join(t.dir, uuid.NewString()+ext)
	t.Track(p)
	return p
}

// Track registers an externally produced path for removal on Release.
func (t *Tracker) Track(path string) {
	t.mu.Lock()
	if t.released {
		t.mu.Unlock()
		t.remove(path)
		return
	}
	t.paths = append(t.paths, path)
	t.mu.Unlock()
}

// Release removes every registered path. Missing files are fine: a path may
// have been minted but never written, or consumed downstream. Calling
// Release again is a no-op.
func (t *Tracker) Release() {
	t.mu.Lock()
	if t.released {
		t.mu.Unlock()
		return
	}
	t.released = true
	paths := t.paths
	t.paths = nil
	t.mu.Unlock()

	for _, p := range paths {
		t.remove(p)
	}
}

func (t *Tracker) remove(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		t.logger.Warn("failed to remove temp artifact", "path", path, "error", err)
	}
}

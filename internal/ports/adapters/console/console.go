// Package console implements the Messenger port for CLI runs: chat-bound
// text goes to a writer, delivered artifacts are copied into an output
// directory before the pipeline releases its temporaries.
package console

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
)

type Messenger struct {
	mu     sync.Mutex
	out    io.Writer
	outDir string
	nextID int
}

func New(out io.Writer, outDir string) *Messenger {
	return &Messenger{out: out, outDir: outDir, nextID: 1}
}

func (m *Messenger) SendText(_ context.Context, _ int64, text string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextID
	m.nextID++
	fmt.Fprintln(m.out, text)
	return id, nil
}

func (m *Messenger) EditText(_ context.Context, _ int64, _ int, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	fmt.Fprintln(m.out, text)
	return nil
}

func (m *Messenger) DeleteMessage(context.Context, int64, int) error { return nil }

func (m *Messenger) SendAudio(_ context.Context, _ int64, path, caption string) error {
	return m.deliver(path, caption)
}

func (m *Messenger) SendPhoto(_ context.Context, _ int64, path, caption string) error {
	return m.deliver(path, caption)
}

func (m *Messenger) SendVideo(_ context.Context, _ int64, path, caption string) error {
	return m.deliver(path, caption)
}

// FileLink passes local references through unchanged: the fetcher copies
// plain paths and downloads URLs.
func (m *Messenger) FileLink(_ context.Context, fileID string) (string, error) {
	return fileID, nil
}

func (m *Messenger) deliver(path, caption string) error {
	if err := os.MkdirAll(m.outDir, 0o755); err != nil {
		return err
	}
	dst := filepath.Join(m.outDir, filepath.Base(path))

	in, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open artifact: %w", err)
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create delivery: %w", err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return fmt.Errorf("copy delivery: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("close delivery: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if caption != "" {
		fmt.Fprintf(m.out, "saved %s (%s)\n", dst, caption)
	} else {
		fmt.Fprintf(m.out, "saved %s\n", dst)
	}
	return nil
}

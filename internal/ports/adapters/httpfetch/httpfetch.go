// Package httpfetch transfers remote files to local paths. Local source
// paths are copied instead, so CLI runs can feed the same pipelines with
// files already on disk.
package httpfetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/avolkov/tunegrab/internal/types"
)

type Client struct {
	hc *http.Client
}

func New() *Client {
	return &Client{hc: &http.Client{Timeout: 5 * time.Minute}}
}

// Fetch writes the content behind url to dest. A partially written dest is
// removed on failure so the caller never sees a torn file.
func (c *Client) Fetch(ctx context.Context, url, dest string) error {
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return copyLocal(url, dest)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("%w: fetch: %v", types.ErrUpstreamFailure, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: fetch status %d for %s", types.ErrUpstreamFailure, resp.StatusCode, url)
	}

	return writeAll(resp.Body, dest)
}

func copyLocal(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer in.Close()
	return writeAll(in, dest)
}

func writeAll(r io.Reader, dest string) error {
	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("create %s: %w", dest, err)
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		os.Remove(dest)
		return fmt.Errorf("write %s: %w", dest, err)
	}
	if err := out.Close(); err != nil {
		os.Remove(dest)
		return fmt.Errorf("close %s: %w", dest, err)
	}
	return nil
}

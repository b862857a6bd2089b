// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package platform

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/linuxfoundation/lfx-v2-meeting-platform/internal/logging"
)

// RateLimitedReader throttles reads from the wrapped reader with limiter.
type RateLimitedReader struct {
	io.Reader
	Limiter *rate.Limiter
	Ctx     context.Context
}

func (r *RateLimitedReader) Read(p []byte) (int, error) {
	if err := r.Ctx.Err(); err != nil {
		return 0, err
	}

	n, err := r.Reader.Read(p)
	if n > 0 && r.Limiter != nil {
		// WaitN rejects requests larger than the burst.
		for remaining := n; remaining > 0; {
			chunk := min(remaining, r.Limiter.Burst())
			if waitErr := r.Limiter.WaitN(r.Ctx, chunk); waitErr != nil {
				return n, waitErr
			}
			remaining -= chunk
		}
	}
	return n, err
}

// Downloader streams recordings to per-download temporary directories.
type Downloader struct {
	HTTPClient *http.Client
	// Limiter caps the download rate in bytes per second. Nil means unlimited.
	Limiter *rate.Limiter
	TempDir string
}

// NewDownloader creates a downloader. A non-positive bytesPerSecond disables throttling.
func NewDownloader(client *http.Client, tempDir string, bytesPerSecond int) *Downloader {
	d := &Downloader{HTTPClient: client, TempDir: tempDir}
	if d.HTTPClient == nil {
		d.HTTPClient = http.DefaultClient
	}
	if d.TempDir == "" {
		d.TempDir = os.TempDir()
	}
	if bytesPerSecond > 0 {
		d.Limiter = rate.NewLimiter(rate.Limit(bytesPerSecond), bytesPerSecond)
	}
	return d
}

// VideoPath returns a fresh <tmp>/<community>/<uuid>/<mid>.mp4 path.
func (d *Downloader) VideoPath(community, mid string) string {
	return filepath.Join(d.TempDir, community, strings.ReplaceAll(uuid.NewString(), "-", ""), mid+".mp4")
}

// Download fetches url into a fresh video path and returns it. The directory
// is removed again when the download fails.
func (d *Downloader) Download(ctx context.Context, url string, header http.Header, community, mid string) (string, error) {
	path := d.VideoPath(community, mid)
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return "", fmt.Errorf("create download directory: %w", err)
	}

	if err := d.download(ctx, url, header, path); err != nil {
		if rmErr := os.RemoveAll(filepath.Dir(path)); rmErr != nil {
			slog.WarnContext(ctx, "failed to clean up download directory", logging.ErrKey, rmErr, "path", path)
		}
		return "", err
	}
	return path, nil
}

func (d *Downloader) download(ctx context.Context, url string, header http.Header, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build download request: %w", err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := d.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("download recording: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("download recording: unexpected status %d", resp.StatusCode)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create video file: %w", err)
	}

	var body io.Reader = resp.Body
	if d.Limiter != nil {
		body = &RateLimitedReader{Reader: resp.Body, Limiter: d.Limiter, Ctx: ctx}
	}

	written, err := io.Copy(file, body)
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("write video file: %w", err)
	}

	slog.DebugContext(ctx, "recording downloaded", "path", path, "bytes", written)
	return nil
}

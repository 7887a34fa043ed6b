package storage

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// HTTPDownloader fetches audio over plain HTTP(S) with a size cap taken
// from configuration. Per-request deadlines come from the caller's
// context; the client timeout is only a hard upper bound for stuck reads.
type HTTPDownloader struct {
	client   *http.Client
	maxBytes int64
}

func NewHTTPDownloader(maxSizeMB int) *HTTPDownloader {
	return &HTTPDownloader{
		client:   &http.Client{Timeout: 5 * time.Minute},
		maxBytes: int64(maxSizeMB) * 1024 * 1024,
	}
}

func (d *HTTPDownloader) Download(ctx context.Context, rawURL, dest string) (float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("download %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("download %s: unexpected status %d", rawURL, resp.StatusCode)
	}

	if resp.ContentLength > 0 && resp.ContentLength > d.maxBytes {
		return 0, fmt.Errorf("%w: content length %d bytes", ErrTooLarge, resp.ContentLength)
	}

	written, err := writeCapped(resp.Body, dest, d.maxBytes)
	if err != nil {
		return 0, err
	}
	return toMB(written), nil
}

// Compile-time interface check.
var _ AudioDownloader = (*HTTPDownloader)(nil)

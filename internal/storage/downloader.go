// Package storage fetches source audio from object storage or plain HTTP
// into request-private temp files. Downloads may overlap freely across
// requests; there is no shared mutable state here.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
)

// ErrTooLarge means the remote object exceeds the configured size cap.
var ErrTooLarge = errors.New("storage: file exceeds size limit")

// AudioDownloader fetches the object at url into dest and returns the
// downloaded size in megabytes.
type AudioDownloader interface {
	Download(ctx context.Context, url, dest string) (float64, error)
}

// writeCapped streams r into dest, failing with ErrTooLarge once more than
// maxBytes have been read. A partial file is removed on failure.
func writeCapped(r io.Reader, dest string, maxBytes int64) (int64, error) {
	f, err := os.Create(dest)
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", dest, err)
	}

	written, err := io.Copy(f, io.LimitReader(r, maxBytes+1))
	closeErr := f.Close()
	if err == nil && closeErr != nil {
		err = closeErr
	}
	if err == nil && written > maxBytes {
		err = fmt.Errorf("%w: more than %d bytes", ErrTooLarge, maxBytes)
	}
	if err != nil {
		os.Remove(dest)
		return 0, err
	}
	return written, nil
}

func toMB(n int64) float64 { return float64(n) / (1024 * 1024) }

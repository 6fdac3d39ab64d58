package framestore

import (
	"context"
	"errors"
	"io"
)

var ErrNotFound = errors.New("frame not found")

// FrameStore keeps camera frames so a scanned frame can be shown back to the
// user after the scan locks.
type FrameStore interface {
	Save(ctx context.Context, prefix, mimeType string, r io.Reader) (key string, err error)
	Get(ctx context.Context, key string) (io.ReadCloser, string, error)
	Delete(ctx context.Context, key string) error
}

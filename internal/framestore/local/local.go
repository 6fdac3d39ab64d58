package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/vbonduro/jdginv/internal/framestore"
)

var extensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
	"image/heic": ".heic",
}

// LocalFrameStore keeps frames as flat files in one directory. Keys are file
// names; anything that could name a path outside the directory is rejected.
type LocalFrameStore struct {
	dir string
}

func NewLocalFrameStore(dir string) (*LocalFrameStore, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("invalid frame directory: %w", err)
	}
	if err := os.MkdirAll(abs, 0755); err != nil {
		return nil, fmt.Errorf("failed to create frame directory: %w", err)
	}
	return &LocalFrameStore{dir: abs}, nil
}

// Save writes the frame to a temporary file and renames it into place, so a
// key returned by Save always names a complete frame.
func (s *LocalFrameStore) Save(ctx context.Context, prefix, mimeType string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	ext, ok := extensions[mimeType]
	if !ok {
		ext = ".jpg"
	}
	key := prefix + "_" + uuid.NewString() + ext
	dst, err := s.path(key)
	if err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	_, err = io.Copy(tmp, r)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = os.Rename(tmp.Name(), dst)
	}
	if err != nil {
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to write frame: %w", err)
	}
	return key, nil
}

func (s *LocalFrameStore) Get(ctx context.Context, key string) (io.ReadCloser, string, error) {
	p, err := s.path(key)
	if err != nil {
		return nil, "", err
	}
	f, err := os.Open(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, "", framestore.ErrNotFound
	}
	if err != nil {
		return nil, "", fmt.Errorf("failed to open frame: %w", err)
	}
	return f, mimeFor(key), nil
}

func (s *LocalFrameStore) Delete(ctx context.Context, key string) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	err = os.Remove(p)
	if errors.Is(err, fs.ErrNotExist) {
		return framestore.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to delete frame: %w", err)
	}
	return nil
}

// Purge removes every stored frame and any abandoned temporary file. Frame
// keys live in in-memory sessions, so nothing on disk is reachable after a
// restart.
func (s *LocalFrameStore) Purge(ctx context.Context) (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, fmt.Errorf("failed to list frames: %w", err)
	}
	n := 0
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return n, err
		}
		if e.IsDir() {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, e.Name())); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return n, fmt.Errorf("failed to remove %s: %w", e.Name(), err)
		}
		n++
	}
	return n, nil
}

func (s *LocalFrameStore) path(key string) (string, error) {
	if key == "" || key == "." || key == ".." || strings.ContainsAny(key, `/\`) || filepath.Base(key) != key {
		return "", fmt.Errorf("invalid frame key %q", key)
	}
	return filepath.Join(s.dir, key), nil
}

func mimeFor(key string) string {
	ext := strings.ToLower(filepath.Ext(key))
	for mime, e := range extensions {
		if e == ext {
			return mime
		}
	}
	return "image/jpeg"
}

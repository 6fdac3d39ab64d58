package local

import (
	"bytes"
	"context"
	"io"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vbonduro/jdginv/internal/framestore"
)

func newTestStore(t *testing.T) *LocalFrameStore {
	t.Helper()
	s, err := NewLocalFrameStore(t.TempDir())
	require.NoError(t, err)
	return s
}

func TestLocalFrameStoreSaveAndGet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	frame := []byte("fake png data")

	key, err := s.Save(ctx, "scan", "image/png", bytes.NewReader(frame))
	require.NoError(t, err)
	assert.Contains(t, key, "scan_")

	reader, mimeType, err := s.Get(ctx, key)
	require.NoError(t, err)
	defer func() { _ = reader.Close() }()

	assert.Equal(t, "image/png", mimeType)
	data, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Equal(t, frame, data)
}

func TestLocalFrameStoreKeysAreUnique(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a, err := s.Save(ctx, "scan", "image/jpeg", bytes.NewReader([]byte("a")))
	require.NoError(t, err)
	b, err := s.Save(ctx, "scan", "image/jpeg", bytes.NewReader([]byte("b")))
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestLocalFrameStoreDelete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	key, err := s.Save(ctx, "scan", "image/jpeg", bytes.NewReader([]byte("x")))
	require.NoError(t, err)
	require.NoError(t, s.Delete(ctx, key))

	_, _, err = s.Get(ctx, key)
	assert.ErrorIs(t, err, framestore.ErrNotFound)
	assert.ErrorIs(t, s.Delete(ctx, key), framestore.ErrNotFound)
}

func TestLocalFrameStorePathTraversal(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, _, err := s.Get(ctx, "../../etc/passwd")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, framestore.ErrNotFound)

	assert.Error(t, s.Delete(ctx, "../outside.jpg"))

	_, err = s.Save(ctx, "../escape", "image/jpeg", bytes.NewReader([]byte("x")))
	assert.Error(t, err)
}

func TestLocalFrameStoreUnknownMIMEFallsBackToJPEG(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	key, err := s.Save(ctx, "scan", "application/octet-stream", bytes.NewReader([]byte("x")))
	require.NoError(t, err)
	assert.True(t, len(key) > 4 && key[len(key)-4:] == ".jpg", key)

	rc, mimeType, err := s.Get(ctx, key)
	require.NoError(t, err)
	_ = rc.Close()
	assert.Equal(t, "image/jpeg", mimeType)
}

func TestLocalFrameStorePurge(t *testing.T) {
	dir := t.TempDir()
	s, err := NewLocalFrameStore(dir)
	require.NoError(t, err)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := s.Save(ctx, "scan", "image/png", bytes.NewReader([]byte("x")))
		require.NoError(t, err)
	}
	require.NoError(t, os.Mkdir(dir+"/nested", 0755))

	n, err := s.Purge(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "nested", entries[0].Name())
}

func TestLocalFrameStoreSaveCancelled(t *testing.T) {
	s := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Save(ctx, "scan", "image/png", bytes.NewReader([]byte("x")))
	assert.ErrorIs(t, err, context.Canceled)
}

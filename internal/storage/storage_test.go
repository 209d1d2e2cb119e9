package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStore_RoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "uploads")
	s, err := NewLocalStore(dir)
	require.NoError(t, err)

	ctx := context.Background()
	ref, err := s.Put(ctx, []byte("png-data"), "image/png")
	require.NoError(t, err)
	assert.Equal(t, ".png", filepath.Ext(ref))

	_, err = os.Stat(filepath.Join(dir, ref))
	require.NoError(t, err)

	data, ct, err := s.Get(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, []byte("png-data"), data)
	assert.Equal(t, "image/png", ct)
}

func TestLocalStore_NotFound(t *testing.T) {
	s, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	for _, ref := range []string{"missing.jpg", "", "../etc/passwd", ".hidden"} {
		_, _, err := s.Get(context.Background(), ref)
		assert.ErrorIs(t, err, ErrNotFound, "ref %q", ref)
	}
}

func TestLocalStore_Delete(t *testing.T) {
	s, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	ref, err := s.Put(ctx, []byte("jpg-data"), "image/jpeg")
	require.NoError(t, err)
	require.NoError(t, s.Delete(ctx, ref))

	_, _, err = s.Get(ctx, ref)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.NoError(t, s.Delete(ctx, ref), "deleting twice is fine")
	assert.NoError(t, s.Delete(ctx, "../escape.jpg"))
}

func TestNewMinIOStore_DefersConnection(t *testing.T) {
	s, err := NewMinIOStore(MinIOConfig{
		Endpoint:  "127.0.0.1:1",
		AccessKey: "minio",
		SecretKey: "minio123",
		Bucket:    "homework",
	}, zerolog.Nop())
	require.NoError(t, err)
	assert.False(t, s.bucketEnsured)

	var _ ImageStore = s
	var _ ImageStore = (*LocalStore)(nil)
}

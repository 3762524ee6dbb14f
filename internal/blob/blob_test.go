package blob

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	info, err := s.Put(ctx, "media/a/cover.png", bytes.NewReader([]byte("png-bytes")), PutOptions{
		ContentType: "image/png",
		Metadata:    map[string]string{"uploader": "test"},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(9), info.Size)
	assert.Equal(t, "image/png", info.ContentType)

	_, err = s.Put(ctx, "media/a/cover.png", bytes.NewReader(nil), PutOptions{})
	require.Error(t, err, "keys are create-only")

	got, rc, err := s.Get(ctx, "media/a/cover.png")
	require.NoError(t, err)
	defer rc.Close()
	b, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(b))
	assert.Equal(t, "test", got.Metadata["uploader"])

	_, _, err = s.Get(ctx, "media/missing")
	assert.ErrorIs(t, err, ErrNotFound)

	ok, err := s.Delete(ctx, "media/a/cover.png")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = s.Delete(ctx, "media/a/cover.png")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryListOrdersByKey(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	for _, key := range []string{"cv/b.pdf", "cv/a.pdf", "media/x.png"} {
		_, err := s.Put(ctx, key, bytes.NewReader([]byte("x")), PutOptions{})
		require.NoError(t, err)
	}
	infos, err := s.List(ctx, "cv/")
	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.Equal(t, "cv/a.pdf", infos[0].Key)
	assert.Equal(t, "cv/b.pdf", infos[1].Key)
}

func TestFilesystemRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, err := NewFilesystem(t.TempDir())
	require.NoError(t, err)

	info, err := s.Put(ctx, "media/map.svg", bytes.NewReader([]byte("<svg/>")), PutOptions{ContentType: "image/svg+xml"})
	require.NoError(t, err)
	assert.NotEmpty(t, info.ETag)
	assert.NotEmpty(t, info.URL)

	got, rc, err := s.Get(ctx, "media/map.svg")
	require.NoError(t, err)
	defer rc.Close()
	b, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "<svg/>", string(b))
	assert.Equal(t, "image/svg+xml", got.ContentType)

	head, err := s.Head(ctx, "media/map.svg")
	require.NoError(t, err)
	assert.Equal(t, info.ETag, head.ETag)

	infos, err := s.List(ctx, "media/")
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, "media/map.svg", infos[0].Key)

	ok, err := s.Delete(ctx, "media/map.svg")
	require.NoError(t, err)
	assert.True(t, ok)
	_, err = s.Head(ctx, "media/map.svg")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFilesystemRejectsTraversal(t *testing.T) {
	ctx := context.Background()
	s, err := NewFilesystem(t.TempDir())
	require.NoError(t, err)

	for _, key := range []string{"", "../escape", "/abs", "a/../../b"} {
		_, err := s.Put(ctx, key, bytes.NewReader([]byte("x")), PutOptions{})
		assert.Error(t, err, "key %q", key)
	}
}

func TestOpenSelectsDriver(t *testing.T) {
	t.Setenv("SIAMATLAS_BLOB_DRIVER", "memory")
	s, err := Open(context.Background())
	require.NoError(t, err)
	assert.Equal(t, DriverMemory, s.Driver())

	t.Setenv("SIAMATLAS_BLOB_DRIVER", "fs")
	t.Setenv("SIAMATLAS_BLOB_FS_ROOT", t.TempDir())
	s, err = Open(context.Background())
	require.NoError(t, err)
	assert.Equal(t, DriverFilesystem, s.Driver())

	t.Setenv("SIAMATLAS_BLOB_DRIVER", "bogus")
	_, err = Open(context.Background())
	assert.Error(t, err)
}

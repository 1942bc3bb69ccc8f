package minio

import (
	"context"
	"io"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/grgmap/blobstore"
)

// newPipeBlob returns a writable blob whose upload drains the pipe into out.
func newPipeBlob(out *[]byte) *minioWritableBlob {
	pr, pw := io.Pipe()
	b := &minioWritableBlob{pw: pw, done: make(chan error, 1)}
	go func() {
		data, err := io.ReadAll(pr)
		*out = data
		b.done <- err
	}()
	return b
}

func TestWritableBlob(t *testing.T) {
	t.Run("Close", func(t *testing.T) {
		var got []byte
		b := newPipeBlob(&got)

		_, err := b.Write([]byte("abc"))
		require.NoError(t, err)
		require.NoError(t, b.Sync())
		require.NoError(t, b.Close())
		require.NoError(t, b.Close())
		assert.Equal(t, "abc", string(got))
	})

	t.Run("Abort", func(t *testing.T) {
		var got []byte
		b := newPipeBlob(&got)

		_, err := b.Write([]byte("abc"))
		require.NoError(t, err)
		require.NoError(t, b.Abort())
		assert.ErrorIs(t, b.Close(), ErrAborted)
	})
}

func TestBlob_ReadAtPastEnd(t *testing.T) {
	b := &minioBlob{key: "k", size: 4}

	n, err := b.ReadAt(context.Background(), make([]byte, 2), 4)
	assert.Equal(t, 0, n)
	assert.ErrorIs(t, err, io.EOF)

	n, err = b.ReadAt(context.Background(), nil, 0)
	assert.Equal(t, 0, n)
	assert.NoError(t, err)

	rc, err := b.ReadRange(context.Background(), 10, 1)
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Empty(t, data)
}

// TestMinioStore_Integration requires a running MinIO instance at
// MINIO_ENDPOINT (e.g. localhost:9000).
func TestMinioStore_Integration(t *testing.T) {
	endpoint := os.Getenv("MINIO_ENDPOINT")
	if endpoint == "" {
		t.Skip("MINIO_ENDPOINT not set")
	}

	ctx := context.Background()
	store, err := New(ctx, endpoint, "grgmap-test",
		WithCredentials("minioadmin", "minioadmin"),
		WithPrefix("test-prefix/"),
		WithCreateBucket(true),
	)
	if err != nil {
		t.Skipf("MinIO not available: %v", err)
	}

	data := []byte("hello minio world")
	require.NoError(t, store.Put(ctx, "test.txt", data))

	blob, err := store.Open(ctx, "test.txt")
	require.NoError(t, err)
	require.Equal(t, int64(len(data)), blob.Size())

	buf := make([]byte, 8)
	n, err := blob.ReadAt(ctx, buf, int64(len(data)-5))
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, "world", string(buf[:n]))

	rc, err := blob.ReadRange(ctx, 6, 5)
	require.NoError(t, err)
	part, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "minio", string(part))
	require.NoError(t, rc.Close())
	require.NoError(t, blob.Close())

	wb, err := store.Create(ctx, "stream.txt")
	require.NoError(t, err)
	_, err = wb.Write([]byte("streamed data"))
	require.NoError(t, err)
	require.NoError(t, wb.Close())

	names, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"stream.txt", "test.txt"}, names)

	require.NoError(t, store.Delete(ctx, "test.txt"))
	require.NoError(t, store.Delete(ctx, "stream.txt"))
	require.NoError(t, store.Delete(ctx, "stream.txt"))

	_, err = store.Open(ctx, "test.txt")
	assert.ErrorIs(t, err, blobstore.ErrNotFound)
}

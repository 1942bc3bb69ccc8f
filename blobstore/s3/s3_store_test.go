package s3

import (
	"context"
	"io"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/grgmap/blobstore"
)

// Requires S3_TEST_BUCKET and AWS credentials in the environment.
func TestS3Store_Integration(t *testing.T) {
	bucket := os.Getenv("S3_TEST_BUCKET")
	if bucket == "" {
		t.Skip("S3_TEST_BUCKET not set")
	}

	ctx := context.Background()
	store, err := New(ctx, bucket,
		WithPrefix("grgmap-test/"+t.Name()),
		WithRegion(os.Getenv("AWS_REGION")),
		WithEndpoint(os.Getenv("S3_TEST_ENDPOINT")),
		WithPathStyle(os.Getenv("S3_TEST_ENDPOINT") != ""),
	)
	require.NoError(t, err)

	require.NoError(t, store.Put(ctx, "a.txt", []byte("hello world")))
	t.Cleanup(func() { _ = store.Delete(ctx, "a.txt") })

	b, err := store.Open(ctx, "a.txt")
	require.NoError(t, err)
	defer b.Close()
	assert.Equal(t, int64(11), b.Size())

	buf := make([]byte, 5)
	n, err := b.ReadAt(ctx, buf, 6)
	require.NoError(t, err)
	assert.Equal(t, "world", string(buf[:n]))

	data, err := io.ReadAll(blobstore.NewReader(ctx, b))
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(data))

	names, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Contains(t, names, "a.txt")

	require.NoError(t, store.Delete(ctx, "a.txt"))
	_, err = store.Open(ctx, "a.txt")
	assert.ErrorIs(t, err, blobstore.ErrNotFound)
}

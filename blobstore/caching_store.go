package blobstore

import (
	"context"
	"errors"
	"io"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultBlockSize is the cache block size used when none is given.
	DefaultBlockSize = 1 << 20
	// DefaultCacheBlocks is the number of cached blocks used when none is given.
	DefaultCacheBlocks = 64

	maxParallelFetches = 8
)

type blockKey struct {
	name  string
	block int64
}

// CachingStore wraps a BlobStore and caches fixed-size blocks of the blobs
// it reads. It is meant to sit in front of remote stores where every ReadAt
// is a network round trip.
type CachingStore struct {
	inner     BlobStore
	cache     *lru.Cache[blockKey, []byte]
	blockSize int64
}

// NewCachingStore creates a CachingStore holding up to numBlocks blocks of
// blockSize bytes. Non-positive values select the defaults.
func NewCachingStore(inner BlobStore, numBlocks int, blockSize int64) (*CachingStore, error) {
	if numBlocks <= 0 {
		numBlocks = DefaultCacheBlocks
	}
	if blockSize <= 0 {
		blockSize = DefaultBlockSize
	}
	c, err := lru.New[blockKey, []byte](numBlocks)
	if err != nil {
		return nil, err
	}
	return &CachingStore{inner: inner, cache: c, blockSize: blockSize}, nil
}

func (s *CachingStore) Open(ctx context.Context, name string) (Blob, error) {
	b, err := s.inner.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	return &CachingBlob{inner: b, store: s, name: name}, nil
}

// Create passes through; Close of the returned blob does not touch the
// cache, so callers overwriting a cached blob should use Put.
func (s *CachingStore) Create(ctx context.Context, name string) (WritableBlob, error) {
	return s.inner.Create(ctx, name)
}

func (s *CachingStore) Put(ctx context.Context, name string, data []byte) error {
	s.invalidate(name)
	return s.inner.Put(ctx, name, data)
}

func (s *CachingStore) Delete(ctx context.Context, name string) error {
	s.invalidate(name)
	return s.inner.Delete(ctx, name)
}

func (s *CachingStore) List(ctx context.Context, prefix string) ([]string, error) {
	return s.inner.List(ctx, prefix)
}

func (s *CachingStore) invalidate(name string) {
	for _, k := range s.cache.Keys() {
		if k.name == name {
			s.cache.Remove(k)
		}
	}
}

// CachingBlob wraps a Blob and serves reads from the block cache.
type CachingBlob struct {
	inner Blob
	store *CachingStore
	name  string
}

func (b *CachingBlob) Close() error {
	return b.inner.Close()
}

func (b *CachingBlob) Size() int64 {
	return b.inner.Size()
}

func (b *CachingBlob) ReadAt(ctx context.Context, p []byte, off int64) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	size := b.Size()
	if off >= size {
		return 0, io.EOF
	}

	bs := b.store.blockSize
	end := min(off+int64(len(p)), size)
	first, last := off/bs, (end-1)/bs

	if err := b.fill(ctx, first, last); err != nil {
		return 0, err
	}

	total := 0
	for blk := first; blk <= last; blk++ {
		data, err := b.block(ctx, blk)
		if err != nil {
			return total, err
		}
		blkStart := blk * bs
		from := max(off, blkStart) - blkStart
		if from >= int64(len(data)) {
			break
		}
		total += copy(p[max(off, blkStart)-off:], data[from:])
	}

	if total < len(p) {
		return total, io.EOF
	}
	return total, nil
}

// fill loads the missing blocks of [first, last], fetching contiguous runs
// with one backend read each.
func (b *CachingBlob) fill(ctx context.Context, first, last int64) error {
	type run struct{ start, count int64 }
	var runs []run
	for blk := first; blk <= last; blk++ {
		if b.store.cache.Contains(blockKey{b.name, blk}) {
			continue
		}
		if n := len(runs); n > 0 && runs[n-1].start+runs[n-1].count == blk {
			runs[n-1].count++
			continue
		}
		runs = append(runs, run{start: blk, count: 1})
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelFetches)
	bs := b.store.blockSize
	for _, r := range runs {
		g.Go(func() error {
			start := r.start * bs
			buf := make([]byte, min(r.count*bs, b.Size()-start))
			n, err := b.inner.ReadAt(gctx, buf, start)
			if err != nil && !errors.Is(err, io.EOF) {
				return err
			}
			buf = buf[:n]
			for i := int64(0); i < r.count && i*bs < int64(len(buf)); i++ {
				chunk := buf[i*bs : min((i+1)*bs, int64(len(buf)))]
				b.store.cache.Add(blockKey{b.name, r.start + i}, chunk)
			}
			return nil
		})
	}
	return g.Wait()
}

// block returns one block, reading it directly if it was evicted since fill.
func (b *CachingBlob) block(ctx context.Context, blk int64) ([]byte, error) {
	key := blockKey{b.name, blk}
	if data, ok := b.store.cache.Get(key); ok {
		return data, nil
	}
	bs := b.store.blockSize
	buf := make([]byte, bs)
	n, err := b.inner.ReadAt(ctx, buf, blk*bs)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	if n > 0 {
		b.store.cache.Add(key, buf[:n])
	}
	return buf[:n], nil
}

func (b *CachingBlob) ReadRange(ctx context.Context, off, length int64) (io.ReadCloser, error) {
	limit := min(off+length, b.Size())
	return io.NopCloser(&sectionReader{blob: b, ctx: ctx, off: off, limit: limit}), nil
}

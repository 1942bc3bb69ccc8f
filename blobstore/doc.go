// Package blobstore abstracts where mutation inputs and run reports live.
//
// The CLI reads mutation files and writes reports through a BlobStore, so
// the same run can point at a local directory, S3 or a MinIO deployment.
// Implementations must be safe for concurrent use.
//
// # Built-in Implementations
//
//   - LocalStore: local filesystem, reads are memory mapped
//   - MemoryStore: in-memory, for tests
//   - CachingStore: block cache in front of any remote store
//   - s3.Store: Amazon S3 with range reads and multipart uploads
//   - minio.Store: MinIO and other S3-compatible servers
//
// # Reading
//
// Blobs are random access. NewReader turns a blob into a sequential
// io.Reader suitable for mutation.NewReader:
//
//	b, err := store.Open(ctx, "chr20.tsv.zst")
//	if err != nil { ... }
//	defer b.Close()
//
//	r, err := mutation.NewReader(blobstore.NewReader(ctx, b))
package blobstore

// Package minio provides a BlobStore backed by the MinIO client.
//
// It works with MinIO and other S3-compatible systems such as Ceph or
// Garage without pulling in the AWS SDK configuration chain.
//
// # Usage
//
//	store, err := minio.New(ctx, "localhost:9000", "genomes",
//	    minio.WithCredentials("minioadmin", "minioadmin"),
//	    minio.WithPrefix("chr20/"),
//	    minio.WithCreateBucket(true),
//	)
//
//	data, err := blobstore.ReadAll(ctx, store, "mutations.tsv.zst")
//
// Streaming writes through Create are uploaded in the background and
// become visible when the writer is closed.
package minio

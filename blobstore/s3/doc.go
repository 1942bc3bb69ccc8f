// Package s3 provides an S3 implementation of the blobstore.BlobStore interface.
//
// # Usage
//
//	store, err := s3.New(ctx, "genomes",
//	    s3.WithPrefix("chr20/"),
//	    s3.WithRegion("eu-central-1"),
//	)
//
//	b, err := store.Open(ctx, "mutations.tsv.zst")
//
// Credentials and region default to the standard AWS configuration chain.
//
// # Features
//
//   - Range reads for efficient partial fetches
//   - Multipart uploads through the SDK upload manager
//   - CRC32C checksums on single-part writes
//   - Configurable prefix to keep several runs in one bucket
package s3

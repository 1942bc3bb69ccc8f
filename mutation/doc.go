// Package mutation provides mutation streams: finite, single-pass sequences
// of mutations with their carrier samples.
//
// # Iterators
//
//   - SliceIterator: In-memory records
//   - Reader: Tab-separated text, optionally zstd or LZ4 compressed
//
// End of stream is signalled by io.EOF.
//
// # Text Format
//
//	##samples=4
//	# position  ref  alt  carriers
//	1042	A	G	0,2,3
//	1077	C	T	.
//
// The carrier column is a comma separated list of sample IDs; "." or an empty
// column denotes a mutation without carriers. Lines starting with "#" are
// comments, except the "##samples=N" header which declares the sample count.
//
// Compressed input is detected from its magic bytes, so callers never need to
// know how a file was written.
package mutation

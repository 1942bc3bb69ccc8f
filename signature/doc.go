// Package signature provides genotype hashes: fixed-width bit-vector
// summaries of carrier-sample sets.
//
// A Signature is a single-hash Bloom filter. Every sample identifier is mixed
// through MurmurHash3 (x86, 32-bit) with a fixed seed and the resulting bit is
// set. Signatures only ever gain bits, so they summarize set membership with
// false positives but never false negatives.
//
// # Operations
//
//   - New: Build the signature of a carrier set
//   - Hamming: Count differing bits (a true metric over equal-width signatures)
//   - Intersect: Bucket-wise AND of two or more signatures
//
// # Usage
//
//	a := signature.New(carriers, signature.DefaultBuckets)
//	b := signature.New(other, signature.DefaultBuckets)
//	d := signature.Hamming(a, b)
//	subset := signature.Intersect(a, b).Equal(b) // b is plausibly a subset of a
//
// Comparing signatures with different bucket counts is a programming error and
// panics with a *MismatchError.
package signature

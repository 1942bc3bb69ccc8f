package signature

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math/bits"
	"slices"
	"strings"

	"github.com/twmb/murmur3"

	"github.com/hupe1980/grgmap/model"
)

const (
	// BucketBits is the width of a single bucket.
	BucketBits = 32

	// DefaultBuckets is the default number of buckets (1024 bits).
	DefaultBuckets = 32

	// HashSeed is the fixed MurmurHash3 seed.
	HashSeed uint32 = 1
)

// ErrTooFewSignatures is the panic value of Intersect when called with fewer
// than two signatures.
var ErrTooFewSignatures = errors.New("signature: intersection needs at least two signatures")

// MismatchError indicates that two signatures have different bucket counts.
type MismatchError struct {
	Expected int
	Actual   int
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("signature: bucket count mismatch: expected %d, got %d", e.Expected, e.Actual)
}

// Signature is a bit-array of len(sig)*BucketBits bits.
type Signature []uint32

// Zero returns the all-zero signature with numBuckets buckets.
func Zero(numBuckets int) Signature {
	return make(Signature, numBuckets)
}

// New returns the signature of carriers.
// The result does not depend on the order of carriers or on duplicates.
func New(carriers []model.SampleID, numBuckets int) Signature {
	sig := Zero(numBuckets)
	for _, s := range carriers {
		sig.add(s)
	}
	return sig
}

func (s Signature) add(sample model.SampleID) {
	if len(s) == 0 {
		return
	}
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], uint32(sample))
	h := murmur3.SeedSum32(HashSeed, buf[:])
	bit := uint64(h) % uint64(len(s)*BucketBits)
	s[bit/BucketBits] |= 1 << (bit % BucketBits)
}

// Buckets returns the number of buckets.
func (s Signature) Buckets() int {
	return len(s)
}

// Count returns the number of set bits.
func (s Signature) Count() int {
	n := 0
	for _, b := range s {
		n += bits.OnesCount32(b)
	}
	return n
}

// IsZero reports whether no bit is set.
func (s Signature) IsZero() bool {
	for _, b := range s {
		if b != 0 {
			return false
		}
	}
	return true
}

// Equal reports whether s and other have identical buckets.
func (s Signature) Equal(other Signature) bool {
	return slices.Equal(s, other)
}

// Clone returns a copy of s.
func (s Signature) Clone() Signature {
	return slices.Clone(s)
}

// String returns the buckets as space separated hex words.
func (s Signature) String() string {
	var sb strings.Builder
	for i, b := range s {
		if i > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "%08x", b)
	}
	return sb.String()
}

// Hamming returns the number of bit positions in which a and b differ.
// It panics with a *MismatchError if the bucket counts differ.
func Hamming(a, b Signature) int {
	if len(a) != len(b) {
		panic(&MismatchError{Expected: len(a), Actual: len(b)})
	}
	dist := 0
	for i := range a {
		dist += bits.OnesCount32(a[i] ^ b[i])
	}
	return dist
}

// Intersect returns the bucket-wise AND of sigs.
// It panics if fewer than two signatures are given or their bucket counts differ.
func Intersect(sigs ...Signature) Signature {
	if len(sigs) < 2 {
		panic(ErrTooFewSignatures)
	}
	result := sigs[0].Clone()
	for _, sig := range sigs[1:] {
		if len(sig) != len(result) {
			panic(&MismatchError{Expected: len(result), Actual: len(sig)})
		}
		for i := range sig {
			result[i] &= sig[i]
		}
	}
	return result
}

// Covers reports whether every bit of sub is also set in s, i.e. whether the
// set summarized by sub is plausibly a subset of the one summarized by s.
func (s Signature) Covers(sub Signature) bool {
	return Intersect(s, sub).Equal(sub)
}

package signature

import "github.com/hupe1980/grgmap/model"

// Builder accumulates samples into a signature of a given bit width.
type Builder struct {
	sig Signature
}

// NewBuilder returns a Builder for at least numBits bits, rounded up to whole
// buckets.
func NewBuilder(numBits int) *Builder {
	return &Builder{
		sig: Zero((numBits + BucketBits - 1) / BucketBits),
	}
}

// Add sets the bit of sample.
func (b *Builder) Add(sample model.SampleID) {
	b.sig.add(sample)
}

// AddAll sets the bits of all samples.
func (b *Builder) AddAll(samples []model.SampleID) {
	for _, s := range samples {
		b.sig.add(s)
	}
}

// Signature returns the accumulated signature. The builder keeps ownership.
func (b *Builder) Signature() Signature {
	return b.sig
}

// Steal returns the accumulated signature and resets the builder to an empty
// signature of the same width.
func (b *Builder) Steal() Signature {
	sig := b.sig
	b.sig = Zero(len(sig))
	return sig
}

package testutil

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/grgmap/signature"
)

func TestCarrierSet(t *testing.T) {
	rng := NewRNG(4711)

	set := rng.CarrierSet(12, 100)

	require.Len(t, set, 12)
	assert.True(t, slices.IsSorted(set))
	assert.Len(t, slices.Compact(slices.Clone(set)), 12, "samples must be distinct")
	for _, s := range set {
		assert.Less(t, uint32(s), uint32(100))
	}
}

func TestCarrierSet_Clamped(t *testing.T) {
	rng := NewRNG(4711)

	assert.Len(t, rng.CarrierSet(50, 10), 10)
}

func TestCarrierSets(t *testing.T) {
	rng := NewRNG(4711)

	sets := rng.CarrierSets(200, 32, 500)

	require.Len(t, sets, 200)
	for _, s := range sets {
		assert.GreaterOrEqual(t, len(s), 1)
		assert.LessOrEqual(t, len(s), 32)
	}
}

func TestReset(t *testing.T) {
	rng := NewRNG(4711)
	v1 := rng.CarrierSet(5, 1000)

	rng.Reset()
	v2 := rng.CarrierSet(5, 1000)

	assert.Equal(t, v1, v2)
	assert.Equal(t, int64(4711), rng.Seed())
}

func TestExactNearest(t *testing.T) {
	a := signature.Signature{0b0001}
	b := signature.Signature{0b0011}
	c := signature.Signature{0b0111}

	ids, d := ExactNearest(signature.Signature{0b0010}, []signature.Signature{a, b, c})
	assert.Equal(t, 1, d)
	assert.Equal(t, []int{1}, ids)

	ids, d = ExactNearest(signature.Signature{0b0101}, []signature.Signature{a, b, c})
	assert.Equal(t, 1, d)
	assert.Equal(t, []int{0, 2}, ids)

	ids, d = ExactNearest(a, nil)
	assert.Nil(t, ids)
	assert.Equal(t, -1, d)
}

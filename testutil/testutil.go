package testutil

import (
	"math"
	"math/rand"
	"slices"
	"sync"

	"github.com/hupe1980/grgmap/model"
	"github.com/hupe1980/grgmap/signature"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Uint64 returns a pseudo-random uint64.
func (r *RNG) Uint64() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Uint64()
}

// Shuffle returns a shuffled copy of samples.
func (r *RNG) Shuffle(samples []model.SampleID) []model.SampleID {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := slices.Clone(samples)
	r.rand.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

// CarrierSet returns size distinct samples drawn from [0, numSamples), sorted
// ascending. size is clamped to numSamples.
func (r *RNG) CarrierSet(size, numSamples int) []model.SampleID {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.carrierSetLocked(size, numSamples)
}

func (r *RNG) carrierSetLocked(size, numSamples int) []model.SampleID {
	size = min(size, numSamples)
	perm := r.rand.Perm(numSamples)[:size]
	out := make([]model.SampleID, size)
	for i, p := range perm {
		out[i] = model.SampleID(p)
	}
	slices.Sort(out)
	return out
}

// CarrierSets generates num carrier sets whose sizes follow a Zipf law in
// [1, maxSize], mimicking a site frequency spectrum dominated by rare variants.
func (r *RNG) CarrierSets(num, maxSize, numSamples int) [][]model.SampleID {
	r.mu.Lock()
	defer r.mu.Unlock()

	sets := make([][]model.SampleID, num)
	for i := range num {
		size := r.zipfLocked(maxSize, 1.2) + 1
		sets[i] = r.carrierSetLocked(size, numSamples)
	}
	return sets
}

// Zipf returns a Zipfian-distributed value in [0, n).
// Uses Zipf's law: P(k) ∝ 1/k^s where s is the skew parameter.
func (r *RNG) Zipf(n int, s float64) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.zipfLocked(n, s)
}

// zipfLocked is the internal implementation (caller must hold lock).
func (r *RNG) zipfLocked(n int, s float64) int {
	if n <= 1 {
		return 0
	}

	var hns float64
	for i := 1; i <= n; i++ {
		hns += 1.0 / math.Pow(float64(i), s)
	}

	u := r.rand.Float64() * hns
	var cumulative float64
	for k := 1; k <= n; k++ {
		cumulative += 1.0 / math.Pow(float64(k), s)
		if u <= cumulative {
			return k - 1
		}
	}

	return n - 1
}

// ExactNearest scans sigs linearly and returns the indexes of all signatures
// at the minimum Hamming distance to query, together with that distance.
// It returns nil, -1 for an empty input.
func ExactNearest(query signature.Signature, sigs []signature.Signature) ([]int, int) {
	best := -1
	var ids []int
	for i, s := range sigs {
		d := signature.Hamming(query, s)
		switch {
		case best < 0 || d < best:
			best = d
			ids = append(ids[:0], i)
		case d == best:
			ids = append(ids, i)
		}
	}
	return ids, best
}

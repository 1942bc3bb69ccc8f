// Package testutil provides testing utilities for grgmap.
//
// This package is intended for use in tests and benchmarks only.
// It provides helpers for generating random carrier sets, computing exact
// nearest neighbors over signatures, and building reproducible fixtures.
//
// # Random Carrier Sets
//
//	rng := testutil.NewRNG(seed)
//	carriers := rng.CarrierSet(12, 1000)          // 12 distinct samples of 1000
//	sets := rng.CarrierSets(500, 64, 1000)        // 500 sets, sizes Zipf-skewed up to 64
//
// # Exact Search (Ground Truth)
//
//	ids, dist := testutil.ExactNearest(query, sigs)
package testutil

// Package graph provides an in-memory, mutable Genotype Representation Graph.
//
// Nodes denote sets of samples. The first NumSamples nodes are the sample
// leaves; every other node reaches a set of leaves through its children, and
// that set is the node's carrier set. Mutations are attached to the node whose
// carrier set equals the set of samples carrying them.
//
// Edges always point from a newer node to an older one (child < parent),
// which keeps the graph acyclic by construction.
//
// Carrier sets are materialized as roaring bitmaps on demand and kept in an
// LRU cache. Adding an edge invalidates the cached sets of the parent and all
// of its ancestors.
package graph

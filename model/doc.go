// Package model defines core types used throughout grgmap.
//
// # Identity Types
//
//   - SampleID: Haplotype/sample identifier assigned by the dataset (uint32)
//   - NodeID: Graph node identifier owned by the graph (uint32)
//
// Sample leaf nodes occupy the first NodeIDs of a graph, so the leaf of
// sample s is NodeID(s). SampleNode and NodeID.Sample convert between the two.
//
// # Data Types
//
//   - Mutation: Variant descriptor (position, reference and alternate allele)
package model

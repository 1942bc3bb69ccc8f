// Package gthash indexes graph nodes by the genotype hash (signature) of
// their carrier sets.
//
// The index is a BK-tree keyed by NodeID whose metric is the Hamming distance
// between the nodes' signatures. Signatures are bound to NodeIDs in a side
// table; Add inserts a bound node into the tree. Queries return the nodes at
// the minimum distance to a target, either one of them or all ties.
package gthash

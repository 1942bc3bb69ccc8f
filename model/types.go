package model

import (
	"fmt"
	"math"
)

// SampleID identifies one haplotype/sample in the dataset.
type SampleID uint32

// NodeID identifies a node in the genotype representation graph.
type NodeID uint32

// InvalidNodeID is returned when no node applies.
const InvalidNodeID NodeID = math.MaxUint32

// SampleNode returns the leaf node of sample s.
func SampleNode(s SampleID) NodeID {
	return NodeID(s)
}

// Sample returns the sample whose leaf is n.
// It is only meaningful when n is a sample leaf.
func (n NodeID) Sample() SampleID {
	return SampleID(n)
}

// IsValid reports whether n refers to a node.
func (n NodeID) IsValid() bool {
	return n != InvalidNodeID
}

// String returns a string representation of the NodeID.
func (n NodeID) String() string {
	if n == InvalidNodeID {
		return "Node(invalid)"
	}
	return fmt.Sprintf("Node(%d)", uint32(n))
}

// Mutation describes a single variant.
type Mutation struct {
	Position uint64
	Ref      string
	Alt      string
}

// String returns a string representation of the Mutation.
func (m Mutation) String() string {
	return fmt.Sprintf("%d:%s>%s", m.Position, m.Ref, m.Alt)
}

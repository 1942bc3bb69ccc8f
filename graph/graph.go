package graph

import (
	"errors"
	"fmt"
	"sync"

	"github.com/RoaringBitmap/roaring/v2"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/hupe1980/grgmap/model"
)

// DefaultCarrierCacheSize is the default number of cached carrier sets.
const DefaultCarrierCacheSize = 16384

var (
	// ErrNodeNotFound is returned when a node does not exist.
	ErrNodeNotFound = errors.New("graph: node not found")
	// ErrInvalidEdge is returned for edges that would break the DAG invariants.
	ErrInvalidEdge = errors.New("graph: invalid edge")
)

// MutationEntry is a mutation attached to a node.
type MutationEntry struct {
	Mutation model.Mutation
	Node     model.NodeID
}

// Options configures a MutableGRG.
type Options struct {
	// CarrierCacheSize bounds the number of cached carrier sets.
	CarrierCacheSize int
}

// DefaultOptions contains the default options.
var DefaultOptions = Options{
	CarrierCacheSize: DefaultCarrierCacheSize,
}

// MutableGRG is an in-memory graph. It is safe for concurrent use.
type MutableGRG struct {
	mu         sync.RWMutex
	numSamples int
	children   [][]model.NodeID
	parents    [][]model.NodeID
	numEdges   int
	mutations  []MutationEntry

	carriers *lru.Cache[model.NodeID, *roaring.Bitmap]
}

// New creates a graph holding one leaf per sample.
func New(numSamples int, optFns ...func(o *Options)) (*MutableGRG, error) {
	if numSamples < 0 {
		return nil, fmt.Errorf("graph: invalid sample count %d", numSamples)
	}
	opts := DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.CarrierCacheSize <= 0 {
		opts.CarrierCacheSize = DefaultCarrierCacheSize
	}

	cache, err := lru.New[model.NodeID, *roaring.Bitmap](opts.CarrierCacheSize)
	if err != nil {
		return nil, err
	}

	return &MutableGRG{
		numSamples: numSamples,
		children:   make([][]model.NodeID, numSamples),
		parents:    make([][]model.NodeID, numSamples),
		carriers:   cache,
	}, nil
}

// NumSamples returns the number of sample leaves.
func (g *MutableGRG) NumSamples() int {
	return g.numSamples
}

// NumNodes returns the number of nodes, sample leaves included.
func (g *MutableGRG) NumNodes() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.children)
}

// NumEdges returns the number of edges.
func (g *MutableGRG) NumEdges() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.numEdges
}

// IsSample reports whether id is a sample leaf.
func (g *MutableGRG) IsSample(id model.NodeID) bool {
	return int64(id) < int64(g.numSamples)
}

// CreateNode adds a node without edges and returns its ID.
func (g *MutableGRG) CreateNode() model.NodeID {
	g.mu.Lock()
	defer g.mu.Unlock()
	id := model.NodeID(len(g.children))
	g.children = append(g.children, nil)
	g.parents = append(g.parents, nil)
	return id
}

// NodeExists reports whether id is a node of the graph.
func (g *MutableGRG) NodeExists(id model.NodeID) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.existsLocked(id)
}

func (g *MutableGRG) existsLocked(id model.NodeID) bool {
	return id.IsValid() && int64(id) < int64(len(g.children))
}

// AddEdge adds an edge from parent down to child. Sample leaves cannot have
// children and child must be older than parent.
func (g *MutableGRG) AddEdge(parent, child model.NodeID) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.existsLocked(parent) {
		return fmt.Errorf("%w: parent %v", ErrNodeNotFound, parent)
	}
	if !g.existsLocked(child) {
		return fmt.Errorf("%w: child %v", ErrNodeNotFound, child)
	}
	if g.IsSample(parent) {
		return fmt.Errorf("%w: sample leaf %v cannot have children", ErrInvalidEdge, parent)
	}
	if child >= parent {
		return fmt.Errorf("%w: %v -> %v", ErrInvalidEdge, parent, child)
	}

	g.children[parent] = append(g.children[parent], child)
	g.parents[child] = append(g.parents[child], parent)
	g.numEdges++
	g.invalidateLocked(parent)
	return nil
}

// invalidateLocked drops the cached carrier sets of id and its ancestors.
func (g *MutableGRG) invalidateLocked(id model.NodeID) {
	stack := []model.NodeID{id}
	seen := map[model.NodeID]struct{}{id: {}}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		g.carriers.Remove(n)
		for _, p := range g.parents[n] {
			if _, ok := seen[p]; !ok {
				seen[p] = struct{}{}
				stack = append(stack, p)
			}
		}
	}
}

// Children returns a copy of the children of id.
func (g *MutableGRG) Children(id model.NodeID) []model.NodeID {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if !g.existsLocked(id) {
		return nil
	}
	return append([]model.NodeID(nil), g.children[id]...)
}

// Parents returns a copy of the parents of id.
func (g *MutableGRG) Parents(id model.NodeID) []model.NodeID {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if !g.existsLocked(id) {
		return nil
	}
	return append([]model.NodeID(nil), g.parents[id]...)
}

// Carriers returns the carrier set of id as a bitmap of sample IDs.
// The bitmap is shared with the cache and must not be modified.
func (g *MutableGRG) Carriers(id model.NodeID) (*roaring.Bitmap, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if !g.existsLocked(id) {
		return nil, fmt.Errorf("%w: %v", ErrNodeNotFound, id)
	}
	return g.carriersLocked(id), nil
}

func (g *MutableGRG) carriersLocked(id model.NodeID) *roaring.Bitmap {
	if bm, ok := g.carriers.Get(id); ok {
		return bm
	}
	bm := roaring.New()
	if g.IsSample(id) {
		bm.Add(uint32(id))
	} else {
		for _, c := range g.children[id] {
			bm.Or(g.carriersLocked(c))
		}
	}
	bm.RunOptimize()
	g.carriers.Add(id, bm)
	return bm
}

// CarrierSet returns the samples reachable from id in ascending order.
// It returns nil for unknown nodes.
func (g *MutableGRG) CarrierSet(id model.NodeID) []model.SampleID {
	bm, err := g.Carriers(id)
	if err != nil {
		return nil
	}
	out := make([]model.SampleID, 0, bm.GetCardinality())
	it := bm.Iterator()
	for it.HasNext() {
		out = append(out, model.SampleID(it.Next()))
	}
	return out
}

// AttachMutation records that mutation m is carried by the samples of id.
func (g *MutableGRG) AttachMutation(m model.Mutation, id model.NodeID) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.existsLocked(id) {
		return fmt.Errorf("%w: %v", ErrNodeNotFound, id)
	}
	g.mutations = append(g.mutations, MutationEntry{Mutation: m, Node: id})
	return nil
}

// Mutations returns a copy of all attached mutations in attachment order.
func (g *MutableGRG) Mutations() []MutationEntry {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return append([]MutationEntry(nil), g.mutations...)
}

// NumMutations returns the number of attached mutations.
func (g *MutableGRG) NumMutations() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.mutations)
}

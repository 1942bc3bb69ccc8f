package gthash

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/hupe1980/grgmap/internal/bktree"
	"github.com/hupe1980/grgmap/model"
	"github.com/hupe1980/grgmap/signature"
)

// ErrUnbound is returned when a node has no signature bound to it.
var ErrUnbound = errors.New("gthash: node has no bound signature")

// Stats is a snapshot of the index state.
type Stats struct {
	Entries     int
	Tombstones  int
	Depth       int
	Comparisons uint64
}

// Index is a similarity index over node signatures. It is safe for
// concurrent use: queries share a read lock, mutations take the write lock.
type Index struct {
	mu         sync.RWMutex
	numBuckets int
	sigs       map[model.NodeID]signature.Signature
	tree       *bktree.Tree[model.NodeID]
}

// New creates an empty index for signatures of numBuckets buckets.
func New(numBuckets int) *Index {
	idx := &Index{
		numBuckets: numBuckets,
		sigs:       make(map[model.NodeID]signature.Signature),
	}
	idx.tree = bktree.New(idx.distance)
	return idx
}

// distance is only called with the lock held.
func (idx *Index) distance(a, b model.NodeID) int {
	return signature.Hamming(idx.sigs[a], idx.sigs[b])
}

// Buckets returns the signature width in buckets.
func (idx *Index) Buckets() int {
	return idx.numBuckets
}

// Bind associates sig with id. Binding does not make id searchable; call Add.
// Rebinding a node that is already in the tree under a different signature
// moves it: the stale entry is purged and a live node is reinserted at its
// new position, a removed one stays removed.
// It panics with a *signature.MismatchError if sig has the wrong width.
func (idx *Index) Bind(id model.NodeID, sig signature.Signature) {
	if len(sig) != idx.numBuckets {
		panic(&signature.MismatchError{Expected: idx.numBuckets, Actual: len(sig)})
	}
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.bindLocked(id, sig)
}

func (idx *Index) bindLocked(id model.NodeID, sig signature.Signature) {
	old, bound := idx.sigs[id]
	if !bound || old.Equal(sig) {
		idx.sigs[id] = sig
		return
	}

	// Tree edges were weighted with the old signature.
	live := idx.tree.Contains(id)
	idx.tree.Purge(id)
	idx.sigs[id] = sig
	if live {
		idx.tree.Insert(id)
	}
}

// Signature returns the signature bound to id.
func (idx *Index) Signature(id model.NodeID) (signature.Signature, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	sig, ok := idx.sigs[id]
	return sig, ok
}

// Add inserts the bound node id into the index.
func (idx *Index) Add(id model.NodeID) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	return idx.addLocked(id)
}

func (idx *Index) addLocked(id model.NodeID) error {
	if _, ok := idx.sigs[id]; !ok {
		return fmt.Errorf("%w: %v", ErrUnbound, id)
	}
	idx.tree.Insert(id)
	return nil
}

// Insert binds sig to id and adds it in one step.
func (idx *Index) Insert(id model.NodeID, sig signature.Signature) error {
	if len(sig) != idx.numBuckets {
		panic(&signature.MismatchError{Expected: idx.numBuckets, Actual: len(sig)})
	}
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.bindLocked(id, sig)
	return idx.addLocked(id)
}

// Remove deletes id from the index and reports whether it was present.
// The signature binding is kept so the node can be added again.
func (idx *Index) Remove(id model.NodeID) bool {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	return idx.tree.Remove(id)
}

// Contains reports whether id is searchable.
func (idx *Index) Contains(id model.NodeID) bool {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.tree.Contains(id)
}

// Len returns the number of indexed nodes.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.tree.Len()
}

// Comparisons returns the number of signature comparisons done by queries.
func (idx *Index) Comparisons() uint64 {
	return idx.tree.Comparisons()
}

// GetMostSimilarNodes returns the indexed nodes other than id closest to the
// signature bound to id. With collectAll it returns every node at the minimum
// distance, otherwise just the first one found. The result is empty when no
// other node is indexed or id is unbound.
func (idx *Index) GetMostSimilarNodes(id model.NodeID, collectAll bool) []model.NodeID {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	target, ok := idx.sigs[id]
	if !ok {
		return nil
	}
	nodes, _ := idx.nearestLocked(target, func(n model.NodeID) bool { return n == id }, collectAll)
	return nodes
}

// MostSimilarTo is GetMostSimilarNodes for a signature that is not bound to
// any node. It also returns the minimum distance, or -1 if the index is empty.
func (idx *Index) MostSimilarTo(target signature.Signature, collectAll bool) ([]model.NodeID, int) {
	if len(target) != idx.numBuckets {
		panic(&signature.MismatchError{Expected: idx.numBuckets, Actual: len(target)})
	}
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.nearestLocked(target, nil, collectAll)
}

func (idx *Index) nearestLocked(target signature.Signature, exclude func(model.NodeID) bool, collectAll bool) ([]model.NodeID, int) {
	return idx.tree.Nearest(func(n model.NodeID) int {
		return signature.Hamming(target, idx.sigs[n])
	}, exclude, collectAll)
}

// Stats returns a snapshot of the index state.
func (idx *Index) Stats() Stats {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return Stats{
		Entries:     idx.tree.Len(),
		Tombstones:  idx.tree.Tombstones(),
		Depth:       idx.tree.Depth(),
		Comparisons: idx.tree.Comparisons(),
	}
}

// LogStats writes the index statistics to logger at info level.
func (idx *Index) LogStats(ctx context.Context, logger *slog.Logger) {
	s := idx.Stats()
	logger.InfoContext(ctx, "index stats",
		"entries", s.Entries,
		"tombstones", s.Tombstones,
		"depth", s.Depth,
		"comparisons", s.Comparisons,
	)
}

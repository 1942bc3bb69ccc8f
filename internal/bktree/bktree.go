package bktree

import (
	"cmp"
	"math"
	"slices"
	"sync/atomic"
)

// minRebuildTombstones is the smallest tombstone count that triggers a rebuild.
const minRebuildTombstones = 64

// DistanceFunc returns the distance between two keys.
type DistanceFunc[K comparable] func(a, b K) int

type edge[K comparable] struct {
	weight int
	child  *node[K]
}

type node[K comparable] struct {
	key      K
	deleted  bool
	children []edge[K] // sorted by weight
}

func (n *node[K]) child(weight int) (int, bool) {
	return slices.BinarySearchFunc(n.children, weight, func(e edge[K], w int) int {
		return cmp.Compare(e.weight, w)
	})
}

// Tree is a BK-tree keyed by K.
type Tree[K comparable] struct {
	dist       DistanceFunc[K]
	root       *node[K]
	nodes      map[K]*node[K]
	live       int
	tombstones int

	comparisons atomic.Uint64
}

// New creates an empty tree using dist as the metric.
func New[K comparable](dist DistanceFunc[K]) *Tree[K] {
	return &Tree[K]{
		dist:  dist,
		nodes: make(map[K]*node[K]),
	}
}

// Len returns the number of live keys.
func (t *Tree[K]) Len() int {
	return t.live
}

// Tombstones returns the number of removed keys still held as pivots.
func (t *Tree[K]) Tombstones() int {
	return t.tombstones
}

// Contains reports whether key is live in the tree.
func (t *Tree[K]) Contains(key K) bool {
	n, ok := t.nodes[key]
	return ok && !n.deleted
}

// Comparisons returns the number of distance evaluations performed by
// searches so far.
func (t *Tree[K]) Comparisons() uint64 {
	return t.comparisons.Load()
}

// Insert adds key to the tree. Inserting a live key is a no-op; inserting a
// removed key revives it in place, which is only valid while its distances to
// the other keys are unchanged. Call Purge before moving a key in the metric.
func (t *Tree[K]) Insert(key K) {
	if n, ok := t.nodes[key]; ok {
		if n.deleted {
			n.deleted = false
			t.tombstones--
			t.live++
		}
		return
	}

	n := &node[K]{key: key}
	t.nodes[key] = n
	t.live++

	if t.root == nil {
		t.root = n
		return
	}

	cur := t.root
	for {
		d := t.dist(key, cur.key)
		i, found := cur.child(d)
		if !found {
			cur.children = slices.Insert(cur.children, i, edge[K]{weight: d, child: n})
			return
		}
		cur = cur.children[i].child
	}
}

// Remove deletes key from the tree and reports whether it was present.
// Removing an absent key leaves the tree untouched.
func (t *Tree[K]) Remove(key K) bool {
	n, ok := t.nodes[key]
	if !ok || n.deleted {
		return false
	}
	n.deleted = true
	t.live--
	t.tombstones++

	if t.tombstones >= minRebuildTombstones && t.tombstones > t.live {
		t.rebuild(t.Keys())
	}
	return true
}

// Purge drops key from the tree entirely, live or removed, and reports whether
// it was held. The remaining live keys are reinserted, so tombstones are
// cleared as well.
func (t *Tree[K]) Purge(key K) bool {
	if _, ok := t.nodes[key]; !ok {
		return false
	}
	keys := slices.DeleteFunc(t.Keys(), func(k K) bool { return k == key })
	t.rebuild(keys)
	return true
}

// Keys returns the live keys in depth-first order.
func (t *Tree[K]) Keys() []K {
	keys := make([]K, 0, t.live)
	t.walk(func(n *node[K]) {
		if !n.deleted {
			keys = append(keys, n.key)
		}
	})
	return keys
}

// Depth returns the number of levels in the tree.
func (t *Tree[K]) Depth() int {
	var depth func(n *node[K]) int
	depth = func(n *node[K]) int {
		if n == nil {
			return 0
		}
		best := 0
		for _, e := range n.children {
			best = max(best, depth(e.child))
		}
		return best + 1
	}
	return depth(t.root)
}

func (t *Tree[K]) walk(fn func(n *node[K])) {
	if t.root == nil {
		return
	}
	stack := []*node[K]{t.root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		fn(n)
		for i := len(n.children) - 1; i >= 0; i-- {
			stack = append(stack, n.children[i].child)
		}
	}
}

func (t *Tree[K]) rebuild(keys []K) {
	t.root = nil
	t.nodes = make(map[K]*node[K], len(keys))
	t.live = 0
	t.tombstones = 0
	for _, k := range keys {
		t.Insert(k)
	}
}

// frame is a pending subtree visit. The subtree hangs off an edge of weight w
// below a parent at distance d from the query.
type frame[K comparable] struct {
	n    *node[K]
	d, w int
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// Nearest searches for the live keys closest to a query.
//
// distTo returns the distance from the query to a key. Keys for which exclude
// returns true are never reported but still guide the search. The first pass
// finds the minimum distance D and one key at that distance. With collectAll,
// a second pass returns every key at distance D. The traversal is depth-first,
// descending the edge closest to the query distance first, so results are
// deterministic for a fixed tree. It returns nil and -1 if no key qualifies.
func (t *Tree[K]) Nearest(distTo func(K) int, exclude func(K) bool, collectAll bool) ([]K, int) {
	if t.root == nil || t.live == 0 {
		return nil, -1
	}

	best := math.MaxInt
	var found K
	ok := false

	t.search(distTo, func(d, w int) bool {
		return abs(w-d) < best
	}, func(n *node[K], d int) {
		if d < best && !n.deleted && (exclude == nil || !exclude(n.key)) {
			best = d
			found = n.key
			ok = true
		}
	})

	if !ok {
		return nil, -1
	}
	if !collectAll {
		return []K{found}, best
	}

	var ties []K
	t.search(distTo, func(d, w int) bool {
		return abs(w-d) <= best
	}, func(n *node[K], d int) {
		if d == best && !n.deleted && (exclude == nil || !exclude(n.key)) {
			ties = append(ties, n.key)
		}
	})
	return ties, best
}

func (t *Tree[K]) search(distTo func(K) int, visit func(d, w int) bool, fn func(n *node[K], d int)) {
	stack := []frame[K]{{n: t.root}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if f.n != t.root && !visit(f.d, f.w) {
			continue
		}

		d := distTo(f.n.key)
		t.comparisons.Add(1)
		fn(f.n, d)

		// Push in reverse so the edge closest to d is popped first.
		order := f.n.closestFirst(d)
		for i := len(order) - 1; i >= 0; i-- {
			e := f.n.children[order[i]]
			if visit(d, e.weight) {
				stack = append(stack, frame[K]{n: e.child, d: d, w: e.weight})
			}
		}
	}
}

// closestFirst returns child indexes ordered by |weight-d|, ties broken by
// the smaller weight.
func (n *node[K]) closestFirst(d int) []int {
	order := make([]int, 0, len(n.children))
	right, _ := n.child(d)
	left := right - 1
	for left >= 0 || right < len(n.children) {
		switch {
		case left < 0:
			order = append(order, right)
			right++
		case right >= len(n.children):
			order = append(order, left)
			left--
		case d-n.children[left].weight <= n.children[right].weight-d:
			order = append(order, left)
			left--
		default:
			order = append(order, right)
			right++
		}
	}
	return order
}

// Package bktree implements a Burkhard-Keller tree, a metric tree over an
// integer-valued distance.
//
// The tree is generic over the key type; the distance is injected and must be
// a metric (non-negative, symmetric, zero on identical keys, triangle
// inequality). Every child edge is labelled with the distance between the
// child and its parent, so all keys below the edge labelled w lie at distance
// exactly w from the parent. Searches use the triangle inequality to skip
// subtrees that cannot contain a closer key.
//
// # Deletion
//
// Removal is lazy: the node stays in the tree as a routing pivot and is marked
// as a tombstone. Once tombstones outnumber live keys the tree is rebuilt
// from the live keys.
//
// # Concurrency
//
// Nearest may run concurrently with other Nearest calls. Insert and Remove
// require exclusive access.
package bktree

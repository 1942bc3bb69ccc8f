// Package mapper places mutations onto a genotype representation graph.
//
// For every mutation the mapper computes the carrier signature, asks the
// similarity index for the closest existing nodes and decides between
// reusing a node exactly, extending an existing subset node, or creating a
// fresh node with direct edges to the carriers. Newly created nodes are
// registered with the index so later mutations can reuse them.
//
// Mapping runs on a pool of workers. Each worker maps whole batches; the
// decide, mutate graph and mutate index steps for one mutation run inside a
// single critical section.
package mapper

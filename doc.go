// Package grgmap maps mutations onto a genotype representation graph (GRG).
//
// A GRG is a DAG whose leaves are sample haplotypes. Every internal node
// stands for the set of samples reachable from it, and every mutation is
// attached to the node whose carrier set equals the mutation's carriers.
// Mapping a stream of mutations therefore means finding or building one
// node per distinct carrier set while reusing as much of the graph as
// possible.
//
// grgmap keeps a similarity index of genotype hash signatures for the nodes
// it creates. For each mutation it looks up the closest existing nodes and
// decides between:
//
//   - exact reuse: a node with the same carriers already exists
//   - partial reuse: a node covering a strict subset exists; a new node is
//     built on top of it with direct edges to the remaining carriers
//   - a new node with direct edges to every carrier
//
// Mutations with no carriers are counted and dropped; mutations with a
// single carrier are attached to that sample's leaf.
//
// # Quick Start
//
//	ctx := context.Background()
//	g, _ := graph.New(numSamples)
//
//	r, _ := mutation.NewReader(file) // plain, zstd or lz4
//	defer r.Close()
//
//	m, _ := grgmap.New(g,
//	    grgmap.WithWorkers(4),
//	    grgmap.WithLogger(grgmap.NewJSONLogger(slog.LevelInfo)),
//	)
//	report, err := m.Map(ctx, r)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	report.Print(os.Stdout)
//
// # Concurrency
//
// Workers map disjoint batches of the input. Graph and index updates for a
// single mutation happen inside one critical section, so two workers never
// create duplicate nodes for the same carrier set. The statistics in
// Report are only consistent once Map has returned.
//
// # Metrics
//
// WithMetricsCollector hooks a MetricsCollector into every run. The metrics
// package provides a Prometheus implementation.
package grgmap

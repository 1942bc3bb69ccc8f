package mapper

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/grgmap/graph"
	"github.com/hupe1980/grgmap/model"
	"github.com/hupe1980/grgmap/mutation"
	"github.com/hupe1980/grgmap/testutil"
)

const testSamples = 16

func rec(pos uint64, carriers ...model.SampleID) mutation.Record {
	return mutation.Record{
		Mutation: model.Mutation{Position: pos, Ref: "A", Alt: "G"},
		Carriers: carriers,
	}
}

func newTestMapper(t *testing.T, numSamples int, optFns ...func(o *Options)) (*Mapper, *graph.MutableGRG) {
	t.Helper()
	g, err := graph.New(numSamples)
	require.NoError(t, err)
	m, err := New(g, optFns...)
	require.NoError(t, err)
	return m, g
}

func run(t *testing.T, m *Mapper, recs ...mutation.Record) Report {
	t.Helper()
	report, err := m.Run(context.Background(), mutation.NewSliceIterator(recs))
	require.NoError(t, err)
	return report
}

func TestNew(t *testing.T) {
	_, err := New(nil)
	require.ErrorIs(t, err, ErrNilGraph)

	g, err := graph.New(testSamples)
	require.NoError(t, err)

	_, err = New(g, func(o *Options) { o.NumBuckets = 0 })
	require.Error(t, err)

	m, err := New(g, func(o *Options) {
		o.Workers = -1
		o.BatchSize = 0
		o.HaplotypeIndex = "haps"
	})
	require.NoError(t, err)
	assert.Equal(t, 1, m.opts.Workers)
	assert.Equal(t, DefaultBatchSize, m.opts.BatchSize)
	assert.Equal(t, "haps", m.HaplotypeIndex())
	assert.Equal(t, 0, m.Index().Len())
}

func TestMap_EmptyMutation(t *testing.T) {
	m, g := newTestMapper(t, testSamples)

	report := run(t, m, rec(1))

	assert.Equal(t, uint64(1), report.TotalMutations)
	assert.Equal(t, uint64(1), report.EmptyMutations)
	assert.Equal(t, uint64(0), report.NewTreeNodes)
	assert.Equal(t, testSamples, g.NumNodes())
	assert.Equal(t, 0, g.NumMutations())
}

func TestMap_Singleton(t *testing.T) {
	m, g := newTestMapper(t, testSamples)

	report := run(t, m, rec(1, 7))

	assert.Equal(t, uint64(1), report.TotalMutations)
	assert.Equal(t, uint64(1), report.MutationsWithOneSample)
	assert.Equal(t, uint64(1), report.SingletonSampleEdges)
	assert.Equal(t, uint64(0), report.NewTreeNodes)
	assert.Equal(t, uint64(1), report.NumWithSingletons)
	assert.Equal(t, uint64(1), report.MaxSingletons)
	assert.Equal(t, testSamples, g.NumNodes())

	muts := g.Mutations()
	require.Len(t, muts, 1)
	assert.Equal(t, model.SampleNode(7), muts[0].Node)
}

func TestMap_DuplicateCarriersCollapse(t *testing.T) {
	m, g := newTestMapper(t, testSamples)

	res, err := m.MapMutation(rec(1, 4, 4, 4))
	require.NoError(t, err)
	assert.Equal(t, OutcomeSingleton, res.Outcome)
	assert.Equal(t, model.SampleNode(4), res.Node)
	assert.Equal(t, testSamples, g.NumNodes())
}

func TestMap_ExactReuse(t *testing.T) {
	m, g := newTestMapper(t, testSamples)

	first, err := m.MapMutation(rec(1, 3, 5, 9))
	require.NoError(t, err)
	assert.Equal(t, OutcomeNewNode, first.Outcome)
	assert.Equal(t, 0, first.Candidates)

	second, err := m.MapMutation(rec(2, 9, 3, 5))
	require.NoError(t, err)
	assert.Equal(t, OutcomeExactReuse, second.Outcome)
	assert.Equal(t, first.Node, second.Node)
	assert.Equal(t, 3, second.Coverage)

	report := m.Stats().Snapshot()
	assert.Equal(t, uint64(2), report.TotalMutations)
	assert.Equal(t, uint64(1), report.NewTreeNodes)
	assert.Equal(t, uint64(1), report.MutationsWithNoCandidates)
	assert.Equal(t, uint64(1), report.ReusedNodes)
	assert.Equal(t, uint64(1), report.ReusedExactly)
	assert.Equal(t, uint64(3), report.ReusedNodeCoverage)
	assert.Equal(t, uint64(6), report.SamplesProcessed)
	assert.Equal(t, uint64(1), report.ReuseSizeHist[3])

	assert.Equal(t, testSamples+1, g.NumNodes())
	assert.Equal(t, []model.SampleID{3, 5, 9}, g.CarrierSet(first.Node))
	assert.Equal(t, 2, g.NumMutations())
}

func TestMap_PartialReuse(t *testing.T) {
	m, g := newTestMapper(t, testSamples)

	base, err := m.MapMutation(rec(1, 3, 5, 9))
	require.NoError(t, err)

	ext, err := m.MapMutation(rec(2, 3, 5, 9, 12))
	require.NoError(t, err)
	assert.Equal(t, OutcomePartialReuse, ext.Outcome)
	assert.NotEqual(t, base.Node, ext.Node)

	assert.Equal(t, []model.NodeID{base.Node, model.SampleNode(12)}, g.Children(ext.Node))
	assert.Equal(t, []model.SampleID{3, 5, 9, 12}, g.CarrierSet(ext.Node))

	report := m.Stats().Snapshot()
	assert.Equal(t, uint64(1), report.ReusedMutNodes)
	assert.Equal(t, uint64(2), report.NewTreeNodes)
	assert.Equal(t, uint64(0), report.ReusedNodes)
	assert.Equal(t, uint64(0), report.ReusedExactly)
	assert.True(t, m.Index().Contains(ext.Node))
}

func TestMap_NestedCarrierSets(t *testing.T) {
	m, g := newTestMapper(t, 64)

	recs := []mutation.Record{
		rec(1, 1, 2),
		rec(2, 1, 2, 3, 4),
		rec(3, 1, 2, 3, 4, 5, 6),
	}
	for _, r := range recs {
		res, err := m.MapMutation(r)
		require.NoError(t, err)
		assert.Equal(t, r.Carriers, g.CarrierSet(res.Node))
		if res.Outcome == OutcomePartialReuse {
			child := g.Children(res.Node)[0]
			sub := g.CarrierSet(child)
			assert.Less(t, len(sub), len(r.Carriers))
			for _, s := range sub {
				assert.Contains(t, r.Carriers, s)
			}
		}
	}
}

func TestMap_SampleOutOfRange(t *testing.T) {
	m, _ := newTestMapper(t, testSamples)

	for _, r := range []mutation.Record{rec(1, testSamples), rec(2, 1, 2, testSamples+3)} {
		_, err := m.MapMutation(r)
		var oor *ErrSampleOutOfRange
		require.ErrorAs(t, err, &oor)
		assert.Equal(t, testSamples, oor.NumSamples)
	}

	report := m.Stats().Snapshot()
	assert.Equal(t, uint64(0), report.TotalMutations, "rejected mutations are not counted")
	assert.Equal(t, uint64(0), report.NewTreeNodes)

	_, err := m.MapMutation(rec(3, 1, 2))
	require.NoError(t, err)
	assert.Equal(t, uint64(1), m.Stats().Snapshot().TotalMutations)
}

func TestRun_Groups(t *testing.T) {
	m, _ := newTestMapper(t, testSamples, func(o *Options) { o.BatchSize = 2 })

	report := run(t, m,
		rec(1, 1), rec(2, 2), // two singletons
		rec(3, 3, 4), rec(4, 5), // one singleton
		rec(5), // none
	)

	assert.Equal(t, uint64(5), report.TotalMutations)
	assert.Equal(t, uint64(3), report.SingletonSampleEdges)
	assert.Equal(t, uint64(2), report.NumWithSingletons)
	assert.Equal(t, uint64(2), report.MaxSingletons)
	assert.InDelta(t, 1.5, report.AvgSingletons(), 1e-9)
}

type recordingObserver struct {
	mu     sync.Mutex
	counts map[Outcome]int
}

func (r *recordingObserver) ObserveOutcome(o Outcome, _ int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counts[o]++
}

func TestRun_Observer(t *testing.T) {
	obs := &recordingObserver{counts: make(map[Outcome]int)}
	m, _ := newTestMapper(t, testSamples, func(o *Options) { o.Observer = obs })

	run(t, m, rec(1), rec(2, 7), rec(3, 3, 5, 9), rec(4, 3, 5, 9))

	assert.Equal(t, 1, obs.counts[OutcomeEmpty])
	assert.Equal(t, 1, obs.counts[OutcomeSingleton])
	assert.Equal(t, 1, obs.counts[OutcomeNewNode])
	assert.Equal(t, 1, obs.counts[OutcomeExactReuse])
}

func TestRun_ProgressLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	m, _ := newTestMapper(t, testSamples, func(o *Options) { o.Logger = logger })

	run(t, m, rec(1, 1, 2))

	assert.Contains(t, buf.String(), "mapping progress")
}

func TestRun_Concurrent(t *testing.T) {
	const numSamples = 500
	rng := testutil.NewRNG(4711)
	sets := rng.CarrierSets(400, 40, numSamples)

	var recs []mutation.Record
	for i, s := range sets {
		recs = append(recs, rec(uint64(2*i), s...), rec(uint64(2*i+1), s...))
	}

	m, g := newTestMapper(t, numSamples, func(o *Options) {
		o.Workers = 4
		o.BatchSize = 16
	})
	report := run(t, m, recs...)

	assert.Equal(t, uint64(len(recs)), report.TotalMutations)
	require.Len(t, g.Mutations(), len(recs)-int(report.EmptyMutations))

	for _, entry := range g.Mutations() {
		want := sets[entry.Mutation.Position/2]
		assert.Equal(t, want, g.CarrierSet(entry.Node), "mutation %v", entry.Mutation)
	}

	// Mapper-created nodes never duplicate a carrier set.
	seen := make(map[string]model.NodeID)
	for id := model.NodeID(numSamples); int(id) < g.NumNodes(); id++ {
		key := fmtSet(g.CarrierSet(id))
		prev, dup := seen[key]
		assert.False(t, dup, "nodes %v and %v share carriers", prev, id)
		seen[key] = id
	}
	assert.Equal(t, report.NewTreeNodes, uint64(g.NumNodes()-numSamples))
}

func fmtSet(s []model.SampleID) string {
	var b bytes.Buffer
	for _, v := range s {
		b.WriteString(model.SampleNode(v).String())
		b.WriteByte(',')
	}
	return b.String()
}

func TestRun_Canceled(t *testing.T) {
	m, _ := newTestMapper(t, testSamples)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := m.Run(ctx, mutation.NewSliceIterator([]mutation.Record{rec(1, 1, 2)}))
	require.ErrorIs(t, err, context.Canceled)
}

// faultyGraph wraps a real graph and injects failures.
type faultyGraph struct {
	*graph.MutableGRG
	attachErr error
	panicEdge bool
}

func (f *faultyGraph) AddEdge(parent, child model.NodeID) error {
	if f.panicEdge {
		panic("edge store corrupted")
	}
	return f.MutableGRG.AddEdge(parent, child)
}

func (f *faultyGraph) AttachMutation(mut model.Mutation, id model.NodeID) error {
	if f.attachErr != nil {
		return f.attachErr
	}
	return f.MutableGRG.AttachMutation(mut, id)
}

func TestRun_Failures(t *testing.T) {
	errAttach := errors.New("attach failed")

	tests := []struct {
		name   string
		graph  func(g *graph.MutableGRG) Graph
		expect error
	}{
		{
			name:   "GraphError",
			graph:  func(g *graph.MutableGRG) Graph { return &faultyGraph{MutableGRG: g, attachErr: errAttach} },
			expect: errAttach,
		},
		{
			name:   "RecoveredPanic",
			graph:  func(g *graph.MutableGRG) Graph { return &faultyGraph{MutableGRG: g, panicEdge: true} },
			expect: ErrInvariantViolation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base, err := graph.New(testSamples)
			require.NoError(t, err)
			m, err := New(tt.graph(base), func(o *Options) { o.Workers = 2 })
			require.NoError(t, err)

			_, err = m.Run(context.Background(), mutation.NewSliceIterator([]mutation.Record{rec(1, 1, 2, 3)}))
			require.ErrorIs(t, err, tt.expect)

			// The critical section is released on every exit path.
			assert.True(t, m.mu.TryLock())
			m.mu.Unlock()
		})
	}
}

// setOnlyGraph hides the bitmap accessor of the wrapped graph.
type setOnlyGraph struct {
	g *graph.MutableGRG
}

func (s setOnlyGraph) NumSamples() int                 { return s.g.NumSamples() }
func (s setOnlyGraph) CreateNode() model.NodeID        { return s.g.CreateNode() }
func (s setOnlyGraph) AddEdge(p, c model.NodeID) error { return s.g.AddEdge(p, c) }
func (s setOnlyGraph) NodeExists(id model.NodeID) bool { return s.g.NodeExists(id) }

func (s setOnlyGraph) CarrierSet(id model.NodeID) []model.SampleID {
	return s.g.CarrierSet(id)
}

func (s setOnlyGraph) AttachMutation(mut model.Mutation, id model.NodeID) error {
	return s.g.AttachMutation(mut, id)
}

func TestMap_CarrierSetFallback(t *testing.T) {
	g, err := graph.New(testSamples)
	require.NoError(t, err)
	m, err := New(setOnlyGraph{g: g})
	require.NoError(t, err)

	outcomes := []Outcome{}
	for i, r := range []mutation.Record{rec(1, 3, 5, 9), rec(2, 3, 5, 9), rec(3, 3, 5, 9, 12)} {
		res, err := m.MapMutation(r)
		require.NoError(t, err, "record %d", i)
		outcomes = append(outcomes, res.Outcome)
	}
	assert.True(t, slices.Equal([]Outcome{OutcomeNewNode, OutcomeExactReuse, OutcomePartialReuse}, outcomes), "%v", outcomes)
}

package mapper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/RoaringBitmap/roaring/v2"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/hupe1980/grgmap/internal/gthash"
	"github.com/hupe1980/grgmap/model"
	"github.com/hupe1980/grgmap/mutation"
	"github.com/hupe1980/grgmap/signature"
)

const (
	// DefaultBatchSize is the number of mutations per batch. A batch is
	// also the unit over which singleton groups are counted.
	DefaultBatchSize = 1024
	// DefaultProgressInterval bounds how often progress is logged.
	DefaultProgressInterval = 10 * time.Second
)

// Graph is the mutable genotype graph the mapper writes to.
type Graph interface {
	NumSamples() int
	CreateNode() model.NodeID
	AddEdge(parent, child model.NodeID) error
	NodeExists(id model.NodeID) bool
	// CarrierSet returns the samples reachable from id in ascending order.
	CarrierSet(id model.NodeID) []model.SampleID
	AttachMutation(m model.Mutation, id model.NodeID) error
}

// carrierBitmapper is implemented by graphs that can hand out carrier sets
// as bitmaps directly.
type carrierBitmapper interface {
	Carriers(id model.NodeID) (*roaring.Bitmap, error)
}

// HaplotypeIndex is an opaque collaborator carried alongside the mapper.
// The mapping algorithm does not consult it.
type HaplotypeIndex any

// Options configures a Mapper.
type Options struct {
	NumBuckets       int
	Workers          int
	BatchSize        int
	ProgressInterval time.Duration
	Logger           *slog.Logger
	Observer         Observer
	HaplotypeIndex   HaplotypeIndex
}

// DefaultOptions contains the default mapper options.
var DefaultOptions = Options{
	NumBuckets:       signature.DefaultBuckets,
	Workers:          1,
	BatchSize:        DefaultBatchSize,
	ProgressInterval: DefaultProgressInterval,
}

// Mapper maps mutations onto a Graph.
type Mapper struct {
	graph    Graph
	index    *gthash.Index
	stats    *Stats
	opts     Options
	logger   *slog.Logger
	observer Observer

	// mu covers decide, mutate graph and mutate index for one mutation.
	mu sync.Mutex

	progress rate.Sometimes
	batches  atomic.Uint64
}

// New creates a Mapper writing to g.
func New(g Graph, optFns ...func(o *Options)) (*Mapper, error) {
	if g == nil {
		return nil, ErrNilGraph
	}

	opts := DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.NumBuckets <= 0 {
		return nil, fmt.Errorf("mapper: invalid bucket count %d", opts.NumBuckets)
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	observer := opts.Observer
	if observer == nil {
		observer = NoopObserver{}
	}

	return &Mapper{
		graph:    g,
		index:    gthash.New(opts.NumBuckets),
		stats:    &Stats{},
		opts:     opts,
		logger:   logger,
		observer: observer,
		progress: rate.Sometimes{Interval: opts.ProgressInterval},
	}, nil
}

// Index returns the similarity index over mapper-created nodes.
func (m *Mapper) Index() *gthash.Index {
	return m.index
}

// Stats returns the live statistics aggregate.
func (m *Mapper) Stats() *Stats {
	return m.stats
}

// HaplotypeIndex returns the collaborator passed in the options, if any.
func (m *Mapper) HaplotypeIndex() HaplotypeIndex {
	return m.opts.HaplotypeIndex
}

// Run drains it and maps every mutation. A producer goroutine batches the
// stream and the configured number of workers map whole batches. The first
// error cancels the remaining work. The returned Report reflects all
// mutations mapped before the run stopped.
func (m *Mapper) Run(ctx context.Context, it mutation.Iterator) (Report, error) {
	g, gctx := errgroup.WithContext(ctx)
	batches := make(chan []mutation.Record, m.opts.Workers)

	g.Go(func() error {
		defer close(batches)
		batch := make([]mutation.Record, 0, m.opts.BatchSize)
		for {
			rec, err := it.Next(gctx)
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				return fmt.Errorf("mapper: read mutation: %w", err)
			}
			batch = append(batch, rec)
			if len(batch) < m.opts.BatchSize {
				continue
			}
			select {
			case batches <- batch:
			case <-gctx.Done():
				return gctx.Err()
			}
			batch = make([]mutation.Record, 0, m.opts.BatchSize)
		}
		if len(batch) == 0 {
			return nil
		}
		select {
		case batches <- batch:
			return nil
		case <-gctx.Done():
			return gctx.Err()
		}
	})

	for range m.opts.Workers {
		g.Go(func() error {
			for batch := range batches {
				if err := m.safeMapBatch(gctx, batch); err != nil {
					return err
				}
			}
			return nil
		})
	}

	err := g.Wait()
	return m.stats.Snapshot(), err
}

func (m *Mapper) safeMapBatch(ctx context.Context, batch []mutation.Record) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrInvariantViolation, r)
		}
	}()
	return m.MapBatch(ctx, batch)
}

// MapBatch maps recs in order as one mutation group.
func (m *Mapper) MapBatch(ctx context.Context, recs []mutation.Record) error {
	singletons := 0
	defer func() { m.stats.recordGroup(singletons) }()

	for _, rec := range recs {
		if err := ctx.Err(); err != nil {
			return err
		}
		res, err := m.MapMutation(rec)
		if err != nil {
			return err
		}
		if res.Outcome == OutcomeSingleton {
			singletons++
		}
	}

	m.batches.Add(1)
	m.progress.Do(func() {
		m.logger.Info("mapping progress",
			"batches", m.batches.Load(),
			"mutations", m.stats.TotalMutations.Load(),
			"new_nodes", m.stats.NewTreeNodes.Load(),
			"reused_nodes", m.stats.ReusedNodes.Load(),
			"comparisons", m.index.Comparisons(),
		)
	})
	return nil
}

// MapMutation maps a single mutation. It does not close a mutation group;
// use MapBatch for group accounting.
func (m *Mapper) MapMutation(rec mutation.Record) (Result, error) {
	carriers := roaring.New()
	for _, s := range rec.Carriers {
		carriers.Add(uint32(s))
	}
	if !carriers.IsEmpty() {
		if err := m.checkRange(model.SampleID(carriers.Maximum())); err != nil {
			return Result{}, err
		}
	}

	// Rejected mutations are not counted.
	m.stats.TotalMutations.Add(1)

	var (
		res Result
		err error
	)
	switch carriers.GetCardinality() {
	case 0:
		m.stats.EmptyMutations.Add(1)
		res = Result{Outcome: OutcomeEmpty, Node: model.InvalidNodeID}
	case 1:
		res, err = m.mapSingleton(rec.Mutation, model.SampleID(carriers.Minimum()))
	default:
		res, err = m.mapShared(rec.Mutation, carriers)
	}
	if err != nil {
		return Result{}, err
	}

	m.observer.ObserveOutcome(res.Outcome, res.Coverage)
	return res, nil
}

func (m *Mapper) checkRange(s model.SampleID) error {
	if n := m.graph.NumSamples(); int(s) >= n {
		return &ErrSampleOutOfRange{Sample: s, NumSamples: n}
	}
	return nil
}

func (m *Mapper) mapSingleton(mut model.Mutation, s model.SampleID) (Result, error) {
	leaf := model.SampleNode(s)

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.graph.AttachMutation(mut, leaf); err != nil {
		return Result{}, fmt.Errorf("mapper: attach %v: %w", mut, err)
	}
	m.stats.MutationsWithOneSample.Add(1)
	m.stats.SingletonSampleEdges.Add(1)

	return Result{Outcome: OutcomeSingleton, Node: leaf, Coverage: 1}, nil
}

func (m *Mapper) mapShared(mut model.Mutation, carriers *roaring.Bitmap) (Result, error) {
	samples := make([]model.SampleID, 0, carriers.GetCardinality())
	it := carriers.Iterator()
	for it.HasNext() {
		samples = append(samples, model.SampleID(it.Next()))
	}
	sig := signature.New(samples, m.opts.NumBuckets)
	m.stats.SamplesProcessed.Add(uint64(len(samples)))

	m.mu.Lock()
	defer m.mu.Unlock()

	cands, dist := m.index.MostSimilarTo(sig, true)
	m.stats.NumCandidates.Add(uint64(len(cands)))

	res := Result{Coverage: len(samples), Candidates: len(cands)}
	if len(cands) == 0 {
		m.stats.MutationsWithNoCandidates.Add(1)
	}

	exact, subset, subsetCarriers, err := m.selectCandidate(sig, dist, cands, carriers)
	if err != nil {
		return Result{}, err
	}

	switch {
	case exact.IsValid():
		res.Outcome = OutcomeExactReuse
		res.Node = exact
		m.stats.ReusedNodes.Add(1)
		m.stats.ReusedExactly.Add(1)
		m.stats.ReusedNodeCoverage.Add(uint64(len(samples)))
		m.stats.recordReuseSize(len(samples))
	case subset.IsValid():
		res.Outcome = OutcomePartialReuse
		res.Node, err = m.extendNode(subset, subsetCarriers, samples)
		if err != nil {
			return Result{}, err
		}
		m.stats.ReusedMutNodes.Add(1)
		m.stats.NewTreeNodes.Add(1)
		if err := m.index.Insert(res.Node, sig); err != nil {
			return Result{}, fmt.Errorf("mapper: index %v: %w", res.Node, err)
		}
	default:
		res.Outcome = OutcomeNewNode
		res.Node, err = m.newNode(samples)
		if err != nil {
			return Result{}, err
		}
		m.stats.NewTreeNodes.Add(1)
		if err := m.index.Insert(res.Node, sig); err != nil {
			return Result{}, fmt.Errorf("mapper: index %v: %w", res.Node, err)
		}
	}

	if err := m.graph.AttachMutation(mut, res.Node); err != nil {
		return Result{}, fmt.Errorf("mapper: attach %v: %w", mut, err)
	}
	return res, nil
}

// selectCandidate returns an exact match for carriers if one exists,
// otherwise the candidate whose carriers form the largest strict subset of
// carriers. Signatures filter first; carrier sets from the graph decide.
// Must be called with mu held.
func (m *Mapper) selectCandidate(sig signature.Signature, dist int, cands []model.NodeID, carriers *roaring.Bitmap) (exact, subset model.NodeID, subsetCarriers *roaring.Bitmap, err error) {
	exact, subset = model.InvalidNodeID, model.InvalidNodeID
	var best uint64

	for _, c := range cands {
		csig, ok := m.index.Signature(c)
		if !ok {
			return exact, subset, nil, fmt.Errorf("%w: candidate %v has no signature", ErrInvariantViolation, c)
		}
		if !sig.Covers(csig) {
			continue
		}

		cset, err := m.carriersOf(c)
		if err != nil {
			return exact, subset, nil, err
		}
		card := cset.GetCardinality()

		if dist == 0 && cset.Equals(carriers) {
			return c, model.InvalidNodeID, nil, nil
		}
		if card < carriers.GetCardinality() && cset.AndCardinality(carriers) == card && card > best {
			subset, subsetCarriers, best = c, cset, card
		}
	}
	return exact, subset, subsetCarriers, nil
}

func (m *Mapper) carriersOf(id model.NodeID) (*roaring.Bitmap, error) {
	if !m.graph.NodeExists(id) {
		return nil, fmt.Errorf("%w: indexed node %v missing from graph", ErrInvariantViolation, id)
	}
	if cb, ok := m.graph.(carrierBitmapper); ok {
		return cb.Carriers(id)
	}
	bm := roaring.New()
	for _, s := range m.graph.CarrierSet(id) {
		bm.Add(uint32(s))
	}
	return bm, nil
}

// extendNode creates a node above base with direct edges to the samples in
// all that base does not already reach.
func (m *Mapper) extendNode(base model.NodeID, baseCarriers *roaring.Bitmap, all []model.SampleID) (model.NodeID, error) {
	n := m.graph.CreateNode()
	if err := m.graph.AddEdge(n, base); err != nil {
		return model.InvalidNodeID, fmt.Errorf("mapper: edge %v -> %v: %w", n, base, err)
	}
	for _, s := range all {
		if baseCarriers.Contains(uint32(s)) {
			continue
		}
		if err := m.graph.AddEdge(n, model.SampleNode(s)); err != nil {
			return model.InvalidNodeID, fmt.Errorf("mapper: edge %v -> %v: %w", n, model.SampleNode(s), err)
		}
	}
	return n, nil
}

func (m *Mapper) newNode(samples []model.SampleID) (model.NodeID, error) {
	n := m.graph.CreateNode()
	for _, s := range samples {
		if err := m.graph.AddEdge(n, model.SampleNode(s)); err != nil {
			return model.InvalidNodeID, fmt.Errorf("mapper: edge %v -> %v: %w", n, model.SampleNode(s), err)
		}
	}
	return n, nil
}

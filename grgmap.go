package grgmap

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/hupe1980/grgmap/internal/mapper"
	"github.com/hupe1980/grgmap/mutation"
)

type (
	// Graph is the mutable graph mutations are mapped onto.
	// graph.MutableGRG is the in-memory implementation.
	Graph = mapper.Graph
	// Report is a snapshot of the mapping statistics.
	Report = mapper.Report
	// Outcome is the decision taken for a single mutation.
	Outcome = mapper.Outcome
	// Result describes how a single mutation was mapped.
	Result = mapper.Result
	// Observer receives the outcome of every mapped mutation.
	Observer = mapper.Observer
	// HaplotypeIndex is an opaque collaborator carried by the mapper.
	HaplotypeIndex = mapper.HaplotypeIndex
)

// Mapping outcomes.
const (
	OutcomeEmpty        = mapper.OutcomeEmpty
	OutcomeSingleton    = mapper.OutcomeSingleton
	OutcomeExactReuse   = mapper.OutcomeExactReuse
	OutcomePartialReuse = mapper.OutcomePartialReuse
	OutcomeNewNode      = mapper.OutcomeNewNode
)

// ReuseSizeHistMax is the number of buckets of Report.ReuseSizeHist.
const ReuseSizeHistMax = mapper.ReuseSizeHistMax

// Outcomes lists every Outcome in declaration order.
func Outcomes() []Outcome {
	return mapper.Outcomes()
}

// IndexStats describes the similarity index.
type IndexStats struct {
	Entries     int
	Tombstones  int
	Depth       int
	Comparisons uint64
}

// Mapper maps mutation streams onto a graph. Statistics accumulate across
// calls to Map on the same Mapper.
type Mapper struct {
	m       *mapper.Mapper
	graph   Graph
	opts    options
	metrics MetricsCollector
	logger  *Logger
}

// New creates a Mapper writing to g.
func New(g Graph, optFns ...Option) (*Mapper, error) {
	opts := applyOptions(optFns)

	if opts.buckets <= 0 {
		return nil, &ErrInvalidBuckets{Buckets: opts.buckets}
	}

	observers := append([]Observer{opts.metricsCollector}, opts.observers...)
	logger := opts.logger.WithBuckets(opts.buckets)

	m, err := mapper.New(g, func(o *mapper.Options) {
		o.NumBuckets = opts.buckets
		o.Workers = opts.workers
		o.BatchSize = opts.batchSize
		o.ProgressInterval = opts.progressInterval
		o.Logger = logger.Logger
		o.Observer = multiObserver(observers)
		o.HaplotypeIndex = opts.haplotypeIndex
	})
	if err != nil {
		return nil, translateError(err)
	}

	return &Mapper{
		m:       m,
		graph:   g,
		opts:    opts,
		metrics: opts.metricsCollector,
		logger:  logger,
	}, nil
}

// Map drains it and maps every mutation onto the graph. On error the
// returned Report covers the mutations mapped before the run stopped and
// the graph may be partially updated.
func (mp *Mapper) Map(ctx context.Context, it mutation.Iterator) (Report, error) {
	runLogger := mp.logger.WithRun(uuid.NewString())
	runLogger.LogRunStart(ctx, mp.graph.NumSamples(), mp.opts.workers, mp.opts.batchSize)

	start := time.Now()
	report, err := mp.m.Run(ctx, it)
	err = translateError(err)
	elapsed := time.Since(start)

	mp.metrics.RecordRun(report, elapsed, err)
	runLogger.LogRun(ctx, report, elapsed, err)
	runLogger.LogIndex(ctx, mp.IndexStats())

	return report, err
}

// MapMutation maps a single mutation. It is safe to call concurrently with
// other MapMutation calls, but it does not contribute to the singleton group
// statistics.
func (mp *Mapper) MapMutation(rec mutation.Record) (Result, error) {
	res, err := mp.m.MapMutation(rec)
	return res, translateError(err)
}

// Stats returns a snapshot of the accumulated statistics.
func (mp *Mapper) Stats() Report {
	return mp.m.Stats().Snapshot()
}

// IndexStats returns the state of the similarity index.
func (mp *Mapper) IndexStats() IndexStats {
	s := mp.m.Index().Stats()
	return IndexStats{
		Entries:     s.Entries,
		Tombstones:  s.Tombstones,
		Depth:       s.Depth,
		Comparisons: s.Comparisons,
	}
}

// HaplotypeIndex returns the index passed via WithHaplotypeIndex, if any.
func (mp *Mapper) HaplotypeIndex() HaplotypeIndex {
	return mp.m.HaplotypeIndex()
}

// MapMutations maps every mutation of it onto g with a fresh Mapper.
func MapMutations(ctx context.Context, g Graph, it mutation.Iterator, optFns ...Option) (Report, error) {
	mp, err := New(g, optFns...)
	if err != nil {
		return Report{}, err
	}
	return mp.Map(ctx, it)
}

type multiObserver []Observer

func (m multiObserver) ObserveOutcome(o Outcome, coverage int) {
	for _, obs := range m {
		obs.ObserveOutcome(o, coverage)
	}
}

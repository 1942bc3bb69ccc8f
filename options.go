package grgmap

import (
	"log/slog"
	"time"

	"github.com/hupe1980/grgmap/internal/mapper"
	"github.com/hupe1980/grgmap/signature"
)

type options struct {
	buckets          int
	workers          int
	batchSize        int
	progressInterval time.Duration
	metricsCollector MetricsCollector
	observers        []Observer
	logger           *Logger
	haplotypeIndex   HaplotypeIndex
}

// Option configures a Mapper.
type Option func(*options)

// WithBuckets sets the signature width in 32-bit buckets.
// More buckets lower the false positive rate of the similarity filter at
// the cost of memory and comparison time. Default: signature.DefaultBuckets.
func WithBuckets(buckets int) Option {
	return func(o *options) {
		o.buckets = buckets
	}
}

// WithWorkers sets the number of mapping workers.
//
// A single worker maps mutations in stream order, which makes the resulting
// graph deterministic. More workers map disjoint batches concurrently; node
// IDs then depend on scheduling. Values below one are treated as one.
func WithWorkers(workers int) Option {
	return func(o *options) {
		o.workers = workers
	}
}

// WithBatchSize sets how many mutations a worker takes at once. A batch is
// also one mutation group for the singleton statistics.
func WithBatchSize(size int) Option {
	return func(o *options) {
		o.batchSize = size
	}
}

// WithProgressInterval bounds how often a progress line is logged.
func WithProgressInterval(d time.Duration) Option {
	return func(o *options) {
		o.progressInterval = d
	}
}

// WithMetricsCollector configures a metrics collector for mapping runs.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &grgmap.BasicMetricsCollector{}
//	m, _ := grgmap.New(g, grgmap.WithMetricsCollector(metrics))
//	// ... m.Map(ctx, it) ...
//	stats := metrics.GetStats()
//	fmt.Printf("Exact reuse: %d, new nodes: %d\n", stats.ExactReuseCount, stats.NewNodeCount)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithObserver adds an observer that sees the outcome of every mutation.
func WithObserver(obs Observer) Option {
	return func(o *options) {
		if obs != nil {
			o.observers = append(o.observers, obs)
		}
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := grgmap.NewJSONLogger(slog.LevelInfo)
//	m, _ := grgmap.New(g, grgmap.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithHaplotypeIndex attaches a haplotype index to the mapper. The mapping
// algorithm carries it but does not consult it.
func WithHaplotypeIndex(idx HaplotypeIndex) Option {
	return func(o *options) {
		o.haplotypeIndex = idx
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		buckets:          signature.DefaultBuckets,
		workers:          mapper.DefaultOptions.Workers,
		batchSize:        mapper.DefaultBatchSize,
		progressInterval: mapper.DefaultProgressInterval,
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}

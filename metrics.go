package grgmap

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting mapping metrics.
// Implement this interface to integrate with monitoring systems like
// Prometheus; see the metrics package for a ready-made collector.
type MetricsCollector interface {
	// ObserveOutcome is called once per mapped mutation with the number of
	// distinct carriers.
	ObserveOutcome(o Outcome, coverage int)

	// RecordRun is called after each Map call.
	// err is nil if the run completed.
	RecordRun(report Report, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) ObserveOutcome(Outcome, int)            {}
func (NoopMetricsCollector) RecordRun(Report, time.Duration, error) {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	EmptyCount        atomic.Int64
	SingletonCount    atomic.Int64
	ExactReuseCount   atomic.Int64
	PartialReuseCount atomic.Int64
	NewNodeCount      atomic.Int64
	CoverageTotal     atomic.Int64
	RunCount          atomic.Int64
	RunErrors         atomic.Int64
	RunTotalNanos     atomic.Int64
}

// ObserveOutcome implements MetricsCollector.
func (b *BasicMetricsCollector) ObserveOutcome(o Outcome, coverage int) {
	switch o {
	case OutcomeEmpty:
		b.EmptyCount.Add(1)
	case OutcomeSingleton:
		b.SingletonCount.Add(1)
	case OutcomeExactReuse:
		b.ExactReuseCount.Add(1)
	case OutcomePartialReuse:
		b.PartialReuseCount.Add(1)
	case OutcomeNewNode:
		b.NewNodeCount.Add(1)
	}
	b.CoverageTotal.Add(int64(coverage))
}

// RecordRun implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRun(_ Report, duration time.Duration, err error) {
	b.RunCount.Add(1)
	b.RunTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.RunErrors.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		EmptyCount:        b.EmptyCount.Load(),
		SingletonCount:    b.SingletonCount.Load(),
		ExactReuseCount:   b.ExactReuseCount.Load(),
		PartialReuseCount: b.PartialReuseCount.Load(),
		NewNodeCount:      b.NewNodeCount.Load(),
		CoverageTotal:     b.CoverageTotal.Load(),
		RunCount:          b.RunCount.Load(),
		RunErrors:         b.RunErrors.Load(),
		RunAvgNanos:       b.getAvgRunNanos(),
	}
}

func (b *BasicMetricsCollector) getAvgRunNanos() int64 {
	count := b.RunCount.Load()
	if count == 0 {
		return 0
	}
	return b.RunTotalNanos.Load() / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	EmptyCount        int64
	SingletonCount    int64
	ExactReuseCount   int64
	PartialReuseCount int64
	NewNodeCount      int64
	CoverageTotal     int64
	RunCount          int64
	RunErrors         int64
	RunAvgNanos       int64
}

// Mutations returns the number of observed mutations.
func (s BasicMetricsStats) Mutations() int64 {
	return s.EmptyCount + s.SingletonCount + s.ExactReuseCount + s.PartialReuseCount + s.NewNodeCount
}

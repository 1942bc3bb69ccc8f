package grgmap

import (
	"errors"
	"fmt"

	"github.com/hupe1980/grgmap/graph"
	"github.com/hupe1980/grgmap/internal/mapper"
	"github.com/hupe1980/grgmap/model"
)

var (
	// ErrInvariantViolation is returned when a run aborts because the graph
	// and the similarity index disagree, or a precondition was violated.
	ErrInvariantViolation = mapper.ErrInvariantViolation

	// ErrNilGraph is returned by New when no graph is given.
	ErrNilGraph = mapper.ErrNilGraph

	// ErrNodeNotFound is returned when the graph is asked about an unknown node.
	ErrNodeNotFound = graph.ErrNodeNotFound
)

// ErrInvalidBuckets indicates an invalid signature width.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrInvalidBuckets struct {
	Buckets int
	cause   error
}

func (e *ErrInvalidBuckets) Error() string {
	return fmt.Sprintf("invalid bucket count: %d", e.Buckets)
}

func (e *ErrInvalidBuckets) Unwrap() error { return e.cause }

// ErrSampleOutOfRange indicates a mutation carrier the graph does not know.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrSampleOutOfRange struct {
	Sample     model.SampleID
	NumSamples int
	cause      error
}

func (e *ErrSampleOutOfRange) Error() string {
	return fmt.Sprintf("sample %d out of range: graph has %d samples", e.Sample, e.NumSamples)
}

func (e *ErrSampleOutOfRange) Unwrap() error { return e.cause }

func translateError(err error) error {
	if err == nil {
		return nil
	}

	var oor *mapper.ErrSampleOutOfRange
	if errors.As(err, &oor) {
		return &ErrSampleOutOfRange{Sample: oor.Sample, NumSamples: oor.NumSamples, cause: err}
	}

	return err
}

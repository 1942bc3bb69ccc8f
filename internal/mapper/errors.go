package mapper

import (
	"errors"
	"fmt"

	"github.com/hupe1980/grgmap/model"
)

var (
	// ErrInvariantViolation aborts a run when the graph and index disagree
	// or a precondition panic was recovered in a worker.
	ErrInvariantViolation = errors.New("mapper: invariant violation")
	// ErrNilGraph is returned by New when no graph is given.
	ErrNilGraph = errors.New("mapper: graph is nil")
)

// ErrSampleOutOfRange indicates a carrier outside the graph's sample range.
type ErrSampleOutOfRange struct {
	Sample     model.SampleID
	NumSamples int
}

func (e *ErrSampleOutOfRange) Error() string {
	return fmt.Sprintf("mapper: sample %d out of range [0, %d)", e.Sample, e.NumSamples)
}

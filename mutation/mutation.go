package mutation

import (
	"context"
	"io"

	"github.com/hupe1980/grgmap/model"
)

// Record is a mutation together with the samples carrying it.
type Record struct {
	Mutation model.Mutation
	Carriers []model.SampleID
}

// Iterator is a finite, single-pass mutation stream.
type Iterator interface {
	// Next returns the next record, or io.EOF once the stream is exhausted.
	Next(ctx context.Context) (Record, error)
}

// SliceIterator iterates over in-memory records.
type SliceIterator struct {
	records []Record
	pos     int
}

// NewSliceIterator creates an iterator over records.
func NewSliceIterator(records []Record) *SliceIterator {
	return &SliceIterator{records: records}
}

// Next implements Iterator.
func (it *SliceIterator) Next(ctx context.Context) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}
	if it.pos >= len(it.records) {
		return Record{}, io.EOF
	}
	rec := it.records[it.pos]
	it.pos++
	return rec, nil
}

// Collect drains it into a slice.
func Collect(ctx context.Context, it Iterator) ([]Record, error) {
	var out []Record
	for {
		rec, err := it.Next(ctx)
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, rec)
	}
}

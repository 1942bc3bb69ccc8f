package grgmap_test

import (
	"context"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/grgmap"
	"github.com/hupe1980/grgmap/graph"
	"github.com/hupe1980/grgmap/model"
	"github.com/hupe1980/grgmap/mutation"
	"github.com/hupe1980/grgmap/testutil"
)

// blockingIterator yields its records and then blocks until ctx is done.
type blockingIterator struct {
	recs []mutation.Record
}

func (b *blockingIterator) Next(ctx context.Context) (mutation.Record, error) {
	if len(b.recs) > 0 {
		rec := b.recs[0]
		b.recs = b.recs[1:]
		return rec, nil
	}
	<-ctx.Done()
	return mutation.Record{}, ctx.Err()
}

func randomRecords(n, numSamples int) []mutation.Record {
	rng := testutil.NewRNG(42)
	sets := rng.CarrierSets(n, 30, numSamples)
	recs := make([]mutation.Record, n)
	for i, s := range sets {
		recs[i] = record(uint64(i), "A", "G", s...)
	}
	return recs
}

// TestNoGoroutineLeaks verifies that producer and worker goroutines are gone
// once Map returns, whether the run completed, failed or was canceled.
func TestNoGoroutineLeaks(t *testing.T) {
	const numSamples = 200

	tests := []struct {
		name     string
		run      func(t *testing.T, m *grgmap.Mapper)
		maxLeaks int // Allow small variance (runtime background goroutines)
	}{
		{
			name: "Completed",
			run: func(t *testing.T, m *grgmap.Mapper) {
				_, err := m.Map(context.Background(), mutation.NewSliceIterator(randomRecords(500, numSamples)))
				require.NoError(t, err)
			},
			maxLeaks: 2,
		},
		{
			name: "Failed",
			run: func(t *testing.T, m *grgmap.Mapper) {
				recs := randomRecords(500, numSamples)
				recs[250].Carriers = []model.SampleID{1, numSamples + 1}
				_, err := m.Map(context.Background(), mutation.NewSliceIterator(recs))
				var oor *grgmap.ErrSampleOutOfRange
				require.ErrorAs(t, err, &oor)
			},
			maxLeaks: 2,
		},
		{
			name: "Canceled",
			run: func(t *testing.T, m *grgmap.Mapper) {
				ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
				defer cancel()
				_, err := m.Map(ctx, &blockingIterator{recs: randomRecords(100, numSamples)})
				require.ErrorIs(t, err, context.DeadlineExceeded)
			},
			maxLeaks: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runtime.GC()
			time.Sleep(50 * time.Millisecond)

			initial := runtime.NumGoroutine()

			g, err := graph.New(numSamples)
			require.NoError(t, err)
			m, err := grgmap.New(g, grgmap.WithWorkers(8), grgmap.WithBatchSize(16))
			require.NoError(t, err)

			tt.run(t, m)

			deadline := time.Now().Add(2 * time.Second)
			var final, leaked int
			for {
				runtime.GC()
				time.Sleep(50 * time.Millisecond)

				final = runtime.NumGoroutine()
				leaked = final - initial
				if leaked <= tt.maxLeaks || time.Now().After(deadline) {
					break
				}
			}

			if leaked > tt.maxLeaks {
				buf := make([]byte, 1<<20)
				stackSize := runtime.Stack(buf, true)
				t.Logf("Goroutine stacks:\n%s", buf[:stackSize])
			}
			assert.LessOrEqual(t, leaked, tt.maxLeaks, "started with %d, ended with %d", initial, final)
		})
	}
}

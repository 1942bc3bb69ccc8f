package mapper

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStats_ReuseSizeHistogram(t *testing.T) {
	var s Stats

	s.recordReuseSize(5)
	s.recordReuseSize(ReuseSizeHistMax - 1)
	s.recordReuseSize(ReuseSizeHistMax)
	s.recordReuseSize(10 * ReuseSizeHistMax)

	r := s.Snapshot()
	require.Len(t, r.ReuseSizeHist, ReuseSizeHistMax)
	assert.Equal(t, uint64(1), r.ReuseSizeHist[5])
	assert.Equal(t, uint64(3), r.ReuseSizeHist[ReuseSizeHistMax-1])
	assert.Equal(t, uint64(2), r.ReuseSizeBiggerThanHistMax)
}

func TestStats_RecordGroupConcurrent(t *testing.T) {
	var s Stats
	var wg sync.WaitGroup
	for i := range 100 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.recordGroup(i % 10)
		}()
	}
	wg.Wait()

	r := s.Snapshot()
	assert.Equal(t, uint64(90), r.NumWithSingletons)
	assert.Equal(t, uint64(9), r.MaxSingletons)
}

func TestReport_AvgSingletons(t *testing.T) {
	assert.Equal(t, 0.0, Report{}.AvgSingletons())
	assert.Equal(t, 0.0, Report{SingletonSampleEdges: 5}.AvgSingletons())
	assert.InDelta(t, 2.5, Report{SingletonSampleEdges: 5, NumWithSingletons: 2}.AvgSingletons(), 1e-9)
}

func TestReport_Print(t *testing.T) {
	r := Report{TotalMutations: 4, ReusedExactly: 1, SingletonSampleEdges: 3, NumWithSingletons: 2}

	var sb strings.Builder
	require.NoError(t, r.Print(&sb))
	out := sb.String()

	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Len(t, lines, 16)
	assert.Equal(t, "mutations: 4", lines[0])
	assert.Contains(t, out, "reusedExactly: 1\n")
	assert.Equal(t, "avgSingletons: 1.5", lines[len(lines)-1])
	assert.Equal(t, out, r.String())

	sb.Reset()
	require.NoError(t, Report{}.Print(&sb))
	assert.Contains(t, sb.String(), "avgSingletons: 0\n")
}

func TestOutcome_String(t *testing.T) {
	names := make([]string, 0, len(Outcomes()))
	for _, o := range Outcomes() {
		names = append(names, o.String())
	}
	assert.Equal(t, []string{"empty", "singleton", "exact_reuse", "partial_reuse", "new_node"}, names)
	assert.Equal(t, "unknown", Outcome(99).String())
}

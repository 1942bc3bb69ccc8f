package mapper

import (
	"fmt"
	"io"
	"strings"
	"sync/atomic"
)

// ReuseSizeHistMax is the number of buckets in the reuse size histogram.
// Coverages at or above it are counted in the last bucket.
const ReuseSizeHistMax = 256

// Stats aggregates mapping counters. Every field is updated atomically and
// independently, so a read during a run may observe a torn combination.
// Use Snapshot after all workers have finished.
type Stats struct {
	TotalMutations             atomic.Uint64
	EmptyMutations             atomic.Uint64
	MutationsWithOneSample     atomic.Uint64
	MutationsWithNoCandidates  atomic.Uint64
	ReusedNodes                atomic.Uint64
	ReusedNodeCoverage         atomic.Uint64
	ReusedExactly              atomic.Uint64
	SingletonSampleEdges       atomic.Uint64
	NewTreeNodes               atomic.Uint64
	SamplesProcessed           atomic.Uint64
	NumCandidates              atomic.Uint64
	ReuseSizeBiggerThanHistMax atomic.Uint64
	NumWithSingletons          atomic.Uint64
	MaxSingletons              atomic.Uint64
	ReusedMutNodes             atomic.Uint64

	reuseSizeHist [ReuseSizeHistMax]atomic.Uint64
}

// recordReuseSize adds one observation of coverage to the histogram.
func (s *Stats) recordReuseSize(coverage int) {
	bucket := coverage
	if bucket >= ReuseSizeHistMax {
		bucket = ReuseSizeHistMax - 1
		s.ReuseSizeBiggerThanHistMax.Add(1)
	}
	s.reuseSizeHist[bucket].Add(1)
}

// recordGroup closes a mutation group that produced singletons singleton
// mutations.
func (s *Stats) recordGroup(singletons int) {
	if singletons <= 0 {
		return
	}
	s.NumWithSingletons.Add(1)
	n := uint64(singletons)
	for {
		cur := s.MaxSingletons.Load()
		if n <= cur || s.MaxSingletons.CompareAndSwap(cur, n) {
			return
		}
	}
}

// Snapshot copies every counter into a Report.
func (s *Stats) Snapshot() Report {
	r := Report{
		TotalMutations:             s.TotalMutations.Load(),
		EmptyMutations:             s.EmptyMutations.Load(),
		MutationsWithOneSample:     s.MutationsWithOneSample.Load(),
		MutationsWithNoCandidates:  s.MutationsWithNoCandidates.Load(),
		ReusedNodes:                s.ReusedNodes.Load(),
		ReusedNodeCoverage:         s.ReusedNodeCoverage.Load(),
		ReusedExactly:              s.ReusedExactly.Load(),
		SingletonSampleEdges:       s.SingletonSampleEdges.Load(),
		NewTreeNodes:               s.NewTreeNodes.Load(),
		SamplesProcessed:           s.SamplesProcessed.Load(),
		NumCandidates:              s.NumCandidates.Load(),
		ReuseSizeBiggerThanHistMax: s.ReuseSizeBiggerThanHistMax.Load(),
		NumWithSingletons:          s.NumWithSingletons.Load(),
		MaxSingletons:              s.MaxSingletons.Load(),
		ReusedMutNodes:             s.ReusedMutNodes.Load(),
		ReuseSizeHist:              make([]uint64, ReuseSizeHistMax),
	}
	for i := range s.reuseSizeHist {
		r.ReuseSizeHist[i] = s.reuseSizeHist[i].Load()
	}
	return r
}

// Report is a point-in-time copy of Stats.
type Report struct {
	TotalMutations             uint64   `json:"total_mutations" yaml:"total_mutations"`
	EmptyMutations             uint64   `json:"empty_mutations" yaml:"empty_mutations"`
	MutationsWithOneSample     uint64   `json:"mutations_with_one_sample" yaml:"mutations_with_one_sample"`
	MutationsWithNoCandidates  uint64   `json:"mutations_with_no_candidates" yaml:"mutations_with_no_candidates"`
	ReusedNodes                uint64   `json:"reused_nodes" yaml:"reused_nodes"`
	ReusedNodeCoverage         uint64   `json:"reused_node_coverage" yaml:"reused_node_coverage"`
	ReusedExactly              uint64   `json:"reused_exactly" yaml:"reused_exactly"`
	SingletonSampleEdges       uint64   `json:"singleton_sample_edges" yaml:"singleton_sample_edges"`
	NewTreeNodes               uint64   `json:"new_tree_nodes" yaml:"new_tree_nodes"`
	SamplesProcessed           uint64   `json:"samples_processed" yaml:"samples_processed"`
	NumCandidates              uint64   `json:"num_candidates" yaml:"num_candidates"`
	ReuseSizeBiggerThanHistMax uint64   `json:"reuse_size_bigger_than_hist_max" yaml:"reuse_size_bigger_than_hist_max"`
	NumWithSingletons          uint64   `json:"num_with_singletons" yaml:"num_with_singletons"`
	MaxSingletons              uint64   `json:"max_singletons" yaml:"max_singletons"`
	ReusedMutNodes             uint64   `json:"reused_mut_nodes" yaml:"reused_mut_nodes"`
	ReuseSizeHist              []uint64 `json:"reuse_size_hist,omitempty" yaml:"reuse_size_hist,omitempty"`
}

// AvgSingletons returns the mean number of singleton edges per mutation
// group that had singletons, or 0 when no group had any.
func (r Report) AvgSingletons() float64 {
	if r.NumWithSingletons == 0 {
		return 0
	}
	return float64(r.SingletonSampleEdges) / float64(r.NumWithSingletons)
}

// Print writes the human readable report, one counter per line.
func (r Report) Print(w io.Writer) error {
	lines := []struct {
		name  string
		value uint64
	}{
		{"mutations", r.TotalMutations},
		{"candidates", r.NumCandidates},
		{"emptyMutations", r.EmptyMutations},
		{"mutationsWithOneSample", r.MutationsWithOneSample},
		{"mutationsWithNoCandidates", r.MutationsWithNoCandidates},
		{"singletonSampleEdges", r.SingletonSampleEdges},
		{"samplesProcessed", r.SamplesProcessed},
		{"newTreeNodes", r.NewTreeNodes},
		{"reusedNodes", r.ReusedNodes},
		{"reusedExactly", r.ReusedExactly},
		{"reusedNodeCoverage", r.ReusedNodeCoverage},
		{"reusedMutNodes", r.ReusedMutNodes},
		{"reuseSizeBiggerThanHistMax", r.ReuseSizeBiggerThanHistMax},
		{"numWithSingletons", r.NumWithSingletons},
		{"maxSingletons", r.MaxSingletons},
	}
	for _, l := range lines {
		if _, err := fmt.Fprintf(w, "%s: %d\n", l.name, l.value); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "avgSingletons: %g\n", r.AvgSingletons())
	return err
}

func (r Report) String() string {
	var sb strings.Builder
	_ = r.Print(&sb)
	return sb.String()
}

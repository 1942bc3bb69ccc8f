package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hupe1980/grgmap"
)

type stat struct {
	name  string
	value float64
}

func reportStats(r grgmap.Report) []stat {
	return []stat{
		{"mutations", float64(r.TotalMutations)},
		{"candidates", float64(r.NumCandidates)},
		{"empty_mutations", float64(r.EmptyMutations)},
		{"mutations_with_one_sample", float64(r.MutationsWithOneSample)},
		{"mutations_with_no_candidates", float64(r.MutationsWithNoCandidates)},
		{"singleton_sample_edges", float64(r.SingletonSampleEdges)},
		{"samples_processed", float64(r.SamplesProcessed)},
		{"new_tree_nodes", float64(r.NewTreeNodes)},
		{"reused_nodes", float64(r.ReusedNodes)},
		{"reused_exactly", float64(r.ReusedExactly)},
		{"reused_node_coverage", float64(r.ReusedNodeCoverage)},
		{"reused_mut_nodes", float64(r.ReusedMutNodes)},
		{"reuse_size_bigger_than_hist_max", float64(r.ReuseSizeBiggerThanHistMax)},
		{"num_with_singletons", float64(r.NumWithSingletons)},
		{"max_singletons", float64(r.MaxSingletons)},
		{"avg_singletons", r.AvgSingletons()},
	}
}

// ReportCollector exports a fixed Report as constant gauges. Non-zero
// histogram buckets are exported under the "coverage" label.
type ReportCollector struct {
	report grgmap.Report
	stat   *prometheus.Desc
	reuse  *prometheus.Desc
}

var _ prometheus.Collector = (*ReportCollector)(nil)

// NewReportCollector returns a collector for report.
func NewReportCollector(report grgmap.Report) *ReportCollector {
	return &ReportCollector{
		report: report,
		stat: prometheus.NewDesc(
			prometheus.BuildFQName(Namespace, "report", "stat"),
			"Mapping statistic of the reported run.",
			[]string{"stat"}, nil,
		),
		reuse: prometheus.NewDesc(
			prometheus.BuildFQName(Namespace, "report", "reuse_size"),
			"Exact reuses by carrier-set size; the last bucket collects larger sets.",
			[]string{"coverage"}, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *ReportCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.stat
	ch <- c.reuse
}

// Collect implements prometheus.Collector.
func (c *ReportCollector) Collect(ch chan<- prometheus.Metric) {
	for _, s := range reportStats(c.report) {
		ch <- prometheus.MustNewConstMetric(c.stat, prometheus.GaugeValue, s.value, s.name)
	}
	for size, n := range c.report.ReuseSizeHist {
		if n == 0 {
			continue
		}
		ch <- prometheus.MustNewConstMetric(c.reuse, prometheus.GaugeValue, float64(n), strconv.Itoa(size))
	}
}

// WriteTextfile writes everything g gathers to path in the text
// exposition format, for the node exporter's textfile collector.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	return prometheus.WriteToTextfile(path, g)
}

// Package metrics exports mapping statistics to Prometheus.
//
// Collector implements grgmap.MetricsCollector and feeds live counters,
// suitable for a /metrics endpoint during long runs:
//
//	reg := prometheus.NewRegistry()
//	c, err := metrics.NewCollector(reg)
//	m, err := grgmap.New(g, grgmap.WithMetricsCollector(c))
//
// Batch jobs without a scrape target can dump the final report instead:
//
//	reg.MustRegister(metrics.NewReportCollector(report))
//	err := metrics.WriteTextfile("/var/lib/node_exporter/grgmap.prom", reg)
package metrics

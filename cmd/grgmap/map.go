package main

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/hupe1980/grgmap"
	"github.com/hupe1980/grgmap/blobstore"
	"github.com/hupe1980/grgmap/graph"
	"github.com/hupe1980/grgmap/internal/config"
	"github.com/hupe1980/grgmap/metrics"
	"github.com/hupe1980/grgmap/mutation"
)

type mapFlags struct {
	buckets          int
	workers          int
	batchSize        int
	progressInterval time.Duration
	inputKind        string
	inputPath        string
	outputKind       string
	outputPath       string
	reportName       string
	metricsTextfile  string
	quiet            bool
}

func newMapCmd(root *rootFlags) *cobra.Command {
	flags := &mapFlags{}

	cmd := &cobra.Command{
		Use:   "map [input]",
		Short: "Map a mutation stream onto a new graph",
		Long: `Map reads a mutation file (plain text, LZ4 or zstd) and maps every
mutation onto a freshly built graph. The statistics report is printed and
written to the output store.

Examples:
  grgmap map chr20.tsv.zst
  grgmap map --workers 8 --buckets 16 chr20.tsv.zst
  grgmap map -c run.yaml`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}
			flags.apply(cmd, &cfg)
			if len(args) == 1 {
				cfg.Input.Name = args[0]
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("config: %w", err)
			}
			return runMap(cmd, cfg, flags.quiet)
		},
	}

	f := cmd.Flags()
	f.IntVar(&flags.buckets, "buckets", config.DefaultBuckets, "32-bit buckets per signature")
	f.IntVar(&flags.workers, "workers", 0, "mapping workers (0 = GOMAXPROCS)")
	f.IntVar(&flags.batchSize, "batch-size", config.DefaultBatchSize, "mutations per batch")
	f.DurationVar(&flags.progressInterval, "progress-interval", config.DefaultProgressInterval, "minimum time between progress logs")
	f.StringVar(&flags.inputKind, "input-kind", "", "input store kind (local, s3, minio)")
	f.StringVar(&flags.inputPath, "input-path", "", "root directory of a local input store")
	f.StringVar(&flags.outputKind, "output-kind", "", "output store kind (local, memory, s3, minio)")
	f.StringVar(&flags.outputPath, "output-path", "", "root directory of a local output store")
	f.StringVar(&flags.reportName, "report", "", "name of the report blob")
	f.StringVar(&flags.metricsTextfile, "metrics-textfile", "", "write Prometheus metrics to this file")
	f.BoolVarP(&flags.quiet, "quiet", "q", false, "do not print the report")

	return cmd
}

// apply copies explicitly set flags over cfg.
func (f *mapFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	changed := cmd.Flags().Changed
	if changed("buckets") {
		cfg.Buckets = f.buckets
	}
	if changed("workers") {
		cfg.Workers = f.workers
	}
	if changed("batch-size") {
		cfg.BatchSize = f.batchSize
	}
	if changed("progress-interval") {
		cfg.ProgressInterval = f.progressInterval
	}
	if changed("input-kind") {
		cfg.Input.Kind = f.inputKind
	}
	if changed("input-path") {
		cfg.Input.Path = f.inputPath
	}
	if changed("output-kind") {
		cfg.Output.Kind = f.outputKind
	}
	if changed("output-path") {
		cfg.Output.Path = f.outputPath
	}
	if changed("report") {
		cfg.Output.Name = f.reportName
	}
	if changed("metrics-textfile") {
		cfg.Metrics.Textfile = f.metricsTextfile
	}
}

func runMap(cmd *cobra.Command, cfg config.Config, quiet bool) error {
	ctx := cmd.Context()

	logger, err := newLogger(cfg.Log, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	in, err := openStore(ctx, cfg.Input, cfg.CacheBlocks)
	if err != nil {
		return fmt.Errorf("input: %w", err)
	}
	out, err := openStore(ctx, cfg.Output, 0)
	if err != nil {
		return fmt.Errorf("output: %w", err)
	}

	reader, closeInput, err := openMutations(ctx, in, cfg.Input.Name)
	if err != nil {
		return err
	}
	defer closeInput()

	g, err := graph.New(reader.NumSamples())
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	collector, err := metrics.NewCollector(reg)
	if err != nil {
		return err
	}

	workers := cfg.Workers
	if workers == 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	report, err := grgmap.MapMutations(ctx, g, reader,
		grgmap.WithBuckets(cfg.Buckets),
		grgmap.WithWorkers(workers),
		grgmap.WithBatchSize(cfg.BatchSize),
		grgmap.WithProgressInterval(cfg.ProgressInterval),
		grgmap.WithLogger(logger),
		grgmap.WithMetricsCollector(collector),
	)
	if err != nil {
		return err
	}

	if !quiet {
		if err := report.Print(cmd.OutOrStdout()); err != nil {
			return err
		}
	}

	if err := writeReport(ctx, out, cfg.Output.Name, report); err != nil {
		return fmt.Errorf("output: %w", err)
	}

	if cfg.Metrics.Textfile != "" {
		reg.MustRegister(metrics.NewReportCollector(report))
		if err := metrics.WriteTextfile(cfg.Metrics.Textfile, reg); err != nil {
			return fmt.Errorf("metrics: %w", err)
		}
	}

	logger.InfoContext(ctx, "graph built",
		"nodes", g.NumNodes(),
		"edges", g.NumEdges(),
		"mutations", g.NumMutations(),
	)
	return nil
}

func openMutations(ctx context.Context, store blobstore.BlobStore, name string) (*mutation.Reader, func(), error) {
	blob, err := store.Open(ctx, name)
	if err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			return nil, nil, fmt.Errorf("input %s: not found", name)
		}
		return nil, nil, fmt.Errorf("input %s: %w", name, err)
	}

	reader, err := mutation.NewReader(blobstore.NewReader(ctx, blob))
	if err != nil {
		_ = blob.Close()
		return nil, nil, fmt.Errorf("input %s: %w", name, err)
	}

	return reader, func() {
		_ = reader.Close()
		_ = blob.Close()
	}, nil
}

func writeReport(ctx context.Context, store blobstore.BlobStore, name string, report grgmap.Report) error {
	data, err := yaml.Marshal(report)
	if err != nil {
		return err
	}
	return store.Put(ctx, name, data)
}

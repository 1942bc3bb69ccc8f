package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/hupe1980/grgmap/model"
	"github.com/hupe1980/grgmap/mutation"
	"github.com/hupe1980/grgmap/testutil"
)

var bases = [...]string{"A", "C", "G", "T"}

type generateFlags struct {
	samples     int
	mutations   int
	maxCarriers int
	seed        int64
	compression string
	outputKind  string
	outputPath  string
}

func newGenerateCmd(root *rootFlags) *cobra.Command {
	flags := &generateFlags{}

	cmd := &cobra.Command{
		Use:   "generate <output>",
		Short: "Write a synthetic mutation file",
		Long: `Generate writes random mutations whose carrier-set sizes follow a Zipf
law, so most mutations are rare. The file is written to the output store.

Examples:
  grgmap generate --samples 1000 --mutations 100000 synthetic.tsv.zst`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("output-kind") {
				cfg.Output.Kind = flags.outputKind
			}
			if cmd.Flags().Changed("output-path") {
				cfg.Output.Path = flags.outputPath
			}
			cfg.Output.Name = args[0]
			if err := cfg.Output.Validate(); err != nil {
				return fmt.Errorf("config: output: %w", err)
			}
			if flags.samples <= 0 {
				return errors.New("samples must be positive")
			}
			if flags.mutations < 0 {
				return errors.New("mutations must be non-negative")
			}
			c, err := mutation.ParseCompression(flags.compression)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			store, err := openStore(ctx, cfg.Output, 0)
			if err != nil {
				return err
			}

			blob, err := store.Create(ctx, cfg.Output.Name)
			if err != nil {
				return err
			}
			if err := writeSynthetic(blob, flags, c); err != nil {
				_ = blob.Close()
				return err
			}
			if err := blob.Close(); err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "wrote %d mutations over %d samples to %s\n",
				flags.mutations, flags.samples, cfg.Output.Name)
			return err
		},
	}

	f := cmd.Flags()
	f.IntVar(&flags.samples, "samples", 64, "number of samples")
	f.IntVar(&flags.mutations, "mutations", 1000, "number of mutations")
	f.IntVar(&flags.maxCarriers, "max-carriers", 32, "largest carrier set")
	f.Int64Var(&flags.seed, "seed", 42, "random seed")
	f.StringVar(&flags.compression, "compression", "zstd", "none, lz4 or zstd")
	f.StringVar(&flags.outputKind, "output-kind", "", "output store kind (local, memory, s3, minio)")
	f.StringVar(&flags.outputPath, "output-path", "", "root directory of a local output store")

	return cmd
}

func writeSynthetic(w io.Writer, flags *generateFlags, c mutation.Compression) error {
	mw, err := mutation.NewWriter(w, flags.samples, c)
	if err != nil {
		return err
	}

	rng := testutil.NewRNG(flags.seed)
	maxCarriers := max(1, min(flags.maxCarriers, flags.samples))
	for i, carriers := range rng.CarrierSets(flags.mutations, maxCarriers, flags.samples) {
		ref := rng.Intn(len(bases))
		alt := (ref + 1 + rng.Intn(len(bases)-1)) % len(bases)
		rec := mutation.Record{
			Mutation: model.Mutation{Position: uint64(i+1) * 100, Ref: bases[ref], Alt: bases[alt]},
			Carriers: carriers,
		}
		if err := mw.Write(rec); err != nil {
			return err
		}
	}
	return mw.Close()
}

package main

import (
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/Noofbiz/terraFeed/records"
)

var genCmd = &cobra.Command{
	Use:   "gen",
	Short: "Generate synthetic record files",
	Long: `Gen writes record files filled with random band values matching the
configured schema, so pipelines can be exercised before a real export
lands. Feature bands hold uniform noise in [0, 1); label bands take a
random class per value.`,
	RunE: runGen,
}

var (
	genOut     string
	genFiles   int
	genSamples int
	genSeed    int64
)

func init() {
	genCmd.Flags().StringVar(&genOut, "out", "", "directory to write record files into")
	genCmd.Flags().IntVar(&genFiles, "files", 4, "number of record files")
	genCmd.Flags().IntVar(&genSamples, "samples", 32, "samples per file")
	genCmd.Flags().Int64Var(&genSeed, "seed", 0, "random seed, 0 for time-based")
	_ = genCmd.MarkFlagRequired("out")
	rootCmd.AddCommand(genCmd)
}

func runGen(cmd *cobra.Command, args []string) error {
	if err := os.MkdirAll(genOut, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	seed := genSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	bandSize := cfg.PatchSize * cfg.PatchSize
	if cfg.DNN {
		bandSize = 1
	}
	for f := range genFiles {
		path := filepath.Join(genOut, fmt.Sprintf("part-%03d.gz", f))
		if err := writeSyntheticFile(path, rng, bandSize); err != nil {
			return err
		}
		slog.Info("wrote record file", "path", path, "samples", genSamples)
	}
	return nil
}

func writeSyntheticFile(path string, rng *rand.Rand, bandSize int) error {
	w, err := records.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	for range genSamples {
		rec := make(records.Record, len(cfg.Features)+len(cfg.Labels))
		for _, band := range cfg.Features {
			vals := make([]float32, bandSize)
			for i := range vals {
				vals[i] = rng.Float32()
			}
			rec[band] = vals
		}
		for _, band := range cfg.Labels {
			vals := make([]float32, bandSize)
			for i := range vals {
				vals[i] = float32(rng.Intn(cfg.NClasses))
			}
			rec[band] = vals
		}
		if err := w.Append(rec); err != nil {
			w.Close()
			return fmt.Errorf("failed to append record: %w", err)
		}
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	return nil
}

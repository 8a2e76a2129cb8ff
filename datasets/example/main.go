package main

// Example that exercises a full pipeline end to end: it writes a handful of
// synthetic record files, assembles the training pipeline over them, walks a
// few batches, then sizes the dataset with a counting pass.
//
// Usage:
//   go run ./example
//
// Everything happens in a temporary directory, no real exports needed.

import (
	"fmt"
	"io"
	"log"
	"math/rand"
	"os"
	"path/filepath"

	"github.com/Noofbiz/terraFeed/config"
	"github.com/Noofbiz/terraFeed/datasets"
	"github.com/Noofbiz/terraFeed/records"
)

func main() {
	dir, err := os.MkdirTemp("", "terrafeed-example")
	if err != nil {
		log.Fatalf("failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(dir)

	cfg := config.Default()
	cfg.PatchSize = 16
	cfg.BatchSize = 4
	cfg.BufferSize = 32
	cfg.Seed = 1
	cfg.Training = true

	rng := rand.New(rand.NewSource(cfg.Seed))
	const nFiles, perFile = 3, 8
	for f := range nFiles {
		if err := writeFile(filepath.Join(dir, fmt.Sprintf("part-%d.gz", f)), cfg, rng, perFile); err != nil {
			log.Fatalf("failed to write records: %v", err)
		}
	}
	fmt.Printf("Wrote %d record files with %d samples each under %s\n", nFiles, perFile, dir)

	pattern := filepath.Join(dir, "*")
	ds, err := datasets.New(pattern, cfg)
	if err != nil {
		log.Fatalf("failed to build pipeline: %v", err)
	}
	defer ds.Close()

	fmt.Println("Reading the first two batches...")
	for i := range 2 {
		s, err := ds.Next()
		if err != nil {
			log.Fatalf("failed to read batch %d: %v", i, err)
		}
		fmt.Printf("  batch %d: features %v labels %v\n", i, s.Features.Dims(), s.Label.Dims())
	}

	// The same pipeline again, as gomlx tensors this time.
	if err := ds.Reset(); err != nil {
		log.Fatalf("failed to reset: %v", err)
	}
	_, inputs, labels, err := ds.Yield()
	if err != nil {
		log.Fatalf("failed to yield: %v", err)
	}
	fmt.Printf("Yielded gomlx tensors: %d input(s), %d label(s)\n", len(inputs), len(labels))

	var batches int
	for {
		if _, err := ds.Next(); err == io.EOF {
			break
		} else if err != nil {
			log.Fatalf("failed to read batch: %v", err)
		}
		batches++
	}
	fmt.Printf("Remaining batches in the pass: %d\n", batches)

	counting, err := datasets.Counting(pattern, cfg)
	if err != nil {
		log.Fatalf("failed to build counting pipeline: %v", err)
	}
	defer counting.Close()
	n, err := datasets.Count(counting, nil)
	if err != nil {
		log.Fatalf("failed to count: %v", err)
	}
	fmt.Printf("The dataset holds %d samples in total\n", n)
}

func writeFile(path string, cfg *config.Config, rng *rand.Rand, samples int) error {
	w, err := records.Create(path)
	if err != nil {
		return err
	}
	size := cfg.PatchSize * cfg.PatchSize
	for range samples {
		rec := make(records.Record, len(cfg.Features)+1)
		for _, band := range cfg.Features {
			vals := make([]float32, size)
			for i := range vals {
				vals[i] = rng.Float32()
			}
			rec[band] = vals
		}
		classes := make([]float32, size)
		for i := range classes {
			classes[i] = float32(rng.Intn(cfg.NClasses))
		}
		rec[cfg.Labels[0]] = classes
		if err := w.Append(rec); err != nil {
			w.Close()
			return err
		}
	}
	return w.Close()
}

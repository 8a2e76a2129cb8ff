package datasets

import (
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/Noofbiz/terraFeed/records"
)

func writeSplit(t *testing.T, dir string, n int) {
	t.Helper()
	var recs []records.Record
	for i := range n {
		recs = append(recs, patchRecord(float32(i)))
	}
	writeSampleFile(t, filepath.Join(dir, "part1.gz"), recs)
}

func TestCountDrainsEverySample(t *testing.T) {
	dir := t.TempDir()
	for f := range 3 {
		var recs []records.Record
		for i := range 4 {
			recs = append(recs, patchRecord(float32(f*4 + i)))
		}
		writeSampleFile(t, filepath.Join(dir, fmt.Sprintf("part%d.gz", f)), recs)
	}

	cfg := testConfig()
	ds, err := Counting(filepath.Join(dir, "*"), cfg)
	if err != nil {
		t.Fatalf("failed to build counting dataset: %v", err)
	}
	defer ds.Close()

	var seen []int64
	n, err := Count(ds, func(n int64) { seen = append(seen, n) })
	if err != nil {
		t.Fatalf("failed to count: %v", err)
	}
	if n != 12 {
		t.Fatalf("expected 12 samples, got %d", n)
	}
	if len(seen) != 12 || seen[11] != 12 {
		t.Fatalf("progress callback saw %v", seen)
	}
}

func TestCountingYieldsUnbatchedFeatureOnlySamples(t *testing.T) {
	dir := t.TempDir()
	writeSplit(t, dir, 2)

	cfg := testConfig()
	ds, err := Counting(filepath.Join(dir, "*"), cfg)
	if err != nil {
		t.Fatalf("failed to build counting dataset: %v", err)
	}
	defer ds.Close()

	s, err := ds.Next()
	if err != nil {
		t.Fatal(err)
	}
	if s.Label != nil {
		t.Fatal("counting passes drop the label")
	}
	if dims := s.Features.Dims(); len(dims) != 3 || dims[0] != 2 {
		t.Fatalf("expected an unbatched patch, got dims %v", dims)
	}
}

func TestCountSamples(t *testing.T) {
	cfg := testConfig()
	cfg.TrainingDir = t.TempDir()
	cfg.TestingDir = t.TempDir()
	cfg.ValidationDir = t.TempDir()
	writeSplit(t, cfg.TrainingDir, 2)
	writeSplit(t, cfg.TestingDir, 3)
	writeSplit(t, cfg.ValidationDir, 4)

	train, test, val, err := CountSamples(cfg)
	if err != nil {
		t.Fatalf("failed to count samples: %v", err)
	}
	if train != 2 || test != 3 || val != 4 {
		t.Fatalf("expected (2, 3, 4), got (%d, %d, %d)", train, test, val)
	}
}

func TestCountSamplesFailsOnEmptySplit(t *testing.T) {
	cfg := testConfig()
	cfg.TrainingDir = t.TempDir()
	cfg.TestingDir = t.TempDir()
	cfg.ValidationDir = t.TempDir()
	writeSplit(t, cfg.TrainingDir, 2)

	if _, _, _, err := CountSamples(cfg); !errors.Is(err, records.ErrNoFiles) {
		t.Fatalf("expected ErrNoFiles for the empty testing split, got %v", err)
	}
}

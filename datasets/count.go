package datasets

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/Noofbiz/terraFeed/config"
	"github.com/Noofbiz/terraFeed/records"
)

// Counting builds the unbatched pipeline used to size a dataset. Records
// are parsed and encoded exactly like a labeled patch pipeline, so a record
// that would fail training also fails the count, but nothing is shuffled,
// batched or transformed and the label plane is dropped.
func Counting(pattern string, cfg *config.Config) (*Dataset, error) {
	files, err := records.List(pattern)
	if err != nil {
		return nil, err
	}
	var src stream = &source{
		seq:   records.Interleave(files, cfg.Workers),
		parse: ParseLabeled(cfg.Features, cfg.Labels, cfg.PatchSize),
	}
	src = &mapped{src: src, fn: TupleLabeled(cfg.NClasses, true)}
	return &Dataset{name: pattern, src: src}, nil
}

// Count drains the dataset and returns how many samples it yields. The
// progress callback, when non-nil, observes the running total.
func Count(ds *Dataset, progress func(n int64)) (int64, error) {
	var n int64
	for {
		_, err := ds.Next()
		if err == io.EOF {
			return n, nil
		}
		if err != nil {
			return n, err
		}
		n++
		if progress != nil {
			progress(n)
		}
	}
}

// CountSamples sizes the three splits of a dataset layout. Model training
// needs these totals up front to derive steps per epoch.
func CountSamples(cfg *config.Config) (int64, int64, int64, error) {
	var sizes [3]int64
	splits := []struct {
		name    string
		pattern string
	}{
		{"training", cfg.TrainingPattern()},
		{"testing", cfg.TestingPattern()},
		{"validation", cfg.ValidationPattern()},
	}
	for i, split := range splits {
		ds, err := Counting(split.pattern, cfg)
		if err != nil {
			return 0, 0, 0, fmt.Errorf("failed to open %s records: %w", split.name, err)
		}
		n, err := Count(ds, nil)
		ds.Close()
		if err != nil {
			return 0, 0, 0, fmt.Errorf("failed to count %s records: %w", split.name, err)
		}
		sizes[i] = n
	}
	slog.Info("dataset sizes", "training", sizes[0], "testing", sizes[1], "validation", sizes[2])
	return sizes[0], sizes[1], sizes[2], nil
}

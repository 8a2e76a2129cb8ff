package datasets

import (
	"fmt"
	"io"
	"log/slog"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Describe logs the shapes of one batch, the quickest way to check that a
// pipeline produces what a model expects, then rewinds the dataset.
func Describe(ds *Dataset, name string) error {
	s, err := ds.Next()
	if err != nil {
		return fmt.Errorf("failed to describe %s: %w", name, err)
	}
	if s.Features != nil {
		slog.Info("dataset batch", "dataset", name, "features", s.Features.Dims())
	}
	for _, key := range s.Order {
		slog.Info("dataset batch", "dataset", name, "band", key, "dims", s.Named[key].Dims())
	}
	if s.Label != nil {
		slog.Info("dataset batch", "dataset", name, "labels", s.Label.Dims())
	} else {
		slog.Info("dataset batch", "dataset", name, "labels", "none")
	}
	return ds.Reset()
}

// maxBandValues caps how many values a summary keeps per band, so sampling
// a large dataset stays bounded.
const maxBandValues = 1 << 16

// BandSummary holds the sampled distribution of one band.
type BandSummary struct {
	Band   string
	Count  int
	Min    float64
	Max    float64
	Mean   float64
	StdDev float64
	// Values is the sample the summary was computed from, for plotting.
	Values []float64
}

// SummarizeBands reads up to maxBatches batches and summarizes every band's
// value distribution. Stacked datasets need one name per channel; named
// datasets take their band names from the samples and names may be nil.
// The dataset is rewound afterwards.
func SummarizeBands(ds *Dataset, names []string, maxBatches int) ([]BandSummary, error) {
	collected := make(map[string][]float64)
	var order []string
	full := func() bool {
		if len(order) == 0 {
			return false
		}
		for _, band := range order {
			if len(collected[band]) < maxBandValues {
				return false
			}
		}
		return true
	}

	for read := 0; read < maxBatches && !full(); read++ {
		s, err := ds.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to summarize bands: %w", err)
		}
		switch {
		case s.Features != nil:
			channels := s.Features.Dim(s.Features.Rank() - 1)
			if len(names) != channels {
				return nil, fmt.Errorf("dataset has %d channels, got %d band names", channels, len(names))
			}
			if order == nil {
				order = names
			}
			for i, v := range s.Features.Data() {
				band := names[i%channels]
				if len(collected[band]) < maxBandValues {
					collected[band] = append(collected[band], float64(v))
				}
			}
		case s.Named != nil:
			if order == nil {
				order = append([]string(nil), s.Order...)
			}
			for _, band := range s.Order {
				vals := collected[band]
				for _, v := range s.Named[band].Data() {
					if len(vals) >= maxBandValues {
						break
					}
					vals = append(vals, float64(v))
				}
				collected[band] = vals
			}
		default:
			return nil, fmt.Errorf("failed to summarize bands: sample has no features")
		}
	}
	if order == nil {
		return nil, fmt.Errorf("failed to summarize bands: dataset is empty")
	}

	summaries := make([]BandSummary, 0, len(order))
	for _, band := range order {
		vals := collected[band]
		if len(vals) == 0 {
			continue
		}
		mean, std := stat.MeanStdDev(vals, nil)
		summaries = append(summaries, BandSummary{
			Band:   band,
			Count:  len(vals),
			Min:    floats.Min(vals),
			Max:    floats.Max(vals),
			Mean:   mean,
			StdDev: std,
			Values: vals,
		})
	}
	return summaries, ds.Reset()
}

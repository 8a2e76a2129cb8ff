package datasets

import (
	"errors"
	"fmt"

	"github.com/Noofbiz/terraFeed/records"
	"github.com/Noofbiz/terraFeed/tensor"
)

// ErrSchemaMismatch marks records whose bands do not match the configured
// feature and label layout.
var ErrSchemaMismatch = errors.New("record does not match dataset schema")

// ParseFunc decodes one record into a pipeline sample. Parsers fix the
// schema (band names and per-band sizes) at construction and reject records
// that do not match it.
type ParseFunc func(records.Record) (*Sample, error)

// bandValues pulls one band out of a record and checks its element count.
// Extra bands in the record are ignored.
func bandValues(rec records.Record, key string, want int) ([]float32, error) {
	vals, ok := rec[key]
	if !ok {
		return nil, fmt.Errorf("%w: missing band %q", ErrSchemaMismatch, key)
	}
	if len(vals) != want {
		return nil, fmt.Errorf("%w: band %q has %d values, want %d", ErrSchemaMismatch, key, len(vals), want)
	}
	return vals, nil
}

// patchBand decodes one band as a [patchSize, patchSize] tensor.
func patchBand(rec records.Record, key string, patchSize int) (*tensor.Tensor, error) {
	vals, err := bandValues(rec, key, patchSize*patchSize)
	if err != nil {
		return nil, err
	}
	return tensor.FromSlice(vals, patchSize, patchSize)
}

// ParseStacked decodes the configured patch bands and stacks them
// channel-last into one [patch, patch, len(features)+len(labels)] composite,
// features first, labels after. Channel k carries exactly the band at
// position k of the combined name list.
func ParseStacked(features, labels []string, patchSize int) ParseFunc {
	keys := append(append([]string(nil), features...), labels...)
	return func(rec records.Record) (*Sample, error) {
		parts := make([]*tensor.Tensor, 0, len(keys))
		for _, key := range keys {
			band, err := patchBand(rec, key, patchSize)
			if err != nil {
				return nil, err
			}
			parts = append(parts, band)
		}
		stacked, err := tensor.StackLast(parts)
		if err != nil {
			return nil, err
		}
		return &Sample{Features: stacked}, nil
	}
}

// ParseNamed decodes the configured patch bands into named [patch, patch]
// tensors, features and labels side by side, for callers that address bands
// by name.
func ParseNamed(features, labels []string, patchSize int) ParseFunc {
	keys := append(append([]string(nil), features...), labels...)
	return func(rec records.Record) (*Sample, error) {
		named := make(map[string]*tensor.Tensor, len(keys))
		for _, key := range keys {
			band, err := patchBand(rec, key, patchSize)
			if err != nil {
				return nil, err
			}
			named[key] = band
		}
		return &Sample{Named: named, Order: keys}, nil
	}
}

// ParsePixel decodes single-pixel bands for dense models: every feature
// becomes a named [1] tensor and the first label is split off as the class
// value, truncated to an integer. Extra labels stay with the features.
func ParsePixel(features, labels []string) ParseFunc {
	kept := append(append([]string(nil), features...), labels[1:]...)
	classBand := labels[0]
	return func(rec records.Record) (*Sample, error) {
		named := make(map[string]*tensor.Tensor, len(kept))
		for _, key := range kept {
			vals, err := bandValues(rec, key, 1)
			if err != nil {
				return nil, err
			}
			band, err := tensor.FromSlice(vals, 1)
			if err != nil {
				return nil, err
			}
			named[key] = band
		}
		vals, err := bandValues(rec, classBand, 1)
		if err != nil {
			return nil, err
		}
		raw, err := tensor.FromSlice(vals, 1)
		if err != nil {
			return nil, err
		}
		label := tensor.Map(raw, func(v float32) float32 { return float32(int32(v)) })
		return &Sample{Named: named, Order: kept, Label: label}, nil
	}
}

// ParseLabeled decodes patch bands and splits the first label off as a
// [patch, patch] class map, leaving the features (and any extra labels) as
// named [patch, patch] tensors.
func ParseLabeled(features, labels []string, patchSize int) ParseFunc {
	kept := append(append([]string(nil), features...), labels[1:]...)
	classBand := labels[0]
	return func(rec records.Record) (*Sample, error) {
		named := make(map[string]*tensor.Tensor, len(kept))
		for _, key := range kept {
			band, err := patchBand(rec, key, patchSize)
			if err != nil {
				return nil, err
			}
			named[key] = band
		}
		label, err := patchBand(rec, classBand, patchSize)
		if err != nil {
			return nil, err
		}
		return &Sample{Named: named, Order: kept, Label: label}, nil
	}
}

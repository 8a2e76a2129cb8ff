package datasets

import (
	"fmt"
	"math"

	"github.com/Noofbiz/terraFeed/tensor"
)

// TupleFunc reshapes a parsed sample into the (features, label) form a model
// head consumes. Tuplers only ever touch the trailing axes, so the same
// function serves single samples and whole batches; the assembly in New and
// FromFiles decides which side of the batch stage a tupler runs on.
type TupleFunc func(*Sample) (*Sample, error)

// TupleStacked splits a stacked composite into its leading nFeatures
// channels and the trailing label channels. With inverseLabels every label
// channel gains a leading complement channel abs(label-1), so a binary mask
// becomes a (background, foreground) pair.
func TupleStacked(nFeatures int, inverseLabels bool) TupleFunc {
	return func(s *Sample) (*Sample, error) {
		if s.Features == nil {
			return nil, fmt.Errorf("stacked tuple needs a composite, sample has named bands")
		}
		last := s.Features.Dim(s.Features.Rank() - 1)
		if nFeatures <= 0 || nFeatures >= last {
			return nil, fmt.Errorf("%d feature channels leave no labels in a %d channel composite", nFeatures, last)
		}
		feats, err := tensor.SliceLast(s.Features, 0, nFeatures)
		if err != nil {
			return nil, err
		}
		label, err := tensor.SliceLast(s.Features, nFeatures, last)
		if err != nil {
			return nil, err
		}
		if inverseLabels {
			inv := tensor.Map(label, func(v float32) float32 {
				return float32(math.Abs(float64(v - 1)))
			})
			label, err = tensor.ConcatLast([]*tensor.Tensor{inv, label})
			if err != nil {
				return nil, err
			}
		}
		return &Sample{Features: feats, Label: label}, nil
	}
}

// TupleNamed keeps the feature bands by name and one-hot encodes the first
// label band to depth classes.
func TupleNamed(features, labels []string, depth int) TupleFunc {
	classBand := labels[0]
	return func(s *Sample) (*Sample, error) {
		if s.Named == nil {
			return nil, fmt.Errorf("named tuple needs named bands")
		}
		named := make(map[string]*tensor.Tensor, len(features))
		for _, key := range features {
			band, ok := s.Named[key]
			if !ok {
				return nil, fmt.Errorf("%w: missing band %q", ErrSchemaMismatch, key)
			}
			named[key] = band
		}
		raw, ok := s.Named[classBand]
		if !ok {
			return nil, fmt.Errorf("%w: missing band %q", ErrSchemaMismatch, classBand)
		}
		label, err := tensor.OneHot(raw, depth)
		if err != nil {
			return nil, err
		}
		return &Sample{Named: named, Order: features, Label: label}, nil
	}
}

// TuplePixel turns a pixel sample into one [1, n] feature row in band order
// with a [1, depth] one-hot class label, the layout dense models train on.
func TuplePixel(depth int) TupleFunc {
	return func(s *Sample) (*Sample, error) {
		feats, err := stackNamed(s)
		if err != nil {
			return nil, err
		}
		if s.Label == nil {
			return nil, fmt.Errorf("pixel tuple needs a class value")
		}
		label, err := tensor.OneHot(s.Label, depth)
		if err != nil {
			return nil, err
		}
		return &Sample{Features: feats, Label: label}, nil
	}
}

// TuplePixelServing shapes a pixel sample for a serving signature: each band
// becomes a [1, 1, 1] tensor under its own name and the class a
// [1, 1, depth] one-hot.
func TuplePixelServing(depth int) TupleFunc {
	return func(s *Sample) (*Sample, error) {
		if s.Named == nil || s.Label == nil {
			return nil, fmt.Errorf("serving tuple needs named bands and a class value")
		}
		named := make(map[string]*tensor.Tensor, len(s.Named))
		for _, key := range s.Order {
			band, err := s.Named[key].Reshape(1, 1, 1)
			if err != nil {
				return nil, err
			}
			named[key] = band
		}
		oh, err := tensor.OneHot(s.Label, depth)
		if err != nil {
			return nil, err
		}
		label, err := oh.Reshape(1, 1, depth)
		if err != nil {
			return nil, err
		}
		return &Sample{Named: named, Order: s.Order, Label: label}, nil
	}
}

// TupleLabeled stacks the named patch bands channel-last and one-hot encodes
// the class map per pixel, [patch, patch] to [patch, patch, depth], keeping
// every class pixel at its image coordinates. With xOnly the label is
// dropped entirely, which is what counting passes use.
func TupleLabeled(depth int, xOnly bool) TupleFunc {
	return func(s *Sample) (*Sample, error) {
		feats, err := stackNamed(s)
		if err != nil {
			return nil, err
		}
		if xOnly {
			return &Sample{Features: feats}, nil
		}
		if s.Label == nil {
			return nil, fmt.Errorf("labeled tuple needs a class map")
		}
		label, err := tensor.OneHot(s.Label, depth)
		if err != nil {
			return nil, err
		}
		return &Sample{Features: feats, Label: label}, nil
	}
}

// TupleLabeledServing keeps the patch bands named, each widened by a unit
// channel axis, with a per-pixel one-hot class map.
func TupleLabeledServing(depth int) TupleFunc {
	return func(s *Sample) (*Sample, error) {
		if s.Named == nil || s.Label == nil {
			return nil, fmt.Errorf("serving tuple needs named bands and a class map")
		}
		named := make(map[string]*tensor.Tensor, len(s.Named))
		for _, key := range s.Order {
			band := s.Named[key]
			widened, err := band.Reshape(append(band.Dims(), 1)...)
			if err != nil {
				return nil, err
			}
			named[key] = widened
		}
		label, err := tensor.OneHot(s.Label, depth)
		if err != nil {
			return nil, err
		}
		return &Sample{Named: named, Order: s.Order, Label: label}, nil
	}
}

// stackNamed stacks the sample's named bands channel-last in Order.
func stackNamed(s *Sample) (*tensor.Tensor, error) {
	if s.Named == nil {
		return nil, fmt.Errorf("tuple needs named bands, sample has a composite")
	}
	parts := make([]*tensor.Tensor, 0, len(s.Order))
	for _, key := range s.Order {
		band, ok := s.Named[key]
		if !ok {
			return nil, fmt.Errorf("%w: missing band %q", ErrSchemaMismatch, key)
		}
		parts = append(parts, band)
	}
	return tensor.StackLast(parts)
}

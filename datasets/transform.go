package datasets

import (
	"fmt"
	"math/rand"

	"github.com/Noofbiz/terraFeed/tensor"
)

// Random flips and rotations applied to training batches. A single draw from
// the pipeline's random source picks one of eight outcomes per batch, and
// the chosen op runs over every tensor of the sample, so class maps stay
// aligned with their pixels. Batches arrive batch-leading, which puts the
// spatial plane at axes 1 and 2 for every supported layout.

// spatialOp transforms one tensor of a batch.
type spatialOp func(*tensor.Tensor) (*tensor.Tensor, error)

func flipLeftRight(t *tensor.Tensor) (*tensor.Tensor, error) { return tensor.Reverse(t, 2) }
func flipUpDown(t *tensor.Tensor) (*tensor.Tensor, error)    { return tensor.Reverse(t, 1) }

func rotate(k int) spatialOp {
	return func(t *tensor.Tensor) (*tensor.Tensor, error) { return tensor.Rot90(t, 1, k) }
}

func sequence(ops ...spatialOp) spatialOp {
	return func(t *tensor.Tensor) (*tensor.Tensor, error) {
		var err error
		for _, op := range ops {
			if t, err = op(t); err != nil {
				return nil, err
			}
		}
		return t, nil
	}
}

// pickTransform maps one uniform draw in [0, 1) to a spatial op. The first
// seven tenths of the range select a flip, a rotation or a combination; the
// rest is identity, reported as nil.
func pickTransform(x float32) spatialOp {
	switch {
	case x < 0.10:
		return flipLeftRight
	case x < 0.20:
		return flipUpDown
	case x < 0.30:
		return sequence(flipLeftRight, flipUpDown)
	case x < 0.40:
		return rotate(1)
	case x < 0.50:
		return rotate(2)
	case x < 0.60:
		return rotate(3)
	case x < 0.70:
		return sequence(rotate(2), flipLeftRight)
	default:
		return nil
	}
}

// transformSample applies the op drawn for x to every tensor of the sample.
func transformSample(s *Sample, x float32) (*Sample, error) {
	op := pickTransform(x)
	if op == nil {
		return s, nil
	}
	out := &Sample{Order: s.Order}
	var err error
	if s.Features != nil {
		if out.Features, err = op(s.Features); err != nil {
			return nil, fmt.Errorf("failed to transform composite: %w", err)
		}
	}
	if s.Named != nil {
		out.Named = make(map[string]*tensor.Tensor, len(s.Named))
		for key, band := range s.Named {
			if out.Named[key], err = op(band); err != nil {
				return nil, fmt.Errorf("failed to transform band %q: %w", key, err)
			}
		}
	}
	if s.Label != nil {
		if out.Label, err = op(s.Label); err != nil {
			return nil, fmt.Errorf("failed to transform label: %w", err)
		}
	}
	return out, nil
}

// transformStage randomly transforms every batch that passes through it.
type transformStage struct {
	src stream
	rng *rand.Rand
	err error
}

func (t *transformStage) Next() (*Sample, error) {
	if t.err != nil {
		return nil, t.err
	}
	s, err := t.src.Next()
	if err != nil {
		return nil, err
	}
	out, err := transformSample(s, t.rng.Float32())
	if err != nil {
		t.err = err
		return nil, err
	}
	return out, nil
}

func (t *transformStage) Reset() error {
	t.err = nil
	return t.src.Reset()
}

func (t *transformStage) Close() error {
	return t.src.Close()
}

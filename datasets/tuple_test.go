package datasets

import (
	"errors"
	"testing"

	"github.com/Noofbiz/terraFeed/tensor"
)

func fromVals(t *testing.T, vals []float32, dims ...int) *tensor.Tensor {
	t.Helper()
	tn, err := tensor.FromSlice(vals, dims...)
	if err != nil {
		t.Fatalf("failed to build tensor: %v", err)
	}
	return tn
}

func TestTupleStackedSplitsChannels(t *testing.T) {
	// Two pixels, channels (feat, feat, label).
	comp := fromVals(t, []float32{1, 2, 9, 3, 4, 8}, 2, 1, 3)

	s, err := TupleStacked(2, false)(&Sample{Features: comp})
	if err != nil {
		t.Fatalf("failed to tuple: %v", err)
	}
	if dims := s.Features.Dims(); dims[2] != 2 {
		t.Fatalf("expected 2 feature channels, got dims %v", dims)
	}
	if dims := s.Label.Dims(); dims[2] != 1 {
		t.Fatalf("expected 1 label channel, got dims %v", dims)
	}
	feats := []float32{s.Features.At(0, 0, 0), s.Features.At(0, 0, 1), s.Features.At(1, 0, 0), s.Features.At(1, 0, 1)}
	for i, want := range []float32{1, 2, 3, 4} {
		if feats[i] != want {
			t.Fatalf("feature value %d: got %v want %v", i, feats[i], want)
		}
	}
	if s.Label.At(0, 0, 0) != 9 || s.Label.At(1, 0, 0) != 8 {
		t.Fatalf("label channel misplaced: %v %v", s.Label.At(0, 0, 0), s.Label.At(1, 0, 0))
	}
}

func TestTupleStackedInverseLabels(t *testing.T) {
	comp := fromVals(t, []float32{1, 2, 0, 3, 4, 1}, 2, 1, 3)

	s, err := TupleStacked(2, true)(&Sample{Features: comp})
	if err != nil {
		t.Fatalf("failed to tuple: %v", err)
	}
	if dims := s.Label.Dims(); dims[2] != 2 {
		t.Fatalf("expected complement and label channels, got dims %v", dims)
	}
	// Pixel 0 has class 0, pixel 1 class 1.
	checks := []struct {
		px, ch int
		want   float32
	}{
		{0, 0, 1},
		{0, 1, 0},
		{1, 0, 0},
		{1, 1, 1},
	}
	for _, c := range checks {
		if got := s.Label.At(c.px, 0, c.ch); got != c.want {
			t.Fatalf("pixel %d channel %d: got %v want %v", c.px, c.ch, got, c.want)
		}
	}
}

func TestTupleStackedNeedsLabelChannels(t *testing.T) {
	comp := fromVals(t, []float32{1, 2}, 1, 1, 2)
	if _, err := TupleStacked(2, false)(&Sample{Features: comp}); err == nil {
		t.Fatal("expected an error for a composite with no label channels")
	}
}

func pixelSample(t *testing.T) *Sample {
	t.Helper()
	return &Sample{
		Named: map[string]*tensor.Tensor{
			"a": fromVals(t, []float32{0.5}, 1),
			"b": fromVals(t, []float32{0.25}, 1),
		},
		Order: []string{"a", "b"},
		Label: fromVals(t, []float32{1}, 1),
	}
}

func TestTuplePixelBuildsFeatureRow(t *testing.T) {
	s, err := TuplePixel(3)(pixelSample(t))
	if err != nil {
		t.Fatalf("failed to tuple: %v", err)
	}
	if dims := s.Features.Dims(); len(dims) != 2 || dims[0] != 1 || dims[1] != 2 {
		t.Fatalf("expected feature dims [1 2], got %v", dims)
	}
	if s.Features.At(0, 0) != 0.5 || s.Features.At(0, 1) != 0.25 {
		t.Fatalf("feature row out of band order: %v %v", s.Features.At(0, 0), s.Features.At(0, 1))
	}
	if dims := s.Label.Dims(); len(dims) != 2 || dims[0] != 1 || dims[1] != 3 {
		t.Fatalf("expected label dims [1 3], got %v", dims)
	}
	for ch, want := range []float32{0, 1, 0} {
		if got := s.Label.At(0, ch); got != want {
			t.Fatalf("one-hot channel %d: got %v want %v", ch, got, want)
		}
	}
}

func TestTuplePixelServingKeepsBandsNamed(t *testing.T) {
	s, err := TuplePixelServing(3)(pixelSample(t))
	if err != nil {
		t.Fatalf("failed to tuple: %v", err)
	}
	if len(s.Order) != 2 || s.Order[0] != "a" || s.Order[1] != "b" {
		t.Fatalf("expected order [a b], got %v", s.Order)
	}
	band := s.Named["a"]
	if dims := band.Dims(); len(dims) != 3 || dims[0] != 1 || dims[1] != 1 || dims[2] != 1 {
		t.Fatalf("expected band dims [1 1 1], got %v", dims)
	}
	if got := band.At(0, 0, 0); got != 0.5 {
		t.Fatalf("band a value: got %v want 0.5", got)
	}
	if dims := s.Label.Dims(); len(dims) != 3 || dims[2] != 3 {
		t.Fatalf("expected label dims [1 1 3], got %v", dims)
	}
	if s.Label.At(0, 0, 1) != 1 {
		t.Fatal("class 1 should light channel 1")
	}
}

func labeledSample(t *testing.T) *Sample {
	t.Helper()
	return &Sample{
		Named: map[string]*tensor.Tensor{
			"a": fromVals(t, []float32{1, 2, 3, 4}, 2, 2),
			"b": fromVals(t, []float32{5, 6, 7, 8}, 2, 2),
		},
		Order: []string{"a", "b"},
		Label: fromVals(t, []float32{0, 1, 2, 1}, 2, 2),
	}
}

func TestTupleLabeledEncodesClassMap(t *testing.T) {
	s, err := TupleLabeled(3, false)(labeledSample(t))
	if err != nil {
		t.Fatalf("failed to tuple: %v", err)
	}
	if dims := s.Features.Dims(); len(dims) != 3 || dims[0] != 2 || dims[1] != 2 || dims[2] != 2 {
		t.Fatalf("expected feature dims [2 2 2], got %v", dims)
	}
	if s.Features.At(0, 0, 0) != 1 || s.Features.At(0, 0, 1) != 5 || s.Features.At(1, 1, 0) != 4 {
		t.Fatal("feature channels out of band order")
	}
	if dims := s.Label.Dims(); len(dims) != 3 || dims[2] != 3 {
		t.Fatalf("expected label dims [2 2 3], got %v", dims)
	}
	// One-hot rows stay at their pixel coordinates.
	wantClasses := [2][2]int{{0, 1}, {2, 1}}
	for i := range 2 {
		for j := range 2 {
			for ch := range 3 {
				want := float32(0)
				if ch == wantClasses[i][j] {
					want = 1
				}
				if got := s.Label.At(i, j, ch); got != want {
					t.Fatalf("pixel (%d,%d) channel %d: got %v want %v", i, j, ch, got, want)
				}
			}
		}
	}
}

func TestTupleLabeledXOnlyDropsLabel(t *testing.T) {
	s, err := TupleLabeled(3, true)(labeledSample(t))
	if err != nil {
		t.Fatalf("failed to tuple: %v", err)
	}
	if s.Label != nil {
		t.Fatal("x-only tuples must drop the label")
	}
	if s.Features == nil {
		t.Fatal("expected stacked features")
	}
}

func TestTupleLabeledOutOfRangeClassIsAllZero(t *testing.T) {
	in := labeledSample(t)
	in.Label = fromVals(t, []float32{5, 0, 0, 0}, 2, 2)

	s, err := TupleLabeled(3, false)(in)
	if err != nil {
		t.Fatalf("failed to tuple: %v", err)
	}
	for ch := range 3 {
		if got := s.Label.At(0, 0, ch); got != 0 {
			t.Fatalf("out of range class should encode to zeros, channel %d is %v", ch, got)
		}
	}
}

func TestTupleLabeledServingWidensBands(t *testing.T) {
	s, err := TupleLabeledServing(3)(labeledSample(t))
	if err != nil {
		t.Fatalf("failed to tuple: %v", err)
	}
	band := s.Named["a"]
	if dims := band.Dims(); len(dims) != 3 || dims[0] != 2 || dims[1] != 2 || dims[2] != 1 {
		t.Fatalf("expected band dims [2 2 1], got %v", dims)
	}
	if got := band.At(1, 0, 0); got != 3 {
		t.Fatalf("band a at (1,0): got %v want 3", got)
	}
	if dims := s.Label.Dims(); len(dims) != 3 || dims[2] != 3 {
		t.Fatalf("expected label dims [2 2 3], got %v", dims)
	}
}

func TestTupleNamedKeepsFeatures(t *testing.T) {
	in := &Sample{
		Named: map[string]*tensor.Tensor{
			"a":   fromVals(t, []float32{1, 2, 3, 4}, 2, 2),
			"lab": fromVals(t, []float32{0, 1, 1, 0}, 2, 2),
		},
		Order: []string{"a", "lab"},
	}

	s, err := TupleNamed([]string{"a"}, []string{"lab"}, 2)(in)
	if err != nil {
		t.Fatalf("failed to tuple: %v", err)
	}
	if len(s.Order) != 1 || s.Order[0] != "a" {
		t.Fatalf("expected order [a], got %v", s.Order)
	}
	if _, ok := s.Named["lab"]; ok {
		t.Fatal("the class band should leave the features")
	}
	if dims := s.Label.Dims(); len(dims) != 3 || dims[2] != 2 {
		t.Fatalf("expected label dims [2 2 2], got %v", dims)
	}
	if s.Label.At(0, 1, 1) != 1 || s.Label.At(0, 0, 0) != 1 {
		t.Fatal("one-hot encoding misplaced")
	}
}

func TestTupleGuards(t *testing.T) {
	named := pixelSample(t)
	named.Label = nil

	missing := pixelSample(t)
	delete(missing.Named, "b")

	if _, err := TupleStacked(2, false)(&Sample{Named: named.Named, Order: named.Order}); err == nil {
		t.Fatal("stacked tuple should reject named samples")
	}
	if _, err := TuplePixel(2)(named); err == nil {
		t.Fatal("pixel tuple should reject samples without a class value")
	}
	if _, err := TupleLabeled(2, false)(labeledNoClass(t)); err == nil {
		t.Fatal("labeled tuple should reject samples without a class map")
	}
	if _, err := TuplePixel(2)(missing); !errors.Is(err, ErrSchemaMismatch) {
		t.Fatalf("expected a schema mismatch for a missing band, got %v", err)
	}
}

func labeledNoClass(t *testing.T) *Sample {
	t.Helper()
	s := labeledSample(t)
	s.Label = nil
	return s
}

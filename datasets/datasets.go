package datasets

import (
	"github.com/gomlx/gomlx/pkg/core/tensors"

	"github.com/Noofbiz/terraFeed/tensor"
)

// This package assembles the sample pipelines that feed remote-sensing
// models. Record files on disk (see the records package) hold the named
// bands of exported image patches; a pipeline decodes them, reshapes every
// example into the (features, label) form a model head expects, and
// shuffles, batches and augments along the way as configured.
//
// Pipelines are pull-based and lazy: nothing is decoded until a batch is
// asked for, so datasets far larger than memory stream through fine. Each
// stage wraps the one below it behind the small stream interface, and New /
// FromFiles pick the stage order for the supported model families:
//
//   - U-Net patch models: stacked [batch, patch, patch, channels] composites
//     with per-pixel one-hot class maps.
//   - Dense pixel models: [batch, 1, features] rows with [batch, 1, classes]
//     one-hot labels.
//   - Serving signatures: bands kept as named tensors instead of one
//     composite.
//
// Converting finished batches into gomlx tensors is left as a small,
// well-defined step at the very end (Sample.Tensors, Dataset.Yield); the
// stages themselves only ever touch flat float32 buffers plus shape
// metadata.

// Sample is the unit flowing through a pipeline: one example or one batch,
// depending on the stage. Exactly one of Features and Named is set. Named
// holds one tensor per band with Order fixing their traversal order; Label
// is nil on feature-only streams such as counting passes.
type Sample struct {
	Features *tensor.Tensor
	Named    map[string]*tensor.Tensor
	Order    []string
	Label    *tensor.Tensor
}

// Tensors converts the sample into gomlx tensors: one input per named band
// (in Order) or a single input for stacked features, plus the label when
// present.
func (s *Sample) Tensors() (inputs []*tensors.Tensor, labels []*tensors.Tensor) {
	if s.Features != nil {
		inputs = append(inputs, toGomlx(s.Features))
	}
	for _, key := range s.Order {
		if band, ok := s.Named[key]; ok {
			inputs = append(inputs, toGomlx(band))
		}
	}
	if s.Label != nil {
		labels = append(labels, toGomlx(s.Label))
	}
	return inputs, labels
}

// toGomlx converts a tensor into a gomlx tensor by building nested slice
// views over the flat buffer; no values are copied until gomlx does.
func toGomlx(t *tensor.Tensor) *tensors.Tensor {
	data := t.Data()
	switch t.Rank() {
	case 1:
		return tensors.FromAnyValue(data)
	case 2:
		d1 := t.Dim(1)
		rows := make([][]float32, t.Dim(0))
		for i := range rows {
			rows[i] = data[i*d1 : (i+1)*d1]
		}
		return tensors.FromAnyValue(rows)
	case 3:
		d1, d2 := t.Dim(1), t.Dim(2)
		outer := make([][][]float32, t.Dim(0))
		for i := range outer {
			rows := make([][]float32, d1)
			for j := range rows {
				off := (i*d1 + j) * d2
				rows[j] = data[off : off+d2]
			}
			outer[i] = rows
		}
		return tensors.FromAnyValue(outer)
	default:
		d1, d2, d3 := t.Dim(1), t.Dim(2), t.Dim(3)
		outer := make([][][][]float32, t.Dim(0))
		for i := range outer {
			planes := make([][][]float32, d1)
			for j := range planes {
				rows := make([][]float32, d2)
				for k := range rows {
					off := ((i*d1+j)*d2 + k) * d3
					rows[k] = data[off : off+d3]
				}
				planes[j] = rows
			}
			outer[i] = planes
		}
		return tensors.FromAnyValue(outer)
	}
}

// Dataset is an assembled sample pipeline. Next yields one batch at a time
// for plain Go iteration; Name and Yield follow gomlx's train.Dataset
// contract so a Dataset can drive a gomlx training loop with a thin reset
// adapter.
type Dataset struct {
	name string
	src  stream
}

// Next returns the next batch, or io.EOF once the pass is exhausted. After
// any other error the dataset keeps returning it until Reset.
func (d *Dataset) Next() (*Sample, error) {
	return d.src.Next()
}

// Reset rewinds the dataset for a fresh pass. Shuffled pipelines come back
// in a new order.
func (d *Dataset) Reset() error {
	return d.src.Reset()
}

// Name returns the name of the dataset.
func (d *Dataset) Name() string {
	return d.name
}

// Yield returns the next batch as gomlx tensors for the gomlx Dataset
// interface.
func (d *Dataset) Yield() (spec any, inputs []*tensors.Tensor, labels []*tensors.Tensor, err error) {
	s, err := d.Next()
	if err != nil {
		return nil, nil, nil, err
	}
	inputs, labels = s.Tensors()
	return nil, inputs, labels, nil
}

// Close stops the dataset's background readers and releases its files.
func (d *Dataset) Close() error {
	return d.src.Close()
}

package tensor

import "fmt"

// This package provides the dense float32 tensor type that flows through the
// dataset pipelines. Values are stored in a single contiguous row-major
// buffer plus shape metadata, so batches can be assembled with plain copies
// and handed to gomlx (or any other tensor library) at the very end without
// intermediate allocations per element.

// Tensor is a dense row-major float32 tensor of rank 1 to 4.
type Tensor struct {
	data []float32
	dims []int
}

// New returns a zero-filled tensor with the given dimensions.
func New(dims ...int) *Tensor {
	n, err := checkDims(dims)
	if err != nil {
		panic(err)
	}
	return &Tensor{data: make([]float32, n), dims: append([]int(nil), dims...)}
}

// FromSlice wraps data in a tensor with the given dimensions. The buffer is
// used directly, not copied.
func FromSlice(data []float32, dims ...int) (*Tensor, error) {
	n, err := checkDims(dims)
	if err != nil {
		return nil, err
	}
	if len(data) != n {
		return nil, fmt.Errorf("data length %d does not match shape %v (want %d)", len(data), dims, n)
	}
	return &Tensor{data: data, dims: append([]int(nil), dims...)}, nil
}

func checkDims(dims []int) (int, error) {
	if len(dims) == 0 {
		return 0, fmt.Errorf("tensor needs at least one dimension")
	}
	n := 1
	for _, d := range dims {
		if d <= 0 {
			return 0, fmt.Errorf("invalid dimension %d in shape %v", d, dims)
		}
		n *= d
	}
	return n, nil
}

// Rank returns the number of dimensions.
func (t *Tensor) Rank() int { return len(t.dims) }

// Dims returns a copy of the tensor's dimensions.
func (t *Tensor) Dims() []int { return append([]int(nil), t.dims...) }

// Dim returns the size of axis i.
func (t *Tensor) Dim(i int) int { return t.dims[i] }

// Size returns the total number of elements.
func (t *Tensor) Size() int { return len(t.data) }

// Data returns the underlying flat buffer. Mutating it mutates the tensor.
func (t *Tensor) Data() []float32 { return t.data }

// At returns the element at the given index, one coordinate per axis.
func (t *Tensor) At(idx ...int) float32 {
	return t.data[t.offset(idx)]
}

// Set stores v at the given index.
func (t *Tensor) Set(v float32, idx ...int) {
	t.data[t.offset(idx)] = v
}

func (t *Tensor) offset(idx []int) int {
	if len(idx) != len(t.dims) {
		panic(fmt.Sprintf("index %v does not match rank %d", idx, len(t.dims)))
	}
	off := 0
	for i, x := range idx {
		if x < 0 || x >= t.dims[i] {
			panic(fmt.Sprintf("index %v out of range for shape %v", idx, t.dims))
		}
		off = off*t.dims[i] + x
	}
	return off
}

// strides returns the row-major stride of every axis.
func (t *Tensor) strides() []int {
	s := make([]int, len(t.dims))
	acc := 1
	for i := len(t.dims) - 1; i >= 0; i-- {
		s[i] = acc
		acc *= t.dims[i]
	}
	return s
}

// Reshape returns a tensor sharing t's buffer with a new shape of the same
// total size.
func (t *Tensor) Reshape(dims ...int) (*Tensor, error) {
	n, err := checkDims(dims)
	if err != nil {
		return nil, err
	}
	if n != len(t.data) {
		return nil, fmt.Errorf("cannot reshape %v to %v: size %d != %d", t.dims, dims, len(t.data), n)
	}
	return &Tensor{data: t.data, dims: append([]int(nil), dims...)}, nil
}

// Clone returns a deep copy of t.
func (t *Tensor) Clone() *Tensor {
	data := make([]float32, len(t.data))
	copy(data, t.data)
	return &Tensor{data: data, dims: append([]int(nil), t.dims...)}
}

// Equal reports whether o has the same shape and exactly the same values.
func (t *Tensor) Equal(o *Tensor) bool {
	if o == nil || len(t.dims) != len(o.dims) {
		return false
	}
	for i := range t.dims {
		if t.dims[i] != o.dims[i] {
			return false
		}
	}
	for i := range t.data {
		if t.data[i] != o.data[i] {
			return false
		}
	}
	return true
}

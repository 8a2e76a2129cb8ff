package tensor

import "fmt"

// Stack combines equal-shaped tensors along a new leading axis, so n tensors
// of shape [d...] become one of shape [n, d...]. This is how batches are
// assembled.
func Stack(parts []*Tensor) (*Tensor, error) {
	if len(parts) == 0 {
		return nil, fmt.Errorf("stack of zero tensors")
	}
	first := parts[0]
	for i, p := range parts[1:] {
		if !sameShape(first, p) {
			return nil, fmt.Errorf("inconsistent shapes: tensor 0 is %v, tensor %d is %v", first.dims, i+1, p.dims)
		}
	}
	dims := append([]int{len(parts)}, first.dims...)
	out := New(dims...)
	step := first.Size()
	for i, p := range parts {
		copy(out.data[i*step:], p.data)
	}
	return out, nil
}

// StackLast combines equal-shaped tensors along a new trailing axis, so n
// tensors of shape [d...] become one of shape [d..., n]. Used to stack named
// bands channel-last: out[i, j, k] = parts[k].At(i, j).
func StackLast(parts []*Tensor) (*Tensor, error) {
	if len(parts) == 0 {
		return nil, fmt.Errorf("stack of zero tensors")
	}
	first := parts[0]
	for i, p := range parts[1:] {
		if !sameShape(first, p) {
			return nil, fmt.Errorf("inconsistent shapes: tensor 0 is %v, tensor %d is %v", first.dims, i+1, p.dims)
		}
	}
	n := len(parts)
	dims := append(first.Dims(), n)
	out := New(dims...)
	for k, p := range parts {
		for i, v := range p.data {
			out.data[i*n+k] = v
		}
	}
	return out, nil
}

// ConcatLast concatenates tensors along their existing last axis. All inputs
// must agree on every other dimension.
func ConcatLast(parts []*Tensor) (*Tensor, error) {
	if len(parts) == 0 {
		return nil, fmt.Errorf("concat of zero tensors")
	}
	first := parts[0]
	total := 0
	for i, p := range parts {
		if p.Rank() != first.Rank() {
			return nil, fmt.Errorf("inconsistent ranks: tensor 0 is %v, tensor %d is %v", first.dims, i, p.dims)
		}
		for ax := 0; ax < first.Rank()-1; ax++ {
			if p.dims[ax] != first.dims[ax] {
				return nil, fmt.Errorf("inconsistent shapes: tensor 0 is %v, tensor %d is %v", first.dims, i, p.dims)
			}
		}
		total += p.dims[p.Rank()-1]
	}
	dims := first.Dims()
	dims[len(dims)-1] = total
	out := New(dims...)
	rows := first.Size() / first.dims[first.Rank()-1]
	off := 0
	for _, p := range parts {
		w := p.dims[p.Rank()-1]
		for r := range rows {
			copy(out.data[r*total+off:], p.data[r*w:(r+1)*w])
		}
		off += w
	}
	return out, nil
}

// SliceLast returns the channels [from, to) of the last axis as a new tensor.
func SliceLast(t *Tensor, from, to int) (*Tensor, error) {
	last := t.dims[t.Rank()-1]
	if from < 0 || to > last || from >= to {
		return nil, fmt.Errorf("slice [%d, %d) out of range for last axis %d", from, to, last)
	}
	dims := t.Dims()
	w := to - from
	dims[len(dims)-1] = w
	out := New(dims...)
	rows := t.Size() / last
	for r := range rows {
		copy(out.data[r*w:], t.data[r*last+from:r*last+to])
	}
	return out, nil
}

// Map applies f to every element and returns the result as a new tensor.
func Map(t *Tensor, f func(float32) float32) *Tensor {
	out := t.Clone()
	for i, v := range out.data {
		out.data[i] = f(v)
	}
	return out
}

// Zip applies f elementwise over two same-shaped tensors.
func Zip(a, b *Tensor, f func(x, y float32) float32) (*Tensor, error) {
	if !sameShape(a, b) {
		return nil, fmt.Errorf("inconsistent shapes: %v vs %v", a.dims, b.dims)
	}
	out := New(a.dims...)
	for i := range out.data {
		out.data[i] = f(a.data[i], b.data[i])
	}
	return out, nil
}

// Zip3 applies f elementwise over three same-shaped tensors.
func Zip3(a, b, c *Tensor, f func(x, y, z float32) float32) (*Tensor, error) {
	if !sameShape(a, b) || !sameShape(a, c) {
		return nil, fmt.Errorf("inconsistent shapes: %v, %v, %v", a.dims, b.dims, c.dims)
	}
	out := New(a.dims...)
	for i := range out.data {
		out.data[i] = f(a.data[i], b.data[i], c.data[i])
	}
	return out, nil
}

// OneHot expands every element of t into a one-hot row of the given depth
// along a new trailing axis. Values are truncated to integer class indices;
// an index outside [0, depth) produces an all-zero row.
func OneHot(t *Tensor, depth int) (*Tensor, error) {
	if depth <= 0 {
		return nil, fmt.Errorf("one-hot depth must be positive, got %d", depth)
	}
	dims := append(t.Dims(), depth)
	out := New(dims...)
	for i, v := range t.data {
		idx := int(v)
		if idx >= 0 && idx < depth {
			out.data[i*depth+idx] = 1
		}
	}
	return out, nil
}

func sameShape(a, b *Tensor) bool {
	if len(a.dims) != len(b.dims) {
		return false
	}
	for i := range a.dims {
		if a.dims[i] != b.dims[i] {
			return false
		}
	}
	return true
}

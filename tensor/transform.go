package tensor

import "fmt"

// Spatial transforms used by data augmentation. All of them return new
// tensors and operate on one axis (Reverse) or an adjacent pair of axes
// (Rot90), so the same functions serve [H, W] labels, [H, W, C] patches and
// [B, H, W, C] batches by picking the right axes.

// Reverse returns t with the given axis reversed. Reversing the width axis
// is a left-right flip, reversing the height axis an up-down flip.
func Reverse(t *Tensor, axis int) (*Tensor, error) {
	if axis < 0 || axis >= t.Rank() {
		return nil, fmt.Errorf("axis %d out of range for shape %v", axis, t.dims)
	}
	out := New(t.dims...)
	n := t.dims[axis]
	block := t.strides()[axis]
	outer := t.Size() / (n * block)
	for o := range outer {
		base := o * n * block
		for i := range n {
			src := base + i*block
			dst := base + (n-1-i)*block
			copy(out.data[dst:dst+block], t.data[src:src+block])
		}
	}
	return out, nil
}

// Rot90 rotates t counter-clockwise by k quarter turns in the plane formed
// by axes (axis, axis+1). For non-square planes the two dimensions swap on
// odd k.
func Rot90(t *Tensor, axis, k int) (*Tensor, error) {
	if axis < 0 || axis+1 >= t.Rank() {
		return nil, fmt.Errorf("axis pair (%d, %d) out of range for shape %v", axis, axis+1, t.dims)
	}
	k = ((k % 4) + 4) % 4
	if k == 0 {
		return t.Clone(), nil
	}
	out := t
	for range k {
		out = rotOnce(out, axis)
	}
	return out, nil
}

// rotOnce rotates one quarter turn counter-clockwise in the (axis, axis+1)
// plane: out[r, c] = in[c, w-1-r].
func rotOnce(t *Tensor, axis int) *Tensor {
	h := t.dims[axis]
	w := t.dims[axis+1]
	dims := t.Dims()
	dims[axis] = w
	dims[axis+1] = h
	out := New(dims...)

	post := t.strides()[axis+1]
	outer := t.Size() / (h * w * post)
	for o := range outer {
		inBase := o * h * w * post
		outBase := o * h * w * post
		for r := range w {
			for c := range h {
				src := inBase + (c*w+(w-1-r))*post
				dst := outBase + (r*h+c)*post
				copy(out.data[dst:dst+post], t.data[src:src+post])
			}
		}
	}
	return out
}

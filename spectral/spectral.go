package spectral

import (
	"math"

	"github.com/Noofbiz/terraFeed/tensor"
)

// This package computes vegetation and water indices from optical satellite
// bands. Every index is an elementwise formula over equal-shaped channel
// slices, so the same functions serve patch tensors and pixel vectors alike.
//
// The ratio-like formulas (NormalizedDifference, Ratio, NVI) can divide by
// zero on real imagery, e.g. where both bands read zero over water or sensor
// gaps. Those functions replace non-finite results per element with a finite
// fallback instead of letting NaN/Inf propagate into the feature stack. The
// remaining formulas are used as-is; their domains are safe for reflectance
// inputs.

// finite reports whether v is neither NaN nor an infinity.
func finite(v float32) bool {
	f := float64(v)
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func sqrt32(v float32) float32 {
	return float32(math.Sqrt(float64(v)))
}

// NormalizedDifference computes (c1-c2)/(c1+c2), the family behind NDVI and
// NDWI. Elements where the quotient is not finite fall back to the plain
// difference c1-c2.
func NormalizedDifference(c1, c2 *tensor.Tensor) (*tensor.Tensor, error) {
	return tensor.Zip(c1, c2, func(a, b float32) float32 {
		nd := (a - b) / (a + b)
		if !finite(nd) {
			return a - b
		}
		return nd
	})
}

// EVI computes the enhanced vegetation index 2.5*(c1-c2)/(c1+6*c2-7.5*c3+1)
// over (nir, red, blue) slices.
func EVI(c1, c2, c3 *tensor.Tensor) (*tensor.Tensor, error) {
	return tensor.Zip3(c1, c2, c3, func(a, b, c float32) float32 {
		return 2.5 * ((a - b) / (a + 6*b - 7.5*c + 1))
	})
}

// SAVI computes the soil-adjusted vegetation index
// ((c1-c2)/(c1+c2+0.5))*1.5 over (nir, red) slices.
func SAVI(c1, c2 *tensor.Tensor) (*tensor.Tensor, error) {
	return tensor.Zip(c1, c2, func(a, b float32) float32 {
		return ((a - b) / (a + b + 0.5)) * 1.5
	})
}

// MSAVI computes the modified soil-adjusted vegetation index
// ((2*c1+1) - sqrt((2*c1+1)^2 - 8*(c1-c2)))/2 over (nir, red) slices.
func MSAVI(c1, c2 *tensor.Tensor) (*tensor.Tensor, error) {
	return tensor.Zip(c1, c2, func(a, b float32) float32 {
		k := 2*a + 1
		return (k - sqrt32(k*k-8*(a-b))) / 2
	})
}

// MTVI2 computes the modified triangular vegetation index over
// (nir, red, green) slices:
// 1.5*(1.2*(c1-c3) - 2.5*(c2-c3)) / sqrt((2*c1+1)^2 - (6*c1 - 5*sqrt(c2)) - 0.5).
func MTVI2(c1, c2, c3 *tensor.Tensor) (*tensor.Tensor, error) {
	return tensor.Zip3(c1, c2, c3, func(a, b, c float32) float32 {
		k := 2*a + 1
		return (1.5 * (1.2*(a-c) - 2.5*(b-c))) / sqrt32(k*k-(6*a-5*sqrt32(b))-0.5)
	})
}

// VARI computes the visible atmospherically resistant index
// (c1-c2)/(c1+c2-c3) over (green, red, blue) slices.
func VARI(c1, c2, c3 *tensor.Tensor) (*tensor.Tensor, error) {
	return tensor.Zip3(c1, c2, c3, func(a, b, c float32) float32 {
		return (a - b) / (a + b - c)
	})
}

// TGI computes the triangular greenness index
// ((120*(c2-c3)) - (190*(c2-c1)))/2 over (green, red, blue) slices.
func TGI(c1, c2, c3 *tensor.Tensor) (*tensor.Tensor, error) {
	return tensor.Zip3(c1, c2, c3, func(a, b, c float32) float32 {
		return ((120 * (b - c)) - (190 * (b - a))) / 2
	})
}

// Ratio computes the simple band ratio c1/c2. Elements where the quotient is
// not finite fall back to c1.
func Ratio(c1, c2 *tensor.Tensor) (*tensor.Tensor, error) {
	return tensor.Zip(c1, c2, func(a, b float32) float32 {
		r := a / b
		if !finite(r) {
			return a
		}
		return r
	})
}

// NVI computes the normalized vegetation index c1/(c1+c2). Elements where
// the quotient is not finite fall back to c1.
func NVI(c1, c2 *tensor.Tensor) (*tensor.Tensor, error) {
	return tensor.Zip(c1, c2, func(a, b float32) float32 {
		n := a / (a + b)
		if !finite(n) {
			return a
		}
		return n
	})
}

// Difference computes the plain band difference c1-c2.
func Difference(c1, c2 *tensor.Tensor) (*tensor.Tensor, error) {
	return tensor.Zip(c1, c2, func(a, b float32) float32 {
		return a - b
	})
}

package spectral

import (
	"fmt"

	"github.com/Noofbiz/terraFeed/tensor"
)

// The stack builders expect composites whose last axis carries eight raw
// bands: red, green, blue and near-infrared from the pre-event scene followed
// by the same four from the during-event scene.
const rawBandCount = 8

// bands holds the channel slices of one composite, split by scene and color.
type bands struct {
	redB, greenB, blueB, nirB *tensor.Tensor
	redD, greenD, blueD, nirD *tensor.Tensor
}

func splitBands(t *tensor.Tensor) (*bands, error) {
	if t.Dim(t.Rank()-1) != rawBandCount {
		return nil, fmt.Errorf("spectral: composite has %d channels, want %d", t.Dim(t.Rank()-1), rawBandCount)
	}
	// Each slice keeps its unit channel axis so the final concatenation can
	// run along the existing last axis.
	b := &bands{}
	for i, dst := range []**tensor.Tensor{
		&b.redB, &b.greenB, &b.blueB, &b.nirB,
		&b.redD, &b.greenD, &b.blueD, &b.nirD,
	} {
		c, err := tensor.SliceLast(t, i, i+1)
		if err != nil {
			return nil, err
		}
		*dst = c
	}
	return b, nil
}

// indices computes the sixteen per-scene index channels shared by both
// stacks, ordered before/during pairs of ndvi, evi, ndwi, savi, msavi,
// mtvi2, vari and tgi.
func (b *bands) indices() ([]*tensor.Tensor, error) {
	type calc struct {
		name string
		fn   func() (*tensor.Tensor, error)
	}
	calcs := []calc{
		{"ndvi_before", func() (*tensor.Tensor, error) { return NormalizedDifference(b.nirB, b.redB) }},
		{"ndvi_during", func() (*tensor.Tensor, error) { return NormalizedDifference(b.nirD, b.redD) }},
		{"evi_before", func() (*tensor.Tensor, error) { return EVI(b.nirB, b.redB, b.blueB) }},
		{"evi_during", func() (*tensor.Tensor, error) { return EVI(b.nirD, b.redD, b.blueD) }},
		{"ndwi_before", func() (*tensor.Tensor, error) { return NormalizedDifference(b.greenB, b.nirB) }},
		{"ndwi_during", func() (*tensor.Tensor, error) { return NormalizedDifference(b.greenD, b.nirD) }},
		{"savi_before", func() (*tensor.Tensor, error) { return SAVI(b.nirB, b.redB) }},
		{"savi_during", func() (*tensor.Tensor, error) { return SAVI(b.nirD, b.redD) }},
		{"msavi_before", func() (*tensor.Tensor, error) { return MSAVI(b.nirB, b.redB) }},
		{"msavi_during", func() (*tensor.Tensor, error) { return MSAVI(b.nirD, b.redD) }},
		{"mtvi2_before", func() (*tensor.Tensor, error) { return MTVI2(b.nirB, b.redB, b.greenB) }},
		{"mtvi2_during", func() (*tensor.Tensor, error) { return MTVI2(b.nirD, b.redD, b.greenD) }},
		{"vari_before", func() (*tensor.Tensor, error) { return VARI(b.greenB, b.redB, b.blueB) }},
		{"vari_during", func() (*tensor.Tensor, error) { return VARI(b.greenD, b.redD, b.blueD) }},
		{"tgi_before", func() (*tensor.Tensor, error) { return TGI(b.greenB, b.redB, b.blueB) }},
		{"tgi_during", func() (*tensor.Tensor, error) { return TGI(b.greenD, b.redD, b.blueD) }},
	}
	out := make([]*tensor.Tensor, 0, len(calcs))
	for _, c := range calcs {
		idx, err := c.fn()
		if err != nil {
			return nil, fmt.Errorf("spectral: %s: %w", c.name, err)
		}
		out = append(out, idx)
	}
	return out, nil
}

// StackForCNN widens a batched patch composite [batch, h, w, 8] to the
// twenty-channel stack consumed by convolutional models: the sixteen index
// channels followed by the four before-minus-during band differences.
// Channel order matches CNNBandNames.
func StackForCNN(t *tensor.Tensor) (*tensor.Tensor, error) {
	if t.Rank() != 4 {
		return nil, fmt.Errorf("spectral: patch composite has rank %d, want 4", t.Rank())
	}
	b, err := splitBands(t)
	if err != nil {
		return nil, err
	}
	chans, err := b.indices()
	if err != nil {
		return nil, err
	}
	for _, d := range []struct {
		name           string
		before, during *tensor.Tensor
	}{
		{"red_diff", b.redB, b.redD},
		{"green_diff", b.greenB, b.greenD},
		{"blue_diff", b.blueB, b.blueD},
		{"nir_diff", b.nirB, b.nirD},
	} {
		c, err := Difference(d.before, d.during)
		if err != nil {
			return nil, fmt.Errorf("spectral: %s: %w", d.name, err)
		}
		chans = append(chans, c)
	}
	return tensor.ConcatLast(chans)
}

// StackForDNN widens a batched pixel composite [batch, 1, 8] to the sixteen
// index channels consumed by dense models. Channel order matches
// DNNBandNames.
func StackForDNN(t *tensor.Tensor) (*tensor.Tensor, error) {
	if t.Rank() != 3 {
		return nil, fmt.Errorf("spectral: pixel composite has rank %d, want 3", t.Rank())
	}
	b, err := splitBands(t)
	if err != nil {
		return nil, err
	}
	chans, err := b.indices()
	if err != nil {
		return nil, err
	}
	return tensor.ConcatLast(chans)
}

// CNNBandNames returns the channel names of a StackForCNN result, in order.
func CNNBandNames() []string {
	return append(DNNBandNames(),
		"red_diff", "green_diff", "blue_diff", "nir_diff")
}

// DNNBandNames returns the channel names of a StackForDNN result, in order.
func DNNBandNames() []string {
	return []string{
		"ndvi_before", "ndvi_during",
		"evi_before", "evi_during",
		"ndwi_before", "ndwi_during",
		"savi_before", "savi_during",
		"msavi_before", "msavi_during",
		"mtvi2_before", "mtvi2_during",
		"vari_before", "vari_during",
		"tgi_before", "tgi_during",
	}
}

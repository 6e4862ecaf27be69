// Package volume provides a dense N-dimensional voxel container for
// volumetric image processing. A volume stores its samples as a flat
// row-major float64 slice together with an explicit shape; the last
// three axes are always interpreted as the spatial (Z, Y, X) portion,
// and any leading axes represent channel and/or batch structure.
package volume

import "fmt"

// Volume is a dense N-dimensional array of voxel intensities.
type Volume struct {
	// Data holds the samples in row-major order (last axis fastest).
	Data []float64

	// Shape lists the extent of each axis. The last three axes are the
	// spatial (Z, Y, X) dimensions.
	Shape []int
}

// New creates a zero-filled volume with the given shape.
// It panics if any dimension is negative.
func New(shape ...int) *Volume {
	n := 1
	for _, d := range shape {
		if d < 0 {
			panic(fmt.Sprintf("volume: negative dimension %d in shape %v", d, shape))
		}
		n *= d
	}
	return &Volume{
		Data:  make([]float64, n),
		Shape: append([]int(nil), shape...),
	}
}

// Rank returns the number of axes.
func (v *Volume) Rank() int {
	return len(v.Shape)
}

// Strides returns the row-major stride of each axis in elements.
func (v *Volume) Strides() []int {
	str := make([]int, len(v.Shape))
	acc := 1
	for i := len(v.Shape) - 1; i >= 0; i-- {
		str[i] = acc
		acc *= v.Shape[i]
	}
	return str
}

// SpatialShape returns the extents of the last three (Z, Y, X) axes,
// or nil if the volume has rank below 3.
func (v *Volume) SpatialShape() []int {
	if v.Rank() < 3 {
		return nil
	}
	return append([]int(nil), v.Shape[v.Rank()-3:]...)
}

// offset converts a full multi-index into a flat Data offset.
func (v *Volume) offset(idx ...int) int {
	if len(idx) != v.Rank() {
		panic(fmt.Sprintf("volume: %d indices for rank-%d volume", len(idx), v.Rank()))
	}
	str := v.Strides()
	off := 0
	for i, x := range idx {
		if x < 0 || x >= v.Shape[i] {
			panic(fmt.Sprintf("volume: index %d out of range [0,%d) on axis %d", x, v.Shape[i], i))
		}
		off += x * str[i]
	}
	return off
}

// At returns the sample at the given multi-index.
func (v *Volume) At(idx ...int) float64 {
	return v.Data[v.offset(idx...)]
}

// Set stores a sample at the given multi-index.
func (v *Volume) Set(val float64, idx ...int) {
	v.Data[v.offset(idx...)] = val
}

// Clone returns a deep copy of the volume.
func (v *Volume) Clone() *Volume {
	out := &Volume{
		Data:  make([]float64, len(v.Data)),
		Shape: append([]int(nil), v.Shape...),
	}
	copy(out.Data, v.Data)
	return out
}

// Equal reports whether two volumes have identical shape and content.
func (v *Volume) Equal(o *Volume) bool {
	if o == nil || v.Rank() != o.Rank() {
		return false
	}
	for i, d := range v.Shape {
		if o.Shape[i] != d {
			return false
		}
	}
	for i, x := range v.Data {
		if o.Data[i] != x {
			return false
		}
	}
	return true
}

// WithLeadingRank returns a view of v with singleton axes prepended
// until the rank reaches target. The returned header shares v's data;
// it panics if target is below the current rank.
func (v *Volume) WithLeadingRank(target int) *Volume {
	if target < v.Rank() {
		panic(fmt.Sprintf("volume: cannot lower rank %d to %d", v.Rank(), target))
	}
	if target == v.Rank() {
		return v
	}
	shape := make([]int, target)
	pad := target - v.Rank()
	for i := 0; i < pad; i++ {
		shape[i] = 1
	}
	copy(shape[pad:], v.Shape)
	return &Volume{Data: v.Data, Shape: shape}
}

// MeanOverLeading collapses all leading (non-spatial) axes by
// averaging, producing a fresh rank-3 volume. A rank-3 input is
// returned as an unshared copy. It panics if the rank is below 3.
func (v *Volume) MeanOverLeading() *Volume {
	r := v.Rank()
	if r < 3 {
		panic(fmt.Sprintf("volume: MeanOverLeading on rank-%d volume", r))
	}
	sp := v.Shape[r-3:]
	out := New(sp[0], sp[1], sp[2])
	size := len(out.Data)
	lead := 1
	for _, d := range v.Shape[:r-3] {
		lead *= d
	}
	if lead == 0 || size == 0 {
		return out
	}
	for l := 0; l < lead; l++ {
		off := l * size
		for s := 0; s < size; s++ {
			out.Data[s] += v.Data[off+s]
		}
	}
	for s := range out.Data {
		out.Data[s] /= float64(lead)
	}
	return out
}

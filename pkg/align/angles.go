package align

import (
	"fmt"
	"math"

	"volalign/pkg/volume"
)

// Rotation is one elementary in-plane rotation of the spatial
// sub-volume. Axes holds the two spatial axis indices (0=Z, 1=Y, 2=X)
// spanning the rotation plane; Angle is in degrees.
type Rotation struct {
	Axes  [2]int
	Angle float64
}

// spatialAxis maps an axis label to its spatial array index. Axis
// vectors use (x, y, z) component order while array axes run (Z, Y, X),
// so x is the innermost spatial axis.
func spatialAxis(label byte) (int, bool) {
	switch label {
	case 'x':
		return 2, true
	case 'y':
		return 1, true
	case 'z':
		return 0, true
	}
	return 0, false
}

// parseAxisOrder validates that axisOrder is a permutation of "xyz" and
// returns the corresponding spatial axis indices, left to right.
func parseAxisOrder(axisOrder string) ([3]int, error) {
	var order [3]int
	if len(axisOrder) != 3 {
		return order, fmt.Errorf("%w: %q is not a permutation of \"xyz\"", ErrInvalidAxisOrder, axisOrder)
	}
	var seen [3]bool
	for i := 0; i < 3; i++ {
		ax, ok := spatialAxis(axisOrder[i])
		if !ok || seen[ax] {
			return order, fmt.Errorf("%w: %q is not a permutation of \"xyz\"", ErrInvalidAxisOrder, axisOrder)
		}
		seen[ax] = true
		order[i] = ax
	}
	return order, nil
}

// planeAngle returns the rotation angle in degrees that zeroes the vb
// component of the pair (va, vb), reduced to [-90, 90). Principal axes
// are lines rather than rays, so an angle and its 180-degree complement
// land on the same axis; the reduced form avoids a needless half-turn
// resampling pass.
func planeAngle(va, vb float64) float64 {
	deg := math.Atan2(-vb, va) * 180 / math.Pi
	if deg >= 90 {
		deg -= 180
	} else if deg < -90 {
		deg += 180
	}
	return deg
}

// rotateComponents applies the forward plane rotation to a coordinate
// vector. This mirrors exactly how rotatePlane maps content directions,
// so the solver's model of the axes tracks what the resampler will do
// to the image.
func rotateComponents(v *[3]float64, a, b int, deg float64) {
	s, c := math.Sincos(deg * math.Pi / 180)
	va, vb := v[a], v[b]
	v[a] = c*va - s*vb
	v[b] = s*va + c*vb
}

// AlignAngles computes the sequence of plane rotations that brings the
// image's major axis onto the first axis named by axisOrder and its
// minor axis onto the last. axisOrder must be a permutation of "xyz";
// the middle axis is fixed by elimination.
//
// The angle computation uses only the spatial structure of the image,
// so 3-D, 4-D and 5-D representations of the same volume yield
// identical sequences. The result is meant to be passed to AlignMajor,
// typically once per batch of images that must rotate consistently.
func AlignAngles(img *volume.Volume, axisOrder string) ([]Rotation, error) {
	if err := validateImage(img); err != nil {
		return nil, err
	}
	order, err := parseAxisOrder(axisOrder)
	if err != nil {
		return nil, err
	}
	major, minor, err := MajorMinorAxis(img)
	if err != nil {
		return nil, err
	}

	// Work in spatial (Z, Y, X) component order from here on.
	m := [3]float64{major[2], major[1], major[0]}
	n := [3]float64{minor[2], minor[1], minor[0]}
	t0, t2 := order[0], order[2]
	t1 := 3 - t0 - t2

	rots := make([]Rotation, 3)

	// Two rotations carry the major axis onto its target: the first
	// clears its component along the middle axis, the second the
	// component along the minor target.
	rots[0] = Rotation{Axes: [2]int{t0, t1}, Angle: planeAngle(m[t0], m[t1])}
	rotateComponents(&m, t0, t1, rots[0].Angle)
	rotateComponents(&n, t0, t1, rots[0].Angle)

	rots[1] = Rotation{Axes: [2]int{t0, t2}, Angle: planeAngle(m[t0], m[t2])}
	rotateComponents(&m, t0, t2, rots[1].Angle)
	rotateComponents(&n, t0, t2, rots[1].Angle)

	// The remaining degree of freedom is a spin about the major target,
	// which leaves the major axis in place and carries the minor axis
	// onto its own target.
	rots[2] = Rotation{Axes: [2]int{t2, t1}, Angle: planeAngle(n[t2], n[t1])}

	return rots, nil
}

// Align is the common single-image path: it derives the angles for
// axisOrder from img and applies them, returning both the aligned image
// and the angle sequence for reuse on related images.
func Align(img *volume.Volume, axisOrder string, reshape bool) (*volume.Volume, []Rotation, error) {
	angles, err := AlignAngles(img, axisOrder)
	if err != nil {
		return nil, nil, err
	}
	out, err := AlignMajor(img, angles, reshape)
	if err != nil {
		return nil, nil, err
	}
	return out, angles, nil
}

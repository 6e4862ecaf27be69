// Package align estimates the principal axes of a volumetric image and
// rotates the volume so that its major and minor axes line up with a
// caller-chosen axis ordering. It is used to normalize the orientation
// of 3-D structures such as segmented cells before comparison or
// visualization.
//
// Images are volume.Volume values whose last three axes are the spatial
// (Z, Y, X) dimensions; one or two leading axes may carry channel and
// batch structure. Axis vectors returned and consumed by this package
// use (x, y, z) component order.
package align

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// AngleBetween returns the angle between two vectors in degrees, in the
// range [0, 180]. The angle is computed from the arccosine of the
// normalized dot product, clamped so floating-point overshoot past
// +/-1 cannot produce a domain error.
//
// It returns ErrInvalidInput when either vector is empty or zero-norm,
// or when the lengths differ.
func AngleBetween(u, v []float64) (float64, error) {
	if len(u) == 0 || len(v) == 0 {
		return 0, fmt.Errorf("%w: vectors must be non-empty", ErrInvalidInput)
	}
	if len(u) != len(v) {
		return 0, fmt.Errorf("%w: vector lengths %d and %d differ", ErrInvalidInput, len(u), len(v))
	}
	nu := floats.Norm(u, 2)
	nv := floats.Norm(v, 2)
	if nu == 0 || nv == 0 {
		return 0, fmt.Errorf("%w: zero-norm vector has no direction", ErrInvalidInput)
	}
	cos := floats.Dot(u, v) / (nu * nv)
	if cos > 1 {
		cos = 1
	} else if cos < -1 {
		cos = -1
	}
	return math.Acos(cos) * 180 / math.Pi, nil
}

package align

import "errors"

// Error kinds reported by the alignment API. Failures are detected at
// the boundary of the offending call and returned wrapped around one of
// these sentinels; callers match them with errors.Is.
var (
	// ErrInvalidInput reports vector arguments that leave an angle
	// undefined: empty, mismatched in length, or zero-norm.
	ErrInvalidInput = errors.New("invalid vector input")

	// ErrInvalidImage reports an image whose rank is not 3 (ZYX),
	// 4 (CZYX) or 5 (BCZYX), or that carries no data.
	ErrInvalidImage = errors.New("invalid image")

	// ErrInvalidAxisOrder reports a target axis order that is not a
	// permutation of "xyz".
	ErrInvalidAxisOrder = errors.New("invalid axis order")

	// ErrEmptyImage reports an image whose mass distribution is too
	// small to define principal axes.
	ErrEmptyImage = errors.New("empty image")
)

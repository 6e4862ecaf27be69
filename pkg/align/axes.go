package align

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"volalign/pkg/volume"
)

// validateImage checks the rank contract shared by every entry point:
// rank 3 (ZYX), 4 (CZYX) or 5 (BCZYX), with the last three axes
// spatial.
func validateImage(img *volume.Volume) error {
	if img == nil || len(img.Data) == 0 {
		return fmt.Errorf("%w: image is nil or has no data", ErrInvalidImage)
	}
	if r := img.Rank(); r < 3 || r > 5 {
		return fmt.Errorf("%w: rank %d, want 3 (ZYX), 4 (CZYX) or 5 (BCZYX)", ErrInvalidImage, r)
	}
	return nil
}

// principalMoments runs the weighted second-moment analysis behind both
// MajorMinorAxis and Elongation. Leading axes are collapsed by
// averaging, every positive-intensity voxel contributes its (x, y, z)
// position weighted by intensity, and the weighted covariance of that
// coordinate distribution is eigen-decomposed.
//
// Eigenvalues come back in ascending order with the matching
// eigenvectors as columns, components in (x, y, z) order.
func principalMoments(img *volume.Volume) ([]float64, *mat.Dense, error) {
	if err := validateImage(img); err != nil {
		return nil, nil, err
	}
	vol := img
	if img.Rank() > 3 {
		vol = img.MeanOverLeading()
	}
	nz, ny, nx := vol.Shape[0], vol.Shape[1], vol.Shape[2]

	var coords []float64
	var weights []float64
	i := 0
	for z := 0; z < nz; z++ {
		for y := 0; y < ny; y++ {
			for x := 0; x < nx; x++ {
				if w := vol.Data[i]; w > 0 {
					coords = append(coords, float64(x), float64(y), float64(z))
					weights = append(weights, w)
				}
				i++
			}
		}
	}
	if len(weights) == 0 {
		return nil, nil, fmt.Errorf("%w: no positive-intensity voxels", ErrEmptyImage)
	}
	if len(weights) < 2 {
		return nil, nil, fmt.Errorf("%w: a single voxel does not define axes", ErrEmptyImage)
	}

	samples := mat.NewDense(len(weights), 3, coords)
	var cov mat.SymDense
	stat.CovarianceMatrix(&cov, samples, weights)

	var es mat.EigenSym
	if !es.Factorize(&cov, true) {
		return nil, nil, fmt.Errorf("eigendecomposition of the voxel covariance failed")
	}
	vals := es.Values(nil)
	var vecs mat.Dense
	es.VectorsTo(&vecs)
	return vals, &vecs, nil
}

// MajorMinorAxis computes the principal axes of an image's voxel mass
// distribution. The major axis is the direction of greatest variance,
// the minor axis the direction of least variance; both are returned as
// 3-vectors in (x, y, z) component order.
//
// The sign of each returned vector is arbitrary: eigenvectors describe
// axes, not rays, so downstream comparisons must be sign-agnostic.
//
// It returns ErrEmptyImage when the image has no positive mass (or a
// single voxel, which leaves the covariance undefined) and
// ErrInvalidImage on an unsupported rank.
func MajorMinorAxis(img *volume.Volume) (major, minor []float64, err error) {
	vals, vecs, err := principalMoments(img)
	if err != nil {
		return nil, nil, err
	}
	iMax, iMin := argMax(vals), argMin(vals)
	major = []float64{vecs.At(0, iMax), vecs.At(1, iMax), vecs.At(2, iMax)}
	minor = []float64{vecs.At(0, iMin), vecs.At(1, iMin), vecs.At(2, iMin)}
	return major, minor, nil
}

// Elongation reports the anisotropy of the mass distribution as the
// square root of the ratio of the largest to the smallest covariance
// eigenvalue. A sphere-like blob scores near 1; a line scores +Inf
// (its least variance is zero).
func Elongation(img *volume.Volume) (float64, error) {
	vals, _, err := principalMoments(img)
	if err != nil {
		return 0, err
	}
	hi, lo := vals[argMax(vals)], vals[argMin(vals)]
	if lo <= 0 {
		return math.Inf(1), nil
	}
	return math.Sqrt(hi / lo), nil
}

func argMax(vals []float64) int {
	best := 0
	for i, v := range vals {
		if v > vals[best] {
			best = i
		}
	}
	return best
}

func argMin(vals []float64) int {
	best := 0
	for i, v := range vals {
		if v < vals[best] {
			best = i
		}
	}
	return best
}

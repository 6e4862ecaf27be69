package align

import (
	"fmt"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"

	"volalign/pkg/volume"
)

const (
	spatialRank = 3

	// workRank is the canonical internal rank: every image is promoted
	// to (batch, channel, Z, Y, X) before rotation so a single resample
	// loop serves all supported ranks.
	workRank = 5
)

// validateRotations checks that every rotation names a pair of distinct
// spatial axes.
func validateRotations(rots []Rotation) error {
	for _, r := range rots {
		a, b := r.Axes[0], r.Axes[1]
		if a < 0 || a >= spatialRank || b < 0 || b >= spatialRank || a == b {
			return fmt.Errorf("%w: rotation plane (%d,%d) is not a pair of distinct spatial axes", ErrInvalidInput, a, b)
		}
	}
	return nil
}

// AlignMajor applies a sequence of plane rotations (typically produced
// by AlignAngles) to the spatial sub-volume of an image. Leading
// channel and batch axes are preserved; every leading slice receives
// the identical rotation sequence.
//
// When reshape is true the output bounding box grows per rotation so no
// rotated content is clipped; when false the output shape exactly
// equals the input shape and content rotated past the original bounds
// is discarded.
//
// The input is never mutated. ErrInvalidImage is returned for ranks
// outside {3,4,5}.
func AlignMajor(img *volume.Volume, angles []Rotation, reshape bool) (*volume.Volume, error) {
	if err := validateImage(img); err != nil {
		return nil, err
	}
	if err := validateRotations(angles); err != nil {
		return nil, err
	}
	if len(angles) == 0 {
		return img.Clone(), nil
	}

	lead := append([]int(nil), img.Shape[:img.Rank()-spatialRank]...)
	work := img.WithLeadingRank(workRank)
	for _, rot := range angles {
		work = rotatePlane(work, rot, reshape)
	}

	// Restore the original rank around the (possibly resized) spatial
	// dimensions.
	outShape := append(lead, work.Shape[workRank-spatialRank:]...)
	return &volume.Volume{Data: work.Data, Shape: outShape}, nil
}

// AlignMajorAll applies one shared angle sequence to a batch of images,
// which is what keeps multi-image datasets rotating consistently. The
// images may mix ranks 3, 4 and 5. Validation runs over the whole batch
// before any rotation starts, so a failure produces no partial output.
//
// Rotation of the batch is order-independent per image and runs on up
// to NumCPU images concurrently; results come back in input order.
func AlignMajorAll(imgs []*volume.Volume, angles []Rotation, reshape bool) ([]*volume.Volume, error) {
	for _, img := range imgs {
		if err := validateImage(img); err != nil {
			return nil, err
		}
	}
	if err := validateRotations(angles); err != nil {
		return nil, err
	}

	out := make([]*volume.Volume, len(imgs))
	var g errgroup.Group
	g.SetLimit(runtime.NumCPU())
	for i, img := range imgs {
		i, img := i, img
		g.Go(func() error {
			res, err := AlignMajor(img, angles, reshape)
			if err != nil {
				return err
			}
			out[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// rotatePlane resamples the spatial plane spanned by rot.Axes in every
// leading/through-axis slice of a rank-5 volume. Each output voxel is
// bilinearly interpolated from the inverse-rotated source position
// around the plane center; positions outside the source read as zero.
func rotatePlane(v *volume.Volume, rot Rotation, reshape bool) *volume.Volume {
	aAx := rot.Axes[0] + workRank - spatialRank
	bAx := rot.Axes[1] + workRank - spatialRank
	// The spatial axis the rotation passes through.
	cAx := (3 - rot.Axes[0] - rot.Axes[1]) + workRank - spatialRank

	h, w := v.Shape[aAx], v.Shape[bAx]
	s, c := math.Sincos(rot.Angle * math.Pi / 180)

	oh, ow := h, w
	if reshape {
		// Extent of the rotated bounding box, rounded like the corner
		// sweep of the source rectangle.
		oh = int(math.Abs(float64(h)*c) + math.Abs(float64(w)*s) + 0.5)
		ow = int(math.Abs(float64(h)*s) + math.Abs(float64(w)*c) + 0.5)
	}

	outShape := append([]int(nil), v.Shape...)
	outShape[aAx], outShape[bAx] = oh, ow
	out := volume.New(outShape...)

	cinA, cinB := float64(h-1)/2, float64(w-1)/2
	coutA, coutB := float64(oh-1)/2, float64(ow-1)/2

	inStr, outStr := v.Strides(), out.Strides()

	for b0 := 0; b0 < v.Shape[0]; b0++ {
		for c0 := 0; c0 < v.Shape[1]; c0++ {
			for k := 0; k < v.Shape[cAx]; k++ {
				inBase := b0*inStr[0] + c0*inStr[1] + k*inStr[cAx]
				outBase := b0*outStr[0] + c0*outStr[1] + k*outStr[cAx]
				for qa := 0; qa < oh; qa++ {
					ra := float64(qa) - coutA
					rowBase := outBase + qa*outStr[aAx]
					for qb := 0; qb < ow; qb++ {
						rb := float64(qb) - coutB
						// Inverse map: the source position this output
						// voxel was rotated from.
						pa := c*ra + s*rb + cinA
						pb := -s*ra + c*rb + cinB
						out.Data[rowBase+qb*outStr[bAx]] = sampleBilinear(
							v.Data, inBase, inStr[aAx], inStr[bAx], h, w, pa, pb)
					}
				}
			}
		}
	}
	return out
}

// sampleBilinear interpolates the in-plane position (pa, pb) from a
// plane of extents (h, w) embedded in data at the given base offset and
// strides. Out-of-bounds neighbors contribute zero.
func sampleBilinear(data []float64, base, strA, strB, h, w int, pa, pb float64) float64 {
	fa := math.Floor(pa)
	fb := math.Floor(pb)
	ia, ib := int(fa), int(fb)
	da, db := pa-fa, pb-fb

	var sum float64
	for oa := 0; oa <= 1; oa++ {
		ya := ia + oa
		if ya < 0 || ya >= h {
			continue
		}
		wa := 1 - da
		if oa == 1 {
			wa = da
		}
		if wa == 0 {
			continue
		}
		for ob := 0; ob <= 1; ob++ {
			yb := ib + ob
			if yb < 0 || yb >= w {
				continue
			}
			wb := 1 - db
			if ob == 1 {
				wb = db
			}
			if wb == 0 {
				continue
			}
			sum += wa * wb * data[base+ya*strA+yb*strB]
		}
	}
	return sum
}

package align

import (
	"errors"
	"math"
	"testing"

	"volalign/pkg/volume"
)

// testCube returns the binary CZYX fixture used across the alignment
// tests: a 3-channel 10x10x10 volume whose mass runs mostly along X,
// with a shorter arm along Y and a single off-plane voxel, so the major
// axis is X and the minor axis is Z.
func testCube() *volume.Volume {
	v := volume.New(3, 10, 10, 10)
	for c := 0; c < 3; c++ {
		for x := 0; x < 10; x++ {
			v.Set(1, c, 5, 5, x)
		}
		for y := 0; y < 5; y++ {
			v.Set(1, c, 5, y, 5)
		}
		v.Set(1, c, 6, 5, 5)
	}
	return v
}

// axisAngle folds the sign ambiguity of eigenvectors: the angle between
// an eigenvector and a reference axis, treated as lines.
func axisAngle(t *testing.T, v, ref []float64) float64 {
	t.Helper()
	a, err := AngleBetween(v, ref)
	if err != nil {
		t.Fatalf("AngleBetween failed: %v", err)
	}
	return math.Min(a, 180-a)
}

// TestMajorMinorAxisLine checks that a line of mass along X reports a
// major axis within a degree of the X unit vector.
func TestMajorMinorAxisLine(t *testing.T) {
	v := volume.New(3, 10, 10, 10)
	for c := 0; c < 3; c++ {
		for x := 0; x < 10; x++ {
			v.Set(1, c, 5, 5, x)
		}
	}
	major, _, err := MajorMinorAxis(v)
	if err != nil {
		t.Fatalf("MajorMinorAxis failed: %v", err)
	}
	if a := axisAngle(t, major, []float64{1, 0, 0}); a >= 1 {
		t.Errorf("Major axis %v is %g degrees off X, want < 1", major, a)
	}
}

// TestMajorMinorAxisWeighted checks that intensity outweighs voxel
// count: a heavy short arm along Y dominates a faint long arm along X.
func TestMajorMinorAxisWeighted(t *testing.T) {
	v := volume.New(10, 10, 10)
	for x := 0; x < 10; x++ {
		v.Set(0.01, 5, 5, x)
	}
	for y := 0; y < 8; y++ {
		v.Set(100, 5, y, 5)
	}
	major, _, err := MajorMinorAxis(v)
	if err != nil {
		t.Fatalf("MajorMinorAxis failed: %v", err)
	}
	if a := axisAngle(t, major, []float64{0, 1, 0}); a >= 5 {
		t.Errorf("Major axis %v is %g degrees off Y, want < 5", major, a)
	}
}

// TestMajorMinorAxisEmpty checks the zero-mass failure mode.
func TestMajorMinorAxisEmpty(t *testing.T) {
	if _, _, err := MajorMinorAxis(volume.New(4, 4, 4)); !errors.Is(err, ErrEmptyImage) {
		t.Errorf("Expected ErrEmptyImage for all-zero volume, got %v", err)
	}
}

// TestMajorMinorAxisSingleVoxel checks that a single positive voxel,
// whose covariance is undefined, is also rejected.
func TestMajorMinorAxisSingleVoxel(t *testing.T) {
	v := volume.New(4, 4, 4)
	v.Set(1, 2, 2, 2)
	if _, _, err := MajorMinorAxis(v); !errors.Is(err, ErrEmptyImage) {
		t.Errorf("Expected ErrEmptyImage for single-voxel volume, got %v", err)
	}
}

// TestMajorMinorAxisInvalidRank checks the rank contract.
func TestMajorMinorAxisInvalidRank(t *testing.T) {
	if _, _, err := MajorMinorAxis(volume.New(2, 2)); !errors.Is(err, ErrInvalidImage) {
		t.Errorf("Expected ErrInvalidImage for rank-2 input, got %v", err)
	}
	if _, _, err := MajorMinorAxis(nil); !errors.Is(err, ErrInvalidImage) {
		t.Errorf("Expected ErrInvalidImage for nil input, got %v", err)
	}
}

// TestElongation checks that the anisotropy of the elongated fixture is
// finite and clearly above 1.
func TestElongation(t *testing.T) {
	e, err := Elongation(testCube())
	if err != nil {
		t.Fatalf("Elongation failed: %v", err)
	}
	if math.IsNaN(e) || math.IsInf(e, 0) {
		t.Fatalf("Expected finite elongation, got %g", e)
	}
	if e <= 1 {
		t.Errorf("Expected elongation > 1 for an elongated volume, got %g", e)
	}
}

package align

import (
	"errors"
	"testing"

	"volalign/pkg/volume"
)

// axisOrders lists every target permutation.
var axisOrders = []string{"xyz", "xzy", "yxz", "yzx", "zxy", "zyx"}

func rotationsEqual(a, b []Rotation) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Axes != b[i].Axes || a[i].Angle != b[i].Angle {
			return false
		}
	}
	return true
}

// TestAlignAnglesInvalidOrder rejects everything that is not a
// permutation of "xyz".
func TestAlignAnglesInvalidOrder(t *testing.T) {
	cube := testCube()
	for _, order := range []string{"", "xy", "xyzz", "aaa", "xxy", "xyw", "XYZ"} {
		if _, err := AlignAngles(cube, order); !errors.Is(err, ErrInvalidAxisOrder) {
			t.Errorf("Order %q: expected ErrInvalidAxisOrder, got %v", order, err)
		}
	}
}

// TestAlignAnglesInvalidImage checks the rank contract before any axis
// extraction happens.
func TestAlignAnglesInvalidImage(t *testing.T) {
	if _, err := AlignAngles(volume.New(2, 2), "xyz"); !errors.Is(err, ErrInvalidImage) {
		t.Errorf("Expected ErrInvalidImage for rank-2 input, got %v", err)
	}
	if _, err := AlignAngles(nil, "xyz"); !errors.Is(err, ErrInvalidImage) {
		t.Errorf("Expected ErrInvalidImage for nil input, got %v", err)
	}
}

// TestAlignAnglesCount verifies the fixed three-rotation decomposition
// and that every rotation names a distinct spatial axis pair.
func TestAlignAnglesCount(t *testing.T) {
	for _, order := range axisOrders {
		angles, err := AlignAngles(testCube(), order)
		if err != nil {
			t.Fatalf("AlignAngles(%q) failed: %v", order, err)
		}
		if len(angles) != 3 {
			t.Fatalf("AlignAngles(%q): expected 3 rotations, got %d", order, len(angles))
		}
		for _, r := range angles {
			if r.Axes[0] == r.Axes[1] || r.Axes[0] < 0 || r.Axes[0] > 2 || r.Axes[1] < 0 || r.Axes[1] > 2 {
				t.Errorf("AlignAngles(%q): degenerate rotation plane %v", order, r.Axes)
			}
			if r.Angle < -90 || r.Angle >= 90 {
				t.Errorf("AlignAngles(%q): angle %g outside [-90,90)", order, r.Angle)
			}
		}
	}
}

// TestAlignAnglesRankInvariance verifies that the 3-D, 4-D and 5-D
// forms of the same underlying volume produce identical angle
// sequences.
func TestAlignAnglesRankInvariance(t *testing.T) {
	cube4 := testCube()
	cube3 := cube4.MeanOverLeading()
	cube5 := cube4.WithLeadingRank(5)

	for _, order := range axisOrders {
		a3, err := AlignAngles(cube3, order)
		if err != nil {
			t.Fatalf("AlignAngles 3d (%q) failed: %v", order, err)
		}
		a4, err := AlignAngles(cube4, order)
		if err != nil {
			t.Fatalf("AlignAngles 4d (%q) failed: %v", order, err)
		}
		a5, err := AlignAngles(cube5, order)
		if err != nil {
			t.Fatalf("AlignAngles 5d (%q) failed: %v", order, err)
		}
		if !rotationsEqual(a3, a4) {
			t.Errorf("Angles for 3d image differ from 4d with order %q: %v vs %v", order, a3, a4)
		}
		if !rotationsEqual(a4, a5) {
			t.Errorf("Angles for 4d image differ from 5d with order %q: %v vs %v", order, a4, a5)
		}
	}
}

// TestAlignAnglesAlreadyAligned checks that a volume whose mass already
// lies along the requested major axis solves to zero rotation.
func TestAlignAnglesAlreadyAligned(t *testing.T) {
	v := volume.New(10, 10, 10)
	for x := 0; x < 10; x++ {
		v.Set(1, 5, 5, x)
	}
	for y := 4; y <= 6; y++ {
		v.Set(1, 5, y, 5)
	}
	angles, err := AlignAngles(v, "xyz")
	if err != nil {
		t.Fatalf("AlignAngles failed: %v", err)
	}
	for i, r := range angles {
		if r.Angle < -1 || r.Angle > 1 {
			t.Errorf("Rotation %d: expected near-zero angle for pre-aligned volume, got %g", i, r.Angle)
		}
	}
}

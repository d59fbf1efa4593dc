package resample

import (
	"math"
	"testing"

	"mriresample/pkg/volume"
)

// TestBaseAffineOblique verifies the canonical target derived from an
// oblique source: diagonal spacing with the source's sign convention and
// a translation centering the grid on the origin
func TestBaseAffineOblique(t *testing.T) {
	affine := rotationX(15*math.Pi/180, 2, 16)
	data := make([]float64, 4*6*8)
	src, err := volume.New(data, [3]int{4, 6, 8}, affine, volume.Float64)
	if err != nil {
		t.Fatalf("Failed to create volume: %v", err)
	}

	target, err := BaseAffine(src)
	if err != nil {
		t.Fatalf("BaseAffine failed: %v", err)
	}

	// Diagonal block: spacing 2 with positive signs (cos 15 > 0).
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			want := 0.0
			if i == j {
				want = 2
			}
			if math.Abs(target[i][j]-want) > 1e-12 {
				t.Errorf("target[%d][%d] = %g, want %g", i, j, target[i][j], want)
			}
		}
	}

	// Translation: -spacing * dim / 2 per axis.
	wantTrans := [3]float64{-4, -6, -8}
	for i := 0; i < 3; i++ {
		if math.Abs(target[i][3]-wantTrans[i]) > 1e-12 {
			t.Errorf("target[%d][3] = %g, want %g", i, target[i][3], wantTrans[i])
		}
	}
	if target[3][3] != 1 {
		t.Errorf("target[3][3] = %g, want 1", target[3][3])
	}
}

// TestBaseAffineNegativeSigns verifies that the source's diagonal sign
// convention carries through to both the diagonal and the translation,
// preserving anatomical polarity
func TestBaseAffineNegativeSigns(t *testing.T) {
	affine := volume.Diagonal(-2, 2, -3)
	data := make([]float64, 4*4*4)
	src, err := volume.New(data, [3]int{4, 4, 4}, affine, volume.Float64)
	if err != nil {
		t.Fatalf("Failed to create volume: %v", err)
	}

	target, err := BaseAffine(src)
	if err != nil {
		t.Fatalf("BaseAffine failed: %v", err)
	}

	wantDiag := [3]float64{-2, 2, -3}
	wantTrans := [3]float64{4, -4, 6}
	for i := 0; i < 3; i++ {
		if math.Abs(target[i][i]-wantDiag[i]) > 1e-12 {
			t.Errorf("target[%d][%d] = %g, want %g", i, i, target[i][i], wantDiag[i])
		}
		if math.Abs(target[i][3]-wantTrans[i]) > 1e-12 {
			t.Errorf("target[%d][3] = %g, want %g", i, target[i][3], wantTrans[i])
		}
	}
}

// TestBaseAffineDegenerateDiagonal verifies that a zero source diagonal
// entry (a pure 90 degree permutation) is rejected with a GeometryError
// instead of producing a singular target
func TestBaseAffineDegenerateDiagonal(t *testing.T) {
	// 90 degree rotation: x and y columns swap, diagonal entries are 0.
	affine := volume.Affine{
		{0, -2, 0, 0},
		{2, 0, 0, 0},
		{0, 0, 2, 0},
		{0, 0, 0, 1},
	}
	data := make([]float64, 8)
	src, err := volume.New(data, [3]int{2, 2, 2}, affine, volume.Float64)
	if err != nil {
		t.Fatalf("Failed to create volume: %v", err)
	}

	_, err = BaseAffine(src)
	if err == nil {
		t.Fatal("Expected error for zero diagonal entry")
	}
	if _, ok := err.(*volume.GeometryError); !ok {
		t.Errorf("Expected GeometryError, got %T: %v", err, err)
	}
}

package volume

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Affine is a 4x4 homogeneous transform mapping voxel indices (i, j, k)
// to physical millimeter coordinates. The upper-left 3x3 block encodes
// rotation, reflection and scaling; the last column holds the translation.
// Values are stored row-major.
type Affine [4][4]float64

// Identity returns the 4x4 identity transform.
func Identity() Affine {
	return Affine{
		{1, 0, 0, 0},
		{0, 1, 0, 0},
		{0, 0, 1, 0},
		{0, 0, 0, 1},
	}
}

// Diagonal returns an affine with the given diagonal entries and no
// rotational or translational component.
func Diagonal(x, y, z float64) Affine {
	return Affine{
		{x, 0, 0, 0},
		{0, y, 0, 0},
		{0, 0, z, 0},
		{0, 0, 0, 1},
	}
}

// Mul returns the composition a*b.
func (a Affine) Mul(b Affine) Affine {
	var r Affine
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			sum := 0.0
			for k := 0; k < 4; k++ {
				sum += a[i][k] * b[k][j]
			}
			r[i][j] = sum
		}
	}
	return r
}

// Apply maps the point (x, y, z) through the transform.
func (a Affine) Apply(x, y, z float64) (float64, float64, float64) {
	tx := a[0][0]*x + a[0][1]*y + a[0][2]*z + a[0][3]
	ty := a[1][0]*x + a[1][1]*y + a[1][2]*z + a[1][3]
	tz := a[2][0]*x + a[2][1]*y + a[2][2]*z + a[2][3]
	return tx, ty, tz
}

// Equal reports whether a and b are element-wise identical. No tolerance
// is applied; callers that need approximate comparison should compare
// obliquity or spacing instead.
func (a Affine) Equal(b Affine) bool {
	return a == b
}

// Inverse returns the inverse transform. A GeometryError is returned when
// the matrix is singular.
func (a Affine) Inverse() (Affine, error) {
	m := mat.NewDense(4, 4, nil)
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			m.Set(i, j, a[i][j])
		}
	}
	var inv mat.Dense
	if err := inv.Inverse(m); err != nil {
		return Affine{}, &GeometryError{Reason: "affine transform is singular"}
	}
	var r Affine
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			r[i][j] = inv.At(i, j)
		}
	}
	return r, nil
}

// Spacing returns the voxel spacing encoded in the transform: the
// Euclidean norm of each column of the 3x3 block.
func (a Affine) Spacing() [3]float64 {
	var s [3]float64
	for j := 0; j < 3; j++ {
		s[j] = math.Hypot(a[0][j], math.Hypot(a[1][j], a[2][j]))
	}
	return s
}

// DiagSigns returns the sign of each diagonal entry of the 3x3 block.
// A zero diagonal entry yields 0, which callers must treat as degenerate.
func (a Affine) DiagSigns() [3]float64 {
	var s [3]float64
	for i := 0; i < 3; i++ {
		switch {
		case a[i][i] > 0:
			s[i] = 1
		case a[i][i] < 0:
			s[i] = -1
		}
	}
	return s
}

// Obliquity returns the per-axis angular deviation of the transform from
// axis alignment, in degrees. Each column of the 3x3 block is normalised
// by the voxel spacing, then the per-row maximum absolute cosine is
// converted to an angle. Translation does not affect the result.
func (a Affine) Obliquity() [3]float64 {
	spacing := a.Spacing()
	var angles [3]float64
	for i := 0; i < 3; i++ {
		best := 0.0
		for j := 0; j < 3; j++ {
			if spacing[j] == 0 {
				continue
			}
			c := math.Abs(a[i][j] / spacing[j])
			if c > best {
				best = c
			}
		}
		if best > 1 {
			best = 1
		}
		angles[i] = math.Acos(best) * 180 / math.Pi
	}
	return angles
}

// singular reports whether the 3x3 block has no inverse.
func (a Affine) singular() bool {
	m := mat.NewDense(3, 3, nil)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			m.Set(i, j, a[i][j])
		}
	}
	return mat.Det(m) == 0
}

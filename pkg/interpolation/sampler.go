// Package interpolation provides the grid samplers used by the resampling
// engine: trilinear interpolation for continuous data and nearest-neighbour
// lookup for label data.
package interpolation

import (
	"fmt"
	"math"
)

// Mode selects how voxel values are interpolated during resampling.
type Mode int

const (
	// Continuous uses trilinear interpolation of the 8 surrounding
	// voxels. Appropriate for smoothly varying data such as magnitude
	// or real/imaginary channels.
	Continuous Mode = iota

	// Nearest picks the single closest voxel. Appropriate for label and
	// mask data where blending distinct labels would be meaningless.
	Nearest
)

// String returns the mode name as used in configuration.
func (m Mode) String() string {
	switch m {
	case Continuous:
		return "continuous"
	case Nearest:
		return "nearest"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// ParseMode converts a configuration string into a Mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "continuous":
		return Continuous, nil
	case "nearest":
		return Nearest, nil
	}
	return 0, fmt.Errorf("unknown interpolation mode %q", s)
}

// Sampler reads values from a regular 3D grid at fractional voxel
// coordinates. Samples outside the grid's support deterministically
// return 0; no warning is emitted.
type Sampler struct {
	data       []float64
	nx, ny, nz int
}

// NewSampler wraps a flat row-major voxel array (x fastest) with the
// given dimensions.
func NewSampler(data []float64, dim [3]int) *Sampler {
	return &Sampler{data: data, nx: dim[0], ny: dim[1], nz: dim[2]}
}

// at returns the voxel value at integer coordinates, or 0 outside the grid.
func (s *Sampler) at(x, y, z int) float64 {
	if x < 0 || y < 0 || z < 0 || x >= s.nx || y >= s.ny || z >= s.nz {
		return 0
	}
	return s.data[z*s.ny*s.nx+y*s.nx+x]
}

// Trilinear returns the trilinear interpolation of the 8 voxels
// surrounding the fractional coordinate (x, y, z). Neighbours that fall
// outside the grid contribute 0, so values fade to the zero fill across
// the boundary instead of extrapolating.
func (s *Sampler) Trilinear(x, y, z float64) float64 {
	x0 := int(math.Floor(x))
	y0 := int(math.Floor(y))
	z0 := int(math.Floor(z))
	fx := x - float64(x0)
	fy := y - float64(y0)
	fz := z - float64(z0)

	c000 := s.at(x0, y0, z0)
	c100 := s.at(x0+1, y0, z0)
	c010 := s.at(x0, y0+1, z0)
	c110 := s.at(x0+1, y0+1, z0)
	c001 := s.at(x0, y0, z0+1)
	c101 := s.at(x0+1, y0, z0+1)
	c011 := s.at(x0, y0+1, z0+1)
	c111 := s.at(x0+1, y0+1, z0+1)

	c00 := c000*(1-fx) + c100*fx
	c10 := c010*(1-fx) + c110*fx
	c01 := c001*(1-fx) + c101*fx
	c11 := c011*(1-fx) + c111*fx

	c0 := c00*(1-fy) + c10*fy
	c1 := c01*(1-fy) + c11*fy

	return c0*(1-fz) + c1*fz
}

// NearestNeighbor returns the value of the voxel closest to the
// fractional coordinate (x, y, z), or 0 outside the grid. The result is
// always a value present in the source data (or the zero fill), never a
// blend.
func (s *Sampler) NearestNeighbor(x, y, z float64) float64 {
	return s.at(int(math.Round(x)), int(math.Round(y)), int(math.Round(z)))
}

// Sample dispatches on the interpolation mode.
func (s *Sampler) Sample(mode Mode, x, y, z float64) (float64, error) {
	switch mode {
	case Continuous:
		return s.Trilinear(x, y, z), nil
	case Nearest:
		return s.NearestNeighbor(x, y, z), nil
	}
	return 0, fmt.Errorf("unsupported interpolation mode %v", mode)
}

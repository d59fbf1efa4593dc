// Package volume defines the strongly-typed 3D volume model shared by the
// resampling engine and the NIfTI container layer: voxel data, dimensions,
// the voxel-to-world affine transform and the on-disk storage type.
package volume

import (
	"fmt"
)

// DType identifies the storage data type a volume uses on disk. Voxel
// data is always held as float64 in memory; DType controls how values
// are narrowed when the volume is written back to a container file.
type DType int

const (
	Uint8 DType = iota
	Int16
	Int32
	Float32
	Float64
	Uint16
)

// String returns the conventional name of the data type.
func (d DType) String() string {
	switch d {
	case Uint8:
		return "uint8"
	case Int16:
		return "int16"
	case Int32:
		return "int32"
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	case Uint16:
		return "uint16"
	}
	return fmt.Sprintf("DType(%d)", int(d))
}

// Integer reports whether the type stores whole numbers only.
func (d DType) Integer() bool {
	switch d {
	case Uint8, Int16, Int32, Uint16:
		return true
	}
	return false
}

// GeometryError indicates that a volume's geometric metadata is unusable:
// a singular affine transform or a non-positive voxel spacing.
type GeometryError struct {
	Reason string
}

func (e *GeometryError) Error() string {
	return fmt.Sprintf("invalid geometry: %s", e.Reason)
}

// ShapeMismatchError indicates that two volumes required to share a shape
// do not.
type ShapeMismatchError struct {
	Context string
	Want    [3]int
	Got     [3]int
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("shape mismatch (%s): want %v, got %v", e.Context, e.Want, e.Got)
}

// Volume is a 3D image: voxel values in row-major order (x fastest),
// grid dimensions, the voxel-to-world affine and the storage data type.
// Volumes are treated as immutable by the engine; every operation that
// changes voxel data allocates a new Volume.
type Volume struct {
	// Data holds the voxel values as a flat array indexed
	// [z*ny*nx + y*nx + x].
	Data []float64

	// Dim is the grid extent along x, y and z.
	Dim [3]int

	// Affine maps voxel indices to physical millimeter coordinates.
	Affine Affine

	// DType is the storage type used when the volume is persisted.
	DType DType
}

// New constructs a Volume and validates its geometry. It returns a
// GeometryError when the affine's 3x3 block is singular or the implied
// voxel spacing is non-positive, and a plain error when the data length
// does not match the dimensions.
func New(data []float64, dim [3]int, affine Affine, dtype DType) (*Volume, error) {
	n := dim[0] * dim[1] * dim[2]
	if dim[0] <= 0 || dim[1] <= 0 || dim[2] <= 0 {
		return nil, fmt.Errorf("invalid dimensions %v", dim)
	}
	if len(data) != n {
		return nil, fmt.Errorf("data length %d does not match dimensions %v (%d voxels)", len(data), dim, n)
	}
	if affine.singular() {
		return nil, &GeometryError{Reason: "affine 3x3 block is singular"}
	}
	for i, s := range affine.Spacing() {
		if s <= 0 {
			return nil, &GeometryError{Reason: fmt.Sprintf("voxel spacing along axis %d is %g", i, s)}
		}
	}
	return &Volume{Data: data, Dim: dim, Affine: affine, DType: dtype}, nil
}

// NumVoxels returns the total number of voxels.
func (v *Volume) NumVoxels() int {
	return v.Dim[0] * v.Dim[1] * v.Dim[2]
}

// At returns the voxel value at integer grid coordinates. The caller is
// responsible for bounds.
func (v *Volume) At(x, y, z int) float64 {
	return v.Data[z*v.Dim[1]*v.Dim[0]+y*v.Dim[0]+x]
}

// Spacing returns the voxel spacing implied by the affine transform.
func (v *Volume) Spacing() [3]float64 {
	return v.Affine.Spacing()
}

// Obliquity returns the per-axis deviation of the volume's transform from
// axis alignment, in degrees.
func (v *Volume) Obliquity() [3]float64 {
	return v.Affine.Obliquity()
}

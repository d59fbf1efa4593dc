package resample

import (
	"fmt"

	"mriresample/pkg/volume"
)

// InterpolationError indicates that the resampling kernel could not
// process a volume, for example because of an unsupported interpolation
// mode.
type InterpolationError struct {
	Reason string
}

func (e *InterpolationError) Error() string {
	return fmt.Sprintf("interpolation failed: %s", e.Reason)
}

// BaseAffine derives the canonical axis-aligned target transform for a
// volume acquired on an oblique grid. The result has a purely diagonal
// 3x3 block carrying the source voxel spacing with the source's diagonal
// sign convention, and a translation that centers the grid on the origin:
//
//	T[i][i]  = spacing[i] * sign(diag(A)[i])
//	T[i][3]  = -sign(diag(A)[i]) * spacing[i] * dim[i] / 2
//
// Keeping the signs of the source diagonal preserves the anatomical
// left/right, anterior/posterior and superior/inferior polarity after
// resampling. A GeometryError is returned when the derived transform
// would be singular (a zero on the source diagonal).
func BaseAffine(v *volume.Volume) (volume.Affine, error) {
	spacing := v.Spacing()
	signs := v.Affine.DiagSigns()

	t := volume.Identity()
	for i := 0; i < 3; i++ {
		if signs[i] == 0 {
			return volume.Affine{}, &volume.GeometryError{
				Reason: fmt.Sprintf("affine diagonal entry %d is zero; cannot derive axial target", i),
			}
		}
		t[i][i] = spacing[i] * signs[i]
		t[i][3] = -signs[i] * spacing[i] * float64(v.Dim[i]) / 2
	}
	return t, nil
}

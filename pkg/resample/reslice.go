package resample

import (
	"mriresample/pkg/interpolation"
	"mriresample/pkg/volume"
)

// Like resamples src onto the exact grid of ref: target affine and
// target shape are taken from the reference. When the two affines are
// element-wise identical the source is returned unchanged without
// allocating a new volume.
func Like(src, ref *volume.Volume, mode interpolation.Mode) (*volume.Volume, error) {
	if src.Affine.Equal(ref.Affine) {
		return src, nil
	}
	return ResampleToShape(src, ref.Affine, ref.Dim, mode)
}

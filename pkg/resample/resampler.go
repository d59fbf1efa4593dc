package resample

import (
	"math"

	"mriresample/pkg/interpolation"
	"mriresample/pkg/volume"
)

// fitTarget computes the output grid for resampling src onto the target
// transform when no explicit shape is requested. The corners of the
// source grid are mapped into target voxel space; the output extent is
// the bounding box of those corners and the target translation is
// shifted so the box starts at voxel (0, 0, 0). This guarantees the
// output grid covers the full transformed source extent.
func fitTarget(src *volume.Volume, target volume.Affine) (volume.Affine, [3]int, error) {
	inv, err := target.Inverse()
	if err != nil {
		return volume.Affine{}, [3]int{}, err
	}
	toTarget := inv.Mul(src.Affine)

	min := [3]float64{math.Inf(1), math.Inf(1), math.Inf(1)}
	max := [3]float64{math.Inf(-1), math.Inf(-1), math.Inf(-1)}
	for c := 0; c < 8; c++ {
		var corner [3]float64
		for i := 0; i < 3; i++ {
			if c&(1<<i) != 0 {
				corner[i] = float64(src.Dim[i] - 1)
			}
		}
		x, y, z := toTarget.Apply(corner[0], corner[1], corner[2])
		for i, v := range [3]float64{x, y, z} {
			if v < min[i] {
				min[i] = v
			}
			if v > max[i] {
				max[i] = v
			}
		}
	}

	var shape [3]int
	for i := 0; i < 3; i++ {
		// The tiny slack keeps rounding noise in the corner transform
		// from inflating an exactly-integral extent by one voxel.
		shape[i] = int(math.Ceil(max[i]-min[i]-1e-9)) + 1
	}

	// Shift the translation so voxel (0,0,0) lands on the box minimum.
	fitted := target
	for i := 0; i < 3; i++ {
		fitted[i][3] += target[i][0]*min[0] + target[i][1]*min[1] + target[i][2]*min[2]
	}
	return fitted, shape, nil
}

// Resample interpolates src onto the grid implied by the target affine
// transform. The output extent is inferred from the transformed source
// bounding box, so the result always covers the source's physical
// extent. The source volume is never mutated.
func Resample(src *volume.Volume, target volume.Affine, mode interpolation.Mode) (*volume.Volume, error) {
	fitted, shape, err := fitTarget(src, target)
	if err != nil {
		return nil, err
	}
	return ResampleToShape(src, fitted, shape, mode)
}

// ResampleToShape interpolates src onto the target transform with a
// fixed output shape. Samples that fall outside the source's support
// fill with 0; the zero fill is deterministic and intentionally not
// logged. An InterpolationError is returned for an unsupported mode.
func ResampleToShape(src *volume.Volume, target volume.Affine, shape [3]int, mode interpolation.Mode) (*volume.Volume, error) {
	if mode != interpolation.Continuous && mode != interpolation.Nearest {
		return nil, &InterpolationError{Reason: "unsupported mode " + mode.String()}
	}

	srcInv, err := src.Affine.Inverse()
	if err != nil {
		return nil, err
	}
	// toSource maps output voxel indices straight to source voxel
	// coordinates: inv(S) * T.
	toSource := srcInv.Mul(target)

	sampler := interpolation.NewSampler(src.Data, src.Dim)
	out := make([]float64, shape[0]*shape[1]*shape[2])

	idx := 0
	for z := 0; z < shape[2]; z++ {
		for y := 0; y < shape[1]; y++ {
			for x := 0; x < shape[0]; x++ {
				sx, sy, sz := toSource.Apply(float64(x), float64(y), float64(z))
				if mode == interpolation.Continuous {
					out[idx] = sampler.Trilinear(sx, sy, sz)
				} else {
					out[idx] = sampler.NearestNeighbor(sx, sy, sz)
				}
				idx++
			}
		}
	}

	return volume.New(out, shape, target, src.DType)
}

// Package resample implements the oblique-to-axial resampling engine: it
// re-slices a magnitude/phase volume pair acquired on a rotated scanner
// grid onto a canonical axis-aligned grid, interpolating in the complex
// domain so phase wraps do not produce artifacts. A generic reslicing
// operation onto an arbitrary reference grid shares the same machinery.
package resample

import (
	"gonum.org/v1/gonum/floats"

	"mriresample/pkg/interpolation"
	"mriresample/pkg/volume"
)

// ObliquityNorm returns the Euclidean norm of a volume's per-axis
// obliquity angles, in degrees. An axis-aligned volume has norm 0.
func ObliquityNorm(v *volume.Volume) float64 {
	o := v.Obliquity()
	return floats.Norm(o[:], 2)
}

// ShouldResample applies the obliquity gate: when a threshold is
// supplied and the volume's obliquity norm is strictly below it,
// resampling is skipped. With no threshold resampling always proceeds.
// The decision is a pure function of the affine and the threshold.
func ShouldResample(v *volume.Volume, threshold *float64) (norm float64, resampleNeeded bool) {
	norm = ObliquityNorm(v)
	if threshold != nil && norm < *threshold {
		return norm, false
	}
	return norm, true
}

// Result holds the volumes produced by one axial resampling run. Mask is
// nil when no mask was supplied.
type Result struct {
	Mag  *volume.Volume
	Pha  *volume.Volume
	Mask *volume.Volume
}

// ToAxial re-slices a magnitude/phase pair (and optionally a mask) onto
// the canonical axis-aligned grid derived from the magnitude volume's
// geometry. The pair is decomposed into real/imaginary channels before
// interpolation and recomposed afterwards; the mask, when present, is
// resampled with nearest-neighbour interpolation so label identities are
// never blended. Inputs are not mutated.
func ToAxial(mag, pha, mask *volume.Volume) (*Result, error) {
	target, err := BaseAffine(mag)
	if err != nil {
		return nil, err
	}

	pair, err := Decompose(mag, pha)
	if err != nil {
		return nil, err
	}

	realRs, err := Resample(pair.Real, target, interpolation.Continuous)
	if err != nil {
		return nil, err
	}
	// The imaginary channel shares the phase grid, so resampling it onto
	// the grid inferred for the real channel keeps the two aligned.
	imagRs, err := ResampleToShape(pair.Imag, realRs.Affine, realRs.Dim, interpolation.Continuous)
	if err != nil {
		return nil, err
	}

	rotated := &ComplexPair{Real: realRs, Imag: imagRs}
	magRs, phaRs, err := rotated.Recompose(mag.DType)
	if err != nil {
		return nil, err
	}

	res := &Result{Mag: magRs, Pha: phaRs}
	if mask != nil {
		maskRs, err := Resample(mask, target, interpolation.Nearest)
		if err != nil {
			return nil, err
		}
		res.Mask = maskRs
	}
	return res, nil
}

package resample

import (
	"math"

	"mriresample/pkg/volume"
)

// ComplexPair holds the transient real and imaginary channels derived
// from a magnitude/phase pair. Phase wraps at +/-pi, so interpolating it
// directly across a wrap boundary produces artifacts; the Cartesian
// representation has no periodicity and interpolates cleanly. A pair
// exists only between decomposition and recomposition and is never
// persisted.
type ComplexPair struct {
	Real *volume.Volume
	Imag *volume.Volume
}

// Decompose converts a magnitude/phase pair into real and imaginary
// channels:
//
//	real = magnitude * cos(phase)
//	imag = magnitude * sin(phase)
//
// Both channels carry the phase volume's affine transform and are stored
// as float32 volumes. Magnitude and phase are assumed co-registered on
// entry; a ShapeMismatchError is returned when their shapes differ.
func Decompose(mag, pha *volume.Volume) (*ComplexPair, error) {
	if mag.Dim != pha.Dim {
		return nil, &volume.ShapeMismatchError{
			Context: "magnitude vs phase",
			Want:    mag.Dim,
			Got:     pha.Dim,
		}
	}

	real := make([]float64, len(mag.Data))
	imag := make([]float64, len(mag.Data))
	for i, m := range mag.Data {
		p := pha.Data[i]
		real[i] = m * math.Cos(p)
		imag[i] = m * math.Sin(p)
	}

	realVol, err := volume.New(real, pha.Dim, pha.Affine, volume.Float32)
	if err != nil {
		return nil, err
	}
	imagVol, err := volume.New(imag, pha.Dim, pha.Affine, volume.Float32)
	if err != nil {
		return nil, err
	}
	return &ComplexPair{Real: realVol, Imag: imagVol}, nil
}

// Recompose converts interpolated real/imaginary channels back into
// magnitude and phase:
//
//	magnitude = round(hypot(real, imag))
//	phase     = atan2(imag, real)
//
// Magnitude is rounded to the nearest integer before taking the original
// magnitude storage type, even when that type is floating point; the
// rounding avoids truncation bias on integer types and downstream
// consumers rely on integer-valued magnitude. Phase is stored at reduced
// float32 precision and always lies in (-pi, pi].
func (p *ComplexPair) Recompose(magDType volume.DType) (*volume.Volume, *volume.Volume, error) {
	if p.Real.Dim != p.Imag.Dim {
		return nil, nil, &volume.ShapeMismatchError{
			Context: "real vs imaginary",
			Want:    p.Real.Dim,
			Got:     p.Imag.Dim,
		}
	}

	mag := make([]float64, len(p.Real.Data))
	pha := make([]float64, len(p.Real.Data))
	for i, re := range p.Real.Data {
		im := p.Imag.Data[i]
		mag[i] = math.Round(math.Hypot(re, im))
		pha[i] = float64(float32(math.Atan2(im, re)))
	}

	magVol, err := volume.New(mag, p.Real.Dim, p.Real.Affine, magDType)
	if err != nil {
		return nil, nil, err
	}
	phaVol, err := volume.New(pha, p.Real.Dim, p.Real.Affine, volume.Float32)
	if err != nil {
		return nil, nil, err
	}
	return magVol, phaVol, nil
}

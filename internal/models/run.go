package models

import (
	"path/filepath"
	"strings"
)

// Run represents a single unit of work: one magnitude/phase pair with an
// optional mask, plus the decision and outputs recorded for it. Units
// are independent; a failure in one run never affects a sibling.
type Run struct {
	// MagPath, PhaPath and MaskPath are the resolved input files.
	// MaskPath is empty when no mask is supplied.
	MagPath  string
	PhaPath  string
	MaskPath string

	// ObliquityNorm is the Euclidean norm of the magnitude volume's
	// per-axis obliquity angles in degrees, filled in after loading.
	ObliquityNorm float64

	// Resampled records whether the obliquity gate let resampling
	// proceed. When false the output paths equal the input paths.
	Resampled bool

	// OutMagPath, OutPhaPath and OutMaskPath are the produced files.
	OutMagPath  string
	OutPhaPath  string
	OutMaskPath string
}

// HasMask reports whether this run carries a mask volume.
func (r *Run) HasMask() bool {
	return r.MaskPath != ""
}

// OutputPath derives the output filename for an input volume: the input
// basename's stem with the suffix appended, keeping the full compound
// extension (so "sub-1_part-mag.nii.gz" becomes
// "sub-1_part-mag<suffix>.nii.gz") and placed in dir. An empty dir keeps
// the input's directory.
func OutputPath(inPath, suffix, dir string) string {
	base := filepath.Base(inPath)
	stem := base
	ext := ""
	if i := strings.Index(base, "."); i >= 0 {
		stem = base[:i]
		ext = base[i:]
	}
	if dir == "" {
		dir = filepath.Dir(inPath)
	}
	return filepath.Join(dir, stem+suffix+ext)
}

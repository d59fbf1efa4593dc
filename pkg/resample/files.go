package resample

import (
	log "github.com/sirupsen/logrus"

	"mriresample/internal/models"
	"mriresample/pkg/interpolation"
	"mriresample/pkg/nifti"
	"mriresample/pkg/volume"
)

// Params configures one file-level resampling invocation. The caller
// supplies fully-resolved input paths; no discovery or pattern matching
// happens here.
type Params struct {
	// MagPath and PhaPath are the magnitude and phase input files.
	MagPath string
	PhaPath string

	// MaskPath is an optional label mask; empty means no mask.
	MaskPath string

	// ObliquityThreshold, when non-nil, enables the skip gate: inputs
	// whose obliquity norm is strictly below the threshold (in degrees)
	// are returned unchanged.
	ObliquityThreshold *float64

	// OutputDir receives the resampled files; empty keeps each output
	// next to its input.
	OutputDir string

	// OutputSuffix is appended to output filename stems. Empty selects
	// the default "_resampled".
	OutputSuffix string
}

func (p *Params) suffix() string {
	if p.OutputSuffix == "" {
		return "_resampled"
	}
	return p.OutputSuffix
}

// Files runs the oblique-to-axial pipeline on files: load, obliquity
// gate, complex-domain resampling, save. When the gate skips, the
// returned run references the original input files unchanged and no
// output is written. Errors are local to this invocation; nothing is
// retried and no partial output is written.
func Files(p Params) (*models.Run, error) {
	run := &models.Run{MagPath: p.MagPath, PhaPath: p.PhaPath, MaskPath: p.MaskPath}

	log.WithField("path", p.MagPath).Info("loading magnitude")
	mag, err := nifti.Load(p.MagPath)
	if err != nil {
		return nil, err
	}
	log.WithField("path", p.PhaPath).Info("loading phase")
	pha, err := nifti.Load(p.PhaPath)
	if err != nil {
		return nil, err
	}
	var mask *volume.Volume
	if run.HasMask() {
		log.WithField("path", p.MaskPath).Info("loading mask")
		mask, err = nifti.Load(p.MaskPath)
		if err != nil {
			return nil, err
		}
	}

	norm, needed := ShouldResample(mag, p.ObliquityThreshold)
	run.ObliquityNorm = norm
	if !needed {
		log.WithFields(log.Fields{
			"obliquity": norm,
			"threshold": *p.ObliquityThreshold,
		}).Info("obliquity below threshold; no resampling needed")
		run.OutMagPath = p.MagPath
		run.OutPhaPath = p.PhaPath
		run.OutMaskPath = p.MaskPath
		return run, nil
	}
	log.WithField("obliquity", norm).Info("resampling to axial grid")

	res, err := ToAxial(mag, pha, mask)
	if err != nil {
		return nil, err
	}
	run.Resampled = true

	run.OutMagPath = models.OutputPath(p.MagPath, p.suffix(), p.OutputDir)
	log.WithField("path", run.OutMagPath).Info("saving magnitude")
	if err := nifti.Save(res.Mag, run.OutMagPath); err != nil {
		return nil, err
	}
	run.OutPhaPath = models.OutputPath(p.PhaPath, p.suffix(), p.OutputDir)
	log.WithField("path", run.OutPhaPath).Info("saving phase")
	if err := nifti.Save(res.Pha, run.OutPhaPath); err != nil {
		return nil, err
	}
	if res.Mask != nil {
		run.OutMaskPath = models.OutputPath(p.MaskPath, p.suffix(), p.OutputDir)
		log.WithField("path", run.OutMaskPath).Info("saving mask")
		if err := nifti.Save(res.Mask, run.OutMaskPath); err != nil {
			return nil, err
		}
	}
	return run, nil
}

// LikeFiles resamples the volume at inPath onto the exact grid of the
// volume at likePath. When the two grids already share an affine the
// input path is returned unchanged and nothing is written.
func LikeFiles(inPath, likePath string, mode interpolation.Mode, outputDir, suffix string) (string, error) {
	src, err := nifti.Load(inPath)
	if err != nil {
		return "", err
	}
	ref, err := nifti.Load(likePath)
	if err != nil {
		return "", err
	}

	out, err := Like(src, ref, mode)
	if err != nil {
		return "", err
	}
	if out == src {
		log.WithField("path", inPath).Info("grids already match; no resampling needed")
		return inPath, nil
	}

	if suffix == "" {
		suffix = "_resampled"
	}
	outPath := models.OutputPath(inPath, suffix, outputDir)
	log.WithField("path", outPath).Info("saving resliced volume")
	if err := nifti.Save(out, outPath); err != nil {
		return "", err
	}
	return outPath, nil
}

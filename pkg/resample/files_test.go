package resample

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"mriresample/pkg/interpolation"
	"mriresample/pkg/nifti"
	"mriresample/pkg/volume"
)

// writeTestPair saves an oblique magnitude/phase pair into dir and
// returns the file paths.
func writeTestPair(t *testing.T, dir string, affine volume.Affine, n int) (string, string) {
	t.Helper()
	mag := constVolume(t, n, 100, affine, volume.Int16)
	pha := constVolume(t, n, 0.5, affine, volume.Float32)

	magPath := filepath.Join(dir, "sub-1_part-mag.nii.gz")
	phaPath := filepath.Join(dir, "sub-1_part-phase.nii.gz")
	if err := nifti.Save(mag, magPath); err != nil {
		t.Fatalf("Failed to save magnitude: %v", err)
	}
	if err := nifti.Save(pha, phaPath); err != nil {
		t.Fatalf("Failed to save phase: %v", err)
	}
	return magPath, phaPath
}

// TestFilesObliqueInput runs the file-level pipeline end to end on an
// oblique pair and checks the written outputs
func TestFilesObliqueInput(t *testing.T) {
	dir, err := os.MkdirTemp("", "mriresample-test-*")
	if err != nil {
		t.Fatalf("Failed to create temporary directory: %v", err)
	}
	defer os.RemoveAll(dir)

	n := 16
	magPath, phaPath := writeTestPair(t, dir, rotationX(15*math.Pi/180, 2, n), n)

	threshold := 10.0
	run, err := Files(Params{
		MagPath:            magPath,
		PhaPath:            phaPath,
		ObliquityThreshold: &threshold,
	})
	if err != nil {
		t.Fatalf("Files failed: %v", err)
	}

	if !run.Resampled {
		t.Fatal("Oblique input above threshold must be resampled")
	}
	if !strings.Contains(filepath.Base(run.OutMagPath), "_resampled") {
		t.Errorf("Output name %q missing the _resampled suffix", run.OutMagPath)
	}

	// Outputs must be readable and keep their storage types.
	magOut, err := nifti.Load(run.OutMagPath)
	if err != nil {
		t.Fatalf("Failed to reload magnitude output: %v", err)
	}
	if magOut.DType != volume.Int16 {
		t.Errorf("Magnitude output dtype %v, want int16", magOut.DType)
	}
	phaOut, err := nifti.Load(run.OutPhaPath)
	if err != nil {
		t.Fatalf("Failed to reload phase output: %v", err)
	}
	if phaOut.DType != volume.Float32 {
		t.Errorf("Phase output dtype %v, want float32", phaOut.DType)
	}
	for i, deg := range magOut.Obliquity() {
		if deg > 1e-3 {
			t.Errorf("Output obliquity[%d] = %g degrees, want ~0", i, deg)
		}
	}
}

// TestFilesSkipGate verifies that an axial pair below the threshold is
// returned unchanged with no output written
func TestFilesSkipGate(t *testing.T) {
	dir, err := os.MkdirTemp("", "mriresample-test-*")
	if err != nil {
		t.Fatalf("Failed to create temporary directory: %v", err)
	}
	defer os.RemoveAll(dir)

	n := 8
	magPath, phaPath := writeTestPair(t, dir, axialAffine(2, n), n)

	threshold := 10.0
	run, err := Files(Params{
		MagPath:            magPath,
		PhaPath:            phaPath,
		ObliquityThreshold: &threshold,
	})
	if err != nil {
		t.Fatalf("Files failed: %v", err)
	}

	if run.Resampled {
		t.Error("Axial input below threshold must be skipped")
	}
	if run.OutMagPath != magPath || run.OutPhaPath != phaPath {
		t.Errorf("Skip path must return the inputs unchanged, got %q and %q", run.OutMagPath, run.OutPhaPath)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("Failed to list directory: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("Skip path wrote extra files: %d entries in %s", len(entries), dir)
	}
}

// TestFilesMissingInput verifies the LoadError taxonomy for an absent file
func TestFilesMissingInput(t *testing.T) {
	_, err := Files(Params{
		MagPath: "/nonexistent/mag.nii.gz",
		PhaPath: "/nonexistent/phase.nii.gz",
	})
	if err == nil {
		t.Fatal("Expected error for missing input")
	}
	if _, ok := err.(*nifti.LoadError); !ok {
		t.Errorf("Expected LoadError, got %T: %v", err, err)
	}
}

// TestLikeFilesFastPath verifies that reslicing a file onto its own grid
// returns the input path without writing anything
func TestLikeFilesFastPath(t *testing.T) {
	dir, err := os.MkdirTemp("", "mriresample-test-*")
	if err != nil {
		t.Fatalf("Failed to create temporary directory: %v", err)
	}
	defer os.RemoveAll(dir)

	magPath, _ := writeTestPair(t, dir, axialAffine(2, 8), 8)

	out, err := LikeFiles(magPath, magPath, interpolation.Continuous, "", "")
	if err != nil {
		t.Fatalf("LikeFiles failed: %v", err)
	}
	if out != magPath {
		t.Errorf("Fast path returned %q, want the input path %q", out, magPath)
	}
}

// TestLikeFilesReslice verifies file-level reslicing onto a different grid
func TestLikeFilesReslice(t *testing.T) {
	dir, err := os.MkdirTemp("", "mriresample-test-*")
	if err != nil {
		t.Fatalf("Failed to create temporary directory: %v", err)
	}
	defer os.RemoveAll(dir)

	n := 12
	srcPath, _ := writeTestPair(t, dir, rotationX(0.2, 2, n), n)
	ref := constVolume(t, n, 0, axialAffine(2, n), volume.Float64)
	refPath := filepath.Join(dir, "ref.nii.gz")
	if err := nifti.Save(ref, refPath); err != nil {
		t.Fatalf("Failed to save reference: %v", err)
	}

	out, err := LikeFiles(srcPath, refPath, interpolation.Continuous, "", "")
	if err != nil {
		t.Fatalf("LikeFiles failed: %v", err)
	}
	if out == srcPath {
		t.Fatal("Differing grids must produce a new output file")
	}

	resliced, err := nifti.Load(out)
	if err != nil {
		t.Fatalf("Failed to reload resliced output: %v", err)
	}
	if resliced.Dim != ref.Dim {
		t.Errorf("Resliced dim %v, want reference dim %v", resliced.Dim, ref.Dim)
	}
}

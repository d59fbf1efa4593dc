// Package visualization renders quality-control previews of resampled
// volumes as 2D grayscale slice images.
package visualization

import (
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"

	"mriresample/pkg/volume"
)

// Viewer extracts 2D slices from a 3D volume for visual inspection,
// scaling voxel intensities into the full grayscale range.
type Viewer struct {
	vol *volume.Volume

	// lo and hi are the intensity bounds used for display scaling
	lo, hi float64
}

// NewViewer creates a viewer for the given volume, computing the
// intensity window from the volume's value range.
func NewViewer(v *volume.Volume) *Viewer {
	lo, hi := v.Data[0], v.Data[0]
	for _, val := range v.Data {
		if val < lo {
			lo = val
		}
		if val > hi {
			hi = val
		}
	}
	return &Viewer{vol: v, lo: lo, hi: hi}
}

// gray maps a voxel value into the 16-bit grayscale range.
func (v *Viewer) gray(val float64) color.Gray16 {
	if v.hi == v.lo {
		return color.Gray16{}
	}
	scaled := (val - v.lo) / (v.hi - v.lo) * 65535
	if scaled < 0 {
		scaled = 0
	}
	if scaled > 65535 {
		scaled = 65535
	}
	return color.Gray16{Y: uint16(scaled)}
}

// ExtractSlice extracts a 2D slice from the volume along the specified
// axis at the given position.
func (v *Viewer) ExtractSlice(axis string, position int) (image.Image, error) {
	if position < 0 {
		return nil, fmt.Errorf("position must be non-negative")
	}
	dim := v.vol.Dim

	var img *image.Gray16

	switch axis {
	case "x", "X":
		if position >= dim[0] {
			return nil, fmt.Errorf("position %d exceeds x extent %d", position, dim[0])
		}
		img = image.NewGray16(image.Rect(0, 0, dim[2], dim[1]))
		for y := 0; y < dim[1]; y++ {
			for z := 0; z < dim[2]; z++ {
				img.SetGray16(z, y, v.gray(v.vol.At(position, y, z)))
			}
		}

	case "y", "Y":
		if position >= dim[1] {
			return nil, fmt.Errorf("position %d exceeds y extent %d", position, dim[1])
		}
		img = image.NewGray16(image.Rect(0, 0, dim[0], dim[2]))
		for z := 0; z < dim[2]; z++ {
			for x := 0; x < dim[0]; x++ {
				img.SetGray16(x, z, v.gray(v.vol.At(x, position, z)))
			}
		}

	case "z", "Z":
		if position >= dim[2] {
			return nil, fmt.Errorf("position %d exceeds z extent %d", position, dim[2])
		}
		img = image.NewGray16(image.Rect(0, 0, dim[0], dim[1]))
		for y := 0; y < dim[1]; y++ {
			for x := 0; x < dim[0]; x++ {
				img.SetGray16(x, y, v.gray(v.vol.At(x, y, position)))
			}
		}

	default:
		return nil, fmt.Errorf("invalid axis: %s (must be x, y, or z)", axis)
	}

	return img, nil
}

// SaveSlice saves an extracted slice as a JPEG image
func (v *Viewer) SaveSlice(img image.Image, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	return jpeg.Encode(file, img, &jpeg.Options{Quality: 90})
}

// SavePreview saves the central slice along each axis into outputDir,
// named preview_<axis>.jpg. This is the standard QC output after a
// resampling run.
func (v *Viewer) SavePreview(outputDir string) error {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return err
	}
	dim := v.vol.Dim
	centers := map[string]int{"x": dim[0] / 2, "y": dim[1] / 2, "z": dim[2] / 2}
	for axis, pos := range centers {
		img, err := v.ExtractSlice(axis, pos)
		if err != nil {
			return err
		}
		filename := filepath.Join(outputDir, fmt.Sprintf("preview_%s.jpg", axis))
		if err := v.SaveSlice(img, filename); err != nil {
			return err
		}
	}
	return nil
}

package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	log "github.com/sirupsen/logrus"

	"mriresample/pkg/config"
	"mriresample/pkg/interpolation"
	"mriresample/pkg/nifti"
	"mriresample/pkg/resample"
	"mriresample/pkg/visualization"
)

func main() {
	// Parse command line arguments
	magFile := flag.String("mag", "", "Magnitude NIfTI volume")
	phaFile := flag.String("pha", "", "Phase NIfTI volume (radians)")
	maskFile := flag.String("mask", "", "Optional mask/label NIfTI volume")
	threshold := flag.Float64("threshold", 10.0, "Obliquity threshold in degrees below which resampling is skipped (negative disables the gate)")
	outDir := flag.String("out", "", "Output directory (default: next to each input)")
	configFile := flag.String("config", "mriresample.yaml", "YAML configuration file")
	inFile := flag.String("in", "", "Reslice mode: volume to resample onto the grid of -like")
	likeFile := flag.String("like", "", "Reslice mode: reference volume defining the target grid")
	nearest := flag.Bool("nearest", false, "Reslice mode: use nearest-neighbor interpolation (for label data)")
	preview := flag.Bool("preview", false, "Save orthogonal slice previews of the resampled magnitude")
	flag.Parse()

	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.Output.Verbose {
		log.SetLevel(log.DebugLevel)
	}

	// Flags override the configuration file
	if isSet("threshold") {
		if *threshold < 0 {
			cfg.Resampling.ObliquityThreshold = nil
		} else {
			cfg.Resampling.ObliquityThreshold = threshold
		}
	}
	if *outDir != "" {
		cfg.Output.Dir = *outDir
	}
	if *preview {
		cfg.Output.PreviewSlices = true
	}

	// Generic reslice mode: resample one volume onto a reference grid
	if *inFile != "" || *likeFile != "" {
		if *inFile == "" || *likeFile == "" {
			fmt.Fprintln(os.Stderr, "reslice mode requires both -in and -like")
			flag.Usage()
			os.Exit(1)
		}
		mode := interpolation.Continuous
		if *nearest {
			mode = interpolation.Nearest
		}
		outPath, err := resample.LikeFiles(*inFile, *likeFile, mode, cfg.Output.Dir, cfg.Resampling.OutputSuffix)
		if err != nil {
			log.Fatalf("Reslicing failed: %v", err)
		}
		fmt.Printf("Output volume: %s\n", outPath)
		return
	}

	if *magFile == "" || *phaFile == "" {
		flag.Usage()
		os.Exit(1)
	}

	startTime := time.Now()
	run, err := resample.Files(resample.Params{
		MagPath:            *magFile,
		PhaPath:            *phaFile,
		MaskPath:           *maskFile,
		ObliquityThreshold: cfg.Resampling.ObliquityThreshold,
		OutputDir:          cfg.Output.Dir,
		OutputSuffix:       cfg.Resampling.OutputSuffix,
	})
	if err != nil {
		log.Fatalf("Resampling failed: %v", err)
	}

	fmt.Printf("\nCompleted in %.2f seconds\n", time.Since(startTime).Seconds())
	fmt.Printf("Obliquity norm: %.3f degrees\n", run.ObliquityNorm)
	if run.Resampled {
		fmt.Println("Volumes were resampled to an axial grid:")
	} else {
		fmt.Println("Obliquity below threshold; inputs returned unchanged:")
	}
	fmt.Printf("  magnitude: %s\n", run.OutMagPath)
	fmt.Printf("  phase:     %s\n", run.OutPhaPath)
	if run.HasMask() {
		fmt.Printf("  mask:      %s\n", run.OutMaskPath)
	}

	if cfg.Output.PreviewSlices && run.Resampled {
		mag, err := nifti.Load(run.OutMagPath)
		if err != nil {
			log.Fatalf("Failed to reload magnitude for preview: %v", err)
		}
		previewDir := cfg.Output.Dir
		if previewDir == "" {
			previewDir = "."
		}
		viewer := visualization.NewViewer(mag)
		if err := viewer.SavePreview(previewDir); err != nil {
			log.Warnf("Failed to save preview slices: %v", err)
		} else {
			fmt.Printf("Preview slices saved to: %s\n", previewDir)
		}
	}
}

// isSet reports whether a flag was given explicitly on the command line.
func isSet(name string) bool {
	set := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}

package main

import (
	"flag"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"time"

	"volalign/pkg/align"
	"volalign/pkg/config"
	"volalign/pkg/volume"
)

// axisNames labels the spatial axis indices used by align.Rotation.
var axisNames = [3]string{"Z", "Y", "X"}

func main() {
	// Parse command line arguments
	configPath := flag.String("config", "volalign.yaml", "Optional YAML configuration file")
	inputDirs := flag.String("input", "", "Comma-separated directories of 2D slice stacks (first stack drives the angle computation)")
	outputDir := flag.String("output", "", "Directory for aligned slice stacks")
	axisOrder := flag.String("axes", "", "Target axis order: permutation of \"xyz\", major axis first, minor last")
	reshape := flag.Bool("reshape", true, "Grow the output bounding box so no rotated content is clipped")
	format := flag.String("format", "", "Slice format for output stacks: tiff, png or jpeg")
	flag.Parse()

	// Start from the config file (or defaults), then let explicitly
	// set flags override it.
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *inputDirs != "" {
		cfg.IO.InputDir = *inputDirs
	}
	if *outputDir != "" {
		cfg.IO.OutputDir = *outputDir
	}
	if *axisOrder != "" {
		cfg.Alignment.AxisOrder = *axisOrder
	}
	if *format != "" {
		cfg.IO.SliceFormat = *format
	}
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "reshape" {
			cfg.Alignment.Reshape = *reshape
		}
	})

	if cfg.IO.InputDir == "" {
		flag.Usage()
		log.Fatalf("No input directories given")
	}

	fmt.Println("================================")
	fmt.Println("VOLALIGN - PRINCIPAL AXIS ALIGNMENT OF VOLUMETRIC IMAGES")
	fmt.Println("================================")

	// Step 1: Load the slice stacks
	dirs := strings.Split(cfg.IO.InputDir, ",")
	fmt.Printf("Step 1: Loading %d slice stack(s)...\n", len(dirs))
	stacks := make([]*volume.Volume, len(dirs))
	for i, dir := range dirs {
		dir = strings.TrimSpace(dir)
		stack, err := volume.LoadSliceStack(dir)
		if err != nil {
			log.Fatalf("Failed to load stack from %s: %v", dir, err)
		}
		stacks[i] = stack
		if cfg.Output.Verbose {
			fmt.Printf("  %s: volume %v\n", dir, stack.Shape)
		}
	}

	// Step 2: Measure the representative stack
	fmt.Println("Step 2: Measuring principal axes...")
	major, minor, err := align.MajorMinorAxis(stacks[0])
	if err != nil {
		log.Fatalf("Axis extraction failed: %v", err)
	}
	if elong, err := align.Elongation(stacks[0]); err == nil {
		fmt.Printf("  Elongation (major/minor spread): %.3f\n", elong)
	}
	if cfg.Output.Verbose {
		fmt.Printf("  Major axis (x,y,z): [%.3f %.3f %.3f]\n", major[0], major[1], major[2])
		fmt.Printf("  Minor axis (x,y,z): [%.3f %.3f %.3f]\n", minor[0], minor[1], minor[2])
	}

	// Step 3: Solve the rotation for the requested axis order
	fmt.Printf("Step 3: Solving rotation for axis order %q...\n", cfg.Alignment.AxisOrder)
	angles, err := align.AlignAngles(stacks[0], cfg.Alignment.AxisOrder)
	if err != nil {
		log.Fatalf("Angle computation failed: %v", err)
	}
	for _, r := range angles {
		fmt.Printf("  Rotate %7.2f degrees in the %s-%s plane\n", r.Angle, axisNames[r.Axes[0]], axisNames[r.Axes[1]])
	}

	// Step 4: Rotate every stack with the shared angle sequence
	fmt.Println("Step 4: Rotating...")
	startTime := time.Now()
	aligned, err := align.AlignMajorAll(stacks, angles, cfg.Alignment.Reshape)
	if err != nil {
		log.Fatalf("Alignment failed: %v", err)
	}
	fmt.Printf("  Rotated %d stack(s) in %.2f seconds\n", len(aligned), time.Since(startTime).Seconds())

	// Step 5: Save the aligned stacks
	fmt.Println("Step 5: Saving aligned stacks...")
	for i, v := range aligned {
		dir := cfg.IO.OutputDir
		if len(aligned) > 1 {
			dir = filepath.Join(dir, fmt.Sprintf("stack_%02d", i))
		}
		if err := volume.SaveSliceStack(v, dir, cfg.IO.SliceFormat); err != nil {
			log.Fatalf("Failed to save aligned stack %d: %v", i, err)
		}
		if cfg.Output.Verbose {
			fmt.Printf("  %s: volume %v\n", dir, v.Shape)
		}
	}

	if elong, err := align.Elongation(aligned[0]); err == nil {
		fmt.Printf("\nPost-alignment elongation: %.3f\n", elong)
	}
	fmt.Printf("Alignment completed. Output saved to: %s\n", cfg.IO.OutputDir)
}

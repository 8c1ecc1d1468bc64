// Diagnostic tool for inspecting Topcon containers
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/oculab/go-topcon/topcon"
)

func main() {
	verbose := flag.Bool("v", false, "log skipped and inconsistent chunks")
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: fdsinfo [-v] <file.fds|file.fda>")
		os.Exit(1)
	}
	filename := flag.Arg(0)

	opts := []topcon.Option{}
	if *verbose {
		log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
			Level(zerolog.DebugLevel).
			With().Timestamp().Logger()
		opts = append(opts, topcon.WithLogger(log))
	}

	res, err := topcon.DecodeFile(filename, opts...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("=== %s ===\n", filename)
	fmt.Printf("Dialect: %s (v%d.%d)\n", res.Dialect, res.Version.Major, res.Version.Minor)

	for i, v := range res.Volumes {
		fmt.Printf("Volume %d (%s): %dx%d, %d slices, %d bpp",
			i, v.SourceTag, v.Width, v.Height, v.NumSlices(), v.BitsPerPixel)
		if v.VoxelSpacing != nil {
			fmt.Printf(", voxel %v mm", v.VoxelSpacing)
		}
		fmt.Println()
	}
	for i, img := range res.Images {
		fmt.Printf("Image %d (%s): %s %dx%d\n", i, img.SourceTag, img.Kind, img.Width, img.Height)
	}
	for _, c := range res.Contours {
		fmt.Printf("Contour %s: %dx%d\n", c.Layer, c.Width, c.Height)
	}

	if len(res.Parameters) > 0 {
		fmt.Printf("Parameters: %d entries\n", len(res.Parameters))
		for k, v := range res.Parameters {
			fmt.Printf("  %s = %g\n", k, v)
		}
	}
	if res.Patient != nil {
		fmt.Printf("Patient: %s (%s %s)\n", res.Patient.ID, res.Patient.GivenName, res.Patient.Surname)
	}
	if res.Capture != nil {
		fmt.Printf("Capture: eye %s, %s\n", res.Capture.Laterality, res.Capture.AcquisitionDate)
	}
	if res.Hardware != nil {
		fmt.Printf("Scanner: %s s/n %s\n", res.Hardware.ModelName, res.Hardware.SerialNumber)
	}

	for _, w := range res.Warnings {
		fmt.Printf("WARNING %s: %s\n", w.Tag, w.Reason)
	}
}

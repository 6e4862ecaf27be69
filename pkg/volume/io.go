package volume

import (
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/image/tiff"
)

// sliceExts maps the supported on-disk slice formats to their file
// extension.
var sliceExts = map[string]string{
	"tiff": ".tif",
	"png":  ".png",
	"jpeg": ".jpg",
}

// LoadSliceStack loads a directory of grayscale 2-D slice images into a
// rank-3 (Z, Y, X) volume. TIFF, PNG and JPEG slices are accepted and
// ordered by the numeric part of their filenames, so that the sequence
// preserves the anatomical ordering of the stack. Intensities are
// scaled to [0, 1].
func LoadSliceStack(dir string) (*Volume, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read slice directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".tif", ".tiff", ".png", ".jpg", ".jpeg":
			names = append(names, e.Name())
		}
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("no slice images found in %s", dir)
	}

	// Sort by the numbers embedded in the filenames so slice_2 comes
	// before slice_10; ties fall back to lexical order.
	sort.Slice(names, func(i, j int) bool {
		ni, nj := extractNumber(names[i]), extractNumber(names[j])
		if ni != nj {
			return ni < nj
		}
		return names[i] < names[j]
	})

	var vol *Volume
	var width, height int
	for z, name := range names {
		img, err := loadImage(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("failed to load slice %s: %w", name, err)
		}
		b := img.Bounds()
		if vol == nil {
			width, height = b.Dx(), b.Dy()
			vol = New(len(names), height, width)
		} else if b.Dx() != width || b.Dy() != height {
			return nil, fmt.Errorf("slice %s is %dx%d, want %dx%d", name, b.Dx(), b.Dy(), width, height)
		}
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				r, _, _, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
				vol.Data[(z*height+y)*width+x] = float64(r) / 65535.0
			}
		}
	}
	return vol, nil
}

// SaveSliceStack writes a rank-3 volume to dir as a sequence of 16-bit
// grayscale slice images along Z. format is one of "tiff", "png" or
// "jpeg"; intensities are clamped to [0, 1] before quantization.
func SaveSliceStack(v *Volume, dir, format string) error {
	if v == nil || v.Rank() != 3 {
		return fmt.Errorf("slice stack output requires a rank-3 volume")
	}
	ext, ok := sliceExts[format]
	if !ok {
		return fmt.Errorf("unsupported slice format %q", format)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	nz, ny, nx := v.Shape[0], v.Shape[1], v.Shape[2]
	for z := 0; z < nz; z++ {
		img := image.NewGray16(image.Rect(0, 0, nx, ny))
		for y := 0; y < ny; y++ {
			for x := 0; x < nx; x++ {
				val := v.Data[(z*ny+y)*nx+x]
				g := uint16(math.Max(0, math.Min(65535, val*65535+0.5)))
				img.SetGray16(x, y, color.Gray16{Y: g})
			}
		}
		if err := saveImage(filepath.Join(dir, fmt.Sprintf("slice_%03d%s", z, ext)), img, format); err != nil {
			return err
		}
	}
	return nil
}

// extractNumber extracts the numeric part from a filename for ordering.
func extractNumber(filename string) int {
	numStr := ""
	for _, c := range filepath.Base(filename) {
		if c >= '0' && c <= '9' {
			numStr += string(c)
		}
	}
	if numStr != "" {
		if num, err := strconv.Atoi(numStr); err == nil {
			return num
		}
	}
	return 0
}

func loadImage(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, err
	}
	return img, nil
}

func saveImage(path string, img image.Image, format string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create slice file: %w", err)
	}
	defer file.Close()

	switch format {
	case "tiff":
		err = tiff.Encode(file, img, &tiff.Options{Compression: tiff.Deflate})
	case "png":
		err = png.Encode(file, img)
	case "jpeg":
		err = jpeg.Encode(file, img, &jpeg.Options{Quality: 95})
	}
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", filepath.Base(path), err)
	}
	return nil
}

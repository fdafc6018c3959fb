package visualization

import (
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"math"
	"os"
	"path/filepath"

	"gonum.org/v1/gonum/floats"

	"edgedog/internal/models"
)

// Viewer renders 2D planes of a computed volume as grayscale images.
// Values are scaled linearly from the volume minimum (black) to its
// maximum (white), so signed DoG and distance volumes stay readable.
type Viewer struct {
	// volumeData holds one sub-volume
	volumeData []float64

	// geom is the grid of the volume
	geom models.Geometry

	// lo and hi are the display range
	lo, hi float64
}

// NewViewer creates a viewer over data laid out on geom
func NewViewer(data []float64, geom models.Geometry) (*Viewer, error) {
	if len(data) == 0 || len(data) != geom.NVox() {
		return nil, fmt.Errorf("volume has %d samples, grid has %d voxels", len(data), geom.NVox())
	}

	return &Viewer{
		volumeData: data,
		geom:       geom,
		lo:         floats.Min(data),
		hi:         floats.Max(data),
	}, nil
}

// gray maps a voxel value onto the 16-bit display range
func (v *Viewer) gray(value float64) color.Gray16 {
	if v.hi <= v.lo {
		return color.Gray16{Y: 0}
	}
	t := (value - v.lo) / (v.hi - v.lo)
	return color.Gray16{Y: uint16(math.Max(0, math.Min(65535, math.Round(t*65535))))}
}

// ExtractSlice extracts a 2D slice from the volume along the specified axis
func (v *Viewer) ExtractSlice(axis string, position int) (image.Image, error) {
	if position < 0 {
		return nil, fmt.Errorf("position must be non-negative")
	}

	g := v.geom
	var img *image.Gray16

	switch axis {
	case "x", "X":
		// Extract slice along YZ plane
		if position >= g.NX {
			return nil, fmt.Errorf("position %d exceeds width %d", position, g.NX)
		}

		img = image.NewGray16(image.Rect(0, 0, g.NZ, g.NY))
		for y := 0; y < g.NY; y++ {
			for z := 0; z < g.NZ; z++ {
				img.SetGray16(z, y, v.gray(v.volumeData[g.Index(position, y, z)]))
			}
		}

	case "y", "Y":
		// Extract slice along XZ plane
		if position >= g.NY {
			return nil, fmt.Errorf("position %d exceeds height %d", position, g.NY)
		}

		img = image.NewGray16(image.Rect(0, 0, g.NX, g.NZ))
		for z := 0; z < g.NZ; z++ {
			for x := 0; x < g.NX; x++ {
				img.SetGray16(x, z, v.gray(v.volumeData[g.Index(x, position, z)]))
			}
		}

	case "z", "Z":
		// Extract slice along XY plane
		if position >= g.NZ {
			return nil, fmt.Errorf("position %d exceeds depth %d", position, g.NZ)
		}

		img = image.NewGray16(image.Rect(0, 0, g.NX, g.NY))
		for y := 0; y < g.NY; y++ {
			for x := 0; x < g.NX; x++ {
				img.SetGray16(x, y, v.gray(v.volumeData[g.Index(x, y, position)]))
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

// SavePreview writes the central slice along each axis to outputDir as
// <name>_<axis>.jpg and returns the filenames
func (v *Viewer) SavePreview(outputDir, name string) ([]string, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, err
	}

	centres := map[string]int{"x": v.geom.NX / 2, "y": v.geom.NY / 2, "z": v.geom.NZ / 2}

	var files []string
	for _, axis := range []string{"x", "y", "z"} {
		img, err := v.ExtractSlice(axis, centres[axis])
		if err != nil {
			return nil, err
		}

		filename := filepath.Join(outputDir, fmt.Sprintf("%s_%s.jpg", name, axis))
		if err := v.SaveSlice(img, filename); err != nil {
			return nil, err
		}
		files = append(files, filename)
	}

	return files, nil
}

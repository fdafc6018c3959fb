package volumeio

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"

	"edgedog/internal/models"
)

// supportedFormats are the image extensions accepted in a slice directory
var supportedFormats = []string{".jpg", ".jpeg", ".png", ".tif", ".tiff", ".bmp"}

// LoadOptions control how inputs without their own geometry are read
type LoadOptions struct {
	// VoxelSize is the voxel edge length per axis for slice stacks; the
	// z entry is the inter-slice gap
	VoxelSize [3]float64
}

// Load reads a volume. A directory is read as a stack of 2D slices,
// anything else as a dataset prefix.
func Load(path string, opts LoadOptions) (*models.Volume, error) {
	info, err := os.Stat(path)
	if err == nil && info.IsDir() {
		return LoadSliceStack(path, opts.VoxelSize)
	}
	return ReadDataset(path)
}

// LoadSliceStack reads every supported image in dir, sorted by the number
// embedded in its filename, as the z planes of a single sub-volume. Samples
// are 16-bit luminance.
func LoadSliceStack(dir string, voxelSize [3]float64) (*models.Volume, error) {
	slices, err := loadSlices(dir)
	if err != nil {
		return nil, err
	}

	bounds := slices[0].Image.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	geom := models.Geometry{
		NX: width, NY: height, NZ: len(slices),
		DX: voxelSize[0], DY: voxelSize[1], DZ: voxelSize[2],
	}
	if err := geom.Validate(); err != nil {
		return nil, err
	}

	plane := width * height
	data := make(models.Samples[uint16], geom.NVox())
	for z, s := range slices {
		b := s.Image.Bounds()
		if b.Dx() != width || b.Dy() != height {
			return nil, fmt.Errorf("slice %s is %dx%d, expected %dx%d", s.Filename, b.Dx(), b.Dy(), width, height)
		}
		imageToGray16(s.Image, data[z*plane:(z+1)*plane])
	}

	return models.NewVolume(filepath.Base(filepath.Clean(dir)), geom, data)
}

// loadSlices decodes and orders the slice images of dir
func loadSlices(dir string) ([]models.Slice, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var imageFiles []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if isSupportedImageFormat(entry.Name()) {
			imageFiles = append(imageFiles, entry.Name())
		}
	}

	if len(imageFiles) == 0 {
		return nil, fmt.Errorf("no slice images found in %s", dir)
	}

	// Sort by the embedded number so slice_10 follows slice_9
	sort.SliceStable(imageFiles, func(i, j int) bool {
		return extractNumber(imageFiles[i]) < extractNumber(imageFiles[j])
	})

	slices := make([]models.Slice, 0, len(imageFiles))
	for i, filename := range imageFiles {
		img, err := loadImage(filepath.Join(dir, filename))
		if err != nil {
			return nil, fmt.Errorf("failed to load image %s: %w", filename, err)
		}
		slices = append(slices, models.Slice{Image: img, Index: i, Filename: filename})
	}

	return slices, nil
}

func isSupportedImageFormat(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, format := range supportedFormats {
		if ext == format {
			return true
		}
	}
	return false
}

// extractNumber extracts the numeric part from a filename
func extractNumber(filename string) int {
	base := filepath.Base(filename)
	numStr := ""
	for _, c := range base {
		if c >= '0' && c <= '9' {
			numStr += string(c)
		}
	}

	if numStr != "" {
		num, err := strconv.Atoi(numStr)
		if err == nil {
			return num
		}
	}
	return 0
}

// loadImage loads an image from a file
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

// imageToGray16 writes the 16-bit red channel of img, row by row, into dst.
// Grayscale images carry the luminance in every channel.
func imageToGray16(img image.Image, dst []uint16) {
	bounds := img.Bounds()
	width := bounds.Dx()

	for y := 0; y < bounds.Dy(); y++ {
		for x := 0; x < width; x++ {
			r, _, _, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			dst[y*width+x] = uint16(r)
		}
	}
}

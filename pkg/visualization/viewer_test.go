package visualization

import (
	"image"
	"os"
	"path/filepath"
	"testing"

	"edgedog/internal/models"
)

// signedVolume fills a grid with x - y + z, which is negative in places
func signedVolume(geom models.Geometry) []float64 {
	data := make([]float64, geom.NVox())
	for z := 0; z < geom.NZ; z++ {
		for y := 0; y < geom.NY; y++ {
			for x := 0; x < geom.NX; x++ {
				data[geom.Index(x, y, z)] = float64(x - y + z)
			}
		}
	}
	return data
}

func TestNewViewer(t *testing.T) {
	geom := models.Geometry{NX: 6, NY: 5, NZ: 4, DX: 1, DY: 1, DZ: 1}

	viewer, err := NewViewer(signedVolume(geom), geom)
	if err != nil {
		t.Fatalf("NewViewer failed: %v", err)
	}
	if viewer.lo != -4 || viewer.hi != 8 {
		t.Errorf("Expected display range [-4, 8], got [%f, %f]", viewer.lo, viewer.hi)
	}

	if _, err := NewViewer(make([]float64, 3), geom); err == nil {
		t.Error("Expected error for mismatched data length")
	}
}

// TestExtractSlice verifies plane dimensions and the value scaling
func TestExtractSlice(t *testing.T) {
	geom := models.Geometry{NX: 6, NY: 5, NZ: 4, DX: 1, DY: 1, DZ: 1}
	viewer, err := NewViewer(signedVolume(geom), geom)
	if err != nil {
		t.Fatalf("NewViewer failed: %v", err)
	}

	sizes := map[string][2]int{"x": {4, 5}, "y": {6, 4}, "z": {6, 5}}
	for axis, size := range sizes {
		img, err := viewer.ExtractSlice(axis, 0)
		if err != nil {
			t.Fatalf("Failed to extract %s slice: %v", axis, err)
		}
		b := img.Bounds()
		if b.Dx() != size[0] || b.Dy() != size[1] {
			t.Errorf("Axis %s: expected %dx%d, got %dx%d", axis, size[0], size[1], b.Dx(), b.Dy())
		}
	}

	// minimum (x=0, y=4, z=0) is black, maximum (x=5, y=0, z=3) is white
	img, _ := viewer.ExtractSlice("z", 0)
	if g := img.(*image.Gray16).Gray16At(0, 4).Y; g != 0 {
		t.Errorf("Expected black at the minimum, got %d", g)
	}
	img, _ = viewer.ExtractSlice("z", 3)
	if g := img.(*image.Gray16).Gray16At(5, 0).Y; g != 65535 {
		t.Errorf("Expected white at the maximum, got %d", g)
	}

	if _, err := viewer.ExtractSlice("z", 4); err == nil {
		t.Error("Expected error for position past the depth")
	}
	if _, err := viewer.ExtractSlice("w", 0); err == nil {
		t.Error("Expected error for invalid axis")
	}
	if _, err := viewer.ExtractSlice("x", -1); err == nil {
		t.Error("Expected error for negative position")
	}
}

func TestSavePreview(t *testing.T) {
	geom := models.Geometry{NX: 8, NY: 8, NZ: 8, DX: 1, DY: 1, DZ: 1}
	viewer, err := NewViewer(signedVolume(geom), geom)
	if err != nil {
		t.Fatalf("NewViewer failed: %v", err)
	}

	dir := filepath.Join(t.TempDir(), "preview")
	files, err := viewer.SavePreview(dir, "edges")
	if err != nil {
		t.Fatalf("SavePreview failed: %v", err)
	}

	if len(files) != 3 {
		t.Fatalf("Expected 3 preview files, got %d", len(files))
	}
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			t.Errorf("Preview %s not written: %v", f, err)
		}
	}
	if filepath.Base(files[2]) != "edges_z.jpg" {
		t.Errorf("Unexpected preview name %s", files[2])
	}
}

// TestFlatVolume: a constant volume renders black instead of dividing by zero
func TestFlatVolume(t *testing.T) {
	geom := models.Geometry{NX: 2, NY: 2, NZ: 2, DX: 1, DY: 1, DZ: 1}
	data := []float64{3, 3, 3, 3, 3, 3, 3, 3}

	viewer, err := NewViewer(data, geom)
	if err != nil {
		t.Fatalf("NewViewer failed: %v", err)
	}
	img, err := viewer.ExtractSlice("z", 1)
	if err != nil {
		t.Fatalf("ExtractSlice failed: %v", err)
	}
	if g := img.(*image.Gray16).Gray16At(1, 1).Y; g != 0 {
		t.Errorf("Expected 0 for a flat volume, got %d", g)
	}
}

package edgedog

import (
	"testing"
)

// TestResolveSigmasVoxelScale covers voxel-scale mode, including the
// 1.5 x 2.0mm = 3.0mm case
func TestResolveSigmasVoxelScale(t *testing.T) {
	cfg := BlurConfig{
		SigmaRad:  [3]float64{9, 9, 9},
		SigmaNVox: [3]float64{1.5, 1.5, 1.5},
		Ratio:     1.6,
	}
	edges := [3]float64{2.0, 2.0, 2.0}

	inner, outer := ResolveSigmas(cfg, edges)

	for i := 0; i < 3; i++ {
		if inner[i] != 3.0 {
			t.Errorf("Axis %d: expected inner sigma 3.0, got %f", i, inner[i])
		}
		if outer[i] != inner[i]*1.6 {
			t.Errorf("Axis %d: expected outer sigma %f, got %f", i, inner[i]*1.6, outer[i])
		}
	}

	if cfg.Mode() != ModeVoxelScale {
		t.Errorf("Expected voxel-scale mode, got %s", cfg.Mode())
	}
}

// TestResolveSigmasAnisotropic checks that each axis uses its own edge length
func TestResolveSigmasAnisotropic(t *testing.T) {
	cfg := BlurConfig{SigmaNVox: [3]float64{1, 2, 0.5}, Ratio: 2}
	inner, outer := ResolveSigmas(cfg, [3]float64{0.5, 1.0, 4.0})

	want := Sigmas{0.5, 2.0, 2.0}
	if inner != want {
		t.Errorf("Expected inner %v, got %v", want, inner)
	}
	if outer != (Sigmas{1, 4, 4}) {
		t.Errorf("Expected outer {1 4 4}, got %v", outer)
	}
}

// TestResolveSigmasPartialFallsBack verifies that any zero factor selects
// physical mode for every axis
func TestResolveSigmasPartialFallsBack(t *testing.T) {
	partials := [][3]float64{
		{1.5, 1.5, 0},
		{0, 1.5, 1.5},
		{1.5, 0, 0},
	}

	for _, nvox := range partials {
		cfg := BlurConfig{
			SigmaRad:  [3]float64{2.0, 2.5, 3.0},
			SigmaNVox: nvox,
			Ratio:     1.6,
		}

		inner, _ := ResolveSigmas(cfg, [3]float64{7, 7, 7})
		if inner != (Sigmas{2.0, 2.5, 3.0}) {
			t.Errorf("Factors %v: expected physical sigmas, got %v", nvox, inner)
		}
		if cfg.Mode() != ModePhysical {
			t.Errorf("Factors %v: expected physical mode", nvox)
		}
		if !cfg.PartialVoxelScale() {
			t.Errorf("Factors %v: expected partial specification to be reported", nvox)
		}
	}

	plain := BlurConfig{SigmaRad: [3]float64{2, 2, 2}, Ratio: 1.6}
	if plain.PartialVoxelScale() {
		t.Error("No factors set should not be reported as partial")
	}
}

// TestResolveSigmasPhysicalIgnoresEdges checks edges are unused in physical mode
func TestResolveSigmasPhysicalIgnoresEdges(t *testing.T) {
	cfg := DefaultParams().Blur

	a, _ := ResolveSigmas(cfg, [3]float64{})
	b, _ := ResolveSigmas(cfg, [3]float64{3, 4, 5})

	if a != b {
		t.Errorf("Expected identical sigmas, got %v and %v", a, b)
	}
	if a != (Sigmas{2, 2, 2}) {
		t.Errorf("Expected default sigmas {2 2 2}, got %v", a)
	}
}

func TestResolveSigmasIsDeterministic(t *testing.T) {
	cfg := BlurConfig{SigmaNVox: [3]float64{1.1, 1.3, 0.7}, Ratio: 1.6}
	edges := [3]float64{0.9, 1.1, 2.7}

	in1, out1 := ResolveSigmas(cfg, edges)
	in2, out2 := ResolveSigmas(cfg, edges)

	if in1 != in2 || out1 != out2 {
		t.Error("Expected identical results for identical inputs")
	}
}

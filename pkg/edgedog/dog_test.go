package edgedog

import (
	"math"
	"math/rand"
	"testing"

	"edgedog/internal/models"
	"edgedog/pkg/gaussian"
)

func unitGeometry(n int) models.Geometry {
	return models.Geometry{NX: n, NY: n, NZ: n, DX: 1, DY: 1, DZ: 1}
}

// pointSource returns an n^3 volume with a single bright voxel at the centre
func pointSource(n int) models.Samples[float64] {
	data := make(models.Samples[float64], n*n*n)
	c := n / 2
	data[c*n*n+c*n+c] = 1000
	return data
}

// TestDoGConstantVolume: a flat 5.0 volume has zero DoG response everywhere
// and is entirely inside
func TestDoGConstantVolume(t *testing.T) {
	geom := unitGeometry(10)
	data := make(models.Samples[float64], geom.NVox())
	for i := range data {
		data[i] = 5.0
	}

	cfg := DefaultParams().Blur
	inner, outer := ResolveSigmas(cfg, geom.EdgeLengths())

	dog, err := ComputeDoG(data, geom, inner, outer)
	if err != nil {
		t.Fatalf("ComputeDoG failed: %v", err)
	}

	for i, v := range dog {
		if v != 0.0 {
			t.Fatalf("Expected 0.0 at %d, got %g", i, v)
		}
	}

	mask := ThresholdDoG(dog)
	for i, m := range mask {
		if m != 1 {
			t.Fatalf("Expected mask 1 at %d, got %d", i, m)
		}
	}
}

// TestDoGPointSource: positive centre, negative surrounding annulus, ~0 far away
func TestDoGPointSource(t *testing.T) {
	n := 33
	c := n / 2
	geom := unitGeometry(n)

	inner := Sigmas{2.0, 2.0, 2.0}
	outer := Sigmas{3.2, 3.2, 3.2}

	dog, err := ComputeDoG(pointSource(n), geom, inner, outer)
	if err != nil {
		t.Fatalf("ComputeDoG failed: %v", err)
	}

	if v := dog[geom.Index(c, c, c)]; v <= 0 {
		t.Errorf("Expected positive DoG at centre, got %g", v)
	}
	if v := dog[geom.Index(c+3, c, c)]; v <= 0 {
		t.Errorf("Expected positive DoG 3 voxels out, got %g", v)
	}
	for _, off := range []int{6, -6} {
		if v := dog[geom.Index(c+off, c, c)]; v >= 0 {
			t.Errorf("Expected negative DoG at offset %d, got %g", off, v)
		}
		if v := dog[geom.Index(c, c, c+off)]; v >= 0 {
			t.Errorf("Expected negative DoG at z offset %d, got %g", off, v)
		}
	}
	if v := dog[geom.Index(0, 0, 0)]; math.Abs(v) > 1e-9 {
		t.Errorf("Expected ~0 DoG in the corner, got %g", v)
	}

	mask := ThresholdDoG(dog)
	if mask[geom.Index(c, c, c)] != 1 {
		t.Error("Expected centre inside the mask")
	}
	if mask[geom.Index(c+6, c, c)] != 0 {
		t.Error("Expected annulus outside the mask")
	}
}

// TestDoGEqualSigmasIsZero: with ratio 1 both blurs are identical
func TestDoGEqualSigmasIsZero(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	geom := models.Geometry{NX: 8, NY: 9, NZ: 7, DX: 0.9, DY: 1.1, DZ: 2.5}
	data := make(models.Samples[float32], geom.NVox())
	for i := range data {
		data[i] = float32(rng.NormFloat64() * 100)
	}

	cfg := BlurConfig{SigmaRad: [3]float64{2, 2, 2}, Ratio: 1}
	inner, outer := ResolveSigmas(cfg, geom.EdgeLengths())

	dog, err := ComputeDoG(data, geom, inner, outer)
	if err != nil {
		t.Fatalf("ComputeDoG failed: %v", err)
	}
	for i, v := range dog {
		if math.Abs(v) > 1e-12 {
			t.Fatalf("Expected zero DoG at %d, got %g", i, v)
		}
	}
}

// TestDoGMatchesDefinition compares against blurring by hand
func TestDoGMatchesDefinition(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	geom := models.Geometry{NX: 6, NY: 7, NZ: 8, DX: 1, DY: 1.5, DZ: 0.75}
	data := make(models.Samples[float64], geom.NVox())
	for i := range data {
		data[i] = rng.Float64()
	}
	orig := append(models.Samples[float64](nil), data...)

	inner := Sigmas{1.2, 1.4, 1.0}
	outer := Sigmas{1.92, 2.24, 1.6}

	dog, err := ComputeDoG(data, geom, inner, outer)
	if err != nil {
		t.Fatalf("ComputeDoG failed: %v", err)
	}

	a := data.Float64s()
	b := data.Float64s()
	gaussian.BlurVolume3D(a, geom.NX, geom.NY, geom.NZ, geom.DX, geom.DY, geom.DZ, inner[0], inner[1], inner[2])
	gaussian.BlurVolume3D(b, geom.NX, geom.NY, geom.NZ, geom.DX, geom.DY, geom.DZ, outer[0], outer[1], outer[2])

	for i := range dog {
		if dog[i] != a[i]-b[i] {
			t.Fatalf("Voxel %d: expected %g, got %g", i, a[i]-b[i], dog[i])
		}
	}

	for i := range data {
		if data[i] != orig[i] {
			t.Fatalf("Input modified at %d", i)
		}
	}
}

// TestDoGConvertsIntegerInput checks that integer bricks are floatized first
func TestDoGConvertsIntegerInput(t *testing.T) {
	geom := unitGeometry(9)
	ints := make(models.Samples[int16], geom.NVox())
	flts := make(models.Samples[float64], geom.NVox())
	for i := range ints {
		ints[i] = int16((i*37)%200 - 100)
		flts[i] = float64(ints[i])
	}

	inner, outer := Sigmas{1, 1, 1}, Sigmas{1.6, 1.6, 1.6}

	a, err := ComputeDoG(ints, geom, inner, outer)
	if err != nil {
		t.Fatalf("ComputeDoG failed: %v", err)
	}
	b, err := ComputeDoG(flts, geom, inner, outer)
	if err != nil {
		t.Fatalf("ComputeDoG failed: %v", err)
	}

	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("Voxel %d: int16 %g, float64 %g", i, a[i], b[i])
		}
	}
}

func TestDoGRejectsMismatchedBrick(t *testing.T) {
	geom := unitGeometry(4)
	if _, err := ComputeDoG(make(models.Samples[float64], 10), geom, Sigmas{1, 1, 1}, Sigmas{2, 2, 2}); err == nil {
		t.Error("Expected error for brick length mismatch")
	}
}

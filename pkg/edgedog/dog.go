package edgedog

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"edgedog/internal/models"
	"edgedog/pkg/gaussian"
)

// ComputeDoG blurs two independent float64 copies of brick with the inner
// and outer sigmas and returns inner minus outer. The brick is not modified.
func ComputeDoG(brick models.Brick, geom models.Geometry, inner, outer Sigmas) ([]float64, error) {
	if err := geom.Validate(); err != nil {
		return nil, err
	}
	if brick.Len() != geom.NVox() {
		return nil, fmt.Errorf("sub-volume has %d samples, grid has %d voxels", brick.Len(), geom.NVox())
	}

	// Float64s always allocates, so neither copy aliases the input
	imInner := brick.Float64s()
	imOuter := append([]float64(nil), imInner...)

	if err := blur(imInner, geom, inner); err != nil {
		return nil, fmt.Errorf("inner blur: %w", err)
	}
	if err := blur(imOuter, geom, outer); err != nil {
		return nil, fmt.Errorf("outer blur: %w", err)
	}

	dog := make([]float64, geom.NVox())
	floats.SubTo(dog, imInner, imOuter)

	return dog, nil
}

func blur(data []float64, geom models.Geometry, s Sigmas) error {
	return gaussian.BlurVolume3D(data,
		geom.NX, geom.NY, geom.NZ,
		geom.DX, geom.DY, geom.DZ,
		s[0], s[1], s[2])
}

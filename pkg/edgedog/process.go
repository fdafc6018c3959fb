package edgedog

import (
	"fmt"

	"edgedog/internal/models"
)

// Result holds everything computed for one sub-volume
type Result struct {
	// Index is the sub-volume index in the input volume
	Index int

	// Inner and Outer are the sigmas that were applied
	Inner, Outer Sigmas

	// DoG is inner blur minus outer blur
	DoG []float64

	// Mask and Boundary come from the boundary extractor
	Mask     []uint8
	Boundary []float64
}

// ProcessSubVolume runs sigma resolution, DoG filtering and boundary
// extraction on sub-volume ival of vol. It only reads vol and cfg, so
// distinct sub-volumes may be processed concurrently.
func ProcessSubVolume(vol *models.Volume, ival int, cfg BlurConfig, extractor *BoundaryExtractor) (*Result, error) {
	brick, err := vol.Brick(ival)
	if err != nil {
		return nil, err
	}

	inner, outer := ResolveSigmas(cfg, vol.Geometry.EdgeLengths())

	dog, err := ComputeDoG(brick, vol.Geometry, inner, outer)
	if err != nil {
		return nil, fmt.Errorf("dog filter: %w", err)
	}

	bnd, err := extractor.Extract(dog, vol.Geometry)
	if err != nil {
		return nil, fmt.Errorf("boundary extraction: %w", err)
	}

	return &Result{
		Index:    ival,
		Inner:    inner,
		Outer:    outer,
		DoG:      dog,
		Mask:     bnd.Mask,
		Boundary: bnd.Distance,
	}, nil
}

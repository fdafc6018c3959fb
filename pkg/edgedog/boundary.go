package edgedog

import (
	"fmt"

	"edgedog/internal/models"
	"edgedog/pkg/distance"
)

// DistanceTransformer turns sub-volume ival of a region volume into a
// distance volume. distance.Euclidean and distance.KDTree implement it.
type DistanceTransformer interface {
	Transform(src *models.Volume, ival int, opts distance.Options) ([]float64, error)
}

// BoundaryOptions are the distance transform settings used for boundary
// extraction: distances in voxel units, outside voxels negative.
var BoundaryOptions = distance.Options{
	IgnoreVoxelDims:  true,
	ZerosAreNegative: true,
}

// Boundary is the result of boundary extraction for one sub-volume
type Boundary struct {
	// Mask is 1 where the DoG is >= 0 and 0 elsewhere
	Mask []uint8

	// Distance is the distance transform of Mask
	Distance []float64
}

// ThresholdDoG marks voxels with a non-negative DoG as inside
func ThresholdDoG(dog []float64) []uint8 {
	mask := make([]uint8, len(dog))
	for idx, v := range dog {
		if v >= 0.0 {
			mask[idx] = 1
		}
	}
	return mask
}

// BoundaryExtractor thresholds DoG volumes and measures the distance to the
// resulting inside/outside boundary
type BoundaryExtractor struct {
	transformer DistanceTransformer
}

// NewBoundaryExtractor creates an extractor. A nil transformer selects
// distance.Euclidean.
func NewBoundaryExtractor(transformer DistanceTransformer) *BoundaryExtractor {
	if transformer == nil {
		transformer = distance.NewEuclidean()
	}
	return &BoundaryExtractor{transformer: transformer}
}

// Extract thresholds dog and runs the distance transform on the mask
func (b *BoundaryExtractor) Extract(dog []float64, geom models.Geometry) (*Boundary, error) {
	if len(dog) != geom.NVox() {
		return nil, fmt.Errorf("DoG has %d samples, grid has %d voxels", len(dog), geom.NVox())
	}

	mask := ThresholdDoG(dog)

	// single-slot working volume on the DoG grid
	src, err := models.NewVolume("tmp_mask", geom, models.Samples[uint8](mask))
	if err != nil {
		return nil, err
	}

	dist, err := b.transformer.Transform(src, 0, BoundaryOptions)
	if err != nil {
		return nil, fmt.Errorf("distance transform: %w", err)
	}

	return &Boundary{Mask: mask, Distance: dist}, nil
}

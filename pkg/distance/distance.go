// Package distance computes distance transforms of region volumes.
//
// Every voxel of the source sub-volume is classified as region (non-zero)
// or background (zero). A region voxel receives its distance to the nearest
// background voxel; a background voxel receives its distance to the nearest
// region voxel. Distances are measured between voxel centres.
package distance

import (
	"fmt"
	"math"

	"edgedog/internal/models"
)

// Options selects how distances are measured and reported
type Options struct {
	// IgnoreVoxelDims measures distance in voxel units, treating every
	// edge length as 1
	IgnoreVoxelDims bool

	// ZerosAreNegative reports background distances as negative values
	ZerosAreNegative bool

	// ZerosAreZero reports 0 for every background voxel
	ZerosAreZero bool

	// BoundsAreNotZero stops treating the space outside the field of view
	// as background. By default a region voxel on the edge of the grid is
	// one voxel away from background.
	BoundsAreNotZero bool

	// Squared reports squared distances
	Squared bool
}

// spacing returns the per-axis distance weights
func (o Options) spacing(geom models.Geometry) [3]float64 {
	if o.IgnoreVoxelDims {
		return [3]float64{1, 1, 1}
	}
	return geom.EdgeLengths()
}

// regionOf classifies sub-volume ival of src into region and background
func regionOf(src *models.Volume, ival int) ([]bool, error) {
	if src == nil {
		return nil, fmt.Errorf("nil source volume")
	}
	brick, err := src.Brick(ival)
	if err != nil {
		return nil, err
	}

	region := make([]bool, brick.Len())
	for idx := range region {
		region[idx] = brick.At(idx) != 0
	}
	return region, nil
}

// faceDistanceSq returns the squared distance from voxel (x, y, z) to the
// nearest virtual voxel just outside the grid
func faceDistanceSq(x, y, z int, dims [3]int, w [3]float64) float64 {
	c := [3]int{x, y, z}
	best := math.Inf(1)
	for axis := 0; axis < 3; axis++ {
		lo := float64(c[axis]+1) * w[axis]
		hi := float64(dims[axis]-c[axis]) * w[axis]
		best = math.Min(best, math.Min(lo, hi))
	}
	return best * best
}

// assemble turns squared distances to the opposite class into the reported
// output volume
func assemble(region []bool, toBackground, toRegion []float64, geom models.Geometry, opts Options) []float64 {
	dims := geom.Dims()
	w := opts.spacing(geom)
	out := make([]float64, len(region))

	for z := 0; z < dims[2]; z++ {
		for y := 0; y < dims[1]; y++ {
			for x := 0; x < dims[0]; x++ {
				idx := geom.Index(x, y, z)

				var d2 float64
				if region[idx] {
					d2 = toBackground[idx]
					if !opts.BoundsAreNotZero {
						d2 = math.Min(d2, faceDistanceSq(x, y, z, dims, w))
					}
				} else {
					if opts.ZerosAreZero {
						continue
					}
					d2 = toRegion[idx]
				}

				// no voxel of the opposite class anywhere
				if math.IsInf(d2, 1) {
					continue
				}

				d := d2
				if !opts.Squared {
					d = math.Sqrt(d2)
				}
				if !region[idx] && opts.ZerosAreNegative {
					d = -d
				}
				out[idx] = d
			}
		}
	}

	return out
}

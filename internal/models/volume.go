package models

import (
	"fmt"
)

// Geometry describes the voxel grid of a volume
type Geometry struct {
	// NX, NY, NZ are the voxel counts along each axis
	NX, NY, NZ int

	// DX, DY, DZ are the physical voxel edge lengths (typically mm)
	DX, DY, DZ float64
}

// NVox returns the number of voxels in the grid
func (g Geometry) NVox() int {
	return g.NX * g.NY * g.NZ
}

// EdgeLengths returns the voxel edge lengths as an array indexed by axis
func (g Geometry) EdgeLengths() [3]float64 {
	return [3]float64{g.DX, g.DY, g.DZ}
}

// Dims returns the voxel counts as an array indexed by axis
func (g Geometry) Dims() [3]int {
	return [3]int{g.NX, g.NY, g.NZ}
}

// Index returns the linear index of voxel (x, y, z) in z-major order
func (g Geometry) Index(x, y, z int) int {
	return z*g.NX*g.NY + y*g.NX + x
}

// Validate checks that all counts and edge lengths are positive
func (g Geometry) Validate() error {
	if g.NX <= 0 || g.NY <= 0 || g.NZ <= 0 {
		return fmt.Errorf("invalid grid dimensions %dx%dx%d", g.NX, g.NY, g.NZ)
	}
	if g.DX <= 0 || g.DY <= 0 || g.DZ <= 0 {
		return fmt.Errorf("invalid voxel size %gx%gx%g", g.DX, g.DY, g.DZ)
	}
	return nil
}

// Volume is a dataset on a single grid holding one or more sub-volumes
// (time points or channels), each stored as a Brick
type Volume struct {
	// Name is the dataset prefix the volume was read from or will be written to
	Name string

	// Geometry is shared by every sub-volume
	Geometry Geometry

	// Bricks holds the sub-volumes in index order
	Bricks []Brick
}

// NewVolume creates a volume and checks every brick against the geometry
func NewVolume(name string, geom Geometry, bricks ...Brick) (*Volume, error) {
	if err := geom.Validate(); err != nil {
		return nil, err
	}
	nvox := geom.NVox()
	for i, b := range bricks {
		if b.Len() != nvox {
			return nil, fmt.Errorf("sub-volume %d has %d samples, grid has %d voxels", i, b.Len(), nvox)
		}
	}
	return &Volume{
		Name:     name,
		Geometry: geom,
		Bricks:   bricks,
	}, nil
}

// NVals returns the number of sub-volumes
func (v *Volume) NVals() int {
	return len(v.Bricks)
}

// Brick returns sub-volume ival
func (v *Volume) Brick(ival int) (Brick, error) {
	if ival < 0 || ival >= len(v.Bricks) {
		return nil, fmt.Errorf("sub-volume index %d out of range [0,%d)", ival, len(v.Bricks))
	}
	return v.Bricks[ival], nil
}

// Value returns the value of voxel idx in sub-volume ival as float64
func (v *Volume) Value(idx, ival int) float64 {
	return v.Bricks[ival].At(idx)
}

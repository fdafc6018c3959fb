package edgedog

// Sigmas holds one Gaussian sigma per axis (x, y, z) in physical units
type Sigmas [3]float64

// SigmaMode tells how BlurConfig values are turned into sigmas
type SigmaMode int

const (
	// ModePhysical uses SigmaRad directly
	ModePhysical SigmaMode = iota

	// ModeVoxelScale multiplies SigmaNVox by the voxel edge lengths
	ModeVoxelScale
)

func (m SigmaMode) String() string {
	if m == ModeVoxelScale {
		return "voxel-scale"
	}
	return "physical"
}

// BlurConfig selects the inner and outer Gaussian blurs
type BlurConfig struct {
	// SigmaRad is the inner sigma per axis in physical units (mm)
	SigmaRad [3]float64

	// SigmaNVox scales the voxel edge lengths to get the inner sigma.
	// It only takes effect when all three factors are non-zero.
	SigmaNVox [3]float64

	// Ratio is outer sigma / inner sigma, shared by all axes.
	// The edge model expects Ratio > 1.
	Ratio float64
}

// Mode reports which sigma mode the configuration resolves to.
// Voxel-scale mode needs every factor non-zero; anything less falls back to
// physical mode as a whole.
func (c BlurConfig) Mode() SigmaMode {
	if c.SigmaNVox[0] != 0 && c.SigmaNVox[1] != 0 && c.SigmaNVox[2] != 0 {
		return ModeVoxelScale
	}
	return ModePhysical
}

// PartialVoxelScale reports whether some, but not all, voxel scale factors
// are set. Such a configuration silently resolves to physical mode.
func (c BlurConfig) PartialVoxelScale() bool {
	if c.Mode() == ModeVoxelScale {
		return false
	}
	for _, f := range c.SigmaNVox {
		if f != 0 {
			return true
		}
	}
	return false
}

// ResolveSigmas derives the inner and outer sigmas. edges are the voxel edge
// lengths and are only read in voxel-scale mode.
func ResolveSigmas(cfg BlurConfig, edges [3]float64) (inner, outer Sigmas) {
	switch cfg.Mode() {
	case ModeVoxelScale:
		for i := 0; i < 3; i++ {
			inner[i] = cfg.SigmaNVox[i] * edges[i]
		}
	default:
		inner = cfg.SigmaRad
	}

	for i := 0; i < 3; i++ {
		outer[i] = inner[i] * cfg.Ratio
	}

	return inner, outer
}

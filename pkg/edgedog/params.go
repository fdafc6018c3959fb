// Package edgedog computes Difference-of-Gaussians edge maps of 3D volumes.
//
// Each sub-volume is blurred twice with anisotropic Gaussians whose sigmas
// differ by a constant ratio, the wider blur is subtracted from the narrower
// one, and the sign of the difference splits the volume into inside (>= 0)
// and outside (< 0). The resulting mask is passed to a distance transform
// that produces the final boundary map.
package edgedog

import (
	"strings"
)

const (
	// DefaultRatio is the outer/inner sigma ratio of the Marr-Hildreth model
	DefaultRatio = 1.6

	// DefaultSigma is the inner sigma in mm, on the order of adult human
	// grey matter thickness
	DefaultSigma = 2.0

	// DefaultDoGPrefix names the DoG dataset when no output prefix is known
	DefaultDoGPrefix = "tmp_dog"

	// DoGSuffix is inserted before the extension of the output prefix
	DoGSuffix = "_DOG"

	// MaskSuffix names the thresholded mask dataset
	MaskSuffix = "_MASK"
)

// KnownExtensions are the filename extensions a prefix may end with.
// Longer entries come first so ".nii.gz" wins over ".gz".
var KnownExtensions = []string{".nii.gz", ".nii", ".yaml", ".raw", ".edv"}

// Params aggregates the blur configuration and the output naming
type Params struct {
	Blur BlurConfig

	// Prefix names the boundary output dataset
	Prefix string

	// DoGPrefix names the DoG output dataset. Use WithDerivedNames to fill it.
	DoGPrefix string

	// MaskPrefix names the thresholded mask dataset
	MaskPrefix string

	// OutputDoG also writes the DoG volume
	OutputDoG bool

	// OutputMask also writes the thresholded mask volume
	OutputMask bool
}

// DefaultParams returns the default blur configuration and naming
func DefaultParams() Params {
	return Params{
		Blur: BlurConfig{
			SigmaRad: [3]float64{DefaultSigma, DefaultSigma, DefaultSigma},
			Ratio:    DefaultRatio,
		},
		DoGPrefix: DefaultDoGPrefix,
	}
}

// WithDerivedNames returns a copy of p whose DoG and mask prefixes are
// derived from Prefix. Without a prefix the DoG name stays the default.
func (p Params) WithDerivedNames() Params {
	if p.Prefix == "" {
		p.DoGPrefix = DefaultDoGPrefix
		p.MaskPrefix = ""
		return p
	}
	p.DoGPrefix = DerivePrefix(p.Prefix, DoGSuffix)
	p.MaskPrefix = DerivePrefix(p.Prefix, MaskSuffix)
	return p
}

// DerivePrefix inserts suffix immediately before a known extension of
// prefix, or appends it when there is none: "foo.nii" -> "foo_DOG.nii".
func DerivePrefix(prefix, suffix string) string {
	ext := KnownExtension(prefix)
	return strings.TrimSuffix(prefix, ext) + suffix + ext
}

// KnownExtension returns the known extension prefix ends with, or ""
func KnownExtension(prefix string) string {
	for _, ext := range KnownExtensions {
		if strings.HasSuffix(prefix, ext) && len(prefix) > len(ext) {
			return ext
		}
	}
	return ""
}

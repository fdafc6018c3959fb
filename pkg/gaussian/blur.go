// Package gaussian provides a separable, anisotropic Gaussian blur for 3D
// volumes stored as flat z-major float64 arrays.
//
// Sigmas are expressed in the same physical units as the voxel edge lengths,
// so a volume with non-cubic voxels is blurred by the same physical amount
// along every axis.
package gaussian

import (
	"fmt"
	"math"
)

// Truncate is the kernel half-width in units of sigma
const Truncate = 4.0

// minSigmaVox is the smallest per-axis sigma, in voxels, that still blurs.
// Below it the kernel is a delta and the axis is skipped.
const minSigmaVox = 0.01

// Kernel returns a normalized, symmetric 1D Gaussian kernel for a sigma
// given in voxel units. The kernel has length 2*m+1 where m is the half-width.
func Kernel(sigmaVox float64) []float64 {
	if sigmaVox < minSigmaVox {
		return []float64{1}
	}

	m := int(math.Ceil(Truncate * sigmaVox))
	kernel := make([]float64, 2*m+1)

	sum := 0.0
	for k := -m; k <= m; k++ {
		w := math.Exp(-float64(k*k) / (2 * sigmaVox * sigmaVox))
		kernel[k+m] = w
		sum += w
	}
	for i := range kernel {
		kernel[i] /= sum
	}

	return kernel
}

// BlurVolume3D blurs data in place. nx, ny, nz are the grid dimensions,
// dx, dy, dz the voxel edge lengths and sx, sy, sz the Gaussian sigmas,
// all in physical units. A zero sigma leaves that axis untouched.
func BlurVolume3D(data []float64, nx, ny, nz int, dx, dy, dz float64, sx, sy, sz float64) error {
	if nx <= 0 || ny <= 0 || nz <= 0 {
		return fmt.Errorf("invalid grid dimensions %dx%dx%d", nx, ny, nz)
	}
	if len(data) != nx*ny*nz {
		return fmt.Errorf("data has %d samples, grid has %d voxels", len(data), nx*ny*nz)
	}
	if dx <= 0 || dy <= 0 || dz <= 0 {
		return fmt.Errorf("invalid voxel size %gx%gx%g", dx, dy, dz)
	}
	if sx < 0 || sy < 0 || sz < 0 {
		return fmt.Errorf("negative sigma %g,%g,%g", sx, sy, sz)
	}

	dims := [3]int{nx, ny, nz}
	edges := [3]float64{dx, dy, dz}
	sigmas := [3]float64{sx, sy, sz}

	for axis := 0; axis < 3; axis++ {
		kernel := Kernel(sigmas[axis] / edges[axis])
		if len(kernel) == 1 {
			continue
		}
		blurAxis(data, dims, axis, kernel)
	}

	return nil
}

// blurAxis convolves every line of the volume running along axis
func blurAxis(data []float64, dims [3]int, axis int, kernel []float64) {
	strides := [3]int{1, dims[0], dims[0] * dims[1]}

	// the two axes that enumerate the lines
	a, b := (axis+1)%3, (axis+2)%3

	n := dims[axis]
	stride := strides[axis]
	line := make([]float64, n)
	out := make([]float64, n)

	for i := 0; i < dims[a]; i++ {
		for j := 0; j < dims[b]; j++ {
			base := i*strides[a] + j*strides[b]

			for q := 0; q < n; q++ {
				line[q] = data[base+q*stride]
			}

			convolve(line, out, kernel)

			for q := 0; q < n; q++ {
				data[base+q*stride] = out[q]
			}
		}
	}
}

// convolve filters line into out with edge samples replicated past both
// ends. Accumulating offsets from the centre sample keeps flat regions
// bit-exact.
func convolve(line, out, kernel []float64) {
	n := len(line)
	m := len(kernel) / 2

	for q := 0; q < n; q++ {
		c := line[q]
		acc := 0.0
		for k := -m; k <= m; k++ {
			p := q + k
			if p < 0 {
				p = 0
			} else if p >= n {
				p = n - 1
			}
			acc += kernel[k+m] * (line[p] - c)
		}
		out[q] = c + acc
	}
}

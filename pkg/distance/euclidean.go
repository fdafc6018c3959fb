package distance

import (
	"math"

	"edgedog/internal/models"
)

// Euclidean computes exact Euclidean distance transforms with the separable
// lower-envelope algorithm of Felzenszwalb and Huttenlocher, one 1D pass per
// axis.
type Euclidean struct{}

// NewEuclidean creates a Euclidean distance transform
func NewEuclidean() *Euclidean {
	return &Euclidean{}
}

// Transform computes the distance volume of sub-volume ival of src
func (e *Euclidean) Transform(src *models.Volume, ival int, opts Options) ([]float64, error) {
	region, err := regionOf(src, ival)
	if err != nil {
		return nil, err
	}

	geom := src.Geometry
	w := opts.spacing(geom)

	toBackground := squaredEDT(region, false, geom.Dims(), w)
	toRegion := squaredEDT(region, true, geom.Dims(), w)

	return assemble(region, toBackground, toRegion, geom, opts), nil
}

// squaredEDT returns, for every voxel, the squared distance to the nearest
// voxel whose class equals target
func squaredEDT(region []bool, target bool, dims [3]int, w [3]float64) []float64 {
	f := make([]float64, len(region))
	for i, r := range region {
		if r == target {
			f[i] = 0
		} else {
			f[i] = math.Inf(1)
		}
	}

	strides := [3]int{1, dims[0], dims[0] * dims[1]}
	maxN := max(dims[0], dims[1], dims[2])
	line := make([]float64, maxN)
	out := make([]float64, maxN)
	v := make([]int, maxN)
	zs := make([]float64, maxN+1)

	for axis := 0; axis < 3; axis++ {
		a, b := (axis+1)%3, (axis+2)%3
		n := dims[axis]
		stride := strides[axis]

		for i := 0; i < dims[a]; i++ {
			for j := 0; j < dims[b]; j++ {
				base := i*strides[a] + j*strides[b]
				for q := 0; q < n; q++ {
					line[q] = f[base+q*stride]
				}
				envelope(line[:n], out[:n], w[axis], v, zs)
				for q := 0; q < n; q++ {
					f[base+q*stride] = out[q]
				}
			}
		}
	}

	return f
}

// envelope computes d[q] = min_p (w*(q-p))^2 + f[p] over the lower envelope
// of parabolas rooted at the finite samples of f
func envelope(f, d []float64, w float64, v []int, z []float64) {
	n := len(f)
	w2 := w * w
	k := -1

	for q := 0; q < n; q++ {
		if math.IsInf(f[q], 1) {
			continue
		}
		if k < 0 {
			k = 0
			v[0] = q
			z[0] = math.Inf(-1)
			z[1] = math.Inf(1)
			continue
		}

		var s float64
		for {
			p := v[k]
			s = ((f[q] + w2*float64(q*q)) - (f[p] + w2*float64(p*p))) / (2 * w2 * float64(q-p))
			if s <= z[k] {
				k--
				continue
			}
			break
		}
		k++
		v[k] = q
		z[k] = s
		z[k+1] = math.Inf(1)
	}

	if k < 0 {
		for q := range d {
			d[q] = math.Inf(1)
		}
		return
	}

	k = 0
	for q := 0; q < n; q++ {
		for z[k+1] < float64(q) {
			k++
		}
		dq := float64(q - v[k])
		d[q] = w2*dq*dq + f[v[k]]
	}
}

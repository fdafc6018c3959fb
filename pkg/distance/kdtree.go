package distance

import (
	"math"

	"gonum.org/v1/gonum/spatial/kdtree"

	"edgedog/internal/models"
)

// Point3D is a voxel centre in distance units
type Point3D struct {
	X, Y, Z float64
}

// Compare implements the kdtree.Comparable interface
func (p Point3D) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	q := c.(Point3D)
	switch d {
	case 0:
		return p.X - q.X
	case 1:
		return p.Y - q.Y
	case 2:
		return p.Z - q.Z
	default:
		panic("illegal dimension")
	}
}

// Dims returns the number of dimensions for the KD-tree
func (p Point3D) Dims() int { return 3 }

// Distance returns the squared Euclidean distance between two points
func (p Point3D) Distance(c kdtree.Comparable) float64 {
	q := c.(Point3D)
	dx := p.X - q.X
	dy := p.Y - q.Y
	dz := p.Z - q.Z
	return dx*dx + dy*dy + dz*dz
}

// Points3D is a collection of Point3D that satisfies kdtree.Interface
type Points3D []Point3D

func (p Points3D) Index(i int) kdtree.Comparable         { return p[i] }
func (p Points3D) Len() int                              { return len(p) }
func (p Points3D) Slice(start, end int) kdtree.Interface { return p[start:end] }

// Pivot implements the kdtree.Interface method
func (p Points3D) Pivot(d kdtree.Dim) int {
	return kdtree.Partition(pointPlane{Points3D: p, Dim: d}, kdtree.MedianOfRandoms(pointPlane{Points3D: p, Dim: d}, 100))
}

// pointPlane implements sort.Interface and kdtree.SortSlicer for Points3D
type pointPlane struct {
	Points3D
	kdtree.Dim
}

func (p pointPlane) Less(i, j int) bool {
	switch p.Dim {
	case 0:
		return p.Points3D[i].X < p.Points3D[j].X
	case 1:
		return p.Points3D[i].Y < p.Points3D[j].Y
	case 2:
		return p.Points3D[i].Z < p.Points3D[j].Z
	default:
		panic("illegal dimension")
	}
}

func (p pointPlane) Slice(start, end int) kdtree.SortSlicer {
	return pointPlane{Points3D: p.Points3D[start:end], Dim: p.Dim}
}

func (p pointPlane) Swap(i, j int) {
	p.Points3D[i], p.Points3D[j] = p.Points3D[j], p.Points3D[i]
}

// KDTree computes distance transforms by querying a KD-tree of the voxels of
// each class for the nearest neighbour. It is slower than Euclidean on dense
// grids but makes no assumption about separability, so it serves as an
// independent cross-check.
type KDTree struct{}

// NewKDTree creates a KD-tree distance transform
func NewKDTree() *KDTree {
	return &KDTree{}
}

// Transform computes the distance volume of sub-volume ival of src
func (t *KDTree) Transform(src *models.Volume, ival int, opts Options) ([]float64, error) {
	region, err := regionOf(src, ival)
	if err != nil {
		return nil, err
	}

	geom := src.Geometry
	w := opts.spacing(geom)

	var regionPts, backgroundPts Points3D
	for z := 0; z < geom.NZ; z++ {
		for y := 0; y < geom.NY; y++ {
			for x := 0; x < geom.NX; x++ {
				p := Point3D{X: float64(x) * w[0], Y: float64(y) * w[1], Z: float64(z) * w[2]}
				if region[geom.Index(x, y, z)] {
					regionPts = append(regionPts, p)
				} else {
					backgroundPts = append(backgroundPts, p)
				}
			}
		}
	}

	toBackground := nearestSq(backgroundPts, region, true, geom, w)
	toRegion := nearestSq(regionPts, region, false, geom, w)

	return assemble(region, toBackground, toRegion, geom, opts), nil
}

// nearestSq returns the squared distance from every voxel whose class is
// query to the nearest point of features. Other voxels are left at +Inf.
func nearestSq(features Points3D, region []bool, query bool, geom models.Geometry, w [3]float64) []float64 {
	out := make([]float64, len(region))
	for i := range out {
		out[i] = math.Inf(1)
	}
	if len(features) == 0 {
		return out
	}

	tree := kdtree.New(features, false)

	for z := 0; z < geom.NZ; z++ {
		for y := 0; y < geom.NY; y++ {
			for x := 0; x < geom.NX; x++ {
				idx := geom.Index(x, y, z)
				if region[idx] != query {
					continue
				}
				q := Point3D{X: float64(x) * w[0], Y: float64(y) * w[1], Z: float64(z) * w[2]}
				_, d2 := tree.Nearest(q)
				out[idx] = d2
			}
		}
	}

	return out
}

package models

// Datum names the storage type of a brick
type Datum string

const (
	DatumUint8   Datum = "uint8"
	DatumInt16   Datum = "int16"
	DatumUint16  Datum = "uint16"
	DatumFloat32 Datum = "float32"
	DatumFloat64 Datum = "float64"
)

// Sample is the set of numeric types a brick can store
type Sample interface {
	~uint8 | ~int16 | ~uint16 | ~float32 | ~float64
}

// Brick is the storage of a single sub-volume
type Brick interface {
	// Len returns the number of samples
	Len() int

	// Datum returns the storage type
	Datum() Datum

	// At returns sample idx as float64
	At(idx int) float64

	// Float64s returns a newly allocated float64 copy of the samples.
	// The result never aliases the brick's storage.
	Float64s() []float64
}

// Samples is a Brick backed by a plain Go slice
type Samples[T Sample] []T

func (s Samples[T]) Len() int { return len(s) }

func (s Samples[T]) At(idx int) float64 { return float64(s[idx]) }

func (s Samples[T]) Datum() Datum {
	var zero T
	switch any(zero).(type) {
	case uint8:
		return DatumUint8
	case int16:
		return DatumInt16
	case uint16:
		return DatumUint16
	case float32:
		return DatumFloat32
	default:
		return DatumFloat64
	}
}

func (s Samples[T]) Float64s() []float64 {
	out := make([]float64, len(s))
	for i, v := range s {
		out[i] = float64(v)
	}
	return out
}

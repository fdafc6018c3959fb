// Package volumeio reads and writes volumes.
//
// A dataset is stored as two files sharing a stem: "<stem>.yaml" holds the
// header (geometry, datum, per sub-volume statistics, history) and
// "<stem>.raw" holds the samples, sub-volume after sub-volume, little-endian.
// A directory of 2D images can also be read as a single sub-volume stack.
package volumeio

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gopkg.in/yaml.v3"

	"edgedog/internal/models"
)

const (
	headerExt = ".yaml"
	dataExt   = ".raw"
)

// ErrExists is returned when a destination dataset exists and overwriting
// is not allowed
var ErrExists = errors.New("dataset already exists")

// Header is the on-disk description of a dataset
type Header struct {
	Name       string       `yaml:"name"`
	Geometry   GeometryInfo `yaml:"geometry"`
	Datum      models.Datum `yaml:"datum"`
	NVals      int          `yaml:"nvals"`
	Statistics []BrickStats `yaml:"statistics,omitempty"`
	History    []string     `yaml:"history,omitempty"`
}

// GeometryInfo is the YAML form of models.Geometry
type GeometryInfo struct {
	NX int     `yaml:"nx"`
	NY int     `yaml:"ny"`
	NZ int     `yaml:"nz"`
	DX float64 `yaml:"dx"`
	DY float64 `yaml:"dy"`
	DZ float64 `yaml:"dz"`
}

// BrickStats are the value range of one sub-volume
type BrickStats struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

func geometryInfo(g models.Geometry) GeometryInfo {
	return GeometryInfo{NX: g.NX, NY: g.NY, NZ: g.NZ, DX: g.DX, DY: g.DY, DZ: g.DZ}
}

func (g GeometryInfo) geometry() models.Geometry {
	return models.Geometry{NX: g.NX, NY: g.NY, NZ: g.NZ, DX: g.DX, DY: g.DY, DZ: g.DZ}
}

// Stem strips a dataset extension (.yaml, .raw, .edv) from prefix
func Stem(prefix string) string {
	for _, ext := range []string{headerExt, dataExt, ".edv"} {
		if strings.HasSuffix(prefix, ext) && len(prefix) > len(ext) {
			return strings.TrimSuffix(prefix, ext)
		}
	}
	return prefix
}

// HeaderPath returns the header filename of the dataset named prefix
func HeaderPath(prefix string) string {
	return Stem(prefix) + headerExt
}

// DataPath returns the sample filename of the dataset named prefix
func DataPath(prefix string) string {
	return Stem(prefix) + dataExt
}

// Exists reports whether a dataset named prefix is on disk
func Exists(prefix string) bool {
	_, err := os.Stat(HeaderPath(prefix))
	return err == nil
}

// ReadHeader loads the header of the dataset named prefix
func ReadHeader(prefix string) (*Header, error) {
	data, err := os.ReadFile(HeaderPath(prefix))
	if err != nil {
		return nil, fmt.Errorf("error reading dataset header: %w", err)
	}

	var hdr Header
	if err := yaml.Unmarshal(data, &hdr); err != nil {
		return nil, fmt.Errorf("error parsing dataset header: %w", err)
	}
	return &hdr, nil
}

// ReadDataset loads the dataset named prefix
func ReadDataset(prefix string) (*models.Volume, error) {
	hdr, err := ReadHeader(prefix)
	if err != nil {
		return nil, err
	}

	geom := hdr.Geometry.geometry()
	if err := geom.Validate(); err != nil {
		return nil, fmt.Errorf("dataset %s: %w", prefix, err)
	}
	if hdr.NVals < 1 {
		return nil, fmt.Errorf("dataset %s: no sub-volumes", prefix)
	}

	file, err := os.Open(DataPath(prefix))
	if err != nil {
		return nil, fmt.Errorf("error opening dataset samples: %w", err)
	}
	defer file.Close()

	r := bufio.NewReader(file)
	bricks := make([]models.Brick, hdr.NVals)
	for i := range bricks {
		b, err := readBrick(r, hdr.Datum, geom.NVox())
		if err != nil {
			return nil, fmt.Errorf("dataset %s sub-volume %d: %w", prefix, i, err)
		}
		bricks[i] = b
	}

	return models.NewVolume(Stem(prefix), geom, bricks...)
}

func readBrick(r io.Reader, datum models.Datum, nvox int) (models.Brick, error) {
	switch datum {
	case models.DatumUint8:
		b := make(models.Samples[uint8], nvox)
		return b, binary.Read(r, binary.LittleEndian, []uint8(b))
	case models.DatumInt16:
		b := make(models.Samples[int16], nvox)
		return b, binary.Read(r, binary.LittleEndian, []int16(b))
	case models.DatumUint16:
		b := make(models.Samples[uint16], nvox)
		return b, binary.Read(r, binary.LittleEndian, []uint16(b))
	case models.DatumFloat32:
		b := make(models.Samples[float32], nvox)
		return b, binary.Read(r, binary.LittleEndian, []float32(b))
	case models.DatumFloat64:
		b := make(models.Samples[float64], nvox)
		return b, binary.Read(r, binary.LittleEndian, []float64(b))
	default:
		return nil, fmt.Errorf("unsupported datum %q", datum)
	}
}

// writeBrick encodes b as datum
func writeBrick(w io.Writer, b models.Brick, datum models.Datum) error {
	n := b.Len()
	switch datum {
	case models.DatumUint8:
		out := make([]uint8, n)
		for i := range out {
			out[i] = uint8(b.At(i))
		}
		return binary.Write(w, binary.LittleEndian, out)
	case models.DatumInt16:
		out := make([]int16, n)
		for i := range out {
			out[i] = int16(b.At(i))
		}
		return binary.Write(w, binary.LittleEndian, out)
	case models.DatumUint16:
		out := make([]uint16, n)
		for i := range out {
			out[i] = uint16(b.At(i))
		}
		return binary.Write(w, binary.LittleEndian, out)
	case models.DatumFloat32:
		out := make([]float32, n)
		for i := range out {
			out[i] = float32(b.At(i))
		}
		return binary.Write(w, binary.LittleEndian, out)
	case models.DatumFloat64:
		return binary.Write(w, binary.LittleEndian, b.Float64s())
	default:
		return fmt.Errorf("unsupported datum %q", datum)
	}
}

// brickStats computes the value range of every sub-volume
func brickStats(vol *models.Volume) []BrickStats {
	stats := make([]BrickStats, vol.NVals())
	for i, b := range vol.Bricks {
		if b.Len() == 0 {
			continue
		}
		data := b.Float64s()
		stats[i] = BrickStats{Min: floats.Min(data), Max: floats.Max(data)}
	}
	return stats
}

// writeDataset writes header and samples of vol under prefix
func writeDataset(prefix string, vol *models.Volume, history []string) error {
	if vol.NVals() == 0 {
		return fmt.Errorf("dataset %s has no sub-volumes", prefix)
	}

	// Create directory if it doesn't exist
	if dir := filepath.Dir(prefix); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("error creating dataset directory: %w", err)
		}
	}

	datum := vol.Bricks[0].Datum()

	file, err := os.Create(DataPath(prefix))
	if err != nil {
		return fmt.Errorf("error creating dataset samples: %w", err)
	}
	w := bufio.NewWriter(file)
	for i, b := range vol.Bricks {
		if err := writeBrick(w, b, datum); err != nil {
			file.Close()
			return fmt.Errorf("error writing sub-volume %d: %w", i, err)
		}
	}
	if err := w.Flush(); err != nil {
		file.Close()
		return fmt.Errorf("error writing dataset samples: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("error closing dataset samples: %w", err)
	}

	hdr := Header{
		Name:       filepath.Base(Stem(prefix)),
		Geometry:   geometryInfo(vol.Geometry),
		Datum:      datum,
		NVals:      vol.NVals(),
		Statistics: brickStats(vol),
		History:    history,
	}
	data, err := yaml.Marshal(&hdr)
	if err != nil {
		return fmt.Errorf("error marshaling dataset header: %w", err)
	}
	if err := os.WriteFile(HeaderPath(prefix), data, 0644); err != nil {
		return fmt.Errorf("error writing dataset header: %w", err)
	}

	return nil
}

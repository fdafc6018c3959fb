// Package config provides configuration loading and management for edgedog.
// It handles loading configuration from YAML or TOML files and provides default values.
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"edgedog/pkg/edgedog"
)

// Distance transform implementations selectable in the configuration
const (
	DistanceEuclidean = "euclidean"
	DistanceKDTree    = "kdtree"
)

// Config represents the application configuration loaded from YAML or TOML
type Config struct {
	// Blur parameters
	Blur struct {
		// SigmaRad is the inner Gaussian sigma per axis in mm
		SigmaRad []float64 `yaml:"sigmaRad" toml:"sigma_rad"`

		// SigmaNVox scales voxel edge lengths to get the inner sigma; used
		// only when all three entries are non-zero
		SigmaNVox []float64 `yaml:"sigmaNVox" toml:"sigma_nvox"`

		// Ratio is outer sigma / inner sigma
		Ratio float64 `yaml:"ratio" toml:"ratio"`
	} `yaml:"blur" toml:"blur"`

	// Processing parameters
	Processing struct {
		// NumCores specifies how many sub-volumes are processed concurrently
		NumCores int `yaml:"numCores" toml:"num_cores"`

		// DistanceMethod selects the distance transform: euclidean or kdtree
		DistanceMethod string `yaml:"distanceMethod" toml:"distance_method"`
	} `yaml:"processing" toml:"processing"`

	// Input parameters
	Input struct {
		// VoxelSize is the voxel edge length per axis for slice-stack inputs
		VoxelSize []float64 `yaml:"voxelSize" toml:"voxel_size"`

		// Mask optionally names an ROI dataset; boundary output outside it is zeroed
		Mask string `yaml:"mask" toml:"mask"`
	} `yaml:"input" toml:"input"`

	// Output parameters
	Output struct {
		// Prefix names the boundary dataset
		Prefix string `yaml:"prefix" toml:"prefix"`

		// OutputDoG also writes the DoG dataset
		OutputDoG bool `yaml:"outputDoG" toml:"output_dog"`

		// OutputMask also writes the thresholded mask dataset
		OutputMask bool `yaml:"outputMask" toml:"output_mask"`

		// Overwrite allows replacing existing datasets
		Overwrite bool `yaml:"overwrite" toml:"overwrite"`

		// PreviewDir, when set, receives JPEG previews of the boundary output
		PreviewDir string `yaml:"previewDir" toml:"preview_dir"`

		// HistoryDB, when set, is a SQLite ledger of written datasets
		HistoryDB string `yaml:"historyDB" toml:"history_db"`

		// Verbose controls the level of logging output
		Verbose bool `yaml:"verbose" toml:"verbose"`
	} `yaml:"output" toml:"output"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	// Set default blur parameters
	cfg.Blur.SigmaRad = []float64{edgedog.DefaultSigma, edgedog.DefaultSigma, edgedog.DefaultSigma}
	cfg.Blur.SigmaNVox = []float64{0, 0, 0}
	cfg.Blur.Ratio = edgedog.DefaultRatio

	// Set default processing parameters
	cfg.Processing.NumCores = runtime.NumCPU() // Use all available cores by default
	cfg.Processing.DistanceMethod = DistanceEuclidean

	// Set default input parameters
	cfg.Input.VoxelSize = []float64{1, 1, 1}

	return cfg
}

// isTOML reports whether path should be parsed as TOML
func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

// LoadConfig loads configuration from a YAML or TOML file, chosen by extension.
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	// Check if config file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	// Read config file
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if isTOML(configPath) {
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return nil, fmt.Errorf("error parsing config file: %w", err)
		}
	} else {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("error parsing config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", configPath, err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to a YAML or TOML file, chosen by extension
func SaveConfig(cfg *Config, configPath string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	var data []byte
	if isTOML(configPath) {
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
			return fmt.Errorf("error marshaling config: %w", err)
		}
		data = buf.Bytes()
	} else {
		var err error
		data, err = yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("error marshaling config: %w", err)
		}
	}

	// Write to file
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// CreateDefaultConfigFile creates a default configuration file at the specified path
func CreateDefaultConfigFile(configPath string) error {
	cfg := DefaultConfig()
	return SaveConfig(cfg, configPath)
}

// Validate checks value ranges and vector lengths
func (c *Config) Validate() error {
	if len(c.Blur.SigmaRad) != 3 {
		return fmt.Errorf("sigmaRad needs 3 values, got %d", len(c.Blur.SigmaRad))
	}
	if len(c.Blur.SigmaNVox) != 3 {
		return fmt.Errorf("sigmaNVox needs 3 values, got %d", len(c.Blur.SigmaNVox))
	}
	for i := 0; i < 3; i++ {
		if c.Blur.SigmaRad[i] < 0 || c.Blur.SigmaNVox[i] < 0 {
			return fmt.Errorf("sigmas must be non-negative")
		}
	}
	if c.Blur.Ratio <= 0 {
		return fmt.Errorf("ratio must be positive, got %g", c.Blur.Ratio)
	}
	if c.Processing.NumCores < 1 {
		return fmt.Errorf("numCores must be at least 1, got %d", c.Processing.NumCores)
	}
	switch c.Processing.DistanceMethod {
	case DistanceEuclidean, DistanceKDTree:
	default:
		return fmt.Errorf("unknown distance method %q", c.Processing.DistanceMethod)
	}
	if len(c.Input.VoxelSize) != 3 {
		return fmt.Errorf("voxelSize needs 3 values, got %d", len(c.Input.VoxelSize))
	}
	for _, v := range c.Input.VoxelSize {
		if v <= 0 {
			return fmt.Errorf("voxelSize entries must be positive")
		}
	}
	return nil
}

// Params converts the configuration into edge-detection parameters with
// derived output names. The configuration must be valid.
func (c *Config) Params() edgedog.Params {
	p := edgedog.DefaultParams()
	copy(p.Blur.SigmaRad[:], c.Blur.SigmaRad)
	copy(p.Blur.SigmaNVox[:], c.Blur.SigmaNVox)
	p.Blur.Ratio = c.Blur.Ratio
	p.Prefix = c.Output.Prefix
	p.OutputDoG = c.Output.OutputDoG
	p.OutputMask = c.Output.OutputMask
	return p.WithDerivedNames()
}

// VoxelSize returns the slice-stack voxel size as an array
func (c *Config) VoxelSize() [3]float64 {
	var v [3]float64
	copy(v[:], c.Input.VoxelSize)
	return v
}

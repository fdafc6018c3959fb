package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"edgedog/pkg/config"
	"edgedog/pkg/distance"
	"edgedog/pkg/edgedog"
	"edgedog/pkg/pipeline"
	"edgedog/pkg/provenance"
	"edgedog/pkg/volumeio"
)

// tripleFlag parses "x,y,z" into three floats
type tripleFlag []float64

func (t *tripleFlag) String() string {
	if t == nil {
		return ""
	}
	parts := make([]string, len(*t))
	for i, v := range *t {
		parts[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return strings.Join(parts, ",")
}

func (t *tripleFlag) Set(s string) error {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return fmt.Errorf("expected 3 comma separated values, got %q", s)
	}
	values := make([]float64, 3)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return err
		}
		values[i] = v
	}
	*t = values
	return nil
}

func main() {
	// Parse command line arguments
	configPath := flag.String("config", "", "YAML or TOML configuration file")
	initConfig := flag.String("init-config", "", "Write a default configuration file to this path and exit")
	input := flag.String("input", "", "Input dataset prefix or directory of 2D slices")
	prefix := flag.String("prefix", "", "Output dataset prefix for the boundary map")
	mask := flag.String("mask", "", "ROI dataset; boundary output outside it is zeroed")
	ratio := flag.Float64("ratio_sig", edgedog.DefaultRatio, "Ratio of outer to inner sigma")
	outputDoG := flag.Bool("output_dog", false, "Also write the DoG dataset")
	outputMask := flag.Bool("output_mask", false, "Also write the thresholded mask dataset")
	overwrite := flag.Bool("overwrite", false, "Replace existing output datasets")
	numCores := flag.Int("cores", 0, "Number of sub-volumes processed concurrently (default: all CPUs)")
	method := flag.String("distance", config.DistanceEuclidean, "Distance transform: euclidean or kdtree")
	previewDir := flag.String("preview-dir", "", "Directory for JPEG previews of the boundary map")
	historyDB := flag.String("history-db", "", "SQLite ledger of written datasets")
	verbose := flag.Bool("verbose", false, "Enable debug logging")

	var sigmaRad, sigmaNVox, voxelSize tripleFlag
	flag.Var(&sigmaRad, "sigma_rad", "Inner sigma per axis in mm, as x,y,z")
	flag.Var(&sigmaNVox, "sigma_nvox", "Inner sigma per axis as multiples of the voxel edge, as x,y,z")
	flag.Var(&voxelSize, "voxel-size", "Voxel edge lengths of slice-stack inputs, as x,y,z")
	flag.Parse()

	if *initConfig != "" {
		if err := config.CreateDefaultConfigFile(*initConfig); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write config: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Default configuration written to %s\n", *initConfig)
		return
	}

	cfg := config.DefaultConfig()
	if *configPath != "" {
		var err error
		cfg, err = config.LoadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
			os.Exit(1)
		}
	}

	// Flags given on the command line override the configuration file
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "prefix":
			cfg.Output.Prefix = *prefix
		case "mask":
			cfg.Input.Mask = *mask
		case "ratio_sig":
			cfg.Blur.Ratio = *ratio
		case "output_dog":
			cfg.Output.OutputDoG = *outputDoG
		case "output_mask":
			cfg.Output.OutputMask = *outputMask
		case "overwrite":
			cfg.Output.Overwrite = *overwrite
		case "cores":
			cfg.Processing.NumCores = *numCores
		case "distance":
			cfg.Processing.DistanceMethod = *method
		case "preview-dir":
			cfg.Output.PreviewDir = *previewDir
		case "history-db":
			cfg.Output.HistoryDB = *historyDB
		case "verbose":
			cfg.Output.Verbose = *verbose
		case "sigma_rad":
			cfg.Blur.SigmaRad = sigmaRad
		case "sigma_nvox":
			cfg.Blur.SigmaNVox = sigmaNVox
		case "voxel-size":
			cfg.Input.VoxelSize = voxelSize
		}
	})

	logger := initLogger(cfg.Output.Verbose)

	// Validate inputs
	if *input == "" {
		flag.Usage()
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatalf("Invalid configuration: %v", err)
	}

	if err := run(cfg, *input, logger); err != nil {
		logger.Fatalf("Edge detection failed: %v", err)
	}
}

// run executes one edge detection with the resolved configuration
func run(cfg *config.Config, input string, logger *logrus.Logger) error {
	params := &pipeline.Params{
		Input:      input,
		Load:       volumeio.LoadOptions{VoxelSize: cfg.VoxelSize()},
		Mask:       cfg.Input.Mask,
		EdgeDog:    cfg.Params(),
		NumCores:   cfg.Processing.NumCores,
		Overwrite:  cfg.Output.Overwrite,
		PreviewDir: cfg.Output.PreviewDir,
		Command:    os.Args,
		Logger:     logger,
	}
	if cfg.Processing.DistanceMethod == config.DistanceKDTree {
		params.Transformer = distance.NewKDTree()
	}

	if cfg.Output.HistoryDB != "" {
		store, err := provenance.Open(cfg.Output.HistoryDB)
		if err != nil {
			return fmt.Errorf("failed to open history database: %w", err)
		}
		defer store.Close()
		params.History = store
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	runner := pipeline.NewRunner(params)
	logger.WithFields(logrus.Fields{
		"input":    input,
		"prefix":   params.EdgeDog.Prefix,
		"cores":    params.NumCores,
		"distance": cfg.Processing.DistanceMethod,
	}).Info("Starting DoG edge detection")

	startTime := time.Now()
	if err := runner.Process(ctx); err != nil {
		return err
	}

	for _, s := range runner.Stats() {
		logger.WithFields(logrus.Fields{
			"subvolume":    s.Index,
			"dog_mean":     s.DoGMean,
			"dog_stddev":   s.DoGStdDev,
			"inside":       s.InsideFraction,
			"boundary_min": s.BoundaryMin,
			"boundary_max": s.BoundaryMax,
		}).Info("Sub-volume summary")
	}
	for _, out := range runner.Outputs() {
		logger.WithFields(logrus.Fields{
			"kind":    out.Kind,
			"dataset": volumeio.HeaderPath(out.Prefix),
		}).Info("Output written")
	}
	logger.WithField("elapsed", time.Since(startTime).Round(time.Millisecond)).Info("Edge detection completed")

	return nil
}

// initLogger initializes the logger with appropriate level
func initLogger(verbose bool) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)

	if verbose {
		logger.SetLevel(logrus.DebugLevel)
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
		logger.Debug("Debug logging enabled")
	} else {
		logger.SetLevel(logrus.InfoLevel)
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}

	return logger
}

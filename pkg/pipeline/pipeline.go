// Package pipeline runs DoG edge detection over every sub-volume of a
// dataset and writes the results.
package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"edgedog/internal/models"
	"edgedog/pkg/edgedog"
	"edgedog/pkg/provenance"
	"edgedog/pkg/visualization"
	"edgedog/pkg/volumeio"
)

// HistoryRecorder stores one ledger entry per written dataset.
// provenance.Store implements it.
type HistoryRecorder interface {
	Record(ctx context.Context, e provenance.Entry) (provenance.Entry, error)
}

// Params holds the run configuration
type Params struct {
	// Input is a dataset prefix or a directory of 2D slices
	Input string

	// Load controls reading inputs without their own geometry
	Load volumeio.LoadOptions

	// Mask optionally names an ROI dataset on the input grid; boundary
	// output outside it is zeroed
	Mask string

	// EdgeDog holds the blur configuration and output names. Call
	// WithDerivedNames before running.
	EdgeDog edgedog.Params

	// NumCores bounds how many sub-volumes are processed concurrently
	NumCores int

	// Transformer is the distance transform; nil selects Euclidean
	Transformer edgedog.DistanceTransformer

	// Overwrite allows replacing existing output datasets
	Overwrite bool

	// PreviewDir, when set, receives JPEG previews of sub-volume 0
	PreviewDir string

	// History, when set, records every written dataset
	History HistoryRecorder

	// Command is the program name and arguments stamped into histories
	Command []string

	// Logger receives progress; nil selects the standard logrus logger
	Logger logrus.FieldLogger
}

// Output is a dataset produced by a run
type Output struct {
	Kind   string
	Prefix string
}

// Runner executes a configured run
type Runner struct {
	params *Params
	logger logrus.FieldLogger
	runID  string

	// results are the per sub-volume computations in index order
	results []*edgedog.Result

	// stats summarize each result
	stats []SubVolumeStats

	// outputs lists the datasets written
	outputs []Output
}

// NewRunner creates a runner with the provided parameters
func NewRunner(params *Params) *Runner {
	logger := params.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	runID := uuid.NewString()

	return &Runner{
		params: params,
		runID:  runID,
		logger: logger.WithField("run_id", runID),
	}
}

// RunID identifies this run in histories and logs
func (r *Runner) RunID() string {
	return r.runID
}

// Process runs the complete pipeline: load, check destinations, compute,
// write, preview. Any failure aborts the run.
func (r *Runner) Process(ctx context.Context) error {
	p := r.params

	if p.EdgeDog.Blur.PartialVoxelScale() {
		r.logger.WithField("sigma_nvox", p.EdgeDog.Blur.SigmaNVox).
			Warn("Not all voxel scale factors are set; using physical sigmas for every axis")
	}

	// Step 1: Load input volume
	r.logger.WithField("input", p.Input).Info("Step 1: Loading input volume")
	vol, err := volumeio.Load(p.Input, p.Load)
	if err != nil {
		return &StageError{Stage: "load", Index: -1, Err: err}
	}
	g := vol.Geometry
	r.logger.WithFields(logrus.Fields{
		"dims":  fmt.Sprintf("%dx%dx%d", g.NX, g.NY, g.NZ),
		"voxel": fmt.Sprintf("%gx%gx%g", g.DX, g.DY, g.DZ),
		"nvals": vol.NVals(),
		"datum": vol.Bricks[0].Datum(),
	}).Info("Loaded input volume")

	var roi []float64
	if p.Mask != "" {
		roi, err = r.loadROI(g)
		if err != nil {
			return &StageError{Stage: "load mask", Index: -1, Err: err}
		}
	}

	// Step 2: Check destinations before spending time on computation
	sink := volumeio.NewSink(p.Overwrite, r.logger)
	for _, out := range r.plannedOutputs() {
		if err := sink.CheckOverwrite(out.Prefix); err != nil {
			return &StageError{Stage: "check " + out.Kind, Index: -1, Err: err}
		}
	}

	// Step 3: Process sub-volumes in parallel
	inner, outer := edgedog.ResolveSigmas(p.EdgeDog.Blur, g.EdgeLengths())
	r.logger.WithFields(logrus.Fields{
		"mode":  p.EdgeDog.Blur.Mode(),
		"inner": inner,
		"outer": outer,
	}).Info("Step 2: Computing DoG boundaries")

	start := time.Now()
	extractor := edgedog.NewBoundaryExtractor(p.Transformer)
	results, err := ProcessVolume(ctx, vol, p.EdgeDog.Blur, extractor, p.NumCores, r.logger)
	if err != nil {
		return err
	}
	if roi != nil {
		applyROI(results, roi)
	}
	r.results = results
	r.stats = make([]SubVolumeStats, len(results))
	for i, res := range results {
		r.stats[i] = Summarize(res)
	}
	r.logger.WithField("elapsed", time.Since(start).Round(time.Millisecond)).Info("Computation finished")

	// Step 4: Write outputs
	r.logger.Info("Step 3: Writing outputs")
	if err := r.writeOutputs(ctx, sink, vol); err != nil {
		return err
	}

	// Step 5: Save previews
	if p.PreviewDir != "" {
		viewer, err := visualization.NewViewer(results[0].Boundary, g)
		if err != nil {
			return &StageError{Stage: "preview", Index: 0, Err: err}
		}
		files, err := viewer.SavePreview(p.PreviewDir, previewName(p.EdgeDog.Prefix))
		if err != nil {
			return &StageError{Stage: "preview", Index: 0, Err: err}
		}
		r.logger.WithField("files", files).Info("Previews saved")
	}

	return nil
}

// loadROI reads the mask dataset and checks it sits on the input grid
func (r *Runner) loadROI(g models.Geometry) ([]float64, error) {
	roiVol, err := volumeio.Load(r.params.Mask, r.params.Load)
	if err != nil {
		return nil, err
	}
	rg := roiVol.Geometry
	if rg.NX != g.NX || rg.NY != g.NY || rg.NZ != g.NZ {
		return nil, fmt.Errorf("mask grid %dx%dx%d does not match input grid %dx%dx%d",
			rg.NX, rg.NY, rg.NZ, g.NX, g.NY, g.NZ)
	}
	return roiVol.Bricks[0].Float64s(), nil
}

// applyROI zeroes boundary output outside the ROI
func applyROI(results []*edgedog.Result, roi []float64) {
	for _, res := range results {
		for idx, v := range roi {
			if v == 0 {
				res.Boundary[idx] = 0
			}
		}
	}
}

// plannedOutputs lists the datasets the run will write
func (r *Runner) plannedOutputs() []Output {
	p := r.params.EdgeDog
	outputs := []Output{{Kind: "boundary", Prefix: boundaryPrefix(p)}}
	if p.OutputDoG {
		outputs = append(outputs, Output{Kind: "dog", Prefix: p.DoGPrefix})
	}
	if p.OutputMask && p.MaskPrefix != "" {
		outputs = append(outputs, Output{Kind: "mask", Prefix: p.MaskPrefix})
	}
	return outputs
}

// boundaryPrefix names the boundary dataset, falling back to a name based
// on the DoG default when no prefix was given
func boundaryPrefix(p edgedog.Params) string {
	if p.Prefix != "" {
		return p.Prefix
	}
	return edgedog.DefaultDoGPrefix + "_edges"
}

// previewName is the prefix file name without directory or extension
func previewName(prefix string) string {
	if prefix == "" {
		return "edges"
	}
	base := filepath.Base(prefix)
	return strings.TrimSuffix(base, edgedog.KnownExtension(base))
}

// writeOutputs packages the results into datasets and persists them
func (r *Runner) writeOutputs(ctx context.Context, sink *volumeio.Sink, in *models.Volume) error {
	var history []string
	if len(r.params.Command) > 0 {
		history = append(history, provenance.Stamp(r.params.Command[0], r.params.Command[1:], time.Now()))
	}

	for _, out := range r.plannedOutputs() {
		vol, err := r.outputVolume(out, in.Geometry)
		if err != nil {
			return &StageError{Stage: "package " + out.Kind, Index: -1, Err: err}
		}

		if err := sink.Write(out.Prefix, vol, history); err != nil {
			return &StageError{Stage: "write " + out.Kind, Index: -1, Err: err}
		}
		r.outputs = append(r.outputs, out)

		if r.params.History != nil {
			entry := provenance.Entry{
				RunID:   r.runID,
				Dataset: volumeio.Stem(out.Prefix),
				Kind:    out.Kind,
			}
			if len(history) > 0 {
				entry.Command = history[0]
			}
			if _, err := r.params.History.Record(ctx, entry); err != nil {
				return &StageError{Stage: "history " + out.Kind, Index: -1, Err: err}
			}
		}
	}

	return nil
}

// outputVolume builds the dataset of one output kind from the results
func (r *Runner) outputVolume(out Output, geom models.Geometry) (*models.Volume, error) {
	bricks := make([]models.Brick, len(r.results))
	for i, res := range r.results {
		switch out.Kind {
		case "boundary":
			bricks[i] = toFloat32(res.Boundary)
		case "dog":
			bricks[i] = toFloat32(res.DoG)
		case "mask":
			bricks[i] = models.Samples[uint8](res.Mask)
		default:
			return nil, fmt.Errorf("unknown output kind %q", out.Kind)
		}
	}
	return models.NewVolume(volumeio.Stem(out.Prefix), geom, bricks...)
}

func toFloat32(data []float64) models.Samples[float32] {
	out := make(models.Samples[float32], len(data))
	for i, v := range data {
		out[i] = float32(v)
	}
	return out
}

// Results returns the per sub-volume computations of the last run
func (r *Runner) Results() []*edgedog.Result {
	return r.results
}

// Stats returns the per sub-volume summaries of the last run
func (r *Runner) Stats() []SubVolumeStats {
	return r.stats
}

// Outputs returns the datasets written by the last run
func (r *Runner) Outputs() []Output {
	return r.outputs
}

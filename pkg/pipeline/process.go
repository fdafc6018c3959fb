package pipeline

import (
	"context"
	"fmt"
	"runtime"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"edgedog/internal/models"
	"edgedog/pkg/edgedog"
)

// StageError reports the pipeline stage, and the sub-volume when one is
// involved, at which a run failed
type StageError struct {
	Stage string
	// Index is the sub-volume index, or -1 for whole-volume stages
	Index int
	Err   error
}

func (e *StageError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("%s: %v", e.Stage, e.Err)
	}
	return fmt.Sprintf("%s (sub-volume %d): %v", e.Stage, e.Index, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// SubVolumeStats summarizes the result of one sub-volume
type SubVolumeStats struct {
	Index int

	// DoGMean and DoGStdDev describe the DoG distribution
	DoGMean, DoGStdDev float64

	// InsideFraction is the share of voxels with a non-negative DoG
	InsideFraction float64

	// BoundaryMin and BoundaryMax bound the signed distance output
	BoundaryMin, BoundaryMax float64
}

// Summarize computes the statistics of one result
func Summarize(res *edgedog.Result) SubVolumeStats {
	s := SubVolumeStats{Index: res.Index}
	if len(res.DoG) == 0 {
		return s
	}

	s.DoGMean, s.DoGStdDev = stat.MeanStdDev(res.DoG, nil)

	inside := 0
	for _, m := range res.Mask {
		inside += int(m)
	}
	s.InsideFraction = float64(inside) / float64(len(res.Mask))

	s.BoundaryMin = floats.Min(res.Boundary)
	s.BoundaryMax = floats.Max(res.Boundary)
	return s
}

// ProcessVolume runs edge detection on every sub-volume of vol with at most
// numCores sub-volumes in flight. The first failure cancels the remaining
// work and is returned as a *StageError. Results are in index order.
func ProcessVolume(ctx context.Context, vol *models.Volume, cfg edgedog.BlurConfig,
	extractor *edgedog.BoundaryExtractor, numCores int, logger logrus.FieldLogger) ([]*edgedog.Result, error) {

	if numCores < 1 {
		numCores = runtime.NumCPU()
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	nvals := vol.NVals()
	results := make([]*edgedog.Result, nvals)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(numCores)

	for ival := 0; ival < nvals; ival++ {
		ival := ival
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return &StageError{Stage: "filter", Index: ival, Err: err}
			}

			res, err := edgedog.ProcessSubVolume(vol, ival, cfg, extractor)
			if err != nil {
				return &StageError{Stage: "filter", Index: ival, Err: err}
			}
			results[ival] = res

			s := Summarize(res)
			logger.WithFields(logrus.Fields{
				"subvolume":  ival,
				"dog_mean":   s.DoGMean,
				"dog_stddev": s.DoGStdDev,
				"inside":     s.InsideFraction,
			}).Debug("Sub-volume processed")
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return results, nil
}

package filter

import (
	"context"
	"math/rand"
	"sort"

	"github.com/pkg/errors"

	"github.com/spikework/mft/spiketrain"
)

// NewBootstrapCalibrator returns a Calibrator that resamples the null
// model directly: each surrogate draws as many events as were observed,
// as uniform order statistics on [0, T], and scans the resulting
// ephemeral sequence with the same machinery applied to real data. Only
// the per-width maxima of |statistic| survive a draw.
//
// The raw maxima of small resampled sequences are much heavier tailed
// than the limit process (near-regular inter-event intervals in a
// half-window shrink the variance estimate and inflate the statistic),
// so crossing levels come out conservative; the limit-process calibrator
// is the default for that reason.
func NewBootstrapCalibrator() Calibrator {
	return &bootstrapCalibrator{}
}

type bootstrapCalibrator struct{}

func (c *bootstrapCalibrator) Calibrate(ctx context.Context, opts CalibrationOptions) (*Threshold, error) {
	if err := opts.Validate(); err != nil {
		return nil, errors.WithStack(err)
	}
	if opts.Count < 1 {
		return nil, errors.New("bootstrap null requires the observed event count")
	}

	grids := make([][]float64, len(opts.Widths))
	for w, h := range opts.Widths {
		grids[w] = Grid(0, opts.Duration, h, opts.Step)
	}

	maxima, err := runSurrogates(ctx, opts, func(r *rand.Rand) []float64 {
		times := make([]float64, opts.Count)
		for i := range times {
			times[i] = r.Float64() * opts.Duration
		}
		sort.Float64s(times)

		surrogate, err := spiketrain.New(times, spiketrain.Seconds, 0, opts.Duration)
		if err != nil {
			// unreachable: uniform draws always land in bounds
			panic(err)
		}

		out := make([]float64, len(opts.Widths))
		for w, h := range opts.Widths {
			out[w] = scanProcess(surrogate, h, grids[w]).maxAbs()
		}
		return out
	})
	if err != nil {
		return nil, err
	}

	return reduceThreshold(opts.Widths, maxima, opts.Alpha), nil
}

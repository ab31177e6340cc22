package filter

import (
	"context"
	"math"
	"math/rand"

	"github.com/pkg/errors"
)

// NewLimitProcessCalibrator returns the default Calibrator. Rather than
// resampling event sequences it simulates the statistic's limit under the
// constant-rate null: for a standard Brownian path W on [0, T] the filter
// statistic for width h converges to
//
//	L_h(t) = (W(t+h) - 2W(t) + W(t-h)) / sqrt(2h),
//
// which is rate-free. Each surrogate draws one path at the grid
// resolution and records, per width, the maximum |L_h| over the same
// candidate grid the scanner uses on real data.
func NewLimitProcessCalibrator() Calibrator {
	return &limitProcessCalibrator{}
}

type limitProcessCalibrator struct{}

func (c *limitProcessCalibrator) Calibrate(ctx context.Context, opts CalibrationOptions) (*Threshold, error) {
	if err := opts.Validate(); err != nil {
		return nil, errors.WithStack(err)
	}

	steps := int(math.Round(opts.Duration / opts.Step))
	if steps < 2 {
		return nil, errors.Errorf("grid step %g too coarse for observation interval %g", opts.Step, opts.Duration)
	}

	// Window offsets and grid lengths in knots, per width. Widths are
	// discretized to the grid resolution, as is the scan itself.
	offsets := make([]int, len(opts.Widths))
	counts := make([]int, len(opts.Widths))
	for w, h := range opts.Widths {
		offsets[w] = int(math.Round(h / opts.Step))
		if offsets[w] < 1 {
			offsets[w] = 1
		}
		counts[w] = len(Grid(0, opts.Duration, h, opts.Step))
	}

	sqrtStep := math.Sqrt(opts.Step)

	maxima, err := runSurrogates(ctx, opts, func(r *rand.Rand) []float64 {
		path := make([]float64, steps+1)
		for k := 1; k <= steps; k++ {
			path[k] = path[k-1] + r.NormFloat64()*sqrtStep
		}

		out := make([]float64, len(opts.Widths))
		for w := range opts.Widths {
			kh := offsets[w]
			norm := math.Sqrt(2 * float64(kh) * opts.Step)
			m := 0.0
			for i := 0; i < counts[w]; i++ {
				k := kh + i
				if k+kh > steps {
					break
				}
				v := math.Abs(path[k+kh]-2*path[k]+path[k-kh]) / norm
				if v > m {
					m = v
				}
			}
			out[w] = m
		}
		return out
	})
	if err != nil {
		return nil, err
	}

	return reduceThreshold(opts.Widths, maxima, opts.Alpha), nil
}

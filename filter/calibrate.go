package filter

import (
	"context"
	"math"
	"math/rand"
	"sort"
	"sync"

	"github.com/mongodb/grip"
	"github.com/pkg/errors"
)

// Calibrator types derive the significance threshold for the filter
// statistic from a Monte Carlo simulation of the constant-rate null
// model. Implementations must be deterministic for a fixed seed,
// including under parallel execution.
type Calibrator interface {
	Calibrate(context.Context, CalibrationOptions) (*Threshold, error)
}

// CalibrationOptions parameterizes one calibration run. All durations are
// plain numbers in the unit of the sequence under test; unit handling is
// resolved at the detector boundary.
type CalibrationOptions struct {
	// Widths holds the window widths the threshold must cover.
	Widths []float64
	// Duration is the length of the observation interval.
	Duration float64
	// Alpha is the significance level as a percentage (5 means 5%).
	Alpha float64
	// Surrogates is the number of Monte Carlo draws.
	Surrogates int
	// Step is the candidate-grid spacing dt.
	Step float64
	// Count is the observed event count; only the bootstrap null
	// consults it.
	Count int
	// Seed feeds the surrogate sub-streams. Workers bounds the
	// parallel fan-out; zero or one runs sequentially.
	Seed    int64
	Workers int
}

func (opts *CalibrationOptions) Validate() error {
	catcher := grip.NewBasicCatcher()

	if len(opts.Widths) == 0 {
		catcher.Add(errors.New("must specify at least one window width"))
	}
	for _, h := range opts.Widths {
		if h <= 0 {
			catcher.Add(errors.Errorf("window width must be positive, got %g", h))
		}
		if 2*h >= opts.Duration {
			catcher.Add(errors.Errorf("window width %g too large for observation interval %g", h, opts.Duration))
		}
	}
	if opts.Duration <= 0 {
		catcher.Add(errors.New("observation interval must have positive length"))
	}
	if opts.Alpha <= 0 || opts.Alpha >= 100 {
		catcher.Add(errors.Errorf("alpha must be a percentage in (0, 100), got %g", opts.Alpha))
	}
	if opts.Surrogates < 2 {
		catcher.Add(errors.New("must draw at least two surrogates"))
	}
	if opts.Step <= 0 {
		catcher.Add(errors.New("grid step must be positive"))
	}

	return catcher.Resolve()
}

// NullMoments carries the empirical mean and population variance of the
// per-surrogate maximum of |statistic| for one window width under the
// null model. They put the statistic curves of different widths on a
// common scale.
type NullMoments struct {
	Width    float64 `bson:"width" json:"width" yaml:"width"`
	Mean     float64 `bson:"mean" json:"mean" yaml:"mean"`
	Variance float64 `bson:"variance" json:"variance" yaml:"variance"`
}

// Threshold is the calibrated significance threshold: a single quantile
// on the standardized scale, valid across all calibrated window widths,
// plus the per-width moments needed to map it back onto each width's raw
// statistic scale.
type Threshold struct {
	Quantile float64       `bson:"quantile" json:"quantile" yaml:"quantile"`
	Moments  []NullMoments `bson:"moments" json:"moments" yaml:"moments"`
}

// CrossingLevel returns the raw-scale level the |statistic| curve for
// window width h must exceed to be significant.
func (t *Threshold) CrossingLevel(h float64) (float64, bool) {
	for _, m := range t.Moments {
		if m.Width == h {
			return m.Mean + t.Quantile*math.Sqrt(m.Variance), true
		}
	}
	return 0, false
}

// reduceThreshold turns the per-surrogate, per-width maxima into a
// Threshold. maxima[i][w] is surrogate i's maximum |statistic| for width
// w. Per width the maxima are standardized by their empirical mean and
// population variance; each surrogate then contributes its largest
// standardized maximum across widths, and the quantile is the ascending
// order statistic at rank ceil(n*(1-alpha/100))-1. The rank rule is fixed
// so that for a single width the threshold is exactly the empirical
// (1-alpha) quantile of the raw maxima.
func reduceThreshold(widths []float64, maxima [][]float64, alpha float64) *Threshold {
	n := len(maxima)

	out := &Threshold{Moments: make([]NullMoments, len(widths))}
	for w, h := range widths {
		mean := 0.0
		for i := range maxima {
			mean += maxima[i][w]
		}
		mean /= float64(n)

		variance := 0.0
		for i := range maxima {
			d := maxima[i][w] - mean
			variance += d * d
		}
		variance /= float64(n)

		out.Moments[w] = NullMoments{Width: h, Mean: mean, Variance: variance}
	}

	standardized := make([]float64, n)
	for i := range maxima {
		best := math.Inf(-1)
		for w := range widths {
			m := out.Moments[w]
			sd := math.Sqrt(m.Variance)
			var z float64
			if sd > 0 {
				z = (maxima[i][w] - m.Mean) / sd
			}
			if z > best {
				best = z
			}
		}
		standardized[i] = best
	}
	sort.Float64s(standardized)

	rank := int(math.Ceil(float64(n)*(1-alpha/100))) - 1
	if rank < 0 {
		rank = 0
	}
	if rank >= n {
		rank = n - 1
	}
	out.Quantile = standardized[rank]

	return out
}

// runSurrogates evaluates fn once per surrogate and collects the
// per-width maxima. Each surrogate gets a rand.Rand seeded from its own
// sub-stream, so the result is independent of the number of workers and
// of scheduling order; cancellation is honored at surrogate granularity.
func runSurrogates(ctx context.Context, opts CalibrationOptions, fn func(r *rand.Rand) []float64) ([][]float64, error) {
	maxima := make([][]float64, opts.Surrogates)

	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > opts.Surrogates {
		workers = opts.Surrogates
	}

	if workers == 1 {
		for i := range maxima {
			if err := ctx.Err(); err != nil {
				return nil, errors.Wrap(err, "calibration canceled")
			}
			maxima[i] = fn(rand.New(rand.NewSource(subSeed(opts.Seed, i))))
		}
		return maxima, nil
	}

	indexes := make(chan int)
	wg := &sync.WaitGroup{}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indexes {
				maxima[i] = fn(rand.New(rand.NewSource(subSeed(opts.Seed, i))))
			}
		}()
	}

	var err error
dispatch:
	for i := 0; i < opts.Surrogates; i++ {
		select {
		case indexes <- i:
		case <-ctx.Done():
			err = errors.Wrap(ctx.Err(), "calibration canceled")
			break dispatch
		}
	}
	close(indexes)
	wg.Wait()

	if err != nil {
		return nil, err
	}
	return maxima, nil
}

// subSeed derives the seed of one surrogate's generator from the run seed
// with a splitmix64 step, partitioning the stream so surrogates stay
// independent under parallel fan-out.
func subSeed(seed int64, index int) int64 {
	z := uint64(seed) + uint64(index+1)*0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return int64(z ^ (z >> 31))
}

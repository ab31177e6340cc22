package filter

import (
	"context"
	"math"

	"github.com/pkg/errors"

	"github.com/spikework/mft/spiketrain"
)

// ChangePoint is one detected rate change: the candidate time of the
// extremum of an excursion above the crossing level, together with the
// statistic value there.
type ChangePoint struct {
	Time      float64 `bson:"time" json:"time" yaml:"time"`
	Statistic float64 `bson:"statistic" json:"statistic" yaml:"statistic"`
}

// WidthResult holds the detections for one window width. Detections are
// never merged across widths; every tested width reports independently.
type WidthResult struct {
	Width         float64       `bson:"width" json:"width" yaml:"width"`
	CrossingLevel float64       `bson:"crossing_level" json:"crossing_level" yaml:"crossing_level"`
	Points        []ChangePoint `bson:"points" json:"points" yaml:"points"`
}

// Result is the output of one detection run. All times and widths are
// expressed in Unit, the unit of the input sequence.
type Result struct {
	Unit      spiketrain.Unit `bson:"unit" json:"unit" yaml:"unit"`
	Threshold *Threshold      `bson:"threshold" json:"threshold" yaml:"threshold"`
	Widths    []WidthResult   `bson:"widths" json:"widths" yaml:"widths"`
}

// DetectorOptions configures a Detector.
type DetectorOptions struct {
	// Alpha is the significance level as a percentage.
	Alpha float64
	// Surrogates is the Monte Carlo draw count for calibration.
	Surrogates int
	// Step is the candidate-grid spacing dt.
	Step spiketrain.Quantity
	// Seed makes runs reproducible; Workers bounds calibration's
	// parallel fan-out.
	Seed    int64
	Workers int
	// Calibrator overrides the null model; nil selects the
	// limit-process calibrator.
	Calibrator Calibrator
}

// Detector orchestrates one full detection pass: a single calibration
// across all window widths, then one scan and threshold per width. It
// keeps no state between calls.
type Detector struct {
	opts DetectorOptions
}

func NewDetector(opts DetectorOptions) *Detector {
	if opts.Calibrator == nil {
		opts.Calibrator = NewLimitProcessCalibrator()
	}
	return &Detector{opts: opts}
}

// Detect runs the multiple filter test on the sequence for every window
// width. T is the end of the observation interval; for a canonical
// spike train a zero T defers to the train's own bounds.
func (d *Detector) Detect(ctx context.Context, widths []spiketrain.Quantity, sequence interface{}, T spiketrain.Quantity) (*Result, error) {
	st, err := spiketrain.Resolve(sequence, T)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	unit := st.Unit()

	stop := st.Stop()
	if T.Unit != "" {
		if stop, err = T.In(unit); err != nil {
			return nil, errors.Wrap(err, "observation bound")
		}
	}

	hs := make([]float64, len(widths))
	for i, h := range widths {
		if hs[i], err = h.In(unit); err != nil {
			return nil, errors.Wrap(err, "window width")
		}
	}
	step, err := d.opts.Step.In(unit)
	if err != nil {
		return nil, errors.Wrap(err, "grid step")
	}

	threshold, err := d.opts.Calibrator.Calibrate(ctx, CalibrationOptions{
		Widths:     hs,
		Duration:   stop - st.Start(),
		Alpha:      d.opts.Alpha,
		Surrogates: d.opts.Surrogates,
		Step:       step,
		Count:      st.Len(),
		Seed:       d.opts.Seed,
		Workers:    d.opts.Workers,
	})
	if err != nil {
		return nil, errors.Wrap(err, "calibrating crossing levels")
	}

	out := &Result{Unit: unit, Threshold: threshold, Widths: make([]WidthResult, len(hs))}
	for i, h := range hs {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrap(err, "detection canceled")
		}

		level, ok := threshold.CrossingLevel(h)
		if !ok {
			return nil, errors.Errorf("no crossing level calibrated for width %g", h)
		}

		proc := scanProcess(st, h, Grid(st.Start(), stop, h, step))
		out.Widths[i] = WidthResult{
			Width:         h,
			CrossingLevel: level,
			Points:        crossings(proc, level),
		}
	}

	return out, nil
}

// crossings collapses each maximal contiguous run of |value| above level
// into a single change point at the run's extremum. Non-finite samples
// are degenerate-window artifacts and terminate a run the same way a
// sub-level sample does.
func crossings(proc *Process, level float64) []ChangePoint {
	points := []ChangePoint{}

	best := -1
	for i, v := range proc.Values {
		av := math.Abs(v)
		if av > level && !math.IsInf(av, 0) && !math.IsNaN(av) {
			if best < 0 || av > math.Abs(proc.Values[best]) {
				best = i
			}
			continue
		}
		if best >= 0 {
			points = append(points, ChangePoint{Time: proc.Times[best], Statistic: proc.Values[best]})
			best = -1
		}
	}
	if best >= 0 {
		points = append(points, ChangePoint{Time: proc.Times[best], Statistic: proc.Values[best]})
	}

	return points
}

// MultipleFilterTest is the convenience entry point for one-shot use: it
// runs a Detector with the default null model and returns only the
// change-point times, one ordered slice per window width, in the input's
// time unit.
func MultipleFilterTest(ctx context.Context, windowSizes []spiketrain.Quantity, sequence interface{}, T spiketrain.Quantity, alpha float64, nSurrogates int, dt spiketrain.Quantity, seed int64) ([][]spiketrain.Quantity, error) {
	detector := NewDetector(DetectorOptions{
		Alpha:      alpha,
		Surrogates: nSurrogates,
		Step:       dt,
		Seed:       seed,
	})

	result, err := detector.Detect(ctx, windowSizes, sequence, T)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	out := make([][]spiketrain.Quantity, len(result.Widths))
	for i, wr := range result.Widths {
		out[i] = make([]spiketrain.Quantity, len(wr.Points))
		for j, p := range wr.Points {
			out[i][j] = spiketrain.Q(p.Time, result.Unit)
		}
	}
	return out, nil
}

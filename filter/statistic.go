/*
Package filter implements a multi-scale change-point detector for
event-time sequences (e.g. neural spike trains). The method slides a
pair of adjacent half-windows across the observation interval and, at
each candidate time, compares the event counts on either side, scaled by
a moment-based estimate of their variance under a renewal model. Crossing
levels are calibrated by Monte Carlo against a null model of constant
event rate, and candidate times whose statistic exceeds the calibrated
level are reported as change points, one per excursion, for each tested
window width independently.
*/
package filter

import (
	"math"

	"github.com/pkg/errors"

	"github.com/spikework/mft/spiketrain"
)

// Statistic evaluates the filter statistic for the sequence at candidate
// time t with window width h. Both t and h must carry a time unit and are
// converted into the sequence's own unit before evaluation. The sequence
// may be a *spiketrain.SpikeTrain or a unit-tagged spiketrain.Series; raw
// numeric arrays are rejected.
//
// A half-window holding fewer than two events leaves its interval moments
// undefined and the statistic is zero by convention; a vanishing variance
// estimate with populated half-windows produces a non-finite value, which
// callers must treat as "never crosses threshold".
func Statistic(t, h spiketrain.Quantity, sequence interface{}) (float64, error) {
	st, err := resolveSequence(sequence, h)
	if err != nil {
		return 0, errors.WithStack(err)
	}

	tv, err := t.In(st.Unit())
	if err != nil {
		return 0, errors.Wrap(err, "candidate time")
	}
	hv, err := h.In(st.Unit())
	if err != nil {
		return 0, errors.Wrap(err, "window width")
	}
	if hv <= 0 {
		return 0, errors.Errorf("window width must be positive, got %g", hv)
	}

	return statistic(st, tv, hv), nil
}

// resolveSequence normalizes the accepted sequence representations for
// operations that do not take explicit observation bounds; for a bare
// unit-tagged series the bounds are taken from the data itself, padded so
// any candidate window fits. The statistic never reads the bounds.
func resolveSequence(sequence interface{}, h spiketrain.Quantity) (*spiketrain.SpikeTrain, error) {
	switch seq := sequence.(type) {
	case *spiketrain.SpikeTrain, spiketrain.SpikeTrain:
		return spiketrain.Resolve(seq, spiketrain.Quantity{})
	case spiketrain.Series:
		return spiketrain.Resolve(seq, seriesBound(seq, h))
	case *spiketrain.Series:
		if seq == nil {
			return nil, errors.Wrap(spiketrain.ErrInvalidInput, "nil series")
		}
		return spiketrain.Resolve(*seq, seriesBound(*seq, h))
	default:
		return spiketrain.Resolve(seq, spiketrain.Quantity{})
	}
}

func seriesBound(s spiketrain.Series, h spiketrain.Quantity) spiketrain.Quantity {
	bound := 0.0
	for _, v := range s.Values {
		if v > bound {
			bound = v
		}
	}
	if hv, err := h.In(s.Unit); err == nil && hv > 0 {
		bound += hv
	}
	return spiketrain.Q(bound, s.Unit)
}

// statistic is the pure core: t and h are already expressed in the
// train's unit.
func statistic(st *spiketrain.SpikeTrain, t, h float64) float64 {
	right := st.Between(t, t+h)
	left := st.Between(t-h, t)

	if len(right) < 2 || len(left) < 2 {
		return 0
	}

	muR, varR := intervalMoments(right)
	muL, varL := intervalMoments(left)

	// Under a renewal model the count variance over a window of length
	// h is h*sigma^2/mu^3 per side.
	scale := h*varR/(muR*muR*muR) + h*varL/(muL*muL*muL)

	return (float64(len(right)) - float64(len(left))) / math.Sqrt(scale)
}

// intervalMoments returns the sample mean and population variance of the
// consecutive inter-event intervals of the (sorted) timestamps.
func intervalMoments(times []float64) (mean, variance float64) {
	n := len(times) - 1
	for i := 0; i < n; i++ {
		mean += times[i+1] - times[i]
	}
	mean /= float64(n)

	for i := 0; i < n; i++ {
		d := times[i+1] - times[i] - mean
		variance += d * d
	}
	variance /= float64(n)

	return mean, variance
}

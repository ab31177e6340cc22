/*
Package spiketrain provides the canonical event-time sequence consumed by
the filter package, together with the unit tagging and representation
normalization applied once at the analysis boundary. The core detection
code never branches on input representation; everything is resolved here
into a sorted, bounded, unit-tagged timestamp sequence.
*/
package spiketrain

import (
	"math"
	"sort"

	"github.com/pkg/errors"
)

// SpikeTrain is a sorted sequence of event timestamps within explicit
// observation bounds, carrying a single time unit. Timestamps are copied
// on construction and never mutated afterwards.
type SpikeTrain struct {
	times  []float64
	unit   Unit
	tStart float64
	tStop  float64
}

// New builds a SpikeTrain from timestamps expressed in unit, observed on
// [tStart, tStop]. The input slice is copied and sorted; timestamps
// outside the bounds or non-finite are rejected.
func New(times []float64, unit Unit, tStart, tStop float64) (*SpikeTrain, error) {
	if err := unit.Validate(); err != nil {
		return nil, errors.WithStack(err)
	}
	if tStop <= tStart {
		return nil, errors.Wrapf(ErrInvalidInput, "empty observation interval [%g, %g]", tStart, tStop)
	}

	ts := make([]float64, len(times))
	copy(ts, times)
	sort.Float64s(ts)

	for _, t := range ts {
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return nil, errors.Wrap(ErrInvalidInput, "non-finite timestamp")
		}
		if t < tStart || t > tStop {
			return nil, errors.Wrapf(ErrInvalidInput, "timestamp %g outside observation interval [%g, %g]", t, tStart, tStop)
		}
	}

	return &SpikeTrain{times: ts, unit: unit, tStart: tStart, tStop: tStop}, nil
}

func (st *SpikeTrain) Len() int       { return len(st.times) }
func (st *SpikeTrain) Unit() Unit     { return st.unit }
func (st *SpikeTrain) Start() float64 { return st.tStart }
func (st *SpikeTrain) Stop() float64  { return st.tStop }

// Times returns a copy of the timestamps.
func (st *SpikeTrain) Times() []float64 {
	out := make([]float64, len(st.times))
	copy(out, st.times)
	return out
}

// Between returns the timestamps in the half-open window [lo, hi), as a
// view into the train's sorted backing array. Callers must not modify the
// returned slice. Lookup is by binary search.
func (st *SpikeTrain) Between(lo, hi float64) []float64 {
	i := sort.SearchFloat64s(st.times, lo)
	j := sort.SearchFloat64s(st.times, hi)
	return st.times[i:j:j]
}

// CountBetween returns the number of events in [lo, hi).
func (st *SpikeTrain) CountBetween(lo, hi float64) int {
	return len(st.Between(lo, hi))
}

// Resolve normalizes the accepted event-sequence representations into a
// canonical SpikeTrain:
//
//	*SpikeTrain        used as-is (bounds and unit are explicit);
//	Series / *Series   unit-tagged array, bounds taken as [0, T];
//	[]float64          rejected with ErrInvalidUnit, since a raw array
//	                   cannot establish time-dimension typing;
//	anything else      rejected with ErrInvalidInput.
//
// T is only consulted for the Series representation.
func Resolve(value interface{}, T Quantity) (*SpikeTrain, error) {
	switch seq := value.(type) {
	case *SpikeTrain:
		if seq == nil {
			return nil, errors.Wrap(ErrInvalidInput, "nil spike train")
		}
		return seq, nil
	case SpikeTrain:
		return &seq, nil
	case *Series:
		if seq == nil {
			return nil, errors.Wrap(ErrInvalidInput, "nil series")
		}
		return resolveSeries(*seq, T)
	case Series:
		return resolveSeries(seq, T)
	case []float64:
		return nil, errors.Wrap(ErrInvalidUnit, "raw numeric array carries no time unit")
	default:
		return nil, errors.Wrapf(ErrInvalidInput, "%T", value)
	}
}

func resolveSeries(s Series, T Quantity) (*SpikeTrain, error) {
	if err := s.Unit.Validate(); err != nil {
		return nil, errors.Wrap(ErrInvalidUnit, "series carries no time unit")
	}

	stop, err := T.In(s.Unit)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidUnit, "observation bound carries no time unit")
	}

	return New(s.Values, s.Unit, 0, stop)
}

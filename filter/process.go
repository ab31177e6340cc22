package filter

import (
	"math"

	"github.com/pkg/errors"

	"github.com/spikework/mft/spiketrain"
)

// Process is the discretized statistic curve for one window width: the
// ordered (time, value) pairs produced by scanning a candidate grid.
// Times and values are aligned and expressed in Unit.
type Process struct {
	Width  float64
	Unit   spiketrain.Unit
	Times  []float64
	Values []float64
}

// Grid builds the candidate-time grid for window width h at spacing dt on
// the observation interval [tStart, tStop]: the arithmetic sequence
// starting at tStart+h, strictly below tStop-h, so both half-windows stay
// inside the interval at every candidate.
func Grid(tStart, tStop, h, dt float64) []float64 {
	return arange(tStart+h, tStop-h, dt)
}

// arange mirrors the numpy half-open convention: start inclusive, stop
// exclusive. The small epsilon keeps a stop value that is a whole number
// of steps away (up to float rounding) out of the grid.
func arange(start, stop, step float64) []float64 {
	if step <= 0 || stop <= start {
		return nil
	}

	n := int(math.Floor((stop-start)/step-1e-9)) + 1
	if n < 1 {
		return nil
	}

	out := make([]float64, n)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	return out
}

// ScanProcess evaluates the filter statistic at every candidate time in
// grid, in increasing order, for window width h. The grid is expressed in
// the sequence's own time unit and is the caller's responsibility to
// construct (see Grid). Evaluations are independent of one another and
// the scan is deterministic: identical inputs produce identical output.
func ScanProcess(h spiketrain.Quantity, sequence interface{}, grid []float64) (*Process, error) {
	st, err := resolveSequence(sequence, h)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	hv, err := h.In(st.Unit())
	if err != nil {
		return nil, errors.Wrap(err, "window width")
	}
	if hv <= 0 {
		return nil, errors.Errorf("window width must be positive, got %g", hv)
	}

	return scanProcess(st, hv, grid), nil
}

func scanProcess(st *spiketrain.SpikeTrain, h float64, grid []float64) *Process {
	proc := &Process{
		Width:  h,
		Unit:   st.Unit(),
		Times:  grid,
		Values: make([]float64, len(grid)),
	}

	for i, t := range grid {
		proc.Values[i] = statistic(st, t, h)
	}

	return proc
}

// maxAbs returns the largest finite |value| of the process; non-finite
// samples are degenerate-window artifacts and never count as extrema.
func (p *Process) maxAbs() float64 {
	m := 0.0
	for _, v := range p.Values {
		av := math.Abs(v)
		if av > m && !math.IsInf(av, 0) && !math.IsNaN(av) {
			m = av
		}
	}
	return m
}

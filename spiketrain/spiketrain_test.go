package spiketrain

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSpikeTrain(t *testing.T) {
	t.Run("SortsAndCopiesInput", func(t *testing.T) {
		in := []float64{0.9, 0.1, 0.5}
		st, err := New(in, Seconds, 0, 1)
		require.NoError(t, err)

		assert.Equal(t, []float64{0.1, 0.5, 0.9}, st.Times())

		// the constructor copied the input
		in[0] = 100
		assert.Equal(t, []float64{0.1, 0.5, 0.9}, st.Times())

		// and the accessor copies on the way out
		out := st.Times()
		out[0] = -1
		assert.Equal(t, []float64{0.1, 0.5, 0.9}, st.Times())
	})
	t.Run("RejectsInvalidUnit", func(t *testing.T) {
		_, err := New([]float64{0.5}, Unit("furlongs"), 0, 1)
		require.Error(t, err)
		assert.Equal(t, ErrInvalidUnit, errors.Cause(err))
	})
	t.Run("RejectsEmptyInterval", func(t *testing.T) {
		_, err := New(nil, Seconds, 1, 1)
		require.Error(t, err)
		assert.Equal(t, ErrInvalidInput, errors.Cause(err))
	})
	t.Run("RejectsOutOfBoundsTimestamp", func(t *testing.T) {
		_, err := New([]float64{0.5, 2.5}, Seconds, 0, 2)
		require.Error(t, err)
		assert.Equal(t, ErrInvalidInput, errors.Cause(err))
	})
	t.Run("AcceptsEmptyTrain", func(t *testing.T) {
		st, err := New(nil, Seconds, 0, 1)
		require.NoError(t, err)
		assert.Zero(t, st.Len())
	})
}

func TestBetween(t *testing.T) {
	st, err := New([]float64{0.1, 0.2, 0.3, 0.4, 0.5}, Seconds, 0, 1)
	require.NoError(t, err)

	t.Run("HalfOpenWindow", func(t *testing.T) {
		assert.Equal(t, []float64{0.2, 0.3}, st.Between(0.2, 0.4))
		assert.Equal(t, 2, st.CountBetween(0.2, 0.4))
	})
	t.Run("EmptyWindow", func(t *testing.T) {
		assert.Empty(t, st.Between(0.6, 0.9))
		assert.Empty(t, st.Between(0.25, 0.25))
	})
	t.Run("FullRange", func(t *testing.T) {
		assert.Len(t, st.Between(0, 1), 5)
	})
}

func TestQuantityConversion(t *testing.T) {
	t.Run("MillisecondsToSeconds", func(t *testing.T) {
		v, err := Q(1500, Milliseconds).In(Seconds)
		require.NoError(t, err)
		assert.InDelta(t, 1.5, v, 1e-12)
	})
	t.Run("SecondsToMilliseconds", func(t *testing.T) {
		v, err := Q(0.25, Seconds).In(Milliseconds)
		require.NoError(t, err)
		assert.InDelta(t, 250, v, 1e-12)
	})
	t.Run("DimensionlessFails", func(t *testing.T) {
		_, err := Quantity{Value: 1}.In(Seconds)
		require.Error(t, err)
		assert.Equal(t, ErrInvalidUnit, errors.Cause(err))
	})
}

func TestResolve(t *testing.T) {
	t.Run("SpikeTrainPassThrough", func(t *testing.T) {
		st, err := New([]float64{0.5}, Seconds, 0, 1)
		require.NoError(t, err)

		resolved, err := Resolve(st, Quantity{})
		require.NoError(t, err)
		assert.Same(t, st, resolved)
	})
	t.Run("SeriesWithBound", func(t *testing.T) {
		resolved, err := Resolve(Series{Values: []float64{100, 500}, Unit: Milliseconds}, Q(1, Seconds))
		require.NoError(t, err)
		assert.Equal(t, Milliseconds, resolved.Unit())
		assert.Equal(t, 1000.0, resolved.Stop())
		assert.Equal(t, 2, resolved.Len())
	})
	t.Run("SeriesWithoutUnitFails", func(t *testing.T) {
		_, err := Resolve(Series{Values: []float64{0.5}}, Q(1, Seconds))
		require.Error(t, err)
		assert.Equal(t, ErrInvalidUnit, errors.Cause(err))
	})
	t.Run("RawSliceRejected", func(t *testing.T) {
		_, err := Resolve([]float64{0.1, 0.2}, Q(1, Seconds))
		require.Error(t, err)
		assert.Equal(t, ErrInvalidUnit, errors.Cause(err))
	})
	t.Run("UnknownTypeRejected", func(t *testing.T) {
		_, err := Resolve("not a sequence", Quantity{})
		require.Error(t, err)
		assert.Equal(t, ErrInvalidInput, errors.Cause(err))
	})
	t.Run("NilTrainRejected", func(t *testing.T) {
		_, err := Resolve((*SpikeTrain)(nil), Quantity{})
		require.Error(t, err)
		assert.Equal(t, ErrInvalidInput, errors.Cause(err))
	})
}

package spiketrain

import (
	"github.com/pkg/errors"
)

// Error kinds for boundary validation. Callers should compare with
// errors.Cause, since the package wraps these with context.
var (
	// ErrInvalidUnit indicates that a time-typed parameter is missing
	// or mismatched dimensionality relative to the sequence's unit.
	ErrInvalidUnit = errors.New("invalid or missing time unit")

	// ErrInvalidInput indicates an unrecognized event-sequence
	// representation.
	ErrInvalidInput = errors.New("unrecognized event sequence representation")
)

// Unit is a physical time unit tag. The zero value is dimensionless and
// fails validation wherever a time unit is required.
type Unit string

const (
	Seconds      Unit = "s"
	Milliseconds Unit = "ms"
	Microseconds Unit = "us"
	Nanoseconds  Unit = "ns"
)

var unitScale = map[Unit]float64{
	Seconds:      1.0,
	Milliseconds: 1e-3,
	Microseconds: 1e-6,
	Nanoseconds:  1e-9,
}

func (u Unit) Validate() error {
	if _, ok := unitScale[u]; !ok {
		return errors.Wrapf(ErrInvalidUnit, "'%s'", string(u))
	}
	return nil
}

// Factor returns the multiplier that converts a value carried in u into
// the target unit.
func (u Unit) Factor(target Unit) (float64, error) {
	from, ok := unitScale[u]
	if !ok {
		return 0, errors.Wrapf(ErrInvalidUnit, "'%s'", string(u))
	}
	to, ok := unitScale[target]
	if !ok {
		return 0, errors.Wrapf(ErrInvalidUnit, "'%s'", string(target))
	}
	return from / to, nil
}

// Quantity is a unit-tagged scalar time value or duration. Passing a
// Quantity with a zero Unit where a time-typed value is required is the
// equivalent of passing a bare number and fails validation.
type Quantity struct {
	Value float64
	Unit  Unit
}

func Q(value float64, unit Unit) Quantity { return Quantity{Value: value, Unit: unit} }

// In converts the quantity's value into the target unit.
func (q Quantity) In(target Unit) (float64, error) {
	factor, err := q.Unit.Factor(target)
	if err != nil {
		return 0, errors.WithStack(err)
	}
	return q.Value * factor, nil
}

// Series is a unit-tagged numeric array, the bare array-with-unit
// representation accepted at the analysis boundary. Observation bounds
// are supplied separately by the caller.
type Series struct {
	Values []float64
	Unit   Unit
}

package ephemeris

import (
	"errors"
	"fmt"
)

// ModelRangeLimit is the largest |T|, in Julian centuries from J2000.0,
// the truncated series are evaluated for.
const ModelRangeLimit = 100.0

var (
	// ErrModelMismatch is returned when a dataset of the wrong theory is
	// passed to an evaluator.
	ErrModelMismatch = errors.New("ephemeris model mismatch")

	// ErrOutOfRange matches both OutOfModelRangeError and OutOfRangeError.
	ErrOutOfRange = errors.New("ephemeris value out of range")
)

// ParseError reports a malformed line in a dataset file.
type ParseError struct {
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
}

// OutOfModelRangeError reports an epoch outside the span the series are
// valid for.
type OutOfModelRangeError struct {
	T     float64
	Limit float64
}

func (e *OutOfModelRangeError) Error() string {
	return fmt.Sprintf("epoch T=%.4f centuries is outside the model range ±%g", e.T, e.Limit)
}

func (e *OutOfModelRangeError) Is(target error) bool {
	return target == ErrOutOfRange
}

// OutOfRangeError reports a computed quantity outside its physical band,
// which indicates corrupt coefficients.
type OutOfRangeError struct {
	Quantity string
	Value    float64
	Min, Max float64
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("%s = %g outside [%g, %g]", e.Quantity, e.Value, e.Min, e.Max)
}

func (e *OutOfRangeError) Is(target error) bool {
	return target == ErrOutOfRange
}

func checkEpoch(t float64) error {
	if t > ModelRangeLimit || t < -ModelRangeLimit {
		return &OutOfModelRangeError{T: t, Limit: ModelRangeLimit}
	}
	return nil
}

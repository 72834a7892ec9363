package rootfind

import (
	"errors"
	"fmt"
)

// Sentinel errors for errors.Is checks.
var (
	ErrUnbracketed   = errors.New("root is not bracketed")
	ErrNoConvergence = errors.New("root finder did not converge")
)

// UnbracketedError reports an interval whose endpoints do not have
// opposite signs.
type UnbracketedError struct {
	A, B   float64
	FA, FB float64
}

func (e *UnbracketedError) Error() string {
	return fmt.Sprintf("root is not bracketed: f(%g)=%g, f(%g)=%g", e.A, e.FA, e.B, e.FB)
}

// Is lets errors.Is match ErrUnbracketed.
func (e *UnbracketedError) Is(target error) bool {
	return target == ErrUnbracketed
}

// NonConvergenceError reports an exhausted iteration budget. Best is the
// last estimate and Width the remaining bracket width.
type NonConvergenceError struct {
	Iterations int
	Best       float64
	Width      float64
}

func (e *NonConvergenceError) Error() string {
	return fmt.Sprintf("root finder did not converge after %d iterations: best=%g width=%g",
		e.Iterations, e.Best, e.Width)
}

// Is lets errors.Is match ErrNoConvergence.
func (e *NonConvergenceError) Is(target error) bool {
	return target == ErrNoConvergence
}

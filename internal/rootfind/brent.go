// Package rootfind locates roots of scalar functions with Brent's method
// and with directional bracket expansion for "next event" searches.
package rootfind

import "math"

// Func is a scalar function whose root is sought. An evaluation error
// aborts the search and is returned unchanged.
type Func func(x float64) (float64, error)

// DefaultMaxIter is the Brent iteration budget used by the directional
// searches.
const DefaultMaxIter = 1000

// Brent finds a root of f in [a, b]. f(a) and f(b) must have opposite
// signs; an endpoint where f is exactly zero is returned as the root.
// Iteration stops when |f| < tol or the bracket is narrower than tol.
func Brent(f Func, a, b, tol float64, maxIter int) (float64, error) {
	fa, err := f(a)
	if err != nil {
		return 0, err
	}
	fb, err := f(b)
	if err != nil {
		return 0, err
	}
	return brent(f, a, b, fa, fb, tol, maxIter)
}

func brent(f Func, a, b, fa, fb, tol float64, maxIter int) (float64, error) {
	switch {
	case fa == 0:
		return a, nil
	case fb == 0:
		return b, nil
	case !opposite(fa, fb):
		return 0, &UnbracketedError{A: a, B: b, FA: fa, FB: fb}
	}

	if math.Abs(fa) < math.Abs(fb) {
		a, b = b, a
		fa, fb = fb, fa
	}

	c, fc := a, fa
	d := 0.0
	bisected := true

	for range maxIter {
		if math.Abs(fb) < tol || math.Abs(b-a) < tol {
			return b, nil
		}

		var s float64
		if fa != fc && fb != fc {
			s = a*fb*fc/((fa-fb)*(fa-fc)) +
				b*fa*fc/((fb-fa)*(fb-fc)) +
				c*fa*fb/((fc-fa)*(fc-fb))
		} else {
			s = b - fb*(b-a)/(fb-fa)
		}

		if !between(s, (3*a+b)/4, b) ||
			(bisected && math.Abs(s-b) >= math.Abs(b-c)/2) ||
			(!bisected && math.Abs(s-b) >= math.Abs(c-d)/2) ||
			(bisected && math.Abs(b-c) < tol) ||
			(!bisected && math.Abs(c-d) < tol) {
			s = (a + b) / 2
			bisected = true
		} else {
			bisected = false
		}

		fs, err := f(s)
		if err != nil {
			return 0, err
		}
		if fs == 0 {
			return s, nil
		}

		d = c
		c, fc = b, fb

		if opposite(fa, fs) {
			b, fb = s, fs
		} else {
			a, fa = s, fs
		}

		if math.Abs(fa) < math.Abs(fb) {
			a, b = b, a
			fa, fb = fb, fa
		}
	}

	return 0, &NonConvergenceError{Iterations: maxIter, Best: b, Width: math.Abs(b - a)}
}

func opposite(x, y float64) bool {
	return (x < 0) != (y < 0)
}

func between(x, lo, hi float64) bool {
	if lo > hi {
		lo, hi = hi, lo
	}
	return x > lo && x < hi
}

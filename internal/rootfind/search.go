package rootfind

// MaxExpansions bounds how many steps a directional search takes before
// giving up on finding a sign change.
const MaxExpansions = 1000

// FindRootForward scans x, x+step, x+2·step, ... until f changes sign and
// then refines the last step with Brent. step must be shorter than the
// spacing of the sign changes of f, otherwise a pair of them can be
// stepped over unseen.
func FindRootForward(f Func, x, step, tol float64) (float64, error) {
	return scan(f, x, step, tol)
}

// FindRootBackward is FindRootForward in the direction of decreasing x.
func FindRootBackward(f Func, x, step, tol float64) (float64, error) {
	return scan(f, x, -step, tol)
}

func scan(f Func, x, step, tol float64) (float64, error) {
	a := x
	fa, err := f(a)
	if err != nil {
		return 0, err
	}
	if fa == 0 {
		return a, nil
	}

	fx := fa
	for k := 1; k <= MaxExpansions; k++ {
		b := x + float64(k)*step
		fb, err := f(b)
		if err != nil {
			return 0, err
		}
		if opposite(fa, fb) || fb == 0 {
			return brent(f, a, b, fa, fb, tol, DefaultMaxIter)
		}
		a, fa = b, fb
	}

	return 0, &UnbracketedError{A: x, B: a, FA: fx, FB: fa}
}

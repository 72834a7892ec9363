package events

import (
	"fmt"
	"io"
	"log/slog"
	"math"

	"github.com/zapponejosh/lunisolar-api/internal/ephemeris"
	"github.com/zapponejosh/lunisolar-api/internal/rootfind"
	"github.com/zapponejosh/lunisolar-api/internal/timescale"
)

// SynodicMonth is the mean length of a lunation in days.
const SynodicMonth = 29.530588853

const (
	termWindow = 30.0 // days either side of the estimate
	termTol    = 1e-6
	termIter   = 100
	termStep   = SynodicMonth / 2

	moonWindow = 10.0
	moonTol    = 1e-8
	moonIter   = 100
	moonStep   = SynodicMonth / 4

	// A forward search starts this many days after its origin so an event
	// exactly at the origin is not returned again.
	forwardOffset = 1e-4

	// A root whose residual exceeds wrapLimit degrees is the ±180° jump of
	// the normalised difference, not an event.
	wrapLimit       = 1.0
	maxWrapAttempts = 4
)

// Ephemeris supplies apparent geocentric positions. t is in Julian
// centuries TDB from J2000.0. *ephemeris.Oracle implements it.
type Ephemeris interface {
	Sun(t float64) (ephemeris.Coordinate, error)
	Moon(t float64) (ephemeris.Coordinate, error)
}

// Locator finds solar terms and new moons. Every instant it returns is on
// the TDB scale; instants passed in are converted to TDB first.
type Locator struct {
	eph    Ephemeris
	logger *slog.Logger
}

// Option configures a Locator.
type Option func(*Locator)

// WithLogger sets the logger used for search diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(loc *Locator) {
		if l != nil {
			loc.logger = l
		}
	}
}

// NewLocator creates a Locator backed by eph.
func NewLocator(eph Ephemeris, opts ...Option) *Locator {
	loc := &Locator{
		eph:    eph,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(loc)
	}
	return loc
}

// NormalizeDegrees maps d into (-180, 180].
func NormalizeDegrees(d float64) float64 {
	d = math.Mod(d, 360)
	if d > 180 {
		d -= 360
	} else if d <= -180 {
		d += 360
	}
	return d
}

// SolarLongitude returns the apparent longitude of the Sun in [0, 360).
func (l *Locator) SolarLongitude(i timescale.Instant) (float64, error) {
	c, err := l.eph.Sun(tdb(i).Centuries())
	if err != nil {
		return 0, err
	}
	return c.Longitude, nil
}

// Elongation returns the Moon's longitude minus the Sun's, normalised to
// (-180, 180]. It is zero at new moon.
func (l *Locator) Elongation(i timescale.Instant) (float64, error) {
	return l.elongation(tdb(i).Days())
}

// FindSolarTerm locates term within 30 days of around.
func (l *Locator) FindSolarTerm(term SolarTerm, around timescale.Instant) (timescale.Instant, error) {
	if !term.Valid() {
		return timescale.Instant{}, fmt.Errorf("invalid solar term %d", int(term))
	}
	f := l.termFunc(term)
	x := tdb(around).Days()

	root, err := rootfind.Brent(f, x-termWindow, x+termWindow, termTol, termIter)
	if err != nil {
		return timescale.Instant{}, fmt.Errorf("find %s near %s: %w", term, around, err)
	}
	if err := l.checkResidual(f, root, x-termWindow, x+termWindow); err != nil {
		return timescale.Instant{}, fmt.Errorf("find %s near %s: %w", term, around, err)
	}
	return at(root), nil
}

// FindSolarTermForward returns the first occurrence of term strictly
// after from.
func (l *Locator) FindSolarTermForward(from timescale.Instant, term SolarTerm) (timescale.Instant, error) {
	if !term.Valid() {
		return timescale.Instant{}, fmt.Errorf("invalid solar term %d", int(term))
	}
	root, err := l.search(l.termFunc(term), tdb(from).Days(), termStep, termTol, true)
	if err != nil {
		return timescale.Instant{}, fmt.Errorf("next %s after %s: %w", term, from, err)
	}
	return at(root), nil
}

// FindSolarTermBackward returns the last occurrence of term at or before
// from.
func (l *Locator) FindSolarTermBackward(from timescale.Instant, term SolarTerm) (timescale.Instant, error) {
	if !term.Valid() {
		return timescale.Instant{}, fmt.Errorf("invalid solar term %d", int(term))
	}
	root, err := l.search(l.termFunc(term), tdb(from).Days(), termStep, termTol, false)
	if err != nil {
		return timescale.Instant{}, fmt.Errorf("previous %s before %s: %w", term, from, err)
	}
	return at(root), nil
}

// FindNewMoon locates the new moon within 10 days of around.
func (l *Locator) FindNewMoon(around timescale.Instant) (timescale.Instant, error) {
	x := tdb(around).Days()
	root, err := rootfind.Brent(l.elongation, x-moonWindow, x+moonWindow, moonTol, moonIter)
	if err != nil {
		return timescale.Instant{}, fmt.Errorf("find new moon near %s: %w", around, err)
	}
	if err := l.checkResidual(l.elongation, root, x-moonWindow, x+moonWindow); err != nil {
		return timescale.Instant{}, fmt.Errorf("find new moon near %s: %w", around, err)
	}
	return at(root), nil
}

// FindNextNewMoon returns the first new moon strictly after from.
func (l *Locator) FindNextNewMoon(from timescale.Instant) (timescale.Instant, error) {
	root, err := l.search(l.elongation, tdb(from).Days(), moonStep, moonTol, true)
	if err != nil {
		return timescale.Instant{}, fmt.Errorf("next new moon after %s: %w", from, err)
	}
	return at(root), nil
}

// FindPrevNewMoon returns the last new moon at or before from.
func (l *Locator) FindPrevNewMoon(from timescale.Instant) (timescale.Instant, error) {
	root, err := l.search(l.elongation, tdb(from).Days(), moonStep, moonTol, false)
	if err != nil {
		return timescale.Instant{}, fmt.Errorf("previous new moon before %s: %w", from, err)
	}
	return at(root), nil
}

// SolarTermsBetween returns every term in [from, to), in order.
func (l *Locator) SolarTermsBetween(from, to timescale.Instant) ([]TermEvent, error) {
	start, end := tdb(from), tdb(to)
	lon, err := l.SolarLongitude(start)
	if err != nil {
		return nil, err
	}

	// The last term at or before start, then walk forward.
	term := SolarTerm(int(math.Floor(lon/15)) % TermCount)
	cur, err := l.FindSolarTermBackward(start, term)
	if err != nil {
		return nil, err
	}

	var out []TermEvent
	for cur.JD < end.JD {
		if cur.JD >= start.JD {
			out = append(out, TermEvent{Term: term, Instant: cur})
		}
		term = term.Next()
		if cur, err = l.FindSolarTermForward(cur, term); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// NewMoonsBetween returns every new moon in [from, to), in order.
func (l *Locator) NewMoonsBetween(from, to timescale.Instant) ([]timescale.Instant, error) {
	start, end := tdb(from), tdb(to)
	cur, err := l.FindPrevNewMoon(start)
	if err != nil {
		return nil, err
	}

	var out []timescale.Instant
	for cur.JD < end.JD {
		if cur.JD >= start.JD {
			out = append(out, cur)
		}
		if cur, err = l.FindNextNewMoon(cur); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (l *Locator) termFunc(term SolarTerm) rootfind.Func {
	target := term.Longitude()
	return func(days float64) (float64, error) {
		c, err := l.eph.Sun(days / timescale.DaysPerCentury)
		if err != nil {
			return 0, err
		}
		return NormalizeDegrees(c.Longitude - target), nil
	}
}

func (l *Locator) elongation(days float64) (float64, error) {
	t := days / timescale.DaysPerCentury
	sun, err := l.eph.Sun(t)
	if err != nil {
		return 0, err
	}
	moon, err := l.eph.Moon(t)
	if err != nil {
		return 0, err
	}
	return NormalizeDegrees(moon.Longitude - sun.Longitude), nil
}

// search runs a directional root search and skips roots that are the
// ±180° discontinuity of f rather than a true zero.
func (l *Locator) search(f rootfind.Func, x, step, tol float64, forward bool) (float64, error) {
	origin := x
	if forward {
		x += forwardOffset
	}

	for attempt := 0; attempt < maxWrapAttempts; attempt++ {
		var root float64
		var err error
		if forward {
			root, err = rootfind.FindRootForward(f, x, step, tol)
		} else {
			root, err = rootfind.FindRootBackward(f, x, step, tol)
		}
		if err != nil {
			return 0, err
		}

		residual, err := f(root)
		if err != nil {
			return 0, err
		}
		if math.Abs(residual) <= wrapLimit {
			return root, nil
		}

		l.logger.Debug("skipping longitude wrap",
			"days", root,
			"residual", residual,
			"attempt", attempt+1,
		)
		if forward {
			x = root + forwardOffset
		} else {
			x = root - forwardOffset
		}
	}

	fa, _ := f(origin)
	fb, _ := f(x)
	return 0, &rootfind.UnbracketedError{A: origin, B: x, FA: fa, FB: fb}
}

func (l *Locator) checkResidual(f rootfind.Func, root, a, b float64) error {
	residual, err := f(root)
	if err != nil {
		return err
	}
	if math.Abs(residual) > wrapLimit {
		fa, _ := f(a)
		fb, _ := f(b)
		return &rootfind.UnbracketedError{A: a, B: b, FA: fa, FB: fb}
	}
	return nil
}

func tdb(i timescale.Instant) timescale.Instant {
	return timescale.Convert(i, timescale.TDB)
}

func at(days float64) timescale.Instant {
	return timescale.New(timescale.J2000+days, timescale.TDB)
}

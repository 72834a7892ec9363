// Package timescale represents astronomical instants as Julian Days tagged
// with a time scale and converts them between UTC, TAI, TT and TDB.
package timescale

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// Scale identifies the time scale an Instant is expressed in.
type Scale int

// Supported time scales, ordered along the conversion chain.
const (
	UTC Scale = iota
	TAI
	TT
	TDB
)

// Epoch and unit constants.
const (
	// J2000 is the Julian Day of 2000-01-01 12:00 TT.
	J2000 = 2451545.0

	// DaysPerCentury is the length of a Julian century in days.
	DaysPerCentury = 36525.0

	// SecondsPerDay converts between day fractions and SI seconds.
	SecondsPerDay = 86400.0

	// TTMinusTAI is the fixed TT - TAI offset in seconds.
	TTMinusTAI = 32.184
)

const (
	newtonTolerance = 1e-12 // days
	newtonMaxIter   = 10
	utcMaxIter      = 10
)

// ErrScaleMismatch is returned when two instants on different scales are
// combined without an explicit conversion.
var ErrScaleMismatch = errors.New("instants are on different time scales")

var scaleNames = map[Scale]string{
	UTC: "UTC",
	TAI: "TAI",
	TT:  "TT",
	TDB: "TDB",
}

func (s Scale) String() string {
	if name, ok := scaleNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Scale(%d)", int(s))
}

// ParseScale converts a scale name (case-insensitive) to a Scale.
func ParseScale(name string) (Scale, error) {
	for s, n := range scaleNames {
		if strings.EqualFold(n, name) {
			return s, nil
		}
	}
	return 0, fmt.Errorf("unknown time scale %q", name)
}

// Instant is a Julian Day on a specific time scale. It is a value type;
// every operation returns a new Instant.
type Instant struct {
	JD    float64
	Scale Scale
}

// New creates an Instant.
func New(jd float64, scale Scale) Instant {
	return Instant{JD: jd, Scale: scale}
}

// FromCenturies creates an Instant from Julian centuries since J2000.0.
func FromCenturies(t float64, scale Scale) Instant {
	return Instant{JD: J2000 + t*DaysPerCentury, Scale: scale}
}

// Add returns the instant shifted by the given number of days.
func (i Instant) Add(days float64) Instant {
	return Instant{JD: i.JD + days, Scale: i.Scale}
}

// Sub returns i - o in days. Both instants must share a scale.
func (i Instant) Sub(o Instant) (float64, error) {
	if i.Scale != o.Scale {
		return 0, fmt.Errorf("%w: %s and %s", ErrScaleMismatch, i.Scale, o.Scale)
	}
	return i.JD - o.JD, nil
}

// Days returns days elapsed since J2000.0 on the instant's own scale.
func (i Instant) Days() float64 {
	return i.JD - J2000
}

// Centuries returns Julian centuries elapsed since J2000.0.
func (i Instant) Centuries() float64 {
	return (i.JD - J2000) / DaysPerCentury
}

// To converts the instant to another scale.
func (i Instant) To(scale Scale) Instant {
	return Convert(i, scale)
}

func (i Instant) String() string {
	return fmt.Sprintf("JD %.6f %s", i.JD, i.Scale)
}

// Convert moves an instant to the target scale by walking the chain
// UTC <-> TAI <-> TT <-> TDB one hop at a time.
func Convert(i Instant, to Scale) Instant {
	for i.Scale != to {
		if i.Scale < to {
			i = up(i)
		} else {
			i = down(i)
		}
	}
	return i
}

func up(i Instant) Instant {
	switch i.Scale {
	case UTC:
		return Instant{JD: utcToTAI(i.JD), Scale: TAI}
	case TAI:
		return Instant{JD: i.JD + TTMinusTAI/SecondsPerDay, Scale: TT}
	case TT:
		return Instant{JD: ttToTDB(i.JD), Scale: TDB}
	}
	panic(fmt.Sprintf("timescale: no scale above %s", i.Scale))
}

func down(i Instant) Instant {
	switch i.Scale {
	case TDB:
		return Instant{JD: tdbToTT(i.JD), Scale: TT}
	case TT:
		return Instant{JD: i.JD - TTMinusTAI/SecondsPerDay, Scale: TAI}
	case TAI:
		return Instant{JD: taiToUTC(i.JD), Scale: UTC}
	}
	panic(fmt.Sprintf("timescale: no scale below %s", i.Scale))
}

// utcToTAI applies ΔT evaluated at the UTC instant.
func utcToTAI(jd float64) float64 {
	return jd + DeltaT(DecimalYear(jd))/SecondsPerDay
}

// taiToUTC inverts utcToTAI. ΔT changes by well under a second per year, so
// the fixed-point iteration settles in two or three rounds.
//
// Where ΔT drops at a segment boundary (1900 loses 0.088 s), TAI instants
// within the drop have two UTC preimages and the iteration settles on the
// one its first estimate falls beside. At 1900, where ΔT is negative, that
// is the earlier one, so UTC instants in the first 0.088 s of 1900 come
// back that much early. Everywhere else the round trip is exact.
func taiToUTC(jd float64) float64 {
	utc := jd - DeltaT(DecimalYear(jd))/SecondsPerDay
	for range utcMaxIter {
		next := jd - DeltaT(DecimalYear(utc))/SecondsPerDay
		if math.Abs(next-utc) < newtonTolerance {
			return next
		}
		utc = next
	}
	return utc
}

// meanAnomaly returns the Earth's mean anomaly g in radians for a TT Julian Day.
func meanAnomaly(jd float64) float64 {
	t := (jd - J2000) / DaysPerCentury
	return (357.528 + 35999.05*t) * math.Pi / 180
}

// tdbOffset returns TDB - TT in days for a TT Julian Day.
func tdbOffset(jd float64) float64 {
	g := meanAnomaly(jd)
	return 0.001658 * math.Sin(g+0.0167*math.Sin(g)) / SecondsPerDay
}

// tdbOffsetRate is d(tdbOffset)/d(jd), used by the Newton step.
func tdbOffsetRate(jd float64) float64 {
	g := meanAnomaly(jd)
	dg := 35999.05 * math.Pi / 180 / DaysPerCentury
	return 0.001658 * math.Cos(g+0.0167*math.Sin(g)) * (1 + 0.0167*math.Cos(g)) * dg / SecondsPerDay
}

func ttToTDB(jd float64) float64 {
	return jd + tdbOffset(jd)
}

// tdbToTT solves tt + tdbOffset(tt) = tdb by Newton iteration.
func tdbToTT(tdb float64) float64 {
	tt := tdb
	for range newtonMaxIter {
		h := tt + tdbOffset(tt) - tdb
		delta := h / (1 + tdbOffsetRate(tt))
		tt -= delta
		if math.Abs(delta) < newtonTolerance {
			break
		}
	}
	return tt
}

package timescale

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/carlosjhr64/jd"
)

// MinCivilYear is the earliest year the integer day-number formulas handle.
const MinCivilYear = -4712

// ErrCivilRange is returned for civil dates before MinCivilYear.
var ErrCivilRange = errors.New("civil date outside supported range")

// FromTime converts a civil time to a UTC Instant. Any location on t is
// honoured by first moving it to UTC.
func FromTime(t time.Time) (Instant, error) {
	u := t.UTC()
	if u.Year() < MinCivilYear {
		return Instant{}, fmt.Errorf("%w: year %d", ErrCivilRange, u.Year())
	}

	jdn := jd.YMD2J(u.Year(), int(u.Month()), u.Day())
	seconds := float64(u.Hour()*3600+u.Minute()*60+u.Second()) + float64(u.Nanosecond())/1e9

	return Instant{JD: float64(jdn) - 0.5 + seconds/SecondsPerDay, Scale: UTC}, nil
}

// ToTime converts an Instant to a UTC civil time, rounded to the
// millisecond.
func ToTime(i Instant) (time.Time, error) {
	x := Convert(i, UTC).JD + 0.5
	jdn := math.Floor(x)
	if jdn < 0 {
		return time.Time{}, fmt.Errorf("%w: JD %.5f", ErrCivilRange, i.JD)
	}

	y, m, d := jd.J2YMD(int(jdn))
	millis := math.Round((x - jdn) * SecondsPerDay * 1000)

	midnight := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	return midnight.Add(time.Duration(millis) * time.Millisecond), nil
}

// DayNumber returns the Julian Day Number of the civil day, in loc, that
// contains the instant.
func DayNumber(i Instant, loc *time.Location) (int, error) {
	t, err := ToTime(i)
	if err != nil {
		return 0, err
	}
	t = t.In(loc)
	return jd.YMD2J(t.Year(), int(t.Month()), t.Day()), nil
}

// DayStart returns the UTC instant of local midnight, in loc, opening the
// civil day with the given Julian Day Number.
func DayStart(day int, loc *time.Location) (Instant, error) {
	y, m, d := jd.J2YMD(day)
	return FromTime(time.Date(y, time.Month(m), d, 0, 0, 0, 0, loc))
}

// DateString formats a Julian Day Number as YYYY-MM-DD.
func DateString(day int) string {
	y, m, d := jd.J2YMD(day)
	return fmt.Sprintf("%04d-%02d-%02d", y, m, d)
}

// CivilDate returns the year, month and day of a Julian Day Number.
func CivilDate(day int) (year int, month time.Month, dom int) {
	y, m, d := jd.J2YMD(day)
	return y, time.Month(m), d
}

// DayNumberOf returns the Julian Day Number of a civil date.
func DayNumberOf(year int, month time.Month, day int) int {
	return jd.YMD2J(year, int(month), day)
}

// ParseDate parses a YYYY-MM-DD string into a Julian Day Number.
func ParseDate(s string) (int, error) {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return 0, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return DayNumberOf(t.Year(), t.Month(), t.Day()), nil
}

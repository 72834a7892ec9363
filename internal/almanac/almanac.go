// Package almanac describes a civil day: its lunar date, the names used
// for it, the solar term falling on it and, for a given place, the times
// of sunrise and sunset.
package almanac

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/nathan-osman/go-sunrise"

	"github.com/zapponejosh/lunisolar-api/internal/calendar"
	"github.com/zapponejosh/lunisolar-api/internal/events"
	"github.com/zapponejosh/lunisolar-api/internal/timescale"
)

// ErrInvalidPlace is returned for coordinates outside the valid range.
var ErrInvalidPlace = errors.New("invalid coordinates")

// Place is a point on the Earth in decimal degrees, east and north
// positive.
type Place struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Validate checks the coordinates.
func (p Place) Validate() error {
	if math.IsNaN(p.Latitude) || p.Latitude < -90 || p.Latitude > 90 {
		return fmt.Errorf("%w: latitude %g", ErrInvalidPlace, p.Latitude)
	}
	if math.IsNaN(p.Longitude) || p.Longitude < -180 || p.Longitude > 180 {
		return fmt.Errorf("%w: longitude %g", ErrInvalidPlace, p.Longitude)
	}
	return nil
}

// Term is a solar term that begins on the described day.
type Term struct {
	Index       int       `json:"index"`
	Name        string    `json:"name"`
	ChineseName string    `json:"chinese_name"`
	Longitude   float64   `json:"longitude"`
	Major       bool      `json:"major"`
	Time        time.Time `json:"time"`
}

// Sun holds sunrise and sunset for a place. Either is nil when the sun
// does not cross the horizon that day.
type Sun struct {
	Place   Place      `json:"place"`
	Sunrise *time.Time `json:"sunrise,omitempty"`
	Sunset  *time.Time `json:"sunset,omitempty"`
}

// DayInfo is the almanac entry for one civil day.
type DayInfo struct {
	Date        string             `json:"date"`
	Lunar       calendar.LunarDate `json:"lunar"`
	Display     string             `json:"display"`
	MonthName   string             `json:"month_name"`
	DayName     string             `json:"day_name"`
	YearName    string             `json:"year_name"`
	Zodiac      string             `json:"zodiac"`
	Description string             `json:"description"`
	Term        *Term              `json:"solar_term,omitempty"`
	Sun         *Sun               `json:"sun,omitempty"`
}

// Almanac builds DayInfo values on top of a Resolver.
type Almanac struct {
	resolver *calendar.Resolver
}

// New creates an Almanac.
func New(r *calendar.Resolver) *Almanac {
	return &Almanac{resolver: r}
}

// Day describes the civil day containing t in the calendar zone. place is
// optional.
func (a *Almanac) Day(ctx context.Context, t time.Time, place *Place, locale calendar.Locale) (*DayInfo, error) {
	if place != nil {
		if err := place.Validate(); err != nil {
			return nil, err
		}
	}

	zone := a.resolver.Zone()
	local := t.In(zone)

	ld, err := a.resolver.Resolve(ctx, local)
	if err != nil {
		return nil, err
	}

	info := &DayInfo{
		Date:        local.Format(time.DateOnly),
		Lunar:       ld,
		Display:     ld.String(),
		MonthName:   calendar.MonthName(ld.Month, ld.IsLeap, locale),
		DayName:     calendar.DayName(ld.Day, locale),
		YearName:    calendar.YearName(ld.Year, locale),
		Zodiac:      calendar.Zodiac(ld.Year, locale),
		Description: calendar.Describe(ld, locale),
	}

	term, err := a.termOn(ctx, local)
	if err != nil {
		return nil, err
	}
	info.Term = term

	if place != nil {
		info.Sun = sunTimes(*place, local, zone)
	}
	return info, nil
}

// termOn returns the solar term whose instant falls on the civil day of
// local, if any.
func (a *Almanac) termOn(ctx context.Context, local time.Time) (*Term, error) {
	terms, err := a.resolver.Terms(ctx, local.Year())
	if err != nil {
		return nil, fmt.Errorf("solar terms %d: %w", local.Year(), err)
	}

	today := timescale.DayNumberOf(local.Year(), local.Month(), local.Day())
	for _, te := range terms {
		day, err := timescale.DayNumber(te.Instant, local.Location())
		if err != nil || day != today {
			continue
		}
		at, err := timescale.ToTime(te.Instant)
		if err != nil {
			return nil, err
		}
		return newTerm(te.Term, at.In(local.Location())), nil
	}
	return nil, nil
}

func newTerm(st events.SolarTerm, at time.Time) *Term {
	return &Term{
		Index:       int(st),
		Name:        st.Name(),
		ChineseName: st.ChineseName(),
		Longitude:   st.Longitude(),
		Major:       st.IsMajor(),
		Time:        at,
	}
}

// sunTimes uses the Gregorian date of local; go-sunrise returns zero
// times during polar day and night.
func sunTimes(p Place, local time.Time, zone *time.Location) *Sun {
	rise, set := sunrise.SunriseSunset(p.Latitude, p.Longitude, local.Year(), local.Month(), local.Day())

	s := &Sun{Place: p}
	if !rise.IsZero() {
		r := rise.In(zone)
		s.Sunrise = &r
	}
	if !set.IsZero() {
		v := set.In(zone)
		s.Sunset = &v
	}
	return s
}

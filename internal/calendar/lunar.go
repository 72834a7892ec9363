// Package calendar assembles Chinese lunisolar years from solar terms and
// new moons and converts Gregorian dates to lunar dates.
//
// Month and day boundaries are civil days in the calendar zone, UTC+8 by
// default. The month containing the winter solstice is month 11; a sui
// (month 11 to the next month 11) of 13 lunations gets one leap month, the
// first lunation without a major term.
package calendar

import (
	"fmt"

	"github.com/zapponejosh/lunisolar-api/internal/timescale"
)

// LunarDate is a date in the lunisolar calendar. Hour, Minute and Second
// are the wall-clock time in the calendar zone.
type LunarDate struct {
	Year   int  `json:"year"`
	Month  int  `json:"month"`
	Day    int  `json:"day"`
	Hour   int  `json:"hour"`
	Minute int  `json:"minute"`
	Second int  `json:"second"`
	IsLeap bool `json:"is_leap"`
}

// String formats the date as YYYY-MM-DD hh:mm:ss, with an L before the
// month of a leap month.
func (d LunarDate) String() string {
	leap := ""
	if d.IsLeap {
		leap = "L"
	}
	return fmt.Sprintf("%04d-%s%02d-%02d %02d:%02d:%02d", d.Year, leap, d.Month, d.Day, d.Hour, d.Minute, d.Second)
}

// MonthEntry is one lunar month. Start is the new moon opening it and
// FirstDay the Julian Day Number of its first civil day.
type MonthEntry struct {
	Start    timescale.Instant
	Date     string
	FirstDay int
	Number   int
	IsLeap   bool
	Days     int
}

// Year is a lunar year from month 1 up to the next month 1. End is the new
// moon that opens the following year.
type Year struct {
	Year   int
	Months []MonthEntry
	End    timescale.Instant
}

// Leap returns the leap month of the year, if any.
func (y *Year) Leap() (MonthEntry, bool) {
	for _, m := range y.Months {
		if m.IsLeap {
			return m, true
		}
	}
	return MonthEntry{}, false
}

// Contains returns the month holding the civil day, if it belongs to y.
func (y *Year) Contains(day int) (MonthEntry, bool) {
	for i := len(y.Months) - 1; i >= 0; i-- {
		m := y.Months[i]
		if m.FirstDay <= day {
			if day < m.FirstDay+m.Days {
				return m, true
			}
			return MonthEntry{}, false
		}
	}
	return MonthEntry{}, false
}

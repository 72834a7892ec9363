package calendar

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/zapponejosh/lunisolar-api/internal/ephemeris"
	"github.com/zapponejosh/lunisolar-api/internal/events"
	"github.com/zapponejosh/lunisolar-api/internal/timescale"
)

// DefaultZone is the civil zone the Chinese calendar is reckoned in.
var DefaultZone = time.FixedZone("UTC+8", 8*3600)

// ErrOutOfRange is returned for dates the assembler cannot handle.
var ErrOutOfRange = errors.New("date outside supported range")

// Assembler builds lunar years from a Locator.
type Assembler struct {
	loc    *events.Locator
	zone   *time.Location
	logger *slog.Logger

	mu   sync.Mutex
	memo map[int]*sui
}

// Option configures an Assembler.
type Option func(*Assembler)

// WithZone sets the civil zone month and day boundaries are taken in.
func WithZone(zone *time.Location) Option {
	return func(a *Assembler) {
		if zone != nil {
			a.zone = zone
		}
	}
}

// WithLogger sets the assembler's logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *Assembler) {
		if l != nil {
			a.logger = l
		}
	}
}

// NewAssembler creates an Assembler using loc for event searches.
func NewAssembler(loc *events.Locator, opts ...Option) *Assembler {
	a := &Assembler{
		loc:    loc,
		zone:   DefaultZone,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		memo:   make(map[int]*sui),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// FromSet builds an Assembler, and the Locator beneath it, over a loaded
// dataset set.
func FromSet(set *ephemeris.Set, logger *slog.Logger, opts ...Option) (*Assembler, error) {
	oracle, err := ephemeris.NewOracle(set)
	if err != nil {
		return nil, err
	}
	loc := events.NewLocator(oracle, events.WithLogger(logger))
	return NewAssembler(loc, append([]Option{WithLogger(logger)}, opts...)...), nil
}

// Zone returns the calendar zone.
func (a *Assembler) Zone() *time.Location {
	return a.zone
}

// GregorianToLunar converts a civil time to a lunar date.
func GregorianToLunar(t time.Time, solar, lunarR, lunarV, lunarU *ephemeris.Dataset) (LunarDate, error) {
	oracle, err := ephemeris.NewOracle(&ephemeris.Set{
		Solar:  solar,
		LunarR: lunarR,
		LunarV: lunarV,
		LunarU: lunarU,
	})
	if err != nil {
		return LunarDate{}, err
	}
	return NewAssembler(events.NewLocator(oracle)).GregorianToLunar(t)
}

// GregorianToLunar converts a civil time to a lunar date.
func (a *Assembler) GregorianToLunar(t time.Time) (LunarDate, error) {
	local := t.In(a.zone)
	if local.Year() <= timescale.MinCivilYear {
		return LunarDate{}, fmt.Errorf("%w: year %d", ErrOutOfRange, local.Year())
	}
	day := timescale.DayNumberOf(local.Year(), local.Month(), local.Day())

	y, err := a.yearContaining(day)
	if err != nil {
		return LunarDate{}, fmt.Errorf("convert %s: %w", local.Format(time.DateOnly), err)
	}

	m, ok := y.Contains(day)
	if !ok {
		return LunarDate{}, fmt.Errorf("convert %s: no month contains the day", local.Format(time.DateOnly))
	}

	return LunarDate{
		Year:   y.Year,
		Month:  m.Number,
		Day:    day - m.FirstDay + 1,
		Hour:   local.Hour(),
		Minute: local.Minute(),
		Second: local.Second(),
		IsLeap: m.IsLeap,
	}, nil
}

// LunarYear returns the month table of the lunar year whose month 1
// begins in the given Gregorian year.
func (a *Assembler) LunarYear(year int) (*Year, error) {
	if year <= timescale.MinCivilYear {
		return nil, fmt.Errorf("%w: year %d", ErrOutOfRange, year)
	}

	// Month 1 starts between late January and late February, so 1 June is
	// always inside the lunar year that shares its number.
	y, err := a.yearContaining(timescale.DayNumberOf(year, time.June, 1))
	if err != nil {
		return nil, fmt.Errorf("lunar year %d: %w", year, err)
	}
	if y.Year != year {
		return nil, fmt.Errorf("lunar year %d: assembled year %d", year, y.Year)
	}
	return y, nil
}

// SolarTerms returns the solar terms falling in a Gregorian year, with
// year boundaries taken in the calendar zone.
func (a *Assembler) SolarTerms(year int) ([]events.TermEvent, error) {
	if year <= timescale.MinCivilYear {
		return nil, fmt.Errorf("%w: year %d", ErrOutOfRange, year)
	}
	from, err := timescale.DayStart(timescale.DayNumberOf(year, time.January, 1), a.zone)
	if err != nil {
		return nil, err
	}
	to, err := timescale.DayStart(timescale.DayNumberOf(year+1, time.January, 1), a.zone)
	if err != nil {
		return nil, err
	}

	terms, err := a.loc.SolarTermsBetween(from, to)
	if err != nil {
		return nil, fmt.Errorf("solar terms %d: %w", year, err)
	}
	return terms, nil
}

// yearContaining assembles the lunar year, month 1 to month 1, holding
// the civil day.
func (a *Assembler) yearContaining(day int) (*Year, error) {
	midnight, err := timescale.DayStart(day+1, a.zone)
	if err != nil {
		return nil, err
	}

	// ============================================================================
	// 1. LEFT SOLSTICE - last winter solstice by the end of the day
	// ============================================================================
	ws, err := a.loc.FindSolarTermBackward(midnight.Add(-endOfDay), events.WinterSolstice)
	if err != nil {
		return nil, err
	}
	s, err := a.suiFor(ws)
	if err != nil {
		return nil, err
	}

	// Days between the next month 11 and the next solstice belong to the
	// following sui.
	if day >= s.nextDay {
		if s, err = a.suiFor(s.nextWS); err != nil {
			return nil, err
		}
	}

	// ============================================================================
	// 2. FORWARD OR BACKWARD - month 1 of this sui or of the previous one
	// ============================================================================
	i1 := s.firstMonth()
	if i1 >= len(s.months) {
		return nil, fmt.Errorf("sui %s has no first month", s.months[0].Date)
	}

	var head, tail []MonthEntry
	var end timescale.Instant

	if day >= s.months[i1].FirstDay {
		next, err := a.suiFor(s.nextWS)
		if err != nil {
			return nil, err
		}
		j1 := next.firstMonth()
		if j1 >= len(next.months) {
			return nil, fmt.Errorf("sui %s has no first month", next.months[0].Date)
		}
		head, tail = s.months[i1:], next.months[:j1]
		end = next.months[j1].Start
	} else {
		prevWS, err := a.loc.FindSolarTermBackward(s.solstice.Add(-1), events.WinterSolstice)
		if err != nil {
			return nil, err
		}
		prev, err := a.suiFor(prevWS)
		if err != nil {
			return nil, err
		}
		p1 := prev.firstMonth()
		if p1 >= len(prev.months) {
			return nil, fmt.Errorf("sui %s has no first month", prev.months[0].Date)
		}
		head, tail = prev.months[p1:], s.months[:i1]
		end = s.months[i1].Start
	}

	// ============================================================================
	// 3. TABLE - at most one leap month per year
	// ============================================================================
	months, err := joinMonths(head, tail)
	if err != nil {
		return nil, err
	}

	year, _, _ := timescale.CivilDate(months[0].FirstDay)
	return &Year{Year: year, Months: months, End: end}, nil
}

// joinMonths concatenates the two sui parts of a lunar year. Each sui may
// hold a leap month, but a year may not hold two.
func joinMonths(head, tail []MonthEntry) ([]MonthEntry, error) {
	months := make([]MonthEntry, 0, len(head)+len(tail))
	months = append(months, head...)
	months = append(months, tail...)
	if len(months) == 0 {
		return nil, errors.New("lunar year has no months")
	}

	leap := -1
	for i, m := range months {
		if !m.IsLeap {
			continue
		}
		if leap >= 0 {
			return nil, fmt.Errorf("lunar year from %s has leap months %d and %d",
				months[0].Date, months[leap].Number, m.Number)
		}
		leap = i
	}
	return months, nil
}

func (a *Assembler) day(i timescale.Instant) (int, error) {
	return timescale.DayNumber(i, a.zone)
}

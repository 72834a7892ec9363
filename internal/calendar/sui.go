package calendar

import (
	"fmt"

	"github.com/zapponejosh/lunisolar-api/internal/events"
	"github.com/zapponejosh/lunisolar-api/internal/timescale"
)

// endOfDay is subtracted from the next local midnight to get an instant
// still inside the civil day.
const endOfDay = 1e-7

// maxCachedSui bounds the assembler's sui memo.
const maxCachedSui = 64

// sui is the run of lunations from the month containing one winter
// solstice up to the month containing the next.
type sui struct {
	solstice timescale.Instant
	nextWS   timescale.Instant
	months   []MonthEntry
	nextDay  int // first civil day of the following month 11
}

// firstMonth returns the index of the non-leap month numbered 1.
func (s *sui) firstMonth() int {
	for i, m := range s.months {
		if m.Number == 1 && !m.IsLeap {
			return i
		}
	}
	return len(s.months)
}

// suiFor returns the sui opened by the winter solstice ws, building it on
// first use.
func (a *Assembler) suiFor(ws timescale.Instant) (*sui, error) {
	wsDay, err := a.day(ws)
	if err != nil {
		return nil, err
	}

	a.mu.Lock()
	s, ok := a.memo[wsDay]
	a.mu.Unlock()
	if ok {
		return s, nil
	}

	s, err = a.buildSui(ws, wsDay)
	if err != nil {
		return nil, err
	}

	a.mu.Lock()
	if len(a.memo) >= maxCachedSui {
		clear(a.memo)
	}
	a.memo[wsDay] = s
	a.mu.Unlock()
	return s, nil
}

func (a *Assembler) buildSui(ws timescale.Instant, wsDay int) (*sui, error) {
	// ============================================================================
	// 1. MAJOR TERMS - the solstice and the 11 that follow it
	// ============================================================================
	majors := []int{wsDay}
	cur, term := ws, events.WinterSolstice
	for k := 1; k < events.TermCount; k++ {
		term = term.Next()
		next, err := a.loc.FindSolarTermForward(cur, term)
		if err != nil {
			return nil, fmt.Errorf("sui %s: %w", timescale.DateString(wsDay), err)
		}
		cur = next
		if term.IsMajor() {
			d, err := a.day(cur)
			if err != nil {
				return nil, err
			}
			majors = append(majors, d)
		}
	}
	nextWS, err := a.loc.FindSolarTermForward(cur, events.WinterSolstice)
	if err != nil {
		return nil, fmt.Errorf("sui %s: %w", timescale.DateString(wsDay), err)
	}
	nextWSDay, err := a.day(nextWS)
	if err != nil {
		return nil, err
	}

	// ============================================================================
	// 2. MONTH 11 BOUNDARIES - new moons on or before each solstice day
	// ============================================================================
	m11, err := a.newMoonOnOrBefore(wsDay)
	if err != nil {
		return nil, err
	}
	m11Next, err := a.newMoonOnOrBefore(nextWSDay)
	if err != nil {
		return nil, err
	}
	nextDay, err := a.day(m11Next)
	if err != nil {
		return nil, err
	}

	// ============================================================================
	// 3. LUNATIONS - every new moon whose civil day is before nextDay
	// ============================================================================
	first, err := a.day(m11)
	if err != nil {
		return nil, err
	}
	starts := []timescale.Instant{m11}
	days := []int{first}

	for moon := m11; ; {
		moon, err = a.loc.FindNextNewMoon(moon)
		if err != nil {
			return nil, fmt.Errorf("sui %s: %w", timescale.DateString(wsDay), err)
		}
		d, err := a.day(moon)
		if err != nil {
			return nil, err
		}
		if d >= nextDay {
			break
		}
		starts = append(starts, moon)
		days = append(days, d)
		if len(starts) > 13 {
			break
		}
	}

	count := len(starts)
	if count != 12 && count != 13 {
		return nil, fmt.Errorf("sui %s has %d lunations", timescale.DateString(wsDay), count)
	}
	days = append(days, nextDay)

	// ============================================================================
	// 4. LEAP MONTH - first lunation without a major term, 13-month sui only
	// ============================================================================
	leap := -1
	if count == 13 {
		for i := 1; i < count; i++ {
			if !hasMajor(majors, days[i], days[i+1]) {
				leap = i
				break
			}
		}
		if leap < 0 {
			return nil, fmt.Errorf("sui %s has 13 lunations but every one holds a major term", timescale.DateString(wsDay))
		}
	}

	// ============================================================================
	// 5. NUMBERING - month 11 first, a leap month repeats its predecessor
	// ============================================================================
	months := make([]MonthEntry, count)
	number := 11
	for i := range count {
		if i > 0 && i != leap {
			number = number%12 + 1
		}
		months[i] = MonthEntry{
			Start:    starts[i],
			Date:     timescale.DateString(days[i]),
			FirstDay: days[i],
			Number:   number,
			IsLeap:   i == leap,
			Days:     days[i+1] - days[i],
		}
	}

	a.logger.Debug("assembled sui",
		"solstice", timescale.DateString(wsDay),
		"months", count,
		"leap_index", leap,
	)

	return &sui{
		solstice: ws,
		nextWS:   nextWS,
		months:   months,
		nextDay:  nextDay,
	}, nil
}

// newMoonOnOrBefore returns the last new moon at or before the end of the
// civil day.
func (a *Assembler) newMoonOnOrBefore(day int) (timescale.Instant, error) {
	midnight, err := timescale.DayStart(day+1, a.zone)
	if err != nil {
		return timescale.Instant{}, err
	}
	moon, err := a.loc.FindPrevNewMoon(midnight.Add(-endOfDay))
	if err != nil {
		return timescale.Instant{}, fmt.Errorf("month containing %s: %w", timescale.DateString(day), err)
	}
	return moon, nil
}

func hasMajor(majors []int, from, to int) bool {
	for _, d := range majors {
		if d >= from && d < to {
			return true
		}
	}
	return false
}

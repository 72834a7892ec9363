package calendar

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zapponejosh/lunisolar-api/internal/ephemeris"
	"github.com/zapponejosh/lunisolar-api/internal/events"
)

var (
	sharedOnce sync.Once
	sharedSet  *ephemeris.Set
	sharedAsm  *Assembler
	sharedErr  error
)

// testAssembler returns one assembler shared by the package tests so its
// sui memo is reused.
func testAssembler(t *testing.T) *Assembler {
	t.Helper()
	sharedOnce.Do(func() {
		sharedSet, sharedErr = ephemeris.LoadEmbedded()
		if sharedErr != nil {
			return
		}
		var oracle *ephemeris.Oracle
		oracle, sharedErr = ephemeris.NewOracle(sharedSet)
		if sharedErr == nil {
			sharedAsm = NewAssembler(events.NewLocator(oracle))
		}
	})
	require.NoError(t, sharedErr)
	return sharedAsm
}

func cst(year int, month time.Month, day, hour, min, sec int) time.Time {
	return time.Date(year, month, day, hour, min, sec, 0, DefaultZone)
}

func TestGregorianToLunar(t *testing.T) {
	asm := testAssembler(t)

	tests := []struct {
		name string
		in   time.Time
		want LunarDate
	}{
		{
			name: "leap sixth month 2025",
			in:   cst(2025, time.August, 12, 12, 0, 0),
			want: LunarDate{Year: 2025, Month: 6, Day: 19, Hour: 12, IsLeap: true},
		},
		{
			name: "new year 2025",
			in:   cst(2025, time.January, 29, 0, 0, 0),
			want: LunarDate{Year: 2025, Month: 1, Day: 1},
		},
		{
			name: "last day of 2024",
			in:   cst(2025, time.January, 28, 23, 59, 59),
			want: LunarDate{Year: 2024, Month: 12, Day: 29, Hour: 23, Minute: 59, Second: 59},
		},
		{
			name: "month 12 before the new year",
			in:   cst(2025, time.January, 10, 8, 30, 0),
			want: LunarDate{Year: 2024, Month: 12, Day: 11, Hour: 8, Minute: 30},
		},
		{
			name: "end of ordinary sixth month",
			in:   cst(2025, time.July, 24, 23, 0, 0),
			want: LunarDate{Year: 2025, Month: 6, Day: 30, Hour: 23},
		},
		{
			name: "first day of leap month",
			in:   cst(2025, time.July, 25, 4, 0, 0),
			want: LunarDate{Year: 2025, Month: 6, Day: 1, Hour: 4, IsLeap: true},
		},
		{
			name: "month eleven holds the solstice",
			in:   cst(2025, time.December, 21, 23, 30, 0),
			want: LunarDate{Year: 2025, Month: 11, Day: 2, Hour: 23, Minute: 30},
		},
		{
			name: "leap eleventh month 2033",
			in:   cst(2033, time.December, 25, 12, 0, 0),
			want: LunarDate{Year: 2033, Month: 11, Day: 4, Hour: 12, IsLeap: true},
		},
		{
			name: "lunar new year 2026",
			in:   cst(2026, time.February, 17, 10, 0, 0),
			want: LunarDate{Year: 2026, Month: 1, Day: 1, Hour: 10},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := asm.GregorianToLunar(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGregorianToLunar_InputZoneIsHonoured(t *testing.T) {
	asm := testAssembler(t)

	// 04:00 UTC on 12 August is noon in UTC+8.
	got, err := asm.GregorianToLunar(time.Date(2025, time.August, 12, 4, 5, 6, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, LunarDate{Year: 2025, Month: 6, Day: 19, Hour: 12, Minute: 5, Second: 6, IsLeap: true}, got)
}

func TestGregorianToLunar_PackageEntryPoint(t *testing.T) {
	testAssembler(t)

	got, err := GregorianToLunar(cst(2025, time.August, 12, 0, 0, 0),
		sharedSet.Solar, sharedSet.LunarR, sharedSet.LunarV, sharedSet.LunarU)
	require.NoError(t, err)
	assert.Equal(t, 6, got.Month)
	assert.Equal(t, 19, got.Day)
	assert.True(t, got.IsLeap)

	_, err = GregorianToLunar(time.Now(), sharedSet.LunarV, sharedSet.LunarR, sharedSet.LunarV, sharedSet.LunarU)
	assert.ErrorIs(t, err, ephemeris.ErrModelMismatch)
}

func TestWithZone(t *testing.T) {
	testAssembler(t)
	oracle, err := ephemeris.NewOracle(sharedSet)
	require.NoError(t, err)
	asm := NewAssembler(events.NewLocator(oracle), WithZone(time.UTC))

	// The new moon of 2024-12-30 22:27 UTC opens month 12 a day earlier
	// in UTC than in UTC+8.
	got, err := asm.GregorianToLunar(time.Date(2024, time.December, 31, 12, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 12, got.Month)
	assert.Equal(t, 2, got.Day)

	got, err = testAssembler(t).GregorianToLunar(time.Date(2024, time.December, 31, 12, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 12, got.Month)
	assert.Equal(t, 1, got.Day)
}

func TestLunarYear_2025(t *testing.T) {
	asm := testAssembler(t)

	y, err := asm.LunarYear(2025)
	require.NoError(t, err)
	require.Len(t, y.Months, 13)

	wantStarts := []string{
		"2025-01-29", "2025-02-28", "2025-03-29", "2025-04-28", "2025-05-27", "2025-06-25",
		"2025-07-25", "2025-08-23", "2025-09-22", "2025-10-21", "2025-11-20", "2025-12-20",
		"2026-01-19",
	}
	wantNumbers := []int{1, 2, 3, 4, 5, 6, 6, 7, 8, 9, 10, 11, 12}

	for i, m := range y.Months {
		assert.Equal(t, wantStarts[i], m.Date, "month %d start", i)
		assert.Equal(t, wantNumbers[i], m.Number, "month %d number", i)
		assert.Equal(t, i == 6, m.IsLeap, "month %d leap", i)
		assert.Contains(t, []int{29, 30}, m.Days)
	}

	leap, ok := y.Leap()
	require.True(t, ok)
	assert.Equal(t, 6, leap.Number)
	assert.Greater(t, y.End.JD, y.Months[12].Start.JD)
}

func TestLunarYear_KnownLeapMonths(t *testing.T) {
	asm := testAssembler(t)

	tests := []struct {
		year int
		leap int // 0 for none
	}{
		{2020, 4},
		{2021, 0},
		{2022, 0},
		{2023, 2},
		{2024, 0},
		{2028, 5},
		{2033, 11}, // leap month taken from the following sui
	}

	for _, tt := range tests {
		y, err := asm.LunarYear(tt.year)
		require.NoError(t, err)

		m, ok := y.Leap()
		if tt.leap == 0 {
			assert.False(t, ok, "year %d", tt.year)
			assert.Len(t, y.Months, 12, "year %d", tt.year)
			continue
		}
		require.True(t, ok, "year %d", tt.year)
		assert.Equal(t, tt.leap, m.Number, "year %d", tt.year)
		assert.Len(t, y.Months, 13, "year %d", tt.year)
	}
}

func TestLunarYear_LeapInTail(t *testing.T) {
	asm := testAssembler(t)

	y, err := asm.LunarYear(2033)
	require.NoError(t, err)
	require.Len(t, y.Months, 13)

	var numbers []int
	for _, m := range y.Months {
		numbers = append(numbers, m.Number)
	}
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 11, 12}, numbers)
	assert.True(t, y.Months[11].IsLeap)
	assert.Equal(t, "2033-12-22", y.Months[11].Date)
}

func TestJoinMonths(t *testing.T) {
	entry := func(date string, number int, leap bool) MonthEntry {
		return MonthEntry{Date: date, Number: number, IsLeap: leap, Days: 29}
	}

	months, err := joinMonths(
		[]MonthEntry{entry("2033-01-31", 1, false), entry("2033-03-01", 2, false)},
		[]MonthEntry{entry("2033-12-22", 11, true), entry("2034-01-20", 12, false)},
	)
	require.NoError(t, err)
	assert.Len(t, months, 4)
	assert.True(t, months[2].IsLeap)

	_, err = joinMonths(
		[]MonthEntry{entry("2033-01-31", 1, false), entry("2033-03-01", 1, true)},
		[]MonthEntry{entry("2033-12-22", 11, true)},
	)
	assert.ErrorContains(t, err, "leap months 1 and 11")

	_, err = joinMonths(nil, nil)
	assert.Error(t, err)
}

func TestLunarYear_Invariants(t *testing.T) {
	asm := testAssembler(t)

	prevLeap := false
	var prev *Year
	for year := 2019; year <= 2030; year++ {
		y, err := asm.LunarYear(year)
		require.NoError(t, err)

		n := len(y.Months)
		assert.True(t, n == 12 || n == 13, "year %d has %d months", year, n)

		leaps := 0
		for i, m := range y.Months {
			if m.IsLeap {
				leaps++
				assert.NotZero(t, i, "year %d: leap at position 0", year)
			}
			if i > 0 {
				assert.Greater(t, m.FirstDay, y.Months[i-1].FirstDay, "year %d month %d", year, i)
				assert.Equal(t, y.Months[i-1].FirstDay+y.Months[i-1].Days, m.FirstDay)
			}
		}
		assert.LessOrEqual(t, leaps, 1, "year %d", year)
		assert.Equal(t, leaps == 1, n == 13, "year %d", year)
		assert.Equal(t, 1, y.Months[0].Number)

		if prev != nil {
			last := prev.Months[len(prev.Months)-1]
			assert.Equal(t, last.FirstDay+last.Days, y.Months[0].FirstDay, "year %d follows %d", year, prev.Year)
		}
		assert.False(t, prevLeap && leaps == 1, "years %d and %d both leap", year-1, year)
		prevLeap = leaps == 1
		prev = y
	}
}

func TestSolarTerms_2025(t *testing.T) {
	asm := testAssembler(t)

	terms, err := asm.SolarTerms(2025)
	require.NoError(t, err)
	require.Len(t, terms, 24)
	assert.Equal(t, events.MinorCold, terms[0].Term)
	assert.Equal(t, events.WinterSolstice, terms[23].Term)
}

func TestOutOfRange(t *testing.T) {
	asm := testAssembler(t)

	_, err := asm.LunarYear(-5000)
	assert.ErrorIs(t, err, ErrOutOfRange)

	_, err = asm.SolarTerms(-5000)
	assert.ErrorIs(t, err, ErrOutOfRange)
}

func TestLunarDateString(t *testing.T) {
	assert.Equal(t, "2025-L06-19 12:00:00", LunarDate{Year: 2025, Month: 6, Day: 19, Hour: 12, IsLeap: true}.String())
	assert.Equal(t, "2025-01-01 00:00:00", LunarDate{Year: 2025, Month: 1, Day: 1}.String())
}

func TestYearContains(t *testing.T) {
	y := &Year{Months: []MonthEntry{
		{FirstDay: 100, Days: 30, Number: 1},
		{FirstDay: 130, Days: 29, Number: 2},
	}}

	m, ok := y.Contains(129)
	assert.True(t, ok)
	assert.Equal(t, 1, m.Number)

	m, ok = y.Contains(158)
	assert.True(t, ok)
	assert.Equal(t, 2, m.Number)

	_, ok = y.Contains(159)
	assert.False(t, ok)
	_, ok = y.Contains(99)
	assert.False(t, ok)
}

func TestFromSet(t *testing.T) {
	testAssembler(t)

	a, err := FromSet(sharedSet, nil, WithZone(time.UTC))
	require.NoError(t, err)
	assert.Equal(t, time.UTC, a.Zone())

	_, err = FromSet(&ephemeris.Set{}, nil)
	assert.Error(t, err)
}

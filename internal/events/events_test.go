package events

import (
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zapponejosh/lunisolar-api/internal/ephemeris"
	"github.com/zapponejosh/lunisolar-api/internal/rootfind"
	"github.com/zapponejosh/lunisolar-api/internal/timescale"
)

var (
	oracleOnce sync.Once
	oracle     *ephemeris.Oracle
	oracleErr  error
)

func testLocator(t *testing.T) *Locator {
	t.Helper()
	oracleOnce.Do(func() {
		var set *ephemeris.Set
		set, oracleErr = ephemeris.LoadEmbedded()
		if oracleErr == nil {
			oracle, oracleErr = ephemeris.NewOracle(set)
		}
	})
	require.NoError(t, oracleErr)
	return NewLocator(oracle)
}

func utc(t *testing.T, year int, month time.Month, day, hour, min, sec int) timescale.Instant {
	t.Helper()
	i, err := timescale.FromTime(time.Date(year, month, day, hour, min, sec, 0, time.UTC))
	require.NoError(t, err)
	return i
}

func assertNear(t *testing.T, want time.Time, got timescale.Instant, tol time.Duration) {
	t.Helper()
	gotTime, err := timescale.ToTime(got)
	require.NoError(t, err)
	assert.WithinDuration(t, want, gotTime, tol, "got %s", gotTime)
}

// fakeEphemeris moves the Sun 1° per day and the Moon 13° per day.
type fakeEphemeris struct {
	err error
}

func (f fakeEphemeris) Sun(t float64) (ephemeris.Coordinate, error) {
	if f.err != nil {
		return ephemeris.Coordinate{}, f.err
	}
	days := t * timescale.DaysPerCentury
	return ephemeris.Coordinate{Distance: 1, Longitude: math.Mod(math.Mod(days, 360)+360, 360)}, nil
}

func (f fakeEphemeris) Moon(t float64) (ephemeris.Coordinate, error) {
	if f.err != nil {
		return ephemeris.Coordinate{}, f.err
	}
	days := t * timescale.DaysPerCentury
	return ephemeris.Coordinate{Distance: 0.0026, Longitude: math.Mod(math.Mod(13*days, 360)+360, 360)}, nil
}

func TestNormalizeDegrees(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{350 - 5, -15},
		{0, 0},
		{180, 180},
		{-180, 180},
		{540, 180},
		{-190, 170},
		{719, -1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeDegrees(tt.in), "NormalizeDegrees(%g)", tt.in)
	}
}

func TestSolarTerm(t *testing.T) {
	assert.Equal(t, 0.0, SpringEquinox.Longitude())
	assert.Equal(t, 270.0, WinterSolstice.Longitude())
	assert.Equal(t, 300.0, MajorCold.Longitude())
	assert.Equal(t, 345.0, AwakeningOfInsects.Longitude())

	assert.True(t, WinterSolstice.IsMajor())
	assert.True(t, MajorCold.IsMajor())
	assert.False(t, StartOfSpring.IsMajor())

	assert.Equal(t, "Winter Solstice", WinterSolstice.Name())
	assert.Equal(t, "冬至", WinterSolstice.ChineseName())
	assert.Equal(t, SpringEquinox, AwakeningOfInsects.Next())

	term, err := TermAt(315)
	require.NoError(t, err)
	assert.Equal(t, StartOfSpring, term)

	_, err = TermAt(7)
	assert.Error(t, err)
	assert.False(t, SolarTerm(24).Valid())
}

func TestFindSolarTermForward_Equinox2025(t *testing.T) {
	loc := testLocator(t)

	got, err := loc.FindSolarTermForward(utc(t, 2025, time.March, 1, 0, 0, 0), SpringEquinox)
	require.NoError(t, err)
	assert.Equal(t, timescale.TDB, got.Scale)
	assertNear(t, time.Date(2025, time.March, 20, 9, 1, 14, 0, time.UTC), got, 5*time.Minute)
}

func TestFindSolarTerm_Equinox2025(t *testing.T) {
	loc := testLocator(t)

	got, err := loc.FindSolarTerm(SpringEquinox, utc(t, 2025, time.March, 10, 0, 0, 0))
	require.NoError(t, err)
	assertNear(t, time.Date(2025, time.March, 20, 9, 1, 14, 0, time.UTC), got, 5*time.Minute)

	lon, err := loc.SolarLongitude(got)
	require.NoError(t, err)
	assert.InDelta(t, 0, NormalizeDegrees(lon), 1e-5)
}

func TestFindSolarTermBackward_Solstice2025(t *testing.T) {
	loc := testLocator(t)

	ws, err := loc.FindSolarTermBackward(utc(t, 2026, time.January, 10, 0, 0, 0), WinterSolstice)
	require.NoError(t, err)
	assertNear(t, time.Date(2025, time.December, 21, 15, 2, 48, 0, time.UTC), ws, 5*time.Minute)

	// At-or-before includes the event itself.
	again, err := loc.FindSolarTermBackward(ws.Add(1e-6), WinterSolstice)
	require.NoError(t, err)
	assert.InDelta(t, ws.JD, again.JD, 1e-5)

	// Forward is strict, so searching from the event finds next year's.
	next, err := loc.FindSolarTermForward(ws, WinterSolstice)
	require.NoError(t, err)
	d, err := next.Sub(ws)
	require.NoError(t, err)
	assert.InDelta(t, 365.24, d, 0.1)
}

func TestFindNewMoon_July2025(t *testing.T) {
	loc := testLocator(t)
	want := time.Date(2025, time.July, 24, 19, 11, 0, 0, time.UTC)

	next, err := loc.FindNextNewMoon(utc(t, 2025, time.July, 20, 0, 0, 0))
	require.NoError(t, err)
	assertNear(t, want, next, 5*time.Minute)

	prev, err := loc.FindPrevNewMoon(utc(t, 2025, time.August, 12, 0, 0, 0))
	require.NoError(t, err)
	assert.InDelta(t, next.JD, prev.JD, 1e-6)

	near, err := loc.FindNewMoon(utc(t, 2025, time.July, 22, 0, 0, 0))
	require.NoError(t, err)
	assert.InDelta(t, next.JD, near.JD, 1e-6)

	elong, err := loc.Elongation(near)
	require.NoError(t, err)
	assert.InDelta(t, 0, elong, 1e-6)
}

func TestNewMoonsBetween_2025(t *testing.T) {
	loc := testLocator(t)

	moons, err := loc.NewMoonsBetween(utc(t, 2025, time.January, 1, 0, 0, 0), utc(t, 2026, time.January, 1, 0, 0, 0))
	require.NoError(t, err)
	require.Len(t, moons, 12)

	assertNear(t, time.Date(2025, time.January, 29, 12, 36, 0, 0, time.UTC), moons[0], 5*time.Minute)
	for i := 1; i < len(moons); i++ {
		gap := moons[i].JD - moons[i-1].JD
		assert.InDelta(t, SynodicMonth, gap, 0.6)
	}
}

func TestSolarTermsBetween_2025(t *testing.T) {
	loc := testLocator(t)

	terms, err := loc.SolarTermsBetween(utc(t, 2025, time.January, 1, 0, 0, 0), utc(t, 2026, time.January, 1, 0, 0, 0))
	require.NoError(t, err)
	require.Len(t, terms, 24)

	assert.Equal(t, MinorCold, terms[0].Term)
	assert.Equal(t, WinterSolstice, terms[23].Term)
	for i := 1; i < len(terms); i++ {
		assert.Equal(t, terms[i-1].Term.Next(), terms[i].Term)
		assert.Greater(t, terms[i].Instant.JD, terms[i-1].Instant.JD)
	}
}

func TestSearch_SkipsWrap(t *testing.T) {
	loc := NewLocator(fakeEphemeris{})

	// From day 100 the normalised difference passes its +180/-180 jump at
	// day 180 before the true zero at day 360.
	got, err := loc.FindSolarTermForward(timescale.New(timescale.J2000+100, timescale.TDB), SpringEquinox)
	require.NoError(t, err)
	assert.InDelta(t, 360, got.Days(), 1e-5)

	got, err = loc.FindSolarTermBackward(timescale.New(timescale.J2000+300, timescale.TDB), SpringEquinox)
	require.NoError(t, err)
	assert.InDelta(t, 0, got.Days(), 1e-5)
}

func TestFindNewMoon_Unbracketed(t *testing.T) {
	loc := NewLocator(fakeEphemeris{})

	// Elongation grows 12° a day, so a window centred half a cycle from
	// new moon brackets only the wrap.
	_, err := loc.FindNewMoon(timescale.New(timescale.J2000+15, timescale.TDB))
	assert.True(t, errors.Is(err, rootfind.ErrUnbracketed), "got %v", err)
}

func TestLocator_PropagatesEphemerisError(t *testing.T) {
	boom := errors.New("dataset unavailable")
	loc := NewLocator(fakeEphemeris{err: boom})

	_, err := loc.FindNextNewMoon(timescale.New(timescale.J2000, timescale.TDB))
	assert.ErrorIs(t, err, boom)

	_, err = loc.FindSolarTerm(WinterSolstice, timescale.New(timescale.J2000, timescale.TDB))
	assert.ErrorIs(t, err, boom)
}

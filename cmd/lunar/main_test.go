package main

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zapponejosh/lunisolar-api/internal/almanac"
	"github.com/zapponejosh/lunisolar-api/internal/calendar"
	"github.com/zapponejosh/lunisolar-api/internal/database"
	"github.com/zapponejosh/lunisolar-api/internal/ephemeris"
)

var testAsm *calendar.Assembler

func TestMain(m *testing.M) {
	set, err := ephemeris.LoadEmbedded()
	if err != nil {
		panic(err)
	}
	testAsm, err = calendar.FromSet(set, nil)
	if err != nil {
		panic(err)
	}
	resolver = calendar.NewResolver(testAsm, nil, nil)
	now = func() time.Time { return time.Date(2025, time.August, 12, 4, 0, 0, 0, time.UTC) }

	os.Exit(m.Run())
}

// resetFlags restores every flag to its default between executions.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(normalizeArgs(args))
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	return buf.String(), err
}

func TestVersionCmd(t *testing.T) {
	originalVersion := version
	version = "test-version-1.0.0"
	defer func() { version = originalVersion }()

	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "lunar version test-version-1.0.0")
}

func TestConvertCmd(t *testing.T) {
	out, err := execute(t, "convert", "2025-08-12", "--time", "09:30")
	require.NoError(t, err)

	assert.Contains(t, out, "2025-08-12 09:30:00 (UTC+8)")
	assert.Contains(t, out, "2025-L06-19 09:30:00")
	assert.Contains(t, out, "Leap Month 6")
	assert.Contains(t, out, "乙巳年闰六月十九")
	assert.NotContains(t, out, "Sunrise")
}

func TestConvertCmd_DefaultsToNow(t *testing.T) {
	out, err := execute(t, "convert", "--lang", "zh")
	require.NoError(t, err)

	assert.Contains(t, out, "2025-L06-19 12:00:00")
	assert.Contains(t, out, "闰六月")
	assert.Contains(t, out, "十九")
}

func TestConvertCmd_JSON(t *testing.T) {
	out, err := execute(t, "convert", "2025-03-20", "--json", "--lat", "39.9", "--lng", "116.4")
	require.NoError(t, err)

	var info almanac.DayInfo
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Equal(t, "2025-03-20", info.Date)
	assert.Equal(t, 2, info.Lunar.Month)
	require.NotNil(t, info.Term)
	assert.Equal(t, "Spring Equinox", info.Term.Name)
	require.NotNil(t, info.Sun)
	assert.NotNil(t, info.Sun.Sunrise)
}

func TestConvertCmd_Errors(t *testing.T) {
	_, err := execute(t, "convert", "12/08/2025")
	assert.ErrorContains(t, err, "invalid date")

	_, err = execute(t, "convert", "2025-08-12", "--time", "noon")
	assert.ErrorContains(t, err, "--time")

	_, err = execute(t, "convert", "2025-08-12", "--lat", "100")
	assert.ErrorIs(t, err, almanac.ErrInvalidPlace)
}

func TestYearCmd(t *testing.T) {
	out, err := execute(t, "year", "2025")
	require.NoError(t, err)

	assert.Contains(t, out, "Lunar year 2025")
	assert.Contains(t, out, "(leap month 6)")
	assert.Contains(t, out, "Leap Month 6")
	assert.Contains(t, out, "2025-07-25")
	assert.Contains(t, out, "2026-01-19")

	rows := 0
	for _, line := range strings.Split(out, "\n") {
		if strings.Contains(line, "-") && strings.Contains(line, "Month") && !strings.Contains(line, "#") {
			rows++
		}
	}
	assert.Equal(t, 13, rows)
}

func TestYearCmd_DefaultAndErrors(t *testing.T) {
	out, err := execute(t, "year")
	require.NoError(t, err)
	assert.Contains(t, out, "Lunar year 2025")

	_, err = execute(t, "year", "twenty")
	assert.ErrorContains(t, err, "integer")

	_, err = execute(t, "year", "-5000")
	assert.ErrorIs(t, err, calendar.ErrOutOfRange)

	_, err = execute(t, "year", "-v", "--", "-5000")
	assert.ErrorIs(t, err, calendar.ErrOutOfRange)

	_, err = execute(t, "terms", "--lang", "zh", "-5000")
	assert.ErrorIs(t, err, calendar.ErrOutOfRange)
}

func TestNormalizeArgs(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want []string
	}{
		{"positive year", []string{"year", "2025"}, []string{"year", "2025"}},
		{"negative year", []string{"year", "-5000"}, []string{"year", "--", "-5000"}},
		{"after bool flag", []string{"year", "-v", "-5000"}, []string{"year", "-v", "--", "-5000"}},
		{"after value flag", []string{"terms", "--lang", "zh", "-100"}, []string{"terms", "--lang", "zh", "--", "-100"}},
		{"flag value kept", []string{"warm", "--from", "-3", "--to", "2"}, []string{"warm", "--from", "-3", "--to", "2"}},
		{"shorthand value kept", []string{"convert", "-t", "-1"}, []string{"convert", "-t", "-1"}},
		{"existing separator", []string{"year", "--", "-5000"}, []string{"year", "--", "-5000"}},
		{"unknown command", []string{"nope", "-5"}, []string{"nope", "-5"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, normalizeArgs(tt.args))
		})
	}
}

func TestTermsCmd(t *testing.T) {
	out, err := execute(t, "terms", "2025", "--lang", "zh")
	require.NoError(t, err)

	assert.Contains(t, out, "Solar terms 2025 (UTC+8)")
	assert.Contains(t, out, "Minor Cold")
	assert.Contains(t, out, "冬至")
	assert.Contains(t, out, "2025-12-21")
}

func TestWarmCmd(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	db, err := database.Open(database.DefaultConfig(":memory:"), logger)
	require.NoError(t, err)
	defer db.Close()
	_, err = db.Migrate(context.Background())
	require.NoError(t, err)

	original := resolver
	resolver = calendar.NewResolver(testAsm, db, logger)
	defer func() { resolver = original }()

	out, err := execute(t, "warm", "--from", "2025", "--to", "2026")
	require.NoError(t, err)
	assert.Contains(t, out, "warmed 2025")
	assert.Contains(t, out, "warmed 2026")
	assert.Contains(t, out, "Warmed 2 years")

	stats, err := db.GetCacheStats(context.Background(), "UTC+8")
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Years)
	assert.Equal(t, 2, stats.TermYears)

	_, err = execute(t, "warm", "--from", "2026", "--to", "2025")
	assert.ErrorContains(t, err, "--to")
}

func TestWarmCmd_NoCache(t *testing.T) {
	_, err := execute(t, "warm", "--from", "2025", "--to", "2025")
	assert.ErrorContains(t, err, "no cache")
}

func TestPad(t *testing.T) {
	assert.Equal(t, "ab  ", pad("ab", 4))
	assert.Equal(t, "冬月  ", pad("冬月", 6))
	assert.Equal(t, "toolong", pad("toolong", 3))
	assert.Equal(t, "a    b", row([]int{3}, "a", "b"))
}

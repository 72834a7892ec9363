package warmer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zapponejosh/lunisolar-api/internal/calendar"
)

type fakeTarget struct {
	mu         sync.Mutex
	year       int
	warmed     []int
	resolveErr error
	warmErr    map[int]error
}

func (f *fakeTarget) Resolve(context.Context, time.Time) (calendar.LunarDate, error) {
	if f.resolveErr != nil {
		return calendar.LunarDate{}, f.resolveErr
	}
	return calendar.LunarDate{Year: f.year, Month: 6, Day: 19, IsLeap: true}, nil
}

func (f *fakeTarget) Warm(_ context.Context, year int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.warmed = append(f.warmed, year)
	return f.warmErr[year]
}

func (f *fakeTarget) years() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.warmed...)
}

func TestRunOnce_WarmsCurrentAndNext(t *testing.T) {
	target := &fakeTarget{year: 2025}
	w, err := New(target, "0 3 * * *")
	require.NoError(t, err)

	require.NoError(t, w.RunOnce(context.Background()))
	assert.Equal(t, []int{2025, 2026}, target.years())
}

func TestRunOnce_Errors(t *testing.T) {
	target := &fakeTarget{year: 2025, warmErr: map[int]error{2025: errors.New("disk full")}}
	w, err := New(target, "@daily")
	require.NoError(t, err)

	err = w.RunOnce(context.Background())
	assert.ErrorContains(t, err, "disk full")
	assert.Equal(t, []int{2025, 2026}, target.years(), "second year still attempted")

	target = &fakeTarget{resolveErr: errors.New("boom")}
	w, err = New(target, "@daily")
	require.NoError(t, err)
	assert.Error(t, w.RunOnce(context.Background()))
	assert.Empty(t, target.years())
}

func TestNew_BadSpec(t *testing.T) {
	_, err := New(&fakeTarget{}, "whenever")
	assert.Error(t, err)
}

func TestNext(t *testing.T) {
	w, err := New(&fakeTarget{}, "0 3 * * *")
	require.NoError(t, err)

	from := time.Date(2025, time.August, 12, 4, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2025, time.August, 13, 3, 0, 0, 0, time.UTC), w.Next(from))
}

func TestStartStop(t *testing.T) {
	w, err := New(&fakeTarget{year: 2025}, "@every 1h")
	require.NoError(t, err)

	w.Start()
	w.Start()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, w.Stop(ctx))
	require.NoError(t, w.Stop(ctx), "stopping twice is harmless")
}

func TestRun_UsesClock(t *testing.T) {
	target := &fakeTarget{year: 2030}
	w, err := New(target, "@daily",
		WithClock(func() time.Time { return time.Date(2030, time.May, 1, 0, 0, 0, 0, time.UTC) }),
		WithTimeout(time.Second),
	)
	require.NoError(t, err)

	w.Run()
	assert.Equal(t, []int{2030, 2031}, target.years())
}

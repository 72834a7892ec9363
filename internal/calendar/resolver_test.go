package calendar

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zapponejosh/lunisolar-api/internal/database"
)

// memStore is an in-memory Store.
type memStore struct {
	mu     sync.Mutex
	years  map[int]database.CachedYear
	terms  map[int][]database.TermRow
	gets   int
	puts   int
	getErr error
}

func newMemStore() *memStore {
	return &memStore{
		years: make(map[int]database.CachedYear),
		terms: make(map[int][]database.TermRow),
	}
}

func (s *memStore) GetMonthForDate(_ context.Context, zone, date string) (*database.CachedMonth, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gets++
	if s.getErr != nil {
		return nil, s.getErr
	}
	for _, y := range s.years {
		for _, m := range y.Months {
			if m.Zone == zone && m.StartDate <= date && date <= m.EndDate {
				return &m, nil
			}
		}
	}
	return nil, database.ErrNotFound
}

func (s *memStore) GetLunarYear(_ context.Context, zone string, year int) (*database.CachedYear, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	y, ok := s.years[year]
	if !ok || y.Zone != zone {
		return nil, database.ErrNotFound
	}
	return &y, nil
}

func (s *memStore) UpsertLunarYear(_ context.Context, y database.CachedYear) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.puts++
	s.years[y.Year] = y
	return nil
}

func (s *memStore) GetSolarTerms(_ context.Context, zone string, year int) ([]database.TermRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, ok := s.terms[year]
	if !ok {
		return nil, database.ErrNotFound
	}
	return rows, nil
}

func (s *memStore) UpsertSolarTerms(_ context.Context, _ string, year int, rows []database.TermRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.puts++
	s.terms[year] = rows
	return nil
}

func TestResolver_MissThenHit(t *testing.T) {
	store := newMemStore()
	r := NewResolver(testAssembler(t), store, nil)
	ctx := context.Background()
	in := cst(2025, time.August, 12, 9, 30, 0)

	first, err := r.Resolve(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, LunarDate{Year: 2025, Month: 6, Day: 19, Hour: 9, Minute: 30, IsLeap: true}, first)

	cached, ok := store.years[2025]
	require.True(t, ok, "lunar year stored after a miss")
	assert.Len(t, cached.Months, 13)
	assert.Equal(t, "UTC+8", cached.Zone)
	assert.Equal(t, "2025-08-22", cached.Months[6].EndDate)

	second, err := r.Resolve(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, store.puts)
}

func TestResolver_UsesCachedMonth(t *testing.T) {
	store := newMemStore()
	store.years[2030] = database.CachedYear{
		Zone: "UTC+8",
		Year: 2030,
		Months: []database.CachedMonth{{
			Zone:      "UTC+8",
			LunarYear: 2030,
			Number:    3,
			StartDate: "2030-04-01",
			EndDate:   "2030-04-30",
		}},
	}
	r := NewResolver(testAssembler(t), store, nil)

	got, err := r.Resolve(context.Background(), cst(2030, time.April, 5, 1, 2, 3))
	require.NoError(t, err)
	assert.Equal(t, LunarDate{Year: 2030, Month: 3, Day: 5, Hour: 1, Minute: 2, Second: 3}, got)
}

func TestResolver_StoreErrorFallsBack(t *testing.T) {
	store := newMemStore()
	store.getErr = errors.New("disk I/O error")
	r := NewResolver(testAssembler(t), store, nil)

	got, err := r.Resolve(context.Background(), cst(2025, time.January, 29, 12, 0, 0))
	require.NoError(t, err)
	assert.Equal(t, 1, got.Month)
	assert.Equal(t, 1, got.Day)
}

func TestResolver_WithoutStore(t *testing.T) {
	r := NewResolver(testAssembler(t), nil, nil)

	got, err := r.Resolve(context.Background(), cst(2025, time.August, 12, 0, 0, 0))
	require.NoError(t, err)
	assert.True(t, got.IsLeap)

	assert.Error(t, r.Warm(context.Background(), 2025))
}

func TestResolver_Timeout(t *testing.T) {
	r := NewResolver(testAssembler(t), nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := r.Resolve(ctx, cst(1850, time.March, 3, 0, 0, 0))
	assert.ErrorIs(t, err, ErrTimeout)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestResolver_TermsAndWarm(t *testing.T) {
	store := newMemStore()
	r := NewResolver(testAssembler(t), store, nil)
	ctx := context.Background()

	require.NoError(t, r.Warm(ctx, 2025))
	assert.Contains(t, store.years, 2025)
	require.Len(t, store.terms[2025], 24)
	assert.Equal(t, "2025-12-21", store.terms[2025][23].Date)

	terms, err := r.Terms(ctx, 2025)
	require.NoError(t, err)
	require.Len(t, terms, 24)
	assert.Equal(t, store.terms[2025][0].JD, terms[0].Instant.JD)

	y, err := r.Year(ctx, 2025)
	require.NoError(t, err)
	require.Len(t, y.Months, 13)
	assert.Equal(t, "2025-07-25", y.Months[6].Date)
	assert.Equal(t, 29, y.Months[6].Days)
}

func TestRun_ReturnsResult(t *testing.T) {
	v, err := run(context.Background(), func() (int, error) { return 42, nil })
	require.NoError(t, err)
	assert.Equal(t, 42, v)
}

func TestRun_Deadline(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	release := make(chan struct{})
	defer close(release)

	_, err := run(ctx, func() (int, error) {
		<-release
		return 0, nil
	})
	assert.ErrorIs(t, err, ErrTimeout)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

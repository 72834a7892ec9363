package calendar

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/zapponejosh/lunisolar-api/internal/database"
	"github.com/zapponejosh/lunisolar-api/internal/events"
	"github.com/zapponejosh/lunisolar-api/internal/timescale"
)

// ErrTimeout is returned when a conversion outlives its context.
var ErrTimeout = errors.New("conversion timed out")

// Store is the cache the Resolver reads through. *database.DB satisfies
// it.
type Store interface {
	GetMonthForDate(ctx context.Context, zone, date string) (*database.CachedMonth, error)
	GetLunarYear(ctx context.Context, zone string, year int) (*database.CachedYear, error)
	UpsertLunarYear(ctx context.Context, y database.CachedYear) error
	GetSolarTerms(ctx context.Context, zone string, year int) ([]database.TermRow, error)
	UpsertSolarTerms(ctx context.Context, zone string, year int, terms []database.TermRow) error
}

// Resolver answers conversions from the cache when it can and assembles
// and stores whole lunar years when it cannot.
type Resolver struct {
	asm    *Assembler
	store  Store
	logger *slog.Logger
}

// NewResolver creates a Resolver. store may be nil to disable caching.
func NewResolver(asm *Assembler, store Store, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Resolver{asm: asm, store: store, logger: logger}
}

// Zone returns the calendar zone of the underlying assembler.
func (r *Resolver) Zone() *time.Location {
	return r.asm.Zone()
}

func (r *Resolver) zoneKey() string {
	return r.asm.Zone().String()
}

// Resolve converts a civil time to a lunar date.
func (r *Resolver) Resolve(ctx context.Context, t time.Time) (LunarDate, error) {
	local := t.In(r.Zone())
	date := local.Format(time.DateOnly)

	if r.store != nil {
		m, err := r.store.GetMonthForDate(ctx, r.zoneKey(), date)
		switch {
		case err == nil:
			return fromCachedMonth(m, local)
		case !database.IsNotFound(err):
			r.logger.Warn("cache lookup failed", "date", date, "error", err)
		}
	}

	ld, err := run(ctx, func() (LunarDate, error) {
		return r.asm.GregorianToLunar(t)
	})
	if err != nil {
		return LunarDate{}, err
	}

	if r.store != nil {
		if _, err := r.Year(ctx, ld.Year); err != nil {
			r.logger.Warn("cache fill failed", "lunar_year", ld.Year, "error", err)
		}
	}
	return ld, nil
}

// Year returns a lunar year, from the cache if present.
func (r *Resolver) Year(ctx context.Context, year int) (*Year, error) {
	if r.store != nil {
		cy, err := r.store.GetLunarYear(ctx, r.zoneKey(), year)
		switch {
		case err == nil:
			return fromCachedYear(cy)
		case !database.IsNotFound(err):
			r.logger.Warn("cache lookup failed", "lunar_year", year, "error", err)
		}
	}

	y, err := run(ctx, func() (*Year, error) {
		return r.asm.LunarYear(year)
	})
	if err != nil {
		return nil, err
	}

	if r.store != nil {
		if err := r.store.UpsertLunarYear(ctx, toCachedYear(r.zoneKey(), y)); err != nil {
			r.logger.Warn("cache store failed", "lunar_year", year, "error", err)
		}
	}
	return y, nil
}

// Terms returns the solar terms of a Gregorian year, from the cache if
// present.
func (r *Resolver) Terms(ctx context.Context, year int) ([]events.TermEvent, error) {
	if r.store != nil {
		rows, err := r.store.GetSolarTerms(ctx, r.zoneKey(), year)
		switch {
		case err == nil:
			return fromTermRows(rows), nil
		case !database.IsNotFound(err):
			r.logger.Warn("cache lookup failed", "year", year, "error", err)
		}
	}

	terms, err := run(ctx, func() ([]events.TermEvent, error) {
		return r.asm.SolarTerms(year)
	})
	if err != nil {
		return nil, err
	}

	if r.store != nil {
		if err := r.store.UpsertSolarTerms(ctx, r.zoneKey(), year, r.toTermRows(year, terms)); err != nil {
			r.logger.Warn("cache store failed", "year", year, "error", err)
		}
	}
	return terms, nil
}

// Warm assembles and stores a lunar year and the solar terms of the
// Gregorian year with the same number, replacing any cached copy.
func (r *Resolver) Warm(ctx context.Context, year int) error {
	if r.store == nil {
		return errors.New("warm: no cache configured")
	}

	y, err := run(ctx, func() (*Year, error) { return r.asm.LunarYear(year) })
	if err != nil {
		return fmt.Errorf("warm lunar year %d: %w", year, err)
	}
	if err := r.store.UpsertLunarYear(ctx, toCachedYear(r.zoneKey(), y)); err != nil {
		return fmt.Errorf("store lunar year %d: %w", year, err)
	}

	terms, err := run(ctx, func() ([]events.TermEvent, error) { return r.asm.SolarTerms(year) })
	if err != nil {
		return fmt.Errorf("warm solar terms %d: %w", year, err)
	}
	if err := r.store.UpsertSolarTerms(ctx, r.zoneKey(), year, r.toTermRows(year, terms)); err != nil {
		return fmt.Errorf("store solar terms %d: %w", year, err)
	}

	r.logger.Info("cache warmed", "year", year, "months", len(y.Months))
	return nil
}

// run executes fn on its own goroutine and abandons it when ctx ends. The
// assembler has no cancellation points of its own.
func run[T any](ctx context.Context, fn func() (T, error)) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, fmt.Errorf("%w: %w", ErrTimeout, err)
	}

	type result struct {
		v   T
		err error
	}
	ch := make(chan result, 1)
	go func() {
		v, err := fn()
		ch <- result{v, err}
	}()

	select {
	case <-ctx.Done():
		return zero, fmt.Errorf("%w: %w", ErrTimeout, ctx.Err())
	case res := <-ch:
		return res.v, res.err
	}
}

// =============================================================================
// Cache conversions
// =============================================================================

func toCachedYear(zone string, y *Year) database.CachedYear {
	cy := database.CachedYear{Zone: zone, Year: y.Year, EndJD: y.End.JD}
	for i, m := range y.Months {
		cy.Months = append(cy.Months, database.CachedMonth{
			Zone:      zone,
			LunarYear: y.Year,
			Ordinal:   i,
			Number:    m.Number,
			IsLeap:    m.IsLeap,
			StartJD:   m.Start.JD,
			StartDate: m.Date,
			EndDate:   timescale.DateString(m.FirstDay + m.Days - 1),
		})
	}
	return cy
}

func fromCachedYear(cy *database.CachedYear) (*Year, error) {
	y := &Year{Year: cy.Year, End: timescale.New(cy.EndJD, timescale.TDB)}
	for _, cm := range cy.Months {
		m, err := fromCachedEntry(&cm)
		if err != nil {
			return nil, err
		}
		y.Months = append(y.Months, m)
	}
	return y, nil
}

func fromCachedEntry(cm *database.CachedMonth) (MonthEntry, error) {
	first, err := timescale.ParseDate(cm.StartDate)
	if err != nil {
		return MonthEntry{}, fmt.Errorf("cached month: %w", err)
	}
	last, err := timescale.ParseDate(cm.EndDate)
	if err != nil {
		return MonthEntry{}, fmt.Errorf("cached month: %w", err)
	}
	return MonthEntry{
		Start:    timescale.New(cm.StartJD, timescale.TDB),
		Date:     cm.StartDate,
		FirstDay: first,
		Number:   cm.Number,
		IsLeap:   cm.IsLeap,
		Days:     last - first + 1,
	}, nil
}

func fromCachedMonth(cm *database.CachedMonth, local time.Time) (LunarDate, error) {
	m, err := fromCachedEntry(cm)
	if err != nil {
		return LunarDate{}, err
	}
	day := timescale.DayNumberOf(local.Year(), local.Month(), local.Day())
	return LunarDate{
		Year:   cm.LunarYear,
		Month:  m.Number,
		Day:    day - m.FirstDay + 1,
		Hour:   local.Hour(),
		Minute: local.Minute(),
		Second: local.Second(),
		IsLeap: m.IsLeap,
	}, nil
}

func (r *Resolver) toTermRows(year int, terms []events.TermEvent) []database.TermRow {
	rows := make([]database.TermRow, 0, len(terms))
	for _, te := range terms {
		date := ""
		if day, err := timescale.DayNumber(te.Instant, r.Zone()); err == nil {
			date = timescale.DateString(day)
		}
		rows = append(rows, database.TermRow{
			Zone: r.zoneKey(),
			Year: year,
			Term: int(te.Term),
			JD:   te.Instant.JD,
			Date: date,
		})
	}
	return rows
}

func fromTermRows(rows []database.TermRow) []events.TermEvent {
	out := make([]events.TermEvent, 0, len(rows))
	for _, row := range rows {
		out = append(out, events.TermEvent{
			Term:    events.SolarTerm(row.Term),
			Instant: timescale.New(row.JD, timescale.TDB),
		})
	}
	return out
}

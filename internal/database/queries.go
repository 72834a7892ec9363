package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// =============================================================================
// Helper Functions
// =============================================================================

// parseTimestamp parses a timestamp from SQLite TEXT format, returning nil
// when it is missing or unparseable.
func parseTimestamp(ns sql.NullString) *time.Time {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, time.DateTime, "2006-01-02T15:04:05.999999"} {
		if t, err := time.Parse(layout, ns.String); err == nil {
			return &t
		}
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// =============================================================================
// Lunar Month Queries
// =============================================================================

// UpsertLunarYear replaces a cached lunar year and its months.
func (db *DB) UpsertLunarYear(ctx context.Context, y CachedYear) error {
	if len(y.Months) != 12 && len(y.Months) != 13 {
		return fmt.Errorf("lunar year %d has %d months", y.Year, len(y.Months))
	}

	return retryOp(ctx, db.retry, func() error {
		return db.WithTx(ctx, func(tx *Tx) error {
			if _, err := tx.ExecContext(ctx,
				"DELETE FROM lunar_months WHERE zone = ? AND lunar_year = ?",
				y.Zone, y.Year,
			); err != nil {
				return fmt.Errorf("clear lunar year: %w", err)
			}

			_, err := tx.ExecContext(ctx, `
				INSERT INTO lunar_years (zone, lunar_year, month_count, end_jd)
				VALUES (?, ?, ?, ?)
				ON CONFLICT (zone, lunar_year) DO UPDATE SET
					month_count = excluded.month_count,
					end_jd = excluded.end_jd,
					created_at = datetime('now')
			`, y.Zone, y.Year, len(y.Months), y.EndJD)
			if err != nil {
				return fmt.Errorf("upsert lunar year: %w", err)
			}

			stmt, err := tx.PrepareContext(ctx, `
				INSERT INTO lunar_months
					(zone, lunar_year, ordinal, number, is_leap, start_jd, start_date, end_date)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			`)
			if err != nil {
				return fmt.Errorf("prepare month insert: %w", err)
			}
			defer stmt.Close()

			for i, m := range y.Months {
				if _, err := stmt.ExecContext(ctx,
					y.Zone, y.Year, i, m.Number, boolToInt(m.IsLeap),
					m.StartJD, m.StartDate, m.EndDate,
				); err != nil {
					return fmt.Errorf("insert month %d: %w", i, err)
				}
			}
			return nil
		})
	})
}

// GetMonthForDate returns the cached month containing a civil date
// (YYYY-MM-DD). Returns ErrNotFound on a cache miss.
func (db *DB) GetMonthForDate(ctx context.Context, zone, date string) (*CachedMonth, error) {
	query := `
		SELECT zone, lunar_year, ordinal, number, is_leap, start_jd, start_date, end_date
		FROM lunar_months
		WHERE zone = ? AND start_date <= ? AND end_date >= ?
		ORDER BY start_date DESC
		LIMIT 1
	`

	m, err := scanMonth(db.QueryRowContext(ctx, query, zone, date, date))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("query month for date: %w", err)
	}
	return m, nil
}

// GetLunarYear returns a cached lunar year with its months in order.
// Returns ErrNotFound if the year is not cached.
func (db *DB) GetLunarYear(ctx context.Context, zone string, year int) (*CachedYear, error) {
	y := CachedYear{Zone: zone, Year: year}
	err := db.QueryRowContext(ctx,
		"SELECT end_jd FROM lunar_years WHERE zone = ? AND lunar_year = ?",
		zone, year,
	).Scan(&y.EndJD)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("query lunar year: %w", err)
	}

	rows, err := db.QueryContext(ctx, `
		SELECT zone, lunar_year, ordinal, number, is_leap, start_jd, start_date, end_date
		FROM lunar_months
		WHERE zone = ? AND lunar_year = ?
		ORDER BY ordinal
	`, zone, year)
	if err != nil {
		return nil, fmt.Errorf("query lunar months: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		m, err := scanMonth(rows)
		if err != nil {
			return nil, fmt.Errorf("scan lunar month: %w", err)
		}
		y.Months = append(y.Months, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate lunar months: %w", err)
	}
	if len(y.Months) == 0 {
		return nil, ErrNotFound
	}
	return &y, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMonth(s scanner) (*CachedMonth, error) {
	var m CachedMonth
	var isLeap int
	if err := s.Scan(&m.Zone, &m.LunarYear, &m.Ordinal, &m.Number, &isLeap, &m.StartJD, &m.StartDate, &m.EndDate); err != nil {
		return nil, err
	}
	m.IsLeap = isLeap != 0
	return &m, nil
}

// =============================================================================
// Solar Term Queries
// =============================================================================

// UpsertSolarTerms replaces the cached terms of a Gregorian year.
func (db *DB) UpsertSolarTerms(ctx context.Context, zone string, year int, terms []TermRow) error {
	return retryOp(ctx, db.retry, func() error {
		return db.WithTx(ctx, func(tx *Tx) error {
			if _, err := tx.ExecContext(ctx,
				"DELETE FROM solar_terms WHERE zone = ? AND year = ?",
				zone, year,
			); err != nil {
				return fmt.Errorf("clear solar terms: %w", err)
			}

			for _, t := range terms {
				if _, err := tx.ExecContext(ctx,
					"INSERT INTO solar_terms (zone, year, term, jd, date) VALUES (?, ?, ?, ?, ?)",
					zone, year, t.Term, t.JD, t.Date,
				); err != nil {
					return fmt.Errorf("insert solar term %d: %w", t.Term, err)
				}
			}
			return nil
		})
	})
}

// GetSolarTerms returns the cached terms of a Gregorian year in time
// order. Returns ErrNotFound if the year is not cached.
func (db *DB) GetSolarTerms(ctx context.Context, zone string, year int) ([]TermRow, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT zone, year, term, jd, date
		FROM solar_terms
		WHERE zone = ? AND year = ?
		ORDER BY jd
	`, zone, year)
	if err != nil {
		return nil, fmt.Errorf("query solar terms: %w", err)
	}
	defer rows.Close()

	var out []TermRow
	for rows.Next() {
		var t TermRow
		if err := rows.Scan(&t.Zone, &t.Year, &t.Term, &t.JD, &t.Date); err != nil {
			return nil, fmt.Errorf("scan solar term: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate solar terms: %w", err)
	}
	if len(out) == 0 {
		return nil, ErrNotFound
	}
	return out, nil
}

// =============================================================================
// Statistics
// =============================================================================

// GetCacheStats summarises what is cached for a zone.
func (db *DB) GetCacheStats(ctx context.Context, zone string) (*CacheStats, error) {
	var stats CacheStats
	var earliest, latest sql.NullInt64
	var lastWarmed sql.NullString

	err := db.QueryRowContext(ctx, `
		SELECT COUNT(*), MIN(lunar_year), MAX(lunar_year), MAX(created_at)
		FROM lunar_years
		WHERE zone = ?
	`, zone).Scan(&stats.Years, &earliest, &latest, &lastWarmed)
	if err != nil {
		return nil, fmt.Errorf("query year stats: %w", err)
	}

	if err := db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM lunar_months WHERE zone = ?", zone,
	).Scan(&stats.Months); err != nil {
		return nil, fmt.Errorf("query month stats: %w", err)
	}

	if err := db.QueryRowContext(ctx,
		"SELECT COUNT(DISTINCT year) FROM solar_terms WHERE zone = ?", zone,
	).Scan(&stats.TermYears); err != nil {
		return nil, fmt.Errorf("query term stats: %w", err)
	}

	if earliest.Valid {
		v := int(earliest.Int64)
		stats.EarliestYear = &v
	}
	if latest.Valid {
		v := int(latest.Int64)
		stats.LatestYear = &v
	}
	stats.LastWarmed = parseTimestamp(lastWarmed)

	return &stats, nil
}

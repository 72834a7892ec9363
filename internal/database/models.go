package database

import "time"

// CachedMonth is one row of lunar_months.
type CachedMonth struct {
	Zone      string  `json:"zone"`
	LunarYear int     `json:"lunar_year"`
	Ordinal   int     `json:"ordinal"` // 0 for month 1
	Number    int     `json:"number"`  // 1..12
	IsLeap    bool    `json:"is_leap"`
	StartJD   float64 `json:"start_jd"`   // new moon, TDB
	StartDate string  `json:"start_date"` // YYYY-MM-DD, first civil day
	EndDate   string  `json:"end_date"`   // YYYY-MM-DD, last civil day
}

// CachedYear is a lunar year with its months in order.
type CachedYear struct {
	Zone   string        `json:"zone"`
	Year   int           `json:"year"`
	EndJD  float64       `json:"end_jd"`
	Months []CachedMonth `json:"months"`
}

// TermRow is one row of solar_terms.
type TermRow struct {
	Zone string  `json:"zone"`
	Year int     `json:"year"`
	Term int     `json:"term"`
	JD   float64 `json:"jd"` // TDB
	Date string  `json:"date"`
}

// CacheStats summarises the cache contents.
type CacheStats struct {
	Years        int        `json:"years"`
	Months       int        `json:"months"`
	TermYears    int        `json:"term_years"`
	LastWarmed   *time.Time `json:"last_warmed,omitempty"`
	EarliestYear *int       `json:"earliest_year,omitempty"`
	LatestYear   *int       `json:"latest_year,omitempty"`
}

package database

// migrationsSQL contains all database migrations, applied in version order.
var migrationsSQL = map[int]string{
	1: migrationV1LunarMonths,
	2: migrationV2SolarTerms,
}

// migrationV1LunarMonths stores assembled lunar years.
//
// One row per month; ordinal is the position within the lunar year
// starting at 0 for month 1. start_date and end_date are the first and last
// civil days in the zone, so a date lookup is a range scan on the index.
const migrationV1LunarMonths = `
CREATE TABLE IF NOT EXISTS lunar_years (
    zone TEXT NOT NULL,
    lunar_year INTEGER NOT NULL,
    month_count INTEGER NOT NULL CHECK (month_count IN (12, 13)),
    end_jd REAL NOT NULL,
    created_at TEXT NOT NULL DEFAULT (datetime('now')),
    PRIMARY KEY (zone, lunar_year)
);

CREATE TABLE IF NOT EXISTS lunar_months (
    zone TEXT NOT NULL,
    lunar_year INTEGER NOT NULL,
    ordinal INTEGER NOT NULL,
    number INTEGER NOT NULL CHECK (number BETWEEN 1 AND 12),
    is_leap INTEGER NOT NULL DEFAULT 0,
    start_jd REAL NOT NULL,
    start_date TEXT NOT NULL,
    end_date TEXT NOT NULL,
    PRIMARY KEY (zone, lunar_year, ordinal),
    FOREIGN KEY (zone, lunar_year) REFERENCES lunar_years(zone, lunar_year) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_lunar_months_dates
    ON lunar_months(zone, start_date, end_date);
`

// migrationV2SolarTerms stores the 24 terms of each Gregorian year.
const migrationV2SolarTerms = `
CREATE TABLE IF NOT EXISTS solar_terms (
    zone TEXT NOT NULL,
    year INTEGER NOT NULL,
    term INTEGER NOT NULL CHECK (term BETWEEN 0 AND 23),
    jd REAL NOT NULL,
    date TEXT NOT NULL,
    PRIMARY KEY (zone, year, term)
);

CREATE INDEX IF NOT EXISTS idx_solar_terms_date
    ON solar_terms(zone, date);
`

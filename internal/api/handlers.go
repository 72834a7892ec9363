package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/zapponejosh/lunisolar-api/internal/almanac"
	"github.com/zapponejosh/lunisolar-api/internal/calendar"
	"github.com/zapponejosh/lunisolar-api/internal/config"
	"github.com/zapponejosh/lunisolar-api/internal/database"
	"github.com/zapponejosh/lunisolar-api/internal/logger"
	"github.com/zapponejosh/lunisolar-api/internal/timescale"
)

// maxRangeDays limits /lunar/range responses.
const maxRangeDays = 90

// Cache is the part of the database the handlers use directly.
// *database.DB satisfies it.
type Cache interface {
	Health(ctx context.Context) error
	GetCacheStats(ctx context.Context, zone string) (*database.CacheStats, error)
}

// Handlers contains all HTTP handlers and their dependencies.
type Handlers struct {
	resolver *calendar.Resolver
	almanac  *almanac.Almanac
	cache    Cache
	cfg      *config.Config
	logger   *slog.Logger
	now      func() time.Time
}

// NewHandlers creates a new Handlers instance. cache may be nil.
func NewHandlers(resolver *calendar.Resolver, cache Cache, cfg *config.Config, log *slog.Logger) *Handlers {
	return &Handlers{
		resolver: resolver,
		almanac:  almanac.New(resolver),
		cache:    cache,
		cfg:      cfg,
		logger:   log,
		now:      time.Now,
	}
}

// =============================================================================
// Response shapes
// =============================================================================

// RangeDay is one entry of a /lunar/range response.
type RangeDay struct {
	Date      string             `json:"date"`
	Lunar     calendar.LunarDate `json:"lunar"`
	MonthName string             `json:"month_name"`
	DayName   string             `json:"day_name"`
}

// MonthInfo is one month of a /lunar/year response.
type MonthInfo struct {
	Ordinal   int       `json:"ordinal"`
	Number    int       `json:"number"`
	IsLeap    bool      `json:"is_leap"`
	Name      string    `json:"name"`
	StartDate string    `json:"start_date"`
	EndDate   string    `json:"end_date"`
	Days      int       `json:"days"`
	NewMoon   time.Time `json:"new_moon"`
}

// YearInfo is the /lunar/year response.
type YearInfo struct {
	Year      int         `json:"year"`
	YearName  string      `json:"year_name"`
	Zodiac    string      `json:"zodiac"`
	LeapMonth int         `json:"leap_month"` // 0 when the year has none
	Months    []MonthInfo `json:"months"`
}

// TermInfo is one entry of a /terms response.
type TermInfo struct {
	Index       int       `json:"index"`
	Name        string    `json:"name"`
	ChineseName string    `json:"chinese_name"`
	Longitude   float64   `json:"longitude"`
	Major       bool      `json:"major"`
	Time        time.Time `json:"time"`
	Date        string    `json:"date"`
}

// =============================================================================
// Public handlers
// =============================================================================

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	status := map[string]string{
		"status": "healthy",
		"zone":   h.resolver.Zone().String(),
		"cache":  "disabled",
	}

	if h.cache != nil {
		if err := h.cache.Health(ctx); err != nil {
			h.logger.Warn("health check failed", slog.Any("error", err))
			WriteError(w, http.StatusServiceUnavailable, "Database unhealthy", "HEALTH_CHECK_FAILED")
			return
		}
		status["cache"] = "ok"
	}

	WriteSuccess(w, status)
}

// GetToday handles GET /api/v1/lunar/today?lat&lng
func (h *Handlers) GetToday(w http.ResponseWriter, r *http.Request) {
	place, err := parsePlace(r)
	if err != nil {
		WriteBadRequest(w, err.Error())
		return
	}

	ctx, cancel := h.convertContext(r)
	defer cancel()

	info, err := h.almanac.Day(ctx, h.now(), place, requestLocale(r))
	if err != nil {
		writeCalendarError(w, logger.FromContext(r.Context(), h.logger), "today", err)
		return
	}

	WriteSuccess(w, info)
}

// GetDate handles GET /api/v1/lunar/date/{YYYY-MM-DD}?time&lat&lng
func (h *Handlers) GetDate(w http.ResponseWriter, r *http.Request) {
	dateStr := chi.URLParam(r, "date")
	if dateStr == "" {
		WriteBadRequest(w, "Date parameter is required")
		return
	}

	date, err := h.parseDate(dateStr)
	if err != nil {
		WriteBadRequest(w, fmt.Sprintf("Invalid date format: %s. Use YYYY-MM-DD", dateStr))
		return
	}

	if ts := r.URL.Query().Get("time"); ts != "" {
		offset, err := parseTimeOfDay(ts)
		if err != nil {
			WriteBadRequest(w, fmt.Sprintf("Invalid time format: %s. Use HH:MM or HH:MM:SS", ts))
			return
		}
		date = date.Add(offset)
	}

	place, err := parsePlace(r)
	if err != nil {
		WriteBadRequest(w, err.Error())
		return
	}

	ctx, cancel := h.convertContext(r)
	defer cancel()

	info, err := h.almanac.Day(ctx, date, place, requestLocale(r))
	if err != nil {
		writeCalendarError(w, logger.FromContext(r.Context(), h.logger), "convert date", err)
		return
	}

	WriteSuccess(w, info)
}

// GetRange handles GET /api/v1/lunar/range?start=YYYY-MM-DD&end=YYYY-MM-DD
func (h *Handlers) GetRange(w http.ResponseWriter, r *http.Request) {
	startStr := r.URL.Query().Get("start")
	endStr := r.URL.Query().Get("end")

	if startStr == "" || endStr == "" {
		WriteBadRequest(w, "Both start and end date parameters are required")
		return
	}

	startDate, err := h.parseDate(startStr)
	if err != nil {
		WriteBadRequest(w, fmt.Sprintf("Invalid start date format: %s. Use YYYY-MM-DD", startStr))
		return
	}

	endDate, err := h.parseDate(endStr)
	if err != nil {
		WriteBadRequest(w, fmt.Sprintf("Invalid end date format: %s. Use YYYY-MM-DD", endStr))
		return
	}

	if startDate.After(endDate) {
		WriteBadRequest(w, "Start date must be before or equal to end date")
		return
	}

	first := timescale.DayNumberOf(startDate.Date())
	last := timescale.DayNumberOf(endDate.Date())
	if last-first > maxRangeDays {
		WriteBadRequest(w, fmt.Sprintf("Date range cannot exceed %d days", maxRangeDays))
		return
	}

	ctx, cancel := h.convertContext(r)
	defer cancel()

	locale := requestLocale(r)
	days := make([]RangeDay, 0, last-first+1)
	for current := startDate; !current.After(endDate); current = current.AddDate(0, 0, 1) {
		ld, err := h.resolver.Resolve(ctx, current)
		if err != nil {
			writeCalendarError(w, logger.FromContext(r.Context(), h.logger), "convert range", err)
			return
		}
		days = append(days, RangeDay{
			Date:      current.Format(time.DateOnly),
			Lunar:     ld,
			MonthName: calendar.MonthName(ld.Month, ld.IsLeap, locale),
			DayName:   calendar.DayName(ld.Day, locale),
		})
	}

	WriteSuccess(w, map[string]interface{}{
		"start": startStr,
		"end":   endStr,
		"days":  days,
	})
}

// GetYear handles GET /api/v1/lunar/year/{year}
func (h *Handlers) GetYear(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil {
		WriteBadRequest(w, "Year must be an integer")
		return
	}

	ctx, cancel := h.convertContext(r)
	defer cancel()

	y, err := h.resolver.Year(ctx, year)
	if err != nil {
		writeCalendarError(w, logger.FromContext(r.Context(), h.logger), "lunar year", err)
		return
	}

	locale := requestLocale(r)
	info := YearInfo{
		Year:     y.Year,
		YearName: calendar.YearName(y.Year, locale),
		Zodiac:   calendar.Zodiac(y.Year, locale),
		Months:   make([]MonthInfo, 0, len(y.Months)),
	}
	if leap, ok := y.Leap(); ok {
		info.LeapMonth = leap.Number
	}

	for i, m := range y.Months {
		newMoon, err := timescale.ToTime(m.Start)
		if err != nil {
			writeCalendarError(w, logger.FromContext(r.Context(), h.logger), "lunar year", err)
			return
		}
		info.Months = append(info.Months, MonthInfo{
			Ordinal:   i,
			Number:    m.Number,
			IsLeap:    m.IsLeap,
			Name:      calendar.MonthName(m.Number, m.IsLeap, locale),
			StartDate: m.Date,
			EndDate:   timescale.DateString(m.FirstDay + m.Days - 1),
			Days:      m.Days,
			NewMoon:   newMoon.In(h.resolver.Zone()),
		})
	}

	WriteSuccess(w, info)
}

// GetTerms handles GET /api/v1/terms/{year}
func (h *Handlers) GetTerms(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil {
		WriteBadRequest(w, "Year must be an integer")
		return
	}

	ctx, cancel := h.convertContext(r)
	defer cancel()

	terms, err := h.resolver.Terms(ctx, year)
	if err != nil {
		writeCalendarError(w, logger.FromContext(r.Context(), h.logger), "solar terms", err)
		return
	}

	zone := h.resolver.Zone()
	out := make([]TermInfo, 0, len(terms))
	for _, te := range terms {
		at, err := timescale.ToTime(te.Instant)
		if err != nil {
			writeCalendarError(w, logger.FromContext(r.Context(), h.logger), "solar terms", err)
			return
		}
		local := at.In(zone)
		out = append(out, TermInfo{
			Index:       int(te.Term),
			Name:        te.Term.Name(),
			ChineseName: te.Term.ChineseName(),
			Longitude:   te.Term.Longitude(),
			Major:       te.Term.IsMajor(),
			Time:        local,
			Date:        local.Format(time.DateOnly),
		})
	}

	WriteSuccess(w, map[string]interface{}{
		"year":  year,
		"terms": out,
	})
}

// =============================================================================
// Cache administration (API key)
// =============================================================================

// GetCacheStats handles GET /api/v1/cache/stats
func (h *Handlers) GetCacheStats(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		WriteNotFound(w, "Cache is disabled")
		return
	}

	stats, err := h.cache.GetCacheStats(r.Context(), h.resolver.Zone().String())
	if err != nil {
		h.logger.Error("failed to get cache stats", slog.Any("error", err))
		WriteInternalError(w, "Failed to retrieve cache statistics")
		return
	}

	WriteSuccess(w, stats)
}

// WarmCache handles POST /api/v1/cache/warm/{year}
func (h *Handlers) WarmCache(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		WriteNotFound(w, "Cache is disabled")
		return
	}

	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil {
		WriteBadRequest(w, "Year must be an integer")
		return
	}

	ctx, cancel := h.convertContext(r)
	defer cancel()

	if err := h.resolver.Warm(ctx, year); err != nil {
		writeCalendarError(w, logger.FromContext(r.Context(), h.logger), "warm cache", err)
		return
	}

	WriteSuccess(w, map[string]interface{}{"warmed": year})
}

// =============================================================================
// Helpers
// =============================================================================

func (h *Handlers) convertContext(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), h.cfg.ConvertTimeout)
}

// parseDate reads YYYY-MM-DD as local midnight in the calendar zone.
func (h *Handlers) parseDate(s string) (time.Time, error) {
	return time.ParseInLocation(time.DateOnly, s, h.resolver.Zone())
}

// parseTimeOfDay reads HH:MM or HH:MM:SS as an offset from midnight.
func parseTimeOfDay(s string) (time.Duration, error) {
	for _, layout := range []string{time.TimeOnly, "15:04"} {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Duration(t.Hour())*time.Hour +
				time.Duration(t.Minute())*time.Minute +
				time.Duration(t.Second())*time.Second, nil
		}
	}
	return 0, errors.New("invalid time of day")
}

// parsePlace reads optional lat and lng query parameters. Both or neither
// must be given.
func parsePlace(r *http.Request) (*almanac.Place, error) {
	q := r.URL.Query()
	latStr, lngStr := q.Get("lat"), q.Get("lng")
	if latStr == "" && lngStr == "" {
		return nil, nil
	}
	if latStr == "" || lngStr == "" {
		return nil, errors.New("lat and lng must be given together")
	}

	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid lat: %s", latStr)
	}
	lng, err := strconv.ParseFloat(lngStr, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid lng: %s", lngStr)
	}

	p := &almanac.Place{Latitude: lat, Longitude: lng}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Command coverage walks a running API over whole Gregorian years and
// checks that the lunar dates it returns form an unbroken calendar.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"time"

	flag "github.com/spf13/pflag"
)

// APIResponse matches the API response envelope.
type APIResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   *ErrorInfo      `json:"error,omitempty"`
}

type ErrorInfo struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// LunarDate is the lunar part of a /lunar/range entry.
type LunarDate struct {
	Year   int  `json:"year"`
	Month  int  `json:"month"`
	Day    int  `json:"day"`
	IsLeap bool `json:"is_leap"`
}

type RangeDay struct {
	Date  string    `json:"date"`
	Lunar LunarDate `json:"lunar"`
}

// TestResult holds the check for a single date.
type TestResult struct {
	Date    string    `json:"date"`
	Success bool      `json:"success"`
	Lunar   LunarDate `json:"lunar"`
	Error   string    `json:"error,omitempty"`
}

// chunkDays is the widest range request the API accepts.
const chunkDays = 90

func main() {
	baseURL := flag.String("url", "http://localhost:8080", "Base URL of the API")
	startYear := flag.Int("start", 2024, "Start year")
	years := flag.Int("years", 4, "Number of years to test")
	verbose := flag.BoolP("verbose", "v", false, "Verbose output (show each new month)")
	outputFile := flag.StringP("output", "o", "", "Output results to JSON file")
	flag.Parse()

	endYear := *startYear + *years - 1

	fmt.Println("================================================================")
	fmt.Println("Lunisolar API - Calendar Continuity Check")
	fmt.Println("================================================================")
	fmt.Printf("Base URL:    %s\n", *baseURL)
	fmt.Printf("Date Range:  %d-01-01 to %d-12-31\n", *startYear, endYear)
	fmt.Printf("Total Years: %d\n", *years)
	fmt.Println()

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Get(*baseURL + "/health")
	if err != nil {
		fmt.Printf("Error: Cannot connect to %s\n", *baseURL)
		fmt.Println("Make sure the API server is running.")
		os.Exit(1)
	}
	resp.Body.Close()

	start := time.Date(*startYear, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(endYear, 12, 31, 0, 0, 0, 0, time.UTC)

	days := fetchAll(client, *baseURL, start, end)
	results := checkDays(days, *verbose)
	analysis := analyzeResults(results)

	printSummary(analysis, *startYear, endYear)
	printAllFailures(analysis)

	if *outputFile != "" {
		saveResults(*outputFile, results, analysis)
	}

	if analysis.TotalFailed > 0 {
		os.Exit(1)
	}
}

// fetchAll pulls every day from start to end through /lunar/range. A chunk
// that fails is recorded as one failed entry per day it covered.
func fetchAll(client *http.Client, baseURL string, start, end time.Time) []RangeDay {
	total := int(end.Sub(start).Hours()/24) + 1
	fmt.Printf("Fetching %d days...\n\n", total)

	var days []RangeDay
	lastProgress := -1
	for from := start; !from.After(end); from = from.AddDate(0, 0, chunkDays+1) {
		to := from.AddDate(0, 0, chunkDays)
		if to.After(end) {
			to = end
		}

		chunk, err := fetchRange(client, baseURL, from, to)
		if err != nil {
			for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
				days = append(days, RangeDay{Date: d.Format(time.DateOnly), Lunar: LunarDate{Month: -1}})
			}
			fmt.Printf("  Error: %s to %s: %v\n", from.Format(time.DateOnly), to.Format(time.DateOnly), err)
		} else {
			days = append(days, chunk...)
		}

		progress := (len(days) * 100) / total
		if progress/10 != lastProgress/10 {
			fmt.Printf("  Progress: %d%% (%d/%d)\n", progress, len(days), total)
			lastProgress = progress
		}
	}

	fmt.Println()
	return days
}

func fetchRange(client *http.Client, baseURL string, from, to time.Time) ([]RangeDay, error) {
	url := fmt.Sprintf("%s/api/v1/lunar/range?start=%s&end=%s",
		baseURL, from.Format(time.DateOnly), to.Format(time.DateOnly))
	resp, err := client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("connection error: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read error: %w", err)
	}

	var apiResp APIResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}
	if !apiResp.Success {
		if apiResp.Error != nil {
			return nil, fmt.Errorf("%s: %s", apiResp.Error.Code, apiResp.Error.Message)
		}
		return nil, fmt.Errorf("unknown error (HTTP %d)", resp.StatusCode)
	}

	var days []RangeDay
	if err := json.Unmarshal(apiResp.Data, &days); err != nil {
		return nil, fmt.Errorf("data parse error: %w", err)
	}
	return days, nil
}

// checkDays checks each day against the one before it.
func checkDays(days []RangeDay, verbose bool) []TestResult {
	results := make([]TestResult, 0, len(days))
	for i, d := range days {
		r := TestResult{Date: d.Date, Lunar: d.Lunar, Success: true}

		switch {
		case d.Lunar.Month < 0:
			r.Error = "Request failed"
		case i > 0 && days[i-1].Lunar.Month >= 0:
			r.Error = checkStep(days[i-1], d)
		default:
			r.Error = checkDate(d.Lunar)
		}
		r.Success = r.Error == ""

		if verbose && (d.Lunar.Day == 1 || !r.Success) {
			status := "✓"
			if !r.Success {
				status = "✗"
			}
			fmt.Printf("  %s %s: %s\n", status, d.Date, formatLunar(d.Lunar))
			if !r.Success {
				fmt.Printf("      Error: %s\n", r.Error)
			}
		}
		results = append(results, r)
	}
	return results
}

func checkDate(l LunarDate) string {
	if l.Month < 1 || l.Month > 12 {
		return fmt.Sprintf("Month %d out of range", l.Month)
	}
	if l.Day < 1 || l.Day > 30 {
		return fmt.Sprintf("Day %d out of range", l.Day)
	}
	return ""
}

// checkStep reports why cur cannot follow prev, or "" when it can.
func checkStep(prev, cur RangeDay) string {
	if msg := checkDate(cur.Lunar); msg != "" {
		return msg
	}

	p, c := prev.Lunar, cur.Lunar
	if pd, err := time.Parse(time.DateOnly, prev.Date); err == nil {
		if cd, err := time.Parse(time.DateOnly, cur.Date); err == nil && !cd.Equal(pd.AddDate(0, 0, 1)) {
			return fmt.Sprintf("Gap after %s", prev.Date)
		}
	}

	if c.Day != 1 {
		if c.Year != p.Year || c.Month != p.Month || c.IsLeap != p.IsLeap || c.Day != p.Day+1 {
			return fmt.Sprintf("Day does not follow %s", formatLunar(p))
		}
		return ""
	}

	if p.Day != 29 && p.Day != 30 {
		return fmt.Sprintf("Month of %d days ended at %s", p.Day, formatLunar(p))
	}
	switch {
	case c.IsLeap:
		if p.IsLeap || c.Month != p.Month || c.Year != p.Year {
			return fmt.Sprintf("Leap month %d does not follow %s", c.Month, formatLunar(p))
		}
	case p.Month == 12:
		if c.Month != 1 || c.Year != p.Year+1 {
			return fmt.Sprintf("New year does not follow %s", formatLunar(p))
		}
	default:
		if c.Month != p.Month+1 || c.Year != p.Year {
			return fmt.Sprintf("Month %d does not follow %s", c.Month, formatLunar(p))
		}
	}
	return ""
}

func formatLunar(l LunarDate) string {
	leap := ""
	if l.IsLeap {
		leap = "L"
	}
	return fmt.Sprintf("%d-%s%02d-%02d", l.Year, leap, l.Month, l.Day)
}

// Analysis holds the analyzed results
type Analysis struct {
	TotalDays    int                `json:"total_days"`
	TotalSuccess int                `json:"total_success"`
	TotalFailed  int                `json:"total_failed"`
	ByYear       map[int]*YearStats `json:"by_year"`
	AllFailures  []TestResult       `json:"failures,omitempty"`
}

type YearStats struct {
	Year        int   `json:"year"`
	TotalDays   int   `json:"total_days"`
	SuccessDays int   `json:"success_days"`
	FailedDays  int   `json:"failed_days"`
	NewMoons    int   `json:"new_moons"`
	LeapMonths  []int `json:"leap_months,omitempty"`
}

func analyzeResults(results []TestResult) *Analysis {
	analysis := &Analysis{
		ByYear: make(map[int]*YearStats),
	}

	for _, r := range results {
		analysis.TotalDays++

		date, _ := time.Parse(time.DateOnly, r.Date)
		year := date.Year()
		if _, ok := analysis.ByYear[year]; !ok {
			analysis.ByYear[year] = &YearStats{Year: year}
		}
		stats := analysis.ByYear[year]
		stats.TotalDays++

		if r.Lunar.Day == 1 {
			stats.NewMoons++
			if r.Lunar.IsLeap {
				stats.LeapMonths = append(stats.LeapMonths, r.Lunar.Month)
			}
		}

		if r.Success {
			analysis.TotalSuccess++
			stats.SuccessDays++
		} else {
			analysis.TotalFailed++
			stats.FailedDays++
			analysis.AllFailures = append(analysis.AllFailures, r)
		}
	}

	return analysis
}

func printSummary(analysis *Analysis, startYear, endYear int) {
	fmt.Println("================================================================")
	fmt.Println("SUMMARY")
	fmt.Println("================================================================")
	fmt.Printf("Total Days Tested: %d\n", analysis.TotalDays)
	if analysis.TotalDays == 0 {
		return
	}
	fmt.Printf("Successful:        %d (%.1f%%)\n", analysis.TotalSuccess,
		float64(analysis.TotalSuccess)/float64(analysis.TotalDays)*100)
	fmt.Printf("Failed:            %d (%.1f%%)\n", analysis.TotalFailed,
		float64(analysis.TotalFailed)/float64(analysis.TotalDays)*100)
	fmt.Println()

	fmt.Println("By Year:")
	for year := startYear; year <= endYear; year++ {
		stats, ok := analysis.ByYear[year]
		if !ok {
			continue
		}
		status := "✓"
		if stats.FailedDays > 0 {
			status = "✗"
		}
		leap := ""
		if len(stats.LeapMonths) > 0 {
			leap = fmt.Sprintf(", leap month %v", stats.LeapMonths)
		}
		fmt.Printf("  %s %d: %d/%d days, %d new moons%s\n",
			status, year, stats.SuccessDays, stats.TotalDays, stats.NewMoons, leap)
	}
	fmt.Println()
}

func printAllFailures(analysis *Analysis) {
	if analysis.TotalFailed == 0 {
		fmt.Println("No failures! 🎉")
		return
	}

	fmt.Println("================================================================")
	fmt.Println("FAILURES (Date | Lunar | Error)")
	fmt.Println("================================================================")

	errorGroups := make(map[string][]TestResult)
	for _, f := range analysis.AllFailures {
		errorGroups[f.Error] = append(errorGroups[f.Error], f)
	}
	errs := make([]string, 0, len(errorGroups))
	for e := range errorGroups {
		errs = append(errs, e)
	}
	sort.Slice(errs, func(i, j int) bool {
		return len(errorGroups[errs[i]]) > len(errorGroups[errs[j]])
	})

	shown := 0
	for _, e := range errs {
		fmt.Printf("\n%s (%d):\n", e, len(errorGroups[e]))
		for _, f := range errorGroups[e] {
			if shown >= 50 {
				fmt.Printf("\n(Showing first 50 of %d failures)\n", analysis.TotalFailed)
				return
			}
			fmt.Printf("  %s | %s\n", f.Date, formatLunar(f.Lunar))
			shown++
		}
	}
	fmt.Println()
}

func saveResults(filename string, results []TestResult, analysis *Analysis) {
	output := struct {
		GeneratedAt string       `json:"generated_at"`
		Analysis    *Analysis    `json:"analysis"`
		Results     []TestResult `json:"results"`
	}{
		GeneratedAt: time.Now().Format(time.RFC3339),
		Analysis:    analysis,
		Results:     results,
	}

	data, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		fmt.Printf("Error marshaling results: %v\n", err)
		return
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		fmt.Printf("Error writing file: %v\n", err)
		return
	}

	fmt.Printf("Results saved to: %s\n", filename)
}

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/zapponejosh/lunisolar-api/internal/almanac"
	"github.com/zapponejosh/lunisolar-api/internal/calendar"
)

var convertCmd = &cobra.Command{
	Use:   "convert [YYYY-MM-DD]",
	Short: "Convert a Gregorian date to a lunar date",
	Long: `Convert a Gregorian date, read as a civil date in the calendar zone, to
its lunar date. With no date, the current time is converted.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runConvert,
}

var (
	convertTime string
	convertJSON bool
	convertLat  float64
	convertLng  float64
)

func init() {
	f := convertCmd.Flags()
	f.StringVarP(&convertTime, "time", "t", "", "time of day, HH:MM or HH:MM:SS")
	f.BoolVar(&convertJSON, "json", false, "print the result as JSON")
	f.Float64Var(&convertLat, "lat", 0, "latitude for sunrise and sunset")
	f.Float64Var(&convertLng, "lng", 0, "longitude for sunrise and sunset")
	rootCmd.AddCommand(convertCmd)
}

func runConvert(cmd *cobra.Command, args []string) error {
	zone := resolver.Zone()

	at := now().In(zone)
	if len(args) == 1 {
		day, err := time.ParseInLocation(time.DateOnly, args[0], zone)
		if err != nil {
			return fmt.Errorf("invalid date %q, use YYYY-MM-DD", args[0])
		}
		at = day
	}
	if convertTime != "" {
		clock, err := parseClock(convertTime)
		if err != nil {
			return err
		}
		at = time.Date(at.Year(), at.Month(), at.Day(), 0, 0, 0, 0, zone).Add(clock)
	}

	var place *almanac.Place
	if cmd.Flags().Changed("lat") || cmd.Flags().Changed("lng") {
		place = &almanac.Place{Latitude: convertLat, Longitude: convertLng}
	}

	info, err := almanac.New(resolver).Day(context.Background(), at, place, locale())
	if err != nil {
		return err
	}

	if convertJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(info)
	}

	printDay(cmd, at, info)
	return nil
}

func printDay(cmd *cobra.Command, at time.Time, info *almanac.DayInfo) {
	cmd.Println(titleStyle.Render(fmt.Sprintf("%s (%s)", at.Format("2006-01-02 15:04:05"), at.Location())))

	month := info.MonthName
	if info.Lunar.IsLeap {
		month = leapStyle.Render(month)
	}

	cmd.Println(field("Lunar", info.Display))
	cmd.Println(field("Chinese", calendar.Describe(info.Lunar, calendar.Chinese)))
	cmd.Println(field("Month", month))
	cmd.Println(field("Day", info.DayName))
	cmd.Println(field("Year", fmt.Sprintf("%s, %s", info.YearName, info.Zodiac)))

	if t := info.Term; t != nil {
		cmd.Println(field("Term", fmt.Sprintf("%s %s at %s", t.Name, t.ChineseName, t.Time.Format("15:04"))))
	}
	if s := info.Sun; s != nil {
		cmd.Println(field("Sunrise", clockOrDash(s.Sunrise)))
		cmd.Println(field("Sunset", clockOrDash(s.Sunset)))
	}
}

func clockOrDash(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format("15:04")
}

func parseClock(s string) (time.Duration, error) {
	for _, layout := range []string{time.TimeOnly, "15:04"} {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Duration(t.Hour())*time.Hour +
				time.Duration(t.Minute())*time.Minute +
				time.Duration(t.Second())*time.Second, nil
		}
	}
	return 0, errors.New("invalid --time, use HH:MM or HH:MM:SS")
}

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zapponejosh/lunisolar-api/internal/calendar"
	"github.com/zapponejosh/lunisolar-api/internal/timescale"
)

var yearCmd = &cobra.Command{
	Use:   "year [year]",
	Short: "List the months of a lunar year",
	Long:  `List the months of the lunar year whose first month begins in the given Gregorian year.`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runYear,
}

func init() {
	rootCmd.AddCommand(yearCmd)
}

func runYear(cmd *cobra.Command, args []string) error {
	year, err := yearArg(args)
	if err != nil {
		return err
	}

	y, err := resolver.Year(context.Background(), year)
	if err != nil {
		return err
	}

	lc := locale()
	summary := fmt.Sprintf("Lunar year %d  %s", y.Year, calendar.YearName(y.Year, lc))
	if leap, ok := y.Leap(); ok {
		summary += fmt.Sprintf("  (leap month %d)", leap.Number)
	}
	cmd.Println(titleStyle.Render(summary))
	cmd.Println()

	widths := []int{3, 14, 10, 10, 4}
	cmd.Println(headerStyle.Render(row(widths, "#", "Month", "Start", "End", "Days", "New moon")))

	zone := resolver.Zone()
	for i, m := range y.Months {
		newMoon := "-"
		if t, err := timescale.ToTime(m.Start); err == nil {
			newMoon = t.In(zone).Format("2006-01-02 15:04")
		}

		name := calendar.MonthName(m.Number, m.IsLeap, lc)
		line := row(widths,
			fmt.Sprint(i+1),
			name,
			m.Date,
			timescale.DateString(m.FirstDay+m.Days-1),
			fmt.Sprint(m.Days),
			newMoon,
		)
		if m.IsLeap {
			line = leapStyle.Render(line)
		}
		cmd.Println(line)
	}
	return nil
}

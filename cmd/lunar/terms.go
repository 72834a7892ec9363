package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zapponejosh/lunisolar-api/internal/timescale"
)

var termsCmd = &cobra.Command{
	Use:   "terms [year]",
	Short: "List the 24 solar terms of a Gregorian year",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runTerms,
}

func init() {
	rootCmd.AddCommand(termsCmd)
}

func runTerms(cmd *cobra.Command, args []string) error {
	year, err := yearArg(args)
	if err != nil {
		return err
	}

	terms, err := resolver.Terms(context.Background(), year)
	if err != nil {
		return err
	}

	zone := resolver.Zone()
	cmd.Println(titleStyle.Render(fmt.Sprintf("Solar terms %d (%s)", year, zone)))
	cmd.Println()

	widths := []int{22, 6, 5}
	cmd.Println(headerStyle.Render(row(widths, "Term", "", "Lon", "Time")))
	for _, te := range terms {
		at, err := timescale.ToTime(te.Instant)
		if err != nil {
			return err
		}
		line := row(widths,
			te.Term.Name(),
			te.Term.ChineseName(),
			fmt.Sprintf("%3.0f", te.Term.Longitude()),
			at.In(zone).Format("2006-01-02 15:04"),
		)
		if te.Term.IsMajor() {
			line = majorStyle.Render(line)
		}
		cmd.Println(line)
	}
	return nil
}

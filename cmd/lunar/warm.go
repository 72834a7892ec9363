package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var warmCmd = &cobra.Command{
	Use:   "warm",
	Short: "Fill the SQLite cache with lunar years and solar terms",
	Long: `Assemble each lunar year in the range, with the solar terms of the
Gregorian year of the same number, and store them in the cache given by
--db or $DATABASE_PATH. Cached years are replaced.`,
	Args: cobra.NoArgs,
	RunE: runWarm,
}

var (
	warmFrom    int
	warmTo      int
	warmTimeout time.Duration
)

func init() {
	f := warmCmd.Flags()
	f.IntVar(&warmFrom, "from", 0, "first year (default current year)")
	f.IntVar(&warmTo, "to", 0, "last year (default the year after --from)")
	f.DurationVar(&warmTimeout, "timeout", 5*time.Minute, "overall deadline")
	rootCmd.AddCommand(warmCmd)
}

func runWarm(cmd *cobra.Command, _ []string) error {
	from, to := warmFrom, warmTo
	if from == 0 {
		from = now().In(resolver.Zone()).Year()
	}
	if to == 0 {
		to = from + 1
	}
	if to < from {
		return errors.New("--to must not be before --from")
	}

	ctx, cancel := context.WithTimeout(context.Background(), warmTimeout)
	defer cancel()

	start := time.Now()
	for year := from; year <= to; year++ {
		if err := resolver.Warm(ctx, year); err != nil {
			return err
		}
		cmd.Println(okStyle.Render("✓") + fmt.Sprintf(" warmed %d", year))
	}

	cmd.Printf("Warmed %d years in %s\n", to-from+1, time.Since(start).Round(time.Millisecond))
	return nil
}

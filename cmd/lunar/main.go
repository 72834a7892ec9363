// Command lunar converts Gregorian dates to the Chinese lunisolar calendar
// and manages the conversion cache from the command line.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/zapponejosh/lunisolar-api/internal/calendar"
	"github.com/zapponejosh/lunisolar-api/internal/config"
	"github.com/zapponejosh/lunisolar-api/internal/database"
	"github.com/zapponejosh/lunisolar-api/internal/ephemeris"
	"github.com/zapponejosh/lunisolar-api/internal/logger"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

var (
	flagZone      string
	flagEphemeris string
	flagDB        string
	flagLang      string
	flagVerbose   bool
)

var (
	// resolver is built by setup unless a test has installed one.
	resolver *calendar.Resolver
	closeDB  func() error
	now      = time.Now
)

var rootCmd = &cobra.Command{
	Use:               "lunar",
	Short:             "Chinese lunisolar calendar tools",
	Long:              `Convert Gregorian dates to lunar dates, list lunar years and solar terms, and warm the SQLite conversion cache.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRunE: func(*cobra.Command, []string) error {
		if closeDB == nil {
			return nil
		}
		err := closeDB()
		closeDB = nil
		return err
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagZone, "tz", "", "calendar zone, e.g. UTC+8 or Asia/Shanghai (default $CALENDAR_TZ)")
	pf.StringVar(&flagEphemeris, "ephemeris", "", "directory holding manifest.toml (default $EPHEMERIS_DIR or embedded)")
	pf.StringVar(&flagDB, "db", "", "SQLite cache to read through (default none; warm uses $DATABASE_PATH)")
	pf.StringVar(&flagLang, "lang", "en", "display language: en or zh")
	pf.BoolVarP(&flagVerbose, "verbose", "v", false, "debug logging to stderr")
}

func main() {
	rootCmd.SetOut(os.Stdout)
	rootCmd.SetArgs(normalizeArgs(os.Args[1:]))
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// setup loads configuration and the ephemeris and builds the resolver.
func setup(cmd *cobra.Command, _ []string) error {
	if resolver != nil || cmd.Name() == "version" {
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	level := "warn"
	if flagVerbose {
		level = "debug"
	}
	log := logger.New(cmd.ErrOrStderr(), level, "text")

	zoneName := cfg.CalendarTZ
	if flagZone != "" {
		zoneName = flagZone
	}
	zone, err := config.ParseZone(zoneName)
	if err != nil {
		return fmt.Errorf("--tz: %w", err)
	}

	dir := cfg.EphemerisDir
	if flagEphemeris != "" {
		dir = flagEphemeris
	}
	set, err := ephemeris.LoadFrom(dir)
	if err != nil {
		return fmt.Errorf("load ephemeris: %w", err)
	}

	asm, err := calendar.FromSet(set, log, calendar.WithZone(zone))
	if err != nil {
		return err
	}

	dbPath := flagDB
	if dbPath == "" && cmd.Name() == "warm" {
		dbPath = cfg.DatabasePath
	}
	if dbPath == "" {
		resolver = calendar.NewResolver(asm, nil, log)
		return nil
	}

	db, err := database.Open(database.DefaultConfig(dbPath), log)
	if err != nil {
		return err
	}
	if _, err := db.Migrate(context.Background()); err != nil {
		db.Close()
		return err
	}
	closeDB = db.Close
	resolver = calendar.NewResolver(asm, db, log)
	return nil
}

func locale() calendar.Locale {
	if strings.HasPrefix(strings.ToLower(flagLang), "zh") {
		return calendar.Chinese
	}
	return calendar.English
}

// yearArg reads an optional year argument, defaulting to the current
// Gregorian year in the calendar zone.
func yearArg(args []string) (int, error) {
	if len(args) == 0 {
		return now().In(resolver.Zone()).Year(), nil
	}
	y, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, errors.New("year must be an integer")
	}
	return y, nil
}

var negativeNumber = regexp.MustCompile(`^-[0-9]+$`)

// normalizeArgs moves negative numbers given as arguments, such as the year
// in "year -5000", behind a "--" so they are not parsed as shorthand flags.
// A negative number that is the value of a flag stays where it is.
func normalizeArgs(args []string) []string {
	cmd, _, err := rootCmd.Find(args)
	if err != nil {
		return args
	}

	var out, negatives []string
	for i := 0; i < len(args); i++ {
		a := args[i]
		if a == "--" {
			out = append(out, args[i:]...)
			break
		}
		if negativeNumber.MatchString(a) {
			negatives = append(negatives, a)
			continue
		}
		out = append(out, a)
		if takesValue(cmd, a) && i+1 < len(args) {
			i++
			out = append(out, args[i])
		}
	}
	if len(negatives) == 0 {
		return args
	}

	if !slices.Contains(out, "--") {
		out = append(out, "--")
	}
	return append(out, negatives...)
}

// takesValue reports whether arg is a flag whose value is the next argument.
func takesValue(cmd *cobra.Command, arg string) bool {
	var f *pflag.Flag
	switch {
	case strings.HasPrefix(arg, "--") && !strings.Contains(arg, "="):
		name := arg[2:]
		if f = cmd.Flags().Lookup(name); f == nil {
			f = cmd.InheritedFlags().Lookup(name)
		}
	case len(arg) == 2 && arg[0] == '-':
		if f = cmd.Flags().ShorthandLookup(arg[1:]); f == nil {
			f = cmd.InheritedFlags().ShorthandLookup(arg[1:])
		}
	}
	return f != nil && f.NoOptDefVal == ""
}

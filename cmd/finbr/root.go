package main

import (
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/renanmoretto/finbr/calendar"
	"github.com/renanmoretto/finbr/instruments/futures"
	"github.com/renanmoretto/finbr/internal/config"
	"github.com/renanmoretto/finbr/internal/logger"
	"github.com/renanmoretto/finbr/utils"
)

type app struct {
	stdin          io.Reader
	stdout, stderr io.Writer
	now            func() time.Time

	// persistent flags
	configPath string
	logLevel   string
	asOf       string

	cfg    *config.Config
	log    zerolog.Logger
	cal    *calendar.Calendar
	pricer *futures.DI1
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "finbr",
		Short: "Brazilian business days and DI1 futures pricing",
		Long: `finbr computes B3/ANBIMA business days (national holidays, Carnaval,
Corpus Christi) and prices DI1 one-day interbank deposit futures.`,
		SilenceErrors:     true,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
	}
	root.SetIn(a.stdin)
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "config file path (default: finbr.yaml in ., ./config or ~/.finbr)")
	pf.StringVar(&a.logLevel, "log-level", "", "log level override (debug, info, warn, error)")
	pf.StringVar(&a.asOf, "as-of", "", "reference date (default: pricing.as_of or today in Sao Paulo)")

	root.AddCommand(
		newHolidaysCmd(a),
		newBusinessDaysCmd(a),
		newIsBusinessDayCmd(a),
		newShiftCmd(a),
		newCountCmd(a),
		newDI1Cmd(a),
		newServeCmd(a),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	a.cfg = cfg

	level := cfg.Log.Level
	if a.logLevel != "" {
		level = a.logLevel
	}
	a.log = logger.New(logger.Config{Level: level, Pretty: cfg.Log.Pretty, Out: a.stderr})
	logger.SetGlobalLogger(a.log)

	a.cal, err = cfg.NewCalendar()
	if err != nil {
		return err
	}
	a.pricer = futures.NewDI1(a.cal)

	a.log.Debug().Str("command", cmd.Name()).Int("extra_holidays", len(cfg.Calendar.ExtraHolidays)).Msg("configured")
	return nil
}

// referenceDate resolves --as-of, then pricing.as_of, then today on the B3 clock.
func (a *app) referenceDate() (time.Time, error) {
	if a.asOf != "" {
		d, err := utils.ParseDate(a.asOf)
		if err != nil {
			return time.Time{}, fmt.Errorf("--as-of: %w", err)
		}
		return d, nil
	}
	if d, ok, err := a.cfg.PinnedAsOf(); err != nil || ok {
		return d, err
	}
	return calendar.Today(a.now()), nil
}

// pinnedDate is the as-of the server should default to; zero follows the clock.
func (a *app) pinnedDate() (time.Time, error) {
	if a.asOf == "" {
		d, _, err := a.cfg.PinnedAsOf()
		return d, err
	}
	return a.referenceDate()
}

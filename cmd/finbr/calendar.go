package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/renanmoretto/finbr/calendar"
	"github.com/renanmoretto/finbr/utils"
)

func newHolidaysCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "holidays <year>",
		Short: "List the national holidays of a year",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			year, err := parseYear(args[0])
			if err != nil {
				return err
			}
			for _, d := range a.cal.HolidaysInYear(year) {
				name, _ := a.cal.HolidayName(d)
				fmt.Fprintf(a.stdout, "%s  %s  %s\n", d.Format(utils.DateLayout), d.Weekday().String()[:3], name)
			}
			return nil
		},
	}
}

func newBusinessDaysCmd(a *app) *cobra.Command {
	var list bool
	cmd := &cobra.Command{
		Use:   "bdays <year>",
		Short: "Count (or list) the business days of a year",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			year, err := parseYear(args[0])
			if err != nil {
				return err
			}
			days := a.cal.BusinessDaysInYear(year)
			if !list {
				fmt.Fprintln(a.stdout, len(days))
				return nil
			}
			for _, d := range days {
				fmt.Fprintln(a.stdout, d.Format(utils.DateLayout))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&list, "list", false, "print every business day instead of the count")
	return cmd
}

func newIsBusinessDayCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "isbday <date>",
		Short: "Report whether a date is a business day",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := utils.ParseDate(args[0])
			if err != nil {
				return err
			}
			ok := a.cal.IsBusinessDay(d)
			if name, holiday := a.cal.HolidayName(d); holiday {
				fmt.Fprintf(a.stdout, "%t (%s)\n", ok, name)
				return nil
			}
			fmt.Fprintln(a.stdout, ok)
			return nil
		},
	}
}

func newShiftCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "shift <date> <n>",
		Short:   "Move a date by n business days (n may be negative)",
		Example: "  finbr shift 2024-01-02 -1",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := utils.ParseDate(args[0])
			if err != nil {
				return err
			}
			n, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("n must be an integer, got %q", args[1])
			}
			res, err := a.cal.Shift(d, n)
			if err != nil {
				return err
			}
			fmt.Fprintln(a.stdout, res.Format(utils.DateLayout))
			return nil
		},
	}
	// Lets "-1" through as an argument once the date has been seen.
	cmd.Flags().SetInterspersed(false)
	return cmd
}

func newCountCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "count <start> <end>",
		Short: "Count business days in the closed interval [start, end]",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			start, err := utils.ParseDate(args[0])
			if err != nil {
				return err
			}
			end, err := utils.ParseDate(args[1])
			if err != nil {
				return err
			}
			fmt.Fprintln(a.stdout, a.cal.Count(start, end))
			return nil
		},
	}
}

func parseYear(s string) (int, error) {
	year, err := strconv.Atoi(s)
	if err != nil || year < calendar.MinYear || year > calendar.MaxYear {
		return 0, fmt.Errorf("invalid year %q", s)
	}
	return year, nil
}

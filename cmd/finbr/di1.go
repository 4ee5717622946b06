package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/renanmoretto/finbr/instruments/futures"
	"github.com/renanmoretto/finbr/marketdata/b3"
	"github.com/renanmoretto/finbr/utils"
)

// stripInput is the JSON accepted by "di1 strip"; rates may be decimals
// (0.1140) or percent strings ("11.40%").
type stripInput struct {
	AsOf  string                     `json:"as_of"`
	Rates map[string]json.RawMessage `json:"rates"`
}

func newDI1Cmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "di1",
		Short: "Price B3 DI1 futures",
	}
	cmd.PersistentFlags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "maturity <ticker>",
			Short: "Maturity date and days to maturity of a contract",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				asOf, err := a.referenceDate()
				if err != nil {
					return err
				}
				maturity, err := a.pricer.Maturity(args[0], asOf)
				if err != nil {
					return err
				}
				du, err := a.pricer.DaysToMaturity(args[0], asOf, true)
				if err != nil {
					return err
				}
				dc, err := a.pricer.DaysToMaturity(args[0], asOf, false)
				if err != nil {
					return err
				}
				fmt.Fprintf(a.stdout, "%s  business_days=%d  calendar_days=%d\n", maturity.Format(utils.DateLayout), du, dc)
				return nil
			},
		},
		&cobra.Command{
			Use:   "price <ticker> <rate>",
			Short: "Unit price (PU) from an annual rate, e.g. 0.1140 or 11.40%",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				rate, err := parseRate(args[1])
				if err != nil {
					return err
				}
				return a.quote(args[0], asJSON, func(asOf time.Time) (futures.Quote, error) {
					return a.pricer.Quote(args[0], rate, asOf)
				})
			},
		},
		&cobra.Command{
			Use:   "rate <ticker> <price>",
			Short: "Implied annual rate from a unit price",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				price, err := strconv.ParseFloat(args[1], 64)
				if err != nil {
					return fmt.Errorf("price must be a number, got %q", args[1])
				}
				return a.quote(args[0], asJSON, func(asOf time.Time) (futures.Quote, error) {
					return a.pricer.QuoteFromPrice(args[0], price, asOf)
				})
			},
		},
		&cobra.Command{
			Use:   "dv01 <ticker> <rate>",
			Short: "PU change for a one basis point rise in rate",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				rate, err := parseRate(args[1])
				if err != nil {
					return err
				}
				asOf, err := a.referenceDate()
				if err != nil {
					return err
				}
				dv01, err := a.pricer.DV01(args[0], rate, asOf)
				if err != nil {
					return err
				}
				fmt.Fprintf(a.stdout, "%.2f\n", dv01)
				return nil
			},
		},
		newListedCmd(a),
		newStripCmd(a, &asJSON),
	)
	return cmd
}

func newListedCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "listed [n]",
		Short: "Next n monthly DI1 contracts still trading (default 12)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n := 12
			if len(args) == 1 {
				var err error
				if n, err = strconv.Atoi(args[0]); err != nil {
					return fmt.Errorf("n must be an integer, got %q", args[0])
				}
			}
			asOf, err := a.referenceDate()
			if err != nil {
				return err
			}
			for _, ticker := range a.pricer.ListedTickers(asOf, n) {
				fmt.Fprintln(a.stdout, ticker)
			}
			return nil
		},
	}
}

func newStripCmd(a *app, asJSON *bool) *cobra.Command {
	var inputPath string
	var useFeed bool
	cmd := &cobra.Command{
		Use:   "strip",
		Short: "Price a strip of DI1 contracts and build the pre curve",
		Long: `Reads {"as_of": "YYYY-MM-DD", "rates": {"DI1F25": 0.1019, ...}} from --input
or stdin. With --feed, uses the bundled settlement strip for --as-of instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			asOf, rates, err := a.stripRates(inputPath, useFeed)
			if err != nil {
				return err
			}

			workers := a.cfg.Pricing.Workers
			quotes, err := a.pricer.QuoteStrip(cmd.Context(), rates, asOf, futures.StripOptions{Workers: workers})
			if err != nil {
				return err
			}
			crv, err := a.pricer.BuildCurve(quotes)
			if err != nil {
				return err
			}
			a.log.Info().Int("contracts", len(quotes)).Str("as_of", asOf.Format(utils.DateLayout)).Msg("strip priced")

			if *asJSON {
				return writeJSON(a.stdout, map[string]any{"as_of": asOf.Format(utils.DateLayout), "quotes": quotes, "curve": crv.Vertices()})
			}
			tw := tabwriter.NewWriter(a.stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "TICKER\tMATURITY\tDU\tRATE\tPU\tDV01\tDF")
			for _, q := range quotes {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%.5f\t%.2f\t%.2f\t%.8f\n",
					q.Ticker, q.Maturity.Format(utils.DateLayout), q.BusinessDays, q.Rate, q.UnitPrice, q.DV01, crv.DiscountFactor(q.Maturity))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&inputPath, "input", "", "JSON input path (default: stdin)")
	cmd.Flags().BoolVar(&useFeed, "feed", false, "use the bundled B3 settlement strip")
	return cmd
}

func (a *app) stripRates(inputPath string, useFeed bool) (time.Time, map[string]float64, error) {
	if useFeed {
		asOf, err := a.referenceDate()
		if err != nil {
			return time.Time{}, nil, err
		}
		rates, ok := b3.DefaultSettlementFeed().RatesOn(asOf)
		if !ok {
			return time.Time{}, nil, fmt.Errorf("no settlement strip for %s", asOf.Format(utils.DateLayout))
		}
		return asOf, rates, nil
	}

	var r io.Reader = a.stdin
	if inputPath != "" {
		f, err := os.Open(inputPath)
		if err != nil {
			return time.Time{}, nil, err
		}
		defer f.Close()
		r = f
	}

	var in stripInput
	if err := json.NewDecoder(r).Decode(&in); err != nil {
		return time.Time{}, nil, fmt.Errorf("decode strip input: %w", err)
	}
	if len(in.Rates) == 0 {
		return time.Time{}, nil, fmt.Errorf("strip input has no rates")
	}

	rates := make(map[string]float64, len(in.Rates))
	for ticker, raw := range in.Rates {
		rate, err := parseRate(strings.Trim(string(raw), `"`))
		if err != nil {
			return time.Time{}, nil, fmt.Errorf("%s: %w", ticker, err)
		}
		rates[ticker] = rate
	}

	if in.AsOf != "" && a.asOf == "" {
		asOf, err := utils.ParseDate(in.AsOf)
		return asOf, rates, err
	}
	asOf, err := a.referenceDate()
	return asOf, rates, err
}

func (a *app) quote(ticker string, asJSON bool, price func(asOf time.Time) (futures.Quote, error)) error {
	asOf, err := a.referenceDate()
	if err != nil {
		return err
	}
	q, err := price(asOf)
	if err != nil {
		return err
	}
	a.log.Debug().Str("ticker", q.Ticker).Str("as_of", asOf.Format(utils.DateLayout)).Msg("DI1 quote")

	if asJSON {
		return writeJSON(a.stdout, q)
	}
	tw := tabwriter.NewWriter(a.stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "ticker\t%s\n", q.Ticker)
	fmt.Fprintf(tw, "as_of\t%s\n", q.AsOf.Format(utils.DateLayout))
	fmt.Fprintf(tw, "maturity\t%s\n", q.Maturity.Format(utils.DateLayout))
	fmt.Fprintf(tw, "business_days\t%d\n", q.BusinessDays)
	fmt.Fprintf(tw, "calendar_days\t%d\n", q.CalendarDays)
	fmt.Fprintf(tw, "rate\t%.5f\n", q.Rate)
	fmt.Fprintf(tw, "unit_price\t%.2f\n", q.UnitPrice)
	fmt.Fprintf(tw, "dv01\t%.2f\n", q.DV01)
	return tw.Flush()
}

// parseRate accepts a decimal rate (0.114) or a percentage ("11.4%").
func parseRate(s string) (float64, error) {
	s = strings.TrimSpace(s)
	pct := strings.HasSuffix(s, "%")
	v, err := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64)
	if err != nil {
		return 0, fmt.Errorf("rate must be a number like 0.114 or 11.4%%, got %q", s)
	}
	if pct {
		v /= 100
	}
	return v, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

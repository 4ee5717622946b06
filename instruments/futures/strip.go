package futures

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/renanmoretto/finbr/calendar"
	"github.com/renanmoretto/finbr/curve"
)

// StripOptions tunes QuoteStrip.
type StripOptions struct {
	// Workers bounds concurrent pricing; zero means GOMAXPROCS.
	Workers int
}

// QuoteStrip prices every ticker -> rate pair concurrently and returns the
// quotes sorted by maturity. The first failing contract aborts the strip.
func (p *DI1) QuoteStrip(ctx context.Context, rates map[string]float64, asOf time.Time, opts StripOptions) ([]Quote, error) {
	tickers := make([]string, 0, len(rates))
	for t := range rates {
		tickers = append(tickers, t)
	}
	sort.Strings(tickers)

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	quotes := make([]Quote, len(tickers))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, ticker := range tickers {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			q, err := p.Quote(ticker, rates[ticker], asOf)
			if err != nil {
				return fmt.Errorf("quote %s: %w", ticker, err)
			}
			quotes[i] = q
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.SliceStable(quotes, func(i, j int) bool { return quotes[i].Maturity.Before(quotes[j].Maturity) })
	return quotes, nil
}

// ListedTickers returns the next n monthly DI1 symbols maturing strictly after asOf.
// The list stops early at the last symbol whose two-digit year still resolves
// to its own maturity from asOf, so it can be shorter than n.
func (p *DI1) ListedTickers(asOf time.Time, n int) []string {
	if n <= 0 {
		return nil
	}
	asOf = calendar.Truncate(asOf)
	out := make([]string, 0, min(n, 12*51))
	month := calendar.Date(asOf.Year(), asOf.Month(), 1)
	for len(out) < n {
		if ResolveYear(month.Year()%100, asOf) != month.Year() {
			break
		}
		maturity := p.cal.FirstBusinessDayOfMonth(month.Year(), month.Month())
		if maturity.After(asOf) {
			out = append(out, FormatTicker(DI1Product, month.Year(), month.Month()))
		}
		month = month.AddDate(0, 1, 0)
	}
	return out
}

// BuildCurve turns live strip quotes into a DI pre curve anchored at their as-of date.
func (p *DI1) BuildCurve(quotes []Quote) (*curve.Curve, error) {
	if len(quotes) == 0 {
		return nil, curve.ErrNoVertices
	}
	asOf := quotes[0].AsOf
	nodes := make(map[time.Time]float64, len(quotes))
	for _, q := range quotes {
		if !q.AsOf.Equal(asOf) {
			return nil, fmt.Errorf("build curve: %s quoted as of %s, expected %s", q.Ticker,
				q.AsOf.Format("2006-01-02"), asOf.Format("2006-01-02"))
		}
		if q.BusinessDays <= 0 {
			continue
		}
		nodes[q.Maturity] = q.Rate
	}
	return curve.New(asOf, p.cal, nodes)
}

package main

import (
	"context"
	"fmt"
	"log"

	"github.com/renanmoretto/finbr/calendar"
	"github.com/renanmoretto/finbr/instruments/futures"
	"github.com/renanmoretto/finbr/marketdata/b3"
)

func main() {
	asOf := calendar.Date(2024, 4, 24)
	cal := calendar.NewNational()
	pricer := futures.NewDI1(cal)

	rates, ok := b3.DefaultSettlementFeed().RatesOn(asOf)
	if !ok {
		log.Fatalf("no settlement strip for %s", asOf.Format("2006-01-02"))
	}

	quotes, err := pricer.QuoteStrip(context.Background(), rates, asOf, futures.StripOptions{})
	if err != nil {
		log.Fatal(err)
	}
	crv, err := pricer.BuildCurve(quotes)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("DI1 strip as of %s (%d business days in %d)\n", asOf.Format("2006-01-02"),
		len(cal.BusinessDaysInYear(asOf.Year())), asOf.Year())
	for _, q := range quotes {
		fmt.Printf("%-7s %s  du=%4d  rate=%.5f  PU=%9.2f  DV01=%6.2f\n",
			q.Ticker, q.Maturity.Format("2006-01-02"), q.BusinessDays, q.Rate, q.UnitPrice, q.DV01)
	}

	first, last := quotes[0].Maturity, quotes[len(quotes)-1].Maturity
	fwd, err := crv.ForwardRate(first, last)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Forward %s -> %s: %.5f\n", first.Format("2006-01-02"), last.Format("2006-01-02"), fwd)
}

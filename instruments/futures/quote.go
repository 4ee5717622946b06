package futures

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/renanmoretto/finbr/calendar"
	"github.com/renanmoretto/finbr/utils"
)

// Exchange rounding applied to published quotes.
const (
	PriceDecimals = 2
	RateDecimals  = 5
	DV01Decimals  = 2
)

// Quote is a DI1 contract valued on a reference date, rounded the way B3
// publishes it.
type Quote struct {
	Ticker        string    `json:"ticker"`
	AsOf          time.Time `json:"as_of"`
	Maturity      time.Time `json:"maturity"`
	BusinessDays  int       `json:"business_days"`
	CalendarDays  int       `json:"calendar_days"`
	BusinessYears float64   `json:"business_years"`
	CalendarYears float64   `json:"calendar_years"`
	Rate          float64   `json:"rate"`
	UnitPrice     float64   `json:"unit_price"`
	DV01          float64   `json:"dv01"`
}

// Quote values ticker at rate: PU to 2 decimals, and DV01 as the difference of
// the rounded PUs at rate and rate + 1bp.
func (p *DI1) Quote(ticker string, rate float64, asOf time.Time) (Quote, error) {
	q, err := p.skeleton(ticker, asOf)
	if err != nil {
		return Quote{}, err
	}

	pu, err := PriceFromRate(rate, q.BusinessDays)
	if err != nil {
		return Quote{}, err
	}
	return q.price(rate, pu)
}

// QuoteFromPrice values ticker from its PU, rounding the implied rate to 5 decimals.
func (p *DI1) QuoteFromPrice(ticker string, price float64, asOf time.Time) (Quote, error) {
	q, err := p.skeleton(ticker, asOf)
	if err != nil {
		return Quote{}, err
	}

	rate, err := RateFromPrice(price, q.BusinessDays)
	if err != nil {
		return Quote{}, err
	}
	return q.price(rate, price)
}

// price fills the rounded fields. DV01 is always the difference of the
// rounded PUs at rate and rate + 1bp.
func (q Quote) price(rate, pu float64) (Quote, error) {
	bumped, err := PriceFromRate(rate+BasisPoint, q.BusinessDays)
	if err != nil {
		return Quote{}, err
	}
	rounded := roundTo(pu, PriceDecimals)
	q.Rate = roundTo(rate, RateDecimals)
	q.UnitPrice = rounded
	q.DV01 = roundTo(rounded-roundTo(bumped, PriceDecimals), DV01Decimals)
	return q, nil
}

func (p *DI1) skeleton(ticker string, asOf time.Time) (Quote, error) {
	t, err := parseDI1(ticker)
	if err != nil {
		return Quote{}, err
	}
	asOf = calendar.Truncate(asOf)
	maturity := p.cal.FirstBusinessDayOfMonth(t.Year(asOf), t.Month)
	du := p.cal.Between(asOf, maturity)
	dc := utils.Days(asOf, maturity)

	return Quote{
		Ticker:        t.Symbol,
		AsOf:          asOf,
		Maturity:      maturity,
		BusinessDays:  du,
		CalendarDays:  dc,
		BusinessYears: utils.YearFraction(du, utils.Bus252),
		CalendarYears: utils.YearFraction(dc, utils.Act365F),
	}, nil
}

func roundTo(v float64, places int32) float64 {
	f, _ := decimal.NewFromFloat(v).Round(places).Float64()
	return f
}

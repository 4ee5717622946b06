package futures

import (
	"fmt"
	"math"
	"time"

	"github.com/renanmoretto/finbr/calendar"
	"github.com/renanmoretto/finbr/utils"
)

const (
	// FaceValue is the DI1 notional paid at maturity, in reais.
	FaceValue = 100_000.0
	// BusinessDaysPerYear is the DI1 annualisation base.
	BusinessDaysPerYear = utils.BusinessDaysPerYear
	// BasisPoint is one hundredth of a percent.
	BasisPoint = 0.0001

	// DI1Product is the exchange code of the one-day interbank deposit future.
	DI1Product = "DI1"
)

// DI1 prices one-day interbank deposit futures against a business-day calendar.
//
// Every operation takes an explicit asOf reference date; nothing is cached
// between calls beyond the calendar's own year tables.
type DI1 struct {
	cal *calendar.Calendar
}

// NewDI1 returns a pricer on cal. A nil cal uses the national calendar.
func NewDI1(cal *calendar.Calendar) *DI1 {
	if cal == nil {
		cal = calendar.NewNational()
	}
	return &DI1{cal: cal}
}

// Calendar returns the calendar used for maturities and day counts.
func (p *DI1) Calendar() *calendar.Calendar {
	return p.cal
}

// VerifyTicker checks that ticker is a well-formed DI1 symbol.
func VerifyTicker(ticker string) error {
	_, err := parseDI1(ticker)
	return err
}

func parseDI1(ticker string) (Ticker, error) {
	t, err := ParseTicker(ticker)
	if err != nil {
		return Ticker{}, err
	}
	if t.Product != DI1Product {
		return Ticker{}, fmt.Errorf("%w: %q: product must be %s, got %s", ErrInvalidTicker, ticker, DI1Product, t.Product)
	}
	return t, nil
}

// Maturity returns the first business day of the contract month.
func (p *DI1) Maturity(ticker string, asOf time.Time) (time.Time, error) {
	t, err := parseDI1(ticker)
	if err != nil {
		return time.Time{}, err
	}
	return p.cal.FirstBusinessDayOfMonth(t.Year(asOf), t.Month), nil
}

// DaysToMaturity counts days from asOf to maturity. Business days exclude asOf
// itself; calendar days are the plain date difference. Expired contracts give
// negative counts.
func (p *DI1) DaysToMaturity(ticker string, asOf time.Time, business bool) (int, error) {
	maturity, err := p.Maturity(ticker, asOf)
	if err != nil {
		return 0, err
	}
	if business {
		return p.cal.Between(asOf, maturity), nil
	}
	return utils.Days(asOf, maturity), nil
}

// UnitPrice returns the PU: FaceValue / (1+rate)^(du/252).
func (p *DI1) UnitPrice(ticker string, rate float64, asOf time.Time) (float64, error) {
	du, err := p.DaysToMaturity(ticker, asOf, true)
	if err != nil {
		return 0, err
	}
	pu, err := PriceFromRate(rate, du)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", ticker, err)
	}
	return pu, nil
}

// ImpliedRate inverts UnitPrice: (FaceValue/price)^(252/du) - 1.
func (p *DI1) ImpliedRate(ticker string, price float64, asOf time.Time) (float64, error) {
	du, err := p.DaysToMaturity(ticker, asOf, true)
	if err != nil {
		return 0, err
	}
	rate, err := RateFromPrice(price, du)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", ticker, err)
	}
	return rate, nil
}

// DV01 is the PU lost when the rate rises by one basis point.
func (p *DI1) DV01(ticker string, rate float64, asOf time.Time) (float64, error) {
	du, err := p.DaysToMaturity(ticker, asOf, true)
	if err != nil {
		return 0, err
	}
	dv01, err := dv01(rate, du)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", ticker, err)
	}
	return dv01, nil
}

// PriceFromRate discounts FaceValue over du business days at an annual rate.
// A negative du compounds an expired contract forward past face value.
func PriceFromRate(rate float64, du int) (float64, error) {
	if math.IsNaN(rate) || math.IsInf(rate, 0) || rate <= -1 {
		return 0, fmt.Errorf("%w: %v", ErrInvalidRate, rate)
	}
	return FaceValue / math.Pow(1+rate, utils.YearFraction(du, utils.Bus252)), nil
}

// RateFromPrice returns the annual rate implied by a PU over du business days.
func RateFromPrice(price float64, du int) (float64, error) {
	if math.IsNaN(price) || math.IsInf(price, 0) || price <= 0 {
		return 0, fmt.Errorf("%w: %v", ErrInvalidPrice, price)
	}
	if du <= 0 {
		return 0, fmt.Errorf("%w: %d business days to maturity", ErrUndefinedRate, du)
	}
	rate := math.Pow(FaceValue/price, BusinessDaysPerYear/float64(du)) - 1
	if math.IsInf(rate, 0) {
		return 0, fmt.Errorf("%w: %v implies an unbounded rate over %d business days", ErrInvalidPrice, price, du)
	}
	return rate, nil
}

func dv01(rate float64, du int) (float64, error) {
	pu, err := PriceFromRate(rate, du)
	if err != nil {
		return 0, err
	}
	bumped, err := PriceFromRate(rate+BasisPoint, du)
	if err != nil {
		return 0, err
	}
	return pu - bumped, nil
}

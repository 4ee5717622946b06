// Package futures prices B3 interest-rate futures (DI1) on the Brazilian
// business-day calendar.
package futures

import (
	"fmt"
	"strings"
	"time"
	"unicode"
)

// monthCodes is the exchange month alphabet, F = January ... Z = December.
var monthCodes = map[byte]time.Month{
	'F': time.January,
	'G': time.February,
	'H': time.March,
	'J': time.April,
	'K': time.May,
	'M': time.June,
	'N': time.July,
	'Q': time.August,
	'U': time.September,
	'V': time.October,
	'X': time.November,
	'Z': time.December,
}

const monthAlphabet = "FGHJKMNQUVXZ"

// Ticker is a parsed futures symbol such as DI1F30.
type Ticker struct {
	Symbol       string
	Product      string
	Month        time.Month
	YearFragment int
}

// ParseTicker splits a symbol into product, month code and two-digit year.
// The month letter is case-insensitive.
func ParseTicker(symbol string) (Ticker, error) {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	if len(s) < 5 {
		return Ticker{}, fmt.Errorf("%w: %q is too short", ErrInvalidTicker, symbol)
	}

	product, code, year := s[:len(s)-3], s[len(s)-3], s[len(s)-2:]
	if err := validateProduct(product); err != nil {
		return Ticker{}, fmt.Errorf("%w: %q: %v", ErrInvalidTicker, symbol, err)
	}

	month, ok := monthCodes[code]
	if !ok {
		return Ticker{}, fmt.Errorf("%w: %q: invalid contract letter %q", ErrInvalidTicker, symbol, code)
	}

	if !isDigit(year[0]) || !isDigit(year[1]) {
		return Ticker{}, fmt.Errorf("%w: %q: expected 2 digits at the end, got %q", ErrInvalidTicker, symbol, year)
	}

	return Ticker{
		Symbol:       s,
		Product:      product,
		Month:        month,
		YearFragment: int(year[0]-'0')*10 + int(year[1]-'0'),
	}, nil
}

func validateProduct(p string) error {
	if len(p) < 2 {
		return fmt.Errorf("product prefix %q is too short", p)
	}
	for i, r := range p {
		if i == 0 && !unicode.IsLetter(r) {
			return fmt.Errorf("product prefix %q must start with a letter", p)
		}
		if r > unicode.MaxASCII || !(unicode.IsLetter(r) || unicode.IsDigit(r)) {
			return fmt.Errorf("product prefix %q has invalid character %q", p, r)
		}
	}
	return nil
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

// Year resolves the contract year relative to asOf.
func (t Ticker) Year(asOf time.Time) int {
	return ResolveYear(t.YearFragment, asOf)
}

// ResolveYear picks the four-digit year ending in fragment that is nearest to
// asOf's year. Ties resolve toward the future.
func ResolveYear(fragment int, asOf time.Time) int {
	ref := asOf.Year()
	base := ref - mod(ref, 100) + fragment

	best := base
	for _, cand := range []int{base - 100, base + 100} {
		dc, db := abs(cand-ref), abs(best-ref)
		if dc < db || (dc == db && cand > best) {
			best = cand
		}
	}
	return best
}

// MonthCode returns the contract letter for month.
func MonthCode(m time.Month) (byte, bool) {
	if m < time.January || m > time.December {
		return 0, false
	}
	return monthAlphabet[m-1], true
}

// FormatTicker builds the symbol for product maturing in year/month, e.g. DI1F30.
func FormatTicker(product string, year int, month time.Month) string {
	code, ok := MonthCode(month)
	if !ok {
		return ""
	}
	return fmt.Sprintf("%s%c%02d", strings.ToUpper(product), code, mod(year, 100))
}

func mod(a, b int) int {
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

package b3

import "time"

// SettlementFeed supplies DI1 settlement rates (ticker -> annual rate, 252 base)
// for a trading date. Network-backed feeds live outside this module.
type SettlementFeed interface {
	RatesOn(date time.Time) (map[string]float64, bool)
}

// MapSettlementFeed is a static map-backed implementation for development/testing.
type MapSettlementFeed struct {
	rates map[string]map[string]float64
}

// NewMapSettlementFeed wraps rates keyed by "2006-01-02".
func NewMapSettlementFeed(rates map[string]map[string]float64) *MapSettlementFeed {
	return &MapSettlementFeed{rates: rates}
}

// DefaultSettlementFeed builds a map-backed feed using the bundled sample strip.
func DefaultSettlementFeed() SettlementFeed {
	return NewMapSettlementFeed(SampleSettlements)
}

// RatesOn returns a copy of the strip for date.
func (m *MapSettlementFeed) RatesOn(date time.Time) (map[string]float64, bool) {
	strip, ok := m.rates[date.Format("2006-01-02")]
	if !ok {
		return nil, false
	}
	out := make(map[string]float64, len(strip))
	for k, v := range strip {
		out[k] = v
	}
	return out, true
}

// Dates lists the trading dates the feed can serve, unordered.
func (m *MapSettlementFeed) Dates() []string {
	out := make([]string, 0, len(m.rates))
	for k := range m.rates {
		out = append(out, k)
	}
	return out
}

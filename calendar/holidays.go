package calendar

import (
	"sort"
	"time"

	"github.com/rickar/cal/v2"
	"github.com/rickar/cal/v2/br"
)

var (
	// CarnavalSegunda is the Monday before Ash Wednesday. B3 closes on both
	// Carnival days; br.Carnaval only covers the Tuesday.
	CarnavalSegunda = &cal.Holiday{
		Name:   "Carnaval (segunda-feira)",
		Type:   cal.ObservanceBank,
		Offset: -48,
		Func:   cal.CalcEasterOffset,
	}

	// ConscienciaNegra became national with Law 14.759/2023.
	ConscienciaNegra = &cal.Holiday{
		Name:      "Dia Nacional de Zumbi e da Consciência Negra",
		Type:      cal.ObservancePublic,
		Month:     time.November,
		Day:       20,
		StartYear: 2024,
		Func:      cal.CalcDayOfMonth,
	}

	easter = &cal.Holiday{Name: "Páscoa", Func: cal.CalcEasterOffset}
)

// NationalHolidays is the Brazilian national holiday set used by ANBIMA and B3.
var NationalHolidays = []*cal.Holiday{
	br.AnoNovo.Clone(&cal.Holiday{Name: "Confraternização Universal"}),
	CarnavalSegunda,
	br.Carnaval.Clone(&cal.Holiday{Name: "Carnaval (terça-feira)"}),
	br.SextaFeiraSanta,
	br.Tiradentes,
	br.Trabalhador.Clone(&cal.Holiday{Name: "Dia do Trabalho"}),
	br.CorpusChristi,
	br.Independencia,
	br.NossaSenhoraAparecida,
	br.Finados,
	br.Republica,
	ConscienciaNegra,
	br.Natal,
}

// OneOff builds a holiday for a single non-working date (e.g. an exchange closure).
func OneOff(name string, d time.Time) *cal.Holiday {
	d = Truncate(d)
	return &cal.Holiday{
		Name:      name,
		Type:      cal.ObservanceBank,
		Month:     d.Month(),
		Day:       d.Day(),
		StartYear: d.Year(),
		EndYear:   d.Year(),
		Func:      cal.CalcDayOfMonth,
	}
}

// HolidayDate places h in year as a calendar date. It reports false when h is
// not observed that year or its offset lands in a neighbouring year.
func HolidayDate(h *cal.Holiday, year int) (time.Time, bool) {
	actual, _ := h.Calc(year)
	if actual.IsZero() {
		return time.Time{}, false
	}
	d := Truncate(actual)
	return d, d.Year() == year
}

// EasterSunday returns Gregorian Easter for year.
func EasterSunday(year int) time.Time {
	d, _ := HolidayDate(easter, year)
	return d
}

// Holidays returns the dates produced by rules in year, ascending and deduplicated.
// With no rules it uses NationalHolidays.
func Holidays(year int, rules ...*cal.Holiday) []time.Time {
	if len(rules) == 0 {
		rules = NationalHolidays
	}
	seen := make(map[time.Time]struct{}, len(rules))
	out := make([]time.Time, 0, len(rules))
	for _, r := range rules {
		d, ok := HolidayDate(r, year)
		if !ok {
			continue
		}
		if _, dup := seen[d]; dup {
			continue
		}
		seen[d] = struct{}{}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

package calendar

import (
	"strings"
	"time"

	"github.com/rickar/cal/v2"
)

// yearTable is the dense business-day index for one calendar year.
// It is never mutated after construction.
type yearTable struct {
	year  int
	first time.Time // January 1st

	// cum[i] is the number of business days among the first i days of the year,
	// so len(cum) == days in year + 1.
	cum      []int
	business []time.Time
	holidays []time.Time
	names    map[int]string // day-of-year index (0-based) -> holiday name
}

func buildYearTable(year int, rules []*cal.Holiday) *yearTable {
	first := Date(year, time.January, 1)
	days := first.AddDate(1, 0, 0).Sub(first).Hours() / 24
	n := int(days)

	names := make(map[int]string)
	for _, r := range rules {
		d, ok := HolidayDate(r, year)
		if !ok {
			continue
		}
		idx := d.YearDay() - 1
		if prev, dup := names[idx]; dup {
			if !strings.Contains(prev, r.Name) {
				names[idx] = prev + " / " + r.Name
			}
			continue
		}
		names[idx] = r.Name
	}

	t := &yearTable{
		year:     year,
		first:    first,
		cum:      make([]int, n+1),
		business: make([]time.Time, 0, 260),
		holidays: make([]time.Time, 0, len(names)),
		names:    names,
	}

	for i := 0; i < n; i++ {
		d := first.AddDate(0, 0, i)
		_, holiday := names[i]
		if holiday {
			t.holidays = append(t.holidays, d)
		}
		t.cum[i+1] = t.cum[i]
		if !isWeekend(d) && !holiday {
			t.cum[i+1]++
			t.business = append(t.business, d)
		}
	}
	return t
}

// countBusinessDays counts the business days of year without building its table.
func countBusinessDays(year int, rules []*cal.Holiday) int {
	first := Date(year, time.January, 1)
	next := first.AddDate(1, 0, 0)

	n := 0
	for d := first; d.Before(next); d = d.AddDate(0, 0, 1) {
		if !isWeekend(d) {
			n++
		}
	}
	seen := make(map[time.Time]struct{}, len(rules))
	for _, r := range rules {
		d, ok := HolidayDate(r, year)
		if !ok || isWeekend(d) {
			continue
		}
		if _, dup := seen[d]; dup {
			continue
		}
		seen[d] = struct{}{}
		n--
	}
	return n
}

// index returns the 0-based day-of-year of d, which must belong to t.year.
func (t *yearTable) index(d time.Time) int {
	return d.YearDay() - 1
}

func (t *yearTable) isBusinessDay(d time.Time) bool {
	i := t.index(d)
	return t.cum[i+1] > t.cum[i]
}

// upTo returns the number of business days in [Jan 1, d].
func (t *yearTable) upTo(d time.Time) int {
	return t.cum[t.index(d)+1]
}

// before returns the number of business days in [Jan 1, d).
func (t *yearTable) before(d time.Time) int {
	return t.cum[t.index(d)]
}

func isWeekend(d time.Time) bool {
	return d.Weekday() == time.Saturday || d.Weekday() == time.Sunday
}

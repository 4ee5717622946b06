package calendar

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/rickar/cal/v2"
)

// Years accepted by Shift.
const (
	MinYear = 1
	MaxYear = 9999
)

// ErrOutOfRange is returned when a shift leaves years MinYear..MaxYear.
var ErrOutOfRange = errors.New("date out of range")

// Calendar answers business-day questions for a holiday rule set.
//
// Per-year tables are built lazily and shared read-only, so a Calendar is safe
// for concurrent use.
type Calendar struct {
	rules []*cal.Holiday

	mu    sync.RWMutex
	years map[int]*yearTable
}

// New creates a calendar from the given holiday rules. Weekends are always non-business.
func New(rules ...*cal.Holiday) *Calendar {
	r := make([]*cal.Holiday, len(rules))
	copy(r, rules)
	return &Calendar{
		rules: r,
		years: make(map[int]*yearTable),
	}
}

// NewNational creates the Brazilian national calendar, optionally with extra closures.
func NewNational(extra ...*cal.Holiday) *Calendar {
	rules := make([]*cal.Holiday, 0, len(NationalHolidays)+len(extra))
	rules = append(rules, NationalHolidays...)
	rules = append(rules, extra...)
	return New(rules...)
}

// Date builds a calendar date (midnight UTC).
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// Truncate drops the clock and location of t, keeping its year/month/day.
func Truncate(t time.Time) time.Time {
	return Date(t.Year(), t.Month(), t.Day())
}

func (c *Calendar) table(year int) *yearTable {
	c.mu.RLock()
	t, ok := c.years[year]
	c.mu.RUnlock()
	if ok {
		return t
	}

	built := buildYearTable(year, c.rules)

	c.mu.Lock()
	defer c.mu.Unlock()
	if t, ok := c.years[year]; ok {
		return t
	}
	c.years[year] = built
	return built
}

// IsBusinessDay checks weekends and the holiday set.
func (c *Calendar) IsBusinessDay(t time.Time) bool {
	t = Truncate(t)
	return c.table(t.Year()).isBusinessDay(t)
}

// IsHoliday reports whether t is a holiday, whatever its weekday.
func (c *Calendar) IsHoliday(t time.Time) bool {
	_, ok := c.HolidayName(t)
	return ok
}

// HolidayName returns the name of the holiday falling on t.
func (c *Calendar) HolidayName(t time.Time) (string, bool) {
	t = Truncate(t)
	tb := c.table(t.Year())
	name, ok := tb.names[tb.index(t)]
	return name, ok
}

// Next returns the first business day strictly after t.
func (c *Calendar) Next(t time.Time) time.Time {
	return c.AddBusinessDays(t, 1)
}

// Previous returns the last business day strictly before t.
func (c *Calendar) Previous(t time.Time) time.Time {
	return c.AddBusinessDays(t, -1)
}

// AddBusinessDays advances n business days (n can be negative). Counting starts
// strictly after (or before) t; n == 0 returns t unchanged.
func (c *Calendar) AddBusinessDays(t time.Time, n int) time.Time {
	d, _ := c.shift(t, n, math.MinInt, math.MaxInt)
	return d
}

// Shift is AddBusinessDays restricted to years MinYear through MaxYear. It
// returns ErrOutOfRange instead of walking past them.
func (c *Calendar) Shift(t time.Time, n int) (time.Time, error) {
	t = Truncate(t)
	if t.Year() < MinYear || t.Year() > MaxYear {
		return time.Time{}, fmt.Errorf("%w: %s", ErrOutOfRange, t.Format("2006-01-02"))
	}
	return c.shift(t, n, MinYear, MaxYear)
}

func (c *Calendar) shift(t time.Time, n, lo, hi int) (time.Time, error) {
	t = Truncate(t)
	if n == 0 {
		return t, nil
	}

	year := t.Year()
	tb := c.table(year)
	if n > 0 {
		idx := tb.upTo(t) + n - 1
		if idx < len(tb.business) {
			return tb.business[idx], nil
		}
		idx -= len(tb.business)
		for year++; year <= hi; year++ {
			count := c.yearCount(year)
			if idx < count {
				return c.table(year).business[idx], nil
			}
			idx -= count
		}
	} else {
		idx := tb.before(t) + n
		if idx >= 0 {
			return tb.business[idx], nil
		}
		for year--; year >= lo; year-- {
			count := c.yearCount(year)
			idx += count
			if idx >= 0 {
				return c.table(year).business[idx], nil
			}
		}
	}
	return time.Time{}, fmt.Errorf("%w: %d business days from %s", ErrOutOfRange, n, t.Format("2006-01-02"))
}

// yearCount is len(BusinessDaysInYear(year)) without caching a table for year.
func (c *Calendar) yearCount(year int) int {
	c.mu.RLock()
	t, ok := c.years[year]
	c.mu.RUnlock()
	if ok {
		return len(t.business)
	}
	return countBusinessDays(year, c.rules)
}

// Count returns the number of business days in [start, end], or 0 when end < start.
func (c *Calendar) Count(start, end time.Time) int {
	start, end = Truncate(start), Truncate(end)
	if end.Before(start) {
		return 0
	}

	n := 0
	for y := start.Year(); y <= end.Year(); y++ {
		if y != start.Year() && y != end.Year() {
			n += c.yearCount(y)
			continue
		}
		tb := c.table(y)
		lo, hi := 0, len(tb.business)
		if y == start.Year() {
			lo = tb.before(start)
		}
		if y == end.Year() {
			hi = tb.upTo(end)
		}
		n += hi - lo
	}
	return n
}

// Between returns the signed business-day distance from a to b, excluding a
// and including b. Between(a, Next(a)) is always 1.
func (c *Calendar) Between(a, b time.Time) int {
	a, b = Truncate(a), Truncate(b)
	if !b.Before(a) {
		return c.Count(a.AddDate(0, 0, 1), b)
	}
	return -c.Count(b, a.AddDate(0, 0, -1))
}

// Range lists the business days in [start, end], ascending.
func (c *Calendar) Range(start, end time.Time) []time.Time {
	start, end = Truncate(start), Truncate(end)
	if end.Before(start) {
		return nil
	}

	var out []time.Time
	for y := start.Year(); y <= end.Year(); y++ {
		tb := c.table(y)
		lo, hi := 0, len(tb.business)
		if y == start.Year() {
			lo = tb.before(start)
		}
		if y == end.Year() {
			hi = tb.upTo(end)
		}
		out = append(out, tb.business[lo:hi]...)
	}
	return out
}

// BusinessDaysInYear lists every business day of year, ascending.
func (c *Calendar) BusinessDaysInYear(year int) []time.Time {
	tb := c.table(year)
	out := make([]time.Time, len(tb.business))
	copy(out, tb.business)
	return out
}

// HolidaysInYear lists the holidays of year, ascending and deduplicated,
// including those that fall on a weekend.
func (c *Calendar) HolidaysInYear(year int) []time.Time {
	tb := c.table(year)
	out := make([]time.Time, len(tb.holidays))
	copy(out, tb.holidays)
	return out
}

// FirstBusinessDayOfMonth returns the first business day of the given month.
// This is the maturity convention for B3 interest-rate futures.
func (c *Calendar) FirstBusinessDayOfMonth(year int, month time.Month) time.Time {
	first := Date(year, month, 1)
	if c.IsBusinessDay(first) {
		return first
	}
	return c.Next(first)
}

// LastBusinessDayOfMonth returns the last business day of the month containing t.
func (c *Calendar) LastBusinessDayOfMonth(t time.Time) time.Time {
	nextMonth := Date(t.Year(), t.Month()+1, 1)
	return c.Previous(nextMonth)
}

// IsEndOfMonth checks if t is the last business day of its month.
func (c *Calendar) IsEndOfMonth(t time.Time) bool {
	return Truncate(t).Equal(c.LastBusinessDayOfMonth(t))
}

// Following rolls t forward to a business day.
func (c *Calendar) Following(t time.Time) time.Time {
	t = Truncate(t)
	if c.IsBusinessDay(t) {
		return t
	}
	return c.Next(t)
}

// Preceding rolls t backward to a business day.
func (c *Calendar) Preceding(t time.Time) time.Time {
	t = Truncate(t)
	if c.IsBusinessDay(t) {
		return t
	}
	return c.Previous(t)
}

// ModifiedFollowing applies Following unless it crosses into the next month,
// in which case it applies Preceding.
func (c *Calendar) ModifiedFollowing(t time.Time) time.Time {
	adj := c.Following(t)
	if adj.Month() != t.Month() {
		return c.Preceding(t)
	}
	return adj
}

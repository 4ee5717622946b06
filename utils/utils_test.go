package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	want := time.Date(2024, 4, 24, 0, 0, 0, 0, time.UTC)
	for _, s := range []string{"2024-04-24", " 20240424 ", "24/04/2024"} {
		got, err := ParseDate(s)
		require.NoError(t, err, s)
		assert.Equal(t, want, got, s)
	}

	for _, s := range []string{"", "2024-02-30", "04/24/2024", "tomorrow"} {
		_, err := ParseDate(s)
		assert.Error(t, err, s)
	}
}

func TestDays(t *testing.T) {
	start := time.Date(2024, 4, 24, 18, 30, 0, 0, time.UTC)
	end := time.Date(2030, 1, 2, 1, 0, 0, 0, time.UTC)
	assert.Equal(t, 2079, Days(start, end))
	assert.Equal(t, -2079, Days(end, start))
	assert.Equal(t, 0, Days(start, start))
}

func TestYearFraction(t *testing.T) {
	assert.Equal(t, 1.0, YearFraction(252, Bus252))
	assert.Equal(t, 0.5, YearFraction(180, Act360))
	assert.Equal(t, 1.0, YearFraction(365, Act365F))
	assert.Equal(t, 1.0, YearFraction(365, "unknown"))
}

func TestAdjacentDates(t *testing.T) {
	d := func(day int) time.Time { return time.Date(2024, 1, day, 0, 0, 0, 0, time.UTC) }
	dates := []time.Time{d(2), d(10), d(20)}

	lo, hi := AdjacentDates(d(5), dates)
	assert.Equal(t, d(2), lo)
	assert.Equal(t, d(10), hi)

	lo, hi = AdjacentDates(d(10), dates)
	assert.Equal(t, d(2), lo)
	assert.Equal(t, d(10), hi)

	lo, hi = AdjacentDates(d(25), dates)
	assert.Equal(t, d(10), lo)
	assert.Equal(t, d(20), hi)

	lo, hi = AdjacentDates(d(1), dates)
	assert.Equal(t, d(2), lo)
	assert.Equal(t, d(10), hi)

	assert.Panics(t, func() { AdjacentDates(d(1), dates[:1]) })
}

func TestFormatDates(t *testing.T) {
	assert.Equal(t, []string{"2024-01-02", "2030-01-02"},
		FormatDates([]time.Time{time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), time.Date(2030, 1, 2, 0, 0, 0, 0, time.UTC)}))
	assert.Empty(t, FormatDates(nil))
}

package futures_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/renanmoretto/finbr/instruments/futures"
)

func TestParseTicker(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in       string
		product  string
		month    time.Month
		fragment int
	}{
		{"DI1F24", "DI1", time.January, 24},
		{"DI1Z99", "DI1", time.December, 99},
		{"di1n27", "DI1", time.July, 27},
		{" DI1J26 ", "DI1", time.April, 26},
		{"DAPK35", "DAP", time.May, 35},
		{"DDIH00", "DDI", time.March, 0},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := futures.ParseTicker(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.product, got.Product)
			assert.Equal(t, tt.month, got.Month)
			assert.Equal(t, tt.fragment, got.YearFragment)
		})
	}
}

func TestParseTicker_Invalid(t *testing.T) {
	t.Parallel()

	for _, in := range []string{
		"",
		"DI1A24", // A is not a month code
		"DI1B30",
		"ABGF3B",
		"DI1F3A",
		"DI1F2",
		"1DIF24",
		"D-1F24",
		"DI1F245",
	} {
		t.Run(in, func(t *testing.T) {
			_, err := futures.ParseTicker(in)
			assert.ErrorIs(t, err, futures.ErrInvalidTicker)
		})
	}
}

func TestVerifyTicker(t *testing.T) {
	t.Parallel()

	for _, code := range "FGHJKMNQUVXZ" {
		for _, year := range []int{10, 24, 55, 99} {
			ticker := fmt.Sprintf("DI1%c%02d", code, year)
			assert.NoError(t, futures.VerifyTicker(ticker), ticker)
		}
	}

	assert.ErrorIs(t, futures.VerifyTicker("DI1A24"), futures.ErrInvalidTicker)
	assert.ErrorIs(t, futures.VerifyTicker("DAPF24"), futures.ErrInvalidTicker)
}

func TestResolveYear(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		fragment int
		asOf     time.Time
		want     int
	}{
		{"same century", 24, time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), 2024},
		{"recent past", 18, time.Date(2024, 4, 24, 0, 0, 0, 0, time.UTC), 2018},
		{"next century", 5, time.Date(2095, 6, 1, 0, 0, 0, 0, time.UTC), 2105},
		{"previous century", 98, time.Date(2003, 6, 1, 0, 0, 0, 0, time.UTC), 1998},
		{"tie goes forward", 0, time.Date(2050, 6, 1, 0, 0, 0, 0, time.UTC), 2100},
		{"long dated", 72, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), 2072},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, futures.ResolveYear(tt.fragment, tt.asOf))
		})
	}
}

func TestFormatTicker(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "DI1F30", futures.FormatTicker("di1", 2030, time.January))
	assert.Equal(t, "DI1Z05", futures.FormatTicker("DI1", 2105, time.December))
	assert.Equal(t, "", futures.FormatTicker("DI1", 2030, time.Month(13)))

	code, ok := futures.MonthCode(time.August)
	require.True(t, ok)
	assert.Equal(t, byte('Q'), code)

	for m := time.January; m <= time.December; m++ {
		parsed, err := futures.ParseTicker(futures.FormatTicker("DI1", 2031, m))
		require.NoError(t, err)
		assert.Equal(t, m, parsed.Month)
	}
}

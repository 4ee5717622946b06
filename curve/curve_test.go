package curve_test

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/renanmoretto/finbr/calendar"
	"github.com/renanmoretto/finbr/curve"
)

var (
	asOf = calendar.Date(2024, 4, 24)
	f25  = calendar.Date(2025, 1, 2)
	f26  = calendar.Date(2026, 1, 2)
)

func twoVertexCurve(t *testing.T) *curve.Curve {
	t.Helper()
	crv, err := curve.New(asOf, calendar.NewNational(), map[time.Time]float64{
		f26: 0.11,
		f25: 0.105,
	})
	require.NoError(t, err)
	return crv
}

func TestNew_Vertices(t *testing.T) {
	t.Parallel()
	crv := twoVertexCurve(t)

	v := crv.Vertices()
	require.Len(t, v, 3)
	assert.Equal(t, asOf, v[0].Date)
	assert.Equal(t, 1.0, v[0].DiscountFactor)
	assert.Equal(t, 175, v[1].BusinessDays)
	assert.Equal(t, 427, v[2].BusinessDays)
	assert.InDelta(t, math.Pow(1.105, -175.0/252), v[1].DiscountFactor, 1e-15)
}

func TestNew_Errors(t *testing.T) {
	t.Parallel()
	cal := calendar.NewNational()

	_, err := curve.New(asOf, cal, nil)
	assert.ErrorIs(t, err, curve.ErrNoVertices)

	_, err = curve.New(asOf, cal, map[time.Time]float64{asOf: 0.1})
	assert.ErrorIs(t, err, curve.ErrInvalidVertex)

	_, err = curve.New(asOf, cal, map[time.Time]float64{f25: -1})
	assert.ErrorIs(t, err, curve.ErrInvalidVertex)

	// Saturday and the following Monday share a business-day term.
	_, err = curve.New(asOf, cal, map[time.Time]float64{
		calendar.Date(2024, 5, 4): 0.1,
		calendar.Date(2024, 5, 6): 0.1,
	})
	assert.ErrorIs(t, err, curve.ErrInvalidVertex)
}

func TestDiscountFactor_FlatForward(t *testing.T) {
	t.Parallel()
	crv := twoVertexCurve(t)

	assert.Equal(t, 1.0, crv.DiscountFactor(asOf))
	assert.Equal(t, 1.0, crv.DiscountFactor(asOf.AddDate(0, 0, -10)))

	mid := calendar.Date(2025, 7, 1)
	assert.InDelta(t, 0.8856987743342756, crv.DiscountFactor(mid), 1e-12)
	assert.InDelta(t, 0.1084777834546482, crv.ZeroRate(mid), 1e-12)

	// Forward between vertices is flat.
	fwd, err := crv.ForwardRate(f25, f26)
	require.NoError(t, err)
	assert.InDelta(t, 0.11348552715466287, fwd, 1e-12)

	fwdMid, err := crv.ForwardRate(mid, f26)
	require.NoError(t, err)
	assert.InDelta(t, fwd, fwdMid, 1e-12)
}

func TestDiscountFactor_Extrapolation(t *testing.T) {
	t.Parallel()
	crv := twoVertexCurve(t)

	far := calendar.Date(2027, 1, 4)
	assert.InDelta(t, 0.7534838056457531, crv.DiscountFactor(far), 1e-12)

	fwd, err := crv.ForwardRate(f26, far)
	require.NoError(t, err)
	assert.InDelta(t, 0.11348552715466287, fwd, 1e-12)
}

func TestZeroRate_AtVertices(t *testing.T) {
	t.Parallel()
	crv := twoVertexCurve(t)

	assert.InDelta(t, 0.105, crv.ZeroRate(f25), 1e-12)
	assert.InDelta(t, 0.11, crv.ZeroRate(f26), 1e-12)
	assert.Equal(t, 0.105, crv.ZeroRate(asOf))
}

func TestForwardRate_InvalidPeriod(t *testing.T) {
	t.Parallel()
	crv := twoVertexCurve(t)

	_, err := crv.ForwardRate(f26, f25)
	assert.Error(t, err)
}

// Package curve builds the Brazilian pre-fixed (DI) discount curve from DI1
// vertices, interpolating flat-forward on business days (252 base).
package curve

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/renanmoretto/finbr/calendar"
	"github.com/renanmoretto/finbr/utils"
)

var (
	// ErrNoVertices is returned when a curve is built without nodes.
	ErrNoVertices = errors.New("curve: no vertices")
	// ErrInvalidVertex is returned for nodes on or before the reference date,
	// duplicated business-day terms, or rates at or below -100%.
	ErrInvalidVertex = errors.New("curve: invalid vertex")
)

// Vertex is a curve node.
type Vertex struct {
	Date           time.Time `json:"date"`
	BusinessDays   int       `json:"business_days"`
	Rate           float64   `json:"rate"`
	DiscountFactor float64   `json:"discount_factor"`
}

// Curve is an immutable DI pre curve anchored at AsOf.
type Curve struct {
	asOf     time.Time
	cal      *calendar.Calendar
	vertices []Vertex // vertices[0] is asOf with DF 1
	dates    []time.Time
}

// New builds a curve from maturity -> annual rate (252 base) nodes.
func New(asOf time.Time, cal *calendar.Calendar, nodes map[time.Time]float64) (*Curve, error) {
	if len(nodes) == 0 {
		return nil, ErrNoVertices
	}
	if cal == nil {
		cal = calendar.NewNational()
	}
	asOf = calendar.Truncate(asOf)

	vertices := make([]Vertex, 0, len(nodes)+1)
	vertices = append(vertices, Vertex{Date: asOf, DiscountFactor: 1})

	seen := make(map[int]time.Time, len(nodes))
	for date, rate := range nodes {
		date = calendar.Truncate(date)
		du := cal.Between(asOf, date)
		if du <= 0 {
			return nil, fmt.Errorf("%w: %s is not after %s", ErrInvalidVertex, date.Format(utils.DateLayout), asOf.Format(utils.DateLayout))
		}
		if math.IsNaN(rate) || rate <= -1 {
			return nil, fmt.Errorf("%w: rate %v at %s", ErrInvalidVertex, rate, date.Format(utils.DateLayout))
		}
		if prev, dup := seen[du]; dup {
			return nil, fmt.Errorf("%w: %s and %s are both %d business days out", ErrInvalidVertex,
				prev.Format(utils.DateLayout), date.Format(utils.DateLayout), du)
		}
		seen[du] = date

		vertices = append(vertices, Vertex{
			Date:           date,
			BusinessDays:   du,
			Rate:           rate,
			DiscountFactor: math.Pow(1+rate, -utils.YearFraction(du, utils.Bus252)),
		})
	}

	sort.Slice(vertices, func(i, j int) bool { return vertices[i].BusinessDays < vertices[j].BusinessDays })
	// The anchor carries the short-end rate so ZeroRate is defined at asOf.
	vertices[0].Rate = vertices[1].Rate

	dates := make([]time.Time, len(vertices))
	for i, v := range vertices {
		dates[i] = v.Date
	}

	return &Curve{asOf: asOf, cal: cal, vertices: vertices, dates: dates}, nil
}

// AsOf returns the curve reference date.
func (c *Curve) AsOf() time.Time {
	return c.asOf
}

// Vertices returns the curve nodes, anchor first.
func (c *Curve) Vertices() []Vertex {
	out := make([]Vertex, len(c.vertices))
	copy(out, c.vertices)
	return out
}

// DiscountFactor interpolates log-linearly in business days between vertices,
// which is flat-forward. Past the last vertex the last forward is extended.
func (c *Curve) DiscountFactor(t time.Time) float64 {
	du := c.cal.Between(c.asOf, t)
	if du <= 0 {
		return 1
	}

	d1, d2 := utils.AdjacentDates(calendar.Truncate(t), c.dates)
	v1, v2 := c.vertexAt(d1), c.vertexAt(d2)

	w := float64(du-v1.BusinessDays) / float64(v2.BusinessDays-v1.BusinessDays)
	logDF := math.Log(v1.DiscountFactor) + w*(math.Log(v2.DiscountFactor)-math.Log(v1.DiscountFactor))
	return math.Exp(logDF)
}

// ZeroRate returns the annual 252-base rate from asOf to t.
func (c *Curve) ZeroRate(t time.Time) float64 {
	du := c.cal.Between(c.asOf, t)
	if du <= 0 {
		return c.vertices[0].Rate
	}
	return math.Pow(c.DiscountFactor(t), -1/utils.YearFraction(du, utils.Bus252)) - 1
}

// ForwardRate returns the annual 252-base rate between t1 and t2.
func (c *Curve) ForwardRate(t1, t2 time.Time) (float64, error) {
	du := c.cal.Between(t1, t2)
	if du <= 0 {
		return 0, fmt.Errorf("curve: forward period %s -> %s has %d business days",
			t1.Format(utils.DateLayout), t2.Format(utils.DateLayout), du)
	}
	ratio := c.DiscountFactor(t1) / c.DiscountFactor(t2)
	return math.Pow(ratio, 1/utils.YearFraction(du, utils.Bus252)) - 1, nil
}

func (c *Curve) vertexAt(d time.Time) Vertex {
	i := sort.Search(len(c.dates), func(i int) bool { return !c.dates[i].Before(d) })
	return c.vertices[i]
}

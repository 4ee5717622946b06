package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/renanmoretto/finbr/calendar"
	"github.com/renanmoretto/finbr/curve"
	"github.com/renanmoretto/finbr/instruments/futures"
	"github.com/renanmoretto/finbr/marketdata/b3"
	"github.com/renanmoretto/finbr/utils"
)

// ErrNoSettlements is returned when the feed has nothing for the requested date.
var ErrNoSettlements = errors.New("no settlement strip")

// Snapshot is a priced settlement strip and the curve built from it.
type Snapshot struct {
	AsOf   time.Time
	Quotes []futures.Quote
	Curve  *curve.Curve
}

// SettlementSnapshot prices the day's settlement strip and keeps the latest result.
type SettlementSnapshot struct {
	pricer  *futures.DI1
	feed    b3.SettlementFeed
	today   func() time.Time
	workers int

	mu     sync.RWMutex
	latest *Snapshot
}

// NewSettlementSnapshot builds the job; today supplies the reference date.
func NewSettlementSnapshot(pricer *futures.DI1, feed b3.SettlementFeed, today func() time.Time, workers int) *SettlementSnapshot {
	return &SettlementSnapshot{pricer: pricer, feed: feed, today: today, workers: workers}
}

func (j *SettlementSnapshot) Name() string { return "settlement_snapshot" }

// Run skips non-business days and fails when the feed has no strip for today.
func (j *SettlementSnapshot) Run() error {
	asOf := calendar.Truncate(j.today())
	if !j.pricer.Calendar().IsBusinessDay(asOf) {
		return nil
	}

	snap, err := PriceSettlements(context.Background(), j.pricer, j.feed, asOf, j.workers)
	if err != nil {
		return err
	}

	j.mu.Lock()
	j.latest = snap
	j.mu.Unlock()
	return nil
}

// Latest returns the most recent successful snapshot.
func (j *SettlementSnapshot) Latest() (*Snapshot, bool) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.latest, j.latest != nil
}

// PriceSettlements prices the feed's strip for asOf and builds its curve.
func PriceSettlements(ctx context.Context, pricer *futures.DI1, feed b3.SettlementFeed, asOf time.Time, workers int) (*Snapshot, error) {
	rates, ok := feed.RatesOn(asOf)
	if !ok {
		return nil, fmt.Errorf("%w for %s", ErrNoSettlements, asOf.Format(utils.DateLayout))
	}
	quotes, err := pricer.QuoteStrip(ctx, rates, asOf, futures.StripOptions{Workers: workers})
	if err != nil {
		return nil, err
	}
	crv, err := pricer.BuildCurve(quotes)
	if err != nil {
		return nil, err
	}
	return &Snapshot{AsOf: calendar.Truncate(asOf), Quotes: quotes, Curve: crv}, nil
}

// CalendarWarmup builds the year tables for the current and next year ahead
// of the first request that needs them.
type CalendarWarmup struct {
	cal   *calendar.Calendar
	today func() time.Time
}

func NewCalendarWarmup(cal *calendar.Calendar, today func() time.Time) *CalendarWarmup {
	return &CalendarWarmup{cal: cal, today: today}
}

func (j *CalendarWarmup) Name() string { return "calendar_warmup" }

func (j *CalendarWarmup) Run() error {
	year := j.today().Year()
	for _, y := range []int{year, year + 1} {
		if n := len(j.cal.BusinessDaysInYear(y)); n == 0 {
			return fmt.Errorf("calendar %d has no business days", y)
		}
	}
	return nil
}

package calendar

import (
	"sync"
	"time"
)

var (
	b3Once sync.Once
	b3Loc  *time.Location
)

// B3Location is the exchange time zone, America/Sao_Paulo. Without tzdata it
// falls back to UTC-3, which Brazil has observed year round since 2019.
func B3Location() *time.Location {
	b3Once.Do(func() {
		loc, err := time.LoadLocation("America/Sao_Paulo")
		if err != nil {
			loc = time.FixedZone("BRT", -3*60*60)
		}
		b3Loc = loc
	})
	return b3Loc
}

// Today returns the calendar date of now on the B3 clock.
func Today(now time.Time) time.Time {
	return Truncate(now.In(B3Location()))
}

// Package period maps calendar dates onto a committee's schedule.
//
// Each committee type (monthly, weekly, daily) has its own Cadence that knows
// how many whole periods separate two dates and how to move a date forward by
// a number of periods.
package period

import (
	"kameti/internal/core"
)

// Cadence is the strategy interface for period arithmetic of one committee type.
type Cadence interface {
	// Elapsed returns the number of whole periods from start to t. t is never
	// before start when called by this package.
	Elapsed(start, t core.Date) int
	// Advance returns start moved forward by n periods.
	Advance(start core.Date, n int) core.Date
}

// MonthlyCadence counts calendar months, ignoring the day of month.
type MonthlyCadence struct{}

func (MonthlyCadence) Elapsed(start, t core.Date) int {
	return (t.Year()-start.Year())*12 + (t.Month() - start.Month())
}

func (MonthlyCadence) Advance(start core.Date, n int) core.Date {
	return start.AddMonths(n)
}

// WeeklyCadence counts whole 7-day blocks.
type WeeklyCadence struct{}

func (WeeklyCadence) Elapsed(start, t core.Date) int {
	return start.DaysUntil(t) / 7
}

func (WeeklyCadence) Advance(start core.Date, n int) core.Date {
	return start.AddDays(7 * n)
}

// DailyCadence counts whole days.
type DailyCadence struct{}

func (DailyCadence) Elapsed(start, t core.Date) int {
	return start.DaysUntil(t)
}

func (DailyCadence) Advance(start core.Date, n int) core.Date {
	return start.AddDays(n)
}

// cadences maps committee types to their period arithmetic.
var cadences = map[core.CommitteeType]Cadence{
	core.Monthly: MonthlyCadence{},
	core.Weekly:  WeeklyCadence{},
	core.Daily:   DailyCadence{},
}

// Lookup returns the cadence registered for t.
func Lookup(t core.CommitteeType) (Cadence, bool) {
	c, ok := cadences[t]
	return c, ok
}

// For returns the cadence for t, falling back to monthly arithmetic for
// unknown or empty types.
func For(t core.CommitteeType) Cadence {
	if c, ok := cadences[t]; ok {
		return c
	}
	return MonthlyCadence{}
}

// Register installs a cadence for a new committee type.
func Register(t core.CommitteeType, c Cadence) {
	cadences[t] = c
}

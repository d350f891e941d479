package period

import (
	"kameti/internal/core"
)

// NotStarted is the index reported before a schedule's start date.
const NotStarted = -1

// CurrentIndex returns the zero-based period of the committee that contains
// today. It is NotStarted before the start date and is clamped to the last
// period once the schedule has run out, so collections for the final period
// stay addressable.
func CurrentIndex(c core.Committee, today core.Date) int {
	return Index(c.Type, c.StartDate, c.Duration, today)
}

// Index is CurrentIndex for a bare schedule.
func Index(t core.CommitteeType, start core.Date, duration int, today core.Date) int {
	if today.Before(start) {
		return NotStarted
	}
	n := For(t).Elapsed(start, today)
	if n < 0 {
		n = 0
	}
	if duration > 0 && n > duration-1 {
		n = duration - 1
	}
	return n
}

// Elapsed returns the unclamped number of whole periods between start and
// today, or NotStarted when today is before start.
func Elapsed(t core.CommitteeType, start, today core.Date) int {
	if today.Before(start) {
		return NotStarted
	}
	return For(t).Elapsed(start, today)
}

// Start returns the first day of period index of the committee.
func Start(c core.Committee, index int) core.Date {
	return For(c.Type).Advance(c.StartDate, index)
}

// End returns the first day after the committee's last period.
func End(c core.Committee) core.Date {
	return For(c.Type).Advance(c.StartDate, c.Duration)
}

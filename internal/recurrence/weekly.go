package recurrence

import (
	"fmt"
	"math/bits"
	"strings"
	"time"

	"taskcycle/internal/civil"
)

// weeklyScanLimit bounds the day-by-day search for the next selected
// weekday. Any non-empty day set is matched within 14 examined days.
const weeklyScanLimit = 60

// WeekdaySet is a set of weekdays, one bit per time.Weekday.
type WeekdaySet uint8

// NewWeekdaySet returns the set holding days.
func NewWeekdaySet(days ...time.Weekday) WeekdaySet {
	var s WeekdaySet
	for _, d := range days {
		s = s.Add(d)
	}
	return s
}

// Add returns s with d added. Values outside Sunday..Saturday are ignored.
func (s WeekdaySet) Add(d time.Weekday) WeekdaySet {
	if !validWeekday(d) {
		return s
	}
	return s | 1<<uint(d)
}

func (s WeekdaySet) Has(d time.Weekday) bool {
	return validWeekday(d) && s&(1<<uint(d)) != 0
}

func (s WeekdaySet) Empty() bool {
	return s == 0
}

func (s WeekdaySet) Len() int {
	return bits.OnesCount8(uint8(s))
}

// Days lists the set Sunday first.
func (s WeekdaySet) Days() []time.Weekday {
	days := make([]time.Weekday, 0, s.Len())
	for d := time.Sunday; d <= time.Saturday; d++ {
		if s.Has(d) {
			days = append(days, d)
		}
	}
	return days
}

func (s WeekdaySet) String() string {
	names := make([]string, 0, s.Len())
	for _, d := range s.Days() {
		names = append(names, d.String()[:3])
	}
	return strings.Join(names, ", ")
}

// WeeklyRule repeats every interval weeks on Days. An empty Days steps by
// whole weeks from the reference date.
type WeeklyRule struct {
	Days WeekdaySet
}

func (WeeklyRule) Frequency() Frequency { return Weekly }

func (r WeeklyRule) next(ref civil.Date, interval int, anchor civil.Date) civil.Date {
	return r.step(ref, interval, anchor, 1)
}

func (r WeeklyRule) previous(ref civil.Date, interval int, anchor civil.Date) civil.Date {
	return r.step(ref, interval, anchor, -1)
}

// step moves a whole interval of weeks when ref is already on a selected
// day, so "every 2 weeks on Monday" skips the Monday in between. From any
// other day it searches for the nearest selected day in an on-cycle week.
func (r WeeklyRule) step(ref civil.Date, interval int, anchor civil.Date, dir int) civil.Date {
	jump := ref.AddDays(dir * 7 * interval)
	if r.Days.Empty() || r.Days.Has(ref.Weekday()) {
		return jump
	}
	if found, _, ok := r.scan(ref, interval, anchor, dir); ok {
		return found
	}
	return jump
}

// scan walks from ref in direction dir for a selected weekday whose whole
// weeks since anchor are a multiple of interval. Weeks off the cycle are
// skipped in one move and not counted against weeklyScanLimit. It returns
// the match and the number of days examined.
func (r WeeklyRule) scan(ref civil.Date, interval int, anchor civil.Date, dir int) (civil.Date, int, bool) {
	candidate := ref.AddDays(dir)
	examined := 0
	for examined < weeklyScanLimit {
		week := civil.FloorDiv(candidate.Sub(anchor), 7)
		if civil.Mod(week, interval) != 0 {
			onCycle := interval * civil.FloorDiv(week, interval)
			if dir > 0 {
				candidate = anchor.AddDays(7 * (onCycle + interval))
			} else {
				candidate = anchor.AddDays(7*onCycle + 6)
			}
			continue
		}
		examined++
		if r.Days.Has(candidate.Weekday()) {
			return candidate, examined, true
		}
		candidate = candidate.AddDays(dir)
	}
	return 0, examined, false
}

func (r WeeklyRule) describe(interval int) string {
	text := every(interval, "week")
	if !r.Days.Empty() {
		text += " on " + r.Days.String()
	}
	return text
}

func (r WeeklyRule) validate() error {
	if r.Days>>7 != 0 {
		return fmt.Errorf("weekday set %08b has bits past Saturday", uint8(r.Days))
	}
	return nil
}

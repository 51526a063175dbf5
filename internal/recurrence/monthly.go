package recurrence

import (
	"fmt"
	"time"

	"taskcycle/internal/civil"
)

var positionNames = map[int]string{
	1: "first",
	2: "second",
	3: "third",
	4: "fourth",
	5: "fifth",
}

// MonthlyDateRule repeats every interval months on day Day. Day is 1-31 or
// civil.LastDay; days past the end of a short month clamp to its last day.
type MonthlyDateRule struct {
	Day int
}

func (MonthlyDateRule) Frequency() Frequency { return Monthly }

func (r MonthlyDateRule) next(ref civil.Date, interval int, _ civil.Date) civil.Date {
	return r.on(ref.ShiftMonths(interval))
}

func (r MonthlyDateRule) previous(ref civil.Date, interval int, _ civil.Date) civil.Date {
	return r.on(ref.ShiftMonths(-interval))
}

func (r MonthlyDateRule) on(year int, month time.Month) civil.Date {
	return civil.New(year, month, civil.ClampDay(year, month, r.Day))
}

func (r MonthlyDateRule) describe(interval int) string {
	if r.Day == civil.LastDay {
		return every(interval, "month") + " on the last day"
	}
	return every(interval, "month") + " on the " + ordinal(r.Day)
}

func (r MonthlyDateRule) validate() error {
	if !validMonthDay(r.Day) {
		return fmt.Errorf("month day %d is outside 1-31", r.Day)
	}
	return nil
}

// MonthlyWeekdayRule repeats every interval months on the Position-th
// Weekday of the month, e.g. the second Tuesday. When a month has fewer
// than Position such weekdays the date runs into the following month and is
// kept as computed.
type MonthlyWeekdayRule struct {
	Position int
	Weekday  time.Weekday
}

func (MonthlyWeekdayRule) Frequency() Frequency { return Monthly }

func (r MonthlyWeekdayRule) next(ref civil.Date, interval int, _ civil.Date) civil.Date {
	return r.on(ref.ShiftMonths(interval))
}

// previous steps back one more interval when a fifth-weekday date spills
// into the reference month on or after ref.
func (r MonthlyWeekdayRule) previous(ref civil.Date, interval int, _ civil.Date) civil.Date {
	candidate := r.on(ref.ShiftMonths(-interval))
	if candidate >= ref {
		candidate = r.on(ref.ShiftMonths(-2 * interval))
	}
	return candidate
}

func (r MonthlyWeekdayRule) on(year int, month time.Month) civil.Date {
	first := civil.New(year, month, 1)
	offset := civil.Mod(int(r.Weekday)-int(first.Weekday())+7, 7)
	return first.AddDays(offset + (r.Position-1)*7)
}

func (r MonthlyWeekdayRule) describe(interval int) string {
	return fmt.Sprintf("%s on the %s %s", every(interval, "month"), positionNames[r.Position], r.Weekday)
}

func (r MonthlyWeekdayRule) validate() error {
	if r.Position < 1 || r.Position > 5 {
		return fmt.Errorf("set position %d is outside 1-5", r.Position)
	}
	if !validWeekday(r.Weekday) {
		return fmt.Errorf("weekday %d is outside Sunday-Saturday", int(r.Weekday))
	}
	return nil
}

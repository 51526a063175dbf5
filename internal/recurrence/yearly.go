package recurrence

import (
	"fmt"
	"time"

	"taskcycle/internal/civil"
)

// YearlyRule repeats every interval years on Day of Month. Feb 29 falls on
// Feb 28 in common years.
type YearlyRule struct {
	Month time.Month
	Day   int
}

func (YearlyRule) Frequency() Frequency { return Yearly }

func (r YearlyRule) next(ref civil.Date, interval int, _ civil.Date) civil.Date {
	return r.in(ref.Year() + interval)
}

func (r YearlyRule) previous(ref civil.Date, interval int, _ civil.Date) civil.Date {
	return r.in(ref.Year() - interval)
}

func (r YearlyRule) in(year int) civil.Date {
	return civil.New(year, r.Month, civil.ClampDay(year, r.Month, r.Day))
}

func (r YearlyRule) describe(interval int) string {
	month := r.Month.String()[:3]
	if r.Day == civil.LastDay {
		return fmt.Sprintf("%s on the last day of %s", every(interval, "year"), month)
	}
	return fmt.Sprintf("%s on %s %d", every(interval, "year"), month, r.Day)
}

func (r YearlyRule) validate() error {
	if r.Month < time.January || r.Month > time.December {
		return fmt.Errorf("month %d is outside 1-12", int(r.Month))
	}
	if !validMonthDay(r.Day) {
		return fmt.Errorf("month day %d is outside 1-31", r.Day)
	}
	return nil
}

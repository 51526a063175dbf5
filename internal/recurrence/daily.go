package recurrence

import "taskcycle/internal/civil"

// DailyRule repeats every interval days.
type DailyRule struct{}

func (DailyRule) Frequency() Frequency { return Daily }

func (DailyRule) next(ref civil.Date, interval int, _ civil.Date) civil.Date {
	return ref.AddDays(interval)
}

func (DailyRule) previous(ref civil.Date, interval int, _ civil.Date) civil.Date {
	return ref.AddDays(-interval)
}

func (DailyRule) describe(interval int) string {
	return every(interval, "day")
}

func (DailyRule) validate() error { return nil }

package recurrence

import (
	"time"

	"github.com/samber/mo"

	"taskcycle/internal/civil"
)

// PatternOption adjusts a pattern built by NewPattern.
type PatternOption func(*Pattern)

// NewPattern builds a complete pattern for freq, taking the weekday, day of
// month and month from ref. This is the step a form performs once, when the
// user picks a frequency for an item due on ref.
func NewPattern(freq Frequency, ref civil.Date, opts ...PatternOption) Pattern {
	p := Pattern{Interval: 1}
	switch freq {
	case Weekly:
		p.Rule = WeeklyRule{Days: NewWeekdaySet(ref.Weekday())}
	case Monthly:
		p.Rule = MonthlyDateRule{Day: ref.Day()}
	case Yearly:
		p.Rule = YearlyRule{Month: ref.Month(), Day: ref.Day()}
	default:
		p.Rule = DailyRule{}
	}
	for _, opt := range opts {
		opt(&p)
	}
	return p
}

// Every sets the interval, clamped to [1, MaxInterval].
func Every(n int) PatternOption {
	return func(p *Pattern) {
		p.Interval = min(MaxInterval, max(1, n))
	}
}

// Until ends the pattern on d, inclusive.
func Until(d civil.Date) PatternOption {
	return func(p *Pattern) {
		p.Until = mo.Some(d)
	}
}

// ReopenChecklist marks the owning item's checklist for reopening on every
// new occurrence.
func ReopenChecklist() PatternOption {
	return func(p *Pattern) {
		p.ReopenChecklist = true
	}
}

// OnWeekdays replaces the day set of a weekly pattern.
func OnWeekdays(days ...time.Weekday) PatternOption {
	return func(p *Pattern) {
		if _, ok := p.Rule.(WeeklyRule); ok {
			p.Rule = WeeklyRule{Days: NewWeekdaySet(days...)}
		}
	}
}

// OnDay sets the day of month of a monthly or yearly pattern. A monthly
// pattern on an nth weekday becomes a monthly pattern on this date.
func OnDay(day int) PatternOption {
	return func(p *Pattern) {
		switch r := p.Rule.(type) {
		case MonthlyDateRule, MonthlyWeekdayRule:
			p.Rule = MonthlyDateRule{Day: day}
		case YearlyRule:
			r.Day = day
			p.Rule = r
		}
	}
}

// OnLastDay is OnDay(civil.LastDay).
func OnLastDay() PatternOption {
	return OnDay(civil.LastDay)
}

// OnNthWeekday turns a monthly pattern into "the pos-th weekday of the
// month".
func OnNthWeekday(pos int, weekday time.Weekday) PatternOption {
	return func(p *Pattern) {
		if p.Rule != nil && p.Rule.Frequency() == Monthly {
			p.Rule = MonthlyWeekdayRule{Position: pos, Weekday: weekday}
		}
	}
}

// InMonth sets the month of a yearly pattern.
func InMonth(month time.Month) PatternOption {
	return func(p *Pattern) {
		if r, ok := p.Rule.(YearlyRule); ok {
			r.Month = month
			p.Rule = r
		}
	}
}

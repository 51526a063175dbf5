// Package recurrence computes when a repeating task, reminder or habit falls
// due next, lists its occurrences inside a date window and describes the rule
// in English.
//
// Everything here is a pure function of its arguments. Dates are civil
// dates; callers strip and reattach any time of day themselves.
package recurrence

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/samber/mo"

	"taskcycle/internal/civil"
)

// ErrInvalidPattern is returned by Pattern.Validate.
var ErrInvalidPattern = errors.New("recurrence: invalid pattern")

// MaxInterval is the largest interval a pattern keeps. Larger values are
// clamped to it, which keeps every step inside the range of civil.Date.
const MaxInterval = 1000

// Frequency is the unit a pattern repeats in.
type Frequency int

const (
	Daily Frequency = iota
	Weekly
	Monthly
	Yearly
)

var frequencyNames = map[Frequency]string{
	Daily:   "DAILY",
	Weekly:  "WEEKLY",
	Monthly: "MONTHLY",
	Yearly:  "YEARLY",
}

func (f Frequency) String() string {
	if name, ok := frequencyNames[f]; ok {
		return name
	}
	return fmt.Sprintf("Frequency(%d)", int(f))
}

// ParseFrequency accepts the encoded names (DAILY, WEEKLY, ...) as well as
// the short forms day, week, month and year, in any case.
func ParseFrequency(s string) (Frequency, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DAILY", "DAY", "D":
		return Daily, nil
	case "WEEKLY", "WEEK", "W":
		return Weekly, nil
	case "MONTHLY", "MONTH", "M":
		return Monthly, nil
	case "YEARLY", "YEAR", "Y":
		return Yearly, nil
	}
	return 0, fmt.Errorf("unknown frequency %q", s)
}

// Rule holds the selectors of one frequency. The set of rules is closed:
// DailyRule, WeeklyRule, MonthlyDateRule, MonthlyWeekdayRule and YearlyRule.
type Rule interface {
	Frequency() Frequency

	// next and previous step one interval from ref. anchor is the date the
	// weekly interval is counted from.
	next(ref civil.Date, interval int, anchor civil.Date) civil.Date
	previous(ref civil.Date, interval int, anchor civil.Date) civil.Date
	describe(interval int) string
	validate() error
}

// Pattern is one recurrence rule. It is a comparable value; changing a
// pattern means building a new one. The zero Pattern repeats every day.
type Pattern struct {
	Rule     Rule
	Interval int
	Until    mo.Option[civil.Date]

	// ReopenChecklist is carried for the owning entity and never read here.
	ReopenChecklist bool
}

// Frequency returns the unit of the pattern's rule.
func (p Pattern) Frequency() Frequency {
	return p.rule().Frequency()
}

// Normalize returns p with a non-nil rule and an interval in
// [1, MaxInterval].
func (p Pattern) Normalize() Pattern {
	p.Rule = p.rule()
	p.Interval = p.interval()
	return p
}

// Validate reports the first selector outside its range.
func (p Pattern) Validate() error {
	if p.Rule == nil {
		return fmt.Errorf("%w: missing rule", ErrInvalidPattern)
	}
	if p.Interval < 1 || p.Interval > MaxInterval {
		return fmt.Errorf("%w: interval %d is outside 1-%d", ErrInvalidPattern, p.Interval, MaxInterval)
	}
	if until, ok := p.Until.Get(); ok && !until.InRange() {
		return fmt.Errorf("%w: until %s is outside %s to %s", ErrInvalidPattern, until, civil.MinDate, civil.MaxDate)
	}
	if err := p.Rule.validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPattern, err)
	}
	return nil
}

func (p Pattern) rule() Rule {
	if p.Rule == nil {
		return DailyRule{}
	}
	return p.Rule
}

func (p Pattern) interval() int {
	return min(MaxInterval, max(1, p.Interval))
}

// String describes the pattern, e.g. "Every 2 weeks on Mon, Thu".
func (p Pattern) String() string {
	text := p.rule().describe(p.interval())
	if until, ok := p.Until.Get(); ok {
		text += " until " + until.String()
	}
	return text
}

// Describe renders an optional pattern for display.
func Describe(p mo.Option[Pattern]) string {
	if pattern, ok := p.Get(); ok {
		return pattern.String()
	}
	return "Does not repeat"
}

// every renders the "Every N units" prefix shared by all rules.
func every(interval int, unit string) string {
	if interval == 1 {
		return "Every " + unit
	}
	return fmt.Sprintf("Every %d %ss", interval, unit)
}

// ordinal renders 1 as "1st", 22 as "22nd" and so on.
func ordinal(n int) string {
	suffix := "th"
	if n%100 < 11 || n%100 > 13 {
		switch n % 10 {
		case 1:
			suffix = "st"
		case 2:
			suffix = "nd"
		case 3:
			suffix = "rd"
		}
	}
	return fmt.Sprintf("%d%s", n, suffix)
}

func validMonthDay(day int) bool {
	return day == civil.LastDay || (day >= 1 && day <= 31)
}

func validWeekday(d time.Weekday) bool {
	return d >= time.Sunday && d <= time.Saturday
}

// Package civil provides a calendar date without clock or time zone.
//
// A Date counts days since 1970-01-01 in the proleptic Gregorian calendar,
// so dates compare with < and subtract to a number of days. Any time of day
// belongs to the caller: strip it with Of and put it back with Date.At.
package civil

import (
	"errors"
	"fmt"
	"time"
)

// LastDay is the day-of-month sentinel meaning "the last day of the month".
const LastDay = -1

const (
	layout     = "2006-01-02"
	secondsDay = 24 * 60 * 60
)

// ErrInvalidDate is returned when text cannot be read as a calendar date.
var ErrInvalidDate = errors.New("civil: invalid date")

// Date is a calendar date. The zero value is 1970-01-01.
type Date int

// MinDate and MaxDate bound the dates with a four-digit year, the only ones
// String and Parse round-trip.
var (
	MinDate = New(0, time.January, 1)
	MaxDate = New(9999, time.December, 31)
)

// New returns the date for year, month and day. Out-of-range values are
// normalized the way time.Date normalizes them (Feb 30 is Mar 1 or 2).
func New(year int, month time.Month, day int) Date {
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return Date(FloorDiv64(t.Unix(), secondsDay))
}

// Of returns the calendar date of t in t's own location.
func Of(t time.Time) Date {
	year, month, day := t.Date()
	return New(year, month, day)
}

// Today returns the current local date.
func Today() Date {
	return Of(time.Now())
}

// InRange reports whether d lies in [MinDate, MaxDate].
func (d Date) InRange() bool {
	return d >= MinDate && d <= MaxDate
}

// Parse reads a date in YYYY-MM-DD form, so only dates in [MinDate, MaxDate].
func Parse(s string) (Date, error) {
	t, err := time.Parse(layout, s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return Of(t), nil
}

// Time returns midnight UTC of d.
func (d Date) Time() time.Time {
	return time.Unix(int64(d)*secondsDay, 0).UTC()
}

// At returns d at the clock time and location of clock.
func (d Date) At(clock time.Time) time.Time {
	year, month, day := d.Date()
	return time.Date(year, month, day,
		clock.Hour(), clock.Minute(), clock.Second(), clock.Nanosecond(), clock.Location())
}

// Date returns the year, month and day of d.
func (d Date) Date() (year int, month time.Month, day int) {
	return d.Time().Date()
}

func (d Date) Year() int {
	return d.Time().Year()
}

func (d Date) Month() time.Month {
	return d.Time().Month()
}

func (d Date) Day() int {
	return d.Time().Day()
}

// Weekday returns the day of the week. 1970-01-01 was a Thursday.
func (d Date) Weekday() time.Weekday {
	return time.Weekday(Mod(int(d)+int(time.Thursday), 7))
}

// AddDays returns d shifted by n days.
func (d Date) AddDays(n int) Date {
	return d + Date(n)
}

// Sub returns the number of days from o to d.
func (d Date) Sub(o Date) int {
	return int(d - o)
}

// ShiftMonths returns the year and month n months away from d's month.
// The day is left to the caller, who usually clamps it with ClampDay.
func (d Date) ShiftMonths(n int) (int, time.Month) {
	year, month, _ := d.Date()
	total := year*12 + int(month-1) + n
	return FloorDiv(total, 12), time.Month(Mod(total, 12) + 1)
}

// FirstOfMonth returns the first day of d's month.
func (d Date) FirstOfMonth() Date {
	year, month, _ := d.Date()
	return New(year, month, 1)
}

func (d Date) String() string {
	return d.Time().Format(layout)
}

func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Date) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

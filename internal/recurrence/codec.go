package recurrence

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/samber/mo"

	"taskcycle/internal/civil"
)

// ErrMalformed is returned by Parse for text that is not an encoded pattern.
var ErrMalformed = errors.New("recurrence: malformed pattern")

// encodingVersion is written as V=1 at the head of every encoded pattern.
const encodingVersion = "1"

var dayCodes = map[string]time.Weekday{
	"SU": time.Sunday,
	"MO": time.Monday,
	"TU": time.Tuesday,
	"WE": time.Wednesday,
	"TH": time.Thursday,
	"FR": time.Friday,
	"SA": time.Saturday,
}

var dayAbbrev = map[time.Weekday]string{
	time.Sunday:    "SU",
	time.Monday:    "MO",
	time.Tuesday:   "TU",
	time.Wednesday: "WE",
	time.Thursday:  "TH",
	time.Friday:    "FR",
	time.Saturday:  "SA",
}

// Decode reads a stored pattern. Empty or malformed text means the item
// does not repeat.
func Decode(text string) mo.Option[Pattern] {
	p, err := Parse(text)
	if err != nil {
		return mo.None[Pattern]()
	}
	return mo.Some(p)
}

// Encode writes a pattern for storage. No pattern encodes to no text.
func Encode(p mo.Option[Pattern]) mo.Option[string] {
	if pattern, ok := p.Get(); ok {
		return mo.Some(Format(pattern))
	}
	return mo.None[string]()
}

// Parse reads text such as "V=1;FREQ=WEEKLY;INTERVAL=2;BYDAY=MO,TH" and
// reports why it cannot when the text is malformed. Missing or invalid
// intervals read as 1, intervals past MaxInterval are clamped and unknown
// keys are ignored.
func Parse(text string) (Pattern, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Pattern{}, fmt.Errorf("%w: empty", ErrMalformed)
	}

	fields := make(map[string]string)
	for _, part := range strings.Split(text, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		kv := strings.SplitN(part, "=", 2)
		if len(kv) != 2 {
			return Pattern{}, fmt.Errorf("%w: invalid field %q", ErrMalformed, part)
		}
		fields[strings.ToUpper(strings.TrimSpace(kv[0]))] = strings.TrimSpace(kv[1])
	}

	if v, ok := fields["V"]; ok && v != encodingVersion {
		return Pattern{}, fmt.Errorf("%w: unsupported version %q", ErrMalformed, v)
	}

	freqName, ok := fields["FREQ"]
	if !ok {
		return Pattern{}, fmt.Errorf("%w: FREQ is required", ErrMalformed)
	}
	freq, err := ParseFrequency(freqName)
	if err != nil {
		return Pattern{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	p := Pattern{Interval: parseInterval(fields["INTERVAL"])}

	if s := fields["UNTIL"]; s != "" {
		until, err := civil.Parse(s)
		if err != nil {
			return Pattern{}, fmt.Errorf("%w: UNTIL: %v", ErrMalformed, err)
		}
		p.Until = mo.Some(until)
	}

	if s := fields["REOPEN"]; s != "" {
		reopen, err := strconv.ParseBool(s)
		if err != nil {
			return Pattern{}, fmt.Errorf("%w: invalid REOPEN %q", ErrMalformed, s)
		}
		p.ReopenChecklist = reopen
	}

	p.Rule, err = parseRule(freq, fields)
	if err != nil {
		return Pattern{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return p, nil
}

func parseRule(freq Frequency, fields map[string]string) (Rule, error) {
	switch freq {
	case Daily:
		return DailyRule{}, nil

	case Weekly:
		days, err := parseByDay(fields["BYDAY"])
		if err != nil {
			return nil, err
		}
		return WeeklyRule{Days: days}, nil

	case Monthly:
		dayText, hasDay := fields["BYMONTHDAY"]
		posText, hasPos := fields["BYSETPOS"]
		switch {
		case hasDay && hasPos:
			return nil, errors.New("BYMONTHDAY and BYSETPOS are mutually exclusive")
		case hasDay:
			day, err := parseMonthDay(dayText)
			if err != nil {
				return nil, err
			}
			return MonthlyDateRule{Day: day}, nil
		case hasPos:
			pos, err := strconv.Atoi(posText)
			if err != nil || pos < 1 || pos > 5 {
				return nil, fmt.Errorf("invalid BYSETPOS %q", posText)
			}
			days, err := parseByDay(fields["BYDAY"])
			if err != nil {
				return nil, err
			}
			if days.Len() != 1 {
				return nil, fmt.Errorf("BYSETPOS needs exactly one BYDAY, got %q", fields["BYDAY"])
			}
			return MonthlyWeekdayRule{Position: pos, Weekday: days.Days()[0]}, nil
		default:
			return nil, errors.New("MONTHLY needs BYMONTHDAY or BYSETPOS")
		}

	case Yearly:
		monthText := fields["BYMONTH"]
		month, err := strconv.Atoi(monthText)
		if err != nil || month < 1 || month > 12 {
			return nil, fmt.Errorf("invalid BYMONTH %q", monthText)
		}
		day, err := parseMonthDay(fields["BYMONTHDAY"])
		if err != nil {
			return nil, err
		}
		return YearlyRule{Month: time.Month(month), Day: day}, nil
	}
	return nil, fmt.Errorf("unsupported frequency %s", freq)
}

// parseInterval reads INTERVAL, mapping anything below 1 or unreadable to 1
// and anything above MaxInterval to MaxInterval.
func parseInterval(s string) int {
	n, err := strconv.Atoi(s)
	switch {
	case errors.Is(err, strconv.ErrRange) && n > 0:
		return MaxInterval
	case err != nil || n < 1:
		return 1
	}
	return min(n, MaxInterval)
}

func parseMonthDay(s string) (int, error) {
	day, err := strconv.Atoi(s)
	if err != nil || !validMonthDay(day) {
		return 0, fmt.Errorf("invalid BYMONTHDAY %q", s)
	}
	return day, nil
}

func parseByDay(s string) (WeekdaySet, error) {
	var set WeekdaySet
	if strings.TrimSpace(s) == "" {
		return set, nil
	}
	for _, code := range strings.Split(s, ",") {
		d, ok := dayCodes[strings.ToUpper(strings.TrimSpace(code))]
		if !ok {
			return 0, fmt.Errorf("unknown day %q", code)
		}
		set = set.Add(d)
	}
	return set, nil
}

// Format writes the canonical text of p. Keys always come in the same
// order, so equal patterns format to equal text.
func Format(p Pattern) string {
	p = p.Normalize()
	parts := []string{
		"V=" + encodingVersion,
		"FREQ=" + p.Frequency().String(),
		"INTERVAL=" + strconv.Itoa(p.Interval),
	}

	switch r := p.Rule.(type) {
	case WeeklyRule:
		if !r.Days.Empty() {
			parts = append(parts, "BYDAY="+formatByDay(r.Days))
		}
	case MonthlyDateRule:
		parts = append(parts, "BYMONTHDAY="+strconv.Itoa(r.Day))
	case MonthlyWeekdayRule:
		parts = append(parts,
			"BYSETPOS="+strconv.Itoa(r.Position),
			"BYDAY="+dayAbbrev[r.Weekday])
	case YearlyRule:
		parts = append(parts,
			"BYMONTH="+strconv.Itoa(int(r.Month)),
			"BYMONTHDAY="+strconv.Itoa(r.Day))
	}

	if until, ok := p.Until.Get(); ok {
		parts = append(parts, "UNTIL="+until.String())
	}
	if p.ReopenChecklist {
		parts = append(parts, "REOPEN=1")
	}
	return strings.Join(parts, ";")
}

func formatByDay(days WeekdaySet) string {
	codes := make([]string, 0, days.Len())
	for _, d := range days.Days() {
		codes = append(codes, dayAbbrev[d])
	}
	return strings.Join(codes, ",")
}

package recurrence

import (
	"github.com/samber/mo"

	"taskcycle/internal/civil"
)

// Stepper steps a pattern one occurrence at a time. Its anchor is the date
// weekly intervals are counted from, usually the due date the caller started
// from.
type Stepper struct {
	pattern Pattern
	anchor  civil.Date
}

func NewStepper(p Pattern, anchor civil.Date) Stepper {
	return Stepper{pattern: p.Normalize(), anchor: anchor}
}

// Next returns the first occurrence after ref, or None once the pattern's
// Until has passed.
func (s Stepper) Next(ref civil.Date) mo.Option[civil.Date] {
	candidate := s.pattern.Rule.next(ref, s.pattern.Interval, s.anchor)
	if until, ok := s.pattern.Until.Get(); ok && candidate > until {
		return mo.None[civil.Date]()
	}
	return mo.Some(candidate)
}

// Previous returns the occurrence before ref. Until only bounds the future,
// so Previous always has a result.
func (s Stepper) Previous(ref civil.Date) mo.Option[civil.Date] {
	return mo.Some(s.pattern.Rule.previous(ref, s.pattern.Interval, s.anchor))
}

// NextOccurrence returns the occurrence following ref, with ref as the
// anchor.
func NextOccurrence(p Pattern, ref civil.Date) mo.Option[civil.Date] {
	return NewStepper(p, ref).Next(ref)
}

// PreviousOccurrence mirrors NextOccurrence backwards.
func PreviousOccurrence(p Pattern, ref civil.Date) mo.Option[civil.Date] {
	return NewStepper(p, ref).Previous(ref)
}

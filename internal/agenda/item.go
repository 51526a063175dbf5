package agenda

import (
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/samber/mo"

	"taskcycle/internal/civil"
	"taskcycle/internal/recurrence"
)

// Kind is what sort of entity owns a recurrence.
type Kind string

const (
	KindTask     Kind = "task"
	KindReminder Kind = "reminder"
	KindHabit    Kind = "habit"
)

func (k Kind) valid() bool {
	switch k {
	case "", KindTask, KindReminder, KindHabit:
		return true
	}
	return false
}

// ChecklistEntry is one line of an item's checklist.
type ChecklistEntry struct {
	Text string `yaml:"text"`
	Done bool   `yaml:"done,omitempty"`
}

// Item is a task, reminder or habit with an optional recurrence. Due keeps
// the time of day; the recurrence only ever sees its calendar date.
type Item struct {
	ID         string           `yaml:"id"`
	Title      string           `yaml:"title"`
	Kind       Kind             `yaml:"kind,omitempty"`
	Due        time.Time        `yaml:"due"`
	Recurrence string           `yaml:"recurrence,omitempty"`
	Done       bool             `yaml:"done,omitempty"`
	Checklist  []ChecklistEntry `yaml:"checklist,omitempty"`
}

// Limits are the enumeration step caps applied to every item. Zero values
// take the recurrence defaults.
type Limits struct {
	Backward int
	Forward  int
}

// Completion reports what Complete did to an item.
type Completion struct {
	Previous time.Time
	// Next is the new due time, or None when the item is finished.
	Next     mo.Option[time.Time]
	Reopened int
}

// Equal reports whether it and o hold the same data, the due time's zone
// offset included.
func (it *Item) Equal(o *Item) bool {
	return it.ID == o.ID &&
		it.Title == o.Title &&
		it.Kind == o.Kind &&
		it.Due.Format(time.RFC3339Nano) == o.Due.Format(time.RFC3339Nano) &&
		it.Recurrence == o.Recurrence &&
		it.Done == o.Done &&
		slices.Equal(it.Checklist, o.Checklist)
}

// Pattern decodes the item's recurrence. Malformed text reads as no
// recurrence.
func (it *Item) Pattern() mo.Option[recurrence.Pattern] {
	return recurrence.Decode(it.Recurrence)
}

// DueDate is the calendar date of Due in Due's own location.
func (it *Item) DueDate() civil.Date {
	return civil.Of(it.Due)
}

// Describe renders the recurrence for display.
func (it *Item) Describe() string {
	return recurrence.Describe(it.Pattern())
}

// Occurrences lists the dates in [from, until] on which the item falls due,
// the current due date included. Finished items have none.
func (it *Item) Occurrences(from, until civil.Date, limits Limits) []civil.Date {
	if it.Done {
		return nil
	}
	due := it.DueDate()
	p, ok := it.Pattern().Get()
	if !ok {
		if due >= from && due <= until {
			return []civil.Date{due}
		}
		return nil
	}

	e := recurrence.Enumerate(p, recurrence.EnumerateOptions{
		Anchor:        resumePoint(p, due, from),
		CycleAnchor:   mo.Some(due),
		From:          max(from, due),
		Until:         mo.Some(until),
		IncludeAnchor: true,
		BackwardLimit: limits.Backward,
		ForwardLimit:  limits.Forward,
	})
	if e.Truncated {
		slog.Warn("occurrence list cut short at the step limit",
			"item", it.ID, "from", from.String(), "until", until.String(), "dates", len(e.Dates))
	}
	return e.Dates
}

// resumePoint steps p forward from due to its last occurrence before from,
// so a window far past the due date costs no enumeration steps to reach.
// It returns due when from is not later.
func resumePoint(p recurrence.Pattern, due, from civil.Date) civil.Date {
	stepper := recurrence.NewStepper(p, due)
	cursor := due
	for {
		next, ok := stepper.Next(cursor).Get()
		if !ok || next >= from {
			return cursor
		}
		cursor = next
	}
}

// OccursOn reports whether the item falls due on d.
func (it *Item) OccursOn(d civil.Date, limits Limits) bool {
	return len(it.Occurrences(d, d, limits)) > 0
}

// Complete marks the current occurrence done. A repeating item moves to its
// next occurrence at the same time of day and, when its pattern asks for
// it, gets its checklist reopened. An item with no further occurrence is
// finished.
func (it *Item) Complete() Completion {
	c := Completion{Previous: it.Due, Next: mo.None[time.Time]()}

	p, ok := it.Pattern().Get()
	if !ok {
		it.Done = true
		return c
	}
	next, ok := recurrence.NextOccurrence(p, it.DueDate()).Get()
	if !ok {
		it.Done = true
		return c
	}

	it.Due = next.At(it.Due)
	c.Next = mo.Some(it.Due)
	if p.ReopenChecklist {
		for i := range it.Checklist {
			if it.Checklist[i].Done {
				it.Checklist[i].Done = false
				c.Reopened++
			}
		}
	}
	return c
}

func (it *Item) validate() error {
	if it.ID == "" {
		return fmt.Errorf("item %q has no id", it.Title)
	}
	if !it.Kind.valid() {
		return fmt.Errorf("item %s: unknown kind %q", it.ID, it.Kind)
	}
	if it.Due.IsZero() {
		return fmt.Errorf("item %s has no due date", it.ID)
	}
	return nil
}

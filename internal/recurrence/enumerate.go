package recurrence

import (
	"slices"

	"github.com/samber/mo"

	"taskcycle/internal/civil"
)

// Step caps for the two walks of Enumerate. Every supported rule leaves the
// window well before these; they only bound the work on bad input.
const (
	DefaultBackwardLimit = 100
	DefaultForwardLimit  = 500
)

// EnumerateOptions describes an occurrence window around an anchor.
type EnumerateOptions struct {
	Anchor civil.Date
	From   civil.Date
	// Until is the inclusive upper end of the window. With neither Until
	// nor a pattern Until the forward walk runs to ForwardLimit.
	Until mo.Option[civil.Date]

	// CycleAnchor is the date weekly intervals are counted from, when that
	// is not Anchor. Callers resuming a walk part way through a pattern's
	// life set it to the original start.
	CycleAnchor mo.Option[civil.Date]

	// IncludeAnchor adds the anchor itself when it lies inside the window.
	// The steppers never return their starting date.
	IncludeAnchor bool

	// Non-positive limits mean DefaultBackwardLimit and DefaultForwardLimit.
	BackwardLimit int
	ForwardLimit  int
}

// Enumeration is the result of Enumerate.
type Enumeration struct {
	// Dates are sorted ascending without duplicates.
	Dates []civil.Date
	// Truncated is set when a walk stopped at its step cap rather than at
	// the edge of the window.
	Truncated bool
}

// Enumerate walks backward and forward from the anchor and collects the
// occurrences inside [From, Until].
func Enumerate(p Pattern, opts EnumerateOptions) Enumeration {
	backwardLimit := opts.BackwardLimit
	if backwardLimit <= 0 {
		backwardLimit = DefaultBackwardLimit
	}
	forwardLimit := opts.ForwardLimit
	if forwardLimit <= 0 {
		forwardLimit = DefaultForwardLimit
	}

	upper, bounded := effectiveUntil(opts.Until, p.Until).Get()
	inside := func(d civil.Date) bool {
		return d >= opts.From && (!bounded || d <= upper)
	}

	stepper := NewStepper(p, opts.CycleAnchor.OrElse(opts.Anchor))
	dates := make([]civil.Date, 0)
	truncated := false

	cursor := opts.Anchor
	for i := 0; ; i++ {
		if i == backwardLimit {
			truncated = true
			break
		}
		prev, ok := stepper.Previous(cursor).Get()
		if !ok {
			break
		}
		if inside(prev) {
			dates = append(dates, prev)
		}
		if prev <= opts.From {
			break
		}
		cursor = prev
	}

	cursor = opts.Anchor
	for i := 0; ; i++ {
		if i == forwardLimit {
			truncated = true
			break
		}
		next, ok := stepper.Next(cursor).Get()
		if !ok || (bounded && next > upper) {
			break
		}
		if inside(next) {
			dates = append(dates, next)
		}
		cursor = next
	}

	if opts.IncludeAnchor && inside(opts.Anchor) {
		dates = append(dates, opts.Anchor)
	}

	slices.Sort(dates)
	return Enumeration{Dates: slices.Compact(dates), Truncated: truncated}
}

// OccurrencesInRange returns the occurrences in [from, until] found by
// walking out from anchor, sorted and without duplicates. The anchor itself
// is only listed when a walk reaches it; use Enumerate with IncludeAnchor to
// count it.
func OccurrencesInRange(p Pattern, anchor, from civil.Date, until mo.Option[civil.Date]) []civil.Date {
	return Enumerate(p, EnumerateOptions{
		Anchor: anchor,
		From:   from,
		Until:  until,
	}).Dates
}

func effectiveUntil(a, b mo.Option[civil.Date]) mo.Option[civil.Date] {
	av, aok := a.Get()
	bv, bok := b.Get()
	switch {
	case aok && bok:
		return mo.Some(min(av, bv))
	case aok:
		return a
	default:
		return b
	}
}

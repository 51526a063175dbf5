package recurrence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"taskcycle/internal/civil"
)

// naiveScan walks one day at a time with no cap and no skipping.
func naiveScan(days WeekdaySet, ref civil.Date, interval int, anchor civil.Date, dir int) civil.Date {
	for candidate := ref.AddDays(dir); ; candidate = candidate.AddDays(dir) {
		week := civil.FloorDiv(candidate.Sub(anchor), 7)
		if civil.Mod(week, interval) == 0 && days.Has(candidate.Weekday()) {
			return candidate
		}
	}
}

func TestWeeklyScanBound(t *testing.T) {
	anchor := date(2024, time.January, 3)
	intervals := []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 52}

	for _, interval := range intervals {
		reach := 7*interval + 14
		for set := WeekdaySet(1); set < 1<<7; set++ {
			r := WeeklyRule{Days: set}
			for offset := -reach; offset <= reach; offset++ {
				ref := anchor.AddDays(offset)
				for _, dir := range []int{1, -1} {
					got, examined, ok := r.scan(ref, interval, anchor, dir)
					if !ok {
						t.Fatalf("interval %d days %s ref %s dir %d: no match", interval, set, ref, dir)
					}
					if examined > 14 {
						t.Fatalf("interval %d days %s ref %s dir %d: examined %d days", interval, set, ref, dir, examined)
					}
					if want := naiveScan(set, ref, interval, anchor, dir); got != want {
						t.Fatalf("interval %d days %s ref %s dir %d: got %s, want %s", interval, set, ref, dir, got, want)
					}
				}
			}
		}
	}
}

func TestWeeklyStepFallsBackToJump(t *testing.T) {
	r := WeeklyRule{}
	ref := date(2024, time.January, 3)
	assert.Equal(t, ref.AddDays(14), r.next(ref, 2, ref))
	assert.Equal(t, ref.AddDays(-14), r.previous(ref, 2, ref))
}

func TestWeeklyScanStaysOnCycle(t *testing.T) {
	// Every 3 weeks on Friday from Wednesday 2024-01-03: the Fridays of
	// weeks 0, 3 and 6 counted from the anchor.
	r := WeeklyRule{Days: NewWeekdaySet(time.Friday)}
	anchor := date(2024, time.January, 3)
	s := NewStepper(Pattern{Rule: r, Interval: 3}, anchor)

	want := []civil.Date{
		date(2024, time.January, 5),
		date(2024, time.January, 26),
		date(2024, time.February, 16),
	}
	ref := anchor
	for _, w := range want {
		next, ok := s.Next(ref).Get()
		assert.True(t, ok)
		assert.Equal(t, w, next)
		ref = next
	}
}

// Package agenda keeps the YAML file of repeating items the command line
// works on: it loads and saves the file, advances items when they are
// completed and lists their occurrences for a date window.
package agenda

import (
	"cmp"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"time"

	"gopkg.in/yaml.v3"

	"taskcycle/internal/civil"
)

// ErrItemNotFound is returned when no item has the requested id.
var ErrItemNotFound = errors.New("agenda: item not found")

// Agenda is the content of an agenda file.
type Agenda struct {
	Items []*Item `yaml:"items"`

	// Limits caps occurrence enumeration for every item.
	Limits Limits `yaml:"-"`
}

// Entry is one occurrence of an item.
type Entry struct {
	Date civil.Date
	Item *Item
}

// Load reads and validates the agenda file at path.
func Load(path string) (*Agenda, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read agenda %s: %w", path, err)
	}
	a, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("agenda %s: %w", path, err)
	}
	return a, nil
}

// Parse decodes agenda YAML. Items whose recurrence text cannot be decoded
// are kept as non-repeating and logged.
func Parse(data []byte) (*Agenda, error) {
	var a Agenda
	if err := yaml.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("failed to parse agenda: %w", err)
	}

	seen := make(map[string]bool, len(a.Items))
	for i, it := range a.Items {
		if it == nil {
			return nil, fmt.Errorf("item %d is empty", i)
		}
		if err := it.validate(); err != nil {
			return nil, err
		}
		if seen[it.ID] {
			return nil, fmt.Errorf("duplicate item id %s", it.ID)
		}
		seen[it.ID] = true

		if it.Recurrence != "" && it.Pattern().IsAbsent() {
			slog.Warn("ignoring malformed recurrence", "item", it.ID, "recurrence", it.Recurrence)
		}
	}
	return &a, nil
}

// Save writes the agenda to path through a temporary file and a rename.
func (a *Agenda) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create agenda directory: %w", err)
	}

	data, err := yaml.Marshal(a)
	if err != nil {
		return fmt.Errorf("failed to marshal agenda: %w", err)
	}

	tempFile := path + ".tmp"
	if err := os.WriteFile(tempFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write temporary agenda file: %w", err)
	}
	if err := os.Rename(tempFile, path); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to rename agenda file: %w", err)
	}
	return nil
}

// Find returns the item with the given id.
func (a *Agenda) Find(id string) (*Item, error) {
	for _, it := range a.Items {
		if it.ID == id {
			return it, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrItemNotFound, id)
}

// Complete completes the item with the given id.
func (a *Agenda) Complete(id string) (Completion, error) {
	it, err := a.Find(id)
	if err != nil {
		return Completion{}, err
	}
	if it.Done {
		return Completion{}, fmt.Errorf("item %s is already done", id)
	}
	return it.Complete(), nil
}

// Upcoming lists the occurrences of all open items in the days days
// starting at from, ordered by date, time of day and id.
func (a *Agenda) Upcoming(from civil.Date, days int) []Entry {
	until := from.AddDays(max(days, 1) - 1)

	var entries []Entry
	for _, it := range a.Items {
		for _, d := range it.Occurrences(from, until, a.Limits) {
			entries = append(entries, Entry{Date: d, Item: it})
		}
	}

	slices.SortFunc(entries, func(x, y Entry) int {
		if c := cmp.Compare(x.Date, y.Date); c != 0 {
			return c
		}
		if c := cmp.Compare(clockSeconds(x.Item), clockSeconds(y.Item)); c != 0 {
			return c
		}
		return cmp.Compare(x.Item.ID, y.Item.ID)
	})
	return entries
}

// Shade maps each day of the month to the ids of the items due that day.
// Days without items are absent.
func (a *Agenda) Shade(year int, month time.Month) map[civil.Date][]string {
	first := civil.New(year, month, 1)
	last := civil.New(year, month, civil.LastDayOfMonth(year, month))

	shade := make(map[civil.Date][]string)
	for _, it := range a.Items {
		for _, d := range it.Occurrences(first, last, a.Limits) {
			shade[d] = append(shade[d], it.ID)
		}
	}
	for d := range shade {
		slices.Sort(shade[d])
	}
	return shade
}

func clockSeconds(it *Item) int {
	h, m, s := it.Due.Clock()
	return h*3600 + m*60 + s
}

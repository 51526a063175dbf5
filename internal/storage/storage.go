package storage

import (
	"cmp"
	"fmt"
	"slices"
	"sync"

	"taskcycle/internal/agenda"
	"taskcycle/internal/civil"
)

// indexDays is how many days, starting at the index date, the daily index
// covers.
const indexDays = 7

// ItemStorage holds the items of an agenda for a long-running process and
// answers day-based queries from a daily index
type ItemStorage interface {
	UpsertItem(item agenda.Item) error
	DeleteItem(id string) error
	GetItem(id string) (agenda.Item, bool)
	GetItemsForDay(date civil.Date) []agenda.Item
	GetUpcomingItems(from civil.Date, days int) []agenda.Entry
	RegenerateIndex(date civil.Date) error
	GetAllItems() []agenda.Item
}

// MemoryItemStorage implements ItemStorage using in-memory maps
type MemoryItemStorage struct {
	items map[string]agenda.Item

	// Daily index for fast lookups - map[date][]item id
	dailyIndex map[civil.Date][]string

	// Current indexed date
	currentIndexDate civil.Date
	indexed          bool

	limits agenda.Limits
	mutex  sync.RWMutex
}

// NewMemoryItemStorage creates a new in-memory item storage
func NewMemoryItemStorage(limits agenda.Limits) *MemoryItemStorage {
	return &MemoryItemStorage{
		items:      make(map[string]agenda.Item),
		dailyIndex: make(map[civil.Date][]string),
		limits:     limits,
	}
}

// UpsertItem adds or updates an item in storage
func (s *MemoryItemStorage) UpsertItem(item agenda.Item) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.items[item.ID] = item
	s.regenerateIndexLocked()
	return nil
}

// DeleteItem removes an item from storage
func (s *MemoryItemStorage) DeleteItem(id string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	delete(s.items, id)
	s.regenerateIndexLocked()
	return nil
}

// GetItem returns the item with the given id
func (s *MemoryItemStorage) GetItem(id string) (agenda.Item, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	item, ok := s.items[id]
	return item, ok
}

// GetItemsForDay returns all items that fall due on date, ordered by id
func (s *MemoryItemStorage) GetItemsForDay(date civil.Date) []agenda.Item {
	s.mutex.RLock()
	inWindow := s.indexed && date >= s.currentIndexDate && date < s.currentIndexDate.AddDays(indexDays)
	s.mutex.RUnlock()

	// Move the index window when asked about a day outside it
	if !inWindow {
		s.RegenerateIndex(date)
	}

	s.mutex.RLock()
	defer s.mutex.RUnlock()

	ids := s.dailyIndex[date]
	result := make([]agenda.Item, 0, len(ids))
	for _, id := range ids {
		result = append(result, s.items[id])
	}
	return result
}

// GetUpcomingItems lists the occurrences in the days days starting at from
func (s *MemoryItemStorage) GetUpcomingItems(from civil.Date, days int) []agenda.Entry {
	return s.snapshot().Upcoming(from, days)
}

// RegenerateIndex rebuilds the daily index starting at date
func (s *MemoryItemStorage) RegenerateIndex(date civil.Date) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.currentIndexDate = date
	s.indexed = true
	s.regenerateIndexLocked()
	return nil
}

// regenerateIndexLocked rebuilds the daily index (must be called with lock held)
func (s *MemoryItemStorage) regenerateIndexLocked() {
	s.dailyIndex = make(map[civil.Date][]string)

	baseDate := s.currentIndexDate
	if !s.indexed {
		baseDate = civil.Today()
		s.currentIndexDate = baseDate
		s.indexed = true
	}
	lastDate := baseDate.AddDays(indexDays - 1)

	for id, item := range s.items {
		for _, d := range item.Occurrences(baseDate, lastDate, s.limits) {
			s.dailyIndex[d] = append(s.dailyIndex[d], id)
		}
	}
	for d := range s.dailyIndex {
		slices.Sort(s.dailyIndex[d])
	}
}

// GetAllItems returns all items in storage, ordered by id
func (s *MemoryItemStorage) GetAllItems() []agenda.Item {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	items := make([]agenda.Item, 0, len(s.items))
	for _, item := range s.items {
		items = append(items, item)
	}
	slices.SortFunc(items, func(a, b agenda.Item) int {
		return cmp.Compare(a.ID, b.ID)
	})
	return items
}

// GetItemCount returns the total number of items in storage
func (s *MemoryItemStorage) GetItemCount() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return len(s.items)
}

// snapshot copies the stored items into a detached agenda
func (s *MemoryItemStorage) snapshot() *agenda.Agenda {
	items := s.GetAllItems()
	a := &agenda.Agenda{Items: make([]*agenda.Item, len(items)), Limits: s.limits}
	for i := range items {
		a.Items[i] = &items[i]
	}
	return a
}

// Changes lists the item ids a Sync added, updated and removed
type Changes struct {
	Added   []string
	Updated []string
	Removed []string
}

// Empty reports whether the Sync changed nothing
func (c Changes) Empty() bool {
	return len(c.Added)+len(c.Updated)+len(c.Removed) == 0
}

// Sync brings s in line with the items of a, typically after the agenda
// file changed on disk. Unchanged items are left alone.
func Sync(s ItemStorage, a *agenda.Agenda) (Changes, error) {
	var c Changes
	seen := make(map[string]bool, len(a.Items))

	for _, it := range a.Items {
		seen[it.ID] = true
		old, ok := s.GetItem(it.ID)
		switch {
		case !ok:
			c.Added = append(c.Added, it.ID)
		case !old.Equal(it):
			c.Updated = append(c.Updated, it.ID)
		default:
			continue
		}
		if err := s.UpsertItem(*it); err != nil {
			return c, fmt.Errorf("failed to store item %s: %w", it.ID, err)
		}
	}

	for _, it := range s.GetAllItems() {
		if seen[it.ID] {
			continue
		}
		if err := s.DeleteItem(it.ID); err != nil {
			return c, fmt.Errorf("failed to remove item %s: %w", it.ID, err)
		}
		c.Removed = append(c.Removed, it.ID)
	}
	return c, nil
}

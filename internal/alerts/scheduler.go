package alerts

import (
	"cmp"
	"context"
	"log/slog"
	"slices"
	"time"

	"taskcycle/internal/agenda"
	"taskcycle/internal/civil"
	"taskcycle/internal/config"
	"taskcycle/internal/storage"
)

// maxCatchUp bounds how far back a check looks for missed reminders after
// the process was not running.
const maxCatchUp = 24 * time.Hour

// lateAfter is how old a reminder may be before it counts as late.
const lateAfter = time.Minute

// AlertRequest represents a request to send a notification
type AlertRequest struct {
	Item       agenda.Item
	Occurrence time.Time
	Offset     time.Duration
	Important  bool
	Late       bool
}

// AlertTime is when the reminder was due to fire.
func (r AlertRequest) AlertTime() time.Time {
	return r.Occurrence.Add(-r.Offset)
}

// AlertScheduler decides which reminders are due
type AlertScheduler interface {
	CheckAlerts(now time.Time) []AlertRequest
	ScheduleNextCheck(now time.Time) time.Duration
}

type reminder struct {
	offset    time.Duration
	important bool
}

// MinuteBasedScheduler fires every reminder whose alert time falls between
// the last persisted tick and now
type MinuteBasedScheduler struct {
	items     storage.ItemStorage
	state     storage.StateManager
	reminders []reminder
	maxOffset time.Duration
}

// NewMinuteBasedScheduler creates a scheduler over items. Reminder configs
// that do not convert to a duration are skipped.
func NewMinuteBasedScheduler(items storage.ItemStorage, state storage.StateManager, configs []config.ReminderConfig) *MinuteBasedScheduler {
	s := &MinuteBasedScheduler{items: items, state: state}
	for _, rc := range configs {
		offset, err := rc.Duration()
		if err != nil {
			slog.Warn("skipping reminder", "error", err)
			continue
		}
		s.reminders = append(s.reminders, reminder{offset: offset, important: rc.Important})
		s.maxOffset = max(s.maxOffset, offset)
	}
	return s
}

// CheckAlerts returns the reminders with an alert time in (last tick, now]
// and advances the tick to now
func (s *MinuteBasedScheduler) CheckAlerts(now time.Time) []AlertRequest {
	lastTick := s.state.GetLastAlertTick()
	if lastTick.IsZero() || lastTick.After(now) {
		lastTick = now
	}
	if now.Sub(lastTick) > maxCatchUp {
		lastTick = now.Add(-maxCatchUp)
	}

	var requests []AlertRequest
	if lastTick.Before(now) {
		// One day of slack on each side covers items due in other zones.
		first := civil.Of(lastTick).AddDays(-1)
		last := civil.Of(now.Add(s.maxOffset)).AddDays(1)
		for d := first; d <= last; d = d.AddDays(1) {
			for _, item := range s.items.GetItemsForDay(d) {
				requests = append(requests, s.checkItem(item, d, lastTick, now)...)
			}
		}
	}

	slices.SortFunc(requests, func(a, b AlertRequest) int {
		if c := a.AlertTime().Compare(b.AlertTime()); c != 0 {
			return c
		}
		return cmp.Compare(a.Item.ID, b.Item.ID)
	})

	if err := s.state.SetLastAlertTick(now); err != nil {
		slog.Error("failed to persist alert tick", "error", err)
	}
	return requests
}

// checkItem checks a single occurrence against all reminder offsets
func (s *MinuteBasedScheduler) checkItem(item agenda.Item, d civil.Date, lastTick, now time.Time) []AlertRequest {
	occurrence := d.At(item.Due)

	var requests []AlertRequest
	for _, r := range s.reminders {
		alertTime := occurrence.Add(-r.offset)
		if !alertTime.After(lastTick) || alertTime.After(now) {
			continue
		}
		requests = append(requests, AlertRequest{
			Item:       item,
			Occurrence: occurrence,
			Offset:     r.offset,
			Important:  r.important,
			Late:       now.Sub(alertTime) > lateAfter,
		})
	}
	return requests
}

// ScheduleNextCheck returns the duration until the next minute boundary
func (s *MinuteBasedScheduler) ScheduleNextCheck(now time.Time) time.Duration {
	return now.Truncate(time.Minute).Add(time.Minute).Sub(now)
}

// AlertStats provides statistics about the reminder system
type AlertStats struct {
	TotalItems    int
	UpcomingItems int
	Reminders     int
	LastCheckTime time.Time
	NextCheckTime time.Time
}

// GetAlertStats returns statistics about the current reminder state
func (s *MinuteBasedScheduler) GetAlertStats(now time.Time) AlertStats {
	return AlertStats{
		TotalItems:    len(s.items.GetAllItems()),
		UpcomingItems: len(s.items.GetUpcomingItems(civil.Of(now), 7)),
		Reminders:     len(s.reminders),
		LastCheckTime: s.state.GetLastAlertTick(),
		NextCheckTime: now.Add(s.ScheduleNextCheck(now)),
	}
}

// AlertManager runs a scheduler once a minute and hands the due reminders
// to a channel
type AlertManager struct {
	scheduler AlertScheduler
	alertChan chan []AlertRequest
	now       func() time.Time
}

// NewAlertManager creates a new alert manager
func NewAlertManager(scheduler AlertScheduler) *AlertManager {
	return &AlertManager{
		scheduler: scheduler,
		alertChan: make(chan []AlertRequest, 10),
		now:       time.Now,
	}
}

// Alerts returns the channel receiving alert requests. It is closed when
// Run returns.
func (am *AlertManager) Alerts() <-chan []AlertRequest {
	return am.alertChan
}

// Run checks for reminders right away and then at every minute boundary
// until ctx is done
func (am *AlertManager) Run(ctx context.Context) error {
	defer close(am.alertChan)

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-timer.C:
			now := am.now()
			if requests := am.scheduler.CheckAlerts(now); len(requests) > 0 {
				select {
				case am.alertChan <- requests:
				default:
					slog.Warn("alert channel full, dropping alerts", "count", len(requests))
				}
			}
			timer.Reset(am.scheduler.ScheduleNextCheck(am.now()))

		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

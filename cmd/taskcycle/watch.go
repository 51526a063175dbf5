package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"taskcycle/internal/agenda"
	"taskcycle/internal/alerts"
	"taskcycle/internal/civil"
	"taskcycle/internal/config"
	"taskcycle/internal/notifications"
	"taskcycle/internal/storage"
	"taskcycle/internal/watcher"
)

// upcomingDays is how far ahead the watch command renders
const upcomingDays = 7

func newWatchCmd(a *app) *cobra.Command {
	var (
		file   string
		notify bool
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-render the upcoming week whenever the agenda changes",
		Long: `Watch the agenda file and print the upcoming week on every change.
With --notify, also send a reminder before each occurrence using the
reminder offsets and notification backend from the configuration.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := a.agendaPath(file)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			d := newWatchDaemon(a, path, cmd.OutOrStdout())
			d.notify = notify
			return d.run(ctx)
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "agenda file (default from config)")
	cmd.Flags().BoolVar(&notify, "notify", false, "send reminders while watching")
	return cmd
}

// watchDaemon keeps the agenda in memory and reloads it on change
type watchDaemon struct {
	app    *app
	path   string
	out    io.Writer
	notify bool
	today  func() civil.Date

	items *storage.MemoryItemStorage
	state storage.StateManager

	// mu serializes reloads and rendering
	mu sync.Mutex
}

func newWatchDaemon(a *app, path string, out io.Writer) *watchDaemon {
	return &watchDaemon{
		app:   a,
		path:  path,
		out:   out,
		today: civil.Today,
		items: storage.NewMemoryItemStorage(a.limits()),
	}
}

// run loads the agenda, then watches it until ctx is done
func (d *watchDaemon) run(ctx context.Context) error {
	if err := d.reload(); err != nil {
		return err
	}

	w, err := watcher.NewAgendaWatcher(d.path, d.handleFileChange)
	if err != nil {
		return err
	}
	defer w.Stop()
	slog.Info("watching agenda", "path", w.Path(), "items", d.items.GetItemCount())

	var wg sync.WaitGroup
	if d.notify {
		if err := d.startReminders(ctx, &wg); err != nil {
			return err
		}
	}

	<-ctx.Done()
	wg.Wait()
	slog.Info("stopped watching", "path", d.path)
	return nil
}

// reload reads the agenda file into storage and renders it. A file that
// cannot be read leaves the previous items in place.
func (d *watchDaemon) reload() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	ag, err := agenda.Load(d.path)
	if err != nil {
		return err
	}
	changes, err := storage.Sync(d.items, ag)
	if err != nil {
		return fmt.Errorf("failed to store agenda: %w", err)
	}
	if !changes.Empty() {
		slog.Info("agenda reloaded",
			"added", len(changes.Added), "updated", len(changes.Updated), "removed", len(changes.Removed))
	}
	if err := d.items.RegenerateIndex(d.today()); err != nil {
		return fmt.Errorf("failed to regenerate daily index: %w", err)
	}
	return d.renderLocked()
}

func (d *watchDaemon) renderLocked() error {
	from := d.today()
	fmt.Fprintf(d.out, "== %s ==\n", from)
	return agenda.WriteUpcoming(d.out, d.items.GetUpcomingItems(from, upcomingDays))
}

// handleFileChange reloads the agenda after it was written or replaced
func (d *watchDaemon) handleFileChange(event watcher.FileChangeEvent) {
	slog.Debug("agenda changed", "path", event.Path, "operation", event.Operation.String())

	switch event.Operation {
	case watcher.FileCreated, watcher.FileModified:
		if err := d.reload(); err != nil {
			slog.Warn("keeping previous agenda", "error", err)
		}
	case watcher.FileDeleted, watcher.FileRenamed:
		slog.Warn("agenda file went away, keeping previous items", "path", event.Path)
	}
}

// startReminders runs the alert manager and the notification loop
func (d *watchDaemon) startReminders(ctx context.Context, wg *sync.WaitGroup) error {
	if d.state == nil {
		state, err := storage.NewXDGStateManager()
		if err != nil {
			return err
		}
		d.state = state
	}
	if err := d.state.Load(); err != nil {
		slog.Warn("failed to load state, starting fresh", "error", err)
	}

	filter, err := newReminderFilter(d.app.config.Notification)
	if err != nil {
		return err
	}
	notifier, err := notifications.NewNotificationManager(d.app.config.Notification)
	if err != nil {
		return err
	}

	scheduler := alerts.NewMinuteBasedScheduler(d.items, d.state, d.app.config.Reminders)
	stats := scheduler.GetAlertStats(time.Now())
	slog.Info("reminders enabled",
		"reminders", stats.Reminders,
		"upcoming", stats.UpcomingItems,
		"last_check", stats.LastCheckTime.Format(time.RFC3339))

	manager := alerts.NewAlertManager(scheduler)

	wg.Add(2)
	go func() {
		defer wg.Done()
		if err := manager.Run(ctx); err != nil && ctx.Err() == nil {
			slog.Error("alert manager stopped", "error", err)
		}
	}()
	go func() {
		defer wg.Done()
		defer notifier.Close()
		for requests := range manager.Alerts() {
			filter.deliver(requests, notifier)
		}
	}()
	return nil
}

// reminderFilter drops reminders ranked below the configured priority
type reminderFilter struct {
	classifier  *alerts.PriorityClassifier
	minPriority alerts.ItemPriority
	now         func() time.Time
}

func newReminderFilter(cfg config.NotificationConfig) (*reminderFilter, error) {
	minPriority, err := alerts.ParsePriority(cfg.MinPriority)
	if err != nil {
		return nil, fmt.Errorf("invalid min_priority: %w", err)
	}
	return &reminderFilter{
		classifier:  alerts.NewConfiguredClassifier(cfg),
		minPriority: minPriority,
		now:         time.Now,
	}, nil
}

// deliver sends the requests that pass the filter through n
func (f *reminderFilter) deliver(requests []alerts.AlertRequest, n notifications.Notifier) {
	kept := f.classifier.FilterByPriority(requests, f.minPriority, f.now())
	if skipped := len(requests) - len(kept); skipped > 0 {
		slog.Debug("skipping reminders below min priority",
			"skipped", skipped, "min_priority", f.minPriority.String())
	}
	for _, request := range kept {
		slog.Info("sending reminder",
			"item", request.Item.ID,
			"due", request.Occurrence.Format(time.RFC3339),
			"late", request.Late)
		if err := n.SendNotification(request); err != nil {
			slog.Warn("failed to send reminder", "item", request.Item.ID, "error", err)
		}
	}
}

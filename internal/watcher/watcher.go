// Package watcher reports changes to the agenda file so a running watch
// command can reload it.
package watcher

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ErrStopped is returned when a stopped watcher is asked to watch more.
var ErrStopped = errors.New("watcher: stopped")

// FileOperation is what happened to a watched file
type FileOperation int

const (
	FileCreated FileOperation = iota
	FileModified
	FileDeleted
	FileRenamed
)

var operationNames = [...]string{
	FileCreated:  "created",
	FileModified: "modified",
	FileDeleted:  "deleted",
	FileRenamed:  "renamed",
}

func (op FileOperation) String() string {
	if op < 0 || int(op) >= len(operationNames) {
		return "unknown"
	}
	return operationNames[op]
}

// FileChangeEvent is one change to one file
type FileChangeEvent struct {
	Path      string
	Operation FileOperation
}

// FileChangeCallback receives change events. It runs on the watcher's
// goroutine.
type FileChangeCallback func(event FileChangeEvent)

// FileFilter selects the files of a watched directory a callback sees
type FileFilter func(path string) bool

type subscription struct {
	filter   FileFilter
	callback FileChangeCallback
}

func (s subscription) wants(path string) bool {
	return s.filter == nil || s.filter(path)
}

// FSNotifyWatcher dispatches fsnotify events of whole directories
type FSNotifyWatcher struct {
	fs   *fsnotify.Watcher
	done chan struct{}

	mu   sync.RWMutex
	dirs map[string]subscription
}

// NewFSNotifyWatcher starts an fsnotify watcher and its event loop
func NewFSNotifyWatcher() (*FSNotifyWatcher, error) {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	w := &FSNotifyWatcher{
		fs:   fs,
		done: make(chan struct{}),
		dirs: make(map[string]subscription),
	}
	go w.loop()
	return w, nil
}

// WatchDirectory reports changes to the files in dir that pass filter. A
// nil filter passes every file.
func (w *FSNotifyWatcher) WatchDirectory(dir string, filter FileFilter, callback FileChangeCallback) error {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", dir, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return fmt.Errorf("cannot watch %s: %w", abs, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("cannot watch %s: not a directory", abs)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.dirs == nil {
		return ErrStopped
	}
	if err := w.fs.Add(abs); err != nil {
		return fmt.Errorf("failed to watch %s: %w", abs, err)
	}
	w.dirs[abs] = subscription{filter: filter, callback: callback}
	return nil
}

// Stop closes the fsnotify watcher. Stopping twice is a no-op.
func (w *FSNotifyWatcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.dirs == nil {
		return nil
	}
	w.dirs = nil
	close(w.done)
	return w.fs.Close()
}

// IsWatching reports whether dir is watched
func (w *FSNotifyWatcher) IsWatching(dir string) bool {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return false
	}
	w.mu.RLock()
	defer w.mu.RUnlock()
	_, ok := w.dirs[abs]
	return ok
}

func (w *FSNotifyWatcher) loop() {
	for {
		select {
		case <-w.done:
			return
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			slog.Warn("file watcher error", "error", err)
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			w.mu.RLock()
			sub, found := w.dirs[filepath.Dir(ev.Name)]
			w.mu.RUnlock()
			if found && sub.wants(ev.Name) {
				sub.callback(convertEvent(ev))
			}
		}
	}
}

// convertEvent maps an fsnotify event to a FileChangeEvent. Chmod and
// unknown events read as modifications.
func convertEvent(ev fsnotify.Event) FileChangeEvent {
	op := FileModified
	switch {
	case ev.Has(fsnotify.Create):
		op = FileCreated
	case ev.Has(fsnotify.Remove):
		op = FileDeleted
	case ev.Has(fsnotify.Rename):
		op = FileRenamed
	}
	return FileChangeEvent{Path: ev.Name, Operation: op}
}

// DefaultSettle is how long the agenda must stay quiet before a change is
// reported.
const DefaultSettle = 100 * time.Millisecond

// AgendaWatcher calls back once the agenda file has been written or
// replaced and then left alone for the settle delay. Bursts of events, as an
// editor saving in several writes produces, are reported once with the
// last operation seen. It watches the parent directory, since saving
// replaces the file by rename.
type AgendaWatcher struct {
	fw       *FSNotifyWatcher
	path     string
	settle   time.Duration
	callback FileChangeCallback

	mu      sync.Mutex
	timer   *time.Timer
	pending FileChangeEvent
	stopped bool
}

// NewAgendaWatcher starts watching the agenda file at path
func NewAgendaWatcher(path string, callback FileChangeCallback) (*AgendaWatcher, error) {
	return newAgendaWatcher(path, DefaultSettle, callback)
}

func newAgendaWatcher(path string, settle time.Duration, callback FileChangeCallback) (*AgendaWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", path, err)
	}

	fw, err := NewFSNotifyWatcher()
	if err != nil {
		return nil, err
	}

	aw := &AgendaWatcher{fw: fw, path: abs, settle: settle, callback: callback}
	isAgenda := func(name string) bool { return name == abs }
	if err := fw.WatchDirectory(filepath.Dir(abs), isAgenda, aw.observe); err != nil {
		fw.Stop()
		return nil, fmt.Errorf("failed to watch agenda: %w", err)
	}

	slog.Debug("watching agenda", "path", abs, "settle", settle)
	return aw, nil
}

// observe records ev and restarts the settle timer
func (aw *AgendaWatcher) observe(ev FileChangeEvent) {
	aw.mu.Lock()
	defer aw.mu.Unlock()
	if aw.stopped {
		return
	}
	aw.pending = ev
	if aw.timer == nil {
		aw.timer = time.AfterFunc(aw.settle, aw.fire)
		return
	}
	aw.timer.Reset(aw.settle)
}

func (aw *AgendaWatcher) fire() {
	aw.mu.Lock()
	if aw.stopped {
		aw.mu.Unlock()
		return
	}
	ev := aw.pending
	aw.mu.Unlock()
	aw.callback(ev)
}

// Path returns the absolute path of the watched agenda
func (aw *AgendaWatcher) Path() string {
	return aw.path
}

// Stop stops watching. A change still settling is dropped.
func (aw *AgendaWatcher) Stop() error {
	aw.mu.Lock()
	aw.stopped = true
	if aw.timer != nil {
		aw.timer.Stop()
	}
	aw.mu.Unlock()
	return aw.fw.Stop()
}

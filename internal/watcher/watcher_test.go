package watcher

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

type eventRecorder struct {
	mu     sync.Mutex
	events []FileChangeEvent
}

func (r *eventRecorder) record(event FileChangeEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *eventRecorder) snapshot() []FileChangeEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]FileChangeEvent(nil), r.events...)
}

// waitFor polls until cond holds or two seconds pass
func waitFor(t *testing.T, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return cond()
}

func TestFSNotifyWatcher_WatchDirectory(t *testing.T) {
	tempDir := t.TempDir()

	watcher, err := NewFSNotifyWatcher()
	if err != nil {
		t.Fatalf("Failed to create watcher: %v", err)
	}
	defer watcher.Stop()

	rec := &eventRecorder{}
	yamlOnly := func(path string) bool { return strings.HasSuffix(path, ".yaml") }
	if err := watcher.WatchDirectory(tempDir, yamlOnly, rec.record); err != nil {
		t.Fatalf("Failed to watch directory: %v", err)
	}

	if !watcher.IsWatching(tempDir) {
		t.Error("Directory should be watched")
	}

	testFile := filepath.Join(tempDir, "items.yaml")
	otherFile := filepath.Join(tempDir, "notes.txt")
	if err := os.WriteFile(otherFile, []byte("notes"), 0644); err != nil {
		t.Fatalf("Failed to create file: %v", err)
	}
	if err := os.WriteFile(testFile, []byte("items: []\n"), 0644); err != nil {
		t.Fatalf("Failed to create file: %v", err)
	}

	found := waitFor(t, func() bool {
		for _, event := range rec.snapshot() {
			if event.Path == testFile && event.Operation == FileCreated {
				return true
			}
		}
		return false
	})
	if !found {
		t.Error("Did not receive create event for test file")
	}

	for _, event := range rec.snapshot() {
		if event.Path == otherFile {
			t.Error("Should not receive events for filtered files")
		}
	}
}

func TestFSNotifyWatcher_NonexistentPath(t *testing.T) {
	watcher, err := NewFSNotifyWatcher()
	if err != nil {
		t.Fatalf("Failed to create watcher: %v", err)
	}
	defer watcher.Stop()

	callback := func(event FileChangeEvent) {}

	if err := watcher.WatchDirectory("/nonexistent/path", nil, callback); err == nil {
		t.Error("Expected error when watching nonexistent directory")
	}

	file := filepath.Join(t.TempDir(), "plain")
	os.WriteFile(file, nil, 0644)
	if err := watcher.WatchDirectory(file, nil, callback); err == nil {
		t.Error("Expected error when watching a regular file")
	}
}

func TestFSNotifyWatcher_Stop(t *testing.T) {
	tempDir := t.TempDir()

	watcher, err := NewFSNotifyWatcher()
	if err != nil {
		t.Fatalf("Failed to create watcher: %v", err)
	}

	if err := watcher.WatchDirectory(tempDir, nil, func(FileChangeEvent) {}); err != nil {
		t.Fatalf("Failed to watch directory: %v", err)
	}

	if err := watcher.Stop(); err != nil {
		t.Fatalf("Failed to stop watcher: %v", err)
	}

	if watcher.IsWatching(tempDir) {
		t.Error("Directory should not be watched after stop")
	}

	if err := watcher.WatchDirectory(tempDir, nil, func(FileChangeEvent) {}); !errors.Is(err, ErrStopped) {
		t.Errorf("Expected ErrStopped when watching with a stopped watcher, got %v", err)
	}

	// Stopping twice is fine
	if err := watcher.Stop(); err != nil {
		t.Errorf("Second Stop() failed: %v", err)
	}
}

func TestAgendaWatcher(t *testing.T) {
	tempDir := t.TempDir()
	agendaPath := filepath.Join(tempDir, "agenda.yaml")
	if err := os.WriteFile(agendaPath, []byte("items: []\n"), 0644); err != nil {
		t.Fatalf("Failed to create agenda: %v", err)
	}

	rec := &eventRecorder{}
	watcher, err := NewAgendaWatcher(agendaPath, rec.record)
	if err != nil {
		t.Fatalf("Failed to create agenda watcher: %v", err)
	}
	defer watcher.Stop()

	if watcher.Path() != agendaPath {
		t.Errorf("Expected path %s, got %s", agendaPath, watcher.Path())
	}

	// Save the way agenda.Save does: temporary file, then rename
	tmp := agendaPath + ".tmp"
	if err := os.WriteFile(tmp, []byte("items: []\n# changed\n"), 0644); err != nil {
		t.Fatalf("Failed to write temporary file: %v", err)
	}
	if err := os.Rename(tmp, agendaPath); err != nil {
		t.Fatalf("Failed to rename: %v", err)
	}

	if !waitFor(t, func() bool { return len(rec.snapshot()) > 0 }) {
		t.Fatal("Expected an event for the replaced agenda")
	}

	for _, event := range rec.snapshot() {
		if event.Path != agendaPath {
			t.Errorf("Unexpected event for %s", event.Path)
		}
	}
}

func TestAgendaWatcher_CoalescesBursts(t *testing.T) {
	tempDir := t.TempDir()
	agendaPath := filepath.Join(tempDir, "agenda.yaml")
	if err := os.WriteFile(agendaPath, []byte("items: []\n"), 0644); err != nil {
		t.Fatalf("Failed to create agenda: %v", err)
	}

	rec := &eventRecorder{}
	watcher, err := newAgendaWatcher(agendaPath, 200*time.Millisecond, rec.record)
	if err != nil {
		t.Fatalf("Failed to create agenda watcher: %v", err)
	}
	defer watcher.Stop()

	const writes = 5
	for i := 0; i < writes; i++ {
		if err := os.WriteFile(agendaPath, []byte(strings.Repeat("#\n", i+1)), 0644); err != nil {
			t.Fatalf("Failed to write agenda: %v", err)
		}
	}

	if !waitFor(t, func() bool { return len(rec.snapshot()) > 0 }) {
		t.Fatal("Expected an event after the burst")
	}
	time.Sleep(300 * time.Millisecond)

	events := rec.snapshot()
	if len(events) >= writes {
		t.Errorf("Expected the burst to be coalesced, got %d events", len(events))
	}
	if last := events[len(events)-1]; last.Operation != FileModified {
		t.Errorf("Expected the last operation to be modified, got %s", last.Operation)
	}
}

func TestAgendaWatcher_StopDropsPending(t *testing.T) {
	tempDir := t.TempDir()
	agendaPath := filepath.Join(tempDir, "agenda.yaml")
	if err := os.WriteFile(agendaPath, []byte("items: []\n"), 0644); err != nil {
		t.Fatalf("Failed to create agenda: %v", err)
	}

	rec := &eventRecorder{}
	watcher, err := newAgendaWatcher(agendaPath, time.Hour, rec.record)
	if err != nil {
		t.Fatalf("Failed to create agenda watcher: %v", err)
	}

	watcher.observe(FileChangeEvent{Path: agendaPath, Operation: FileModified})
	if err := watcher.Stop(); err != nil {
		t.Fatalf("Failed to stop: %v", err)
	}
	watcher.observe(FileChangeEvent{Path: agendaPath, Operation: FileModified})
	watcher.fire()

	if n := len(rec.snapshot()); n != 0 {
		t.Errorf("Expected no events after stop, got %d", n)
	}
}

func TestAgendaWatcher_MissingDirectory(t *testing.T) {
	_, err := NewAgendaWatcher("/nonexistent/dir/agenda.yaml", func(FileChangeEvent) {})
	if err == nil {
		t.Error("Expected error for an agenda in a missing directory")
	}
}

func TestFileOperation_String(t *testing.T) {
	tests := []struct {
		op       FileOperation
		expected string
	}{
		{FileCreated, "created"},
		{FileModified, "modified"},
		{FileDeleted, "deleted"},
		{FileRenamed, "renamed"},
		{FileOperation(999), "unknown"},
	}

	for _, test := range tests {
		if got := test.op.String(); got != test.expected {
			t.Errorf("FileOperation(%d).String() = %s, want %s", test.op, got, test.expected)
		}
	}
}

package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestStateManager(t *testing.T, now time.Time) *FileStateManager {
	t.Helper()
	s := NewFileStateManager(filepath.Join(t.TempDir(), "state", "state.json"))
	s.now = func() time.Time { return now }
	return s
}

func TestFileStateManager_LoadMissingStartsNow(t *testing.T) {
	now := time.Date(2024, time.March, 4, 9, 0, 0, 0, time.UTC)
	s := newTestStateManager(t, now)

	if err := s.Load(); err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if !s.GetLastAlertTick().Equal(now) {
		t.Errorf("Expected tick %v, got %v", now, s.GetLastAlertTick())
	}
	if _, err := os.Stat(s.GetStateFilePath()); err != nil {
		t.Errorf("Expected state file to be written: %v", err)
	}
}

func TestFileStateManager_RoundTrip(t *testing.T) {
	now := time.Date(2024, time.March, 4, 9, 0, 0, 0, time.UTC)
	s := newTestStateManager(t, now)
	if err := s.Load(); err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	tick := now.Add(90 * time.Minute)
	if err := s.SetLastAlertTick(tick); err != nil {
		t.Fatalf("SetLastAlertTick() failed: %v", err)
	}

	reloaded := NewFileStateManager(s.GetStateFilePath())
	reloaded.now = func() time.Time { return now.Add(24 * time.Hour) }
	if err := reloaded.Load(); err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if !reloaded.GetLastAlertTick().Equal(tick) {
		t.Errorf("Expected tick %v, got %v", tick, reloaded.GetLastAlertTick())
	}

	entries, err := os.ReadDir(filepath.Dir(s.GetStateFilePath()))
	if err != nil {
		t.Fatalf("ReadDir() failed: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("Expected only the state file to remain, got %d entries", len(entries))
	}
}

func TestFileStateManager_CorruptFileResets(t *testing.T) {
	now := time.Date(2024, time.March, 4, 9, 0, 0, 0, time.UTC)

	tests := map[string]string{
		"garbage":       "{not json",
		"wrong version": `{"last_alert_tick":"2020-01-01T00:00:00Z","version":"0"}`,
	}

	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			s := newTestStateManager(t, now)
			os.MkdirAll(filepath.Dir(s.GetStateFilePath()), 0755)
			if err := os.WriteFile(s.GetStateFilePath(), []byte(content), 0644); err != nil {
				t.Fatalf("WriteFile() failed: %v", err)
			}

			if err := s.Load(); err != nil {
				t.Fatalf("Load() failed: %v", err)
			}
			if !s.GetLastAlertTick().Equal(now) {
				t.Errorf("Expected tick reset to %v, got %v", now, s.GetLastAlertTick())
			}
		})
	}
}

package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/adrg/xdg"
)

const stateVersion = "1"

// WatchState is what the watch command remembers between runs
type WatchState struct {
	// LastAlertTick is the end of the last reminder window that was checked
	LastAlertTick time.Time `json:"last_alert_tick"`
	Version       string    `json:"version"`
}

// StateManager handles persistent state operations
type StateManager interface {
	GetLastAlertTick() time.Time
	SetLastAlertTick(tick time.Time) error
	Load() error
	Save() error
}

// FileStateManager implements StateManager with a JSON file
type FileStateManager struct {
	state    WatchState
	filePath string
	now      func() time.Time
	mutex    sync.RWMutex
}

// NewXDGStateManager creates a state manager in the XDG state directory
func NewXDGStateManager() (*FileStateManager, error) {
	stateFilePath, err := xdg.StateFile("taskcycle/state.json")
	if err != nil {
		return nil, fmt.Errorf("failed to get XDG state file path: %w", err)
	}
	return NewFileStateManager(stateFilePath), nil
}

// NewFileStateManager creates a state manager backed by path
func NewFileStateManager(path string) *FileStateManager {
	return &FileStateManager{
		state:    WatchState{Version: stateVersion},
		filePath: path,
		now:      time.Now,
	}
}

// GetLastAlertTick returns the last recorded alert tick time
func (s *FileStateManager) GetLastAlertTick() time.Time {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return s.state.LastAlertTick
}

// SetLastAlertTick updates the last alert tick time and saves to disk
func (s *FileStateManager) SetLastAlertTick(tick time.Time) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.state.LastAlertTick = tick
	return s.saveLocked()
}

// Load reads the state from disk. A missing, corrupt or foreign file starts
// the reminder window now, so nothing from before the first run fires.
func (s *FileStateManager) Load() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	data, err := os.ReadFile(s.filePath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return s.resetLocked("no state file")
	case err != nil:
		return fmt.Errorf("failed to read state file: %w", err)
	}

	var loaded WatchState
	if err := json.Unmarshal(data, &loaded); err != nil {
		return s.resetLocked("unreadable state file")
	}
	if loaded.Version != stateVersion {
		return s.resetLocked("state file version " + loaded.Version)
	}
	if loaded.LastAlertTick.IsZero() {
		loaded.LastAlertTick = s.now()
	}
	s.state = loaded
	return nil
}

func (s *FileStateManager) resetLocked(reason string) error {
	slog.Debug("starting reminder window now", "reason", reason, "path", s.filePath)
	s.state = WatchState{LastAlertTick: s.now(), Version: stateVersion}
	return s.saveLocked()
}

// Save writes the current state to disk
func (s *FileStateManager) Save() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.saveLocked()
}

// saveLocked replaces the state file through a temporary file in the same
// directory. The caller holds the lock.
func (s *FileStateManager) saveLocked() error {
	dir := filepath.Dir(s.filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	data, err := json.MarshalIndent(s.state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".state-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temporary state file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write temporary state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write temporary state file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.filePath); err != nil {
		return fmt.Errorf("failed to replace state file: %w", err)
	}
	return nil
}

// GetStateFilePath returns the path to the state file
func (s *FileStateManager) GetStateFilePath() string {
	return s.filePath
}

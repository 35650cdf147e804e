// Package preferences persists UI preferences in a watched JSON file.
package preferences

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/routerllm/routerllm-tui/internal/logger"
	"github.com/routerllm/routerllm-tui/internal/models"
)

// File represents the JSON file structure for preference storage.
type File struct {
	UpdatedAt time.Time    `json:"updated_at,omitzero"`
	Theme     models.Theme `json:"theme,omitempty"`
	Version   int          `json:"version,omitempty"`
}

// Event represents a preferences service event.
type Event struct {
	Error error
	Theme models.Theme
	Type  EventType
}

// EventType defines the type of preferences event.
type EventType int

const (
	EventLoaded EventType = iota
	EventThemeChanged
	EventError
)

// Service holds the current preferences and reloads them when the file is
// edited by another process.
type Service struct {
	mu            sync.RWMutex
	theme         models.Theme
	detectDark    func() bool
	filePath      string
	watcher       *fsnotify.Watcher
	eventChan     chan Event
	stopChan      chan struct{}
	debounceTimer *time.Timer
	closeOnce     sync.Once
}

// New loads preferences from filePath and starts watching it. detectDark
// reports the terminal background and is used when no theme is stored; nil
// means dark.
func New(filePath string, detectDark func() bool) (*Service, error) {
	if filePath == "" {
		return nil, fmt.Errorf("preferences path is empty")
	}

	s := &Service{
		filePath:   filePath,
		detectDark: detectDark,
		eventChan:  make(chan Event, 20),
		stopChan:   make(chan struct{}),
	}

	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create preferences directory: %w", err)
	}

	if err := s.load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		// A corrupt file falls back to detection rather than blocking startup
		logger.Warn("ignoring unreadable preferences file", "path", filePath, "error", err)
	}

	if err := s.startWatcher(); err != nil {
		return nil, fmt.Errorf("failed to start file watcher: %w", err)
	}

	s.sendEvent(Event{Type: EventLoaded, Theme: s.Theme()})

	return s, nil
}

// Events returns the event channel.
func (s *Service) Events() <-chan Event {
	return s.eventChan
}

// Path returns the preferences file path.
func (s *Service) Path() string {
	return s.filePath
}

// Stored returns the persisted theme and whether one exists.
func (s *Service) Stored() (models.Theme, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.theme, s.theme.Valid()
}

// Theme returns the persisted theme, or the detected terminal theme when
// nothing is stored.
func (s *Service) Theme() models.Theme {
	if theme, ok := s.Stored(); ok {
		return theme
	}
	if s.detectDark == nil || s.detectDark() {
		return models.ThemeDark
	}
	return models.ThemeLight
}

// SetTheme stores and persists a theme.
func (s *Service) SetTheme(theme models.Theme) error {
	if !theme.Valid() {
		return fmt.Errorf("invalid theme %q", theme)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.theme = theme
	return s.saveLocked()
}

// Toggle flips the current theme, persists it, and returns the new value.
func (s *Service) Toggle() (models.Theme, error) {
	next := s.Theme().Toggle()
	if err := s.SetTheme(next); err != nil {
		return s.Theme(), err
	}
	return next, nil
}

// load reads preferences from the file.
func (s *Service) load() error {
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		return err
	}

	theme, err := parse(data)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.theme = theme
	s.mu.Unlock()
	return nil
}

func parse(data []byte) (models.Theme, error) {
	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return "", fmt.Errorf("failed to parse preferences: %w", err)
	}
	if f.Theme != "" && !f.Theme.Valid() {
		return "", fmt.Errorf("unknown theme %q", f.Theme)
	}
	return f.Theme, nil
}

// saveLocked writes preferences to the file (must hold lock).
func (s *Service) saveLocked() error {
	f := File{
		Theme:     s.theme,
		UpdatedAt: time.Now().UTC(),
		Version:   1,
	}

	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal preferences: %w", err)
	}

	// Write to temp file first, then rename
	tmpFile := s.filePath + ".tmp"
	if err := os.WriteFile(tmpFile, data, 0o600); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}

	if err := os.Rename(tmpFile, s.filePath); err != nil {
		if removeErr := os.Remove(tmpFile); removeErr != nil {
			logger.Error("failed to remove temp file", "error", removeErr)
		}
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	return nil
}

// startWatcher starts the file system watcher.
func (s *Service) startWatcher() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	s.watcher = watcher

	// Watch the directory so atomic renames are seen
	if err := watcher.Add(filepath.Dir(s.filePath)); err != nil {
		if closeErr := watcher.Close(); closeErr != nil {
			logger.Error("failed to close watcher", "error", closeErr)
		}
		return err
	}

	go s.watchLoop()
	return nil
}

// watchLoop handles file system events with debouncing.
func (s *Service) watchLoop() {
	const debounceInterval = 100 * time.Millisecond

	for {
		select {
		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}

			if filepath.Base(event.Name) != filepath.Base(s.filePath) {
				continue
			}

			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				s.mu.Lock()
				if s.debounceTimer != nil {
					s.debounceTimer.Stop()
				}
				s.debounceTimer = time.AfterFunc(debounceInterval, s.handleFileChange)
				s.mu.Unlock()
			}

		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			s.sendEvent(Event{Type: EventError, Error: err})

		case <-s.stopChan:
			return
		}
	}
}

// handleFileChange reloads preferences and reports a theme change, if any.
// Our own writes reload to the same value and emit nothing.
func (s *Service) handleFileChange() {
	before, _ := s.Stored()

	if err := s.load(); err != nil {
		s.sendEvent(Event{Type: EventError, Error: err})
		return
	}

	after, ok := s.Stored()
	if ok && after != before {
		s.sendEvent(Event{Type: EventThemeChanged, Theme: after})
	}
}

// sendEvent sends an event to the event channel non-blocking.
func (s *Service) sendEvent(event Event) {
	select {
	case s.eventChan <- event:
	default:
		// Channel full, drop oldest event
		select {
		case <-s.eventChan:
		default:
		}
		select {
		case s.eventChan <- event:
		default:
		}
	}
}

// Close stops the file watcher and cleans up resources.
func (s *Service) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.stopChan)

		s.mu.Lock()
		if s.debounceTimer != nil {
			s.debounceTimer.Stop()
		}
		s.mu.Unlock()

		if s.watcher != nil {
			err = s.watcher.Close()
		}
	})
	return err
}

//go:build !windows

// Package hotkey listens for the global toggle chord and samples cursor
// movement for hover resolution. Only the Windows hook path is
// implemented; other platforms get no-op stubs so the app builds
// everywhere.
package hotkey

import (
	"errors"
	"log/slog"
	"time"
)

type Manager struct {
	OnToggle func()
}

func NewManager(chord string, log *slog.Logger) *Manager {
	return &Manager{}
}

func (m *Manager) Start() error {
	return errors.New("global hotkeys not supported on this platform")
}

func (m *Manager) Stop() {}

func (m *Manager) UpdateChord(chord string) {}

type CursorTracker struct {
	OnMove func(x, y int)
}

func NewCursorTracker(interval time.Duration) *CursorTracker {
	return &CursorTracker{}
}

func (t *CursorTracker) Start() {}

func (t *CursorTracker) Stop() {}

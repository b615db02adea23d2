// Package tray exposes the service controls in the system tray.
package tray

import (
	"github.com/energye/systray"
)

// SystemTray mirrors the detection service state and routes menu
// actions back to the app through callbacks.
type SystemTray struct {
	enabled bool

	OnSettings func()
	OnToggle   func(enabled bool)
	OnQuit     func()

	mToggle *systray.MenuItem
}

// NewSystemTray creates the tray with the service enabled.
func NewSystemTray() *SystemTray {
	return &SystemTray{enabled: true}
}

// Run blocks servicing the tray loop; call on its own goroutine.
func (s *SystemTray) Run() {
	systray.Run(s.onReady, func() {})
}

// Close removes the tray icon.
func (s *SystemTray) Close() {
	systray.Quit()
}

// SetEnabled reflects an externally driven service state change.
func (s *SystemTray) SetEnabled(enabled bool) {
	s.enabled = enabled
	if s.mToggle == nil {
		return
	}
	if enabled {
		s.mToggle.Check()
	} else {
		s.mToggle.Uncheck()
	}
}

func (s *SystemTray) onReady() {
	systray.SetTitle("LiveOCR")
	systray.SetTooltip("LiveOCR - hover dictionary for on-screen Chinese")

	systray.SetOnClick(func(menu systray.IMenu) {
		if s.OnSettings != nil {
			s.OnSettings()
		}
	})
	systray.SetOnRClick(func(menu systray.IMenu) {
		menu.ShowMenu()
	})

	mSettings := systray.AddMenuItem("Settings", "Open the settings window")
	s.mToggle = systray.AddMenuItemCheckbox("Hotkey enabled", "Enable or disable the Alt+X hotkey", s.enabled)
	systray.AddSeparator()
	mQuit := systray.AddMenuItem("Quit", "Exit LiveOCR")

	mSettings.Click(func() {
		if s.OnSettings != nil {
			s.OnSettings()
		}
	})
	s.mToggle.Click(func() {
		s.enabled = !s.enabled
		s.SetEnabled(s.enabled)
		if s.OnToggle != nil {
			s.OnToggle(s.enabled)
		}
	})
	mQuit.Click(func() {
		if s.OnQuit != nil {
			s.OnQuit()
		}
		systray.Quit()
	})
}

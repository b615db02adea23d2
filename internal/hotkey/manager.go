//go:build windows

// Package hotkey listens for the global toggle chord and samples cursor
// movement for hover resolution.
package hotkey

import (
	"fmt"
	"log/slog"
	"runtime"
	"strings"
	"sync"
	"syscall"
	"time"
	"unsafe"
)

var (
	user32   = syscall.NewLazyDLL("user32.dll")
	kernel32 = syscall.NewLazyDLL("kernel32.dll")

	procSetWindowsHookExW   = user32.NewProc("SetWindowsHookExW")
	procUnhookWindowsHookEx = user32.NewProc("UnhookWindowsHookEx")
	procCallNextHookEx      = user32.NewProc("CallNextHookEx")
	procPeekMessageW        = user32.NewProc("PeekMessageW")
	procGetModuleHandleW    = kernel32.NewProc("GetModuleHandleW")
)

const (
	whKeyboardLL = 13
	wmKeyDown    = 0x0100
	wmKeyUp      = 0x0101
	wmSysKeyDown = 0x0104
	wmSysKeyUp   = 0x0105
	pmRemove     = 0x0001
)

// Virtual key codes per chord component. Modifier entries list both the
// left and right variants.
var keyCodeMap = map[string][]uint32{
	"ctrl":  {162, 163},
	"alt":   {164, 165},
	"shift": {160, 161},
	"win":   {91, 92},
	"space": {32}, "tab": {9}, "enter": {13}, "esc": {27},
	"a": {65}, "b": {66}, "c": {67}, "d": {68}, "e": {69},
	"f": {70}, "g": {71}, "h": {72}, "i": {73}, "j": {74},
	"k": {75}, "l": {76}, "m": {77}, "n": {78}, "o": {79},
	"p": {80}, "q": {81}, "r": {82}, "s": {83}, "t": {84},
	"u": {85}, "v": {86}, "w": {87}, "x": {88}, "y": {89}, "z": {90},
}

type kbdLLHookStruct struct {
	VkCode      uint32
	ScanCode    uint32
	Flags       uint32
	Time        uint32
	DwExtraInfo uintptr
}

type msg struct {
	HWnd    uintptr
	Message uint32
	WParam  uintptr
	LParam  uintptr
	Time    uint32
	Pt      struct{ X, Y int32 }
}

// Manager installs a low-level keyboard hook and fires OnToggle once
// per completed chord press. The chord must be fully released before it
// can fire again.
type Manager struct {
	chord   string
	log     *slog.Logger
	hookID  uintptr
	running bool
	mu      sync.RWMutex

	pressedKeys map[uint32]bool
	fired       bool

	OnToggle func()
}

// NewManager creates a manager for a chord such as "alt+x".
func NewManager(chord string, log *slog.Logger) *Manager {
	if log == nil {
		log = slog.Default()
	}
	return &Manager{
		chord:       strings.ToLower(chord),
		log:         log,
		pressedKeys: make(map[uint32]bool),
	}
}

// Start installs the hook and pumps messages until Stop. Blocks; run it
// on its own goroutine. Win32 hooks must be serviced from the thread
// that installed them.
func (m *Manager) Start() error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return nil
	}
	m.running = true
	m.mu.Unlock()

	moduleHandle, _, _ := procGetModuleHandleW.Call(0)
	hookProc := syscall.NewCallback(m.keyboardProc)
	hookID, _, err := procSetWindowsHookExW.Call(whKeyboardLL, hookProc, moduleHandle, 0)
	if hookID == 0 {
		return fmt.Errorf("install keyboard hook: %v", err)
	}
	m.hookID = hookID
	m.log.Info("hotkey hook installed", "chord", m.chord)

	var message msg
	for m.isRunning() {
		procPeekMessageW.Call(uintptr(unsafe.Pointer(&message)), 0, 0, 0, pmRemove)
		time.Sleep(10 * time.Millisecond)
	}
	return nil
}

// Stop uninstalls the hook and ends the message loop.
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.running = false
	if m.hookID != 0 {
		procUnhookWindowsHookEx.Call(m.hookID)
		m.hookID = 0
	}
}

// UpdateChord swaps the chord at runtime.
func (m *Manager) UpdateChord(chord string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.chord = strings.ToLower(chord)
	m.pressedKeys = make(map[uint32]bool)
	m.fired = false
}

func (m *Manager) isRunning() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.running
}

func (m *Manager) keyboardProc(nCode int, wParam uintptr, lParam uintptr) uintptr {
	if nCode >= 0 {
		kb := (*kbdLLHookStruct)(unsafe.Pointer(lParam))
		m.handleKey(kb.VkCode, wParam)
	}
	ret, _, _ := procCallNextHookEx.Call(0, uintptr(nCode), wParam, lParam)
	return ret
}

func (m *Manager) handleKey(vkCode uint32, wParam uintptr) {
	codes := m.chordCodes()
	target := false
	for _, c := range codes {
		if c == vkCode {
			target = true
			break
		}
	}
	if !target {
		return
	}

	switch wParam {
	case wmKeyDown, wmSysKeyDown:
		m.mu.Lock()
		m.pressedKeys[vkCode] = true
		fire := !m.fired && m.chordHeld()
		if fire {
			m.fired = true
		}
		m.mu.Unlock()
		if fire && m.OnToggle != nil {
			go m.OnToggle()
		}
	case wmKeyUp, wmSysKeyUp:
		m.mu.Lock()
		delete(m.pressedKeys, vkCode)
		m.fired = false
		m.mu.Unlock()
	}
}

func (m *Manager) chordCodes() []uint32 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var codes []uint32
	for _, part := range strings.Split(m.chord, "+") {
		codes = append(codes, keyCodeMap[strings.TrimSpace(part)]...)
	}
	return codes
}

// chordHeld reports whether every chord component has a pressed key.
// Caller holds the lock.
func (m *Manager) chordHeld() bool {
	for _, part := range strings.Split(m.chord, "+") {
		pressed := false
		for _, code := range keyCodeMap[strings.TrimSpace(part)] {
			if m.pressedKeys[code] {
				pressed = true
				break
			}
		}
		if !pressed {
			return false
		}
	}
	return true
}

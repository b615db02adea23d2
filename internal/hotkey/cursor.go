//go:build windows

package hotkey

import (
	"sync"
	"time"
	"unsafe"
)

var procGetCursorPos = user32.NewProc("GetCursorPos")

type cursorPoint struct {
	X, Y int32
}

// CursorTracker samples the global cursor position on a fixed cadence
// and reports movement. Sampling rather than per-frame hooking bounds
// the hover-lookup cost.
type CursorTracker struct {
	interval time.Duration
	mu       sync.Mutex
	running  bool
	stop     chan struct{}

	OnMove func(x, y int)
}

// NewCursorTracker creates a tracker; interval defaults to 20ms.
func NewCursorTracker(interval time.Duration) *CursorTracker {
	if interval <= 0 {
		interval = 20 * time.Millisecond
	}
	return &CursorTracker{interval: interval}
}

// Start begins sampling on a new goroutine. Duplicate positions are
// dropped before the callback.
func (t *CursorTracker) Start() {
	t.mu.Lock()
	if t.running {
		t.mu.Unlock()
		return
	}
	t.running = true
	t.stop = make(chan struct{})
	stop := t.stop
	t.mu.Unlock()

	go func() {
		ticker := time.NewTicker(t.interval)
		defer ticker.Stop()
		var last cursorPoint
		seeded := false
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				var pt cursorPoint
				ret, _, _ := procGetCursorPos.Call(uintptr(unsafe.Pointer(&pt)))
				if ret == 0 {
					continue
				}
				if seeded && pt == last {
					continue
				}
				last = pt
				seeded = true
				if t.OnMove != nil {
					t.OnMove(int(pt.X), int(pt.Y))
				}
			}
		}
	}()
}

// Stop ends sampling.
func (t *CursorTracker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.running {
		return
	}
	t.running = false
	close(t.stop)
}

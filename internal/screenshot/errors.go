package screenshot

import "errors"

// ErrCaptureFailed is returned when no display or screen region is
// accessible.
var ErrCaptureFailed = errors.New("screen capture failed")

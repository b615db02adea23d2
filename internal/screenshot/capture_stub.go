//go:build !windows

// Package screenshot grabs still images of the display for detection
// passes. Only the Windows GDI path is implemented; other platforms get
// a stub so the engine and its tests build everywhere.
package screenshot

import (
	"fmt"
	"image"
)

type Capturer struct{}

func NewCapturer() *Capturer {
	return &Capturer{}
}

func (c *Capturer) Capture() (image.Image, image.Point, error) {
	return nil, image.Point{}, fmt.Errorf("%w: not supported on this platform", ErrCaptureFailed)
}

func (c *Capturer) ScreenSize() (width, height int) {
	return 0, 0
}

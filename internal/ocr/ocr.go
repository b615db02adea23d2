package ocr

import (
	"context"
	"errors"
	"image"
)

// Box is a bounding box in screen coordinates.
type Box struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

// Contains reports whether the point (x, y) lies inside the box.
func (b Box) Contains(x, y int) bool {
	return x >= b.X && x < b.X+b.W && y >= b.Y && y < b.Y+b.H
}

// Area returns the box area in pixels.
func (b Box) Area() int {
	return b.W * b.H
}

// Union returns the smallest box covering both b and o.
func (b Box) Union(o Box) Box {
	x1 := min(b.X, o.X)
	y1 := min(b.Y, o.Y)
	x2 := max(b.X+b.W, o.X+o.W)
	y2 := max(b.Y+b.H, o.Y+o.H)
	return Box{X: x1, Y: y1, W: x2 - x1, H: y2 - y1}
}

// TextSpan is one recognized run of text with its location.
type TextSpan struct {
	Text       string  `json:"text"`
	Box        Box     `json:"box"`
	Confidence float64 `json:"confidence"`
}

var (
	// ErrCaptureTooLarge is returned when an input image exceeds the
	// backend's pixel-area bound. Captures are never silently downscaled.
	ErrCaptureTooLarge = errors.New("capture exceeds inference size limit")

	// ErrInferenceFailed wraps model or runtime errors from a backend.
	ErrInferenceFailed = errors.New("inference failed")
)

// Backend runs a detection-and-recognition model over a still image.
// Implementations must be deterministic for identical input and must
// reject oversized images with ErrCaptureTooLarge.
type Backend interface {
	// Detect recognizes positioned text spans in img.
	Detect(ctx context.Context, img image.Image) ([]TextSpan, error)

	// Available reports whether the backend's model/runtime is usable.
	Available() bool

	// Close releases model resources.
	Close()
}

// checkArea enforces the pixel-area bound shared by all backends.
func checkArea(img image.Image, maxPixels int) error {
	if maxPixels <= 0 {
		return nil
	}
	b := img.Bounds()
	if b.Dx()*b.Dy() > maxPixels {
		return ErrCaptureTooLarge
	}
	return nil
}

package ocr

import (
	"context"
	"fmt"
	"image"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// TesseractConfig configures the CPU backend.
type TesseractConfig struct {
	// Language is the Tesseract language code. Defaults to "chi_sim".
	Language string

	// MaxPixels is the largest accepted image area. Zero disables the check.
	MaxPixels int

	// Preprocess enables grayscale + contrast boosting before recognition.
	Preprocess bool
}

// Tesseract is the CPU-only inference backend. It spawns one gosseract
// client per detection pass; passes are single-shot so there is nothing
// to pool.
type Tesseract struct {
	cfg       TesseractConfig
	available bool
}

// NewTesseract probes the local Tesseract installation and returns the
// backend. Availability is checked once here, not per call.
func NewTesseract(cfg TesseractConfig) *Tesseract {
	if cfg.Language == "" {
		cfg.Language = "chi_sim"
	}
	t := &Tesseract{cfg: cfg}
	client := gosseract.NewClient()
	defer client.Close()
	t.available = client.Version() != ""
	return t
}

func (t *Tesseract) Available() bool {
	return t.available
}

func (t *Tesseract) Close() {}

// Detect runs line-level recognition over img.
func (t *Tesseract) Detect(ctx context.Context, img image.Image) ([]TextSpan, error) {
	if err := checkArea(img, t.cfg.MaxPixels); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	src := img
	if t.cfg.Preprocess {
		src = preprocess(img)
	}
	data, err := encodePNG(src)
	if err != nil {
		return nil, fmt.Errorf("%w: encode capture: %v", ErrInferenceFailed, err)
	}

	client := gosseract.NewClient()
	defer client.Close()
	if err := client.SetLanguage(t.cfg.Language); err != nil {
		return nil, fmt.Errorf("%w: set language %q: %v", ErrInferenceFailed, t.cfg.Language, err)
	}
	if err := client.SetImageFromBytes(data); err != nil {
		return nil, fmt.Errorf("%w: set image: %v", ErrInferenceFailed, err)
	}

	boxes, err := client.GetBoundingBoxes(gosseract.RIL_TEXTLINE)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInferenceFailed, err)
	}

	spans := make([]TextSpan, 0, len(boxes))
	for _, box := range boxes {
		text := normalizeLine(box.Word)
		if text == "" {
			continue
		}
		spans = append(spans, TextSpan{
			Text:       text,
			Confidence: float64(box.Confidence) / 100.0,
			Box: Box{
				X: box.Box.Min.X,
				Y: box.Box.Min.Y,
				W: box.Box.Dx(),
				H: box.Box.Dy(),
			},
		})
	}
	return spans, nil
}

// normalizeLine trims a recognized line and removes the spurious spaces
// Tesseract inserts between CJK characters.
func normalizeLine(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	runes := []rune(text)
	var b strings.Builder
	for i, r := range runes {
		if r == ' ' && i > 0 && i < len(runes)-1 && isFullWidth(runes[i-1]) && isFullWidth(runes[i+1]) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

package ocr

import (
	"bytes"
	"image"
	"image/png"

	"github.com/disintegration/imaging"
)

// preprocess boosts recognition contrast without changing geometry, so
// span boxes stay valid in screen coordinates.
func preprocess(img image.Image) image.Image {
	gray := imaging.Grayscale(img)
	return imaging.AdjustContrast(gray, 30)
}

// encodePNG renders img to PNG bytes for backends that consume files or
// wire payloads.
func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

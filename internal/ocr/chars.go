package ocr

import (
	"image"
	"unicode"

	"github.com/anthonynsimon/bild/segment"
	"github.com/disintegration/imaging"
)

// CharBox is a hover-resolvable cell inside a TextSpan: a single CJK
// character, or a whole Latin word.
type CharBox struct {
	Text   string `json:"text"`
	Offset int    `json:"offset"` // rune offset within the parent span text
	Box    Box    `json:"box"`
}

// SplitSpan estimates per-character boxes inside a recognized span.
// CJK characters get one cell each, Latin runs one cell per word.
// Recognition models report line-level boxes only, so cell positions are
// estimated by weighted character width: full-width characters count as
// two units, everything else as one. When the capture image is supplied
// the line box is first tightened to its ink bounds.
func SplitSpan(span TextSpan, capture image.Image) []CharBox {
	box := span.Box
	if capture != nil {
		box = tightenToInk(capture, box)
	}

	runes := []rune(span.Text)
	if len(runes) == 0 || box.W <= 0 {
		return nil
	}
	if len(runes) == 1 {
		return []CharBox{{Text: span.Text, Offset: 0, Box: box}}
	}

	totalUnits := 0
	for _, r := range runes {
		totalUnits += runeUnits(r)
	}
	unitWidth := float64(box.W) / float64(totalUnits)

	type cell struct {
		startX float64
		width  float64
	}
	cells := make([]cell, len(runes))
	x := 0.0
	for i, r := range runes {
		w := float64(runeUnits(r)) * unitWidth
		cells[i] = cell{startX: x, width: w}
		x += w
	}

	var out []CharBox
	i := 0
	for i < len(runes) {
		r := runes[i]
		switch {
		case isCJK(r):
			out = append(out, CharBox{
				Text:   string(r),
				Offset: i,
				Box: Box{
					X: box.X + int(cells[i].startX),
					Y: box.Y,
					W: max(int(cells[i].width), 1),
					H: box.H,
				},
			})
			i++
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			// Latin word: group up to the next separator or CJK character.
			j := i
			for j < len(runes) && (unicode.IsLetter(runes[j]) || unicode.IsDigit(runes[j])) && !isCJK(runes[j]) {
				j++
			}
			start := cells[i].startX
			end := cells[j-1].startX + cells[j-1].width
			out = append(out, CharBox{
				Text:   string(runes[i:j]),
				Offset: i,
				Box: Box{
					X: box.X + int(start),
					Y: box.Y,
					W: max(int(end-start), 1),
					H: box.H,
				},
			})
			i = j
		default:
			// Punctuation and whitespace are not lookup targets.
			i++
		}
	}
	return out
}

// tightenToInk shrinks a line box to the columns and rows that actually
// contain glyph pixels, so estimated character cells track the text
// rather than the detector's padding.
func tightenToInk(capture image.Image, box Box) Box {
	cb := capture.Bounds()
	rect := image.Rect(box.X, box.Y, box.X+box.W, box.Y+box.H).Intersect(cb)
	if rect.Empty() {
		return box
	}
	cropped := imaging.Crop(capture, rect)
	bin := segment.Threshold(cropped, 128)

	bounds := bin.Bounds()
	// Majority corner value is taken as background; ink is the opposite.
	background := cornerValue(bin)

	minX, minY := bounds.Max.X, bounds.Max.Y
	maxX, maxY := bounds.Min.X-1, bounds.Min.Y-1
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			if bin.GrayAt(x, y).Y != background {
				if x < minX {
					minX = x
				}
				if x > maxX {
					maxX = x
				}
				if y < minY {
					minY = y
				}
				if y > maxY {
					maxY = y
				}
			}
		}
	}
	if maxX < minX || maxY < minY {
		return box
	}
	return Box{
		X: rect.Min.X + minX,
		Y: rect.Min.Y + minY,
		W: maxX - minX + 1,
		H: maxY - minY + 1,
	}
}

func cornerValue(img *image.Gray) uint8 {
	b := img.Bounds()
	white := 0
	corners := [][2]int{
		{b.Min.X, b.Min.Y},
		{b.Max.X - 1, b.Min.Y},
		{b.Min.X, b.Max.Y - 1},
		{b.Max.X - 1, b.Max.Y - 1},
	}
	for _, c := range corners {
		if img.GrayAt(c[0], c[1]).Y == 255 {
			white++
		}
	}
	if white >= 2 {
		return 255
	}
	return 0
}

func runeUnits(r rune) int {
	if isFullWidth(r) {
		return 2
	}
	return 1
}

// isCJK reports whether r is a CJK ideograph suitable for dictionary lookup.
func isCJK(r rune) bool {
	return r >= '一' && r <= '鿿'
}

// isCJKPunct reports CJK punctuation and halfwidth/fullwidth forms, which
// never produce lookup targets.
func isCJKPunct(r rune) bool {
	return (r >= '　' && r <= '〿') || (r >= '＀' && r <= '￯')
}

func isFullWidth(r rune) bool {
	return isCJK(r) ||
		isCJKPunct(r) ||
		(r >= '぀' && r <= 'ゟ') || // hiragana
		(r >= '゠' && r <= 'ヿ') // katakana
}

// LongestCJKRun returns the contiguous run of lookup-eligible CJK
// characters in text starting at rune offset from. Punctuation and
// halfwidth/fullwidth forms terminate the run.
func LongestCJKRun(text string, from int) string {
	runes := []rune(text)
	if from < 0 || from >= len(runes) {
		return ""
	}
	end := from
	for end < len(runes) && isCJK(runes[end]) && !isCJKPunct(runes[end]) {
		end++
	}
	return string(runes[from:end])
}

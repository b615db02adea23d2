package ocr

import (
	"image"
	"image/color"
	"image/draw"
	"testing"
)

func TestSplitSpanCJK(t *testing.T) {
	span := TextSpan{
		Text: "你好吗",
		Box:  Box{X: 100, Y: 50, W: 90, H: 30},
	}
	cells := SplitSpan(span, nil)
	if len(cells) != 3 {
		t.Fatalf("expected 3 cells, got %d", len(cells))
	}
	wantText := []string{"你", "好", "吗"}
	for i, c := range cells {
		if c.Text != wantText[i] {
			t.Errorf("cell %d text = %q, want %q", i, c.Text, wantText[i])
		}
		if c.Offset != i {
			t.Errorf("cell %d offset = %d, want %d", i, c.Offset, i)
		}
		if c.Box.W != 30 {
			t.Errorf("cell %d width = %d, want 30", i, c.Box.W)
		}
		if c.Box.Y != 50 || c.Box.H != 30 {
			t.Errorf("cell %d vertical extent = (%d,%d), want (50,30)", i, c.Box.Y, c.Box.H)
		}
	}
	if cells[0].Box.X != 100 || cells[1].Box.X != 130 || cells[2].Box.X != 160 {
		t.Errorf("cell x positions = %d,%d,%d; want 100,130,160",
			cells[0].Box.X, cells[1].Box.X, cells[2].Box.X)
	}
}

func TestSplitSpanMixed(t *testing.T) {
	// Full-width characters weigh two units, so "你" spans twice the
	// width of each Latin letter. "Go" groups into one word cell.
	span := TextSpan{
		Text: "你Go",
		Box:  Box{X: 0, Y: 0, W: 80, H: 20},
	}
	cells := SplitSpan(span, nil)
	if len(cells) != 2 {
		t.Fatalf("expected 2 cells, got %d", len(cells))
	}
	if cells[0].Text != "你" || cells[1].Text != "Go" {
		t.Fatalf("cells = %q, %q; want 你, Go", cells[0].Text, cells[1].Text)
	}
	if cells[0].Box.W != 40 {
		t.Errorf("CJK cell width = %d, want 40", cells[0].Box.W)
	}
	if cells[1].Box.X != 40 || cells[1].Box.W != 40 {
		t.Errorf("word cell = x%d w%d, want x40 w40", cells[1].Box.X, cells[1].Box.W)
	}
	if cells[1].Offset != 1 {
		t.Errorf("word cell offset = %d, want 1", cells[1].Offset)
	}
}

func TestSplitSpanSkipsPunctuation(t *testing.T) {
	span := TextSpan{
		Text: "你，好。",
		Box:  Box{X: 0, Y: 0, W: 80, H: 20},
	}
	cells := SplitSpan(span, nil)
	if len(cells) != 2 {
		t.Fatalf("expected 2 cells, got %d", len(cells))
	}
	if cells[0].Text != "你" || cells[1].Text != "好" {
		t.Errorf("cells = %q, %q; want 你, 好", cells[0].Text, cells[1].Text)
	}
	if cells[1].Offset != 2 {
		t.Errorf("offset of 好 = %d, want 2", cells[1].Offset)
	}
}

func TestSplitSpanDegenerate(t *testing.T) {
	if cells := SplitSpan(TextSpan{Text: "", Box: Box{W: 10, H: 10}}, nil); cells != nil {
		t.Errorf("empty text should yield no cells, got %v", cells)
	}
	if cells := SplitSpan(TextSpan{Text: "你", Box: Box{W: 0, H: 10}}, nil); cells != nil {
		t.Errorf("zero-width box should yield no cells, got %v", cells)
	}
	cells := SplitSpan(TextSpan{Text: "你", Box: Box{X: 5, Y: 5, W: 20, H: 20}}, nil)
	if len(cells) != 1 || cells[0].Box != (Box{X: 5, Y: 5, W: 20, H: 20}) {
		t.Errorf("single rune keeps the whole box, got %v", cells)
	}
}

func TestSplitSpanTightensToInk(t *testing.T) {
	// White capture with a black block at x 20..39, y 8..15 inside a
	// padded line box. The cell must track the ink, not the padding.
	img := image.NewRGBA(image.Rect(0, 0, 100, 40))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(img, image.Rect(20, 8, 40, 16), image.NewUniform(color.Black), image.Point{}, draw.Src)

	span := TextSpan{Text: "你", Box: Box{X: 0, Y: 0, W: 100, H: 40}}
	cells := SplitSpan(span, img)
	if len(cells) != 1 {
		t.Fatalf("expected 1 cell, got %d", len(cells))
	}
	want := Box{X: 20, Y: 8, W: 20, H: 8}
	if cells[0].Box != want {
		t.Errorf("tightened box = %+v, want %+v", cells[0].Box, want)
	}
}

func TestLongestCJKRun(t *testing.T) {
	cases := []struct {
		text string
		from int
		want string
	}{
		{"你好吗", 0, "你好吗"},
		{"你好吗", 1, "好吗"},
		{"你好，世界", 0, "你好"},   // punctuation ends the run
		{"你好，世界", 3, "世界"},
		{"abc你好", 0, ""},       // Latin start is not a run
		{"abc你好", 3, "你好"},
		{"你好", 5, ""},          // out of range
		{"你好", -1, ""},
	}
	for _, tc := range cases {
		if got := LongestCJKRun(tc.text, tc.from); got != tc.want {
			t.Errorf("LongestCJKRun(%q, %d) = %q, want %q", tc.text, tc.from, got, tc.want)
		}
	}
}

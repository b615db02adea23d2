package paragraph

import (
	"reflect"
	"testing"

	"live-ocrs/internal/ocr"
)

func span(text string, x, y, w, h int) ocr.TextSpan {
	return ocr.TextSpan{Text: text, Box: ocr.Box{X: x, Y: y, W: w, H: h}}
}

func texts(paragraphs []Paragraph) []string {
	out := make([]string, len(paragraphs))
	for i, p := range paragraphs {
		out[i] = p.Text
	}
	return out
}

func TestAssembleEmpty(t *testing.T) {
	if got := DefaultConfig().Assemble(nil); got != nil {
		t.Fatalf("expected nil for no spans, got %v", got)
	}
}

func TestAssembleStackedLines(t *testing.T) {
	// Two lines with a small gap and aligned left edges form one
	// paragraph; CJK lines join without a separator.
	got := DefaultConfig().Assemble([]ocr.TextSpan{
		span("世界", 10, 36, 80, 20),
		span("你好", 10, 10, 80, 20),
	})
	if len(got) != 1 {
		t.Fatalf("expected 1 paragraph, got %d: %v", len(got), texts(got))
	}
	if got[0].Text != "你好世界" {
		t.Errorf("joined text = %q, want %q", got[0].Text, "你好世界")
	}
	want := ocr.Box{X: 10, Y: 10, W: 80, H: 46}
	if got[0].Box != want {
		t.Errorf("union box = %+v, want %+v", got[0].Box, want)
	}
}

func TestAssembleLatinSpacing(t *testing.T) {
	got := DefaultConfig().Assemble([]ocr.TextSpan{
		span("hello", 10, 10, 60, 20),
		span("world", 10, 36, 60, 20),
	})
	if len(got) != 1 {
		t.Fatalf("expected 1 paragraph, got %d", len(got))
	}
	if got[0].Text != "hello world" {
		t.Errorf("joined text = %q, want %q", got[0].Text, "hello world")
	}
}

func TestAssembleSeparateBlocks(t *testing.T) {
	// A large vertical gap splits blocks; output is ordered top to
	// bottom regardless of input order.
	got := DefaultConfig().Assemble([]ocr.TextSpan{
		span("lower", 10, 200, 60, 20),
		span("upper", 10, 10, 60, 20),
	})
	if want := []string{"upper", "lower"}; !reflect.DeepEqual(texts(got), want) {
		t.Fatalf("paragraphs = %v, want %v", texts(got), want)
	}
}

func TestAssembleSameLineOrder(t *testing.T) {
	// Spans on the same visual line read left to right even with a bit
	// of vertical jitter from detection.
	got := DefaultConfig().Assemble([]ocr.TextSpan{
		span("右", 45, 12, 30, 20),
		span("左", 10, 10, 30, 20),
	})
	if len(got) != 1 {
		t.Fatalf("expected 1 paragraph, got %d: %v", len(got), texts(got))
	}
	if got[0].Text != "左右" {
		t.Errorf("joined text = %q, want %q", got[0].Text, "左右")
	}
}

func TestAssembleSameLineGapSplits(t *testing.T) {
	// A wide horizontal gap on one line means separate columns.
	got := DefaultConfig().Assemble([]ocr.TextSpan{
		span("left", 10, 10, 50, 20),
		span("right", 400, 10, 50, 20),
	})
	if len(got) != 2 {
		t.Fatalf("expected 2 paragraphs, got %d: %v", len(got), texts(got))
	}
	if got[0].Text != "left" || got[1].Text != "right" {
		t.Errorf("paragraphs = %v, want [left right]", texts(got))
	}
}

func TestAssembleBridgeMerges(t *testing.T) {
	// Two distant spans on one line become one paragraph when a wide
	// span below overlaps both.
	got := DefaultConfig().Assemble([]ocr.TextSpan{
		span("left", 0, 0, 50, 20),
		span("right", 300, 0, 50, 20),
		span("bridge", 0, 26, 350, 20),
	})
	if len(got) != 1 {
		t.Fatalf("expected the bridge to merge clusters, got %d: %v", len(got), texts(got))
	}
	if len(got[0].Spans) != 3 {
		t.Errorf("merged paragraph has %d spans, want 3", len(got[0].Spans))
	}
}

func TestAssembleDeterministic(t *testing.T) {
	spans := []ocr.TextSpan{
		span("b", 10, 36, 40, 20),
		span("a", 10, 10, 40, 20),
		span("c", 10, 200, 40, 20),
	}
	first := DefaultConfig().Assemble(spans)
	second := DefaultConfig().Assemble(spans)
	if !reflect.DeepEqual(first, second) {
		t.Fatal("identical input produced different output")
	}
}

func TestReadingLessTieBreaks(t *testing.T) {
	a := ocr.Box{X: 10, Y: 10, W: 40, H: 20}
	b := ocr.Box{X: 10, Y: 10, W: 40, H: 20}
	if readingLess(a, b) || readingLess(b, a) {
		t.Error("identical boxes must not order before each other")
	}
	right := ocr.Box{X: 60, Y: 10, W: 40, H: 20}
	if !readingLess(a, right) {
		t.Error("same line must order left to right")
	}
}

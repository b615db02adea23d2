// Package paragraph groups recognized text spans into paragraph-level
// blocks by spatial proximity and reading order.
package paragraph

import (
	"sort"
	"strings"

	"live-ocrs/internal/ocr"
)

// Config holds the proximity thresholds for clustering. The right values
// depend on the UI text layouts being read, so they are configuration,
// not constants.
type Config struct {
	// MaxLineGap is the largest vertical gap between two lines of the
	// same paragraph, as a fraction of the smaller line's height.
	MaxLineGap float64 `json:"max_line_gap"`

	// MaxIndent is the largest horizontal offset between the left edges
	// of two stacked lines that still counts as aligned, as a fraction
	// of the smaller line's height.
	MaxIndent float64 `json:"max_indent"`
}

// DefaultConfig returns thresholds tuned for typical screen text.
func DefaultConfig() Config {
	return Config{
		MaxLineGap: 0.8,
		MaxIndent:  2.0,
	}
}

// Paragraph is an ordered group of spans treated as one copyable unit.
type Paragraph struct {
	Text  string         `json:"text"`
	Box   ocr.Box        `json:"box"`
	Spans []ocr.TextSpan `json:"spans"`
}

// Assemble clusters one detection pass's spans into paragraphs. Pure and
// deterministic: identical input and thresholds give identical output.
// Paragraphs are ordered top-to-bottom by union box (ties: smaller y,
// then smaller x); spans within a paragraph are in reading order.
func (c Config) Assemble(spans []ocr.TextSpan) []Paragraph {
	if len(spans) == 0 {
		return nil
	}

	ordered := make([]ocr.TextSpan, len(spans))
	copy(ordered, spans)
	sort.SliceStable(ordered, func(i, j int) bool {
		return readingLess(ordered[i].Box, ordered[j].Box)
	})

	var clusters [][]ocr.TextSpan
	for _, span := range ordered {
		joined := -1
		for i, cluster := range clusters {
			if !c.adjoins(cluster, span) {
				continue
			}
			if joined < 0 {
				clusters[i] = append(clusters[i], span)
				joined = i
			} else {
				// The span bridges two clusters; merge them.
				clusters[joined] = append(clusters[joined], clusters[i]...)
				clusters[i] = nil
			}
		}
		if joined < 0 {
			clusters = append(clusters, []ocr.TextSpan{span})
		}
	}

	paragraphs := make([]Paragraph, 0, len(clusters))
	for _, cluster := range clusters {
		if len(cluster) == 0 {
			continue
		}
		sort.SliceStable(cluster, func(i, j int) bool {
			return readingLess(cluster[i].Box, cluster[j].Box)
		})
		box := cluster[0].Box
		for _, s := range cluster[1:] {
			box = box.Union(s.Box)
		}
		paragraphs = append(paragraphs, Paragraph{
			Text:  joinSpans(cluster),
			Box:   box,
			Spans: cluster,
		})
	}

	sort.SliceStable(paragraphs, func(i, j int) bool {
		a, b := paragraphs[i].Box, paragraphs[j].Box
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		return a.X < b.X
	})
	return paragraphs
}

// adjoins reports whether span is close enough to any cluster member to
// belong to the same paragraph.
func (c Config) adjoins(cluster []ocr.TextSpan, span ocr.TextSpan) bool {
	for _, member := range cluster {
		if c.near(member.Box, span.Box) {
			return true
		}
	}
	return false
}

func (c Config) near(a, b ocr.Box) bool {
	ref := float64(min(a.H, b.H))
	if ref <= 0 {
		return false
	}

	vgap := float64(max(a.Y, b.Y) - min(a.Y+a.H, b.Y+b.H))
	if vgap < 0 {
		// Same visual line: require a small horizontal gap.
		hgap := float64(max(a.X, b.X) - min(a.X+a.W, b.X+b.W))
		return hgap <= c.MaxLineGap*ref
	}
	if vgap > c.MaxLineGap*ref {
		return false
	}

	// Stacked lines: horizontally overlapping, or left edges aligned.
	overlap := min(a.X+a.W, b.X+b.W) - max(a.X, b.X)
	if overlap > 0 {
		return true
	}
	indent := a.X - b.X
	if indent < 0 {
		indent = -indent
	}
	return float64(indent) <= c.MaxIndent*ref
}

// readingLess orders boxes top-to-bottom, then left-to-right. Boxes whose
// vertical centers are within half the smaller height are treated as the
// same line and ordered by x.
func readingLess(a, b ocr.Box) bool {
	ac := 2*a.Y + a.H
	bc := 2*b.Y + b.H
	d := ac - bc
	if d < 0 {
		d = -d
	}
	if d < min(a.H, b.H) {
		if a.X != b.X {
			return a.X < b.X
		}
	}
	if a.Y != b.Y {
		return a.Y < b.Y
	}
	return a.X < b.X
}

// joinSpans concatenates span texts, inserting a space only at Latin
// boundaries. CJK runes join directly.
func joinSpans(spans []ocr.TextSpan) string {
	var b strings.Builder
	for i, s := range spans {
		if i > 0 && needsSpace(spans[i-1].Text, s.Text) {
			b.WriteByte(' ')
		}
		b.WriteString(s.Text)
	}
	return b.String()
}

func needsSpace(prev, next string) bool {
	pr := []rune(prev)
	nr := []rune(next)
	if len(pr) == 0 || len(nr) == 0 {
		return false
	}
	return !isWide(pr[len(pr)-1]) && !isWide(nr[0])
}

func isWide(r rune) bool {
	return (r >= '　' && r <= '〿') ||
		(r >= '一' && r <= '鿿') ||
		(r >= '＀' && r <= '￯')
}

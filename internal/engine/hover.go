package engine

import (
	"live-ocrs/internal/dict"
	"live-ocrs/internal/ocr"
)

// HoverAt resolves a sampled cursor position against the current
// snapshot and publishes definitions-changed when the hover target
// changes. Outside the Enabled state every position resolves to "no
// target". Cheap enough to call on every cursor-move sample; it only
// takes a read lock on the snapshot.
func (e *Engine) HoverAt(x, y int) {
	e.mu.RLock()
	state := e.state
	snap := e.snap
	prev := e.hover
	e.mu.RUnlock()

	if state != StateEnabled || snap == nil {
		e.clearHover()
		return
	}

	cell, found := hitTest(snap.cells, x, y)
	if !found {
		e.clearHover()
		return
	}
	if prev != nil && *prev == cell.ref {
		return
	}

	e.mu.Lock()
	// The snapshot may have been swapped since the read above; a stale
	// target is harmless, the next sample corrects it.
	ref := cell.ref
	e.hover = &ref
	e.hoverBox = cell.box
	e.publishLocked(func() {
		var defs []dict.Definition
		if query := ocr.LongestCJKRun(cell.spanText, cell.offset); query != "" {
			defs = e.dict.Lookup(query)
		}
		if defs == nil {
			defs = []dict.Definition{}
		}
		e.pub.DefinitionsChanged(defs)
	})
}

// clearHover drops the current target, emitting an empty definitions
// set exactly once per transition to "no target".
func (e *Engine) clearHover() {
	e.mu.Lock()
	if e.hover == nil {
		e.mu.Unlock()
		return
	}
	e.hover = nil
	e.publishLocked(func() {
		e.pub.DefinitionsChanged([]dict.Definition{})
	})
}

// hitTest finds the cell under the point. When boxes overlap the
// smallest area wins, so a paragraph-or-line level box can never mask a
// character cell.
func hitTest(cells []hoverCell, x, y int) (hoverCell, bool) {
	var best hoverCell
	bestArea := -1
	for _, c := range cells {
		if !c.box.Contains(x, y) {
			continue
		}
		if area := c.box.Area(); bestArea < 0 || area < bestArea {
			best = c
			bestArea = area
		}
	}
	return best, bestArea >= 0
}

// AnchorTooltip computes where the hover tooltip of the given rendered
// size should be placed: below-left of the hovered character, flipped
// up or left when it would cross the capture bounds. Advisory only;
// visible is false when there is no active target.
func (e *Engine) AnchorTooltip(width, height int) (x, y int, visible bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.state != StateEnabled || e.hover == nil || e.snap == nil {
		return 0, 0, false
	}

	rect := e.hoverBox
	bounds := e.snap.bounds
	x = rect.X
	if rect.X+width > bounds.X+bounds.W {
		x = rect.X + rect.W - width
	}
	y = rect.Y + rect.H
	if y+height > bounds.Y+bounds.H {
		y = rect.Y - height
	}
	return x, y, true
}

// Package engine owns the detection state machine: it orchestrates
// capture, inference and paragraph assembly on toggle, tracks the
// current results, and resolves hover targets against them.
package engine

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sync"

	"live-ocrs/internal/dict"
	"live-ocrs/internal/ocr"
	"live-ocrs/internal/paragraph"
)

// State is the detection lifecycle state.
type State int

const (
	StateDisabled State = iota
	StateDetecting
	StateEnabled
)

func (s State) String() string {
	switch s {
	case StateDetecting:
		return "detecting"
	case StateEnabled:
		return "enabled"
	default:
		return "disabled"
	}
}

// ErrDetectionFailed aggregates capture and inference errors. Detection
// errors are not retried; the machine collapses to Disabled and the user
// may toggle again.
var ErrDetectionFailed = errors.New("detection failed")

// Capturer grabs a still image of the screen on demand. origin is the
// screen coordinate of the image's top-left pixel; on multi-monitor
// layouts the virtual screen can start left of or above the primary, so
// it is not necessarily (0, 0).
type Capturer interface {
	Capture() (img image.Image, origin image.Point, err error)
}

// Publisher delivers state and result changes to the presentation
// layer. The engine serializes calls in transition order, so an
// implementation that forwards each call as it arrives preserves the
// per-topic order.
type Publisher interface {
	StateChanged(state State)
	OCRChanged(texts []string)
	DefinitionsChanged(defs []dict.Definition)
}

// cellRef identifies one hover cell within a snapshot.
type cellRef struct {
	para, span, cell int
}

// hoverCell is a precomputed hit-test entry for one character cell.
type hoverCell struct {
	box      ocr.Box
	ref      cellRef
	spanText string
	offset   int
}

// snapshot is one detection pass's immutable result set. The detection
// path is the sole writer; it swaps the whole snapshot at once so hover
// reads never observe a partial paragraph list.
type snapshot struct {
	paragraphs []paragraph.Paragraph
	cells      []hoverCell
	bounds     ocr.Box // capture bounds, for tooltip anchoring
}

// Engine is the detection state machine. A single Engine is threaded
// through all entry points; there are no package-level globals.
type Engine struct {
	capturer  Capturer
	backend   ocr.Backend
	assembler paragraph.Config
	dict      *dict.Dictionary
	pub       Publisher
	log       *slog.Logger

	mu       sync.RWMutex
	state    State
	gen      uint64 // detection pass generation, guards stale results
	snap     *snapshot
	hover    *cellRef
	hoverBox ocr.Box
	lastErr  error

	// emitMu serializes publication in transition order. It is acquired
	// before mu is released, so no later transition can publish ahead of
	// an earlier one. Holders never take mu, so the order is deadlock-free.
	emitMu sync.Mutex
}

// publishLocked hands the state lock off to the emission lock and runs
// emit. Caller holds e.mu; it is released here.
func (e *Engine) publishLocked(emit func()) {
	e.emitMu.Lock()
	e.mu.Unlock()
	emit()
	e.emitMu.Unlock()
}

// New wires an engine. The dictionary may be shared; the engine never
// mutates it.
func New(capturer Capturer, backend ocr.Backend, assembler paragraph.Config, d *dict.Dictionary, pub Publisher, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{
		capturer:  capturer,
		backend:   backend,
		assembler: assembler,
		dict:      d,
		pub:       pub,
		log:       log,
	}
}

// State returns the current detection state.
func (e *Engine) State() State {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state
}

// LastError returns the most recent detection failure, or "".
func (e *Engine) LastError() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.lastErr == nil {
		return ""
	}
	return e.lastErr.Error()
}

// Toggle drives the state machine. From Disabled it runs exactly one
// detection pass (capture, inference, assembly) and enables on success.
// From Detecting or Enabled it disables and discards cached results; an
// in-flight pass is allowed to finish but its result is thrown away, so
// a second pass is never started while one is running.
func (e *Engine) Toggle() {
	e.mu.Lock()
	if e.state != StateDisabled {
		e.disableLocked()
		return
	}
	e.state = StateDetecting
	e.gen++
	gen := e.gen
	e.publishLocked(func() {
		e.pub.StateChanged(StateDetecting)
	})

	snap, err := e.runPass(context.Background())

	e.mu.Lock()
	if e.state != StateDetecting || e.gen != gen {
		// Toggled off mid-pass: state already moved on, discard.
		e.mu.Unlock()
		return
	}
	if err != nil {
		e.state = StateDisabled
		e.lastErr = err
		e.log.Error("detection pass failed", "error", err)
		e.publishLocked(func() {
			e.pub.StateChanged(StateDisabled)
		})
		return
	}
	e.snap = snap
	e.lastErr = nil
	e.state = StateEnabled

	texts := make([]string, len(snap.paragraphs))
	for i, p := range snap.paragraphs {
		texts[i] = p.Text
	}
	e.publishLocked(func() {
		e.pub.StateChanged(StateEnabled)
		e.pub.OCRChanged(texts)
	})
	e.log.Info("detection pass complete", "paragraphs", len(snap.paragraphs), "cells", len(snap.cells))
}

// Disable forces the machine to Disabled, discarding cached results and
// any in-flight pass. A no-op when already disabled: nothing is
// re-emitted.
func (e *Engine) Disable() {
	e.mu.Lock()
	if e.state == StateDisabled {
		e.mu.Unlock()
		return
	}
	e.disableLocked()
}

// disableLocked transitions an active machine to Disabled. Called with
// e.mu held; it is released via publishLocked.
func (e *Engine) disableLocked() {
	hadHover := e.hover != nil
	e.state = StateDisabled
	e.gen++
	e.snap = nil
	e.hover = nil
	e.publishLocked(func() {
		e.pub.StateChanged(StateDisabled)
		e.pub.OCRChanged([]string{})
		if hadHover {
			e.pub.DefinitionsChanged([]dict.Definition{})
		}
	})
}

// runPass executes one capture → inference → assembly cycle. The
// backend reports boxes in capture-image coordinates; hover samples and
// tooltip anchors are in screen coordinates, so every published box is
// translated by the capture origin.
func (e *Engine) runPass(ctx context.Context) (*snapshot, error) {
	img, origin, err := e.capturer.Capture()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDetectionFailed, err)
	}
	spans, err := e.backend.Detect(ctx, img)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDetectionFailed, err)
	}

	for i := range spans {
		spans[i].Box.X += origin.X
		spans[i].Box.Y += origin.Y
	}

	paragraphs := e.assembler.Assemble(spans)
	snap := &snapshot{paragraphs: paragraphs}

	b := img.Bounds()
	snap.bounds = ocr.Box{X: origin.X, Y: origin.Y, W: b.Dx(), H: b.Dy()}

	for pi, p := range paragraphs {
		for si, span := range p.Spans {
			// Splitting reads pixels, so it works on the image-space box.
			imgSpan := span
			imgSpan.Box.X -= origin.X
			imgSpan.Box.Y -= origin.Y
			for ci, cell := range ocr.SplitSpan(imgSpan, img) {
				box := cell.Box
				box.X += origin.X
				box.Y += origin.Y
				snap.cells = append(snap.cells, hoverCell{
					box:      box,
					ref:      cellRef{para: pi, span: si, cell: ci},
					spanText: span.Text,
					offset:   cell.Offset,
				})
			}
		}
	}
	return snap, nil
}

// Paragraphs returns the current paragraph set. The returned slice is
// the immutable snapshot; callers must not modify it.
func (e *Engine) Paragraphs() []paragraph.Paragraph {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.snap == nil {
		return nil
	}
	return e.snap.paragraphs
}

// ParagraphText returns the full text of one paragraph for clipboard
// copy. ok is false when the index is stale or detection is off.
func (e *Engine) ParagraphText(index int) (text string, ok bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.state != StateEnabled || e.snap == nil || index < 0 || index >= len(e.snap.paragraphs) {
		return "", false
	}
	return e.snap.paragraphs[index].Text, true
}

// Close releases the inference backend.
func (e *Engine) Close() {
	e.backend.Close()
}

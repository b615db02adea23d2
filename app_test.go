package main

import (
	"encoding/json"
	"image"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"

	"live-ocrs/internal/dict"
	"live-ocrs/internal/ocr"
)

type stubCapturer struct{}

func (s *stubCapturer) Capture() (image.Image, image.Point, error) {
	return image.NewRGBA(image.Rect(0, 0, 200, 100)), image.Point{}, nil
}

type appEvent struct {
	name    string
	payload any
}

type eventRecorder struct {
	mu     sync.Mutex
	events []appEvent
}

func (r *eventRecorder) record(name string, payload any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, appEvent{name: name, payload: payload})
}

func (r *eventRecorder) all() []appEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]appEvent(nil), r.events...)
}

// spanServer is a stand-in inference service returning fixed spans.
func spanServer(t *testing.T, spans []ocr.TextSpan) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string][]ocr.TextSpan{"spans": spans})
	}))
}

func newTestApp(t *testing.T, backendURL string) (*App, *eventRecorder) {
	t.Helper()
	a := NewApp()
	rec := &eventRecorder{}
	a.emit = rec.record
	a.dictionary = dict.Empty()
	a.capturer = &stubCapturer{}
	a.configPath = filepath.Join(t.TempDir(), "config.json")
	a.config.Backend = "remote"
	a.config.RemoteURL = backendURL
	a.rebuildEngine()
	return a, rec
}

func TestSaveConfigResetsDetection(t *testing.T) {
	srv := spanServer(t, []ocr.TextSpan{
		{Text: "你好", Box: ocr.Box{X: 10, Y: 10, W: 60, H: 30}},
	})
	defer srv.Close()

	a, rec := newTestApp(t, srv.URL)
	a.Toggle()
	if got := a.DetectionState(); got != "enabled" {
		t.Fatalf("state after toggle = %q, want enabled", got)
	}

	cfg := a.GetConfig()
	cfg.MaxLineGap = 1.5
	if err := a.SaveConfig(cfg); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}

	// The rebuilt engine starts disabled and the frontend must hear
	// about it instead of keeping stale paragraphs on screen.
	if got := a.DetectionState(); got != "disabled" {
		t.Fatalf("state after backend change = %q, want disabled", got)
	}
	var lastState string
	sawEmptyResults := false
	for _, ev := range rec.all() {
		switch ev.name {
		case "state-changed":
			lastState = ev.payload.(string)
		case "ocr-changed":
			if lastState == "disabled" && len(ev.payload.([]string)) == 0 {
				sawEmptyResults = true
			}
		}
	}
	if lastState != "disabled" {
		t.Errorf("last published state = %q, want disabled", lastState)
	}
	if !sawEmptyResults {
		t.Error("config change did not announce the cleared result set")
	}
}

func TestSaveConfigKeepsDetectionForUnrelatedChanges(t *testing.T) {
	srv := spanServer(t, []ocr.TextSpan{
		{Text: "你好", Box: ocr.Box{X: 10, Y: 10, W: 60, H: 30}},
	})
	defer srv.Close()

	a, _ := newTestApp(t, srv.URL)
	a.Toggle()

	cfg := a.GetConfig()
	cfg.CursorSampleMs = 40
	if err := a.SaveConfig(cfg); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}
	if got := a.DetectionState(); got != "enabled" {
		t.Errorf("state after unrelated config change = %q, want enabled", got)
	}
}

package ocr

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"image"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func testImage() image.Image {
	return image.NewRGBA(image.Rect(0, 0, 20, 10))
}

func TestRemoteDetect(t *testing.T) {
	want := []TextSpan{
		{Text: "你好", Box: Box{X: 1, Y: 2, W: 30, H: 10}, Confidence: 0.97},
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if got := r.Header.Get("X-Internal-Token"); got != "secret" {
			t.Errorf("auth token = %q, want %q", got, "secret")
		}
		var req remoteRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if _, err := base64.StdEncoding.DecodeString(req.ImageB64); err != nil {
			t.Errorf("image payload is not base64: %v", err)
		}
		json.NewEncoder(w).Encode(remoteResponse{Spans: want})
	}))
	defer srv.Close()

	backend := NewRemote(RemoteConfig{URL: srv.URL, AuthToken: "secret"})
	defer backend.Close()

	got, err := backend.Detect(context.Background(), testImage())
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if len(got) != 1 || got[0] != want[0] {
		t.Errorf("spans = %+v, want %+v", got, want)
	}
}

func TestRemoteDetectServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	backend := NewRemote(RemoteConfig{URL: srv.URL})
	defer backend.Close()

	_, err := backend.Detect(context.Background(), testImage())
	if !errors.Is(err, ErrInferenceFailed) {
		t.Fatalf("expected ErrInferenceFailed, got %v", err)
	}
}

func TestRemoteDetectOversized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("oversized capture must be rejected before any request")
	}))
	defer srv.Close()

	backend := NewRemote(RemoteConfig{URL: srv.URL, MaxPixels: 10})
	defer backend.Close()

	_, err := backend.Detect(context.Background(), testImage())
	if !errors.Is(err, ErrCaptureTooLarge) {
		t.Fatalf("expected ErrCaptureTooLarge, got %v", err)
	}
}

func TestRemoteDetectTimeout(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer srv.Close()
	defer close(block)

	backend := NewRemote(RemoteConfig{URL: srv.URL, Timeout: 50 * time.Millisecond})
	defer backend.Close()

	_, err := backend.Detect(context.Background(), testImage())
	if !errors.Is(err, ErrInferenceFailed) {
		t.Fatalf("expected ErrInferenceFailed on timeout, got %v", err)
	}
}

func TestRemoteAvailable(t *testing.T) {
	if NewRemote(RemoteConfig{}).Available() {
		t.Error("backend without a URL must report unavailable")
	}
	if !NewRemote(RemoteConfig{URL: "http://127.0.0.1:8765/detect"}).Available() {
		t.Error("configured backend must report available")
	}
}

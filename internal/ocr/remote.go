package ocr

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"io"
	"net/http"
	"time"
)

// RemoteConfig configures the GPU-accelerated backend, which offloads
// inference to an HTTP service running the detection model.
type RemoteConfig struct {
	// URL is the inference endpoint, e.g. http://127.0.0.1:8765/detect.
	URL string

	// AuthToken, when set, is sent as X-Internal-Token.
	AuthToken string

	// Timeout bounds a single inference request. Defaults to 30s.
	Timeout time.Duration

	// MaxPixels is the largest accepted image area. Zero disables the check.
	MaxPixels int
}

type remoteRequest struct {
	ImageB64 string `json:"image_base64"`
}

type remoteResponse struct {
	Spans []TextSpan `json:"spans"`
}

// Remote is the GPU-accelerated inference backend. The service contract
// is identical to the CPU backend's: positioned spans in, image out, no
// silent downscaling.
type Remote struct {
	cfg    RemoteConfig
	client *http.Client
}

// NewRemote returns a backend that posts captures to cfg.URL.
func NewRemote(cfg RemoteConfig) *Remote {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Remote{
		cfg: cfg,
		client: &http.Client{
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConnsPerHost: 2,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

func (r *Remote) Available() bool {
	return r.cfg.URL != ""
}

func (r *Remote) Close() {
	r.client.CloseIdleConnections()
}

// Detect posts a PNG of img to the inference service.
func (r *Remote) Detect(ctx context.Context, img image.Image) ([]TextSpan, error) {
	if err := checkArea(img, r.cfg.MaxPixels); err != nil {
		return nil, err
	}

	data, err := encodePNG(img)
	if err != nil {
		return nil, fmt.Errorf("%w: encode capture: %v", ErrInferenceFailed, err)
	}
	body, err := json.Marshal(remoteRequest{
		ImageB64: base64.StdEncoding.EncodeToString(data),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInferenceFailed, err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, r.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInferenceFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if r.cfg.AuthToken != "" {
		req.Header.Set("X-Internal-Token", r.cfg.AuthToken)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInferenceFailed, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("%w: status %d: %s", ErrInferenceFailed, resp.StatusCode, detail)
	}

	var parsed remoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrInferenceFailed, err)
	}
	return parsed.Spans, nil
}

package proofcheck

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// HTTPEngineConfig configures an HTTPEngine.
type HTTPEngineConfig struct {
	Endpoint   string        // recognition service base URL (required)
	APIKey     string        // optional bearer token
	Language   string        // recognition language hint, e.g. "eng"
	Timeout    time.Duration // per-request timeout (default: 30s)
	HTTPClient *http.Client  // optional (nil = dedicated client with Timeout)
}

// HTTPEngine is a RecognitionEngine backed by a remote inference service.
// It POSTs the image as base64 JSON and reads back the recognized text.
// The zero-cost handle is cheap, but the remote service keeps a warm model
// per client session, so instances still go through the EnginePool.
type HTTPEngine struct {
	endpoint string
	apiKey   string
	language string
	http     *http.Client
}

var _ RecognitionEngine = (*HTTPEngine)(nil)

// NewHTTPEngine creates a reusable engine handle.
func NewHTTPEngine(cfg HTTPEngineConfig) *HTTPEngine {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	language := cfg.Language
	if language == "" {
		language = "eng"
	}
	return &HTTPEngine{
		endpoint: cfg.Endpoint,
		apiKey:   cfg.APIKey,
		language: language,
		http:     client,
	}
}

// Recognize sends the image for text recognition and returns the raw
// recognized text.
func (e *HTTPEngine) Recognize(ctx context.Context, image []byte) (string, error) {
	payload := map[string]any{
		"image_base64": base64.StdEncoding.EncodeToString(image),
		"language":     e.language,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint+"/recognize", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if e.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+e.apiKey)
	}

	resp, err := e.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %s", resp.Status)
	}

	var out struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	return out.Text, nil
}

// Close releases the handle. The remote service owns the model lifetime;
// nothing to tear down client-side.
func (e *HTTPEngine) Close() error {
	return nil
}

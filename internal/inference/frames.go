package inference

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// HTTPFrameSource pulls the current frame from a camera snapshot endpoint
// (a kiosk camera exposing its latest JPEG over HTTP).
type HTTPFrameSource struct {
	url    string
	client *http.Client
}

// NewHTTPFrameSource creates a frame source for a snapshot URL.
func NewHTTPFrameSource(url string) *HTTPFrameSource {
	return &HTTPFrameSource{url: url, client: &http.Client{}}
}

// Frame fetches the current frame.
func (s *HTTPFrameSource) Frame(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("frame fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("frame fetch failed with status %d", resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}

// FrameFunc adapts a function to the FrameSource interface; handy in tests
// and the demo mode.
type FrameFunc func(ctx context.Context) ([]byte, error)

// Frame calls the wrapped function.
func (f FrameFunc) Frame(ctx context.Context) ([]byte, error) {
	return f(ctx)
}

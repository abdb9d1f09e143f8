package workers

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// Prober checks whether a hosted image URL is still resolvable.
type Prober interface {
	Valid(ctx context.Context, url string) (bool, error)
}

// HTTPProber probes with a HEAD request against the platform's image hosting.
type HTTPProber struct {
	Client *http.Client
}

func NewHTTPProber() *HTTPProber {
	return &HTTPProber{Client: &http.Client{Timeout: 10 * time.Second}}
}

// Valid returns false on a definitive 4xx answer and an error on transport
// failures, so callers can tell "gone" from "could not check".
func (p *HTTPProber) Valid(ctx context.Context, url string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return false, fmt.Errorf("create probe request: %w", err)
	}
	resp, err := p.Client.Do(req)
	if err != nil {
		return false, fmt.Errorf("probe %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		return false, nil
	}
	if resp.StatusCode >= 500 {
		return false, fmt.Errorf("probe %s: status %d", url, resp.StatusCode)
	}
	return true, nil
}

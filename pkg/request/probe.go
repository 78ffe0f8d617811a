package request

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"
)

// ProbeSuccessBody is the exact body the probe endpoint answers with.
const ProbeSuccessBody = "success"

// maxProbeBody caps how much of the probe response is read.
const maxProbeBody = 64

// Prober checks whether the server routes path-info URLs back to the application.
type Prober interface {
	// Probe requests baseURL + "/" + path and reports whether the response
	// body is exactly ProbeSuccessBody.
	Probe(ctx context.Context, baseURL, path string) (bool, error)
}

// ProberFunc adapts a function to the Prober interface.
type ProberFunc func(ctx context.Context, baseURL, path string) (bool, error)

func (f ProberFunc) Probe(ctx context.Context, baseURL, path string) (bool, error) {
	return f(ctx, baseURL, path)
}

// HTTPProber probes over HTTP.
type HTTPProber struct {
	client  *http.Client
	timeout time.Duration
}

// NewHTTPProber creates a prober bounded by timeout.
// A nil client uses a dedicated client without keep-alives.
func NewHTTPProber(client *http.Client, timeout time.Duration) *HTTPProber {
	if client == nil {
		client = &http.Client{
			Transport: &http.Transport{DisableKeepAlives: true},
		}
	}
	if timeout <= 0 {
		timeout = DefaultConfig().ProbeTimeout
	}
	return &HTTPProber{client: client, timeout: timeout}
}

// Probe implements Prober.
func (p *HTTPProber) Probe(ctx context.Context, baseURL, path string) (bool, error) {
	if baseURL == "" {
		return false, ErrNoBaseURL
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	url := strings.TrimRight(baseURL, "/") + "/" + strings.TrimLeft(path, "/")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, errors.Join(ErrProbeFailed, err)
	}
	req.Close = true

	resp, err := p.client.Do(req)
	if err != nil {
		return false, errors.Join(ErrProbeFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxProbeBody))
	if err != nil {
		return false, errors.Join(ErrProbeFailed, err)
	}

	return resp.StatusCode == http.StatusOK && string(body) == ProbeSuccessBody, nil
}

var _ Prober = (*HTTPProber)(nil)

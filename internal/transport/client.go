package transport

import (
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

// NewClient returns an HTTP client that follows redirects. Callers that must see 3xx
// responses wrap it with WithoutRedirects.
func NewClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: &loggingTransport{base: http.DefaultTransport},
	}
}

// WithoutRedirects returns a copy of c that does not follow redirects.
func WithoutRedirects(c *http.Client) *http.Client {
	if c == nil {
		c = http.DefaultClient
	}
	cp := *c
	cp.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}
	return &cp
}

// loggingTransport logs each provider call at debug level. Query strings and
// headers are never logged: they carry codes and bearer credentials.
type loggingTransport struct {
	base http.RoundTripper
}

func (t *loggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := t.base.RoundTrip(req)
	evt := log.Debug().
		Str("method", req.Method).
		Str("host", req.URL.Host).
		Str("path", req.URL.Path).
		Dur("elapsed", time.Since(start))
	if err != nil {
		evt.Err(err).Msg("Provider request failed")
		return nil, err
	}
	evt.Int("status", resp.StatusCode).Msg("Provider request")
	return resp, nil
}

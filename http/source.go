// Package http provides an HTTP implementation of finstmt.DocumentSource
// for filings published on the web, such as EDGAR archives.
package http

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/fwojciec/finstmt"
	"golang.org/x/time/rate"
)

// DefaultTimeout is the default timeout for a whole request, body included.
const DefaultTimeout = 30 * time.Second

// DefaultUserAgent identifies the client. EDGAR rejects requests without a
// descriptive User-Agent, so callers should set their own contact details.
const DefaultUserAgent = "finstmt/1.0"

// DefaultRateLimit is the default number of requests per second.
// EDGAR allows at most 10.
const DefaultRateLimit = 10.0

// DefaultRetryDelays returns the backoff delays for retries: 1s, 2s, 4s.
func DefaultRetryDelays() []time.Duration {
	return []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second}
}

// Ensure Source implements finstmt.DocumentSource at compile time.
var _ finstmt.DocumentSource = (*Source)(nil)

// Source retrieves filings over HTTP.
type Source struct {
	client    *http.Client
	limiter   *rate.Limiter
	timeout   time.Duration
	userAgent string
	rps       float64
	delays    []time.Duration
}

// Option configures a Source.
type Option func(*Source)

// WithTimeout sets the timeout for HTTP requests.
// Defaults to DefaultTimeout if not specified.
func WithTimeout(d time.Duration) Option {
	return func(s *Source) {
		s.timeout = d
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) Option {
	return func(s *Source) {
		s.userAgent = ua
	}
}

// WithRateLimit sets the maximum number of requests per second.
// Zero or less disables rate limiting.
func WithRateLimit(rps float64) Option {
	return func(s *Source) {
		s.rps = rps
	}
}

// WithRetryDelays sets the delays between attempts. A nil or empty slice
// disables retries.
func WithRetryDelays(delays []time.Duration) Option {
	return func(s *Source) {
		s.delays = delays
	}
}

// NewSource creates a new HTTP-based Source.
func NewSource(opts ...Option) *Source {
	s := &Source{
		timeout:   DefaultTimeout,
		userAgent: DefaultUserAgent,
		rps:       DefaultRateLimit,
		delays:    DefaultRetryDelays(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.client = &http.Client{
		Timeout: s.timeout,
	}
	if s.rps > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(s.rps), 1)
	}

	return s
}

// Open requests the document at url. The caller must close the returned body.
// Transport failures, 429 and 5xx responses are retried with backoff.
// Returns ENOTFOUND for 404 and 410 responses.
func (s *Source) Open(ctx context.Context, url string) (io.ReadCloser, error) {
	maxAttempts := len(s.delays) + 1

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		body, retry, err := s.open(ctx, url)
		if err == nil {
			return body, nil
		}
		lastErr = err

		if !retry || attempt >= maxAttempts-1 {
			break
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(s.delays[attempt]):
		}
	}

	return nil, lastErr
}

// open makes a single request. It reports whether a failed request is worth
// retrying.
func (s *Source) open(ctx context.Context, url string) (io.ReadCloser, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, false, finstmt.Errorf(finstmt.EINVALID, "invalid URL %q: %v", url, err)
	}
	if s.userAgent != "" {
		req.Header.Set("User-Agent", s.userAgent)
	}

	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, false, err
		}
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, ctx.Err() == nil, err
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		return resp.Body, false, nil
	case resp.StatusCode == http.StatusNotFound, resp.StatusCode == http.StatusGone:
		resp.Body.Close()
		return nil, false, finstmt.Errorf(finstmt.ENOTFOUND, "document not found: %s", url)
	default:
		resp.Body.Close()
		retry := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
		return nil, retry, fmt.Errorf("HTTP %d for %s", resp.StatusCode, url)
	}
}

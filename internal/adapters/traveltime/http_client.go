package traveltime

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

type httpStatusError struct {
	Code int
	Body string
	// RetryAfter is the server's requested delay from a Retry-After header.
	RetryAfter time.Duration
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("Code %d: %s", e.Code, e.Body)
}

// httpClient is the rate-limited, retrying transport shared by the
// HTTP-backed providers.
type httpClient struct {
	name    string
	session *http.Client
	limiter *rate.Limiter
	logger  *slog.Logger
	header  http.Header
	// passBadRequest hands 400 responses to the caller so a JSON error
	// body can be decoded.
	passBadRequest bool
}

func newHTTPClient(name string, client *http.Client, timeout time.Duration, rps float64, logger *slog.Logger) *httpClient {
	if client == nil {
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if rps > 0 {
		limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &httpClient{
		name:    name,
		session: client,
		limiter: limiter,
		logger:  logger,
		header:  http.Header{"Accept": []string{"application/json"}},
	}
}

func (c *httpClient) newRequest(ctx context.Context, method, url string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	for k, v := range c.header {
		req.Header[k] = v
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

// do sends one request after waiting for the rate limiter.
func (c *httpClient) do(req *http.Request) (*http.Response, error) {
	if err := c.limiter.Wait(req.Context()); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}

	resp, err := c.session.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 && !(c.passBadRequest && resp.StatusCode == http.StatusBadRequest) {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, &httpStatusError{
			Code: resp.StatusCode,
			Body: strings.TrimSpace(string(b)),
		}
	}
	return resp, nil
}

// maxRetryAfter bounds how long a Retry-After header may stall a request.
const maxRetryAfter = 10 * time.Second

// parseRetryAfter reads a Retry-After value given in seconds or as an HTTP
// date. Missing, malformed or past values give zero.
func parseRetryAfter(v string, now time.Time) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}
	var d time.Duration
	if secs, err := strconv.Atoi(v); err == nil {
		d = time.Duration(secs) * time.Second
	} else if at, err := http.ParseTime(v); err == nil {
		d = at.Sub(now)
	}
	if d <= 0 {
		return 0
	}
	return min(d, maxRetryAfter)
}

// retryDelay reports whether err is transient and how long to wait before the
// next attempt. A Retry-After sent with 429 or 503 wins over a shorter backoff.
func retryDelay(ctx context.Context, err error, backoff time.Duration) (time.Duration, bool) {
	var he *httpStatusError
	if errors.As(err, &he) {
		switch he.Code {
		case http.StatusTooManyRequests, http.StatusServiceUnavailable:
			return max(backoff, he.RetryAfter), true
		case http.StatusInternalServerError, http.StatusBadGateway, http.StatusGatewayTimeout:
			return backoff, true
		}
		return 0, false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && ctx.Err() == nil {
		return backoff, true
	}
	return 0, false
}

// doWithRetry retries transient failures with exponential backoff, honoring
// Retry-After on throttled responses, until ctx is done.
func (c *httpClient) doWithRetry(
	ctx context.Context,
	makeReq func() (*http.Request, error),
) (*http.Response, error) {
	const maxAttempts = 4
	backoff := 200 * time.Millisecond

	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		req, err := makeReq()
		if err != nil {
			return nil, fmt.Errorf("make request: %w", err)
		}

		resp, err := c.do(req)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		wait, retry := retryDelay(ctx, err, backoff)
		if !retry || attempt == maxAttempts {
			return nil, lastErr
		}

		c.logger.WarnContext(ctx, c.name+" request failed, retrying",
			"attempt", attempt, "wait_ms", wait.Milliseconds(), "err", err)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}

		backoff *= 2
	}

	return nil, lastErr
}

func validBaseURL(provider, raw, fallback string) (string, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(raw), "/")
	if baseURL == "" {
		baseURL = fallback
	}
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		return "", fmt.Errorf("%s base url %q must be http or https", provider, baseURL)
	}
	return baseURL, nil
}

func validProfile(provider, raw, fallback string) (string, error) {
	profile := strings.TrimSpace(raw)
	if profile == "" {
		profile = fallback
	}
	if strings.ContainsAny(profile, "/?#") {
		return "", errors.New(provider + " profile must be a single path segment")
	}
	return profile, nil
}

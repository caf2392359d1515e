package remote

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"sync"
	"time"
)

// HTTPClient fetches a URL. Any HTTP status is a Response; err is reserved
// for transport failures and bodies over the size limit.
type HTTPClient interface {
	Get(ctx context.Context, url string) (*Response, error)
}

type Response struct {
	StatusCode int
	Body       []byte
}

// HTTPError captures an unexpected status code and the response body.
type HTTPError struct {
	StatusCode int
	Body       []byte
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("unexpected status code: %d, body: %s", e.StatusCode, string(e.Body))
}

// userAgentRoundTripper adds a User-Agent header.
type userAgentRoundTripper struct {
	Wrapped   http.RoundTripper
	UserAgent string
}

func (rt *userAgentRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	// clone request to avoid mutating the original
	clone := req.Clone(req.Context())
	clone.Header.Set("User-Agent", rt.UserAgent)
	return rt.Wrapped.RoundTrip(clone)
}

// Exponential backoff constants
const (
	maxRetries   = 4
	baseDelay    = 500 * time.Millisecond
	maxDelay     = 8 * time.Second
	maxBodyBytes = 8 << 20
)

type httpClient struct {
	client  *http.Client
	sleep   func(ctx context.Context, d time.Duration) error
	maxBody int64

	mu  sync.Mutex
	rnd *rand.Rand
}

// NewHTTPClient wraps base (nil => a new client with a 10s timeout) so that
// every request carries userAgent and 5xx responses are retried with
// exponential backoff and jitter.
func NewHTTPClient(userAgent string, base *http.Client) HTTPClient {
	if base == nil {
		base = &http.Client{Timeout: 10 * time.Second}
	}
	tr := base.Transport
	if tr == nil {
		tr = http.DefaultTransport
	}
	c := *base
	if userAgent != "" {
		c.Transport = &userAgentRoundTripper{Wrapped: tr, UserAgent: userAgent}
	}
	return &httpClient{
		client:  &c,
		sleep:   sleepCtx,
		maxBody: maxBodyBytes,
		rnd:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func retryable(code int) bool {
	return code == http.StatusInternalServerError ||
		code == http.StatusBadGateway ||
		code == http.StatusServiceUnavailable ||
		code == http.StatusGatewayTimeout
}

// Get returns the last response once it is not retryable or retries are
// exhausted. A body over the size limit fails with ErrInvalidData.
func (h *httpClient) Get(ctx context.Context, url string) (*Response, error) {
	delay := baseDelay
	for i := 0; ; i++ {
		resp, err := h.do(ctx, url)
		if err != nil {
			return nil, err
		}
		if !retryable(resp.StatusCode) || i == maxRetries-1 {
			return resp, nil
		}
		if err := h.sleep(ctx, delay+h.jitter(delay)); err != nil {
			return nil, err
		}
		delay *= 2
		if delay > maxDelay {
			delay = maxDelay
		}
	}
}

func (h *httpClient) do(ctx context.Context, url string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := h.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, h.maxBody+1))
	if err != nil {
		return nil, err
	}
	if int64(len(body)) > h.maxBody {
		return nil, fmt.Errorf("%w: response too large (over %d bytes)", ErrInvalidData, h.maxBody)
	}
	return &Response{StatusCode: resp.StatusCode, Body: body}, nil
}

func (h *httpClient) jitter(d time.Duration) time.Duration {
	h.mu.Lock()
	defer h.mu.Unlock()
	return time.Duration(h.rnd.Int63n(int64(d)))
}

// setRandAndSleepForTest replaces the sleeper and seeds the jitter source.
func (h *httpClient) setRandAndSleepForTest(sleep func(ctx context.Context, d time.Duration) error, seed int64) {
	h.sleep = sleep
	h.mu.Lock()
	h.rnd = rand.New(rand.NewSource(seed))
	h.mu.Unlock()
}

package integrations

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/serpent-os/ent/pkg/errors"
	"github.com/serpent-os/ent/pkg/httputil"
	"github.com/serpent-os/ent/pkg/observability"
)

// maxBodySize caps how much of a response body is read into memory.
const maxBodySize = 16 << 20

// Client provides shared HTTP functionality for all upstream API clients.
// It owns the per-request timeout, retry policy and common request headers.
//
// All methods are safe for concurrent use.
type Client struct {
	http    httputil.Doer
	headers map[string]string
	policy  httputil.Policy
}

// Option configures a Client.
type Option func(*Client)

// WithPolicy overrides the default timeout and retry policy.
func WithPolicy(p httputil.Policy) Option {
	return func(c *Client) { c.policy = p }
}

// WithDoer replaces the default *http.Client.
func WithDoer(d httputil.Doer) Option {
	return func(c *Client) {
		if d != nil {
			c.http = d
		}
	}
}

// NewClient creates a Client with default headers applied to every request.
// Pass nil for headers if no default headers are needed.
func NewClient(headers map[string]string, opts ...Option) *Client {
	c := &Client{
		http:    NewHTTPClient(),
		headers: headers,
		policy:  httputil.DefaultPolicy(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Response is a fully read HTTP response.
type Response struct {
	Status   int
	Header   http.Header
	Body     []byte
	FinalURL string // URL of the last request after redirects
}

// Get performs an HTTP GET request and JSON-decodes the response into v.
func (c *Client) Get(ctx context.Context, rawURL string, v any) error {
	return c.GetWithHeaders(ctx, rawURL, nil, v)
}

// GetWithHeaders performs an HTTP GET with additional headers merged with defaults.
// Request-specific headers override client defaults for the same key.
func (c *Client) GetWithHeaders(ctx context.Context, rawURL string, headers map[string]string, v any) error {
	_, err := c.GetPage(ctx, rawURL, headers, v)
	return err
}

// GetPage is GetWithHeaders for paginated APIs. It returns the URL of the
// next page from the Link header, or "" on the last page.
func (c *Client) GetPage(ctx context.Context, rawURL string, headers map[string]string, v any) (string, error) {
	resp, err := c.Do(ctx, http.MethodGet, rawURL, headers)
	if err != nil {
		return "", err
	}
	if err := json.Unmarshal(resp.Body, v); err != nil {
		return "", errors.Wrap(errors.ErrCodeUnreachable, err, "decode response from %s", rawURL)
	}
	return NextPageURL(resp.Header), nil
}

// GetText performs an HTTP GET request and returns the response body as a string.
// Useful for non-JSON endpoints like HTML directory indexes.
func (c *Client) GetText(ctx context.Context, rawURL string) (string, error) {
	resp, err := c.Do(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", err
	}
	return string(resp.Body), nil
}

// Resolve issues a HEAD request, follows redirects and returns the final URL.
func (c *Client) Resolve(ctx context.Context, rawURL string) (string, error) {
	resp, err := c.Do(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		return "", err
	}
	return resp.FinalURL, nil
}

// Do performs a request under the client's retry policy and returns the
// fully read response. Non-2xx statuses are mapped to coded errors.
func (c *Client) Do(ctx context.Context, method, rawURL string, headers map[string]string) (*Response, error) {
	if err := errors.ValidateURL(rawURL); err != nil {
		return nil, err
	}
	u, _ := url.Parse(rawURL)
	hooks := observability.HTTP()

	var resp *Response
	err := httputil.Retry(ctx, c.policy, func(attempt int) error {
		if attempt > 1 {
			hooks.OnRetry(ctx, method, u.Host, u.Path, attempt, nil)
		}
		r, err := c.once(ctx, method, u, headers)
		if err != nil {
			return err
		}
		resp = r
		return nil
	})
	if err != nil {
		return nil, finalError(ctx, err, rawURL)
	}
	return resp, nil
}

func (c *Client) once(ctx context.Context, method string, u *url.URL, headers map[string]string) (*Response, error) {
	if c.policy.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.policy.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), nil)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidLocator, err, "build request")
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	hooks := observability.HTTP()
	hooks.OnRequest(ctx, method, u.Host, u.Path)
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		hooks.OnError(ctx, method, u.Host, u.Path, err)
		return nil, httputil.Retryable(fmt.Errorf("%w: %w", ErrNetwork, err))
	}
	defer resp.Body.Close()
	hooks.OnResponse(ctx, method, u.Host, u.Path, resp.StatusCode, time.Since(start))

	if err := checkStatus(resp, u.Host); err != nil {
		return nil, err
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, httputil.Retryable(fmt.Errorf("%w: read body: %v", ErrNetwork, err))
	}

	final := u.String()
	if resp.Request != nil && resp.Request.URL != nil {
		final = resp.Request.URL.String()
	}
	return &Response{Status: resp.StatusCode, Header: resp.Header, Body: body, FinalURL: final}, nil
}

func checkStatus(resp *http.Response, host string) error {
	code := resp.StatusCode
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusNotFound || code == http.StatusGone:
		return ErrNotFound
	case code == http.StatusTooManyRequests:
		return httputil.Retryable(&errors.RateLimitedError{RetryAfter: retryAfter(resp.Header), Host: host})
	case code == http.StatusForbidden && resp.Header.Get("X-RateLimit-Remaining") == "0":
		return &errors.RateLimitedError{RetryAfter: retryAfter(resp.Header), Host: host}
	case code >= 500:
		return httputil.Retryable(fmt.Errorf("%w: status %d", ErrNetwork, code))
	default:
		return fmt.Errorf("%w: status %d", ErrNetwork, code)
	}
}

func retryAfter(h http.Header) int {
	if s, err := strconv.Atoi(h.Get("Retry-After")); err == nil && s > 0 {
		return s
	}
	if reset, err := strconv.ParseInt(h.Get("X-RateLimit-Reset"), 10, 64); err == nil {
		if d := time.Until(time.Unix(reset, 0)); d > 0 {
			return int(d.Seconds())
		}
	}
	return 0
}

// finalError converts the last attempt's error into a coded error.
func finalError(ctx context.Context, err error, rawURL string) error {
	var rl *errors.RateLimitedError
	if stderrors.As(err, &rl) {
		return errors.Wrap(errors.ErrCodeRateLimited, rl, "%s", rawURL)
	}
	if errors.GetCode(err) != "" {
		return err
	}
	switch {
	case ctx.Err() != nil:
		return errors.Wrap(errors.ErrCodeTimeout, ctx.Err(), "%s", rawURL)
	case stderrors.Is(err, ErrNotFound):
		return errors.Wrap(errors.ErrCodeNotFound, err, "%s", rawURL)
	case stderrors.Is(err, context.DeadlineExceeded):
		return errors.Wrap(errors.ErrCodeTimeout, err, "%s", rawURL)
	default:
		return errors.Wrap(errors.ErrCodeUnreachable, err, "%s", rawURL)
	}
}

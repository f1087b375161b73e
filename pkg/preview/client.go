// Package preview renders ZPL programs to PNG through a Labelary-compatible
// HTTP service.
//
// The client performs exactly one request per call: no retry, no caching
// and no streaming. Callers that want caching do it around the client (see
// the pipeline package). [Slot] adds latest-request-wins semantics for
// interactive editors that re-render on every change.
package preview

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/matzehuels/zplkit/pkg/buildinfo"
	zerrors "github.com/matzehuels/zplkit/pkg/errors"
	"github.com/matzehuels/zplkit/pkg/label"
	"github.com/matzehuels/zplkit/pkg/observability"
)

const (
	// DefaultBaseURL is the public Labelary API.
	DefaultBaseURL = "http://api.labelary.com"
	// DefaultTimeout bounds a single render request.
	DefaultTimeout = 15 * time.Second
	// maxImageSize caps the response body.
	maxImageSize = 16 << 20
)

// Renderer turns a program into an image.
type Renderer interface {
	Render(ctx context.Context, markup string, profile label.Profile) ([]byte, error)
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(ctx context.Context, markup string, profile label.Profile) ([]byte, error)

// Render implements Renderer.
func (f RendererFunc) Render(ctx context.Context, markup string, profile label.Profile) ([]byte, error) {
	return f(ctx, markup, profile)
}

// Client calls the preview service.
type Client struct {
	http    *http.Client
	timeout time.Duration
	baseURL string
	headers map[string]string
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at another service, e.g. a self-hosted one.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithHTTPClient replaces the underlying HTTP client. hc itself is never
// modified; WithTimeout applies to a copy.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithHeader adds a header to every request.
func WithHeader(key, value string) Option {
	return func(c *Client) { c.headers[key] = value }
}

// NewClient returns a client for DefaultBaseURL unless overridden.
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		headers: map[string]string{"User-Agent": buildinfo.UserAgent()},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: DefaultTimeout}
	}
	if c.timeout > 0 {
		hc := *c.http
		hc.Timeout = c.timeout
		c.http = &hc
	}
	return c
}

// BaseURL returns the service root.
func (c *Client) BaseURL() string { return c.baseURL }

// Endpoint returns the render URL for profile, label index 0.
func (c *Client) Endpoint(profile label.Profile) string {
	return fmt.Sprintf("%s/v1/printers/%s/labels/%s/0/",
		c.baseURL, url.PathEscape(string(profile.Resolution)), url.PathEscape(string(profile.Size)))
}

// Render posts markup and returns the PNG body.
//
// Errors carry codes: RATE_LIMITED for 429, PREVIEW_FAILED for any other
// non-2xx status, TIMEOUT when the request deadline passes and NETWORK_ERROR
// for transport failures. Cancellation returns the context's error.
func (c *Client) Render(ctx context.Context, markup string, profile label.Profile) ([]byte, error) {
	profile = profile.WithDefaults()
	if err := profile.Validate(); err != nil {
		return nil, err
	}
	endpoint := c.Endpoint(profile)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(markup))
	if err != nil {
		return nil, zerrors.Wrap(zerrors.ErrCodeInternal, err, "build preview request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "image/png")
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	hooks := observability.HTTP()
	hooks.OnRequest(ctx, req.Method, req.URL.Host, req.URL.Path)
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		hooks.OnError(ctx, req.Method, req.URL.Host, req.URL.Path, err)
		return nil, transportError(ctx, err)
	}
	defer resp.Body.Close()
	hooks.OnResponse(ctx, req.Method, req.URL.Host, req.URL.Path, resp.StatusCode, time.Since(start))

	if err := checkStatus(resp); err != nil {
		return nil, err
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageSize))
	if err != nil {
		return nil, transportError(ctx, err)
	}
	return data, nil
}

func transportError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(ctxErr, context.DeadlineExceeded) {
		return context.Cause(ctx)
	}
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return zerrors.Wrap(zerrors.ErrCodeTimeout, err, "preview request timed out")
	}
	return zerrors.Wrap(zerrors.ErrCodeNetwork, err, "preview request failed")
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	msg := strings.TrimSpace(string(snippet))
	if resp.StatusCode == http.StatusTooManyRequests {
		retry, _ := strconv.Atoi(resp.Header.Get("Retry-After"))
		return zerrors.Wrap(zerrors.ErrCodeRateLimited, &zerrors.RateLimitedError{RetryAfter: retry, Message: msg},
			"preview service rate limit reached")
	}
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	return zerrors.New(zerrors.ErrCodePreviewFailed, "preview service returned %d: %s", resp.StatusCode, msg)
}

var _ Renderer = (*Client)(nil)

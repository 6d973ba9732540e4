// Package gateway issues requests against the booking API and normalizes the
// responses for the step engine. HTTP-level failures (4xx/5xx) are ordinary
// responses; only transport failures are reported as errors.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"pkt.systems/pslog"
)

const defaultTimeout = 15 * time.Second

// ErrUnsupportedMethod is returned for verbs outside GET/POST/PUT/PATCH/DELETE.
var ErrUnsupportedMethod = errors.New("unsupported method")

var allowedMethods = map[string]struct{}{
	http.MethodGet:    {},
	http.MethodPost:   {},
	http.MethodPut:    {},
	http.MethodPatch:  {},
	http.MethodDelete: {},
}

// Request carries the optional parts of a call. Body is JSON-encoded when non-nil.
type Request struct {
	Header  map[string]string
	Cookies map[string]string
	Body    any
}

// Response is the normalized result of one call.
type Response struct {
	Method   string
	URL      string
	Status   int
	Header   map[string]string
	Body     []byte
	Duration time.Duration
}

// Text returns the body as a string.
func (r Response) Text() string { return string(r.Body) }

// IsJSON reports whether the body is a valid JSON document.
func (r Response) IsJSON() bool {
	return len(bytes.TrimSpace(r.Body)) > 0 && json.Valid(r.Body)
}

// Decode unmarshals the JSON body into v.
func (r Response) Decode(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("decode %s %s response: %w", r.Method, r.URL, err)
	}
	return nil
}

// TransportError reports a network-level failure (dial, timeout, cancelled
// context, unreadable body). It never wraps an HTTP status.
type TransportError struct {
	Method string
	URL    string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport: %s %s: %v", e.Method, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Client sends requests relative to a fixed base URL.
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	logger     pslog.Base
}

type clientConfig struct {
	httpClient *http.Client
	timeout    time.Duration
	logger     pslog.Base
}

// Option configures a Client.
type Option func(*clientConfig)

// WithHTTPClient injects a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(cc *clientConfig) { cc.httpClient = client }
}

// WithTimeout sets the per-request timeout (default 15s).
func WithTimeout(timeout time.Duration) Option {
	return func(cc *clientConfig) { cc.timeout = timeout }
}

// WithLogger sets the logger used for debug request lines.
func WithLogger(logger pslog.Base) Option {
	return func(cc *clientConfig) { cc.logger = logger }
}

// New constructs a Client for baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", baseURL)
	}
	cfg := clientConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.httpClient == nil {
		// No client-wide Timeout: the per-request context deadline governs.
		cfg.httpClient = &http.Client{}
	}
	if cfg.timeout <= 0 {
		cfg.timeout = defaultTimeout
	}
	return &Client{
		baseURL:    strings.TrimRight(u.String(), "/"),
		httpClient: cfg.httpClient,
		timeout:    cfg.timeout,
		logger:     cfg.logger,
	}, nil
}

// BaseURL returns the normalized base URL.
func (c *Client) BaseURL() string { return c.baseURL }

// Send performs one request. A non-nil error is either ErrUnsupportedMethod,
// a request construction error, or a *TransportError.
func (c *Client) Send(ctx context.Context, method, path string, r Request) (Response, error) {
	method = strings.ToUpper(strings.TrimSpace(method))
	if _, ok := allowedMethods[method]; !ok {
		return Response{}, fmt.Errorf("%w: %q", ErrUnsupportedMethod, method)
	}
	target := c.resolve(path)

	var bodyReader io.Reader = http.NoBody
	if r.Body != nil {
		payload, err := json.Marshal(r.Body)
		if err != nil {
			return Response{}, fmt.Errorf("encode %s %s body: %w", method, target, err)
		}
		bodyReader = bytes.NewReader(payload)
	}

	ctxTimeout, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctxTimeout, method, target, bodyReader)
	if err != nil {
		return Response{}, fmt.Errorf("build %s %s: %w", method, target, err)
	}
	req.Header.Set("Accept", "application/json")
	if r.Body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range r.Header {
		req.Header.Set(k, v)
	}
	for _, name := range sortedKeys(r.Cookies) {
		req.AddCookie(&http.Cookie{Name: name, Value: r.Cookies[name]})
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Response{}, &TransportError{Method: method, URL: target, Err: err}
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	duration := time.Since(start)
	if err != nil {
		return Response{}, &TransportError{Method: method, URL: target, Err: fmt.Errorf("read body: %w", err)}
	}
	if c.logger != nil {
		c.logger.Debug("http", "method", method, "url", target, "status", resp.StatusCode, "dur", duration.String())
	}
	return Response{
		Method:   method,
		URL:      target,
		Status:   resp.StatusCode,
		Header:   headerMap(resp.Header),
		Body:     body,
		Duration: duration,
	}, nil
}

func (c *Client) resolve(path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return c.baseURL
	}
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return c.baseURL + "/" + strings.TrimLeft(path, "/")
}

func headerMap(h http.Header) map[string]string {
	if h == nil {
		return nil
	}
	out := map[string]string{}
	for k, vals := range h {
		if len(vals) > 0 {
			out[strings.ToLower(k)] = vals[0]
		} else {
			out[strings.ToLower(k)] = ""
		}
	}
	return out
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

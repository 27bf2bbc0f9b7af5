// Package httpclient provides the context-aware HTTP client every backend call goes through.
//
// It applies a default timeout when the caller's context has none, injects the
// User-Agent and an X-Request-ID, and runs before/after hooks that the session guard
// (credentials, 401 teardown) and the metrics collector attach to.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dentalscan/scanctl/internal/logger"
)

const (
	// DefaultTimeout is the default timeout for HTTP requests if not specified.
	DefaultTimeout = 30 * time.Second

	// RequestIDHeader carries a short per-request id that also appears in logs.
	RequestIDHeader = "X-Request-ID"

	defaultMaxIdleConns        = 20
	defaultMaxIdleConnsPerHost = 10
	defaultIdleConnTimeout     = 90 * time.Second

	defaultTLSHandshakeTimeout   = 10 * time.Second
	defaultExpectContinueTimeout = 1 * time.Second
	defaultDialTimeout           = 30 * time.Second
	defaultDialKeepAlive         = 30 * time.Second

	defaultUserAgent = "scanctl"

	requestIDLength = 8
)

// BeforeRequestHook runs after headers are set and before the request is sent.
type BeforeRequestHook func(*http.Request)

// AfterResponseHook runs after every round trip. resp is nil when err is set.
type AfterResponseHook func(req *http.Request, resp *http.Response, err error, elapsed time.Duration)

// Client is a context-aware HTTP client bound to one backend base URL.
// Safe for concurrent use.
type Client struct {
	client         *http.Client
	baseURL        *url.URL
	defaultTimeout time.Duration
	userAgent      string
	log            logger.Logger

	hookMu        sync.RWMutex
	beforeRequest []BeforeRequestHook
	afterResponse []AfterResponseHook
}

// Config holds configuration for creating an HTTP client.
type Config struct {
	// BaseURL is prefixed to relative paths passed to Get, Post and URL
	BaseURL string

	// DefaultTimeout is the timeout applied if request context has no deadline
	DefaultTimeout time.Duration

	// UserAgent is added to all requests
	UserAgent string

	// Transport replaces the tuned default transport (tests inject httpmock here)
	Transport http.RoundTripper

	// Logger receives request debug lines; nil discards
	Logger logger.Logger

	MaxIdleConns        int
	MaxIdleConnsPerHost int
	IdleConnTimeout     time.Duration
	TLSHandshakeTimeout time.Duration
}

// DefaultConfig returns a Config with production defaults.
func DefaultConfig() Config {
	return Config{
		DefaultTimeout:      DefaultTimeout,
		UserAgent:           defaultUserAgent,
		MaxIdleConns:        defaultMaxIdleConns,
		MaxIdleConnsPerHost: defaultMaxIdleConnsPerHost,
		IdleConnTimeout:     defaultIdleConnTimeout,
		TLSHandshakeTimeout: defaultTLSHandshakeTimeout,
	}
}

// New creates a new HTTP client. A nil cfg uses DefaultConfig; the caller's
// config is never mutated. An unparsable BaseURL is reported by the first request.
func New(cfg *Config) *Client {
	var c Config
	if cfg == nil {
		c = DefaultConfig()
	} else {
		c = *cfg
		if c.DefaultTimeout == 0 {
			c.DefaultTimeout = DefaultTimeout
		}
		if c.UserAgent == "" {
			c.UserAgent = defaultUserAgent
		}
		if c.MaxIdleConns == 0 {
			c.MaxIdleConns = defaultMaxIdleConns
		}
		if c.MaxIdleConnsPerHost == 0 {
			c.MaxIdleConnsPerHost = defaultMaxIdleConnsPerHost
		}
		if c.IdleConnTimeout == 0 {
			c.IdleConnTimeout = defaultIdleConnTimeout
		}
		if c.TLSHandshakeTimeout == 0 {
			c.TLSHandshakeTimeout = defaultTLSHandshakeTimeout
		}
	}

	transport := c.Transport
	if transport == nil {
		transport = &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   defaultDialTimeout,
				KeepAlive: defaultDialKeepAlive,
			}).DialContext,
			ForceAttemptHTTP2:     true,
			MaxIdleConns:          c.MaxIdleConns,
			MaxIdleConnsPerHost:   c.MaxIdleConnsPerHost,
			IdleConnTimeout:       c.IdleConnTimeout,
			TLSHandshakeTimeout:   c.TLSHandshakeTimeout,
			ExpectContinueTimeout: defaultExpectContinueTimeout,
		}
	}

	log := c.Logger
	if log == nil {
		log = logger.NewDiscard()
	}

	client := &Client{
		// no client-level timeout: deadlines come from the request context
		client:         &http.Client{Transport: transport},
		defaultTimeout: c.DefaultTimeout,
		userAgent:      c.UserAgent,
		log:            log,
	}
	if c.BaseURL != "" {
		if u, err := url.Parse(strings.TrimSuffix(c.BaseURL, "/") + "/"); err == nil {
			client.baseURL = u
		}
	}
	return client
}

// URL resolves path against the base URL. Absolute URLs are returned unchanged.
func (c *Client) URL(path string) string {
	if c.baseURL == nil || strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return c.baseURL.JoinPath(strings.TrimPrefix(path, "/")).String()
}

// Do executes an HTTP request.
//
// If ctx has no deadline the default timeout applies; the deadline stays active
// until the response body is closed. The response body must be closed by the
// caller if err is nil.
func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	if req == nil {
		return nil, fmt.Errorf("nil request")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	cancel := context.CancelFunc(func() {})
	if _, hasDeadline := ctx.Deadline(); !hasDeadline && c.defaultTimeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, c.defaultTimeout)
	}

	requestID := req.Header.Get(RequestIDHeader)
	if requestID == "" {
		requestID = uuid.New().String()[:requestIDLength]
	}
	if logger.TraceIDFromContext(ctx) == "" {
		ctx = logger.WithTraceID(ctx, requestID)
	}
	req = req.WithContext(ctx)
	req.Header.Set(RequestIDHeader, requestID)

	if req.Header.Get("User-Agent") == "" && c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	c.hookMu.RLock()
	before := c.beforeRequest
	after := c.afterResponse
	c.hookMu.RUnlock()

	for _, hook := range before {
		hook(req)
	}

	log := c.log.WithContext(ctx)
	log.Debug("request",
		logger.String("method", req.Method),
		logger.String("url", req.URL.Redacted()))

	start := time.Now()
	resp, err := c.client.Do(req)
	elapsed := time.Since(start)

	for _, hook := range after {
		hook(req, resp, err, elapsed)
	}

	if err != nil {
		cancel()
		log.Debug("request failed",
			logger.String("method", req.Method),
			logger.Duration("elapsed", elapsed),
			logger.Error(err))
		return nil, err
	}

	log.Debug("response",
		logger.String("method", req.Method),
		logger.Int("status", resp.StatusCode),
		logger.Duration("elapsed", elapsed))

	resp.Body = &cancelOnClose{ReadCloser: resp.Body, cancel: cancel}
	return resp, nil
}

// cancelOnClose releases the request context once the body is consumed
type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (b *cancelOnClose) Close() error {
	err := b.ReadCloser.Close()
	b.cancel()
	return err
}

// Get performs a GET request. path may be relative to the base URL.
func (c *Client) Get(ctx context.Context, path string) (*http.Response, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL(path), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create GET request: %w", err)
	}
	return c.Do(ctx, req)
}

// Post performs a POST request. Body handling:
//   - nil: http.NoBody
//   - io.Reader: used directly
//   - []byte or string: wrapped in a reader
//   - anything else: marshaled to JSON
func (c *Client) Post(ctx context.Context, path, contentType string, body any) (*http.Response, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	var bodyReader io.Reader = http.NoBody
	var shouldSetJSON bool

	if body != nil {
		switch v := body.(type) {
		case io.Reader:
			bodyReader = v
		case []byte:
			bodyReader = bytes.NewReader(v)
		case string:
			bodyReader = strings.NewReader(v)
		default:
			data, err := json.Marshal(v)
			if err != nil {
				return nil, fmt.Errorf("failed to marshal body: %w", err)
			}
			bodyReader = bytes.NewReader(data)
			shouldSetJSON = true
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL(path), bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create POST request: %w", err)
	}

	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	} else if shouldSetJSON {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.Do(ctx, req)
}

// AddBeforeRequestHook registers fn to run before each request, in registration order.
func (c *Client) AddBeforeRequestHook(fn BeforeRequestHook) {
	c.hookMu.Lock()
	defer c.hookMu.Unlock()
	c.beforeRequest = append(c.beforeRequest[:len(c.beforeRequest):len(c.beforeRequest)], fn)
}

// AddAfterResponseHook registers fn to run after each request, in registration order.
func (c *Client) AddAfterResponseHook(fn AfterResponseHook) {
	c.hookMu.Lock()
	defer c.hookMu.Unlock()
	c.afterResponse = append(c.afterResponse[:len(c.afterResponse):len(c.afterResponse)], fn)
}

// Close closes idle connections in the connection pool.
func (c *Client) Close() {
	c.client.CloseIdleConnections()
}

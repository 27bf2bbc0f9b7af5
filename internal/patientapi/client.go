// Package patientapi is the typed client for the patient backend endpoints.
//
// Every call goes through the shared httpclient, so the session guard's bearer
// and 401 hooks apply. Non-success responses are converted to categorized errors
// carrying the server's {"error": "..."} text when present.
package patientapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dentalscan/scanctl/internal/errors"
	"github.com/dentalscan/scanctl/internal/httpclient"
	"github.com/dentalscan/scanctl/internal/logger"
)

// Endpoint paths relative to the API base URL
const (
	PathLogin    = "login"
	PathRegister = "register"
	PathMe       = "me"
	PathUpload   = "patient/upload"
	PathStudies  = "patient/studies"
	PathAnalyses = "patient/diagnocat/analyses"
	PathSend     = "patient/diagnocat/send"
)

// DefaultUploadTimeout bounds a multipart upload when the caller sets no deadline
const DefaultUploadTimeout = 10 * time.Minute

// maxErrorBody caps how much of an error response is read
const maxErrorBody = 64 << 10

// Client calls the patient backend
type Client struct {
	http          *httpclient.Client
	uploadTimeout time.Duration
	log           logger.Logger
}

// Option configures a Client
type Option func(*Client)

// WithUploadTimeout sets the deadline applied to uploads
func WithUploadTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.uploadTimeout = d
		}
	}
}

// WithLogger sets the client logger
func WithLogger(log logger.Logger) Option {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

// New returns a client issuing requests through hc
func New(hc *httpclient.Client, opts ...Option) *Client {
	c := &Client{
		http:          hc,
		uploadTimeout: DefaultUploadTimeout,
		log:           logger.NewDiscard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RefreshPath returns the refresh endpoint for one analysis
func RefreshPath(analysisID uint64) string {
	return fmt.Sprintf("%s/%d/refresh", PathAnalyses, analysisID)
}

// errorBody is the backend's error envelope
type errorBody struct {
	Error string `json:"error"`
}

// getJSON issues a GET and decodes a success body into out
func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	resp, err := c.http.Get(ctx, path)
	if err != nil {
		return c.transportError(ctx, http.MethodGet, path, err)
	}
	return c.decode(resp, http.MethodGet, path, out)
}

// postJSON issues a JSON POST and decodes a success body into out
func (c *Client) postJSON(ctx context.Context, path string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode %s request: %w", path, err)
	}
	resp, err := c.http.Post(ctx, path, "application/json", data)
	if err != nil {
		return c.transportError(ctx, http.MethodPost, path, err)
	}
	return c.decode(resp, http.MethodPost, path, out)
}

// decode converts resp into out or a categorized error. The body is always closed.
func (c *Client) decode(resp *http.Response, method, path string, out any) error {
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var eb errorBody
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		_ = json.Unmarshal(raw, &eb)

		c.log.Debug("request rejected",
			logger.String("method", method),
			logger.String("path", path),
			logger.Int("status", resp.StatusCode),
			logger.String("server_message", eb.Error))

		if resp.StatusCode == http.StatusUnauthorized {
			return errors.AuthError(method, path, resp.StatusCode, eb.Error)
		}
		return errors.RequestError(method, path, resp.StatusCode, eb.Error)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.New(fmt.Errorf("decode %s %s response: %w", method, path, err)).
			Category(errors.CategoryDecode).
			HTTPContext(method, path, resp.StatusCode).
			Build()
	}
	return nil
}

// transportError classifies a failure where no response was received
func (c *Client) transportError(ctx context.Context, method, path string, err error) error {
	if errors.Is(ctx.Err(), context.Canceled) {
		return errors.New(err).
			Category(errors.CategoryCancellation).
			Context(errors.ContextMethod, method).
			Context(errors.ContextPath, path).
			Build()
	}
	var timeout time.Duration
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
	}
	c.log.Debug("request failed",
		logger.String("method", method),
		logger.String("path", path),
		logger.Error(err))
	return errors.NetworkError(err, c.http.URL(path), timeout)
}

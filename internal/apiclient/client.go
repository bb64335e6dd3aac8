// Package apiclient is the dashboard's API client.
//
// Every call goes through Request, which attaches the bearer token and tenant header, validates form bodies,
// encodes JSON and maps non-2xx responses to *APIError. The Transport is usually an *apirouter.Router, so each
// call is sent to the Go API or the legacy API depending on the endpoint table and falls back when the Go API
// cannot serve it.
//
// Typed resources (Suppliers, Products, SAQs...) are thin wrappers around Request.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/information-sharing-networks/eudr-dashboard/internal/apirouter"
	"github.com/information-sharing-networks/eudr-dashboard/internal/schema"
)

const (
	// TenantHeader carries the tenant id on every request
	TenantHeader = "X-Tenant-ID"

	// BackendHeader is set by the gateway to the backend that answered
	BackendHeader = "X-Backend"

	maxErrorBodyBytes    = 64 << 10
	maxResponseBodyBytes = 8 << 20
)

// Transport sends a buffered request to a backend
type Transport interface {
	Do(ctx context.Context, req *apirouter.Request) (*apirouter.Result, error)
}

// APIError is returned for non-2xx responses
type APIError struct {
	StatusCode int
	Message    string
	Backend    apirouter.Backend
}

func (e *APIError) Error() string {
	if e.Backend != "" {
		return fmt.Sprintf("api error %d (%s backend): %s", e.StatusCode, e.Backend, e.Message)
	}
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

// IsNotFound reports whether err is an APIError with status 404
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// ResponseInfo describes how a request was served
type ResponseInfo struct {
	StatusCode int
	Backend    apirouter.Backend
	Attempts   int
	RequestID  string
	Duration   time.Duration
}

// Client calls the dashboard API on behalf of one tenant
type Client struct {
	transport Transport
	tokens    TokenSource
	tenantID  string
	userAgent string
	logger    *slog.Logger
}

// Option configures a Client
type Option func(*Client)

// WithTokenSource sets the source of the bearer token
func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) { c.tokens = ts }
}

// WithTenant sets the tenant sent in the X-Tenant-ID header
func WithTenant(tenantID string) Option {
	return func(c *Client) { c.tenantID = tenantID }
}

// WithUserAgent sets the User-Agent header
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// WithLogger sets the logger used for request debug logs
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// New creates a client that sends requests through transport
func New(transport Transport, opts ...Option) (*Client, error) {
	if transport == nil {
		return nil, fmt.Errorf("transport cannot be nil")
	}

	c := &Client{
		transport: transport,
		userAgent: "eudr-dashboard-client",
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// TenantID returns the tenant the client acts for
func (c *Client) TenantID() string {
	return c.tenantID
}

// Request sends a JSON request and decodes a JSON response into out.
//
// path may include a query string. body may be nil. When body implements schema.Validatable it is validated
// before anything is sent. out may be nil, in which case the response body is discarded.
func (c *Client) Request(ctx context.Context, method, path string, body, out any) error {
	_, err := c.Do(ctx, method, path, body, out)
	return err
}

// Do is Request, also returning which backend served the request
func (c *Client) Do(ctx context.Context, method, path string, body, out any) (*ResponseInfo, error) {
	if body != nil {
		if rv := reflect.ValueOf(body); rv.Kind() == reflect.Pointer && rv.IsNil() {
			return nil, fmt.Errorf("request body is a nil %T", body)
		}
	}

	if v, ok := body.(schema.Validatable); ok {
		if err := v.Validate(); err != nil {
			return nil, err
		}
	}

	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	res, err := c.transport.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, req.Path, err)
	}
	defer res.Response.Body.Close()

	info := &ResponseInfo{
		StatusCode: res.Response.StatusCode,
		Backend:    res.Backend,
		Attempts:   res.Attempts,
		RequestID:  res.Response.Header.Get("X-Request-ID"),
		Duration:   time.Since(start),
	}

	// through the gateway, the router only knows it talked to the gateway
	if b := res.Response.Header.Get(BackendHeader); b != "" {
		info.Backend = apirouter.Backend(b)
	}

	c.logger.Debug("api request",
		slog.String("method", method),
		slog.String("path", req.Path),
		slog.Int("status", info.StatusCode),
		slog.String("backend", string(info.Backend)),
		slog.Int("attempts", info.Attempts),
		slog.Duration("duration", info.Duration))

	if err := decodeResponse(res.Response, info.Backend, out); err != nil {
		return info, err
	}
	return info, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*apirouter.Request, error) {
	if !strings.HasPrefix(path, "/") {
		return nil, fmt.Errorf("path must start with /: %q", path)
	}

	req := &apirouter.Request{
		Method: strings.ToUpper(method),
		Header: make(http.Header),
	}
	req.Path, req.RawQuery, _ = strings.Cut(path, "?")

	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		req.Body = jsonBody
		req.Header.Set("Content-Type", "application/json")
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	if c.tenantID != "" {
		req.Header.Set(TenantHeader, c.tenantID)
	}

	if c.tokens != nil {
		token, err := c.tokens.Token(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get API token: %w", err)
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	return req, nil
}

// decodeResponse maps error statuses to *APIError and decodes successful JSON responses into out
func decodeResponse(resp *http.Response, backend apirouter.Backend, out any) error {
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		if err != nil {
			return fmt.Errorf("read error response body: %w", err)
		}
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    errorMessage(resp.StatusCode, data),
			Backend:    backend,
		}
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		if _, err := io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBodyBytes)); err != nil {
			return fmt.Errorf("discard response body: %w", err)
		}
		return nil
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodyBytes+1))
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}
	if len(data) > maxResponseBodyBytes {
		return fmt.Errorf("response body exceeds %d bytes", maxResponseBodyBytes)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// errorMessage extracts a message from the error body. Both backends return {"message": ...} or
// {"error": ...}; the gateway returns its error envelope.
func errorMessage(status int, data []byte) string {
	var body struct {
		Message           string `json:"message"`
		Error             string `json:"error"`
		StatusCodeMessage string `json:"statusCodeMessage"`
		Errors            []struct {
			ErrorCodeMessage string `json:"errorCodeMessage"`
		} `json:"errors"`
	}

	if json.Unmarshal(data, &body) == nil {
		switch {
		case body.Message != "":
			return body.Message
		case body.Error != "":
			return body.Error
		case len(body.Errors) > 0 && body.Errors[0].ErrorCodeMessage != "":
			return body.Errors[0].ErrorCodeMessage
		case body.StatusCodeMessage != "":
			return body.StatusCodeMessage
		}
	}

	if msg := strings.TrimSpace(string(data)); msg != "" {
		return msg
	}
	return http.StatusText(status)
}

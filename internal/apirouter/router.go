package apirouter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Backend identifies one of the two API implementations
type Backend string

const (
	BackendPrimary   Backend = "go"
	BackendSecondary Backend = "legacy"
)

// Mode controls how Plan chooses between the backends
type Mode string

const (
	// ModeAuto sends endpoints listed in the table to the primary and everything else to the secondary
	ModeAuto Mode = "auto"

	// ModePrimary always tries the primary first
	ModePrimary Mode = "primary"

	// ModeSecondary only uses the secondary
	ModeSecondary Mode = "secondary"
)

// ParseMode converts a configuration value to a Mode. The empty string is auto.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeAuto:
		return ModeAuto, nil
	case ModePrimary:
		return ModePrimary, nil
	case ModeSecondary:
		return ModeSecondary, nil
	default:
		return "", fmt.Errorf("invalid backend mode %q (must be auto, primary or secondary)", s)
	}
}

// ErrNoBackend is returned when no backend could be reached
var ErrNoBackend = errors.New("no backend available")

// IdempotencyKeyHeader marks a request as safe to replay on the secondary backend
const IdempotencyKeyHeader = "Idempotency-Key"

// Target is a backend and the base URL requests are sent to
type Target struct {
	Backend Backend
	BaseURL *url.URL
}

// Request is a buffered API request. The body is held in memory so the request can be replayed.
type Request struct {
	Method   string
	Path     string
	RawQuery string
	Header   http.Header
	Body     []byte
}

// Result is the response returned by the backend that answered
type Result struct {
	Response *http.Response
	Backend  Backend
	Attempts int
}

// Attempt describes one try against a backend and is passed to the observer
type Attempt struct {
	Backend    Backend
	Method     string
	Path       string
	StatusCode int
	Err        error
	Duration   time.Duration

	// FellBack is true when the router moved on to the next backend after this attempt
	FellBack bool
}

// Config configures a Router
type Config struct {
	// PrimaryURL and SecondaryURL are the base URLs of the backends. At least one is required.
	PrimaryURL   string
	SecondaryURL string

	Mode Mode

	// Fallback enables retrying on the secondary when the primary fails
	Fallback bool

	// Table lists the endpoints implemented by the primary. Defaults to DefaultTable.
	Table *Table

	// HTTPClient is used to call the backends. Defaults to a client with a 30s timeout.
	HTTPClient *http.Client

	// FailureThreshold consecutive primary failures mark the primary unhealthy for Cooldown.
	// Zero disables health tracking.
	FailureThreshold int
	Cooldown         time.Duration
}

// Router selects a backend for each request and applies the fallback strategy
type Router struct {
	table     *Table
	primary   *Target
	secondary *Target
	mode      Mode
	fallback  bool
	client    *http.Client
	health    *health
	logger    *slog.Logger
	observer  func(Attempt)
}

// New validates the configuration and creates a Router
func New(cfg Config, logger *slog.Logger) (*Router, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}
	if cfg.PrimaryURL == "" && cfg.SecondaryURL == "" {
		return nil, fmt.Errorf("at least one backend URL is required")
	}

	mode := cfg.Mode
	if mode == "" {
		mode = ModeAuto
	}
	if _, err := ParseMode(string(mode)); err != nil {
		return nil, err
	}

	r := &Router{
		table:    cfg.Table,
		mode:     mode,
		fallback: cfg.Fallback,
		client:   cfg.HTTPClient,
		health:   newHealth(cfg.FailureThreshold, cfg.Cooldown),
		logger:   logger,
	}
	if r.table == nil {
		r.table = DefaultTable()
	}
	if r.client == nil {
		r.client = &http.Client{Timeout: 30 * time.Second}
	}

	if cfg.PrimaryURL != "" {
		u, err := parseBaseURL(cfg.PrimaryURL)
		if err != nil {
			return nil, fmt.Errorf("primary backend: %w", err)
		}
		r.primary = &Target{Backend: BackendPrimary, BaseURL: u}
	}
	if cfg.SecondaryURL != "" {
		u, err := parseBaseURL(cfg.SecondaryURL)
		if err != nil {
			return nil, fmt.Errorf("secondary backend: %w", err)
		}
		r.secondary = &Target{Backend: BackendSecondary, BaseURL: u}
	}

	return r, nil
}

func parseBaseURL(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("URL %q must use http or https", raw)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("URL %q has no host", raw)
	}
	return u, nil
}

// SetObserver registers a function called after every backend attempt (used for metrics)
func (r *Router) SetObserver(fn func(Attempt)) {
	r.observer = fn
}

// Table returns the availability table used by the router
func (r *Router) Table() *Table {
	return r.table
}

// Mode returns the default mode of the router
func (r *Router) Mode() Mode {
	return r.mode
}

// Fallback reports whether fallback to the secondary is enabled
func (r *Router) Fallback() bool {
	return r.fallback
}

// Targets returns the configured backends (primary first)
func (r *Router) Targets() []Target {
	var out []Target
	if r.primary != nil {
		out = append(out, *r.primary)
	}
	if r.secondary != nil {
		out = append(out, *r.secondary)
	}
	return out
}

// PrimaryHealthy reports whether the primary is currently considered healthy
func (r *Router) PrimaryHealthy() bool {
	return r.health.healthy()
}

type modeKey struct{}

// WithMode overrides the router mode for requests made with the returned context
func WithMode(ctx context.Context, mode Mode) context.Context {
	return context.WithValue(ctx, modeKey{}, mode)
}

func (r *Router) modeFor(ctx context.Context) Mode {
	if m, ok := ctx.Value(modeKey{}).(Mode); ok && m != "" {
		return m
	}
	return r.mode
}

// Plan returns the backends to try, in order, for method + path
func (r *Router) Plan(ctx context.Context, method, path string) []Target {
	if r.primary == nil {
		return []Target{*r.secondary}
	}
	if r.secondary == nil {
		return []Target{*r.primary}
	}

	withFallback := func() []Target {
		if r.fallback {
			return []Target{*r.primary, *r.secondary}
		}
		return []Target{*r.primary}
	}

	switch r.modeFor(ctx) {
	case ModeSecondary:
		return []Target{*r.secondary}
	case ModePrimary:
		return withFallback()
	default:
		if r.table.Supports(method, path) && r.health.healthy() {
			return withFallback()
		}
		return []Target{*r.secondary}
	}
}

// Do sends the request to the planned backends until one answers.
//
// The caller must close Result.Response.Body.
func (r *Router) Do(ctx context.Context, req *Request) (*Result, error) {
	if req == nil {
		return nil, fmt.Errorf("request is nil")
	}
	method := strings.ToUpper(req.Method)
	if method == "" {
		method = http.MethodGet
	}

	targets := r.Plan(ctx, method, req.Path)

	var lastErr error
	for i, target := range targets {
		last := i == len(targets)-1

		start := time.Now()
		resp, err := r.send(ctx, target, method, req)
		attempt := Attempt{
			Backend:  target.Backend,
			Method:   method,
			Path:     req.Path,
			Err:      err,
			Duration: time.Since(start),
		}

		if err != nil {
			// a cancelled or expired caller context says nothing about the backend
			if ctx.Err() != nil {
				r.observe(attempt)
				return nil, ctx.Err()
			}

			if target.Backend == BackendPrimary {
				r.health.failure()
			}
			lastErr = err

			if !last && replayableAfterError(method, req.Header) {
				attempt.FellBack = true
				r.observe(attempt)
				r.logger.Warn("backend request failed - falling back",
					slog.String("backend", string(target.Backend)),
					slog.String("method", method),
					slog.String("path", req.Path),
					slog.String("error", err.Error()))
				continue
			}

			r.observe(attempt)
			return nil, fmt.Errorf("%w: %s %s: %w", ErrNoBackend, method, req.Path, err)
		}

		attempt.StatusCode = resp.StatusCode

		if !last && shouldFallback(method, req.Header, resp.StatusCode) {
			if isUnavailableStatus(resp.StatusCode) && target.Backend == BackendPrimary {
				r.health.failure()
			}
			drainAndClose(resp.Body)

			attempt.FellBack = true
			r.observe(attempt)
			r.logger.Debug("backend returned fallback status - trying next backend",
				slog.String("backend", string(target.Backend)),
				slog.String("method", method),
				slog.String("path", req.Path),
				slog.Int("status", resp.StatusCode))
			continue
		}

		if target.Backend == BackendPrimary {
			if isUnavailableStatus(resp.StatusCode) {
				r.health.failure()
			} else {
				r.health.success()
			}
		}

		r.observe(attempt)
		return &Result{Response: resp, Backend: target.Backend, Attempts: i + 1}, nil
	}

	if lastErr == nil {
		lastErr = errors.New("no targets planned")
	}
	return nil, fmt.Errorf("%w: %s %s: %w", ErrNoBackend, method, req.Path, lastErr)
}

func (r *Router) observe(a Attempt) {
	if r.observer != nil {
		r.observer(a)
	}
}

func (r *Router) send(ctx context.Context, target Target, method string, req *Request) (*http.Response, error) {
	u := *target.BaseURL
	u.Path = strings.TrimSuffix(u.Path, "/") + "/" + strings.TrimPrefix(req.Path, "/")
	u.RawPath = ""
	u.RawQuery = req.RawQuery

	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}

	out, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	copyHeaders(out.Header, req.Header)

	// #nosec G704 -- the target URL comes from server configuration, only the path is caller supplied
	resp, err := r.client.Do(out)
	if err != nil {
		return nil, fmt.Errorf("request to %s backend failed: %w", target.Backend, err)
	}
	return resp, nil
}

// fallback statuses returned by the primary
func shouldFallback(method string, header http.Header, status int) bool {
	switch status {
	case http.StatusNotFound, http.StatusNotImplemented:
		// the primary did not process the request
		return true
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return replayableAfterError(method, header)
	default:
		return false
	}
}

func isUnavailableStatus(status int) bool {
	return status == http.StatusBadGateway || status == http.StatusServiceUnavailable || status == http.StatusGatewayTimeout
}

// POST and PATCH may have been applied by the backend before it failed
func replayableAfterError(method string, header http.Header) bool {
	switch method {
	case http.MethodPost, http.MethodPatch:
		return header.Get(IdempotencyKeyHeader) != ""
	default:
		return true
	}
}

// hopHeaders are removed when a request or response crosses the router (RFC 9110 section 7.6.1)
var hopHeaders = []string{
	"Connection",
	"Proxy-Connection",
	"Keep-Alive",
	"Proxy-Authenticate",
	"Proxy-Authorization",
	"Te",
	"Trailer",
	"Transfer-Encoding",
	"Upgrade",
}

func copyHeaders(dst, src http.Header) {
	for k, vv := range src {
		for _, v := range vv {
			dst.Add(k, v)
		}
	}
	RemoveHopHeaders(dst)
}

// RemoveHopHeaders deletes hop-by-hop headers, including any named in the Connection header
func RemoveHopHeaders(h http.Header) {
	for _, f := range h.Values("Connection") {
		for _, name := range strings.Split(f, ",") {
			if name = strings.TrimSpace(name); name != "" {
				h.Del(name)
			}
		}
	}
	for _, name := range hopHeaders {
		h.Del(name)
	}
}

func drainAndClose(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, io.LimitReader(body, 64<<10))
	_ = body.Close()
}

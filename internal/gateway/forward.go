package gateway

// forward.go forwards tenant API requests to the backend chosen by the router

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/information-sharing-networks/eudr-dashboard/internal/apirouter"
	"github.com/information-sharing-networks/eudr-dashboard/internal/logger"
)

const (
	// TenantHeader carries the tenant id to the backends
	TenantHeader = "X-Tenant-ID"

	// BackendHeader tells the caller which backend answered
	BackendHeader = "X-Backend"

	// RequestIDHeader carries the gateway request id to the backends
	RequestIDHeader = "X-Request-ID"
)

// Transport sends a buffered request to a backend (implemented by *apirouter.Router)
type Transport interface {
	Do(ctx context.Context, req *apirouter.Request) (*apirouter.Result, error)
}

// Forwarder is the http.Handler for the tenant API
type Forwarder struct {
	transport Transport
	maxBody   int64
}

// NewForwarder creates a Forwarder. Request bodies larger than maxBody bytes are rejected.
func NewForwarder(transport Transport, maxBody int64) *Forwarder {
	return &Forwarder{
		transport: transport,
		maxBody:   maxBody,
	}
}

func (f *Forwarder) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqLogger := logger.ContextRequestLogger(ctx)

	tenant, ok := TenantFromContext(ctx)
	if !ok {
		RespondWithErrorResponse(w, r, NewInternalError("tenant not resolved before forwarding"))
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, f.maxBody))
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			RespondWithErrorResponse(w, r, NewRequestTooLargeError("request body too large"))
			return
		}
		RespondWithErrorResponse(w, r, WrapMalformedRequestError(err, "failed to read request body"))
		return
	}

	header := r.Header.Clone()
	apirouter.RemoveHopHeaders(header)
	header.Del("Content-Length")
	header.Set(TenantHeader, tenant.ID.String())
	if reqID := middleware.GetReqID(ctx); reqID != "" {
		header.Set(RequestIDHeader, reqID)
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		header.Add("X-Forwarded-For", host)
	}

	if needsIdempotencyKey(r.Method, header, body) {
		key, err := IdempotencyKey(r.Method, r.URL.Path, tenant.ID.String(), body)
		if err != nil {
			// invalid JSON is rejected by the backend and the request is not replayed
			reqLogger.Debug("no idempotency key derived", slog.String("error", err.Error()))
		} else {
			header.Set(apirouter.IdempotencyKeyHeader, key)
		}
	}

	result, err := f.transport.Do(ctx, &apirouter.Request{
		Method:   r.Method,
		Path:     r.URL.Path,
		RawQuery: r.URL.RawQuery,
		Header:   header,
		Body:     body,
	})
	if err != nil {
		f.respondWithTransportError(w, r, err)
		return
	}
	defer result.Response.Body.Close()

	logger.ContextWithLogAttrs(ctx,
		slog.String("backend", string(result.Backend)),
		slog.Int("attempts", result.Attempts),
	)

	out := w.Header()
	for k, vv := range result.Response.Header {
		for _, v := range vv {
			out.Add(k, v)
		}
	}
	apirouter.RemoveHopHeaders(out)
	out.Del("Content-Length")
	out.Set(BackendHeader, string(result.Backend))
	if reqID := middleware.GetReqID(ctx); reqID != "" {
		// the gateway id replaces any id the backend echoed
		out.Set(RequestIDHeader, reqID)
	}

	w.WriteHeader(result.Response.StatusCode)
	if _, err := io.Copy(w, result.Response.Body); err != nil {
		// headers are already written
		reqLogger.Warn("failed to copy backend response",
			slog.String("backend", string(result.Backend)),
			slog.String("error", err.Error()),
		)
	}
}

func (f *Forwarder) respondWithTransportError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, context.Canceled) && r.Context().Err() != nil {
		// the client went away, nobody is listening for a response
		logger.ContextWithLogAttrs(r.Context(), slog.String("error", "client cancelled request"))
		return
	}

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		RespondWithErrorResponse(w, r, WrapBackendTimeoutError(err, "backend did not respond in time"))
		return
	}

	if errors.Is(err, apirouter.ErrNoBackend) {
		RespondWithErrorResponse(w, r, WrapBackendUnavailableError(err, "no backend available"))
		return
	}

	RespondWithErrorResponse(w, r, WrapInternalError(err, "failed to forward request"))
}

func needsIdempotencyKey(method string, header http.Header, body []byte) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
	default:
		return false
	}
	if len(body) == 0 || header.Get(apirouter.IdempotencyKeyHeader) != "" {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(header.Get("Content-Type"))
	if err != nil {
		return false
	}
	return mediaType == "application/json"
}

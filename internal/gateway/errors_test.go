package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
)

// sanity check that the error codes are in the correct range
func TestErrorCodes(t *testing.T) {
	tests := []struct {
		name     string
		errCode  ErrorCode
		wantCode int
	}{
		{"unauthenticated", ErrCodeUnauthenticated, 7001},
		{"malformed_request", ErrCodeMalformedRequest, 7002},
		{"backend_unavailable", ErrCodeBackendUnavailable, 7003},
		{"forbidden", ErrCodeForbidden, 7004},
		{"internal_error", ErrCodeInternalError, 7005},
		{"backend_timeout", ErrCodeBackendTimeout, 7006},
		{"rate_limit", ErrCodeRateLimitExceeded, 7009},
		{"too_large", ErrCodeRequestTooLarge, 7010},
		{"unknown_tenant", ErrCodeUnknownTenant, 8001},
		{"tenant_inactive", ErrCodeTenantInactive, 8002},
		{"route_not_found", ErrCodeRouteNotFound, 8003},
	}
	for _, tt := range tests {
		if int(tt.errCode) != tt.wantCode {
			t.Errorf("%s: got %d, want %d", tt.name, tt.errCode, tt.wantCode)
		}
	}
}

func TestGatewayErrorUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := WrapBackendUnavailableError(cause, "no backend available")

	if !errors.Is(err, cause) {
		t.Error("expected wrapped error to match cause")
	}
	if got := err.Error(); got != "no backend available: connection refused" {
		t.Errorf("unexpected message %q", got)
	}

	var gwErr *GatewayError
	if !errors.As(fmt.Errorf("forwarding: %w", err), &gwErr) {
		t.Fatal("expected errors.As to find GatewayError")
	}
	if gwErr.Code() != ErrCodeBackendUnavailable {
		t.Errorf("got code %d, want %d", gwErr.Code(), ErrCodeBackendUnavailable)
	}
}

func TestMapErrorToResponse(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantCode    ErrorCode
		wantMessage string
	}{
		{"unauthenticated", NewUnauthenticatedError("missing bearer token"), http.StatusUnauthorized, ErrCodeUnauthenticated, "missing bearer token"},
		{"malformed", NewMalformedRequestError("missing X-Tenant-ID header"), http.StatusBadRequest, ErrCodeMalformedRequest, "missing X-Tenant-ID header"},
		{"backend_unavailable", WrapBackendUnavailableError(errors.New("refused"), "no backend available"), http.StatusBadGateway, ErrCodeBackendUnavailable, "no backend available: refused"},
		{"backend_timeout", WrapBackendTimeoutError(errors.New("deadline"), "slow"), http.StatusGatewayTimeout, ErrCodeBackendTimeout, "slow: deadline"},
		{"forbidden", NewForbiddenError("token is for another tenant"), http.StatusForbidden, ErrCodeForbidden, "token is for another tenant"},
		{"rate_limit", NewRateLimitError("slow down"), http.StatusTooManyRequests, ErrCodeRateLimitExceeded, "slow down"},
		{"too_large", NewRequestTooLargeError("too big"), http.StatusRequestEntityTooLarge, ErrCodeRequestTooLarge, "too big"},
		{"unknown_tenant", NewUnknownTenantError("unknown tenant"), http.StatusNotFound, ErrCodeUnknownTenant, "unknown tenant"},
		{"tenant_inactive", NewTenantInactiveError("tenant is inactive"), http.StatusForbidden, ErrCodeTenantInactive, "tenant is inactive"},
		{"route_not_found", NewRouteNotFoundError("not found"), http.StatusNotFound, ErrCodeRouteNotFound, "not found"},
		// internal details are not returned to the client
		{"internal", WrapInternalError(errors.New("db password wrong"), "query failed"), http.StatusInternalServerError, ErrCodeInternalError, "An internal error occurred"},
		{"unmapped", errors.New("something else"), http.StatusInternalServerError, ErrCodeInternalError, "An internal error occurred"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/api/suppliers?x=1", nil)

			resp := MapErrorToResponse(tt.err, r)

			if resp.StatusCode != tt.wantStatus {
				t.Errorf("got status %d, want %d", resp.StatusCode, tt.wantStatus)
			}
			if resp.StatusCodeText != http.StatusText(tt.wantStatus) {
				t.Errorf("got status text %q", resp.StatusCodeText)
			}
			if resp.HTTPMethod != http.MethodPost || resp.RequestURI != "/api/suppliers?x=1" {
				t.Errorf("unexpected request details %s %s", resp.HTTPMethod, resp.RequestURI)
			}
			if len(resp.Errors) != 1 {
				t.Fatalf("expected 1 detailed error, got %d", len(resp.Errors))
			}
			if resp.Errors[0].ErrorCode != tt.wantCode {
				t.Errorf("got code %d, want %d", resp.Errors[0].ErrorCode, tt.wantCode)
			}
			if resp.Errors[0].ErrorCodeMessage != tt.wantMessage {
				t.Errorf("got message %q, want %q", resp.Errors[0].ErrorCodeMessage, tt.wantMessage)
			}
		})
	}
}

func TestRespondWithErrorResponse(t *testing.T) {
	handler := middleware.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		RespondWithErrorResponse(w, r, NewUnknownTenantError("unknown tenant acme"))
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/tenant", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("got status %d, want %d", rec.Code, http.StatusNotFound)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("got content type %q", ct)
	}

	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	for _, field := range []string{"httpMethod", "requestUri", "statusCode", "statusCodeText", "statusCodeMessage", "providerCorrelationReference", "errorDateTime", "errors"} {
		if _, ok := body[field]; !ok {
			t.Errorf("error envelope is missing %q", field)
		}
	}
	if ref, _ := body["providerCorrelationReference"].(string); ref == "" {
		t.Error("expected the request id as correlation reference")
	}
}

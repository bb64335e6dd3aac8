//go:build integration

package integration

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/information-sharing-networks/eudr-dashboard/internal/apirouter"
	"github.com/information-sharing-networks/eudr-dashboard/internal/gateway"
	"github.com/information-sharing-networks/eudr-dashboard/internal/server/handlers"
)

func TestGatewayRoutesTenantRequests(t *testing.T) {
	primary := newFakeBackend(t, http.StatusOK, `{"backend":"go"}`)
	secondary := newFakeBackend(t, http.StatusOK, `{"backend":"legacy"}`)

	env := startInProcessGateway(t, primary.URL, secondary.URL, nil)
	defer env.shutdown()

	acme := createTestTenant(t, env, "acme-foods", true, "")
	legacy := createTestTenant(t, env, "legacy-cocoa", true, "secondary")
	dormant := createTestTenant(t, env, "dormant-coffee", false, "")

	tests := []struct {
		name        string
		path        string
		tenantID    string
		header      http.Header
		wantStatus  int
		wantBackend apirouter.Backend
		wantCode    gateway.ErrorCode
	}{
		{
			name:        "endpoint implemented by the Go API",
			path:        "/api/suppliers",
			tenantID:    acme.ID.String(),
			wantStatus:  http.StatusOK,
			wantBackend: apirouter.BackendPrimary,
		},
		{
			name:        "endpoint only implemented by the legacy API",
			path:        "/api/compliance/report",
			tenantID:    acme.ID.String(),
			wantStatus:  http.StatusOK,
			wantBackend: apirouter.BackendSecondary,
		},
		{
			name:        "tenant pinned to the legacy API",
			path:        "/api/suppliers",
			tenantID:    legacy.ID.String(),
			wantStatus:  http.StatusOK,
			wantBackend: apirouter.BackendSecondary,
		},
		{
			name:       "inactive tenant",
			path:       "/api/suppliers",
			tenantID:   dormant.ID.String(),
			wantStatus: http.StatusForbidden,
			wantCode:   gateway.ErrCodeTenantInactive,
		},
		{
			name:       "tenant not in the directory",
			path:       "/api/suppliers",
			tenantID:   "5a0e1d5c-54f7-4a9e-8f6b-7d84f8a1f0aa",
			wantStatus: http.StatusNotFound,
			wantCode:   gateway.ErrCodeUnknownTenant,
		},
		{
			name:       "tenant header does not match the token",
			path:       "/api/suppliers",
			tenantID:   acme.ID.String(),
			header:     http.Header{gateway.TenantHeader: []string{legacy.ID.String()}},
			wantStatus: http.StatusForbidden,
			wantCode:   gateway.ErrCodeForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token := mintTestToken(t, env, tt.tenantID)
			resp := doRequest(t, http.MethodGet, env.baseURL+tt.path, token, nil, tt.header)

			if resp.StatusCode != tt.wantStatus {
				t.Fatalf("expected status %d, got %d", tt.wantStatus, resp.StatusCode)
			}

			if tt.wantCode != 0 {
				if got := decodeErrorResponse(t, resp); got != tt.wantCode {
					t.Errorf("expected error code %d, got %d", tt.wantCode, got)
				}
				return
			}

			if got := resp.Header.Get(gateway.BackendHeader); got != string(tt.wantBackend) {
				t.Errorf("expected %s %q, got %q", gateway.BackendHeader, tt.wantBackend, got)
			}
		})
	}

	// the backends receive the resolved tenant id, never the caller's header
	for _, req := range append(primary.requests(), secondary.requests()...) {
		if got := req.Header.Get(gateway.TenantHeader); got != acme.ID.String() && got != legacy.ID.String() {
			t.Errorf("backend received unexpected tenant id %q for %s %s", got, req.Method, req.Path)
		}
		if req.Header.Get("Authorization") == "" {
			t.Errorf("expected the bearer token to be forwarded for %s %s", req.Method, req.Path)
		}
	}
}

func TestGatewayRejectsUnauthenticatedRequests(t *testing.T) {
	primary := newFakeBackend(t, http.StatusOK, `{}`)
	secondary := newFakeBackend(t, http.StatusOK, `{}`)

	env := startInProcessGateway(t, primary.URL, secondary.URL, nil)
	defer env.shutdown()

	acme := createTestTenant(t, env, "acme-foods", true, "")
	header := http.Header{gateway.TenantHeader: []string{acme.ID.String()}}

	tests := []struct {
		name  string
		token string
	}{
		{name: "no token"},
		{name: "malformed token", token: "not-a-jwt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := doRequest(t, http.MethodGet, env.baseURL+"/api/suppliers", tt.token, nil, header)
			if resp.StatusCode != http.StatusUnauthorized {
				t.Fatalf("expected status 401, got %d", resp.StatusCode)
			}
			if got := decodeErrorResponse(t, resp); got != gateway.ErrCodeUnauthenticated {
				t.Errorf("expected error code %d, got %d", gateway.ErrCodeUnauthenticated, got)
			}
		})
	}

	if n := len(primary.requests()) + len(secondary.requests()); n != 0 {
		t.Errorf("expected no backend requests, got %d", n)
	}
}

func TestGatewayFallback(t *testing.T) {
	primary := newFakeBackend(t, http.StatusServiceUnavailable, `{"error":"maintenance"}`)
	secondary := newFakeBackend(t, http.StatusOK, `{"backend":"legacy"}`)

	env := startInProcessGateway(t, primary.URL, secondary.URL, nil)
	defer env.shutdown()

	acme := createTestTenant(t, env, "acme-foods", true, "")
	token := mintTestToken(t, env, acme.ID.String())

	t.Run("GET falls back when the Go API is unavailable", func(t *testing.T) {
		resp := doRequest(t, http.MethodGet, env.baseURL+"/api/suppliers", token, nil, nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected status 200, got %d", resp.StatusCode)
		}
		if got := resp.Header.Get(gateway.BackendHeader); got != string(apirouter.BackendSecondary) {
			t.Errorf("expected the legacy API to answer, got %q", got)
		}
	})

	t.Run("POST with a JSON body is replayed with a derived idempotency key", func(t *testing.T) {
		body := map[string]any{
			"name":          "Kumasi Cocoa",
			"country":       "GH",
			"contact_name":  "Ama Mensah",
			"contact_email": "ama@kumasi.example",
			"commodities":   []string{"cocoa"},
		}
		resp := doRequest(t, http.MethodPost, env.baseURL+"/api/suppliers", token, body, nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected status 200, got %d", resp.StatusCode)
		}

		primaryReqs := primary.requests()
		secondaryReqs := secondary.requests()
		if len(primaryReqs) == 0 || len(secondaryReqs) == 0 {
			t.Fatalf("expected the request to reach both backends")
		}
		first := primaryReqs[len(primaryReqs)-1]
		replayed := secondaryReqs[len(secondaryReqs)-1]

		key := first.Header.Get(apirouter.IdempotencyKeyHeader)
		if key == "" {
			t.Fatal("expected an idempotency key on the first attempt")
		}
		if got := replayed.Header.Get(apirouter.IdempotencyKeyHeader); got != key {
			t.Errorf("expected the replay to carry the same key %q, got %q", key, got)
		}
		if string(first.Body) != string(replayed.Body) {
			t.Errorf("replayed body differs: %s vs %s", first.Body, replayed.Body)
		}
	})

	t.Run("no fallback when the legacy API also fails", func(t *testing.T) {
		secondary.respondWith(http.StatusServiceUnavailable, `{"error":"down"}`)
		defer secondary.respondWith(http.StatusOK, `{"backend":"legacy"}`)

		resp := doRequest(t, http.MethodGet, env.baseURL+"/api/suppliers", token, nil, nil)
		if resp.StatusCode != http.StatusServiceUnavailable {
			t.Fatalf("expected the last backend response (503), got %d", resp.StatusCode)
		}
	})
}

func TestGatewayBackendModeOverride(t *testing.T) {
	primary := newFakeBackend(t, http.StatusOK, `{}`)
	secondary := newFakeBackend(t, http.StatusOK, `{}`)

	env := startInProcessGateway(t, primary.URL, secondary.URL, nil)
	defer env.shutdown()

	acme := createTestTenant(t, env, "acme-foods", true, "")
	token := mintTestToken(t, env, acme.ID.String())

	backendFor := func(t *testing.T) string {
		t.Helper()
		resp := doRequest(t, http.MethodGet, env.baseURL+"/api/suppliers", token, nil, nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected status 200, got %d", resp.StatusCode)
		}
		return resp.Header.Get(gateway.BackendHeader)
	}

	if got := backendFor(t); got != string(apirouter.BackendPrimary) {
		t.Fatalf("expected the Go API by default, got %q", got)
	}

	// tenant changes are picked up on the next request
	if _, err := env.tenants.SetBackendMode(t.Context(), acme.Slug, "secondary"); err != nil {
		t.Fatalf("Failed to set backend mode: %v", err)
	}
	if got := backendFor(t); got != string(apirouter.BackendSecondary) {
		t.Errorf("expected the legacy API after pinning, got %q", got)
	}

	if _, err := env.tenants.SetBackendMode(t.Context(), acme.Slug, ""); err != nil {
		t.Fatalf("Failed to reset backend mode: %v", err)
	}
	if got := backendFor(t); got != string(apirouter.BackendPrimary) {
		t.Errorf("expected the Go API after reset, got %q", got)
	}
}

func TestGatewayReadiness(t *testing.T) {
	primary := newFakeBackend(t, http.StatusOK, `{"status":"ok"}`)
	secondary := newFakeBackend(t, http.StatusOK, `{"status":"ok"}`)

	env := startInProcessGateway(t, primary.URL, secondary.URL, nil)
	defer env.shutdown()

	readiness := func(t *testing.T) (int, handlers.ReadinessResponse) {
		t.Helper()
		resp := doRequest(t, http.MethodGet, env.baseURL+"/health/ready", "", nil, nil)
		var body handlers.ReadinessResponse
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			t.Fatalf("Failed to decode readiness response: %v", err)
		}
		return resp.StatusCode, body
	}

	status, body := readiness(t)
	if status != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %+v", status, body)
	}
	for _, check := range []string{string(apirouter.BackendPrimary), string(apirouter.BackendSecondary), "database", "verification_keys"} {
		if got := body.Checks[check]; got != "ok" {
			t.Errorf("expected check %s to be ok, got %q", check, got)
		}
	}

	// one backend is enough to serve traffic
	primary.respondWith(http.StatusServiceUnavailable, `{"status":"down"}`)
	if status, body := readiness(t); status != http.StatusOK {
		t.Errorf("expected ready with the legacy API up, got %d: %+v", status, body)
	}

	secondary.respondWith(http.StatusServiceUnavailable, `{"status":"down"}`)
	if status, body := readiness(t); status != http.StatusServiceUnavailable {
		t.Errorf("expected not ready with both backends down, got %d: %+v", status, body)
	}
}

package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/information-sharing-networks/eudr-dashboard/internal/apirouter"
	"github.com/information-sharing-networks/eudr-dashboard/internal/auth"
	"github.com/information-sharing-networks/eudr-dashboard/internal/gateway"
	"github.com/information-sharing-networks/eudr-dashboard/internal/schema"
	"github.com/information-sharing-networks/eudr-dashboard/internal/services"
)

type fakeVerifier map[string]*auth.Claims

func (f fakeVerifier) Verify(_ context.Context, token string) (*auth.Claims, error) {
	if c, ok := f[token]; ok {
		return c, nil
	}
	return nil, auth.ErrInvalidToken
}

type fakeDirectory struct {
	tenants []schema.Tenant
	err     error
}

func (f fakeDirectory) LookupTenant(_ context.Context, ref string) (*schema.Tenant, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, t := range f.tenants {
		if t.ID.String() == ref || t.Slug == ref {
			out := t
			return &out, nil
		}
	}
	return nil, services.ErrTenantNotFound
}

func (f fakeDirectory) ListTenants(context.Context) ([]schema.Tenant, error) {
	return f.tenants, f.err
}

var (
	acme     = schema.Tenant{ID: uuid.MustParse("6f1c3c1e-7b7a-4a53-9d1b-0c6f5e1e2a10"), Slug: "acme", Name: "Acme", Active: true, BackendMode: "secondary"}
	globex   = schema.Tenant{ID: uuid.MustParse("0b7d55d4-1f0e-4a36-8d7e-1a9a2f0b6c21"), Slug: "globex", Name: "Globex", Active: true}
	initech  = schema.Tenant{ID: uuid.MustParse("c5d1f0a2-3b4e-4f60-8a71-92b3c4d5e6f7"), Slug: "initech", Name: "Initech", Active: false}
	testDirs = fakeDirectory{tenants: []schema.Tenant{acme, globex, initech}}
)

// seen records what the downstream handler found in the request context
type seen struct {
	tenant *schema.Tenant
	claims *auth.Claims
	mode   apirouter.Mode
}

func tenantHandler(t *testing.T, verifier TokenVerifier, dir services.TenantDirectory) (http.Handler, *seen) {
	t.Helper()
	s := &seen{}
	router, err := apirouter.New(apirouter.Config{PrimaryURL: "http://primary.invalid", SecondaryURL: "http://secondary.invalid", Fallback: true}, testLogger())
	if err != nil {
		t.Fatalf("failed to create router: %v", err)
	}

	var h http.Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.tenant, _ = gateway.TenantFromContext(r.Context())
		s.claims, _ = gateway.ClaimsFromContext(r.Context())
		// the planned backend shows which mode is in effect
		plan := router.Plan(r.Context(), http.MethodGet, "/api/suppliers")
		if plan[0].Backend == apirouter.BackendSecondary {
			s.mode = apirouter.ModeSecondary
		} else {
			s.mode = apirouter.ModeAuto
		}
		w.WriteHeader(http.StatusOK)
	})
	h = ResolveTenant(dir)(h)
	if verifier != nil {
		h = Authenticate(verifier)(h)
	}
	return h, s
}

func tenantErrorCode(t *testing.T, rr *httptest.ResponseRecorder) gateway.ErrorCode {
	t.Helper()
	var resp gateway.ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	return resp.Errors[0].ErrorCode
}

func TestAuthenticatedTenantResolution(t *testing.T) {
	verifier := fakeVerifier{
		"acme-token":    {Subject: "user-1", TenantID: acme.ID.String(), Role: schema.RoleAdmin},
		"globex-token":  {Subject: "user-2", TenantID: "globex"},
		"initech-token": {Subject: "user-3", TenantID: initech.ID.String()},
		"ghost-token":   {Subject: "user-4", TenantID: uuid.NewString()},
	}

	tests := []struct {
		name       string
		auth       string
		tenantHdr  string
		wantStatus int
		wantCode   gateway.ErrorCode
		wantTenant string
		wantMode   apirouter.Mode
	}{
		{name: "valid token", auth: "Bearer acme-token", wantStatus: 200, wantTenant: "acme", wantMode: apirouter.ModeSecondary},
		{name: "lowercase scheme", auth: "bearer globex-token", wantStatus: 200, wantTenant: "globex", wantMode: apirouter.ModeAuto},
		{name: "matching tenant header by id", auth: "Bearer acme-token", tenantHdr: acme.ID.String(), wantStatus: 200, wantTenant: "acme", wantMode: apirouter.ModeSecondary},
		{name: "matching tenant header by slug", auth: "Bearer acme-token", tenantHdr: "acme", wantStatus: 200, wantTenant: "acme", wantMode: apirouter.ModeSecondary},
		{name: "other tenant header", auth: "Bearer acme-token", tenantHdr: "globex", wantStatus: 403, wantCode: gateway.ErrCodeForbidden},
		{name: "missing token", wantStatus: 401, wantCode: gateway.ErrCodeUnauthenticated},
		{name: "basic auth", auth: "Basic dXNlcjpwYXNz", wantStatus: 401, wantCode: gateway.ErrCodeUnauthenticated},
		{name: "empty bearer", auth: "Bearer ", wantStatus: 401, wantCode: gateway.ErrCodeUnauthenticated},
		{name: "invalid token", auth: "Bearer forged", wantStatus: 401, wantCode: gateway.ErrCodeUnauthenticated},
		{name: "inactive tenant", auth: "Bearer initech-token", wantStatus: 403, wantCode: gateway.ErrCodeTenantInactive},
		{name: "unknown tenant", auth: "Bearer ghost-token", wantStatus: 404, wantCode: gateway.ErrCodeUnknownTenant},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, s := tenantHandler(t, verifier, testDirs)

			req := httptest.NewRequest(http.MethodGet, "/api/suppliers", nil)
			if tt.auth != "" {
				req.Header.Set("Authorization", tt.auth)
			}
			if tt.tenantHdr != "" {
				req.Header.Set(gateway.TenantHeader, tt.tenantHdr)
			}
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)

			if rr.Code != tt.wantStatus {
				t.Fatalf("got status %d, want %d", rr.Code, tt.wantStatus)
			}
			if tt.wantStatus != http.StatusOK {
				if got := tenantErrorCode(t, rr); got != tt.wantCode {
					t.Errorf("got error code %d, want %d", got, tt.wantCode)
				}
				return
			}
			if s.tenant == nil || s.tenant.Slug != tt.wantTenant {
				t.Errorf("got tenant %+v, want %s", s.tenant, tt.wantTenant)
			}
			if s.claims == nil {
				t.Error("claims not stored in context")
			}
			if s.mode != tt.wantMode {
				t.Errorf("got mode %s, want %s", s.mode, tt.wantMode)
			}
		})
	}
}

func TestTenantResolutionWithoutAuth(t *testing.T) {
	tests := []struct {
		name       string
		tenantHdr  string
		dir        fakeDirectory
		wantStatus int
		wantTenant string
	}{
		{"tenant header by slug", "acme", testDirs, 200, "acme"},
		{"tenant header by id", globex.ID.String(), testDirs, 200, "globex"},
		{"missing header", "", testDirs, 400, ""},
		{"unknown tenant", "umbrella", testDirs, 404, ""},
		{"directory failure", "acme", fakeDirectory{err: errors.New("connection refused")}, 500, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, s := tenantHandler(t, nil, tt.dir)

			req := httptest.NewRequest(http.MethodGet, "/api/suppliers", nil)
			if tt.tenantHdr != "" {
				req.Header.Set(gateway.TenantHeader, tt.tenantHdr)
			}
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)

			if rr.Code != tt.wantStatus {
				t.Fatalf("got status %d, want %d", rr.Code, tt.wantStatus)
			}
			if tt.wantTenant != "" && (s.tenant == nil || s.tenant.Slug != tt.wantTenant) {
				t.Errorf("got tenant %+v, want %s", s.tenant, tt.wantTenant)
			}
			if s.claims != nil {
				t.Error("unexpected claims without authentication")
			}
		})
	}
}

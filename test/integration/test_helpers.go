//go:build integration

// functions that are useful in integration tests

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/information-sharing-networks/eudr-dashboard/internal/auth"
	"github.com/information-sharing-networks/eudr-dashboard/internal/gateway"
	"github.com/information-sharing-networks/eudr-dashboard/internal/schema"
)

const testIssuer = "https://auth.eudr.test"

// recordedRequest is a request received by a fake backend
type recordedRequest struct {
	Method string
	Path   string
	Header http.Header
	Body   []byte
}

// fakeBackend stands in for the Go or legacy API.
// Responses are chosen by the handler so tests can switch the status mid-test.
type fakeBackend struct {
	*httptest.Server

	mu       sync.Mutex
	status   int
	body     string
	received []recordedRequest
}

func newFakeBackend(t *testing.T, status int, body string) *fakeBackend {
	t.Helper()

	b := &fakeBackend{status: status, body: body}
	b.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqBody, _ := io.ReadAll(r.Body)

		b.mu.Lock()
		b.received = append(b.received, recordedRequest{
			Method: r.Method,
			Path:   r.URL.Path,
			Header: r.Header.Clone(),
			Body:   reqBody,
		})
		status, body := b.status, b.body
		b.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(b.Close)
	return b
}

func (b *fakeBackend) respondWith(status int, body string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.status, b.body = status, body
}

func (b *fakeBackend) requests() []recordedRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]recordedRequest(nil), b.received...)
}

// createTestTenant registers a tenant in the test database
func createTestTenant(t *testing.T, env *testEnv, slug string, active bool, backendMode string) *schema.Tenant {
	t.Helper()
	ctx := context.Background()

	tenant, err := env.tenants.CreateTenant(ctx, schema.NewTenant{
		Slug:        slug,
		Name:        slug + " trading",
		BackendMode: backendMode,
	})
	if err != nil {
		t.Fatalf("Failed to create tenant %s: %v", slug, err)
	}

	if !active {
		tenant, err = env.tenants.SetActive(ctx, slug, false)
		if err != nil {
			t.Fatalf("Failed to deactivate tenant %s: %v", slug, err)
		}
	}
	return tenant
}

// mintTestToken signs a token for the tenant with the test key
func mintTestToken(t *testing.T, env *testEnv, tenantID string) string {
	t.Helper()

	token, _, err := auth.Mint(env.signingKey, auth.Claims{
		Subject:  "integration-test",
		TenantID: tenantID,
		Email:    "analyst@eudr.test",
		Role:     schema.Role("admin"),
	}, auth.MintOptions{
		TTL:    5 * time.Minute,
		Issuer: testIssuer,
	})
	if err != nil {
		t.Fatalf("Failed to mint token: %v", err)
	}
	return token
}

// doRequest sends a request to the gateway
func doRequest(t *testing.T, method, url, token string, body any, header http.Header) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("Failed to marshal request body: %v", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("Failed to create request: %v", err)
	}
	for k, vv := range header {
		for _, v := range vv {
			req.Header.Add(k, v)
		}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Request %s %s failed: %v", method, url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

// decodeErrorResponse decodes a gateway error response and returns the first error code
func decodeErrorResponse(t *testing.T, resp *http.Response) gateway.ErrorCode {
	t.Helper()

	var errResp gateway.ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&errResp); err != nil {
		t.Fatalf("Failed to decode error response: %v", err)
	}
	if len(errResp.Errors) == 0 {
		t.Fatalf("Error response has no errors: %+v", errResp)
	}
	return errResp.Errors[0].ErrorCode
}

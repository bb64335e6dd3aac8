package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/information-sharing-networks/eudr-dashboard/internal/apirouter"
	"github.com/information-sharing-networks/eudr-dashboard/internal/auth"
	"github.com/information-sharing-networks/eudr-dashboard/internal/schema"
)

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// recordedRequest is a request received by a fake backend
type recordedRequest struct {
	Method string
	Path   string
	Query  string
	Header http.Header
	Body   string
}

// fakeAPI is a backend that records the requests it receives
type fakeAPI struct {
	*httptest.Server
	mu       sync.Mutex
	requests []recordedRequest
}

func newFakeAPI(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) *fakeAPI {
	t.Helper()
	f := &fakeAPI{}
	f.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		f.mu.Lock()
		f.requests = append(f.requests, recordedRequest{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.RawQuery,
			Header: r.Header.Clone(),
			Body:   string(body),
		})
		f.mu.Unlock()
		handler(w, r)
	}))
	t.Cleanup(f.Close)
	return f
}

func (f *fakeAPI) received() []recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]recordedRequest(nil), f.requests...)
}

func jsonHandler(status int, v any) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(v)
	}
}

func newTestClient(t *testing.T, primary, secondary string, opts ...Option) *Client {
	t.Helper()
	router, err := apirouter.New(apirouter.Config{
		PrimaryURL:   primary,
		SecondaryURL: secondary,
		Mode:         apirouter.ModeAuto,
		Fallback:     true,
	}, testLogger())
	if err != nil {
		t.Fatalf("apirouter.New: %v", err)
	}

	opts = append([]Option{WithLogger(testLogger()), WithTenant("acme"), WithTokenSource(StaticToken("secret"))}, opts...)
	c, err := New(router, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestRequestSetsHeadersAndDecodes(t *testing.T) {
	want := []schema.Supplier{{ID: uuid.New(), Name: "Cacao Cooperative", Country: "CI"}}
	primary := newFakeAPI(t, jsonHandler(http.StatusOK, want))
	secondary := newFakeAPI(t, jsonHandler(http.StatusOK, nil))

	c := newTestClient(t, primary.URL, secondary.URL)

	got, err := c.Suppliers().List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 1 || got[0].ID != want[0].ID {
		t.Errorf("got %+v, want %+v", got, want)
	}

	reqs := primary.received()
	if len(reqs) != 1 {
		t.Fatalf("primary received %d requests, want 1", len(reqs))
	}
	if len(secondary.received()) != 0 {
		t.Error("secondary should not be called")
	}

	h := reqs[0].Header
	if got := h.Get("Authorization"); got != "Bearer secret" {
		t.Errorf("Authorization = %q", got)
	}
	if got := h.Get(TenantHeader); got != "acme" {
		t.Errorf("X-Tenant-ID = %q", got)
	}
	if got := h.Get("Accept"); got != "application/json" {
		t.Errorf("Accept = %q", got)
	}
}

func TestRequestFallsBackToLegacy(t *testing.T) {
	primary := newFakeAPI(t, jsonHandler(http.StatusNotImplemented, map[string]string{"message": "not yet"}))
	secondary := newFakeAPI(t, jsonHandler(http.StatusOK, schema.DashboardStats{TotalSuppliers: 12}))

	c := newTestClient(t, primary.URL, secondary.URL)

	var stats schema.DashboardStats
	info, err := c.Do(context.Background(), http.MethodGet, "/api/dashboard/stats", nil, &stats)
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if stats.TotalSuppliers != 12 {
		t.Errorf("TotalSuppliers = %d", stats.TotalSuppliers)
	}
	if info.Backend != apirouter.BackendSecondary || info.Attempts != 2 {
		t.Errorf("info = %+v, want legacy after 2 attempts", info)
	}
}

func TestRequestLegacyOnlyEndpoint(t *testing.T) {
	primary := newFakeAPI(t, jsonHandler(http.StatusOK, nil))
	secondary := newFakeAPI(t, jsonHandler(http.StatusOK, schema.SAQRequest{Status: schema.SAQSubmitted}))

	c := newTestClient(t, primary.URL, secondary.URL)

	res, err := c.SAQs().Submit(context.Background(), uuid.New(), nil, schema.SAQSubmission{Answers: map[string]string{"q1": "yes"}})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if res.Status != schema.SAQSubmitted {
		t.Errorf("Status = %s", res.Status)
	}
	if len(primary.received()) != 0 {
		t.Error("SAQ submission is not implemented by the Go API and should go straight to legacy")
	}
}

func TestRequestAPIError(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantMessage string
	}{
		{"message field", http.StatusBadRequest, `{"message":"name is required"}`, "name is required"},
		{"error field", http.StatusConflict, `{"error":"supplier exists"}`, "supplier exists"},
		{"gateway envelope", http.StatusForbidden, `{"statusCodeMessage":"forbidden","errors":[{"errorCode":8002,"errorCodeMessage":"tenant is inactive"}]}`, "tenant is inactive"},
		{"plain text", http.StatusInternalServerError, "boom\n", "boom"},
		{"empty body", http.StatusUnauthorized, "", "Unauthorized"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			secondary := newFakeAPI(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})
			c := newTestClient(t, "", secondary.URL)

			err := c.Request(context.Background(), http.MethodGet, "/api/tenant", nil, nil)

			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("expected *APIError, got %v", err)
			}
			if apiErr.StatusCode != tt.status {
				t.Errorf("StatusCode = %d, want %d", apiErr.StatusCode, tt.status)
			}
			if apiErr.Message != tt.wantMessage {
				t.Errorf("Message = %q, want %q", apiErr.Message, tt.wantMessage)
			}
			if apiErr.Backend != apirouter.BackendSecondary {
				t.Errorf("Backend = %s", apiErr.Backend)
			}
		})
	}
}

func TestRequestIsNotFound(t *testing.T) {
	secondary := newFakeAPI(t, jsonHandler(http.StatusNotFound, map[string]string{"message": "no such supplier"}))
	c := newTestClient(t, "", secondary.URL)

	_, err := c.Suppliers().Get(context.Background(), uuid.New())
	if !IsNotFound(err) {
		t.Errorf("IsNotFound(%v) = false", err)
	}
}

func TestRequestValidatesBodyBeforeSending(t *testing.T) {
	primary := newFakeAPI(t, jsonHandler(http.StatusCreated, nil))
	secondary := newFakeAPI(t, jsonHandler(http.StatusCreated, nil))
	c := newTestClient(t, primary.URL, secondary.URL)

	_, err := c.Suppliers().Create(context.Background(), schema.NewSupplier{Name: "X"})

	var verrs schema.ValidationErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("expected ValidationErrors, got %v", err)
	}
	if len(primary.received())+len(secondary.received()) != 0 {
		t.Error("invalid form should not be sent")
	}
}

func TestRequestRejectsNilPointerBody(t *testing.T) {
	primary := newFakeAPI(t, jsonHandler(http.StatusCreated, nil))
	c := newTestClient(t, primary.URL, "")

	err := c.Request(context.Background(), http.MethodPost, "/api/suppliers", (*schema.NewSupplier)(nil), nil)
	if err == nil {
		t.Fatal("expected an error for a nil body pointer")
	}
	if len(primary.received()) != 0 {
		t.Error("a nil body should not be sent")
	}
}

func TestRequestChecksSAQAnswers(t *testing.T) {
	secondary := newFakeAPI(t, jsonHandler(http.StatusOK, nil))
	c := newTestClient(t, "", secondary.URL)

	tmpl := &schema.SAQTemplate{Questions: []schema.SAQQuestion{{ID: "q1", Type: schema.QuestionYesNo, Required: true}}}
	_, err := c.SAQs().Submit(context.Background(), uuid.New(), tmpl, schema.SAQSubmission{Answers: map[string]string{"q1": "perhaps"}})

	var aerrs schema.AnswerErrors
	if !errors.As(err, &aerrs) {
		t.Fatalf("expected AnswerErrors, got %v", err)
	}
	if len(secondary.received()) != 0 {
		t.Error("invalid answers should not be sent")
	}
}

func TestRequestQueryAndBody(t *testing.T) {
	primary := newFakeAPI(t, jsonHandler(http.StatusOK, []schema.RiskAssessment{}))
	c := newTestClient(t, primary.URL, "")

	supplierID := uuid.New()
	if _, err := c.RiskAssessments().List(context.Background(), supplierID); err != nil {
		t.Fatalf("List: %v", err)
	}

	primaryCreate := newFakeAPI(t, jsonHandler(http.StatusCreated, schema.RiskAssessment{Score: 45, Level: schema.RiskStandard}))
	c = newTestClient(t, primaryCreate.URL, "")
	got, err := c.RiskAssessments().Create(context.Background(), schema.NewRiskAssessment{SupplierID: supplierID, Score: 45})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if got.Level != schema.RiskStandard {
		t.Errorf("Level = %s", got.Level)
	}

	listReq := primary.received()[0]
	if listReq.Path != "/api/risk-assessments" || listReq.Query != "supplier_id="+supplierID.String() {
		t.Errorf("list request = %s?%s", listReq.Path, listReq.Query)
	}

	createReq := primaryCreate.received()[0]
	if createReq.Header.Get("Content-Type") != "application/json" {
		t.Errorf("Content-Type = %q", createReq.Header.Get("Content-Type"))
	}
	var sent schema.NewRiskAssessment
	if err := json.Unmarshal([]byte(createReq.Body), &sent); err != nil {
		t.Fatalf("request body is not JSON: %v", err)
	}
	if sent.SupplierID != supplierID || sent.Score != 45 {
		t.Errorf("sent = %+v", sent)
	}
}

func TestRequestNoContent(t *testing.T) {
	primary := newFakeAPI(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	c := newTestClient(t, primary.URL, "")

	if err := c.Suppliers().Delete(context.Background(), uuid.New()); err != nil {
		t.Errorf("Delete: %v", err)
	}
}

func TestRequestBackendHeaderFromGateway(t *testing.T) {
	gateway := newFakeAPI(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set(BackendHeader, "go")
		w.Header().Set("X-Request-ID", "req-1")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	c := newTestClient(t, "", gateway.URL)

	info, err := c.Health(context.Background())
	if err != nil {
		t.Fatalf("Health: %v", err)
	}
	if info.Backend != apirouter.BackendPrimary {
		t.Errorf("Backend = %s, want go", info.Backend)
	}
	if info.RequestID != "req-1" {
		t.Errorf("RequestID = %s", info.RequestID)
	}
}

func TestRequestTransportError(t *testing.T) {
	down := httptest.NewServer(http.NotFoundHandler())
	down.Close()

	c := newTestClient(t, "", down.URL)
	err := c.Request(context.Background(), http.MethodGet, "/api/tenant", nil, nil)
	if !errors.Is(err, apirouter.ErrNoBackend) {
		t.Errorf("err = %v, want ErrNoBackend", err)
	}
}

func TestRequestInvalidPath(t *testing.T) {
	c := newTestClient(t, "http://localhost:1", "")
	if err := c.Request(context.Background(), http.MethodGet, "api/tenant", nil, nil); err == nil {
		t.Error("expected error for relative path")
	}
}

func TestTokenSourceError(t *testing.T) {
	primary := newFakeAPI(t, jsonHandler(http.StatusOK, nil))
	failing := TokenSourceFunc(func(context.Context) (string, error) { return "", errors.New("no credentials") })
	c := newTestClient(t, primary.URL, "", WithTokenSource(failing))

	if err := c.Request(context.Background(), http.MethodGet, "/api/tenant", nil, nil); err == nil || !strings.Contains(err.Error(), "no credentials") {
		t.Errorf("err = %v", err)
	}
	if len(primary.received()) != 0 {
		t.Error("request should not be sent without a token")
	}
}

func TestSignedTokenSourceCaches(t *testing.T) {
	key, err := auth.GenerateSigningKey(auth.KeyTypeEd25519, 0)
	if err != nil {
		t.Fatalf("GenerateSigningKey: %v", err)
	}

	now := time.Now()
	clock := func() time.Time { return now }

	ts, err := NewSignedTokenSource(key, auth.Claims{Subject: "eudrctl", TenantID: "acme"}, auth.MintOptions{TTL: 10 * time.Minute, Now: clock})
	if err != nil {
		t.Fatalf("NewSignedTokenSource: %v", err)
	}

	first, err := ts.Token(context.Background())
	if err != nil {
		t.Fatalf("Token: %v", err)
	}
	second, _ := ts.Token(context.Background())
	if first != second {
		t.Error("token should be reused while it is fresh")
	}

	// within a minute of expiry a new token is minted
	now = now.Add(9*time.Minute + 30*time.Second)
	third, _ := ts.Token(context.Background())
	if third == first {
		t.Error("token should be renewed close to expiry")
	}

	if _, err := NewSignedTokenSource(key, auth.Claims{}, auth.MintOptions{TTL: time.Second}); err == nil {
		t.Error("expected error for a TTL below 10s")
	}
}

func TestNewRequiresTransport(t *testing.T) {
	if _, err := New(nil); err == nil {
		t.Error("expected error for nil transport")
	}
}

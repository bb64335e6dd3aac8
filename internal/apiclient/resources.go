package apiclient

import (
	"context"
	"net/http"
	"net/url"

	"github.com/google/uuid"

	"github.com/information-sharing-networks/eudr-dashboard/internal/schema"
)

func get[T any](ctx context.Context, c *Client, path string) (*T, error) {
	var out T
	if err := c.Request(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func list[T any](ctx context.Context, c *Client, path string, query url.Values) ([]T, error) {
	if len(query) > 0 {
		path += "?" + query.Encode()
	}
	var out []T
	if err := c.Request(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func send[T any](ctx context.Context, c *Client, method, path string, body any) (*T, error) {
	var out T
	if err := c.Request(ctx, method, path, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Tenant returns the tenant the client acts for
func (c *Client) Tenant(ctx context.Context) (*schema.Tenant, error) {
	return get[schema.Tenant](ctx, c, "/api/tenant")
}

// Health calls the API health endpoint and reports which backend answered
func (c *Client) Health(ctx context.Context) (*ResponseInfo, error) {
	return c.Do(ctx, http.MethodGet, "/api/health", nil, nil)
}

// Users manages the tenant's dashboard users
type Users struct{ c *Client }

func (c *Client) Users() *Users { return &Users{c} }

func (r *Users) List(ctx context.Context) ([]schema.User, error) {
	return list[schema.User](ctx, r.c, "/api/users", nil)
}

func (r *Users) Invite(ctx context.Context, invite schema.UserInvite) (*schema.User, error) {
	return send[schema.User](ctx, r.c, http.MethodPost, "/api/users/invite", invite)
}

// Suppliers manages the tenant's suppliers
type Suppliers struct{ c *Client }

func (c *Client) Suppliers() *Suppliers { return &Suppliers{c} }

func (r *Suppliers) List(ctx context.Context) ([]schema.Supplier, error) {
	return list[schema.Supplier](ctx, r.c, "/api/suppliers", nil)
}

func (r *Suppliers) Get(ctx context.Context, id uuid.UUID) (*schema.Supplier, error) {
	return get[schema.Supplier](ctx, r.c, "/api/suppliers/"+id.String())
}

func (r *Suppliers) Create(ctx context.Context, s schema.NewSupplier) (*schema.Supplier, error) {
	return send[schema.Supplier](ctx, r.c, http.MethodPost, "/api/suppliers", s)
}

func (r *Suppliers) Update(ctx context.Context, id uuid.UUID, s schema.NewSupplier) (*schema.Supplier, error) {
	return send[schema.Supplier](ctx, r.c, http.MethodPut, "/api/suppliers/"+id.String(), s)
}

func (r *Suppliers) Delete(ctx context.Context, id uuid.UUID) error {
	return r.c.Request(ctx, http.MethodDelete, "/api/suppliers/"+id.String(), nil, nil)
}

// Plots manages the production plots of a supplier
type Plots struct{ c *Client }

func (c *Client) Plots() *Plots { return &Plots{c} }

func (r *Plots) List(ctx context.Context, supplierID uuid.UUID) ([]schema.Plot, error) {
	return list[schema.Plot](ctx, r.c, "/api/suppliers/"+supplierID.String()+"/plots", nil)
}

func (r *Plots) Create(ctx context.Context, supplierID uuid.UUID, p schema.NewPlot) (*schema.Plot, error) {
	return send[schema.Plot](ctx, r.c, http.MethodPost, "/api/suppliers/"+supplierID.String()+"/plots", p)
}

// Products manages the relevant products the tenant places on the market
type Products struct{ c *Client }

func (c *Client) Products() *Products { return &Products{c} }

func (r *Products) List(ctx context.Context) ([]schema.Product, error) {
	return list[schema.Product](ctx, r.c, "/api/products", nil)
}

func (r *Products) Get(ctx context.Context, id uuid.UUID) (*schema.Product, error) {
	return get[schema.Product](ctx, r.c, "/api/products/"+id.String())
}

func (r *Products) Create(ctx context.Context, p schema.NewProduct) (*schema.Product, error) {
	return send[schema.Product](ctx, r.c, http.MethodPost, "/api/products", p)
}

func (r *Products) Update(ctx context.Context, id uuid.UUID, p schema.NewProduct) (*schema.Product, error) {
	return send[schema.Product](ctx, r.c, http.MethodPut, "/api/products/"+id.String(), p)
}

// RiskAssessments records supplier risk assessments
type RiskAssessments struct{ c *Client }

func (c *Client) RiskAssessments() *RiskAssessments { return &RiskAssessments{c} }

// List returns the assessments of one supplier, or of all suppliers when supplierID is uuid.Nil
func (r *RiskAssessments) List(ctx context.Context, supplierID uuid.UUID) ([]schema.RiskAssessment, error) {
	query := url.Values{}
	if supplierID != uuid.Nil {
		query.Set("supplier_id", supplierID.String())
	}
	return list[schema.RiskAssessment](ctx, r.c, "/api/risk-assessments", query)
}

func (r *RiskAssessments) Create(ctx context.Context, a schema.NewRiskAssessment) (*schema.RiskAssessment, error) {
	return send[schema.RiskAssessment](ctx, r.c, http.MethodPost, "/api/risk-assessments", a)
}

// Statements manages due diligence statements
type Statements struct{ c *Client }

func (c *Client) Statements() *Statements { return &Statements{c} }

func (r *Statements) List(ctx context.Context) ([]schema.DueDiligenceStatement, error) {
	return list[schema.DueDiligenceStatement](ctx, r.c, "/api/dds", nil)
}

func (r *Statements) Get(ctx context.Context, id uuid.UUID) (*schema.DueDiligenceStatement, error) {
	return get[schema.DueDiligenceStatement](ctx, r.c, "/api/dds/"+id.String())
}

func (r *Statements) Create(ctx context.Context, s schema.NewDueDiligenceStatement) (*schema.DueDiligenceStatement, error) {
	return send[schema.DueDiligenceStatement](ctx, r.c, http.MethodPost, "/api/dds", s)
}

// Submit submits a draft statement to the EU information system
func (r *Statements) Submit(ctx context.Context, id uuid.UUID) (*schema.DueDiligenceStatement, error) {
	return send[schema.DueDiligenceStatement](ctx, r.c, http.MethodPost, "/api/dds/"+id.String()+"/submit", nil)
}

// SAQs manages self-assessment questionnaires sent to suppliers
type SAQs struct{ c *Client }

func (c *Client) SAQs() *SAQs { return &SAQs{c} }

func (r *SAQs) Templates(ctx context.Context) ([]schema.SAQTemplate, error) {
	return list[schema.SAQTemplate](ctx, r.c, "/api/saq/templates", nil)
}

// Send sends a questionnaire to a supplier
func (r *SAQs) Send(ctx context.Context, req schema.NewSAQRequest) (*schema.SAQRequest, error) {
	return send[schema.SAQRequest](ctx, r.c, http.MethodPost, "/api/saq/requests", req)
}

// List returns the questionnaires sent by the tenant, optionally filtered by status
func (r *SAQs) List(ctx context.Context, status schema.SAQStatus) ([]schema.SAQRequest, error) {
	query := url.Values{}
	if status != "" {
		query.Set("status", string(status))
	}
	return list[schema.SAQRequest](ctx, r.c, "/api/saq/requests", query)
}

func (r *SAQs) Get(ctx context.Context, id uuid.UUID) (*schema.SAQRequest, error) {
	return get[schema.SAQRequest](ctx, r.c, "/api/saq/requests/"+id.String())
}

// Submit submits a supplier's answers. When tmpl is not nil the answers are checked against it first.
func (r *SAQs) Submit(ctx context.Context, id uuid.UUID, tmpl *schema.SAQTemplate, sub schema.SAQSubmission) (*schema.SAQRequest, error) {
	if tmpl != nil {
		if err := tmpl.CheckAnswers(sub.Answers); err != nil {
			return nil, err
		}
	}
	return send[schema.SAQRequest](ctx, r.c, http.MethodPost, "/api/saq/requests/"+id.String()+"/submit", sub)
}

// Dashboard serves the dashboard summary figures
type Dashboard struct{ c *Client }

func (c *Client) Dashboard() *Dashboard { return &Dashboard{c} }

func (r *Dashboard) Stats(ctx context.Context) (*schema.DashboardStats, error) {
	return get[schema.DashboardStats](ctx, r.c, "/api/dashboard/stats")
}

// Package schema defines the tenant scoped domain model shared by the API client, the gateway and the CLI.
//
// Each entity has a select type (as returned by the API, including ids and timestamps) and, where the
// dashboard creates it, an insert type (as accepted by the API). Insert types carry the form validation
// rules in `validate` struct tags (see Validate).
package schema

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Role is the role of a dashboard user within a tenant
type Role string

const (
	RoleAdmin             Role = "admin"
	RoleComplianceOfficer Role = "compliance_officer"
	RoleViewer            Role = "viewer"
	RoleSupplier          Role = "supplier"
)

// Commodity is one of the relevant commodities listed in the EU Deforestation Regulation (Article 1)
type Commodity string

const (
	CommodityCattle  Commodity = "cattle"
	CommodityCocoa   Commodity = "cocoa"
	CommodityCoffee  Commodity = "coffee"
	CommodityOilPalm Commodity = "oil_palm"
	CommodityRubber  Commodity = "rubber"
	CommoditySoya    Commodity = "soya"
	CommodityWood    Commodity = "wood"
)

// Commodities returns all relevant commodities
func Commodities() []Commodity {
	return []Commodity{
		CommodityCattle,
		CommodityCocoa,
		CommodityCoffee,
		CommodityOilPalm,
		CommodityRubber,
		CommoditySoya,
		CommodityWood,
	}
}

// RiskLevel is the outcome of a supplier risk assessment
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskStandard RiskLevel = "standard"
	RiskHigh     RiskLevel = "high"
)

// ComplianceStatus is the supplier compliance status shown on the dashboard
type ComplianceStatus string

const (
	CompliancePending      ComplianceStatus = "pending"
	ComplianceUnderReview  ComplianceStatus = "under_review"
	ComplianceCompliant    ComplianceStatus = "compliant"
	ComplianceNonCompliant ComplianceStatus = "non_compliant"
)

// StatementStatus is the lifecycle status of a due diligence statement
type StatementStatus string

const (
	StatementDraft     StatementStatus = "draft"
	StatementSubmitted StatementStatus = "submitted"
	StatementAccepted  StatementStatus = "accepted"
	StatementRejected  StatementStatus = "rejected"
)

// SAQStatus is the status of a self-assessment questionnaire sent to a supplier
type SAQStatus string

const (
	SAQSent       SAQStatus = "sent"
	SAQInProgress SAQStatus = "in_progress"
	SAQSubmitted  SAQStatus = "submitted"
	SAQReviewed   SAQStatus = "reviewed"
)

// Tenant is an isolated customer organisation
type Tenant struct {
	ID          uuid.UUID `json:"id"`
	Slug        string    `json:"slug"`
	Name        string    `json:"name"`
	Active      bool      `json:"active"`
	BackendMode string    `json:"backend_mode"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewTenant is the input used to register a tenant
type NewTenant struct {
	Slug        string `json:"slug" validate:"required,min=3,max=63,slug"`
	Name        string `json:"name" validate:"required,min=2,max=200"`
	BackendMode string `json:"backend_mode,omitempty" validate:"omitempty,oneof=auto primary secondary"`
}

// User is a dashboard user
type User struct {
	ID        uuid.UUID `json:"id"`
	TenantID  uuid.UUID `json:"tenant_id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// UserInvite invites a user to the current tenant
type UserInvite struct {
	Email string `json:"email" validate:"required,email"`
	Name  string `json:"name" validate:"required,min=2,max=200"`
	Role  Role   `json:"role" validate:"required,oneof=admin compliance_officer viewer supplier"`
}

// Supplier is an operator or trader upstream in the supply chain
type Supplier struct {
	ID               uuid.UUID        `json:"id"`
	TenantID         uuid.UUID        `json:"tenant_id"`
	Name             string           `json:"name"`
	Country          string           `json:"country"`
	ContactName      string           `json:"contact_name"`
	ContactEmail     string           `json:"contact_email"`
	Commodities      []Commodity      `json:"commodities"`
	RiskLevel        RiskLevel        `json:"risk_level"`
	ComplianceStatus ComplianceStatus `json:"compliance_status"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

// NewSupplier is the supplier form
type NewSupplier struct {
	Name         string      `json:"name" validate:"required,min=2,max=200"`
	Country      string      `json:"country" validate:"required,iso3166_1_alpha2"`
	ContactName  string      `json:"contact_name" validate:"required,min=2,max=200"`
	ContactEmail string      `json:"contact_email" validate:"required,email"`
	Commodities  []Commodity `json:"commodities" validate:"required,min=1,dive,commodity"`
}

// Product is a relevant product placed on the EU market
type Product struct {
	ID          uuid.UUID `json:"id"`
	TenantID    uuid.UUID `json:"tenant_id"`
	SupplierID  uuid.UUID `json:"supplier_id"`
	Name        string    `json:"name"`
	Commodity   Commodity `json:"commodity"`
	HSCode      string    `json:"hs_code"`
	QuantityKg  float64   `json:"quantity_kg"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewProduct is the product form
type NewProduct struct {
	SupplierID  uuid.UUID `json:"supplier_id" validate:"required"`
	Name        string    `json:"name" validate:"required,min=2,max=200"`
	Commodity   Commodity `json:"commodity" validate:"required,commodity"`
	HSCode      string    `json:"hs_code" validate:"required,numeric,min=4,max=10"`
	QuantityKg  float64   `json:"quantity_kg" validate:"gte=0"`
	Description string    `json:"description,omitempty" validate:"max=2000"`
}

// Plot is a geolocated plot of land where a commodity was produced
type Plot struct {
	ID           uuid.UUID       `json:"id"`
	TenantID     uuid.UUID       `json:"tenant_id"`
	SupplierID   uuid.UUID       `json:"supplier_id"`
	Name         string          `json:"name"`
	Country      string          `json:"country"`
	Latitude     float64         `json:"latitude"`
	Longitude    float64         `json:"longitude"`
	AreaHectares float64         `json:"area_hectares"`
	Geometry     json.RawMessage `json:"geometry,omitempty"`

	// DeforestationFree is nil until the plot has been checked against the 31 December 2020 cut-off
	DeforestationFree *bool     `json:"deforestation_free,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
}

// NewPlot is the plot form. Plots larger than four hectares must be described by a polygon geometry.
type NewPlot struct {
	Name         string          `json:"name" validate:"required,min=2,max=200"`
	Country      string          `json:"country" validate:"required,iso3166_1_alpha2"`
	Latitude     float64         `json:"latitude" validate:"latitude"`
	Longitude    float64         `json:"longitude" validate:"longitude"`
	AreaHectares float64         `json:"area_hectares" validate:"gt=0"`
	Geometry     json.RawMessage `json:"geometry,omitempty" validate:"required_if_large_plot"`
}

// PolygonRequiredHectares is the plot size above which a polygon geometry is required
const PolygonRequiredHectares = 4.0

// RiskAssessment records the risk assessment of a supplier
type RiskAssessment struct {
	ID         uuid.UUID `json:"id"`
	TenantID   uuid.UUID `json:"tenant_id"`
	SupplierID uuid.UUID `json:"supplier_id"`
	Score      int       `json:"score"`
	Level      RiskLevel `json:"level"`
	Notes      string    `json:"notes,omitempty"`
	AssessedAt time.Time `json:"assessed_at"`
}

// NewRiskAssessment is the risk assessment form
type NewRiskAssessment struct {
	SupplierID uuid.UUID `json:"supplier_id" validate:"required"`
	Score      int       `json:"score" validate:"gte=0,lte=100"`
	Notes      string    `json:"notes,omitempty" validate:"max=4000"`
}

// RiskLevelForScore maps a 0-100 risk score to a risk level
func RiskLevelForScore(score int) RiskLevel {
	switch {
	case score < 30:
		return RiskLow
	case score < 70:
		return RiskStandard
	default:
		return RiskHigh
	}
}

// DueDiligenceStatement is the statement submitted to the EU information system before placing products on the market
type DueDiligenceStatement struct {
	ID              uuid.UUID       `json:"id"`
	TenantID        uuid.UUID       `json:"tenant_id"`
	ReferenceNumber string          `json:"reference_number,omitempty"`
	OperatorName    string          `json:"operator_name"`
	ProductIDs      []uuid.UUID     `json:"product_ids"`
	Status          StatementStatus `json:"status"`
	SubmittedAt     *time.Time      `json:"submitted_at,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}

// NewDueDiligenceStatement is the statement form
type NewDueDiligenceStatement struct {
	OperatorName string      `json:"operator_name" validate:"required,min=2,max=200"`
	ProductIDs   []uuid.UUID `json:"product_ids" validate:"required,min=1"`
}

// DashboardStats are the headline figures shown on the dashboard
type DashboardStats struct {
	TotalSuppliers      int     `json:"total_suppliers"`
	CompliantSuppliers  int     `json:"compliant_suppliers"`
	HighRiskSuppliers   int     `json:"high_risk_suppliers"`
	PendingSAQs         int     `json:"pending_saqs"`
	SubmittedStatements int     `json:"submitted_statements"`
	ComplianceRate      float64 `json:"compliance_rate"`
}

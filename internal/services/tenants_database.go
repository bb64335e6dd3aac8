package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/information-sharing-networks/eudr-dashboard/internal/apirouter"
	"github.com/information-sharing-networks/eudr-dashboard/internal/database"
	"github.com/information-sharing-networks/eudr-dashboard/internal/schema"
)

// pgUniqueViolation is the PostgreSQL error code for unique constraint violations
const pgUniqueViolation = "23505"

// DatabaseTenants reads tenants from the tenants table. It also provides the write operations used by eudrctl.
type DatabaseTenants struct {
	queries *database.Queries
}

func NewDatabaseTenants(queries *database.Queries) *DatabaseTenants {
	return &DatabaseTenants{queries: queries}
}

func (d *DatabaseTenants) LookupTenant(ctx context.Context, ref string) (*schema.Tenant, error) {
	var (
		row database.Tenant
		err error
	)
	if id, parseErr := uuid.Parse(ref); parseErr == nil {
		row, err = d.queries.GetTenantByID(ctx, id)
	} else {
		row, err = d.queries.GetTenantBySlug(ctx, ref)
	}
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTenantNotFound
		}
		return nil, fmt.Errorf("failed to fetch tenant: %w", err)
	}
	return tenantFromRow(row), nil
}

func (d *DatabaseTenants) ListTenants(ctx context.Context) ([]schema.Tenant, error) {
	rows, err := d.queries.ListTenants(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list tenants: %w", err)
	}
	out := make([]schema.Tenant, 0, len(rows))
	for _, row := range rows {
		out = append(out, *tenantFromRow(row))
	}
	return out, nil
}

// CreateTenant registers a new active tenant. Returns ErrTenantExists if the slug is taken.
func (d *DatabaseTenants) CreateTenant(ctx context.Context, t schema.NewTenant) (*schema.Tenant, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}

	row, err := d.queries.CreateTenant(ctx, database.CreateTenantParams{
		Slug:        t.Slug,
		Name:        t.Name,
		Active:      true,
		BackendMode: t.BackendMode,
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return nil, fmt.Errorf("%w: %s", ErrTenantExists, t.Slug)
		}
		return nil, fmt.Errorf("failed to create tenant: %w", err)
	}
	return tenantFromRow(row), nil
}

// SetBackendMode changes the routing mode of a tenant ("" uses the gateway default)
func (d *DatabaseTenants) SetBackendMode(ctx context.Context, ref string, mode string) (*schema.Tenant, error) {
	if mode != "" {
		parsed, err := apirouter.ParseMode(mode)
		if err != nil {
			return nil, err
		}
		mode = string(parsed)
	}

	t, err := d.LookupTenant(ctx, ref)
	if err != nil {
		return nil, err
	}

	row, err := d.queries.UpdateTenantBackendMode(ctx, database.UpdateTenantBackendModeParams{
		ID:          t.ID,
		BackendMode: mode,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update tenant: %w", err)
	}
	return tenantFromRow(row), nil
}

// SetActive activates or deactivates a tenant
func (d *DatabaseTenants) SetActive(ctx context.Context, ref string, active bool) (*schema.Tenant, error) {
	t, err := d.LookupTenant(ctx, ref)
	if err != nil {
		return nil, err
	}

	row, err := d.queries.UpdateTenantActive(ctx, database.UpdateTenantActiveParams{
		ID:     t.ID,
		Active: active,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update tenant: %w", err)
	}
	return tenantFromRow(row), nil
}

func tenantFromRow(row database.Tenant) *schema.Tenant {
	return &schema.Tenant{
		ID:          row.ID,
		Slug:        row.Slug,
		Name:        row.Name,
		Active:      row.Active,
		BackendMode: row.BackendMode,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}
}

package services

// tenants.go resolves the tenant a request is made for.
//
// To add a new tenant source:
//  1. Create a new type that implements the TenantDirectory interface
//  2. Add a case for it in NewTenantDirectory() based on the service name

import (
	"context"
	"errors"
	"fmt"

	"github.com/information-sharing-networks/eudr-dashboard/internal/config"
	"github.com/information-sharing-networks/eudr-dashboard/internal/database"
	"github.com/information-sharing-networks/eudr-dashboard/internal/schema"
)

// TenantDirectory looks up the tenants known to the gateway.
type TenantDirectory interface {
	// LookupTenant returns the tenant identified by ref, which is either the tenant id or its slug.
	// Returns ErrTenantNotFound if there is no such tenant. Inactive tenants are returned (the caller decides).
	LookupTenant(ctx context.Context, ref string) (*schema.Tenant, error)

	// ListTenants returns all tenants ordered by slug
	ListTenants(ctx context.Context) ([]schema.Tenant, error)
}

// Common errors
var (
	ErrTenantNotFound = errors.New("tenant not found")
	ErrTenantExists   = errors.New("tenant already exists")
)

// NewTenantDirectory creates a TenantDirectory based on the configuration.
func NewTenantDirectory(cfg *config.GatewayEnvironment, queries *database.Queries) (TenantDirectory, error) {
	switch cfg.TenantServiceName {
	case "static":
		return LoadStaticTenants(cfg.TenantsFile)

	case "database":
		if queries == nil {
			return nil, fmt.Errorf("tenant service %q requires a database connection", cfg.TenantServiceName)
		}
		return NewDatabaseTenants(queries), nil

	default:
		return nil, fmt.Errorf("unsupported tenant service name: %s", cfg.TenantServiceName)
	}
}

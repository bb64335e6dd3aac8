package services

import (
	"github.com/information-sharing-networks/eudr-dashboard/internal/config"
	"github.com/information-sharing-networks/eudr-dashboard/internal/database"
)

// Services aggregates the service integrations used by the gateway.
type Services struct {
	Tenants TenantDirectory
}

// NewServices creates service implementations based on configuration.
// queries may be nil when TENANT_SERVICE_NAME is not database.
func NewServices(cfg *config.GatewayEnvironment, queries *database.Queries) (*Services, error) {
	tenants, err := NewTenantDirectory(cfg, queries)
	if err != nil {
		return nil, err
	}
	return &Services{Tenants: tenants}, nil
}

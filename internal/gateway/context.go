package gateway

import (
	"context"

	"github.com/information-sharing-networks/eudr-dashboard/internal/auth"
	"github.com/information-sharing-networks/eudr-dashboard/internal/schema"
)

type tenantKey struct{}
type claimsKey struct{}

// ContextWithTenant stores the resolved tenant for the request
func ContextWithTenant(ctx context.Context, t *schema.Tenant) context.Context {
	return context.WithValue(ctx, tenantKey{}, t)
}

// TenantFromContext returns the tenant stored by the tenant middleware
func TenantFromContext(ctx context.Context) (*schema.Tenant, bool) {
	t, ok := ctx.Value(tenantKey{}).(*schema.Tenant)
	return t, ok && t != nil
}

// ContextWithClaims stores the verified token claims
func ContextWithClaims(ctx context.Context, c *auth.Claims) context.Context {
	return context.WithValue(ctx, claimsKey{}, c)
}

// ClaimsFromContext returns the verified token claims. There are none when auth is disabled.
func ClaimsFromContext(ctx context.Context) (*auth.Claims, bool) {
	c, ok := ctx.Value(claimsKey{}).(*auth.Claims)
	return c, ok && c != nil
}

package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/information-sharing-networks/eudr-dashboard/internal/apirouter"
	"github.com/information-sharing-networks/eudr-dashboard/internal/auth"
	"github.com/information-sharing-networks/eudr-dashboard/internal/gateway"
	"github.com/information-sharing-networks/eudr-dashboard/internal/logger"
	"github.com/information-sharing-networks/eudr-dashboard/internal/services"
)

// TokenVerifier verifies a bearer token (implemented by *auth.Verifier)
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*auth.Claims, error)
}

// Authenticate requires a valid bearer token and stores its claims in the request context.
func Authenticate(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				gateway.RespondWithErrorResponse(w, r, gateway.NewUnauthenticatedError("missing bearer token"))
				return
			}

			claims, err := verifier.Verify(r.Context(), token)
			if err != nil {
				gateway.RespondWithErrorResponse(w, r, gateway.WrapUnauthenticatedError(err, "invalid bearer token"))
				return
			}

			logger.ContextWithLogAttrs(r.Context(),
				slog.String("subject", claims.Subject),
			)

			next.ServeHTTP(w, r.WithContext(gateway.ContextWithClaims(r.Context(), claims)))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(h, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// ResolveTenant looks up the tenant the request is made for and stores it in the request context.
//
// When the request is authenticated the tenant comes from the token's tenant_id claim and an X-Tenant-ID header,
// if sent, must name the same tenant. Without authentication (dev only) the X-Tenant-ID header is required.
// The tenant's backend mode, if set, overrides the router mode for the request.
func ResolveTenant(directory services.TenantDirectory) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			header := strings.TrimSpace(r.Header.Get(gateway.TenantHeader))

			ref := header
			claims, authenticated := gateway.ClaimsFromContext(ctx)
			if authenticated {
				ref = claims.TenantID
			}
			if ref == "" {
				gateway.RespondWithErrorResponse(w, r, gateway.NewMalformedRequestError("missing "+gateway.TenantHeader+" header"))
				return
			}

			tenant, err := directory.LookupTenant(ctx, ref)
			if err != nil {
				if errors.Is(err, services.ErrTenantNotFound) {
					gateway.RespondWithErrorResponse(w, r, gateway.NewUnknownTenantError("unknown tenant: "+ref))
					return
				}
				gateway.RespondWithErrorResponse(w, r, gateway.WrapInternalError(err, "tenant lookup failed"))
				return
			}

			if authenticated && header != "" && header != tenant.ID.String() && header != tenant.Slug {
				gateway.RespondWithErrorResponse(w, r, gateway.NewForbiddenError("token is not valid for tenant "+header))
				return
			}

			if !tenant.Active {
				gateway.RespondWithErrorResponse(w, r, gateway.NewTenantInactiveError("tenant "+tenant.Slug+" is inactive"))
				return
			}

			logger.ContextWithLogAttrs(ctx, slog.String("tenant", tenant.Slug))

			ctx = gateway.ContextWithTenant(ctx, tenant)
			if tenant.BackendMode != "" {
				mode, err := apirouter.ParseMode(tenant.BackendMode)
				if err != nil {
					logger.ContextRequestLogger(ctx).Warn("ignoring invalid tenant backend mode",
						slog.String("tenant", tenant.Slug),
						slog.String("backend_mode", tenant.BackendMode),
					)
				} else {
					ctx = apirouter.WithMode(ctx, mode)
				}
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/information-sharing-networks/eudr-dashboard/internal/config"
	"github.com/information-sharing-networks/eudr-dashboard/internal/database"
	"github.com/information-sharing-networks/eudr-dashboard/internal/logger"
	"github.com/information-sharing-networks/eudr-dashboard/internal/server"
	"github.com/information-sharing-networks/eudr-dashboard/internal/version"
)

//	@title			eudr-gateway
//	@description	eudr-gateway routes EUDR dashboard API requests to the Go API or the legacy API.
//	@description
//	@description	## Routing
//	@description	Endpoints implemented by the Go API (see `GET /routes`) are sent there first.
//	@description	When the Go API is unavailable, returns 404/501 or is marked unhealthy, requests fall back to the legacy API.
//	@description	POST and PATCH requests only fall back when they carry an Idempotency-Key
//	@description	(the gateway derives one for JSON bodies).
//	@description
//	@description	## Common Error Responses
//	@description	All endpoints may return:
//	@description	- `413` Request body exceeds size limit
//	@description	- `429` Rate limit exceeded
//	@description	- `500` Internal server error
//	@description
//	@description	## Authentication
//	@description	Tenant API requests require a bearer token (JWT) with a `tenant_id` claim.
//	@description	When AUTH_DISABLED=true (development only) the tenant is taken from the X-Tenant-ID header.
//	@license.name	MIT

//	@tag.name			API
//	@tag.description	Tenant API (forwarded to the backends)

//	@tag.name			Common
//	@tag.description	Gateway endpoints (health, readiness, version, routes, etc.)

func main() {
	var envFile string

	cmd := &cobra.Command{
		Use:   "eudr-gateway",
		Short: "EUDR dashboard API gateway",
		Long:  `eudr-gateway authenticates tenant requests and routes them between the Go API and the legacy API`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(envFile)
		},
	}
	cmd.Flags().StringVar(&envFile, "env-file", "", "Environment file to load (default: .env when present)")

	v := version.Get()
	cmd.Version = fmt.Sprintf("%s (built %s, commit %s)", v.Version, v.BuildDate, v.GitCommit)

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(envFile string) error {
	if err := config.LoadEnvFile(envFile); err != nil {
		log.Printf("%v", err)
		os.Exit(1)
	}

	cfg, err := config.NewGatewayConfig()
	if err != nil {
		log.Printf("failed to load configuration: %v", err.Error())
		os.Exit(1)
	}

	appLogger := logger.InitLogger(logger.ParseLogLevel(cfg.LogLevel), cfg.Environment)

	appLogger.Info("Configuration loaded",
		slog.String("ENVIRONMENT", cfg.Environment),
		slog.String("HOST", cfg.Host),
		slog.Int("PORT", cfg.Port),
		slog.String("LOG_LEVEL", cfg.LogLevel),
		slog.String("PRIMARY_API_URL", cfg.PrimaryAPIURL),
		slog.String("SECONDARY_API_URL", cfg.SecondaryAPIURL),
		slog.String("BACKEND_MODE", cfg.BackendMode),
		slog.Bool("FALLBACK_ENABLED", cfg.FallbackEnabled),
		slog.Bool("AUTH_DISABLED", cfg.AuthDisabled),
		slog.String("TENANT_SERVICE_NAME", cfg.TenantServiceName),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		pool    *pgxpool.Pool
		queries *database.Queries
	)
	if cfg.TenantServiceName == "database" {
		pool, err = database.NewPool(ctx, cfg.DatabaseSettings())
		if err != nil {
			appLogger.Error("Failed to connect to database", slog.String("error", err.Error()))
			os.Exit(1)
		}
		appLogger.Info("connected to PostgreSQL")

		if cfg.DBMigrateOnStart {
			if err := database.Migrate(ctx, pool, appLogger); err != nil {
				appLogger.Error("Failed to migrate database", slog.String("error", err.Error()))
				os.Exit(1)
			}
		}

		// get the sqlc generated database queries
		queries = database.New(pool)
	}

	appLogger.Info("Starting server", slog.String("version", version.Get().Version))

	// configure the server
	server, err := server.NewServer(ctx, pool, queries, cfg, appLogger)
	if err != nil {
		appLogger.Error("Failed to create server", slog.String("error", err.Error()))
		if pool != nil {
			pool.Close()
		}
		os.Exit(1)
	}

	defer server.DatabaseShutdown()

	// start the server
	if err := server.Start(ctx); err != nil {
		appLogger.Error("Server error", slog.String("error", err.Error()))
		return err
	}

	appLogger.Info("server shutdown complete")
	return nil
}

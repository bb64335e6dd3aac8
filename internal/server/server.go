package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/information-sharing-networks/eudr-dashboard/internal/apirouter"
	"github.com/information-sharing-networks/eudr-dashboard/internal/auth"
	"github.com/information-sharing-networks/eudr-dashboard/internal/config"
	"github.com/information-sharing-networks/eudr-dashboard/internal/database"
	"github.com/information-sharing-networks/eudr-dashboard/internal/gateway"
	"github.com/information-sharing-networks/eudr-dashboard/internal/logger"
	"github.com/information-sharing-networks/eudr-dashboard/internal/metrics"
	"github.com/information-sharing-networks/eudr-dashboard/internal/server/handlers"
	gwmiddleware "github.com/information-sharing-networks/eudr-dashboard/internal/server/middleware"
	"github.com/information-sharing-networks/eudr-dashboard/internal/services"
	"github.com/information-sharing-networks/eudr-dashboard/internal/version"

	// registers the swagger document served at /docs/openapi.json
	_ "github.com/information-sharing-networks/eudr-dashboard/internal/server/docs"
)

type Server struct {
	pool      *pgxpool.Pool
	config    *config.GatewayEnvironment
	logger    *slog.Logger
	router    *chi.Mux
	apiRouter *apirouter.Router
	services  *services.Services
	keys      *auth.KeyProvider
	verifier  *auth.Verifier
	metrics   *metrics.Metrics

	// probeClient is used by the readiness checks (the request context carries the timeout)
	probeClient *http.Client
}

// NewServer creates the gateway. pool and queries may be nil when the tenant directory is not database backed.
func NewServer(
	ctx context.Context,
	pool *pgxpool.Pool,
	queries *database.Queries,
	cfg *config.GatewayEnvironment,
	logger *slog.Logger,
) (*Server, error) {
	server := &Server{
		pool:        pool,
		config:      cfg,
		logger:      logger,
		router:      chi.NewRouter(),
		probeClient: &http.Client{},
	}

	if err := server.initAPIRouter(); err != nil {
		return nil, fmt.Errorf("failed to initialize API router: %w", err)
	}

	svcs, err := services.NewServices(cfg, queries)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}
	server.services = svcs

	if err := server.initAuth(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize authentication: %w", err)
	}

	server.setupMiddleware()
	server.registerRoutes()

	return server, nil
}

func (s *Server) initAPIRouter() error {
	mode, err := apirouter.ParseMode(s.config.BackendMode)
	if err != nil {
		return err
	}

	r, err := apirouter.New(apirouter.Config{
		PrimaryURL:       s.config.PrimaryAPIURL,
		SecondaryURL:     s.config.SecondaryAPIURL,
		Mode:             mode,
		Fallback:         s.config.FallbackEnabled,
		HTTPClient:       &http.Client{Timeout: s.config.BackendTimeout},
		FailureThreshold: s.config.FailureThreshold,
		Cooldown:         s.config.FailureCooldown,
	}, s.logger)
	if err != nil {
		return err
	}

	s.metrics = metrics.New(r.PrimaryHealthy)
	r.SetObserver(s.metrics.ObserveAttempt)
	s.apiRouter = r

	for _, t := range r.Targets() {
		s.logger.Info("backend configured",
			slog.String("backend", string(t.Backend)),
			slog.String("url", t.BaseURL.Redacted()))
	}
	s.logger.Info("API routing",
		slog.String("mode", string(mode)),
		slog.Bool("fallback", s.config.FallbackEnabled),
		slog.Int("primary_endpoints", len(r.Table().Endpoints())))

	return nil
}

func (s *Server) initAuth(ctx context.Context) error {
	if s.config.AuthDisabled {
		s.logger.Warn("authentication is disabled - the tenant is taken from the X-Tenant-ID header")
		return nil
	}

	keys, err := auth.NewKeyProvider(ctx, auth.KeyProviderConfig{
		JWKSURL:            s.config.JWKSURL,
		JWKSFile:           s.config.JWKSFile,
		HTTPTimeout:        s.config.JWKCacheHTTPTimeout,
		MinRefreshInterval: s.config.JWKCacheMinRefresh,
		MaxRefreshInterval: s.config.JWKCacheMaxRefresh,
	}, s.logger)
	if err != nil {
		return err
	}

	s.keys = keys
	s.verifier = auth.NewVerifier(keys,
		auth.WithIssuer(s.config.JWTIssuer),
		auth.WithAudience(s.config.JWTAudience),
	)
	return nil
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(gwmiddleware.RequestIDHeader)
	s.router.Use(middleware.RealIP)
	s.router.Use(logger.RequestLogging(s.logger))
	s.router.Use(middleware.Recoverer)
	s.router.Use(s.metrics.Middleware)
	s.router.Use(gwmiddleware.SecurityHeaders(s.config.Environment))
	s.router.Use(gwmiddleware.CORS(s.config.AllowedOrigins))
	s.router.Use(gwmiddleware.RateLimit(s.config.RateLimitRPS, s.config.RateLimitBurst))
}

func (s *Server) registerRoutes() {
	s.router.Get("/health/live", handlers.HandleHealth)
	s.router.Get("/health/ready", handlers.HandleReadiness(s.config.ReadyProbeTimeout, s.readinessChecks()...))
	s.router.Get("/version", handlers.HandleVersion(version.Get()))
	s.router.Get("/routes", handlers.HandleRoutes(s.apiRouter))
	s.router.Handle("/metrics", s.metrics.Handler())
	s.router.Get("/docs/openapi.json", handlers.HandleOpenAPISpec)
	if s.keys != nil {
		s.router.Get("/.well-known/jwks.json", s.handleJWKS)
	}

	forwarder := gateway.NewForwarder(s.apiRouter, s.config.MaxRequestBytes)

	s.router.Route("/api", func(r chi.Router) {
		r.Use(gwmiddleware.RequestSizeLimit(s.config.MaxRequestBytes))
		if s.verifier != nil {
			r.Use(gwmiddleware.Authenticate(s.verifier))
		}
		r.Use(gwmiddleware.ResolveTenant(s.services.Tenants))
		r.Handle("/*", forwarder)
	})

	s.router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		gateway.RespondWithErrorResponse(w, r, gateway.NewRouteNotFoundError("no route for "+r.URL.Path))
	})
}

func (s *Server) readinessChecks() []handlers.ReadinessCheck {
	var checks []handlers.ReadinessCheck

	for _, t := range s.apiRouter.Targets() {
		checks = append(checks, handlers.ReadinessCheck{
			Name:  string(t.Backend),
			Group: "backends",
			Check: s.backendProbe(t),
		})
	}

	if s.pool != nil {
		checks = append(checks, handlers.ReadinessCheck{
			Name:  "database",
			Group: "database",
			Check: s.pool.Ping,
		})
	}

	if s.keys != nil {
		checks = append(checks, handlers.ReadinessCheck{
			Name:  "verification_keys",
			Group: "verification_keys",
			Check: func(ctx context.Context) error {
				if !s.keys.Ready(ctx) {
					return errors.New("verification keys not loaded")
				}
				return nil
			},
		})
	}

	return checks
}

// backendProbe calls the backend health endpoint directly (not through the router, so fallback does not hide an outage)
func (s *Server) backendProbe(t apirouter.Target) func(ctx context.Context) error {
	u := *t.BaseURL
	u.Path = strings.TrimSuffix(u.Path, "/") + s.config.ReadyProbeEndpoint
	probeURL := u.String()

	return func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, probeURL, nil)
		if err != nil {
			return err
		}
		// #nosec G704 -- the probe URL comes from server configuration
		resp, err := s.probeClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return fmt.Errorf("status %d", resp.StatusCode)
		}
		return nil
	}
}

// Router returns the HTTP handler (used in tests)
func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) Start(ctx context.Context) error {
	serverAddr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	httpServer := &http.Server{
		Addr:         serverAddr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("service listening",
			slog.String("environment", s.config.Environment),
			slog.String("address", serverAddr))

		err := httpServer.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			serverErrors <- fmt.Errorf("server failed to start: %w", err)
		}
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		s.logger.Info("shutdown signal received")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), s.config.ServerShutdownTimeout)
	defer shutdownCancel()

	s.logger.Info("shutting down HTTP server")

	err := httpServer.Shutdown(shutdownCtx)
	if err != nil {
		s.logger.Warn("HTTP server shutdown error",
			slog.String("error", err.Error()))
		return fmt.Errorf("HTTP server shutdown failed: %w", err)
	}

	if s.keys != nil {
		if err := s.keys.Close(shutdownCtx); err != nil {
			s.logger.Warn("JWK cache shutdown error", slog.String("error", err.Error()))
		}
	}

	s.logger.Info("HTTP server shutdown complete")
	return nil
}

func (s *Server) DatabaseShutdown() {
	if s.pool != nil {
		s.pool.Close()
		s.logger.Info("database connection closed")
	}
}

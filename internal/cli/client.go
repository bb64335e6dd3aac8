package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"text/tabwriter"

	"github.com/information-sharing-networks/eudr-dashboard/internal/apiclient"
	"github.com/information-sharing-networks/eudr-dashboard/internal/apirouter"
	"github.com/information-sharing-networks/eudr-dashboard/internal/auth"
	"github.com/information-sharing-networks/eudr-dashboard/internal/config"
	"github.com/information-sharing-networks/eudr-dashboard/internal/version"
)

// newClientRouter creates the dual backend router described by the client configuration
func newClientRouter(cfg *config.ClientEnvironment, logger *slog.Logger) (*apirouter.Router, error) {
	mode, err := apirouter.ParseMode(cfg.BackendMode)
	if err != nil {
		return nil, err
	}

	return apirouter.New(apirouter.Config{
		PrimaryURL:       cfg.PrimaryAPIURL,
		SecondaryURL:     cfg.SecondaryAPIURL,
		Mode:             mode,
		Fallback:         cfg.FallbackEnabled,
		HTTPClient:       &http.Client{Timeout: cfg.RequestTimeout},
		FailureThreshold: cfg.FailureThreshold,
	}, logger)
}

// newAPIClient loads the client configuration and creates an API client for the configured tenant
func newAPIClient(opts *rootOptions) (*apiclient.Client, error) {
	cfg, err := config.NewClientConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	router, err := newClientRouter(cfg, opts.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create API router: %w", err)
	}

	clientOpts := []apiclient.Option{
		apiclient.WithTenant(cfg.TenantID),
		apiclient.WithLogger(opts.logger),
		apiclient.WithUserAgent("eudrctl/" + version.Get().Version),
	}

	switch {
	case cfg.APIToken != "":
		clientOpts = append(clientOpts, apiclient.WithTokenSource(apiclient.StaticToken(cfg.APIToken)))
	case cfg.SigningKeyPath != "":
		key, err := auth.ReadSigningKey(cfg.SigningKeyPath)
		if err != nil {
			return nil, err
		}
		if cfg.TenantID == "" {
			return nil, fmt.Errorf("TENANT_ID is required to mint tokens")
		}
		ts, err := apiclient.NewSignedTokenSource(key,
			auth.Claims{Subject: cfg.TokenSubject, TenantID: cfg.TenantID},
			auth.MintOptions{TTL: cfg.TokenTTL, Issuer: cfg.JWTIssuer, Audience: cfg.JWTAudience},
		)
		if err != nil {
			return nil, err
		}
		clientOpts = append(clientOpts, apiclient.WithTokenSource(ts))
	}

	return apiclient.New(router, clientOpts...)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// newTable returns a tabwriter for column output. Call Flush when done.
func newTable(w io.Writer, headers ...any) *tabwriter.Writer {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	row(tw, headers...)
	return tw
}

func row(tw *tabwriter.Writer, cols ...any) {
	for i, c := range cols {
		if i > 0 {
			fmt.Fprint(tw, "\t")
		}
		fmt.Fprint(tw, c)
	}
	fmt.Fprintln(tw)
}

package cli

import (
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/information-sharing-networks/eudr-dashboard/internal/apirouter"
	"github.com/information-sharing-networks/eudr-dashboard/internal/config"
)

func newRoutesCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "routes",
		Short: "Show which backend serves each API endpoint",
		Long: `Print the endpoints implemented by the Go API and the backends each request would be sent to,
given the configured BACKEND_MODE and FALLBACK_ENABLED. Endpoints that are not listed go to the legacy API.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.NewClientConfig()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			router, err := newClientRouter(cfg, opts.logger)
			if err != nil {
				return err
			}

			type routeLine struct {
				Method string              `json:"method"`
				Path   string              `json:"path"`
				Plan   []apirouter.Backend `json:"plan"`
			}
			var lines []routeLine
			for _, e := range router.Table().Endpoints() {
				var plan []apirouter.Backend
				for _, t := range router.Plan(cmd.Context(), e.Method, e.Pattern) {
					plan = append(plan, t.Backend)
				}
				lines = append(lines, routeLine{Method: e.Method, Path: e.Pattern, Plan: plan})
			}

			out := cmd.OutOrStdout()
			if opts.jsonOutput {
				return printJSON(out, lines)
			}

			fmt.Fprintf(out, "mode: %s, fallback: %t\n\n", router.Mode(), router.Fallback())
			tw := newTable(out, "METHOD", "PATH", "BACKENDS")
			for _, l := range lines {
				row(tw, l.Method, l.Path, l.Plan)
			}
			return tw.Flush()
		},
	}
}

func newStatusCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check the API is reachable",
		Long:  `Call the API health endpoint and report which backend answered and how many attempts it took`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newAPIClient(opts)
			if err != nil {
				return err
			}

			info, err := client.Health(cmd.Context())
			if err != nil {
				return fmt.Errorf("health check failed: %w", err)
			}

			out := cmd.OutOrStdout()
			if opts.jsonOutput {
				return printJSON(out, info)
			}
			fmt.Fprintf(out, "%d %s from %s backend in %s (%d attempt(s))\n",
				info.StatusCode, http.StatusText(info.StatusCode), info.Backend, info.Duration.Round(time.Millisecond), info.Attempts)
			if info.RequestID != "" {
				fmt.Fprintf(out, "request id: %s\n", info.RequestID)
			}
			return nil
		},
	}
}

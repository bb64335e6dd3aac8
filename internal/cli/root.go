// Package cli implements eudrctl, the command line client for the EUDR dashboard API and gateway.
//
// API commands (status, suppliers, saq, stats) use the same dual backend router as the dashboard and are
// configured with the apiclient environment variables (PRIMARY_API_URL, SECONDARY_API_URL, TENANT_ID...).
// The tenants commands work directly on the gateway database (DATABASE_URL).
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/information-sharing-networks/eudr-dashboard/internal/logger"
	"github.com/information-sharing-networks/eudr-dashboard/internal/version"
)

// rootOptions are the persistent flags shared by every command
type rootOptions struct {
	logLevel   string
	jsonOutput bool
	logger     *slog.Logger
}

// NewRootCmd creates the eudrctl command tree
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:               "eudrctl",
		CompletionOptions: cobra.CompletionOptions{DisableDefaultCmd: true},
		Short:             "EUDR dashboard API client",
		Long:              `eudrctl calls the EUDR dashboard API (through the Go and legacy backends) and manages gateway tenants`,
		SilenceUsage:      true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := opts.logLevel
			if level == "" {
				level = os.Getenv("LOG_LEVEL")
			}
			if level == "" {
				level = "warn"
			}
			// logs go to stderr so command output can be piped
			opts.logger = logger.NewLogger(cmd.ErrOrStderr(), logger.ParseLogLevel(level), "dev")
			return nil
		},
	}

	v := version.Get()
	rootCmd.Version = fmt.Sprintf("%s (built %s, commit %s)", v.Version, v.BuildDate, v.GitCommit)

	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn, error or none (default: LOG_LEVEL or warn)")
	rootCmd.PersistentFlags().BoolVar(&opts.jsonOutput, "json", false, "Print results as JSON")

	rootCmd.AddCommand(newRoutesCmd(opts))
	rootCmd.AddCommand(newStatusCmd(opts))
	rootCmd.AddCommand(newTenantsCmd(opts))
	rootCmd.AddCommand(newSuppliersCmd(opts))
	rootCmd.AddCommand(newSAQCmd(opts))
	rootCmd.AddCommand(newStatsCmd(opts))
	rootCmd.AddCommand(newTokenCmd(opts))

	return rootCmd
}

func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

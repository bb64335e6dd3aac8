// eudr-launcher starts the API server binary, forwards signals to it and exits with its exit code.
//
// Arguments after -- are passed to the server, e.g.
//
//	SERVER_BINARY=./bin/eudr-api eudr-launcher -- --port 8081
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/information-sharing-networks/eudr-dashboard/internal/config"
	"github.com/information-sharing-networks/eudr-dashboard/internal/launcher"
	"github.com/information-sharing-networks/eudr-dashboard/internal/logger"
	"github.com/information-sharing-networks/eudr-dashboard/internal/version"
)

func main() {
	var (
		envFile string
		setEnv  map[string]string
	)

	cmd := &cobra.Command{
		Use:   "eudr-launcher [-- server args...]",
		Short: "Start and supervise the EUDR API server",
		Long: `eudr-launcher starts SERVER_BINARY with the launcher's environment, streams its output,
forwards SIGINT, SIGTERM and SIGHUP to it and exits with the server's exit code`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			os.Exit(run(envFile, setEnv, args))
			return nil
		},
	}
	cmd.Flags().StringVar(&envFile, "env-file", "", "Environment file to load (default: .env when present)")
	cmd.Flags().StringToStringVarP(&setEnv, "env", "e", nil, "Extra environment variable for the server as NAME=value (repeatable)")

	v := version.Get()
	cmd.Version = fmt.Sprintf("%s (built %s, commit %s)", v.Version, v.BuildDate, v.GitCommit)

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(envFile string, setEnv map[string]string, args []string) int {
	if err := config.LoadEnvFile(envFile); err != nil {
		log.Printf("%v", err)
		return 1
	}

	cfg, err := config.NewLauncherConfig()
	if err != nil {
		log.Printf("failed to load configuration: %v", err.Error())
		return 1
	}

	// the launcher logs to stderr, stdout belongs to the server
	appLogger := logger.NewLogger(os.Stderr, logger.ParseLogLevel(cfg.LogLevel), cfg.Environment)

	l, err := launcher.New(launcher.Config{
		Binary:       cfg.ServerBinary,
		Args:         args,
		Dir:          cfg.ServerDir,
		Env:          setEnv,
		StopTimeout:  cfg.StopTimeout,
		ReadyURL:     cfg.ReadyURL,
		ReadyTimeout: cfg.ReadyTimeout,
	}, appLogger)
	if err != nil {
		appLogger.Error("Invalid launcher configuration", slog.String("error", err.Error()))
		return 1
	}

	// the launcher stops on context cancellation only; signals are forwarded to the server
	code, err := l.Run(context.Background())
	if err != nil {
		appLogger.Error("Server process failed", slog.String("error", err.Error()))
	}
	return code
}

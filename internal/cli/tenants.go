package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/information-sharing-networks/eudr-dashboard/internal/config"
	"github.com/information-sharing-networks/eudr-dashboard/internal/database"
	"github.com/information-sharing-networks/eudr-dashboard/internal/schema"
	"github.com/information-sharing-networks/eudr-dashboard/internal/services"
)

// tenantStore is the subset of services.DatabaseTenants used by the tenants commands
type tenantStore interface {
	services.TenantDirectory
	CreateTenant(ctx context.Context, t schema.NewTenant) (*schema.Tenant, error)
	SetBackendMode(ctx context.Context, ref string, mode string) (*schema.Tenant, error)
	SetActive(ctx context.Context, ref string, active bool) (*schema.Tenant, error)
}

// openTenantStore connects to the gateway database. The returned function closes the pool.
var openTenantStore = func(ctx context.Context) (tenantStore, func(), error) {
	cfg, err := config.NewAdminConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	pool, err := database.NewPool(ctx, cfg.DatabaseSettings())
	if err != nil {
		return nil, nil, err
	}
	return services.NewDatabaseTenants(database.New(pool)), pool.Close, nil
}

func newTenantsCmd(opts *rootOptions) *cobra.Command {
	tenantsCmd := &cobra.Command{
		Use:   "tenants",
		Short: "Manage the gateway tenants",
		Long:  `Manage the tenants table used by eudr-gateway when TENANT_SERVICE_NAME=database (requires DATABASE_URL)`,
	}

	// withStore opens the database for the duration of one command
	withStore := func(run func(cmd *cobra.Command, args []string, store tenantStore) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			store, closeStore, err := openTenantStore(cmd.Context())
			if err != nil {
				return err
			}
			defer closeStore()
			return run(cmd, args, store)
		}
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List tenants",
		Args:  cobra.NoArgs,
		RunE: withStore(func(cmd *cobra.Command, args []string, store tenantStore) error {
			tenants, err := store.ListTenants(cmd.Context())
			if err != nil {
				return err
			}
			return printTenants(cmd.OutOrStdout(), opts, tenants...)
		}),
	}

	var (
		name        string
		backendMode string
		inactive    bool
	)
	addCmd := &cobra.Command{
		Use:   "add <slug>",
		Short: "Register a tenant",
		Args:  cobra.ExactArgs(1),
		RunE: withStore(func(cmd *cobra.Command, args []string, store tenantStore) error {
			t, err := store.CreateTenant(cmd.Context(), schema.NewTenant{
				Slug:        args[0],
				Name:        name,
				BackendMode: backendMode,
			})
			if err != nil {
				return err
			}
			if inactive {
				if t, err = store.SetActive(cmd.Context(), t.ID.String(), false); err != nil {
					return err
				}
			}
			opts.logger.Info("tenant created", "slug", t.Slug, "id", t.ID.String())
			return printTenants(cmd.OutOrStdout(), opts, *t)
		}),
	}
	addCmd.Flags().StringVarP(&name, "name", "n", "", "Organisation name [required]")
	addCmd.Flags().StringVar(&backendMode, "backend-mode", "", "Backend mode for the tenant: auto, primary or secondary (default: gateway setting)")
	addCmd.Flags().BoolVar(&inactive, "inactive", false, "Create the tenant deactivated")
	_ = addCmd.MarkFlagRequired("name")

	setModeCmd := &cobra.Command{
		Use:   "set-mode <id|slug> <auto|primary|secondary|default>",
		Short: "Override the backend mode for a tenant",
		Long:  `Set the backend mode used for the tenant's requests. "default" removes the override.`,
		Args:  cobra.ExactArgs(2),
		RunE: withStore(func(cmd *cobra.Command, args []string, store tenantStore) error {
			mode := args[1]
			if mode == "default" {
				mode = ""
			}
			t, err := store.SetBackendMode(cmd.Context(), args[0], mode)
			if err != nil {
				return err
			}
			return printTenants(cmd.OutOrStdout(), opts, *t)
		}),
	}

	setActive := func(use, short string, active bool) *cobra.Command {
		return &cobra.Command{
			Use:   use + " <id|slug>",
			Short: short,
			Args:  cobra.ExactArgs(1),
			RunE: withStore(func(cmd *cobra.Command, args []string, store tenantStore) error {
				t, err := store.SetActive(cmd.Context(), args[0], active)
				if err != nil {
					return err
				}
				return printTenants(cmd.OutOrStdout(), opts, *t)
			}),
		}
	}

	tenantsCmd.AddCommand(listCmd, addCmd, setModeCmd,
		setActive("activate", "Allow the tenant's requests", true),
		setActive("deactivate", "Reject the tenant's requests", false),
	)
	return tenantsCmd
}

func printTenants(w io.Writer, opts *rootOptions, tenants ...schema.Tenant) error {
	if opts.jsonOutput {
		return printJSON(w, tenants)
	}
	tw := newTable(w, "ID", "SLUG", "NAME", "ACTIVE", "BACKEND MODE")
	for _, t := range tenants {
		mode := t.BackendMode
		if mode == "" {
			mode = "default"
		}
		row(tw, t.ID, t.Slug, t.Name, t.Active, mode)
	}
	return tw.Flush()
}

//go:build integration

package integration

import (
	"errors"
	"testing"

	"github.com/information-sharing-networks/eudr-dashboard/internal/database"
	"github.com/information-sharing-networks/eudr-dashboard/internal/schema"
	"github.com/information-sharing-networks/eudr-dashboard/internal/services"
)

func TestDatabaseTenants(t *testing.T) {
	ctx := t.Context()
	pool := setupTestDatabase(t)
	tenants := services.NewDatabaseTenants(database.New(pool))

	created, err := tenants.CreateTenant(ctx, schema.NewTenant{Slug: "acme-foods", Name: "Acme Foods"})
	if err != nil {
		t.Fatalf("CreateTenant: %v", err)
	}
	if !created.Active || created.BackendMode != "" {
		t.Errorf("expected a new tenant to be active with the default mode, got %+v", created)
	}

	t.Run("lookup by id and slug", func(t *testing.T) {
		for _, ref := range []string{created.ID.String(), "acme-foods"} {
			got, err := tenants.LookupTenant(ctx, ref)
			if err != nil {
				t.Fatalf("LookupTenant(%s): %v", ref, err)
			}
			if got.ID != created.ID {
				t.Errorf("LookupTenant(%s) returned %s, want %s", ref, got.ID, created.ID)
			}
		}
	})

	t.Run("unknown tenant", func(t *testing.T) {
		for _, ref := range []string{"initech", "2f6a0d9e-0a3b-4c55-9c1e-3f7c0c4c8e11"} {
			if _, err := tenants.LookupTenant(ctx, ref); !errors.Is(err, services.ErrTenantNotFound) {
				t.Errorf("LookupTenant(%s): expected ErrTenantNotFound, got %v", ref, err)
			}
		}
		if _, err := tenants.SetActive(ctx, "initech", true); !errors.Is(err, services.ErrTenantNotFound) {
			t.Errorf("SetActive: expected ErrTenantNotFound, got %v", err)
		}
	})

	t.Run("duplicate slug", func(t *testing.T) {
		_, err := tenants.CreateTenant(ctx, schema.NewTenant{Slug: "acme-foods", Name: "Another Acme"})
		if !errors.Is(err, services.ErrTenantExists) {
			t.Errorf("expected ErrTenantExists, got %v", err)
		}
	})

	t.Run("backend mode", func(t *testing.T) {
		updated, err := tenants.SetBackendMode(ctx, "acme-foods", "secondary")
		if err != nil {
			t.Fatalf("SetBackendMode: %v", err)
		}
		if updated.BackendMode != "secondary" {
			t.Errorf("expected mode secondary, got %q", updated.BackendMode)
		}

		if _, err := tenants.SetBackendMode(ctx, "acme-foods", "sideways"); err == nil {
			t.Error("expected an error for an invalid mode")
		}

		updated, err = tenants.SetBackendMode(ctx, "acme-foods", "")
		if err != nil {
			t.Fatalf("SetBackendMode reset: %v", err)
		}
		if updated.BackendMode != "" {
			t.Errorf("expected the default mode, got %q", updated.BackendMode)
		}
	})

	t.Run("deactivate and list", func(t *testing.T) {
		if _, err := tenants.CreateTenant(ctx, schema.NewTenant{Slug: "globex", Name: "Globex"}); err != nil {
			t.Fatalf("CreateTenant: %v", err)
		}
		updated, err := tenants.SetActive(ctx, "globex", false)
		if err != nil {
			t.Fatalf("SetActive: %v", err)
		}
		if updated.Active {
			t.Error("expected the tenant to be inactive")
		}

		// inactive tenants are still returned by lookups
		got, err := tenants.LookupTenant(ctx, "globex")
		if err != nil {
			t.Fatalf("LookupTenant: %v", err)
		}
		if got.Active {
			t.Error("expected the stored tenant to be inactive")
		}

		all, err := tenants.ListTenants(ctx)
		if err != nil {
			t.Fatalf("ListTenants: %v", err)
		}
		if len(all) != 2 {
			t.Errorf("expected 2 tenants, got %d", len(all))
		}
	})
}

package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/information-sharing-networks/eudr-dashboard/internal/config"
	"github.com/information-sharing-networks/eudr-dashboard/internal/database"
	"github.com/information-sharing-networks/eudr-dashboard/internal/schema"
)

const (
	acmeID   = "6f1c3c1e-7b7a-4a53-9d1b-0c6f5e1e2a10"
	globexID = "0b7d55d4-1f0e-4a36-8d7e-1a9a2f0b6c21"
)

func writeTenantsFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tenants.csv")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write tenants file: %v", err)
	}
	return path
}

func TestStaticTenants(t *testing.T) {
	path := writeTenantsFile(t, strings.Join([]string{
		"id,slug,name,active,backend_mode",
		"# comment lines are ignored",
		globexID + ",globex,Globex Corporation,false,",
		acmeID + ",acme,Acme Trading,true,secondary",
	}, "\n"))

	dir, err := LoadStaticTenants(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx := context.Background()

	byID, err := dir.LookupTenant(ctx, acmeID)
	if err != nil {
		t.Fatalf("lookup by id: %v", err)
	}
	if byID.Slug != "acme" || byID.Name != "Acme Trading" || !byID.Active || byID.BackendMode != "secondary" {
		t.Errorf("unexpected tenant %+v", byID)
	}

	bySlug, err := dir.LookupTenant(ctx, "globex")
	if err != nil {
		t.Fatalf("lookup by slug: %v", err)
	}
	if bySlug.ID.String() != globexID || bySlug.Active {
		t.Errorf("unexpected tenant %+v", bySlug)
	}

	// returned tenants are copies
	bySlug.Name = "changed"
	again, _ := dir.LookupTenant(ctx, "globex")
	if again.Name != "Globex Corporation" {
		t.Error("directory entry was modified through a returned tenant")
	}

	if _, err := dir.LookupTenant(ctx, "initech"); !errors.Is(err, ErrTenantNotFound) {
		t.Errorf("expected ErrTenantNotFound, got %v", err)
	}
	if _, err := dir.LookupTenant(ctx, uuid.NewString()); !errors.Is(err, ErrTenantNotFound) {
		t.Errorf("expected ErrTenantNotFound, got %v", err)
	}

	list, err := dir.ListTenants(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 || list[0].Slug != "acme" || list[1].Slug != "globex" {
		t.Errorf("expected tenants ordered by slug, got %+v", list)
	}
}

func TestLoadStaticTenantsErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"wrong field count", acmeID + ",acme,Acme,true", "expected id, slug, name, active, backend_mode"},
		{"bad id", "not-a-uuid,acme,Acme,true,", "bad id"},
		{"bad active", acmeID + ",acme,Acme,yes please,", "active must be true or false"},
		{"bad slug", acmeID + ",Acme Co,Acme,true,", "invalid tenant record"},
		{"bad mode", acmeID + ",acme,Acme,true,fastest", "invalid tenant record"},
		{"duplicate id", acmeID + ",acme,Acme,true,\n" + acmeID + ",acme-2,Acme 2,true,", "duplicate tenant id"},
		{"duplicate slug", acmeID + ",acme,Acme,true,\n" + globexID + ",acme,Globex,true,", "duplicate tenant slug"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadStaticTenants(writeTenantsFile(t, tt.content))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}

	if _, err := LoadStaticTenants(filepath.Join(t.TempDir(), "missing.csv")); err == nil {
		t.Error("expected error for missing file")
	}
}

// fakeDB answers QueryRow with a fixed tenant row or error
type fakeDB struct {
	tenant  *database.Tenant
	err     error
	queries []string
	args    [][]any
}

func (f *fakeDB) Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, errors.New("not implemented")
}

func (f *fakeDB) Query(context.Context, string, ...interface{}) (pgx.Rows, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeDB) QueryRow(_ context.Context, sql string, args ...interface{}) pgx.Row {
	f.queries = append(f.queries, sql)
	f.args = append(f.args, args)
	return fakeRow{tenant: f.tenant, err: f.err}
}

type fakeRow struct {
	tenant *database.Tenant
	err    error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if r.tenant == nil {
		return pgx.ErrNoRows
	}
	*dest[0].(*uuid.UUID) = r.tenant.ID
	*dest[1].(*string) = r.tenant.Slug
	*dest[2].(*string) = r.tenant.Name
	*dest[3].(*bool) = r.tenant.Active
	*dest[4].(*string) = r.tenant.BackendMode
	*dest[5].(*time.Time) = r.tenant.CreatedAt
	*dest[6].(*time.Time) = r.tenant.UpdatedAt
	return nil
}

func TestDatabaseTenantsLookup(t *testing.T) {
	row := &database.Tenant{
		ID:          uuid.MustParse(acmeID),
		Slug:        "acme",
		Name:        "Acme Trading",
		Active:      true,
		BackendMode: "primary",
		CreatedAt:   time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	db := &fakeDB{tenant: row}
	dir := NewDatabaseTenants(database.New(db))

	got, err := dir.LookupTenant(context.Background(), acmeID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Slug != "acme" || got.BackendMode != "primary" || !got.CreatedAt.Equal(row.CreatedAt) {
		t.Errorf("unexpected tenant %+v", got)
	}
	if !strings.Contains(db.queries[0], "WHERE id = $1") {
		t.Errorf("expected lookup by id, got %q", db.queries[0])
	}

	if _, err := dir.LookupTenant(context.Background(), "acme"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(db.queries[1], "WHERE slug = $1") || db.args[1][0] != "acme" {
		t.Errorf("expected lookup by slug, got %q %v", db.queries[1], db.args[1])
	}
}

func TestDatabaseTenantsErrors(t *testing.T) {
	ctx := context.Background()

	notFound := NewDatabaseTenants(database.New(&fakeDB{}))
	if _, err := notFound.LookupTenant(ctx, "acme"); !errors.Is(err, ErrTenantNotFound) {
		t.Errorf("expected ErrTenantNotFound, got %v", err)
	}

	broken := NewDatabaseTenants(database.New(&fakeDB{err: errors.New("connection reset")}))
	_, err := broken.LookupTenant(ctx, "acme")
	if err == nil || errors.Is(err, ErrTenantNotFound) {
		t.Errorf("expected a database error, got %v", err)
	}

	duplicate := NewDatabaseTenants(database.New(&fakeDB{err: &pgconn.PgError{Code: pgUniqueViolation}}))
	_, err = duplicate.CreateTenant(ctx, schema.NewTenant{Slug: "acme", Name: "Acme Trading"})
	if !errors.Is(err, ErrTenantExists) {
		t.Errorf("expected ErrTenantExists, got %v", err)
	}

	if _, err := duplicate.CreateTenant(ctx, schema.NewTenant{Slug: "A", Name: "Acme"}); err == nil {
		t.Error("expected validation error for invalid slug")
	}

	if _, err := notFound.SetBackendMode(ctx, "acme", "fastest"); err == nil {
		t.Error("expected error for invalid backend mode")
	}
}

func TestNewTenantDirectory(t *testing.T) {
	path := writeTenantsFile(t, acmeID+",acme,Acme Trading,true,")

	dir, err := NewTenantDirectory(&config.GatewayEnvironment{TenantServiceName: "static", TenantsFile: path}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := dir.(*StaticTenants); !ok {
		t.Errorf("expected *StaticTenants, got %T", dir)
	}

	dir, err = NewTenantDirectory(&config.GatewayEnvironment{TenantServiceName: "database"}, database.New(&fakeDB{}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := dir.(*DatabaseTenants); !ok {
		t.Errorf("expected *DatabaseTenants, got %T", dir)
	}

	if _, err := NewTenantDirectory(&config.GatewayEnvironment{TenantServiceName: "database"}, nil); err == nil {
		t.Error("expected error without database queries")
	}
	if _, err := NewTenantDirectory(&config.GatewayEnvironment{TenantServiceName: "ldap"}, nil); err == nil {
		t.Error("expected error for unknown service name")
	}
}

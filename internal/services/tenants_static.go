package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/information-sharing-networks/eudr-dashboard/internal/schema"
)

// StaticTenants is a read-only tenant directory loaded from a CSV file (id, slug, name, active, backend_mode).
// A header row starting with "id" is skipped.
type StaticTenants struct {
	byID   map[uuid.UUID]*schema.Tenant
	bySlug map[string]*schema.Tenant
}

// LoadStaticTenants reads and validates the tenants file
func LoadStaticTenants(path string) (*StaticTenants, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read tenants file: %w", err)
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comment = '#'
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse tenants csv: %w", err)
	}

	s := &StaticTenants{
		byID:   make(map[uuid.UUID]*schema.Tenant),
		bySlug: make(map[string]*schema.Tenant),
	}

	for i, record := range records {
		// skip header row
		if i == 0 && strings.EqualFold(record[0], "id") {
			continue
		}
		if len(record) != 5 {
			return nil, fmt.Errorf("invalid tenant record (expected id, slug, name, active, backend_mode): %v", record)
		}

		id, err := uuid.Parse(record[0])
		if err != nil {
			return nil, fmt.Errorf("invalid tenant record - bad id: %v", record)
		}

		active, err := strconv.ParseBool(record[3])
		if err != nil {
			return nil, fmt.Errorf("invalid tenant record - active must be true or false: %v", record)
		}

		// slug, name and backend mode follow the same rules as tenants created through the CLI
		fields := schema.NewTenant{Slug: record[1], Name: record[2], BackendMode: record[4]}
		if err := fields.Validate(); err != nil {
			return nil, fmt.Errorf("invalid tenant record %v: %w", record, err)
		}

		if s.byID[id] != nil {
			return nil, fmt.Errorf("duplicate tenant id in tenants file: %s", id)
		}
		if s.bySlug[fields.Slug] != nil {
			return nil, fmt.Errorf("duplicate tenant slug in tenants file: %s", fields.Slug)
		}

		t := &schema.Tenant{
			ID:          id,
			Slug:        fields.Slug,
			Name:        fields.Name,
			Active:      active,
			BackendMode: fields.BackendMode,
		}
		s.byID[id] = t
		s.bySlug[t.Slug] = t
	}

	return s, nil
}

// LookupTenant returns a copy of the tenant with the given id or slug
func (s *StaticTenants) LookupTenant(_ context.Context, ref string) (*schema.Tenant, error) {
	var t *schema.Tenant
	if id, err := uuid.Parse(ref); err == nil {
		t = s.byID[id]
	} else {
		t = s.bySlug[ref]
	}
	if t == nil {
		return nil, ErrTenantNotFound
	}
	out := *t
	return &out, nil
}

func (s *StaticTenants) ListTenants(_ context.Context) ([]schema.Tenant, error) {
	out := make([]schema.Tenant, 0, len(s.bySlug))
	for _, t := range s.bySlug {
		out = append(out, *t)
	}
	slices.SortFunc(out, func(a, b schema.Tenant) int { return strings.Compare(a.Slug, b.Slug) })
	return out, nil
}

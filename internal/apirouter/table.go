package apirouter

import (
	"fmt"
	"net/http"
	"strings"
)

// Endpoint is an entry in the availability table.
//
// Pattern segments in braces (e.g. {id}) match exactly one non-empty path segment.
// A trailing "*" segment matches the rest of the path, including nothing.
// Method "*" matches any method.
type Endpoint struct {
	Method  string `json:"method"`
	Pattern string `json:"pattern"`
}

// Table is the ordered list of endpoints implemented by the primary backend
type Table struct {
	endpoints []Endpoint
	segments  [][]string
}

// NewTable validates the endpoints and returns a Table
func NewTable(endpoints ...Endpoint) (*Table, error) {
	t := &Table{}
	for i, e := range endpoints {
		if e.Method == "" {
			return nil, fmt.Errorf("endpoint %d: method is required", i)
		}
		if !strings.HasPrefix(e.Pattern, "/") {
			return nil, fmt.Errorf("endpoint %d: pattern %q must start with /", i, e.Pattern)
		}
		segs := splitPath(e.Pattern)
		for j, s := range segs {
			if s == "*" && j != len(segs)-1 {
				return nil, fmt.Errorf("endpoint %d: wildcard must be the last segment in %q", i, e.Pattern)
			}
		}
		e.Method = strings.ToUpper(e.Method)
		t.endpoints = append(t.endpoints, e)
		t.segments = append(t.segments, segs)
	}
	return t, nil
}

// MustNewTable is like NewTable but panics on an invalid endpoint
func MustNewTable(endpoints ...Endpoint) *Table {
	t, err := NewTable(endpoints...)
	if err != nil {
		panic(err)
	}
	return t
}

// Endpoints returns a copy of the table entries
func (t *Table) Endpoints() []Endpoint {
	if t == nil {
		return nil
	}
	out := make([]Endpoint, len(t.endpoints))
	copy(out, t.endpoints)
	return out
}

// Supports reports whether the primary backend implements method + path.
// Any query string on path is ignored.
func (t *Table) Supports(method, path string) bool {
	_, ok := t.Match(method, path)
	return ok
}

// Match returns the first table entry matching method + path
func (t *Table) Match(method, path string) (Endpoint, bool) {
	if t == nil {
		return Endpoint{}, false
	}
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	method = strings.ToUpper(method)
	segs := splitPath(path)

	for i, e := range t.endpoints {
		if e.Method != "*" && e.Method != method {
			continue
		}
		if matchSegments(t.segments[i], segs) {
			return e, true
		}
	}
	return Endpoint{}, false
}

func matchSegments(pattern, path []string) bool {
	for i, p := range pattern {
		if p == "*" {
			return true
		}
		if i >= len(path) {
			return false
		}
		if strings.HasPrefix(p, "{") && strings.HasSuffix(p, "}") {
			if path[i] == "" {
				return false
			}
			continue
		}
		if p != path[i] {
			return false
		}
	}
	return len(pattern) == len(path)
}

func splitPath(p string) []string {
	p = strings.Trim(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}

// DefaultTable is the set of endpoints served by the Go API.
// Endpoints not listed here are only implemented by the legacy backend.
func DefaultTable() *Table {
	return MustNewTable(
		Endpoint{http.MethodGet, "/api/health"},

		Endpoint{http.MethodGet, "/api/tenant"},
		Endpoint{http.MethodGet, "/api/users"},
		Endpoint{http.MethodPost, "/api/users/invite"},

		Endpoint{http.MethodGet, "/api/suppliers"},
		Endpoint{http.MethodPost, "/api/suppliers"},
		Endpoint{http.MethodGet, "/api/suppliers/{id}"},
		Endpoint{http.MethodPut, "/api/suppliers/{id}"},
		Endpoint{http.MethodDelete, "/api/suppliers/{id}"},
		Endpoint{http.MethodGet, "/api/suppliers/{id}/plots"},
		Endpoint{http.MethodPost, "/api/suppliers/{id}/plots"},

		Endpoint{http.MethodGet, "/api/products"},
		Endpoint{http.MethodPost, "/api/products"},
		Endpoint{http.MethodGet, "/api/products/{id}"},
		Endpoint{http.MethodPut, "/api/products/{id}"},

		Endpoint{http.MethodGet, "/api/risk-assessments"},
		Endpoint{http.MethodPost, "/api/risk-assessments"},

		Endpoint{http.MethodGet, "/api/saq/templates"},
		Endpoint{http.MethodGet, "/api/saq/requests"},
		Endpoint{http.MethodPost, "/api/saq/requests"},
		Endpoint{http.MethodGet, "/api/saq/requests/{id}"},

		Endpoint{http.MethodGet, "/api/dds"},
		Endpoint{http.MethodGet, "/api/dds/{id}"},

		Endpoint{http.MethodGet, "/api/dashboard/*"},
	)
}

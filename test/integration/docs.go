// Package integration contains end-to-end tests for the eudr-gateway server.
//
// These tests verify the gateway handles API requests correctly (tenant resolution, token
// verification, routing between the Go and legacy backends, fallback and readiness). Each test
// runs against a temporary database with migrations applied, and the server is started in-process.
//
// The backends are httptest servers, so these tests assume the apirouter package is working
// correctly (tested separately). If bugs are introduced in lower-level packages, there will be
// cascading failures here - fix the low-level problems first.
package integration

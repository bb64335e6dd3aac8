// Package server provides the eudr-gateway HTTP server.
//
// the server is configured through environment variables
// (see internal/config/config.go for details)
//
// Requests under /api are authenticated, resolved to a tenant and forwarded to the go or legacy backend
// (see internal/apirouter). The server also serves health, readiness, version, routing table, metrics and docs endpoints.
//
// middleware is in internal/server/middleware
//
//	@title						EUDR dashboard gateway
//	@version					1.0
//	@description				Routes tenant API requests between the Go API and the legacy API.
//	@BasePath					/
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
package server

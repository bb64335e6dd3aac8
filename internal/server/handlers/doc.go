// Package handlers provides the gateway's own HTTP handlers
// (health, readiness, version, routing table, docs).
//
// Tenant API requests are not handled here: they are forwarded to the backends by gateway.Forwarder.
package handlers

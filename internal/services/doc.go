// Package services provides the gateway's external service integrations.
//
// Each service is defined as an interface with implementations selected via configuration,
// e.g. the tenant directory is read from a static CSV file in dev/test and from PostgreSQL in production.
package services

package gateway

// errors.go defines the error codes returned by the gateway

import "fmt"

// GatewayError is an error raised by the gateway itself (as opposed to an error response from a backend,
// which is passed through unchanged)
type GatewayError struct {
	// code is the gateway error code
	code ErrorCode

	// message is a human-readable error message
	message string

	// wrapped is the optional underlying error
	wrapped error
}

func (e *GatewayError) Error() string {
	if e.wrapped != nil {
		return fmt.Sprintf("%s: %v", e.message, e.wrapped)
	}
	return e.message
}

func (e *GatewayError) Code() ErrorCode { return e.code }
func (e *GatewayError) Unwrap() error   { return e.wrapped }

// ErrorCode is used in error responses created by the gateway.
//
//   - 7000-7999 are technical errors: the request could not be processed because of a problem with the request
//     or with the gateway's connection to the backends.
//   - 8000-8999 are functional errors: the request is valid but the tenant cannot use the API.
type ErrorCode int

const (
	// ErrCodeUnauthenticated is used when the bearer token is missing or fails verification
	ErrCodeUnauthenticated ErrorCode = 7001

	// ErrCodeMalformedRequest is used when the request cannot be read or is missing required headers
	ErrCodeMalformedRequest ErrorCode = 7002

	// ErrCodeBackendUnavailable is used when no backend could be reached
	ErrCodeBackendUnavailable ErrorCode = 7003

	// ErrCodeForbidden is used when the caller's token does not grant access to the requested tenant
	ErrCodeForbidden ErrorCode = 7004

	// ErrCodeInternalError is used when an internal server error occurs
	ErrCodeInternalError ErrorCode = 7005

	// ErrCodeBackendTimeout is used when the backends did not answer in time
	ErrCodeBackendTimeout ErrorCode = 7006

	// ErrCodeRateLimitExceeded is used when the rate limit is exceeded
	// - this is only used in the middleware
	ErrCodeRateLimitExceeded ErrorCode = 7009

	// ErrCodeRequestTooLarge is used when the request body is too large
	ErrCodeRequestTooLarge ErrorCode = 7010

	// ErrCodeUnknownTenant is used when the tenant is not in the tenant directory
	ErrCodeUnknownTenant ErrorCode = 8001

	// ErrCodeTenantInactive is used when the tenant exists but has been deactivated
	ErrCodeTenantInactive ErrorCode = 8002

	// ErrCodeRouteNotFound is used for paths outside the API surface
	ErrCodeRouteNotFound ErrorCode = 8003
)

// NewUnauthenticatedError creates an error for a missing or invalid bearer token.
func NewUnauthenticatedError(msg string) error {
	return &GatewayError{code: ErrCodeUnauthenticated, message: msg}
}

// WrapUnauthenticatedError wraps a token verification error.
func WrapUnauthenticatedError(err error, msg string) error {
	return &GatewayError{code: ErrCodeUnauthenticated, message: msg, wrapped: err}
}

// NewMalformedRequestError creates an error for malformed requests.
func NewMalformedRequestError(msg string) error {
	return &GatewayError{code: ErrCodeMalformedRequest, message: msg}
}

// WrapMalformedRequestError wraps an existing error as a malformed request error.
func WrapMalformedRequestError(err error, msg string) error {
	return &GatewayError{code: ErrCodeMalformedRequest, message: msg, wrapped: err}
}

// WrapBackendUnavailableError wraps the router error returned when no backend answered.
func WrapBackendUnavailableError(err error, msg string) error {
	return &GatewayError{code: ErrCodeBackendUnavailable, message: msg, wrapped: err}
}

// WrapBackendTimeoutError wraps the error returned when the backends did not answer before the deadline.
func WrapBackendTimeoutError(err error, msg string) error {
	return &GatewayError{code: ErrCodeBackendTimeout, message: msg, wrapped: err}
}

// NewForbiddenError creates an error for a token that does not grant access to the tenant.
func NewForbiddenError(msg string) error {
	return &GatewayError{code: ErrCodeForbidden, message: msg}
}

// NewInternalError creates an internal error for unexpected failures.
func NewInternalError(msg string) error {
	return &GatewayError{code: ErrCodeInternalError, message: msg}
}

// WrapInternalError wraps an existing error as an internal error.
func WrapInternalError(err error, msg string) error {
	return &GatewayError{code: ErrCodeInternalError, message: msg, wrapped: err}
}

// NewRateLimitError creates a rate limit exceeded error.
func NewRateLimitError(msg string) error {
	return &GatewayError{code: ErrCodeRateLimitExceeded, message: msg}
}

// NewRequestTooLargeError creates a request too large error.
func NewRequestTooLargeError(msg string) error {
	return &GatewayError{code: ErrCodeRequestTooLarge, message: msg}
}

// NewUnknownTenantError creates an error for a tenant that is not in the directory.
func NewUnknownTenantError(msg string) error {
	return &GatewayError{code: ErrCodeUnknownTenant, message: msg}
}

// WrapUnknownTenantError wraps a tenant directory lookup error.
func WrapUnknownTenantError(err error, msg string) error {
	return &GatewayError{code: ErrCodeUnknownTenant, message: msg, wrapped: err}
}

// NewTenantInactiveError creates an error for a deactivated tenant.
func NewTenantInactiveError(msg string) error {
	return &GatewayError{code: ErrCodeTenantInactive, message: msg}
}

// NewRouteNotFoundError creates an error for paths the gateway does not serve.
func NewRouteNotFoundError(msg string) error {
	return &GatewayError{code: ErrCodeRouteNotFound, message: msg}
}

package gateway

// error_response.go maps gateway errors to the JSON error envelope returned to clients

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/information-sharing-networks/eudr-dashboard/internal/logger"
)

// ErrorResponse is the error envelope used for every error created by the gateway
type ErrorResponse struct {

	// The HTTP method used to make the request e.g. GET, POST, etc
	HTTPMethod string `json:"httpMethod"`

	// The URI that was requested
	RequestURI string `json:"requestUri"`

	// The HTTP status code returned
	StatusCode int `json:"statusCode"`

	// A standard short description corresponding to the HTTP status code
	StatusCodeText string `json:"statusCodeText"`

	// A long description corresponding to the HTTP status code with additional information
	StatusCodeMessage string `json:"statusCodeMessage,omitempty"`

	// The request id (also returned in the X-Request-ID header)
	ProviderCorrelationReference string `json:"providerCorrelationReference,omitempty"`

	// The DateTime corresponding to the error occurring
	ErrorDateTime string `json:"errorDateTime"`

	// An array of errors providing more detail about the root cause
	Errors []DetailedError `json:"errors"`
}

// DetailedError is one entry in ErrorResponse.Errors
type DetailedError struct {
	// 7000-7999 for technical errors, 8000-8999 for functional errors
	ErrorCode        ErrorCode `json:"errorCode"`
	Property         string    `json:"property,omitempty"`
	Value            string    `json:"value,omitempty"`
	ErrorCodeText    string    `json:"errorCodeText"`
	ErrorCodeMessage string    `json:"errorCodeMessage"`
}

// MapErrorToResponse maps a GatewayError (or any other error, as an internal error) to the error envelope.
// The status code is chosen from the error code.
func MapErrorToResponse(err error, r *http.Request) *ErrorResponse {
	requestID := middleware.GetReqID(r.Context())

	var gwErr *GatewayError
	if errors.As(err, &gwErr) {
		return errorResponseFromGateway(gwErr, r, requestID)
	}

	// not expected - log the unmapped error and return an internal error
	reqLogger := logger.ContextRequestLogger(r.Context())
	reqLogger.Error("BUG: Unmapped error type in MapErrorToResponse",
		slog.String("error_type", fmt.Sprintf("%T", err)),
		slog.String("error", err.Error()),
		slog.String("request_id", requestID),
	)
	return newErrorResponse(r, requestID, http.StatusInternalServerError, ErrCodeInternalError,
		"Internal Error", "An internal error occurred")
}

func errorResponseFromGateway(err *GatewayError, r *http.Request, requestID string) *ErrorResponse {
	statusCode, errorCodeText := statusForCode(err.Code())

	// internal error details stay in the server log
	message := err.Error()
	if statusCode == http.StatusInternalServerError {
		message = "An internal error occurred"
	}

	return newErrorResponse(r, requestID, statusCode, err.Code(), errorCodeText, message)
}

func statusForCode(code ErrorCode) (int, string) {
	switch code {
	case ErrCodeUnauthenticated:
		return http.StatusUnauthorized, "Unauthenticated"
	case ErrCodeMalformedRequest:
		return http.StatusBadRequest, "Malformed request"
	case ErrCodeBackendUnavailable:
		return http.StatusBadGateway, "Backend unavailable"
	case ErrCodeBackendTimeout:
		return http.StatusGatewayTimeout, "Backend timeout"
	case ErrCodeForbidden:
		return http.StatusForbidden, "Forbidden"
	case ErrCodeRateLimitExceeded:
		return http.StatusTooManyRequests, "Rate limit exceeded"
	case ErrCodeRequestTooLarge:
		return http.StatusRequestEntityTooLarge, "Request too large"
	case ErrCodeUnknownTenant:
		return http.StatusNotFound, "Unknown tenant"
	case ErrCodeTenantInactive:
		return http.StatusForbidden, "Tenant inactive"
	case ErrCodeRouteNotFound:
		return http.StatusNotFound, "Not found"
	default:
		return http.StatusInternalServerError, "Internal Error"
	}
}

func newErrorResponse(r *http.Request, requestID string, statusCode int, code ErrorCode, codeText, message string) *ErrorResponse {
	return &ErrorResponse{
		HTTPMethod:                   r.Method,
		RequestURI:                   r.RequestURI,
		StatusCode:                   statusCode,
		StatusCodeText:               http.StatusText(statusCode),
		StatusCodeMessage:            codeText,
		ProviderCorrelationReference: requestID,
		ErrorDateTime:                time.Now().UTC().Format(time.RFC3339),
		Errors: []DetailedError{
			{
				ErrorCode:        code,
				ErrorCodeText:    codeText,
				ErrorCodeMessage: message,
			},
		},
	}
}

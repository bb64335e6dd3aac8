package server

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/information-sharing-networks/eudr-dashboard/internal/gateway"
	"github.com/information-sharing-networks/eudr-dashboard/internal/logger"
)

// jwksCacheControl lets clients cache the key set for as long as the gateway's minimum refresh interval
const jwksCacheControl = "public, max-age=600"

// handleJWKS publishes the public keys the gateway accepts tokens from.
// The legacy API and other services use it to verify the same tokens.
//
//	@Summary		Verification keys
//	@Description	Returns the JWK Set the gateway verifies bearer tokens against.
//	@Tags			Common
//	@Produce		json
//	@Success		200	{object}	map[string]any	"JWK Set"
//	@Failure		502	{object}	gateway.ErrorResponse	"Key set not available yet"
//	@Router			/.well-known/jwks.json [get]
func (s *Server) handleJWKS(w http.ResponseWriter, r *http.Request) {
	reqLogger := logger.ContextRequestLogger(r.Context())

	set, err := s.keys.KeySet(r.Context())
	if err != nil {
		gateway.RespondWithErrorResponse(w, r, gateway.WrapBackendUnavailableError(err, "verification keys are not available"))
		return
	}

	body, err := json.Marshal(set)
	if err != nil {
		gateway.RespondWithErrorResponse(w, r, gateway.WrapInternalError(err, "failed to encode key set"))
		return
	}

	reqLogger.Debug("JWK Set served", slog.Int("keys", set.Len()))

	w.Header().Set("Content-Type", "application/jwk-set+json")
	w.Header().Set("Cache-Control", jwksCacheControl)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

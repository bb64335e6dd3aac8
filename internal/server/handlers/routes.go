package handlers

import (
	"net/http"

	"github.com/information-sharing-networks/eudr-dashboard/internal/apirouter"
	"github.com/information-sharing-networks/eudr-dashboard/internal/gateway"
)

// RoutesResponse describes how the gateway routes tenant API requests
type RoutesResponse struct {
	Mode           string               `json:"mode" example:"auto"`
	Fallback       bool                 `json:"fallback"`
	PrimaryHealthy bool                 `json:"primary_healthy"`
	Backends       []BackendResponse    `json:"backends"`
	Endpoints      []apirouter.Endpoint `json:"endpoints"`
}

type BackendResponse struct {
	Backend string `json:"backend" example:"go"`
	URL     string `json:"url" example:"http://localhost:8081"`
}

// HandleRoutes godoc
//
//	@Summary		Routing table
//	@Description	Returns the default backend mode, the configured backends and the endpoints implemented by the primary (go) backend.
//	@Description	Endpoints not listed are served by the legacy backend in auto mode.
//	@Tags			Common
//	@Produce		json
//	@Success		200	{object}	RoutesResponse
//	@Router			/routes [get]
func HandleRoutes(router *apirouter.Router) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := RoutesResponse{
			Mode:           string(router.Mode()),
			Fallback:       router.Fallback(),
			PrimaryHealthy: router.PrimaryHealthy(),
			Endpoints:      router.Table().Endpoints(),
		}
		for _, t := range router.Targets() {
			u := *t.BaseURL
			u.User = nil
			resp.Backends = append(resp.Backends, BackendResponse{Backend: string(t.Backend), URL: u.String()})
		}
		gateway.RespondWithJSONPayload(w, http.StatusOK, resp)
	}
}

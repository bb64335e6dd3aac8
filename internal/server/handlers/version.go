package handlers

import (
	"net/http"

	"github.com/information-sharing-networks/eudr-dashboard/internal/gateway"
	"github.com/information-sharing-networks/eudr-dashboard/internal/version"
)

type VersionResponse struct {
	Version   string `json:"version" example:"1.0.0"`
	BuildTime string `json:"build_time" example:"2026-01-28T10:00:00Z"`
	GitCommit string `json:"git_commit" example:"3f2a9c1"`
	Service   string `json:"service" example:"eudr-gateway"`
}

// HandleVersion godoc
//
//	@Summary		Get version information
//	@Description	Returns the version and build information for the service
//	@Tags			Common
//	@Produce		json
//	@Success		200	{object}	VersionResponse	"Version information"
//	@Router			/version [get]
func HandleVersion(info version.Info) http.HandlerFunc {
	// Pre-create the response to avoid allocating on every request
	response := VersionResponse{
		Version:   info.Version,
		BuildTime: info.BuildDate,
		GitCommit: info.GitCommit,
		Service:   "eudr-gateway",
	}

	return func(w http.ResponseWriter, r *http.Request) {
		gateway.RespondWithJSONPayload(w, http.StatusOK, response)
	}
}

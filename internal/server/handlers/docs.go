package handlers

import (
	"net/http"

	"github.com/swaggo/swag"

	"github.com/information-sharing-networks/eudr-dashboard/internal/gateway"
)

// HandleOpenAPISpec serves the swagger document registered by the docs package
func HandleOpenAPISpec(w http.ResponseWriter, r *http.Request) {
	doc, err := swag.ReadDoc()
	if err != nil {
		gateway.RespondWithErrorResponse(w, r, gateway.WrapInternalError(err, "failed to read API docs"))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(doc))
}

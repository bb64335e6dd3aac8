package handlers

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/information-sharing-networks/eudr-dashboard/internal/gateway"
)

// HandleHealth godoc
//
//	@Summary		Health (liveness) Check
//	@Description	Check if the HTTP service is alive and responding.
//	@Tags			Common
//	@Produce		plain
//
//	@Success		200	{string}	string	"OK"
//
//	@Router			/health/live [get]
func HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// ReadinessCheck is one dependency probed by the readiness handler.
//
// Checks with the same Group are alternatives: the group passes when any of its checks passes
// (e.g. the two backends, since either can serve requests when fallback is enabled).
type ReadinessCheck struct {
	Name  string
	Group string
	Check func(ctx context.Context) error
}

// ReadinessResponse is returned by the readiness handler
type ReadinessResponse struct {
	Status string            `json:"status" example:"ready"`
	Checks map[string]string `json:"checks"`
}

// HandleReadiness godoc
//
//	@Summary		Readiness Check
//	@Description	Probes the backends (concurrently) and the other dependencies of the gateway.
//	@Description	The gateway is ready when at least one backend answers and every other dependency is available.
//	@Tags			Common
//	@Produce		json
//	@Success		200	{object}	ReadinessResponse	"status ready"
//	@Failure		503	{object}	ReadinessResponse	"status not ready"
//	@Router			/health/ready [get]
func HandleReadiness(timeout time.Duration, checks ...ReadinessCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		results := make([]error, len(checks))

		// every check runs to completion, failures are collected rather than cancelling the others
		var g errgroup.Group
		for i, c := range checks {
			g.Go(func() error {
				results[i] = c.Check(ctx)
				return nil
			})
		}
		_ = g.Wait()

		resp := ReadinessResponse{Status: "ready", Checks: make(map[string]string, len(checks))}
		groupOK := make(map[string]bool)
		for i, c := range checks {
			if _, seen := groupOK[c.Group]; !seen {
				groupOK[c.Group] = false
			}
			if results[i] != nil {
				resp.Checks[c.Name] = "unavailable: " + results[i].Error()
				continue
			}
			resp.Checks[c.Name] = "ok"
			groupOK[c.Group] = true
		}

		status := http.StatusOK
		for _, ok := range groupOK {
			if !ok {
				resp.Status = "not ready"
				status = http.StatusServiceUnavailable
				break
			}
		}

		gateway.RespondWithJSONPayload(w, status, resp)
	}
}

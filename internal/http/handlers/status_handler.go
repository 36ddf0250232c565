package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/squadfinders/bot-gateway/internal/scheduler"
)

// StatusHandler reports the background jobs' health.
type StatusHandler struct {
	set *scheduler.Set
}

// NewStatusHandler wires a handler to the job set.
func NewStatusHandler(jobs *scheduler.Set) *StatusHandler {
	return &StatusHandler{set: jobs}
}

// JobsResponse is the envelope for the job status endpoint.
type JobsResponse struct {
	Jobs []scheduler.Status `json:"jobs"`
}

// Jobs godoc
//
//	@Summary		Background job status
//	@Description	Returns a per-job snapshot: running flag, last tick time and outcome, run and skip counters. Disabled jobs are absent.
//	@Tags			status
//	@Produce		json
//	@Success		200	{object}	JobsResponse
//	@Router			/status/jobs [get]
func (h *StatusHandler) Jobs(c *gin.Context) {
	statuses := h.set.Statuses()
	if statuses == nil {
		statuses = []scheduler.Status{}
	}
	ok(c, http.StatusOK, JobsResponse{Jobs: statuses})
}

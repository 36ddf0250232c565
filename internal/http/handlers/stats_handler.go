package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/squadfinders/bot-gateway/internal/services"
)

// StatsHandler exposes the deletion-statistics read model.
type StatsHandler struct {
	Stats *services.StatsService
}

// NewStatsHandler wires a handler to its service.
func NewStatsHandler(ss *services.StatsService) *StatsHandler {
	return &StatsHandler{Stats: ss}
}

// Deletions godoc
//
//	@Summary		Deletion statistics
//	@Description	Returns running totals, today's deletion count, average deletion latency, and the recent per-day series.
//	@Tags			stats
//	@Produce		json
//	@Success		200	{object}	services.StatsSnapshot
//	@Failure		500	{object}	ErrorResponse
//	@Router			/stats/deletions [get]
func (h *StatsHandler) Deletions(c *gin.Context) {
	snap, err := h.Stats.Snapshot(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "failed to read deletion statistics")
		return
	}
	ok(c, http.StatusOK, snap)
}

package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/squadfinders/bot-gateway/internal/domain"
	"github.com/squadfinders/bot-gateway/internal/repo"
	"github.com/squadfinders/bot-gateway/internal/services"
	"github.com/squadfinders/bot-gateway/internal/utils"
)

// PlayerHandler exposes the parsed-player CRUD surface.
type PlayerHandler struct {
	Players *services.PlayerService
}

// NewPlayerHandler wires a handler to its service.
func NewPlayerHandler(ps *services.PlayerService) *PlayerHandler {
	return &PlayerHandler{Players: ps}
}

// PlayerListResponse is the paginated list envelope.
type PlayerListResponse struct {
	Data       []domain.Player `json:"data"`
	Pagination Pagination      `json:"pagination"`
}

// List godoc
//
//	@Summary		List players
//	@Description	Returns a filtered, paginated page of players, newest first.
//	@Tags			players
//	@Produce		json
//	@Param			page		query	int		false	"Page number (1-based)"
//	@Param			limit		query	int		false	"Page size"
//	@Param			active		query	bool	false	"Filter by active flag"
//	@Param			platform	query	string	false	"Filter by platform (PC, Console, unknown)"
//	@Param			game_mode	query	string	false	"Filter by game mode"
//	@Success		200	{object}	PlayerListResponse
//	@Failure		400	{object}	ErrorResponse
//	@Failure		500	{object}	ErrorResponse
//	@Router			/players [get]
func (h *PlayerHandler) List(c *gin.Context) {
	page := utils.AtoiDefault(c.Query("page"), 1)
	limit := utils.AtoiDefault(c.Query("limit"), 100)

	f := repo.PlayerFilter{
		Platform: c.Query("platform"),
		GameMode: c.Query("game_mode"),
	}
	var parsed bool
	if f.Active, parsed = boolQuery(c, "active"); !parsed {
		return
	}

	players, total, err := h.Players.List(c.Request.Context(), f, page, limit)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, "failed to list players")
		return
	}
	if players == nil {
		players = []domain.Player{}
	}
	ok(c, http.StatusOK, PlayerListResponse{
		Data: players,
		Pagination: Pagination{
			Page:       page,
			PageSize:   limit,
			Total:      total,
			TotalPages: utils.PageCount(total, limit),
		},
	})
}

// Get godoc
//
//	@Summary		Get one player
//	@Tags			players
//	@Produce		json
//	@Param			id	path	int	true	"Source message id"
//	@Success		200	{object}	domain.Player
//	@Failure		400	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse
//	@Router			/players/{id} [get]
func (h *PlayerHandler) Get(c *gin.Context) {
	id, okID := parseMessageID(c)
	if !okID {
		return
	}
	p, err := h.Players.Get(c.Request.Context(), id)
	if errors.Is(err, services.ErrPlayerNotFound) {
		fail(c, http.StatusNotFound, ErrCodeNotFound, "player not found")
		return
	}
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "failed to fetch player")
		return
	}
	ok(c, http.StatusOK, p)
}

// Create godoc
//
//	@Summary		Store a parsed player posting
//	@Description	Inserts a player record extracted from a message. Platform and game mode labels are normalized on write.
//	@Tags			players
//	@Accept			json
//	@Produce		json
//	@Param			player	body	domain.Player	true	"Player to store"
//	@Success		201	{object}	domain.Player
//	@Failure		400	{object}	ErrorResponse
//	@Failure		500	{object}	ErrorResponse
//	@Router			/players [post]
func (h *PlayerHandler) Create(c *gin.Context) {
	var p domain.Player
	if err := c.ShouldBindJSON(&p); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid player payload: "+err.Error())
		return
	}
	if err := h.Players.Create(c.Request.Context(), &p); err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeCreateFailed, "failed to store player")
		return
	}
	ok(c, http.StatusCreated, p)
}

// Update godoc
//
//	@Summary		Update a player
//	@Description	Applies a partial update by source message id. Setting active back to true is the re-activation path for a fresh sighting.
//	@Tags			players
//	@Accept			json
//	@Produce		json
//	@Param			id		path	int				true	"Source message id"
//	@Param			fields	body	map[string]any	true	"Fields to update"
//	@Success		200	{object}	domain.Player
//	@Failure		400	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse
//	@Router			/players/{id} [put]
func (h *PlayerHandler) Update(c *gin.Context) {
	id, okID := parseMessageID(c)
	if !okID {
		return
	}
	var fields map[string]any
	if err := c.ShouldBindJSON(&fields); err != nil || len(fields) == 0 {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "body must be a non-empty JSON object")
		return
	}
	p, err := h.Players.Update(c.Request.Context(), id, fields)
	switch {
	case errors.Is(err, services.ErrPlayerNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "player not found")
		return
	case err != nil:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "failed to update player")
		return
	}
	ok(c, http.StatusOK, p)
}

// Delete godoc
//
//	@Summary		Delete a player
//	@Tags			players
//	@Produce		json
//	@Param			id	path	int	true	"Source message id"
//	@Success		204	{string}	string	"no content"
//	@Failure		400	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse
//	@Router			/players/{id} [delete]
func (h *PlayerHandler) Delete(c *gin.Context) {
	id, okID := parseMessageID(c)
	if !okID {
		return
	}
	err := h.Players.Delete(c.Request.Context(), id)
	switch {
	case errors.Is(err, services.ErrPlayerNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "player not found")
		return
	case err != nil:
		fail(c, http.StatusInternalServerError, ErrCodeDeleteFailed, "failed to delete player")
		return
	}
	c.Status(http.StatusNoContent)
}

package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/squadfinders/bot-gateway/internal/domain"
	"github.com/squadfinders/bot-gateway/internal/services"
)

// UserSeenHandler exposes the per-user seen lists the bot uses for dedup.
type UserSeenHandler struct {
	Seen *services.UserSeenService
}

// NewUserSeenHandler wires a handler to its service.
func NewUserSeenHandler(us *services.UserSeenService) *UserSeenHandler {
	return &UserSeenHandler{Seen: us}
}

// Upsert godoc
//
//	@Summary		Store a user's seen list
//	@Description	Creates or replaces the seen-message list for one user. Any write reactivates the entry and resets its inactivity clock.
//	@Tags			users
//	@Accept			json
//	@Produce		json
//	@Param			entry	body	domain.UserSeen	true	"Seen list to store"
//	@Success		200	{object}	domain.UserSeen
//	@Failure		400	{object}	ErrorResponse
//	@Failure		500	{object}	ErrorResponse
//	@Router			/users/seen [post]
func (h *UserSeenHandler) Upsert(c *gin.Context) {
	var u domain.UserSeen
	if err := c.ShouldBindJSON(&u); err != nil || u.UserID == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "body must include user_id")
		return
	}
	if err := h.Seen.Upsert(c.Request.Context(), &u); err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeCreateFailed, "failed to store seen list")
		return
	}
	ok(c, http.StatusOK, u)
}

// Get godoc
//
//	@Summary		Get a user's seen list
//	@Tags			users
//	@Produce		json
//	@Param			user_id	path	string	true	"Bot user id"
//	@Success		200	{object}	domain.UserSeen
//	@Failure		404	{object}	ErrorResponse
//	@Router			/users/seen/{user_id} [get]
func (h *UserSeenHandler) Get(c *gin.Context) {
	u, err := h.Seen.Get(c.Request.Context(), c.Param("user_id"))
	if errors.Is(err, services.ErrUserSeenNotFound) {
		fail(c, http.StatusNotFound, ErrCodeNotFound, "seen list not found")
		return
	}
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "failed to fetch seen list")
		return
	}
	ok(c, http.StatusOK, u)
}

package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/squadfinders/bot-gateway/internal/domain"
	"github.com/squadfinders/bot-gateway/internal/http/middleware"
	"github.com/squadfinders/bot-gateway/internal/repo"
	"github.com/squadfinders/bot-gateway/internal/services"
	"github.com/squadfinders/bot-gateway/internal/utils"
)

// MessageHandler exposes the message lifecycle over HTTP.
type MessageHandler struct {
	Messages *services.MessageService
}

// NewMessageHandler wires a handler to its service.
func NewMessageHandler(ms *services.MessageService) *MessageHandler {
	return &MessageHandler{Messages: ms}
}

// MessageListResponse is the paginated list envelope.
type MessageListResponse struct {
	Data       []domain.Message `json:"data"`
	Pagination Pagination       `json:"pagination"`
}

// ClaimResponse is the envelope returned by the two claim endpoints.
type ClaimResponse struct {
	Data  []domain.Message `json:"data"`
	Count int              `json:"count"`
}

// DeleteMessageResponse reports deletion analytics for one removed message.
type DeleteMessageResponse struct {
	Message         string    `json:"message" example:"message deleted"`
	DeletionSeconds int64     `json:"deletion_time_seconds"`
	DeletedAt       time.Time `json:"deleted_at"`
}

// parseMessageID reads the :id path parameter as the Telegram message_id.
func parseMessageID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "id must be an integer message id")
		return 0, false
	}
	return id, true
}

// List godoc
//
//	@Summary		List messages
//	@Description	Returns a filtered, paginated page of messages, newest first.
//	@Tags			messages
//	@Produce		json
//	@Param			page			query	int		false	"Page number (1-based)"
//	@Param			limit			query	int		false	"Page size"
//	@Param			group_username	query	string	false	"Filter by group username"
//	@Param			sender_username	query	string	false	"Filter by sender username"
//	@Param			is_valid		query	bool	false	"Filter by validity flag"
//	@Param			is_lfg			query	bool	false	"Filter by LFG flag"
//	@Param			ai_status		query	string	false	"Filter by lifecycle status"
//	@Success		200	{object}	MessageListResponse
//	@Failure		400	{object}	ErrorResponse
//	@Failure		500	{object}	ErrorResponse
//	@Router			/messages [get]
func (h *MessageHandler) List(c *gin.Context) {
	page := utils.AtoiDefault(c.Query("page"), 1)
	limit := utils.AtoiDefault(c.Query("limit"), 100)

	f := repo.MessageFilter{
		GroupUsername:  c.Query("group_username"),
		SenderUsername: c.Query("sender_username"),
		AIStatus:       domain.Status(c.Query("ai_status")),
	}
	var parsed bool
	if f.IsValid, parsed = boolQuery(c, "is_valid"); !parsed {
		return
	}
	if f.IsLFG, parsed = boolQuery(c, "is_lfg"); !parsed {
		return
	}
	if f.AIStatus != "" && !f.AIStatus.Valid() {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "unknown ai_status "+strconv.Quote(string(f.AIStatus)))
		return
	}

	msgs, total, err := h.Messages.List(c.Request.Context(), f, page, limit)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, "failed to list messages")
		return
	}
	if msgs == nil {
		msgs = []domain.Message{}
	}
	ok(c, http.StatusOK, MessageListResponse{
		Data: msgs,
		Pagination: Pagination{
			Page:       page,
			PageSize:   limit,
			Total:      total,
			TotalPages: utils.PageCount(total, limit),
		},
	})
}

// ValidSince godoc
//
//	@Summary		List valid messages since a timestamp
//	@Description	Returns is_valid messages with message_date at or after the given time, newest first.
//	@Tags			messages
//	@Produce		json
//	@Param			timestamp	query	string	true	"RFC 3339 timestamp"
//	@Success		200	{object}	ClaimResponse
//	@Failure		400	{object}	ErrorResponse
//	@Failure		500	{object}	ErrorResponse
//	@Router			/messages/valid-since [get]
func (h *MessageHandler) ValidSince(c *gin.Context) {
	since, err := time.Parse(time.RFC3339, c.Query("timestamp"))
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "timestamp must be RFC 3339")
		return
	}
	msgs, err := h.Messages.ValidSince(c.Request.Context(), since)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, "failed to list messages")
		return
	}
	if msgs == nil {
		msgs = []domain.Message{}
	}
	ok(c, http.StatusOK, ClaimResponse{Data: msgs, Count: len(msgs)})
}

// ClaimUnprocessed godoc
//
//	@Summary		Claim valid pending messages for processing
//	@Description	Atomically claims up to limit valid pending messages, oldest first, moving them to processing. Stale messages are expired first and never handed out. Concurrent calls receive disjoint batches.
//	@Tags			messages
//	@Produce		json
//	@Param			limit	query	int	false	"Batch size (default 50, ceiling 100)"
//	@Success		200	{object}	ClaimResponse
//	@Failure		500	{object}	ErrorResponse
//	@Router			/messages/unprocessed [get]
func (h *MessageHandler) ClaimUnprocessed(c *gin.Context) {
	h.claim(c, domain.StatusProcessing, h.Messages.ClaimUnprocessed)
}

// ClaimPrefilter godoc
//
//	@Summary		Claim pending_prefilter messages
//	@Description	Atomically claims up to limit pending_prefilter messages, oldest first, advancing them to pending. Concurrent calls receive disjoint batches.
//	@Tags			messages
//	@Produce		json
//	@Param			limit	query	int	false	"Batch size (default 50, ceiling 100)"
//	@Success		200	{object}	ClaimResponse
//	@Failure		500	{object}	ErrorResponse
//	@Router			/messages/pending-prefilter [get]
func (h *MessageHandler) ClaimPrefilter(c *gin.Context) {
	h.claim(c, domain.StatusPending, h.Messages.ClaimPrefilter)
}

func (h *MessageHandler) claim(c *gin.Context, to domain.Status, fn func(ctx context.Context, limit int) ([]domain.Message, error)) {
	limit := utils.AtoiDefault(c.Query("limit"), 0)
	msgs, err := fn(c.Request.Context(), limit)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeClaimFailed, "failed to claim messages")
		return
	}
	if msgs == nil {
		msgs = []domain.Message{}
	}
	if len(msgs) > 0 {
		middleware.ClaimedMessages.WithLabelValues(string(to)).Add(float64(len(msgs)))
		middleware.LoggerFrom(c).Info().
			Int("count", len(msgs)).
			Str("to_status", string(to)).
			Msg("messages claimed")
	}
	ok(c, http.StatusOK, ClaimResponse{Data: msgs, Count: len(msgs)})
}

// Get godoc
//
//	@Summary		Get one message
//	@Tags			messages
//	@Produce		json
//	@Param			id	path	int	true	"Telegram message id"
//	@Success		200	{object}	domain.Message
//	@Failure		400	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse
//	@Router			/messages/{id} [get]
func (h *MessageHandler) Get(c *gin.Context) {
	id, okID := parseMessageID(c)
	if !okID {
		return
	}
	m, err := h.Messages.Get(c.Request.Context(), id)
	if errors.Is(err, services.ErrMessageNotFound) {
		fail(c, http.StatusNotFound, ErrCodeNotFound, "message not found")
		return
	}
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "failed to fetch message")
		return
	}
	ok(c, http.StatusOK, m)
}

// Create godoc
//
//	@Summary		Ingest a message
//	@Description	Stores a new message. A duplicate (same sender and text inside the suppression window) is rejected with 409.
//	@Tags			messages
//	@Accept			json
//	@Produce		json
//	@Param			message	body	domain.Message	true	"Message to store"
//	@Success		201	{object}	domain.Message
//	@Failure		400	{object}	ErrorResponse
//	@Failure		409	{object}	ErrorResponse
//	@Failure		500	{object}	ErrorResponse
//	@Router			/messages [post]
func (h *MessageHandler) Create(c *gin.Context) {
	var m domain.Message
	if err := c.ShouldBindJSON(&m); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid message payload: "+err.Error())
		return
	}
	err := h.Messages.Create(c.Request.Context(), &m)
	switch {
	case errors.Is(err, services.ErrDuplicateMessage):
		fail(c, http.StatusConflict, ErrCodeConflict, "duplicate message from sender within suppression window")
		return
	case errors.Is(err, services.ErrInvalidStatus):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "unknown ai_status")
		return
	case err != nil:
		fail(c, http.StatusInternalServerError, ErrCodeCreateFailed, "failed to store message")
		return
	}
	middleware.LoggerFrom(c).Info().
		Int64("message_id", m.MessageID).
		Str("group", m.GroupUsername).
		Msg("message ingested")
	ok(c, http.StatusCreated, m)
}

// Update godoc
//
//	@Summary		Update a message
//	@Description	Applies a partial update by message id. ai_status, when present, must be a known lifecycle status.
//	@Tags			messages
//	@Accept			json
//	@Produce		json
//	@Param			id		path	int				true	"Telegram message id"
//	@Param			fields	body	map[string]any	true	"Fields to update"
//	@Success		200	{object}	domain.Message
//	@Failure		400	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse
//	@Router			/messages/{id} [put]
func (h *MessageHandler) Update(c *gin.Context) {
	id, okID := parseMessageID(c)
	if !okID {
		return
	}
	var fields map[string]any
	if err := c.ShouldBindJSON(&fields); err != nil || len(fields) == 0 {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "body must be a non-empty JSON object")
		return
	}
	m, err := h.Messages.Update(c.Request.Context(), id, fields)
	switch {
	case errors.Is(err, services.ErrInvalidStatus):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "unknown ai_status")
		return
	case errors.Is(err, services.ErrMessageNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "message not found")
		return
	case err != nil:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "failed to update message")
		return
	}
	ok(c, http.StatusOK, m)
}

// Delete godoc
//
//	@Summary		Delete a message
//	@Description	Removes a message and records its lifetime in the deletion statistics.
//	@Tags			messages
//	@Produce		json
//	@Param			id	path	int	true	"Telegram message id"
//	@Success		200	{object}	DeleteMessageResponse
//	@Failure		400	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse
//	@Failure		500	{object}	ErrorResponse
//	@Router			/messages/{id} [delete]
func (h *MessageHandler) Delete(c *gin.Context) {
	id, okID := parseMessageID(c)
	if !okID {
		return
	}
	res, err := h.Messages.Delete(c.Request.Context(), id)
	switch {
	case errors.Is(err, services.ErrMessageNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "message not found")
		return
	case err != nil:
		fail(c, http.StatusInternalServerError, ErrCodeDeleteFailed, "failed to delete message")
		return
	}
	middleware.LoggerFrom(c).Info().
		Int64("message_id", id).
		Int64("deletion_seconds", res.DeletionSeconds).
		Msg("message deleted")
	ok(c, http.StatusOK, DeleteMessageResponse{
		Message:         "message deleted",
		DeletionSeconds: res.DeletionSeconds,
		DeletedAt:       res.DeletedAt,
	})
}

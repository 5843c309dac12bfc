package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/pawmates/pawmates-backend/internal/common"
	"github.com/pawmates/pawmates-backend/internal/domain"
	"github.com/pawmates/pawmates-backend/internal/middleware"
	"github.com/pawmates/pawmates-backend/internal/service"
)

// MessageHandler handles message HTTP requests
type MessageHandler struct {
	service service.MessageService
}

// NewMessageHandler creates a new MessageHandler
func NewMessageHandler(service service.MessageService) *MessageHandler {
	return &MessageHandler{service: service}
}

// Send handles POST /messages
// @Summary Send a message about a pet listing
// @Tags messages
// @Accept json
// @Produce json
// @Param request body domain.SendMessageRequest true "message"
// @Success 200 {object} common.APIResponse{data=domain.MessageResponse}
// @Security BearerAuth
// @Router /messages [post]
func (h *MessageHandler) Send(c *gin.Context) {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		common.ErrorResponse(c, http.StatusUnauthorized, "authentication required", nil)
		return
	}

	var req domain.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid request body", err)
		return
	}

	result, err := h.service.Send(c.Request.Context(), userID, &req)
	if err != nil {
		common.ServiceErrorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, common.APIResponse{Data: result})
}

// History handles GET /conversations/:id/messages
// @Summary Message history of a conversation, ascending by id
// @Tags messages
// @Produce json
// @Param id path int true "conversation id"
// @Param before query int false "return messages with id below this cursor"
// @Param limit query int false "page size"
// @Success 200 {object} common.APIResponse{data=[]domain.MessageResponse}
// @Security BearerAuth
// @Router /conversations/{id}/messages [get]
func (h *MessageHandler) History(c *gin.Context) {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		common.ErrorResponse(c, http.StatusUnauthorized, "authentication required", nil)
		return
	}

	conversationID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid conversation id", err)
		return
	}

	before, _ := strconv.ParseUint(c.Query("before"), 10, 64)
	after, afterErr := strconv.ParseUint(c.Query("after"), 10, 64)
	limit, _ := strconv.Atoi(c.Query("limit"))

	var messages []*domain.MessageResponse
	if afterErr == nil && c.Query("after") != "" {
		// Incremental sync: everything newer than the cursor
		messages, err = h.service.Sync(c.Request.Context(), userID, conversationID, after, limit)
	} else {
		messages, err = h.service.History(c.Request.Context(), userID, conversationID, before, limit)
	}
	if err != nil {
		common.ServiceErrorResponse(c, err)
		return
	}

	meta := &common.Meta{Limit: limit}
	if len(messages) > 0 {
		meta.Cursor = messages[0].ID
	}
	common.SuccessResponse(c, messages, meta)
}

// MarkRead handles POST /conversations/:id/read
// @Summary Mark every unread message addressed to the caller as read
// @Tags messages
// @Produce json
// @Param id path int true "conversation id"
// @Success 200 {object} common.APIResponse{data=domain.MarkReadResponse}
// @Security BearerAuth
// @Router /conversations/{id}/read [post]
func (h *MessageHandler) MarkRead(c *gin.Context) {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		common.ErrorResponse(c, http.StatusUnauthorized, "authentication required", nil)
		return
	}

	conversationID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid conversation id", err)
		return
	}

	updated, err := h.service.MarkRead(c.Request.Context(), userID, conversationID)
	if err != nil {
		common.ServiceErrorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, common.APIResponse{Data: domain.MarkReadResponse{
		ConversationID: conversationID,
		Updated:        updated,
	}})
}

package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pawmates/pawmates-backend/internal/common"
	"github.com/pawmates/pawmates-backend/internal/domain"
	"github.com/pawmates/pawmates-backend/internal/middleware"
	"github.com/pawmates/pawmates-backend/internal/service"
)

// ConversationHandler handles conversation list HTTP requests
type ConversationHandler struct {
	service service.ConversationService
	unread  service.UnreadService
}

// NewConversationHandler creates a new ConversationHandler
func NewConversationHandler(service service.ConversationService, unread service.UnreadService) *ConversationHandler {
	return &ConversationHandler{service: service, unread: unread}
}

// List handles GET /conversations
// @Summary Conversations of the caller, newest activity first
// @Tags conversations
// @Produce json
// @Success 200 {object} common.APIResponse{data=[]domain.ConversationSummary}
// @Security BearerAuth
// @Router /conversations [get]
func (h *ConversationHandler) List(c *gin.Context) {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		common.ErrorResponse(c, http.StatusUnauthorized, "authentication required", nil)
		return
	}

	summaries, err := h.service.ListForUser(c.Request.Context(), userID)
	if err != nil {
		common.ServiceErrorResponse(c, err)
		return
	}

	common.SuccessResponse(c, summaries, &common.Meta{Total: int64(len(summaries))})
}

// Handle handles POST /conversations/handle
// @Summary Deterministic conversation id for (caller, user, pet)
// @Tags conversations
// @Accept json
// @Produce json
// @Param request body domain.HandleRequest true "counterpart and pet"
// @Success 200 {object} common.APIResponse{data=domain.HandleResponse}
// @Security BearerAuth
// @Router /conversations/handle [post]
func (h *ConversationHandler) Handle(c *gin.Context) {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		common.ErrorResponse(c, http.StatusUnauthorized, "authentication required", nil)
		return
	}

	var req domain.HandleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid request body", err)
		return
	}

	result, err := h.service.Handle(c.Request.Context(), userID, req.UserID, req.PetID)
	if err != nil {
		common.ServiceErrorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, common.APIResponse{Data: result})
}

// UnreadCount handles GET /messages/unread-count
// @Summary Global unread badge count for the caller
// @Tags messages
// @Produce json
// @Success 200 {object} common.APIResponse{data=domain.UnreadCountResponse}
// @Security BearerAuth
// @Router /messages/unread-count [get]
func (h *ConversationHandler) UnreadCount(c *gin.Context) {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		common.ErrorResponse(c, http.StatusUnauthorized, "authentication required", nil)
		return
	}

	total, err := h.unread.CountForUser(c.Request.Context(), userID)
	if err != nil {
		common.ServiceErrorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, common.APIResponse{Data: domain.UnreadCountResponse{Total: total}})
}

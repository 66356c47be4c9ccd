// internal/handlers/message.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/planmarket/planmarket-backend/internal/services"
	"github.com/planmarket/planmarket-backend/internal/utils"
)

type MessageHandler struct {
	messagingService *services.MessagingService
}

func NewMessageHandler(messagingService *services.MessagingService) *MessageHandler {
	return &MessageHandler{messagingService: messagingService}
}

// POST /designs/:id/conversations
func (h *MessageHandler) OpenConversation(c *gin.Context) {
	identity, ok := identityFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "Authentication required")
		return
	}
	designID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	conversation, err := h.messagingService.OpenConversation(identity, designID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.CreatedResponse(c, conversation)
}

// GET /conversations
func (h *MessageHandler) GetConversations(c *gin.Context) {
	identity, ok := identityFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "Authentication required")
		return
	}

	params := utils.GetPaginationParams(c)
	conversations, total, err := h.messagingService.GetConversations(identity, params)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(conversations, total, params))
}

// GET /conversations/:id/messages
func (h *MessageHandler) GetMessages(c *gin.Context) {
	identity, ok := identityFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "Authentication required")
		return
	}
	conversationID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	messages, total, err := h.messagingService.GetMessages(conversationID, identity, params)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(messages, total, params))
}

// POST /conversations/:id/messages
func (h *MessageHandler) SendMessage(c *gin.Context) {
	identity, ok := identityFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "Authentication required")
		return
	}
	conversationID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req services.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	message, err := h.messagingService.SendMessage(conversationID, identity, &req)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.CreatedResponse(c, message)
}

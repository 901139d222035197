package handler

import (
	"errors"
	"net/http"
	"spur-chat-go/internal/service"
	"spur-chat-go/pkg/log"

	"github.com/gin-gonic/gin"
)

// ConversationHandler 处理与对话历史相关的 API 请求。
type ConversationHandler struct {
	service service.ConversationService
}

// NewConversationHandler 创建一个新的 ConversationHandler。
func NewConversationHandler(service service.ConversationService) *ConversationHandler {
	return &ConversationHandler{service: service}
}

// GetHistory 处理 GET /api/chat/history/:sessionId。
func (h *ConversationHandler) GetHistory(c *gin.Context) {
	sessionID := c.Param("sessionId")

	messages, err := h.service.GetHistory(c.Request.Context(), sessionID)
	if errors.Is(err, service.ErrConversationNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": service.ErrConversationNotFound.Error()})
		return
	}
	if err != nil {
		log.Error("History endpoint error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch conversation history"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": messages})
}

// Package handler 包含了处理 HTTP 请求的控制器逻辑。
package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"spur-chat-go/internal/service"
	"spur-chat-go/pkg/log"

	"github.com/gin-gonic/gin"
)

// ErrInvalidSessionID 表示请求中的 sessionId 不是字符串。
var ErrInvalidSessionID = errors.New("Session ID must be a string")

// ChatHandler 负责处理聊天消息请求。
type ChatHandler struct {
	chatService service.ChatService
	// debug 为 true 时，500 响应中附带错误详情
	debug bool
}

// NewChatHandler 创建一个新的 ChatHandler。
func NewChatHandler(chatService service.ChatService, debug bool) *ChatHandler {
	return &ChatHandler{chatService: chatService, debug: debug}
}

// SendMessageRequest 定义了发送消息 API 的请求体结构。
// Message 为指针，用于区分缺失字段和空字符串。
type SendMessageRequest struct {
	Message   *string `json:"message"`
	SessionID string  `json:"sessionId"`
}

// SendMessage 处理 POST /api/chat/message。
func (h *ChatHandler) SendMessage(c *gin.Context) {
	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warnf("SendMessage: Invalid request payload, error: %v", err)
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field == "sessionId" {
			c.JSON(http.StatusBadRequest, gin.H{"error": ErrInvalidSessionID.Error()})
			return
		}
		// 请求体无法解析，或 message 不是字符串
		c.JSON(http.StatusBadRequest, gin.H{"error": service.ErrMessageRequired.Error()})
		return
	}

	result, err := h.chatService.SendMessage(c.Request.Context(), req.Message, req.SessionID)
	if err != nil {
		switch {
		case service.IsValidationError(err):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrConversationNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": service.ErrConversationNotFound.Error()})
		default:
			log.Error("Chat endpoint error", err)
			resp := gin.H{"error": "An unexpected error occurred. Please try again."}
			if h.debug {
				resp["details"] = err.Error()
			}
			c.JSON(http.StatusInternalServerError, resp)
		}
		return
	}

	c.JSON(http.StatusOK, result)
}

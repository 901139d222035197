// Package server 负责组装 Gin 路由引擎。
package server

import (
	"spur-chat-go/internal/handler"
	"spur-chat-go/internal/middleware"
	"spur-chat-go/internal/service"

	"github.com/gin-gonic/gin"
)

// Options 是构建路由所需的依赖。
type Options struct {
	Mode                string
	ServiceName         string
	CORSOrigins         []string
	ChatService         service.ChatService
	ConversationService service.ConversationService
}

// NewRouter 创建路由引擎并注册所有路由。
func NewRouter(opts Options) *gin.Engine {
	if opts.Mode != "" {
		gin.SetMode(opts.Mode)
	}
	r := gin.New() // 不带默认中间件
	r.Use(middleware.Recovery(), middleware.RequestLogger(), middleware.CORS(opts.CORSOrigins))

	r.GET("/health", handler.NewHealthHandler(opts.ServiceName).HealthCheck)

	chatHandler := handler.NewChatHandler(opts.ChatService, gin.Mode() == gin.DebugMode)
	conversationHandler := handler.NewConversationHandler(opts.ConversationService)

	chat := r.Group("/api/chat")
	{
		chat.POST("/message", chatHandler.SendMessage)
		chat.GET("/history/:sessionId", conversationHandler.GetHistory)
	}
	return r
}

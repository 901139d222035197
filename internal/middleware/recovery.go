package middleware

import (
	"fmt"
	"net/http"
	"spur-chat-go/pkg/log"

	"github.com/gin-gonic/gin"
)

// Recovery 是最外层的错误边界：捕获 panic，记录日志并返回通用的 500 响应。
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		log.Errorw("Unhandled error", "path", c.Request.URL.Path, "panic", fmt.Sprint(recovered))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	})
}

package middlewares

import (
	"github.com/gin-gonic/gin"
)

// abort writes the same error envelope as the handlers package.
func abort(c *gin.Context, status int, code, message string) {
	body := gin.H{
		"success": false,
		"error":   message,
		"code":    code,
	}
	if id := c.GetString(CtxRequestID); id != "" {
		body["requestId"] = id
	}
	c.AbortWithStatusJSON(status, body)
}

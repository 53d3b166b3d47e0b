package handlers

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// getLogger retrieves the request logger placed by middleware.RequestLogger.
func getLogger(c *gin.Context) *zap.Logger {
	if l, exists := c.Get("logger"); exists {
		if logger, ok := l.(*zap.Logger); ok {
			return logger
		}
	}
	return zap.L()
}

// memberEmail is the authenticated member's email.
func memberEmail(c *gin.Context) string {
	return c.GetString("userEmail")
}

func isAdmin(c *gin.Context) bool {
	return c.GetBool("isAdmin")
}

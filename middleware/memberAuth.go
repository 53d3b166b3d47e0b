package middleware

import (
	"net/http"
	"strings"

	"sportivox/utils"

	"github.com/gin-gonic/gin"
)

// Context keys set by the auth middlewares.
const (
	ContextUserEmail = "userEmail"
	ContextRole      = "role"
	ContextIsAdmin   = "isAdmin"
)

func bearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
}

// authenticateMember validates the bearer token and stores the member
// claims in the context. It aborts the request and returns false otherwise.
func authenticateMember(c *gin.Context) bool {
	tokenString := bearerToken(c)
	if tokenString == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": "Insufficient authorization",
			"code":  0,
		})
		return false
	}

	email, role, err := utils.ExtractClaimsFromToken(tokenString)
	if err != nil {
		getLogger(c).Debug("rejected member token")
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": "Insufficient authorization",
			"code":  0,
		})
		return false
	}

	c.Set(ContextUserEmail, strings.ToLower(email))
	c.Set(ContextRole, role)
	c.Set(ContextIsAdmin, role == "admin")
	return true
}

// JWTAuthMemberMiddleware requires a valid member token and stores the
// member email in the context.
func JWTAuthMemberMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !authenticateMember(c) {
			return
		}
		c.Next()
	}
}

package middleware

import (
	"net/http"
	"strings"

	"bookbus/internal/domain"
	"bookbus/internal/services"

	"github.com/gin-gonic/gin"
)

const (
	userIDKey   = "userID"
	userRoleKey = "userRole"
)

// Auth requires a valid bearer token and stores the caller on the context.
func Auth(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.GetHeader("Authorization")
		raw, ok := strings.CutPrefix(h, "Bearer ")
		if !ok || strings.TrimSpace(raw) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "missing bearer token", "code": "unauthenticated", "request_id": GetRequestID(c),
			})
			return
		}
		rc, err := services.ParseToken(secret, strings.TrimSpace(raw))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "invalid or expired token", "code": "unauthenticated", "request_id": GetRequestID(c),
			})
			return
		}
		c.Set(userIDKey, rc.UserID)
		c.Set(userRoleKey, rc.Role)
		c.Next()
	}
}

// RequireRoles only lets callers with one of allowedRoles through. Auth must run first.
func RequireRoles(allowedRoles ...string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(allowedRoles))
	for _, r := range allowedRoles {
		allowed[strings.ToLower(strings.TrimSpace(r))] = struct{}{}
	}

	return func(c *gin.Context) {
		role := c.GetString(userRoleKey)
		if role == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "no role on request", "code": "unauthenticated", "request_id": GetRequestID(c),
			})
			return
		}
		if _, ok := allowed[strings.ToLower(role)]; !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "role not allowed", "code": "forbidden", "request_id": GetRequestID(c),
			})
			return
		}
		c.Next()
	}
}

// CurrentUser returns the authenticated caller.
func CurrentUser(c *gin.Context) domain.RequestContext {
	return domain.RequestContext{UserID: c.GetInt64(userIDKey), Role: c.GetString(userRoleKey)}
}

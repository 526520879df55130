package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/eventdesk/backend/internal/auth"
	"github.com/eventdesk/backend/internal/models"
	"github.com/eventdesk/backend/pkg/response"
)

// RequireRole allows callers holding any of roles. Must run after JWT.
func RequireRole(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := auth.ClaimsFrom(c)
		if claims == nil {
			response.Unauthorized(c, "missing user context")
			c.Abort()
			return
		}
		for _, r := range roles {
			if claims.HasRole(r) {
				c.Next()
				return
			}
		}
		response.Forbidden(c, "insufficient permissions")
		c.Abort()
	}
}

package auth

import (
	"github.com/gin-gonic/gin"
)

// ContextClaims is the gin context key holding the caller's *Claims.
const ContextClaims = "auth_claims"

// SetClaims stores validated claims on the request context.
func SetClaims(c *gin.Context, claims *Claims) {
	c.Set(ContextClaims, claims)
}

// ClaimsFrom returns the caller's claims, or nil outside authenticated routes.
func ClaimsFrom(c *gin.Context) *Claims {
	v, ok := c.Get(ContextClaims)
	if !ok {
		return nil
	}
	claims, _ := v.(*Claims)
	return claims
}

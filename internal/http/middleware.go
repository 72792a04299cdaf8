package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"blog-server/internal/auth"
)

const identityKey = "caller"

// requireAuth verifies the Bearer token and attaches the caller's verified
// {id, name} to the request context before the handler runs.
func (h *Handler) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			fail(c, http.StatusUnauthorized, "Unauthorized.")
			return
		}

		claims, err := h.creds.ParseToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			fail(c, http.StatusUnauthorized, "Unauthorized.")
			return
		}

		c.Set(identityKey, claims)
		c.Next()
	}
}

func callerIdentity(c *gin.Context) *auth.Claims {
	v, ok := c.Get(identityKey)
	if !ok {
		return nil
	}
	claims, ok := v.(*auth.Claims)
	if !ok {
		return nil
	}
	return claims
}

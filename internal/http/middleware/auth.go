// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements the admin API credential check. The surface is an
// operator tool, not a public API, so a single shared token is sufficient;
// anything stronger belongs at the reverse proxy.
package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
)

// HeaderAdminToken carries the shared admin credential.
const HeaderAdminToken = "X-Admin-Token"

// AdminToken returns a middleware that rejects requests whose X-Admin-Token
// header does not match the configured token. An empty configured token
// disables the check, which is the development default.
//
// Comparison is constant-time to avoid leaking the token through timing.
func AdminToken(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token == "" {
			c.Next()
			return
		}
		got := c.GetHeader(HeaderAdminToken)
		if subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"request_id": c.Writer.Header().Get("X-Request-ID"),
				"code":       "unauthorized",
				"message":    "missing or invalid admin token",
			})
			return
		}
		c.Next()
	}
}

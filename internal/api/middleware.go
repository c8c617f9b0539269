package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"bakery/internal/auth"
)

// RequireToken rejects requests without a valid bearer token.
func RequireToken(secret, password string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := strings.TrimSpace(strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer "))
		if !auth.CheckToken(token, secret, password) {
			abortErrors(c, http.StatusUnauthorized, errToken)
			return
		}
		c.Next()
	}
}

package controller

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"caro-server/internal/api/response"
	"caro-server/internal/api/service"
)

const usernameKey = "username"

// AuthRequired extracts and validates the bearer token, storing the username
// in the request context for downstream handlers.
func AuthRequired(userService service.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			response.ErrorResponse(c, http.StatusUnauthorized, "missing bearer token")
			c.Abort()
			return
		}

		username, err := userService.ParseToken(token)
		if err != nil {
			response.ErrorResponse(c, http.StatusUnauthorized, "invalid token")
			c.Abort()
			return
		}

		c.Set(usernameKey, username)
		c.Next()
	}
}

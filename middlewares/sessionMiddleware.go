package middlewares

import (
	"net/http"

	"bitbucket.org/mmdatafocus/dealer_orders_backend/config"
	"bitbucket.org/mmdatafocus/dealer_orders_backend/utils"
	"github.com/gin-gonic/gin"
)

const sessionKeyPrefix = "Token:"

// SessionMiddleware resolves the optional "token" header to a username stored in Redis.
// Requests without a token pass through anonymously.
func SessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Request.Header.Get("token")
		if token == "" {
			c.Next()
			return
		}
		username, exists, err := config.GetRedisBytes(c.Request.Context(), sessionKeyPrefix+token)
		if err != nil || !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}

		ctx := utils.SetUsernameInContext(c.Request.Context(), string(username))
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

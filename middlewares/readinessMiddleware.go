package middlewares

import (
	"net/http"

	"bitbucket.org/mmdatafocus/dealer_orders_backend/config"
	"github.com/gin-gonic/gin"
)

const HealthzPath = "/healthz"

// ReadinessMiddleware answers /healthz directly and returns 503 for everything else
// until the database (and Redis, when the report cache is on) is connected.
func ReadinessMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.Path == HealthzPath {
			c.Status(http.StatusNoContent)
			c.Abort()
			return
		}
		if config.GetDB() == nil || (config.ReportCacheEnabled() && config.GetRedisDB() == nil) {
			c.AbortWithStatus(http.StatusServiceUnavailable)
			return
		}
		c.Next()
	}
}

// README: Prometheus request metrics middleware.
package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"rideloop/internal/observability"
)

func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		observability.HTTPRequests.WithLabelValues(
			route, c.Request.Method, strconv.Itoa(c.Writer.Status()),
		).Inc()
		observability.HTTPDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}

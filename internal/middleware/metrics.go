package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-habit-api/internal/service"
)

// unmatchedRoute is the path label of requests no route matched.
const unmatchedRoute = "unmatched"

// Metrics records the duration and status of every request under its route
// template (e.g. /api/v1/submissions/:id). A nil service disables recording.
func Metrics(metrics *service.MetricsService) gin.HandlerFunc {
	if metrics == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = unmatchedRoute
		}
		metrics.ObserveHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}

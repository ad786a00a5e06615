package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/marocainperdu/projet-bah/internal/service"
)

// Metrics records per-route request counts and latency into the Prometheus
// registry. Unmatched routes fall back to the raw URL path so probes against
// unknown endpoints still show up.
func Metrics(metricsSvc *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metricsSvc == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()
		duration := time.Since(start)
		status := c.Writer.Status()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		metricsSvc.ObserveHTTPRequest(c.Request.Method, path, status, duration)
	}
}

package middleware

import (
	"strconv"
	"time"

	"github.com/GDGVITM/hackbuild-Techwiz-sub000/pkg/metrics"
	"github.com/gin-gonic/gin"
)

// Metrics records request latency per route. Uses the matched route pattern
// rather than the raw path so ids don't explode label cardinality.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.ObserveRequest(
			c.Request.Method,
			route,
			strconv.Itoa(c.Writer.Status()),
			time.Since(start),
		)
	}
}

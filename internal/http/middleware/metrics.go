package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Mohd-Murtaza/YouTube-Video-AI-Chatbot/internal/observability"
)

// Routes never labelled by Metrics; scrapes would otherwise dominate the
// request series.
var unobservedRoutes = map[string]struct{}{
	"/metrics": {},
}

// Metrics records per-route request latency and the in-flight gauge. Paths
// that match no route share the "unmatched" label so probes for random URLs
// cannot grow the series set.
func Metrics(m *observability.Metrics) gin.HandlerFunc {
	if m == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		route := c.FullPath()
		if _, skip := unobservedRoutes[route]; skip {
			c.Next()
			return
		}
		if route == "" {
			route = "unmatched"
		}

		start := time.Now()
		m.ApiInflightInc()
		c.Next()
		m.ApiInflightDec()

		m.ObserveAPI(c.Request.Method, route, strconv.Itoa(c.Writer.Status()), time.Since(start))
	}
}

package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Mohd-Murtaza/YouTube-Video-AI-Chatbot/internal/platform/ctxutil"
	"github.com/Mohd-Murtaza/YouTube-Video-AI-Chatbot/internal/platform/logger"
)

// Routes logged at debug level when they succeed.
var quietRoutes = map[string]struct{}{
	"/api/health": {},
	"/metrics":    {},
}

// RequestLogger writes one line per request carrying the trace fields from
// AttachTraceContext and any causes handlers attached with c.Error.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	if log == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		path := route
		if path == "" {
			path = c.Request.URL.Path
		}
		status := c.Writer.Status()

		fields := append([]any{
			"method", c.Request.Method,
			"path", path,
			"status", status,
			"duration_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		}, ctxutil.Fields(c.Request.Context())...)
		if len(c.Errors) > 0 {
			fields = append(fields, "error", c.Errors.String())
		}

		_, quiet := quietRoutes[route]
		switch {
		case status >= 500:
			log.Error("HTTP request", fields...)
		case status >= 400:
			log.Warn("HTTP request", fields...)
		case quiet:
			log.Debug("HTTP request", fields...)
		default:
			log.Info("HTTP request", fields...)
		}
	}
}

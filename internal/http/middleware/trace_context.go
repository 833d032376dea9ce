package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/Mohd-Murtaza/YouTube-Video-AI-Chatbot/internal/observability"
	"github.com/Mohd-Murtaza/YouTube-Video-AI-Chatbot/internal/platform/ctxutil"
)

const (
	headerTraceID   = "X-Trace-Id"
	headerRequestID = "X-Request-Id"

	videoIDParam = "videoId"
)

// AttachTraceContext seeds ctxutil.TraceData for the request. The trace id
// prefers the caller's header, then the active otel span; the route's
// :videoId, when present, is recorded on both the trace data and the span.
func AttachTraceContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		span := trace.SpanFromContext(ctx)

		td := &ctxutil.TraceData{
			RequestID: firstNonEmpty(c.GetHeader(headerRequestID), uuid.NewString()),
			TraceID:   strings.TrimSpace(c.GetHeader(headerTraceID)),
			VideoID:   strings.TrimSpace(c.Param(videoIDParam)),
		}
		if td.TraceID == "" && span.SpanContext().HasTraceID() {
			td.TraceID = span.SpanContext().TraceID().String()
		}
		if td.TraceID == "" {
			td.TraceID = uuid.NewString()
		}
		if td.VideoID != "" {
			span.SetAttributes(observability.AttrVideoID.String(td.VideoID))
		}
		span.SetAttributes(observability.AttrRequestID.String(td.RequestID))

		c.Request = c.Request.WithContext(ctxutil.WithTraceData(ctx, td))
		c.Header(headerTraceID, td.TraceID)
		c.Header(headerRequestID, td.RequestID)
		c.Next()
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

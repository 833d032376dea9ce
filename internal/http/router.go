package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/Mohd-Murtaza/YouTube-Video-AI-Chatbot/internal/http/handlers"
	httpMW "github.com/Mohd-Murtaza/YouTube-Video-AI-Chatbot/internal/http/middleware"
	"github.com/Mohd-Murtaza/YouTube-Video-AI-Chatbot/internal/observability"
	"github.com/Mohd-Murtaza/YouTube-Video-AI-Chatbot/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	Metrics        *observability.Metrics
	AllowedOrigins []string
	ServiceName    string

	TranscriptHandler *httpH.TranscriptHandler
	ChatHandler       *httpH.ChatHandler
	HealthHandler     *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.AllowedOrigins))

	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapF(cfg.Metrics.WriteHTTP))
	}

	api := r.Group("/api")
	{
		if cfg.HealthHandler != nil {
			api.GET("/health", cfg.HealthHandler.HealthCheck)
		}

		// Transcripts
		if cfg.TranscriptHandler != nil {
			api.POST("/transcripts", cfg.TranscriptHandler.Ingest)
			api.GET("/transcripts/:videoId", cfg.TranscriptHandler.Get)
			api.POST("/transcripts/:videoId/reindex", cfg.TranscriptHandler.Reindex)
			api.DELETE("/transcripts/:videoId/vectors", cfg.TranscriptHandler.RemoveVectors)
		}

		// Chat
		if cfg.ChatHandler != nil {
			api.POST("/chat", cfg.ChatHandler.Ask)
		}
	}

	return r
}

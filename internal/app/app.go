package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/Mohd-Murtaza/YouTube-Video-AI-Chatbot/internal/data/db"
	"github.com/Mohd-Murtaza/YouTube-Video-AI-Chatbot/internal/data/repos/transcripts"
	apphttp "github.com/Mohd-Murtaza/YouTube-Video-AI-Chatbot/internal/http"
	httpH "github.com/Mohd-Murtaza/YouTube-Video-AI-Chatbot/internal/http/handlers"
	"github.com/Mohd-Murtaza/YouTube-Video-AI-Chatbot/internal/observability"
	"github.com/Mohd-Murtaza/YouTube-Video-AI-Chatbot/internal/platform/envutil"
	"github.com/Mohd-Murtaza/YouTube-Video-AI-Chatbot/internal/platform/logger"
)

const serviceName = "video-chat-backend"

type App struct {
	Log      *logger.Logger
	Cfg      Config
	DB       *db.Service
	Clients  Clients
	Services Services
	Server   *apphttp.Server
	Metrics  *observability.Metrics

	otelShutdown func(context.Context) error
}

func New(ctx context.Context) (*App, error) {
	dotenvErr := LoadDotEnv()
	log, err := logger.New(envutil.String("LOG_MODE", "development"))
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	if dotenvErr != nil {
		log.Warn("Failed to load .env", "error", dotenvErr)
	}

	log.Info("Loading environment variables...")
	cfg := LoadConfig(log)

	a := &App{Log: log, Cfg: cfg}
	a.Metrics = observability.Init(log)
	if envutil.Bool("OTEL_ENABLED", false) {
		a.otelShutdown = observability.InitOTel(ctx, log, observability.OtelConfig{
			ServiceName: serviceName,
			Environment: cfg.Env,
			Version:     envutil.String("APP_VERSION", "dev"),
		})
	}

	a.DB, err = db.Open(log, cfg.DB)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("init database: %w", err)
	}

	a.Clients, err = wireClients(ctx, log, cfg)
	if err != nil {
		a.Close()
		return nil, err
	}

	repo := transcripts.NewTranscriptRepo(a.DB.DB(), log)
	a.Services, err = wireServices(ctx, log, cfg, repo, a.Clients)
	if err != nil {
		a.Close()
		return nil, err
	}

	routerCfg := apphttp.RouterConfig{
		Log:               log,
		Metrics:           a.Metrics,
		AllowedOrigins:    cfg.AllowedOrigins,
		TranscriptHandler: httpH.NewTranscriptHandler(a.Services.Transcripts),
		ChatHandler:       httpH.NewChatHandler(a.Services.Chat, cfg.ExposeChatDiag),
		HealthHandler:     httpH.NewHealthHandler(a.Services.Health),
	}
	if a.otelShutdown != nil {
		routerCfg.ServiceName = serviceName
	}
	a.Server = apphttp.NewServer(routerCfg)
	return a, nil
}

// Run serves HTTP and drives the indexing worker until ctx is cancelled or
// one of them fails.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.Server == nil {
		return errors.New("app not initialized")
	}
	g, gctx := errgroup.WithContext(ctx)

	if err := a.Services.Worker.Start(gctx, a.Services.Transcripts.IndexVideo); err != nil {
		return fmt.Errorf("start index worker: %w", err)
	}
	g.Go(func() error {
		a.Services.Worker.Wait()
		return nil
	})

	if a.Metrics != nil {
		a.Metrics.StartDBCollector(gctx, a.Log, a.DB.DB())
		if a.Clients.Redis != nil {
			a.Metrics.StartRedisCollector(gctx, a.Log, a.Clients.Redis)
		}
		if addr := strings.TrimSpace(a.Cfg.MetricsAddr); addr != "" {
			g.Go(func() error {
				a.Log.Info("Metrics server listening", "addr", addr)
				return a.Metrics.Serve(gctx, addr)
			})
		}
	}

	addr := ":" + strings.TrimPrefix(a.Cfg.Port, ":")
	g.Go(func() error {
		a.Log.Info("HTTP server listening", "addr", addr, "vector_backend", a.Services.Index.Backend())
		return a.Server.Run(gctx, addr)
	})
	return g.Wait()
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.otelShutdown != nil {
		if err := a.otelShutdown(context.Background()); err != nil && a.Log != nil {
			a.Log.Warn("OTel shutdown failed", "error", err)
		}
		a.otelShutdown = nil
	}
	a.Clients.Close()
	if a.DB != nil {
		if err := a.DB.Close(); err != nil && a.Log != nil {
			a.Log.Warn("Database close failed", "error", err)
		}
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}

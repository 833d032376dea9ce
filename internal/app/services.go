package app

import (
	"context"
	"fmt"

	"github.com/Mohd-Murtaza/YouTube-Video-AI-Chatbot/internal/data/repos/transcripts"
	"github.com/Mohd-Murtaza/YouTube-Video-AI-Chatbot/internal/jobs/worker"
	"github.com/Mohd-Murtaza/YouTube-Video-AI-Chatbot/internal/platform/logger"
	"github.com/Mohd-Murtaza/YouTube-Video-AI-Chatbot/internal/platform/redislock"
	"github.com/Mohd-Murtaza/YouTube-Video-AI-Chatbot/internal/rag/chunking"
	"github.com/Mohd-Murtaza/YouTube-Video-AI-Chatbot/internal/rag/completion"
	"github.com/Mohd-Murtaza/YouTube-Video-AI-Chatbot/internal/rag/embeddings"
	"github.com/Mohd-Murtaza/YouTube-Video-AI-Chatbot/internal/rag/indexing"
	"github.com/Mohd-Murtaza/YouTube-Video-AI-Chatbot/internal/rag/retrieval"
	"github.com/Mohd-Murtaza/YouTube-Video-AI-Chatbot/internal/rag/vectorindex"
	"github.com/Mohd-Murtaza/YouTube-Video-AI-Chatbot/internal/services"
)

type Services struct {
	Index       *vectorindex.Index
	Indexer     *indexing.Coordinator
	Worker      *worker.Worker
	Transcripts services.TranscriptService
	Chat        services.ChatService
	Health      services.HealthService
}

func wireServices(ctx context.Context, log *logger.Logger, cfg Config, repo transcripts.TranscriptRepo, clients Clients) (Services, error) {
	var out Services

	provider, err := resolveEmbeddingProvider(log, cfg)
	if err != nil {
		return out, err
	}
	ecfg := embeddings.DefaultConfig()
	ecfg.Provider = cfg.EmbeddingProvider
	ecfg.Dimensions = cfg.EmbeddingDimensions
	ecfg.BatchSize = cfg.EmbeddingBatchSize
	ecfg.MaxAttempts = cfg.EmbeddingMaxAttempts
	embedder, err := embeddings.New(log, provider, ecfg)
	if err != nil {
		return out, fmt.Errorf("init embedder: %w", err)
	}

	backend, err := resolveVectorBackend(ctx, log, cfg)
	if err != nil {
		return out, err
	}
	vcfg := vectorindex.DefaultConfig()
	vcfg.Dimensions = embedder.Dimensions()
	index, err := vectorindex.New(log, backend, vcfg)
	if err != nil {
		return out, fmt.Errorf("init vector index: %w", err)
	}
	out.Index = index

	var locker redislock.Locker = redislock.Nop{}
	if clients.Redis != nil {
		locker, err = redislock.New(log, clients.Redis, redislock.Config{TTL: cfg.IndexLockTTL})
		if err != nil {
			return out, fmt.Errorf("init index lock: %w", err)
		}
	}
	coord, err := indexing.New(log, chunking.New(log), embedder, index, transcripts.NewFlagStore(repo), indexing.WithLocker(locker))
	if err != nil {
		return out, err
	}
	out.Indexer = coord

	out.Worker = worker.NewWorker(log, worker.Config{
		Concurrency:   cfg.IndexWorkerConcurrency,
		QueueSize:     cfg.IndexQueueSize,
		SweepInterval: cfg.IndexSweepInterval,
	}, func(ctx context.Context, limit int) ([]string, error) {
		return repo.ListUnindexed(ctx, nil, limit)
	})

	orchestrator := retrieval.New(log, embedder, index, retrieval.Config{
		TopK:            cfg.RAGTopK,
		ScoreThreshold:  cfg.RAGScoreThreshold,
		RawContextChars: cfg.RAGRawContextChars,
		Timeout:         cfg.RAGRetrievalTimeout,
	})

	models, err := completion.LoadCatalog(cfg.CompletionModelsFile)
	if err != nil {
		return out, fmt.Errorf("load completion models: %w", err)
	}
	completer, err := completion.New(log, clients.Chat, models)
	if err != nil {
		return out, fmt.Errorf("init completion: %w", err)
	}

	out.Transcripts = services.NewTranscriptService(log, repo, coord, out.Worker)
	out.Chat = services.NewChatService(log, repo, orchestrator, completer, out.Worker)

	checks := map[string]services.Pinger{
		"database": services.PingFunc(repo.Ping),
	}
	if clients.Redis != nil {
		rdb := clients.Redis
		checks["redis"] = services.PingFunc(func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		})
	}
	out.Health = services.NewHealthService(log, checks)
	return out, nil
}

package app

import (
	"context"
	"fmt"
	"strings"

	goredis "github.com/redis/go-redis/v9"

	"github.com/Mohd-Murtaza/YouTube-Video-AI-Chatbot/internal/platform/chatllm"
	"github.com/Mohd-Murtaza/YouTube-Video-AI-Chatbot/internal/platform/logger"
	"github.com/Mohd-Murtaza/YouTube-Video-AI-Chatbot/internal/platform/redislock"
)

type Clients struct {
	// Redis is nil when REDIS_ADDR is unset; indexing then runs without a
	// cross-process lock.
	Redis *goredis.Client
	Chat  chatllm.Client
}

var dialRedis = redislock.Dial

func wireClients(ctx context.Context, log *logger.Logger, cfg Config) (Clients, error) {
	var out Clients

	if addr := strings.TrimSpace(cfg.RedisAddr); addr != "" {
		rdb, err := dialRedis(ctx, addr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return out, fmt.Errorf("init redis: %w", err)
		}
		log.Info("Redis connected", "addr", addr, "db", cfg.RedisDB)
		out.Redis = rdb
	} else {
		log.Warn("REDIS_ADDR not set; indexing lock is process-local")
	}

	chat, err := chatllm.New(log, chatllm.Config{
		APIKey:  cfg.CompletionAPIKey,
		BaseURL: cfg.CompletionBaseURL,
		Timeout: cfg.CompletionTimeout,
	})
	if err != nil {
		out.Close()
		return Clients{}, fmt.Errorf("init completion client: %w", err)
	}
	out.Chat = chat
	return out, nil
}

func (c Clients) Close() {
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
}

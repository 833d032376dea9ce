// Package completion sends the grounded prompt to the completion service,
// walking the model catalog on rate limits.
package completion

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel/attribute"

	"github.com/Mohd-Murtaza/YouTube-Video-AI-Chatbot/internal/observability"
	"github.com/Mohd-Murtaza/YouTube-Video-AI-Chatbot/internal/platform/chatllm"
	"github.com/Mohd-Murtaza/YouTube-Video-AI-Chatbot/internal/platform/httpx"
	"github.com/Mohd-Murtaza/YouTube-Video-AI-Chatbot/internal/platform/logger"
)

var ErrAllModelsFailed = errors.New("all completion models failed")

const (
	ContextTruncationMarker = "\n...(context truncated)"
	EmptyAnswer             = "Sorry, I couldn't generate a response."
)

type Request struct {
	// Context is the grounding material; it is cut per model.
	Context string
	// SystemPrompt renders the system message around the (cut) context.
	SystemPrompt func(context string) string
	History      []chatllm.Message
	UserMessage  string
}

type Result struct {
	Answer string
	Model  string
}

type Service struct {
	log    *logger.Logger
	client chatllm.Client
	models []Model
}

func New(log *logger.Logger, client chatllm.Client, models []Model) (*Service, error) {
	if client == nil {
		return nil, fmt.Errorf("completion client required")
	}
	if len(models) == 0 {
		models = DefaultCatalog()
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Service{log: log.With("service", "CompletionService"), client: client, models: models}, nil
}

// Complete tries each model in order. Only a 429 moves on to the next
// model; any other failure aborts.
func (s *Service) Complete(ctx context.Context, req Request) (Result, error) {
	if req.SystemPrompt == nil {
		req.SystemPrompt = func(c string) string { return c }
	}
	metrics := observability.Current()

	for i, m := range s.models {
		ctxText := TruncateContext(req.Context, m.ContextChars)
		messages := make([]chatllm.Message, 0, len(req.History)+2)
		messages = append(messages, chatllm.Message{Role: "system", Content: req.SystemPrompt(ctxText)})
		messages = append(messages, req.History...)
		messages = append(messages, chatllm.Message{Role: "user", Content: req.UserMessage})

		spanCtx, span := observability.StartSpan(ctx, "rag.complete",
			attribute.String("llm.model", m.Name),
			attribute.Int("llm.context_chars", utf8.RuneCountInString(ctxText)),
		)
		start := time.Now()
		resp, err := s.client.Complete(spanCtx, chatllm.Request{
			Model:       m.Name,
			Messages:    messages,
			Temperature: m.Temperature,
			MaxTokens:   m.MaxTokens,
			TopP:        m.TopP,
		})
		observability.EndSpan(span, err)

		if err == nil {
			metrics.ObserveCompletion(m.Name, "success", time.Since(start), resp.PromptTokens, resp.CompletionTokens)
			answer := strings.TrimSpace(resp.Content)
			if answer == "" {
				answer = EmptyAnswer
			}
			s.log.Info("Completion succeeded", "model", m.Name, "attempt", i+1)
			return Result{Answer: answer, Model: m.Name}, nil
		}

		if httpx.StatusCode(err) == http.StatusTooManyRequests {
			metrics.ObserveCompletion(m.Name, "rate_limited", time.Since(start), 0, 0)
			s.log.Warn("Completion model rate limited; trying next model",
				"model", m.Name,
				"attempt", i+1,
				"models", len(s.models),
			)
			continue
		}
		metrics.ObserveCompletion(m.Name, "error", time.Since(start), 0, 0)
		s.log.Error("Completion failed", "model", m.Name, "error", err)
		return Result{}, fmt.Errorf("completion with %s: %w", m.Name, err)
	}
	return Result{}, ErrAllModelsFailed
}

// TruncateContext cuts text to max runes and marks the cut.
func TruncateContext(text string, max int) string {
	if max <= 0 || utf8.RuneCountInString(text) <= max {
		return text
	}
	r := []rune(text)
	return string(r[:max]) + ContextTruncationMarker
}

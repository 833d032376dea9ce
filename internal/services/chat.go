package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Mohd-Murtaza/YouTube-Video-AI-Chatbot/internal/data/repos/transcripts"
	"github.com/Mohd-Murtaza/YouTube-Video-AI-Chatbot/internal/platform/apierr"
	"github.com/Mohd-Murtaza/YouTube-Video-AI-Chatbot/internal/platform/chatllm"
	"github.com/Mohd-Murtaza/YouTube-Video-AI-Chatbot/internal/platform/ctxutil"
	"github.com/Mohd-Murtaza/YouTube-Video-AI-Chatbot/internal/platform/logger"
	"github.com/Mohd-Murtaza/YouTube-Video-AI-Chatbot/internal/rag"
	"github.com/Mohd-Murtaza/YouTube-Video-AI-Chatbot/internal/rag/completion"
	"github.com/Mohd-Murtaza/YouTube-Video-AI-Chatbot/internal/rag/retrieval"
)

const maxHistoryMessages = 10

type ContextBuilder interface {
	BuildContext(ctx context.Context, req retrieval.Request) retrieval.Result
}

type Completer interface {
	Complete(ctx context.Context, req completion.Request) (completion.Result, error)
}

type ChatRequest struct {
	Message string            `json:"message"`
	VideoID string            `json:"videoId"`
	History []chatllm.Message `json:"history,omitempty"`
}

type ChatResponse struct {
	Answer     string `json:"answer"`
	VideoID    string `json:"videoId"`
	VideoTitle string `json:"videoTitle"`
	Model      string `json:"model"`
	UsedRAG    bool   `json:"usedRAG"`
}

type ChatService interface {
	Ask(ctx context.Context, req ChatRequest) (*ChatResponse, error)
}

type chatService struct {
	log       *logger.Logger
	repo      transcripts.TranscriptRepo
	builder   ContextBuilder
	completer Completer
	queue     IndexQueue
}

func NewChatService(log *logger.Logger, repo transcripts.TranscriptRepo, builder ContextBuilder, completer Completer, queue IndexQueue) ChatService {
	if log == nil {
		log = logger.NewNop()
	}
	return &chatService{
		log:       log.With("service", "ChatService"),
		repo:      repo,
		builder:   builder,
		completer: completer,
		queue:     queue,
	}
}

func (s *chatService) Ask(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	req.Message = strings.TrimSpace(req.Message)
	req.VideoID = strings.TrimSpace(req.VideoID)
	if req.Message == "" || req.VideoID == "" {
		return nil, apierr.BadRequest("invalid_request", "Message and videoId are required")
	}
	ctx = ctxutil.WithVideoID(ctx, req.VideoID)

	tr, err := s.repo.GetByVideoID(ctx, nil, req.VideoID)
	if err != nil {
		return nil, fmt.Errorf("load transcript: %w", err)
	}
	if tr == nil {
		return nil, apierr.NotFound("transcript_not_found", msgTranscriptNotFound)
	}
	segments, err := tr.DecodeSegments()
	if err != nil {
		return nil, err
	}
	if !tr.IndexCurrent() && s.queue != nil {
		s.queue.Enqueue(tr.VideoID, "chat")
	}

	built := s.builder.BuildContext(ctx, retrieval.Request{
		VideoID:        tr.VideoID,
		Query:          req.Message,
		TranscriptText: rag.TranscriptWithTimestamps(segments),
		IsIndexed:      tr.IndexCurrent(),
	})

	res, err := s.completer.Complete(ctx, completion.Request{
		Context: built.Context,
		SystemPrompt: func(c string) string {
			return SystemPrompt(tr, c, built.UsedRetrieval)
		},
		History:     trimHistory(req.History),
		UserMessage: req.Message,
	})
	if err != nil {
		if errors.Is(err, completion.ErrAllModelsFailed) {
			return nil, apierr.Unavailable("all_models_failed", "All AI models are currently busy. Please try again in a moment.", err)
		}
		return nil, apierr.Upstream("completion_failed", "Failed to generate a response", err)
	}

	s.log.With(ctxutil.Fields(ctx)...).Info("Chat answered",
		"model", res.Model,
		"used_retrieval", built.UsedRetrieval,
		"fallback_reason", built.Reason,
		"context_chars", len(built.Context),
	)
	return &ChatResponse{
		Answer:     res.Answer,
		VideoID:    tr.VideoID,
		VideoTitle: tr.Title,
		Model:      res.Model,
		UsedRAG:    built.UsedRetrieval,
	}, nil
}

// trimHistory keeps the most recent user/assistant turns.
func trimHistory(in []chatllm.Message) []chatllm.Message {
	out := make([]chatllm.Message, 0, len(in))
	for _, m := range in {
		role := strings.ToLower(strings.TrimSpace(m.Role))
		if (role != "user" && role != "assistant") || strings.TrimSpace(m.Content) == "" {
			continue
		}
		out = append(out, chatllm.Message{Role: role, Content: m.Content})
	}
	if len(out) > maxHistoryMessages {
		out = out[len(out)-maxHistoryMessages:]
	}
	return out
}

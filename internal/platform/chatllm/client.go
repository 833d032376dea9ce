package chatllm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/Mohd-Murtaza/YouTube-Video-AI-Chatbot/internal/platform/httpx"
	"github.com/Mohd-Murtaza/YouTube-Video-AI-Chatbot/internal/platform/logger"
)

const DefaultBaseURL = "https://api.groq.com/openai/v1"

type Message struct {
	Role    string
	Content string
}

type Request struct {
	Model       string
	Messages    []Message
	Temperature float32
	MaxTokens   int
	TopP        float32
}

type Response struct {
	Content          string
	Model            string
	PromptTokens     int
	CompletionTokens int
}

// Client talks to any OpenAI-compatible chat completions endpoint.
type Client interface {
	Complete(ctx context.Context, req Request) (Response, error)
}

type Config struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

type client struct {
	log *logger.Logger
	api *openai.Client
}

func New(log *logger.Logger, cfg Config) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("missing completion API key")
	}
	oc := openai.DefaultConfig(cfg.APIKey)
	oc.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if oc.BaseURL == "" {
		oc.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	oc.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	return &client{
		log: log.With("client", "ChatCompletions"),
		api: openai.NewClientWithConfig(oc),
	}, nil
}

func (c *client) Complete(ctx context.Context, req Request) (Response, error) {
	msgs := make([]openai.ChatCompletionMessage, len(req.Messages))
	for i, m := range req.Messages {
		msgs[i] = openai.ChatCompletionMessage{Role: m.Role, Content: m.Content}
	}
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       req.Model,
		Messages:    msgs,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
		TopP:        req.TopP,
	})
	if err != nil {
		return Response{}, mapError(err)
	}
	out := Response{
		Model:            resp.Model,
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
	}
	if len(resp.Choices) > 0 {
		out.Content = resp.Choices[0].Message.Content
	}
	return out, nil
}

// mapError turns API errors into httpx.HTTPError so callers can branch on
// the status code.
func mapError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode != 0 {
		return &httpx.HTTPError{Service: "completion", StatusCode: apiErr.HTTPStatusCode, Body: apiErr.Message}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode != 0 {
		return &httpx.HTTPError{Service: "completion", StatusCode: reqErr.HTTPStatusCode, Body: reqErr.Error()}
	}
	return err
}

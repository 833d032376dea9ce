package huggingface

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Mohd-Murtaza/YouTube-Video-AI-Chatbot/internal/platform/httpx"
	"github.com/Mohd-Murtaza/YouTube-Video-AI-Chatbot/internal/platform/logger"
)

const (
	DefaultBaseURL = "https://router.huggingface.co/hf-inference/models"
	DefaultModel   = "sentence-transformers/all-MiniLM-L6-v2"

	maxRetryAfter = 30 * time.Second
)

// Client calls the Inference API feature-extraction pipeline.
type Client interface {
	Embed(ctx context.Context, inputs []string) ([][]float32, error)
	Model() string
}

type Config struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
}

type client struct {
	log  *logger.Logger
	cfg  Config
	http *http.Client
}

func New(log *logger.Logger, cfg Config) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("missing HUGGINGFACE_API_KEY")
	}
	if strings.TrimSpace(cfg.Model) == "" {
		cfg.Model = DefaultModel
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	return &client{
		log:  log.With("client", "HuggingFaceClient"),
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

func (c *client) Model() string { return c.cfg.Model }

type featureExtractionRequest struct {
	Inputs  []string       `json:"inputs"`
	Options map[string]any `json:"options,omitempty"`
}

func (c *client) Embed(ctx context.Context, inputs []string) ([][]float32, error) {
	if len(inputs) == 0 {
		return [][]float32{}, nil
	}
	clean := make([]string, len(inputs))
	for i := range inputs {
		s := strings.TrimSpace(inputs[i])
		if s == "" {
			s = " "
		}
		clean[i] = s
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(featureExtractionRequest{
		Inputs:  clean,
		Options: map[string]any{"wait_for_model": true},
	}); err != nil {
		return nil, err
	}

	u := c.cfg.BaseURL + "/" + c.cfg.Model + "/pipeline/feature-extraction"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, readErr := io.ReadAll(resp.Body)
	if readErr != nil {
		return nil, readErr
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &httpx.HTTPError{
			Service:    "huggingface",
			StatusCode: resp.StatusCode,
			Body:       string(raw),
			RetryAfter: httpx.RetryAfterDuration(resp, 0, maxRetryAfter),
		}
	}

	out, err := decodeVectors(raw)
	if err != nil {
		return nil, fmt.Errorf("huggingface decode error: %w", err)
	}
	if len(out) != len(clean) {
		return nil, fmt.Errorf("huggingface returned %d vectors for %d inputs", len(out), len(clean))
	}
	return out, nil
}

// decodeVectors accepts pooled sentence embeddings ([n][d]) or token
// embeddings ([n][tokens][d]), which are mean-pooled.
func decodeVectors(raw []byte) ([][]float32, error) {
	var pooled [][]float32
	if err := json.Unmarshal(raw, &pooled); err == nil {
		return pooled, nil
	}
	var tokens [][][]float32
	if err := json.Unmarshal(raw, &tokens); err != nil {
		return nil, err
	}
	out := make([][]float32, len(tokens))
	for i, toks := range tokens {
		if len(toks) == 0 {
			continue
		}
		vec := make([]float32, len(toks[0]))
		for _, t := range toks {
			for j := range vec {
				if j < len(t) {
					vec[j] += t[j]
				}
			}
		}
		for j := range vec {
			vec[j] /= float32(len(toks))
		}
		out[i] = vec
	}
	return out, nil
}

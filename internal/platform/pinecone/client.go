package pinecone

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Mohd-Murtaza/YouTube-Video-AI-Chatbot/internal/platform/httpx"
	"github.com/Mohd-Murtaza/YouTube-Video-AI-Chatbot/internal/platform/logger"
)

// Client speaks the Pinecone REST API. Data-plane calls take the index host
// returned by DescribeIndex.
type Client interface {
	DescribeIndex(ctx context.Context, indexName string) (*IndexDescription, error)
	UpsertVectors(ctx context.Context, host string, req UpsertRequest) (*UpsertResponse, error)
	Query(ctx context.Context, host string, req QueryRequest) (*QueryResponse, error)
	DeleteVectors(ctx context.Context, host string, req DeleteRequest) error
	ListVectorIDs(ctx context.Context, host string, req ListRequest) (*ListResponse, error)
}

type Config struct {
	APIKey     string
	APIVersion string
	BaseURL    string
	Timeout    time.Duration
}

const (
	defaultAPIVersion = "2025-04"
	defaultBaseURL    = "https://api.pinecone.io"
	defaultTopK       = 10

	maxErrorBody  = 4 << 10
	maxRetryAfter = 30 * time.Second
)

var ErrMissingAPIKey = errors.New("pinecone: missing api key")

type client struct {
	log     *logger.Logger
	apiKey  string
	version string
	baseURL string
	hc      *http.Client
}

func New(log *logger.Logger, cfg Config) (Client, error) {
	if log == nil {
		log = logger.NewNop()
	}
	key := strings.TrimSpace(cfg.APIKey)
	if key == "" {
		return nil, ErrMissingAPIKey
	}
	c := &client{
		log:     log.With("client", "PineconeClient"),
		apiKey:  key,
		version: strings.TrimSpace(cfg.APIVersion),
		baseURL: strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		hc:      &http.Client{Timeout: cfg.Timeout},
	}
	if c.version == "" {
		c.version = defaultAPIVersion
	}
	if c.baseURL == "" {
		c.baseURL = defaultBaseURL
	}
	if c.hc.Timeout <= 0 {
		c.hc.Timeout = 30 * time.Second
	}
	return c, nil
}

func (c *client) DescribeIndex(ctx context.Context, indexName string) (*IndexDescription, error) {
	indexName = strings.TrimSpace(indexName)
	if indexName == "" {
		return nil, errors.New("pinecone: index name required")
	}
	var out IndexDescription
	if err := c.call(ctx, "describe_index", http.MethodGet, c.baseURL+"/indexes/"+url.PathEscape(indexName), nil, &out); err != nil {
		return nil, err
	}
	if strings.TrimSpace(out.Host) == "" {
		return nil, fmt.Errorf("pinecone: index %q has no host", indexName)
	}
	return &out, nil
}

func (c *client) UpsertVectors(ctx context.Context, host string, req UpsertRequest) (*UpsertResponse, error) {
	if len(req.Vectors) == 0 {
		return &UpsertResponse{}, nil
	}
	u, err := dataURL(host, "/vectors/upsert", nil)
	if err != nil {
		return nil, err
	}
	var out UpsertResponse
	if err := c.call(ctx, "upsert", http.MethodPost, u, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *client) Query(ctx context.Context, host string, req QueryRequest) (*QueryResponse, error) {
	if len(req.Vector) == 0 {
		return nil, errors.New("pinecone: query vector required")
	}
	if req.TopK <= 0 {
		req.TopK = defaultTopK
	}
	u, err := dataURL(host, "/query", nil)
	if err != nil {
		return nil, err
	}
	var out QueryResponse
	if err := c.call(ctx, "query", http.MethodPost, u, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *client) DeleteVectors(ctx context.Context, host string, req DeleteRequest) error {
	if req.empty() {
		return nil
	}
	u, err := dataURL(host, "/vectors/delete", nil)
	if err != nil {
		return err
	}
	return c.call(ctx, "delete", http.MethodPost, u, req, nil)
}

func (c *client) ListVectorIDs(ctx context.Context, host string, req ListRequest) (*ListResponse, error) {
	q := url.Values{}
	for k, v := range map[string]string{
		"prefix":          req.Prefix,
		"namespace":       req.Namespace,
		"paginationToken": req.PaginationToken,
	} {
		if v != "" {
			q.Set(k, v)
		}
	}
	if req.Limit > 0 {
		q.Set("limit", strconv.Itoa(req.Limit))
	}
	u, err := dataURL(host, "/vectors/list", q)
	if err != nil {
		return nil, err
	}
	var out ListResponse
	if err := c.call(ctx, "list", http.MethodGet, u, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// dataURL accepts a bare index host or a full base URL.
func dataURL(host, path string, q url.Values) (string, error) {
	host = strings.TrimRight(strings.TrimSpace(host), "/")
	if host == "" {
		return "", errors.New("pinecone: index host required")
	}
	if !strings.Contains(host, "://") {
		host = "https://" + host
	}
	if len(q) > 0 {
		return host + path + "?" + q.Encode(), nil
	}
	return host + path, nil
}

// call sends in as JSON and decodes the response into out when out is
// non-nil. Non-2xx answers become *httpx.HTTPError carrying Retry-After.
func (c *client) call(ctx context.Context, op, method, u string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("pinecone %s: encode: %w", op, err)
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return err
	}
	req.Header.Set("Api-Key", c.apiKey)
	req.Header.Set("X-Pinecone-Api-Version", c.version)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("pinecone %s: %w", op, err)
	}
	defer resp.Body.Close()
	c.log.Debug("Pinecone call", "op", op, "status", resp.StatusCode, "duration_ms", time.Since(start).Milliseconds())

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &httpx.HTTPError{
			Service:    "pinecone",
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(msg)),
			RetryAfter: httpx.RetryAfterDuration(resp, 0, maxRetryAfter),
		}
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("pinecone %s: decode: %w", op, err)
	}
	return nil
}

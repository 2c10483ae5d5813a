package reranker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/medlexica/regagent/pkg/logging"
)

// CrossEncoder scores query/document pairs via an external rerank service
// speaking a Cohere-compatible API. On any service failure the input is
// returned unchanged so retrieval never loses evidence.
type CrossEncoder struct {
	apiKey     string
	model      string
	topN       int
	minScore   float32
	endpoint   string
	httpClient *http.Client
	logger     *slog.Logger
}

// CrossEncoderOption customises a CrossEncoder.
type CrossEncoderOption func(*CrossEncoder)

// WithModel overrides the default rerank model.
func WithModel(model string) CrossEncoderOption {
	return func(c *CrossEncoder) {
		if model != "" {
			c.model = model
		}
	}
}

// WithTopN limits how many documents are sent per call.
func WithTopN(topN int) CrossEncoderOption {
	return func(c *CrossEncoder) {
		if topN > 0 {
			c.topN = topN
		}
	}
}

// WithMinScore drops documents scoring below the cutoff.
func WithMinScore(score float32) CrossEncoderOption {
	return func(c *CrossEncoder) {
		c.minScore = score
	}
}

// WithEndpoint overrides the rerank service endpoint.
func WithEndpoint(endpoint string) CrossEncoderOption {
	return func(c *CrossEncoder) {
		if endpoint != "" {
			c.endpoint = endpoint
		}
	}
}

// WithHTTPClient swaps the HTTP client (useful for timeouts or proxies).
func WithHTTPClient(client *http.Client) CrossEncoderOption {
	return func(c *CrossEncoder) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewCrossEncoder builds a rerank-service client.
func NewCrossEncoder(apiKey string, opts ...CrossEncoderOption) *CrossEncoder {
	c := &CrossEncoder{
		apiKey:     apiKey,
		model:      "rerank-english-v3.0",
		topN:       50,
		endpoint:   "https://api.cohere.com/v1/rerank",
		httpClient: &http.Client{Timeout: 15 * time.Second},
		logger:     logging.WithComponent("reranker"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type rerankRequest struct {
	Model     string   `json:"model"`
	Query     string   `json:"query"`
	Documents []string `json:"documents"`
	TopN      int      `json:"top_n,omitempty"`
}

type rerankResponse struct {
	Results []struct {
		Index int     `json:"index"`
		Score float32 `json:"score"`
	} `json:"results"`
}

// Rerank implements Reranker.
func (c *CrossEncoder) Rerank(ctx context.Context, query string, docs []string) ([]string, error) {
	if len(docs) <= 1 {
		return docs, nil
	}

	limit := len(docs)
	if limit > c.topN {
		limit = c.topN
	}

	payload := rerankRequest{
		Model:     c.model,
		Query:     query,
		Documents: docs[:limit],
		TopN:      limit,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return docs, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return docs, nil
	}
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.apiKey))
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("rerank service unreachable, keeping original order", "error", err)
		return docs, nil
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		c.logger.Warn("rerank service error, keeping original order", "status", resp.StatusCode)
		return docs, nil
	}

	var rr rerankResponse
	if err := json.NewDecoder(resp.Body).Decode(&rr); err != nil {
		c.logger.Warn("rerank response malformed, keeping original order", "error", err)
		return docs, nil
	}

	sort.SliceStable(rr.Results, func(i, j int) bool {
		return rr.Results[i].Score > rr.Results[j].Score
	})
	ranked := make([]string, 0, len(rr.Results))
	for _, res := range rr.Results {
		if res.Index < 0 || res.Index >= limit || res.Score < c.minScore {
			continue
		}
		ranked = append(ranked, docs[res.Index])
	}
	if len(ranked) == 0 {
		return docs, nil
	}
	return ranked, nil
}

// Package elastic is the JSON-over-HTTP transport to the backing search
// engine. It renders the engine-agnostic query expression into the
// engine's query DSL and maps transport failures to typed domain errors.
package elastic

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/unisearch/internal/domain"
	"github.com/kailas-cloud/unisearch/internal/engine"
	"github.com/kailas-cloud/unisearch/internal/metrics"
)

// Config holds engine connection settings.
type Config struct {
	BaseURL string
	Timeout time.Duration
	Logger  *zap.Logger
}

// Client talks to the engine over HTTP. It is safe for concurrent use.
type Client struct {
	baseURL string
	httpc   *http.Client
	logger  *zap.Logger
}

var _ engine.Searcher = (*Client)(nil)

// NewClient creates an engine client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("engine base URL is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		httpc:   &http.Client{Timeout: timeout},
		logger:  logger,
	}, nil
}

// Search executes one search request.
func (c *Client) Search(ctx context.Context, req *engine.Request) (*engine.Response, error) {
	path := fmt.Sprintf("/%s/_search", url.PathEscape(strings.Join(req.Indices, ",")))

	var raw rawResponse
	if err := c.do(ctx, "search", path, renderBody(req), &raw); err != nil {
		return nil, err
	}
	return raw.toResponse(), nil
}

// MultiSearch batches sub-queries into a single round trip. Responses come
// back in request order.
func (c *Client) MultiSearch(ctx context.Context, reqs []*engine.Request) ([]*engine.Response, error) {
	if len(reqs) == 0 {
		return nil, nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, req := range reqs {
		if err := enc.Encode(map[string]any{"index": req.Indices}); err != nil {
			return nil, fmt.Errorf("encode msearch header: %w", err)
		}
		if err := enc.Encode(renderBody(req)); err != nil {
			return nil, fmt.Errorf("encode msearch body: %w", err)
		}
	}

	var raw struct {
		Responses []rawResponse `json:"responses"`
	}
	if err := c.doRaw(ctx, "msearch", "/_msearch", buf.Bytes(), &raw); err != nil {
		return nil, err
	}
	if len(raw.Responses) != len(reqs) {
		return nil, domain.NewUpstreamError("msearch",
			fmt.Errorf("expected %d responses, got %d", len(reqs), len(raw.Responses)))
	}

	responses := make([]*engine.Response, len(raw.Responses))
	for i := range raw.Responses {
		responses[i] = raw.Responses[i].toResponse()
	}
	return responses, nil
}

// bestBetType is the document type best bets are stored under.
const bestBetType = "best_bet"

// LookupBestBets queries the auxiliary index for best-bet documents whose
// exact or stemmed trigger matches the query text.
func (c *Client) LookupBestBets(ctx context.Context, index, queryText string) ([]engine.BestBetDoc, error) {
	path := fmt.Sprintf("/%s/%s/_search", url.PathEscape(index), bestBetType)
	body := map[string]any{
		"query": map[string]any{
			"bool": map[string]any{
				"should": []map[string]any{
					{"match": map[string]any{"exact_query": queryText}},
					{"match": map[string]any{"stemmed_query": queryText}},
				},
			},
		},
		"size":   1000,
		"fields": []string{"details", "exact_query", "stemmed_query", "stemmed_query_as_term"},
	}

	var raw rawResponse
	if err := c.do(ctx, "best_bets", path, body, &raw); err != nil {
		return nil, err
	}

	docs := make([]engine.BestBetDoc, 0, len(raw.Hits.Hits))
	for _, hit := range raw.Hits.Hits {
		docs = append(docs, engine.BestBetDoc{
			ExactQuery:         stringField(hit.Fields, "exact_query"),
			StemmedQuery:       stringField(hit.Fields, "stemmed_query"),
			StemmedQueryAsTerm: stringField(hit.Fields, "stemmed_query_as_term"),
			Details:            stringField(hit.Fields, "details"),
		})
	}
	return docs, nil
}

// stringField unwraps an engine field that may arrive bare or as a
// one-element array.
func stringField(fields map[string]any, name string) string {
	switch v := fields[name].(type) {
	case string:
		return v
	case []any:
		if len(v) == 1 {
			if s, ok := v[0].(string); ok {
				return s
			}
		}
	}
	return ""
}

// Analyze runs text through a named analyzer of an index.
func (c *Client) Analyze(ctx context.Context, index, analyzer, text string) ([]string, error) {
	path := fmt.Sprintf("/%s/_analyze", url.PathEscape(index))
	body := map[string]any{"analyzer": analyzer, "text": text}

	var raw struct {
		Tokens []struct {
			Token string `json:"token"`
		} `json:"tokens"`
	}
	if err := c.do(ctx, "analyze", path, body, &raw); err != nil {
		return nil, err
	}
	tokens := make([]string, len(raw.Tokens))
	for i, t := range raw.Tokens {
		tokens[i] = t.Token
	}
	return tokens, nil
}

// Suggest returns spelling suggestions from the engine's term suggester.
func (c *Client) Suggest(ctx context.Context, indices []string, text string) ([]string, error) {
	path := fmt.Sprintf("/%s/_suggest", url.PathEscape(strings.Join(indices, ",")))
	body := map[string]any{
		"spelling_suggestions": map[string]any{
			"text": text,
			"term": map[string]any{
				"field": "spelling_text",
			},
		},
	}

	var raw struct {
		SpellingSuggestions []struct {
			Options []struct {
				Text string `json:"text"`
			} `json:"options"`
		} `json:"spelling_suggestions"`
	}
	if err := c.do(ctx, "suggest", path, body, &raw); err != nil {
		return nil, err
	}

	var suggestions []string
	for _, entry := range raw.SpellingSuggestions {
		for _, opt := range entry.Options {
			suggestions = append(suggestions, opt.Text)
		}
	}
	return suggestions, nil
}

// Ping checks engine reachability.
func (c *Client) Ping(ctx context.Context) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return fmt.Errorf("build ping request: %w", err)
	}
	resp, err := c.httpc.Do(httpReq)
	if err != nil {
		return domain.NewUpstreamError("ping", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return domain.NewUpstreamError("ping", fmt.Errorf("status %d", resp.StatusCode))
	}
	return nil
}

func (c *Client) do(ctx context.Context, op, path string, body map[string]any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode %s body: %w", op, err)
	}
	return c.doRaw(ctx, op, path, payload, out)
}

func (c *Client) doRaw(ctx context.Context, op, path string, payload []byte, out any) error {
	start := time.Now()

	httpReq, err := http.NewRequestWithContext(
		ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload),
	)
	if err != nil {
		return fmt.Errorf("build %s request: %w", op, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(httpReq)
	if err != nil {
		metrics.EngineRequestsTotal.WithLabelValues(op, "error").Inc()
		return domain.NewUpstreamError(op, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.EngineRequestsTotal.WithLabelValues(op, "error").Inc()
		return domain.NewUpstreamError(op, err)
	}

	metrics.EngineRequestDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())

	if err := classifyStatus(op, resp.StatusCode, data); err != nil {
		metrics.EngineRequestsTotal.WithLabelValues(op, statusLabel(err)).Inc()
		c.logger.Warn("engine request failed",
			zap.String("op", op),
			zap.Int("status", resp.StatusCode),
			zap.Error(err),
		)
		return err
	}
	metrics.EngineRequestsTotal.WithLabelValues(op, "ok").Inc()

	if err := json.Unmarshal(data, out); err != nil {
		return domain.NewUpstreamError(op, fmt.Errorf("decode response: %w", err))
	}
	return nil
}

// classifyStatus maps engine HTTP failures onto the error taxonomy: a 400
// means the constructed query was rejected (a builder/schema bug, not bad
// user input); a 404 means the target index does not exist.
func classifyStatus(op string, status int, body []byte) error {
	switch {
	case status < 300:
		return nil
	case status == http.StatusBadRequest:
		return fmt.Errorf("%w: %s: %s", domain.ErrQueryRejected, op, snippet(body))
	case status == http.StatusNotFound:
		return fmt.Errorf("%w: %s", domain.ErrIndexNotFound, snippet(body))
	default:
		return domain.NewUpstreamError(op, fmt.Errorf("status %d: %s", status, snippet(body)))
	}
}

func statusLabel(err error) string {
	switch {
	case errors.Is(err, domain.ErrQueryRejected):
		return "rejected"
	case errors.Is(err, domain.ErrIndexNotFound):
		return "not_found"
	default:
		return "error"
	}
}

func snippet(body []byte) string {
	const max = 200
	s := string(body)
	if len(s) > max {
		return s[:max]
	}
	return s
}

type rawHit struct {
	Index       string          `json:"_index"`
	Type        string          `json:"_type"`
	ID          string          `json:"_id"`
	Score       *float64        `json:"_score"`
	Fields      map[string]any  `json:"fields"`
	Explanation json.RawMessage `json:"_explanation"`
}

type rawFacet struct {
	Missing int `json:"missing"`
	Terms   []struct {
		Term  string `json:"term"`
		Count int    `json:"count"`
	} `json:"terms"`
}

type rawResponse struct {
	Hits struct {
		Total int      `json:"total"`
		Hits  []rawHit `json:"hits"`
	} `json:"hits"`
	Facets map[string]rawFacet `json:"facets"`
}

func (r *rawResponse) toResponse() *engine.Response {
	resp := &engine.Response{Total: r.Hits.Total}

	resp.Hits = make([]engine.Hit, len(r.Hits.Hits))
	for i, h := range r.Hits.Hits {
		hit := engine.Hit{
			Index:  h.Index,
			Type:   h.Type,
			ID:     h.ID,
			Score:  h.Score,
			Fields: h.Fields,
		}
		if len(h.Explanation) > 0 {
			var expl any
			if err := json.Unmarshal(h.Explanation, &expl); err == nil {
				hit.Explanation = expl
			}
		}
		resp.Hits[i] = hit
	}

	if len(r.Facets) > 0 {
		resp.Facets = make(map[string]engine.FacetBuckets, len(r.Facets))
		for field, f := range r.Facets {
			buckets := engine.FacetBuckets{Missing: f.Missing}
			buckets.Terms = make([]engine.TermBucket, len(f.Terms))
			for i, t := range f.Terms {
				buckets.Terms[i] = engine.TermBucket{Term: t.Term, Count: t.Count}
			}
			resp.Facets[field] = buckets
		}
	}
	return resp
}

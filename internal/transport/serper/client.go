package serper

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/casebud/internal/domain"
	"github.com/kailas-cloud/casebud/internal/domain/search/result"
	"github.com/kailas-cloud/casebud/internal/metrics"
	"github.com/kailas-cloud/casebud/internal/version"
)

const providerName = "serper"

// maxResponseBytes caps the upstream body read. A page of organic results
// is a few kilobytes.
const maxResponseBytes = 1 << 20

// Client is a Serper (Google SERP) web-search client.
type Client struct {
	hc      *http.Client
	apiKey  string
	baseURL string
	timeout time.Duration
	logger  *zap.Logger
}

// Config holds the search client settings.
type Config struct {
	APIKey  string
	BaseURL string
	// Timeout bounds every Search call.
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// NewClient creates a search client. A nil HTTPClient falls back to http.DefaultClient.
func NewClient(cfg *Config) *Client {
	hc := cfg.HTTPClient
	if hc == nil {
		hc = http.DefaultClient
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		hc:      hc,
		apiKey:  cfg.APIKey,
		baseURL: cfg.BaseURL,
		timeout: cfg.Timeout,
		logger:  logger,
	}
}

type searchRequest struct {
	Q   string `json:"q"`
	Num int    `json:"num,omitempty"`
	GL  string `json:"gl,omitempty"`
	HL  string `json:"hl,omitempty"`
}

type searchResponse struct {
	Organic []struct {
		Title   string `json:"title"`
		Link    string `json:"link"`
		Snippet string `json:"snippet"`
	} `json:"organic"`
}

// Search implements domain.Searcher. An empty slice means the engine found nothing.
// Deadline expiry maps to domain.ErrTimeout, any other failure to domain.ErrSearchUnavailable.
func (c *Client) Search(ctx context.Context, query string, opts domain.SearchOptions) ([]result.Result, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	body, err := json.Marshal(searchRequest{Q: query, Num: opts.Limit, GL: opts.Region, HL: opts.Language})
	if err != nil {
		return nil, fmt.Errorf("marshal search request: %w", err)
	}

	start := time.Now()
	results, err := c.do(ctx, body, opts.Limit)
	metrics.SearchRequestDuration.WithLabelValues(providerName).Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.SearchRequestsTotal.WithLabelValues(providerName, "error").Inc()
		c.logger.Warn("Web search failed",
			zap.String("provider", providerName),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err),
		)
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: search did not finish in %s", domain.ErrTimeout, c.timeout)
		}
		return nil, fmt.Errorf("%w: %s", domain.ErrSearchUnavailable, err.Error())
	}

	metrics.SearchRequestsTotal.WithLabelValues(providerName, "success").Inc()
	return results, nil
}

func (c *Client) do(ctx context.Context, body []byte, limit int) ([]result.Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/search", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("X-API-KEY", c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read search response: %w", err)
	}
	if len(raw) > maxResponseBytes {
		return nil, fmt.Errorf("search response exceeds %d bytes", maxResponseBytes)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet := string(raw)
		if len(snippet) > 256 {
			snippet = snippet[:256]
		}
		return nil, fmt.Errorf("search status %d: %s", resp.StatusCode, snippet)
	}

	var parsed searchResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	out := make([]result.Result, 0, len(parsed.Organic))
	for _, o := range parsed.Organic {
		if limit > 0 && len(out) == limit {
			break
		}
		out = append(out, result.New(o.Title, o.Snippet, o.Link))
	}
	return out, nil
}

package casebud

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/kailas-cloud/casebud/internal/version"
)

const defaultTimeout = 3 * time.Minute

// Client is the CaseBud API entry point. It is safe for concurrent use.
type Client struct {
	baseURL    string
	apiKey     string
	hc         *http.Client
	timeout    time.Duration
	maxRetries uint64
	obs        *observer
}

// New creates a Client for the service at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New("casebud: base URL required")
	}
	cfg := &clientConfig{timeout: defaultTimeout}
	for _, o := range opts {
		o.apply(cfg)
	}

	hc := cfg.httpClient
	if hc == nil {
		hc = &http.Client{}
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     cfg.apiKey,
		hc:         hc,
		timeout:    cfg.timeout,
		maxRetries: cfg.maxRetries,
		obs:        obs,
	}, nil
}

// Ask sends one legal question. A blank query is rejected by the service
// with ErrInvalidInput.
func (c *Client) Ask(ctx context.Context, query string, opts ...AskOption) (ans Answer, err error) {
	req := askRequest{Query: query}
	for _, o := range opts {
		o(&req)
	}
	op := askOperation(req)

	start := time.Now()
	defer func() { c.obs.observe(op, start, err) }()

	body, err := json.Marshal(req)
	if err != nil {
		return Answer{}, fmt.Errorf("casebud: marshal request: %w", err)
	}

	if err = c.call(ctx, op, http.MethodPost, "/legal-assistant/", body, &ans); err != nil {
		return Answer{}, err
	}
	c.obs.answered(ans)
	return ans, nil
}

// ModelStatus returns the readiness of every configured model keyed by its
// canonical identifier.
func (c *Client) ModelStatus(ctx context.Context) (status map[string]bool, err error) {
	start := time.Now()
	defer func() { c.obs.observe(opModelStatus, start, err) }()

	if err = c.call(ctx, opModelStatus, http.MethodGet, "/model-status/", nil, &status); err != nil {
		return nil, err
	}
	return status, nil
}

// Health returns the service readiness report. A degraded service is not an
// error: the report is returned with Status "degraded".
func (c *Client) Health(ctx context.Context) (hs HealthStatus, err error) {
	start := time.Now()
	defer func() { c.obs.observe(opHealth, start, err) }()

	// Not retried: 503 is a valid readiness answer.
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	err = c.do(ctx, http.MethodGet, "/readyz", nil, &hs)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusServiceUnavailable && hs.Status != "" {
		return hs, nil
	}
	if err != nil {
		return HealthStatus{}, err
	}
	return hs, nil
}

// call performs one request, retrying retryable failures when configured.
func (c *Client) call(ctx context.Context, opName, method, path string, body []byte, out any) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	if c.maxRetries == 0 {
		return c.do(ctx, method, path, body, out)
	}

	op := func() error {
		err := c.do(ctx, method, path, body, out)
		if err != nil && !retryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 200 * time.Millisecond
	b.MaxInterval = 5 * time.Second
	notify := func(err error, wait time.Duration) { c.obs.retry(opName, err, wait) }
	return backoff.RetryNotify(op, backoff.WithContext(backoff.WithMaxRetries(b, c.maxRetries), ctx), notify)
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, out any) error {
	var rdr io.Reader = http.NoBody
	if body != nil {
		rdr = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		return fmt.Errorf("casebud: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("casebud: %s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("casebud: read response: %w", err)
	}

	if resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("casebud: decode response: %w", err)
		}
		return nil
	}

	return decodeError(resp.StatusCode, data, out)
}

// decodeError builds an APIError from the service envelope. The readiness
// endpoint answers 503 with a report instead of an envelope; that report is
// decoded into out.
func decodeError(status int, data []byte, out any) error {
	var env errorEnvelope
	if err := json.Unmarshal(data, &env); err == nil && env.Message != "" {
		return &APIError{StatusCode: status, Message: env.Message}
	}
	if hs, ok := out.(*HealthStatus); ok {
		_ = json.Unmarshal(data, hs)
	}
	msg := strings.TrimSpace(string(data))
	if msg == "" {
		msg = http.StatusText(status)
	}
	return &APIError{StatusCode: status, Message: msg}
}

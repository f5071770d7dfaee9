// Package remote delivers document batches to the payment-status API.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/erp/paysync/internal/domain/document"
	"github.com/erp/paysync/internal/infrastructure/config"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	// maxResponseSize limits how much of a response body is read
	maxResponseSize = 1 << 20
	// maxReportedBody limits the body echoed in a DeliveryRejectedError
	maxReportedBody = 512

	defaultTokenHeader = "X-Remote-Token"
)

// Client talks to the payment-status API. A fresh token is exchanged for
// every delivery and nothing is retried; the next sync cycle is the retry.
type Client struct {
	baseURL     string
	apiKey      string
	tokenHeader string
	httpClient  *http.Client
	limiter     *rate.Limiter
	logger      *zap.Logger
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithLogger sets the client logger
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithLimiter replaces the outbound rate limiter
func WithLimiter(l *rate.Limiter) Option {
	return func(c *Client) {
		c.limiter = l
	}
}

// NewClient creates a client from the remote configuration
func NewClient(cfg config.RemoteConfig, opts ...Option) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	header := cfg.TokenHeader
	if header == "" {
		header = defaultTokenHeader
	}
	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}
	burst := cfg.RateBurst
	if burst <= 0 {
		burst = 1
	}

	c := &Client{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:      cfg.APIKey,
		tokenHeader: header,
		httpClient:  &http.Client{Timeout: timeout},
		limiter:     rate.NewLimiter(limit, burst),
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Deliver posts the whole batch. A nil error means the remote API
// acknowledged every document; any error means none should be treated as
// delivered.
func (c *Client) Deliver(ctx context.Context, docs []document.Document) error {
	if len(docs) == 0 {
		return ErrEmptyBatch
	}

	token, err := c.ExchangeToken(ctx)
	if err != nil {
		return err
	}

	body, err := json.Marshal(toPayloads(docs))
	if err != nil {
		return fmt.Errorf("remote: marshal batch: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("document"), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("remote: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(c.tokenHeader, token)

	status, respBody, err := c.do(ctx, req, "post documents")
	if err != nil {
		return err
	}
	if status < 200 || status > 299 || !acknowledged(respBody) {
		return &DeliveryRejectedError{StatusCode: status, Body: truncate(respBody)}
	}

	c.logger.Info("Batch delivered",
		zap.Int("documents", len(docs)),
		zap.Int("status", status),
	)
	return nil
}

// ExchangeToken obtains a short-lived token for the configured API key
func (c *Client) ExchangeToken(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint("token"), nil)
	if err != nil {
		return "", fmt.Errorf("remote: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	status, body, err := c.do(ctx, req, "exchange token")
	if err != nil {
		return "", err
	}
	if status < 200 || status > 299 {
		return "", &AuthError{StatusCode: status, Reason: truncate(body)}
	}
	token, ok := parseToken(body)
	if !ok {
		return "", &AuthError{Reason: "no token in response"}
	}
	return token, nil
}

func (c *Client) endpoint(path string) string {
	return c.baseURL + "/" + path + "?apikey=" + url.QueryEscape(c.apiKey)
}

func (c *Client) do(ctx context.Context, req *http.Request, op string) (int, []byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return 0, nil, &ConnectionError{Op: op, Err: err}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("Remote request failed",
			zap.String("op", op),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err),
		)
		return 0, nil, &ConnectionError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return 0, nil, &ConnectionError{Op: op, Err: fmt.Errorf("read response: %w", err)}
	}

	c.logger.Debug("Remote request completed",
		zap.String("op", op),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
	)
	return resp.StatusCode, body, nil
}

// parseToken accepts {"token": ...}, {"accessToken": ...}, a JSON string or
// a bare string. A token property that is not a string, and a number or
// boolean body, are sent back as the raw body. A null token, a null body and
// an object with neither property yield no token.
func parseToken(body []byte) (string, bool) {
	raw := strings.TrimSpace(string(body))
	if raw == "" {
		return "", false
	}

	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		token := strings.Trim(raw, `"`)
		return token, token != ""
	}

	switch t := v.(type) {
	case map[string]any:
		for _, key := range []string{"token", "accessToken"} {
			val, ok := t[key]
			if !ok {
				continue
			}
			switch s := val.(type) {
			case string:
				return s, s != ""
			case nil:
				return "", false
			default:
				return raw, true
			}
		}
		return "", false
	case string:
		return t, t != ""
	case nil:
		return "", false
	default:
		return raw, true
	}
}

func acknowledged(body []byte) bool {
	var ack struct {
		Success bool `json:"success"`
	}
	if err := json.Unmarshal(body, &ack); err != nil {
		return false
	}
	return ack.Success
}

func truncate(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > maxReportedBody {
		return s[:maxReportedBody]
	}
	return s
}

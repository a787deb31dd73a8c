// Package dataforseo implementa o UpstreamClient para a API REST v3 da DataForSEO.
package dataforseo

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
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/JeanGrijp/seo-report/internal/core/domain"
	"github.com/JeanGrijp/seo-report/internal/core/ports"
)

const (
	DefaultBaseURL = "https://api.dataforseo.com"

	// statusOK is the provider's success sentinel in both envelope and task status codes.
	statusOK = 20000

	EndpointUserData = "/v3/appendix/user_data"

	maxErrorBody = 4 << 10
)

type Config struct {
	BaseURL        string
	Login          string
	Password       string
	Timeout        time.Duration
	MaxRetries     int
	InitialBackoff time.Duration
	RatePerSecond  float64
	Burst          int
	HTTPClient     *http.Client
}

type Client struct {
	cfg     Config
	http    *http.Client
	limiter *rate.Limiter
	metrics ports.Metrics
	log     *zap.Logger
}

var _ ports.UpstreamClient = (*Client)(nil)

func New(cfg Config, metrics ports.Metrics, log *zap.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = 500 * time.Millisecond
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	limit := rate.Inf
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
	}

	if metrics == nil {
		metrics = ports.NopMetrics{}
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &Client{
		cfg:     cfg,
		http:    httpClient,
		limiter: rate.NewLimiter(limit, cfg.Burst),
		metrics: metrics,
		log:     log,
	}
}

func (c *Client) Ready() error {
	if c.cfg.Login == "" || c.cfg.Password == "" {
		return domain.NewError(domain.KindConfigMissing, "dataforseo", "DataForSEO credentials not configured")
	}
	return nil
}

type envelope struct {
	StatusCode    int    `json:"status_code"`
	StatusMessage string `json:"status_message"`
	Tasks         []struct {
		StatusCode    int             `json:"status_code"`
		StatusMessage string          `json:"status_message"`
		Result        json.RawMessage `json:"result"`
	} `json:"tasks"`
}

// Call executa uma chamada e devolve o campo "result" da primeira task.
func (c *Client) Call(ctx context.Context, method, endpoint string, payload any) (json.RawMessage, error) {
	if err := c.Ready(); err != nil {
		return nil, err
	}

	var body []byte
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, domain.WrapError(domain.KindUpstream, endpoint, fmt.Errorf("encode payload: %w", err))
		}
		body = encoded
	}

	start := time.Now()
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.cfg.InitialBackoff
	retrier := backoff.WithContext(backoff.WithMaxRetries(policy, uint64(c.cfg.MaxRetries)), ctx)

	attempt := 0
	result, err := backoff.RetryWithData(func() (json.RawMessage, error) {
		attempt++
		return c.do(ctx, method, endpoint, body)
	}, retrier)

	outcome := "success"
	if err != nil {
		outcome = "failure"
		c.log.Debug("upstream call failed",
			zap.String("endpoint", endpoint),
			zap.Int("attempts", attempt),
			zap.Error(err),
		)
	}
	c.metrics.ObserveUpstreamCall(endpoint, outcome, time.Since(start))

	if err != nil {
		var upstreamErr *domain.Error
		if errors.As(err, &upstreamErr) {
			return nil, upstreamErr
		}
		return nil, domain.WrapError(domain.KindUpstream, endpoint, err)
	}
	return result, nil
}

// do performs one attempt. Errors wrapped in backoff.Permanent are never retried.
func (c *Client) do(ctx context.Context, method, endpoint string, body []byte) (json.RawMessage, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, backoff.Permanent(domain.WrapError(domain.KindUpstream, endpoint, err))
	}

	callCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(callCtx, method, c.cfg.BaseURL+endpoint, reader)
	if err != nil {
		return nil, backoff.Permanent(domain.WrapError(domain.KindUpstream, endpoint, err))
	}
	req.SetBasicAuth(c.cfg.Login, c.cfg.Password)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, backoff.Permanent(domain.WrapError(domain.KindUpstream, endpoint, err))
		}
		return nil, domain.WrapError(domain.KindUpstream, endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		upstreamErr := &domain.Error{
			Kind:       domain.KindUpstream,
			Op:         endpoint,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet))),
		}
		if resp.StatusCode >= 500 {
			return nil, upstreamErr
		}
		return nil, backoff.Permanent(upstreamErr)
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, backoff.Permanent(domain.WrapError(domain.KindUpstream, endpoint, fmt.Errorf("decode envelope: %w", err)))
	}

	if env.StatusCode != statusOK {
		return nil, backoff.Permanent(providerError(endpoint, env.StatusCode, env.StatusMessage))
	}
	if len(env.Tasks) == 0 {
		return nil, backoff.Permanent(domain.NewError(domain.KindUpstream, endpoint, "provider returned no tasks"))
	}
	task := env.Tasks[0]
	if task.StatusCode != statusOK {
		return nil, backoff.Permanent(providerError(endpoint, task.StatusCode, task.StatusMessage))
	}

	return task.Result, nil
}

func providerError(endpoint string, code int, message string) *domain.Error {
	if message == "" {
		message = "API request failed"
	}
	return &domain.Error{
		Kind:       domain.KindUpstream,
		Op:         endpoint,
		StatusCode: code,
		Message:    fmt.Sprintf("provider status %d: %s", code, message),
	}
}

// UserData consulta o saldo da conta; usado apenas para log na inicialização.
func (c *Client) UserData(ctx context.Context) (domain.AccountData, error) {
	raw, err := c.Call(ctx, http.MethodGet, EndpointUserData, nil)
	if err != nil {
		return domain.AccountData{}, err
	}
	var results []domain.AccountData
	if err := json.Unmarshal(raw, &results); err != nil {
		return domain.AccountData{}, domain.WrapError(domain.KindUpstream, EndpointUserData, err)
	}
	if len(results) == 0 {
		return domain.AccountData{}, domain.NewError(domain.KindUpstream, EndpointUserData, "empty account data")
	}
	return results[0], nil
}

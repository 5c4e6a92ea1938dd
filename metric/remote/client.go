package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/BaSui01/textscore/internal/tlsutil"
	"github.com/BaSui01/textscore/metric"
	"github.com/BaSui01/textscore/types"
)

// Config 远程评测服务配置
type Config struct {
	// Endpoint 为空时不启用远程指标
	Endpoint string        `yaml:"endpoint" json:"endpoint" env:"ENDPOINT"`
	APIKey   string        `yaml:"api_key" json:"api_key" env:"API_KEY"`
	Timeout  time.Duration `yaml:"timeout" json:"timeout" env:"TIMEOUT"`

	MaxRetries   int           `yaml:"max_retries" json:"max_retries" env:"MAX_RETRIES"`
	RetryBackoff time.Duration `yaml:"retry_backoff" json:"retry_backoff" env:"RETRY_BACKOFF"`
	MaxBackoff   time.Duration `yaml:"max_backoff" json:"max_backoff" env:"MAX_BACKOFF"`

	// RateLimitRPS <= 0 表示不限速
	RateLimitRPS float64 `yaml:"rate_limit_rps" json:"rate_limit_rps" env:"RATE_LIMIT_RPS"`
	Burst        int     `yaml:"burst" json:"burst" env:"BURST"`

	// BERTScoreModel/BLEURTCheckpoint 在 Params.Model 为空时使用
	BERTScoreModel   string `yaml:"bertscore_model" json:"bertscore_model" env:"BERTSCORE_MODEL"`
	BLEURTCheckpoint string `yaml:"bleurt_checkpoint" json:"bleurt_checkpoint" env:"BLEURT_CHECKPOINT"`
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		Timeout:          60 * time.Second,
		MaxRetries:       2,
		RetryBackoff:     500 * time.Millisecond,
		MaxBackoff:       5 * time.Second,
		RateLimitRPS:     10,
		Burst:            5,
		BERTScoreModel:   "bert-base-chinese",
		BLEURTCheckpoint: "BLEURT-20",
	}
}

// Client 调用远程评测服务，实现 metric.Scorer。
type Client struct {
	config  Config
	http    *http.Client
	limiter *rate.Limiter
	logger  *zap.Logger
}

// Option 配置 Client
type Option func(*Client)

// WithHTTPClient 替换底层 http.Client
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		if c != nil {
			cl.http = c
		}
	}
}

// WithLogger 设置日志
func WithLogger(logger *zap.Logger) Option {
	return func(cl *Client) {
		if logger != nil {
			cl.logger = logger
		}
	}
}

// NewClient 创建客户端，Endpoint 不能为空。
func NewClient(config Config, opts ...Option) (*Client, error) {
	if strings.TrimSpace(config.Endpoint) == "" {
		return nil, types.NewError(types.ErrInvalidParams, "remote scorer endpoint is required")
	}
	config.Endpoint = strings.TrimRight(config.Endpoint, "/")

	c := &Client{
		config: config,
		http:   tlsutil.NewHTTPClient(config.Timeout, 0),
		logger: zap.NewNop(),
	}
	if config.RateLimitRPS > 0 {
		burst := config.Burst
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(config.RateLimitRPS), burst)
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With(zap.String("component", "remote_scorer"), zap.String("endpoint", config.Endpoint))
	return c, nil
}

var _ metric.Scorer = (*Client)(nil)

type scoreRequest struct {
	Metric          metric.Kind   `json:"metric"`
	References      []string      `json:"references"`
	Candidates      []string      `json:"candidates"`
	ReferenceTokens [][]string    `json:"reference_tokens,omitempty"`
	CandidateTokens [][]string    `json:"candidate_tokens,omitempty"`
	Params          metric.Params `json:"params"`
}

type scoreResponse struct {
	Scores []metric.PairScore `json:"scores"`
}

// Score implements metric.Scorer.
func (c *Client) Score(ctx context.Context, in *metric.Input) ([]metric.PairScore, error) {
	req := scoreRequest{
		Metric:          in.Kind,
		References:      in.References,
		Candidates:      in.Candidates,
		ReferenceTokens: in.ReferenceTokens,
		CandidateTokens: in.CandidateTokens,
		Params:          c.withDefaultModel(in.Kind, in.Params),
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, types.NewError(types.ErrInternalError, "failed to encode score request").WithCause(err)
	}

	var lastErr error
	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := c.backoff(attempt)
			c.logger.Debug("retrying score request",
				zap.String("metric", string(in.Kind)),
				zap.Int("attempt", attempt),
				zap.Duration("delay", delay))
			select {
			case <-ctx.Done():
				return nil, ctxError(ctx.Err())
			case <-time.After(delay):
			}
		}

		scores, err := c.do(ctx, body)
		if err == nil {
			return scores, nil
		}
		lastErr = err
		if !types.IsRetryable(err) {
			return nil, err
		}
		c.logger.Warn("score request failed",
			zap.String("metric", string(in.Kind)),
			zap.Int("attempt", attempt),
			zap.Error(err))
	}
	return nil, lastErr
}

func (c *Client) do(ctx context.Context, body []byte) ([]metric.PairScore, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, types.NewError(types.ErrRateLimited, "client rate limit wait aborted").WithCause(err)
		}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.Endpoint+"/v1/score", bytes.NewReader(body))
	if err != nil {
		return nil, types.NewError(types.ErrInternalError, "failed to build score request").WithCause(err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if c.config.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, transportError(ctx, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, MapHTTPError(resp.StatusCode, ReadErrorMessage(resp.Body))
	}

	var out scoreResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, types.NewError(types.ErrInvalidResponse, "failed to decode score response").WithCause(err)
	}
	return out.Scores, nil
}

// 线性退避，封顶 MaxBackoff。
func (c *Client) backoff(attempt int) time.Duration {
	delay := c.config.RetryBackoff * time.Duration(attempt)
	if c.config.MaxBackoff > 0 && delay > c.config.MaxBackoff {
		delay = c.config.MaxBackoff
	}
	return delay
}

func (c *Client) withDefaultModel(kind metric.Kind, p metric.Params) metric.Params {
	if p.Model != "" {
		return p
	}
	switch kind {
	case metric.KindBERTScore:
		p.Model = c.config.BERTScoreModel
	case metric.KindBLEURT:
		p.Model = c.config.BLEURTCheckpoint
	}
	return p
}

// MapHTTPError 将 HTTP 状态码映射为带重试标记的 types.Error
func MapHTTPError(status int, msg string) *types.Error {
	e := types.NewError(types.ErrUpstreamError, msg).WithHTTPStatus(status)
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		e.Code = types.ErrUnauthorized
	case status == http.StatusTooManyRequests:
		e.Code = types.ErrRateLimited
		e.Retryable = true
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		e.Code = types.ErrInvalidRequest
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		e.Code = types.ErrUpstreamTimeout
		e.Retryable = true
	case status >= 500:
		e.Retryable = true
	}
	return e
}

// ReadErrorMessage 读取错误响应体，优先解析 {"error":{"message":...}} 或 {"error":"..."}。
func ReadErrorMessage(body io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(body, 64<<10))
	if err != nil {
		return "failed to read error response"
	}

	var nested struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(data, &nested) == nil && nested.Error.Message != "" {
		return nested.Error.Message
	}
	var flat struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(data, &flat) == nil && flat.Error != "" {
		return flat.Error
	}
	msg := strings.TrimSpace(string(data))
	if msg == "" {
		return "empty error response"
	}
	return msg
}

func transportError(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctxError(ctx.Err())
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return types.NewError(types.ErrUpstreamTimeout, "score request timed out").
			WithCause(err).WithRetryable(true)
	}
	return types.NewError(types.ErrUpstreamError, "score request failed").
		WithCause(err).WithRetryable(true)
}

func ctxError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return types.NewError(types.ErrUpstreamTimeout, "score request deadline exceeded").WithCause(err)
	}
	return types.NewError(types.ErrUpstreamError, fmt.Sprintf("score request aborted: %v", err)).WithCause(err)
}

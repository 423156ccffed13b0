package aigen

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

	"github.com/ahmeeeeedddddd/Studify/config"
	"github.com/ahmeeeeedddddd/Studify/pkg/metrics"
)

const (
	maxBodyBytes    = 8 << 20
	maxRetryBackoff = 10 * time.Second
	probeCourse     = "Test Course"
)

// DurationType 时长类型
type DurationType string

const (
	DurationRecommended DurationType = "recommended"
	DurationCustom      DurationType = "custom"
)

// Request 发往生成服务的请求体
type Request struct {
	Course       string       `json:"course"`
	DurationType DurationType `json:"durationType"`
	CustomDays   *int         `json:"customDays"`
}

// Response 生成服务原始响应
type Response struct {
	Body       []byte
	StatusCode int
	Elapsed    time.Duration
}

// ProbeResult 连通性探测结果
type ProbeResult struct {
	Reachable   bool          `json:"reachable"`
	StatusCode  int           `json:"status_code"`
	Elapsed     time.Duration `json:"elapsed"`
	BodyPreview string        `json:"body_preview,omitempty"`
}

// Generator AI 生成服务调用接口
type Generator interface {
	// Generate 请求生成学习计划，返回未解析的响应体
	Generate(ctx context.Context, req *Request) (*Response, error)
	// Probe 使用测试负载检查生成服务连通性
	Probe(ctx context.Context) (*ProbeResult, error)
}

// Client 基于 webhook 的生成服务客户端
type Client struct {
	httpClient      *http.Client
	webhookURL      string
	generateTimeout time.Duration
	probeTimeout    time.Duration
	maxRetries      int
	backoff         time.Duration
	userAgent       string
	metrics         *metrics.Metrics
	logger          *zap.Logger
}

// NewClient 创建生成服务客户端
func NewClient(cfg *config.AIConfig, m *metrics.Metrics, logger *zap.Logger) *Client {
	backoff := cfg.RetryBackoff
	if backoff <= 0 {
		backoff = time.Second
	}
	return &Client{
		// 时限由 context 控制
		httpClient:      &http.Client{},
		webhookURL:      cfg.WebhookURL,
		generateTimeout: cfg.GenerateTimeout,
		probeTimeout:    cfg.ProbeTimeout,
		maxRetries:      cfg.MaxRetries,
		backoff:         backoff,
		userAgent:       cfg.UserAgent,
		metrics:         m,
		logger:          logger,
	}
}

// Generate 调用生成服务；超时返回 ErrTimeout，其余失败返回包装 ErrServiceUnavailable 的错误
func (c *Client) Generate(ctx context.Context, req *Request) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, c.generateTimeout)
	defer cancel()

	start := time.Now()
	resp, err := c.doWithRetry(ctx, req)
	elapsed := time.Since(start)
	if err != nil {
		c.metrics.ObserveAICall("generate", statusLabel(err), elapsed)
		return nil, c.classify(err)
	}
	c.metrics.ObserveAICall("generate", "ok", elapsed)

	c.logger.Info("AI 生成服务响应",
		zap.String("course", req.Course),
		zap.Int("status", resp.StatusCode),
		zap.Int("bytes", len(resp.Body)),
		zap.Duration("elapsed", elapsed),
	)
	resp.Elapsed = elapsed
	return resp, nil
}

// Probe 以测试课程调用生成服务，使用较短的探测时限且不重试
func (c *Client) Probe(ctx context.Context) (*ProbeResult, error) {
	ctx, cancel := context.WithTimeout(ctx, c.probeTimeout)
	defer cancel()

	start := time.Now()
	resp, raw, err := c.doOnce(ctx, &Request{Course: probeCourse, DurationType: DurationRecommended})
	elapsed := time.Since(start)

	result := &ProbeResult{Elapsed: elapsed}
	if resp != nil {
		result.StatusCode = resp.StatusCode
	}
	if err != nil {
		c.metrics.ObserveAICall("probe", statusLabel(err), elapsed)
		c.logger.Warn("AI 生成服务探测失败", zap.Error(err), zap.Duration("elapsed", elapsed))
		return result, c.classify(err)
	}
	c.metrics.ObserveAICall("probe", "ok", elapsed)

	result.Reachable = true
	result.BodyPreview = preview(raw, 500)
	return result, nil
}

func (c *Client) doOnce(ctx context.Context, body *Request) (*http.Response, []byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, nil, fmt.Errorf("编码请求失败: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewReader(payload))
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, err
	}

	raw, readErr := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	_ = resp.Body.Close()
	if readErr != nil {
		return resp, nil, readErr
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp, raw, &HTTPError{StatusCode: resp.StatusCode, Body: preview(raw, 500)}
	}
	return resp, raw, nil
}

func (c *Client) doWithRetry(ctx context.Context, body *Request) (*Response, error) {
	backoff := c.backoff

	for attempt := 0; ; attempt++ {
		resp, raw, err := c.doOnce(ctx, body)
		if err == nil {
			return &Response{Body: raw, StatusCode: resp.StatusCode}, nil
		}
		if !isRetryable(err) || attempt >= c.maxRetries {
			return nil, err
		}

		sleepFor := retryAfter(resp, backoff, maxRetryBackoff)
		c.logger.Warn("AI 生成服务请求重试",
			zap.Int("attempt", attempt+1),
			zap.Int("max_retries", c.maxRetries),
			zap.Duration("sleep", sleepFor),
			zap.Error(err),
		)

		timer := time.NewTimer(sleepFor)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
		backoff *= 2
	}
}

func (c *Client) classify(err error) error {
	if isTimeout(err) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}
	return fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
}

func statusLabel(err error) string {
	if isTimeout(err) {
		return "timeout"
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return fmt.Sprintf("http_%d", httpErr.StatusCode)
	}
	return "error"
}

func preview(raw []byte, n int) string {
	if len(raw) <= n {
		return string(raw)
	}
	return string(raw[:n])
}

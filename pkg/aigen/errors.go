package aigen

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// ── AI 生成服务错误 ──

var (
	// ErrServiceUnavailable 生成服务不可达或返回非 2xx
	ErrServiceUnavailable = errors.New("AI 生成服务不可用")
	// ErrTimeout 生成服务在时限内未响应，属于 ErrServiceUnavailable 的子类
	ErrTimeout = fmt.Errorf("%w: 请求超时", ErrServiceUnavailable)
)

// HTTPError 生成服务返回的非 2xx 响应
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("AI 生成服务返回 HTTP %d: %s", e.StatusCode, e.Body)
}

// HTTPStatusCode 返回上游 HTTP 状态码
func (e *HTTPError) HTTPStatusCode() int {
	if e == nil {
		return 0
	}
	return e.StatusCode
}

// Unwrap 使 errors.Is(err, ErrServiceUnavailable) 成立
func (e *HTTPError) Unwrap() error { return ErrServiceUnavailable }

type httpStatusCoder interface {
	HTTPStatusCode() int
}

func isRetryableStatus(code int) bool {
	if code == http.StatusRequestTimeout || code == http.StatusTooManyRequests {
		return true
	}
	return code >= 500 && code <= 599
}

// isRetryable 超时不重试：单次生成共享同一个时限
func isRetryable(err error) bool {
	if err == nil || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return false
	}
	var sc httpStatusCoder
	if errors.As(err, &sc) {
		return isRetryableStatus(sc.HTTPStatusCode())
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return !netErr.Timeout()
	}
	return false
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// retryAfter 读取 Retry-After 秒数，缺省为 fallback，不超过 max
func retryAfter(resp *http.Response, fallback, max time.Duration) time.Duration {
	sleepFor := fallback
	if resp != nil {
		if ra := strings.TrimSpace(resp.Header.Get("Retry-After")); ra != "" {
			if secs, err := strconv.Atoi(ra); err == nil && secs > 0 {
				sleepFor = time.Duration(secs) * time.Second
			}
		}
	}
	if max > 0 && sleepFor > max {
		sleepFor = max
	}
	return sleepFor
}

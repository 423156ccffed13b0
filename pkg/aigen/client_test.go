package aigen

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ahmeeeeedddddd/Studify/config"
	"github.com/ahmeeeeedddddd/Studify/pkg/metrics"
)

func newTestClient(url string, timeout time.Duration, retries int) *Client {
	return NewClient(&config.AIConfig{
		WebhookURL:      url,
		GenerateTimeout: timeout,
		ProbeTimeout:    timeout,
		MaxRetries:      retries,
		RetryBackoff:    10 * time.Millisecond,
		UserAgent:       "studify-test",
	}, metrics.NewNop(), zap.NewNop())
}

func TestGenerate_ReturnsRawBody(t *testing.T) {
	var got Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "studify-test", r.Header.Get("User-Agent"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"result":"{\"daily_plan\":[]}"}`))
	}))
	defer srv.Close()

	days := 14
	c := newTestClient(srv.URL, time.Second, 0)
	resp, err := c.Generate(context.Background(), &Request{Course: "Go", DurationType: DurationCustom, CustomDays: &days})
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"result":"{\"daily_plan\":[]}"}`, string(resp.Body))
	assert.Equal(t, "Go", got.Course)
	assert.Equal(t, DurationCustom, got.DurationType)
	require.NotNil(t, got.CustomDays)
	assert.Equal(t, 14, *got.CustomDays)
}

func TestGenerate_TimeoutIsServiceUnavailableSubkind(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, 50*time.Millisecond, 2)
	_, err := c.Generate(context.Background(), &Request{Course: "Go", DurationType: DurationRecommended})

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTimeout))
	assert.True(t, errors.Is(err, ErrServiceUnavailable))
}

func TestGenerate_RetriesOn5xx(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"daily_plan":[]}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, time.Second, 2)
	resp, err := c.Generate(context.Background(), &Request{Course: "Go", DurationType: DurationRecommended})
	require.NoError(t, err)

	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	assert.Equal(t, `{"daily_plan":[]}`, string(resp.Body))
}

func TestGenerate_NonRetryableStatus(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte("bad course"))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, time.Second, 3)
	_, err := c.Generate(context.Background(), &Request{Course: "Go", DurationType: DurationRecommended})

	require.Error(t, err)
	var httpErr *HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusBadRequest, httpErr.HTTPStatusCode())
	assert.True(t, errors.Is(err, ErrServiceUnavailable))
	assert.False(t, errors.Is(err, ErrTimeout))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestGenerate_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := newTestClient(url, time.Second, 0)
	_, err := c.Generate(context.Background(), &Request{Course: "Go", DurationType: DurationRecommended})

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrServiceUnavailable))
}

func TestProbe_SendsTestCourse(t *testing.T) {
	var got Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, time.Second, 0)
	res, err := c.Probe(context.Background())
	require.NoError(t, err)

	assert.True(t, res.Reachable)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "Test Course", got.Course)
	assert.Equal(t, DurationRecommended, got.DurationType)
	assert.Nil(t, got.CustomDays)
}

func TestRetryAfter(t *testing.T) {
	resp := &http.Response{Header: http.Header{"Retry-After": []string{"30"}}}
	assert.Equal(t, 10*time.Second, retryAfter(resp, time.Second, 10*time.Second))
	assert.Equal(t, time.Second, retryAfter(nil, time.Second, 10*time.Second))
}

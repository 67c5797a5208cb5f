package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/architeacher/svc-mq-factory/internal/config"
	"github.com/architeacher/svc-mq-factory/internal/infrastructure"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRateLimiter(t *testing.T, burst int) http.Handler {
	t.Helper()

	mw, err := NewThrottledRateLimitingMiddleware(config.ThrottledRateLimitingConfig{
		Enabled:           true,
		RequestsPerSecond: 1,
		BurstSize:         burst,
		MaxKeys:           16,
		SkipPaths:         []string{"/v1/health"},
	}, infrastructure.NewWithWriter(config.LoggingConfig{}, &bytes.Buffer{}))
	require.NoError(t, err)

	return mw.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
}

func serve(handler http.Handler, path, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.RemoteAddr = remoteAddr

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	return rec
}

func TestThrottledRateLimiting_DeniesAfterBurst(t *testing.T) {
	t.Parallel()

	handler := newTestRateLimiter(t, 2)

	for i := range 3 {
		rec := serve(handler, "/v1/messages", "10.0.0.1:1234")
		assert.Equal(t, http.StatusNoContent, rec.Code, "request %d", i)
	}

	rec := serve(handler, "/v1/messages", "10.0.0.1:1234")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.JSONEq(t, `{"error":"rate limit exceeded"}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
}

func TestThrottledRateLimiting_VariesByClient(t *testing.T) {
	t.Parallel()

	handler := newTestRateLimiter(t, 0)

	assert.Equal(t, http.StatusNoContent, serve(handler, "/v1/messages", "10.0.0.1:1234").Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(handler, "/v1/messages", "10.0.0.1:1234").Code)
	assert.Equal(t, http.StatusNoContent, serve(handler, "/v1/messages", "10.0.0.2:1234").Code)
}

func TestThrottledRateLimiting_SkipPaths(t *testing.T) {
	t.Parallel()

	handler := newTestRateLimiter(t, 0)

	for range 5 {
		assert.Equal(t, http.StatusNoContent, serve(handler, "/v1/health", "10.0.0.1:1234").Code)
	}
}

package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccessLogger_Middleware(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name          string
		method        string
		path          string
		query         string
		includeQuery  bool
		statusCode    int
		expectedLevel string
		skipAccessLog bool
		requestID     string
		traceID       string
		referer       string
		shouldLog     bool
	}{
		{
			name:          "successful request logs info level",
			method:        http.MethodGet,
			path:          "/v1/messages",
			statusCode:    http.StatusOK,
			expectedLevel: "info",
			shouldLog:     true,
		},
		{
			name:          "empty queue logs info level",
			method:        http.MethodGet,
			path:          "/v1/messages",
			statusCode:    http.StatusNoContent,
			expectedLevel: "info",
			shouldLog:     true,
		},
		{
			name:          "client error logs warn level",
			method:        http.MethodPost,
			path:          "/v1/queues/unknown/messages",
			statusCode:    http.StatusNotFound,
			expectedLevel: "warn",
			shouldLog:     true,
		},
		{
			name:          "broker failure logs error level",
			method:        http.MethodPost,
			path:          "/v1/messages",
			statusCode:    http.StatusServiceUnavailable,
			expectedLevel: "error",
			shouldLog:     true,
		},
		{
			name:          "skipped access log does not log",
			method:        http.MethodGet,
			path:          "/v1/health",
			statusCode:    http.StatusOK,
			skipAccessLog: true,
			shouldLog:     false,
		},
		{
			name:          "includes query when enabled",
			method:        http.MethodGet,
			path:          "/v1/queues",
			query:         "verbose=true",
			includeQuery:  true,
			statusCode:    http.StatusOK,
			expectedLevel: "info",
			shouldLog:     true,
		},
		{
			name:          "omits query when disabled",
			method:        http.MethodGet,
			path:          "/v1/queues",
			query:         "verbose=true",
			statusCode:    http.StatusOK,
			expectedLevel: "info",
			shouldLog:     true,
		},
		{
			name:          "includes request_id header",
			method:        http.MethodGet,
			path:          "/v1/messages",
			statusCode:    http.StatusOK,
			requestID:     "req_12345",
			expectedLevel: "info",
			shouldLog:     true,
		},
		{
			name:          "includes trace_id header",
			method:        http.MethodGet,
			path:          "/v1/messages",
			statusCode:    http.StatusOK,
			traceID:       "trace_67890",
			expectedLevel: "info",
			shouldLog:     true,
		},
		{
			name:          "includes referer when present",
			method:        http.MethodGet,
			path:          "/v1/messages",
			statusCode:    http.StatusOK,
			referer:       "https://example.com",
			expectedLevel: "info",
			shouldLog:     true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer

			accessLogger := NewAccessLogger(zerolog.New(&buf), tc.includeQuery)

			handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tc.statusCode)
			})

			req := httptest.NewRequest(tc.method, tc.path, nil)
			req.URL.RawQuery = tc.query

			if tc.skipAccessLog {
				req = req.WithContext(context.WithValue(req.Context(), skipAccessLogKey, true))
			}

			if tc.requestID != "" {
				req.Header.Set("X-Request-Id", tc.requestID)
			}

			if tc.traceID != "" {
				req.Header.Set("X-Trace-ID", tc.traceID)
			}

			if tc.referer != "" {
				req.Header.Set("Referer", tc.referer)
			}

			accessLogger.Middleware(handler).ServeHTTP(httptest.NewRecorder(), req)

			if !tc.shouldLog {
				assert.Empty(t, buf.String(), "expected no log output")

				return
			}

			var logEntry map[string]any
			require.NoError(t, json.Unmarshal(buf.Bytes(), &logEntry), "log output should be valid JSON: %s", buf.String())

			assert.Equal(t, tc.expectedLevel, logEntry["level"])
			assert.Equal(t, "http_access", logEntry["component"])
			assert.Equal(t, tc.method, logEntry["method"])
			assert.Equal(t, tc.path, logEntry["path"])
			assert.Equal(t, float64(tc.statusCode), logEntry["status_code"])
			assert.Contains(t, logEntry, "duration")
			assert.Contains(t, logEntry, "duration_ms")
			assert.Contains(t, logEntry, "response_size_bytes")

			if tc.includeQuery {
				assert.Equal(t, tc.query, logEntry["query"])
			} else {
				assert.NotContains(t, logEntry, "query")
			}

			if tc.requestID != "" {
				assert.Equal(t, tc.requestID, logEntry["request_id"])
			}

			if tc.traceID != "" {
				assert.Equal(t, tc.traceID, logEntry["trace_id"])
			}

			if tc.referer != "" {
				assert.Equal(t, tc.referer, logEntry["referer"])
			}
		})
	}
}

func TestAccessLogger_LogsQueueIdentifier(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	router := chi.NewRouter()
	router.Use(NewAccessLogger(zerolog.New(&buf), false).Middleware)
	router.Post("/v1/queues/{identifier}/messages", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	})

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/v1/queues/orders/messages", nil))

	var logEntry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &logEntry))

	assert.Equal(t, "orders", logEntry["queue_identifier"])
	assert.Equal(t, float64(http.StatusAccepted), logEntry["status_code"])
}

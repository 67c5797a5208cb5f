package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHealthCheckFilter_Middleware(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name                string
		path                string
		logHealthChecks     bool
		expectSkipAccessLog bool
	}{
		{
			name:                "skips health endpoint when logging disabled",
			path:                "/v1/health",
			expectSkipAccessLog: true,
		},
		{
			name:                "skips readiness endpoint when logging disabled",
			path:                "/v1/readiness",
			expectSkipAccessLog: true,
		},
		{
			name:                "skips metrics scrapes when logging disabled",
			path:                "/metrics",
			expectSkipAccessLog: true,
		},
		{
			name:                "logs health endpoint when logging enabled",
			path:                "/v1/health",
			logHealthChecks:     true,
			expectSkipAccessLog: false,
		},
		{
			name:                "logs message endpoint",
			path:                "/v1/messages",
			expectSkipAccessLog: false,
		},
		{
			name:                "logs queue named like a probe",
			path:                "/v1/queues/healthz/messages",
			expectSkipAccessLog: false,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			filter := NewHealthCheckFilter(tc.logHealthChecks)

			called := false
			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true

				skip, _ := r.Context().Value(skipAccessLogKey).(bool)
				assert.Equal(t, tc.expectSkipAccessLog, skip)

				w.WriteHeader(http.StatusOK)
			})

			rec := httptest.NewRecorder()
			filter.Middleware(handler).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tc.path, nil))

			assert.True(t, called, "handler should have been called")
			assert.Equal(t, http.StatusOK, rec.Code)
		})
	}
}

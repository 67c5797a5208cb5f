package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

type contextKey string

const (
	skipAccessLogKey contextKey = "skip_access_log"
)

type AccessLogger struct {
	logger             zerolog.Logger
	includeQueryParams bool
}

func NewAccessLogger(logger zerolog.Logger, includeQueryParams bool) *AccessLogger {
	return &AccessLogger{
		logger:             logger.With().Str("component", "http_access").Logger(),
		includeQueryParams: includeQueryParams,
	}
}

func (a *AccessLogger) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if skip, ok := r.Context().Value(skipAccessLogKey).(bool); ok && skip {
			next.ServeHTTP(w, r)

			return
		}

		startTime := time.Now()
		wrapped := NewFlushableResponseWriter(w)

		next.ServeHTTP(wrapped, r)

		duration := time.Since(startTime)
		logEvent := a.eventFor(wrapped.StatusCode())

		logEvent.
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("remote_addr", r.RemoteAddr).
			Str("user_agent", r.UserAgent()).
			Str("proto", r.Proto).
			Str("host", r.Host).
			Int("status_code", wrapped.StatusCode()).
			Int64("response_size_bytes", wrapped.BytesWritten()).
			Dur("duration", duration).
			Float64("duration_ms", float64(duration.Milliseconds()))

		if a.includeQueryParams {
			logEvent.Str("query", r.URL.RawQuery)
		}

		if identifier := chi.URLParam(r, "identifier"); identifier != "" {
			logEvent.Str("queue_identifier", identifier)
		}

		if requestID := requestIDFrom(r); requestID != "" {
			logEvent.Str("request_id", requestID)
		}

		if traceID := traceIDFrom(r); traceID != "" {
			logEvent.Str("trace_id", traceID)
		}

		if referer := r.Referer(); referer != "" {
			logEvent.Str("referer", referer)
		}

		logEvent.Msg("HTTP request completed")
	})
}

func (a *AccessLogger) eventFor(statusCode int) *zerolog.Event {
	switch {
	case statusCode >= http.StatusInternalServerError:
		return a.logger.Error()
	case statusCode >= http.StatusBadRequest:
		return a.logger.Warn()
	default:
		return a.logger.Info()
	}
}

func requestIDFrom(r *http.Request) string {
	if requestID := chimiddleware.GetReqID(r.Context()); requestID != "" {
		return requestID
	}

	return r.Header.Get(chimiddleware.RequestIDHeader)
}

func traceIDFrom(r *http.Request) string {
	if spanContext := trace.SpanContextFromContext(r.Context()); spanContext.HasTraceID() {
		return spanContext.TraceID().String()
	}

	return r.Header.Get("X-Trace-ID")
}

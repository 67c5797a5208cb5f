package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"
	"slices"

	"github.com/architeacher/svc-mq-factory/internal/config"
	"github.com/architeacher/svc-mq-factory/internal/infrastructure"
	"github.com/throttled/throttled/v2"
	"github.com/throttled/throttled/v2/store/memstore"
)

// ThrottledRateLimitingMiddleware applies a per client GCRA limit. Probe and
// scrape paths listed in the config bypass it.
type ThrottledRateLimitingMiddleware struct {
	limiter   *throttled.HTTPRateLimiterCtx
	skipPaths []string
	logger    infrastructure.Logger
}

func NewThrottledRateLimitingMiddleware(cfg config.ThrottledRateLimitingConfig, logger infrastructure.Logger) (*ThrottledRateLimitingMiddleware, error) {
	store, err := memstore.NewCtx(cfg.MaxKeys)
	if err != nil {
		return nil, fmt.Errorf("failed to create rate limit store: %w", err)
	}

	quota := throttled.RateQuota{
		MaxRate:  throttled.PerSec(cfg.RequestsPerSecond),
		MaxBurst: cfg.BurstSize,
	}

	rateLimiter, err := throttled.NewGCRARateLimiterCtx(store, quota)
	if err != nil {
		return nil, fmt.Errorf("failed to create rate limiter: %w", err)
	}

	mw := &ThrottledRateLimitingMiddleware{
		skipPaths: cfg.SkipPaths,
		logger:    logger,
	}

	mw.limiter = &throttled.HTTPRateLimiterCtx{
		RateLimiter:   rateLimiter,
		VaryBy:        &throttled.VaryBy{RemoteAddr: true},
		DeniedHandler: http.HandlerFunc(rateLimitDenied),
		Error:         mw.rateLimitError,
	}

	return mw, nil
}

func (mw *ThrottledRateLimitingMiddleware) Middleware(next http.Handler) http.Handler {
	limited := mw.limiter.RateLimit(next)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if slices.Contains(mw.skipPaths, r.URL.Path) {
			next.ServeHTTP(w, r)

			return
		}

		limited.ServeHTTP(w, r)
	})
}

func (mw *ThrottledRateLimitingMiddleware) rateLimitError(w http.ResponseWriter, r *http.Request, err error) {
	mw.logger.Error().Err(err).Str("path", r.URL.Path).Msg("rate limiter failed")

	writeJSONError(w, http.StatusInternalServerError, "rate limiter unavailable")
}

func rateLimitDenied(w http.ResponseWriter, _ *http.Request) {
	writeJSONError(w, http.StatusTooManyRequests, "rate limit exceeded")
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}

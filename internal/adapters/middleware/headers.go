package middleware

import (
	"net/http"
)

// ResponseHeadersMiddleware stamps every response with the API and service
// versions plus the usual hardening headers.
type ResponseHeadersMiddleware struct {
	headers map[string]string
}

func NewResponseHeadersMiddleware(apiVersion, serviceVersion string) ResponseHeadersMiddleware {
	return ResponseHeadersMiddleware{
		headers: map[string]string{
			"API-Version":            apiVersion,
			"X-Service-Version":      serviceVersion,
			"X-Content-Type-Options": "nosniff",
			"X-Frame-Options":        "DENY",
			"Cache-Control":          "no-store",
		},
	}
}

func (mw ResponseHeadersMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for key, value := range mw.headers {
			w.Header().Set(key, value)
		}

		next.ServeHTTP(w, r)
	})
}

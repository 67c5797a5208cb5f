package middleware

import (
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/trace"
)

// Tracer starts a server span per request. The span is renamed after the chi
// route pattern once routing is done, so identifiers stay out of span names.
func Tracer(opts ...otelhttp.Option) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		routed := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r)

			trace.SpanFromContext(r.Context()).SetName(r.Method + " " + routePattern(r))
		})

		return otelhttp.NewHandler(routed, "http.server", append([]otelhttp.Option{
			otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
				return r.Method
			}),
		}, opts...)...)
	}
}

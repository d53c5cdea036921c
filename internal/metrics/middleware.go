package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	RequestsCollectorName = "api_requests_total"
	LatencyCollectorName  = "api_request_duration_milliseconds"
)

var latencyBuckets = []float64{5, 25, 100, 300, 1000, 5000}

// Middleware records local API requests partitioned by status code, method
// and chi route pattern.
type Middleware struct {
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

// NewMiddleware builds the middleware and registers it on m's registry.
func (m *Metrics) NewMiddleware() *Middleware {
	mw := &Middleware{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      RequestsCollectorName,
				Help:      "Number of HTTP requests partitioned by status code, method and HTTP path.",
			}, []string{"code", "method", "path"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      LatencyCollectorName,
			Help:      "Time spent on the request partitioned by status code, method and HTTP path.",
			Buckets:   latencyBuckets,
		}, []string{"code", "method", "path"}),
	}
	if m != nil {
		m.registry.MustRegister(mw.requests, mw.latency)
	}
	return mw
}

// Handler returns a handler for the middleware pattern.
func (mw *Middleware) Handler(next http.Handler) http.Handler {
	fn := func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			rp := rctx.RoutePattern()
			code := strconv.Itoa(ww.Status())
			mw.requests.WithLabelValues(code, r.Method, rp).Inc()
			mw.latency.WithLabelValues(code, r.Method, rp).Observe(float64(time.Since(start).Milliseconds()))
		}
	}
	return http.HandlerFunc(fn)
}

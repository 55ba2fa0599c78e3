package preview

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "pigment"

// metrics holds the Prometheus metrics for the preview server.
type metrics struct {
	pagesTotal    *prometheus.CounterVec
	pageDuration  *prometheus.HistogramVec
	pageBytes     prometheus.Counter
	syncClients   prometheus.Gauge
	syncMessages  *prometheus.CounterVec
	rebuildsTotal prometheus.Counter
}

// newMetrics registers the preview metrics on registry.
func newMetrics(registry prometheus.Registerer) *metrics {
	factory := promauto.With(registry)

	return &metrics{
		pagesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "preview",
			Name:      "pages_total",
			Help:      "Total pages served by route pattern and status code",
		}, []string{"route", "status"}),

		pageDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "preview",
			Name:      "page_duration_seconds",
			Help:      "Page decoration and serve duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),

		pageBytes: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "preview",
			Name:      "page_bytes_total",
			Help:      "Total decorated HTML bytes written",
		}),

		syncClients: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "sync",
			Name:      "clients",
			Help:      "Number of connected sync hub clients",
		}),

		syncMessages: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "sync",
			Name:      "messages_total",
			Help:      "Sync hub messages by direction",
		}, []string{"direction"}),

		rebuildsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "preview",
			Name:      "rebuilds_total",
			Help:      "Total rebuild broadcasts triggered by site changes",
		}),
	}
}

// instrument records request counts and durations per chi route pattern.
// Patterns keep label cardinality bounded no matter what paths clients ask
// for.
func (m *metrics) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = "unmatched"
		}
		m.pagesTotal.WithLabelValues(route, strconv.Itoa(ww.Status())).Inc()
		m.pageDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
		m.pageBytes.Add(float64(ww.BytesWritten()))
	})
}

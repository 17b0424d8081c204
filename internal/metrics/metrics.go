package metrics

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "server_inventory_http_requests_total",
			Help: "Total number of HTTP requests by method, route, and status code.",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "server_inventory_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds by method and route.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	httpRequestsInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "server_inventory_http_requests_in_flight",
		Help: "Current number of HTTP requests being processed.",
	})
)

// collectTimeout bounds the database query made on each scrape.
const collectTimeout = 5 * time.Second

// StatusCounter is the subset of db.DB needed to collect inventory metrics.
type StatusCounter interface {
	CountByStatus(ctx context.Context) (map[string]int, error)
}

// serverCollector is a custom Prometheus collector that queries the database
// on each scrape to report server counts broken down by status.
type serverCollector struct {
	db          StatusCounter
	serversDesc *prometheus.Desc
}

// NewServerCollector returns the collector behind server_inventory_servers.
func NewServerCollector(db StatusCounter) prometheus.Collector {
	return &serverCollector{
		db: db,
		serversDesc: prometheus.NewDesc(
			"server_inventory_servers",
			"Number of servers in the inventory, partitioned by status.",
			[]string{"status"},
			nil,
		),
	}
}

func (c *serverCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.serversDesc
}

func (c *serverCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), collectTimeout)
	defer cancel()

	counts, err := c.db.CountByStatus(ctx)
	if err != nil {
		ch <- prometheus.NewInvalidMetric(c.serversDesc, err)
		return
	}
	for status, n := range counts {
		ch <- prometheus.MustNewConstMetric(
			c.serversDesc,
			prometheus.GaugeValue,
			float64(n),
			status,
		)
	}
}

// Register registers all metrics with the default Prometheus registry.
// Call once at startup after the database is initialised.
func Register(db StatusCounter) {
	prometheus.MustRegister(
		// Standard Go runtime and process metrics
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),

		// HTTP service metrics
		httpRequestsTotal,
		httpRequestDuration,
		httpRequestsInFlight,

		// Inventory metrics
		NewServerCollector(db),
	)
}

// Handler returns the Prometheus HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// responseWriter wraps http.ResponseWriter to capture the response status code.
type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

// Middleware wraps an http.Handler to record HTTP metrics.
// pattern should be the route pattern string (e.g. "GET /api/servers/{id}")
// so the path label has bounded cardinality. A leading method is dropped from
// the label since it is recorded separately.
func Middleware(pattern string, next http.Handler) http.Handler {
	path := pattern
	if _, p, ok := strings.Cut(pattern, " "); ok {
		path = p
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		httpRequestsInFlight.Inc()

		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		defer func() {
			httpRequestsInFlight.Dec()
			status := strconv.Itoa(rw.status)
			httpRequestsTotal.WithLabelValues(r.Method, path, status).Inc()
			httpRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
		}()

		next.ServeHTTP(rw, r)
	})
}

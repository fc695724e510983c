package obs

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HTTP metrics for the gateway.
var (
	httpInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "http_in_flight_requests",
		Help: "In-flight HTTP requests.",
	})

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)

// Mesh metrics shared by the RPC client layer and the ledger feed.
var (
	// RPCRetries counts retry attempts after an authentication failure.
	RPCRetries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rpc_auth_retries_total",
			Help: "RPC attempts retried after an authentication failure.",
		},
		[]string{"method"},
	)

	// CredentialRefreshes counts token refreshes by trigger and result.
	CredentialRefreshes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "credential_refreshes_total",
			Help: "Bearer credential refreshes.",
		},
		[]string{"trigger", "result"},
	)

	// LedgerPublishes counts ledger feed publish outcomes.
	LedgerPublishes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_publishes_total",
			Help: "Ledger entry publish attempts.",
		},
		[]string{"status"},
	)
)

// Init registers all metrics in the default registry.
func Init() {
	prometheus.MustRegister(
		httpInFlight, httpRequestsTotal, httpRequestDuration,
		RPCRetries, CredentialRefreshes, LedgerPublishes,
	)
}

// Handler exposes the Prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Instrument wraps an HTTP handler with RPS/latency/in-flight measurement.
func Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := CanonicalPath(r.URL.Path)
		method := r.Method

		httpInFlight.Inc()
		start := time.Now()

		sw := &statusWriter{ResponseWriter: w, code: 200}
		next.ServeHTTP(sw, r)

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(sw.code)

		httpRequestDuration.WithLabelValues(method, path, status).Observe(duration)
		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
		httpInFlight.Dec()
	})
}

// CanonicalPath collapses resource identifiers out of metric labels so
// cardinality stays bounded.
func CanonicalPath(path string) string {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	if path == "" {
		return "/"
	}
	parts := strings.Split(path, "/")
	switch {
	case len(parts) >= 4 && parts[1] == "v1" && parts[2] == "accounts":
		parts[3] = ":number"
		if len(parts) > 5 {
			return path
		}
	case len(parts) >= 4 && parts[1] == "v1" && parts[2] == "transactions":
		if len(parts) > 4 {
			return path
		}
		parts[3] = ":reference"
	case len(parts) >= 4 && parts[1] == "v1" && parts[2] == "users":
		parts[3] = ":id"
	default:
		return path
	}
	return strings.Join(parts, "/")
}

// statusWriter captures the response code for labels.
type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}

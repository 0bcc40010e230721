package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "foodpos",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "foodpos",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "foodpos",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
		},
		[]string{"method", "route"},
	)

	ordersCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "foodpos",
			Subsystem: "orders",
			Name:      "created_total",
			Help:      "Orders placed at checkout.",
		},
		[]string{"payment_method"},
	)

	revenue = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "foodpos",
			Subsystem: "orders",
			Name:      "revenue_total",
			Help:      "Sum of paid order totals.",
		},
		[]string{"payment_method"},
	)

	ordersCancelled = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "foodpos",
			Subsystem: "orders",
			Name:      "cancelled_total",
			Help:      "Orders cancelled after checkout.",
		},
	)

	closingRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "foodpos",
			Subsystem: "closing",
			Name:      "runs_total",
			Help:      "Daily closing runs.",
		},
		[]string{"success"},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		ordersCreated,
		revenue,
		ordersCancelled,
		closingRuns,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler exposes the registry.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// InstrumentHandler records request count, latency and in-flight requests.
// Routes are labelled with the chi pattern so IDs do not explode cardinality.
func InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		httpInFlight.Inc()
		defer httpInFlight.Dec()

		next.ServeHTTP(rec, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		method := strings.ToUpper(r.Method)

		httpRequests.WithLabelValues(method, route, strconv.Itoa(rec.status)).Inc()
		httpDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	})
}

// RecordOrder counts a placed order; paid orders also add to revenue.
func RecordOrder(paymentMethod string, total float64, paid bool) {
	if paymentMethod == "" {
		paymentMethod = "unknown"
	}
	ordersCreated.WithLabelValues(paymentMethod).Inc()
	if paid {
		revenue.WithLabelValues(paymentMethod).Add(total)
	}
}

// RecordPayment adds a later payment of an open order to revenue.
func RecordPayment(paymentMethod string, total float64) {
	revenue.WithLabelValues(paymentMethod).Add(total)
}

func RecordCancellation() {
	ordersCancelled.Inc()
}

func RecordClosing(success bool) {
	closingRuns.WithLabelValues(strconv.FormatBool(success)).Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

package metrics

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	Interactions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quiz_interactions_total",
			Help: "Widget interactions evaluated in preview mode",
		},
		[]string{"widget", "outcome"},
	)

	StateSaves = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quiz_state_saves_total",
			Help: "Quiz state save attempts",
		},
		[]string{"result"},
	)

	StateLoads = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quiz_state_loads_total",
			Help: "Quiz state load attempts",
		},
		[]string{"result"},
	)

	PageAdvances = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quiz_page_advances_total",
			Help: "Automatic page transitions",
		},
		[]string{"kind"},
	)

	ActiveSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "quiz_active_sessions",
			Help: "Open quiz runtimes",
		},
	)

	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"method", "endpoint"},
	)
)

var (
	registry = prometheus.NewRegistry()
	once     sync.Once
)

// Init registers the collectors once.
func Init() {
	once.Do(func() {
		registry.MustRegister(
			Interactions, StateSaves, StateLoads, PageAdvances, ActiveSessions,
			RequestCounter, RequestDuration,
		)
	})
}

// Handler serves the registered collectors.
func Handler() http.Handler {
	Init()
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Hijack lets websocket upgrades pass through the recorder.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	r.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

// Middleware records request counts and durations per route pattern.
func Middleware(endpoint string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		RequestCounter.WithLabelValues(r.Method, endpoint, strconv.Itoa(rec.status)).Inc()
		RequestDuration.WithLabelValues(r.Method, endpoint).Observe(time.Since(start).Seconds())
	})
}

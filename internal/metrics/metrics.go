package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns the service collectors on a private registry
type Metrics struct {
	registry *prometheus.Registry

	Logins         *prometheus.CounterVec
	AuthzDecisions *prometheus.CounterVec
	Confirmations  *prometheus.CounterVec
	CyclesOpened   prometheus.Counter
	Reminders      *prometheus.CounterVec
	Requests       *prometheus.CounterVec
	Latency        *prometheus.HistogramVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "school",
			Name:      "logins_total",
			Help:      "Login attempts by outcome.",
		}, []string{"outcome"}),
		AuthzDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "school",
			Name:      "authz_decisions_total",
			Help:      "Authorization decisions by layer and result.",
		}, []string{"layer", "decision"}),
		Confirmations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "school",
			Name:      "payment_confirmations_total",
			Help:      "Payment confirmations; result is changed or noop.",
		}, []string{"result"}),
		CyclesOpened: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "school",
			Name:      "payment_cycles_opened_total",
			Help:      "Payment cycles opened from attendance.",
		}),
		Reminders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "school",
			Name:      "reminders_sent_total",
			Help:      "Overdue reminders by channel and result.",
		}, []string{"channel", "result"}),
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "school",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		Latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "school",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.Logins, m.AuthzDecisions, m.Confirmations, m.CyclesOpened, m.Reminders, m.Requests, m.Latency,
	)
	return m
}

// Registry exposes the registry for tests and extra collectors
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware records request count and latency keyed by the route pattern
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.Requests.WithLabelValues(route, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
		m.Latency.WithLabelValues(route, c.Request.Method).Observe(time.Since(start).Seconds())
	}
}

func (m *Metrics) Login(outcome string) {
	if m != nil {
		m.Logins.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) Decision(layer string, allowed bool) {
	if m == nil {
		return
	}
	d := "deny"
	if allowed {
		d = "allow"
	}
	m.AuthzDecisions.WithLabelValues(layer, d).Inc()
}

func (m *Metrics) Confirmation(changed bool) {
	if m == nil {
		return
	}
	r := "noop"
	if changed {
		r = "changed"
	}
	m.Confirmations.WithLabelValues(r).Inc()
}

func (m *Metrics) CycleOpened() {
	if m != nil {
		m.CyclesOpened.Inc()
	}
}

func (m *Metrics) Reminder(channel string, err error) {
	if m == nil {
		return
	}
	r := "sent"
	if err != nil {
		r = "failed"
	}
	m.Reminders.WithLabelValues(channel, r).Inc()
}

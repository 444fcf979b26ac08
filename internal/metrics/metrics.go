package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors for one server instance.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	LeadsCreated      *prometheus.CounterVec
	LeadsRejected     *prometheus.CounterVec
	Notifications     *prometheus.CounterVec
	LoginAttempts     *prometheus.CounterVec
	LeadStatusChanges *prometheus.CounterVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		HTTPRequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		LeadsCreated: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "leads_created_total",
				Help: "Leads stored, by source tag",
			},
			[]string{"source"},
		),
		LeadsRejected: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "leads_rejected_total",
				Help: "Intake submissions rejected by validation",
			},
			[]string{"profile"},
		),
		Notifications: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lead_notifications_total",
				Help: "Lead notification attempts",
			},
			[]string{"result"}, // sent, failed
		),
		LoginAttempts: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "login_attempts_total",
				Help: "Dashboard login attempts",
			},
			[]string{"status"},
		),
		LeadStatusChanges: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lead_status_changes_total",
				Help: "Status updates applied from the dashboard",
			},
			[]string{"status"},
		),
	}
}

// Middleware records request counts and latency by route pattern.
func (m *Metrics) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		path := c.Route().Path
		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}

		m.HTTPRequestsTotal.WithLabelValues(c.Method(), path, strconv.Itoa(status)).Inc()
		m.HTTPRequestDuration.WithLabelValues(c.Method(), path).Observe(time.Since(start).Seconds())
		return err
	}
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
}

func (m *Metrics) RecordLeadCreated(source string) {
	if m == nil {
		return
	}
	m.LeadsCreated.WithLabelValues(source).Inc()
}

func (m *Metrics) RecordLeadRejected(profile string) {
	if m == nil {
		return
	}
	m.LeadsRejected.WithLabelValues(profile).Inc()
}

func (m *Metrics) RecordNotification(success bool) {
	if m == nil {
		return
	}
	result := "failed"
	if success {
		result = "sent"
	}
	m.Notifications.WithLabelValues(result).Inc()
}

func (m *Metrics) RecordLoginAttempt(success bool) {
	if m == nil {
		return
	}
	status := "failed"
	if success {
		status = "success"
	}
	m.LoginAttempts.WithLabelValues(status).Inc()
}

func (m *Metrics) RecordStatusChange(status string) {
	if m == nil {
		return
	}
	m.LeadStatusChanges.WithLabelValues(status).Inc()
}

package metrics

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddlewareCountsByRoutePattern(t *testing.T) {
	m := New()
	app := fiber.New()
	app.Use(m.Middleware())
	app.Get("/api/dashboard/leads/:id", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusNotFound) })
	app.Get("/metrics", m.Handler())

	for _, id := range []string{"a", "b"} {
		resp, err := app.Test(httptest.NewRequest("GET", "/api/dashboard/leads/"+id, nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/api/dashboard/leads/:id", "404")))

	resp, err := app.Test(httptest.NewRequest("GET", "/metrics", nil))
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "http_requests_total")
}

func TestBusinessCounters(t *testing.T) {
	m := New()
	m.RecordLeadCreated("funnel")
	m.RecordLeadCreated("funnel")
	m.RecordLeadRejected("strict")
	m.RecordNotification(false)
	m.RecordLoginAttempt(true)
	m.RecordStatusChange("contacted")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.LeadsCreated.WithLabelValues("funnel")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LeadsRejected.WithLabelValues("strict")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Notifications.WithLabelValues("failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LoginAttempts.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LeadStatusChanges.WithLabelValues("contacted")))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordLeadCreated("website")
		m.RecordLeadRejected("relaxed")
		m.RecordNotification(true)
		m.RecordLoginAttempt(false)
		m.RecordStatusChange("new")
	})
}

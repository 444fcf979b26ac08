package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/skyreachair/leadfunnel/internal/intake"
	"github.com/skyreachair/leadfunnel/internal/metrics"
	"github.com/skyreachair/leadfunnel/internal/models"
	"github.com/skyreachair/leadfunnel/internal/notify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeNotifier struct {
	mu    sync.Mutex
	id    string
	err   error
	calls []*models.Lead
}

func (f *fakeNotifier) NotifyNewLead(ctx context.Context, lead *models.Lead) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, lead)
	if _, ok := ctx.Deadline(); !ok {
		return "", errors.New("expected a deadline")
	}
	return f.id, f.err
}

func newIntakeService(t *testing.T, n notify.Notifier) (*IntakeService, *LeadService, *metrics.Metrics) {
	t.Helper()
	leads, _ := newLeadService(t)
	m := metrics.New()
	return NewIntakeService(leads, n, m, time.Second), leads, m
}

func TestSubmitStoresAndNotifies(t *testing.T) {
	n := &fakeNotifier{id: "<msg-1@example.com>"}
	svc, leads, m := newIntakeService(t, n)

	lead, err := svc.Submit(context.Background(), intake.Relaxed, intake.Submission{
		FirstName: "Ann",
		Phone:     "555-123-4567",
		Source:    "heating_winter_2026_offer",
		Extra:     map[string]string{"hvac_system": "furnace"},
	})
	require.NoError(t, err)
	assert.True(t, lead.EmailSent)
	assert.Equal(t, "<msg-1@example.com>", lead.EmailID)
	require.Len(t, n.calls, 1)
	assert.Equal(t, lead.ID, n.calls[0].ID)

	stored, err := leads.FindByID(context.Background(), lead.ID.String())
	require.NoError(t, err)
	assert.True(t, stored.EmailSent)
	assert.Equal(t, "<msg-1@example.com>", stored.EmailID)
	assert.Equal(t, map[string]string{"hvac_system": "furnace"}, stored.Answers())

	assert.Equal(t, 1.0, testutil.ToFloat64(m.LeadsCreated.WithLabelValues("heating_winter_2026_offer")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Notifications.WithLabelValues("sent")))
}

func TestSubmitSucceedsWhenNotificationFails(t *testing.T) {
	n := &fakeNotifier{err: errors.New("smtp: connection refused")}
	svc, leads, m := newIntakeService(t, n)

	lead, err := svc.Submit(context.Background(), intake.Relaxed, intake.Submission{FirstName: "Ann", Phone: "555"})
	require.NoError(t, err)
	assert.False(t, lead.EmailSent)

	stored, err := leads.FindByID(context.Background(), lead.ID.String())
	require.NoError(t, err)
	assert.False(t, stored.EmailSent)
	assert.Equal(t, models.StatusNew, stored.Status)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Notifications.WithLabelValues("failed")))
}

func TestSubmitWithoutConfiguredNotifier(t *testing.T) {
	svc, leads, m := newIntakeService(t, notify.LogNotifier{})

	lead, err := svc.Submit(context.Background(), intake.Relaxed, intake.Submission{FirstName: "Ann", Phone: "555"})
	require.NoError(t, err)

	stored, err := leads.FindByID(context.Background(), lead.ID.String())
	require.NoError(t, err)
	assert.False(t, stored.EmailSent)
	assert.Zero(t, testutil.ToFloat64(m.Notifications.WithLabelValues("failed")))
}

func TestSubmitSurvivesCancelledRequest(t *testing.T) {
	n := &fakeNotifier{id: "id-1"}
	svc, _, _ := newIntakeService(t, n)

	ctx, cancel := context.WithCancel(context.Background())
	lead, err := svc.Submit(ctx, intake.Relaxed, intake.Submission{FirstName: "Ann", Phone: "555"})
	cancel()
	require.NoError(t, err)
	assert.True(t, lead.EmailSent)
}

func TestSubmitRejectsInvalid(t *testing.T) {
	n := &fakeNotifier{}
	svc, leads, m := newIntakeService(t, n)
	ctx := context.Background()

	_, err := svc.Submit(ctx, intake.Relaxed, intake.Submission{FirstName: "Ann"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "Please fix the following: phone: Phone number is required", verr.Message)

	_, err = svc.Submit(ctx, intake.Strict, intake.Submission{FirstName: "Ann", Phone: "555"})
	require.ErrorAs(t, err, &verr)
	fields := map[string]bool{}
	for _, f := range verr.Fields {
		fields[f.Field] = true
	}
	assert.True(t, fields["lastName"])
	assert.True(t, fields["email"])

	page, err := leads.List(ctx, LeadFilter{})
	require.NoError(t, err)
	assert.Zero(t, page.Total)
	assert.Empty(t, n.calls)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LeadsRejected.WithLabelValues("relaxed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LeadsRejected.WithLabelValues("strict")))
}

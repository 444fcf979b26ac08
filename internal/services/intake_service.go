package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/skyreachair/leadfunnel/internal/intake"
	"github.com/skyreachair/leadfunnel/internal/metrics"
	"github.com/skyreachair/leadfunnel/internal/models"
	"github.com/skyreachair/leadfunnel/internal/notify"
)

// IntakeService validates a submission, stores it, then notifies the office.
// Notification is best effort: the lead is already stored when it runs and a
// failed send never changes the result.
type IntakeService struct {
	leads     *LeadService
	validator *intake.Validator
	notifier  notify.Notifier
	metrics   *metrics.Metrics
	timeout   time.Duration
}

func NewIntakeService(leads *LeadService, notifier notify.Notifier, m *metrics.Metrics, timeout time.Duration) *IntakeService {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &IntakeService{
		leads:     leads,
		validator: intake.NewValidator(),
		notifier:  notifier,
		metrics:   m,
		timeout:   timeout,
	}
}

func (s *IntakeService) Submit(ctx context.Context, profile intake.Profile, sub intake.Submission) (*models.Lead, error) {
	payload, fieldErrs := s.validator.Validate(profile, sub)
	if len(fieldErrs) > 0 {
		s.metrics.RecordLeadRejected(profile.String())
		return nil, &ValidationError{Message: intake.Summary(fieldErrs), Fields: fieldErrs}
	}

	lead, err := s.leads.Create(ctx, payload.Lead())
	if err != nil {
		return nil, err
	}
	s.metrics.RecordLeadCreated(lead.Source)
	slog.Info("lead created", "lead_id", lead.ID.String(), "source", lead.Source, "profile", profile.String())

	s.dispatch(ctx, lead)
	return lead, nil
}

func (s *IntakeService) dispatch(ctx context.Context, lead *models.Lead) {
	if s.notifier == nil {
		return
	}
	// Detached from the request so a client disconnect does not abort the send.
	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	defer cancel()

	messageID, err := s.notifier.NotifyNewLead(sendCtx, lead)
	if errors.Is(err, notify.ErrNotConfigured) {
		slog.Warn("lead notification skipped", "lead_id", lead.ID.String(), "reason", err.Error())
		return
	}
	if err != nil {
		s.metrics.RecordNotification(false)
		slog.Error("lead notification failed", "lead_id", lead.ID.String(), "action", "notify", "error", err.Error())
		sentry.CaptureException(err)
		return
	}
	s.metrics.RecordNotification(true)

	if err := s.leads.MarkEmailSent(sendCtx, lead.ID, messageID); err != nil {
		slog.Error("failed to record notification", "lead_id", lead.ID.String(), "action", "notify", "error", err.Error())
		return
	}
	lead.EmailSent = true
	lead.EmailID = messageID
}

package notify

import (
	"context"
	"log/slog"
	"time"

	"github.com/skyreachair/leadfunnel/internal/models"
)

// LogNotifier is used when neither SendGrid nor SMTP is configured.
type LogNotifier struct{}

func (LogNotifier) NotifyNewLead(_ context.Context, lead *models.Lead) (string, error) {
	msg, err := Render(lead, time.Now())
	if err != nil {
		return "", err
	}
	slog.Info("lead notification not sent", "lead_id", lead.ID.String(), "subject", msg.Subject)
	return "", ErrNotConfigured
}

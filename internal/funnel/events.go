package funnel

import "log/slog"

const (
	EventStarted          = "funnel_started"
	EventStepViewed       = "funnel_step_viewed"
	EventStepCompleted    = "funnel_step_completed"
	EventContactSubmitted = "funnel_contact_submitted"
	EventLeadSubmitted    = "funnel_lead_submitted"
)

// EventSink receives analytics events. Delivery is best effort and a sink must
// not call back into the Machine.
type EventSink interface {
	Track(event string, props map[string]any)
}

// LogSink writes events to slog.
type LogSink struct {
	Logger *slog.Logger
}

func (s LogSink) Track(event string, props map[string]any) {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	args := make([]any, 0, 4+len(props)*2)
	args = append(args, "event", event, "funnel", Name)
	for k, v := range props {
		args = append(args, k, v)
	}
	logger.Info("funnel event", args...)
}

type nopSink struct{}

func (nopSink) Track(string, map[string]any) {}

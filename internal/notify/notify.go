// Package notify emails the operations inbox when a new lead arrives.
package notify

import (
	"bytes"
	"context"
	"errors"
	"html/template"
	"time"

	"github.com/skyreachair/leadfunnel/internal/config"
	"github.com/skyreachair/leadfunnel/internal/models"
	"github.com/skyreachair/leadfunnel/internal/phone"
)

// ErrNotConfigured is returned when no mail transport is set up.
var ErrNotConfigured = errors.New("no mail transport configured")

// Notifier sends a lead summary and returns the provider's message id.
type Notifier interface {
	NotifyNewLead(ctx context.Context, lead *models.Lead) (string, error)
}

// New picks SendGrid when an API key is present, then SMTP, then a log-only notifier.
func New(cfg *config.Config) Notifier {
	switch {
	case cfg.SendGridAPIKey != "":
		return NewSendGridNotifier(cfg.SendGridAPIKey, cfg.SMTPSender(), cfg.ContactEmail)
	case cfg.SMTPHost != "":
		return NewSMTPNotifier(SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			User:     cfg.SMTPUser,
			Password: cfg.SMTPPass,
			Secure:   cfg.SMTPSecure,
			From:     cfg.SMTPSender(),
			To:       cfg.ContactEmail,
		})
	default:
		return LogNotifier{}
	}
}

const DefaultServiceName = "Furnace Maintenance"

var serviceNames = map[string]string{
	"ac-install":  "AC Installation",
	"ac-repair":   "AC Repair",
	"heating":     "Heating Services",
	"maintenance": "Maintenance",
	"emergency":   "Emergency Service",
	"commercial":  "Commercial HVAC",
	"other":       "Other",
}

// ServiceName maps a service code to its display name. Unknown codes pass through.
func ServiceName(code string) string {
	if code == "" {
		return DefaultServiceName
	}
	if name, ok := serviceNames[code]; ok {
		return name
	}
	return code
}

type Message struct {
	Subject string
	HTML    string
	Text    string
	ReplyTo string
}

var leadTemplate = template.Must(template.New("lead").Parse(`<h2>New Lead Submission</h2>
<p><strong>Name:</strong> {{.Name}}</p>
{{if .Email}}<p><strong>Email:</strong> {{.Email}}</p>
{{end}}<p><strong>Phone:</strong> {{.Phone}}</p>
<p><strong>Service:</strong> {{.Service}}</p>
{{if .Zip}}<p><strong>ZIP:</strong> {{.Zip}}</p>
{{end}}<p><strong>Message:</strong> {{.Message}}</p>
{{if .Answers}}<h3>Funnel answers</h3>
<ul>{{range .Answers}}<li>{{.Label}}: {{.Value}}</li>{{end}}</ul>
{{end}}<hr>
<p><small>Lead ID: {{.LeadID}}</small></p>
<p><small>Source: {{.Source}}</small></p>
<p><small>Submitted: {{.Submitted}}</small></p>
`))

type answerRow struct {
	Label string
	Value string
}

// Render builds the notification for a stored lead.
func Render(lead *models.Lead, now time.Time) (Message, error) {
	name := lead.DisplayName()
	if name == "" {
		name = lead.FirstName
	}
	service := ServiceName(lead.Service)
	msg := lead.Message
	if msg == "" {
		msg = "N/A"
	}

	var answers []answerRow
	for _, q := range []struct{ label, value string }{
		{"System type", lead.SystemType},
		{"Filter size", lead.FilterSize},
		{"Last service", lead.LastService},
		{"Issues", lead.Issues},
		{"Property type", lead.PropertyType},
		{"Timing", lead.Timing},
	} {
		if q.value != "" {
			answers = append(answers, answerRow{Label: q.label, Value: q.value})
		}
	}

	data := map[string]any{
		"Name":      name,
		"Email":     lead.Email,
		"Phone":     phone.Display(lead.Phone),
		"Service":   service,
		"Zip":       lead.Zip,
		"Message":   msg,
		"Answers":   answers,
		"LeadID":    lead.ID.String(),
		"Source":    lead.Source,
		"Submitted": now.Format("Jan 2, 2006 3:04 PM MST"),
	}

	var buf bytes.Buffer
	if err := leadTemplate.Execute(&buf, data); err != nil {
		return Message{}, err
	}

	text := "New lead: " + name + "\nPhone: " + phone.Display(lead.Phone) + "\nService: " + service + "\nMessage: " + msg + "\nLead ID: " + lead.ID.String()
	if lead.Email != "" {
		text += "\nEmail: " + lead.Email
	}

	return Message{
		Subject: "New Lead: " + name + " - " + service,
		HTML:    buf.String(),
		Text:    text,
		ReplyTo: lead.Email,
	}, nil
}

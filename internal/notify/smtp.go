package notify

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/skyreachair/leadfunnel/internal/models"
	"gopkg.in/gomail.v2"
)

type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Secure   bool
	From     string
	To       string
}

type sender interface {
	DialAndSend(m ...*gomail.Message) error
}

type SMTPNotifier struct {
	cfg    SMTPConfig
	dialer sender
	now    func() time.Time
}

func NewSMTPNotifier(cfg SMTPConfig) *SMTPNotifier {
	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password)
	d.SSL = cfg.Secure
	if !cfg.Secure {
		d.TLSConfig = &tls.Config{ServerName: cfg.Host}
	}
	if cfg.From == "" {
		cfg.From = "noreply@skyreachair.com"
	}
	return &SMTPNotifier{cfg: cfg, dialer: d, now: time.Now}
}

func (n *SMTPNotifier) NotifyNewLead(ctx context.Context, lead *models.Lead) (string, error) {
	msg, err := Render(lead, n.now())
	if err != nil {
		return "", fmt.Errorf("render lead email: %w", err)
	}

	messageID := fmt.Sprintf("<%s@%s>", uuid.NewString(), n.cfg.Host)

	m := gomail.NewMessage()
	m.SetHeader("From", n.cfg.From)
	m.SetHeader("To", n.cfg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetHeader("Message-ID", messageID)
	if msg.ReplyTo != "" {
		m.SetHeader("Reply-To", msg.ReplyTo)
	}
	m.SetBody("text/plain", msg.Text)
	m.AddAlternative("text/html", msg.HTML)

	// gomail has no context support; the dial runs in the background and is
	// abandoned when ctx expires.
	errCh := make(chan error, 1)
	go func() { errCh <- n.dialer.DialAndSend(m) }()

	select {
	case err := <-errCh:
		if err != nil {
			return "", fmt.Errorf("smtp send: %w", err)
		}
		return messageID, nil
	case <-ctx.Done():
		return "", fmt.Errorf("smtp send: %w", ctx.Err())
	}
}

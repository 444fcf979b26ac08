package notify

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/skyreachair/leadfunnel/internal/models"
)

const sendGridHost = "https://api.sendgrid.com"

type SendGridNotifier struct {
	apiKey string
	host   string
	from   string
	to     string
	now    func() time.Time
}

func NewSendGridNotifier(apiKey, from, to string) *SendGridNotifier {
	if from == "" {
		from = "noreply@skyreachair.com"
	}
	return &SendGridNotifier{apiKey: apiKey, host: sendGridHost, from: from, to: to, now: time.Now}
}

func (n *SendGridNotifier) NotifyNewLead(ctx context.Context, lead *models.Lead) (string, error) {
	msg, err := Render(lead, n.now())
	if err != nil {
		return "", fmt.Errorf("render lead email: %w", err)
	}

	fromAddr, err := mail.ParseEmail(n.from)
	if err != nil {
		fromAddr = mail.NewEmail("", n.from)
	}
	m := mail.NewSingleEmail(fromAddr, msg.Subject, mail.NewEmail("", n.to), msg.Text, msg.HTML)
	if msg.ReplyTo != "" {
		m.SetReplyTo(mail.NewEmail(lead.DisplayName(), msg.ReplyTo))
	}

	req := sendgrid.GetRequest(n.apiKey, "/v3/mail/send", n.host)
	req.Method = http.MethodPost
	req.Body = mail.GetRequestBody(m)

	type result struct {
		id  string
		err error
	}
	done := make(chan result, 1)
	go func() {
		resp, err := sendgrid.API(req)
		if err != nil {
			done <- result{err: fmt.Errorf("sendgrid send: %w", err)}
			return
		}
		if resp.StatusCode >= 400 {
			done <- result{err: fmt.Errorf("sendgrid returned status %d", resp.StatusCode)}
			return
		}
		var id string
		if v := resp.Headers["X-Message-Id"]; len(v) > 0 {
			id = v[0]
		}
		done <- result{id: id}
	}()

	select {
	case r := <-done:
		return r.id, r.err
	case <-ctx.Done():
		return "", fmt.Errorf("sendgrid send: %w", ctx.Err())
	}
}

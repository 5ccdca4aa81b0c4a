package mailer

import (
	"context"
	"fmt"
	"net/http"
	"net/mail"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

var (
	sendgridHost     = "https://api.sendgrid.com"
	sendgridEndpoint = "/v3/mail/send"
)

type sendgridSender struct {
	key  string
	from *sgmail.Email
}

// NewSendgridSender delivers messages through the SendGrid v3 API.
func NewSendgridSender(key string, from mail.Address) Sender {
	return &sendgridSender{
		key:  key,
		from: sgmail.NewEmail(from.Name, from.Address),
	}
}

func (s *sendgridSender) Send(ctx context.Context, messages ...*Message) (int, error) {
	sent := 0
	for _, msg := range messages {
		if err := ctx.Err(); err != nil {
			return sent, err
		}
		if err := Render(msg); err != nil {
			return sent, err
		}
		if !msg.HasRecipients() {
			return sent, ErrNoRecipients
		}

		req := sendgrid.GetRequest(s.key, sendgridEndpoint, sendgridHost)
		req.Method = http.MethodPost
		req.Body = sgmail.GetRequestBody(s.prepare(msg))

		res, err := sendgrid.API(req)
		if err != nil {
			return sent, fmt.Errorf("mailer: sendgrid: %w", err)
		}
		if res.StatusCode >= http.StatusBadRequest {
			return sent, fmt.Errorf("mailer: sendgrid status %d: %s", res.StatusCode, res.Body)
		}
		sent++
	}
	return sent, nil
}

func (s *sendgridSender) prepare(msg *Message) *sgmail.SGMailV3 {
	p := sgmail.NewPersonalization()
	p.Subject = msg.Subject
	for _, to := range msg.To {
		p.AddTos(sgmail.NewEmail(to.Name, to.Address))
	}

	m := sgmail.NewV3Mail()
	m.SetFrom(s.from)
	m.AddPersonalizations(p)
	m.AddContent(
		sgmail.NewContent("text/plain", msg.TextContent),
		sgmail.NewContent("text/html", msg.HTMLContent),
	)
	return m
}

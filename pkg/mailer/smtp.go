package mailer

import (
	"context"
	"fmt"
	"net/mail"

	gomail "github.com/wneessen/go-mail"
)

// SMTPConfig configures the SMTP transport.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
}

type smtpSender struct {
	config SMTPConfig
	from   mail.Address
}

// NewSMTPSender delivers messages through an SMTP relay, one connection per batch.
func NewSMTPSender(config SMTPConfig, from mail.Address) Sender {
	return &smtpSender{config: config, from: from}
}

func (s *smtpSender) client() (*gomail.Client, error) {
	options := []gomail.Option{
		gomail.WithPort(s.config.Port),
		gomail.WithTLSPolicy(gomail.TLSOpportunistic),
	}
	if s.config.Username != "" {
		options = append(options,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(s.config.Username),
			gomail.WithPassword(s.config.Password),
		)
	}
	return gomail.NewClient(s.config.Host, options...)
}

func (s *smtpSender) Send(ctx context.Context, messages ...*Message) (int, error) {
	if len(messages) == 0 {
		return 0, nil
	}

	client, err := s.client()
	if err != nil {
		return 0, fmt.Errorf("mailer: smtp client: %w", err)
	}

	sent := 0
	for _, msg := range messages {
		if err := Render(msg); err != nil {
			return sent, err
		}
		if !msg.HasRecipients() {
			return sent, ErrNoRecipients
		}

		out, err := s.build(msg)
		if err != nil {
			return sent, err
		}
		if err := client.DialAndSendWithContext(ctx, out); err != nil {
			return sent, fmt.Errorf("mailer: smtp send: %w", err)
		}
		sent++
	}
	return sent, nil
}

func (s *smtpSender) build(msg *Message) (*gomail.Msg, error) {
	out := gomail.NewMsg()
	if err := out.FromFormat(s.from.Name, s.from.Address); err != nil {
		return nil, fmt.Errorf("mailer: from address: %w", err)
	}
	recipients := make([]string, 0, len(msg.To))
	for _, to := range msg.To {
		recipients = append(recipients, to.String())
	}
	if err := out.To(recipients...); err != nil {
		return nil, fmt.Errorf("mailer: recipient address: %w", err)
	}
	out.Subject(msg.Subject)
	out.SetBodyString(gomail.TypeTextPlain, msg.TextContent)
	if msg.HTMLContent != "" {
		out.AddAlternativeString(gomail.TypeTextHTML, msg.HTMLContent)
	}
	return out, nil
}

package mailer

import (
	"fmt"
	"net/mail"
	"strings"

	"github.com/rs/zerolog"
)

// Transport names accepted by NewSender.
const (
	TransportLog      = "log"
	TransportSMTP     = "smtp"
	TransportSendgrid = "sendgrid"
)

// Config selects and configures a transport.
type Config struct {
	Transport   string
	From        string
	SMTP        SMTPConfig
	SendgridKey string
}

// NewSender builds the transport named in cfg.
func NewSender(cfg Config, logger zerolog.Logger) (Sender, error) {
	from, err := mail.ParseAddress(cfg.From)
	if err != nil {
		return nil, fmt.Errorf("mailer: invalid from address %q: %w", cfg.From, err)
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Transport)) {
	case "", TransportLog:
		return NewLogSender(*from, logger), nil
	case TransportSMTP:
		if cfg.SMTP.Host == "" {
			return nil, fmt.Errorf("mailer: smtp host is required")
		}
		return NewSMTPSender(cfg.SMTP, *from), nil
	case TransportSendgrid:
		if cfg.SendgridKey == "" {
			return nil, fmt.Errorf("mailer: sendgrid api key is required")
		}
		return NewSendgridSender(cfg.SendgridKey, *from), nil
	default:
		return nil, fmt.Errorf("mailer: unknown transport %q", cfg.Transport)
	}
}

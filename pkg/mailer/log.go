package mailer

import (
	"context"
	"net/mail"
	"strings"

	"github.com/rs/zerolog"
)

type logSender struct {
	from   mail.Address
	logger zerolog.Logger
}

// NewLogSender writes messages to the log instead of delivering them.
func NewLogSender(from mail.Address, logger zerolog.Logger) Sender {
	return &logSender{
		from:   from,
		logger: logger.With().Str("component", "mailer").Logger(),
	}
}

func (s *logSender) Send(ctx context.Context, messages ...*Message) (int, error) {
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

		to := make([]string, 0, len(msg.To))
		for _, address := range msg.To {
			to = append(to, address.String())
		}
		s.logger.Info().
			Str("from", s.from.String()).
			Str("to", strings.Join(to, ", ")).
			Str("subject", msg.Subject).
			Str("body", msg.TextContent).
			Msg("email")
		sent++
	}
	return sent, nil
}

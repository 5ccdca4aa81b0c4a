// Package mailer renders notification emails and hands them to a transport.
package mailer

import (
	"context"
	"errors"
	"net/mail"
	"strings"
)

// ErrNoRecipients is returned when a message has no usable address.
var ErrNoRecipients = errors.New("mailer: message has no recipients")

// Message is a multipart email with a plain text and an HTML body.
type Message struct {
	To      []mail.Address
	Subject string

	// TemplateName selects an embedded template (without extension). When set,
	// Render fills HTMLContent and derives TextContent from it.
	TemplateName string
	TemplateData interface{}

	TextContent string
	HTMLContent string
}

// HasRecipients reports whether at least one address is set.
func (m *Message) HasRecipients() bool {
	for _, to := range m.To {
		if strings.TrimSpace(to.Address) != "" {
			return true
		}
	}
	return false
}

// HasContent reports whether either body is set.
func (m *Message) HasContent() bool {
	return m.TextContent != "" || m.HTMLContent != ""
}

// Addresses builds recipients from raw addresses, skipping blanks and duplicates.
func Addresses(raw ...string) []mail.Address {
	seen := make(map[string]struct{}, len(raw))
	result := make([]mail.Address, 0, len(raw))
	for _, address := range raw {
		address = strings.TrimSpace(address)
		if address == "" {
			continue
		}
		key := strings.ToLower(address)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		result = append(result, mail.Address{Address: address})
	}
	return result
}

// Sender delivers rendered messages. Send stops at the first failure and
// returns the number of messages delivered before it.
type Sender interface {
	Send(ctx context.Context, messages ...*Message) (int, error)
}

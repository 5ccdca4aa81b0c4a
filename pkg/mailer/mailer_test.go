package mailer

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestRenderStatusUpdateProducesTextPart(t *testing.T) {
	msg := &Message{
		To:           Addresses("author@example.edu"),
		Subject:      "[EXDB] Experience status updated",
		TemplateName: "status_update",
		TemplateData: map[string]interface{}{
			"Recipient": "Ada Lovelace",
			"URLPrefix": "https://exdb.example.edu",
			"Experience": map[string]interface{}{
				"ID":     7,
				"Name":   "Floor <Social>",
				"Status": "Denied",
			},
			"Comments": []map[string]string{{"Author": "Hall Staff", "Message": "Needs a budget"}},
		},
	}

	require.NoError(t, Render(msg))
	require.Contains(t, msg.HTMLContent, `href="https://exdb.example.edu/experiences/7"`)
	require.Contains(t, msg.HTMLContent, "Floor &lt;Social&gt;")
	require.NotContains(t, msg.TextContent, "<p>")
	require.Contains(t, msg.TextContent, "Floor <Social>")
	require.Contains(t, msg.TextContent, "Hall Staff: Needs a budget")
}

func TestStripTagsCollapsesBlankLines(t *testing.T) {
	text := StripTags("<p>One</p>\n\n\n<ul>\n  <li>Two</li>\n</ul>")
	require.Equal(t, "One\n\nTwo", text)
}

func TestAddressesSkipsBlanksAndDuplicates(t *testing.T) {
	addresses := Addresses("a@example.edu", "", "A@example.edu", " b@example.edu ")
	require.Len(t, addresses, 2)
	require.Equal(t, "a@example.edu", addresses[0].Address)
	require.Equal(t, "b@example.edu", addresses[1].Address)
}

func TestLogSenderRejectsMessagesWithoutRecipients(t *testing.T) {
	sender, err := NewSender(Config{Transport: TransportLog, From: "EXDB <exdb@example.edu>"}, zerolog.Nop())
	require.NoError(t, err)

	sent, err := sender.Send(context.Background(),
		&Message{To: Addresses("a@example.edu"), Subject: "one", TextContent: "hi"},
		&Message{Subject: "two", TextContent: "hi"},
	)
	require.ErrorIs(t, err, ErrNoRecipients)
	require.Equal(t, 1, sent)
}

func TestNewSenderValidatesTransport(t *testing.T) {
	_, err := NewSender(Config{Transport: "pigeon", From: "exdb@example.edu"}, zerolog.Nop())
	require.Error(t, err)

	_, err = NewSender(Config{Transport: TransportSendgrid, From: "exdb@example.edu"}, zerolog.Nop())
	require.Error(t, err)

	_, err = NewSender(Config{Transport: TransportSMTP, From: "not an address"}, zerolog.Nop())
	require.Error(t, err)
}

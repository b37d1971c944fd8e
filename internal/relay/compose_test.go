package relay

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/emersion/go-message/mail"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Chandorkar-Technologies/Nubo-Mail-sub002/internal/model"
)

func TestComposeFullMessage(t *testing.T) {
	msg := &model.OutboundMessage{
		FromName:    "Ops",
		FromAddress: "ops@acme.com",
		To:          []string{"pat@acme.com", "dana@acme.com"},
		Cc:          []string{"legal@acme.com"},
		Subject:     "contract follow-up",
		TextBody:    "plain body",
		HTMLBody:    "<p>html body</p>",
		InReplyTo:   "orig@acme.com",
		References:  []string{"root@acme.com", "orig@acme.com"},
		Attachments: []model.OutboundAttachment{
			{Filename: "report.pdf", ContentType: "application/pdf", Content: []byte("%PDF-1.4")},
		},
	}

	payload, err := compose(msg, "generated@acme.com")
	require.NoError(t, err)

	mr, err := mail.CreateReader(bytes.NewReader(payload))
	require.NoError(t, err)
	defer mr.Close()

	id, err := mr.Header.MessageID()
	require.NoError(t, err)
	assert.Equal(t, "generated@acme.com", id)

	subject, err := mr.Header.Subject()
	require.NoError(t, err)
	assert.Equal(t, "contract follow-up", subject)

	from, err := mr.Header.AddressList("From")
	require.NoError(t, err)
	require.Len(t, from, 1)
	assert.Equal(t, "Ops", from[0].Name)
	assert.Equal(t, "ops@acme.com", from[0].Address)

	to, err := mr.Header.AddressList("To")
	require.NoError(t, err)
	assert.Len(t, to, 2)

	inReplyTo, err := mr.Header.MsgIDList("In-Reply-To")
	require.NoError(t, err)
	assert.Equal(t, []string{"orig@acme.com"}, inReplyTo)

	refs, err := mr.Header.MsgIDList("References")
	require.NoError(t, err)
	assert.Equal(t, []string{"root@acme.com", "orig@acme.com"}, refs)

	date, err := mr.Header.Date()
	require.NoError(t, err)
	assert.False(t, date.IsZero())

	var textBody, htmlBody, attachment string
	var filename string
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)

		body, err := io.ReadAll(part.Body)
		require.NoError(t, err)

		switch h := part.Header.(type) {
		case *mail.InlineHeader:
			contentType, _, err := h.ContentType()
			require.NoError(t, err)
			if strings.HasPrefix(contentType, "text/html") {
				htmlBody = string(body)
			} else {
				textBody = string(body)
			}
		case *mail.AttachmentHeader:
			filename, err = h.Filename()
			require.NoError(t, err)
			attachment = string(body)
		}
	}

	assert.Equal(t, "plain body", textBody)
	assert.Equal(t, "<p>html body</p>", htmlBody)
	assert.Equal(t, "report.pdf", filename)
	assert.Equal(t, "%PDF-1.4", attachment)
}

func TestComposeTextOnly(t *testing.T) {
	msg := &model.OutboundMessage{
		FromAddress: "ops@acme.com",
		To:          []string{"pat@acme.com"},
		Subject:     "ping",
		TextBody:    "just text",
	}

	payload, err := compose(msg, "generated@acme.com")
	require.NoError(t, err)

	mr, err := mail.CreateReader(bytes.NewReader(payload))
	require.NoError(t, err)
	defer mr.Close()

	parts := 0
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)

		h, ok := part.Header.(*mail.InlineHeader)
		require.True(t, ok)
		contentType, _, err := h.ContentType()
		require.NoError(t, err)
		assert.Equal(t, "text/plain", contentType)

		body, err := io.ReadAll(part.Body)
		require.NoError(t, err)
		assert.Equal(t, "just text", string(body))
		parts++
	}
	assert.Equal(t, 1, parts)
}

func TestGenerateMessageID(t *testing.T) {
	tests := []struct {
		name   string
		from   string
		suffix string
	}{
		{"sender domain", "ops@acme.com", "@acme.com"},
		{"no sender", "", "@smtp.nubomail.com"},
		{"trailing at", "broken@", "@smtp.nubomail.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id := generateMessageID(&model.OutboundMessage{FromAddress: tt.from}, "smtp.nubomail.com")
			assert.True(t, strings.HasSuffix(id, tt.suffix), "id %q should end in %q", id, tt.suffix)
			assert.Greater(t, strings.Index(id, "@"), 0)
		})
	}

	// Two messages never share an identifier.
	msg := &model.OutboundMessage{FromAddress: "ops@acme.com"}
	assert.NotEqual(t, generateMessageID(msg, "h"), generateMessageID(msg, "h"))
}

package model

import "time"

// Outbound delivery status constants.
const (
	OutboundPending = "pending"
	OutboundSent    = "sent"
	OutboundFailed  = "failed"
)

// OutboundMessage is a fully-formed message handed to the relay for
// submission. ID doubles as the delivery identifier returned to callers.
type OutboundMessage struct {
	ID string `json:"id"`

	// MessageID is the generated RFC 5322 Message-ID stamped on the wire
	// message; set when composed.
	MessageID string `json:"message_id"`

	FromName    string `json:"from_name"`
	FromAddress string `json:"from_address"`

	To  []string `json:"to"`
	Cc  []string `json:"cc,omitempty"`
	Bcc []string `json:"bcc,omitempty"`

	Subject  string `json:"subject"`
	TextBody string `json:"text_body"`
	HTMLBody string `json:"html_body,omitempty"`

	// InReplyTo and References thread replies onto an existing conversation.
	InReplyTo  string   `json:"in_reply_to,omitempty"`
	References []string `json:"references,omitempty"`

	// Attachments are carried for compose only and are not persisted.
	Attachments []OutboundAttachment `json:"-"`

	// Status is pending until the relay reports sent or failed.
	Status string `json:"status"`

	// Error holds the submission failure message when Status is failed.
	Error string `json:"error,omitempty"`

	QueuedAt time.Time  `json:"queued_at"`
	SentAt   *time.Time `json:"sent_at,omitempty"`
}

// OutboundAttachment is one file to attach to an outbound message.
type OutboundAttachment struct {
	Filename    string
	ContentType string
	Content     []byte
}

// Recipients returns the union of To, Cc and Bcc: the envelope recipient set
// for SMTP submission. Bcc addresses receive the message but never appear in
// its headers.
func (m *OutboundMessage) Recipients() []string {
	out := make([]string, 0, len(m.To)+len(m.Cc)+len(m.Bcc))
	seen := make(map[string]struct{})
	for _, group := range [][]string{m.To, m.Cc, m.Bcc} {
		for _, addr := range group {
			if _, ok := seen[addr]; ok {
				continue
			}
			seen[addr] = struct{}{}
			out = append(out, addr)
		}
	}
	return out
}

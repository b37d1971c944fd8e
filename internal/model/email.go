package model

import (
	"fmt"
	"time"
)

// EmailMessage is the synchronized metadata row for one message in a mailbox.
// The full RFC 822 body lives in object storage under BodyKey; the row holds
// everything list and detail views need without touching the blob.
type EmailMessage struct {
	// ID is the internal unique identifier for this row.
	ID string `json:"id"`

	// ConnectionID is the mailbox connection this message belongs to.
	ConnectionID string `json:"connection_id"`

	// Folder is the mailbox folder the message was fetched from.
	Folder string `json:"folder"`

	// UID is the server-assigned message number within Folder.
	UID uint32 `json:"uid"`

	// MessageID is the stable identity used for deduplication: the RFC 5322
	// Message-ID header, or a synthetic fallback when the header is absent
	// (see SyntheticMessageID). Unique per connection.
	MessageID string `json:"message_id"`

	// Subject is the decoded subject line.
	Subject string `json:"subject"`

	// FromName and FromAddress are the first From mailbox's display name and
	// address.
	FromName    string `json:"from_name"`
	FromAddress string `json:"from_address"`

	// ToAddresses and CcAddresses are the recipient address lists.
	ToAddresses []string `json:"to_addresses"`
	CcAddresses []string `json:"cc_addresses"`

	// ReplyTo is the Reply-To address when one is set.
	ReplyTo string `json:"reply_to,omitempty"`

	// SentAt is the message date from the envelope or Date header.
	SentAt time.Time `json:"sent_at"`

	// IsRead mirrors the \Seen flag; IsStarred mirrors \Flagged. Both are
	// overwritten on every sync (last write wins).
	IsRead    bool `json:"is_read"`
	IsStarred bool `json:"is_starred"`

	// Labels holds custom keywords set on the message, excluding system
	// flags.
	Labels []string `json:"labels"`

	// Snippet is a short plain-text preview of the body.
	Snippet string `json:"snippet"`

	// BodyKey addresses the raw message body in object storage.
	BodyKey string `json:"body_key"`

	// SizeBytes is the size of the raw message.
	SizeBytes int64 `json:"size_bytes"`

	// HasAttachments reports whether any non-inline attachment part exists.
	HasAttachments bool `json:"has_attachments"`

	// FetchedAt is when this message was last seen by a sync pass.
	FetchedAt time.Time `json:"fetched_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Attachment is stored metadata for one attachment part of a message. The
// bytes themselves stay inside the raw body in object storage.
type Attachment struct {
	ID          string `json:"id"`
	EmailID     string `json:"email_id"`
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	SizeBytes   int64  `json:"size_bytes"`

	// IsInline marks parts referenced from the HTML body; ContentID is the
	// cid: reference for inline parts.
	IsInline  bool   `json:"is_inline"`
	ContentID string `json:"content_id,omitempty"`
}

// SyntheticMessageID builds the fallback identity for messages that carry no
// Message-ID header. Folder and UID are stable on a given server, so the
// value stays the same across passes and the uniqueness key keeps working.
func SyntheticMessageID(folder string, uid uint32) string {
	return fmt.Sprintf("uid-%s-%d", folder, uid)
}

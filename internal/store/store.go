// Package store persists mailbox connections, synchronized message metadata,
// outbound deliveries and customer domains behind one interface. The SQL
// implementation runs on Postgres in production and SQLite in development and
// tests.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/Chandorkar-Technologies/Nubo-Mail-sub002/internal/model"
)

// ErrNotFound is returned by getters when no row matches.
var ErrNotFound = errors.New("store: not found")

// EmailFilter narrows ListEmails results. Nil pointer fields are ignored.
type EmailFilter struct {
	// ConnectionID restricts results to one mailbox connection.
	ConnectionID *string

	// Folder restricts results to one folder.
	Folder *string

	// UnreadOnly keeps only messages without the read flag.
	UnreadOnly bool

	// Query matches subject, sender address and snippet.
	Query *string

	// SortBy is an allowlisted column name; unknown values fall back to
	// sent_at. SortDesc flips the direction.
	SortBy   string
	SortDesc bool

	Limit  int
	Offset int
}

// Store is the persistence boundary for the sync service.
type Store interface {
	// === Connections ===

	CreateConnection(ctx context.Context, conn *model.Connection) error
	GetConnection(ctx context.Context, id string) (*model.Connection, error)
	ListConnections(ctx context.Context) ([]model.Connection, error)
	ListActiveConnections(ctx context.Context) ([]model.Connection, error)
	SetConnectionStatus(ctx context.Context, id, status string) error

	// UpdateConnectionSync records the outcome of a sync pass for one
	// connection: a nil syncErr stores the sync time and clears the last
	// error, a non-nil one stores its message.
	UpdateConnectionSync(ctx context.Context, id string, syncedAt time.Time, syncErr error) error

	// === Synchronized messages ===

	// UpsertEmails inserts new rows and updates mutable fields of existing
	// ones. The (connection_id, message_id) uniqueness constraint guarantees
	// one row per message identity no matter how often a message is fetched.
	UpsertEmails(ctx context.Context, emails []model.EmailMessage) error
	GetEmailByMessageID(ctx context.Context, connectionID, messageID string) (*model.EmailMessage, error)
	ListEmails(ctx context.Context, filter EmailFilter) ([]model.EmailMessage, error)
	CountEmails(ctx context.Context, connectionID string) (int, error)

	// === Attachment metadata (replaced wholesale on each sync) ===

	ReplaceAttachments(ctx context.Context, emailID string, atts []model.Attachment) error
	GetAttachments(ctx context.Context, emailID string) ([]model.Attachment, error)

	// === Outbound deliveries ===

	CreateOutbound(ctx context.Context, msg *model.OutboundMessage) error
	MarkOutboundSent(ctx context.Context, id, messageID string, sentAt time.Time) error
	MarkOutboundFailed(ctx context.Context, id, sendErr string) error
	GetOutbound(ctx context.Context, id string) (*model.OutboundMessage, error)
	ListOutbound(ctx context.Context, limit int) ([]model.OutboundMessage, error)

	// === Customer mail domains ===

	CreateDomain(ctx context.Context, d *model.Domain) error
	GetDomainByName(ctx context.Context, name string) (*model.Domain, error)
	ListDomains(ctx context.Context) ([]model.Domain, error)
	UpdateDomainVerification(ctx context.Context, id, status string, result []model.DomainCheck, checkedAt time.Time) error

	Close() error
}

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/Chandorkar-Technologies/Nubo-Mail-sub002/internal/model"
)

const emailColumns = `id, connection_id, folder, uid, message_id, subject,
	from_name, from_address, to_addresses, cc_addresses, reply_to, sent_at,
	is_read, is_starred, labels, snippet, body_key, size_bytes,
	has_attachments, fetched_at, created_at, updated_at`

// UpsertEmails inserts or updates a batch of synchronized messages in one
// transaction. Rows are keyed by (connection_id, message_id); on conflict the
// mutable fields take the incoming values, so fetching the same message again
// never creates a duplicate and the latest flag state wins.
func (s *SQLStore) UpsertEmails(ctx context.Context, emails []model.EmailMessage) error {
	if len(emails) == 0 {
		return nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	const query = `
		INSERT INTO email_messages (
			id, connection_id, folder, uid, message_id, subject,
			from_name, from_address, to_addresses, cc_addresses, reply_to, sent_at,
			is_read, is_starred, labels, snippet, body_key, size_bytes,
			has_attachments, fetched_at, created_at, updated_at
		) VALUES (
			?, ?, ?, ?, ?, ?,
			?, ?, ?, ?, ?, ?,
			?, ?, ?, ?, ?, ?,
			?, ?, ?, ?
		)
		ON CONFLICT (connection_id, message_id) DO UPDATE SET
			folder = EXCLUDED.folder,
			uid = EXCLUDED.uid,
			is_read = EXCLUDED.is_read,
			is_starred = EXCLUDED.is_starred,
			labels = EXCLUDED.labels,
			snippet = EXCLUDED.snippet,
			body_key = EXCLUDED.body_key,
			size_bytes = EXCLUDED.size_bytes,
			has_attachments = EXCLUDED.has_attachments,
			fetched_at = EXCLUDED.fetched_at,
			updated_at = EXCLUDED.updated_at`

	stmt, err := tx.PreparexContext(ctx, tx.Rebind(query))
	if err != nil {
		return fmt.Errorf("preparing upsert statement: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for i := range emails {
		m := &emails[i]
		if m.ID == "" {
			m.ID = uuid.New().String()
		}

		toJSON, err := jsonStrings(m.ToAddresses)
		if err != nil {
			return fmt.Errorf("marshaling recipients for message %s: %w", m.MessageID, err)
		}
		ccJSON, err := jsonStrings(m.CcAddresses)
		if err != nil {
			return fmt.Errorf("marshaling cc for message %s: %w", m.MessageID, err)
		}
		labelsJSON, err := jsonStrings(m.Labels)
		if err != nil {
			return fmt.Errorf("marshaling labels for message %s: %w", m.MessageID, err)
		}

		_, err = stmt.ExecContext(ctx,
			m.ID, m.ConnectionID, m.Folder, int64(m.UID), m.MessageID, m.Subject,
			m.FromName, m.FromAddress, toJSON, ccJSON, m.ReplyTo, m.SentAt.UTC(),
			m.IsRead, m.IsStarred, labelsJSON, m.Snippet, m.BodyKey, m.SizeBytes,
			m.HasAttachments, m.FetchedAt.UTC(), now, now,
		)
		if err != nil {
			return fmt.Errorf("upserting message %s: %w", m.MessageID, err)
		}
	}

	return tx.Commit()
}

// GetEmailByMessageID retrieves one message by its identity within a
// connection.
func (s *SQLStore) GetEmailByMessageID(ctx context.Context, connectionID, messageID string) (*model.EmailMessage, error) {
	row := s.queryRow(ctx,
		"SELECT "+emailColumns+" FROM email_messages WHERE connection_id = ? AND message_id = ?",
		connectionID, messageID)

	m, err := scanEmail(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("getting message %s: %w", messageID, err)
	}
	return &m, nil
}

// ListEmails retrieves messages matching the provided filter.
func (s *SQLStore) ListEmails(ctx context.Context, filter EmailFilter) ([]model.EmailMessage, error) {
	var conditions []string
	var args []interface{}

	if filter.ConnectionID != nil {
		conditions = append(conditions, "connection_id = ?")
		args = append(args, *filter.ConnectionID)
	}
	if filter.Folder != nil {
		conditions = append(conditions, "folder = ?")
		args = append(args, *filter.Folder)
	}
	if filter.UnreadOnly {
		conditions = append(conditions, "is_read = ?")
		args = append(args, false)
	}
	if filter.Query != nil && *filter.Query != "" {
		conditions = append(conditions, "(subject LIKE ? OR from_address LIKE ? OR snippet LIKE ?)")
		q := "%" + *filter.Query + "%"
		args = append(args, q, q, q)
	}

	query := "SELECT " + emailColumns + " FROM email_messages"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	sortBy := "sent_at"
	if filter.SortBy != "" {
		allowedSorts := map[string]bool{
			"sent_at":      true,
			"subject":      true,
			"from_address": true,
			"fetched_at":   true,
			"size_bytes":   true,
		}
		if allowedSorts[filter.SortBy] {
			sortBy = filter.SortBy
		}
	}

	direction := "ASC"
	if filter.SortDesc {
		direction = "DESC"
	}
	query += fmt.Sprintf(" ORDER BY %s %s", sortBy, direction)

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", filter.Offset)
	}

	rows, err := s.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying messages: %w", err)
	}
	defer rows.Close()

	var emails []model.EmailMessage
	for rows.Next() {
		m, err := scanEmail(rows)
		if err != nil {
			return nil, err
		}
		emails = append(emails, m)
	}
	return emails, rows.Err()
}

// CountEmails reports how many messages a connection has synchronized.
func (s *SQLStore) CountEmails(ctx context.Context, connectionID string) (int, error) {
	var count int
	err := s.db.GetContext(ctx, &count,
		s.db.Rebind("SELECT COUNT(*) FROM email_messages WHERE connection_id = ?"),
		connectionID)
	if err != nil {
		return 0, fmt.Errorf("counting messages for connection %s: %w", connectionID, err)
	}
	return count, nil
}

// scanEmail scans a message row from either a Rows or Row result.
func scanEmail(row sqlx.ColScanner) (model.EmailMessage, error) {
	var (
		m          model.EmailMessage
		toJSON     string
		ccJSON     string
		labelsJSON string
	)

	err := row.Scan(
		&m.ID, &m.ConnectionID, &m.Folder, &m.UID, &m.MessageID, &m.Subject,
		&m.FromName, &m.FromAddress, &toJSON, &ccJSON, &m.ReplyTo, &m.SentAt,
		&m.IsRead, &m.IsStarred, &labelsJSON, &m.Snippet, &m.BodyKey, &m.SizeBytes,
		&m.HasAttachments, &m.FetchedAt, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return model.EmailMessage{}, fmt.Errorf("scanning message row: %w", err)
	}

	if m.ToAddresses, err = parseStrings(toJSON); err != nil {
		return model.EmailMessage{}, fmt.Errorf("unmarshaling recipients: %w", err)
	}
	if m.CcAddresses, err = parseStrings(ccJSON); err != nil {
		return model.EmailMessage{}, fmt.Errorf("unmarshaling cc: %w", err)
	}
	if m.Labels, err = parseStrings(labelsJSON); err != nil {
		return model.EmailMessage{}, fmt.Errorf("unmarshaling labels: %w", err)
	}

	return m, nil
}

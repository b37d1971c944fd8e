package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/Chandorkar-Technologies/Nubo-Mail-sub002/internal/model"
)

const outboundColumns = `id, message_id, from_name, from_address, to_addresses,
	cc_addresses, bcc_addresses, subject, in_reply_to, refs, status, error,
	queued_at, sent_at`

// CreateOutbound records a submission before the relay attempts delivery.
// The generated ID is the delivery identifier handed back to callers.
func (s *SQLStore) CreateOutbound(ctx context.Context, msg *model.OutboundMessage) error {
	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	if msg.Status == "" {
		msg.Status = model.OutboundPending
	}
	if msg.QueuedAt.IsZero() {
		msg.QueuedAt = time.Now().UTC()
	}

	toJSON, err := jsonStrings(msg.To)
	if err != nil {
		return fmt.Errorf("marshaling recipients for delivery %s: %w", msg.ID, err)
	}
	ccJSON, err := jsonStrings(msg.Cc)
	if err != nil {
		return fmt.Errorf("marshaling cc for delivery %s: %w", msg.ID, err)
	}
	bccJSON, err := jsonStrings(msg.Bcc)
	if err != nil {
		return fmt.Errorf("marshaling bcc for delivery %s: %w", msg.ID, err)
	}
	refsJSON, err := jsonStrings(msg.References)
	if err != nil {
		return fmt.Errorf("marshaling references for delivery %s: %w", msg.ID, err)
	}

	_, err = s.exec(ctx, `
		INSERT INTO outbound_messages (
			id, message_id, from_name, from_address, to_addresses,
			cc_addresses, bcc_addresses, subject, in_reply_to, refs,
			status, error, queued_at, sent_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		msg.ID, msg.MessageID, msg.FromName, msg.FromAddress, toJSON,
		ccJSON, bccJSON, msg.Subject, msg.InReplyTo, refsJSON,
		msg.Status, msg.Error, msg.QueuedAt.UTC(), nullTime(msg.SentAt),
	)
	if err != nil {
		return fmt.Errorf("creating delivery %s: %w", msg.ID, err)
	}
	return nil
}

// MarkOutboundSent records a successful submission.
func (s *SQLStore) MarkOutboundSent(ctx context.Context, id, messageID string, sentAt time.Time) error {
	_, err := s.exec(ctx,
		"UPDATE outbound_messages SET status = ?, message_id = ?, sent_at = ?, error = '' WHERE id = ?",
		model.OutboundSent, messageID, sentAt.UTC(), id)
	if err != nil {
		return fmt.Errorf("marking delivery %s sent: %w", id, err)
	}
	return nil
}

// MarkOutboundFailed records a failed submission with its error message.
func (s *SQLStore) MarkOutboundFailed(ctx context.Context, id, sendErr string) error {
	_, err := s.exec(ctx,
		"UPDATE outbound_messages SET status = ?, error = ? WHERE id = ?",
		model.OutboundFailed, sendErr, id)
	if err != nil {
		return fmt.Errorf("marking delivery %s failed: %w", id, err)
	}
	return nil
}

// GetOutbound retrieves one delivery record by its identifier.
func (s *SQLStore) GetOutbound(ctx context.Context, id string) (*model.OutboundMessage, error) {
	row := s.queryRow(ctx,
		"SELECT "+outboundColumns+" FROM outbound_messages WHERE id = ?", id)

	msg, err := scanOutbound(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("getting delivery %s: %w", id, err)
	}
	return &msg, nil
}

// ListOutbound retrieves the most recently queued deliveries.
func (s *SQLStore) ListOutbound(ctx context.Context, limit int) ([]model.OutboundMessage, error) {
	query := "SELECT " + outboundColumns + " FROM outbound_messages ORDER BY queued_at DESC"
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := s.query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying deliveries: %w", err)
	}
	defer rows.Close()

	var msgs []model.OutboundMessage
	for rows.Next() {
		msg, err := scanOutbound(rows)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, msg)
	}
	return msgs, rows.Err()
}

// scanOutbound scans a delivery row from either a Rows or Row result.
func scanOutbound(row sqlx.ColScanner) (model.OutboundMessage, error) {
	var (
		msg      model.OutboundMessage
		toJSON   string
		ccJSON   string
		bccJSON  string
		refsJSON string
		sentAt   sql.NullTime
	)

	err := row.Scan(
		&msg.ID, &msg.MessageID, &msg.FromName, &msg.FromAddress, &toJSON,
		&ccJSON, &bccJSON, &msg.Subject, &msg.InReplyTo, &refsJSON,
		&msg.Status, &msg.Error, &msg.QueuedAt, &sentAt,
	)
	if err != nil {
		return model.OutboundMessage{}, fmt.Errorf("scanning delivery row: %w", err)
	}

	if msg.To, err = parseStrings(toJSON); err != nil {
		return model.OutboundMessage{}, fmt.Errorf("unmarshaling recipients: %w", err)
	}
	if msg.Cc, err = parseStrings(ccJSON); err != nil {
		return model.OutboundMessage{}, fmt.Errorf("unmarshaling cc: %w", err)
	}
	if msg.Bcc, err = parseStrings(bccJSON); err != nil {
		return model.OutboundMessage{}, fmt.Errorf("unmarshaling bcc: %w", err)
	}
	if msg.References, err = parseStrings(refsJSON); err != nil {
		return model.OutboundMessage{}, fmt.Errorf("unmarshaling references: %w", err)
	}
	if sentAt.Valid {
		t := sentAt.Time
		msg.SentAt = &t
	}

	return msg, nil
}

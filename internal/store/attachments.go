package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/Chandorkar-Technologies/Nubo-Mail-sub002/internal/model"
)

// ReplaceAttachments swaps the attachment metadata of a message for the given
// list. Syncing re-parses the full message, so replacement is simpler and
// just as correct as diffing.
func (s *SQLStore) ReplaceAttachments(ctx context.Context, emailID string, atts []model.Attachment) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		tx.Rebind("DELETE FROM email_attachments WHERE email_id = ?"), emailID); err != nil {
		return fmt.Errorf("clearing attachments for message %s: %w", emailID, err)
	}

	if len(atts) > 0 {
		stmt, err := tx.PreparexContext(ctx, tx.Rebind(`
			INSERT INTO email_attachments (
				id, email_id, filename, content_type, size_bytes, is_inline, content_id
			) VALUES (?, ?, ?, ?, ?, ?, ?)`))
		if err != nil {
			return fmt.Errorf("preparing attachment insert: %w", err)
		}
		defer stmt.Close()

		for _, a := range atts {
			if a.ID == "" {
				a.ID = uuid.New().String()
			}
			_, err = stmt.ExecContext(ctx,
				a.ID, emailID, a.Filename, a.ContentType, a.SizeBytes, a.IsInline, a.ContentID)
			if err != nil {
				return fmt.Errorf("inserting attachment %s: %w", a.Filename, err)
			}
		}
	}

	return tx.Commit()
}

// GetAttachments retrieves the attachment metadata of one message.
func (s *SQLStore) GetAttachments(ctx context.Context, emailID string) ([]model.Attachment, error) {
	rows, err := s.query(ctx, `
		SELECT id, email_id, filename, content_type, size_bytes, is_inline, content_id
		FROM email_attachments WHERE email_id = ? ORDER BY filename`, emailID)
	if err != nil {
		return nil, fmt.Errorf("querying attachments for message %s: %w", emailID, err)
	}
	defer rows.Close()

	var atts []model.Attachment
	for rows.Next() {
		var a model.Attachment
		if err := rows.Scan(&a.ID, &a.EmailID, &a.Filename, &a.ContentType,
			&a.SizeBytes, &a.IsInline, &a.ContentID); err != nil {
			return nil, fmt.Errorf("scanning attachment row: %w", err)
		}
		atts = append(atts, a)
	}
	return atts, rows.Err()
}

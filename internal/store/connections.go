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

const connectionColumns = `id, workspace_id, address, protocol, host, port,
	smtp_host, smtp_port, username, password_enc, use_tls, folders, status,
	last_synced_at, last_error, created_at, updated_at`

// CreateConnection inserts a new mailbox connection. A missing ID is
// generated; a missing status defaults to active.
func (s *SQLStore) CreateConnection(ctx context.Context, conn *model.Connection) error {
	if conn.ID == "" {
		conn.ID = uuid.New().String()
	}
	if conn.Status == "" {
		conn.Status = model.ConnectionActive
	}
	now := time.Now().UTC()
	conn.CreatedAt = now
	conn.UpdatedAt = now

	folders, err := jsonStrings(conn.Folders)
	if err != nil {
		return fmt.Errorf("marshaling folders for connection %s: %w", conn.ID, err)
	}

	_, err = s.exec(ctx, `
		INSERT INTO mailbox_connections (
			id, workspace_id, address, protocol, host, port,
			smtp_host, smtp_port, username, password_enc, use_tls, folders,
			status, last_synced_at, last_error, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		conn.ID, conn.WorkspaceID, conn.Address, string(conn.Protocol), conn.Host, conn.Port,
		conn.SMTPHost, conn.SMTPPort, conn.Username, conn.PasswordEnc, conn.UseTLS, folders,
		conn.Status, nullTime(conn.LastSyncedAt), conn.LastError, conn.CreatedAt, conn.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating connection %s: %w", conn.ID, err)
	}
	return nil
}

// GetConnection retrieves a single connection by ID.
func (s *SQLStore) GetConnection(ctx context.Context, id string) (*model.Connection, error) {
	row := s.queryRow(ctx,
		"SELECT "+connectionColumns+" FROM mailbox_connections WHERE id = ?", id)

	conn, err := scanConnection(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("getting connection %s: %w", id, err)
	}
	return &conn, nil
}

// ListConnections retrieves every configured connection ordered by address.
func (s *SQLStore) ListConnections(ctx context.Context) ([]model.Connection, error) {
	return s.listConnections(ctx,
		"SELECT "+connectionColumns+" FROM mailbox_connections ORDER BY address")
}

// ListActiveConnections retrieves the connections a sync pass should walk.
func (s *SQLStore) ListActiveConnections(ctx context.Context) ([]model.Connection, error) {
	return s.listConnections(ctx,
		"SELECT "+connectionColumns+" FROM mailbox_connections WHERE status = ? ORDER BY address",
		model.ConnectionActive)
}

func (s *SQLStore) listConnections(ctx context.Context, query string, args ...interface{}) ([]model.Connection, error) {
	rows, err := s.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying connections: %w", err)
	}
	defer rows.Close()

	var conns []model.Connection
	for rows.Next() {
		conn, err := scanConnection(rows)
		if err != nil {
			return nil, err
		}
		conns = append(conns, conn)
	}
	return conns, rows.Err()
}

// SetConnectionStatus updates the lifecycle status of a connection.
func (s *SQLStore) SetConnectionStatus(ctx context.Context, id, status string) error {
	_, err := s.exec(ctx,
		"UPDATE mailbox_connections SET status = ?, updated_at = ? WHERE id = ?",
		status, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("setting status for connection %s: %w", id, err)
	}
	return nil
}

// UpdateConnectionSync records the outcome of a sync pass: success stores the
// sync time and clears the last error, failure stores the error message and
// leaves the last successful sync time untouched.
func (s *SQLStore) UpdateConnectionSync(ctx context.Context, id string, syncedAt time.Time, syncErr error) error {
	now := time.Now().UTC()

	var err error
	if syncErr == nil {
		_, err = s.exec(ctx,
			"UPDATE mailbox_connections SET last_synced_at = ?, last_error = '', updated_at = ? WHERE id = ?",
			syncedAt.UTC(), now, id)
	} else {
		_, err = s.exec(ctx,
			"UPDATE mailbox_connections SET last_error = ?, updated_at = ? WHERE id = ?",
			syncErr.Error(), now, id)
	}
	if err != nil {
		return fmt.Errorf("recording sync result for connection %s: %w", id, err)
	}
	return nil
}

// scanConnection scans a connection row from either a Rows or Row result.
func scanConnection(row sqlx.ColScanner) (model.Connection, error) {
	var (
		conn        model.Connection
		protocol    string
		foldersJSON string
		lastSynced  sql.NullTime
	)

	err := row.Scan(
		&conn.ID, &conn.WorkspaceID, &conn.Address, &protocol, &conn.Host, &conn.Port,
		&conn.SMTPHost, &conn.SMTPPort, &conn.Username, &conn.PasswordEnc, &conn.UseTLS, &foldersJSON,
		&conn.Status, &lastSynced, &conn.LastError, &conn.CreatedAt, &conn.UpdatedAt,
	)
	if err != nil {
		return model.Connection{}, fmt.Errorf("scanning connection row: %w", err)
	}

	conn.Protocol = model.Protocol(protocol)
	if lastSynced.Valid {
		t := lastSynced.Time
		conn.LastSyncedAt = &t
	}

	folders, err := parseStrings(foldersJSON)
	if err != nil {
		return model.Connection{}, fmt.Errorf("unmarshaling folders: %w", err)
	}
	conn.Folders = folders

	return conn, nil
}

// nullTime converts an optional time for a nullable column.
func nullTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.UTC()
}

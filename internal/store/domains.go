package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/Chandorkar-Technologies/Nubo-Mail-sub002/internal/model"
)

const domainColumns = `id, workspace_id, name, verification_token, status,
	last_checked_at, last_result, created_at, updated_at`

// CreateDomain registers a customer mail domain awaiting verification. A
// missing verification token is generated.
func (s *SQLStore) CreateDomain(ctx context.Context, d *model.Domain) error {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	if d.VerificationToken == "" {
		d.VerificationToken = uuid.New().String()
	}
	if d.Status == "" {
		d.Status = model.DomainPending
	}
	now := time.Now().UTC()
	d.CreatedAt = now
	d.UpdatedAt = now

	resultJSON, err := jsonChecks(d.LastResult)
	if err != nil {
		return fmt.Errorf("marshaling check results for domain %s: %w", d.Name, err)
	}

	_, err = s.exec(ctx, `
		INSERT INTO mail_domains (
			id, workspace_id, name, verification_token, status,
			last_checked_at, last_result, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.WorkspaceID, d.Name, d.VerificationToken, d.Status,
		nullTime(d.LastCheckedAt), resultJSON, d.CreatedAt, d.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating domain %s: %w", d.Name, err)
	}
	return nil
}

// GetDomainByName retrieves one domain by its name.
func (s *SQLStore) GetDomainByName(ctx context.Context, name string) (*model.Domain, error) {
	row := s.queryRow(ctx,
		"SELECT "+domainColumns+" FROM mail_domains WHERE name = ?", name)

	d, err := scanDomain(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("getting domain %s: %w", name, err)
	}
	return &d, nil
}

// ListDomains retrieves every registered domain ordered by name.
func (s *SQLStore) ListDomains(ctx context.Context) ([]model.Domain, error) {
	rows, err := s.query(ctx,
		"SELECT "+domainColumns+" FROM mail_domains ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("querying domains: %w", err)
	}
	defer rows.Close()

	var domains []model.Domain
	for rows.Next() {
		d, err := scanDomain(rows)
		if err != nil {
			return nil, err
		}
		domains = append(domains, d)
	}
	return domains, rows.Err()
}

// UpdateDomainVerification persists the outcome of a verification run.
func (s *SQLStore) UpdateDomainVerification(ctx context.Context, id, status string, result []model.DomainCheck, checkedAt time.Time) error {
	resultJSON, err := jsonChecks(result)
	if err != nil {
		return fmt.Errorf("marshaling check results for domain %s: %w", id, err)
	}

	_, err = s.exec(ctx, `
		UPDATE mail_domains
		SET status = ?, last_result = ?, last_checked_at = ?, updated_at = ?
		WHERE id = ?`,
		status, resultJSON, checkedAt.UTC(), time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("updating verification for domain %s: %w", id, err)
	}
	return nil
}

// scanDomain scans a domain row from either a Rows or Row result.
func scanDomain(row sqlx.ColScanner) (model.Domain, error) {
	var (
		d           model.Domain
		lastChecked sql.NullTime
		resultJSON  string
	)

	err := row.Scan(
		&d.ID, &d.WorkspaceID, &d.Name, &d.VerificationToken, &d.Status,
		&lastChecked, &resultJSON, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return model.Domain{}, fmt.Errorf("scanning domain row: %w", err)
	}

	if lastChecked.Valid {
		t := lastChecked.Time
		d.LastCheckedAt = &t
	}
	if resultJSON != "" && resultJSON != "[]" {
		if err := json.Unmarshal([]byte(resultJSON), &d.LastResult); err != nil {
			return model.Domain{}, fmt.Errorf("unmarshaling check results: %w", err)
		}
	}

	return d, nil
}

// jsonChecks marshals verification results for a TEXT column.
func jsonChecks(checks []model.DomainCheck) (string, error) {
	if len(checks) == 0 {
		return "[]", nil
	}
	encoded, err := json.Marshal(checks)
	if err != nil {
		return "", err
	}
	return string(encoded), nil
}

package research

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// GetLatestByCode returns the newest record for a code.
func (r *PGRepo) GetLatestByCode(ctx context.Context, code string) (Record, error) {
	const query = `
SELECT id, visa_code, researched_at, expires_at, payload, confidence
FROM research_records
WHERE visa_code = $1
ORDER BY researched_at DESC
LIMIT 1`

	var rec Record
	var payload []byte
	err := r.DB.QueryRowContext(ctx, query, code).Scan(
		&rec.ID,
		&rec.VisaCode,
		&rec.ResearchedAt,
		&rec.ExpiresAt,
		&payload,
		&rec.Confidence,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, ErrNoRecord
		}
		return Record{}, err
	}
	if err := json.Unmarshal(payload, &rec.Payload); err != nil {
		return Record{}, fmt.Errorf("research %s: payload: %w", rec.ID, err)
	}
	return rec, nil
}

// Replace swaps out all records for the code inside one transaction.
func (r *PGRepo) Replace(ctx context.Context, record Record) error {
	payload, err := json.Marshal(record.Payload)
	if err != nil {
		return err
	}

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM research_records WHERE visa_code = $1`, record.VisaCode); err != nil {
		return err
	}

	const insert = `
INSERT INTO research_records (id, visa_code, researched_at, expires_at, payload, confidence)
VALUES ($1, $2, $3, $4, $5, $6)`
	if _, err := tx.ExecContext(ctx, insert,
		record.ID,
		record.VisaCode,
		record.ResearchedAt,
		record.ExpiresAt,
		payload,
		record.Confidence,
	); err != nil {
		return err
	}

	return tx.Commit()
}

var _ Repo = (*PGRepo)(nil)

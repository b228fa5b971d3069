package sessions

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgtype"

	"visapath-backend/internal/scoring"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const sessionColumns = `
id, user_id, profile, target_countries, status, title, pathway_count,
top_pathway_code, top_pathway_score, overall_assessment, top_recommendation,
pathways, created_at, updated_at`

// Create inserts a new session.
func (r *PGRepo) Create(ctx context.Context, session Session) error {
	const query = `
INSERT INTO analysis_sessions (
	id, user_id, profile, target_countries, status, title, pathway_count,
	top_pathway_code, top_pathway_score, overall_assessment, top_recommendation,
	pathways, created_at, updated_at
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	profilePayload, err := json.Marshal(session.Profile)
	if err != nil {
		return err
	}
	pathwaysPayload, err := json.Marshal(session.Pathways)
	if err != nil {
		return err
	}

	var userID any
	if session.UserID != "" {
		userID = session.UserID
	}

	_, err = r.DB.ExecContext(ctx, query,
		session.ID,
		userID,
		profilePayload,
		targetCountriesArray(session.TargetCountries),
		session.Status,
		session.Title,
		session.PathwayCount,
		session.TopPathwayCode,
		session.TopPathwayScore,
		session.OverallAssessment,
		session.TopRecommendation,
		pathwaysPayload,
		session.CreatedAt,
		session.UpdatedAt,
	)
	return err
}

// GetByID returns a session by ID.
func (r *PGRepo) GetByID(ctx context.Context, sessionID string) (Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM analysis_sessions WHERE id = $1 LIMIT 1`
	session, err := scanSession(r.DB.QueryRowContext(ctx, query, sessionID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Session{}, ErrNotFound
		}
		return Session{}, err
	}
	return session, nil
}

// List returns sessions matching the filter, newest-first.
func (r *PGRepo) List(ctx context.Context, filter Filter, limit, offset int) ([]Session, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	conditions := []string{}
	args := []any{}
	if filter.UserID != "" {
		args = append(args, filter.UserID)
		conditions = append(conditions, fmt.Sprintf("user_id = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}

	query := `SELECT ` + sessionColumns + ` FROM analysis_sessions`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", len(args))
	args = append(args, offset)
	query += fmt.Sprintf(" OFFSET $%d", len(args))

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Session{}
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, session)
	}
	return out, rows.Err()
}

// Update applies status/title changes and returns the updated session.
func (r *PGRepo) Update(ctx context.Context, sessionID string, update Update) (Session, error) {
	const query = `
UPDATE analysis_sessions
SET status = COALESCE($1::text, status),
    title = COALESCE($2::text, title),
    updated_at = now()
WHERE id = $3::uuid`

	res, err := r.DB.ExecContext(ctx, query, update.Status, update.Title, sessionID)
	if err != nil {
		return Session{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return Session{}, ErrNotFound
	}
	return r.GetByID(ctx, sessionID)
}

// Delete removes a session. Missing ids are not an error.
func (r *PGRepo) Delete(ctx context.Context, sessionID string) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM analysis_sessions WHERE id = $1`, sessionID)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (Session, error) {
	var s Session
	var userID sql.NullString
	var profile []byte
	var targets pgtype.FlatArray[string]
	var topCode sql.NullString
	var topScore sql.NullFloat64
	var pathways []byte

	m := pgtype.NewMap()
	err := row.Scan(
		&s.ID,
		&userID,
		&profile,
		m.SQLScanner(&targets),
		&s.Status,
		&s.Title,
		&s.PathwayCount,
		&topCode,
		&topScore,
		&s.OverallAssessment,
		&s.TopRecommendation,
		&pathways,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return Session{}, err
	}
	if userID.Valid {
		s.UserID = userID.String
	}
	if err := json.Unmarshal(profile, &s.Profile); err != nil {
		return Session{}, fmt.Errorf("session %s: profile payload: %w", s.ID, err)
	}
	s.TargetCountries = []string(targets)
	if s.TargetCountries == nil {
		s.TargetCountries = []string{}
	}
	if topCode.Valid {
		s.TopPathwayCode = &topCode.String
	}
	if topScore.Valid {
		s.TopPathwayScore = &topScore.Float64
	}
	s.Pathways = []scoring.PathwayAssessment{}
	if len(pathways) > 0 {
		if err := json.Unmarshal(pathways, &s.Pathways); err != nil {
			return Session{}, fmt.Errorf("session %s: pathways payload: %w", s.ID, err)
		}
	}
	return s, nil
}

func targetCountriesArray(countries []string) string {
	if len(countries) == 0 {
		return "{}"
	}
	quoted := make([]string, len(countries))
	for i, c := range countries {
		quoted[i] = `"` + strings.ReplaceAll(c, `"`, `\"`) + `"`
	}
	return "{" + strings.Join(quoted, ",") + "}"
}

var _ Repo = (*PGRepo)(nil)

package visatypes

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const visaTypeColumns = `
code, name, country, category, description,
processing_min_days, processing_avg_days, processing_max_days,
application_fee, legal_fee, currency, success_rate,
salary_threshold, required_education, language_requirement,
requirements, created_at`

// GetByCode returns one visa type by its code.
func (r *PGRepo) GetByCode(ctx context.Context, code string) (VisaType, error) {
	query := `SELECT ` + visaTypeColumns + ` FROM visa_types WHERE code = $1 LIMIT 1`
	row := r.DB.QueryRowContext(ctx, query, code)
	vt, err := scanVisaType(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return VisaType{}, ErrNotFound
		}
		return VisaType{}, err
	}
	return vt, nil
}

// ListByCountries returns visa types whose country is in the given set.
func (r *PGRepo) ListByCountries(ctx context.Context, countries []string) ([]VisaType, error) {
	if len(countries) == 0 {
		return []VisaType{}, nil
	}
	placeholders := make([]string, len(countries))
	args := make([]any, len(countries))
	for i, country := range countries {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = strings.ToUpper(strings.TrimSpace(country))
	}
	query := `SELECT ` + visaTypeColumns + ` FROM visa_types WHERE country IN (` + strings.Join(placeholders, ", ") + `) ORDER BY code`
	return r.queryVisaTypes(ctx, query, args...)
}

// ListByCategory returns visa types in the given category.
func (r *PGRepo) ListByCategory(ctx context.Context, category string) ([]VisaType, error) {
	query := `SELECT ` + visaTypeColumns + ` FROM visa_types WHERE category = $1 ORDER BY code`
	return r.queryVisaTypes(ctx, query, category)
}

// ListByCodes returns visa types matching any of the given codes.
func (r *PGRepo) ListByCodes(ctx context.Context, codes []string) ([]VisaType, error) {
	if len(codes) == 0 {
		return []VisaType{}, nil
	}
	placeholders := make([]string, len(codes))
	args := make([]any, len(codes))
	for i, code := range codes {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = code
	}
	query := `SELECT ` + visaTypeColumns + ` FROM visa_types WHERE code IN (` + strings.Join(placeholders, ", ") + `) ORDER BY code`
	return r.queryVisaTypes(ctx, query, args...)
}

// ListAll returns the full catalog.
func (r *PGRepo) ListAll(ctx context.Context) ([]VisaType, error) {
	query := `SELECT ` + visaTypeColumns + ` FROM visa_types ORDER BY code`
	return r.queryVisaTypes(ctx, query)
}

// Upsert inserts or replaces one catalog entry. Only cmd/seed calls this;
// the serving path never writes the catalog.
func (r *PGRepo) Upsert(ctx context.Context, vt VisaType) error {
	const query = `
INSERT INTO visa_types (
	code, name, country, category, description,
	processing_min_days, processing_avg_days, processing_max_days,
	application_fee, legal_fee, currency, success_rate,
	salary_threshold, required_education, language_requirement, requirements
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
ON CONFLICT (code) DO UPDATE SET
	name = EXCLUDED.name,
	country = EXCLUDED.country,
	category = EXCLUDED.category,
	description = EXCLUDED.description,
	processing_min_days = EXCLUDED.processing_min_days,
	processing_avg_days = EXCLUDED.processing_avg_days,
	processing_max_days = EXCLUDED.processing_max_days,
	application_fee = EXCLUDED.application_fee,
	legal_fee = EXCLUDED.legal_fee,
	currency = EXCLUDED.currency,
	success_rate = EXCLUDED.success_rate,
	salary_threshold = EXCLUDED.salary_threshold,
	required_education = EXCLUDED.required_education,
	language_requirement = EXCLUDED.language_requirement,
	requirements = EXCLUDED.requirements`

	reqPayload, err := json.Marshal(vt.Requirements)
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx, query,
		vt.Code,
		vt.Name,
		strings.ToUpper(strings.TrimSpace(vt.Country)),
		vt.Category,
		vt.Description,
		vt.ProcessingMinDays,
		vt.ProcessingAvgDays,
		vt.ProcessingMaxDays,
		vt.ApplicationFee,
		vt.LegalFee,
		vt.Currency,
		vt.SuccessRate,
		vt.SalaryThreshold,
		vt.RequiredEducation,
		vt.LanguageRequirement,
		reqPayload,
	)
	return err
}

func (r *PGRepo) queryVisaTypes(ctx context.Context, query string, args ...any) ([]VisaType, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []VisaType{}
	for rows.Next() {
		vt, err := scanVisaType(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, vt)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVisaType(row rowScanner) (VisaType, error) {
	var vt VisaType
	var legalFee sql.NullFloat64
	var salaryThreshold sql.NullFloat64
	var requiredEducation sql.NullString
	var languageRequirement sql.NullString
	var requirements sql.NullString

	err := row.Scan(
		&vt.Code,
		&vt.Name,
		&vt.Country,
		&vt.Category,
		&vt.Description,
		&vt.ProcessingMinDays,
		&vt.ProcessingAvgDays,
		&vt.ProcessingMaxDays,
		&vt.ApplicationFee,
		&legalFee,
		&vt.Currency,
		&vt.SuccessRate,
		&salaryThreshold,
		&requiredEducation,
		&languageRequirement,
		&requirements,
		&vt.CreatedAt,
	)
	if err != nil {
		return VisaType{}, err
	}
	if legalFee.Valid {
		vt.LegalFee = &legalFee.Float64
	}
	if salaryThreshold.Valid {
		vt.SalaryThreshold = &salaryThreshold.Float64
	}
	if requiredEducation.Valid {
		vt.RequiredEducation = &requiredEducation.String
	}
	if languageRequirement.Valid {
		vt.LanguageRequirement = &languageRequirement.String
	}
	if requirements.Valid {
		if err := json.Unmarshal([]byte(requirements.String), &vt.Requirements); err != nil {
			vt.Requirements = nil
		}
	}
	return vt, nil
}

var _ Repo = (*PGRepo)(nil)

package sessions

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"visapath-backend/internal/scoring"
)

func pgTestSession() Session {
	code := "de-blue-card"
	score := 82.0
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return Session{
		ID:              "4a1f9b0e-0000-0000-0000-000000000002",
		UserID:          "user-1",
		Profile:         scoring.ApplicantProfile{Profession: "software engineer", TargetCountries: []string{"DE", "NL"}},
		TargetCountries: []string{"DE", "NL"},
		Status:          StatusActive,
		Title:           "Pathways to DE, NL",
		PathwayCount:    1,
		TopPathwayCode:  &code,
		TopPathwayScore: &score,
		Pathways: []scoring.PathwayAssessment{
			{VisaTypeCode: code, EligibilityScore: score, Rank: 1},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestPGCreate(t *testing.T) {
	database, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer database.Close()

	session := pgTestSession()
	mock.ExpectExec("INSERT INTO analysis_sessions").
		WithArgs(
			session.ID,
			session.UserID,
			sqlmock.AnyArg(),
			`{"DE","NL"}`,
			session.Status,
			session.Title,
			session.PathwayCount,
			session.TopPathwayCode,
			session.TopPathwayScore,
			session.OverallAssessment,
			session.TopRecommendation,
			sqlmock.AnyArg(),
			session.CreatedAt,
			session.UpdatedAt,
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := &PGRepo{DB: database}
	if err := repo.Create(context.Background(), session); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestPGUpdateMissingSession(t *testing.T) {
	database, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer database.Close()

	status := StatusArchived
	mock.ExpectExec("UPDATE analysis_sessions").
		WithArgs(&status, nil, "missing-id").
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := &PGRepo{DB: database}
	if _, err := repo.Update(context.Background(), "missing-id", Update{Status: &status}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestPGDeleteMissingSessionSucceeds(t *testing.T) {
	database, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer database.Close()

	mock.ExpectExec("DELETE FROM analysis_sessions").
		WithArgs("missing-id").
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := &PGRepo{DB: database}
	if err := repo.Delete(context.Background(), "missing-id"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

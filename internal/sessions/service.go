package sessions

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"visapath-backend/internal/scoring"
)

// Service contains business logic for analysis sessions.
type Service struct {
	Repo Repo
}

// Create persists one completed scoring run and returns the stored session.
// The top pathway pair is derived from the assessment list, never taken from
// the caller.
func (s *Service) Create(ctx context.Context, userID string, profile scoring.ApplicantProfile, result scoring.Result, title string) (Session, error) {
	now := time.Now().UTC()
	topCode, topScore := TopPathway(result.Assessments)

	if strings.TrimSpace(title) == "" {
		title = defaultTitle(profile)
	}

	session := Session{
		ID:                uuid.NewString(),
		UserID:            userID,
		Profile:           profile,
		TargetCountries:   profile.TargetCountries,
		Status:            StatusActive,
		Title:             title,
		PathwayCount:      len(result.Assessments),
		TopPathwayCode:    topCode,
		TopPathwayScore:   topScore,
		OverallAssessment: result.OverallAssessment,
		TopRecommendation: result.TopRecommendationCode,
		Pathways:          result.Assessments,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := s.Repo.Create(ctx, session); err != nil {
		return Session{}, err
	}
	return session, nil
}

// Get returns a session by ID.
func (s *Service) Get(ctx context.Context, sessionID string) (Session, error) {
	if sessionID == "" {
		return Session{}, errors.New("sessionID is required")
	}
	return s.Repo.GetByID(ctx, sessionID)
}

// List returns sessions matching the filter, newest-first.
func (s *Service) List(ctx context.Context, filter Filter, limit, offset int) ([]Session, error) {
	if filter.Status != "" && !ValidStatus(filter.Status) {
		return nil, ErrInvalidStatus
	}
	return s.Repo.List(ctx, filter, limit, offset)
}

// UpdateStatus transitions a session to the given status.
func (s *Service) UpdateStatus(ctx context.Context, sessionID, status string) (Session, error) {
	if !ValidStatus(status) {
		return Session{}, ErrInvalidStatus
	}
	return s.Repo.Update(ctx, sessionID, Update{Status: &status})
}

// Update applies status and/or title changes.
func (s *Service) Update(ctx context.Context, sessionID string, update Update) (Session, error) {
	if update.Status == nil && update.Title == nil {
		return Session{}, errors.New("nothing to update")
	}
	if update.Status != nil && !ValidStatus(*update.Status) {
		return Session{}, ErrInvalidStatus
	}
	return s.Repo.Update(ctx, sessionID, update)
}

// Delete removes a session. Deleting a missing id succeeds.
func (s *Service) Delete(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return errors.New("sessionID is required")
	}
	return s.Repo.Delete(ctx, sessionID)
}

func defaultTitle(profile scoring.ApplicantProfile) string {
	targets := strings.Join(profile.TargetCountries, ", ")
	if targets == "" {
		return "Visa pathway analysis"
	}
	return fmt.Sprintf("Pathways to %s", targets)
}

package sessions

import (
	"time"

	"visapath-backend/internal/scoring"
)

// Session statuses. updateStatus rejects anything else.
const (
	StatusActive   = "active"
	StatusArchived = "archived"
	StatusStarred  = "starred"
)

// Session is one persisted scoring run. Mutated only via status/title
// updates after creation; deleted explicitly by the user.
type Session struct {
	ID                string                      `json:"id"`
	UserID            string                      `json:"userId,omitempty"`
	Profile           scoring.ApplicantProfile    `json:"profile"`
	TargetCountries   []string                    `json:"targetCountries"`
	Status            string                      `json:"status"`
	Title             string                      `json:"title"`
	PathwayCount      int                         `json:"pathwayCount"`
	TopPathwayCode    *string                     `json:"topPathwayCode,omitempty"`
	TopPathwayScore   *float64                    `json:"topPathwayScore,omitempty"`
	OverallAssessment string                      `json:"overallAssessment"`
	TopRecommendation string                      `json:"topRecommendation"`
	Pathways          []scoring.PathwayAssessment `json:"pathways"`
	CreatedAt         time.Time                   `json:"createdAt"`
	UpdatedAt         time.Time                   `json:"updatedAt"`
}

// ValidStatus reports whether status is one of the accepted values.
func ValidStatus(status string) bool {
	switch status {
	case StatusActive, StatusArchived, StatusStarred:
		return true
	default:
		return false
	}
}

// TopPathway returns the rank-1 assessment's code and score, or nils for an
// empty list. Create-time and read-time derivation both go through here so
// the stored pair can never disagree with the stored list.
func TopPathway(pathways []scoring.PathwayAssessment) (*string, *float64) {
	for _, p := range pathways {
		if p.Rank == 1 {
			code := p.VisaTypeCode
			score := p.EligibilityScore
			return &code, &score
		}
	}
	return nil, nil
}

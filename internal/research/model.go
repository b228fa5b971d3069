package research

import "time"

// TTL is how long a research record stays servable before a refresh is
// required.
const TTL = 7 * 24 * time.Hour

// Fee is one cost line item reported for a visa pathway.
type Fee struct {
	Name     string  `json:"name"`
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
	Notes    string  `json:"notes,omitempty"`
}

// ProcessingTimes summarizes reported application turnaround.
type ProcessingTimes struct {
	MinDays int    `json:"minDays"`
	AvgDays int    `json:"avgDays"`
	MaxDays int    `json:"maxDays"`
	Notes   string `json:"notes,omitempty"`
}

// Payload is the structured body of one research run.
type Payload struct {
	Summary             string          `json:"summary"`
	Requirements        []string        `json:"requirements"`
	EligibilityCriteria []string        `json:"eligibilityCriteria"`
	ApplicationSteps    []string        `json:"applicationSteps"`
	Fees                []Fee           `json:"fees"`
	ProcessingTimes     ProcessingTimes `json:"processingTimes"`
	RecentChanges       []string        `json:"recentChanges"`
	Sources             []string        `json:"sources"`
}

// Record is one stored research result for a visa code. At most one live
// record exists per code; ExpiresAt is always ResearchedAt plus TTL.
type Record struct {
	ID           string    `json:"id"`
	VisaCode     string    `json:"visaCode"`
	ResearchedAt time.Time `json:"researchedAt"`
	ExpiresAt    time.Time `json:"expiresAt"`
	Payload      Payload   `json:"payload"`
	Confidence   float64   `json:"confidence"`
	// FromCache marks whether the record was served from storage rather
	// than produced by this request. Never persisted.
	FromCache bool `json:"fromCache"`
}

// Live reports whether the record is still servable at the given instant.
func (r Record) Live(now time.Time) bool {
	return now.Before(r.ExpiresAt)
}

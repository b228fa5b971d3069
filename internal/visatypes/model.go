package visatypes

import "time"

// VisaType is one catalog entry. The catalog is read-only input for the
// scorer; seeding is owned by cmd/seed.
type VisaType struct {
	Code                string        `json:"code"`
	Name                string        `json:"name"`
	Country             string        `json:"country"`
	Category            string        `json:"category"`
	Description         string        `json:"description"`
	ProcessingMinDays   int           `json:"processingMinDays"`
	ProcessingAvgDays   int           `json:"processingAvgDays"`
	ProcessingMaxDays   int           `json:"processingMaxDays"`
	ApplicationFee      float64       `json:"applicationFee"`
	LegalFee            *float64      `json:"legalFee,omitempty"`
	Currency            string        `json:"currency"`
	SuccessRate         float64       `json:"successRate"`
	SalaryThreshold     *float64      `json:"salaryThreshold,omitempty"`
	RequiredEducation   *string       `json:"requiredEducation,omitempty"`
	LanguageRequirement *string       `json:"languageRequirement,omitempty"`
	Requirements        []Requirement `json:"requirements"`
	CreatedAt           time.Time     `json:"createdAt"`
}

// Requirement is one named requirement of a visa type, in application order.
type Requirement struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

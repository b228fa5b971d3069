package research

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"visapath-backend/internal/oracle"
	"visapath-backend/internal/visatypes"
)

const researchSystemPrompt = `You are an immigration research analyst. Research the current requirements, costs and timelines for the given visa type. Respond with a single JSON object matching this shape:
{
  "summary": "string",
  "requirements": ["string"],
  "eligibilityCriteria": ["string"],
  "applicationSteps": ["string"],
  "fees": [
    {"name": "string", "amount": number, "currency": "string", "notes": "string"}
  ],
  "processingTimes": {"minDays": integer, "avgDays": integer, "maxDays": integer, "notes": "string"},
  "recentChanges": ["string"],
  "sources": ["string"],
  "confidence": 0-100
}
Report only what applies to this specific visa type. List sources as plain URLs or publication names.`

// BuildPrompt serializes the visa type into a research request.
func BuildPrompt(vt visatypes.VisaType, today time.Time) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Today's date: %s\n\n", today.UTC().Format("2006-01-02"))
	b.WriteString("Visa type to research:\n")
	fmt.Fprintf(&b, "- Code: %s\n", vt.Code)
	fmt.Fprintf(&b, "- Name: %s\n", vt.Name)
	fmt.Fprintf(&b, "- Country: %s\n", vt.Country)
	fmt.Fprintf(&b, "- Category: %s\n", vt.Category)
	if vt.Description != "" {
		fmt.Fprintf(&b, "- Description: %s\n", vt.Description)
	}
	if vt.SalaryThreshold != nil {
		fmt.Fprintf(&b, "- Known salary threshold: %.2f %s\n", *vt.SalaryThreshold, vt.Currency)
	}
	if vt.RequiredEducation != nil {
		fmt.Fprintf(&b, "- Known education requirement: %s\n", *vt.RequiredEducation)
	}

	b.WriteString("\nResearch the up-to-date requirements, fees, processing times, eligibility criteria, application steps and recent policy changes for this visa.")
	return b.String()
}

type oraclePayload struct {
	Summary             string          `json:"summary"`
	Requirements        []string        `json:"requirements"`
	EligibilityCriteria []string        `json:"eligibilityCriteria"`
	ApplicationSteps    []string        `json:"applicationSteps"`
	Fees                []Fee           `json:"fees"`
	ProcessingTimes     ProcessingTimes `json:"processingTimes"`
	RecentChanges       []string        `json:"recentChanges"`
	Sources             []string        `json:"sources"`
	Confidence          float64         `json:"confidence"`
}

// decodeRecord validates raw oracle output into a fresh record. Confidence
// is clamped to [0,100] and expiry is fixed at researchedAt plus TTL.
func decodeRecord(raw json.RawMessage, code string, now time.Time) (Record, error) {
	var payload oraclePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return Record{}, oracle.NewError(oracle.KindSchema, fmt.Errorf("research output parse: %w", err))
	}

	if payload.ProcessingTimes.MinDays < 0 {
		payload.ProcessingTimes.MinDays = 0
	}
	if payload.ProcessingTimes.AvgDays < 0 {
		payload.ProcessingTimes.AvgDays = 0
	}
	if payload.ProcessingTimes.MaxDays < 0 {
		payload.ProcessingTimes.MaxDays = 0
	}

	researchedAt := now.UTC()
	return Record{
		ID:           uuid.NewString(),
		VisaCode:     code,
		ResearchedAt: researchedAt,
		ExpiresAt:    researchedAt.Add(TTL),
		Payload: Payload{
			Summary:             payload.Summary,
			Requirements:        emptyIfNil(payload.Requirements),
			EligibilityCriteria: emptyIfNil(payload.EligibilityCriteria),
			ApplicationSteps:    emptyIfNil(payload.ApplicationSteps),
			Fees:                emptyFeesIfNil(payload.Fees),
			ProcessingTimes:     payload.ProcessingTimes,
			RecentChanges:       emptyIfNil(payload.RecentChanges),
			Sources:             emptyIfNil(payload.Sources),
		},
		Confidence: clampConfidence(payload.Confidence),
	}, nil
}

func clampConfidence(value float64) float64 {
	if value < 0 {
		return 0
	}
	if value > 100 {
		return 100
	}
	return value
}

func emptyIfNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

func emptyFeesIfNil(fees []Fee) []Fee {
	if fees == nil {
		return []Fee{}
	}
	return fees
}

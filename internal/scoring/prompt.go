package scoring

import (
	"fmt"
	"strings"
	"time"

	"visapath-backend/internal/visatypes"
)

const scoringSystemPrompt = `You are an immigration advisor. Assess the applicant against the listed visa types only. Respond with a single JSON object matching this shape:
{
  "assessments": [
    {
      "visaTypeCode": "string, must be one of the listed codes",
      "eligibilityScore": 0-100,
      "successProbability": 0-100,
      "estimatedProcessingDays": 0 or more,
      "totalCostEstimate": number,
      "reasoning": "string",
      "nextSteps": ["string"],
      "riskFactors": ["string"],
      "recommendationRank": 1-based integer
    }
  ],
  "overallAssessment": "string",
  "topRecommendation": "string"
}
Return at most 5 assessments. Never invent a visaTypeCode that is not listed.`

// BuildPrompt serializes the profile and candidate set into a deterministic
// natural-language description. Candidates keep their input order so score
// ties resolve stably.
func BuildPrompt(profile ApplicantProfile, candidates []visatypes.VisaType, today time.Time) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Today's date: %s\n\n", today.UTC().Format("2006-01-02"))

	b.WriteString("Applicant profile:\n")
	fmt.Fprintf(&b, "- Current country: %s\n", profile.CurrentCountry)
	fmt.Fprintf(&b, "- Target countries: %s\n", strings.Join(profile.TargetCountries, ", "))
	fmt.Fprintf(&b, "- Profession: %s\n", profile.Profession)
	fmt.Fprintf(&b, "- Years of experience: %d\n", profile.YearsExperience)
	fmt.Fprintf(&b, "- Education: %s\n", profile.Education)
	fmt.Fprintf(&b, "- Languages: %s\n", strings.Join(profile.Languages, ", "))
	fmt.Fprintf(&b, "- Annual salary: %.0f\n", profile.Salary)

	b.WriteString("\nCandidate visa types:\n")
	for _, vt := range candidates {
		fmt.Fprintf(&b, "- Code: %s | Name: %s | Country: %s | Category: %s\n", vt.Code, vt.Name, vt.Country, vt.Category)
		if vt.Description != "" {
			fmt.Fprintf(&b, "  Description: %s\n", vt.Description)
		}
		fmt.Fprintf(&b, "  Processing days: min %d / avg %d / max %d\n", vt.ProcessingMinDays, vt.ProcessingAvgDays, vt.ProcessingMaxDays)
		fmt.Fprintf(&b, "  Application fee: %.2f %s", vt.ApplicationFee, vt.Currency)
		if vt.LegalFee != nil {
			fmt.Fprintf(&b, " (legal fee %.2f %s)", *vt.LegalFee, vt.Currency)
		}
		b.WriteString("\n")
		fmt.Fprintf(&b, "  Historical success rate: %.1f%%\n", vt.SuccessRate)
		if vt.SalaryThreshold != nil {
			fmt.Fprintf(&b, "  Salary threshold: %.2f %s\n", *vt.SalaryThreshold, vt.Currency)
		}
		if vt.RequiredEducation != nil {
			fmt.Fprintf(&b, "  Required education: %s\n", *vt.RequiredEducation)
		}
		if vt.LanguageRequirement != nil {
			fmt.Fprintf(&b, "  Language requirement: %s\n", *vt.LanguageRequirement)
		}
		for i, req := range vt.Requirements {
			fmt.Fprintf(&b, "  Requirement %d: %s", i+1, req.Name)
			if req.Description != "" {
				fmt.Fprintf(&b, " - %s", req.Description)
			}
			b.WriteString("\n")
		}
	}

	b.WriteString("\nScore the applicant's eligibility for each relevant visa type and recommend the best pathways.")
	return b.String()
}

package scoring

import (
	"encoding/json"
	"fmt"
	"sort"

	"visapath-backend/internal/oracle"
	"visapath-backend/internal/shared/telemetry"
	"visapath-backend/internal/visatypes"
)

const maxAssessments = 5

type oracleAssessment struct {
	VisaTypeCode            string   `json:"visaTypeCode"`
	EligibilityScore        float64  `json:"eligibilityScore"`
	SuccessProbability      float64  `json:"successProbability"`
	EstimatedProcessingDays float64  `json:"estimatedProcessingDays"`
	TotalCostEstimate       float64  `json:"totalCostEstimate"`
	Reasoning               string   `json:"reasoning"`
	NextSteps               []string `json:"nextSteps"`
	RiskFactors             []string `json:"riskFactors"`
	RecommendationRank      int      `json:"recommendationRank"`
}

type oraclePayload struct {
	Assessments       []oracleAssessment `json:"assessments"`
	OverallAssessment string             `json:"overallAssessment"`
	TopRecommendation string             `json:"topRecommendation"`
}

// decodeResult validates raw oracle output against the candidate set.
// Assessments referencing unknown codes are dropped with a warning, scores
// are clamped to [0,100], and ranks are recomputed locally: the oracle's
// self-reported recommendationRank is never trusted.
func decodeResult(raw json.RawMessage, candidates []visatypes.VisaType) (Result, error) {
	var payload oraclePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return Result{}, oracle.NewError(oracle.KindSchema, fmt.Errorf("scoring output parse: %w", err))
	}

	known := make(map[string]struct{}, len(candidates))
	for _, vt := range candidates {
		known[vt.Code] = struct{}{}
	}

	assessments := make([]PathwayAssessment, 0, len(payload.Assessments))
	for _, a := range payload.Assessments {
		if _, ok := known[a.VisaTypeCode]; !ok {
			telemetry.Warn("scoring.unknown_code_dropped", map[string]any{
				"visa_code": a.VisaTypeCode,
			})
			continue
		}
		days := int(a.EstimatedProcessingDays)
		if days < 0 {
			days = 0
		}
		assessments = append(assessments, PathwayAssessment{
			VisaTypeCode:            a.VisaTypeCode,
			EligibilityScore:        clampScore(a.EligibilityScore),
			SuccessProbability:      clampScore(a.SuccessProbability),
			EstimatedProcessingDays: days,
			TotalCostEstimate:       a.TotalCostEstimate,
			Reasoning:               a.Reasoning,
			NextSteps:               emptyIfNil(a.NextSteps),
			RiskFactors:             emptyIfNil(a.RiskFactors),
		})
	}

	Rerank(assessments)
	if len(assessments) > maxAssessments {
		assessments = assessments[:maxAssessments]
	}

	result := Result{
		Assessments:       assessments,
		OverallAssessment: payload.OverallAssessment,
	}
	if len(assessments) > 0 {
		result.TopRecommendationCode = assessments[0].VisaTypeCode
	}
	return result, nil
}

// Rerank orders assessments by descending eligibility score, ties keeping
// their current order, and assigns dense 1-based ranks.
func Rerank(assessments []PathwayAssessment) {
	sort.SliceStable(assessments, func(i, j int) bool {
		return assessments[i].EligibilityScore > assessments[j].EligibilityScore
	})
	for i := range assessments {
		assessments[i].Rank = i + 1
	}
}

func clampScore(value float64) float64 {
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

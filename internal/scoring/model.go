package scoring

// ApplicantProfile is the normalized applicant input for one scoring run.
// Immutable once handed to the scorer.
type ApplicantProfile struct {
	CurrentCountry  string   `json:"currentCountry"`
	TargetCountries []string `json:"targetCountries"`
	Profession      string   `json:"profession"`
	YearsExperience int      `json:"yearsExperience"`
	Education       string   `json:"education"`
	Languages       []string `json:"languages"`
	Salary          float64  `json:"salary"`
	Email           string   `json:"email,omitempty"`
}

// Education levels accepted in a profile.
const (
	EducationHighSchool = "high-school"
	EducationBachelor   = "bachelor"
	EducationMaster     = "master"
	EducationPhD        = "phd"
)

// PathwayAssessment is one scored visa-type recommendation. Ranks are dense,
// 1-based, and always consistent with descending eligibility score.
type PathwayAssessment struct {
	VisaTypeCode            string   `json:"visaTypeCode"`
	EligibilityScore        float64  `json:"eligibilityScore"`
	SuccessProbability      float64  `json:"successProbability"`
	EstimatedProcessingDays int      `json:"estimatedProcessingDays"`
	TotalCostEstimate       float64  `json:"totalCostEstimate"`
	Reasoning               string   `json:"reasoning"`
	NextSteps               []string `json:"nextSteps"`
	RiskFactors             []string `json:"riskFactors"`
	Rank                    int      `json:"rank"`
}

// Result is the output of one scoring run.
type Result struct {
	Assessments           []PathwayAssessment `json:"assessments"`
	OverallAssessment     string              `json:"overallAssessment"`
	TopRecommendationCode string              `json:"topRecommendationCode"`
}

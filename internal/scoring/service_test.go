package scoring

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"

	"visapath-backend/internal/oracle"
	"visapath-backend/internal/visatypes"
)

type fakeOracle struct {
	response json.RawMessage
	err      error
	calls    int
	prompt   string
}

func (f *fakeOracle) GenerateObject(ctx context.Context, req oracle.ObjectRequest) (json.RawMessage, error) {
	f.calls++
	f.prompt = req.Prompt
	if f.err != nil {
		return nil, f.err
	}
	return f.response, nil
}

func (f *fakeOracle) GenerateStream(ctx context.Context, req oracle.StreamRequest) (<-chan oracle.Chunk, error) {
	return nil, errors.New("not implemented")
}

type fakeArchive struct {
	keys []string
}

func (f *fakeArchive) Put(ctx context.Context, key, contentType string, r io.Reader) (int64, error) {
	f.keys = append(f.keys, key)
	n, err := io.Copy(io.Discard, r)
	return n, err
}

func (f *fakeArchive) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	return nil, errors.New("not implemented")
}

func TestScoreEmptyCandidates(t *testing.T) {
	scorer := &Scorer{Oracle: &fakeOracle{}}
	_, err := scorer.Score(context.Background(), validProfile(), nil)
	if !errors.Is(err, ErrNoCandidates) {
		t.Fatalf("expected ErrNoCandidates, got %v", err)
	}
}

func TestScoreHappyPath(t *testing.T) {
	client := &fakeOracle{response: json.RawMessage(`{
		"assessments": [
			{"visaTypeCode": "de-blue-card", "eligibilityScore": 82, "successProbability": 75, "estimatedProcessingDays": 60, "totalCostEstimate": 1200, "reasoning": "meets salary threshold", "nextSteps": ["gather documents"], "riskFactors": []},
			{"visaTypeCode": "nl-hsm", "eligibilityScore": 74, "successProbability": 70, "estimatedProcessingDays": 45, "totalCostEstimate": 900, "reasoning": "sponsor required", "nextSteps": [], "riskFactors": ["needs recognized sponsor"]}
		],
		"overallAssessment": "strong profile for EU skilled routes",
		"topRecommendation": "de-blue-card"
	}`)}
	archive := &fakeArchive{}
	scorer := &Scorer{Oracle: client, Archive: archive}

	result, err := scorer.Score(context.Background(), validProfile(), testCandidates("de-blue-card", "nl-hsm"))
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if len(result.Assessments) != 2 {
		t.Fatalf("expected 2 assessments, got %d", len(result.Assessments))
	}
	if result.Assessments[0].VisaTypeCode != "de-blue-card" || result.Assessments[0].Rank != 1 {
		t.Errorf("first = %+v", result.Assessments[0])
	}
	if result.TopRecommendationCode != "de-blue-card" {
		t.Errorf("top recommendation = %s", result.TopRecommendationCode)
	}
	if len(archive.keys) != 1 || !strings.HasPrefix(archive.keys[0], "scoring/") {
		t.Errorf("archive keys = %v", archive.keys)
	}
	if client.calls != 1 {
		t.Errorf("oracle calls = %d, want 1", client.calls)
	}
	if !strings.Contains(client.prompt, "de-blue-card") {
		t.Errorf("prompt missing candidate code")
	}
}

func TestScoreSkilledWorkerScenario(t *testing.T) {
	deThreshold := 56400.0
	nlThreshold := 46107.0
	candidates := []visatypes.VisaType{
		{Code: "de-blue-card", Country: "DE", Currency: "EUR", SalaryThreshold: &deThreshold},
		{Code: "nl-hsm", Country: "NL", Currency: "EUR", SalaryThreshold: &nlThreshold},
	}
	profile := ApplicantProfile{
		CurrentCountry:  "US",
		TargetCountries: []string{"DE", "NL"},
		Profession:      "Software Engineer",
		YearsExperience: 5,
		Education:       EducationBachelor,
		Languages:       []string{"English"},
		Salary:          90000,
	}
	// The oracle tries to sneak in a code outside the candidate set.
	client := &fakeOracle{response: json.RawMessage(`{
		"assessments": [
			{"visaTypeCode": "nl-hsm", "eligibilityScore": 78},
			{"visaTypeCode": "de-blue-card", "eligibilityScore": 85},
			{"visaTypeCode": "us-h1b", "eligibilityScore": 99}
		],
		"topRecommendation": "us-h1b"
	}`)}
	scorer := &Scorer{Oracle: client}

	result, err := scorer.Score(context.Background(), profile, candidates)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	for _, a := range result.Assessments {
		if a.VisaTypeCode != "de-blue-card" && a.VisaTypeCode != "nl-hsm" {
			t.Errorf("unexpected code %s", a.VisaTypeCode)
		}
	}
	for i, a := range result.Assessments {
		if a.Rank != i+1 {
			t.Errorf("rank %d at position %d", a.Rank, i)
		}
		if i > 0 && a.EligibilityScore > result.Assessments[i-1].EligibilityScore {
			t.Error("assessments not ordered by descending score")
		}
	}
	if result.TopRecommendationCode != result.Assessments[0].VisaTypeCode {
		t.Errorf("topRecommendationCode = %s, rank-1 = %s", result.TopRecommendationCode, result.Assessments[0].VisaTypeCode)
	}
	if result.TopRecommendationCode != "de-blue-card" {
		t.Errorf("topRecommendationCode = %s, want de-blue-card", result.TopRecommendationCode)
	}
}

func TestScoreOracleFailure(t *testing.T) {
	wantErr := oracle.NewError(oracle.KindTimeout, errors.New("deadline"))
	scorer := &Scorer{Oracle: &fakeOracle{err: wantErr}}

	_, err := scorer.Score(context.Background(), validProfile(), testCandidates("de-blue-card"))
	var oerr *oracle.Error
	if !errors.As(err, &oerr) || oerr.Kind != oracle.KindTimeout {
		t.Fatalf("expected timeout oracle error, got %v", err)
	}
}

func TestScoreArchiveFailureDoesNotFail(t *testing.T) {
	client := &fakeOracle{response: json.RawMessage(`{
		"assessments": [{"visaTypeCode": "de-blue-card", "eligibilityScore": 50}]
	}`)}
	scorer := &Scorer{Oracle: client, Archive: failingArchive{}}

	result, err := scorer.Score(context.Background(), validProfile(), testCandidates("de-blue-card"))
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if len(result.Assessments) != 1 {
		t.Fatalf("expected 1 assessment, got %d", len(result.Assessments))
	}
}

type failingArchive struct{}

func (failingArchive) Put(ctx context.Context, key, contentType string, r io.Reader) (int64, error) {
	return 0, errors.New("disk full")
}

func (failingArchive) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	return nil, errors.New("disk full")
}

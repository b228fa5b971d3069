package scoring

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"visapath-backend/internal/visatypes"
)

type fakeSaver struct {
	saved  bool
	result Result
	err    error
}

func (f *fakeSaver) SaveResult(ctx context.Context, userID string, profile ApplicantProfile, result Result, title string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.saved = true
	f.result = result
	return "session-123", nil
}

func eligibilityRouter(t *testing.T, client *fakeOracle, catalog visatypes.Repo, saver SessionSaver) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	NewHandler(&Scorer{Oracle: client}, catalog, saver).RegisterRoutes(router.Group("/api/v1"))
	return router
}

func seededCatalog(t *testing.T) *visatypes.MemoryRepo {
	t.Helper()
	repo := visatypes.NewMemoryRepo()
	entries := []visatypes.VisaType{
		{Code: "de-blue-card", Country: "DE"},
		{Code: "nl-hsm", Country: "NL"},
		{Code: "ca-express", Country: "CA"},
	}
	for _, vt := range entries {
		if err := repo.Upsert(context.Background(), vt); err != nil {
			t.Fatal(err)
		}
	}
	return repo
}

func eligibilityBody(save bool) []byte {
	body, _ := json.Marshal(map[string]any{
		"profile": map[string]any{
			"currentCountry":  "IN",
			"targetCountries": []string{"DE"},
			"profession":      "software engineer",
			"yearsExperience": 6,
			"education":       "master",
			"languages":       []string{"English"},
			"salary":          85000,
		},
		"save": save,
	})
	return body
}

func TestScoreEligibilityEndpoint(t *testing.T) {
	client := &fakeOracle{response: json.RawMessage(`{
		"assessments": [{"visaTypeCode": "de-blue-card", "eligibilityScore": 82}],
		"overallAssessment": "good fit"
	}`)}
	saver := &fakeSaver{}
	router := eligibilityRouter(t, client, seededCatalog(t), saver)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/eligibility", bytes.NewReader(eligibilityBody(true)))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp struct {
		Data eligibilityResponse `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Data.SessionID != "session-123" {
		t.Errorf("sessionId = %q", resp.Data.SessionID)
	}
	if !saver.saved {
		t.Error("expected session to be saved")
	}
	if resp.Data.TopRecommendationCode != "de-blue-card" {
		t.Errorf("topRecommendationCode = %s", resp.Data.TopRecommendationCode)
	}
	// Only the DE candidate should have been offered to the oracle.
	if got := client.prompt; !bytes.Contains([]byte(got), []byte("de-blue-card")) || bytes.Contains([]byte(got), []byte("ca-express")) {
		t.Errorf("unexpected candidate set in prompt")
	}
}

func TestScoreEligibilityWidensEmptyCountryMatch(t *testing.T) {
	client := &fakeOracle{response: json.RawMessage(`{
		"assessments": [{"visaTypeCode": "ca-express", "eligibilityScore": 70}]
	}`)}
	router := eligibilityRouter(t, client, seededCatalog(t), nil)

	body, _ := json.Marshal(map[string]any{
		"profile": map[string]any{
			"currentCountry":  "IN",
			"targetCountries": []string{"JP"},
			"profession":      "software engineer",
			"yearsExperience": 6,
			"education":       "master",
			"languages":       []string{"English"},
			"salary":          85000,
		},
	})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/eligibility", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	// No JP coverage: the whole catalog becomes the candidate set.
	if !bytes.Contains([]byte(client.prompt), []byte("ca-express")) {
		t.Error("expected catalog-wide candidates after widening")
	}
}

func TestScoreEligibilityValidationFailure(t *testing.T) {
	router := eligibilityRouter(t, &fakeOracle{}, seededCatalog(t), nil)

	body, _ := json.Marshal(map[string]any{"profile": map[string]any{}})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/eligibility", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
	var resp struct {
		Error struct {
			Code    string       `json:"code"`
			Details []FieldIssue `json:"details"`
		} `json:"error"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Error.Code != "validation_error" || len(resp.Error.Details) == 0 {
		t.Errorf("body = %s", w.Body.String())
	}
}

func TestScoreEligibilitySaveFailureStillReturnsResult(t *testing.T) {
	client := &fakeOracle{response: json.RawMessage(`{
		"assessments": [{"visaTypeCode": "de-blue-card", "eligibilityScore": 82}]
	}`)}
	saver := &fakeSaver{err: context.DeadlineExceeded}
	router := eligibilityRouter(t, client, seededCatalog(t), saver)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/eligibility", bytes.NewReader(eligibilityBody(true)))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp struct {
		Data eligibilityResponse `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Data.SessionID != "" {
		t.Errorf("sessionId should be empty on save failure, got %q", resp.Data.SessionID)
	}
	if len(resp.Data.Assessments) != 1 {
		t.Errorf("assessments lost on save failure")
	}
}

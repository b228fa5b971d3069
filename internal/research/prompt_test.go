package research

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"visapath-backend/internal/oracle"
	"visapath-backend/internal/visatypes"
)

func TestBuildPromptIncludesVisaDetails(t *testing.T) {
	threshold := 48300.0
	prompt := BuildPrompt(visatypes.VisaType{
		Code:            "de-blue-card",
		Name:            "EU Blue Card",
		Country:         "DE",
		Category:        "work",
		Currency:        "EUR",
		SalaryThreshold: &threshold,
	}, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))

	for _, want := range []string{"de-blue-card", "EU Blue Card", "2026-03-01", "48300.00 EUR"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestDecodeRecordClampsConfidence(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	rec, err := decodeRecord(json.RawMessage(`{"summary": "x", "confidence": 140}`), "de-blue-card", now)
	if err != nil {
		t.Fatalf("decodeRecord: %v", err)
	}
	if rec.Confidence != 100 {
		t.Errorf("confidence = %v, want 100", rec.Confidence)
	}
	if !rec.ExpiresAt.Equal(now.Add(TTL)) {
		t.Errorf("expiresAt = %v", rec.ExpiresAt)
	}
	if rec.Payload.Requirements == nil || rec.Payload.Sources == nil {
		t.Error("nil slices must decode to empty slices")
	}
}

func TestDecodeRecordInvalidJSON(t *testing.T) {
	_, err := decodeRecord(json.RawMessage(`nope`), "de-blue-card", time.Now())
	var oerr *oracle.Error
	if !errors.As(err, &oerr) || oerr.Kind != oracle.KindSchema {
		t.Fatalf("expected schema oracle error, got %v", err)
	}
}

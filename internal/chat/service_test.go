package chat

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"visapath-backend/internal/oracle"
	"visapath-backend/internal/scoring"
	"visapath-backend/internal/sessions"
)

type fakeStreamOracle struct {
	system string
	chunks []string
}

func (f *fakeStreamOracle) GenerateObject(ctx context.Context, req oracle.ObjectRequest) (json.RawMessage, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeStreamOracle) GenerateStream(ctx context.Context, req oracle.StreamRequest) (<-chan oracle.Chunk, error) {
	f.system = req.System
	out := make(chan oracle.Chunk, len(f.chunks))
	for _, text := range f.chunks {
		out <- oracle.Chunk{Text: text}
	}
	close(out)
	return out, nil
}

func TestStreamNoMessages(t *testing.T) {
	svc := &Service{Oracle: &fakeStreamOracle{}}
	_, err := svc.Stream(context.Background(), Request{})
	if !errors.Is(err, ErrNoMessages) {
		t.Fatalf("expected ErrNoMessages, got %v", err)
	}
}

func TestStreamPassesMessages(t *testing.T) {
	client := &fakeStreamOracle{chunks: []string{"The Blue Card ", "requires a job offer."}}
	svc := &Service{Oracle: client}

	chunks, err := svc.Stream(context.Background(), Request{
		Messages: []Message{{Role: "user", Content: "What does the Blue Card require?"}},
	})
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}

	var b strings.Builder
	for chunk := range chunks {
		if chunk.Err != nil {
			t.Fatalf("chunk error: %v", chunk.Err)
		}
		b.WriteString(chunk.Text)
	}
	if got := b.String(); got != "The Blue Card requires a job offer." {
		t.Errorf("streamed text = %q", got)
	}
	if !strings.Contains(client.system, "immigration advisor") {
		t.Errorf("system prompt = %q", client.system)
	}
}

func TestStreamEnrichesFromSession(t *testing.T) {
	sessionSvc := &sessions.Service{Repo: sessions.NewMemoryRepo()}
	saved, err := sessionSvc.Create(context.Background(), "user-1",
		scoring.ApplicantProfile{
			CurrentCountry:  "IN",
			TargetCountries: []string{"DE"},
			Profession:      "software engineer",
			YearsExperience: 6,
		},
		scoring.Result{
			Assessments: []scoring.PathwayAssessment{
				{VisaTypeCode: "de-blue-card", EligibilityScore: 82, SuccessProbability: 75, Rank: 1},
			},
			OverallAssessment: "strong profile",
		}, "")
	if err != nil {
		t.Fatal(err)
	}

	client := &fakeStreamOracle{chunks: []string{"ok"}}
	svc := &Service{Oracle: client, Sessions: sessionSvc}

	chunks, err := svc.Stream(context.Background(), Request{
		SessionID: saved.ID,
		Messages:  []Message{{Role: "user", Content: "What next?"}},
	})
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	for range chunks {
	}

	for _, want := range []string{"de-blue-card", "software engineer", "strong profile"} {
		if !strings.Contains(client.system, want) {
			t.Errorf("system prompt missing %q", want)
		}
	}
}

func TestStreamMissingSessionIsBestEffort(t *testing.T) {
	client := &fakeStreamOracle{chunks: []string{"ok"}}
	svc := &Service{Oracle: client, Sessions: &sessions.Service{Repo: sessions.NewMemoryRepo()}}

	chunks, err := svc.Stream(context.Background(), Request{
		SessionID: "missing",
		Messages:  []Message{{Role: "user", Content: "hello"}},
	})
	if err != nil {
		t.Fatalf("missing session must not fail the stream: %v", err)
	}
	for range chunks {
	}
	if strings.Contains(client.system, "saved pathway analysis") {
		t.Error("system prompt should not mention a session that failed to load")
	}
}

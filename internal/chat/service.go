package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"visapath-backend/internal/oracle"
	"visapath-backend/internal/sessions"
	"visapath-backend/internal/shared/telemetry"
)

const advisorSystemPrompt = `You are a knowledgeable immigration advisor. Answer questions about visa pathways, requirements, costs and timelines. Be specific and practical. When you are uncertain about current rules, say so and recommend verifying with official sources. Never provide legal advice; recommend a licensed immigration lawyer for complex cases.`

// ErrNoMessages is returned when a chat request carries no conversation.
var ErrNoMessages = errors.New("no messages")

// Message is one turn of the advisor conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is one advisor chat turn. SessionID is optional; when set, the
// stored analysis is folded into the system prompt.
type Request struct {
	SessionID string    `json:"sessionId"`
	Messages  []Message `json:"messages"`
}

// Service streams advisor replies from the oracle, optionally grounded in a
// saved analysis session.
type Service struct {
	Oracle   oracle.Client
	Sessions *sessions.Service
}

// Stream starts an advisor reply stream for the request. Session lookup is
// best-effort: a missing or failing session never blocks the conversation.
func (s *Service) Stream(ctx context.Context, req Request) (<-chan oracle.Chunk, error) {
	if s.Oracle == nil {
		return nil, oracle.ErrNotConfigured
	}
	if len(req.Messages) == 0 {
		return nil, ErrNoMessages
	}

	system := advisorSystemPrompt
	if req.SessionID != "" && s.Sessions != nil {
		if summary := s.sessionContext(ctx, req.SessionID); summary != "" {
			system += "\n\nThe user has a saved pathway analysis:\n" + summary
		}
	}

	messages := make([]oracle.Message, 0, len(req.Messages))
	for _, m := range req.Messages {
		messages = append(messages, oracle.Message{Role: m.Role, Content: m.Content})
	}

	return s.Oracle.GenerateStream(ctx, oracle.StreamRequest{
		System:   system,
		Messages: messages,
	})
}

func (s *Service) sessionContext(ctx context.Context, sessionID string) string {
	session, err := s.Sessions.Get(ctx, sessionID)
	if err != nil {
		telemetry.Warn("chat.session_lookup_failed", map[string]any{
			"session_id": sessionID,
			"error":      err.Error(),
		})
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "- Profession: %s (%d years experience)\n", session.Profile.Profession, session.Profile.YearsExperience)
	fmt.Fprintf(&b, "- Current country: %s\n", session.Profile.CurrentCountry)
	fmt.Fprintf(&b, "- Target countries: %s\n", strings.Join(session.TargetCountries, ", "))
	for _, p := range session.Pathways {
		fmt.Fprintf(&b, "- Pathway %d: %s, eligibility %.0f/100, success probability %.0f%%\n",
			p.Rank, p.VisaTypeCode, p.EligibilityScore, p.SuccessProbability)
	}
	if session.OverallAssessment != "" {
		fmt.Fprintf(&b, "- Overall assessment: %s\n", session.OverallAssessment)
	}
	return b.String()
}

package scoring

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"visapath-backend/internal/oracle"
	"visapath-backend/internal/shared/metrics"
	"visapath-backend/internal/shared/storage/object"
	"visapath-backend/internal/shared/telemetry"
	"visapath-backend/internal/visatypes"
)

// Scorer runs eligibility scoring against the oracle. Score is a pure
// function over its inputs: persistence is the caller's explicit step.
type Scorer struct {
	Oracle  oracle.Client
	Archive object.ObjectStore
	Now     func() time.Time
}

// Score asks the oracle to assess the profile against the candidate set and
// returns validated, locally re-ranked assessments. Candidates must be
// non-empty; widening an empty target-country filter is the caller's job.
func (s *Scorer) Score(ctx context.Context, profile ApplicantProfile, candidates []visatypes.VisaType) (Result, error) {
	if len(candidates) == 0 {
		return Result{}, ErrNoCandidates
	}
	if s.Oracle == nil {
		return Result{}, fmt.Errorf("missing oracle client")
	}

	now := time.Now
	if s.Now != nil {
		now = s.Now
	}

	metrics.IncScoringStarted()
	started := now()

	prompt := BuildPrompt(profile, candidates, started)
	raw, err := s.Oracle.GenerateObject(ctx, oracle.ObjectRequest{
		System: scoringSystemPrompt,
		Prompt: prompt,
	})
	if err != nil {
		metrics.IncScoringFailed()
		return Result{}, err
	}

	s.archiveRaw(ctx, "scoring/"+uuid.NewString()+".json", raw)

	result, err := decodeResult(raw, candidates)
	if err != nil {
		metrics.IncScoringFailed()
		return Result{}, err
	}

	metrics.IncScoringCompleted()
	metrics.ObserveScoringDurationMs(float64(now().Sub(started).Microseconds()) / 1000.0)
	return result, nil
}

// archiveRaw stores the raw oracle payload best-effort; failures are logged
// and never fail the scoring run.
func (s *Scorer) archiveRaw(ctx context.Context, key string, raw []byte) {
	if s.Archive == nil {
		return
	}
	if _, err := s.Archive.Put(ctx, key, "application/json", bytes.NewReader(raw)); err != nil {
		telemetry.Warn("scoring.archive_failed", map[string]any{
			"key":   key,
			"error": err.Error(),
		})
	}
}

package research

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"visapath-backend/internal/oracle"
	"visapath-backend/internal/shared/storage/cache"
	"visapath-backend/internal/visatypes"
)

const oracleResearch = `{
	"summary": "Employer-sponsored work visa for skilled professionals.",
	"requirements": ["job offer", "degree recognition"],
	"eligibilityCriteria": ["salary above threshold"],
	"applicationSteps": ["gather documents", "submit at consulate"],
	"fees": [{"name": "application", "amount": 140, "currency": "EUR"}],
	"processingTimes": {"minDays": 30, "avgDays": 60, "maxDays": 90},
	"recentChanges": ["threshold lowered in 2025"],
	"sources": ["https://www.make-it-in-germany.com"],
	"confidence": 85
}`

type fakeOracle struct {
	response json.RawMessage
	err      error
	calls    int
}

func (f *fakeOracle) GenerateObject(ctx context.Context, req oracle.ObjectRequest) (json.RawMessage, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.response, nil
}

func (f *fakeOracle) GenerateStream(ctx context.Context, req oracle.StreamRequest) (<-chan oracle.Chunk, error) {
	return nil, errors.New("not implemented")
}

type fixture struct {
	svc    *Service
	oracle *fakeOracle
	clock  *time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	catalog := visatypes.NewMemoryRepo()
	if err := catalog.Upsert(context.Background(), visatypes.VisaType{
		Code:    "de-blue-card",
		Name:    "EU Blue Card",
		Country: "DE",
	}); err != nil {
		t.Fatal(err)
	}

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	client := &fakeOracle{response: json.RawMessage(oracleResearch)}
	svc := NewService(catalog, NewMemoryRepo(), client, nil, nil)
	svc.Now = func() time.Time { return now }
	return &fixture{svc: svc, oracle: client, clock: &now}
}

func TestGetResearchUnknownCode(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.GetResearch(context.Background(), "not-a-visa")
	if !errors.Is(err, ErrUnknownCode) {
		t.Fatalf("expected ErrUnknownCode, got %v", err)
	}
	if f.oracle.calls != 0 {
		t.Errorf("oracle called %d times for unknown code", f.oracle.calls)
	}
}

func TestGetResearchMissThenHit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.svc.GetResearch(ctx, "de-blue-card")
	if err != nil {
		t.Fatalf("first get: %v", err)
	}
	if first.FromCache {
		t.Error("fresh research should not be marked fromCache")
	}
	if want := first.ResearchedAt.Add(TTL); !first.ExpiresAt.Equal(want) {
		t.Errorf("expiresAt = %v, want %v", first.ExpiresAt, want)
	}
	if first.Confidence != 85 {
		t.Errorf("confidence = %v, want 85", first.Confidence)
	}

	second, err := f.svc.GetResearch(ctx, "de-blue-card")
	if err != nil {
		t.Fatalf("second get: %v", err)
	}
	if !second.FromCache {
		t.Error("second get should be served from cache")
	}
	if !second.ResearchedAt.Equal(first.ResearchedAt) {
		t.Errorf("researchedAt changed: %v vs %v", second.ResearchedAt, first.ResearchedAt)
	}
	if f.oracle.calls != 1 {
		t.Errorf("oracle calls = %d, want 1", f.oracle.calls)
	}
}

func TestGetResearchExpiryTriggersRefresh(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.svc.GetResearch(ctx, "de-blue-card")
	if err != nil {
		t.Fatal(err)
	}

	*f.clock = f.clock.Add(8 * 24 * time.Hour)

	second, err := f.svc.GetResearch(ctx, "de-blue-card")
	if err != nil {
		t.Fatal(err)
	}
	if second.FromCache {
		t.Error("expired record must be replaced by a fresh run")
	}
	if !second.ResearchedAt.After(first.ResearchedAt) {
		t.Errorf("researchedAt not advanced: %v vs %v", second.ResearchedAt, first.ResearchedAt)
	}
	if f.oracle.calls != 2 {
		t.Errorf("oracle calls = %d, want 2", f.oracle.calls)
	}
}

func TestRefreshResearchIgnoresFreshness(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.svc.GetResearch(ctx, "de-blue-card"); err != nil {
		t.Fatal(err)
	}

	*f.clock = f.clock.Add(time.Hour)
	refreshed, err := f.svc.RefreshResearch(ctx, "de-blue-card")
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if refreshed.FromCache {
		t.Error("forced refresh must not be fromCache")
	}
	if f.oracle.calls != 2 {
		t.Errorf("oracle calls = %d, want 2", f.oracle.calls)
	}

	// A subsequent get serves the replacement, not a new run.
	got, err := f.svc.GetResearch(ctx, "de-blue-card")
	if err != nil {
		t.Fatal(err)
	}
	if !got.FromCache {
		t.Error("get after refresh should be fromCache")
	}
	if !got.ResearchedAt.Equal(refreshed.ResearchedAt) {
		t.Errorf("get after refresh returned different record")
	}
	if f.oracle.calls != 2 {
		t.Errorf("oracle calls = %d, want 2", f.oracle.calls)
	}
}

func TestGetResearchOracleFailureKeepsNothing(t *testing.T) {
	f := newFixture(t)
	f.oracle.err = oracle.NewError(oracle.KindTransport, errors.New("connection refused"))

	_, err := f.svc.GetResearch(context.Background(), "de-blue-card")
	var oerr *oracle.Error
	if !errors.As(err, &oerr) {
		t.Fatalf("expected oracle error, got %v", err)
	}

	if _, err := f.svc.Repo.GetLatestByCode(context.Background(), "de-blue-card"); !errors.Is(err, ErrNoRecord) {
		t.Errorf("failed run must not store a record, got %v", err)
	}
}

func TestGetResearchRedisFastPath(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	f := newFixture(t)
	f.svc.Cache = cache.NewFromClient(rdb)
	ctx := context.Background()

	first, err := f.svc.GetResearch(ctx, "de-blue-card")
	if err != nil {
		t.Fatal(err)
	}
	if !mr.Exists("research:de-blue-card") {
		t.Fatal("record not written to redis")
	}

	// Wipe the backing store; a hit must now come from redis alone.
	f.svc.Repo = NewMemoryRepo()
	second, err := f.svc.GetResearch(ctx, "de-blue-card")
	if err != nil {
		t.Fatal(err)
	}
	if !second.FromCache {
		t.Error("redis hit should be fromCache")
	}
	if !second.ResearchedAt.Equal(first.ResearchedAt) {
		t.Errorf("redis hit returned different record")
	}
	if f.oracle.calls != 1 {
		t.Errorf("oracle calls = %d, want 1", f.oracle.calls)
	}
}

func TestRefreshInvalidatesRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	f := newFixture(t)
	f.svc.Cache = cache.NewFromClient(rdb)
	ctx := context.Background()

	if _, err := f.svc.GetResearch(ctx, "de-blue-card"); err != nil {
		t.Fatal(err)
	}
	*f.clock = f.clock.Add(time.Hour)

	refreshed, err := f.svc.RefreshResearch(ctx, "de-blue-card")
	if err != nil {
		t.Fatal(err)
	}

	val, err := rdb.Get(ctx, "research:de-blue-card").Result()
	if err != nil {
		t.Fatalf("redis get: %v", err)
	}
	var cached Record
	if err := json.Unmarshal([]byte(val), &cached); err != nil {
		t.Fatal(err)
	}
	if !cached.ResearchedAt.Equal(refreshed.ResearchedAt) {
		t.Error("redis still holds the stale record after refresh")
	}
}

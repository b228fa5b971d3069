package research

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"visapath-backend/internal/oracle"
	"visapath-backend/internal/shared/metrics"
	"visapath-backend/internal/shared/storage/cache"
	"visapath-backend/internal/shared/storage/object"
	"visapath-backend/internal/shared/telemetry"
	"visapath-backend/internal/visatypes"
)

// Service serves research records with a 7-day freshness window. Lookups
// read through the store (and Redis when configured); misses and expiries
// trigger a new oracle run whose result replaces whatever was stored.
type Service struct {
	Catalog visatypes.Repo
	Repo    Repo
	Oracle  oracle.Client
	Cache   *cache.Client
	Archive object.ObjectStore
	Now     func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewService constructs a Service. Cache and Archive may be nil.
func NewService(catalog visatypes.Repo, repo Repo, client oracle.Client, redis *cache.Client, archive object.ObjectStore) *Service {
	return &Service{
		Catalog: catalog,
		Repo:    repo,
		Oracle:  client,
		Cache:   redis,
		Archive: archive,
		locks:   make(map[string]*sync.Mutex),
	}
}

// GetResearch returns live research for the code, running the oracle only
// when nothing live is stored. Served records carry fromCache=true; a fresh
// run carries fromCache=false.
func (s *Service) GetResearch(ctx context.Context, code string) (Record, error) {
	vt, err := s.lookupVisa(ctx, code)
	if err != nil {
		return Record{}, err
	}
	now := s.now()

	if rec, ok := s.cacheGet(ctx, vt.Code); ok && rec.Live(now) {
		metrics.IncResearchCacheHit()
		rec.FromCache = true
		return rec, nil
	}

	rec, err := s.Repo.GetLatestByCode(ctx, vt.Code)
	switch {
	case err == nil && rec.Live(now):
		metrics.IncResearchCacheHit()
		s.cacheSet(ctx, rec)
		rec.FromCache = true
		return rec, nil
	case err != nil && !errors.Is(err, ErrNoRecord):
		return Record{}, err
	}

	metrics.IncResearchCacheMiss()

	lock := s.lockFor(vt.Code)
	lock.Lock()
	defer lock.Unlock()

	// Another request may have refreshed while this one waited for the lock.
	if rec, err := s.Repo.GetLatestByCode(ctx, vt.Code); err == nil && rec.Live(s.now()) {
		rec.FromCache = true
		return rec, nil
	}
	return s.refreshLocked(ctx, vt)
}

// RefreshResearch runs the oracle unconditionally and replaces the stored
// record, regardless of remaining freshness.
func (s *Service) RefreshResearch(ctx context.Context, code string) (Record, error) {
	vt, err := s.lookupVisa(ctx, code)
	if err != nil {
		return Record{}, err
	}
	metrics.IncResearchRefresh()

	lock := s.lockFor(vt.Code)
	lock.Lock()
	defer lock.Unlock()
	return s.refreshLocked(ctx, vt)
}

// refreshLocked runs the oracle and atomically replaces stored research.
// Callers must hold the per-code lock.
func (s *Service) refreshLocked(ctx context.Context, vt visatypes.VisaType) (Record, error) {
	if s.Oracle == nil {
		return Record{}, fmt.Errorf("missing oracle client")
	}
	now := s.now()

	raw, err := s.Oracle.GenerateObject(ctx, oracle.ObjectRequest{
		System: researchSystemPrompt,
		Prompt: BuildPrompt(vt, now),
	})
	if err != nil {
		metrics.IncResearchFailed()
		return Record{}, err
	}

	s.archiveRaw(ctx, "research/"+vt.Code+"/"+uuid.NewString()+".json", raw)

	rec, err := decodeRecord(raw, vt.Code, now)
	if err != nil {
		metrics.IncResearchFailed()
		return Record{}, err
	}

	// Invalidate before the store swap so a concurrent reader cannot
	// resurrect the old record from Redis.
	s.cacheDelete(ctx, vt.Code)
	if err := s.Repo.Replace(ctx, rec); err != nil {
		metrics.IncResearchFailed()
		return Record{}, err
	}
	s.cacheSet(ctx, rec)

	rec.FromCache = false
	return rec, nil
}

func (s *Service) lookupVisa(ctx context.Context, code string) (visatypes.VisaType, error) {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return visatypes.VisaType{}, ErrUnknownCode
	}
	vt, err := s.Catalog.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, visatypes.ErrNotFound) {
			return visatypes.VisaType{}, ErrUnknownCode
		}
		return visatypes.VisaType{}, err
	}
	return vt, nil
}

func (s *Service) lockFor(code string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.locks == nil {
		s.locks = make(map[string]*sync.Mutex)
	}
	lock, ok := s.locks[code]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[code] = lock
	}
	return lock
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

func cacheKey(code string) string {
	return "research:" + code
}

func (s *Service) cacheGet(ctx context.Context, code string) (Record, bool) {
	val, ok, err := s.Cache.Get(ctx, cacheKey(code))
	if err != nil {
		telemetry.Warn("research.cache_get_failed", map[string]any{
			"visa_code": code,
			"error":     err.Error(),
		})
		return Record{}, false
	}
	if !ok {
		return Record{}, false
	}
	var rec Record
	if err := json.Unmarshal([]byte(val), &rec); err != nil {
		telemetry.Warn("research.cache_decode_failed", map[string]any{
			"visa_code": code,
			"error":     err.Error(),
		})
		return Record{}, false
	}
	return rec, true
}

func (s *Service) cacheSet(ctx context.Context, rec Record) {
	ttl := rec.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return
	}
	if err := s.Cache.Set(ctx, cacheKey(rec.VisaCode), string(data), ttl); err != nil {
		telemetry.Warn("research.cache_set_failed", map[string]any{
			"visa_code": rec.VisaCode,
			"error":     err.Error(),
		})
	}
}

func (s *Service) cacheDelete(ctx context.Context, code string) {
	if err := s.Cache.Delete(ctx, cacheKey(code)); err != nil {
		telemetry.Warn("research.cache_delete_failed", map[string]any{
			"visa_code": code,
			"error":     err.Error(),
		})
	}
}

// archiveRaw stores the raw oracle payload best-effort.
func (s *Service) archiveRaw(ctx context.Context, key string, raw []byte) {
	if s.Archive == nil {
		return
	}
	if _, err := s.Archive.Put(ctx, key, "application/json", bytes.NewReader(raw)); err != nil {
		telemetry.Warn("research.archive_failed", map[string]any{
			"key":   key,
			"error": err.Error(),
		})
	}
}

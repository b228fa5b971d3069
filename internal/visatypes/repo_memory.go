package visatypes

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// MemoryRepo stores the catalog in memory and is safe for concurrent use.
type MemoryRepo struct {
	mu     sync.RWMutex
	byCode map[string]VisaType
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{byCode: make(map[string]VisaType)}
}

// Upsert inserts or replaces one catalog entry.
func (r *MemoryRepo) Upsert(ctx context.Context, vt VisaType) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	vt.Country = strings.ToUpper(strings.TrimSpace(vt.Country))
	r.byCode[vt.Code] = vt
	return nil
}

// GetByCode returns one visa type by its code.
func (r *MemoryRepo) GetByCode(ctx context.Context, code string) (VisaType, error) {
	if err := ctx.Err(); err != nil {
		return VisaType{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	vt, ok := r.byCode[code]
	if !ok {
		return VisaType{}, ErrNotFound
	}
	return vt, nil
}

// ListByCountries returns visa types whose country is in the given set.
func (r *MemoryRepo) ListByCountries(ctx context.Context, countries []string) ([]VisaType, error) {
	wanted := make(map[string]struct{}, len(countries))
	for _, c := range countries {
		wanted[strings.ToUpper(strings.TrimSpace(c))] = struct{}{}
	}
	return r.list(ctx, func(vt VisaType) bool {
		_, ok := wanted[vt.Country]
		return ok
	})
}

// ListByCategory returns visa types in the given category.
func (r *MemoryRepo) ListByCategory(ctx context.Context, category string) ([]VisaType, error) {
	return r.list(ctx, func(vt VisaType) bool {
		return vt.Category == category
	})
}

// ListByCodes returns visa types matching any of the given codes.
func (r *MemoryRepo) ListByCodes(ctx context.Context, codes []string) ([]VisaType, error) {
	wanted := make(map[string]struct{}, len(codes))
	for _, c := range codes {
		wanted[c] = struct{}{}
	}
	return r.list(ctx, func(vt VisaType) bool {
		_, ok := wanted[vt.Code]
		return ok
	})
}

// ListAll returns the full catalog.
func (r *MemoryRepo) ListAll(ctx context.Context) ([]VisaType, error) {
	return r.list(ctx, func(VisaType) bool { return true })
}

func (r *MemoryRepo) list(ctx context.Context, keep func(VisaType) bool) ([]VisaType, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []VisaType{}
	for _, vt := range r.byCode {
		if keep(vt) {
			out = append(out, vt)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

var _ Repo = (*MemoryRepo)(nil)

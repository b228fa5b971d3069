package research

import (
	"context"
	"sync"
)

// MemoryRepo stores at most one record per code in memory.
type MemoryRepo struct {
	mu     sync.RWMutex
	byCode map[string]Record
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{byCode: make(map[string]Record)}
}

// GetLatestByCode returns the record for a code.
func (r *MemoryRepo) GetLatestByCode(ctx context.Context, code string) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.byCode[code]
	if !ok {
		return Record{}, ErrNoRecord
	}
	return rec, nil
}

// Replace overwrites the record for the code.
func (r *MemoryRepo) Replace(ctx context.Context, record Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byCode[record.VisaCode] = record
	return nil
}

var _ Repo = (*MemoryRepo)(nil)

package sessions

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo stores sessions in memory and is safe for concurrent use.
type MemoryRepo struct {
	mu   sync.RWMutex
	byID map[string]Session
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{byID: make(map[string]Session)}
}

// Create stores the session.
func (r *MemoryRepo) Create(ctx context.Context, session Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[session.ID] = session
	return nil
}

// GetByID returns a session by its ID.
func (r *MemoryRepo) GetByID(ctx context.Context, sessionID string) (Session, error) {
	if err := ctx.Err(); err != nil {
		return Session{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	session, ok := r.byID[sessionID]
	if !ok {
		return Session{}, ErrNotFound
	}
	return session, nil
}

// List returns sessions matching the filter, newest-first.
func (r *MemoryRepo) List(ctx context.Context, filter Filter, limit, offset int) ([]Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = 20
	}

	r.mu.RLock()
	matched := []Session{}
	for _, session := range r.byID {
		if filter.UserID != "" && session.UserID != filter.UserID {
			continue
		}
		if filter.Status != "" && session.Status != filter.Status {
			continue
		}
		matched = append(matched, session)
	}
	r.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	if offset >= len(matched) {
		return []Session{}, nil
	}
	end := len(matched)
	if offset+limit < end {
		end = offset + limit
	}
	return matched[offset:end], nil
}

// Update applies status/title changes and returns the updated session.
func (r *MemoryRepo) Update(ctx context.Context, sessionID string, update Update) (Session, error) {
	if err := ctx.Err(); err != nil {
		return Session{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.byID[sessionID]
	if !ok {
		return Session{}, ErrNotFound
	}
	if update.Status != nil {
		session.Status = *update.Status
	}
	if update.Title != nil {
		session.Title = *update.Title
	}
	session.UpdatedAt = time.Now().UTC()
	r.byID[sessionID] = session
	return session, nil
}

// Delete removes a session. Missing ids are not an error.
func (r *MemoryRepo) Delete(ctx context.Context, sessionID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byID, sessionID)
	return nil
}

var _ Repo = (*MemoryRepo)(nil)

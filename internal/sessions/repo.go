package sessions

import "context"

// Filter narrows List results. Empty fields match everything.
type Filter struct {
	UserID string
	Status string
}

// Update carries the mutable session fields. Nil means leave unchanged.
type Update struct {
	Status *string
	Title  *string
}

// Repo defines persistence operations for analysis sessions.
type Repo interface {
	Create(ctx context.Context, session Session) error
	GetByID(ctx context.Context, sessionID string) (Session, error)
	List(ctx context.Context, filter Filter, limit, offset int) ([]Session, error)
	Update(ctx context.Context, sessionID string, update Update) (Session, error)
	// Delete is a hard delete and idempotent: deleting a missing id is not
	// an error at this layer.
	Delete(ctx context.Context, sessionID string) error
}

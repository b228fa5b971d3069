package research

import "context"

// Repo defines persistence for research records.
type Repo interface {
	// GetLatestByCode returns the newest record for a code, live or not.
	// Returns ErrNoRecord when none exists.
	GetLatestByCode(ctx context.Context, code string) (Record, error)
	// Replace removes every record for the code and inserts the given one
	// atomically, so a reader never sees zero or two live records.
	Replace(ctx context.Context, record Record) error
}

package visatypes

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a visa code is absent from the catalog.
var ErrNotFound = errors.New("visa type not found")

// Repo defines read access to the visa catalog.
type Repo interface {
	GetByCode(ctx context.Context, code string) (VisaType, error)
	ListByCountries(ctx context.Context, countries []string) ([]VisaType, error)
	ListByCategory(ctx context.Context, category string) ([]VisaType, error)
	ListByCodes(ctx context.Context, codes []string) ([]VisaType, error)
	ListAll(ctx context.Context) ([]VisaType, error)
}

package visatypes

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
)

// Seeder is implemented by repos that accept catalog writes.
type Seeder interface {
	Upsert(ctx context.Context, vt VisaType) error
}

// SeedFromFile loads a JSON array of visa types and upserts each entry.
// Returns the number of entries written.
func SeedFromFile(ctx context.Context, seeder Seeder, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read catalog file: %w", err)
	}

	var entries []VisaType
	if err := json.Unmarshal(data, &entries); err != nil {
		return 0, fmt.Errorf("parse catalog file: %w", err)
	}

	count := 0
	for _, vt := range entries {
		if vt.Code == "" || vt.Country == "" {
			return count, fmt.Errorf("catalog entry %d: code and country are required", count)
		}
		if err := seeder.Upsert(ctx, vt); err != nil {
			return count, fmt.Errorf("upsert %s: %w", vt.Code, err)
		}
		count++
	}
	return count, nil
}

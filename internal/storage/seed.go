package storage

import (
	"context"
	"log/slog"
	"strings"
)

// DefaultBrands are registered by Seed on a fresh install.
var DefaultBrands = []string{
	"Pampers Swaddlers",
	"Huggies Little Snugglers",
	"Pampers Baby Dry",
	"Huggies Little Movers",
	"Luvs Platinum Protection",
	"up&up",
	"Member's Mark Premium Baby",
	"Rascals Premium Baby",
	"Hello Bello Premium",
	"Honest Company Clean Conscious",
}

// Seed registers the given brands, skipping names already present, and
// returns how many were new.
func (s *Store) Seed(ctx context.Context, brands []string) (int, error) {
	added := 0
	for _, b := range brands {
		b = strings.TrimSpace(b)
		if b == "" {
			continue
		}
		inserted, err := insertBrand(ctx, s.db, b)
		if err != nil {
			return added, err
		}
		if inserted {
			added++
		}
	}
	slog.InfoContext(ctx, "Seeded brands", "requested", len(brands), "added", added)
	return added, nil
}

package storage

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jmoiron/sqlx"

	"diapertrack/internal/core"
)

type brandRow struct {
	ID        int64  `db:"id"`
	Name      string `db:"brand_name"`
	CreatedAt string `db:"created_at"`
}

func (r brandRow) toCore() core.Brand {
	return core.Brand{ID: r.ID, Name: r.Name, CreatedAt: parseTimestamp(r.CreatedAt)}
}

// ListBrands returns all brands ordered by name.
func (s *Store) ListBrands(ctx context.Context) ([]core.Brand, error) {
	var rows []brandRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, brand_name, COALESCE(CAST(created_at AS TEXT), '') AS created_at
		FROM brands ORDER BY brand_name`)
	if err != nil {
		return nil, fmt.Errorf("list brands: %w", err)
	}
	brands := make([]core.Brand, len(rows))
	for i, r := range rows {
		brands[i] = r.toCore()
	}
	return brands, nil
}

// ListBrandNames returns just the brand names, ordered by name.
func (s *Store) ListBrandNames(ctx context.Context) ([]string, error) {
	names := []string{}
	if err := s.db.SelectContext(ctx, &names, `SELECT brand_name FROM brands ORDER BY brand_name`); err != nil {
		return nil, fmt.Errorf("list brand names: %w", err)
	}
	return names, nil
}

// AddBrand registers a brand name. Adding a name that already exists is a no-op.
func (s *Store) AddBrand(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return core.ErrEmptyBrand
	}
	inserted, err := insertBrand(ctx, s.db, name)
	if err != nil {
		return err
	}
	if inserted {
		slog.InfoContext(ctx, "Brand added", "brand", name)
	} else {
		slog.DebugContext(ctx, "Brand already registered", "brand", name)
	}
	return nil
}

// insertBrand inserts name unless it is already present and reports whether a row was created.
func insertBrand(ctx context.Context, ex sqlx.ExecerContext, name string) (bool, error) {
	res, err := ex.ExecContext(ctx,
		`INSERT INTO brands (brand_name) VALUES (?) ON CONFLICT(brand_name) DO NOTHING`, name)
	if err != nil {
		return false, fmt.Errorf("insert brand %q: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert brand %q: %w", name, err)
	}
	return n > 0, nil
}

// UpdateBrand renames a brand. Renaming onto another brand's name fails with
// core.ErrDuplicateBrand; an unknown id is a no-op. Purchases are never touched.
func (s *Store) UpdateBrand(ctx context.Context, id int64, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return core.ErrEmptyBrand
	}
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		var clash int
		if err := tx.GetContext(ctx, &clash,
			`SELECT COUNT(*) FROM brands WHERE brand_name = ? AND id <> ?`, name, id); err != nil {
			return fmt.Errorf("check brand name: %w", err)
		}
		if clash > 0 {
			return core.ErrDuplicateBrand
		}
		if _, err := tx.ExecContext(ctx, `UPDATE brands SET brand_name = ? WHERE id = ?`, name, id); err != nil {
			if isUniqueViolation(err) {
				return core.ErrDuplicateBrand
			}
			return fmt.Errorf("update brand %d: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	slog.InfoContext(ctx, "Brand updated", "id", id, "brand", name)
	return nil
}

// DeleteBrand removes a brand from the registry. Existing purchases keep their brand text.
func (s *Store) DeleteBrand(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM brands WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete brand %d: %w", id, err)
	}
	slog.InfoContext(ctx, "Brand deleted", "id", id)
	return nil
}

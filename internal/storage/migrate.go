package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// RunMigrations applies the versioned base schema.
func RunMigrations(dbPath string) error {
	// Separate connection: closing the migrate instance closes its database handle.
	migrateDB, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return fmt.Errorf("open migration database: %w", err)
	}
	defer migrateDB.Close()

	driver, err := sqlite.WithInstance(migrateDB, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("create sqlite driver: %w", err)
	}

	d, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create iofs source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", d, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}

// Migrate brings the database up to the current layout: the versioned base
// schema, then the additive migrations. Each step is a no-op when already applied,
// so calling Migrate on every startup is safe.
func (s *Store) Migrate(ctx context.Context) error {
	if err := RunMigrations(s.path); err != nil {
		return err
	}
	if err := s.ensureSizeColumn(ctx); err != nil {
		return fmt.Errorf("add size column: %w", err)
	}
	n, err := s.backfillBoxOpenings(ctx)
	if err != nil {
		return fmt.Errorf("backfill box openings: %w", err)
	}
	if n > 0 {
		slog.InfoContext(ctx, "Backfilled box openings", "purchases", n)
	}
	return nil
}

func (s *Store) hasColumn(ctx context.Context, table, column string) (bool, error) {
	var cols []string
	if err := s.db.SelectContext(ctx, &cols, `SELECT name FROM pragma_table_info(?)`, table); err != nil {
		return false, fmt.Errorf("inspect %s columns: %w", table, err)
	}
	for _, c := range cols {
		if c == column {
			return true, nil
		}
	}
	return false, nil
}

// ensureSizeColumn adds purchases.size when missing. Existing rows get an empty size.
func (s *Store) ensureSizeColumn(ctx context.Context) error {
	ok, err := s.hasColumn(ctx, "purchases", "size")
	if err != nil || ok {
		return err
	}
	if _, err := s.db.ExecContext(ctx, `ALTER TABLE purchases ADD COLUMN size TEXT DEFAULT ''`); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Added size column to purchases")
	return nil
}

// backfillBoxOpenings creates box 1..num_boxes for every purchase that has no
// opening rows at all. Purchases with at least one row are left untouched.
func (s *Store) backfillBoxOpenings(ctx context.Context) (int, error) {
	var pending []struct {
		ID       int64 `db:"id"`
		NumBoxes int   `db:"num_boxes"`
	}
	count := 0
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		if err := tx.SelectContext(ctx, &pending, `
			SELECT p.id, p.num_boxes FROM purchases p
			WHERE p.id NOT IN (SELECT DISTINCT purchase_id FROM box_openings)
			ORDER BY p.id`); err != nil {
			return fmt.Errorf("find purchases without openings: %w", err)
		}
		for _, p := range pending {
			if err := insertOpenings(ctx, tx, p.ID, p.NumBoxes); err != nil {
				return err
			}
			count++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

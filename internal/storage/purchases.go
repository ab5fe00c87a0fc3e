package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"

	"diapertrack/internal/core"
)

type purchaseRow struct {
	ID            int64   `db:"id"`
	Date          string  `db:"date"`
	NumBoxes      int     `db:"num_boxes"`
	DiapersPerBox int     `db:"diapers_per_box"`
	Brand         string  `db:"brand"`
	Cost          float64 `db:"cost"`
	Size          string  `db:"size"`
	CreatedAt     string  `db:"created_at"`
}

func (r purchaseRow) toCore() core.Purchase {
	return core.Purchase{
		ID:            r.ID,
		Date:          parseStoredDate(r.Date),
		NumBoxes:      r.NumBoxes,
		DiapersPerBox: r.DiapersPerBox,
		Brand:         r.Brand,
		Size:          core.Size(r.Size),
		Cost:          core.MoneyFromFloat(r.Cost),
		CreatedAt:     parseTimestamp(r.CreatedAt),
	}
}

const selectPurchase = `
	SELECT id, date, num_boxes, diapers_per_box, brand, cost,
	       COALESCE(size, '') AS size,
	       COALESCE(CAST(created_at AS TEXT), '') AS created_at
	FROM purchases`

// AddPurchase records a purchase together with one unopened box row per box
// and registers its brand, all in a single transaction.
func (s *Store) AddPurchase(ctx context.Context, np core.NewPurchase) (int64, error) {
	np.Normalize()
	if err := np.Validate(); err != nil {
		return 0, fmt.Errorf("validate purchase: %w", err)
	}

	var id int64
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO purchases (date, num_boxes, diapers_per_box, brand, cost, size)
			VALUES (?, ?, ?, ?, ?, ?)`,
			np.Date.String(), np.NumBoxes, np.DiapersPerBox, np.Brand, np.Cost.Float(), string(np.Size))
		if err != nil {
			return fmt.Errorf("insert purchase: %w", err)
		}
		if id, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("purchase id: %w", err)
		}
		if err := insertOpenings(ctx, tx, id, np.NumBoxes); err != nil {
			return err
		}
		_, err = insertBrand(ctx, tx, np.Brand)
		return err
	})
	if err != nil {
		return 0, err
	}

	slog.InfoContext(ctx, "Purchase saved",
		"id", id,
		"date", np.Date.String(),
		"brand", np.Brand,
		"size", string(np.Size),
		"num_boxes", np.NumBoxes,
		"diapers_per_box", np.DiapersPerBox,
		"cost_cents", np.Cost.Cents)
	return id, nil
}

// ListPurchases returns every purchase, newest date first; within a date the
// most recently entered comes first.
func (s *Store) ListPurchases(ctx context.Context) ([]core.Purchase, error) {
	var rows []purchaseRow
	if err := s.db.SelectContext(ctx, &rows, selectPurchase+` ORDER BY date DESC, created_at DESC, id DESC`); err != nil {
		return nil, fmt.Errorf("list purchases: %w", err)
	}
	purchases := make([]core.Purchase, len(rows))
	for i, r := range rows {
		purchases[i] = r.toCore()
	}
	return purchases, nil
}

// GetPurchase returns core.ErrNotFound when no purchase has the given id.
func (s *Store) GetPurchase(ctx context.Context, id int64) (core.Purchase, error) {
	var row purchaseRow
	if err := s.db.GetContext(ctx, &row, selectPurchase+` WHERE id = ?`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Purchase{}, fmt.Errorf("purchase %d: %w", id, core.ErrNotFound)
		}
		return core.Purchase{}, fmt.Errorf("get purchase %d: %w", id, err)
	}
	return row.toCore(), nil
}

// DeletePurchase removes a purchase and its box rows atomically, children first.
func (s *Store) DeletePurchase(ctx context.Context, id int64) error {
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM box_openings WHERE purchase_id = ?`, id); err != nil {
			return fmt.Errorf("delete box openings of purchase %d: %w", id, err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM purchases WHERE id = ?`, id); err != nil {
			return fmt.Errorf("delete purchase %d: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	slog.InfoContext(ctx, "Purchase deleted", "id", id)
	return nil
}

// insertOpenings creates unopened rows for boxes 1..n of a purchase.
func insertOpenings(ctx context.Context, tx *sqlx.Tx, purchaseID int64, n int) error {
	stmt, err := tx.PreparexContext(ctx, `INSERT INTO box_openings (purchase_id, box_number) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare box opening insert: %w", err)
	}
	defer stmt.Close()
	for box := 1; box <= n; box++ {
		if _, err := stmt.ExecContext(ctx, purchaseID, box); err != nil {
			return fmt.Errorf("insert box %d of purchase %d: %w", box, purchaseID, err)
		}
	}
	return nil
}

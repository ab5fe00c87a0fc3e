package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"diapertrack/internal/core"
)

type openingRow struct {
	ID         int64          `db:"id"`
	PurchaseID int64          `db:"purchase_id"`
	BoxNumber  int            `db:"box_number"`
	DateOpened sql.NullString `db:"date_opened"`
	CreatedAt  string         `db:"created_at"`
}

func (r openingRow) toCore() core.BoxOpening {
	o := core.BoxOpening{
		ID:         r.ID,
		PurchaseID: r.PurchaseID,
		BoxNumber:  r.BoxNumber,
		CreatedAt:  parseTimestamp(r.CreatedAt),
	}
	if r.DateOpened.Valid {
		o.DateOpened = parseStoredDate(r.DateOpened.String)
	}
	return o
}

const selectOpening = `
	SELECT id, purchase_id, box_number, date_opened,
	       COALESCE(CAST(created_at AS TEXT), '') AS created_at
	FROM box_openings`

// ListOpenings returns the box rows of one purchase ordered by box number.
// An unknown purchase yields an empty list.
func (s *Store) ListOpenings(ctx context.Context, purchaseID int64) ([]core.BoxOpening, error) {
	var rows []openingRow
	if err := s.db.SelectContext(ctx, &rows, selectOpening+` WHERE purchase_id = ? ORDER BY box_number`, purchaseID); err != nil {
		return nil, fmt.Errorf("list openings of purchase %d: %w", purchaseID, err)
	}
	openings := make([]core.BoxOpening, len(rows))
	for i, r := range rows {
		openings[i] = r.toCore()
	}
	return openings, nil
}

func (s *Store) ListAllOpenings(ctx context.Context) (map[int64][]core.BoxOpening, error) {
	var rows []openingRow
	if err := s.db.SelectContext(ctx, &rows, selectOpening+` ORDER BY purchase_id, box_number`); err != nil {
		return nil, fmt.Errorf("list openings: %w", err)
	}
	byPurchase := make(map[int64][]core.BoxOpening)
	for _, r := range rows {
		byPurchase[r.PurchaseID] = append(byPurchase[r.PurchaseID], r.toCore())
	}
	return byPurchase, nil
}

// SetOpenedDate records when a box was opened. The zero date marks it sealed
// again. An unknown id is a no-op.
func (s *Store) SetOpenedDate(ctx context.Context, openingID int64, d core.Date) error {
	var value any
	if !d.IsZero() {
		value = d.String()
	}
	if _, err := s.db.ExecContext(ctx, `UPDATE box_openings SET date_opened = ? WHERE id = ?`, value, openingID); err != nil {
		return fmt.Errorf("set opened date of box %d: %w", openingID, err)
	}
	slog.InfoContext(ctx, "Box opening updated", "id", openingID, "date_opened", d.String())
	return nil
}

// ClearOpenedDate marks a box as sealed.
func (s *Store) ClearOpenedDate(ctx context.Context, openingID int64) error {
	return s.SetOpenedDate(ctx, openingID, core.Date{})
}

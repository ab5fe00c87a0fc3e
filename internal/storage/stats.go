package storage

import (
	"context"
	"fmt"

	"diapertrack/internal/core"
)

// ComputeStatistics aggregates the purchase ledger. An empty ledger yields all zeros.
func (s *Store) ComputeStatistics(ctx context.Context) (core.Statistics, error) {
	var row struct {
		Purchases int64   `db:"purchases"`
		Boxes     int64   `db:"boxes"`
		Diapers   int64   `db:"diapers"`
		Cost      float64 `db:"cost"`
	}
	err := s.db.GetContext(ctx, &row, `
		SELECT COUNT(*) AS purchases,
		       COALESCE(SUM(num_boxes), 0) AS boxes,
		       COALESCE(SUM(num_boxes * diapers_per_box), 0) AS diapers,
		       COALESCE(SUM(cost), 0.0) AS cost
		FROM purchases`)
	if err != nil {
		return core.Statistics{}, fmt.Errorf("compute statistics: %w", err)
	}
	return core.NewStatistics(row.Purchases, row.Boxes, row.Diapers, core.MoneyFromFloat(row.Cost)), nil
}

package core

import "github.com/shopspring/decimal"

// Statistics summarizes the whole purchase ledger.
type Statistics struct {
	TotalPurchases   int64
	TotalBoxes       int64
	TotalDiapers     int64
	TotalCost        Money
	AvgCostPerDiaper decimal.Decimal
}

// NewStatistics derives the average from the raw totals, guarding division by zero.
func NewStatistics(purchases, boxes, diapers int64, cost Money) Statistics {
	return Statistics{
		TotalPurchases:   purchases,
		TotalBoxes:       boxes,
		TotalDiapers:     diapers,
		TotalCost:        cost,
		AvgCostPerDiaper: cost.PerUnit(diapers),
	}
}

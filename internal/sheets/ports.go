package sheets

import (
	"context"

	"diapertrack/internal/export"
	"diapertrack/internal/report"
)

// Sheet titles used by every publisher.
const (
	SummarySheet   = "Summary"
	PurchasesSheet = "Purchases"
)

// ReportPublisher mirrors a report snapshot to a remote spreadsheet and returns
// a reference to where it landed.
type ReportPublisher interface {
	Publish(ctx context.Context, rep *report.Report) (ref string, err error)
}

// Tables converts a report into the cell grids of the two sheets.
func Tables(rep *report.Report) (summary, purchases [][]any) {
	summary = [][]any{
		{export.ReportTitle},
		{"Generated: " + rep.GeneratedLabel()},
		{},
	}
	for _, item := range export.Summary(rep.Stats) {
		var value any = item.Value
		if item.Count >= 0 {
			value = item.Count
		}
		summary = append(summary, []any{item.Label, value})
	}

	header := make([]any, len(export.PurchaseHeaders))
	for i, h := range export.PurchaseHeaders {
		header[i] = h
	}
	purchases = append(purchases, header)
	for _, r := range rep.Rows {
		purchases = append(purchases, export.PurchaseValues(r))
	}
	return summary, purchases
}

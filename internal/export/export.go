// Package export renders a report snapshot as an Excel workbook or a PDF document.
package export

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"diapertrack/internal/core"
	"diapertrack/internal/report"
)

type Format string

const (
	FormatXLSX   Format = "xlsx"
	FormatPDF    Format = "pdf"
	FormatGSheet Format = "gsheet"
)

var ErrUnknownFormat = errors.New("unknown export format")

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatXLSX, FormatPDF, FormatGSheet:
		return f, nil
	case "excel":
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// FileName is the download name for a file export generated on day.
func FileName(f Format, day time.Time) string {
	date := day.Format(core.DateLayout)
	switch f {
	case FormatPDF:
		return "diaper_report_" + date + ".pdf"
	default:
		return "diaper_data_" + date + ".xlsx"
	}
}

func ContentType(f Format) string {
	if f == FormatPDF {
		return "application/pdf"
	}
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

const (
	ReportTitle  = "Diaper Purchase Report"
	brandPDFMax  = 25
	generatedFmt = "Generated: %s"
)

// SummaryItem is one label/value line of the summary block.
type SummaryItem struct {
	Label string
	Value string
	Count int64 // numeric form of Value for count rows, -1 for money rows
}

// Summary lists the statistics rows shared by every export format.
func Summary(stats core.Statistics) []SummaryItem {
	return []SummaryItem{
		{"Total Purchases", strconv.FormatInt(stats.TotalPurchases, 10), stats.TotalPurchases},
		{"Total Boxes", strconv.FormatInt(stats.TotalBoxes, 10), stats.TotalBoxes},
		{"Total Diapers", core.FormatCount(stats.TotalDiapers), stats.TotalDiapers},
		{"Total Cost", stats.TotalCost.String(), -1},
		{"Avg Cost per Diaper", core.FormatPerUnit(stats.AvgCostPerDiaper), -1},
	}
}

// PurchaseHeaders are the column titles of the tabular purchase listing.
var PurchaseHeaders = []string{
	"Date", "Brand", "Size", "Boxes", "Diapers/Box", "Total Diapers", "Cost", "Cost/Diaper", "Boxes Opened",
}

// PurchaseValues returns the typed cell values of one purchase row, in
// PurchaseHeaders order. Cost is rounded to cents and cost per diaper to four places.
func PurchaseValues(r report.Row) []any {
	p := r.Purchase
	return []any{
		p.Date.String(),
		p.Brand,
		p.Size.String(),
		p.NumBoxes,
		p.DiapersPerBox,
		r.TotalDiapers(),
		p.Cost.Decimal().Round(2).InexactFloat64(),
		r.CostPerDiaper().Round(4).InexactFloat64(),
		r.OpenedLabel(),
	}
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

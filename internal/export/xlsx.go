package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"diapertrack/internal/report"
)

const (
	summarySheet   = "Summary"
	purchasesSheet = "Purchases"
)

var purchaseColumnWidths = []struct {
	col   string
	width float64
}{
	{"A", 12}, {"B", 20}, {"C", 10}, {"D", 8}, {"E", 13}, {"F", 14}, {"G", 10}, {"H", 12}, {"I", 14},
}

func thinBorder() []excelize.Border {
	return []excelize.Border{
		{Type: "left", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
		{Type: "top", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
	}
}

// WriteXLSX writes a two-sheet workbook: a summary and the purchase table.
func WriteXLSX(w io.Writer, rep *report.Report) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(0), summarySheet); err != nil {
		return fmt.Errorf("rename summary sheet: %w", err)
	}
	if err := writeSummarySheet(f, rep); err != nil {
		return err
	}
	if _, err := f.NewSheet(purchasesSheet); err != nil {
		return fmt.Errorf("create purchases sheet: %w", err)
	}
	if err := writePurchasesSheet(f, rep); err != nil {
		return err
	}
	f.SetActiveSheet(0)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeSummarySheet(f *excelize.File, rep *report.Report) error {
	titleStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 14}})
	if err != nil {
		return fmt.Errorf("title style: %w", err)
	}
	labelStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("label style: %w", err)
	}

	set := func(cell string, v any) error {
		if err := f.SetCellValue(summarySheet, cell, v); err != nil {
			return fmt.Errorf("set %s!%s: %w", summarySheet, cell, err)
		}
		return nil
	}

	if err := set("A1", ReportTitle); err != nil {
		return err
	}
	if err := f.SetCellStyle(summarySheet, "A1", "A1", titleStyle); err != nil {
		return err
	}
	if err := set("A2", fmt.Sprintf(generatedFmt, rep.GeneratedLabel())); err != nil {
		return err
	}

	for i, item := range Summary(rep.Stats) {
		row := i + 4
		label := fmt.Sprintf("A%d", row)
		if err := set(label, item.Label); err != nil {
			return err
		}
		if err := f.SetCellStyle(summarySheet, label, label, labelStyle); err != nil {
			return err
		}
		var value any = item.Value
		if item.Count >= 0 {
			value = item.Count
		}
		if err := set(fmt.Sprintf("B%d", row), value); err != nil {
			return err
		}
	}

	if err := f.SetColWidth(summarySheet, "A", "A", 22); err != nil {
		return err
	}
	return f.SetColWidth(summarySheet, "B", "B", 18)
}

func writePurchasesSheet(f *excelize.File, rep *report.Report) error {
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:   excelize.Fill{Type: "pattern", Color: []string{"2C3E50"}, Pattern: 1},
		Border: thinBorder(),
	})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	cellStyle, err := f.NewStyle(&excelize.Style{Border: thinBorder()})
	if err != nil {
		return fmt.Errorf("cell style: %w", err)
	}

	header := make([]any, len(PurchaseHeaders))
	for i, h := range PurchaseHeaders {
		header[i] = h
	}
	if err := f.SetSheetRow(purchasesSheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	last, err := excelize.CoordinatesToCellName(len(PurchaseHeaders), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(purchasesSheet, "A1", last, headerStyle); err != nil {
		return err
	}

	for i, r := range rep.Rows {
		row := i + 2
		values := PurchaseValues(r)
		start, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return err
		}
		end, err := excelize.CoordinatesToCellName(len(values), row)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(purchasesSheet, start, &values); err != nil {
			return fmt.Errorf("write purchase row %d: %w", row, err)
		}
		if err := f.SetCellStyle(purchasesSheet, start, end, cellStyle); err != nil {
			return err
		}
	}

	for _, cw := range purchaseColumnWidths {
		if err := f.SetColWidth(purchasesSheet, cw.col, cw.col, cw.width); err != nil {
			return err
		}
	}
	return nil
}

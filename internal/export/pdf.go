package export

import (
	"fmt"
	"io"
	"strconv"

	"github.com/go-pdf/fpdf"

	"diapertrack/internal/core"
	"diapertrack/internal/report"
)

type rgb struct{ r, g, b int }

var (
	headerFill  = rgb{0x2c, 0x3e, 0x50}
	labelFill   = rgb{0xe8, 0xf4, 0xfd}
	stripedFill = rgb{0xf8, 0xf9, 0xfa}
	white       = rgb{0xff, 0xff, 0xff}
	black       = rgb{0, 0, 0}
	grey        = rgb{0x80, 0x80, 0x80}
)

var historyColumns = []struct {
	title string
	width float64
	align string
}{
	{"Date", 22, "L"},
	{"Brand", 46, "L"},
	{"Size", 18, "L"},
	{"Boxes", 13, "R"},
	{"Per Box", 16, "R"},
	{"Total", 16, "R"},
	{"Cost", 20, "R"},
	{"$/Diaper", 20, "R"},
	{"Opened", 16, "C"},
}

const (
	statsColWidth = 63.5 // 2.5in
	statsRowH     = 8
	historyRowH   = 6
)

// WritePDF writes a letter-size report: title, summary table and purchase history.
func WritePDF(w io.Writer, rep *report.Report) error {
	pdf := fpdf.New("P", "mm", "Letter", "")
	pdf.SetTitle(ReportTitle, true)
	pdf.SetCreator("diapertrack", true)
	pdf.SetAutoPageBreak(false, 15)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 10, ReportTitle, "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, fmt.Sprintf(generatedFmt, rep.GeneratedLabel()), "", 1, "L", false, 0, "")
	pdf.Ln(8)

	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 8, "Summary Statistics", "", 1, "L", false, 0, "")
	pdf.SetDrawColor(grey.r, grey.g, grey.b)
	pdf.SetLineWidth(0.2)
	for _, item := range Summary(rep.Stats) {
		setFill(pdf, labelFill)
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(statsColWidth, statsRowH, item.Label, "1", 0, "L", true, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		pdf.CellFormat(statsColWidth, statsRowH, item.Value, "1", 1, "L", false, 0, "")
	}
	pdf.Ln(8)

	if len(rep.Rows) > 0 {
		pdf.SetFont("Helvetica", "B", 14)
		pdf.CellFormat(0, 8, "Purchase History", "", 1, "L", false, 0, "")
		historyHeader(pdf)

		_, pageH := pdf.GetPageSize()
		_, _, _, bottom := pdf.GetMargins()
		for i, r := range rep.Rows {
			if pdf.GetY()+historyRowH > pageH-bottom {
				pdf.AddPage()
				historyHeader(pdf)
			}
			fill := white
			if i%2 == 1 {
				fill = stripedFill
			}
			setFill(pdf, fill)
			pdf.SetTextColor(black.r, black.g, black.b)
			pdf.SetFont("Helvetica", "", 8)
			for j, cell := range historyCells(r) {
				col := historyColumns[j]
				pdf.CellFormat(col.width, historyRowH, tr(cell), "1", 0, col.align, true, 0, "")
			}
			pdf.Ln(-1)
		}
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

func historyHeader(pdf *fpdf.Fpdf) {
	setFill(pdf, headerFill)
	pdf.SetTextColor(white.r, white.g, white.b)
	pdf.SetFont("Helvetica", "B", 8)
	for _, col := range historyColumns {
		pdf.CellFormat(col.width, historyRowH, col.title, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)
}

func historyCells(r report.Row) []string {
	p := r.Purchase
	return []string{
		p.Date.String(),
		truncate(p.Brand, brandPDFMax),
		p.Size.String(),
		strconv.Itoa(p.NumBoxes),
		strconv.Itoa(p.DiapersPerBox),
		strconv.Itoa(r.TotalDiapers()),
		p.Cost.String(),
		core.FormatPerUnit(r.CostPerDiaper()),
		r.OpenedLabel(),
	}
}

func setFill(pdf *fpdf.Fpdf, c rgb) {
	pdf.SetFillColor(c.r, c.g, c.b)
}

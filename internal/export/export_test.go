package export

import (
	"bytes"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"diapertrack/internal/core"
	"diapertrack/internal/report"
)

func sampleReport(n int) *report.Report {
	rep := &report.Report{
		GeneratedAt: time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC),
		Stats:       core.NewStatistics(1, 2, 184, core.Money{Cents: 2499}),
	}
	for i := 0; i < n; i++ {
		rep.Rows = append(rep.Rows, report.Row{
			Purchase: core.Purchase{
				ID:            int64(i + 1),
				Date:          core.NewDate(2024, 1, 15),
				NumBoxes:      2,
				DiapersPerBox: 92,
				Brand:         "Pampers Swaddlers Sensitive Extra Soft",
				Size:          core.Size2,
				Cost:          core.Money{Cents: 2499},
			},
			Openings: []core.BoxOpening{
				{ID: 1, BoxNumber: 1, DateOpened: core.NewDate(2024, 1, 20)},
				{ID: 2, BoxNumber: 2},
			},
		})
	}
	return rep
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"xlsx", FormatXLSX, false},
		{"Excel", FormatXLSX, false},
		{" PDF ", FormatPDF, false},
		{"gsheet", FormatGSheet, false},
		{"csv", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if tt.wantErr {
			assert.ErrorIs(t, err, ErrUnknownFormat, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestFileName(t *testing.T) {
	day := time.Date(2024, 3, 5, 23, 0, 0, 0, time.UTC)
	assert.Equal(t, "diaper_report_2024-03-05.pdf", FileName(FormatPDF, day))
	assert.Equal(t, "diaper_data_2024-03-05.xlsx", FileName(FormatXLSX, day))
}

func TestSummary(t *testing.T) {
	items := Summary(core.NewStatistics(3, 5, 1234, core.Money{Cents: 123456}))
	require.Len(t, items, 5)
	assert.Equal(t, "Total Diapers", items[2].Label)
	assert.Equal(t, "1,234", items[2].Value)
	assert.Equal(t, "$1,234.56", items[3].Value)
	assert.Equal(t, "$1.0005", items[4].Value)
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, sampleReport(2)))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Summary", "Purchases"}, f.GetSheetList())

	cell := func(sheet, ref string) string {
		v, err := f.GetCellValue(sheet, ref)
		require.NoError(t, err)
		return v
	}

	assert.Equal(t, "Diaper Purchase Report", cell("Summary", "A1"))
	assert.Equal(t, "Generated: March 5, 2024", cell("Summary", "A2"))
	assert.Equal(t, "Total Purchases", cell("Summary", "A4"))
	assert.Equal(t, "1", cell("Summary", "B4"))
	assert.Equal(t, "184", cell("Summary", "B6"))
	assert.Equal(t, "$24.99", cell("Summary", "B7"))
	assert.Equal(t, "$0.1358", cell("Summary", "B8"))

	rows, err := f.GetRows("Purchases")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, PurchaseHeaders, rows[0])
	assert.Equal(t, []string{
		"2024-01-15", "Pampers Swaddlers Sensitive Extra Soft", "Size 2", "2", "92", "184", "24.99", "0.1358", "1/2",
	}, rows[1])

	width, err := f.GetColWidth("Purchases", "B")
	require.NoError(t, err)
	assert.Equal(t, 20.0, width)
}

func TestWriteXLSX_Empty(t *testing.T) {
	var buf bytes.Buffer
	rep := &report.Report{GeneratedAt: time.Now()}
	require.NoError(t, WriteXLSX(&buf, rep))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Purchases")
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestWritePDF(t *testing.T) {
	for _, n := range []int{0, 3, 120} {
		t.Run(fmt.Sprintf("%d rows", n), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, WritePDF(&buf, sampleReport(n)))
			assert.True(t, strings.HasPrefix(buf.String(), "%PDF-"))
			assert.Contains(t, buf.String(), "%%EOF")
		})
	}
}

func TestHistoryCells(t *testing.T) {
	cells := historyCells(sampleReport(1).Rows[0])
	assert.Equal(t, "Pampers Swaddlers Sensiti", cells[1])
	assert.Equal(t, "$24.99", cells[6])
	assert.Equal(t, "$0.1358", cells[7])
	assert.Equal(t, "1/2", cells[8])
}

package report

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	"uptime/app/internal/models"
	"uptime/app/internal/stats"
)

// MonthTotal is the offline minutes recorded in one calendar month
type MonthTotal struct {
	Month   string // YYYY-MM
	Minutes int
}

// MonthlyOffline folds the heatmap into per-month totals, in calendar order
func MonthlyOffline(cal models.CalendarMap) []MonthTotal {
	months := []MonthTotal{}
	for _, year := range cal {
		for _, day := range year.Days {
			if len(day.Date) < 7 {
				continue
			}
			month := day.Date[:7]
			if n := len(months); n > 0 && months[n-1].Month == month {
				months[n-1].Minutes += day.Minutes
				continue
			}
			months = append(months, MonthTotal{Month: month, Minutes: day.Minutes})
		}
	}
	return months
}

// Availability is the share of observed time the endpoint was online, as a
// percentage. Unknown minutes are excluded because the monitor itself was cut off.
func Availability(c models.CategoryTotals) float64 {
	observed := c.Online + c.Offline
	if observed == 0 {
		return 0
	}
	return float64(c.Online) * 100 / float64(observed)
}

// BuildSummaryPDF renders totals and the per-month offline table.
func BuildSummaryPDF(data *models.ChartData, generated time.Time) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "Uptime Report")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Generated: %s", generated.Format(time.RFC3339)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Availability: %.2f%%", Availability(data.Count)))
	pdf.Ln(8)

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(40, 6, "Status", "1", 0, "C", false, 0, "")
	pdf.CellFormat(40, 6, "Minutes", "1", 0, "C", false, 0, "")
	pdf.CellFormat(60, 6, "Duration", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	for _, row := range totalRows(data.Count) {
		pdf.CellFormat(40, 6, row.label, "1", 0, "L", false, 0, "")
		pdf.CellFormat(40, 6, fmt.Sprintf("%d", row.minutes), "1", 0, "R", false, 0, "")
		pdf.CellFormat(60, 6, stats.FormatMinutes(row.minutes), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	pdf.Ln(6)
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(40, 6, "Month", "1", 0, "C", false, 0, "")
	pdf.CellFormat(40, 6, "Offline (min)", "1", 0, "C", false, 0, "")
	pdf.CellFormat(60, 6, "Offline", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	for _, m := range MonthlyOffline(data.Chart) {
		pdf.CellFormat(40, 6, m.Month, "1", 0, "C", false, 0, "")
		pdf.CellFormat(40, 6, fmt.Sprintf("%d", m.Minutes), "1", 0, "R", false, 0, "")
		pdf.CellFormat(60, 6, stats.FormatMinutes(m.Minutes), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildHeatmapXLSX renders a summary sheet plus one sheet of daily offline minutes per year.
func BuildHeatmapXLSX(data *models.ChartData, generated time.Time) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	summarySheet := "summary"
	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, err
	}

	_ = f.SetCellValue(summarySheet, "A1", "Uptime Report")
	_ = f.SetCellValue(summarySheet, "A2", "Generated")
	_ = f.SetCellValue(summarySheet, "B2", generated.Format(time.RFC3339))
	_ = f.SetCellValue(summarySheet, "A4", "Status")
	_ = f.SetCellValue(summarySheet, "B4", "Minutes")
	_ = f.SetCellValue(summarySheet, "C4", "Duration")
	for i, row := range totalRows(data.Count) {
		r := i + 5
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("A%d", r), row.label)
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("B%d", r), row.minutes)
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("C%d", r), stats.FormatMinutes(row.minutes))
	}
	_ = f.SetCellValue(summarySheet, "A9", "Availability (%)")
	_ = f.SetCellValue(summarySheet, "B9", Availability(data.Count))

	for _, year := range data.Chart {
		if _, err := f.NewSheet(year.Year); err != nil {
			return nil, err
		}
		_ = f.SetCellValue(year.Year, "A1", "Date")
		_ = f.SetCellValue(year.Year, "B1", "Offline (min)")
		for i, day := range year.Days {
			r := i + 2
			_ = f.SetCellValue(year.Year, fmt.Sprintf("A%d", r), day.Date)
			_ = f.SetCellValue(year.Year, fmt.Sprintf("B%d", r), day.Minutes)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type totalRow struct {
	label   string
	minutes int
}

func totalRows(c models.CategoryTotals) []totalRow {
	return []totalRow{
		{string(models.StatusOnline), c.Online},
		{string(models.StatusOffline), c.Offline},
		{string(models.StatusUnknown), c.Unknown},
	}
}

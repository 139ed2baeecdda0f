// Package report renders reconciled attendance calendars as XLSX
// spreadsheets with summary counts and charts.
package report

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/kozaktomas/face-attendance/internal/attendance"
)

const sheetName = "Attendance Report"

var headers = []string{
	"Employee Name", "Employee ID", "Department", "Date",
	"Check-in Time", "Status", "Status Value",
}

// statusValue maps a status to its numeric form for charting.
func statusValue(status string) int {
	if status == attendance.StatusPresent {
		return 1
	}
	return 0
}

// Build renders the entries for a single identity into a spreadsheet:
// one row per day, a summary block with Present/Absent counts, a pie chart
// over the distribution and a column chart over the per-date values.
func Build(identity attendance.Identity, entries []attendance.Entry) (*excelize.File, error) {
	f := excelize.NewFile()
	f.SetSheetName("Sheet1", sheetName)

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("creating header style: %w", err)
	}

	for col, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(sheetName, cell, header); err != nil {
			return nil, fmt.Errorf("writing header %q: %w", header, err)
		}
	}
	if err := f.SetCellStyle(sheetName, "A1", "G1", bold); err != nil {
		return nil, fmt.Errorf("styling header row: %w", err)
	}

	name := identity.DisplayName()
	present := 0
	for i, entry := range entries {
		row := i + 2
		if entry.Status == attendance.StatusPresent {
			present++
		}
		values := []any{
			name,
			identity.EmployeeID,
			identity.Department,
			entry.Date.Format(attendance.DateLayout),
			entry.CheckIn,
			entry.Status,
			statusValue(entry.Status),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			if err := f.SetCellValue(sheetName, cell, v); err != nil {
				return nil, fmt.Errorf("writing row %d: %w", row, err)
			}
		}
	}
	absent := len(entries) - present

	lastRow := len(entries) + 1
	summaryRow := lastRow + 3
	if err := f.SetCellValue(sheetName, fmt.Sprintf("A%d", summaryRow), "Summary"); err != nil {
		return nil, fmt.Errorf("writing summary: %w", err)
	}
	if err := f.SetCellStyle(sheetName, fmt.Sprintf("A%d", summaryRow), fmt.Sprintf("A%d", summaryRow), bold); err != nil {
		return nil, fmt.Errorf("styling summary: %w", err)
	}
	f.SetCellValue(sheetName, fmt.Sprintf("A%d", summaryRow+1), "Present")
	f.SetCellValue(sheetName, fmt.Sprintf("B%d", summaryRow+1), present)
	f.SetCellValue(sheetName, fmt.Sprintf("A%d", summaryRow+2), "Absent")
	f.SetCellValue(sheetName, fmt.Sprintf("B%d", summaryRow+2), absent)

	if len(entries) > 0 {
		if err := addCharts(f, lastRow, summaryRow); err != nil {
			return nil, err
		}
	}

	return f, nil
}

func addCharts(f *excelize.File, lastRow, summaryRow int) error {
	pie := &excelize.Chart{
		Type: excelize.Pie,
		Series: []excelize.ChartSeries{{
			Name:       fmt.Sprintf("'%s'!$A$%d", sheetName, summaryRow),
			Categories: fmt.Sprintf("'%s'!$A$%d:$A$%d", sheetName, summaryRow+1, summaryRow+2),
			Values:     fmt.Sprintf("'%s'!$B$%d:$B$%d", sheetName, summaryRow+1, summaryRow+2),
		}},
		Title: []excelize.RichTextRun{{Text: "Attendance Distribution"}},
	}
	if err := f.AddChart(sheetName, "I2", pie); err != nil {
		return fmt.Errorf("adding distribution chart: %w", err)
	}

	col := &excelize.Chart{
		Type: excelize.Col,
		Series: []excelize.ChartSeries{{
			Name:       fmt.Sprintf("'%s'!$G$1", sheetName),
			Categories: fmt.Sprintf("'%s'!$D$2:$D$%d", sheetName, lastRow),
			Values:     fmt.Sprintf("'%s'!$G$2:$G$%d", sheetName, lastRow),
		}},
		Title: []excelize.RichTextRun{{Text: "Date-wise Attendance"}},
		XAxis: excelize.ChartAxis{Title: []excelize.RichTextRun{{Text: "Date"}}},
		YAxis: excelize.ChartAxis{Title: []excelize.RichTextRun{{Text: "Present (1) / Absent (0)"}}},
	}
	if err := f.AddChart(sheetName, "I20", col); err != nil {
		return fmt.Errorf("adding date-wise chart: %w", err)
	}
	return nil
}

// Filename builds the download name for an export.
func Filename(employeeID string, start, end time.Time) string {
	return fmt.Sprintf("%s_%s_to_%s.xlsx",
		employeeID, start.Format(attendance.DateLayout), end.Format(attendance.DateLayout))
}

// Write renders the spreadsheet to w.
func Write(w io.Writer, identity attendance.Identity, entries []attendance.Entry) error {
	f, err := Build(identity, entries)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing spreadsheet: %w", err)
	}
	return nil
}

// Package report builds the monthly bookings workbook.
package report

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/xuri/excelize/v2"
)

// Export ranges. first_15 covers day 1-15 of the month, last_15 day 16 to
// the end, full_month the whole month.
const (
	RangeFirst15   = "first_15"
	RangeLast15    = "last_15"
	RangeFullMonth = "full_month"
)

// Export formats.
const (
	FormatCombined = "combined"
	FormatSeparate = "separate"
)

// Row is one bookings row feeding the workbook, already joined with its
// order's customer and agent.
type Row struct {
	Type         string // tour, transfer
	Date         string // yyyy-mm-dd
	AgentName    string
	CustomerName string
	Pax          string
	Hotel        string
	Detail       string
	SendTo       string
	Remark       string
	Cost         float64
	SellingPrice float64
}

// Filter is the active report filter selection. It only drives the file
// name; the caller applies the actual row filtering.
type Filter struct {
	Agents             []string
	TourRecipients     []string
	TransferRecipients []string
}

// RangeTag is the file name token for an export range.
func RangeTag(exportRange string) string {
	switch exportRange {
	case RangeFirst15:
		return "First15Days"
	case RangeLast15:
		return "Last15Days"
	default:
		return "FullMonth"
	}
}

// filterText names the filter selection for the file name. Multiple filters
// collapse into counts ("2agents-1tour"); a single filter uses its value,
// recipient values prefixed with their type.
func filterText(f Filter) string {
	agentCount := len(f.Agents)
	tourCount := len(f.TourRecipients)
	transferCount := len(f.TransferRecipients)
	total := agentCount + tourCount + transferCount

	switch {
	case total > 1:
		var parts []string
		if agentCount > 0 {
			parts = append(parts, fmt.Sprintf("%dagent%s", agentCount, plural(agentCount)))
		}
		if tourCount > 0 {
			parts = append(parts, fmt.Sprintf("%dtour%s", tourCount, plural(tourCount)))
		}
		if transferCount > 0 {
			parts = append(parts, fmt.Sprintf("%dtransfer%s", transferCount, plural(transferCount)))
		}
		text := parts[0]
		for _, p := range parts[1:] {
			text += "-" + p
		}
		return text
	case agentCount == 1:
		return f.Agents[0]
	case tourCount == 1:
		return "Tour" + f.TourRecipients[0]
	case transferCount == 1:
		return "Transfer" + f.TransferRecipients[0]
	default:
		return "All"
	}
}

func plural(n int) string {
	if n > 1 {
		return "s"
	}
	return ""
}

// Filename builds Report<FilterText><MonthName><Year><RangeTag><yyyyMMdd>.xlsx.
func Filename(f Filter, month time.Time, exportRange string, now time.Time) string {
	return fmt.Sprintf("Report%s%s%d%s%s.xlsx",
		filterText(f), month.Month().String(), month.Year(),
		RangeTag(exportRange), now.Format("20060102"))
}

// RangeBounds returns the inclusive date window of an export range within
// the month.
func RangeBounds(month time.Time, exportRange string) (start, end time.Time) {
	first := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)
	switch exportRange {
	case RangeFirst15:
		return first, time.Date(month.Year(), month.Month(), 15, 0, 0, 0, 0, time.UTC)
	case RangeLast15:
		return time.Date(month.Year(), month.Month(), 16, 0, 0, 0, 0, time.UTC), last
	default:
		return first, last
	}
}

// FilterRows keeps the rows whose date falls inside the export range.
// Rows without a parseable date are dropped.
func FilterRows(rows []Row, month time.Time, exportRange string) []Row {
	start, end := RangeBounds(month, exportRange)
	kept := make([]Row, 0, len(rows))
	for _, r := range rows {
		d, err := time.Parse("2006-01-02", r.Date)
		if err != nil {
			continue
		}
		if d.Before(start) || d.After(end) {
			continue
		}
		kept = append(kept, r)
	}
	return kept
}

var headers = []string{"#", "Type", "Agent", "Customer", "Pax", "Hotel", "Detail", "Send To", "Remark", "Cost", "Sell", "Profit"}

// Write renders the workbook to w. Combined format produces one sheet with
// rows grouped under date headings; separate format produces Tour Bookings
// and Transfer Bookings sheets. Rows must already be range-filtered.
func Write(w io.Writer, rows []Row, month time.Time, exportRange, format string) error {
	if len(rows) == 0 {
		return fmt.Errorf("no bookings to export")
	}

	f := excelize.NewFile()
	defer f.Close()

	if format == FormatSeparate {
		var tours, transfers []Row
		for _, r := range rows {
			if r.Type == "tour" {
				tours = append(tours, r)
			} else {
				transfers = append(transfers, r)
			}
		}
		first := true
		if len(tours) > 0 {
			if err := writeSheet(f, "Tour Bookings", tours, month, exportRange, first); err != nil {
				return err
			}
			first = false
		}
		if len(transfers) > 0 {
			if err := writeSheet(f, "Transfer Bookings", transfers, month, exportRange, first); err != nil {
				return err
			}
		}
	} else {
		if err := writeSheet(f, month.Month().String(), rows, month, exportRange, true); err != nil {
			return err
		}
	}

	return f.Write(w)
}

// writeSheet lays out one sheet: title rows, then per-date blocks with their
// own header row, then a totals row over everything.
func writeSheet(f *excelize.File, name string, rows []Row, month time.Time, exportRange string, first bool) error {
	if first {
		// excelize always starts with one default sheet
		if err := f.SetSheetName("Sheet1", name); err != nil {
			return err
		}
	} else {
		if _, err := f.NewSheet(name); err != nil {
			return err
		}
	}

	titleStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return err
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"6B7280"}},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return err
	}
	dateStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 12},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"E5E7EB"}},
	})
	if err != nil {
		return err
	}
	totalStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"FED7AA"}},
	})
	if err != nil {
		return err
	}

	lastCol, _ := excelize.ColumnNumberToName(len(headers))

	f.SetCellValue(name, "A1", "Bookings Report")
	f.SetCellStyle(name, "A1", "A1", titleStyle)
	f.MergeCell(name, "A1", lastCol+"1")

	f.SetCellValue(name, "A2", fmt.Sprintf("%s %d (%s)", month.Month(), month.Year(), RangeTag(exportRange)))
	f.SetCellStyle(name, "A2", "A2", titleStyle)
	f.MergeCell(name, "A2", lastCol+"2")

	byDate := map[string][]Row{}
	for _, r := range rows {
		byDate[r.Date] = append(byDate[r.Date], r)
	}
	dates := make([]string, 0, len(byDate))
	for d := range byDate {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	rowNum := 4
	var totalCost, totalSell float64
	for _, d := range dates {
		cell := fmt.Sprintf("A%d", rowNum)
		if t, err := time.Parse("2006-01-02", d); err == nil {
			f.SetCellValue(name, cell, t.Format("02/01/2006"))
		} else {
			f.SetCellValue(name, cell, d)
		}
		f.SetCellStyle(name, cell, cell, dateStyle)
		f.MergeCell(name, cell, fmt.Sprintf("%s%d", lastCol, rowNum))
		rowNum++

		for i, h := range headers {
			col, _ := excelize.ColumnNumberToName(i + 1)
			f.SetCellValue(name, fmt.Sprintf("%s%d", col, rowNum), h)
		}
		f.SetCellStyle(name, fmt.Sprintf("A%d", rowNum), fmt.Sprintf("%s%d", lastCol, rowNum), headerStyle)
		rowNum++

		for i, r := range byDate[d] {
			values := []any{i + 1, r.Type, r.AgentName, r.CustomerName, r.Pax, r.Hotel,
				r.Detail, r.SendTo, r.Remark, r.Cost, r.SellingPrice, r.SellingPrice - r.Cost}
			for j, v := range values {
				col, _ := excelize.ColumnNumberToName(j + 1)
				f.SetCellValue(name, fmt.Sprintf("%s%d", col, rowNum), v)
			}
			totalCost += r.Cost
			totalSell += r.SellingPrice
			rowNum++
		}
		rowNum++
	}

	rowNum++
	f.SetCellValue(name, fmt.Sprintf("A%d", rowNum), "Summary")
	f.MergeCell(name, fmt.Sprintf("A%d", rowNum), fmt.Sprintf("I%d", rowNum))
	f.SetCellValue(name, fmt.Sprintf("J%d", rowNum), totalCost)
	f.SetCellValue(name, fmt.Sprintf("K%d", rowNum), totalSell)
	f.SetCellValue(name, fmt.Sprintf("L%d", rowNum), totalSell-totalCost)
	f.SetCellStyle(name, fmt.Sprintf("A%d", rowNum), fmt.Sprintf("L%d", rowNum), totalStyle)

	f.SetColWidth(name, "A", "B", 10)
	f.SetColWidth(name, "C", "H", 18)
	f.SetColWidth(name, "I", "I", 14)
	f.SetColWidth(name, "J", "L", 12)
	return nil
}

package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sevensmile/backoffice/report"
)

// ExportBookingsReport streams the monthly bookings workbook
// @Summary      Export bookings report
// @Description  Excel workbook of the month's tour and transfer bookings. range picks the half-month window, format combined (one sheet grouped by date) or separate (Tour/Transfer sheets). agents filters on the order's agent, tour_recipients/transfer_recipients on the booking's send_to; each takes comma-separated values.
// @Tags         reports
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param        month                query     string  true   "Month as YYYY-MM"
// @Param        range                query     string  false  "first_15, last_15, or full_month (default)"
// @Param        format               query     string  false  "combined (default) or separate"
// @Param        agents               query     string  false  "Agent name filter, comma-separated"
// @Param        tour_recipients      query     string  false  "Tour send_to filter, comma-separated"
// @Param        transfer_recipients  query     string  false  "Transfer send_to filter, comma-separated"
// @Success      200  {string}  string  "xlsx file"
// @Failure      400  {object}  Response{error=string}
// @Router       /reports/bookings.xlsx [get]
// @Security     BasicAuth
func ExportBookingsReport(w http.ResponseWriter, r *http.Request) {
	month, err := time.Parse("2006-01", r.URL.Query().Get("month"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "month must be YYYY-MM")
		return
	}

	exportRange := r.URL.Query().Get("range")
	switch exportRange {
	case "", report.RangeFirst15, report.RangeLast15, report.RangeFullMonth:
	default:
		writeError(w, http.StatusBadRequest, "range must be first_15, last_15, or full_month")
		return
	}
	if exportRange == "" {
		exportRange = report.RangeFullMonth
	}

	format := r.URL.Query().Get("format")
	switch format {
	case "", report.FormatCombined, report.FormatSeparate:
	default:
		writeError(w, http.StatusBadRequest, "format must be combined or separate")
		return
	}
	if format == "" {
		format = report.FormatCombined
	}

	filter := report.Filter{
		Agents:             splitFilterValues(r.URL.Query().Get("agents")),
		TourRecipients:     splitFilterValues(r.URL.Query().Get("tour_recipients")),
		TransferRecipients: splitFilterValues(r.URL.Query().Get("transfer_recipients")),
	}

	rows, err := loadReportRows(month, filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	rows = report.FilterRows(rows, month, exportRange)
	if len(rows) == 0 {
		writeError(w, http.StatusNotFound, "no bookings to export")
		return
	}

	filename := report.Filename(filter, month, exportRange, time.Now())
	w.Header().Set("Content-Type",
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))

	if err := report.Write(w, rows, month, exportRange, format); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func splitFilterValues(raw string) []string {
	if raw == "" {
		return nil
	}
	var values []string
	for _, v := range strings.Split(raw, ",") {
		if v = strings.TrimSpace(v); v != "" {
			values = append(values, v)
		}
	}
	return values
}

// loadReportRows joins the month's tour and transfer bookings with their
// order's customer and agent, applying the agent/recipient filters in SQL.
func loadReportRows(month time.Time, filter report.Filter) ([]report.Row, error) {
	start := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, -1)

	rows := []report.Row{}

	load := func(query string, bookingType string, recipients []string, args []any) error {
		if len(filter.Agents) > 0 {
			query += " AND o.agent_name IN (?" + strings.Repeat(", ?", len(filter.Agents)-1) + ")"
			for _, a := range filter.Agents {
				args = append(args, a)
			}
		}
		if len(recipients) > 0 {
			query += " AND b.send_to IN (?" + strings.Repeat(", ?", len(recipients)-1) + ")"
			for _, rec := range recipients {
				args = append(args, rec)
			}
		}

		result, err := DB.Query(query, args...)
		if err != nil {
			return err
		}
		defer result.Close()

		for result.Next() {
			var row report.Row
			var first, last string
			var adt, chd, inf int
			if err := result.Scan(&row.Date, &first, &last, &row.AgentName, &row.Hotel,
				&row.Detail, &row.SendTo, &adt, &chd, &inf, &row.Cost, &row.SellingPrice); err != nil {
				return err
			}
			row.Type = bookingType
			row.CustomerName = strings.TrimSpace(first + " " + last)
			row.Pax = fmt.Sprintf("%d+%d+%d", adt, chd, inf)
			rows = append(rows, row)
		}
		return result.Err()
	}

	tourQuery := `SELECT COALESCE(b.tour_date, ''), o.first_name, COALESCE(o.last_name, ''),
			COALESCE(o.agent_name, ''), COALESCE(b.tour_hotel, ''), COALESCE(b.tour_detail, ''),
			COALESCE(b.send_to, ''), b.pax_adt, b.pax_chd, b.pax_inf, b.cost_price, b.selling_price
		FROM tour_bookings b JOIN orders o ON o.id = b.order_id
		WHERE b.tour_date >= ? AND b.tour_date <= ?`
	if err := load(tourQuery, "tour", filter.TourRecipients,
		[]any{start.Format("2006-01-02"), end.Format("2006-01-02")}); err != nil {
		return nil, err
	}

	transferQuery := `SELECT COALESCE(b.transfer_date, ''), o.first_name, COALESCE(o.last_name, ''),
			COALESCE(o.agent_name, ''), '', COALESCE(b.transfer_detail, ''),
			COALESCE(b.send_to, ''), b.pax_adt, b.pax_chd, b.pax_inf, b.cost_price, b.selling_price
		FROM transfer_bookings b JOIN orders o ON o.id = b.order_id
		WHERE b.transfer_date >= ? AND b.transfer_date <= ?`
	if err := load(transferQuery, "transfer", filter.TransferRecipients,
		[]any{start.Format("2006-01-02"), end.Format("2006-01-02")}); err != nil {
		return nil, err
	}

	return rows, nil
}

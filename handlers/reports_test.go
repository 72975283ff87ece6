package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

func seedTourBooking(t *testing.T, orderID int, date, sendTo string, cost, selling float64) {
	t.Helper()
	_, err := DB.Exec(`INSERT INTO tour_bookings (order_id, tour_date, tour_detail, send_to,
			pax_adt, cost_price, selling_price)
		VALUES (?, ?, 'Island tour', ?, 2, ?, ?)`, orderID, date, sendTo, cost, selling)
	if err != nil {
		t.Fatalf("seeding tour booking: %v", err)
	}
}

func seedTransferBooking(t *testing.T, orderID int, date, sendTo string, cost, selling float64) {
	t.Helper()
	_, err := DB.Exec(`INSERT INTO transfer_bookings (order_id, transfer_date, transfer_detail, send_to,
			pax_adt, cost_price, selling_price)
		VALUES (?, ?, 'Airport pickup', ?, 2, ?, ?)`, orderID, date, sendTo, cost, selling)
	if err != nil {
		t.Fatalf("seeding transfer booking: %v", err)
	}
}

func TestExportBookingsReport(t *testing.T) {
	r := setup(t)
	o1 := seedOrder(t, "Alice", "AgentOne")
	o2 := seedOrder(t, "Bob", "AgentTwo")
	seedTourBooking(t, o1, "2026-03-10", "Krabi Tours", 100, 150)
	seedTransferBooking(t, o2, "2026-03-20", "Shuttle Co", 40, 60)

	req := httptest.NewRequest(http.MethodGet, "/reports/bookings.xlsx?month=2026-03", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("export = %d (%s)", rec.Code, rec.Body.String())
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "ReportAllMarch2026FullMonth") {
		t.Errorf("Content-Disposition = %q", cd)
	}

	f, err := excelize.OpenReader(rec.Body)
	if err != nil {
		t.Fatalf("reading workbook: %v", err)
	}
	defer f.Close()
	rows, err := f.GetRows("March")
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	flat := ""
	for _, row := range rows {
		flat += strings.Join(row, "|") + "\n"
	}
	if !strings.Contains(flat, "Alice") || !strings.Contains(flat, "Bob") {
		t.Errorf("workbook missing customers:\n%s", flat)
	}
}

func TestExportBookingsReportRange(t *testing.T) {
	r := setup(t)
	o1 := seedOrder(t, "Alice", "AgentOne")
	seedTourBooking(t, o1, "2026-03-10", "Krabi Tours", 100, 150)
	seedTourBooking(t, o1, "2026-03-20", "Krabi Tours", 100, 150)

	req := httptest.NewRequest(http.MethodGet,
		"/reports/bookings.xlsx?month=2026-03&range=first_15", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("export = %d", rec.Code)
	}

	f, err := excelize.OpenReader(rec.Body)
	if err != nil {
		t.Fatalf("reading workbook: %v", err)
	}
	defer f.Close()
	rows, _ := f.GetRows("March")
	flat := ""
	for _, row := range rows {
		flat += strings.Join(row, "|") + "\n"
	}
	if !strings.Contains(flat, "10/03/2026") {
		t.Errorf("first half booking missing:\n%s", flat)
	}
	if strings.Contains(flat, "20/03/2026") {
		t.Errorf("second half booking leaked into first_15:\n%s", flat)
	}
}

func TestExportBookingsReportFilters(t *testing.T) {
	r := setup(t)
	o1 := seedOrder(t, "Alice", "AgentOne")
	o2 := seedOrder(t, "Bob", "AgentTwo")
	seedTourBooking(t, o1, "2026-03-10", "Krabi Tours", 100, 150)
	seedTourBooking(t, o2, "2026-03-11", "Krabi Tours", 100, 150)

	req := httptest.NewRequest(http.MethodGet,
		"/reports/bookings.xlsx?month=2026-03&agents=AgentOne", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("export = %d", rec.Code)
	}

	f, err := excelize.OpenReader(rec.Body)
	if err != nil {
		t.Fatalf("reading workbook: %v", err)
	}
	defer f.Close()
	rows, _ := f.GetRows("March")
	flat := ""
	for _, row := range rows {
		flat += strings.Join(row, "|") + "\n"
	}
	if !strings.Contains(flat, "Alice") {
		t.Errorf("filtered agent's booking missing:\n%s", flat)
	}
	if strings.Contains(flat, "Bob") {
		t.Errorf("other agent leaked through filter:\n%s", flat)
	}
}

func TestExportBookingsReportValidation(t *testing.T) {
	r := setup(t)

	for _, path := range []string{
		"/reports/bookings.xlsx",
		"/reports/bookings.xlsx?month=March",
		"/reports/bookings.xlsx?month=2026-03&range=half",
		"/reports/bookings.xlsx?month=2026-03&format=pdf",
	} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s = %d, want 400", path, rec.Code)
		}
	}

	// a month with no bookings has nothing to export
	req := httptest.NewRequest(http.MethodGet, "/reports/bookings.xlsx?month=2026-01", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("empty month = %d, want 404", rec.Code)
	}
}

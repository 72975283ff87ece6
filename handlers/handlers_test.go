package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/sevensmile/backoffice/db"
	"github.com/sevensmile/backoffice/models"
	"github.com/sevensmile/backoffice/storage"
)

// setup prepares an in-memory database and a local file store, wires the
// handler globals, and returns the API router.
func setup(t *testing.T) *chi.Mux {
	t.Helper()

	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	if err := db.Migrate(database); err != nil {
		t.Fatalf("migrating test database: %v", err)
	}

	files, err := storage.NewLocal(t.TempDir(), "/files")
	if err != nil {
		t.Fatalf("creating test file store: %v", err)
	}

	DB = database
	Files = files
	Sync = nil

	r := chi.NewRouter()
	r.Get("/orders", ListOrders)
	r.Post("/orders", CreateOrder)
	r.Get("/orders/{id}", GetOrder)
	r.Get("/orders/{id}/bookings", GetOrderBookings)
	r.Get("/orders/{orderID}/payment", GetOrderPayment)
	r.Get("/payments", ListPayments)
	r.Post("/payments", SavePayment)
	r.Get("/payments/eligible", ListEligiblePayments)
	r.Post("/payments/totals", ComputeSelectionTotals)
	r.Get("/payments/{id}", GetPayment)
	r.Patch("/payments/{id}/ref", UpdatePaymentRef)
	r.Patch("/payments/{id}/bookings/{index}/fee", UpdateBookingFee)
	r.Get("/payments/{id}/invoices", ListPaymentInvoices)
	r.Get("/invoices", ListInvoices)
	r.Post("/invoices", CreateInvoice)
	r.Get("/invoices/{id}", GetInvoice)
	r.Put("/invoices/{id}", UpdateInvoice)
	r.Patch("/invoices/{id}", PatchInvoice)
	r.Delete("/invoices/{id}", DeleteInvoice)
	r.Patch("/invoices/{id}/status", ToggleInvoiceStatus)
	r.Post("/invoices/{id}/attachments", UploadInvoiceAttachments)
	r.Delete("/invoices/{id}/attachments", DeleteInvoiceAttachment)
	r.Put("/invoices/{id}/status-attachments", SaveInvoiceStatusAndAttachments)
	r.Post("/invoices/{id}/recalculate", RecalculateInvoice)
	r.Post("/invoices/{id}/sort-payments", SortInvoicePayments)
	r.Get("/invoices/{id}/print", PrintInvoice)
	r.Get("/invoices/{id}/export.csv", ExportInvoiceCSV)
	r.Get("/information", ListInformation)
	r.Post("/information", CreateInformation)
	r.Put("/information/{id}", UpdateInformation)
	r.Delete("/information/{id}", DeleteInformation)
	r.Get("/reports/bookings.xlsx", ExportBookingsReport)
	r.Get("/dashboard", GetDashboard)
	return r
}

// doJSON performs a request with a JSON body and decodes the data envelope
// into out (when non-nil).
func doJSON(t *testing.T, r http.Handler, method, path string, body any, wantStatus int, out any) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshaling request body: %v", err)
		}
		reader = bytes.NewReader(b)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != wantStatus {
		t.Fatalf("%s %s = %d, want %d (body: %s)", method, path, rec.Code, wantStatus, rec.Body.String())
	}
	if out != nil {
		var envelope struct {
			Data  json.RawMessage `json:"data"`
			Error string          `json:"error"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
			t.Fatalf("decoding envelope: %v (body: %s)", err, rec.Body.String())
		}
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			t.Fatalf("decoding data: %v (data: %s)", err, envelope.Data)
		}
	}
}

// seedOrder inserts an order directly and returns its id.
func seedOrder(t *testing.T, firstName, agentName string) int {
	t.Helper()
	result, err := DB.Exec(`INSERT INTO orders (reference_id, first_name, agent_name, pax_adt)
		VALUES (?, ?, ?, 2)`, "REF-"+firstName, firstName, agentName)
	if err != nil {
		t.Fatalf("seeding order: %v", err)
	}
	id, _ := result.LastInsertId()
	return int(id)
}

// seedPayment saves a payment with one tour booking on the given date and
// returns its id.
func seedPayment(t *testing.T, r http.Handler, orderID int, date string, cost, selling float64) int {
	t.Helper()
	var p models.Payment
	doJSON(t, r, http.MethodPost, "/payments", models.PaymentInput{
		OrderID: orderID,
		Bookings: []models.BookingLine{{
			ID: fmt.Sprintf("tour_%d", orderID), Type: models.BookingTypeTour,
			Date: date, Detail: "City tour", Cost: cost, SellingPrice: selling, Quantity: 1,
		}},
	}, http.StatusOK, &p)
	return p.ID
}

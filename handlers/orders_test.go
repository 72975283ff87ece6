package handlers

import (
	"net/http"
	"testing"

	"github.com/sevensmile/backoffice/models"
)

func TestCreateOrderWithBookings(t *testing.T) {
	r := setup(t)

	var order models.Order
	doJSON(t, r, http.MethodPost, "/orders", map[string]any{
		"order": models.OrderInput{
			ReferenceID: "BK-1001", FirstName: "Alice", LastName: "Smith",
			AgentName: "AgentOne", PaxADT: 2, PaxCHD: 1,
		},
		"tours": []models.TourBooking{
			{TourDate: "2026-03-10", TourDetail: "Island tour", TourHotel: "Beach Resort",
				SendTo: "Krabi Tours", PaxADT: 2, PaxCHD: 1, CostPrice: 100, SellingPrice: 150},
		},
		"transfers": []models.TransferBooking{
			{TransferDate: "2026-03-09", TransferDetail: "Airport pickup",
				SendTo: "Shuttle Co", PaxADT: 2, CostPrice: 20, SellingPrice: 35},
		},
	}, http.StatusCreated, &order)

	if order.ReferenceID != "BK-1001" || order.PaxADT != 2 {
		t.Errorf("order = %+v", order)
	}

	var lines []models.BookingLine
	doJSON(t, r, http.MethodGet, "/orders/1/bookings", nil, http.StatusOK, &lines)
	if len(lines) != 2 {
		t.Fatalf("got %d booking lines, want 2", len(lines))
	}

	var tour, transfer *models.BookingLine
	for i := range lines {
		switch lines[i].Type {
		case models.BookingTypeTour:
			tour = &lines[i]
		case models.BookingTypeTransfer:
			transfer = &lines[i]
		}
	}
	if tour == nil || transfer == nil {
		t.Fatalf("lines = %+v", lines)
	}
	if tour.Hotel != "Beach Resort" || tour.PaxFormat != "2+1" || tour.Quantity != 1 {
		t.Errorf("tour line = %+v", tour)
	}
	if transfer.Hotel != "" || transfer.SendTo != "Shuttle Co" {
		t.Errorf("transfer line = %+v", transfer)
	}
}

func TestCreateOrderValidation(t *testing.T) {
	r := setup(t)
	doJSON(t, r, http.MethodPost, "/orders", map[string]any{
		"order": models.OrderInput{AgentName: "AgentOne"},
	}, http.StatusBadRequest, nil)
}

func TestListOrdersSearch(t *testing.T) {
	r := setup(t)
	seedOrder(t, "Alice", "AgentOne")
	seedOrder(t, "Bob", "AgentTwo")

	var orders []models.Order
	doJSON(t, r, http.MethodGet, "/orders?search=AgentTwo", nil, http.StatusOK, &orders)
	if len(orders) != 1 || orders[0].FirstName != "Bob" {
		t.Errorf("search result = %+v", orders)
	}

	doJSON(t, r, http.MethodGet, "/orders", nil, http.StatusOK, &orders)
	if len(orders) != 2 {
		t.Errorf("got %d orders, want 2", len(orders))
	}
}

func TestDashboard(t *testing.T) {
	r := setup(t)
	o1 := seedOrder(t, "Alice", "AgentOne")
	o2 := seedOrder(t, "Bob", "AgentTwo")
	p1 := seedPayment(t, r, o1, "2026-03-10", 100, 150)
	seedPayment(t, r, o2, "2026-03-11", 40, 60)
	doJSON(t, r, http.MethodPost, "/invoices", models.InvoiceInput{
		InvoiceName: "INV-001", InvoiceDate: "15/03/2026", PaymentIDs: []int{p1},
	}, http.StatusCreated, nil)

	var s struct {
		Orders             int `json:"orders"`
		Payments           int `json:"payments"`
		EligiblePayments   int `json:"eligible_payments"`
		Invoices           int `json:"invoices"`
		IncompleteInvoices int `json:"incomplete_invoices"`
	}
	doJSON(t, r, http.MethodGet, "/dashboard", nil, http.StatusOK, &s)
	if s.Orders != 2 || s.Payments != 2 || s.EligiblePayments != 1 {
		t.Errorf("summary = %+v", s)
	}
	if s.Invoices != 1 || s.IncompleteInvoices != 1 {
		t.Errorf("invoice counts = %+v", s)
	}
}

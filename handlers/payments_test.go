package handlers

import (
	"net/http"
	"testing"

	"github.com/sevensmile/backoffice/models"
)

func TestSavePaymentComputesTotals(t *testing.T) {
	r := setup(t)
	orderID := seedOrder(t, "Alice", "AgentOne")

	var p models.Payment
	doJSON(t, r, http.MethodPost, "/payments", models.PaymentInput{
		OrderID: orderID,
		Bookings: []models.BookingLine{
			{ID: "tour_1", Type: models.BookingTypeTour, Date: "2026-03-10", Cost: 100, SellingPrice: 150, Quantity: 1},
			{ID: "transfer_1", Type: models.BookingTypeTransfer, Date: "2026-03-12", Cost: 50, SellingPrice: 75, Quantity: 2},
		},
		Ref: "R-100",
	}, http.StatusOK, &p)

	if p.TotalCost != 200 || p.TotalSellingPrice != 300 || p.TotalProfit != 100 {
		t.Errorf("totals = %v/%v/%v, want 200/300/100", p.TotalCost, p.TotalSellingPrice, p.TotalProfit)
	}
	if p.Invoiced {
		t.Error("new payment should not be invoiced")
	}
	if p.Ref != "R-100" {
		t.Errorf("ref = %q", p.Ref)
	}
}

func TestSavePaymentUpsertsByOrder(t *testing.T) {
	r := setup(t)
	orderID := seedOrder(t, "Alice", "AgentOne")

	first := seedPayment(t, r, orderID, "2026-03-10", 100, 150)
	second := seedPayment(t, r, orderID, "2026-03-11", 200, 260)
	if first != second {
		t.Errorf("saving twice created payments %d and %d, want one row", first, second)
	}

	var p models.Payment
	doJSON(t, r, http.MethodGet, "/payments/1", nil, http.StatusOK, &p)
	if p.TotalCost != 200 {
		t.Errorf("cost after re-save = %v, want 200", p.TotalCost)
	}
}

func TestSavePaymentUnknownOrder(t *testing.T) {
	r := setup(t)
	doJSON(t, r, http.MethodPost, "/payments", models.PaymentInput{
		OrderID:  999,
		Bookings: []models.BookingLine{{Type: models.BookingTypeTour, Quantity: 1}},
	}, http.StatusNotFound, nil)
}

func TestListEligiblePaymentsGroupsByMonth(t *testing.T) {
	r := setup(t)
	o1 := seedOrder(t, "Alice", "AgentOne")
	o2 := seedOrder(t, "Bob", "AgentTwo")
	seedPayment(t, r, o1, "2026-02-10", 100, 150)
	seedPayment(t, r, o2, "2026-03-05", 100, 150)

	var groups []models.MonthGroup
	doJSON(t, r, http.MethodGet, "/payments/eligible", nil, http.StatusOK, &groups)
	if len(groups) != 2 {
		t.Fatalf("got %d groups, want 2", len(groups))
	}
	if groups[0].Month != "February 2026" || groups[1].Month != "March 2026" {
		t.Errorf("months = %q, %q", groups[0].Month, groups[1].Month)
	}
	if groups[0].Payments[0].DisplayName != "Alice" {
		t.Errorf("february payment = %+v", groups[0].Payments[0])
	}
}

func TestUpdateBookingFee(t *testing.T) {
	r := setup(t)
	orderID := seedOrder(t, "Alice", "AgentOne")
	seedPayment(t, r, orderID, "2026-03-10", 100, 150)

	var p models.Payment
	doJSON(t, r, http.MethodPatch, "/payments/1/bookings/0/fee",
		map[string]float64{"fee": 25}, http.StatusOK, &p)
	if p.Bookings[0].Fee != 25 {
		t.Errorf("fee = %v, want 25", p.Bookings[0].Fee)
	}
	// fees do not feed the cost/selling totals
	if p.TotalSellingPrice != 150 {
		t.Errorf("selling changed to %v after fee edit", p.TotalSellingPrice)
	}

	doJSON(t, r, http.MethodPatch, "/payments/1/bookings/5/fee",
		map[string]float64{"fee": 25}, http.StatusNotFound, nil)
}

func TestComputeSelectionTotals(t *testing.T) {
	r := setup(t)
	o1 := seedOrder(t, "Alice", "AgentOne")
	o2 := seedOrder(t, "Bob", "AgentTwo")
	p1 := seedPayment(t, r, o1, "2026-03-10", 100, 150)
	p2 := seedPayment(t, r, o2, "2026-03-11", 50, 150)

	var totals models.InvoiceTotals
	doJSON(t, r, http.MethodPost, "/payments/totals",
		map[string][]int{"payment_ids": {p1, p2}}, http.StatusOK, &totals)
	if totals.GrandTotal != 300 || totals.TotalCost != 150 || totals.TotalProfit != 150 {
		t.Errorf("totals = %+v", totals)
	}

	doJSON(t, r, http.MethodPost, "/payments/totals",
		map[string][]int{"payment_ids": {}}, http.StatusBadRequest, nil)
}

func TestGetOrderPayment(t *testing.T) {
	r := setup(t)
	orderID := seedOrder(t, "Alice", "AgentOne")

	doJSON(t, r, http.MethodGet, "/orders/1/payment", nil, http.StatusNotFound, nil)

	seedPayment(t, r, orderID, "2026-03-10", 100, 150)
	var p models.Payment
	doJSON(t, r, http.MethodGet, "/orders/1/payment", nil, http.StatusOK, &p)
	if p.OrderID != orderID {
		t.Errorf("order_id = %d, want %d", p.OrderID, orderID)
	}
}

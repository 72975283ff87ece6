package models

import "testing"

func TestComputeInvoiceTotals(t *testing.T) {
	payments := []*Payment{
		{Bookings: []BookingLine{{Cost: 100, SellingPrice: 150, Quantity: 1}}},
		{Bookings: []BookingLine{{Cost: 50, SellingPrice: 75, Quantity: 2}}},
		nil,
	}
	totals := ComputeInvoiceTotals(payments)
	if totals.TotalCost != 200 {
		t.Errorf("cost = %v, want 200", totals.TotalCost)
	}
	if totals.TotalSellingPrice != 300 {
		t.Errorf("selling = %v, want 300", totals.TotalSellingPrice)
	}
	if totals.GrandTotal != totals.TotalSellingPrice {
		t.Errorf("grand total %v != selling %v", totals.GrandTotal, totals.TotalSellingPrice)
	}
	if totals.TotalProfit != 100 {
		t.Errorf("profit = %v, want 100", totals.TotalProfit)
	}
}

func TestRound2(t *testing.T) {
	if got := Round2(10.006); got != 10.01 {
		t.Errorf("Round2(10.006) = %v", got)
	}
	if got := Round2(10.004); got != 10.0 {
		t.Errorf("Round2(10.004) = %v", got)
	}
	if got := Round2(1.0 / 3.0); got != 0.33 {
		t.Errorf("Round2(1/3) = %v", got)
	}
}

func TestCheckBounds(t *testing.T) {
	ok := InvoiceTotals{GrandTotal: 100}
	if err := ok.CheckBounds(); err != nil {
		t.Errorf("normal totals rejected: %v", err)
	}

	huge := InvoiceTotals{TotalSellingPrice: 2e38}
	if err := huge.CheckBounds(); err == nil {
		t.Error("oversized total accepted")
	}
}

func TestInvoiceInputValidate(t *testing.T) {
	valid := InvoiceInput{InvoiceName: "INV-001", InvoiceDate: "15/03/2026", PaymentIDs: []int{1, 2}}
	if msg := valid.Validate(); msg != "" {
		t.Errorf("valid input rejected: %s", msg)
	}

	tests := []struct {
		name  string
		input InvoiceInput
	}{
		{"missing name", InvoiceInput{InvoiceDate: "15/03/2026", PaymentIDs: []int{1}}},
		{"missing date", InvoiceInput{InvoiceName: "INV-001", PaymentIDs: []int{1}}},
		{"no payments", InvoiceInput{InvoiceName: "INV-001", InvoiceDate: "15/03/2026"}},
		{"duplicate payment", InvoiceInput{InvoiceName: "INV-001", InvoiceDate: "15/03/2026", PaymentIDs: []int{1, 1}}},
	}
	for _, tt := range tests {
		if msg := tt.input.Validate(); msg == "" {
			t.Errorf("%s: accepted", tt.name)
		}
	}
}

func TestNetTotal(t *testing.T) {
	inv := Invoice{DeductionAmount: 50}
	if got := inv.NetTotal(300); got != 250 {
		t.Errorf("NetTotal = %v, want 250", got)
	}

	var noDeduction Invoice
	if got := noDeduction.NetTotal(300); got != 300 {
		t.Errorf("NetTotal without deduction = %v, want 300", got)
	}
}

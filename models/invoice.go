package models

import (
	"fmt"
	"math"
	"time"
)

// MaxTotalValue is the largest magnitude any stored invoice total may take.
// Saves carrying a larger figure are rejected outright.
const MaxTotalValue = 1e38

// Invoice is a billing document referencing one or more payments. The order
// of PaymentIDs is meaningful: it drives the printed row order and is
// persisted verbatim. The stored totals are a snapshot taken at save time;
// displays recompute from live payment data instead.
type Invoice struct {
	ID                   int          `json:"id"`
	InvoiceName          string       `json:"invoice_name"`
	InvoiceDate          string       `json:"invoice_date"` // dd/mm/yyyy free text
	PaymentIDs           []int        `json:"payment_ids"`
	TotalAmount          float64      `json:"total_amount"`
	TotalCost            float64      `json:"total_cost"`
	TotalSellingPrice    float64      `json:"total_selling_price"`
	TotalProfit          float64      `json:"total_profit"`
	DeductionDescription string       `json:"deduction_description"`
	DeductionAmount      float64      `json:"deduction_amount"`
	Status               bool         `json:"status"` // complete / incomplete
	Attachments          []Attachment `json:"attachments"`
	CreatedAt            time.Time    `json:"created_at"`
	UpdatedAt            time.Time    `json:"updated_at"`
}

// InvoiceInput is used for creating an invoice and for editor saves.
type InvoiceInput struct {
	InvoiceName string `json:"invoice_name"`
	InvoiceDate string `json:"invoice_date"`
	PaymentIDs  []int  `json:"payment_ids"`
}

func (i *InvoiceInput) Validate() string {
	if i.InvoiceName == "" {
		return "invoice_name is required"
	}
	if i.InvoiceDate == "" {
		return "invoice_date is required"
	}
	if len(i.PaymentIDs) == 0 {
		return "select at least 1 payment"
	}
	seen := make(map[int]bool, len(i.PaymentIDs))
	for _, id := range i.PaymentIDs {
		if seen[id] {
			return fmt.Sprintf("duplicate payment id %d", id)
		}
		seen[id] = true
	}
	return ""
}

// InvoiceTotals carries the aggregate figures over a payment selection.
type InvoiceTotals struct {
	GrandTotal        float64 `json:"grand_total"`
	TotalCost         float64 `json:"total_cost"`
	TotalSellingPrice float64 `json:"total_selling_price"`
	TotalProfit       float64 `json:"total_profit"`
}

// ComputeInvoiceTotals sums every booking line of the given payments.
// grand_total equals total_selling_price; profit is selling minus cost.
func ComputeInvoiceTotals(payments []*Payment) InvoiceTotals {
	var t InvoiceTotals
	for _, p := range payments {
		if p == nil {
			continue
		}
		cost, selling, _ := ComputeBookingTotals(p.Bookings)
		t.TotalCost += cost
		t.TotalSellingPrice += selling
	}
	t.GrandTotal = t.TotalSellingPrice
	t.TotalProfit = t.TotalSellingPrice - t.TotalCost
	return t
}

// Round2 rounds to two decimal places, the precision stored totals use.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Rounded returns the totals rounded to storage precision.
func (t InvoiceTotals) Rounded() InvoiceTotals {
	return InvoiceTotals{
		GrandTotal:        Round2(t.GrandTotal),
		TotalCost:         Round2(t.TotalCost),
		TotalSellingPrice: Round2(t.TotalSellingPrice),
		TotalProfit:       Round2(t.TotalProfit),
	}
}

// CheckBounds rejects totals whose magnitude the database cannot hold.
func (t InvoiceTotals) CheckBounds() error {
	for _, v := range []float64{t.GrandTotal, t.TotalCost, t.TotalSellingPrice, t.TotalProfit} {
		if math.Abs(v) > MaxTotalValue {
			return fmt.Errorf("numeric value too high, cannot save")
		}
	}
	return nil
}

// NetTotal is the payable amount after deduction.
func (i *Invoice) NetTotal(grandTotal float64) float64 {
	return grandTotal - i.DeductionAmount
}

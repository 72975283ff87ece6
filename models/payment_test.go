package models

import (
	"reflect"
	"testing"
	"time"
)

func TestComputeBookingTotals(t *testing.T) {
	bookings := []BookingLine{
		{Type: BookingTypeTour, Cost: 100, SellingPrice: 150, Quantity: 1},
		{Type: BookingTypeTransfer, Cost: 50, SellingPrice: 75, Quantity: 2},
	}
	cost, selling, profit := ComputeBookingTotals(bookings)
	if cost != 200 {
		t.Errorf("cost = %v, want 200", cost)
	}
	if selling != 300 {
		t.Errorf("selling = %v, want 300", selling)
	}
	if profit != 100 {
		t.Errorf("profit = %v, want 100", profit)
	}
}

func TestComputeBookingTotalsEmpty(t *testing.T) {
	cost, selling, profit := ComputeBookingTotals(nil)
	if cost != 0 || selling != 0 || profit != 0 {
		t.Errorf("totals of no bookings = %v, %v, %v, want all zero", cost, selling, profit)
	}
}

func TestComputeBookingTotalsZeroQuantity(t *testing.T) {
	cost, selling, _ := ComputeBookingTotals([]BookingLine{
		{Type: BookingTypeTour, Cost: 100, SellingPrice: 150, Quantity: 0},
	})
	if cost != 0 || selling != 0 {
		t.Errorf("zero quantity line contributed cost=%v selling=%v", cost, selling)
	}
}

func TestDateRange(t *testing.T) {
	p := Payment{Bookings: []BookingLine{
		{Date: "2026-03-10"},
		{Date: "2026-03-05"},
		{Date: ""},
		{Date: "2026-03-20"},
	}}
	start, end, ok := p.DateRange()
	if !ok {
		t.Fatal("expected a date range")
	}
	if start.Format("2006-01-02") != "2026-03-05" {
		t.Errorf("start = %v", start)
	}
	if end.Format("2006-01-02") != "2026-03-20" {
		t.Errorf("end = %v", end)
	}

	var empty Payment
	if _, _, ok := empty.DateRange(); ok {
		t.Error("payment without bookings should have no date range")
	}
}

func TestDisplayName(t *testing.T) {
	tests := []struct {
		first, last, want string
	}{
		{"John", "Smith", "John Smith"},
		{"John", "", "John"},
		{"", "", "No Name"},
	}
	for _, tt := range tests {
		p := Payment{FirstName: tt.first, LastName: tt.last}
		if got := p.DisplayName(); got != tt.want {
			t.Errorf("DisplayName(%q, %q) = %q, want %q", tt.first, tt.last, got, tt.want)
		}
	}
}

func TestGroupEligibleByMonth(t *testing.T) {
	now := time.Date(2026, time.August, 29, 12, 0, 0, 0, time.UTC)
	payments := []Payment{
		{ID: 1, FirstName: "A", Bookings: []BookingLine{{Date: "2026-03-10"}}},
		{ID: 2, FirstName: "B", Bookings: []BookingLine{{Date: "2026-02-20"}}},
		{ID: 3, FirstName: "C", Invoiced: true, Bookings: []BookingLine{{Date: "2026-03-01"}}},
		{ID: 4, FirstName: "D"}, // no dates, falls into now's month
		{ID: 5, FirstName: "E", Bookings: []BookingLine{{Date: "2026-03-02"}}},
	}

	groups := GroupEligibleByMonth(payments, now)
	if len(groups) != 3 {
		t.Fatalf("got %d groups, want 3", len(groups))
	}
	if groups[0].Month != "February 2026" || groups[1].Month != "March 2026" || groups[2].Month != "August 2026" {
		t.Errorf("group order = %q, %q, %q", groups[0].Month, groups[1].Month, groups[2].Month)
	}
	// invoiced payment excluded
	for _, g := range groups {
		for _, p := range g.Payments {
			if p.ID == 3 {
				t.Error("invoiced payment 3 should not be eligible")
			}
		}
	}
	// March keeps input order: 1 before 5
	march := groups[1].Payments
	if len(march) != 2 || march[0].ID != 1 || march[1].ID != 5 {
		t.Errorf("march payments = %+v", march)
	}
}

func sortFixture() map[int]*Payment {
	return map[int]*Payment{
		1: {ID: 1, Bookings: []BookingLine{{Date: "2026-03-10"}, {Date: "2026-03-15"}}},
		2: {ID: 2, Bookings: []BookingLine{{Date: "2026-03-01"}}},
		3: {ID: 3}, // no dates
		4: {ID: 4, Bookings: []BookingLine{{Date: "2026-03-10"}, {Date: "2026-03-12"}}},
	}
}

func TestSortPaymentIDsByDate(t *testing.T) {
	byID := sortFixture()
	got := SortPaymentIDsByDate([]int{1, 2, 3, 4}, byID)
	// 2 (Mar 1), then 4 before 1 (same start Mar 10, earlier end), 3 last
	want := []int{2, 4, 1, 3}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("sorted = %v, want %v", got, want)
	}
}

func TestSortPaymentIDsByDateIdempotent(t *testing.T) {
	byID := sortFixture()
	once := SortPaymentIDsByDate([]int{3, 1, 4, 2}, byID)
	twice := SortPaymentIDsByDate(once, byID)
	if !reflect.DeepEqual(once, twice) {
		t.Errorf("sorting twice changed the order: %v then %v", once, twice)
	}
}

func TestSortPaymentIDsByDateDoesNotMutateInput(t *testing.T) {
	byID := sortFixture()
	input := []int{3, 1, 4, 2}
	SortPaymentIDsByDate(input, byID)
	if !reflect.DeepEqual(input, []int{3, 1, 4, 2}) {
		t.Errorf("input mutated: %v", input)
	}
}

func TestDiffPaymentIDs(t *testing.T) {
	removed, added := DiffPaymentIDs([]int{1, 2}, []int{2, 3})
	if !reflect.DeepEqual(removed, []int{1}) {
		t.Errorf("removed = %v, want [1]", removed)
	}
	if !reflect.DeepEqual(added, []int{3}) {
		t.Errorf("added = %v, want [3]", added)
	}

	removed, added = DiffPaymentIDs([]int{1, 2}, []int{2, 1})
	if len(removed) != 0 || len(added) != 0 {
		t.Errorf("reorder produced removed=%v added=%v", removed, added)
	}
}

func TestFormatPax(t *testing.T) {
	tests := []struct {
		adt, chd, inf int
		want          string
	}{
		{2, 1, 1, "2+1+1"},
		{2, 0, 1, "2+1"},
		{2, 0, 0, "2"},
		{0, 0, 0, "0"},
	}
	for _, tt := range tests {
		if got := FormatPax(tt.adt, tt.chd, tt.inf); got != tt.want {
			t.Errorf("FormatPax(%d, %d, %d) = %q, want %q", tt.adt, tt.chd, tt.inf, got, tt.want)
		}
	}
}

func TestPaymentInputValidate(t *testing.T) {
	input := PaymentInput{OrderID: 1, Bookings: []BookingLine{{Type: BookingTypeTour, Quantity: 1}}}
	if msg := input.Validate(); msg != "" {
		t.Errorf("valid input rejected: %s", msg)
	}

	input = PaymentInput{OrderID: 1}
	if msg := input.Validate(); msg == "" {
		t.Error("input without bookings accepted")
	}

	input = PaymentInput{OrderID: 1, Bookings: []BookingLine{{Type: "flight", Quantity: 1}}}
	if msg := input.Validate(); msg == "" {
		t.Error("unknown booking type accepted")
	}
}

package models

import (
	"sort"
	"time"
)

// Payment aggregates the bookings selected for billing against one order.
// Totals are always recomputed from the booking lines, never trusted from
// the caller.
type Payment struct {
	ID                int           `json:"id"`
	PaymentCode       string        `json:"payment_code"`
	OrderID           int           `json:"order_id"`
	FirstName         string        `json:"first_name"`
	LastName          string        `json:"last_name"`
	AgentName         string        `json:"agent_name"`
	Pax               string        `json:"pax"` // "ADT+CHD+INF"
	Bookings          []BookingLine `json:"bookings"`
	TotalCost         float64       `json:"total_cost"`
	TotalSellingPrice float64       `json:"total_selling_price"`
	TotalProfit       float64       `json:"total_profit"`
	Invoiced          bool          `json:"invoiced"`
	Ref               string        `json:"ref"`
	CreatedAt         time.Time     `json:"created_at"`
	UpdatedAt         time.Time     `json:"updated_at"`
}

// PaymentInput is used for saving a payment against an order.
type PaymentInput struct {
	OrderID  int           `json:"order_id"`
	Bookings []BookingLine `json:"bookings"`
	Ref      string        `json:"ref"`
}

func (p *PaymentInput) Validate() string {
	if p.OrderID <= 0 {
		return "order_id is required"
	}
	if len(p.Bookings) == 0 {
		return "select at least 1 booking"
	}
	for i := range p.Bookings {
		if msg := p.Bookings[i].Validate(); msg != "" {
			return msg
		}
	}
	return ""
}

// ComputeBookingTotals sums cost and selling price over the booking lines.
// total_cost = Σ(cost × quantity), total_selling_price = Σ(sellingPrice × quantity),
// total_profit = selling − cost. An empty list yields all zeroes.
func ComputeBookingTotals(bookings []BookingLine) (cost, selling, profit float64) {
	for _, b := range bookings {
		cost += b.Cost * float64(b.Quantity)
		selling += b.SellingPrice * float64(b.Quantity)
	}
	profit = selling - cost
	return cost, selling, profit
}

// DateRange returns the earliest and latest booking dates of the payment.
// ok is false when no booking carries a parseable date.
func (p *Payment) DateRange() (start, end time.Time, ok bool) {
	for i := range p.Bookings {
		d, valid := p.Bookings[i].ParsedDate()
		if !valid {
			continue
		}
		if !ok {
			start, end, ok = d, d, true
			continue
		}
		if d.Before(start) {
			start = d
		}
		if d.After(end) {
			end = d
		}
	}
	return start, end, ok
}

// DateRangeLabel renders the payment's booking span as "dd/mm/yyyy" or
// "dd/mm/yyyy - dd/mm/yyyy", empty when no dates exist.
func (p *Payment) DateRangeLabel() string {
	start, end, ok := p.DateRange()
	if !ok {
		return ""
	}
	if start.Equal(end) {
		return start.Format("02/01/2006")
	}
	return start.Format("02/01/2006") + " - " + end.Format("02/01/2006")
}

// DisplayName is the operator-facing customer label.
func (p *Payment) DisplayName() string {
	name := p.FirstName
	if p.LastName != "" {
		if name != "" {
			name += " "
		}
		name += p.LastName
	}
	if name == "" {
		return "No Name"
	}
	return name
}

// MonthGroup is one calendar month of invoice-eligible payments.
type MonthGroup struct {
	Month    string            `json:"month"` // "January 2006"
	Payments []EligiblePayment `json:"payments"`
}

// EligiblePayment is the builder's per-payment view item.
type EligiblePayment struct {
	ID          int    `json:"id"`
	DisplayName string `json:"display_name"`
	DateRange   string `json:"date_range"`
}

// GroupEligibleByMonth buckets non-invoiced payments by the calendar month of
// each payment's earliest booking date. Payments without any booking date fall
// into the month of now. Groups come back in chronological month order;
// within a group payments keep their input order.
func GroupEligibleByMonth(payments []Payment, now time.Time) []MonthGroup {
	type bucket struct {
		month time.Time
		items []EligiblePayment
	}
	buckets := map[string]*bucket{}

	for i := range payments {
		p := &payments[i]
		if p.Invoiced {
			continue
		}
		anchor := now
		if start, _, ok := p.DateRange(); ok {
			anchor = start
		}
		key := anchor.Format("January 2006")
		b, exists := buckets[key]
		if !exists {
			b = &bucket{month: time.Date(anchor.Year(), anchor.Month(), 1, 0, 0, 0, 0, time.UTC)}
			buckets[key] = b
		}
		b.items = append(b.items, EligiblePayment{
			ID:          p.ID,
			DisplayName: p.DisplayName(),
			DateRange:   p.DateRangeLabel(),
		})
	}

	groups := make([]MonthGroup, 0, len(buckets))
	months := make([]*bucket, 0, len(buckets))
	for _, b := range buckets {
		months = append(months, b)
	}
	sort.Slice(months, func(i, j int) bool { return months[i].month.Before(months[j].month) })
	for _, b := range months {
		groups = append(groups, MonthGroup{Month: b.month.Format("January 2006"), Payments: b.items})
	}
	return groups
}

// SortPaymentIDsByDate orders payment ids by earliest booking date ascending,
// ties broken by latest booking date ascending. Payments without dates sort
// last; the sort is stable, so applying it twice changes nothing.
func SortPaymentIDsByDate(ids []int, byID map[int]*Payment) []int {
	sorted := make([]int, len(ids))
	copy(sorted, ids)

	type span struct {
		start, end time.Time
		ok         bool
	}
	spans := make(map[int]span, len(sorted))
	for _, id := range sorted {
		if p, exists := byID[id]; exists {
			s, e, ok := p.DateRange()
			spans[id] = span{start: s, end: e, ok: ok}
		}
	}

	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := spans[sorted[i]], spans[sorted[j]]
		if a.ok != b.ok {
			return a.ok // dated payments before undated ones
		}
		if !a.ok {
			return false
		}
		if !a.start.Equal(b.start) {
			return a.start.Before(b.start)
		}
		return a.end.Before(b.end)
	})
	return sorted
}

// DiffPaymentIDs compares an invoice's previous and new payment id sets and
// returns the ids that left (invoiced flag must reset) and the ids that joined
// (flag must be set). Ids present in both lists are untouched.
func DiffPaymentIDs(previous, current []int) (removed, added []int) {
	prev := make(map[int]bool, len(previous))
	for _, id := range previous {
		prev[id] = true
	}
	cur := make(map[int]bool, len(current))
	for _, id := range current {
		cur[id] = true
	}
	for _, id := range previous {
		if !cur[id] {
			removed = append(removed, id)
		}
	}
	for _, id := range current {
		if !prev[id] {
			added = append(added, id)
		}
	}
	return removed, added
}

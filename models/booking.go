package models

import (
	"strconv"
	"strings"
	"time"
)

// Booking line types. The common fields are shared; Hotel is only
// meaningful for tour lines and stays empty on transfers.
const (
	BookingTypeTour     = "tour"
	BookingTypeTransfer = "transfer"
)

// BookingLine is one tour or transfer service line inside a payment's
// bookings list. Stored as JSON on the payments row, in list order.
type BookingLine struct {
	ID           string  `json:"id"`
	DBKey        int     `json:"dbKey"` // source tour_bookings/transfer_bookings id
	Type         string  `json:"type"`  // tour, transfer
	Date         string  `json:"date"`  // yyyy-mm-dd
	Detail       string  `json:"detail"`
	Hotel        string  `json:"hotel,omitempty"`
	SendTo       string  `json:"sendTo"`
	Pax          int     `json:"pax"`
	PaxFormat    string  `json:"paxFormat"`
	Cost         float64 `json:"cost"`
	Quantity     int     `json:"quantity"`
	SellingPrice float64 `json:"sellingPrice"`
	Fee          float64 `json:"fee"`
	Status       string  `json:"status"` // paid, notPaid
	Remark       string  `json:"remark"`
}

func (b *BookingLine) Validate() string {
	switch b.Type {
	case BookingTypeTour, BookingTypeTransfer:
	default:
		return "booking type must be one of: tour, transfer"
	}
	if b.Quantity < 0 {
		return "booking quantity must be non-negative"
	}
	if b.Date != "" {
		if _, err := time.Parse("2006-01-02", b.Date); err != nil {
			return "booking date must be yyyy-mm-dd"
		}
	}
	return ""
}

// ParsedDate returns the booking's service date, false when absent or malformed.
func (b *BookingLine) ParsedDate() (time.Time, bool) {
	if b.Date == "" {
		return time.Time{}, false
	}
	t, err := time.Parse("2006-01-02", b.Date)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// FormatPax renders passenger counts as "ADT+CHD+INF", skipping zero
// groups. All-zero counts render as "0".
func FormatPax(adt, chd, inf int) string {
	var parts []string
	for _, n := range []int{adt, chd, inf} {
		if n > 0 {
			parts = append(parts, strconv.Itoa(n))
		}
	}
	if len(parts) == 0 {
		return "0"
	}
	return strings.Join(parts, "+")
}

package models

import "time"

// Order is the customer booking an agent sent in. Payments hang off orders
// one-to-one.
type Order struct {
	ID          int       `json:"id"`
	ReferenceID string    `json:"reference_id"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	AgentName   string    `json:"agent_name"`
	PaxADT      int       `json:"pax_adt"`
	PaxCHD      int       `json:"pax_chd"`
	PaxINF      int       `json:"pax_inf"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TourBooking is a source tour service row belonging to an order.
type TourBooking struct {
	ID            int       `json:"id"`
	OrderID       int       `json:"order_id"`
	TourDate      string    `json:"tour_date"`
	TourDetail    string    `json:"tour_detail"`
	TourHotel     string    `json:"tour_hotel"`
	SendTo        string    `json:"send_to"`
	PaxADT        int       `json:"pax_adt"`
	PaxCHD        int       `json:"pax_chd"`
	PaxINF        int       `json:"pax_inf"`
	CostPrice     float64   `json:"cost_price"`
	SellingPrice  float64   `json:"selling_price"`
	PaymentStatus string    `json:"payment_status"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// TransferBooking is a source transfer service row belonging to an order.
type TransferBooking struct {
	ID             int       `json:"id"`
	OrderID        int       `json:"order_id"`
	TransferDate   string    `json:"transfer_date"`
	TransferDetail string    `json:"transfer_detail"`
	SendTo         string    `json:"send_to"`
	PaxADT         int       `json:"pax_adt"`
	PaxCHD         int       `json:"pax_chd"`
	PaxINF         int       `json:"pax_inf"`
	CostPrice      float64   `json:"cost_price"`
	SellingPrice   float64   `json:"selling_price"`
	PaymentStatus  string    `json:"payment_status"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// OrderInput is used for creating/updating orders.
type OrderInput struct {
	ReferenceID string `json:"reference_id"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	AgentName   string `json:"agent_name"`
	PaxADT      int    `json:"pax_adt"`
	PaxCHD      int    `json:"pax_chd"`
	PaxINF      int    `json:"pax_inf"`
}

func (o *OrderInput) Validate() string {
	if o.FirstName == "" {
		return "first_name is required"
	}
	if o.PaxADT < 0 || o.PaxCHD < 0 || o.PaxINF < 0 {
		return "pax counts must be non-negative"
	}
	return ""
}

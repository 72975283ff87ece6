package handlers

import (
	"net/http"
	"time"
)

type dashboardSummary struct {
	Orders             int     `json:"orders"`
	Payments           int     `json:"payments"`
	EligiblePayments   int     `json:"eligible_payments"`
	Invoices           int     `json:"invoices"`
	IncompleteInvoices int     `json:"incomplete_invoices"`
	MonthCost          float64 `json:"month_cost"`
	MonthSellingPrice  float64 `json:"month_selling_price"`
	MonthProfit        float64 `json:"month_profit"`
}

// GetDashboard returns the back-office landing numbers
// @Summary      Dashboard summary
// @Description  Entity counts plus the current month's booking totals.
// @Tags         dashboard
// @Produce      json
// @Success      200  {object}  Response{data=handlers.dashboardSummary}
// @Router       /dashboard [get]
// @Security     BasicAuth
func GetDashboard(w http.ResponseWriter, r *http.Request) {
	var s dashboardSummary

	counts := []struct {
		query string
		dest  *int
	}{
		{"SELECT COUNT(*) FROM orders", &s.Orders},
		{"SELECT COUNT(*) FROM payments", &s.Payments},
		{"SELECT COUNT(*) FROM payments WHERE invoiced = 0", &s.EligiblePayments},
		{"SELECT COUNT(*) FROM invoices", &s.Invoices},
		{"SELECT COUNT(*) FROM invoices WHERE status = 0", &s.IncompleteInvoices},
	}
	for _, c := range counts {
		if err := DB.QueryRow(c.query).Scan(c.dest); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
	}

	now := time.Now()
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).Format("2006-01-02")
	end := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, -1).Format("2006-01-02")

	err := DB.QueryRow(`SELECT
			COALESCE(SUM(cost_price), 0), COALESCE(SUM(selling_price), 0)
		FROM (
			SELECT cost_price, selling_price FROM tour_bookings WHERE tour_date BETWEEN ? AND ?
			UNION ALL
			SELECT cost_price, selling_price FROM transfer_bookings WHERE transfer_date BETWEEN ? AND ?
		)`, start, end, start, end).Scan(&s.MonthCost, &s.MonthSellingPrice)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.MonthProfit = s.MonthSellingPrice - s.MonthCost

	writeJSON(w, http.StatusOK, s)
}

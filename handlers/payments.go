package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sevensmile/backoffice/models"
)

const paymentSelectQuery = `SELECT id, payment_code, order_id, first_name, last_name, agent_name, pax,
	bookings, total_cost, total_selling_price, total_profit, invoiced, COALESCE(ref, ''), created_at, updated_at
	FROM payments`

func scanPayment(scanner interface{ Scan(...any) error }) (models.Payment, error) {
	var p models.Payment
	var bookingsJSON string
	err := scanner.Scan(&p.ID, &p.PaymentCode, &p.OrderID, &p.FirstName, &p.LastName, &p.AgentName,
		&p.Pax, &bookingsJSON, &p.TotalCost, &p.TotalSellingPrice, &p.TotalProfit, &p.Invoiced,
		&p.Ref, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return p, err
	}
	if err := json.Unmarshal([]byte(bookingsJSON), &p.Bookings); err != nil {
		return p, fmt.Errorf("decoding bookings of payment %d: %w", p.ID, err)
	}
	if p.Bookings == nil {
		p.Bookings = []models.BookingLine{}
	}
	return p, nil
}

func getPaymentByID(id int) (models.Payment, error) {
	return scanPayment(DB.QueryRow(paymentSelectQuery+" WHERE id = ?", id))
}

func queryPayments(query string, args ...any) ([]models.Payment, error) {
	rows, err := DB.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []models.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	if payments == nil {
		payments = []models.Payment{}
	}
	return payments, rows.Err()
}

// paymentsByID loads the referenced payments keyed by id. Missing ids are
// simply absent from the map.
func paymentsByID(ids []int) (map[int]*models.Payment, error) {
	byID := make(map[int]*models.Payment, len(ids))
	for _, id := range ids {
		if _, dup := byID[id]; dup {
			continue
		}
		p, err := getPaymentByID(id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				continue
			}
			return nil, err
		}
		cp := p
		byID[id] = &cp
	}
	return byID, nil
}

// ListPayments lists all payments
// @Summary      List payments
// @Description  Get all payments, optionally filtered by invoiced flag.
// @Tags         payments
// @Produce      json
// @Param        invoiced  query     bool  false  "Filter by invoiced flag"
// @Success      200       {object}  Response{data=[]models.Payment}
// @Router       /payments [get]
// @Security     BasicAuth
func ListPayments(w http.ResponseWriter, r *http.Request) {
	query := paymentSelectQuery
	var args []any
	if inv := r.URL.Query().Get("invoiced"); inv != "" {
		flag, err := strconv.ParseBool(inv)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invoiced must be true or false")
			return
		}
		query += " WHERE invoiced = ?"
		args = append(args, flag)
	}
	query += " ORDER BY created_at DESC"

	payments, err := queryPayments(query, args...)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, payments)
}

// GetPayment retrieves a single payment by ID
// @Summary      Get payment
// @Tags         payments
// @Produce      json
// @Param        id   path      int  true  "Payment ID"
// @Success      200  {object}  Response{data=models.Payment}
// @Failure      404  {object}  Response{error=string}
// @Router       /payments/{id} [get]
// @Security     BasicAuth
func GetPayment(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(chi.URLParam(r, "id"))
	p, err := getPaymentByID(id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeError(w, http.StatusNotFound, "payment not found")
		} else {
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// GetOrderPayment retrieves the payment attached to an order
// @Summary      Get payment by order
// @Description  Fetch the payment saved against a specific order, if any.
// @Tags         payments
// @Produce      json
// @Param        orderID  path      int  true  "Order ID"
// @Success      200      {object}  Response{data=models.Payment}
// @Failure      404      {object}  Response{error=string}
// @Router       /orders/{orderID}/payment [get]
// @Security     BasicAuth
func GetOrderPayment(w http.ResponseWriter, r *http.Request) {
	orderID, _ := strconv.Atoi(chi.URLParam(r, "orderID"))
	p, err := scanPayment(DB.QueryRow(paymentSelectQuery+" WHERE order_id = ?", orderID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeError(w, http.StatusNotFound, "no payment for this order")
		} else {
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// SavePayment creates or replaces the payment for an order
// @Summary      Save payment
// @Description  Upsert the payment for an order from its selected bookings. Totals are recomputed server-side. Invoices referencing the payment get their stored totals recalculated afterwards; individual recalculation failures are logged, not surfaced.
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        payment  body      models.PaymentInput  true  "Payment contents"
// @Success      200      {object}  Response{data=models.Payment}
// @Failure      400      {object}  Response{error=string}
// @Failure      404      {object}  Response{error=string}
// @Router       /payments [post]
// @Security     BasicAuth
func SavePayment(w http.ResponseWriter, r *http.Request) {
	var input models.PaymentInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if msg := input.Validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	order, err := getOrderByID(input.OrderID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeError(w, http.StatusNotFound, "order not found")
		} else {
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	cost, selling, profit := models.ComputeBookingTotals(input.Bookings)
	bookingsJSON, err := json.Marshal(input.Bookings)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	code := "P_" + order.ReferenceID
	if order.ReferenceID == "" {
		code = fmt.Sprintf("P_%d", order.ID)
	}
	pax := models.FormatPax(order.PaxADT, order.PaxCHD, order.PaxINF)

	// Editing a payment never touches its invoiced flag.
	_, err = DB.Exec(`INSERT INTO payments (payment_code, order_id, first_name, last_name, agent_name, pax,
			bookings, total_cost, total_selling_price, total_profit, ref)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(order_id) DO UPDATE SET
			payment_code = excluded.payment_code,
			first_name = excluded.first_name,
			last_name = excluded.last_name,
			agent_name = excluded.agent_name,
			pax = excluded.pax,
			bookings = excluded.bookings,
			total_cost = excluded.total_cost,
			total_selling_price = excluded.total_selling_price,
			total_profit = excluded.total_profit,
			ref = excluded.ref,
			updated_at = CURRENT_TIMESTAMP`,
		code, order.ID, order.FirstName, order.LastName, order.AgentName, pax,
		string(bookingsJSON), cost, selling, profit, input.Ref)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	p, err := scanPayment(DB.QueryRow(paymentSelectQuery+" WHERE order_id = ?", order.ID))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to re-fetch saved payment: "+err.Error())
		return
	}

	updateRelatedInvoices(p.ID)
	Sync.SyncAsync("payments", "update", p, "id")

	writeJSON(w, http.StatusOK, p)
}

// updateRelatedInvoices recalculates the stored totals of every invoice
// referencing the payment. Failures are logged and skipped.
func updateRelatedInvoices(paymentID int) {
	invoices, err := findInvoicesByPaymentID(paymentID)
	if err != nil {
		slog.Error("finding related invoices failed", "payment_id", paymentID, "error", err)
		return
	}
	for _, inv := range invoices {
		if err := recalculateInvoiceTotals(inv.ID); err != nil {
			slog.Error("recalculating invoice failed", "invoice_id", inv.ID, "error", err)
		}
	}
}

// UpdatePaymentRef edits a payment's reference code
// @Summary      Update payment ref
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        id   path      int                true  "Payment ID"
// @Param        ref  body      object{ref=string} true  "New ref"
// @Success      200  {object}  Response{data=models.Payment}
// @Failure      404  {object}  Response{error=string}
// @Router       /payments/{id}/ref [patch]
// @Security     BasicAuth
func UpdatePaymentRef(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(chi.URLParam(r, "id"))
	var input struct {
		Ref string `json:"ref"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	res, err := DB.Exec("UPDATE payments SET ref = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?", input.Ref, id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		writeError(w, http.StatusNotFound, "payment not found")
		return
	}

	p, err := getPaymentByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// UpdateBookingFee corrects the fee on one booking line
// @Summary      Update booking fee
// @Description  Set the fee of one booking line inside a payment's bookings list. Fees are not part of the cost/selling totals, so stored payment totals are unchanged.
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        id     path      int                  true  "Payment ID"
// @Param        index  path      int                  true  "Booking line index"
// @Param        fee    body      object{fee=number}   true  "New fee"
// @Success      200    {object}  Response{data=models.Payment}
// @Failure      400    {object}  Response{error=string}
// @Failure      404    {object}  Response{error=string}
// @Router       /payments/{id}/bookings/{index}/fee [patch]
// @Security     BasicAuth
func UpdateBookingFee(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(chi.URLParam(r, "id"))
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid booking index")
		return
	}
	var input struct {
		Fee float64 `json:"fee"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	p, err := getPaymentByID(id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeError(w, http.StatusNotFound, "payment not found")
		} else {
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	if index < 0 || index >= len(p.Bookings) {
		writeError(w, http.StatusNotFound, "booking line not found")
		return
	}

	p.Bookings[index].Fee = input.Fee
	bookingsJSON, err := json.Marshal(p.Bookings)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if _, err := DB.Exec("UPDATE payments SET bookings = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
		string(bookingsJSON), id); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	p, err = getPaymentByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// ListEligiblePayments lists non-invoiced payments grouped by month
// @Summary      List eligible payments
// @Description  Payments not yet on any invoice, grouped by the calendar month of each payment's earliest booking date.
// @Tags         payments
// @Produce      json
// @Success      200  {object}  Response{data=[]models.MonthGroup}
// @Router       /payments/eligible [get]
// @Security     BasicAuth
func ListEligiblePayments(w http.ResponseWriter, r *http.Request) {
	payments, err := queryPayments(paymentSelectQuery + " WHERE invoiced = 0 ORDER BY created_at")
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, models.GroupEligibleByMonth(payments, time.Now()))
}

// ComputeSelectionTotals computes invoice totals over a payment selection
// @Summary      Compute selection totals
// @Description  Grand total, cost, selling price, and profit over the selected payments' booking lines. Used by the invoice builder's confirm step.
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        selection  body      object{payment_ids=[]int}  true  "Selected payment ids"
// @Success      200        {object}  Response{data=models.InvoiceTotals}
// @Failure      400        {object}  Response{error=string}
// @Router       /payments/totals [post]
// @Security     BasicAuth
func ComputeSelectionTotals(w http.ResponseWriter, r *http.Request) {
	var input struct {
		PaymentIDs []int `json:"payment_ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if len(input.PaymentIDs) == 0 {
		writeError(w, http.StatusBadRequest, "select at least 1 payment")
		return
	}

	byID, err := paymentsByID(input.PaymentIDs)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	selected := make([]*models.Payment, 0, len(input.PaymentIDs))
	for _, id := range input.PaymentIDs {
		if p, ok := byID[id]; ok {
			selected = append(selected, p)
		}
	}
	writeJSON(w, http.StatusOK, models.ComputeInvoiceTotals(selected))
}

// ListPaymentInvoices finds invoices referencing a payment
// @Summary      Find invoices by payment
// @Tags         payments
// @Produce      json
// @Param        id   path      int  true  "Payment ID"
// @Success      200  {object}  Response{data=[]models.Invoice}
// @Router       /payments/{id}/invoices [get]
// @Security     BasicAuth
func ListPaymentInvoices(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(chi.URLParam(r, "id"))
	invoices, err := findInvoicesByPaymentID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, invoices)
}

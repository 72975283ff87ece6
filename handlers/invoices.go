package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/sevensmile/backoffice/models"
)

const invoiceSelectQuery = `SELECT id, invoice_name, COALESCE(invoice_date, ''), payment_ids,
	total_amount, total_cost, total_selling_price, total_profit,
	deduction_description, deduction_amount, status, attachments, created_at, updated_at
	FROM invoices`

func scanInvoice(scanner interface{ Scan(...any) error }) (models.Invoice, error) {
	var inv models.Invoice
	var idsJSON, attachmentsJSON string
	err := scanner.Scan(&inv.ID, &inv.InvoiceName, &inv.InvoiceDate, &idsJSON,
		&inv.TotalAmount, &inv.TotalCost, &inv.TotalSellingPrice, &inv.TotalProfit,
		&inv.DeductionDescription, &inv.DeductionAmount, &inv.Status, &attachmentsJSON,
		&inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		return inv, err
	}
	if err := json.Unmarshal([]byte(idsJSON), &inv.PaymentIDs); err != nil {
		return inv, fmt.Errorf("decoding payment_ids of invoice %d: %w", inv.ID, err)
	}
	if err := json.Unmarshal([]byte(attachmentsJSON), &inv.Attachments); err != nil {
		return inv, fmt.Errorf("decoding attachments of invoice %d: %w", inv.ID, err)
	}
	if inv.PaymentIDs == nil {
		inv.PaymentIDs = []int{}
	}
	if inv.Attachments == nil {
		inv.Attachments = []models.Attachment{}
	}
	return inv, nil
}

func getInvoiceByID(id int) (models.Invoice, error) {
	return scanInvoice(DB.QueryRow(invoiceSelectQuery+" WHERE id = ?", id))
}

// findInvoicesByPaymentID returns every invoice whose payment_ids list
// contains the given payment.
func findInvoicesByPaymentID(paymentID int) ([]models.Invoice, error) {
	rows, err := DB.Query(invoiceSelectQuery+
		" WHERE EXISTS (SELECT 1 FROM json_each(invoices.payment_ids) WHERE json_each.value = ?)"+
		" ORDER BY created_at DESC", paymentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var invoices []models.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		invoices = append(invoices, inv)
	}
	if invoices == nil {
		invoices = []models.Invoice{}
	}
	return invoices, rows.Err()
}

// invoiceLivePayments loads the invoice's payments preserving the stored
// id order. Payments deleted in the meantime are skipped.
func invoiceLivePayments(inv *models.Invoice) ([]models.Payment, []*models.Payment, error) {
	byID, err := paymentsByID(inv.PaymentIDs)
	if err != nil {
		return nil, nil, err
	}
	ordered := make([]models.Payment, 0, len(inv.PaymentIDs))
	refs := make([]*models.Payment, 0, len(inv.PaymentIDs))
	for _, id := range inv.PaymentIDs {
		if p, ok := byID[id]; ok {
			ordered = append(ordered, *p)
			refs = append(refs, p)
		}
	}
	return ordered, refs, nil
}

// invoiceDetail is the single-invoice response: the stored record plus
// totals recomputed from live payment data.
type invoiceDetail struct {
	models.Invoice
	Payments   []models.Payment     `json:"payments"`
	LiveTotals models.InvoiceTotals `json:"live_totals"`
	NetTotal   float64              `json:"net_total"`
}

// ListInvoices lists invoices, newest first
// @Summary      List invoices
// @Tags         invoices
// @Produce      json
// @Param        search  query     string  false  "Filter by invoice name or date substring"
// @Param        limit   query     int     false  "Maximum number of results"
// @Success      200     {object}  Response{data=[]models.Invoice}
// @Router       /invoices [get]
// @Security     BasicAuth
func ListInvoices(w http.ResponseWriter, r *http.Request) {
	query := invoiceSelectQuery
	var conditions []string
	var args []any

	if search := r.URL.Query().Get("search"); search != "" {
		conditions = append(conditions, "(invoice_name LIKE ? OR invoice_date LIKE ?)")
		args = append(args, "%"+search+"%", "%"+search+"%")
	}
	if len(conditions) > 0 {
		query += " WHERE " + conditions[0]
		for _, c := range conditions[1:] {
			query += " AND " + c
		}
	}
	query += " ORDER BY created_at DESC, id DESC"
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := DB.Query(query, args...)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	defer rows.Close()

	invoices := []models.Invoice{}
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		invoices = append(invoices, inv)
	}
	if err := rows.Err(); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, invoices)
}

// GetInvoice retrieves an invoice with live totals
// @Summary      Get invoice
// @Description  The stored invoice plus its payments in saved order and totals recomputed from current payment data. net_total is the live grand total minus the deduction.
// @Tags         invoices
// @Produce      json
// @Param        id   path      int  true  "Invoice ID"
// @Success      200  {object}  Response{data=handlers.invoiceDetail}
// @Failure      404  {object}  Response{error=string}
// @Router       /invoices/{id} [get]
// @Security     BasicAuth
func GetInvoice(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(chi.URLParam(r, "id"))
	inv, err := getInvoiceByID(id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeError(w, http.StatusNotFound, "invoice not found")
		} else {
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	payments, refs, err := invoiceLivePayments(&inv)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	live := models.ComputeInvoiceTotals(refs)

	writeJSON(w, http.StatusOK, invoiceDetail{
		Invoice:    inv,
		Payments:   payments,
		LiveTotals: live,
		NetTotal:   inv.NetTotal(live.GrandTotal),
	})
}

// CreateInvoice creates an invoice over a payment selection
// @Summary      Create invoice
// @Description  Saves the invoice with a snapshot of the selection's totals, then flags each referenced payment as invoiced. Flag updates are best-effort: a failure is logged and the remaining payments still get flagged.
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Param        invoice  body      models.InvoiceInput  true  "Invoice contents"
// @Success      201      {object}  Response{data=models.Invoice}
// @Failure      400      {object}  Response{error=string}
// @Router       /invoices [post]
// @Security     BasicAuth
func CreateInvoice(w http.ResponseWriter, r *http.Request) {
	var input models.InvoiceInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if msg := input.Validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	byID, err := paymentsByID(input.PaymentIDs)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	selected := make([]*models.Payment, 0, len(input.PaymentIDs))
	for _, id := range input.PaymentIDs {
		p, ok := byID[id]
		if !ok {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("payment %d not found", id))
			return
		}
		if p.Invoiced {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("payment %d is already invoiced", id))
			return
		}
		selected = append(selected, p)
	}

	totals := models.ComputeInvoiceTotals(selected).Rounded()
	if err := totals.CheckBounds(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	idsJSON, err := json.Marshal(input.PaymentIDs)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	result, err := DB.Exec(`INSERT INTO invoices (invoice_name, invoice_date, payment_ids,
			total_amount, total_cost, total_selling_price, total_profit)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		input.InvoiceName, input.InvoiceDate, string(idsJSON),
		totals.GrandTotal, totals.TotalCost, totals.TotalSellingPrice, totals.TotalProfit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	invoiceID, err := result.LastInsertId()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	updatePaymentsInvoiceStatus(input.PaymentIDs, true)

	inv, err := getInvoiceByID(int(invoiceID))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to re-fetch created invoice: "+err.Error())
		return
	}
	Sync.SyncAsync("invoices", "insert", inv, "id")

	writeJSON(w, http.StatusCreated, inv)
}

// updatePaymentsInvoiceStatus flips the invoiced flag on each payment.
// Individual failures are logged; the loop keeps going.
func updatePaymentsInvoiceStatus(ids []int, invoiced bool) {
	for _, id := range ids {
		_, err := DB.Exec("UPDATE payments SET invoiced = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?", invoiced, id)
		if err != nil {
			slog.Error("updating payment invoiced flag failed",
				"payment_id", id, "invoiced", invoiced, "error", err)
		}
	}
}

// UpdateInvoice replaces an invoice from the editor
// @Summary      Update invoice
// @Description  Full editor save: name, date, and the payment id list in the editor's order. Totals are recomputed over the new selection. Payments removed from the list get their invoiced flag reset, newly added ones get it set.
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Param        id       path      int                  true  "Invoice ID"
// @Param        invoice  body      models.InvoiceInput  true  "Invoice contents"
// @Success      200      {object}  Response{data=models.Invoice}
// @Failure      400      {object}  Response{error=string}
// @Failure      404      {object}  Response{error=string}
// @Router       /invoices/{id} [put]
// @Security     BasicAuth
func UpdateInvoice(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(chi.URLParam(r, "id"))
	var input models.InvoiceInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if msg := input.Validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	existing, err := getInvoiceByID(id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeError(w, http.StatusNotFound, "invoice not found")
		} else {
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	byID, err := paymentsByID(input.PaymentIDs)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	selected := make([]*models.Payment, 0, len(input.PaymentIDs))
	for _, pid := range input.PaymentIDs {
		p, ok := byID[pid]
		if !ok {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("payment %d not found", pid))
			return
		}
		selected = append(selected, p)
	}

	totals := models.ComputeInvoiceTotals(selected).Rounded()
	if err := totals.CheckBounds(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	// The id order is the editor's order; it must round-trip untouched.
	idsJSON, err := json.Marshal(input.PaymentIDs)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	_, err = DB.Exec(`UPDATE invoices SET invoice_name = ?, invoice_date = ?, payment_ids = ?,
			total_amount = ?, total_cost = ?, total_selling_price = ?, total_profit = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		input.InvoiceName, input.InvoiceDate, string(idsJSON),
		totals.GrandTotal, totals.TotalCost, totals.TotalSellingPrice, totals.TotalProfit, id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	removed, added := models.DiffPaymentIDs(existing.PaymentIDs, input.PaymentIDs)
	updatePaymentsInvoiceStatus(removed, false)
	updatePaymentsInvoiceStatus(added, true)

	inv, err := getInvoiceByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	Sync.SyncAsync("invoices", "update", inv, "id")

	writeJSON(w, http.StatusOK, inv)
}

// PatchInvoice edits invoice fields in place
// @Summary      Patch invoice
// @Description  Partial update of invoice_date, deduction_description, and deduction_amount. Omitted fields keep their value.
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Param        id     path      int  true  "Invoice ID"
// @Param        patch  body      object{invoice_date=string,deduction_description=string,deduction_amount=number}  true  "Fields to change"
// @Success      200    {object}  Response{data=models.Invoice}
// @Failure      404    {object}  Response{error=string}
// @Router       /invoices/{id} [patch]
// @Security     BasicAuth
func PatchInvoice(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(chi.URLParam(r, "id"))
	var input struct {
		InvoiceDate          *string  `json:"invoice_date"`
		DeductionDescription *string  `json:"deduction_description"`
		DeductionAmount      *float64 `json:"deduction_amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	inv, err := getInvoiceByID(id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeError(w, http.StatusNotFound, "invoice not found")
		} else {
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	if input.InvoiceDate != nil {
		inv.InvoiceDate = *input.InvoiceDate
	}
	if input.DeductionDescription != nil {
		inv.DeductionDescription = *input.DeductionDescription
	}
	if input.DeductionAmount != nil {
		inv.DeductionAmount = *input.DeductionAmount
	}

	_, err = DB.Exec(`UPDATE invoices SET invoice_date = ?, deduction_description = ?,
			deduction_amount = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		inv.InvoiceDate, inv.DeductionDescription, inv.DeductionAmount, id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	inv, err = getInvoiceByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	Sync.SyncAsync("invoices", "update", inv, "id")

	writeJSON(w, http.StatusOK, inv)
}

// DeleteInvoice removes an invoice and frees its payments
// @Summary      Delete invoice
// @Description  Deletes the invoice and resets the invoiced flag on every payment it referenced, returning them to the eligible pool.
// @Tags         invoices
// @Produce      json
// @Param        id   path      int  true  "Invoice ID"
// @Success      200  {object}  Response{data=string}
// @Failure      404  {object}  Response{error=string}
// @Router       /invoices/{id} [delete]
// @Security     BasicAuth
func DeleteInvoice(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(chi.URLParam(r, "id"))
	inv, err := getInvoiceByID(id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeError(w, http.StatusNotFound, "invoice not found")
		} else {
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	if _, err := DB.Exec("DELETE FROM invoices WHERE id = ?", id); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	updatePaymentsInvoiceStatus(inv.PaymentIDs, false)
	Sync.SyncAsync("invoices", "delete", map[string]any{"id": id}, "id")

	writeJSON(w, http.StatusOK, "invoice deleted")
}

// recalculateInvoiceTotals refreshes the stored snapshot from live payment
// data. Used after a referenced payment changes.
func recalculateInvoiceTotals(invoiceID int) error {
	inv, err := getInvoiceByID(invoiceID)
	if err != nil {
		return err
	}
	_, refs, err := invoiceLivePayments(&inv)
	if err != nil {
		return err
	}
	totals := models.ComputeInvoiceTotals(refs).Rounded()
	if err := totals.CheckBounds(); err != nil {
		return err
	}
	_, err = DB.Exec(`UPDATE invoices SET total_amount = ?, total_cost = ?,
			total_selling_price = ?, total_profit = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		totals.GrandTotal, totals.TotalCost, totals.TotalSellingPrice, totals.TotalProfit, invoiceID)
	return err
}

// RecalculateInvoice refreshes the stored totals snapshot
// @Summary      Recalculate invoice totals
// @Tags         invoices
// @Produce      json
// @Param        id   path      int  true  "Invoice ID"
// @Success      200  {object}  Response{data=models.Invoice}
// @Failure      404  {object}  Response{error=string}
// @Router       /invoices/{id}/recalculate [post]
// @Security     BasicAuth
func RecalculateInvoice(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(chi.URLParam(r, "id"))
	if err := recalculateInvoiceTotals(id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeError(w, http.StatusNotFound, "invoice not found")
		} else {
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	inv, err := getInvoiceByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, inv)
}

// SortInvoicePayments reorders the invoice's payments by booking date
// @Summary      Sort invoice payments
// @Description  Reorders the stored payment id list by each payment's earliest booking date, ties broken by latest date. Payments without dates go last. Applying the sort twice changes nothing.
// @Tags         invoices
// @Produce      json
// @Param        id   path      int  true  "Invoice ID"
// @Success      200  {object}  Response{data=models.Invoice}
// @Failure      404  {object}  Response{error=string}
// @Router       /invoices/{id}/sort-payments [post]
// @Security     BasicAuth
func SortInvoicePayments(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(chi.URLParam(r, "id"))
	inv, err := getInvoiceByID(id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeError(w, http.StatusNotFound, "invoice not found")
		} else {
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	byID, err := paymentsByID(inv.PaymentIDs)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	sorted := models.SortPaymentIDsByDate(inv.PaymentIDs, byID)

	idsJSON, err := json.Marshal(sorted)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	_, err = DB.Exec("UPDATE invoices SET payment_ids = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
		string(idsJSON), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	inv, err = getInvoiceByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	Sync.SyncAsync("invoices", "update", inv, "id")

	writeJSON(w, http.StatusOK, inv)
}

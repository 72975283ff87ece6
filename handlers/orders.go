package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/sevensmile/backoffice/models"
)

const orderSelectQuery = `SELECT id, COALESCE(reference_id, ''), first_name, COALESCE(last_name, ''),
	COALESCE(agent_name, ''), pax_adt, pax_chd, pax_inf, created_at, updated_at
	FROM orders`

func scanOrder(scanner interface{ Scan(...any) error }) (models.Order, error) {
	var o models.Order
	err := scanner.Scan(&o.ID, &o.ReferenceID, &o.FirstName, &o.LastName, &o.AgentName,
		&o.PaxADT, &o.PaxCHD, &o.PaxINF, &o.CreatedAt, &o.UpdatedAt)
	return o, err
}

func getOrderByID(id int) (models.Order, error) {
	return scanOrder(DB.QueryRow(orderSelectQuery+" WHERE id = ?", id))
}

// ListOrders lists all orders
// @Summary      List orders
// @Tags         orders
// @Produce      json
// @Param        search  query     string  false  "Filter by customer or agent name"
// @Success      200     {object}  Response{data=[]models.Order}
// @Router       /orders [get]
// @Security     BasicAuth
func ListOrders(w http.ResponseWriter, r *http.Request) {
	query := orderSelectQuery
	var args []any
	if search := r.URL.Query().Get("search"); search != "" {
		query += " WHERE first_name LIKE ? OR last_name LIKE ? OR agent_name LIKE ? OR reference_id LIKE ?"
		pattern := "%" + search + "%"
		args = append(args, pattern, pattern, pattern, pattern)
	}
	query += " ORDER BY created_at DESC"

	rows, err := DB.Query(query, args...)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	defer rows.Close()

	orders := []models.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

// GetOrder retrieves a single order
// @Summary      Get order
// @Tags         orders
// @Produce      json
// @Param        id   path      int  true  "Order ID"
// @Success      200  {object}  Response{data=models.Order}
// @Failure      404  {object}  Response{error=string}
// @Router       /orders/{id} [get]
// @Security     BasicAuth
func GetOrder(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(chi.URLParam(r, "id"))
	o, err := getOrderByID(id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeError(w, http.StatusNotFound, "order not found")
		} else {
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	writeJSON(w, http.StatusOK, o)
}

// CreateOrder creates an order, optionally with its service rows
// @Summary      Create order
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        order  body      object{order=models.OrderInput,tours=[]models.TourBooking,transfers=[]models.TransferBooking}  true  "Order with optional service rows"
// @Success      201    {object}  Response{data=models.Order}
// @Failure      400    {object}  Response{error=string}
// @Router       /orders [post]
// @Security     BasicAuth
func CreateOrder(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Order     models.OrderInput        `json:"order"`
		Tours     []models.TourBooking     `json:"tours"`
		Transfers []models.TransferBooking `json:"transfers"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if msg := input.Order.Validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	tx, err := DB.Begin()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	defer tx.Rollback()

	result, err := tx.Exec(`INSERT INTO orders (reference_id, first_name, last_name, agent_name,
			pax_adt, pax_chd, pax_inf)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		input.Order.ReferenceID, input.Order.FirstName, input.Order.LastName, input.Order.AgentName,
		input.Order.PaxADT, input.Order.PaxCHD, input.Order.PaxINF)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	orderID, err := result.LastInsertId()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	for _, t := range input.Tours {
		_, err := tx.Exec(`INSERT INTO tour_bookings (order_id, tour_date, tour_detail, tour_hotel,
				send_to, pax_adt, pax_chd, pax_inf, cost_price, selling_price, payment_status)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, COALESCE(NULLIF(?, ''), 'notPaid'))`,
			orderID, t.TourDate, t.TourDetail, t.TourHotel, t.SendTo,
			t.PaxADT, t.PaxCHD, t.PaxINF, t.CostPrice, t.SellingPrice, t.PaymentStatus)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
	}
	for _, t := range input.Transfers {
		_, err := tx.Exec(`INSERT INTO transfer_bookings (order_id, transfer_date, transfer_detail,
				send_to, pax_adt, pax_chd, pax_inf, cost_price, selling_price, payment_status)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, COALESCE(NULLIF(?, ''), 'notPaid'))`,
			orderID, t.TransferDate, t.TransferDetail, t.SendTo,
			t.PaxADT, t.PaxCHD, t.PaxINF, t.CostPrice, t.SellingPrice, t.PaymentStatus)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
	}

	if err := tx.Commit(); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	o, err := getOrderByID(int(orderID))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to re-fetch created order: "+err.Error())
		return
	}
	Sync.SyncAsync("orders", "insert", o, "id")

	writeJSON(w, http.StatusCreated, o)
}

// GetOrderBookings lists an order's service rows as selectable lines
// @Summary      Get order bookings
// @Description  The order's tour and transfer rows converted into the line format the payment editor selects from.
// @Tags         orders
// @Produce      json
// @Param        id   path      int  true  "Order ID"
// @Success      200  {object}  Response{data=[]models.BookingLine}
// @Failure      404  {object}  Response{error=string}
// @Router       /orders/{id}/bookings [get]
// @Security     BasicAuth
func GetOrderBookings(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(chi.URLParam(r, "id"))
	if _, err := getOrderByID(id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeError(w, http.StatusNotFound, "order not found")
		} else {
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	lines := []models.BookingLine{}

	rows, err := DB.Query(`SELECT id, COALESCE(tour_date, ''), COALESCE(tour_detail, ''),
			COALESCE(tour_hotel, ''), COALESCE(send_to, ''), pax_adt, pax_chd, pax_inf,
			cost_price, selling_price, payment_status
		FROM tour_bookings WHERE order_id = ? ORDER BY tour_date`, id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	for rows.Next() {
		var dbKey, adt, chd, inf int
		var date, detail, hotel, sendTo, status string
		var cost, selling float64
		if err := rows.Scan(&dbKey, &date, &detail, &hotel, &sendTo, &adt, &chd, &inf,
			&cost, &selling, &status); err != nil {
			rows.Close()
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		lines = append(lines, models.BookingLine{
			ID:           fmt.Sprintf("tour_%d", dbKey),
			DBKey:        dbKey,
			Type:         models.BookingTypeTour,
			Date:         date,
			Detail:       detail,
			Hotel:        hotel,
			SendTo:       sendTo,
			Pax:          adt + chd + inf,
			PaxFormat:    models.FormatPax(adt, chd, inf),
			Cost:         cost,
			Quantity:     1,
			SellingPrice: selling,
			Status:       status,
		})
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	rows, err = DB.Query(`SELECT id, COALESCE(transfer_date, ''), COALESCE(transfer_detail, ''),
			COALESCE(send_to, ''), pax_adt, pax_chd, pax_inf, cost_price, selling_price, payment_status
		FROM transfer_bookings WHERE order_id = ? ORDER BY transfer_date`, id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	for rows.Next() {
		var dbKey, adt, chd, inf int
		var date, detail, sendTo, status string
		var cost, selling float64
		if err := rows.Scan(&dbKey, &date, &detail, &sendTo, &adt, &chd, &inf,
			&cost, &selling, &status); err != nil {
			rows.Close()
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		lines = append(lines, models.BookingLine{
			ID:           fmt.Sprintf("transfer_%d", dbKey),
			DBKey:        dbKey,
			Type:         models.BookingTypeTransfer,
			Date:         date,
			Detail:       detail,
			SendTo:       sendTo,
			Pax:          adt + chd + inf,
			PaxFormat:    models.FormatPax(adt, chd, inf),
			Cost:         cost,
			Quantity:     1,
			SellingPrice: selling,
			Status:       status,
		})
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, lines)
}

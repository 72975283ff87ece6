package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/sevensmile/backoffice/models"
)

// informationPageSize is the fixed page length of the admin listing.
const informationPageSize = 10

const informationSelectQuery = `SELECT id, category, value, COALESCE(description, ''),
	COALESCE(phone, ''), active, created_at, updated_at
	FROM information`

func scanInformation(scanner interface{ Scan(...any) error }) (models.Information, error) {
	var info models.Information
	err := scanner.Scan(&info.ID, &info.Category, &info.Value, &info.Description,
		&info.Phone, &info.Active, &info.CreatedAt, &info.UpdatedAt)
	return info, err
}

func getInformationByID(id int) (models.Information, error) {
	return scanInformation(DB.QueryRow(informationSelectQuery+" WHERE id = ?", id))
}

// informationPage is one page of the admin listing.
type informationPage struct {
	Items      []models.Information `json:"items"`
	Page       int                  `json:"page"`
	TotalPages int                  `json:"total_pages"`
	TotalItems int                  `json:"total_items"`
}

// ListInformation lists lookup values of one category
// @Summary      List information
// @Description  Active lookup values of a category, 10 per page, optionally filtered by a search over value and description.
// @Tags         information
// @Produce      json
// @Param        category  query     string  true   "Category"
// @Param        page      query     int     false  "Page number, starting at 1"
// @Param        search    query     string  false  "Substring filter on value/description"
// @Success      200       {object}  Response{data=handlers.informationPage}
// @Failure      400       {object}  Response{error=string}
// @Router       /information [get]
// @Security     BasicAuth
func ListInformation(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")
	if category == "" {
		writeError(w, http.StatusBadRequest, "category query parameter is required")
		return
	}

	page := 1
	if pageStr := r.URL.Query().Get("page"); pageStr != "" {
		p, err := strconv.Atoi(pageStr)
		if err != nil || p < 1 {
			writeError(w, http.StatusBadRequest, "page must be a positive integer")
			return
		}
		page = p
	}

	conditions := []string{"category = ?", "active = 1"}
	args := []any{category}
	if search := r.URL.Query().Get("search"); search != "" {
		conditions = append(conditions, "(value LIKE ? OR description LIKE ?)")
		args = append(args, "%"+search+"%", "%"+search+"%")
	}

	where := " WHERE " + conditions[0]
	for _, c := range conditions[1:] {
		where += " AND " + c
	}

	var total int
	if err := DB.QueryRow("SELECT COUNT(*) FROM information"+where, args...).Scan(&total); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	totalPages := (total + informationPageSize - 1) / informationPageSize

	query := informationSelectQuery + where + " ORDER BY value LIMIT ? OFFSET ?"
	args = append(args, informationPageSize, (page-1)*informationPageSize)

	rows, err := DB.Query(query, args...)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	defer rows.Close()

	items := []models.Information{}
	for rows.Next() {
		info, err := scanInformation(rows)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		items = append(items, info)
	}
	if err := rows.Err(); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, informationPage{
		Items:      items,
		Page:       page,
		TotalPages: totalPages,
		TotalItems: total,
	})
}

// CreateInformation adds a lookup value
// @Summary      Create information
// @Tags         information
// @Accept       json
// @Produce      json
// @Param        information  body      models.InformationInput  true  "Lookup value"
// @Success      201          {object}  Response{data=models.Information}
// @Failure      400          {object}  Response{error=string}
// @Router       /information [post]
// @Security     BasicAuth
func CreateInformation(w http.ResponseWriter, r *http.Request) {
	var input models.InformationInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if msg := input.Validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	result, err := DB.Exec(`INSERT INTO information (category, value, description, phone)
		VALUES (?, ?, ?, ?)`,
		input.Category, input.Value, input.Description, input.Phone)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	id, err := result.LastInsertId()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	info, err := getInformationByID(int(id))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to re-fetch created information: "+err.Error())
		return
	}
	Sync.SyncAsync("information", "insert", info, "id")

	writeJSON(w, http.StatusCreated, info)
}

// UpdateInformation edits a lookup value
// @Summary      Update information
// @Tags         information
// @Accept       json
// @Produce      json
// @Param        id           path      int                      true  "Information ID"
// @Param        information  body      models.InformationInput  true  "Lookup value"
// @Success      200          {object}  Response{data=models.Information}
// @Failure      400          {object}  Response{error=string}
// @Failure      404          {object}  Response{error=string}
// @Router       /information/{id} [put]
// @Security     BasicAuth
func UpdateInformation(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(chi.URLParam(r, "id"))
	var input models.InformationInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if msg := input.Validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	res, err := DB.Exec(`UPDATE information SET category = ?, value = ?, description = ?,
			phone = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		input.Category, input.Value, input.Description, input.Phone, id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		writeError(w, http.StatusNotFound, "information not found")
		return
	}

	info, err := getInformationByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	Sync.SyncAsync("information", "update", info, "id")

	writeJSON(w, http.StatusOK, info)
}

// DeleteInformation deactivates a lookup value
// @Summary      Delete information
// @Description  Soft delete: the row is kept with active=false so historical bookings keep resolving, but it drops out of listings.
// @Tags         information
// @Produce      json
// @Param        id   path      int  true  "Information ID"
// @Success      200  {object}  Response{data=string}
// @Failure      404  {object}  Response{error=string}
// @Router       /information/{id} [delete]
// @Security     BasicAuth
func DeleteInformation(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(chi.URLParam(r, "id"))
	res, err := DB.Exec("UPDATE information SET active = 0, updated_at = CURRENT_TIMESTAMP WHERE id = ?", id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		writeError(w, http.StatusNotFound, "information not found")
		return
	}

	info, err := getInformationByID(id)
	if err == nil {
		Sync.SyncAsync("information", "update", info, "id")
	} else if !errors.Is(err, sql.ErrNoRows) {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, "information deleted")
}

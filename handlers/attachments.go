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

// ToggleInvoiceStatus flips the complete/incomplete flag
// @Summary      Set invoice status
// @Description  Sets the invoice's completion status. The client toggles optimistically and reverts on error.
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Param        id      path      int                  true  "Invoice ID"
// @Param        status  body      object{status=bool}  true  "New status"
// @Success      200     {object}  Response{data=models.Invoice}
// @Failure      404     {object}  Response{error=string}
// @Router       /invoices/{id}/status [patch]
// @Security     BasicAuth
func ToggleInvoiceStatus(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(chi.URLParam(r, "id"))
	var input struct {
		Status bool `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	res, err := DB.Exec("UPDATE invoices SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
		input.Status, id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		writeError(w, http.StatusNotFound, "invoice not found")
		return
	}

	inv, err := getInvoiceByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	Sync.SyncAsync("invoices", "update", inv, "id")

	writeJSON(w, http.StatusOK, inv)
}

// attachmentUploadResult reports the outcome of one upload batch.
type attachmentUploadResult struct {
	Uploaded []models.Attachment `json:"uploaded"`
	Rejected []string            `json:"rejected"`
}

// UploadInvoiceAttachments uploads files onto an invoice
// @Summary      Upload attachments
// @Description  Multipart upload of one or more files. Each file is validated on its own (PDF/JPG/PNG, 5MB max); invalid or failed files are reported in rejected while the rest still land. The attachment list is persisted once per batch.
// @Tags         invoices
// @Accept       multipart/form-data
// @Produce      json
// @Param        id     path      int   true  "Invoice ID"
// @Param        files  formData  file  true  "Files to attach"
// @Success      200    {object}  Response{data=handlers.attachmentUploadResult}
// @Failure      400    {object}  Response{error=string}
// @Failure      404    {object}  Response{error=string}
// @Router       /invoices/{id}/attachments [post]
// @Security     BasicAuth
func UploadInvoiceAttachments(w http.ResponseWriter, r *http.Request) {
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

	if err := r.ParseMultipartForm(models.MaxAttachmentSize + 1024); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		writeError(w, http.StatusBadRequest, "no files provided")
		return
	}

	prefix := fmt.Sprintf("invoices/%d", id)
	var result attachmentUploadResult
	for _, fh := range files {
		if msg := models.ValidateAttachment(fh.Filename, fh.Size); msg != "" {
			result.Rejected = append(result.Rejected, msg)
			continue
		}
		f, err := fh.Open()
		if err != nil {
			result.Rejected = append(result.Rejected, fmt.Sprintf("%s: %v", fh.Filename, err))
			continue
		}
		att, err := Files.Upload(r.Context(), prefix, fh.Filename,
			fh.Header.Get("Content-Type"), fh.Size, f)
		f.Close()
		if err != nil {
			slog.Error("attachment upload failed", "invoice_id", id, "file", fh.Filename, "error", err)
			result.Rejected = append(result.Rejected, fmt.Sprintf("%s: upload failed", fh.Filename))
			continue
		}
		result.Uploaded = append(result.Uploaded, att)
	}
	if result.Uploaded == nil {
		result.Uploaded = []models.Attachment{}
	}
	if result.Rejected == nil {
		result.Rejected = []string{}
	}

	if len(result.Uploaded) > 0 {
		inv.Attachments = append(inv.Attachments, result.Uploaded...)
		if err := saveInvoiceAttachments(id, inv.Attachments); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if inv, err = getInvoiceByID(id); err != nil {
			slog.Error("invoice refetch after attachment upload failed", "invoice_id", id, "error", err)
		} else {
			Sync.SyncAsync("invoices", "update", inv, "id")
		}
	}

	writeJSON(w, http.StatusOK, result)
}

func saveInvoiceAttachments(invoiceID int, attachments []models.Attachment) error {
	if attachments == nil {
		attachments = []models.Attachment{}
	}
	attachmentsJSON, err := json.Marshal(attachments)
	if err != nil {
		return err
	}
	_, err = DB.Exec("UPDATE invoices SET attachments = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
		string(attachmentsJSON), invoiceID)
	return err
}

// DeleteInvoiceAttachment removes one attachment
// @Summary      Delete attachment
// @Description  Removes the attachment identified by its storage path from the invoice and deletes the underlying file. A missing file is not an error; the list entry is dropped either way.
// @Tags         invoices
// @Produce      json
// @Param        id    path      int     true  "Invoice ID"
// @Param        path  query     string  true  "Attachment storage path"
// @Success      200   {object}  Response{data=models.Invoice}
// @Failure      404   {object}  Response{error=string}
// @Router       /invoices/{id}/attachments [delete]
// @Security     BasicAuth
func DeleteInvoiceAttachment(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(chi.URLParam(r, "id"))
	path := r.URL.Query().Get("path")
	if path == "" {
		writeError(w, http.StatusBadRequest, "path query parameter is required")
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

	kept := make([]models.Attachment, 0, len(inv.Attachments))
	found := false
	for _, att := range inv.Attachments {
		if att.Path == path {
			found = true
			continue
		}
		kept = append(kept, att)
	}
	if !found {
		writeError(w, http.StatusNotFound, "attachment not found")
		return
	}

	if err := Files.Delete(r.Context(), path); err != nil {
		slog.Warn("deleting stored file failed", "path", path, "error", err)
	}
	if err := saveInvoiceAttachments(id, kept); err != nil {
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

// SaveInvoiceStatusAndAttachments saves the status dialog in one shot
// @Summary      Save status and attachments
// @Description  Manual save from the status dialog: reconciles both the completion status and the attachment list against what the dialog last saw.
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Param        id    path      int  true  "Invoice ID"
// @Param        body  body      object{status=bool,attachments=[]models.Attachment}  true  "Status and attachment list"
// @Success      200   {object}  Response{data=models.Invoice}
// @Failure      404   {object}  Response{error=string}
// @Router       /invoices/{id}/status-attachments [put]
// @Security     BasicAuth
func SaveInvoiceStatusAndAttachments(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(chi.URLParam(r, "id"))
	var input struct {
		Status      bool                `json:"status"`
		Attachments []models.Attachment `json:"attachments"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if input.Attachments == nil {
		input.Attachments = []models.Attachment{}
	}

	if _, err := getInvoiceByID(id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeError(w, http.StatusNotFound, "invoice not found")
		} else {
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	attachmentsJSON, err := json.Marshal(input.Attachments)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	_, err = DB.Exec(`UPDATE invoices SET status = ?, attachments = ?,
			updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		input.Status, string(attachmentsJSON), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	inv, err := getInvoiceByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	Sync.SyncAsync("invoices", "update", inv, "id")

	writeJSON(w, http.StatusOK, inv)
}

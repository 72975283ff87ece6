package handlers

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sevensmile/backoffice/models"
)

func createInvoiceForAttachments(t *testing.T, r http.Handler) int {
	t.Helper()
	orderID := seedOrder(t, "Alice", "AgentOne")
	p := seedPayment(t, r, orderID, "2026-03-10", 100, 150)
	var inv models.Invoice
	doJSON(t, r, http.MethodPost, "/invoices", models.InvoiceInput{
		InvoiceName: "INV-001", InvoiceDate: "15/03/2026", PaymentIDs: []int{p},
	}, http.StatusCreated, &inv)
	return inv.ID
}

func uploadFiles(t *testing.T, r http.Handler, invoiceID int, files map[string][]byte) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for name, content := range files {
		fw, err := mw.CreateFormFile("files", name)
		if err != nil {
			t.Fatalf("creating form file: %v", err)
		}
		fw.Write(content)
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost,
		fmt.Sprintf("/invoices/%d/attachments", invoiceID), &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestUploadAttachmentsPartialSuccess(t *testing.T) {
	r := setup(t)
	invoiceID := createInvoiceForAttachments(t, r)

	rec := uploadFiles(t, r, invoiceID, map[string][]byte{
		"receipt.pdf": []byte("%PDF-1.4 fake"),
		"photo.jpg":   []byte("jpegdata"),
		"notes.txt":   []byte("not allowed"),
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("upload = %d (%s)", rec.Code, rec.Body.String())
	}

	var inv models.Invoice
	doJSON(t, r, http.MethodGet, fmt.Sprintf("/invoices/%d", invoiceID), nil, http.StatusOK, &inv)
	if len(inv.Attachments) != 2 {
		t.Fatalf("got %d attachments, want 2", len(inv.Attachments))
	}
	for _, att := range inv.Attachments {
		if att.Name == "notes.txt" {
			t.Error("rejected file was persisted")
		}
		if att.Path == "" || att.URL == "" {
			t.Errorf("attachment missing path/url: %+v", att)
		}
	}
}

func TestDeleteAttachment(t *testing.T) {
	r := setup(t)
	invoiceID := createInvoiceForAttachments(t, r)

	rec := uploadFiles(t, r, invoiceID, map[string][]byte{"receipt.pdf": []byte("%PDF")})
	if rec.Code != http.StatusOK {
		t.Fatalf("upload = %d", rec.Code)
	}

	var inv models.Invoice
	doJSON(t, r, http.MethodGet, fmt.Sprintf("/invoices/%d", invoiceID), nil, http.StatusOK, &inv)
	if len(inv.Attachments) != 1 {
		t.Fatalf("got %d attachments", len(inv.Attachments))
	}

	doJSON(t, r, http.MethodDelete,
		fmt.Sprintf("/invoices/%d/attachments?path=%s", invoiceID, inv.Attachments[0].Path),
		nil, http.StatusOK, &inv)
	if len(inv.Attachments) != 0 {
		t.Errorf("attachment list not emptied: %+v", inv.Attachments)
	}

	doJSON(t, r, http.MethodDelete,
		fmt.Sprintf("/invoices/%d/attachments?path=missing.pdf", invoiceID),
		nil, http.StatusNotFound, nil)
}

func TestToggleInvoiceStatus(t *testing.T) {
	r := setup(t)
	invoiceID := createInvoiceForAttachments(t, r)

	var inv models.Invoice
	doJSON(t, r, http.MethodPatch, fmt.Sprintf("/invoices/%d/status", invoiceID),
		map[string]bool{"status": true}, http.StatusOK, &inv)
	if !inv.Status {
		t.Error("status not set")
	}
	doJSON(t, r, http.MethodPatch, fmt.Sprintf("/invoices/%d/status", invoiceID),
		map[string]bool{"status": false}, http.StatusOK, &inv)
	if inv.Status {
		t.Error("status not cleared")
	}
}

func TestSaveStatusAndAttachments(t *testing.T) {
	r := setup(t)
	invoiceID := createInvoiceForAttachments(t, r)

	rec := uploadFiles(t, r, invoiceID, map[string][]byte{
		"a.pdf": []byte("%PDF a"),
		"b.pdf": []byte("%PDF b"),
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("upload = %d", rec.Code)
	}

	var inv models.Invoice
	doJSON(t, r, http.MethodGet, fmt.Sprintf("/invoices/%d", invoiceID), nil, http.StatusOK, &inv)

	// manual save keeps only the first attachment and completes the invoice
	doJSON(t, r, http.MethodPut, fmt.Sprintf("/invoices/%d/status-attachments", invoiceID),
		map[string]any{"status": true, "attachments": inv.Attachments[:1]},
		http.StatusOK, &inv)
	if !inv.Status {
		t.Error("status not saved")
	}
	if len(inv.Attachments) != 1 {
		t.Errorf("got %d attachments after reconcile, want 1", len(inv.Attachments))
	}
}

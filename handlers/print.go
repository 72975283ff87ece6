package handlers

import (
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"sort"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/sevensmile/backoffice/models"
)

// printRow is one booking line in the printable table. Rowspan fields are
// only set on the first row of each payment.
type printRow struct {
	First    bool
	Rowspan  int
	Item     int
	Name     string
	Ref      string
	Hotel    string
	Date     string
	Detail   string
	Pax      string
	Price    string
	Quantity int
	Cost     string
	Profit   string
}

// printTotalRow closes out one payment's block.
type printTotalRow struct {
	Label  string
	Amount string
}

type printView struct {
	Title          string
	InvoiceName    string
	InvoiceDate    string
	ShowCostProfit bool
	Blocks         []printBlock
	GrandTotal     string
	HasDeduction   bool
	DeductionLabel string
	Deduction      string
	NetTotal       string
}

type printBlock struct {
	Rows  []printRow
	Total printTotalRow
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(models.Round2(v), 'f', 2, 64)
}

// buildPrintView assembles the printable layout: payments in the invoice's
// saved order, each payment's bookings sorted by service date, a Total row
// per payment, then grand total, deduction, and net total.
func buildPrintView(inv *models.Invoice, payments []models.Payment, costProfit bool) printView {
	view := printView{
		Title:          inv.InvoiceName,
		InvoiceName:    inv.InvoiceName,
		InvoiceDate:    inv.InvoiceDate,
		ShowCostProfit: costProfit,
	}

	var grand float64
	for i := range payments {
		p := &payments[i]

		bookings := make([]models.BookingLine, len(p.Bookings))
		copy(bookings, p.Bookings)
		sort.SliceStable(bookings, func(a, b int) bool {
			da, oka := bookings[a].ParsedDate()
			db, okb := bookings[b].ParsedDate()
			if oka != okb {
				return oka
			}
			if !oka {
				return false
			}
			return da.Before(db)
		})

		block := printBlock{}
		for j, b := range bookings {
			row := printRow{
				Date:     b.Date,
				Detail:   b.Detail,
				Pax:      b.PaxFormat,
				Price:    formatAmount(b.SellingPrice),
				Quantity: b.Quantity,
			}
			if costProfit {
				row.Cost = formatAmount(b.Cost * float64(b.Quantity))
				row.Profit = formatAmount((b.SellingPrice - b.Cost) * float64(b.Quantity))
			}
			if j == 0 {
				row.First = true
				row.Rowspan = len(bookings)
				row.Item = i + 1
				row.Name = p.DisplayName()
				row.Ref = p.Ref
				row.Hotel = firstHotel(bookings)
			}
			block.Rows = append(block.Rows, row)
		}

		_, selling, _ := models.ComputeBookingTotals(p.Bookings)
		grand += selling
		block.Total = printTotalRow{Label: "Total", Amount: formatAmount(selling)}
		view.Blocks = append(view.Blocks, block)
	}

	view.GrandTotal = formatAmount(grand)
	if inv.DeductionAmount != 0 {
		view.HasDeduction = true
		view.DeductionLabel = inv.DeductionDescription
		if view.DeductionLabel == "" {
			view.DeductionLabel = "Deduction"
		}
		view.Deduction = formatAmount(inv.DeductionAmount)
	}
	view.NetTotal = formatAmount(inv.NetTotal(grand))
	return view
}

func firstHotel(bookings []models.BookingLine) string {
	for _, b := range bookings {
		if b.Hotel != "" {
			return b.Hotel
		}
	}
	return ""
}

var printTemplate = template.Must(template.New("invoice").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
@page { size: landscape; margin: 10mm; }
body { font-family: Arial, sans-serif; font-size: 11px; }
h1 { font-size: 16px; margin-bottom: 2px; }
.date { margin-bottom: 8px; }
table { width: 100%; border-collapse: collapse; table-layout: fixed; }
th, td { border: 1px solid #333; padding: 3px 5px; vertical-align: top; }
th { background: #eee; }
td.num { text-align: right; }
tr.total td { font-weight: bold; }
tr.net td { font-weight: bold; border-top: 2px solid #000; }
</style>
</head>
<body onload="window.print(); window.onafterprint = function() { window.close(); };">
<h1>{{.InvoiceName}}</h1>
<div class="date">{{.InvoiceDate}}</div>
<table>
<thead>
<tr>
<th style="width:4%">Item</th>
<th style="width:14%">NAME</th>
<th style="width:8%">REF</th>
<th style="width:12%">Hotel</th>
<th style="width:8%">Date</th>
<th>Detail</th>
<th style="width:6%">Pax</th>
<th style="width:8%">Price</th>
<th style="width:4%">Qty</th>
{{if .ShowCostProfit}}<th style="width:8%">Cost</th><th style="width:8%">Profit</th>{{end}}
</tr>
</thead>
<tbody>
{{range .Blocks}}
{{range .Rows}}
<tr>
{{if .First}}
<td rowspan="{{.Rowspan}}">{{.Item}}</td>
<td rowspan="{{.Rowspan}}">{{.Name}}</td>
<td rowspan="{{.Rowspan}}">{{.Ref}}</td>
<td rowspan="{{.Rowspan}}">{{.Hotel}}</td>
{{end}}
<td>{{.Date}}</td>
<td>{{.Detail}}</td>
<td>{{.Pax}}</td>
<td class="num">{{.Price}}</td>
<td class="num">{{.Quantity}}</td>
{{if $.ShowCostProfit}}<td class="num">{{.Cost}}</td><td class="num">{{.Profit}}</td>{{end}}
</tr>
{{end}}
<tr class="total">
<td colspan="8"></td>
<td class="num" colspan="{{if $.ShowCostProfit}}3{{else}}1{{end}}">{{.Total.Label}}: {{.Total.Amount}}</td>
</tr>
{{end}}
<tr class="total">
<td colspan="8">Grand Total</td>
<td class="num" colspan="{{if .ShowCostProfit}}3{{else}}1{{end}}">{{.GrandTotal}}</td>
</tr>
{{if .HasDeduction}}
<tr>
<td colspan="8">{{.DeductionLabel}}</td>
<td class="num" colspan="{{if .ShowCostProfit}}3{{else}}1{{end}}">-{{.Deduction}}</td>
</tr>
{{end}}
<tr class="net">
<td colspan="8">Net Total</td>
<td class="num" colspan="{{if .ShowCostProfit}}3{{else}}1{{end}}">{{.NetTotal}}</td>
</tr>
</tbody>
</table>
</body>
</html>
`))

// PrintInvoice renders the printable invoice page
// @Summary      Print invoice
// @Description  Self-printing HTML of the invoice: payments in saved order with rowspanned identity cells, bookings date-sorted within each payment, per-payment totals, grand total, deduction, and net total. cost_profit=1 adds the internal cost and profit columns.
// @Tags         invoices
// @Produce      html
// @Param        id           path      int   true   "Invoice ID"
// @Param        cost_profit  query     bool  false  "Include cost and profit columns"
// @Success      200          {string}  string  "HTML page"
// @Failure      404          {object}  Response{error=string}
// @Router       /invoices/{id}/print [get]
// @Security     BasicAuth
func PrintInvoice(w http.ResponseWriter, r *http.Request) {
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
	payments, _, err := invoiceLivePayments(&inv)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	costProfit := r.URL.Query().Get("cost_profit") == "1"
	view := buildPrintView(&inv, payments, costProfit)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := printTemplate.Execute(w, view); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// ExportInvoiceCSV streams the invoice's booking lines as CSV
// @Summary      Export invoice CSV
// @Description  One row per booking line in print order, UTF-8 with BOM so spreadsheet apps pick up the encoding.
// @Tags         invoices
// @Produce      text/csv
// @Param        id   path      int  true  "Invoice ID"
// @Success      200  {string}  string  "CSV file"
// @Failure      404  {object}  Response{error=string}
// @Router       /invoices/{id}/export.csv [get]
// @Security     BasicAuth
func ExportInvoiceCSV(w http.ResponseWriter, r *http.Request) {
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
	payments, _, err := invoiceLivePayments(&inv)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	view := buildPrintView(&inv, payments, true)

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="invoice_%d.csv"`, id))
	w.Write([]byte{0xEF, 0xBB, 0xBF}) // BOM for Excel

	cw := csv.NewWriter(w)
	cw.Write([]string{"Item", "Name", "Ref", "Hotel", "Date", "Detail", "Pax", "Price", "Qty", "Cost", "Profit"})
	for _, block := range view.Blocks {
		var item, name, ref, hotel string
		for _, row := range block.Rows {
			if row.First {
				item = strconv.Itoa(row.Item)
				name = row.Name
				ref = row.Ref
				hotel = row.Hotel
			}
			cw.Write([]string{item, name, ref, hotel, row.Date, row.Detail, row.Pax,
				row.Price, strconv.Itoa(row.Quantity), row.Cost, row.Profit})
		}
		cw.Write([]string{"", "", "", "", "", "", "", "", block.Total.Label, "", block.Total.Amount})
	}
	cw.Write([]string{"", "", "", "", "", "", "", "", "Grand Total", "", view.GrandTotal})
	if view.HasDeduction {
		cw.Write([]string{"", "", "", "", "", "", "", "", view.DeductionLabel, "", "-" + view.Deduction})
	}
	cw.Write([]string{"", "", "", "", "", "", "", "", "Net Total", "", view.NetTotal})
	cw.Flush()
}

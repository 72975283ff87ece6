package main

//go:generate swag init

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/sevensmile/backoffice/db"
	_ "github.com/sevensmile/backoffice/docs"
	"github.com/sevensmile/backoffice/handlers"
	"github.com/sevensmile/backoffice/replica"
	"github.com/sevensmile/backoffice/storage"
	httpSwagger "github.com/swaggo/http-swagger"
)

// @title           Tour Booking Back-Office API
// @version         1.0.0
// @description     API for managing orders, payments, invoices, lookup data, and booking reports.
// @host            localhost:8080
// @BasePath        /api/v1
// @securityDefinitions.basic  BasicAuth

func main() {
	// .env is optional; real deployments set env vars directly
	_ = godotenv.Load()

	// Configure structured logging
	level := slog.LevelInfo
	if os.Getenv("LOG_LEVEL") == "debug" {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})))

	// Open database
	database, err := db.Open()
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer database.Close()

	// Run migrations
	if err := db.Migrate(database); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// File store for invoice attachments
	files, err := storage.FromEnv()
	if err != nil {
		slog.Error("failed to set up file store", "error", err)
		os.Exit(1)
	}

	// Shared handler state
	handlers.DB = database
	handlers.Files = files
	handlers.Sync = replica.New(os.Getenv("SYNC_API_URL"))

	// Router setup
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// API routes with basic auth
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(handlers.BasicAuth)

		// Orders
		r.Get("/orders", handlers.ListOrders)
		r.Post("/orders", handlers.CreateOrder)
		r.Get("/orders/{id}", handlers.GetOrder)
		r.Get("/orders/{id}/bookings", handlers.GetOrderBookings)
		r.Get("/orders/{orderID}/payment", handlers.GetOrderPayment)

		// Payments
		r.Get("/payments", handlers.ListPayments)
		r.Post("/payments", handlers.SavePayment)
		r.Get("/payments/eligible", handlers.ListEligiblePayments)
		r.Post("/payments/totals", handlers.ComputeSelectionTotals)
		r.Get("/payments/{id}", handlers.GetPayment)
		r.Patch("/payments/{id}/ref", handlers.UpdatePaymentRef)
		r.Patch("/payments/{id}/bookings/{index}/fee", handlers.UpdateBookingFee)
		r.Get("/payments/{id}/invoices", handlers.ListPaymentInvoices)

		// Invoices
		r.Get("/invoices", handlers.ListInvoices)
		r.Post("/invoices", handlers.CreateInvoice)
		r.Get("/invoices/{id}", handlers.GetInvoice)
		r.Put("/invoices/{id}", handlers.UpdateInvoice)
		r.Patch("/invoices/{id}", handlers.PatchInvoice)
		r.Delete("/invoices/{id}", handlers.DeleteInvoice)
		r.Patch("/invoices/{id}/status", handlers.ToggleInvoiceStatus)
		r.Post("/invoices/{id}/attachments", handlers.UploadInvoiceAttachments)
		r.Delete("/invoices/{id}/attachments", handlers.DeleteInvoiceAttachment)
		r.Put("/invoices/{id}/status-attachments", handlers.SaveInvoiceStatusAndAttachments)
		r.Post("/invoices/{id}/recalculate", handlers.RecalculateInvoice)
		r.Post("/invoices/{id}/sort-payments", handlers.SortInvoicePayments)
		r.Get("/invoices/{id}/print", handlers.PrintInvoice)
		r.Get("/invoices/{id}/export.csv", handlers.ExportInvoiceCSV)

		// Information
		r.Get("/information", handlers.ListInformation)
		r.Post("/information", handlers.CreateInformation)
		r.Put("/information/{id}", handlers.UpdateInformation)
		r.Delete("/information/{id}", handlers.DeleteInformation)

		// Reports
		r.Get("/reports/bookings.xlsx", handlers.ExportBookingsReport)

		// Dashboard
		r.Get("/dashboard", handlers.GetDashboard)
	})

	// Serve locally stored attachments
	if local, ok := files.(*storage.Local); ok {
		r.Handle("/files/*", http.StripPrefix("/files/",
			http.FileServer(http.Dir(local.Dir()))))
	}

	// Swagger UI
	r.Get("/swagger/*", httpSwagger.WrapHandler)

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	addr := fmt.Sprintf(":%s", port)
	slog.Info("server starting", "address", addr)
	if err := http.ListenAndServe(addr, r); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

package http

import (
	"crm-backend/internal/handlers"
	"crm-backend/internal/middleware"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func NewRouter(
	authHandler *handlers.AuthHandler,
	totpHandler *handlers.TOTPHandler,
	userHandler *handlers.UserHandler,
	customerHandler *handlers.CustomerHandler,
	dealHandler *handlers.DealHandler,
	paymentHandler *handlers.PaymentHandler,
	amsHandler *handlers.AMSHandler,
	reportHandler *handlers.ReportHandler,
	razorpayHandler *handlers.RazorpayHandler,
	healthHandler *handlers.HealthHandler,
	authMiddleware *middleware.AuthMiddleware,
) *mux.Router {
	r := mux.NewRouter()

	// Public routes
	r.HandleFunc("/auth/signup", authHandler.Signup).Methods("POST")
	r.HandleFunc("/auth/login", authHandler.Login).Methods("POST")
	r.HandleFunc("/auth/totp/verify", totpHandler.Verify).Methods("POST")
	r.HandleFunc("/health", healthHandler.Health).Methods("GET")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	// Razorpay calls this, authenticated by webhook signature instead of JWT
	r.HandleFunc("/webhooks/razorpay", razorpayHandler.Webhook).Methods("POST")

	// TOTP management for the logged-in user
	totpAPI := r.PathPrefix("/auth/totp").Subrouter()
	totpAPI.Use(authMiddleware.Authenticate)
	totpAPI.HandleFunc("/setup", totpHandler.Setup).Methods("POST")
	totpAPI.HandleFunc("/enable", totpHandler.Enable).Methods("POST")
	totpAPI.HandleFunc("/disable", totpHandler.Disable).Methods("POST")

	// Everything below is tenant-scoped by the companyId path segment,
	// checked against the authenticated user's company
	api := r.PathPrefix("/{companyId}").Subrouter()
	api.Use(authMiddleware.Authenticate)

	// Users (admin only)
	usersAPI := api.PathPrefix("/users").Subrouter()
	usersAPI.Use(authMiddleware.RequireAdmin)
	usersAPI.HandleFunc("", userHandler.ListUsers).Methods("GET")
	usersAPI.HandleFunc("", userHandler.CreateUser).Methods("POST")
	usersAPI.HandleFunc("", userHandler.UpdateUser).Methods("PUT")
	usersAPI.HandleFunc("/{id}", userHandler.GetUser).Methods("GET")

	// Customers
	api.HandleFunc("/customers", customerHandler.ListCustomers).Methods("GET")
	api.HandleFunc("/customers", customerHandler.CreateCustomer).Methods("POST")
	api.HandleFunc("/customers", customerHandler.UpdateCustomer).Methods("PUT")
	api.HandleFunc("/customers", customerHandler.DeleteCustomer).Methods("DELETE")
	api.HandleFunc("/customers/deal-totals", customerHandler.DealTotals).Methods("GET")
	api.HandleFunc("/customers/{id}", customerHandler.GetCustomer).Methods("GET")

	// Deals
	api.HandleFunc("/deals", dealHandler.ListDeals).Methods("GET")
	api.HandleFunc("/deals", dealHandler.CreateDeal).Methods("POST")
	api.HandleFunc("/deals", dealHandler.UpdateDeal).Methods("PUT")
	api.HandleFunc("/deals", dealHandler.DeleteDeal).Methods("DELETE")

	// Payments against deals
	api.HandleFunc("/deals/payments", paymentHandler.PaymentHistory).Methods("GET")
	api.HandleFunc("/deals/payments", paymentHandler.RecordPayment).Methods("POST")
	api.HandleFunc("/deals/payments", paymentHandler.UpdatePayment).Methods("PUT")
	api.HandleFunc("/deals/payments", paymentHandler.DeletePayment).Methods("DELETE")
	api.HandleFunc("/deals/payments/link", razorpayHandler.CreatePaymentLink).Methods("POST")
	api.HandleFunc("/deals/{dealId}/payments", paymentHandler.PaymentHistory).Methods("GET")
	api.HandleFunc("/deals/{dealId}/transactions", razorpayHandler.ListDealTransactions).Methods("GET")
	api.HandleFunc("/deals/{id}", dealHandler.GetDeal).Methods("GET")

	// AMS contracts
	api.HandleFunc("/ams", amsHandler.ListContracts).Methods("GET")
	api.HandleFunc("/ams", amsHandler.CreateContract).Methods("POST")
	api.HandleFunc("/ams", amsHandler.UpdateContract).Methods("PUT")
	api.HandleFunc("/ams", amsHandler.DeleteContract).Methods("DELETE")
	api.HandleFunc("/ams/{id}", amsHandler.GetContract).Methods("GET")

	// Reports
	api.HandleFunc("/reports/deals.pdf", reportHandler.DealsPDF).Methods("GET")
	api.HandleFunc("/reports/deals.csv", reportHandler.DealsCSV).Methods("GET")
	api.HandleFunc("/reports/deals/{dealId}/statement.pdf", reportHandler.DealStatementPDF).Methods("GET")

	return r
}

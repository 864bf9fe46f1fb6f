package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"crm-backend/internal/auth"
	"crm-backend/internal/cache"
	"crm-backend/internal/config"
	"crm-backend/internal/database"
	"crm-backend/internal/db"
	"crm-backend/internal/handlers"
	"crm-backend/internal/health"
	apphttp "crm-backend/internal/http"
	"crm-backend/internal/middleware"
	"crm-backend/internal/monitoring"
	"crm-backend/internal/repositories"
	"crm-backend/internal/services"
	"crm-backend/migrations"
)

func main() {
	cfg := config.Load()

	pool := db.Connect(cfg)
	defer pool.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	migrator := database.NewMigrator(pool, migrations.FS)
	if err := migrator.RunMigrations(ctx); err != nil {
		cancel()
		log.Fatalf("migrations failed: %v", err)
	}
	cancel()

	// Cache is optional, everything degrades to direct DB reads
	if err := cache.Init(cfg.Redis.Addr(), cfg.Redis.Password); err != nil {
		log.Printf("[Cache] Redis unavailable, running without cache: %v", err)
	}

	jwtManager := auth.NewJWTManager(cfg)

	// Repositories
	userRepo := repositories.NewUserRepository(pool)
	customerRepo := repositories.NewCustomerRepository(pool)
	dealRepo := repositories.NewDealRepository(pool)
	paymentRepo := repositories.NewPaymentRepository(pool)
	amsRepo := repositories.NewAMSRepository(pool)
	onlineTxRepo := repositories.NewOnlineTransactionRepository(pool)

	// Services
	userService := services.NewUserService(userRepo, jwtManager)
	totpService := services.NewTOTPService(userRepo)
	customerService := services.NewCustomerService(customerRepo)
	dealService := services.NewDealService(dealRepo)
	paymentService := services.NewPaymentService(paymentRepo, dealRepo)
	amsService := services.NewAMSService(amsRepo)
	reportService := services.NewReportService(dealRepo, paymentRepo)
	archiveService := services.NewArchiveService(context.Background(), cfg.Archive)
	razorpayService := services.NewRazorpayService(cfg.Razorpay, onlineTxRepo, paymentRepo, dealRepo)

	// Handlers
	authHandler := handlers.NewAuthHandler(userService)
	totpHandler := handlers.NewTOTPHandler(totpService, userService, jwtManager)
	userHandler := handlers.NewUserHandler(userService)
	customerHandler := handlers.NewCustomerHandler(customerService, dealService)
	dealHandler := handlers.NewDealHandler(dealService)
	paymentHandler := handlers.NewPaymentHandler(paymentService)
	amsHandler := handlers.NewAMSHandler(amsService)
	reportHandler := handlers.NewReportHandler(reportService, archiveService)
	razorpayHandler := handlers.NewRazorpayHandler(razorpayService, onlineTxRepo)
	healthHandler := handlers.NewHealthHandler(health.NewHealthChecker(pool))

	authMiddleware := middleware.NewAuthMiddleware(jwtManager, userRepo)

	router := apphttp.NewRouter(
		authHandler,
		totpHandler,
		userHandler,
		customerHandler,
		dealHandler,
		paymentHandler,
		amsHandler,
		reportHandler,
		razorpayHandler,
		healthHandler,
		authMiddleware,
	)

	// Ops dashboard on its own port
	monitoringServer := monitoring.NewMonitoringServer(pool, cfg.Server.MonitoringPort)
	go monitoringServer.Start()

	handler := middleware.PanicRecovery(
		middleware.NewCORS(cfg)(
			middleware.MetricsMiddleware(router)))

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Printf("[Server] listening on %s", addr)
	log.Fatal(http.ListenAndServe(addr, handler))
}

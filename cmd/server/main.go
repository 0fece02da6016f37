package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/hausbuch/backend/internal/config"
	"github.com/hausbuch/backend/internal/database"
	"github.com/hausbuch/backend/internal/handlers"
	mW "github.com/hausbuch/backend/internal/middleware"
	"github.com/hausbuch/backend/internal/services"
	"github.com/hausbuch/backend/internal/store"
)

// @title Hausbuch Ledger API
// @version 1.0
// @description Double-entry bookkeeping ledger for personal finance
// @host localhost:8080
// @BasePath /api/v1
// @schemes http https

func main() {
	cfg := config.Load()

	db := database.InitDatabase(cfg.Database)
	defer db.Close()

	redisClient := database.InitRedis(cfg.Redis)
	if redisClient != nil {
		defer redisClient.Close()
	}

	ledgerStore := store.NewPostgresStore(db)
	sessions := services.NewSessionFactory(ledgerStore)
	authService := services.NewAuthService(db, redisClient, cfg.JWT, cfg.Argon2)
	receiptService := services.NewReceiptService(redisClient, cfg.Ledger.Currency)
	exportService := services.NewExportService(cfg.Ledger)

	accountHandler := handlers.NewAccountHandler(sessions)
	bookingHandler := handlers.NewBookingHandler(sessions, receiptService, exportService)
	balanceHandler := handlers.NewBalanceHandler(sessions)

	authMiddleware := mW.InitAuthMiddleware(redisClient, cfg.JWT.SecretKey)

	// Setup router
	r := chi.NewRouter()

	// Middleware
	r.Use(mW.SecurityHeaders)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(60 * time.Second))

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Access-Control-Allow-Origin"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
	})

	// Prometheus metrics
	r.Handle("/metrics", promhttp.Handler())

	// Swagger documentation
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/openapi.yaml"),
	))

	// Serve OpenAPI spec
	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "./api/openapi.yaml")
	})

	// Static file server for account icons
	r.Handle("/static/account-icons/*", http.StripPrefix("/static/account-icons/",
		mW.StaticFileServer("./static/account-icons")))

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		// Public endpoints (no auth required)
		r.Post("/auth/register", authService.Register)
		r.Post("/auth/login", authService.Login)
		r.Post("/auth/logout", authService.Logout)

		// Protected endpoints (auth required)
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Handler)

			r.Get("/auth/account", authService.GetUserAccount)

			// Chart of accounts
			r.Get("/account-types", accountHandler.ListAccountTypes)
			r.Put("/account-types", accountHandler.UpsertAccountType)
			r.Get("/accounts", accountHandler.ListAccounts)
			r.Put("/accounts", accountHandler.UpsertAccount)

			// Journal and bookings
			r.Post("/bookings", bookingHandler.InsertBooking)
			r.Post("/bookings/search", bookingHandler.SearchBookings)
			r.Get("/journal", bookingHandler.ListJournal)
			r.Get("/journal/export", bookingHandler.ExportJournal)
			r.Get("/journal/{journalID}/receipt", bookingHandler.GetReceipt)

			// Balances
			r.Get("/balances", balanceHandler.GetBalances)
			r.Get("/balances/saldo", balanceHandler.GetLastSaldos)
		})
	})

	// Start server
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Printf("Server starting on :%s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server stopped")
}

package main

import (
	"crypto/tls"
	"encoding/json"
	stdlog "log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/patrickmn/go-cache"
	"github.com/username/fundfolio/backend/src/config"
	"github.com/username/fundfolio/backend/src/database"
	"github.com/username/fundfolio/backend/src/handlers"
	"github.com/username/fundfolio/backend/src/ledger"
	"github.com/username/fundfolio/backend/src/logger"
	"github.com/username/fundfolio/backend/src/security"
	"github.com/username/fundfolio/backend/src/services"
	"github.com/username/fundfolio/backend/src/store"
	"golang.org/x/time/rate"
)

func proxyHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Forwarded-Proto") == "https" {
			r.URL.Scheme = "https"
			r.TLS = &tls.ConnectionState{}
		}
		next.ServeHTTP(w, r)
	})
}

var limiter = rate.NewLimiter(rate.Every(100*time.Millisecond), 30)

func rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow() {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			logger.L.Warn("Rate limit exceeded", "path", r.URL.Path)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		allowedOrigins := map[string]bool{
			"http://localhost:3000":    true,
			config.Cfg.FrontendBaseURL: true,
		}

		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE, PATCH")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding, Authorization, X-Requested-With")
		} else if origin == "" {
			w.Header().Set("Access-Control-Allow-Origin", "*")
		}

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func main() {
	config.LoadConfig()
	logger.InitLogger(config.Cfg.LogLevel)

	logger.L.Info("Fundfolio backend server starting...")

	if len(config.Cfg.JWTSecret) < 32 {
		stdlog.Fatal("JWT_SECRET configuration invalid: must be at least 32 characters.")
	}

	logger.L.Info("Initializing database...", "path", config.Cfg.DatabasePath)
	database.InitDB(config.Cfg.DatabasePath)
	database.RunMigrations(config.Cfg.DatabasePath)

	documentStore := store.NewSQLiteStore(database.DB)
	reportCache := cache.New(services.DefaultCacheExpiration, services.CacheCleanupInterval)
	policies := ledger.NewPolicyResolver(config.Cfg.ReturnsCreditedAccounts)

	authService := security.NewAuthService(config.Cfg.JWTSecret, config.Cfg.AccessTokenExpiry)
	userService := services.NewUserService(documentStore)
	ledgerService := services.NewLedgerService(documentStore, policies, config.Cfg.DefaultPlanName, reportCache, config.Cfg.StatsCacheExpiry)
	txService := services.NewTransactionService(documentStore, config.Cfg.DefaultPlanName)

	authHandler := handlers.NewAuthHandler(authService, userService)
	txHandler := handlers.NewTransactionHandler(ledgerService, txService)
	adminHandler := handlers.NewAdminHandler(ledgerService, txService)

	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(handlers.ContextualLoggerMiddleware)
	r.Use(proxyHeadersMiddleware)
	r.Use(enableCORS)
	r.Use(rateLimitMiddleware)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"message": "Fundfolio Backend is running"})
	})

	r.Route("/api", func(r chi.Router) {
		// Public routes
		r.Group(func(r chi.Router) {
			r.Post("/auth/register", authHandler.RegisterUserHandler)
			r.Post("/auth/login", authHandler.LoginUserHandler)
		})

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(authHandler.AuthMiddleware)

			r.Get("/transactions", txHandler.HandleGetTransactions)
			r.Get("/balance", txHandler.HandleGetBalance)
			r.Get("/charts/deposits", txHandler.HandleGetDepositChart)
			r.Post("/deposits", txHandler.HandleCreateDeposit)
			r.Post("/withdrawals", txHandler.HandleRequestWithdrawal)
			r.Post("/plans", txHandler.HandleStartPlan)

			// Administration routes
			r.Group(func(r chi.Router) {
				r.Use(authHandler.AdminMiddleware)
				r.Get("/admin/transactions", adminHandler.HandleGetAdminTransactions)
				r.Get("/admin/stats", adminHandler.HandleGetAdminStats)
				r.Post("/admin/stats/clear-cache", adminHandler.HandleClearStatsCache)
				r.Get("/admin/charts/deposits", adminHandler.HandleGetAdminDepositChart)
				r.Get("/admin/charts/signups", adminHandler.HandleGetAdminSignupChart)
				r.Post("/admin/users/{userID}/transactions/{kind}/{txID}/status", adminHandler.HandleSetTransactionStatus)
				r.Post("/admin/users/{userID}/profits", adminHandler.HandleCreditProfit)
				r.Post("/admin/users/{userID}/plans/{planID}/return", adminHandler.HandleReturnInvestment)
				r.Put("/admin/users/{userID}/adjustment", adminHandler.HandleSetAdjustment)
			})
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/api/") {
			http.NotFound(w, r)
		}
	})

	serverAddr := ":" + config.Cfg.Port
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.L.Info("Server starting", "address", serverAddr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		stdlog.Fatalf("Failed to start server: %v", err)
	}
}

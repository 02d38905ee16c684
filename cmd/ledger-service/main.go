package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/forkpoint/forkpoint-backend/internal/ledger/events"
	"github.com/forkpoint/forkpoint-backend/internal/ledger/handler"
	"github.com/forkpoint/forkpoint-backend/internal/ledger/repository"
	"github.com/forkpoint/forkpoint-backend/internal/ledger/service"
	"github.com/forkpoint/forkpoint-backend/pkg/config"
	"github.com/forkpoint/forkpoint-backend/pkg/database"
	"github.com/forkpoint/forkpoint-backend/pkg/docstore"
	"github.com/forkpoint/forkpoint-backend/pkg/httputil"
	"github.com/forkpoint/forkpoint-backend/pkg/identity"
	"github.com/forkpoint/forkpoint-backend/pkg/logger"
	"github.com/forkpoint/forkpoint-backend/pkg/messaging"
)

func main() {
	// Load configuration with validation (fails fast in production if required config is missing)
	cfg, err := config.LoadWithValidation("ledger-service")
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New("ledger-service", cfg.Server.Environment)
	log.Info().Msg("starting Ledger Service")

	// Connect to database
	db, err := database.New(&cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	// Connect to RabbitMQ
	rmq, err := messaging.New(&cfg.RabbitMQ, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to RabbitMQ")
	}
	defer rmq.Close()

	// Initialize event publisher
	publisher, err := events.NewLedgerEventPublisher(rmq, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create event publisher")
	}

	// Initialize document store and repositories
	store := docstore.New(db, log)
	itemRepo := repository.NewItemRepository(store, cfg.Ledger.WriteRetries, cfg.Ledger.WriteRetryDelay, log)
	settingsRepo := repository.NewSettingsRepository(store)

	// Initialize service
	ledgerService := service.NewLedgerService(itemRepo, publisher, log)

	// Initialize handlers
	itemHandler := handler.NewItemHandler(ledgerService, log)

	// Start reminder scheduler
	scheduler := service.NewReminderScheduler(
		settingsRepo, publisher,
		cfg.Ledger.ReminderInterval, cfg.Ledger.ReminderThrottle,
		log,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	scheduler.Start(ctx)
	defer scheduler.Stop()

	// Create router
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RealIP)
	r.Use(httputil.RequestID)
	r.Use(httputil.Logger(log))
	r.Use(httputil.Recoverer(log))
	r.Use(middleware.Timeout(60 * time.Second))

	// CORS for the POS front ends
	r.Use(cors.Handler(cors.Options{
		AllowOriginFunc: func(r *http.Request, origin string) bool {
			// Local POS terminals during development
			if origin == "http://localhost:3000" || origin == "http://localhost:5173" {
				return true
			}
			// Allow *.forkpoint.app for production
			if len(origin) > 15 && origin[len(origin)-15:] == ".forkpoint.app" {
				return true
			}
			return origin == "https://forkpoint.app"
		},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Staff identity from JWT bearer tokens
	r.Use(identity.Middleware(identity.NewVerifier(&cfg.JWT)))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.JSON(w, http.StatusOK, map[string]interface{}{
			"status":   "healthy",
			"service":  "ledger-service",
			"database": db.Health(r.Context()),
			"rabbitmq": rmq.Health(),
		})
	})

	// API routes
	r.Route("/api/v1/ledger", func(r chi.Router) {
		r.Route("/items", func(r chi.Router) {
			r.Get("/", itemHandler.List)
			r.Post("/", itemHandler.Create)
			r.Get("/{id}", itemHandler.Get)
			r.Delete("/{id}", itemHandler.Delete)
			r.Get("/{id}/history", itemHandler.History)
			r.Post("/{id}/restock", itemHandler.Restock)
			r.Post("/{id}/consume", itemHandler.Consume)
			r.Post("/{id}/damage", itemHandler.Damage)
			r.Post("/{id}/reverse", itemHandler.Reverse)
		})
	})

	// Create server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server
	go func() {
		log.Info().Str("addr", addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	// Cancel context to stop the scheduler
	cancel()

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

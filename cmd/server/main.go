package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/inkaso/collections-engine/internal/config"
	"github.com/inkaso/collections-engine/internal/handler"
	"github.com/inkaso/collections-engine/internal/notifier"
	"github.com/inkaso/collections-engine/internal/processor"
	"github.com/inkaso/collections-engine/internal/repository"
	"github.com/inkaso/collections-engine/internal/service"
	"github.com/inkaso/collections-engine/pkg/response"
)

func main() {
	// .env is optional; real deployments configure through the environment
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	log := newLogger(cfg.Logging)

	db, err := initDB(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	redisClient := initRedis(cfg)
	defer redisClient.Close()

	// Repositories
	debtRepo := repository.NewDebtRepository(db)
	planRepo := repository.NewPlanRepository(db)
	ledgerRepo := repository.NewLedgerRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	commRepo := repository.NewCommunicationRepository(db)
	disputeRepo := repository.NewDisputeRepository(db)
	relationshipRepo := repository.NewRelationshipRepository(db)

	// Outbound integrations
	emailNotifier := notifier.NewSMTPNotifier(cfg.SMTP, log)
	processorClient := processor.NewHTTPClient(cfg.Processor.BaseURL, cfg.Processor.APIKey)

	// Services
	debtService := service.NewDebtService(debtRepo, ledgerRepo, disputeRepo, relationshipRepo, commRepo, emailNotifier, cfg, log)
	planService := service.NewPlanService(debtRepo, planRepo, ledgerRepo, commRepo, emailNotifier, cfg, log)
	webhookService := service.NewWebhookService(debtService, planService, processorClient, log)

	// Handlers
	debtHandler := handler.NewDebtHandler(debtService, paymentRepo)
	planHandler := handler.NewPlanHandler(planService)
	webhookHandler := handler.NewWebhookHandler(webhookService, redisClient, log)
	healthHandler := handler.NewHealthHandler(db, redisClient)

	router := setupRoutes(debtHandler, planHandler, webhookHandler, healthHandler, log)

	server := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Infof("Server starting on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Info("Server exited")
}

func newLogger(cfg config.LoggingConfig) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stdout)

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	if cfg.Format == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	return log
}

func initDB(cfg *config.Config) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", cfg.Database.URL)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	return db, nil
}

func initRedis(cfg *config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Host + ":" + cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}

func setupRoutes(
	debtHandler *handler.DebtHandler,
	planHandler *handler.PlanHandler,
	webhookHandler *handler.WebhookHandler,
	healthHandler *handler.HealthHandler,
	log *logrus.Logger,
) *mux.Router {
	router := mux.NewRouter()

	// Health check
	router.HandleFunc("/health", healthHandler.Health).Methods("GET")
	router.HandleFunc("/health/ready", healthHandler.Ready).Methods("GET")

	// Processor callbacks bypass tenant scoping; the event carries its own
	router.HandleFunc("/webhooks/payments/succeeded", webhookHandler.PaymentSucceeded).Methods("POST")

	// API routes
	api := router.PathPrefix("/api/v1").Subrouter()
	api.Use(response.JSONMiddleware)
	api.Use(response.LoggingMiddleware(log))

	api.HandleFunc("/debts", debtHandler.CreateDebt).Methods("POST")
	api.HandleFunc("/debts/{debtId}", debtHandler.GetDebt).Methods("GET")
	api.HandleFunc("/debts/{debtId}", debtHandler.Delete).Methods("DELETE")
	api.HandleFunc("/debts/{debtId}/verify", debtHandler.Verify).Methods("POST")
	api.HandleFunc("/debts/{debtId}/transition", debtHandler.Transition).Methods("POST")
	api.HandleFunc("/debts/{debtId}/payments", debtHandler.RecordPayment).Methods("POST")
	api.HandleFunc("/debts/{debtId}/payments", debtHandler.ListPayments).Methods("GET")
	api.HandleFunc("/debts/{debtId}/disputes", debtHandler.RaiseDispute).Methods("POST")
	api.HandleFunc("/disputes/{disputeId}/resolve", debtHandler.ResolveDispute).Methods("POST")

	api.HandleFunc("/debts/{debtId}/payment-plans", planHandler.Propose).Methods("POST")
	api.HandleFunc("/payment-plans/{planId}", planHandler.GetSchedule).Methods("GET")
	api.HandleFunc("/payment-plans/{planId}/approve", planHandler.Approve).Methods("POST")
	api.HandleFunc("/payment-plans/{planId}/reject", planHandler.Reject).Methods("POST")
	api.HandleFunc("/payment-plans/{planId}/accelerate", planHandler.Accelerate).Methods("POST")
	api.HandleFunc("/installments/{installmentId}/payments", planHandler.RecordInstallmentPayment).Methods("POST")

	return router
}

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/inkaso/collections-engine/internal/config"
	"github.com/inkaso/collections-engine/internal/notifier"
	"github.com/inkaso/collections-engine/internal/repository"
	"github.com/inkaso/collections-engine/internal/service"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	log := newLogger(cfg.Logging)
	log.Info("Starting collections scheduler...")

	db, err := initDB(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	debtRepo := repository.NewDebtRepository(db)
	planRepo := repository.NewPlanRepository(db)
	ledgerRepo := repository.NewLedgerRepository(db)
	commRepo := repository.NewCommunicationRepository(db)
	tenantRepo := repository.NewTenantRepository(db)

	emailNotifier := notifier.NewSMTPNotifier(cfg.SMTP, log)

	planService := service.NewPlanService(debtRepo, planRepo, ledgerRepo, commRepo, emailNotifier, cfg, log)
	sweepService := service.NewSweepService(tenantRepo, planRepo, debtRepo, commRepo, planService, emailNotifier, cfg, log)

	c := cron.New(cron.WithSeconds())
	setupCronJobs(c, sweepService, log)

	c.Start()
	log.Info("Scheduler started successfully")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down scheduler...")
	// Stop returns once in-flight jobs have finished.
	<-c.Stop().Done()
	log.Info("Scheduler stopped")
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

func setupCronJobs(c *cron.Cron, sweeps *service.SweepService, log *logrus.Logger) {
	jobs := []struct {
		name string
		spec string
		run  func(context.Context) (int, error)
	}{
		// Reminders go out in the morning so debtors see them same day.
		{"payment_reminders", "0 0 9 * * *", sweeps.SendPaymentReminders},
		// Due-today notices right after midnight.
		{"auto_charges", "0 10 0 * * *", sweeps.ProcessAutoCharges},
		{"overdue_check", "0 20 0 * * *", sweeps.CheckOverdueInstallments},
		// Acceleration runs last; it feeds on installments the overdue
		// check has already marked.
		{"acceleration", "0 30 0 * * *", sweeps.TriggerAccelerations},
	}

	for _, job := range jobs {
		job := job
		_, err := c.AddFunc(job.spec, func() {
			log.WithField("job", job.name).Info("Running sweep job")
			if _, err := job.run(context.Background()); err != nil {
				log.WithError(err).WithField("job", job.name).Error("Sweep job failed")
			}
		})
		if err != nil {
			log.WithError(err).WithField("job", job.name).Error("Error scheduling sweep job")
		}
	}

	log.Info("Cron jobs scheduled successfully")
}

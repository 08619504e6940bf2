// Command server runs the driver certification engine: scoring, medical
// evaluation, the remote exam, lifecycle administration and certificate
// verification behind one HTTP listener.
package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"

	"drivecert/internal/eligibility"
	eligibilityhandler "drivecert/internal/eligibility/handler"
	eligibilitymetrics "drivecert/internal/eligibility/metrics"
	"drivecert/internal/examsession"
	examhandler "drivecert/internal/examsession/handler"
	"drivecert/internal/examsession/lockout"
	exammetrics "drivecert/internal/examsession/metrics"
	"drivecert/internal/examsession/questionbank"
	"drivecert/internal/lifecycle"
	lifecyclehandler "drivecert/internal/lifecycle/handler"
	"drivecert/internal/medical"
	medicalhandler "drivecert/internal/medical/handler"
	"drivecert/internal/platform/config"
	"drivecert/internal/platform/httpserver"
	"drivecert/internal/platform/logger"
	platformmetrics "drivecert/internal/platform/metrics"
	platformredis "drivecert/internal/platform/redis"
	"drivecert/internal/skilltest"
	skillhandler "drivecert/internal/skilltest/handler"
	"drivecert/internal/storage"
	httptransport "drivecert/internal/transport/http"
	"drivecert/pkg/platform/audit"
	kafkapublisher "drivecert/pkg/platform/audit/publishers/kafka"
	auditmemory "drivecert/pkg/platform/audit/store/memory"
	auditpostgres "drivecert/pkg/platform/audit/store/postgres"
	auditworker "drivecert/pkg/platform/audit/worker"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Logging.Level, cfg.Logging.Format)

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Stores. In-memory by default; Postgres holds applications and audit
	// events when configured.
	appStore := storage.ApplicationStore(storage.NewInMemoryApplicationStore())
	drivingStore := storage.NewInMemoryDrivingTestStore()
	medicalStore := storage.NewInMemoryMedicalTestStore()
	sessionStore := storage.NewInMemoryExamSessionStore()
	attemptStore := storage.NewInMemoryLoginAttemptStore()

	var auditStore audit.Store = auditmemory.New()
	if cfg.Audit.PostgresURL != "" {
		db, err := sql.Open("postgres", cfg.Audit.PostgresURL)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			return err
		}
		appStore = storage.NewPostgresApplicationStore(db)
		auditStore = auditpostgres.New(db)
		log.Info("using postgres persistence")
	}

	// Audit pipeline: services emit to a bounded channel, the worker drains
	// into the store, and Kafka fan-out is added when brokers are set.
	channelPub := audit.NewChannelPublisher(cfg.Audit.BufferSize)
	var publisher audit.Publisher = channelPub
	if len(cfg.Audit.KafkaBrokers) > 0 {
		kafkaPub, err := kafkapublisher.New(cfg.Audit.KafkaBrokers, cfg.Audit.KafkaTopic, log)
		if err != nil {
			return err
		}
		defer func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = kafkaPub.Close(closeCtx)
		}()
		publisher = audit.NewFanout(channelPub, kafkaPub)
		log.Info("audit events fan out to kafka", "topic", cfg.Audit.KafkaTopic)
	}
	worker := auditworker.New(auditStore, channelPub.Inbox(), log)
	go func() {
		if err := worker.Run(ctx); err != nil {
			log.Error("audit worker stopped", "error", err)
		}
	}()

	// Lockout counters live in Redis when available so enforcement holds
	// across instances; otherwise in process memory.
	var lockoutStore lockout.Store = lockout.NewMemory(cfg.Lockout.RateLimitWindow)
	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
		lockoutStore = lockout.NewRedis(redisClient.Client, cfg.Lockout.RateLimitWindow)
		log.Info("using redis lockout store")
	}

	var bank questionbank.Provider
	if cfg.Exam.QuestionBankPath != "" {
		bank, err = questionbank.LoadFile(cfg.Exam.QuestionBankPath)
		if err != nil {
			return err
		}
	} else {
		log.Warn("no question bank configured; using synthetic development pool")
		bank = questionbank.NewDev(cfg.Exam.PoolSize)
	}

	// Metrics.
	httpMetrics := platformmetrics.New()
	examMetrics := exammetrics.New(prometheus.DefaultRegisterer)
	verifyMetrics := eligibilitymetrics.New(prometheus.DefaultRegisterer)

	// Services.
	lockoutSvc, err := lockout.New(lockoutStore, cfg.Lockout,
		lockout.WithLogger(log), lockout.WithAuditPublisher(publisher))
	if err != nil {
		return err
	}
	tickets, err := examsession.NewTicketIssuer([]byte(cfg.Server.TicketSignKey))
	if err != nil {
		return err
	}
	examSvc, err := examsession.New(sessionStore, drivingStore, attemptStore, bank, lockoutSvc, tickets, cfg.Exam,
		examsession.WithLogger(log),
		examsession.WithAuditPublisher(publisher),
		examsession.WithMetrics(examMetrics))
	if err != nil {
		return err
	}
	skillSvc, err := skilltest.New(appStore, drivingStore,
		skilltest.WithLogger(log), skilltest.WithAuditPublisher(publisher))
	if err != nil {
		return err
	}
	medicalSvc, err := medical.New(appStore, medicalStore,
		medical.WithLogger(log), medical.WithAuditPublisher(publisher))
	if err != nil {
		return err
	}
	lifecycleSvc, err := lifecycle.New(appStore, drivingStore,
		lifecycle.WithLogger(log), lifecycle.WithAuditPublisher(publisher))
	if err != nil {
		return err
	}
	eligibilitySvc, err := eligibility.New(appStore, drivingStore, medicalStore,
		eligibility.WithLogger(log),
		eligibility.WithAuditPublisher(publisher),
		eligibility.WithMetrics(verifyMetrics))
	if err != nil {
		return err
	}

	checks := map[string]httptransport.HealthChecker{}
	if redisClient != nil {
		checks["redis"] = redisClient
	}

	router := httptransport.NewRouter(httptransport.Deps{
		Handlers: []httptransport.Registrar{
			skillhandler.New(skillSvc, log),
			medicalhandler.New(medicalSvc, log),
			examhandler.New(examSvc, tickets, log),
			lifecyclehandler.New(lifecycleSvc, log),
			eligibilityhandler.New(eligibilitySvc, log),
		},
		Metrics: httpMetrics,
		Checks:  checks,
	})

	srv := httpserver.New(cfg.Server.Addr, router)
	errCh := make(chan error, 1)
	go func() {
		log.Info("starting certification engine", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

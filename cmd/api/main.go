package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/carebridge/referral-service/internal/api/http"
	"github.com/carebridge/referral-service/internal/api/http/handlers"
	"github.com/carebridge/referral-service/internal/cache"
	"github.com/carebridge/referral-service/internal/config"
	"github.com/carebridge/referral-service/internal/events"
	"github.com/carebridge/referral-service/internal/observability"
	"github.com/carebridge/referral-service/internal/persistence"
	"github.com/carebridge/referral-service/internal/repository"
	"github.com/carebridge/referral-service/internal/service"
	"github.com/carebridge/referral-service/internal/worker"
	"github.com/carebridge/referral-service/internal/workflow"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	dispatcher := events.NewInMemoryDispatcher()

	if cfg.Kafka.Enabled() {
		kafkaSink := events.NewKafkaSink(cfg.Kafka.Brokers, cfg.Kafka.Topic, logger)
		kafkaSink.Attach(dispatcher)
		defer kafkaSink.Close()
		logger.Info("kafka event sink enabled",
			zap.Strings("brokers", cfg.Kafka.Brokers),
			zap.String("topic", cfg.Kafka.Topic))
	}

	pool := pg.PoolHandle()
	referralRepo := repository.NewReferralRepository(pool)
	staffRepo := repository.NewStaffRepository(pool)
	participantRepo := repository.NewParticipantRepository(pool)
	shiftRepo := repository.NewShiftRepository(pool)
	auditRepo := repository.NewAuditRepository(pool)
	failureRepo := repository.NewFailureRepository(pool)
	uow := repository.NewUnitOfWork(pool)

	availability := cache.NewAvailabilityCache(redis.Client, cfg.Matching.AvailabilityCacheTTL)
	advanceLock := cache.NewAdvanceLock(redis.Client, time.Duration(cfg.Workflow.AdvanceLockTTLSec)*time.Second)

	matchingService := service.NewMatchingService(service.MatchingDependencies{
		StaffRepo:       staffRepo,
		ParticipantRepo: participantRepo,
		ShiftRepo:       shiftRepo,
		Availability:    availability,
		Dispatcher:      dispatcher,
		Logger:          logger,
		LookaheadDays:   cfg.Matching.LookaheadDays,
	})

	// commenced referrals mean new shifts on the roster
	dispatcher.Subscribe(events.EventReferralStageChanged, func(ctx context.Context, evt events.Event) error {
		payload, ok := evt.Payload.(events.StageChangedPayload)
		if ok && payload.ToStage == workflow.StageServiceCommenced {
			matchingService.InvalidateAvailability(ctx)
		}
		return nil
	})

	validator := workflow.NewRuleValidator(staffRepo)
	executor := workflow.NewExecutor(matchingService, logger)
	monitor := observability.NewStageMonitor(dispatcher, logger)

	workflowService := service.NewWorkflowService(service.WorkflowDependencies{
		ReferralRepo: referralRepo,
		FailureRepo:  failureRepo,
		AuditRepo:    auditRepo,
		UnitOfWork:   uow,
		Validator:    validator,
		Executor:     executor,
		Lock:         advanceLock,
		Dispatcher:   dispatcher,
		Monitor:      monitor,
		Logger:       logger,
		Tuning: service.WorkflowTuning{
			BatchSize:        cfg.Workflow.BatchSize,
			MaxRetries:       cfg.Workflow.MaxRetries,
			RetryBaseBackoff: time.Duration(cfg.Workflow.RetryBaseBackoffMS) * time.Millisecond,
		},
	})
	referralService := service.NewReferralService(referralRepo, auditRepo)

	retryWorker := worker.NewRetryWorker(failureRepo, workflowService, logger, cfg.Workflow.RetryWorkerInterval)
	go retryWorker.Run(ctx)

	metrics := observability.NewMetrics()
	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:    handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Metrics:   handlers.NewMetricsHandler(metrics),
		Referrals: handlers.NewReferralsHandler(referralService),
		Workflow:  handlers.NewWorkflowHandler(workflowService),
		Matching:  handlers.NewMatchingHandler(matchingService),
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	cancel()
	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}

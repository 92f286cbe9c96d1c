package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"groops-notifier/internal/config"
	"groops-notifier/internal/database"
	"groops-notifier/internal/handlers"
	"groops-notifier/internal/jobs"
	"groops-notifier/internal/services"
	"groops-notifier/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const day = 24 * time.Hour

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	logger, err := utils.NewLogger(cfg.LogLevel, cfg.ReleaseMode, cfg.LogFile)
	if err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}
	defer logger.Sync()

	if cfg.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize database
	db, err := database.InitDB(cfg.DatabaseDSN, logger)
	if err != nil {
		logger.Fatal("failed to initialize database", zap.Error(err))
	}

	storage, err := services.NewCloudinaryStorage(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret)
	if err != nil {
		logger.Fatal("failed to initialize object storage", zap.Error(err))
	}

	tasks := database.NewTaskStore(db)
	push := services.NewPushGateway(
		services.NewExpoTransport(cfg.PushAPIURL, cfg.PushAccessToken),
		cfg.PushChunkSize,
		logger,
	)

	intake := services.NewEventIntake(tasks, cfg.Location, logger)
	runners := jobs.Runners{
		Dispatcher: services.NewDispatcher(tasks, database.NewDirectory(db), push,
			cfg.DispatchBatchSize, cfg.Location, logger),
		Retention: services.NewRetentionJanitor(tasks,
			time.Duration(cfg.RetentionDays)*day, cfg.RetentionBatchSize, logger),
		Attachments: services.NewAttachmentJanitor(database.NewPostStore(db), storage,
			time.Duration(cfg.AttachmentRetentionDays)*day, logger),
	}

	// Periodic jobs run on river, backed by the same Postgres database
	pool, err := pgxpool.New(ctx, cfg.DatabaseDSN)
	if err != nil {
		logger.Fatal("failed to open job queue pool", zap.Error(err))
	}
	defer pool.Close()

	if err := jobs.Migrate(ctx, pool); err != nil {
		logger.Fatal("failed to migrate job queue", zap.Error(err))
	}

	riverClient, err := jobs.NewClient(pool, runners, jobs.Schedules{
		DispatchInterval: cfg.DispatchInterval,
		RetentionCron:    cfg.RetentionCron,
		AttachmentCron:   cfg.AttachmentCron,
		Location:         cfg.Location,
	}, cfg.RiverWorkers)
	if err != nil {
		logger.Fatal("failed to create job client", zap.Error(err))
	}
	if err := riverClient.Start(ctx); err != nil {
		logger.Fatal("failed to start job client", zap.Error(err))
	}

	router := handlers.NewRouter(
		handlers.NewHandler(intake, runners, logger),
		handlers.RouterConfig{
			AllowedOrigins:  cfg.CORSAllowedOrigins,
			TriggerAudience: cfg.TriggerAudience,
		},
	)
	if cfg.TriggerAudience == "" {
		logger.Warn("TRIGGER_AUDIENCE not set, internal routes are unauthenticated")
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server starting", zap.String("port", cfg.Port), zap.String("tz", cfg.TZOffset))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown failed", zap.Error(err))
	}
	if err := riverClient.Stop(shutdownCtx); err != nil {
		logger.Error("job client shutdown failed", zap.Error(err))
	}
}

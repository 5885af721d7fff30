// cmd/server/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"aquacare/internal/api"
	"aquacare/internal/common/auth"
	"aquacare/internal/common/aws"
	"aquacare/internal/common/config"
	"aquacare/internal/common/database"
	"aquacare/internal/common/logger"
	"aquacare/internal/common/observability"
	"aquacare/internal/common/scheduler"

	deleteuser "aquacare/internal/handlers/delete-user"
	diseasesearch "aquacare/internal/handlers/disease-search"
	notifymanagers "aquacare/internal/handlers/notify-managers"
	reminderdispatch "aquacare/internal/handlers/reminder-dispatch"
	sickfish "aquacare/internal/handlers/sick-fish"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2 // Exponential backoff
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()

	// Wrap zap logger with our logger interface
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting aquacare server...",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")

	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	// --- Init Elasticsearch with retry ---
	var esClient *database.ElasticsearchClient
	err = retryWithBackoff(func() error {
		var err error
		esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			return err
		}
		return esClient.Ping()
	}, 15, 2*time.Second, zapLog, "Elasticsearch connection")

	if err != nil {
		zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
	}
	zapLog.Info("Elasticsearch connected successfully")

	// --- Init Redis with retry ---
	var redis *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		redis, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return redis.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")

	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redis.Close()
	zapLog.Info("Redis connected successfully")

	// --- Init External Service Clients ---
	keycloak := auth.NewKeycloakClient(
		cfg.Auth.Keycloak.URL,
		cfg.Auth.Keycloak.Realm,
		cfg.Auth.Keycloak.ClientID,
		cfg.Auth.Keycloak.ClientSecret,
	)

	sesClient, err := aws.NewSESClient(ctx, cfg.Integrations.AWS.Region)
	if err != nil {
		zapLog.Fatal("ses client failed", zap.Error(err))
	}
	snsClient, err := aws.NewSNSClient(ctx, cfg.Integrations.AWS.Region)
	if err != nil {
		zapLog.Fatal("sns client failed", zap.Error(err))
	}
	zapLog.Info("All external service clients initialized")

	// --- Load the reminder email template once at startup ---
	templateBytes, err := os.ReadFile(cfg.Reminders.TemplatePath)
	if err != nil {
		zapLog.Fatal("reminder template load failed",
			zap.String("path", cfg.Reminders.TemplatePath),
			zap.Error(err),
		)
	}

	// --- Build services and handlers ---
	dispatchService := reminderdispatch.NewService(
		&reminderdispatch.Config{
			Window:    time.Duration(cfg.Reminders.WindowMinutes) * time.Minute,
			Subject:   cfg.Reminders.Subject,
			FromEmail: cfg.Integrations.AWS.SES.FromEmail,
			Timeout:   config.GetDuration(cfg.Reminders.Timeout),
		},
		pg.DB, keycloak, sesClient, string(templateBytes), log,
	)
	dispatchHandler := reminderdispatch.NewHandler(dispatchService, obs, log)

	deleteUserService := deleteuser.NewService(pg.DB, keycloak, log)
	deleteUserHandler := deleteuser.NewHandler(deleteUserService, log)

	notifyService := notifymanagers.NewService(
		&notifymanagers.Config{
			ManagerRole:  cfg.Auth.Keycloak.ManagerRole,
			FromEmail:    cfg.Integrations.AWS.SES.FromEmail,
			EmailEnabled: cfg.Integrations.AWS.SES.Enabled,
			SMSEnabled:   cfg.Integrations.AWS.SNS.Enabled,
			Timeout:      config.GetDuration(cfg.Reminders.Timeout),
		},
		pg.DB, keycloak, sesClient, snsClient, log,
	)
	notifyHandler := notifymanagers.NewHandler(notifyService, log)

	searchService := diseasesearch.NewService(
		&diseasesearch.Config{
			Index:    cfg.Search.Index,
			CacheTTL: time.Duration(cfg.Search.CacheTTL) * time.Second,
			MaxHits:  cfg.Search.MaxHits,
			Timeout:  config.GetDuration(cfg.Search.Timeout),
		},
		esClient.Client, redis.Client, log,
	)
	searchHandler := diseasesearch.NewHandler(searchService, log)

	sickFishService := sickfish.NewService(pg.DB, notifyService, log)
	sickFishHandler := sickfish.NewHandler(sickFishService, config.GetDuration(cfg.Reminders.Timeout), log)

	router := api.NewRouter(api.Handlers{
		ReminderDispatch: dispatchHandler.Handle,
		DeleteUser:       deleteUserHandler.Handle,
		NotifyManagers:   notifyHandler.Handle,
		DiseaseSearch:    searchHandler.Handle,
		SickFish:         sickFishHandler.Handle,
	}, zapLog)

	// --- Optional in-process dispatch trigger ---
	var dispatchScheduler *scheduler.Scheduler
	if cfg.Reminders.CronEnabled {
		dispatchScheduler = scheduler.New(
			func(ctx context.Context) error {
				_, err := dispatchService.Run(ctx)
				return err
			},
			cfg.Reminders.CronSpec,
			config.GetDuration(cfg.Reminders.Timeout),
			log,
		)
		if err := dispatchScheduler.Start(); err != nil {
			zapLog.Fatal("dispatch scheduler failed to start", zap.Error(err))
		}
	}

	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  config.GetDuration(cfg.Server.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.Server.WriteTimeout),
	}

	go func() {
		zapLog.Info("HTTP server listening", zap.String("address", cfg.Server.Address))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Fatal("http server failed", zap.Error(err))
		}
	}()

	// --- Wait for shutdown signal ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping...")

	if dispatchScheduler != nil {
		dispatchScheduler.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.Server.ShutdownTimeout))
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("http server shutdown failed", zap.Error(err))
	}

	zapLog.Info("Server stopped")
}

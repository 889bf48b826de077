// cmd/worker-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"application-workers/internal/application"
	"application-workers/internal/common/aws"
	"application-workers/internal/common/camunda"
	"application-workers/internal/common/config"
	"application-workers/internal/common/database"
	apperrors "application-workers/internal/common/errors"
	"application-workers/internal/common/lock"
	"application-workers/internal/common/logger"
	"application-workers/internal/common/observability"
	"application-workers/internal/customer"
	"application-workers/internal/notifications"
	"application-workers/pkg/registry"

	ea "application-workers/internal/workers/application/expire-applications"
	qa "application-workers/internal/workers/application/query-applications"
	ra "application-workers/internal/workers/application/register-application"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		if stdErr, ok := apperrors.AsStandardError(err); ok {
			fmt.Fprintf(os.Stderr, "worker manager: %v: %s\n", stdErr, stdErr.Details)
		} else {
			fmt.Fprintf(os.Stderr, "worker manager: %v\n", err)
		}
		os.Exit(1)
	}
}

// connectionError tags a start-up connection failure with the store it
// belongs to.
func connectionError(store string, err error) error {
	return apperrors.NewDatabaseConnectionFailedError(err).WithMetadata("store", store)
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config load failed: %w", err)
	}

	zapLog, err := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	if err != nil {
		return fmt.Errorf("logger init failed: %w", err)
	}
	defer zapLog.Sync()

	log := logger.NewZapAdapter(zapLog.With(
		zap.String("service", cfg.App.Name),
		zap.String("version", cfg.App.Version),
	))
	log.Info("Starting worker manager...", nil)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	obs, err := observability.New(cfg.App.Name)
	if err != nil {
		return err
	}
	tracing, err := observability.SetupTracing(cfg.Tracing, cfg.App.Name)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracing.Shutdown(shutdownCtx); err != nil {
			log.Warn("tracer shutdown failed", map[string]interface{}{"error": err})
		}
		_ = obs.Shutdown(shutdownCtx)
	}()

	// --- Zeebe ---
	var zeebe *camunda.Client
	err = camunda.RetryWithBackoff(ctx, func() error {
		var err error
		zeebe, err = camunda.NewClient(ctx, cfg.Camunda)
		return err
	}, 10, 2*time.Second, log, "Zeebe client initialization")
	if err != nil {
		return err
	}
	defer zeebe.Close()
	log.Info("Zeebe client connected successfully", nil)

	// --- PostgreSQL ---
	var pg *database.PostgresClient
	err = camunda.RetryWithBackoff(ctx, func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		if err := pg.Ping(ctx); err != nil {
			pg.Close()
			return err
		}
		return nil
	}, 15, 2*time.Second, log, "PostgreSQL connection")
	if err != nil {
		return connectionError("postgres", err)
	}
	defer pg.Close()
	log.Info("PostgreSQL connected successfully", nil)

	if cfg.Database.Postgres.AutoMigrate {
		if err := pg.Migrate(ctx, application.ApplicationsSchema, customer.Schema); err != nil {
			return err
		}
	}

	// --- Redis (sweep lock) ---
	var redisClient *database.RedisClient
	if cfg.Expiry.LockEnabled {
		err = camunda.RetryWithBackoff(ctx, func() error {
			var err error
			redisClient, err = database.NewRedis(cfg.Database.Redis)
			if err != nil {
				return err
			}
			if err := redisClient.Ping(ctx); err != nil {
				redisClient.Close()
				return err
			}
			return nil
		}, 10, 2*time.Second, log, "Redis connection")
		if err != nil {
			return connectionError("redis", err)
		}
		defer redisClient.Close()
		log.Info("Redis connected successfully", nil)
	}

	// --- Notifications ---
	var notifier application.NotificationClient
	if cfg.Notifications.SNS.Enabled {
		snsClient, err := aws.NewSNSClient(ctx, cfg.Notifications.SNS.Region)
		if err != nil {
			return err
		}
		notifier, err = notifications.NewSNSClient(snsClient, cfg.Notifications.SNS.TopicARN, cfg.Notifications.SNS.Subject, log)
		if err != nil {
			return err
		}
	} else {
		log.Warn("SNS disabled, notifications are only logged", nil)
		notifier = notifications.NewLogClient(log)
	}

	// --- Service ---
	mode, err := application.ParseExpiryMode(cfg.Expiry.Mode)
	if err != nil {
		return err
	}
	customers := customer.NewPostgresRepository(pg.DB)
	opts := []application.ServiceOption{
		application.WithPolicy(application.ExpiryPolicy{ThresholdMonths: cfg.Expiry.ThresholdMonths, Mode: mode}),
		application.WithLogger(log),
		application.WithObserver(obs),
	}
	if redisClient != nil {
		opts = append(opts, application.WithSweepLock(
			lock.NewRedisLock(redisClient.Client, cfg.Expiry.LockKey, config.GetDuration(cfg.Expiry.LockTTL)),
		))
	}
	service := application.NewService(application.NewPostgresRepository(pg.DB), notifier, customers, opts...)

	// --- Workers ---
	workers := camunda.NewWorkerSet(zeebe.Zeebe(), log)
	workers.Start(cfg, ra.TaskType,
		ra.NewHandler(ra.LoadConfig(cfg), service, obs, log))
	workers.Start(cfg, ea.TaskType,
		ea.NewHandler(ea.LoadConfig(cfg), service, obs, log))
	workers.Start(cfg, qa.TaskType,
		qa.NewHandler(qa.LoadConfig(cfg), service, customers, obs, log))
	log.Info("workers registered", map[string]interface{}{"running": workers.Running()})
	checkRegistry(cfg.App.Registry, workers.Running(), log)

	// --- Health & Metrics Server ---
	var server *http.Server
	if cfg.Metrics.Enabled {
		checks := map[string]func(context.Context) error{
			"postgres": pg.Ping,
			"zeebe":    zeebe.HealthCheck,
		}
		if redisClient != nil {
			checks["redis"] = redisClient.Ping
		}
		server = &http.Server{
			Addr:              cfg.Metrics.Address,
			Handler:           newMux(checks),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			log.Info("Health/Metrics server listening", map[string]interface{}{"address": cfg.Metrics.Address})
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("Health/Metrics server failed", map[string]interface{}{"error": err})
			}
		}()
	}

	// --- Graceful Shutdown ---
	<-ctx.Done()
	log.Info("Shutdown signal received, stopping workers...", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	workers.Close()
	if server != nil {
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error("Error stopping Health/Metrics server", map[string]interface{}{"error": err})
		}
	}

	log.Info("Worker manager stopped gracefully", nil)
	return nil
}

// checkRegistry warns about running task types the activity registry does
// not describe. A missing registry file is not fatal.
func checkRegistry(path string, taskTypes []string, log logger.Logger) {
	reg, err := registry.LoadRegistry(path)
	if err != nil {
		log.Warn("activity registry unavailable", map[string]interface{}{"path": path, "error": err})
		return
	}
	if missing := reg.Missing(taskTypes...); len(missing) > 0 {
		log.Warn("task types missing from activity registry", map[string]interface{}{"missing": missing})
	}
}

func newMux(checks map[string]func(context.Context) error) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		status := http.StatusOK
		results := make(map[string]string, len(checks))
		for name, check := range checks {
			if err := check(ctx); err != nil {
				status = http.StatusServiceUnavailable
				results[name] = err.Error()
				continue
			}
			results[name] = "ok"
		}

		state := "ready"
		if status != http.StatusOK {
			state = "not_ready"
		}
		writeJSON(w, status, map[string]interface{}{
			"status": state,
			"checks": results,
			"time":   time.Now().Format(time.RFC3339),
		})
	})
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

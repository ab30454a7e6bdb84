// cmd/worker-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"lendermatch-workers/internal/api"
	"lendermatch-workers/internal/common/aws"
	"lendermatch-workers/internal/common/camunda"
	"lendermatch-workers/internal/common/config"
	"lendermatch-workers/internal/common/database"
	"lendermatch-workers/internal/common/logger"
	"lendermatch-workers/internal/common/observability"

	// Matching Workers (4)
	ml "lendermatch-workers/internal/workers/matching/match-lenders"
	nml "lendermatch-workers/internal/workers/matching/notify-matched-lenders"
	rmr "lendermatch-workers/internal/workers/matching/record-match-results"
	vla "lendermatch-workers/internal/workers/matching/validate-loan-application"

	// Data Access Workers (2)
	ql "lendermatch-workers/internal/workers/data-access/query-lenders"
	sl "lendermatch-workers/internal/workers/data-access/search-lenders"

	// Infrastructure Workers (1)
	bmr "lendermatch-workers/internal/workers/infrastructure/build-match-response"
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
	zapLog := logger.New("info", "console")
	defer zapLog.Sync()

	// Wrap zap logger with our logger interface
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...")

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	obs := observability.New("worker-manager")
	defer obs.Shutdown()

	tracing, err := observability.NewTracing(cfg.App.Name, cfg.Tracing.JaegerEndpoint)
	if err != nil {
		zapLog.Warn("tracing setup failed, continuing without span export", zap.Error(err))
	} else {
		defer tracing.Shutdown()
	}

	ctx := context.Background()

	// --- Init Zeebe Client with retry ---
	var camundaClient *camunda.Client
	err = retryWithBackoff(func() error {
		var err error
		camundaClient, err = camunda.NewClient(cfg.Camunda.BrokerAddress)
		return err
	}, 10, 2*time.Second, zapLog, "Zeebe client initialization")

	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zapLog.Info("Zeebe client connected successfully")

	zeebeClient := camundaClient.GetClient()
	var activeWorkers []*camunda.Worker

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		// Test the connection with context
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
		// Test the connection
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
		// Test the connection with context
		return redis.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")

	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redis.Close()
	zapLog.Info("Redis connected successfully")

	// --- Init AWS clients for notifications ---
	var sesClient *aws.SESClient
	var snsClient *aws.SNSClient
	if cfg.Notifications.Email.Enabled || cfg.Notifications.SMS.Enabled {
		if cfg.Notifications.Email.Enabled {
			sesClient, err = aws.NewSESClient(ctx, cfg.Notifications.AWS.Region)
			if err != nil {
				zapLog.Fatal("SES client initialization failed", zap.Error(err))
			}
		}
		if cfg.Notifications.SMS.Enabled {
			snsClient, err = aws.NewSNSClient(ctx, cfg.Notifications.AWS.Region)
			if err != nil {
				zapLog.Fatal("SNS client initialization failed", zap.Error(err))
			}
		}
		zapLog.Info("AWS notification clients initialized")
	}

	// --- START: Register ALL 7 Workers ---

	// --- 1. Matching Workers (4) ---
	if cfg.Workers[vla.TaskType].Enabled {
		handler := vla.NewHandler(
			&vla.Config{
				Timeout: time.Duration(cfg.Workers[vla.TaskType].Timeout) * time.Millisecond,
			},
			log,
		)
		activeWorkers = append(activeWorkers, camunda.StartWorker(zeebeClient, vla.TaskType, cfg.Workers[vla.TaskType], handler.Handle, obs, zapLog))
	}

	if cfg.Workers[ml.TaskType].Enabled {
		handler := ml.NewHandler(
			&ml.Config{
				MaxResults: cfg.Matching.MaxResults,
				MinScore:   cfg.Matching.MinScore,
				CacheTTL:   time.Duration(cfg.Matching.CacheTTL) * time.Second,
				Timeout:    time.Duration(cfg.Workers[ml.TaskType].Timeout) * time.Millisecond,
			},
			pg.DB, redis.Client, log,
		)
		activeWorkers = append(activeWorkers, camunda.StartWorker(zeebeClient, ml.TaskType, cfg.Workers[ml.TaskType], handler.Handle, obs, zapLog))
	}

	if cfg.Workers[rmr.TaskType].Enabled {
		handler := rmr.NewHandler(
			&rmr.Config{
				Timeout: time.Duration(cfg.Workers[rmr.TaskType].Timeout) * time.Millisecond,
			},
			pg.DB, log,
		)
		activeWorkers = append(activeWorkers, camunda.StartWorker(zeebeClient, rmr.TaskType, cfg.Workers[rmr.TaskType], handler.Handle, obs, zapLog))
	}

	if cfg.Workers[nml.TaskType].Enabled {
		handler := nml.NewHandler(
			&nml.Config{
				EmailEnabled: cfg.Notifications.Email.Enabled,
				SMSEnabled:   cfg.Notifications.SMS.Enabled,
				FromEmail:    cfg.Notifications.Email.FromEmail,
				SMSMinScore:  cfg.Notifications.SMS.MinMatchScore,
				Timeout:      time.Duration(cfg.Workers[nml.TaskType].Timeout) * time.Millisecond,
			},
			sesClient, snsClient, log,
		)
		activeWorkers = append(activeWorkers, camunda.StartWorker(zeebeClient, nml.TaskType, cfg.Workers[nml.TaskType], handler.Handle, obs, zapLog))
	}

	// --- 2. Data Access Workers (2) ---
	if cfg.Workers[ql.TaskType].Enabled {
		handler := ql.NewHandler(
			&ql.Config{
				Timeout: time.Duration(cfg.Workers[ql.TaskType].Timeout) * time.Millisecond,
			},
			pg.DB, log,
		)
		activeWorkers = append(activeWorkers, camunda.StartWorker(zeebeClient, ql.TaskType, cfg.Workers[ql.TaskType], handler.Handle, obs, zapLog))
	}

	if cfg.Workers[sl.TaskType].Enabled {
		handler := sl.NewHandler(
			&sl.Config{
				Timeout: time.Duration(cfg.Workers[sl.TaskType].Timeout) * time.Millisecond,
			},
			esClient.Client, log,
		)
		activeWorkers = append(activeWorkers, camunda.StartWorker(zeebeClient, sl.TaskType, cfg.Workers[sl.TaskType], handler.Handle, obs, zapLog))
	}

	// --- 3. Infrastructure Workers (1) ---
	if cfg.Workers[bmr.TaskType].Enabled {
		handler := bmr.NewHandler(
			&bmr.Config{
				RegistryPath: cfg.Registry.Path,
				CacheTTL:     5 * time.Minute,
				AppVersion:   cfg.App.Version,
				Timeout:      time.Duration(cfg.Workers[bmr.TaskType].Timeout) * time.Millisecond,
			},
			log,
		)
		activeWorkers = append(activeWorkers, camunda.StartWorker(zeebeClient, bmr.TaskType, cfg.Workers[bmr.TaskType], handler.Handle, obs, zapLog))
	}

	zapLog.Info("All 7 workers registered successfully")

	// --- Health, Metrics & Match API Server ---
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		status := "ready"
		code := http.StatusOK
		if err := pg.Ping(r.Context()); err != nil {
			status = "degraded"
			code = http.StatusServiceUnavailable
		} else if err := camundaClient.HealthCheck(r.Context()); err != nil {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		json.NewEncoder(w).Encode(map[string]string{
			"status": status,
			"time":   time.Now().Format(time.RFC3339),
		})
	})
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/match", api.NewMatchHandler(log, obs, tracing))

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:      mux,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeout) * time.Millisecond,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeout) * time.Millisecond,
	}

	go func() {
		zapLog.Info("HTTP server listening", zap.Int("port", cfg.HTTP.Port))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Error("HTTP server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(),
		time.Duration(cfg.HTTP.ShutdownTimeout)*time.Millisecond)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error shutting down HTTP server", zap.Error(err))
	}

	for _, w := range activeWorkers {
		w.Stop()
	}

	if err := camundaClient.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped gracefully")
}

// cmd/worker-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"fishery-permit/internal/common/camunda"
	"fishery-permit/internal/common/config"
	"fishery-permit/internal/common/database"
	"fishery-permit/internal/common/logger"
	"fishery-permit/internal/common/observability"

	ar "fishery-permit/internal/workers/review/assess-risk"
	na "fishery-permit/internal/workers/review/notify-applicant"
	uas "fishery-permit/internal/workers/review/update-application-status"
	vs "fishery-permit/internal/workers/review/validate-submission"
	vd "fishery-permit/internal/workers/review/verify-documents"
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
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

// registration builds the handler for one review task type.
type registration struct {
	taskType string
	build    func(timeout time.Duration) (camunda.JobHandler, error)
}

func main() {
	zapLog := logger.New("info", "console")

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}
	zapLog = logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()

	log := logger.NewZapAdapter(zapLog)
	zapLog.Info("Starting worker manager...", zap.String("environment", cfg.App.Environment))

	if !cfg.Camunda.Enabled() {
		zapLog.Fatal("camunda.broker_address is required for the worker manager")
	}
	if !cfg.IntegrationActive() {
		zapLog.Fatal("review workers need the application database",
			zap.Strings("missing", cfg.IntegrationWarnings()))
	}

	obs := observability.New("worker-manager", log)
	defer obs.Shutdown()

	// --- Init Zeebe Client with retry ---
	var zeebe *camunda.Client
	err = retryWithBackoff(func() error {
		var err error
		zeebe, err = camunda.NewClientWithConfig(&camunda.ClientConfig{
			GatewayAddress:         cfg.Camunda.BrokerAddress,
			UsePlaintextConnection: true,
			ConnectionTimeout:      10 * time.Second,
			RequestTimeout:         config.GetDuration(cfg.Camunda.RequestTimeout),
		})
		return err
	}, 10, 2*time.Second, zapLog, "Zeebe client initialization")
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zapLog.Info("Zeebe client connected successfully")

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return pg.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "PostgreSQL connection")
	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	registrations := []registration{
		{vs.TaskType, func(timeout time.Duration) (camunda.JobHandler, error) {
			c := vs.LoadConfig()
			c.Timeout = timeout
			return vs.NewHandler(c, pg.DB, log), nil
		}},
		{vd.TaskType, func(timeout time.Duration) (camunda.JobHandler, error) {
			c := vd.LoadConfig()
			c.Timeout = timeout
			c.Limits.MaxSizeBytes = cfg.Attachments.MaxSizeBytes
			c.Limits.MaxFiles = cfg.Attachments.MaxFiles
			c.Limits.AllowedTypes = cfg.Attachments.AllowedTypes
			return vd.NewHandler(c, pg.DB, log), nil
		}},
		{ar.TaskType, func(timeout time.Duration) (camunda.JobHandler, error) {
			c := ar.LoadConfig()
			c.Timeout = timeout
			return ar.NewHandler(c, pg.DB, log), nil
		}},
		{uas.TaskType, func(timeout time.Duration) (camunda.JobHandler, error) {
			c := uas.LoadConfig()
			c.Timeout = timeout
			return uas.NewHandler(c, pg.DB, log), nil
		}},
		{na.TaskType, func(timeout time.Duration) (camunda.JobHandler, error) {
			c := na.LoadConfig()
			c.Timeout = timeout
			c.EmailEnabled = cfg.Notifications.Email.Enabled
			c.FromEmail = cfg.Notifications.Email.FromEmail
			c.SMSEnabled = cfg.Notifications.SMS.Enabled
			c.AWSRegion = cfg.Notifications.AWS.Region
			return na.NewHandler(c, log)
		}},
	}

	// --- Register review workers ---
	var workers []*camunda.ReviewWorker
	for _, reg := range registrations {
		if !config.IsWorkerEnabled(cfg, reg.taskType) {
			zapLog.Info("worker disabled", zap.String("taskType", reg.taskType))
			continue
		}
		wcfg := config.GetWorkerConfig(cfg, reg.taskType)
		timeout := config.GetDuration(wcfg.Timeout)

		handler, err := reg.build(timeout)
		if err != nil {
			zapLog.Fatal("worker setup failed", zap.String("taskType", reg.taskType), zap.Error(err))
		}
		workers = append(workers, camunda.StartWorker(zeebe.GetClient(), reg.taskType, camunda.WorkerOptions{
			MaxJobsActive: wcfg.MaxJobsActive,
			Timeout:       timeout,
		}, handler, obs, log))
	}
	zapLog.Info("review workers registered", zap.Int("count", len(workers)))

	// --- Health & Metrics Server ---
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusOK, "healthy")
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()
		if err := pg.Ping(ctx); err != nil {
			writeStatus(w, http.StatusServiceUnavailable, "database unavailable")
			return
		}
		if err := zeebe.HealthCheck(ctx); err != nil {
			writeStatus(w, http.StatusServiceUnavailable, "broker unavailable")
			return
		}
		writeStatus(w, http.StatusOK, "ready")
	})
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{Addr: cfg.HTTP.Addr(), Handler: mux}
	go func() {
		zapLog.Info("Health/Metrics server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")
	ctx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.HTTP.ShutdownTimeout))
	defer cancel()

	for _, w := range workers {
		w.Stop()
	}
	if err := server.Shutdown(ctx); err != nil {
		zapLog.Error("Error stopping health server", zap.Error(err))
	}
	if err := zeebe.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped")
}

func writeStatus(w http.ResponseWriter, code int, status string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": status})
}

package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fishery-permit/internal/api"
	"fishery-permit/internal/common/camunda"
	"fishery-permit/internal/common/config"
	"fishery-permit/internal/common/database"
	"fishery-permit/internal/common/logger"
	"fishery-permit/internal/events"
	"fishery-permit/internal/models"
	"fishery-permit/internal/permit/attachments"
	"fishery-permit/internal/permit/demo"
	"fishery-permit/internal/permit/session"
	"fishery-permit/internal/permit/wizard"
	"fishery-permit/internal/store"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// changeSource serves both coalesced signals and the full change stream.
type changeSource interface {
	store.Watcher
	store.Streamer
}

// backend is the application store the server runs on, either the hosted
// database or the in-memory sample data.
type backend struct {
	mode    string
	repo    store.Repository
	watcher changeSource
	ping    func(ctx context.Context) error
	// run holds the loops that must live as long as the server.
	run     []func(ctx context.Context)
	closers []func() error
}

func (b *backend) close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](); err != nil {
			zapLog.Warn("close failed", zap.Error(err))
		}
	}
}

func newMockBackend() *backend {
	mem := store.NewMemoryRepository(demo.Fixtures{})
	return &backend{mode: api.ModeMock, repo: mem, watcher: mem.Changes()}
}

func newDatabaseBackend(ctx context.Context, log logger.Logger) (*backend, error) {
	pg, err := connectPostgres(ctx)
	if err != nil {
		return nil, err
	}
	b := &backend{mode: api.ModeDatabase, ping: pg.Ping}
	b.closers = append(b.closers, pg.Close)

	pgRepo := store.NewPostgresRepository(pg.DB)
	channel := cfg.Database.Postgres.NotifyChannel
	if autoMigrate {
		if err := pgRepo.Migrate(ctx, channel); err != nil {
			b.close()
			return nil, err
		}
		zapLog.Info("schema applied", zap.String("notifyChannel", channel))
	}

	b.repo = pgRepo
	if cfg.Database.Redis.Enabled() {
		rc, err := database.NewRedis(cfg.Database.Redis)
		if err == nil {
			err = rc.Ping(ctx)
		}
		if err != nil {
			zapLog.Warn("redis unavailable, serving without cache", zap.Error(err))
		} else {
			b.repo = store.NewCachedRepository(pgRepo, rc.Client, config.GetDuration(cfg.Database.Redis.CacheTTL), log)
			b.closers = append(b.closers, rc.Close)
		}
	}

	watcher := store.NewPQWatcher(pg.NewListener(log), channel, log)
	b.watcher = watcher
	b.run = append(b.run, func(ctx context.Context) {
		if err := watcher.Run(ctx); err != nil {
			zapLog.Error("change listener stopped", zap.Error(err))
		}
	})
	return b, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log := logger.NewZapAdapter(zapLog)

	var b *backend
	if cfg.IntegrationActive() {
		var err error
		if b, err = newDatabaseBackend(ctx, log); err != nil {
			return err
		}
	} else {
		zapLog.Warn("database not configured, serving sample data",
			zap.Strings("warnings", cfg.IntegrationWarnings()))
		b = newMockBackend()
	}
	defer b.close()

	for _, run := range b.run {
		go run(ctx)
	}

	live := store.NewLiveList(b.repo, b.watcher, log)
	live.OnRefresh(func(apps []models.FisheryApplication, cause store.Change) {
		zapLog.Debug("application list refreshed",
			zap.String("op", cause.Op),
			zap.String("applicationId", cause.ID),
			zap.Int("count", len(apps)))
	})
	go live.Run(ctx)

	if cfg.Kafka.Enabled() {
		publisher := events.NewKafkaPublisher(
			events.NewKafkaWriter(cfg.Kafka.Brokers, cfg.Kafka.Topic), cfg.Kafka.Topic, log)
		defer publisher.Close()
		go publisher.Forward(ctx, b.watcher, b.repo)
		zapLog.Info("publishing application changes", zap.String("topic", cfg.Kafka.Topic))
	}

	managerOpts := []session.ManagerOption{
		session.WithDemoData(demo.Fixtures{}),
		session.WithIdleTimeout(config.GetDuration(cfg.Wizard.SessionIdleTimeout)),
	}
	if cfg.Camunda.Enabled() {
		client, err := camunda.NewClient(cfg.Camunda.BrokerAddress)
		if err != nil {
			zapLog.Warn("review engine unavailable, submissions will not start a review", zap.Error(err))
		} else {
			defer client.Close()
			managerOpts = append(managerOpts, session.WithLauncher(
				camunda.NewReviewLauncher(client, cfg.Camunda.ProcessID, camunda.DefaultRetryConfig, log)))
		}
	}

	limits := attachments.Limits{
		MaxSizeBytes: cfg.Attachments.MaxSizeBytes,
		MaxFiles:     cfg.Attachments.MaxFiles,
		AllowedTypes: cfg.Attachments.AllowedTypes,
	}
	manager := session.NewManager(session.Options{
		Steps:                 wizard.DefaultSteps(),
		StrictAdvance:         cfg.Wizard.StrictAdvance,
		Debounce:              config.GetDuration(cfg.Wizard.DebounceMs),
		ValidationDelay:       config.GetDuration(cfg.Wizard.ValidationDelayMs),
		FeedCapacity:          cfg.Wizard.FeedCapacity,
		RecentRecommendations: cfg.Wizard.RecentRecommendations,
		Limits:                limits,
	}, b.repo, log, managerOpts...)
	defer manager.Close()
	go manager.Run(ctx, time.Minute)

	handler := api.NewServer(api.Options{
		Sessions:       manager,
		Repo:           b.repo,
		Live:           live,
		Mode:           b.mode,
		Warnings:       cfg.IntegrationWarnings(),
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
		Ping:           b.ping,
		Logger:         log,
	}).Handler()

	server := &http.Server{
		Addr:         cfg.HTTP.Addr(),
		Handler:      handler,
		ReadTimeout:  config.GetDuration(cfg.HTTP.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.HTTP.WriteTimeout),
	}

	errCh := make(chan error, 1)
	go func() {
		zapLog.Info("permit server listening", zap.String("addr", server.Addr), zap.String("mode", b.mode))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		zapLog.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.HTTP.ShutdownTimeout))
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("server shutdown failed", zap.Error(err))
		return err
	}
	zapLog.Info("permit server stopped")
	return nil
}

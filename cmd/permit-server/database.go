package main

import (
	"context"
	"fmt"
	"time"

	"fishery-permit/internal/common/database"
	"fishery-permit/internal/common/errors"
	"fishery-permit/internal/permit/demo"
	"fishery-permit/internal/store"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// connectPostgres opens and pings the configured database, retrying while it
// starts up.
func connectPostgres(ctx context.Context) (*database.PostgresClient, error) {
	if !cfg.IntegrationActive() {
		return nil, errors.NewConfigMissingError(cfg.IntegrationWarnings()...)
	}

	var pg *database.PostgresClient
	err := retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := pg.Ping(pingCtx); err != nil {
			pg.Close()
			return err
		}
		return nil
	}, 5, time.Second, zapLog, "PostgreSQL connection")
	if err != nil {
		return nil, err
	}
	return pg, nil
}

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
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	pg, err := connectPostgres(ctx)
	if err != nil {
		return err
	}
	defer pg.Close()

	channel := cfg.Database.Postgres.NotifyChannel
	if err := store.NewPostgresRepository(pg.DB).Migrate(ctx, channel); err != nil {
		return err
	}
	zapLog.Info("schema applied", zap.String("notifyChannel", channel))
	return nil
}

func runSeed(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	pg, err := connectPostgres(ctx)
	if err != nil {
		return err
	}
	defer pg.Close()

	repo := store.NewPostgresRepository(pg.DB)
	inserted := 0
	for _, app := range (demo.Fixtures{}).Applications() {
		app := app
		if _, err := repo.GetByNumber(ctx, app.ApplicationNumber); err == nil {
			zapLog.Info("sample already present", zap.String("applicationNumber", app.ApplicationNumber))
			continue
		} else if errors.AsStandard(err).Code != errors.ErrCodeApplicationNotFound {
			return err
		}
		if err := repo.Create(ctx, &app); err != nil {
			return err
		}
		inserted++
	}
	zapLog.Info("sample applications seeded", zap.Int("inserted", inserted))
	return nil
}

package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"fishery-permit/internal/common/config"
	"fishery-permit/internal/common/logger"

	"github.com/lib/pq"
)

type PostgresClient struct {
	DB  *sql.DB
	dsn string
}

func NewPostgres(cfg config.PostgresConfig) (*PostgresClient, error) {
	dsn := cfg.GetDSN()

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(cfg.MaxIdle)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	return &PostgresClient{DB: db, dsn: dsn}, nil
}

func (c *PostgresClient) Ping(ctx context.Context) error {
	return c.DB.PingContext(ctx)
}

func (c *PostgresClient) Close() error {
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}

func (c *PostgresClient) GetDB() *sql.DB {
	return c.DB
}

// NewListener opens a LISTEN/NOTIFY connection on the same DSN. Connection
// state changes are logged; pq reconnects on its own between the two intervals.
func (c *PostgresClient) NewListener(log logger.Logger) *pq.Listener {
	log = log.WithFields(map[string]interface{}{"component": "pq-listener"})
	return pq.NewListener(c.dsn, 10*time.Second, time.Minute, func(ev pq.ListenerEventType, err error) {
		fields := map[string]interface{}{"event": listenerEventName(ev)}
		if err != nil {
			fields["error"] = err
			log.Warn("listener event", fields)
			return
		}
		log.Debug("listener event", fields)
	})
}

func listenerEventName(ev pq.ListenerEventType) string {
	switch ev {
	case pq.ListenerEventConnected:
		return "connected"
	case pq.ListenerEventDisconnected:
		return "disconnected"
	case pq.ListenerEventReconnected:
		return "reconnected"
	case pq.ListenerEventConnectionAttemptFailed:
		return "connection_attempt_failed"
	}
	return "unknown"
}

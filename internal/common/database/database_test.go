package database

import (
	"context"
	"testing"

	"fishery-permit/internal/common/config"

	"github.com/alicebob/miniredis/v2"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRedis_PingAgainstMiniredis(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client, err := NewRedis(config.RedisConfig{Address: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	assert.NoError(t, client.Ping(context.Background()))
}

func TestNewRedis_EmptyAddress(t *testing.T) {
	_, err := NewRedis(config.RedisConfig{})
	assert.Error(t, err)
}

func TestNewPostgres_DoesNotDialOnOpen(t *testing.T) {
	client, err := NewPostgres(config.PostgresConfig{
		Host: "127.0.0.1", Port: 1, User: "u", Password: "p", Database: "d",
		SSLMode: "disable", MaxConnections: 2, MaxIdle: 1,
	})
	require.NoError(t, err)
	assert.NotNil(t, client.GetDB())
	assert.NoError(t, client.Close())
}

func TestListenerEventName(t *testing.T) {
	assert.Equal(t, "connected", listenerEventName(pq.ListenerEventConnected))
	assert.Equal(t, "disconnected", listenerEventName(pq.ListenerEventDisconnected))
	assert.Equal(t, "reconnected", listenerEventName(pq.ListenerEventReconnected))
	assert.Equal(t, "connection_attempt_failed", listenerEventName(pq.ListenerEventConnectionAttemptFailed))
}

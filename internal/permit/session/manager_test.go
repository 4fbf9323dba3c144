package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"fishery-permit/internal/common/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_CreateGetDelete(t *testing.T) {
	m := newTestManager(t, fastOptions(), &fakeRepo{})

	s, err := m.Create(false)
	require.NoError(t, err)

	got, err := m.Get(s.ID)
	require.NoError(t, err)
	assert.Same(t, s, got)
	assert.Equal(t, 1, m.Len())

	require.NoError(t, m.Delete(s.ID))
	_, err = m.Get(s.ID)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeSessionNotFound, errors.AsStandard(err).Code)

	assert.Error(t, m.Delete(s.ID))
}

func TestManager_SessionsAreIndependent(t *testing.T) {
	m := newTestManager(t, fastOptions(), &fakeRepo{})

	a, err := m.Create(false)
	require.NoError(t, err)
	b, err := m.Create(false)
	require.NoError(t, err)

	require.NoError(t, a.UpdateField("vesselName", "희망찬바다호"))
	require.NoError(t, a.Advance())

	assert.Equal(t, "", b.View().Form["vesselName"])
	assert.Equal(t, 1, b.View().CurrentStep)
}

func TestManager_SweepExpiresIdleSessions(t *testing.T) {
	var mu sync.Mutex
	now := time.Date(2025, time.June, 1, 9, 0, 0, 0, time.UTC)
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}
	advance := func(d time.Duration) {
		mu.Lock()
		now = now.Add(d)
		mu.Unlock()
	}

	m := newTestManager(t, fastOptions(), &fakeRepo{}, WithClock(clock), WithIdleTimeout(30*time.Minute))

	idle, err := m.Create(false)
	require.NoError(t, err)
	advance(20 * time.Minute)

	active, err := m.Create(false)
	require.NoError(t, err)
	advance(15 * time.Minute)

	assert.Equal(t, 1, m.Sweep())
	_, err = m.Get(idle.ID)
	assert.Error(t, err)
	_, err = m.Get(active.ID)
	assert.NoError(t, err)
}

func TestManager_RunStopsWithContext(t *testing.T) {
	m := newTestManager(t, fastOptions(), &fakeRepo{})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		m.Run(ctx, time.Millisecond)
		close(done)
	}()

	time.Sleep(5 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop")
	}
}

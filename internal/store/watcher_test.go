package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"fishery-permit/internal/common/logger"
	"fishery-permit/internal/models"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	mu       sync.Mutex
	listened []string
	closed   bool
	ch       chan *pq.Notification
}

func newFakeSource() *fakeSource {
	return &fakeSource{ch: make(chan *pq.Notification, 4)}
}

func (f *fakeSource) Listen(channel string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listened = append(f.listened, channel)
	return nil
}

func (f *fakeSource) NotificationChannel() <-chan *pq.Notification { return f.ch }

func (f *fakeSource) Ping() error { return nil }

func (f *fakeSource) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func receive(t *testing.T, ch <-chan Change) Change {
	t.Helper()
	select {
	case c := <-ch:
		return c
	case <-time.After(time.Second):
		t.Fatal("no change received")
		return Change{}
	}
}

func TestPQWatcher_DecodesNotifications(t *testing.T) {
	source := newFakeSource()
	w := NewPQWatcher(source, "fishery_applications_changed", logger.NewNoOpLogger())

	ctx, cancel := context.WithCancel(context.Background())
	changes := w.Watch(ctx)

	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	source.ch <- &pq.Notification{Channel: "fishery_applications_changed", Extra: `{"op":"INSERT","id":"app-1","at":"2025-06-01T09:30:00+09:00"}`}
	c := receive(t, changes)
	assert.Equal(t, OpInsert, c.Op)
	assert.Equal(t, "app-1", c.ID)

	source.ch <- nil
	assert.Equal(t, OpReconnect, receive(t, changes).Op)

	source.ch <- &pq.Notification{Extra: "not json"}
	assert.Equal(t, OpUpdate, receive(t, changes).Op)

	cancel()
	require.NoError(t, <-done)

	source.mu.Lock()
	defer source.mu.Unlock()
	assert.Equal(t, []string{"fishery_applications_changed"}, source.listened)
	assert.True(t, source.closed)
}

func TestBroadcaster_UnsubscribesOnCancel(t *testing.T) {
	b := NewBroadcaster()
	ctx, cancel := context.WithCancel(context.Background())
	ch := b.Watch(ctx)
	assert.Equal(t, 1, b.Subscribers())

	cancel()
	_, open := <-ch
	assert.False(t, open)
	assert.Equal(t, 0, b.Subscribers())

	// publishing with no subscribers is a no-op
	b.Publish(Change{Op: OpDelete})
}

func TestBroadcaster_DoesNotBlockOnSlowSubscriber(t *testing.T) {
	b := NewBroadcaster()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch := b.Watch(ctx)

	for i := 0; i < 10; i++ {
		b.Publish(Change{Op: OpUpdate})
	}
	assert.Equal(t, OpUpdate, receive(t, ch).Op)
}

func TestBroadcaster_StreamKeepsEveryChange(t *testing.T) {
	b := NewBroadcaster()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	stream := b.Stream(ctx)
	coalesced := b.Watch(ctx)
	assert.Equal(t, 2, b.Subscribers())

	ids := []string{"a", "b", "c", "d", "e"}
	for _, id := range ids {
		b.Publish(Change{Op: OpUpdate, ID: id})
	}

	for _, id := range ids {
		assert.Equal(t, id, receive(t, stream).ID)
	}
	assert.Equal(t, "a", receive(t, coalesced).ID)

	cancel()
	require.Eventually(t, func() bool { return b.Subscribers() == 0 }, time.Second, time.Millisecond)
}

func TestLiveList_RefetchesOnChange(t *testing.T) {
	repo := NewMemoryRepository(staticFixtures{*sampleApplication()})
	live := NewLiveList(repo, repo.Changes(), logger.NewNoOpLogger())

	refreshed := make(chan []models.FisheryApplication, 4)
	live.OnRefresh(func(apps []models.FisheryApplication, cause Change) {
		refreshed <- apps
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		live.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		_, loaded := live.Snapshot()
		return loaded
	}, time.Second, 5*time.Millisecond)

	next := sampleApplication()
	next.ID = "app-2"
	next.ApplicationNumber = "F2025060002"
	next.SubmittedAt = submitted.Add(time.Hour)
	require.NoError(t, repo.Create(context.Background(), next))

	select {
	case apps := <-refreshed:
		require.Len(t, apps, 2)
		assert.Equal(t, "app-2", apps[0].ID)
	case <-time.After(time.Second):
		t.Fatal("list was not refreshed")
	}

	_, err := repo.UpdateStatus(context.Background(), "app-1", models.StatusApproved)
	require.NoError(t, err)
	select {
	case apps := <-refreshed:
		assert.Equal(t, models.StatusApproved, apps[1].Status)
	case <-time.After(time.Second):
		t.Fatal("list was not refreshed")
	}

	cancel()
	<-done
	assert.False(t, live.FetchedAt().IsZero())
}

package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"fishery-permit/internal/common/logger"
	"fishery-permit/internal/models"
	"fishery-permit/internal/store"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingWriter struct {
	mu   sync.Mutex
	msgs []kafka.Message
	err  error
}

func (w *recordingWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *recordingWriter) Close() error { return nil }

func (w *recordingWriter) count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.msgs)
}

func TestKafkaPublisher_Publish(t *testing.T) {
	w := &recordingWriter{}
	p := NewKafkaPublisher(w, "fishery-applications", logger.NewNoOpLogger())

	at := time.Date(2025, time.June, 1, 9, 30, 0, 0, time.UTC)
	err := p.Publish(context.Background(), ApplicationEvent{
		Type:          EventApplicationChanged,
		Op:            store.OpInsert,
		ApplicationID: "app-1",
		Status:        models.StatusPending,
		OccurredAt:    at,
	})
	require.NoError(t, err)
	require.Len(t, w.msgs, 1)

	msg := w.msgs[0]
	assert.Equal(t, []byte("app-1"), msg.Key)
	assert.Equal(t, "event-type", msg.Headers[0].Key)

	var decoded ApplicationEvent
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, store.OpInsert, decoded.Op)
	assert.Equal(t, models.StatusPending, decoded.Status)
}

func TestKafkaPublisher_PublishError(t *testing.T) {
	w := &recordingWriter{err: fmt.Errorf("leader not available")}
	p := NewKafkaPublisher(w, "fishery-applications", logger.NewNoOpLogger())

	err := p.Publish(context.Background(), ApplicationEvent{ApplicationID: "app-1"})
	assert.Error(t, err)
}

type seedOne struct{}

func (seedOne) Applications() []models.FisheryApplication {
	return []models.FisheryApplication{{
		ID:                "app-1",
		ApplicationNumber: "F2025060001",
		FisheryType:       models.FisheryCoastal,
		VesselTonnage:     decimal.RequireFromString("5.5"),
		Status:            models.StatusPending,
	}}
}

func TestKafkaPublisher_ForwardsRepositoryChanges(t *testing.T) {
	repo := store.NewMemoryRepository(seedOne{})
	w := &recordingWriter{}
	p := NewKafkaPublisher(w, "fishery-applications", logger.NewNoOpLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Forward(ctx, repo.Changes(), repo)
		close(done)
	}()

	require.Eventually(t, func() bool { return repo.Changes().Subscribers() == 1 }, time.Second, time.Millisecond)

	_, err := repo.UpdateStatus(context.Background(), "app-1", models.StatusDocumentReview)
	require.NoError(t, err)

	require.Eventually(t, func() bool { return w.count() == 1 }, time.Second, 5*time.Millisecond)
	cancel()
	<-done

	var event ApplicationEvent
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &event))
	assert.Equal(t, "F2025060001", event.ApplicationNumber)
	assert.Equal(t, models.StatusDocumentReview, event.Status)
	assert.Equal(t, store.OpUpdate, event.Op)
}

func TestKafkaPublisher_ForwardsEveryChangeInABurst(t *testing.T) {
	repo := store.NewMemoryRepository(seedOne{})
	w := &recordingWriter{}
	p := NewKafkaPublisher(w, "fishery-applications", logger.NewNoOpLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Forward(ctx, repo.Changes(), repo)
		close(done)
	}()
	require.Eventually(t, func() bool { return repo.Changes().Subscribers() == 1 }, time.Second, time.Millisecond)

	for _, status := range []models.ApplicationStatus{
		models.StatusDocumentReview, models.StatusAIProcessing, models.StatusManualReview,
	} {
		_, err := repo.UpdateStatus(context.Background(), "app-1", status)
		require.NoError(t, err)
	}

	require.Eventually(t, func() bool { return w.count() == 3 }, time.Second, 5*time.Millisecond)
	cancel()
	<-done
	assert.Equal(t, 3, w.count())
}

// Package events forwards application change signals to Kafka.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"fishery-permit/internal/common/logger"
	"fishery-permit/internal/models"
	"fishery-permit/internal/store"

	"github.com/segmentio/kafka-go"
)

const EventApplicationChanged = "fishery.application.changed"

// MessageWriter is the part of *kafka.Writer the publisher needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type ApplicationEvent struct {
	Type              string                   `json:"type"`
	Op                string                   `json:"op"`
	ApplicationID     string                   `json:"applicationId,omitempty"`
	ApplicationNumber string                   `json:"applicationNumber,omitempty"`
	Status            models.ApplicationStatus `json:"status,omitempty"`
	FisheryType       models.FisheryType       `json:"fisheryType,omitempty"`
	OccurredAt        time.Time                `json:"occurredAt"`
}

type KafkaPublisher struct {
	writer MessageWriter
	topic  string
	logger logger.Logger
}

func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
		RequiredAcks:           kafka.RequireAll,
		MaxAttempts:            3,
		WriteBackoffMin:        100 * time.Millisecond,
		WriteBackoffMax:        time.Second,
	}
}

func NewKafkaPublisher(writer MessageWriter, topic string, log logger.Logger) *KafkaPublisher {
	return &KafkaPublisher{
		writer: writer,
		topic:  topic,
		logger: log.WithFields(map[string]interface{}{"component": "kafka-publisher", "topic": topic}),
	}
}

// Publish writes one event keyed by application id so every change of one
// application lands on the same partition.
func (p *KafkaPublisher) Publish(ctx context.Context, event ApplicationEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(event.ApplicationID),
		Value: payload,
		Time:  event.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(event.Type)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("failed to publish application event", map[string]interface{}{
			"applicationId": event.ApplicationID,
			"op":            event.Op,
			"error":         err.Error(),
		})
		return err
	}

	p.logger.Debug("application event published", map[string]interface{}{
		"applicationId": event.ApplicationID,
		"op":            event.Op,
	})
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// Lookup loads the application a change refers to.
type Lookup interface {
	Get(ctx context.Context, id string) (*models.FisheryApplication, error)
}

// Forward publishes an event for every change until ctx is done. Signals
// without an application id, such as a listener reconnect, are skipped.
func (p *KafkaPublisher) Forward(ctx context.Context, source store.Streamer, lookup Lookup) {
	changes := source.Stream(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case c, ok := <-changes:
			if !ok {
				return
			}
			if c.ID == "" {
				continue
			}
			event := ApplicationEvent{
				Type:          EventApplicationChanged,
				Op:            c.Op,
				ApplicationID: c.ID,
				OccurredAt:    c.At,
			}
			if c.Op != store.OpDelete {
				if app, err := lookup.Get(ctx, c.ID); err == nil {
					event.ApplicationNumber = app.ApplicationNumber
					event.Status = app.Status
					event.FisheryType = app.FisheryType
				}
			}
			_ = p.Publish(ctx, event)
		}
	}
}

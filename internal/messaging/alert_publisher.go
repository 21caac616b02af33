// Package messaging publishes stock alerts to downstream consumers.
package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/andresuchdata/stockwatch/internal/domain"
	"github.com/segmentio/kafka-go"
)

const alertEventType = "inventory.alert"

// AlertPublisher sends alerts to a topic.
type AlertPublisher interface {
	PublishAlerts(ctx context.Context, alerts []domain.Alert) error
	Close() error
}

type kafkaAlertPublisher struct {
	writer *kafka.Writer
}

// NewKafkaAlertPublisher writes alerts keyed by location/sku so that updates
// for one item stay on one partition.
func NewKafkaAlertPublisher(brokers []string, topic string) AlertPublisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchSize:    100,
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
		Compression:  kafka.Snappy,
	}

	return &kafkaAlertPublisher{writer: writer}
}

func (p *kafkaAlertPublisher) PublishAlerts(ctx context.Context, alerts []domain.Alert) error {
	if len(alerts) == 0 {
		return nil
	}

	messages, err := buildMessages(alerts)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := p.writer.WriteMessages(ctx, messages...); err != nil {
		return fmt.Errorf("failed to write alerts to kafka: %w", err)
	}
	return nil
}

func (p *kafkaAlertPublisher) Close() error {
	return p.writer.Close()
}

func buildMessages(alerts []domain.Alert) ([]kafka.Message, error) {
	messages := make([]kafka.Message, 0, len(alerts))
	for _, alert := range alerts {
		payload, err := json.Marshal(alert)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal alert %s: %w", alert.ID, err)
		}
		messages = append(messages, kafka.Message{
			Key:   []byte(MessageKey(alert)),
			Value: payload,
			Time:  alert.CreatedAt,
			Headers: []kafka.Header{
				{Key: "event-type", Value: []byte(alertEventType)},
				{Key: "priority", Value: []byte(alert.Priority)},
			},
		})
	}
	return messages, nil
}

// MessageKey is the partition key of an alert.
func MessageKey(alert domain.Alert) string {
	return alert.Location + "/" + alert.SKUID
}

type noopAlertPublisher struct{}

func NewNoopAlertPublisher() AlertPublisher {
	return noopAlertPublisher{}
}

func (noopAlertPublisher) PublishAlerts(ctx context.Context, alerts []domain.Alert) error {
	return nil
}

func (noopAlertPublisher) Close() error {
	return nil
}

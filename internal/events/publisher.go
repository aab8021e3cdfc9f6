package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/oddsmill/settler/internal/pkg/logger"
)

// Publisher emits lifecycle events. Publishing is best-effort: a failed
// publish is logged and never fails the settlement operation that caused it.
type Publisher interface {
	Publish(ctx context.Context, topic, key string, payload any)
	Close() error
}

// KafkaPublisher writes JSON messages, one writer per process, topic chosen
// per message.
type KafkaPublisher struct {
	writer *kafka.Writer
}

func NewKafkaPublisher(brokers string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers),
			Balancer:               &kafka.LeastBytes{},
			AllowAutoTopicCreation: true,
		},
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, topic, key string, payload any) {
	value, err := json.Marshal(payload)
	if err != nil {
		logger.Error("event marshal failed", "topic", topic, "error", err)
		return
	}
	err = p.writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: value,
		Time:  time.Now(),
	})
	if err != nil {
		logger.Error("event publish failed", "topic", topic, "key", key, "error", err)
	}
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NoopPublisher is used when no brokers are configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(ctx context.Context, topic, key string, payload any) {}

func (NoopPublisher) Close() error { return nil }
